package controller

import (
	"posemarket-be/internal/dto"
	"posemarket-be/internal/pkg/serverutils"
	"posemarket-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IWalletController interface {
	RegisterRoutes(r fiber.Router)
	Balance(ctx *fiber.Ctx) error
	Transactions(ctx *fiber.Ctx) error
	CreateDeposit(ctx *fiber.Ctx) error
	MidtransWebhook(ctx *fiber.Ctx) error
}

type walletController struct {
	ledgerService  service.ILedgerService
	depositService service.IDepositService
}

func NewWalletController(ledgerService service.ILedgerService, depositService service.IDepositService) IWalletController {
	return &walletController{
		ledgerService:  ledgerService,
		depositService: depositService,
	}
}

func (c *walletController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/wallet/v1")
	// Webhook is authenticated by the midtrans signature, not a JWT.
	h.Post("midtrans/webhook", c.MidtransWebhook)

	h.Use(serverutils.JwtMiddleware)
	h.Get("balance", c.Balance)
	h.Get("transactions", c.Transactions)
	h.Post("deposit", serverutils.RequireRole("business"), c.CreateDeposit)
}

func (c *walletController) Balance(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.ledgerService.GetBalance(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetch balance", res))
}

func (c *walletController) Transactions(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.ledgerService.ListTransactions(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetch transactions", res))
}

func (c *walletController) CreateDeposit(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CreateDepositRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.depositService.CreateDeposit(ctx.Context(), userId, &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponse(502, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Deposit checkout created", res))
}

func (c *walletController) MidtransWebhook(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.depositService.HandleNotification(ctx.Context(), &req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("OK", nil))
}

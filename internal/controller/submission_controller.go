package controller

import (
	"posemarket-be/internal/dto"
	"posemarket-be/internal/pkg/serverutils"
	"posemarket-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISubmissionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	ListMine(ctx *fiber.Ctx) error
	ListForTask(ctx *fiber.Ctx) error
	Approve(ctx *fiber.Ctx) error
	Reject(ctx *fiber.Ctx) error
	Rate(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
}

type submissionController struct {
	submissionService service.ISubmissionService
	moderationService service.IModerationService
}

func NewSubmissionController(submissionService service.ISubmissionService, moderationService service.IModerationService) ISubmissionController {
	return &submissionController{
		submissionService: submissionService,
		moderationService: moderationService,
	}
}

func (c *submissionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/submission/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("export", serverutils.RequireRole("business"), c.Export)
	h.Get("mine", c.ListMine)
	h.Get("task/:taskId", serverutils.RequireRole("business"), c.ListForTask)
	h.Post("", serverutils.RequireRole("contributor"), c.Create)
	h.Get(":id", c.Show)
	h.Post(":id/approve", serverutils.RequireRole("business"), c.Approve)
	h.Post(":id/reject", serverutils.RequireRole("business"), c.Reject)
	h.Post(":id/rate", serverutils.RequireRole("business"), c.Rate)
}

func (c *submissionController) Create(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CreateSubmissionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.submissionService.CreateSubmission(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create submission", res))
}

func (c *submissionController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	subId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid submission id")
	}

	res, err := c.submissionService.GetSubmission(ctx.Context(), userId, subId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show submission", res))
}

func (c *submissionController) ListMine(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SubmissionListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	res, err := c.submissionService.ListMine(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list submissions", res))
}

func (c *submissionController) ListForTask(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	taskId, err := uuid.Parse(ctx.Params("taskId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}

	var req dto.SubmissionListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	res, err := c.submissionService.ListForTask(ctx.Context(), userId, taskId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list task submissions", res))
}

func (c *submissionController) Approve(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	subId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid submission id")
	}

	if err := c.moderationService.Approve(ctx.Context(), userId, subId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Submission approved", nil))
}

func (c *submissionController) Reject(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	subId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid submission id")
	}

	var req dto.RejectSubmissionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.moderationService.Reject(ctx.Context(), userId, subId, req.Feedback); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Submission rejected", nil))
}

func (c *submissionController) Rate(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	subId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid submission id")
	}

	var req dto.RateSubmissionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.moderationService.Rate(ctx.Context(), userId, subId, req.Rating); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Submission rated", nil))
}

func (c *submissionController) Export(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ExportRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.submissionService.Export(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success export submissions", res))
}

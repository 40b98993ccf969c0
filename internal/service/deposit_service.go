// FILE: internal/service/deposit_service.go
package service

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"posemarket-be/internal/dto"
	"posemarket-be/internal/entity"
	"posemarket-be/internal/pkg/logger"
	"posemarket-be/internal/repository/specification"
	"posemarket-be/internal/repository/unitofwork"
	"posemarket-be/pkg/apperrors"
	"posemarket-be/pkg/events"
	pktNats "posemarket-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"
)

type IDepositService interface {
	CreateDeposit(ctx context.Context, userId uuid.UUID, req *dto.CreateDepositRequest) (*dto.CreateDepositResponse, error)
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
}

type depositService struct {
	uowFactory     unitofwork.RepositoryFactory
	ledger         ILedgerService
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
}

func NewDepositService(uowFactory unitofwork.RepositoryFactory, ledger ILedgerService, eventPublisher *pktNats.Publisher, log logger.ILogger) IDepositService {
	return &depositService{
		uowFactory:     uowFactory,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

// depositOrderId builds "dep-<userId>-<nonce>". The user id rides in the
// order id so settlement can be credited without a pending-order table.
func depositOrderId(userId uuid.UUID) string {
	return fmt.Sprintf("dep-%s-%s", userId, uuid.New().String()[:8])
}

func parseDepositOrderId(orderId string) (uuid.UUID, error) {
	if !strings.HasPrefix(orderId, "dep-") || len(orderId) < 4+36 {
		return uuid.Nil, fmt.Errorf("not a deposit order id: %s", orderId)
	}
	return uuid.Parse(orderId[4 : 4+36])
}

func (s *depositService) CreateDeposit(ctx context.Context, userId uuid.UUID, req *dto.CreateDepositRequest) (*dto.CreateDepositResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}

	var sClient snap.Client
	serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
	env := midtrans.Sandbox
	if os.Getenv("MIDTRANS_IS_PRODUCTION") == "true" {
		env = midtrans.Production
	}
	sClient.New(serverKey, env)

	orderId := depositOrderId(userId)

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderId,
			GrossAmt: req.AmountCents,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: user.FullName,
			Email: user.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    "wallet-deposit",
				Price: req.AmountCents,
				Qty:   1,
				Name:  "Wallet deposit",
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := sClient.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("midtrans error: %v", midErr.GetMessage())
	}

	return &dto.CreateDepositResponse{
		OrderId:     orderId,
		SnapToken:   snapResp.Token,
		RedirectURL: snapResp.RedirectURL,
	}, nil
}

func (s *depositService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
	if serverKey == "" {
		return fmt.Errorf("server configuration error")
	}

	// Midtrans signature = SHA512(order_id + status_code + gross_amount + server_key)
	signatureInput := req.OrderId + req.StatusCode + req.GrossAmount + serverKey
	expectedSignature := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))
	if req.SignatureKey != expectedSignature {
		s.log.Warn("deposit", "webhook signature mismatch", map[string]interface{}{
			"order_id": req.OrderId,
		})
		return fmt.Errorf("invalid signature")
	}

	switch req.TransactionStatus {
	case "capture", "settlement":
		// fall through to crediting below
	case "deny", "cancel", "expire", "pending":
		s.log.Info("deposit", "non-settlement notification, no ledger effect", map[string]interface{}{
			"order_id": req.OrderId, "status": req.TransactionStatus,
		})
		return nil
	default:
		s.log.Warn("deposit", "unknown transaction status", map[string]interface{}{
			"order_id": req.OrderId, "status": req.TransactionStatus,
		})
		return nil
	}

	userId, err := parseDepositOrderId(req.OrderId)
	if err != nil {
		return err
	}

	gross, err := strconv.ParseFloat(req.GrossAmount, 64)
	if err != nil {
		return fmt.Errorf("invalid gross amount %q: %v", req.GrossAmount, err)
	}
	amountCents := int64(gross)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	// Midtrans redelivers notifications; the order id in the description
	// is the idempotency key. The read catches most redeliveries, and the
	// unique index on deposit descriptions catches two deliveries racing
	// through the read at once.
	existing, err := uow.TransactionRepository().FindAll(ctx,
		specification.FilterBy{Field: "description", Value: req.OrderId})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		s.log.Info("deposit", "settlement already credited", map[string]interface{}{
			"order_id": req.OrderId,
		})
		return nil
	}

	if err := s.ledger.Credit(ctx, uow, userId, entity.TransactionTypeDeposit, amountCents, req.OrderId, nil); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.log.Info("deposit", "settlement credited by a concurrent delivery", map[string]interface{}{
				"order_id": req.OrderId,
			})
			return nil
		}
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.DepositSettled,
			Data: map[string]interface{}{
				"user_id":      userId,
				"order_id":     req.OrderId,
				"amount_cents": amountCents,
				"occurred_at":  time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("deposit", "failed to publish settlement event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return nil
}

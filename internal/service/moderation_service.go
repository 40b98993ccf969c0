// FILE: internal/service/moderation_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"posemarket-be/internal/entity"
	"posemarket-be/internal/pkg/logger"
	"posemarket-be/internal/pkg/mailer"
	"posemarket-be/internal/repository/specification"
	"posemarket-be/internal/repository/unitofwork"
	"posemarket-be/pkg/apperrors"
	"posemarket-be/pkg/events"
	pktNats "posemarket-be/pkg/nats"
	"posemarket-be/pkg/verifier"
	"posemarket-be/pkg/webhook"

	"github.com/google/uuid"
)

type IModerationService interface {
	// Approve flips pending to approved and settles payment in one
	// transaction. A submission that is no longer pending yields
	// ErrConflict; two racing approvals produce exactly one credit pair.
	Approve(ctx context.Context, businessId, submissionId uuid.UUID) error

	// Reject flips pending to rejected and stores the feedback. No
	// ledger effect. The contributor is emailed best-effort.
	Reject(ctx context.Context, businessId, submissionId uuid.UUID, feedback string) error

	// Rate attaches a 1-5 star value regardless of status. Informational
	// only.
	Rate(ctx context.Context, businessId, submissionId uuid.UUID, rating int) error

	// AttachVerdict records the automated verification at most once,
	// only while the submission is still pending and unverified.
	AttachVerdict(ctx context.Context, submissionId uuid.UUID, v *verifier.Verification) error
}

type moderationService struct {
	uowFactory     unitofwork.RepositoryFactory
	ledger         ILedgerService
	emailService   mailer.IEmailService
	notifier       *webhook.Notifier
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
}

func NewModerationService(
	uowFactory unitofwork.RepositoryFactory,
	ledger ILedgerService,
	emailService mailer.IEmailService,
	notifier *webhook.Notifier,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IModerationService {
	return &moderationService{
		uowFactory:     uowFactory,
		ledger:         ledger,
		emailService:   emailService,
		notifier:       notifier,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

// loadForDecision fetches the submission plus its task and checks the
// caller owns the task.
func (s *moderationService) loadForDecision(ctx context.Context, uow unitofwork.UnitOfWork, businessId, submissionId uuid.UUID) (*entity.Submission, *entity.Task, error) {
	sub, err := uow.SubmissionRepository().FindOne(ctx, specification.ByID{ID: submissionId})
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, apperrors.ErrNotFound
	}

	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: sub.TaskId})
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, apperrors.ErrNotFound
	}
	if task.BusinessId != businessId {
		return nil, nil, apperrors.ErrUnauthorized
	}
	return sub, task, nil
}

func (s *moderationService) Approve(ctx context.Context, businessId, submissionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, task, err := s.loadForDecision(ctx, uow, businessId, submissionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	moved, err := uow.SubmissionRepository().UpdateStatusIf(ctx, submissionId,
		entity.SubmissionStatusPending, entity.SubmissionStatusApproved, nil)
	if err != nil {
		return err
	}
	if !moved {
		return apperrors.ErrConflict
	}

	// The status CAS is the primary guard. The ledger check backs it up:
	// an earning row for this submission means some path already paid it,
	// and a second pair must never be written.
	paid, err := uow.TransactionRepository().ExistsForSubmission(ctx, submissionId, entity.TransactionTypeEarning)
	if err != nil {
		return err
	}
	if paid {
		return apperrors.ErrConflict
	}

	// Zero-price approvals still write the pair so the audit trail shows
	// the decision.
	desc := fmt.Sprintf("approval for task %q", task.Title)
	if err := s.ledger.Credit(ctx, uow, sub.ContributorId, entity.TransactionTypeEarning, task.PriceCents, desc, &submissionId); err != nil {
		return err
	}
	if err := s.ledger.Credit(ctx, uow, task.BusinessId, entity.TransactionTypePayout, -task.PriceCents, desc, &submissionId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	s.afterDecision(ctx, sub, task, events.SubmissionApproved, nil)
	return nil
}

func (s *moderationService) Reject(ctx context.Context, businessId, submissionId uuid.UUID, feedback string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, task, err := s.loadForDecision(ctx, uow, businessId, submissionId)
	if err != nil {
		return err
	}

	moved, err := uow.SubmissionRepository().UpdateStatusIf(ctx, submissionId,
		entity.SubmissionStatusPending, entity.SubmissionStatusRejected, &feedback)
	if err != nil {
		return err
	}
	if !moved {
		return apperrors.ErrConflict
	}

	s.afterDecision(ctx, sub, task, events.SubmissionRejected, &feedback)
	return nil
}

// afterDecision runs the best-effort side channel: event bus, webhook,
// contributor email. None of these can undo the committed decision.
func (s *moderationService) afterDecision(ctx context.Context, sub *entity.Submission, task *entity.Task, eventType string, feedback *string) {
	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: eventType,
			Data: map[string]interface{}{
				"submission_id":  sub.Id,
				"task_id":        task.Id,
				"contributor_id": sub.ContributorId,
				"price_cents":    task.PriceCents,
				"occurred_at":    time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("moderation", "failed to publish decision event", map[string]interface{}{
				"event": eventType, "error": err.Error(),
			})
		}
	}

	if task.WebhookURL != nil {
		payload := map[string]interface{}{
			"submission_id": sub.Id,
			"task_id":       task.Id,
			"event":         eventType,
		}
		if err := s.notifier.Notify(ctx, *task.WebhookURL, payload); err != nil {
			s.log.Warn("moderation", "webhook delivery failed", map[string]interface{}{
				"url": *task.WebhookURL, "error": err.Error(),
			})
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	contributor, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: sub.ContributorId})
	if err != nil || contributor == nil {
		return
	}
	if eventType == events.SubmissionRejected && feedback != nil {
		if err := s.emailService.SendRejectionNotice(contributor.Email, task.Title, *feedback); err != nil {
			s.log.Warn("moderation", "rejection email failed", map[string]interface{}{
				"email": contributor.Email, "error": err.Error(),
			})
		}
	}
	if eventType == events.SubmissionApproved {
		if err := s.emailService.SendApprovalNotice(contributor.Email, task.Title, task.PriceCents); err != nil {
			s.log.Warn("moderation", "approval email failed", map[string]interface{}{
				"email": contributor.Email, "error": err.Error(),
			})
		}
	}
}

func (s *moderationService) Rate(ctx context.Context, businessId, submissionId uuid.UUID, rating int) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	_, _, err := s.loadForDecision(ctx, uow, businessId, submissionId)
	if err != nil {
		return err
	}
	return uow.SubmissionRepository().SetRating(ctx, submissionId, rating)
}

func (s *moderationService) AttachVerdict(ctx context.Context, submissionId uuid.UUID, v *verifier.Verification) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	attached, err := uow.SubmissionRepository().AttachVerification(ctx, submissionId, raw)
	if err != nil {
		return err
	}
	if !attached {
		// Already decided or already verified; the verdict is advisory
		// so a lost race is silence, not failure.
		s.log.Info("moderation", "verdict not attached, submission already decided or verified", map[string]interface{}{
			"submission_id": submissionId.String(),
		})
	}
	return nil
}

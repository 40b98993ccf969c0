package service

import (
	"context"
	"errors"
	"testing"

	"posemarket-be/internal/entity"
	"posemarket-be/pkg/apperrors"
	"posemarket-be/pkg/verifier"

	"github.com/google/uuid"
)

type moderationFixture struct {
	store       *memoryStore
	svc         IModerationService
	email       *recordingEmail
	business    *entity.User
	contributor *entity.User
	task        *entity.Task
	submission  *entity.Submission
}

func newModerationFixture(t *testing.T, priceCents int64) *moderationFixture {
	t.Helper()
	store := newMemoryStore()

	business := &entity.User{Id: uuid.New(), Email: "biz@example.com", Role: entity.UserRoleBusiness, BalanceCents: 10000}
	contributor := &entity.User{Id: uuid.New(), Email: "worker@example.com", Role: entity.UserRoleContributor}
	task := &entity.Task{Id: uuid.New(), BusinessId: business.Id, Title: "Stack boxes", PriceCents: priceCents, Active: true}
	submission := &entity.Submission{Id: uuid.New(), TaskId: task.Id, ContributorId: contributor.Id, Status: entity.SubmissionStatusPending}

	store.users[business.Id] = business
	store.users[contributor.Id] = contributor
	store.tasks[task.Id] = task
	store.submissions[submission.Id] = submission

	email := &recordingEmail{}
	ledger := NewLedgerService(store.factory(), nopLogger{})
	svc := NewModerationService(store.factory(), ledger, email, nil, nil, nopLogger{})

	return &moderationFixture{
		store:       store,
		svc:         svc,
		email:       email,
		business:    business,
		contributor: contributor,
		task:        task,
		submission:  submission,
	}
}

func TestApproveSettlesPayment(t *testing.T) {
	fx := newModerationFixture(t, 500)

	if err := fx.svc.Approve(context.Background(), fx.business.Id, fx.submission.Id); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if fx.submission.Status != entity.SubmissionStatusApproved {
		t.Errorf("status = %v, want approved", fx.submission.Status)
	}
	if fx.submission.DecidedAt == nil {
		t.Error("DecidedAt should be set after approval")
	}

	if len(fx.store.transactions) != 2 {
		t.Fatalf("ledger has %d rows, want 2", len(fx.store.transactions))
	}
	var earning, payout *entity.Transaction
	for _, tx := range fx.store.transactions {
		switch tx.Type {
		case entity.TransactionTypeEarning:
			earning = tx
		case entity.TransactionTypePayout:
			payout = tx
		}
	}
	if earning == nil || payout == nil {
		t.Fatal("approval must write one earning and one payout row")
	}
	if earning.UserId != fx.contributor.Id || earning.AmountCents != 500 {
		t.Errorf("earning = %d cents for %v, want +500 for contributor", earning.AmountCents, earning.UserId)
	}
	if payout.UserId != fx.business.Id || payout.AmountCents != -500 {
		t.Errorf("payout = %d cents for %v, want -500 for business", payout.AmountCents, payout.UserId)
	}
	if earning.SubmissionId == nil || *earning.SubmissionId != fx.submission.Id {
		t.Error("earning row should reference the submission")
	}

	if fx.contributor.BalanceCents != 500 {
		t.Errorf("contributor balance = %d, want 500", fx.contributor.BalanceCents)
	}
	if fx.business.BalanceCents != 9500 {
		t.Errorf("business balance = %d, want 9500", fx.business.BalanceCents)
	}
	if len(fx.email.approvals) != 1 {
		t.Errorf("approval emails sent = %d, want 1", len(fx.email.approvals))
	}
}

func TestApproveAlreadyDecidedIsConflict(t *testing.T) {
	fx := newModerationFixture(t, 500)

	if err := fx.svc.Approve(context.Background(), fx.business.Id, fx.submission.Id); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	err := fx.svc.Approve(context.Background(), fx.business.Id, fx.submission.Id)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("second Approve = %v, want ErrConflict", err)
	}

	// The losing call must not have written a second credit pair.
	if len(fx.store.transactions) != 2 {
		t.Errorf("ledger has %d rows after conflicting approve, want 2", len(fx.store.transactions))
	}
	if fx.contributor.BalanceCents != 500 {
		t.Errorf("contributor balance = %d, want 500", fx.contributor.BalanceCents)
	}
}

func TestApproveRefusesAlreadyPaidSubmission(t *testing.T) {
	fx := newModerationFixture(t, 500)

	// A pending submission with an earning row is inconsistent state, for
	// example a replayed decision whose status write was rolled back.
	// Approve must not pay it a second time.
	fx.store.transactions = append(fx.store.transactions, &entity.Transaction{
		Id:           uuid.New(),
		UserId:       fx.contributor.Id,
		Type:         entity.TransactionTypeEarning,
		AmountCents:  500,
		SubmissionId: &fx.submission.Id,
	})

	err := fx.svc.Approve(context.Background(), fx.business.Id, fx.submission.Id)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("Approve on a paid submission = %v, want ErrConflict", err)
	}
	if len(fx.store.transactions) != 1 {
		t.Errorf("ledger has %d rows, want the pre-existing 1 only", len(fx.store.transactions))
	}
}

func TestApproveRequiresTaskOwnership(t *testing.T) {
	fx := newModerationFixture(t, 500)
	stranger := uuid.New()

	err := fx.svc.Approve(context.Background(), stranger, fx.submission.Id)
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("Approve by non-owner = %v, want ErrUnauthorized", err)
	}
	if fx.submission.Status != entity.SubmissionStatusPending {
		t.Errorf("status = %v, want pending untouched", fx.submission.Status)
	}
}

func TestApproveUnknownSubmission(t *testing.T) {
	fx := newModerationFixture(t, 500)

	err := fx.svc.Approve(context.Background(), fx.business.Id, uuid.New())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Approve of unknown submission = %v, want ErrNotFound", err)
	}
}

func TestApproveZeroPriceStillWritesLedgerPair(t *testing.T) {
	fx := newModerationFixture(t, 0)

	if err := fx.svc.Approve(context.Background(), fx.business.Id, fx.submission.Id); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if len(fx.store.transactions) != 2 {
		t.Errorf("ledger has %d rows, want 2 even at zero price", len(fx.store.transactions))
	}
	if fx.business.BalanceCents != 10000 {
		t.Errorf("business balance = %d, want unchanged 10000", fx.business.BalanceCents)
	}
}

func TestRejectStoresFeedbackWithoutLedgerEffect(t *testing.T) {
	fx := newModerationFixture(t, 500)

	if err := fx.svc.Reject(context.Background(), fx.business.Id, fx.submission.Id, "face not visible"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if fx.submission.Status != entity.SubmissionStatusRejected {
		t.Errorf("status = %v, want rejected", fx.submission.Status)
	}
	if fx.submission.Feedback == nil || *fx.submission.Feedback != "face not visible" {
		t.Error("rejection feedback should be stored on the submission")
	}
	if len(fx.store.transactions) != 0 {
		t.Errorf("ledger has %d rows after reject, want 0", len(fx.store.transactions))
	}
	if fx.contributor.BalanceCents != 0 {
		t.Errorf("contributor balance = %d, want 0", fx.contributor.BalanceCents)
	}
	if len(fx.email.rejections) != 1 {
		t.Errorf("rejection emails sent = %d, want 1", len(fx.email.rejections))
	}
}

func TestRejectAfterApproveIsConflict(t *testing.T) {
	fx := newModerationFixture(t, 500)

	if err := fx.svc.Approve(context.Background(), fx.business.Id, fx.submission.Id); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	err := fx.svc.Reject(context.Background(), fx.business.Id, fx.submission.Id, "changed my mind")
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("Reject after Approve = %v, want ErrConflict", err)
	}
	if fx.submission.Status != entity.SubmissionStatusApproved {
		t.Errorf("status = %v, approval must be terminal", fx.submission.Status)
	}
}

func TestRateAttachesStars(t *testing.T) {
	fx := newModerationFixture(t, 500)

	if err := fx.svc.Rate(context.Background(), fx.business.Id, fx.submission.Id, 4); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if fx.submission.Rating == nil || *fx.submission.Rating != 4 {
		t.Error("rating should be stored on the submission")
	}

	if err := fx.svc.Rate(context.Background(), uuid.New(), fx.submission.Id, 1); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("Rate by non-owner = %v, want ErrUnauthorized", err)
	}
}

func TestAttachVerdictIsWriteOnce(t *testing.T) {
	fx := newModerationFixture(t, 500)

	first := &verifier.Verification{Verdict: verifier.VerdictPass, Confidence: 90, Reason: "looks right", Model: "primary"}
	if err := fx.svc.AttachVerdict(context.Background(), fx.submission.Id, first); err != nil {
		t.Fatalf("AttachVerdict: %v", err)
	}
	if fx.submission.AiVerification == nil || fx.submission.AiVerification.Verdict != verifier.VerdictPass {
		t.Fatal("verdict should be attached to the pending submission")
	}

	// A second verdict loses the race silently.
	second := &verifier.Verification{Verdict: verifier.VerdictFail, Confidence: 99, Reason: "late", Model: "secondary"}
	if err := fx.svc.AttachVerdict(context.Background(), fx.submission.Id, second); err != nil {
		t.Fatalf("second AttachVerdict: %v", err)
	}
	if fx.submission.AiVerification.Verdict != verifier.VerdictPass {
		t.Error("first verdict must not be overwritten")
	}
}

func TestAttachVerdictSkipsDecidedSubmission(t *testing.T) {
	fx := newModerationFixture(t, 500)

	if err := fx.svc.Approve(context.Background(), fx.business.Id, fx.submission.Id); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	v := &verifier.Verification{Verdict: verifier.VerdictFail, Confidence: 80, Reason: "too late", Model: "primary"}
	if err := fx.svc.AttachVerdict(context.Background(), fx.submission.Id, v); err != nil {
		t.Fatalf("AttachVerdict: %v", err)
	}
	if fx.submission.AiVerification != nil {
		t.Error("verdict must not attach after a human decision")
	}
}

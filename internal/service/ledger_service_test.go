package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"posemarket-be/internal/entity"
	"posemarket-be/pkg/apperrors"

	"github.com/google/uuid"
)

func TestCreditWritesRowAndBalanceTogether(t *testing.T) {
	store := newMemoryStore()
	user := &entity.User{Id: uuid.New(), Role: entity.UserRoleContributor}
	store.users[user.Id] = user

	svc := NewLedgerService(store.factory(), nopLogger{})
	uow := store.factory().NewUnitOfWork(context.Background())

	if err := svc.Credit(context.Background(), uow, user.Id, entity.TransactionTypeDeposit, 2500, "dep-test", nil); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	if len(store.transactions) != 1 {
		t.Fatalf("ledger has %d rows, want 1", len(store.transactions))
	}
	tx := store.transactions[0]
	if tx.AmountCents != 2500 || tx.Type != entity.TransactionTypeDeposit {
		t.Errorf("row = %+v, want +2500 deposit", tx)
	}
	if user.BalanceCents != 2500 {
		t.Errorf("balance = %d, want 2500", user.BalanceCents)
	}
}

func TestCreditUnknownUserFails(t *testing.T) {
	store := newMemoryStore()
	svc := NewLedgerService(store.factory(), nopLogger{})
	uow := store.factory().NewUnitOfWork(context.Background())

	if err := svc.Credit(context.Background(), uow, uuid.New(), entity.TransactionTypeDeposit, 100, "dep-test", nil); err == nil {
		t.Error("Credit for an unknown user should fail")
	}
}

func TestGetBalance(t *testing.T) {
	store := newMemoryStore()
	user := &entity.User{Id: uuid.New(), BalanceCents: 1234}
	store.users[user.Id] = user

	svc := NewLedgerService(store.factory(), nopLogger{})

	res, err := svc.GetBalance(context.Background(), user.Id)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if res.BalanceCents != 1234 {
		t.Errorf("BalanceCents = %d, want 1234", res.BalanceCents)
	}

	if _, err := svc.GetBalance(context.Background(), uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("GetBalance for unknown user = %v, want ErrNotFound", err)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	store := newMemoryStore()
	user := &entity.User{Id: uuid.New()}
	other := &entity.User{Id: uuid.New()}
	store.users[user.Id] = user
	store.users[other.Id] = other

	base := time.Now()
	store.transactions = []*entity.Transaction{
		{Id: uuid.New(), UserId: user.Id, Type: entity.TransactionTypeDeposit, AmountCents: 100, CreatedAt: base},
		{Id: uuid.New(), UserId: user.Id, Type: entity.TransactionTypeEarning, AmountCents: 50, CreatedAt: base.Add(time.Minute)},
		{Id: uuid.New(), UserId: other.Id, Type: entity.TransactionTypeDeposit, AmountCents: 999, CreatedAt: base.Add(2 * time.Minute)},
	}

	svc := NewLedgerService(store.factory(), nopLogger{})
	res, err := svc.ListTransactions(context.Background(), user.Id)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}

	if res.Total != 2 {
		t.Fatalf("Total = %d, want 2 (other user's rows excluded)", res.Total)
	}
	if res.Transactions[0].AmountCents != 50 || res.Transactions[1].AmountCents != 100 {
		t.Error("transactions should be ordered newest first")
	}
}

func TestAuditBalance(t *testing.T) {
	store := newMemoryStore()
	user := &entity.User{Id: uuid.New(), BalanceCents: 150}
	store.users[user.Id] = user
	store.transactions = []*entity.Transaction{
		{Id: uuid.New(), UserId: user.Id, Type: entity.TransactionTypeDeposit, AmountCents: 200},
		{Id: uuid.New(), UserId: user.Id, Type: entity.TransactionTypePayout, AmountCents: -50},
	}

	svc := NewLedgerService(store.factory(), nopLogger{})

	ok, err := svc.AuditBalance(context.Background(), user.Id)
	if err != nil {
		t.Fatalf("AuditBalance: %v", err)
	}
	if !ok {
		t.Error("audit should pass when cache equals the signed sum")
	}

	user.BalanceCents = 9999
	ok, err = svc.AuditBalance(context.Background(), user.Id)
	if err != nil {
		t.Fatalf("AuditBalance: %v", err)
	}
	if ok {
		t.Error("audit should flag a diverged cache")
	}
}

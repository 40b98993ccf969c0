package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"posemarket-be/internal/entity"
	"posemarket-be/internal/repository/unitofwork"
	"posemarket-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.TaskRepository())
	assert.NotNil(t, uow.SubmissionRepository())
	assert.NotNil(t, uow.TransactionRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check Task Repository", func(t *testing.T) {
		count, err := uow.TaskRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Task count: %d", count)
	})

	t.Run("Check Transactional Ledger Credit", func(t *testing.T) {
		userId := uuid.New()
		user := &entity.User{
			Id:       userId,
			Email:    "test-integration-" + uuid.New().String() + "@example.com",
			FullName: "Integration Test User",
			Role:     entity.UserRoleBusiness,
			Status:   entity.UserStatusActive,
		}
		err := uow.UserRepository().Create(context.Background(), user)
		assert.NoError(t, err)

		ctx := context.Background()
		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		tx := &entity.Transaction{
			Id:          uuid.New(),
			UserId:      userId,
			Type:        entity.TransactionTypeDeposit,
			AmountCents: 1500,
			Description: "integration-" + uuid.New().String(),
			CreatedAt:   time.Now(),
		}
		err = uow.TransactionRepository().Create(ctx, tx)
		assert.NoError(t, err)

		err = uow.UserRepository().AdjustBalance(ctx, userId, 1500)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		sum, err := uow.TransactionRepository().SumAmounts(context.Background(), userId)
		assert.NoError(t, err)
		assert.Equal(t, int64(1500), sum)
	})
}

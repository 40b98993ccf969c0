package bootstrap

import (
	"context"
	"log"

	"posemarket-be/internal/config"
	"posemarket-be/internal/controller"
	"posemarket-be/internal/handler"
	"posemarket-be/internal/pkg/logger"
	"posemarket-be/internal/pkg/mailer"
	"posemarket-be/internal/repository/memory"
	"posemarket-be/internal/repository/unitofwork"
	"posemarket-be/internal/service"
	"posemarket-be/internal/websocket"
	"posemarket-be/pkg/blobstore"
	"posemarket-be/pkg/events"
	"posemarket-be/pkg/pose/detector"
	"posemarket-be/pkg/verifier"
	"posemarket-be/pkg/webhook"

	pktNats "posemarket-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController       controller.IAuthController
	TaskController       controller.ITaskController
	SubmissionController controller.ISubmissionController
	WalletController     controller.IWalletController

	// Background Services (Exposed for main.go to run)
	VerificationWorker service.IVerificationWorker

	// WebSockets
	CaptureHandler *handler.CaptureHandler
	WatchHandler   *handler.WatchHandler
	WebSocketHub   *websocket.Hub

	// PoseLoader owns the shared detector handle. main releases it at
	// shutdown; the health route reports its readiness.
	PoseLoader detector.Loader
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/capture.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Decision relay: moderation events published by any instance are
	// pushed to contributors watching from this one.
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		relay := func(ctx context.Context, evt events.Event) error {
			raw, ok := evt.Payload()["contributor_id"].(string)
			if !ok {
				return nil
			}
			contributorId, err := uuid.Parse(raw)
			if err != nil {
				return nil
			}
			wsHub.Send(contributorId, "decision", evt.Payload())
			return nil
		}
		for event, durable := range map[string]string{
			events.Subject(events.SubmissionApproved): "posemarket-watch-approved",
			events.Subject(events.SubmissionRejected): "posemarket-watch-rejected",
		} {
			if err := natsSub.Subscribe(event, durable, relay); err != nil {
				log.Printf("[WARN] Failed to subscribe to %s: %v", event, err)
			}
		}
	}

	// Blob store
	blobStore, err := blobstore.NewLocalStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize blob store: %v", err)
	}

	// Pose detector: shared lazily loaded handle, one per process.
	poseLoader := detector.NewHTTPLoader(cfg.Detector.BaseURL, cfg.Detector.Model)

	// Verifier chain, first configured model preferred.
	judges := make([]verifier.Judge, 0, len(cfg.Keys.VerifierModels))
	for _, model := range cfg.Keys.VerifierModels {
		judges = append(judges, verifier.NewGeminiJudge(cfg.Keys.GoogleGemini, model))
	}
	verifierChain := verifier.NewChain(verifier.DefaultPolicy(), judges...)

	notifier := webhook.NewNotifier()

	// 3. Services
	publisherService := service.NewPublisherService(cfg.Keys.VerifyTopic, pubSub)

	authService := service.NewAuthService(uowFactory)
	taskService := service.NewTaskService(uowFactory)
	ledgerService := service.NewLedgerService(uowFactory, sysLogger)
	moderationService := service.NewModerationService(uowFactory, ledgerService, emailService, notifier, natsPub, sysLogger)
	submissionService := service.NewSubmissionService(uowFactory, blobStore, publisherService, natsPub, notifier, sysLogger)
	depositService := service.NewDepositService(uowFactory, ledgerService, natsPub, sysLogger)

	verificationWorker := service.NewVerificationWorker(
		pubSub,
		cfg.Keys.VerifyTopic,
		uowFactory,
		blobStore,
		verifierChain,
		moderationService,
	)

	// 3.5 Capture System Infrastructure
	captureSessions := memory.NewCaptureSessionRepository()
	captureHandler := handler.NewCaptureHandler(captureSessions, poseLoader, blobStore, uowFactory, wsHub, wsLogger)
	watchHandler := handler.NewWatchHandler(wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		AuthController:       controller.NewAuthController(authService),
		TaskController:       controller.NewTaskController(taskService),
		SubmissionController: controller.NewSubmissionController(submissionService, moderationService),
		WalletController:     controller.NewWalletController(ledgerService, depositService),

		VerificationWorker: verificationWorker,

		CaptureHandler: captureHandler,
		WatchHandler:   watchHandler,
		WebSocketHub:   wsHub,

		PoseLoader: poseLoader,
	}
}

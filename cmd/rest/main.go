package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"posemarket-be/internal/bootstrap"
	"posemarket-be/internal/config"
	"posemarket-be/internal/server"
	"posemarket-be/internal/tracer"
	"posemarket-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Verification Worker...")
		if err := container.VerificationWorker.Consume(context.Background()); err != nil {
			log.Printf("Background Verification Worker Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	go func() {
		if err := srv.Run(); err != nil {
			log.Panicf("Server error: %v", err)
		}
	}()

	// 7. Wait for shutdown signal, then drain and free the pose model
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := srv.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	container.PoseLoader.Release()
}

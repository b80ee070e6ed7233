package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oggyb/sms-framework/internal/activehours"
	"github.com/oggyb/sms-framework/internal/cache/redis"
	"github.com/oggyb/sms-framework/internal/config"
	"github.com/oggyb/sms-framework/internal/db/gormdb"
	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/owner"
	"github.com/oggyb/sms-framework/internal/domain/user"
	"github.com/oggyb/sms-framework/internal/domain/verification"
	"github.com/oggyb/sms-framework/internal/flood"
	"github.com/oggyb/sms-framework/internal/handler"
	"github.com/oggyb/sms-framework/internal/pipeline"
	redisqueue "github.com/oggyb/sms-framework/internal/queue/redis"
	messagegorm "github.com/oggyb/sms-framework/internal/repository/gorm/message"
	reportgorm "github.com/oggyb/sms-framework/internal/repository/gorm/report"
	usergorm "github.com/oggyb/sms-framework/internal/repository/gorm/user"
	verificationgorm "github.com/oggyb/sms-framework/internal/repository/gorm/verification"
	routes "github.com/oggyb/sms-framework/internal/router"
	"github.com/oggyb/sms-framework/internal/routing"
	"github.com/oggyb/sms-framework/internal/scheduler"
	"github.com/oggyb/sms-framework/internal/server"
	"github.com/oggyb/sms-framework/internal/service"
	"github.com/oggyb/sms-framework/internal/sms"
	"github.com/oggyb/sms-framework/internal/worker"
)

// @title       SMS Framework API
// @version     1.0
// @description Queues SMS through pluggable gateways, records delivery reports and verifies phone numbers.
// @BasePath    /
func main() {
	// Base context for the whole application lifetime.
	rootCtx := context.Background()

	// Load configuration from environment/.env and the gateway file.
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	file, err := config.LoadGatewayFile(cfg.Gateways.File)
	if err != nil {
		log.Fatalf("failed to load gateways: %v", err)
	}

	// Init cache and work queue.
	cache := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := cache.Ping(rootCtx); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	workQueue := redisqueue.New(cache.Raw(), cfg.Queue.Key)

	// Init DB.
	db, err := gormdb.New(cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}

	// Repositories
	messages := messagegorm.NewRepository(db)
	reports := reportgorm.NewRepository(db)
	verifications := verificationgorm.NewRepository(db)
	users := usergorm.NewRepository(db)

	// Gateways
	gateways := gateway.NewRegistry()
	sms.RegisterPlugins(gateways)
	if err := gateways.Load(file.Definitions(), file.Fallback); err != nil {
		log.Fatalf("failed to load gateways: %v", err)
	}
	for _, g := range gateways.All() {
		log.Printf("[Main] Gateway %s (%s) loaded, skipQueue=%t", g.ID, g.Definition.Plugin, g.SkipQueue)
	}

	// Owners
	owners := owner.NewRegistry()
	owners.Register(user.OwnerType, user.NewOwnerStore(users))

	// Active hours
	zone, err := file.ActiveHoursZone()
	if err != nil {
		log.Fatalf("invalid active hours: %v", err)
	}
	hours, err := activehours.New(file.ActiveHours.Enabled, file.ActiveHoursRanges(), owners, zone)
	if err != nil {
		log.Fatalf("invalid active hours: %v", err)
	}

	// Pipeline
	router := routing.New(gateways, routing.NewPrefixProposer(gateways))
	dispatcher := pipeline.New(gateways, messages)
	var delayer pipeline.Delayer
	if hours.Enabled() {
		delayer = hours
	}
	dispatcher.Use(pipeline.DefaultHooks(router, gateways, delayer)...)

	// Services
	msgSvc := service.NewMessageService(messages, reports, gateways, dispatcher, cache)
	reconciler := service.NewReconciler(gateways, reports, cache)

	settings, err := file.VerificationSettings()
	if err != nil {
		log.Fatalf("invalid verification settings: %v", err)
	}
	floodWindow, err := file.FloodWindow()
	if err != nil {
		log.Fatalf("invalid verification settings: %v", err)
	}
	verifySvc := service.NewVerificationService(
		verifications,
		verification.NewSettingsRegistry(settings...),
		owners,
		msgSvc,
		flood.New(cache),
		file.Verification.FloodThreshold,
		floodWindow,
	)
	dispatcher.Use(verifySvc.ReplyHook())

	queueProcessor := service.NewQueueProcessor(messages, gateways, workQueue, cfg.Queue.ScanLimit)

	// Cron
	cron := scheduler.NewSchedulerService(
		service.NewMaintenance(queueProcessor, verifySvc),
		cfg.Scheduler.Interval,
		cfg.Scheduler.BatchTimeout,
	)

	// HTTP dependencies & server wiring.
	checks := handler.GatewayChecks(gateways)
	checks["postgres"] = db
	checks["redis"] = cache

	deps := routes.AppDeps{
		Home:         handler.NewHomeHandler(checks),
		Message:      handler.NewMessageHandler(msgSvc, reconciler, cron),
		Gateway:      handler.NewGatewayHandler(gateways, reconciler, msgSvc),
		Verification: handler.NewVerificationHandler(verifySvc),
		User:         handler.NewUserHandler(users, verifySvc),
	}

	addr := cfg.API.Addr()
	srv := server.New(addr, deps)

	// Create a context that is cancelled on SIGINT/SIGTERM (Ctrl+C, docker stop etc.).
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the HTTP server in a separate goroutine so we can listen for signals.
	go func() {
		log.Printf("HTTP server listening on %s", addr)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Workers drain the queue until the signal context is cancelled.
	var workers sync.WaitGroup
	if cfg.Worker.Enabled {
		w := worker.New(workQueue, msgSvc, cfg.Worker.BatchSize, cfg.Worker.MaxWorkers, cfg.Worker.PerMessageTimeout)
		workers.Add(1)
		go func() {
			defer workers.Done()
			w.Run(ctx)
		}()
		log.Println("[Main] Worker started.")
	}

	// Start the scheduler after everything is wired up.
	if err := cron.Start(); err != nil {
		log.Fatalf("Cron job service error: %v", err)
	}
	log.Println("[Main] Scheduler started.")

	// Block until we receive a shutdown signal.
	<-ctx.Done()
	log.Println("[Main] Shutdown signal received, starting graceful shutdown...")

	// Give components some time to shut down cleanly.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop the scheduler (waits for in-flight tick to finish or timeout).
	log.Println("[Main] Stopping scheduler...")
	if err := cron.Stop(); err != nil {
		log.Printf("[Main] Scheduler could not be stopped: %v", err)
	} else {
		log.Println("[Main] Scheduler stopped.")
	}

	// Gracefully shut down the HTTP server.
	log.Println("[Main] Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Main] HTTP server graceful shutdown failed: %v", err)
	} else {
		log.Println("[Main] HTTP server stopped.")
	}

	log.Println("[Main] Waiting for workers...")
	workers.Wait()

	if err := db.Close(); err != nil {
		log.Printf("[Main] Closing database failed: %v", err)
	}
	if err := cache.Close(); err != nil {
		log.Printf("[Main] Closing redis failed: %v", err)
	}

	log.Println("[Main] Shutdown complete.")
}

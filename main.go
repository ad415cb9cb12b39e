package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ms-boxoffice/internal/analytics"
	analytics_api "ms-boxoffice/internal/analytics/api"
	"ms-boxoffice/internal/auth"
	catalog_db "ms-boxoffice/internal/catalog/db"
	"ms-boxoffice/internal/catalog/catalog_api"
	catalog "ms-boxoffice/internal/catalog/service"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/database"
	"ms-boxoffice/internal/database/migrations"
	"ms-boxoffice/internal/database/seed"
	"ms-boxoffice/internal/guestlist"
	guestlist_api "ms-boxoffice/internal/guestlist/api"
	"ms-boxoffice/internal/kafka"
	ledger_db "ms-boxoffice/internal/ledger/db"
	"ms-boxoffice/internal/ledger/ledger_api"
	idem "ms-boxoffice/internal/ledger/redis"
	ledger "ms-boxoffice/internal/ledger/service"
	"ms-boxoffice/internal/logger"
	presale_db "ms-boxoffice/internal/presale/db"
	"ms-boxoffice/internal/presale/presale_api"
	presale "ms-boxoffice/internal/presale/service"
	"ms-boxoffice/internal/pricing"
	"ms-boxoffice/internal/printing"
	"ms-boxoffice/internal/scheduler"
	"ms-boxoffice/internal/sse"
	"ms-boxoffice/internal/staff"
	staff_api "ms-boxoffice/internal/staff/api"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

func migrate(ctx context.Context, bunDB *bun.DB, cfg *config.Config, log *logger.Logger) {
	if cfg.Migrate.Auto {
		runner := migrations.NewRunner(bunDB, migrations.Options{Dir: cfg.Migrate.Dir}, log)
		if err := runner.Up(); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Migrations failed: %v", err))
		}
	}
	if cfg.Migrate.SeedFile != "" {
		f, err := seed.LoadFile(cfg.Migrate.SeedFile)
		if err != nil {
			log.Fatal("SEED", err.Error())
		}
		if _, err := seed.Apply(ctx, bunDB, f, log); err != nil {
			log.Fatal("SEED", err.Error())
		}
	}
}

func connectRedis(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Warn("REDIS", "Redis disabled: no idempotent replays and no dashboard cache")
		return nil
	}
	client, err := idem.Connect(cfg.Addr, cfg.Password, cfg.DB, log)
	if err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unavailable, continuing without it: %v", err))
		return nil
	}
	return client
}

func connectKafka(cfg config.KafkaConfig, log *logger.Logger) *kafka.Producer {
	if !cfg.Enabled {
		log.Info("KAFKA", "Kafka disabled, domain events are not published")
		return nil
	}
	if err := kafka.EnsureTopicsExist(cfg.Brokers, cfg.Topics.All(), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}
	return kafka.NewProducer(cfg.Brokers, log)
}

func main() {
	log := logger.NewLogger("boxoffice")
	defer log.Close()

	log.Info("APP", "Starting box office initialization")
	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()
	loc := cfg.Venue.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()
	migrate(ctx, bunDB, cfg, log)

	redisClient := connectRedis(cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}
	producer := connectKafka(cfg.Kafka, log)
	if producer != nil {
		defer producer.Close()
	}

	var publisher printing.Publisher
	if producer != nil {
		publisher = producer
	}
	printer, err := printing.New(cfg.Printer, publisher, cfg.Kafka.Topics.PrintJobs, log)
	if err != nil {
		log.Fatal("PRINT", err.Error())
	}
	log.Info("PRINT", fmt.Sprintf("Printer mode: %s", cfg.Printer.Mode))

	clock := pricing.Real(loc)
	prices := pricing.NewResolver(clock, loc, cfg.Venue.WrapPriceWindows)
	emitter := sse.NewTotalsEmitter()

	ledgerService := ledger.NewLedgerService(&ledger_db.DB{Bun: bunDB}, prices, printer, log, cfg)
	ledgerService.Live = emitter
	if producer != nil {
		ledgerService.Events = producer
	}
	catalogService := catalog.NewCatalogService(&catalog_db.DB{Bun: bunDB}, prices, log, cfg.Venue)
	guestService := guestlist.NewService(&guestlist.DB{Bun: bunDB}, printer, clock, log, cfg.Venue.Name)
	presaleService := presale.NewPresaleService(&presale_db.DB{Bun: bunDB}, printer, clock, log, cfg.Venue.Name, cfg.Venue.QuantityLimit())
	staffService := staff.NewService(&staff.DB{Bun: bunDB}, clock, log)
	analyticsService := analytics.NewService(analytics.NewDB(bunDB), clock, loc)

	var idempotency ledger_api.IdempotencyStore
	var analyticsHandler *analytics_api.Handler
	if redisClient != nil {
		idempotency = idem.NewRedis(redisClient, cfg.Redis.IdempotencyTTL, log)
		analyticsHandler = analytics_api.NewHandlerWithRedis(analyticsService, log, redisClient, cfg.Redis.DashboardTTL)
	} else {
		analyticsHandler = analytics_api.NewHandler(analyticsService, log)
	}
	ledgerHandler := ledger_api.NewHandler(ledgerService, idempotency, emitter, log, cfg.Auth.CloseEventRoles)
	catalogHandler := catalog_api.NewHandler(catalogService, log, cfg.Auth.CatalogRoles)
	guestHandler := guestlist_api.NewHandler(guestService, log)
	presaleHandler := presale_api.NewHandler(presaleService, log)
	staffHandler := staff_api.NewHandler(staffService, log)

	verifier, err := auth.NewVerifier(ctx, cfg.Auth, log)
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("Token verifier setup failed: %v", err))
	}

	jobs, err := scheduler.New(ctx, catalogService, cfg.Venue.UpcomingSchedule, loc, log)
	if err != nil {
		log.Fatal("SCHEDULER", err.Error())
	}
	jobs.Start()

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.Middleware(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", nil))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier, log))

		ledgerHandler.RegisterRoutes(r)
		log.Info("ROUTER", "Ledger routes registered under /api/ledger")
		catalogHandler.RegisterRoutes(r)
		log.Info("ROUTER", "Catalog routes registered under /api/events and /api/ticket-types")
		guestHandler.RegisterRoutes(r)
		log.Info("ROUTER", "Guest list routes registered under /api/guestlists")
		presaleHandler.RegisterRoutes(r)
		log.Info("ROUTER", "Presale routes registered under /api/presales")

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(cfg.Auth.CatalogRoles...))
			analyticsHandler.RegisterRoutes(r)
			staffHandler.RegisterRoutes(r)
		})
		log.Info("ROUTER", "Report and staff routes registered under /api/reports, /api/users and /api/roles")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// WriteTimeout stays zero so the totals stream is not cut off.
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Box office running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := jobs.Shutdown(); err != nil {
		log.Warn("SCHEDULER", fmt.Sprintf("Scheduler shutdown: %v", err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Box office shutdown complete")
	}
}

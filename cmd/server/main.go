package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/changefeed"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/config"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/infra"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository/memory"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/router"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/service"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Store ────────────────────────────────────────────────────────────────
	bus := changefeed.NewLocalBus(256)
	var (
		db    *gorm.DB
		repos router.Repositories
	)
	switch cfg.StoreDriver {
	case "memory":
		store := memory.NewStore(bus)
		repos = router.Repositories{
			Orders:    store.Orders(),
			Tables:    store.Tables(),
			Registers: store.CashRegisters(),
			Employees: store.Employees(),
			Products:  store.Products(),
		}
		log.Warn().Msg("using in-memory store, data is lost on restart")
	default:
		db, err = infra.NewDatabase(cfg.DatabaseURL, changefeed.NewGormSource(bus))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		repos = router.GormRepositories(db)
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// ── Change feed ──────────────────────────────────────────────────────────
	pub, stream, closeFeed := buildFeed(cfg, rdb)
	defer closeFeed()
	feed := changefeed.NewGuardedPublisher(pub, infra.NewCircuitBreaker(infra.DefaultCBConfig("changefeed")))
	go changefeed.NewBroadcaster(bus, feed).Run(ctx)

	// ── Jobs ─────────────────────────────────────────────────────────────────
	// Without Redis there is no queue; follow-up work is left to the reconciler.
	var (
		jobs       service.JobQueue
		dispatcher *worker.Dispatcher
	)
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb)
		jobs = dispatcher
	}

	svc := router.NewServices(cfg, repos, jobs)

	if _, err := svc.Defaults.EnsureDefaultEmployee(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure default employee")
	}

	var pool *sync.WaitGroup
	if dispatcher != nil {
		var mailer worker.ReportMailer
		if cfg.SMTPHost != "" {
			mailer = infra.NewMailer(infra.MailConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				User:     cfg.SMTPUser,
				Password: cfg.SMTPPassword,
				From:     cfg.SMTPFrom,
			})
		}
		handlers := worker.Handlers{
			worker.QueueRegisterSale:  worker.NewRegisterSaleWorker(svc.Registers, repos.Registers, repos.Orders),
			worker.QueueClosingReport: worker.NewClosingReportWorker(repos.Registers, mailer, cfg.ReportStoragePath, cfg.ReportRecipients()),
		}
		pool = worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)
	}

	worker.NewReconciler(worker.ReconcilerConfig{
		Orders:    repos.Orders,
		Tables:    repos.Tables,
		Sales:     repos.Registers,
		Registers: svc.Registers,
		TableOps:  svc.Tables,
		Interval:  cfg.ReconcileInterval,
	}).Start(ctx)

	// ── HTTP ─────────────────────────────────────────────────────────────────
	r := router.New(cfg, router.Deps{
		DB:       db,
		Redis:    rdb,
		Services: svc,
		Products: repos.Products,
		Stream:   stream,
		Feed:     feed,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		// No WriteTimeout: /events responses are long-lived.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("store", cfg.StoreDriver).Msgf("POS backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

// setupLogger configures the global zerolog logger: pretty console output in
// development, JSON in production.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "pos").Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// buildFeed picks the change-feed publisher and the stream SSE clients read.
// Without Redis, an in-process Hub serves both sides so SSE keeps working on
// a single replica.
func buildFeed(cfg *config.Config, rdb *redis.Client) (changefeed.Publisher, changefeed.Stream, func()) {
	closeFn := func() {}

	var pub changefeed.Publisher
	switch cfg.FeedPublisher {
	case "amqp":
		fanout, err := infra.NewAMQPFanout(cfg.AMQPURL, cfg.FeedExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to amqp broker")
		}
		pub = changefeed.NewAMQPPublisher(fanout)
		closeFn = fanout.Close
	case "redis":
		if rdb != nil {
			pub = changefeed.NewRedisPublisher(rdb, cfg.FeedChannel)
		}
	}
	if pub == nil {
		pub = changefeed.LogPublisher{}
	}

	if rdb != nil && cfg.FeedPublisher == "redis" {
		return pub, changefeed.NewRedisStream(rdb, cfg.FeedChannel), closeFn
	}
	hub := changefeed.NewHub(64)
	return changefeed.MultiPublisher{pub, hub}, hub, closeFn
}

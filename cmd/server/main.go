package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/ticket-ledger/internal/config"
	"github.com/iliyamo/ticket-ledger/internal/database"
	"github.com/iliyamo/ticket-ledger/internal/handler"
	"github.com/iliyamo/ticket-ledger/internal/ledger"
	"github.com/iliyamo/ticket-ledger/internal/lock"
	"github.com/iliyamo/ticket-ledger/internal/logging"
	"github.com/iliyamo/ticket-ledger/internal/metrics"
	"github.com/iliyamo/ticket-ledger/internal/notify"
	"github.com/iliyamo/ticket-ledger/internal/repository"
	"github.com/iliyamo/ticket-ledger/internal/router"
	"github.com/iliyamo/ticket-ledger/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	probes := map[string]handler.Pinger{}
	rateCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	var rdb *redis.Client
	if cfg.NeedsRedis() || rateCfg.Enabled || cacheCfg.Enabled {
		rdb = config.NewRedisClient()
		switch {
		case rdb == nil && cfg.NeedsRedis():
			return errors.New("redis is required by the selected backends but is unreachable")
		case rdb == nil:
			log.Warn("redis unavailable; rate limiting and response cache disabled")
		default:
			defer rdb.Close()
			probes["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		}
	}

	records, closeStore, err := openStore(ctx, cfg, rdb, probes)
	if err != nil {
		return err
	}
	defer closeStore()

	var locker lock.Locker = lock.NewTable()
	if cfg.LockBackend == config.BackendRedis {
		locker = lock.NewRedis(rdb, "lock:show", cfg.LockTTL)
	}

	inner, closeNotifier := buildNotifier(cfg, log)
	defer closeNotifier()
	dispatcher := notify.NewDispatcher(inner, cfg.NotifyTimeout, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	shows := repository.NewShowRepo(records)
	orders := repository.NewOrderRepo(records)
	if cfg.SeedCatalog {
		n, err := shows.SeedDefaults(ctx)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.WithField("created", n).Info("catalog seeded")
	}

	l := ledger.New(ledger.Deps{
		Shows:    shows,
		Orders:   orders,
		Locker:   locker,
		Notifier: dispatcher,
		Metrics:  metrics.NewLedger(reg),
		Log:      log,
	})

	// Reseeding over HTTP is a development convenience only.
	var seeder handler.Seeder
	if cfg.IsDev() {
		seeder = shows
	}

	e := router.New(router.Deps{
		Shows:       handler.NewShowHandler(shows, l, seeder, log),
		Orders:      handler.NewOrderHandler(l, log),
		Probes:      probes,
		Redis:       rdb,
		RateLimit:   rateCfg,
		Cache:       cacheCfg,
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":     ":" + cfg.Port,
			"env":      cfg.Env,
			"store":    cfg.StoreBackend,
			"lock":     cfg.LockBackend,
			"notifier": cfg.Notifier,
		}).Info("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	err = g.Wait()

	// Orders accepted before shutdown still get their confirmation.
	dispatcher.Wait()
	return err
}

// openStore returns the record store selected by STORE_BACKEND and a
// function releasing its resources.
func openStore(ctx context.Context, cfg config.Config, rdb *redis.Client, probes map[string]handler.Pinger) (store.RecordStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBIOTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		probes["mysql"] = handler.PingFunc(db.PingContext)
		return store.NewMySQL(db), func() { _ = db.Close() }, nil
	case config.BackendRedis:
		return store.NewRedis(rdb), func() {}, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}

// buildNotifier returns the delivery path selected by NOTIFIER, not yet
// wrapped in a Dispatcher.
func buildNotifier(cfg config.Config, log logrus.FieldLogger) (notify.Notifier, func()) {
	switch cfg.Notifier {
	case config.NotifierRabbitMQ:
		p := notify.NewPublisher(cfg.RabbitMQURL, log)
		return p, func() { _ = p.Close() }
	case config.NotifierEmail:
		return notify.NewEmail(cfg.ResendAPIKey, cfg.MailFrom), func() {}
	default:
		return notify.LogSink{Log: log}, func() {}
	}
}

package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kochabx/authguard"
	"github.com/kochabx/authguard/audit"
	"github.com/kochabx/authguard/config"
	"github.com/kochabx/authguard/log"
	"github.com/kochabx/authguard/revocation"
	"github.com/kochabx/authguard/session"
	"github.com/kochabx/authguard/session/store"
	"github.com/kochabx/authguard/store/db"
	"github.com/kochabx/authguard/token"
	"github.com/kochabx/authguard/userstore"
	"github.com/kochabx/authguard/validator"
)

// Runtime holds the constructed components and their shutdown hooks.
type Runtime struct {
	Guard *authguard.Guard

	settings *config.Settings
	cron     *cron.Cron
	sink     *audit.AsyncSink
	redis    *redis.Client
	db       *gorm.DB
}

// BuildRuntime constructs every component from validated settings. A
// configuration error here stops the process before it serves traffic.
func BuildRuntime(settings *config.Settings) (*Runtime, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if err := setupLogger(settings.Log); err != nil {
		return nil, err
	}

	rt := &Runtime{settings: settings}

	issuer, err := token.New(&settings.Token)
	if err != nil {
		return nil, err
	}

	var (
		sessionStore session.Store
		ledger       revocation.Ledger
	)
	switch settings.Store.Backend {
	case "redis":
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     settings.Redis.Addr,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
			PoolSize: settings.Redis.PoolSize,
		})
		sessionStore = store.NewRedisStore(rt.redis, store.WithSessionTTL(settings.Session.MaxAge))
		ledger = revocation.NewRedisLedger(rt.redis)
	default:
		sessionStore = store.NewMemoryStore()
		ledger = revocation.NewMemoryLedger()
	}

	var users userstore.Store
	if settings.Audit.Persist || settings.Database.DSN != "" {
		gdb, err := db.Open(settings.Database)
		if err != nil {
			return nil, err
		}
		rt.db = gdb
		users = userstore.NewGormStore(gdb)
	}

	var delegate audit.Sink = audit.NewLogSink()
	if settings.Audit.Persist && rt.db != nil {
		dbSink, err := audit.NewDBSink(rt.db)
		if err != nil {
			return nil, err
		}
		delegate = dbSink
	}
	rt.sink, err = audit.NewAsyncSink(delegate, settings.Audit.PoolSize)
	if err != nil {
		return nil, err
	}

	registry := session.NewRegistry(sessionStore, ledger,
		session.WithAuditSink(rt.sink),
		session.WithMaxSessionAge(settings.Session.MaxAge),
		session.WithAccessTokenRetention(settings.Session.AccessTokenCap),
		session.WithLedgerTTL(settings.Session.LedgerTTL),
	)

	vopts := []validator.Option{validator.WithAuditSink(rt.sink)}
	if users != nil {
		vopts = append(vopts, validator.WithUserStore(users))
	}
	v := validator.New(issuer, ledger, vopts...)

	rt.Guard = authguard.New(issuer, registry, v, ledger)

	rt.cron = cron.New()
	rt.cron.Schedule(cron.Every(settings.Session.SweepInterval), cron.FuncJob(func() {
		if err := rt.Guard.Sweep(context.Background()); err != nil {
			log.Error().Err(err).Msg("session sweep failed")
		}
	}))

	return rt, nil
}

// Application wraps the runtime in a lifecycle with the sweep schedule
// running and every component released on shutdown.
func (rt *Runtime) Application(opts ...Option) *Application {
	rt.cron.Start()

	options := []Option{
		WithClose("sweep-schedule", func(ctx context.Context) error {
			stopCtx := rt.cron.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			return nil
		}, 0),
		WithClose("audit-sink", func(ctx context.Context) error {
			rt.sink.Close()
			return nil
		}, 0),
	}

	if rt.redis != nil {
		options = append(options, WithClose("redis", func(ctx context.Context) error {
			return rt.redis.Close()
		}, 0))
	}
	if rt.db != nil {
		options = append(options, WithClose("database", func(ctx context.Context) error {
			sqlDB, err := rt.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}, 0))
	}

	return New(append(options, opts...)...)
}

// setupLogger installs the global logger described by the settings.
func setupLogger(settings config.LogSettings) error {
	if settings.Filename != "" {
		logger, err := log.NewMulti(log.FileConfig{Filename: settings.Filename})
		if err != nil {
			return err
		}
		log.SetGlobalLogger(logger)
	}

	level, err := zerolog.ParseLevel(settings.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.SetGlobalLevel(level)
	return nil
}

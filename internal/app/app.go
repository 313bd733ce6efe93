// Package app assembles the store, cache and services from config. Both
// binaries go through it so they see the same wiring.
package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mangazone-api/internal/core/auth"
	"mangazone-api/internal/core/cache"
	"mangazone-api/internal/core/config"
	"mangazone-api/internal/core/database"
	"mangazone-api/internal/domain"
	"mangazone-api/internal/repo"
	"mangazone-api/internal/service"
	"mangazone-api/internal/transport/http/router"
)

type App struct {
	Config *config.Config
	Log    *zap.Logger
	Store  domain.Store
	Cache  *cache.Cache // nil when redis is not configured or unreachable
	JWT    *auth.JWTer

	Bootstrap  *service.Bootstrapper
	Propagator *service.Propagator
	Accounts   *service.AccountService
	Library    *service.LibraryService
	Comments   *service.CommentService
	Admin      *service.AdminService
}

// OpenStore connects the backend named by db.driver.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.Store, error) {
	if cfg.DB.Driver == "mongo" {
		client, db, err := database.NewMongo(ctx, database.MongoOpts{
			URI:         cfg.DB.DSN,
			Name:        cfg.DB.Name,
			MaxPoolSize: uint64(max(0, cfg.DB.MaxOpenConns)),
		})
		if err != nil {
			return nil, err
		}
		return repo.NewMongoStore(client, db), nil
	}
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                log,
	})
	if err != nil {
		return nil, err
	}
	return repo.NewGormStore(db), nil
}

// New opens the store and builds every service. Redis and Cloudinary are
// optional; when either is missing the service runs without it.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return build(ctx, cfg, log, store)
}

func build(ctx context.Context, cfg *config.Config, log *zap.Logger, store domain.Store) (*App, error) {
	a := &App{
		Config: cfg,
		Log:    log,
		Store:  store,
		JWT: &auth.JWTer{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
			TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		},
	}

	var comments service.CommentCache
	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := c.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("redis unreachable, comments served from the store", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
		} else {
			a.Cache = c
			comments = service.NewRedisCommentCache(c, time.Duration(cfg.Redis.CommentsTTLSec)*time.Second)
		}
	}

	var avatars service.AvatarStore
	if cl := cfg.Cloudinary; cl.Enabled() {
		up, err := service.NewCloudinaryAvatars(cl.CloudName, cl.APIKey, cl.APISecret, cl.Folder, log)
		if err != nil {
			return nil, err
		}
		avatars = up
	}

	a.Bootstrap = service.NewBootstrapper(store, cfg.Bootstrap.Username, cfg.Bootstrap.Password, log)
	a.Propagator = service.NewPropagator(store, comments, log)
	a.Accounts = service.NewAccountService(service.AccountDeps{
		Store:       store,
		Bootstrap:   a.Bootstrap,
		Propagator:  a.Propagator,
		Avatars:     avatars,
		PremiumDays: cfg.Premium.Days,
		Log:         log,
	})
	a.Library = service.NewLibraryService(store, cfg.Library.FavoritesCap, cfg.Library.HistoryCap)
	a.Comments = service.NewCommentService(store, comments, log)
	a.Admin = service.NewAdminService(store, cfg.Premium.Days, log)
	return a, nil
}

func (a *App) RouterDeps() router.Deps {
	return router.Deps{
		Log:        a.Log,
		Config:     a.Config,
		JWT:        a.JWT,
		Store:      a.Store,
		Accounts:   a.Accounts,
		Library:    a.Library,
		Comments:   a.Comments,
		Admin:      a.Admin,
		Propagator: a.Propagator,
	}
}

// Prepare runs the startup chores: schema migration when enabled, the
// bootstrap admin, and a replay of propagations left pending by a crash.
func (a *App) Prepare(ctx context.Context) error {
	if a.Config.DB.AutoMigrate {
		if err := a.Store.Migrate(ctx); err != nil {
			return err
		}
		a.Log.Info("automigrate done")
	}
	if a.Bootstrap.Enabled() {
		if _, err := a.Bootstrap.Ensure(ctx); err != nil {
			return err
		}
	}
	report, err := a.Propagator.RetryPending(ctx)
	if err != nil {
		return err
	}
	if report.Retried > 0 {
		a.Log.Info("pending propagations replayed",
			zap.Int("retried", report.Retried),
			zap.Int("failed", report.Failed),
			zap.Int("pending", report.Pending))
	}
	return nil
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	errs = append(errs, a.Store.Close(ctx))
	return errors.Join(errs...)
}

// Package app assembles the stores, services and HTTP handlers shared by
// the public and staff binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"auto-ria-clone/internal/core/auth"
	"auto-ria-clone/internal/core/cache"
	"auto-ria-clone/internal/core/config"
	"auto-ria-clone/internal/core/database"
	"auto-ria-clone/internal/core/events"
	"auto-ria-clone/internal/core/mailer"
	"auto-ria-clone/internal/core/scheduler"
	"auto-ria-clone/internal/core/storage"
	"auto-ria-clone/internal/domain"
	"auto-ria-clone/internal/feature/brand"
	"auto-ria-clone/internal/feature/listing"
	"auto-ria-clone/internal/feature/user"
	"auto-ria-clone/internal/moderation"
	"auto-ria-clone/internal/pricing"
	"auto-ria-clone/internal/repo"
	"auto-ria-clone/internal/service"
	"auto-ria-clone/internal/transport/http/handler"
	"auto-ria-clone/internal/transport/http/router"
)

type App struct {
	Cfg *config.Config
	Log *zap.Logger

	DB     *gorm.DB
	Cache  *cache.Cache
	Events events.Publisher
	JWT    *auth.JWTer

	Auth     *service.AuthService
	Users    *service.UserService
	Listings *service.ListingService
	Brands   *service.BrandService
}

// New opens every backing store, builds the services and registers the
// HTTP modules with the router registry.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             log,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	a.DB = db
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db,
			&user.UserModel{},
			&user.TokenModel{},
			&user.PasswordModel{},
			&listing.ListingModel{},
			&listing.ViewModel{},
			&brand.BrandModel{},
			&brand.ModelModel{},
		); err != nil {
			return nil, err
		}
		log.Info("automigrate done")
	}

	if cfg.Redis.Addr != "" {
		a.Cache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := a.Cache.Ping(ctx); err != nil {
			// brand lookups fall back to the database
			log.Warn("redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
	}

	files, err := storage.New(ctx, storage.Options{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	mail, err := mailer.New(mailer.Options{
		Host:        cfg.Mail.Host,
		Port:        cfg.Mail.Port,
		Username:    cfg.Mail.Username,
		Password:    cfg.Mail.Password,
		From:        cfg.Mail.From,
		FrontendURL: cfg.App.FrontendURL,
	}, log)
	if err != nil {
		return nil, err
	}

	a.Events = events.Nop{}
	if cfg.NATS.URL != "" {
		p, err := events.NewNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		a.Events = p
	}

	prices, err := pricing.NewNormalizer(rateTable(cfg.Currency))
	if err != nil {
		return nil, fmt.Errorf("currency rates: %w", err)
	}

	a.JWT = &auth.JWTer{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		TTL:        cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
		ActionTTL:  cfg.JWT.ActionTTL(),
	}

	users := repo.NewUserRepo(db)
	brands := repo.NewBrandRepo(db)

	a.Auth = service.NewAuthService(service.AuthDeps{
		Users:     users,
		Tokens:    repo.NewTokenRepo(db),
		Passwords: repo.NewPasswordRepo(db),
		JWT:       a.JWT,
		Mail:      mail,
		Logger:    log,
	}, service.AuthOptions{
		BootstrapKey:    cfg.Admin.BootstrapKey,
		PasswordHistory: cfg.Password.History(),
	})
	a.Users = service.NewUserService(users, a.Auth, files, mail, log)
	a.Brands = service.NewBrandService(brands, users, a.Cache, time.Duration(cfg.Redis.BrandTTLSec)*time.Second, mail, log)
	a.Listings = service.NewListingService(service.ListingDeps{
		Listings:  repo.NewListingRepo(db),
		Users:     users,
		Brands:    brands,
		Prices:    prices,
		Moderator: moderation.New(cfg.Moderation.Denylist),
		Mail:      mail,
		Files:     files,
		Events:    a.Events,
		Presenter: service.NewPresenter(cfg.App.MediaBaseURL),
		Logger:    log,
	}, service.ListingOptions{
		MaxStrikes:      cfg.Moderation.MaxStrikes,
		BasicQuota:      cfg.Listing.BasicQuota,
		DefaultPageSize: cfg.Listing.DefaultPageSize,
		MaxPageSize:     cfg.Listing.MaxPageSize,
	})

	if len(cfg.Catalog) > 0 {
		if err := a.Brands.Seed(ctx, cfg.Catalog); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}

	maxUpload := int64(cfg.Storage.MaxMB) << 20
	router.Register(handler.NewUserHandler(a.Auth, a.Users, cfg.App.MediaBaseURL, maxUpload, log))
	router.Register(handler.NewListingHandler(a.Listings, maxUpload, log))
	router.Register(handler.NewBrandHandler(a.Brands, log))

	ok = true
	return a, nil
}

func rateTable(c config.Currency) domain.Rates {
	out := domain.Rates{}
	for code, v := range c.RateTable() {
		out[domain.Currency(code)] = v
	}
	return out
}

// RouterOptions is what both HTTP engines need from the container.
func (a *App) RouterOptions() router.Options {
	return router.Options{
		Logger:     a.Log,
		JWT:        a.JWT,
		Principals: a.Auth.LoadPrincipal,
		HTTP:       a.Cfg.App.HTTP,
		Health:     a.Health,
	}
}

// Health pings the database and, when configured, redis.
func (a *App) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if a.Cache != nil {
		g.Go(func() error { return a.Cache.Ping(ctx) })
	}
	return g.Wait()
}

// Jobs returns the periodic work: nightly price reconversion with the
// current rate table and the purge of stale tokens and password history.
func (a *App) Jobs() []scheduler.Job {
	return []scheduler.Job{{
		Name:    "reconvert-listings",
		Spec:    a.Cfg.Currency.RefreshCron,
		Timeout: 30 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := a.Listings.ReconvertAll(ctx)
			if err != nil {
				return err
			}
			a.Log.Info("listings reconverted", zap.Int("count", n))
			return nil
		},
	}, {
		Name:    "remove-old-passwords",
		Spec:    a.Cfg.Password.PurgeCron,
		Timeout: 10 * time.Minute,
		Run: func(ctx context.Context) error {
			tokens, passwords, err := a.Auth.PurgeStale(ctx)
			if err != nil {
				return err
			}
			a.Log.Info("stale credentials purged", zap.Int64("tokens", tokens), zap.Int64("passwords", passwords))
			return nil
		},
	}}
}

func (a *App) Close() error {
	var err error
	if a.Events != nil {
		a.Events.Close()
	}
	if a.Cache != nil {
		err = multierr.Append(err, a.Cache.Close())
	}
	if a.DB != nil {
		if sqlDB, e := a.DB.DB(); e == nil {
			err = multierr.Append(err, sqlDB.Close())
		}
	}
	return err
}

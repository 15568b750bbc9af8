package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"go-tenant-auth-service/internal/authz"
	"go-tenant-auth-service/internal/config"
	"go-tenant-auth-service/internal/database"
	"go-tenant-auth-service/internal/http/middleware"
	"go-tenant-auth-service/internal/observability"
	"go-tenant-auth-service/internal/repository"
	"go-tenant-auth-service/internal/router"
	"go-tenant-auth-service/internal/security"
	"go-tenant-auth-service/internal/service"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Server  *http.Server
	runtime *observability.Runtime
	redis   *redis.Client
}

// New loads configuration and wires the full dependency graph by hand:
// config, logging, telemetry, database, repositories, services, router.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	runtime, err := observability.InitRuntime(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if report, err := database.SeedSync(db, cfg.BootstrapAdminEmail); err != nil {
		return nil, err
	} else if !report.Noop {
		logger.Info("bootstrap admin synced",
			"promoted_staff", report.PromotedStaff,
			"verified_emails", report.VerifiedEmails,
		)
	}

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	teams := repository.NewTeamRepository(db)
	roles := repository.NewRoleRepository(db)
	memberships := repository.NewMembershipRepository(db)

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	engine := authz.NewEngine(memberships)
	notifier := service.NewDevNotifier(logger)

	authSvc := service.NewAuthService(users, tokens, jwtMgr, notifier, logger, service.AuthOptions{
		VerificationTTL:   cfg.VerificationTokenTTL,
		PasswordResetTTL:  cfg.PasswordResetTokenTTL,
		AccessTTL:         cfg.JWTAccessTTL,
		RefreshTTL:        cfg.JWTRefreshTTL,
		PublicBaseURL:     cfg.PublicBaseURL,
		MinPasswordLength: cfg.MinPasswordLength,
	})
	orgSvc := service.NewOrgService(orgs, roles, engine)
	teamSvc := service.NewTeamService(teams, memberships, roles, users, orgs, engine)
	userSvc := service.NewUserService(users)

	var avatars service.AvatarStore
	if cfg.StorageEnabled {
		store, err := service.NewMinioAvatarStore(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StorageUseSSL,
		)
		if err != nil {
			return nil, err
		}
		avatars = store
	}

	var redisClient *redis.Client
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute, "auth")
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		authLimiter = middleware.NewRateLimiterWith(
			middleware.NewRedisFixedWindowLimiter(redisClient, "rl:auth"),
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"auth",
			nil,
		)
	}

	handler := router.New(router.Config{
		DB:          db,
		Logger:      logger,
		JWTManager:  jwtMgr,
		AuthSvc:     authSvc,
		OrgSvc:      orgSvc,
		TeamSvc:     teamSvc,
		UserSvc:     userSvc,
		Users:       users,
		Avatars:     avatars,
		AuthLimiter: authLimiter,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Server:  server,
		runtime: runtime,
		redis:   redisClient,
	}, nil
}

// Shutdown stops the HTTP server, flushes telemetry, and closes the
// redis connection.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Server.Shutdown(ctx)
	if a.runtime != nil {
		if rerr := a.runtime.Shutdown(ctx); rerr != nil && err == nil {
			err = rerr
		}
	}
	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// RunMigrationOnly applies the schema and the bootstrap seed, then
// exits. Used by the `migrate` subcommand in deploy pipelines.
func RunMigrationOnly() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	_, err = database.SeedSync(db, cfg.BootstrapAdminEmail)
	return err
}

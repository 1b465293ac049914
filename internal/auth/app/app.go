package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/silverbridge/backend/internal/auth/http"
	"github.com/silverbridge/backend/internal/auth/kakao"
	"github.com/silverbridge/backend/internal/auth/revocation"
	"github.com/silverbridge/backend/internal/auth/service"
	"github.com/silverbridge/backend/internal/auth/store"
	"github.com/silverbridge/backend/internal/auth/store/drivers/sqlite"
	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/httpx"
	"github.com/silverbridge/backend/pkg/jwtx"
	"github.com/silverbridge/backend/pkg/slogx"
)

// BuildVersion is reported by /livez, /readyz and --version.
const BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          store.Store
	keyManager  *jwtx.KeyManager
	registry    revocation.Registry
	redisClient *redis.Client // only for the redis backend

	// Services
	credentials         *service.CredentialVerifier
	issuer              *service.TokenIssuer
	validator           *service.TokenValidator
	refresh             *service.RefreshCoordinator
	userService         *service.UserService
	phoneVerification   *service.PhoneVerificationService
	social              *service.SocialAuthService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	proxies, err := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	httpx.SetTrustedProxies(proxies)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keyManager, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	app.initRegistry()

	if err := app.initServices(); err != nil {
		_ = app.closeBackends()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"revocation_backend", app.cfg.RevocationBackend,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.closeBackends()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeBackends() error {
	var errs []error
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRegistry selects the revocation registry backend.
func (app *Application) initRegistry() {
	switch app.cfg.RevocationBackend {
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			// The registry reports itself unavailable until redis comes
			// up, which /readyz surfaces.
			app.logger.Warn("redis not reachable at startup", "addr", app.cfg.RedisAddr, "error", err)
		}

		app.redisClient = client
		app.registry = revocation.NewRedis(client, app.cfg.RedisKeyPrefix)
	case BackendMemory:
		app.logger.Warn("using the in-memory revocation registry, revocations are lost on restart and not shared between replicas")
		app.registry = revocation.NewMemory()
	default:
		app.registry = store.NewRevocationRegistry(app.db)
	}

	app.logger.Info("revocation registry ready",
		"backend", app.cfg.RevocationBackend,
		"fail_open", app.cfg.FailOpen,
	)
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	creds, err := service.NewCredentialVerifier(app.db, app.cfg.AccountLookupTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize credential verifier: %w", err)
	}
	app.credentials = creds

	app.issuer = &service.TokenIssuer{
		KeyManager: app.keyManager,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
		TempTTL:    app.cfg.TempTTL,
	}
	app.validator = &service.TokenValidator{
		KeyManager:      app.keyManager,
		Registry:        app.registry,
		RegistryTimeout: app.cfg.RegistryTimeout,
		FailOpen:        app.cfg.FailOpen,
	}
	app.refresh = &service.RefreshCoordinator{
		Validator:     app.validator,
		Issuer:        app.issuer,
		Registry:      app.registry,
		RevokeTimeout: app.cfg.RegistryTimeout,
	}

	app.userService = &service.UserService{
		Store:               app.db,
		RequireVerification: app.cfg.RequireSMSVerification,
	}
	app.phoneVerification = &service.PhoneVerificationService{
		Store:       app.db,
		Sender:      service.LogSMSSender{Logger: app.logger},
		CodeTTL:     app.cfg.SMSCodeTTL,
		MaxAttempts: app.cfg.SMSMaxAttempts,
	}
	app.social = &service.SocialAuthService{
		Store:               app.db,
		Kakao:               kakao.NewClient(app.cfg.KakaoAPIURL, app.cfg.KakaoTimeout),
		Issuer:              app.issuer,
		Validator:           app.validator,
		Registry:            app.registry,
		RequireVerification: app.cfg.RequireSMSVerification,
		RevokeTimeout:       app.cfg.RegistryTimeout,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.registry,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.registry,
		app.logger,
	)

	router.Credentials = app.credentials
	router.Issuer = app.issuer
	router.Validator = app.validator
	router.Refresh = app.refresh
	router.UserService = app.userService
	router.PhoneVerification = app.phoneVerification
	router.Social = app.social
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

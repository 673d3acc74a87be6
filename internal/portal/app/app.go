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

	httpapi "github.com/Raymond-engr/DRID-Research/internal/portal/http"
	"github.com/Raymond-engr/DRID-Research/internal/portal/mail"
	"github.com/Raymond-engr/DRID-Research/internal/portal/service"
	"github.com/Raymond-engr/DRID-Research/internal/portal/store/drivers/sqlite"
	"github.com/Raymond-engr/DRID-Research/internal/portal/uploads"
	"github.com/Raymond-engr/DRID-Research/pkg/cryptox"
	"github.com/Raymond-engr/DRID-Research/pkg/jwtx"
	"github.com/Raymond-engr/DRID-Research/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application owns the portal service and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         *sqlite.Store
	keyManager *jwtx.KeyManager
	hasher     *cryptox.PasswordHasher
	redis      *redis.Client

	mailer  service.Mailer
	uploads uploads.Store
	files   http.Handler // serves local uploads; nil with S3

	credentialService   *service.CredentialService
	inviteService       *service.InviteService
	accountService      *service.AccountService
	mfaService          *service.MFAService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New wires the application. Nothing is served until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "research-portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		app.closeAll()
		return nil, fmt.Errorf("load pepper: %w", err)
	}
	if app.hasher, err = cryptox.NewPasswordHasher(pepper); err != nil {
		app.closeAll()
		return nil, err
	}

	if app.keyManager, err = InitKeys(cfg, app.logger); err != nil {
		app.closeAll()
		return nil, err
	}

	if err := app.initMailer(); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initUploads(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initServices(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("research portal starting",
		slog.Int("port", app.cfg.Port),
		slog.String("version", BuildVersion),
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
			app.closeAll()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}

// Shutdown drains in-flight requests, stops background work and closes
// the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down research portal")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("error", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("error", err))
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeAll(); err != nil {
		return err
	}
	app.logger.Info("research portal stopped")
	return nil
}

func (app *Application) closeAll() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied", slog.String("file", app.cfg.DatabaseFile))
	return nil
}

func (app *Application) initMailer() error {
	if app.cfg.Mail.Host == "" {
		app.logger.Warn("SMTP_HOST not set; emails are logged instead of sent")
		app.mailer = mail.LogMailer{Logger: app.logger}
		return nil
	}

	m, err := mail.NewSMTPMailer(app.cfg.Mail)
	if err != nil {
		return err
	}
	app.mailer = m
	app.logger.Info("smtp relay configured",
		slog.String("host", app.cfg.Mail.Host),
		slog.Int("port", app.cfg.Mail.Port),
	)
	return nil
}

func (app *Application) initUploads(ctx context.Context) error {
	if app.cfg.S3.Bucket != "" {
		s, err := uploads.NewS3Store(ctx, app.cfg.S3)
		if err != nil {
			return err
		}
		app.uploads = s
		app.logger.Info("profile pictures stored in s3", slog.String("bucket", app.cfg.S3.Bucket))
		return nil
	}

	local, err := uploads.NewLocalStore(app.cfg.UploadsDir, "/uploads")
	if err != nil {
		return err
	}
	app.uploads = local
	app.files = local.Handler()
	app.logger.Info("profile pictures stored on disk", slog.String("dir", app.cfg.UploadsDir))
	return nil
}

func (app *Application) initServices(ctx context.Context) error {
	var attempts service.AttemptLimiter
	if app.cfg.RedisURL != "" {
		client, err := service.NewRedisClient(ctx, app.cfg.RedisURL)
		if err != nil {
			return err
		}
		app.redis = client
		attempts = service.NewRedisAttempts(client, app.cfg.MaxLoginFailures, app.cfg.LockoutWindow, app.logger)
		app.logger.Info("login attempt counters in redis")
	} else {
		attempts = service.NewMemoryAttempts(app.cfg.MaxLoginFailures, app.cfg.LockoutWindow)
	}

	app.credentialService = &service.CredentialService{
		Store:      app.db,
		Keys:       app.keyManager,
		Hasher:     app.hasher,
		Attempts:   attempts,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	app.inviteService = &service.InviteService{
		Store:  app.db,
		Mailer: app.mailer,
		Hasher: app.hasher,
		TTL:    app.cfg.InviteTTL,
	}
	app.accountService = &service.AccountService{
		Store:  app.db,
		Hasher: app.hasher,
		Mailer: app.mailer,
	}
	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: app.cfg.MFAIssuer,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.CookieSecure = app.cfg.CookieSecure
	router.AllowedOrigins = app.cfg.AllowedOrigins
	router.Uploads = app.uploads
	router.UploadsHandler = app.files
	router.Credentials = app.credentialService
	router.Invites = app.inviteService
	router.Accounts = app.accountService
	router.MFA = app.mfaService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/gatehouse/internal/gatehouse/http"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/mail"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the sign-on broker together: storage, services, HTTP.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer

	sessionService      *service.SessionService
	secondFactorService *service.SecondFactorService
	brokerService       *service.BrokerService
	permissionService   *service.PermissionService
	appService          *service.AppService
	groupService        *service.GroupService
	userService         *service.UserService
	inviteService       *service.InviteService
	settingsService     *service.SettingsService
	auditService        *service.AuditService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New builds the application: database and migrations first, then services,
// then HTTP. The bootstrap admin account is ensured here so the service never
// starts unreachable.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatehouse",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSigner(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	bootstrap := &service.BootstrapService{Store: app.db}
	ctx := slogx.WithContext(context.Background(), app.logger)
	if err := bootstrap.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	return app, nil
}

// Run starts the server and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gatehouse starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown drains in-flight requests, stops the housekeeping worker and
// closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gatehouse...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gatehouse stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

func (app *Application) initSigner() error {
	secret := app.cfg.JWTSecret
	if secret == "" {
		// In-flight pre-auth and enrollment tokens die with the process when
		// the key is generated; set GATEHOUSE_JWT_SECRET to avoid that.
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return fmt.Errorf("generate signing key: %w", err)
		}
		secret = generated
		app.logger.Warn("GATEHOUSE_JWT_SECRET not set, using an ephemeral signing key")
	}
	app.signer = jwtx.NewSigner([]byte(secret))
	return nil
}

func (app *Application) initServices() {
	app.auditService = &service.AuditService{Store: app.db}

	app.permissionService = &service.PermissionService{
		Store: app.db,
		Audit: app.auditService,
	}

	app.secondFactorService = &service.SecondFactorService{
		Store:  app.db,
		Signer: app.signer,
		Audit:  app.auditService,
		Issuer: app.cfg.TOTPIssuer,
	}

	app.sessionService = &service.SessionService{
		Store:        app.db,
		Signer:       app.signer,
		SecondFactor: app.secondFactorService,
		Audit:        app.auditService,
		SessionTTL:   app.cfg.SessionTTL,
	}

	app.brokerService = &service.BrokerService{
		Store:       app.db,
		Permissions: app.permissionService,
		Audit:       app.auditService,
		CodeTTL:     app.cfg.CodeTTL,
		AccessTTL:   app.cfg.AccessTTL,
	}

	var mailer mail.Sender = mail.Discard{}
	if app.cfg.SMTPHost != "" {
		mailer = &mail.SMTPSender{
			Host: app.cfg.SMTPHost,
			Port: app.cfg.SMTPPort,
			From: app.cfg.SMTPFrom,
			User: app.cfg.SMTPUser,
			Pass: app.cfg.SMTPPass,
		}
	}
	app.inviteService = &service.InviteService{
		Store:     app.db,
		Mailer:    mailer,
		Audit:     app.auditService,
		PortalURL: app.cfg.PortalURL,
		InviteTTL: app.cfg.InviteTTL,
	}

	app.userService = &service.UserService{Store: app.db, Audit: app.auditService}
	app.groupService = &service.GroupService{Store: app.db, Audit: app.auditService}
	app.appService = &service.AppService{Store: app.db, Audit: app.auditService}
	app.settingsService = &service.SettingsService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.cfg.SecureCookies, app.db, app.logger)

	router.Sessions = app.sessionService
	router.SecondFactor = app.secondFactorService
	router.Broker = app.brokerService
	router.Permissions = app.permissionService
	router.Apps = app.appService
	router.Groups = app.groupService
	router.Users = app.userService
	router.Invites = app.inviteService
	router.Settings = app.settingsService
	router.Audit = app.auditService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

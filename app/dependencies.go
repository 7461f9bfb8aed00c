package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/crmbridge/external-service/auth"
	"github.com/crmbridge/external-service/config"
	"github.com/crmbridge/external-service/issuer"
	"github.com/crmbridge/external-service/middleware"
	"github.com/crmbridge/external-service/repositories"
	"github.com/crmbridge/external-service/repositories/postgres"
	"github.com/crmbridge/external-service/services"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Audit trail (optional, enabled via DATABASE_URL)
	AuditDB     *postgres.DB
	AuditEvents repositories.AuditRepository

	// Issuer integration
	IssuerClient *issuer.Client
	KeyStore     *issuer.KeyStore
	Validator    *issuer.Validator

	// Auth
	AuthMiddleware *middleware.AuthMiddleware
	authHandler    *auth.Handler

	// Identity
	Identity *services.IdentityResolver
	SSO      *services.SSOCoordinator
}

// AuthHandler returns the auth handler for route wiring
func (d *Dependencies) AuthHandler() *auth.Handler {
	return d.authHandler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initAudit(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize audit trail: %w", err)
	}

	deps.initIssuer(cfg)
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initAudit initializes the optional Postgres-backed auth event trail.
func (d *Dependencies) initAudit(ctx context.Context, cfg *config.Config) error {
	if cfg.AuditDatabase == nil {
		d.Logger.Info("audit trail disabled, DATABASE_URL not set")
		return nil
	}

	db, err := postgres.NewDB(*cfg.AuditDatabase, d.Logger)
	if err != nil {
		return err
	}
	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return err
	}

	d.AuditDB = db
	d.AuditEvents = postgres.NewAuditRepository(db, d.Logger)
	return nil
}

// initIssuer wires the issuer client, key store and token validator.
func (d *Dependencies) initIssuer(cfg *config.Config) {
	d.IssuerClient = issuer.NewClient(issuer.ClientConfig{
		BaseURL:     cfg.Issuer.BaseURL,
		HTTPTimeout: cfg.Issuer.HTTPTimeout,
	})
	d.KeyStore = issuer.NewKeyStore(d.IssuerClient, issuer.KeyStoreConfig{
		ProvidedKey: cfg.Issuer.PublicKey,
		TTL:         cfg.Issuer.KeyTTL,
	}, d.Logger)
	d.Validator = issuer.NewValidator(d.KeyStore, cfg.Issuer.ExpectedServiceName)

	if cfg.Issuer.PublicKey != "" {
		d.Logger.Info("using pre-provisioned verification key")
	}
}

// initAuth wires the middleware, identity resolver and SSO flow.
func (d *Dependencies) initAuth(cfg *config.Config) {
	var recorder middleware.DecisionRecorder
	if d.AuditEvents != nil {
		recorder = services.NewAuthAuditor(d.AuditEvents, d.Logger)
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Validator, recorder, d.Logger)

	d.Identity = services.NewIdentityResolver(d.IssuerClient, d.Logger)
	d.SSO = services.NewSSOCoordinator(d.IssuerClient, cfg.Issuer.EntryURL, cfg.Issuer.ServiceName, d.Logger)
	d.authHandler = auth.NewHandler(d.SSO, d.Validator, d.Logger)

	d.Logger.Info("auth components initialized")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.AuditDB != nil {
		if err := d.AuditDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close audit database: %w", err))
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}

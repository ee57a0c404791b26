package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keyxmakerx/casa-helloworld/internal/middleware"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/audit"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/auth"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/helloworld"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/persistence"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/smtp"
	"github.com/keyxmakerx/casa-helloworld/internal/secret"
	"github.com/keyxmakerx/casa-helloworld/internal/templates/layouts"
)

// RegisterRoutes builds the plugin services and mounts every route. This is
// the single place where routes are aggregated.
func (a *App) RegisterRoutes() error {
	e := a.Echo
	cfg := a.Config

	secrets, err := secret.NewStringEncrypter(cfg.Auth.SecretKey)
	if err != nil {
		return fmt.Errorf("creating secret encrypter: %w", err)
	}

	// Configuration provider.
	configRepo := persistence.NewConfigurationRepository(a.DB)
	configService := persistence.NewPersistenceService(configRepo, cfg.Mail.ConfigurationDN)

	// Audit log.
	auditService := audit.NewAuditService(audit.NewAuditRepository(a.DB))
	auditHandler := audit.NewHandler(auditService)

	// Mail.
	notifier := smtp.NewNotifier(configService, secrets, smtp.NewSMTPTransport(cfg.Mail.DialTimeout), nil)
	smtpHandler := smtp.NewHandler(smtp.NewSettingsService(configService, notifier), auditService)

	// Auth.
	userRepo := auth.NewUserRepository(a.DB)
	authService := auth.NewAuthService(userRepo, a.Redis, cfg.Auth.SessionTTL)
	authHandler := auth.NewHandler(authService, auditService, int(cfg.Auth.SessionTTL.Seconds()))

	// Hello world.
	helloHandler := helloworld.NewHandler(helloworld.Deps{
		Organizations: configService,
		Mailer:        notifier,
		OTP:           helloworld.NewRedisOTPStore(a.Redis, cfg.Auth.OTPTTL, cfg.Auth.OTPMaxAttempts),
		OTPSubject:    cfg.Mail.OTPSubject,
		OTPTTL:        cfg.Auth.OTPTTL,
	})

	middleware.LayoutInjector = injectLayout

	// --- Public routes ---

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/plugins/helloworld")
	})
	e.GET("/healthz", a.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	session := auth.LoadSession(authService)
	auth.RegisterRoutes(e, authHandler)

	// --- Authenticated routes ---

	plugins := e.Group("/plugins/helloworld", session, auth.RequireAuth())
	helloworld.RegisterRoutes(plugins, helloHandler)

	admin := e.Group("/admin", session, auth.RequireAuth(), auth.RequireAdmin())
	smtp.RegisterRoutes(admin, smtpHandler)
	audit.RegisterRoutes(admin, auditHandler)

	return nil
}

// healthz reports whether MariaDB and Redis answer.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "mariadb": "ok", "redis": "ok"}
	code := http.StatusOK
	if err := a.DB.PingContext(ctx); err != nil {
		status["mariadb"] = err.Error()
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["redis"] = err.Error()
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// injectLayout copies session and request data into the context read by
// layouts.Base.
func injectLayout(c echo.Context, ctx context.Context) context.Context {
	d := layouts.Data{
		CSRFToken:  middleware.GetCSRFToken(c),
		ActivePath: c.Request().URL.Path,
	}
	if s := auth.GetSession(c); s != nil {
		d.UserID, d.UserName, d.IsAdmin = s.UserID, s.Name, s.IsAdmin
	}
	return layouts.WithData(ctx, d)
}

package config

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "cad-auth/docs"
	"cad-auth/internal/handlers"
	"cad-auth/internal/middleware"
	"cad-auth/internal/obs"
	"cad-auth/internal/services"
	"cad-auth/migrations"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StartServer запускає HTTP сервер з конфігурацією
func StartServer(cfg *Config) error {
	// Налаштування логування
	setupLogging(cfg)

	store, closeStore, err := openMembershipStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open membership store: %w", err)
	}
	defer closeStore()

	// Налаштування Gin режиму
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router, limiter, err := NewRouter(cfg, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if limiter != nil {
		go sweepRateLimiter(ctx, limiter)
	}

	readTimeout, writeTimeout, idleTimeout := cfg.serverTimeouts()

	// Створення HTTP сервера
	srv := &http.Server{
		Addr:              cfg.GetAddress(),
		Handler:           router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":        cfg.GetAddress(),
			"environment": cfg.Server.Environment,
			"store":       cfg.Membership.Driver,
		}).Info("🚀 Starting CAD auth server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Очікування сигналу для graceful shutdown
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logrus.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logrus.Info("✅ Server exited gracefully")
	return nil
}

// NewRouter збирає сервіси і таблицю маршрутів. Повертає limiter, якщо rate limit увімкнено.
func NewRouter(cfg *Config, store services.MembershipStore) (*gin.Engine, *middleware.RateLimiter, error) {
	ttl, err := cfg.TokenTTL()
	if err != nil {
		return nil, nil, err
	}
	skew, err := cfg.ExpirySkew()
	if err != nil {
		return nil, nil, err
	}
	discordTimeout, err := cfg.DiscordTimeout()
	if err != nil {
		return nil, nil, err
	}
	stateTTL, err := cfg.StateTTL()
	if err != nil {
		return nil, nil, err
	}

	obs.Init()

	r := gin.New()
	r.RedirectTrailingSlash = true

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.SecurityHeaders())
	r.Use(obs.Instrument())
	r.Use(corsMiddleware(cfg))

	stateService := services.NewStateService(stateTTL)
	discordService := services.NewDiscordService(services.DiscordConfig{
		ClientID:     cfg.Discord.ClientID,
		ClientSecret: cfg.Discord.ClientSecret,
		AuthURL:      cfg.Discord.AuthURL,
		TokenURL:     cfg.Discord.TokenURL,
		UserURL:      cfg.Discord.UserURL,
		CDNURL:       cfg.Discord.CDNURL,
		Timeout:      discordTimeout,
	})
	resolver := services.NewDepartmentResolver(store, cfg.Membership.OverseerKey, cfg.Membership.Sentinel)
	tokenService := services.NewTokenService(cfg.Tokens.SigningKey, ttl, skew)
	authService := services.NewAuthService(services.AuthConfig{
		RedirectURL:    cfg.Discord.RedirectURL,
		FrontendURL:    cfg.Frontend.BaseURL,
		AllowedOrigins: cfg.Frontend.AllowedOrigins,
	}, stateService, discordService, resolver, tokenService)

	authHandler := handlers.NewAuthHandler(authService, handlers.CookieConfig{
		Domain: cfg.Security.Session.CookieDomain,
		MaxAge: stateService.CookieMaxAge(),
	})
	apiHandler := handlers.NewAPIHandler(cfg.DepartmentResources())
	healthHandler := handlers.NewHealthHandler(store)

	var limiter *middleware.RateLimiter
	setupRoutes(r, routeHandlers{
		auth:   authHandler,
		api:    apiHandler,
		health: healthHandler,
	}, tokenService, func() []gin.HandlerFunc {
		if !cfg.Security.RateLimit.Enabled {
			return nil
		}
		limiter = middleware.NewRateLimiter(cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
		return []gin.HandlerFunc{limiter.Middleware()}
	}())

	return r, limiter, nil
}

type routeHandlers struct {
	auth   *handlers.AuthHandler
	api    *handlers.APIHandler
	health *handlers.HealthHandler
}

// setupRoutes налаштовує маршрути
func setupRoutes(r *gin.Engine, h routeHandlers, tokenService services.TokenService, oauthGuards []gin.HandlerFunc) {
	r.GET("/health", h.health.Health)
	r.GET("/metrics", obs.Handler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// OAuth flow
	oauth := r.Group("/", oauthGuards...)
	{
		oauth.GET("/login", h.auth.Login)
		oauth.GET("/callback", h.auth.Callback)
	}

	// Захищені endpoints з перевіркою CAD токена
	protected := r.Group("/", middleware.AuthMiddleware(tokenService))
	{
		protected.GET("/resources", h.api.Resources)
		protected.GET("/me", h.api.Me)
	}
}

// setupLogging налаштовує логування
func setupLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid log level '%s', using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Server.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// corsMiddleware налаштовує CORS middleware
func corsMiddleware(cfg *Config) gin.HandlerFunc {
	cors := cfg.Security.CORS
	methods := strings.Join(cors.AllowedMethods, ", ")
	headers := strings.Join(cors.AllowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowOrigin, ok := corsAllowOrigin(origin, cors.AllowedOrigins); ok {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)

			// браузер не приймає credentials разом з "*"
			if cors.AllowCredentials && allowOrigin != "*" {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			if cors.MaxAge > 0 {
				c.Header("Access-Control-Max-Age", strconv.Itoa(cors.MaxAge))
			}
		}

		// Handle preflight requests
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// corsAllowOrigin повертає значення Access-Control-Allow-Origin: сам origin при точному
// збігу, літерал "*" якщо дозволено будь-який origin
func corsAllowOrigin(origin string, allowedOrigins []string) (string, bool) {
	if origin == "" {
		return "", false
	}
	wildcard := false
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			wildcard = true
			continue
		}
		if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return origin, true
		}
	}
	if wildcard {
		return "*", true
	}
	return "", false
}

// sweepRateLimiter періодично прибирає застарілі buckets
func sweepRateLimiter(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Cleanup(); n > 0 {
				logrus.WithField("removed", n).Debug("Rate limiter buckets swept")
			}
		}
	}
}

// openMembershipStore створює сховище членства згідно membership.driver
func openMembershipStore(cfg *Config) (services.MembershipStore, func(), error) {
	switch cfg.Membership.Driver {
	case "memory":
		store, err := services.NewMemoryMembershipStore(cfg.Membership.Seed)
		return store, func() {}, err
	case "postgres":
		db, err := connectToDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return services.NewGormMembershipStore(db), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown membership driver %q", cfg.Membership.Driver)
	}
}

// connectToDatabase підключається до PostgreSQL бази даних через GORM
func connectToDatabase(cfg *Config) (*gorm.DB, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("database block is not configured")
	}

	logrus.Infof("🔌 Connecting to PostgreSQL database: %s@%s:%d/%s",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	// В debug режимі включаємо логування SQL запитів
	if cfg.IsDevelopment() {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	connectionMaxLifetime, err := parseDuration(cfg.Database.ConnectionMaxLifetime, 5*time.Minute)
	if err != nil {
		logrus.Warnf("Invalid connection max lifetime, using default 5m: %v", err)
		connectionMaxLifetime = 5 * time.Minute
	}

	// Налаштування connection pool
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConnections)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConnections)
	sqlDB.SetConnMaxLifetime(connectionMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Infof("📊 Database connection pool configured: MaxOpen=%d, MaxIdle=%d, MaxLifetime=%v",
		cfg.Database.MaxOpenConnections, cfg.Database.MaxIdleConnections, connectionMaxLifetime)

	return db, nil
}

// RunMigrations виконує тільки міграції без запуску сервера
func RunMigrations(cfg *Config) error {
	setupLogging(cfg)

	if cfg.Membership.Driver != "postgres" {
		logrus.Infof("Membership driver %q has no schema, nothing to migrate", cfg.Membership.Driver)
		return nil
	}

	db, err := connectToDatabase(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	defer sqlDB.Close()

	logrus.Info("🛠️  Running migrations...")
	if err := migrations.Run(db, migrations.Options{
		OverseerKey: cfg.Membership.OverseerKey,
		Sentinel:    cfg.Membership.Sentinel,
	}); err != nil {
		return err
	}

	logrus.Info("✅ Database migrations completed successfully")
	return nil
}


package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cardstoard/cardstoard-api/internal/adapter"
	"github.com/cardstoard/cardstoard-api/internal/api/rest"
	"github.com/cardstoard/cardstoard-api/internal/api/server"
	"github.com/cardstoard/cardstoard-api/internal/auth"
	"github.com/cardstoard/cardstoard-api/internal/chat"
	"github.com/cardstoard/cardstoard-api/internal/config"
	"github.com/cardstoard/cardstoard-api/internal/logger"
	"github.com/cardstoard/cardstoard-api/internal/mailer"
	"github.com/cardstoard/cardstoard-api/internal/sales"
	"github.com/cardstoard/cardstoard-api/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting CardStoard API")

	if cfg.Auth.JWTSecret == "" {
		logger.FatalCtx(ctx, "auth.jwt_secret must be configured")
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Run migrations
	if err := store.AutoMigrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}

	// Initialize store and adapters
	dataStore := store.NewPGStore(db)
	fs := adapter.NewFileSystem()
	clock := adapter.NewClock()

	// Auth plumbing
	issuer := auth.NewTokenIssuer(
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.AccessTTL)*time.Minute,
		time.Duration(cfg.Auth.RefreshTTL)*24*time.Hour,
	)
	cookies := auth.CookieWriter{
		Domain: cfg.Auth.CookieDomain,
		Secure: cfg.Auth.CookieSecure,
	}

	// Mail is optional; without SMTP settings registration still works
	var mail mailer.Mailer = mailer.NoopMailer{}
	if cfg.Mail.Host != "" {
		mail = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			BaseURL:  cfg.Mail.FrontendURL,
		})
	}

	// Chat assistant is optional
	var chatSvc rest.ChatService
	if cfg.Chat.APIKey != "" {
		assistant, err := chat.NewAssistant(ctx, cfg.Chat.APIKey, cfg.Chat.Model, int(cfg.Chat.MaxTokens), dataStore)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create chat assistant", zap.Error(err))
		}
		chatSvc = assistant
		logger.InfoCtx(ctx, "Chat assistant enabled", zap.String("model", cfg.Chat.Model))
	}

	// Sales sync is optional
	var salesRunner rest.SalesRunner
	var syncer *sales.Syncer
	if cfg.Sales.Enabled {
		var fetcher sales.Fetcher = sales.NoopFetcher{}
		if cfg.Sales.EbayAppID != "" {
			fetcher = sales.NewEbayFetcher(cfg.Sales.EbayAppID)
			logger.InfoCtx(ctx, "eBay sales fetching enabled")
		}
		syncer = sales.NewSyncer(dataStore, fetcher, clock, cfg.Sales.Lookback)
		if err := syncer.Start(cfg.Sales.Schedule); err != nil {
			logger.FatalCtx(ctx, "Failed to start sales sync", zap.Error(err))
		}
		salesRunner = syncer
	}

	// Create REST handler
	restHandler := rest.NewHandler(dataStore, issuer, cookies, mail, chatSvc, salesRunner, fs, clock, rest.Config{
		UploadsDir:    cfg.Uploads.Dir,
		UploadMaxSize: cfg.Uploads.MaxSize,
		FrontendURL:   cfg.Mail.FrontendURL,
		TOTPIssuer:    cfg.Auth.TOTPIssuer,
	})

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSOrigins:  cfg.Server.CORSOrigins,
		UploadsDir:   cfg.Uploads.Dir,
	}

	// Create and start server
	srv := server.New(serverConfig, restHandler, issuer, cookies)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if syncer != nil {
		syncer.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}

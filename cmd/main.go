package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance_tracker/internal/config"
	"finance_tracker/internal/handlers"
	"finance_tracker/internal/lib/password"
	"finance_tracker/internal/lib/token"
	"finance_tracker/internal/logger"
	"finance_tracker/internal/repository"
	"finance_tracker/internal/repository/db"
	"finance_tracker/internal/server"
	"finance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultConfigPath = "configs/config.yml"
	configPathEnv     = "FT_CONFIG"
	shutdownTimeout   = 10 * time.Second
)

// @title                       Finance Tracker API
// @version                     1.0
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load config.yml + FT_* overrides
	cfg, err := config.Load(configPath())
	if err != nil {
		logger.New(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.New(cfg.LogLevel)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// open DB and apply migrations
	sqlDB, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Deps{
		Issuer:              token.NewIssuer(cfg.Auth.SecretKey, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL),
		Hasher:              password.NewHasher(cfg.Auth.BcryptCost),
		Log:                 log,
		RevokeFamilyOnReuse: cfg.Auth.RevokeFamilyOnReuse,
		Currency: service.CurrencyConfig{
			PrimaryURL:  cfg.Currency.PrimaryURL,
			FallbackURL: cfg.Currency.FallbackURL,
			Timeout:     cfg.Currency.Timeout,
		},
	})
	apiHandler := handlers.NewHandler(services, log, handlers.Config{
		CookieSecure: cfg.Auth.CookieSecure,
		CORSOrigins:  cfg.CORS.Origins,
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// prune expired refresh tokens (via composed service)
	go services.Sweeper.Run(ctx, cfg.Auth.SweepInterval)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// configPath is -config, then $FT_CONFIG, then configs/config.yml.
func configPath() string {
	path := flag.String("config", "", "path to config.yml")
	flag.Parse()
	if *path != "" {
		return *path
	}
	if env := os.Getenv(configPathEnv); env != "" {
		return env
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// openDB initializes the SQLite database and brings the schema up to date.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, err := db.InitDB(ctx, path)
	if err != nil {
		return nil, err
	}
	log.Infow("database ready", "path", path)
	return sqlDB, nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !server.IsClosed(err) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}

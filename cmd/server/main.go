package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rpattn/propertyapi/internal/config"
	"github.com/rpattn/propertyapi/internal/db"
	"github.com/rpattn/propertyapi/internal/export"
	"github.com/rpattn/propertyapi/internal/identity"
	"github.com/rpattn/propertyapi/internal/ingestion"
	"github.com/rpattn/propertyapi/internal/logger"
	"github.com/rpattn/propertyapi/internal/property"
	"github.com/rpattn/propertyapi/internal/repository"
	"github.com/rpattn/propertyapi/internal/repository/memory"
	"github.com/rpattn/propertyapi/internal/schema/validator"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	// Create the administrator before serving any request
	identities := identity.NewService(store.users, log.Named("identity"))
	if _, err := identities.EnsureDefaultAdmin(ctx, identity.Account{
		Username: cfg.Bootstrap.AdminUsername,
		Password: cfg.Bootstrap.AdminPassword,
		Role:     cfg.Bootstrap.AdminRole,
	}); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	payloads, err := validator.New()
	if err != nil {
		return err
	}

	properties := property.NewService(store.properties, log.Named("property"))
	imports := ingestion.NewService(properties, payloads, log.Named("ingestion"))
	exports := export.NewService(properties, cfg.Export.PageSize, log.Named("export"))

	router := newRouter(routerDeps{
		logger:     log,
		properties: property.NewHandler(properties, payloads, property.PageDefaults{DefaultSize: cfg.Pagination.DefaultSize, MaxSize: cfg.Pagination.MaxSize}),
		imports:    ingestion.NewHTTPHandler(imports, cfg.HTTP.MaxUploadBytes),
		exports:    export.NewHTTPHandler(exports),
		health:     store.ping,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

type storage struct {
	properties repository.PropertyRepository
	users      repository.UserRepository
	ping       func(context.Context) error
	close      func()
}

func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return storage{
			properties: memory.NewPropertyRepository(),
			users:      memory.NewUserRepository(),
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}

	conn, err := db.NewConnection(ctx, cfg.Database, log.Named("db"))
	if err != nil {
		return storage{}, err
	}
	if err := conn.RunMigrations(); err != nil {
		conn.Close()
		return storage{}, err
	}

	return storage{
		properties: repository.NewPropertyRepository(conn.Pool),
		users:      repository.NewUserRepository(conn.Pool),
		ping:       conn.Ping,
		close:      conn.Close,
	}, nil
}

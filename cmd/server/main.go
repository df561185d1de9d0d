// Package main starts the telecom inventory API server: it reads the
// configuration, opens PostgreSQL (or an in-memory store when no DSN is
// given), wires repositories, services and handlers, and serves HTTP or
// HTTPS until interrupted.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/telecombase/internal/auth"
	"github.com/atinyakov/telecombase/internal/config"
	"github.com/atinyakov/telecombase/internal/db"
	"github.com/atinyakov/telecombase/internal/logger"
	"github.com/atinyakov/telecombase/internal/repository"
	"github.com/atinyakov/telecombase/internal/server/handler/http"
	"github.com/atinyakov/telecombase/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const (
	cleanerInterval = time.Hour
	shutdownTimeout = 10 * time.Second
)

type userStore interface {
	service.AuthRepository
	service.UserRepository
	db.PendingPurger
}

type storage struct {
	users     userStore
	inventory service.InventoryRepository
	close     func() error
}

func main() {
	options, err := config.ParseServer(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	lg := logger.New()
	if err := lg.Init(options.LogLevel); err != nil {
		log.Fatal(err)
	}
	zapLogger := lg.Log
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, options.DatabaseDSN, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer func() { _ = store.close() }()

	if options.Seed {
		if err := db.Seed(ctx, store.inventory, zapLogger); err != nil {
			zapLogger.Fatal("cannot seed reference data", zap.Error(err))
		}
	}
	if options.PendingRetention > 0 {
		db.StartPendingUserCleaner(ctx, store.users, cleanerInterval, options.PendingRetention, zapLogger)
	}

	tokens := auth.NewManager(options.JWTSecret, options.TokenTTL)
	authService := service.NewAuthService(store.users, tokens)
	inventoryService := service.NewInventoryService(store.inventory)
	userService := service.NewUserService(store.users)

	router := http.NewRouter(http.Handlers{
		Auth:           &http.AuthHandler{AuthService: authService, Logger: zapLogger},
		Health:         &http.HealthHandler{DB: inventoryService, Logger: zapLogger},
		Inventory:      &http.InventoryHandler{Service: inventoryService, Logger: zapLogger},
		Users:          &http.UserHandler{Service: userService, Logger: zapLogger},
		Authenticator:  authService,
		AllowedOrigins: options.AllowedOrigins,
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if options.TLS() {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("starting server", zap.String("addr", options.Address), zap.Bool("tls", options.TLS()))
		if options.TLS() {
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}

// openStorage connects to PostgreSQL when dsn is set and falls back to an
// in-memory store otherwise.
func openStorage(ctx context.Context, dsn string, zapLogger *zap.Logger) (*storage, error) {
	if dsn == "" {
		zapLogger.Warn("no database DSN configured, data is kept in memory and lost on restart")
		mem := repository.NewMemoryStore()
		return &storage{users: mem, inventory: mem, close: func() error { return nil }}, nil
	}

	pg, err := db.InitPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &storage{
		users:     repository.NewPostgresUserRepository(pg),
		inventory: repository.NewPostgresInventoryRepository(pg),
		close:     pg.Close,
	}, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/carpool/internal/auth"
	"github.com/mmynk/carpool/internal/backup"
	"github.com/mmynk/carpool/internal/config"
	"github.com/mmynk/carpool/internal/metrics"
	"github.com/mmynk/carpool/internal/middleware"
	"github.com/mmynk/carpool/internal/service"
	"github.com/mmynk/carpool/internal/session"
	"github.com/mmynk/carpool/internal/storage"
	"github.com/mmynk/carpool/internal/storage/csvfile"
	"github.com/mmynk/carpool/internal/storage/postgres"
	"github.com/mmynk/carpool/internal/storage/sqlite"
	"github.com/mmynk/carpool/pkg/api/apiconnect"
	"github.com/mmynk/carpool/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	hashPassphrase := flag.String("hash-passphrase", "", "print the bcrypt hash of a passphrase for auth.passphrase_hash and exit")
	flag.Parse()

	if *hashPassphrase != "" {
		hash, err := auth.HashPassphrase(*hashPassphrase)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Configure(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "backend", store.Name())

	sess := session.New(store, session.Options{
		Policy: cfg.Policy(),
		Settings: session.Settings{
			DefaultFare: cfg.Ledger.DefaultFare,
			Currency:    cfg.Ledger.Currency,
		},
		Location: cfg.Location(),
	})
	if err := sess.Load(ctx); err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	if cfg.Backup.Enabled {
		scheduler, err := backup.NewScheduler(sess, backup.Config{
			Schedule: cfg.Backup.Schedule,
			Dir:      cfg.Backup.Dir,
			Keep:     cfg.Backup.Keep,
		})
		if err != nil {
			return fmt.Errorf("failed to schedule backups: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		slog.Info("Backups scheduled", "dir", cfg.Backup.Dir, "next", scheduler.Next())
	}

	mux := http.NewServeMux()

	// Register Connect services
	common := []connect.Interceptor{
		middleware.LoggingInterceptor(),
		middleware.MetricsInterceptor(),
		middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}
	ledgerInterceptors := append([]connect.Interceptor{}, common...)
	if cfg.Auth.PassphraseHash != "" {
		authenticator, err := auth.NewPassphraseAuthenticator(cfg.Auth.PassphraseHash, cfg.Roster())
		if err != nil {
			return err
		}
		jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.TokenTTL())

		authPath, authHandler := apiconnect.NewAuthServiceHandler(
			service.NewAuthService(authenticator, jwtManager, slog.Default()),
			connect.WithInterceptors(common...),
		)
		mux.Handle(authPath, authHandler)

		ledgerInterceptors = append(ledgerInterceptors,
			middleware.RequireAuth(jwtManager),
			middleware.AuditInterceptor(),
		)
		slog.Info("Passphrase login enabled", "token_ttl", cfg.TokenTTL())
	} else {
		slog.Warn("No passphrase configured, the ledger is open to anyone who can reach it")
	}

	ledgerPath, ledgerHandler := apiconnect.NewLedgerServiceHandler(
		service.NewLedgerService(sess),
		connect.WithInterceptors(ledgerInterceptors...),
	)
	mux.Handle(ledgerPath, ledgerHandler)

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms",
			middleware.RequestIDHeader,
		},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms", middleware.RequestIDHeader},
	}).Handler(mux)

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           h2c.NewHandler(corsHandler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "participants", len(cfg.Ledger.Participants))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "sqlite":
		store, err := sqlite.New(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := postgres.New(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := csvfile.New(cfg.Storage.CSVPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/nfrecon/internal/blob"
	"github.com/MrJamesThe3rd/nfrecon/internal/blob/gcs"
	"github.com/MrJamesThe3rd/nfrecon/internal/config"
	"github.com/MrJamesThe3rd/nfrecon/internal/database"
	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	documentMemory "github.com/MrJamesThe3rd/nfrecon/internal/document/memory"
	documentStore "github.com/MrJamesThe3rd/nfrecon/internal/document/store"
	"github.com/MrJamesThe3rd/nfrecon/internal/events"
	"github.com/MrJamesThe3rd/nfrecon/internal/events/pubsub"
	"github.com/MrJamesThe3rd/nfrecon/internal/extraction"
	"github.com/MrJamesThe3rd/nfrecon/internal/extraction/ocr"
	"github.com/MrJamesThe3rd/nfrecon/internal/fingerprint"
	fingerprintRedis "github.com/MrJamesThe3rd/nfrecon/internal/fingerprint/redis"
	fingerprintStore "github.com/MrJamesThe3rd/nfrecon/internal/fingerprint/store"
	nfreconHttp "github.com/MrJamesThe3rd/nfrecon/internal/http"
	documentHandler "github.com/MrJamesThe3rd/nfrecon/internal/http/document"
	ledgerHandler "github.com/MrJamesThe3rd/nfrecon/internal/http/ledger"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
	ledgerMemory "github.com/MrJamesThe3rd/nfrecon/internal/ledger/memory"
	ledgerStore "github.com/MrJamesThe3rd/nfrecon/internal/ledger/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level})))

	if cfg.Auth.Secret == "" {
		slog.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				slog.Warn("failed to close dependency", "error", err)
			}
		}
	}()

	var db *sql.DB

	if cfg.Store.Driver == "postgres" || cfg.Fingerprint.Backend == "postgres" {
		conn, err := database.New(cfg.ConnectionString())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		closers = append(closers, conn)
		db = conn

		if cfg.DB.Migrate {
			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}
	}

	var (
		repo          document.Repository
		ledgerService *ledger.Service
	)

	switch cfg.Store.Driver {
	case "postgres":
		repo = documentStore.New(db)
		ledgerService = ledger.NewService(ledgerStore.New(db))
	case "memory":
		var records []ledger.Record

		if cfg.Store.LedgerFixture != "" {
			loaded, err := ledgerMemory.LoadFile(cfg.Store.LedgerFixture)
			if err != nil {
				return err
			}

			records = loaded
		}

		slog.Info("using in-memory store", "ledger_records", len(records))

		repo = documentMemory.New()
		ledgerService = ledger.NewService(ledgerMemory.New(records...))
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	var registry fingerprint.Registry

	switch cfg.Fingerprint.Backend {
	case "postgres":
		registry = fingerprintStore.New(db)
	case "redis":
		client := goredis.NewUniversalClient(&goredis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, client)

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}

		registry = fingerprintRedis.New(client)
	case "memory":
		registry = fingerprint.NewMemory()
	default:
		return fmt.Errorf("unknown fingerprint backend %q", cfg.Fingerprint.Backend)
	}

	var blobs blob.Store

	switch cfg.Storage.Backend {
	case "local":
		local, err := blob.NewLocal(cfg.Storage.LocalDir)
		if err != nil {
			return fmt.Errorf("open local storage: %w", err)
		}

		blobs = local
	case "gcs":
		bucket, err := gcs.New(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsJSON)
		if err != nil {
			return fmt.Errorf("open gcs bucket: %w", err)
		}

		closers = append(closers, bucket)
		blobs = bucket
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	var publisher events.Publisher = events.LogPublisher{}

	if cfg.PubSub.ProjectID != "" {
		p, err := pubsub.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Topic, cfg.PubSub.CredentialsJSON)
		if err != nil {
			return fmt.Errorf("open pubsub topic: %w", err)
		}

		closers = append(closers, p)
		publisher = p
	}

	documentService := document.NewService(document.Deps{
		Repo:         repo,
		Fingerprints: registry,
		Blobs:        blobs,
		Extractor:    extraction.NewAdapter(ocr.New(cfg.OCR.URL, cfg.OCR.Token), cfg.OCR.Timeout),
		Ledger:       ledgerService,
		Publisher:    publisher,
	})

	var (
		documentH = documentHandler.NewHandler(documentService, cfg.Server.MaxUploadBytes)
		ledgerH   = ledgerHandler.NewHandler(ledgerService)
	)

	router := nfreconHttp.New(nfreconHttp.Options{
		Secret:         []byte(cfg.Auth.Secret),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
	}, documentH, ledgerH)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", server.Addr, "store", cfg.Store.Driver, "fingerprints", cfg.Fingerprint.Backend)

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

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	return nil
}

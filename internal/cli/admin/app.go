package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/matchd/internal/config"
	"github.com/cloo-solutions/matchd/internal/database"
	"github.com/cloo-solutions/matchd/internal/logger"
	"github.com/cloo-solutions/matchd/internal/repository"
	"github.com/cloo-solutions/matchd/internal/service"
	"github.com/cloo-solutions/matchd/internal/storage"
	"github.com/cloo-solutions/matchd/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	pool     *pgxpool.Pool
	profiles *repository.ProfileRepository
	matches  *service.MatchService

	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogJSON, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	a := &app{cfg: cfg, logger: log}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	if cfg.HasSentry() {
		// 10% sampling outside development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
			Logger:           log,
		})
		if err != nil {
			log.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
		} else {
			a.closers = append(a.closers, shutdownTelemetry)
		}
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.pool = pool
	a.closers = append(a.closers, pool.Close)
	log.Debug("connected to database")

	a.profiles = repository.NewProfileRepository(pool)
	a.matches = service.NewMatchService(service.MatchServiceConfig{
		TxRunner:           repository.NewTxRunner(pool),
		Matches:            repository.NewMatchRepository(pool),
		History:            repository.NewMatchHistoryRepository(pool),
		Candidates:         a.profiles,
		Jobs:               a.profiles,
		Logger:             log,
		RescoreConcurrency: cfg.RescoreConcurrency,
	})

	return a, nil
}

// exporter returns nil when S3 is not configured.
func (a *app) exporter(ctx context.Context) (*service.HistoryExporter, error) {
	if !a.cfg.HasS3() {
		return nil, nil
	}

	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        a.cfg.S3Endpoint,
		Region:          a.cfg.S3Region,
		AccessKeyID:     a.cfg.S3AccessKey,
		SecretAccessKey: a.cfg.S3SecretKey,
		Bucket:          a.cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	a.logger.Info("export bucket ready", zap.String("bucket", a.cfg.S3Bucket))

	return service.NewHistoryExporter(a.matches, client), nil
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

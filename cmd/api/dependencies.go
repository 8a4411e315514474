package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dinarly/dinarly-api/internal/domain/categorization"
	importrepo "github.com/dinarly/dinarly-api/internal/domain/import/repository"
	importservice "github.com/dinarly/dinarly-api/internal/domain/import/service"
	"github.com/dinarly/dinarly-api/internal/domain/ratelimit"
	"github.com/dinarly/dinarly-api/internal/domain/security"
	"github.com/dinarly/dinarly-api/internal/domain/statement"
	"github.com/dinarly/dinarly-api/pkg/config"
	"github.com/dinarly/dinarly-api/pkg/cron"
	"github.com/dinarly/dinarly-api/pkg/db"
	"github.com/dinarly/dinarly-api/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Pool   *pgxpool.Pool
	Logger *slog.Logger

	// Stores
	CorrectionStore categorization.CorrectionStore
	RecordStore     importrepo.RecordStore

	// Services
	Audit          *security.AuditLogger
	Validator      *security.Validator
	ImportLimiter  *ratelimit.WindowLimiter
	RequestLimiter *ratelimit.RequestLimiter
	Learner        *categorization.CorrectionLearner
	Engine         *categorization.RuleEngine
	Extractor      *categorization.ClientExtractor
	ImportService  *importservice.ImportService
	Scheduler      *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	if err := db.Migrate(d.Config.Database, d.Logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := db.Connect(ctx, d.Config.Database)
	if err != nil {
		return err
	}
	d.Pool = pool

	d.CorrectionStore = categorization.NewPostgresStore(pool)
	d.RecordStore = importrepo.NewPostgresStore(pool, d.Logger)

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initServices initializes the import pipeline services
func (d *Dependencies) initServices() error {
	d.Audit = security.NewAuditLogger(d.Logger)
	d.Validator = security.NewValidator(
		d.Config.Import.MaxFileBytes,
		d.Config.Import.MaxLines,
		d.Audit,
	)

	d.ImportLimiter = ratelimit.NewWindowLimiter(d.Config.Import.HourlyImportLimit, time.Hour)
	d.RequestLimiter = ratelimit.NewRequestLimiter(
		float64(d.Config.Server.RateLimitPerSecond),
		d.Config.Server.RateLimitBurst,
	)

	// Correction learner with a bleve candidate index in front of the
	// fuzzy scan
	index, err := categorization.NewNGramIndex()
	if err != nil {
		return fmt.Errorf("failed to init correction index: %w", err)
	}
	d.Learner = categorization.NewCorrectionLearner(
		d.CorrectionStore,
		d.Config.Import.FuzzyThreshold,
		d.Logger,
	).WithIndex(index)

	d.Engine = categorization.NewRuleEngine(categorization.DefaultExpenseRules(), d.Learner, d.Logger)
	d.Extractor = categorization.NewClientExtractor()

	d.ImportService = importservice.NewImportService(
		d.Validator,
		d.ImportLimiter,
		statement.NewRowParser(),
		d.Engine,
		d.Extractor,
		d.RecordStore,
		d.Audit,
		d.Logger,
	)

	if dir := d.Config.Import.ArchiveDir; dir != "" {
		archive, err := storage.NewLocalArchive(dir)
		if err != nil {
			return fmt.Errorf("failed to init upload archive: %w", err)
		}
		d.ImportService.WithArchive(archive)
	}

	d.Scheduler = cron.NewScheduler(d.CorrectionStore, d.Config.Retention, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// Close releases held resources.
func (d *Dependencies) Close() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}

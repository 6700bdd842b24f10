package results

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/transitscope/transitscope/internal/log"
)

// Store wraps the embedded results database.
type Store struct {
	DB     *gorm.DB
	logger *zap.SugaredLogger
}

// Open opens (creating if needed) the results database at path and migrates
// the schema.
func Open(path string, sugar *zap.SugaredLogger) (*Store, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("opening results database: %w", err)
	}

	if err := db.AutoMigrate(&AnalysisRun{}, &DepthMeasurement{}, &CandidateSignal{}, &BootstrapRun{}); err != nil {
		return nil, fmt.Errorf("migrating results schema: %w", err)
	}

	return &Store{DB: db, logger: sugar}, nil
}

// NewRun allocates a run record; SaveRun persists it once the pipeline has
// attached its measurements.
func NewRun(target, kind string, period, epoch float64) *AnalysisRun {
	return &AnalysisRun{
		ID:     uuid.NewString(),
		Target: target,
		Kind:   kind,
		Period: period,
		Epoch:  epoch,
	}
}

// SaveRun persists a run and its associated records in one transaction.
func (s *Store) SaveRun(run *AnalysisRun) error {
	if err := s.DB.Create(run).Error; err != nil {
		return fmt.Errorf("saving analysis run: %w", err)
	}
	s.logger.Infow("saved analysis run",
		"run", run.ID,
		"target", run.Target,
		"kind", run.Kind,
		"depths", len(run.Depths),
		"candidates", len(run.Candidates),
	)
	return nil
}

// RunsForTarget returns prior runs for a target, newest first.
func (s *Store) RunsForTarget(target string) ([]AnalysisRun, error) {
	var runs []AnalysisRun
	err := s.DB.
		Preload("Depths").
		Preload("Candidates").
		Preload("Bootstraps").
		Where("target = ?", target).
		Order("created_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("querying runs for %q: %w", target, err)
	}
	return runs, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

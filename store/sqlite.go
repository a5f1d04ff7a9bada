package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/debateflow/types"
)

// debateRecord is the table row for one finished debate. The full result
// is attached as a JSON payload; the indexed columns cover the queries the
// eval tooling needs.
type debateRecord struct {
	ID        uint   `gorm:"primaryKey"`
	DebateID  string `gorm:"uniqueIndex;size:64"`
	ProblemID int    `gorm:"index"`
	Category  string `gorm:"size:64;index"`
	Judge     string `gorm:"size:128"`
	Winner    string `gorm:"size:128"`
	Warning   bool
	Payload   []byte
	CreatedAt time.Time
}

func (debateRecord) TableName() string { return "debates" }

// SQLiteSink persists debates into a SQLite database.
type SQLiteSink struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteSink opens (creating if needed) the database at path and
// migrates the schema.
func NewSQLiteSink(path string, logger *zap.Logger) (*SQLiteSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, types.NewError(types.ErrStoreFailed, "failed to open sqlite database").WithCause(err)
	}
	if err := db.AutoMigrate(&debateRecord{}); err != nil {
		return nil, types.NewError(types.ErrStoreFailed, "failed to migrate debates table").WithCause(err)
	}
	return &SQLiteSink{db: db, logger: logger.With(zap.String("component", "sqlite_sink"))}, nil
}

// Save inserts one result.
func (s *SQLiteSink) Save(ctx context.Context, result *types.DebateResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return types.NewError(types.ErrStoreFailed, "failed to encode debate result").WithCause(err)
	}

	record := debateRecord{
		DebateID:  result.DebateID,
		ProblemID: result.Problem.ID,
		Category:  result.Problem.Category,
		Judge:     result.Roles.Judge,
		Winner:    result.Judgment.Winner,
		Warning:   result.Judgment.Warning,
		Payload:   payload,
		CreatedAt: result.CompletedAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return types.NewError(types.ErrStoreFailed, "failed to insert debate record").WithCause(err)
	}
	s.logger.Info("debate result stored",
		zap.String("debate_id", result.DebateID), zap.Int("problem_id", result.Problem.ID))
	return nil
}

// Load returns the stored result with the given debate id.
func (s *SQLiteSink) Load(ctx context.Context, debateID string) (*types.DebateResult, error) {
	var record debateRecord
	err := s.db.WithContext(ctx).Where("debate_id = ?", debateID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrStoreFailed,
			fmt.Sprintf("debate %q not found", debateID))
	}
	if err != nil {
		return nil, types.NewError(types.ErrStoreFailed, "failed to query debate record").WithCause(err)
	}

	var result types.DebateResult
	if err := json.Unmarshal(record.Payload, &result); err != nil {
		return nil, types.NewError(types.ErrStoreFailed, "failed to decode debate payload").WithCause(err)
	}
	return &result, nil
}

// ByProblem returns every stored result for one problem, oldest first.
func (s *SQLiteSink) ByProblem(ctx context.Context, problemID int) ([]*types.DebateResult, error) {
	var records []debateRecord
	err := s.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Order("created_at asc").
		Find(&records).Error
	if err != nil {
		return nil, types.NewError(types.ErrStoreFailed, "failed to query debate records").WithCause(err)
	}

	results := make([]*types.DebateResult, 0, len(records))
	for _, record := range records {
		var result types.DebateResult
		if err := json.Unmarshal(record.Payload, &result); err != nil {
			return nil, types.NewError(types.ErrStoreFailed, "failed to decode debate payload").WithCause(err)
		}
		results = append(results, &result)
	}
	return results, nil
}

// All returns every stored result, oldest first.
func (s *SQLiteSink) All(ctx context.Context) ([]*types.DebateResult, error) {
	var records []debateRecord
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&records).Error; err != nil {
		return nil, types.NewError(types.ErrStoreFailed, "failed to query debate records").WithCause(err)
	}

	results := make([]*types.DebateResult, 0, len(records))
	for _, record := range records {
		var result types.DebateResult
		if err := json.Unmarshal(record.Payload, &result); err != nil {
			return nil, types.NewError(types.ErrStoreFailed, "failed to decode debate payload").WithCause(err)
		}
		results = append(results, &result)
	}
	return results, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSink) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

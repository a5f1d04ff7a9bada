package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/debateflow/types"
)

// FileSink writes every debate result to its own JSON file. Files are
// never overwritten: the name carries the problem id, a timestamp, and a
// debate id fragment.
type FileSink struct {
	dir    string
	logger *zap.Logger
}

// NewFileSink creates the output directory if needed.
func NewFileSink(dir string, logger *zap.Logger) (*FileSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewError(types.ErrStoreFailed, "failed to create results directory").WithCause(err)
	}
	return &FileSink{dir: dir, logger: logger.With(zap.String("component", "file_sink"))}, nil
}

// Save writes one result as an indented JSON document.
func (s *FileSink) Save(_ context.Context, result *types.DebateResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return types.NewError(types.ErrStoreFailed, "failed to encode debate result").WithCause(err)
	}

	path := filepath.Join(s.dir, resultFileName(result))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return types.NewError(types.ErrStoreFailed, "failed to write debate result").WithCause(err)
	}
	s.logger.Info("debate result written", zap.String("path", path))
	return nil
}

func resultFileName(result *types.DebateResult) string {
	suffix := result.DebateID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("debate_problem_%d_%s_%s.json",
		result.Problem.ID, time.Now().UTC().Format("20060102_150405"), suffix)
}

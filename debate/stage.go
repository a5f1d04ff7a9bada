package debate

import (
	"go.uber.org/zap"

	"github.com/BaSui01/debateflow/extract"
	"github.com/BaSui01/debateflow/internal/metrics"
	"github.com/BaSui01/debateflow/llm"
)

// Stage names, used for logging and metrics labels.
const (
	StagePreferences = "preferences"
	StageSolution    = "solution"
	StageReview      = "review"
	StageRefinement  = "refinement"
	StageJudgment    = "judgment"
)

// Defaults applied when the caller leaves the matching option zero.
const (
	DefaultTemperature    float32 = 0.1
	DefaultJudgeThreshold         = 0.7
)

// Invocation outcome labels for the invoke counter.
const (
	statusOK    = "ok"
	statusError = "error"
)

// Options carries the dependencies shared by every stage. Invoker is
// required; everything else has a usable default.
type Options struct {
	Invoker     llm.Invoker
	Extractor   *extract.Extractor
	Logger      *zap.Logger
	Metrics     *metrics.Collector
	Temperature float32
}

func (o Options) normalized() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Extractor == nil {
		o.Extractor = extract.New(o.Logger)
	}
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	return o
}

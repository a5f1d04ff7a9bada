package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/debateflow/config"
	"github.com/BaSui01/debateflow/dataset"
	"github.com/BaSui01/debateflow/debate"
	"github.com/BaSui01/debateflow/internal/metrics"
	"github.com/BaSui01/debateflow/llm"
	"github.com/BaSui01/debateflow/llm/providers/openaicompat"
	"github.com/BaSui01/debateflow/store"
	"github.com/BaSui01/debateflow/testutil/mocks"
	"github.com/BaSui01/debateflow/types"
)

func runDebates(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	problemID := fs.Int("problem", -1, "Run a single problem by id")
	category := fs.String("category", "", "Run every problem in one category")
	all := fs.Bool("all", false, "Run the whole dataset")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting debateflow",
		zap.String("version", Version),
		zap.Strings("participants", cfg.Debate.Participants),
		zap.Bool("mock", cfg.LLM.Mock),
	)

	collector := startMetrics(cfg.Metrics, logger)

	source, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		logger.Fatal("failed to load dataset", zap.Error(err))
	}

	problems, err := selectProblems(source, *problemID, *category, *all)
	if err != nil {
		logger.Fatal("failed to select problems", zap.Error(err))
	}

	sink, closeSink, err := buildSink(cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to set up result store", zap.Error(err))
	}
	defer closeSink()

	pipeline, err := debate.NewPipeline(
		debate.Config{
			Participants:   cfg.Debate.Participants,
			Temperature:    float32(cfg.Debate.Temperature),
			JudgeThreshold: cfg.Debate.JudgeThreshold,
		},
		debate.Options{
			Invoker: buildInvoker(cfg, logger),
			Logger:  logger,
			Metrics: collector,
		},
		sink,
	)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	completed, softFailures := 0, 0
	for _, problem := range problems {
		if ctx.Err() != nil {
			logger.Warn("interrupted, stopping after current problem")
			break
		}
		result, err := pipeline.Run(ctx, problem)
		if err != nil {
			logger.Error("debate failed", zap.Int("problem_id", problem.ID), zap.Error(err))
			continue
		}
		completed++
		if result.Judgment.Warning {
			softFailures++
			fmt.Printf("problem %d: no verdict (%s)\n", problem.ID, result.Judgment.Err)
			continue
		}
		fmt.Printf("problem %d: winner %s answered %q\n",
			problem.ID, result.Judgment.Winner, result.WinnerAnswer())
	}

	fmt.Printf("\n%d debates completed, %d without a usable verdict\n", completed, softFailures)
}

func selectProblems(source *dataset.Source, problemID int, category string, all bool) ([]types.Problem, error) {
	switch {
	case problemID >= 0:
		p, err := source.Problem(problemID)
		if err != nil {
			return nil, err
		}
		return []types.Problem{p}, nil
	case category != "":
		problems := source.ByCategory(category)
		if len(problems) == 0 {
			return nil, fmt.Errorf("no problems in category %q", category)
		}
		return problems, nil
	case all:
		return source.Problems(), nil
	default:
		return nil, fmt.Errorf("pick one of --problem, --category or --all")
	}
}

// buildInvoker wires the registry: scripted mocks in mock mode, otherwise
// one OpenAI-compatible provider per participant, with logging, timeout
// and optional rate limiting applied to every call.
func buildInvoker(cfg *config.Config, logger *zap.Logger) llm.Invoker {
	registry := llm.NewRegistry()
	for _, id := range cfg.Debate.Participants {
		if cfg.LLM.Mock {
			registry.Register(id, mocks.ScriptedProvider(id))
			continue
		}
		pc, _ := cfg.LLM.Provider(id)
		registry.Register(id, openaicompat.New(openaicompat.Config{
			ProviderName: pc.Name,
			APIKey:       pc.APIKey,
			BaseURL:      pc.BaseURL,
			DefaultModel: pc.Model,
			Timeout:      pc.Timeout,
		}, logger))
	}

	chain := llm.NewChain().
		Use(llm.LoggingMiddleware(logger)).
		Use(llm.TimeoutMiddleware(cfg.LLM.Timeout))
	if cfg.LLM.RateLimitRPS > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.LLM.RateLimitRPS), cfg.LLM.RateLimitBurst)
		chain.Use(llm.RateLimitMiddleware(limiter))
	}

	return llm.NewRegistryInvoker(registry, logger,
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithChain(chain),
	)
}

func buildSink(cfg config.StoreConfig, logger *zap.Logger) (debate.Sink, func(), error) {
	switch cfg.Backend {
	case "file":
		sink, err := store.NewFileSink(cfg.Dir, logger)
		return sink, func() {}, err
	case "sqlite":
		sink, err := store.NewSQLiteSink(cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() { sink.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

// startMetrics exposes the Prometheus endpoint when enabled. The collector
// is returned either way; a nil collector is a no-op.
func startMetrics(cfg config.MetricsConfig, logger *zap.Logger) *metrics.Collector {
	if !cfg.Enabled {
		return nil
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector("debateflow", registry, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
			logger.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics endpoint listening", zap.String("addr", cfg.Addr))
	return collector
}

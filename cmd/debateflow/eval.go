package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/BaSui01/debateflow/config"
	"github.com/BaSui01/debateflow/eval"
	"github.com/BaSui01/debateflow/store"
	"github.com/BaSui01/debateflow/types"
)

func runEval(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	dbPath := fs.String("db", "", "SQLite database to score")
	dirPath := fs.String("dir", "", "Results directory to score")
	fs.Parse(args)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.NewLoader().WithConfigPath(*configPath).Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	results, err := loadResults(cfg, *dbPath, *dirPath, logger)
	if err != nil {
		logger.Fatal("failed to load results", zap.Error(err))
	}
	if len(results) == 0 {
		fmt.Println("no stored debates to score")
		return
	}

	metrics := eval.Evaluate(results)
	printMetrics(metrics)
}

func loadResults(cfg *config.Config, dbPath, dirPath string, logger *zap.Logger) ([]*types.DebateResult, error) {
	switch {
	case dbPath != "":
		return loadFromSQLite(dbPath, logger)
	case dirPath != "":
		return loadFromDir(dirPath)
	case cfg.Store.Backend == "sqlite":
		return loadFromSQLite(cfg.Store.Path, logger)
	default:
		return loadFromDir(cfg.Store.Dir)
	}
}

func loadFromSQLite(path string, logger *zap.Logger) ([]*types.DebateResult, error) {
	sink, err := store.NewSQLiteSink(path, logger)
	if err != nil {
		return nil, err
	}
	defer sink.Close()
	return sink.All(context.Background())
}

func loadFromDir(dir string) ([]*types.DebateResult, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "debate_problem_*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	results := make([]*types.DebateResult, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var result types.DebateResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		results = append(results, &result)
	}
	return results, nil
}

func printMetrics(m eval.Metrics) {
	fmt.Printf("debates:            %d\n", m.Debates)
	fmt.Printf("judged:             %d\n", m.Judged)
	fmt.Printf("soft failures:      %d\n", m.SoftFailures)
	fmt.Printf("winner accuracy:    %.1f%% (%d/%d)\n", m.WinnerAccuracy*100, m.WinnerCorrect, m.Judged)
	fmt.Printf("majority accuracy:  %.1f%% (%d/%d)\n", m.MajorityAccuracy*100, m.MajorityCorrect, m.Debates)
	fmt.Printf("improvement rate:   %.1f%% (%d/%d)\n", m.ImprovementRate*100, m.Improved, m.Debates)
	fmt.Printf("consensus rate:     %.1f%% (%d/%d)\n", m.ConsensusRate*100, m.Consensus, m.Debates)
	if m.Disagreements > 0 {
		fmt.Printf("judge accuracy on disagreements: %.1f%% (%d/%d)\n",
			m.JudgeDisagreementAccuracy*100, m.JudgeCorrectOnDisagreement, m.Disagreements)
	} else {
		fmt.Println("judge accuracy on disagreements: no disagreement cases")
	}

	fmt.Println("\nbaselines (original answers):")
	fmt.Printf("  single solver:    %.1f%% (%d/%d)\n", m.SingleAccuracy*100, m.SingleCorrect, m.SingleScored)
	fmt.Printf("  majority vote:    %.1f%% (%d/%d)\n", m.VoteAccuracy*100, m.VoteCorrect, m.VoteScored)

	if len(m.ByCategory) == 0 {
		return
	}
	categories := make([]string, 0, len(m.ByCategory))
	for c := range m.ByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	fmt.Println("\nby category:")
	for _, c := range categories {
		cm := m.ByCategory[c]
		fmt.Printf("  %-16s %d debates, %d winner-correct\n", c, cm.Debates, cm.WinnerCorrect)
	}
}

// debateflow runs multi-agent debates over a problem dataset and scores
// the outcomes.
//
// Usage:
//
//	debateflow run --config config.yaml --problem 12
//	debateflow run --config config.yaml --all
//	debateflow eval --config config.yaml
//	debateflow version
package main

import (
	"fmt"
	"os"
)

// Injected at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runDebates(os.Args[2:])
	case "eval":
		runEval(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("debateflow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`debateflow - multi-agent debate orchestration

Usage:
  debateflow <command> [options]

Commands:
  run       Run debates over the problem dataset
  eval      Score stored debate results against ground truth
  version   Show version information
  help      Show this help message

Options for 'run':
  --config <path>     Path to configuration file (YAML)
  --problem <id>      Run a single problem by id
  --category <name>   Run every problem in one category
  --all               Run the whole dataset

Options for 'eval':
  --config <path>     Path to configuration file (YAML)
  --db <path>         SQLite database to score (overrides config)
  --dir <path>        Results directory to score (overrides config)`)
}

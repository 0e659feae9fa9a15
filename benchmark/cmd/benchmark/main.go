package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nvr-ai/go-assign/benchmark"
)

func main() {
	var (
		configFile    = flag.String("config", "", "Path to benchmark configuration file")
		scenarioFile  = flag.String("scenarios", "", "Path to scenario configuration file")
		outputDir     = flag.String("output", "./benchmark_results", "Output directory for results")
		capacityMB    = flag.Int64("capacity", 0, "Primary workspace capacity in MiB (0 = default)")
		quick         = flag.Bool("quick", false, "Run quick benchmark scenarios")
		comprehensive = flag.Bool("comprehensive", false, "Run comprehensive benchmark scenarios")
		resolutions   = flag.Bool("resolutions", false, "Compare different input resolutions")
		assigners     = flag.Bool("assigners", false, "Compare assignment strategies")
		crowding      = flag.Bool("crowding", false, "Sweep ground-truth density")
		timeout       = flag.Duration("timeout", 30*time.Minute, "Benchmark timeout duration")
	)
	flag.Parse()

	// Load configuration if provided
	var config *benchmark.BenchmarkConfig
	if *configFile != "" {
		var err error
		config, err = benchmark.LoadBenchmarkConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		config = benchmark.DefaultBenchmarkConfig()
		config.OutputDir = *outputDir
		if *capacityMB > 0 {
			config.AcceleratorCapacity = *capacityMB << 20
		}
	}

	// Create benchmark suite
	suite, err := benchmark.NewSuite(benchmark.NewSuiteArgs{
		AcceleratorCapacity: config.AcceleratorCapacity,
		CorpusSize:          config.CorpusSize,
		OutputPath:          config.OutputDir,
	})
	if err != nil {
		log.Fatalf("Failed to create suite: %v", err)
	}

	predefined := &benchmark.PredefinedScenarios{}
	smallRes := benchmark.Resolution{Width: 224, Height: 224, Name: "224x224"}

	// Add scenarios based on flags
	if *scenarioFile != "" {
		scenarioSet, err := benchmark.LoadScenarioSet(*scenarioFile)
		if err != nil {
			log.Fatalf("Failed to load scenario file: %v", err)
		}
		for _, scenario := range scenarioSet.Scenarios {
			suite.AddScenario(scenario)
		}
		fmt.Printf("Loaded %d scenarios from %s\n", len(scenarioSet.Scenarios), *scenarioFile)
	} else {
		if *quick {
			scenarios := predefined.GetQuickScenarios()
			for _, scenario := range scenarios.Scenarios {
				suite.AddScenario(scenario)
			}
			fmt.Printf("Added %d quick scenarios\n", len(scenarios.Scenarios))
		}

		if *comprehensive {
			scenarios := predefined.GetComprehensiveScenarios()
			for _, scenario := range scenarios.Scenarios {
				suite.AddScenario(scenario)
			}
			fmt.Printf("Added %d comprehensive scenarios\n", len(scenarios.Scenarios))
		}

		if *resolutions {
			scenarios := predefined.GetResolutionComparisonScenarios(benchmark.AssignerSimOTA)
			for _, scenario := range scenarios.Scenarios {
				suite.AddScenario(scenario)
			}
			fmt.Printf("Added %d resolution comparison scenarios\n", len(scenarios.Scenarios))
		}

		if *assigners {
			scenarios := predefined.GetAssignerComparisonScenarios(smallRes)
			for _, scenario := range scenarios.Scenarios {
				suite.AddScenario(scenario)
			}
			fmt.Printf("Added %d assigner comparison scenarios\n", len(scenarios.Scenarios))
		}

		if *crowding {
			scenarios := predefined.GetCrowdingScenarios(smallRes)
			for _, scenario := range scenarios.Scenarios {
				suite.AddScenario(scenario)
			}
			fmt.Printf("Added %d crowding scenarios\n", len(scenarios.Scenarios))
		}

		// If no specific scenarios requested, use quick by default
		if !*quick && !*comprehensive && !*resolutions && !*assigners && !*crowding {
			scenarios := predefined.GetQuickScenarios()
			for _, scenario := range scenarios.Scenarios {
				suite.AddScenario(scenario)
			}
			fmt.Printf("Added %d default quick scenarios\n", len(scenarios.Scenarios))
		}
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Run benchmarks
	fmt.Println("Starting benchmark execution...")
	start := time.Now()

	if err := suite.RunAllScenarios(ctx); err != nil {
		log.Fatalf("Benchmark execution failed: %v", err)
	}

	duration := time.Since(start)
	fmt.Printf("Benchmark completed in %v\n", duration)

	// Print summary
	results := suite.GetResults()
	fmt.Printf("\n=== BENCHMARK RESULTS SUMMARY ===\n")
	fmt.Printf("Total scenarios: %d\n", len(results))
	fmt.Printf("Results saved to: %s\n", config.OutputDir)

	// Find best performing scenario
	var bestRate float64
	var bestScenario string
	for _, result := range results {
		if result.AssignmentsPerSecond > bestRate {
			bestRate = result.AssignmentsPerSecond
			bestScenario = result.Scenario.Name
		}
		fmt.Printf("  %s: %.2f assignments/s (p95 %.3f ms, %d fallbacks)\n",
			result.Scenario.Name,
			result.AssignmentsPerSecond,
			float64(result.LatencyP95.Nanoseconds())/1e6,
			result.DeviceStats.Fallbacks)
	}

	fmt.Printf("\nBest performing scenario: %s (%.2f assignments/s)\n", bestScenario, bestRate)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Benchmark tool for label-assignment performance testing.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(
			os.Stderr,
			"  %s -quick\n",
			filepath.Base(os.Args[0]),
		)
		fmt.Fprintf(
			os.Stderr,
			"  %s -config ./benchmark_config.json -scenarios ./scenarios.json\n",
			filepath.Base(os.Args[0]),
		)
		fmt.Fprintf(
			os.Stderr,
			"  %s -assigners -crowding -capacity 64\n",
			filepath.Base(os.Args[0]),
		)
	}
}

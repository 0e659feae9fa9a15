package integration

import (
	"context"
	"testing"
	"time"

	"github.com/nvr-ai/go-assign/benchmark"
)

// BenchmarkQuickScenarios runs the quick scenario set through the full
// suite with reduced iteration counts.
func BenchmarkQuickScenarios(b *testing.B) {
	suite, err := benchmark.NewSuite(benchmark.NewSuiteArgs{
		OutputPath: b.TempDir(),
		CorpusSize: 4,
	})
	if err != nil {
		b.Fatalf("Failed to create suite: %v", err)
	}

	predefined := &benchmark.PredefinedScenarios{}
	quickScenarios := predefined.GetQuickScenarios()
	for _, scenario := range quickScenarios.Scenarios {
		// Reduce iterations for benchmark
		scenario.Iterations = 10
		scenario.WarmupRuns = 2
		suite.AddScenario(scenario)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	b.ResetTimer()
	if err := suite.RunAllScenarios(ctx); err != nil {
		b.Fatalf("Benchmark failed: %v", err)
	}

	// Print summary
	results := suite.GetResults()
	for _, result := range results {
		b.Logf("Scenario: %s, %.2f assignments/s, Memory: %.2f MB",
			result.Scenario.Name,
			result.AssignmentsPerSecond,
			float64(result.MemoryStats.AllocBytes)/(1024*1024))
	}
}

// BenchmarkAssignerComparison compares assignment strategies at a small
// resolution where one-to-one matching stays tractable.
func BenchmarkAssignerComparison(b *testing.B) {
	suite, err := benchmark.NewSuite(benchmark.NewSuiteArgs{
		OutputPath: b.TempDir(),
		CorpusSize: 4,
	})
	if err != nil {
		b.Fatalf("Failed to create suite: %v", err)
	}

	predefined := &benchmark.PredefinedScenarios{}
	resolution := benchmark.Resolution{Width: 224, Height: 224, Name: "224x224"}
	comparison := predefined.GetAssignerComparisonScenarios(resolution)

	for _, scenario := range comparison.Scenarios {
		scenario.Iterations = 5 // Reduce for benchmark
		scenario.WarmupRuns = 1
		suite.AddScenario(scenario)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	b.ResetTimer()
	if err := suite.RunAllScenarios(ctx); err != nil {
		b.Fatalf("Assigner comparison failed: %v", err)
	}
}

// BenchmarkConstrainedWorkspace runs a crowded scenario against a primary
// device too small for its matrices, exercising the degraded path.
func BenchmarkConstrainedWorkspace(b *testing.B) {
	suite, err := benchmark.NewSuite(benchmark.NewSuiteArgs{
		OutputPath:          b.TempDir(),
		AcceleratorCapacity: 4 << 10, // 4 KiB forces fallback at any real size
		CorpusSize:          4,
	})
	if err != nil {
		b.Fatalf("Failed to create suite: %v", err)
	}

	predefined := &benchmark.PredefinedScenarios{}
	resolution := benchmark.Resolution{Width: 416, Height: 416, Name: "416x416"}
	crowding := predefined.GetCrowdingScenarios(resolution)

	for _, scenario := range crowding.Scenarios {
		scenario.Iterations = 5
		scenario.WarmupRuns = 1
		suite.AddScenario(scenario)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	b.ResetTimer()
	if err := suite.RunAllScenarios(ctx); err != nil {
		b.Fatalf("Constrained workspace benchmark failed: %v", err)
	}

	for _, result := range suite.GetResults() {
		b.Logf("Scenario: %s, fallbacks: %d, transferred: %d bytes",
			result.Scenario.Name,
			result.DeviceStats.Fallbacks,
			result.DeviceStats.TransferredBytes)
	}
}

package benchmark

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyScenario keeps suite tests fast: a 64x64 image over two coarse
// grids yields 20 priors.
func tinyScenario(name string) Scenario {
	return NewScenarioBuilder(name).
		WithResolution(64, 64).
		WithStrides(16, 32).
		WithTruths(2).
		WithClasses(4).
		WithIterations(5).
		WithWarmupRuns(1).
		Build()
}

func TestScenarioBuilder(t *testing.T) {
	scenario := NewScenarioBuilder("test_scenario").
		WithAssigner(AssignerHungarian).
		WithResolution(416, 416).
		WithStrides(8, 16).
		WithTruths(12).
		WithClasses(20).
		WithIterations(50).
		WithWarmupRuns(5).
		WithSeed(99).
		Build()

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, AssignerHungarian, scenario.Assigner)
	assert.Equal(t, 416, scenario.Resolution.Width)
	assert.Equal(t, 416, scenario.Resolution.Height)
	assert.Equal(t, "416x416", scenario.Resolution.Name)
	assert.Equal(t, []int{8, 16}, scenario.Strides)
	assert.Equal(t, 12, scenario.Truths)
	assert.Equal(t, 20, scenario.Classes)
	assert.Equal(t, 50, scenario.Iterations)
	assert.Equal(t, 5, scenario.WarmupRuns)
	assert.Equal(t, int64(99), scenario.Seed)
}

func TestScenarioNumPriors(t *testing.T) {
	scenario := NewScenarioBuilder("priors").
		WithResolution(640, 640).
		WithStrides(8, 16, 32).
		Build()

	// 80x80 + 40x40 + 20x20
	assert.Equal(t, 8400, scenario.NumPriors())
}

func TestPredefinedScenarios(t *testing.T) {
	predefined := &PredefinedScenarios{}

	quick := predefined.GetQuickScenarios()
	assert.NotEmpty(t, quick.Scenarios)
	assert.Equal(t, "Quick Performance Test", quick.Name)

	comprehensive := predefined.GetComprehensiveScenarios()
	assert.NotEmpty(t, comprehensive.Scenarios)
	assert.Equal(t, "Comprehensive Performance Test", comprehensive.Name)

	resolution := predefined.GetResolutionComparisonScenarios(AssignerSimOTA)
	assert.NotEmpty(t, resolution.Scenarios)
	assert.Contains(t, resolution.Name, "Resolution Comparison")

	testRes := Resolution{Width: 224, Height: 224, Name: "224x224"}
	assigners := predefined.GetAssignerComparisonScenarios(testRes)
	assert.Len(t, assigners.Scenarios, 2)
	assert.Contains(t, assigners.Name, "Assigner Comparison")

	crowding := predefined.GetCrowdingScenarios(testRes)
	assert.NotEmpty(t, crowding.Scenarios)
	assert.Contains(t, crowding.Name, "Crowding Comparison")
}

func TestGenerateCorpus(t *testing.T) {
	scenario := tinyScenario("corpus")

	corpus, err := GenerateCorpus(scenario, 3)
	require.NoError(t, err)
	require.Len(t, corpus, 3)

	for _, in := range corpus {
		require.NoError(t, in.Validate())
		assert.Equal(t, scenario.NumPriors(), len(in.Priors))
		assert.Len(t, in.Truths, scenario.Truths)
	}

	// Same seed, same corpus.
	again, err := GenerateCorpus(scenario, 3)
	require.NoError(t, err)
	assert.Equal(t, corpus[0].Scores, again[0].Scores)
	assert.Equal(t, corpus[2].Boxes, again[2].Boxes)

	// Different images within a corpus differ.
	assert.NotEqual(t, corpus[0].Scores, corpus[1].Scores)
}

func TestGenerateCorpusRejectsBrokenScenarios(t *testing.T) {
	scenario := tinyScenario("broken")
	scenario.Classes = 0
	_, err := GenerateCorpus(scenario, 2)
	assert.Error(t, err)

	scenario = tinyScenario("no-priors")
	scenario.Strides = []int{0}
	_, err = GenerateCorpus(scenario, 2)
	assert.Error(t, err)

	_, err = GenerateCorpus(tinyScenario("empty"), 0)
	assert.Error(t, err)
}

func TestAddScenario(t *testing.T) {
	suite, err := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})
	require.NoError(t, err)

	scenario := tinyScenario("added")
	suite.AddScenario(scenario)

	assert.Len(t, suite.scenarios, 1)
	assert.Equal(t, scenario, suite.scenarios[0])
}

// TestRunScenario runs a small scenario end to end and checks the metric
// bookkeeping.
//
// @example go test -v -run TestRunScenario
func TestRunScenario(t *testing.T) {
	suite, err := NewSuite(NewSuiteArgs{OutputPath: t.TempDir(), CorpusSize: 2})
	require.NoError(t, err)

	metrics, err := suite.RunScenario(context.Background(), tinyScenario("run"))
	require.NoError(t, err)

	assert.Greater(t, metrics.AssignmentsPerSecond, 0.0)
	assert.Greater(t, metrics.TotalDuration, time.Duration(0))
	assert.Equal(t, 0.0, metrics.ErrorRate)
	assert.LessOrEqual(t, metrics.LatencyP50, metrics.LatencyP95)
	assert.LessOrEqual(t, metrics.LatencyP95, metrics.LatencyP99)
	assert.GreaterOrEqual(t, metrics.ForegroundTotal, 0)
	assert.Greater(t, metrics.CPUStats.NumCPU, 0)
	assert.Equal(t, uint64(0), metrics.DeviceStats.Fallbacks)
}

func TestRunScenarioHungarian(t *testing.T) {
	suite, err := NewSuite(NewSuiteArgs{OutputPath: t.TempDir(), CorpusSize: 2})
	require.NoError(t, err)

	scenario := tinyScenario("hungarian")
	scenario.Assigner = AssignerHungarian

	metrics, err := suite.RunScenario(context.Background(), scenario)
	require.NoError(t, err)
	assert.Equal(t, 0.0, metrics.ErrorRate)
}

func TestRunScenarioRejectsUnknownAssigner(t *testing.T) {
	suite, err := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})
	require.NoError(t, err)

	scenario := tinyScenario("unknown")
	scenario.Assigner = AssignerType("nearest")

	_, err = suite.RunScenario(context.Background(), scenario)
	assert.Error(t, err)

	scenario = tinyScenario("no-iterations")
	scenario.Iterations = 0
	_, err = suite.RunScenario(context.Background(), scenario)
	assert.Error(t, err)
}

func TestRunScenarioHonorsContext(t *testing.T) {
	suite, err := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = suite.RunScenario(ctx, tinyScenario("cancelled"))
	assert.ErrorIs(t, err, context.Canceled)
}

// TestRunAllScenariosPersistsResults runs the suite and checks that both
// the JSON dump and the CSV summary land in the output directory.
func TestRunAllScenariosPersistsResults(t *testing.T) {
	outputDir := t.TempDir()
	suite, err := NewSuite(NewSuiteArgs{OutputPath: outputDir, CorpusSize: 2})
	require.NoError(t, err)

	suite.AddScenario(tinyScenario("persist_a"))
	suite.AddScenario(tinyScenario("persist_b"))

	require.NoError(t, suite.RunAllScenarios(context.Background()))

	results := suite.GetResults()
	require.Len(t, results, 2)
	assert.Equal(t, "persist_a", results[0].Scenario.Name)

	jsonFiles, err := filepath.Glob(filepath.Join(outputDir, "benchmark_results_*.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, jsonFiles)

	csvFiles, err := filepath.Glob(filepath.Join(outputDir, "benchmark_summary_*.csv"))
	require.NoError(t, err)
	require.NotEmpty(t, csvFiles)

	summary, err := os.ReadFile(csvFiles[0])
	require.NoError(t, err)
	assert.Contains(t, string(summary), "persist_a")
	assert.Contains(t, string(summary), "persist_b")
}

func TestScenarioSetSaveLoad(t *testing.T) {
	predefined := &PredefinedScenarios{}
	set := predefined.GetQuickScenarios()

	path := filepath.Join(t.TempDir(), "scenarios.json")
	require.NoError(t, SaveScenarioSet(set, path))

	loaded, err := LoadScenarioSet(path)
	require.NoError(t, err)
	assert.Equal(t, set.Name, loaded.Name)
	assert.Equal(t, set.Scenarios, loaded.Scenarios)
}

func TestBenchmarkConfig(t *testing.T) {
	config := DefaultBenchmarkConfig()
	require.NotNil(t, config)
	assert.Equal(t, "./benchmark_results", config.OutputDir)
	assert.Equal(t, 8, config.CorpusSize)
	assert.Equal(t, 1, config.MaxConcurrency)
	assert.Equal(t, 3600, config.TimeoutSeconds)
	assert.True(t, config.SaveDetailedLog)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, config.SaveConfig(path))

	loaded, err := LoadBenchmarkConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestLatencyQuantiles(t *testing.T) {
	p50, p95, p99 := latencyQuantiles(nil)
	assert.Equal(t, time.Duration(0), p50)
	assert.Equal(t, time.Duration(0), p95)
	assert.Equal(t, time.Duration(0), p99)

	seconds := []float64{0.05, 0.01, 0.03, 0.02, 0.04, 0.06, 0.08, 0.07, 0.10, 0.09}
	p50, p95, p99 = latencyQuantiles(seconds)
	assert.LessOrEqual(t, p50, p95)
	assert.LessOrEqual(t, p95, p99)
	assert.GreaterOrEqual(t, p50, 40*time.Millisecond)
	assert.LessOrEqual(t, p50, 60*time.Millisecond)
	assert.LessOrEqual(t, p99, 100*time.Millisecond)
}

func BenchmarkScenarioCreation(b *testing.B) {
	predefined := &PredefinedScenarios{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = predefined.GetQuickScenarios()
	}
}

func BenchmarkScenarioBuilder(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = NewScenarioBuilder("test").
			WithAssigner(AssignerSimOTA).
			WithResolution(416, 416).
			WithIterations(100).
			Build()
	}
}

func BenchmarkGenerateCorpus(b *testing.B) {
	scenario := NewScenarioBuilder("corpus").
		WithResolution(416, 416).
		WithTruths(8).
		WithClasses(80).
		Build()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := GenerateCorpus(scenario, 1); err != nil {
			b.Fatal(err)
		}
	}
}

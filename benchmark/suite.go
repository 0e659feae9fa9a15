package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/nvr-ai/go-assign/assign"
	"github.com/nvr-ai/go-assign/compute"
)

// Suite manages and executes benchmark scenarios
type Suite struct {
	scenarios  []Scenario
	link       *compute.Link
	outputDir  string
	corpusSize int
	mu         sync.RWMutex
	results    []PerformanceMetrics
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	AcceleratorCapacity int64  `json:"acceleratorCapacity" yaml:"acceleratorCapacity"`
	CorpusSize          int    `json:"corpusSize"          yaml:"corpusSize"`
	OutputPath          string `json:"outputPath"          yaml:"outputPath"`
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
//   - error: Non-nil when the workspace device cannot be created.
func NewSuite(args NewSuiteArgs) (*Suite, error) {
	capacity := args.AcceleratorCapacity
	if capacity <= 0 {
		capacity = compute.DefaultAcceleratorCapacity
	}
	accelerator, err := compute.NewAccelerator(compute.AcceleratorOptions{
		Name:     "bench-accelerator",
		Capacity: capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create benchmark device: %w", err)
	}

	corpusSize := args.CorpusSize
	if corpusSize <= 0 {
		corpusSize = 8
	}

	return &Suite{
		link:       compute.NewLink(accelerator, compute.NewHost()),
		outputDir:  args.OutputPath,
		corpusSize: corpusSize,
		scenarios:  make([]Scenario, 0),
		results:    make([]PerformanceMetrics, 0),
	}, nil
}

// AddScenario adds a benchmark scenario to the suite
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

func (bs *Suite) buildAssigner(scenario Scenario) (assign.Assigner, error) {
	switch scenario.Assigner {
	case AssignerSimOTA:
		return assign.NewSimOTA(assign.DefaultConfig(), bs.link)
	case AssignerHungarian:
		return assign.NewHungarian(assign.DefaultConfig())
	default:
		return nil, fmt.Errorf("unknown assigner type: %s", scenario.Assigner)
	}
}

// RunScenario executes a single benchmark scenario
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	if scenario.Iterations <= 0 {
		return nil, fmt.Errorf("scenario %s needs a positive iteration count, got %d",
			scenario.Name, scenario.Iterations)
	}

	assigner, err := bs.buildAssigner(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to build assigner: %w", err)
	}

	corpus, err := GenerateCorpus(scenario, bs.corpusSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate corpus: %w", err)
	}

	metrics := &PerformanceMetrics{
		Scenario:  scenario,
		Timestamp: time.Now(),
	}

	// Warmup runs
	for i := 0; i < scenario.WarmupRuns; i++ {
		if _, err := assigner.Assign(corpus[i%len(corpus)]); err != nil {
			continue // Skip warmup errors
		}
	}

	startDevice := bs.link.Stats()

	// Capture initial memory stats
	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	startTime := time.Now()
	latencies := make([]float64, 0, scenario.Iterations)
	totalForeground := 0
	errors := 0

	// Run benchmark iterations
	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scenario %s interrupted: %w", scenario.Name, err)
		}

		in := corpus[i%len(corpus)]

		iterStart := time.Now()
		result, err := assigner.Assign(in)
		if err != nil {
			errors++
			continue
		}
		latencies = append(latencies, time.Since(iterStart).Seconds())

		totalForeground += result.NumForeground
	}

	totalDuration := time.Since(startTime)

	// Capture final memory stats
	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	// Calculate metrics
	metrics.TotalDuration = totalDuration
	metrics.AssignmentsPerSecond = float64(scenario.Iterations) / totalDuration.Seconds()
	metrics.ForegroundTotal = totalForeground
	metrics.ErrorRate = float64(errors) / float64(scenario.Iterations)
	metrics.LatencyP50, metrics.LatencyP95, metrics.LatencyP99 = latencyQuantiles(latencies)

	metrics.MemoryStats = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		SysBytes:        endMem.Sys,
		NumGC:           endMem.NumGC - startMem.NumGC,
		HeapAllocBytes:  endMem.HeapAlloc,
		HeapSysBytes:    endMem.HeapSys,
	}

	metrics.CPUStats = CPUMetrics{
		NumCPU: runtime.NumCPU(),
	}

	endDevice := bs.link.Stats()
	metrics.DeviceStats = DeviceMetrics{
		Fallbacks:        endDevice.Fallbacks - startDevice.Fallbacks,
		TransferredBytes: endDevice.TransferredBytes - startDevice.TransferredBytes,
	}

	return metrics, nil
}

// RunAllScenarios executes all configured benchmark scenarios
func (bs *Suite) RunAllScenarios(ctx context.Context) error {
	bs.mu.Lock()
	scenarios := make([]Scenario, len(bs.scenarios))
	copy(scenarios, bs.scenarios)
	bs.mu.Unlock()

	for _, scenario := range scenarios {
		metrics, err := bs.RunScenario(ctx, scenario)
		if err != nil {
			fmt.Printf("Scenario %s failed: %v\n", scenario.Name, err)
			continue
		}

		bs.mu.Lock()
		bs.results = append(bs.results, *metrics)
		bs.mu.Unlock()

		fmt.Printf("Scenario %s completed: %.2f assignments/s\n", scenario.Name, metrics.AssignmentsPerSecond)
	}

	return bs.SaveResults()
}

// SaveResults persists benchmark results to filesystem
func (bs *Suite) SaveResults() error {
	bs.mu.RLock()
	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	bs.mu.RUnlock()

	// Ensure output directory exists
	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Save detailed results as JSON
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	// Save summary CSV
	summaryFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := bs.saveSummaryCSV(summaryFile, results); err != nil {
		return fmt.Errorf("failed to save summary CSV: %w", err)
	}

	fmt.Printf("Results saved to: %s\n", resultsFile)
	fmt.Printf("Summary saved to: %s\n", summaryFile)

	return nil
}

func (bs *Suite) saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write CSV header
	header := "Scenario,Assigner,Resolution,Priors,Truths,Assignments_Per_Sec," +
		"P50_ms,P95_ms,P99_ms,Total_Duration_ms,Avg_Memory_MB,Fallbacks,Error_Rate\n"
	if _, err := file.WriteString(header); err != nil {
		return err
	}

	// Write data rows
	for _, result := range results {
		avgMemoryMB := float64(result.MemoryStats.AllocBytes) / (1024 * 1024)
		line := fmt.Sprintf("%s,%s,%s,%d,%d,%.2f,%.3f,%.3f,%.3f,%.2f,%.2f,%d,%.4f\n",
			result.Scenario.Name,
			result.Scenario.Assigner,
			result.Scenario.Resolution.Name,
			result.Scenario.NumPriors(),
			result.Scenario.Truths,
			result.AssignmentsPerSecond,
			float64(result.LatencyP50.Nanoseconds())/1e6,
			float64(result.LatencyP95.Nanoseconds())/1e6,
			float64(result.LatencyP99.Nanoseconds())/1e6,
			float64(result.TotalDuration.Nanoseconds())/1e6,
			avgMemoryMB,
			result.DeviceStats.Fallbacks,
			result.ErrorRate,
		)
		if _, err := file.WriteString(line); err != nil {
			return err
		}
	}

	return nil
}

// GetResults returns all benchmark results
func (bs *Suite) GetResults() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	return results
}

// Link exposes the device pair scenarios run against.
func (bs *Suite) Link() *compute.Link {
	return bs.link
}

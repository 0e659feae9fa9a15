package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
)

// AssignerType selects the assignment strategy a scenario exercises.
type AssignerType string

const (
	// AssignerSimOTA is the dynamic top-k assignment used during training.
	AssignerSimOTA AssignerType = "simota"
	// AssignerHungarian is the one-to-one matching baseline. Cubic in the
	// prediction count, so keep its scenarios at small resolutions.
	AssignerHungarian AssignerType = "hungarian"
)

// Resolution represents input image dimensions for benchmarking. The prior
// count of a scenario follows from the resolution and its stride set.
type Resolution struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// Common resolutions for benchmarking
var CommonResolutions = []Resolution{
	{Width: 224, Height: 224, Name: "224x224"},
	{Width: 416, Height: 416, Name: "416x416"},
	{Width: 512, Height: 512, Name: "512x512"},
	{Width: 640, Height: 640, Name: "640x640"},
	{Width: 1024, Height: 1024, Name: "1024x1024"},
}

// Scenario defines a specific assignment benchmark configuration.
type Scenario struct {
	Name       string       `json:"name"`
	Assigner   AssignerType `json:"assigner"`
	Resolution Resolution   `json:"resolution"`
	Strides    []int        `json:"strides"`
	Truths     int          `json:"truths"`
	Classes    int          `json:"classes"`
	Iterations int          `json:"iterations"`
	WarmupRuns int          `json:"warmup_runs"`
	Seed       int64        `json:"seed"`
}

// NumPriors returns the prediction count the scenario's grids produce.
func (s Scenario) NumPriors() int {
	total := 0
	for _, stride := range s.Strides {
		if stride <= 0 {
			continue
		}
		total += (s.Resolution.Width / stride) * (s.Resolution.Height / stride)
	}
	return total
}

// ScenarioBuilder helps build benchmark scenarios with fluent API
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a new scenario builder
func NewScenarioBuilder(name string) *ScenarioBuilder {
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:       name,
			Assigner:   AssignerSimOTA,
			Resolution: Resolution{Width: 640, Height: 640, Name: "640x640"},
			Strides:    []int{8, 16, 32},
			Truths:     8,
			Classes:    80,
			Iterations: 100,
			WarmupRuns: 10,
			Seed:       1,
		},
	}
}

// WithAssigner sets the assignment strategy
func (sb *ScenarioBuilder) WithAssigner(assigner AssignerType) *ScenarioBuilder {
	sb.scenario.Assigner = assigner
	return sb
}

// WithResolution sets the input resolution
func (sb *ScenarioBuilder) WithResolution(width, height int) *ScenarioBuilder {
	sb.scenario.Resolution = Resolution{
		Width:  width,
		Height: height,
		Name:   fmt.Sprintf("%dx%d", width, height),
	}
	return sb
}

// WithStrides sets the feature grid strides
func (sb *ScenarioBuilder) WithStrides(strides ...int) *ScenarioBuilder {
	sb.scenario.Strides = strides
	return sb
}

// WithTruths sets the ground-truth count per image
func (sb *ScenarioBuilder) WithTruths(truths int) *ScenarioBuilder {
	sb.scenario.Truths = truths
	return sb
}

// WithClasses sets the class count
func (sb *ScenarioBuilder) WithClasses(classes int) *ScenarioBuilder {
	sb.scenario.Classes = classes
	return sb
}

// WithIterations sets the number of test iterations
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of warmup runs
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// WithSeed sets the corpus generation seed
func (sb *ScenarioBuilder) WithSeed(seed int64) *ScenarioBuilder {
	sb.scenario.Seed = seed
	return sb
}

// Build returns the configured benchmark scenario
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related benchmark scenarios
type ScenarioSet struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Scenarios   []Scenario `json:"scenarios"`
}

// PredefinedScenarios contains common benchmark scenario sets
type PredefinedScenarios struct{}

// GetQuickScenarios returns a smaller set for quick testing
func (ps *PredefinedScenarios) GetQuickScenarios() *ScenarioSet {
	scenarios := make([]Scenario, 0)

	commonResolutions := []Resolution{
		{Width: 416, Height: 416, Name: "416x416"},
		{Width: 640, Height: 640, Name: "640x640"},
	}

	for _, resolution := range commonResolutions {
		scenario := NewScenarioBuilder(fmt.Sprintf("quick_%s_%s", AssignerSimOTA, resolution.Name)).
			WithAssigner(AssignerSimOTA).
			WithResolution(resolution.Width, resolution.Height).
			WithIterations(50).
			WithWarmupRuns(5).
			Build()

		scenarios = append(scenarios, scenario)
	}

	return &ScenarioSet{
		Name:        "Quick Performance Test",
		Description: "Quick test with common configurations",
		Scenarios:   scenarios,
	}
}

// GetComprehensiveScenarios returns a comprehensive set of benchmark scenarios
func (ps *PredefinedScenarios) GetComprehensiveScenarios() *ScenarioSet {
	scenarios := make([]Scenario, 0)

	// Sweep resolutions against truth counts
	for _, resolution := range CommonResolutions {
		for _, truths := range []int{1, 8, 32} {
			scenario := NewScenarioBuilder(fmt.Sprintf("%s_%s_%dgt", AssignerSimOTA, resolution.Name, truths)).
				WithAssigner(AssignerSimOTA).
				WithResolution(resolution.Width, resolution.Height).
				WithTruths(truths).
				WithIterations(100).
				WithWarmupRuns(10).
				Build()

			scenarios = append(scenarios, scenario)
		}
	}

	return &ScenarioSet{
		Name:        "Comprehensive Performance Test",
		Description: "Tests all combinations of resolutions and truth counts",
		Scenarios:   scenarios,
	}
}

// GetResolutionComparisonScenarios tests different resolutions with the same
// assigner
func (ps *PredefinedScenarios) GetResolutionComparisonScenarios(assigner AssignerType) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, resolution := range CommonResolutions {
		scenario := NewScenarioBuilder(fmt.Sprintf("resolution_%s_%s", assigner, resolution.Name)).
			WithAssigner(assigner).
			WithResolution(resolution.Width, resolution.Height).
			WithIterations(100).
			WithWarmupRuns(10).
			Build()

		scenarios = append(scenarios, scenario)
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Resolution Comparison - %s", assigner),
		Description: fmt.Sprintf("Compares different input resolutions for the %s assigner", assigner),
		Scenarios:   scenarios,
	}
}

// GetAssignerComparisonScenarios compares assignment strategies at the same
// resolution. One-to-one matching scales cubically with the prediction
// count, so pass a small resolution.
func (ps *PredefinedScenarios) GetAssignerComparisonScenarios(resolution Resolution) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, assigner := range []AssignerType{AssignerSimOTA, AssignerHungarian} {
		scenario := NewScenarioBuilder(fmt.Sprintf("assigner_%s_%s", assigner, resolution.Name)).
			WithAssigner(assigner).
			WithResolution(resolution.Width, resolution.Height).
			WithTruths(4).
			WithIterations(50).
			WithWarmupRuns(5).
			Build()

		scenarios = append(scenarios, scenario)
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Assigner Comparison @ %s", resolution.Name),
		Description: fmt.Sprintf("Compares assignment strategies at %s resolution", resolution.Name),
		Scenarios:   scenarios,
	}
}

// GetCrowdingScenarios sweeps the ground-truth count at a fixed resolution.
// Dense images stress candidate overlap and conflict resolution.
func (ps *PredefinedScenarios) GetCrowdingScenarios(resolution Resolution) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, truths := range []int{1, 4, 16, 64} {
		scenario := NewScenarioBuilder(fmt.Sprintf("crowding_%s_%dgt", resolution.Name, truths)).
			WithAssigner(AssignerSimOTA).
			WithResolution(resolution.Width, resolution.Height).
			WithTruths(truths).
			WithIterations(100).
			WithWarmupRuns(10).
			Build()

		scenarios = append(scenarios, scenario)
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Crowding Comparison @ %s", resolution.Name),
		Description: fmt.Sprintf("Sweeps ground-truth density at %s resolution", resolution.Name),
		Scenarios:   scenarios,
	}
}

// SaveScenarioSet saves a scenario set to a JSON file
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := json.MarshalIndent(scenarioSet, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario set: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	return nil
}

// LoadScenarioSet loads a scenario set from a JSON file
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenarioSet ScenarioSet
	if err := json.Unmarshal(data, &scenarioSet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario set: %w", err)
	}

	return &scenarioSet, nil
}

// BenchmarkConfig represents the overall benchmark configuration
type BenchmarkConfig struct {
	OutputDir           string `json:"output_dir"`
	AcceleratorCapacity int64  `json:"accelerator_capacity"`
	CorpusSize          int    `json:"corpus_size"`
	MaxConcurrency      int    `json:"max_concurrency"`
	TimeoutSeconds      int    `json:"timeout_seconds"`
	SaveDetailedLog     bool   `json:"save_detailed_log"`
}

// DefaultBenchmarkConfig returns a default benchmark configuration
func DefaultBenchmarkConfig() *BenchmarkConfig {
	return &BenchmarkConfig{
		OutputDir:       "./benchmark_results",
		CorpusSize:      8,
		MaxConcurrency:  1,
		TimeoutSeconds:  3600, // 1 hour
		SaveDetailedLog: true,
	}
}

// SaveConfig saves the benchmark configuration to a JSON file
func (bc *BenchmarkConfig) SaveConfig(filename string) error {
	data, err := json.MarshalIndent(bc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadBenchmarkConfig loads benchmark configuration from a JSON file
func LoadBenchmarkConfig(filename string) (*BenchmarkConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config BenchmarkConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

package main

import (
	"fmt"
	"log"

	"github.com/nvr-ai/go-assign/benchmark"
)

// Example program to create and save benchmark scenarios
func main() {
	predefined := &benchmark.PredefinedScenarios{}

	// Create comprehensive scenarios
	comprehensive := predefined.GetComprehensiveScenarios()
	err := benchmark.SaveScenarioSet(comprehensive, "comprehensive_scenarios.json")
	if err != nil {
		log.Fatalf("Failed to save comprehensive scenarios: %v", err)
	}
	fmt.Printf("Saved %d comprehensive scenarios\n", len(comprehensive.Scenarios))

	// Create quick scenarios
	quick := predefined.GetQuickScenarios()
	err = benchmark.SaveScenarioSet(quick, "quick_scenarios.json")
	if err != nil {
		log.Fatalf("Failed to save quick scenarios: %v", err)
	}
	fmt.Printf("Saved %d quick scenarios\n", len(quick.Scenarios))

	// Create resolution comparison scenarios
	resolutions := predefined.GetResolutionComparisonScenarios(benchmark.AssignerSimOTA)
	err = benchmark.SaveScenarioSet(resolutions, "resolution_scenarios.json")
	if err != nil {
		log.Fatalf("Failed to save resolution scenarios: %v", err)
	}
	fmt.Printf("Saved %d resolution scenarios\n", len(resolutions.Scenarios))

	// Create assigner comparison scenarios
	resolution224 := benchmark.Resolution{Width: 224, Height: 224, Name: "224x224"}
	assigners := predefined.GetAssignerComparisonScenarios(resolution224)
	err = benchmark.SaveScenarioSet(assigners, "assigner_scenarios.json")
	if err != nil {
		log.Fatalf("Failed to save assigner scenarios: %v", err)
	}
	fmt.Printf("Saved %d assigner scenarios\n", len(assigners.Scenarios))

	// Create custom scenario using builder
	customScenario := benchmark.NewScenarioBuilder("custom_dense_1024").
		WithAssigner(benchmark.AssignerSimOTA).
		WithResolution(1024, 1024).
		WithTruths(64).
		WithClasses(80).
		WithIterations(50).
		WithWarmupRuns(5).
		Build()

	customSet := &benchmark.ScenarioSet{
		Name:        "Custom Dense High Resolution Test",
		Description: "Stresses candidate filtering with many truths at 1024x1024",
		Scenarios:   []benchmark.Scenario{customScenario},
	}

	err = benchmark.SaveScenarioSet(customSet, "custom_scenarios.json")
	if err != nil {
		log.Fatalf("Failed to save custom scenarios: %v", err)
	}
	fmt.Printf("Saved %d custom scenarios\n", len(customSet.Scenarios))

	fmt.Println("All scenario files created successfully!")
}

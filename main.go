package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nvr-ai/go-assign/assign"
	"github.com/nvr-ai/go-assign/benchmark"
	"github.com/nvr-ai/go-assign/compute"
	"github.com/nvr-ai/go-assign/profiler"
)

const (
	// DefaultImageCount is how many synthetic images the simulation assigns.
	DefaultImageCount = 200
	// DefaultCorpusSize is how many distinct images the stream cycles through.
	DefaultCorpusSize = 16
	// DefaultWorkers matches a typical dataloader worker count.
	DefaultWorkers = 4
)

// linkMetrics feeds device-pair counters into the profiler.
type linkMetrics struct {
	link *compute.Link
}

func (c *linkMetrics) CollectMetrics() map[string]float64 {
	stats := c.link.Stats()
	return map[string]float64{
		"device_fallbacks":  float64(stats.Fallbacks),
		"transferred_bytes": float64(stats.TransferredBytes),
		"primary_in_use":    float64(c.link.Primary().InUse()),
	}
}

func main() {
	var (
		width          int
		height         int
		classes        int
		truths         int
		imageCount     int
		workers        int
		capacityMB     int64
		assignerName   string
		seed           int64
		reportInterval time.Duration
	)
	flag.IntVar(&width, "width", 640, "Input image width")
	flag.IntVar(&height, "height", 640, "Input image height")
	flag.IntVar(&classes, "classes", 80, "Number of object classes")
	flag.IntVar(&truths, "truths", 8, "Ground-truth boxes per image")
	flag.IntVar(&imageCount, "images", DefaultImageCount, "Number of images to assign")
	flag.IntVar(&workers, "workers", DefaultWorkers, "Concurrent assignment workers")
	flag.Int64Var(&capacityMB, "capacity", 0, "Primary workspace capacity in MiB (0 = default)")
	flag.StringVar(&assignerName, "assigner", string(benchmark.AssignerSimOTA), "Assignment strategy (simota or hungarian)")
	flag.Int64Var(&seed, "seed", 1, "Corpus generation seed")
	flag.DurationVar(&reportInterval, "report-interval", 5*time.Second, "Profiler status report interval")
	flag.Parse()

	if imageCount <= 0 {
		log.Fatal("Image count must be positive (-images)")
	}
	if workers <= 0 {
		log.Fatal("Worker count must be positive (-workers)")
	}

	scenario := benchmark.NewScenarioBuilder("stream").
		WithAssigner(benchmark.AssignerType(assignerName)).
		WithResolution(width, height).
		WithClasses(classes).
		WithTruths(truths).
		WithSeed(seed).
		Build()

	corpus, err := benchmark.GenerateCorpus(scenario, DefaultCorpusSize)
	if err != nil {
		log.Fatalf("Failed to generate images: %v", err)
	}

	capacity := compute.DefaultAcceleratorCapacity
	if capacityMB > 0 {
		capacity = capacityMB << 20
	}
	accelerator, err := compute.NewAccelerator(compute.AcceleratorOptions{
		Name:     "accelerator0",
		Capacity: capacity,
	})
	if err != nil {
		log.Fatalf("Failed to create workspace device: %v", err)
	}
	link := compute.NewLink(accelerator, compute.NewHost())

	var assigner assign.Assigner
	switch benchmark.AssignerType(assignerName) {
	case benchmark.AssignerSimOTA:
		assigner, err = assign.NewSimOTA(assign.DefaultConfig(), link)
	case benchmark.AssignerHungarian:
		assigner, err = assign.NewHungarian(assign.DefaultConfig())
	default:
		log.Fatalf("Unknown assigner %q (use %q or %q)",
			assignerName, benchmark.AssignerSimOTA, benchmark.AssignerHungarian)
	}
	if err != nil {
		log.Fatalf("Failed to create assigner: %v", err)
	}

	fmt.Printf("\n🚀 Label Assignment Simulator\n")
	fmt.Printf("=====================================\n")
	fmt.Printf("⚙️  Configuration:\n")
	fmt.Printf("   🖼  Image size: %dx%d (%d priors)\n", width, height, scenario.NumPriors())
	fmt.Printf("   📦 Truths per image: %d across %d classes\n", truths, classes)
	fmt.Printf("   🎯 Assigner: %s\n", assignerName)
	fmt.Printf("   🧵 Workers: %d\n", workers)
	fmt.Printf("   💾 Primary workspace: %d MiB\n", capacity>>20)
	fmt.Printf("   🔁 Images: %d (cycling %d distinct)\n", imageCount, len(corpus))
	fmt.Printf("=====================================\n\n")

	if benchmark.AssignerType(assignerName) == benchmark.AssignerHungarian && scenario.NumPriors() > 2500 {
		fmt.Printf("⚠️  One-to-one matching is cubic in the prior count; this will be slow\n\n")
	}

	prof := profiler.NewRuntimeProfiler(profiler.ProfilingOptions{
		ReportInterval: reportInterval,
		SampleInterval: 100 * time.Millisecond,
		MaxSamples:     600,
	})
	prof.AddMetricsCollector(&linkMetrics{link: link})
	prof.Start()
	defer prof.Stop()

	var (
		totalForeground int64
		failed          int64
	)
	jobs := make(chan *assign.Inputs)
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for in := range jobs {
				stopTiming := prof.StartOperation("label_assignment")
				result, err := assigner.Assign(in)
				stopTiming()
				if err != nil {
					atomic.AddInt64(&failed, 1)
					log.Printf("assignment failed: %v", err)
					continue
				}
				atomic.AddInt64(&totalForeground, int64(result.NumForeground))
				prof.RecordMetric("foreground_per_image", float64(result.NumForeground))
			}
		}()
	}

	for i := 0; i < imageCount; i++ {
		jobs <- corpus[i%len(corpus)]
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	succeeded := int64(imageCount) - failed
	stats := link.Stats()

	fmt.Printf("\n=== SIMULATION SUMMARY ===\n")
	fmt.Printf("Images assigned: %d (%d failed) in %v\n", succeeded, failed, elapsed.Truncate(time.Millisecond))
	fmt.Printf("Throughput: %.1f images/s\n", float64(imageCount)/elapsed.Seconds())
	if succeeded > 0 {
		fmt.Printf("Foreground per image: %.1f\n", float64(totalForeground)/float64(succeeded))
	}
	fmt.Printf("Fallbacks to %s: %d (transferred %d bytes)\n",
		link.Fallback().Name(), stats.Fallbacks, stats.TransferredBytes)
	fmt.Printf("Primary workspace: %d bytes in use, %d cached\n",
		accelerator.InUse(), accelerator.Cached())
}

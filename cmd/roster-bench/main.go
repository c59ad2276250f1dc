package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"slices"
	"sort"
	"time"

	"github.com/dd0wney/cluso-roster/pkg/config"
	"github.com/dd0wney/cluso-roster/pkg/health"
	"github.com/dd0wney/cluso-roster/pkg/index"
	"github.com/dd0wney/cluso-roster/pkg/logging"
	"github.com/dd0wney/cluso-roster/pkg/roster"
	"github.com/dd0wney/cluso-roster/pkg/session"
)

func main() {
	configPath := flag.String("config", "", "Path to roster.yaml (default: search configs/roster.yaml, roster.yaml)")
	numRecords := flag.Int("records", 0, "Number of synthetic records (0 = config value)")
	numWorkers := flag.Int("workers", 0, "Max worker goroutines to try (0 = config value)")
	seed := flag.Int64("seed", 0, "Generator seed (0 = config value)")
	numUpdates := flag.Int("updates", 1000, "Number of random grade updates")
	course := flag.String("course", "OOPS", "Course to query in the grade index")
	showMetrics := flag.Bool("metrics", false, "Print collected metrics at the end")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *numRecords > 0 {
		cfg.Generate.Records = *numRecords
	}
	if *seed != 0 {
		cfg.Generate.Seed = *seed
	}
	if *numWorkers > 0 {
		cfg.Sort.Workers = *numWorkers
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.Logging.Level))
	logging.SetDefaultLogger(logger)

	fmt.Printf("🔬 Parallel Roster Sort Benchmark\n")
	fmt.Printf("======================================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Records:     %d\n", cfg.Generate.Records)
	fmt.Printf("  Seed:        %d\n", cfg.Generate.Seed)
	fmt.Printf("  CPU Cores:   %d\n", runtime.NumCPU())
	fmt.Printf("  Workers:     %d (max %d)\n\n", cfg.Sort.Workers, cfg.Sort.MaxWorkers)

	fmt.Printf("📊 Generating records...\n")
	records := roster.Generate(cfg.Generate.Records, cfg.Generate.Seed)

	sess := session.New(cfg, session.WithLogger(logger))
	if err := sess.Load(records); err != nil {
		log.Fatalf("Failed to load records: %v", err)
	}
	stats := sess.IndexStatistics()
	fmt.Printf("   Loaded %d records, %d indexed courses, %d index entries\n\n",
		sess.Len(), stats.UniqueKeys, stats.TotalEntries)

	// Baseline: one goroutine sorting record copies
	fmt.Printf("🐌 Testing Sequential Sort...\n")
	seqDuration := benchmarkSequential(records)
	fmt.Printf("   Duration:      %s\n", seqDuration)
	fmt.Printf("   Throughput:    %.0f records/sec\n\n", throughput(len(records), seqDuration))

	workerCounts := []int{1, 2, 4, cfg.Sort.Workers}
	workerCounts = slices.Compact(sortedInts(workerCounts))

	best := struct {
		workers  int
		duration time.Duration
	}{}
	for _, w := range workerCounts {
		// Start every pass from entry order
		if err := sess.Reload(records); err != nil {
			log.Fatalf("Failed to reload records: %v", err)
		}

		fmt.Printf("⚡ Testing Parallel Sort (%d workers)...\n", w)
		result, err := sess.SortAndMerge(w)
		if err != nil {
			log.Fatalf("Sort pass failed: %v", err)
		}
		fmt.Printf("   Pass:          %s\n", result.PassID)
		fmt.Printf("   Workers used:  %d\n", result.Workers)
		fmt.Printf("   Load balance:  %.3f\n", result.LoadBalance)
		fmt.Printf("   Slowest part:  %s\n", slices.Max(append([]time.Duration{0}, result.WorkerDurations...)))
		fmt.Printf("   Merge:         %s\n", result.MergeDuration)
		fmt.Printf("   Total:         %s\n", result.TotalDuration)
		fmt.Printf("   Speedup:       %.2fx\n\n", seqDuration.Seconds()/result.TotalDuration.Seconds())

		if best.duration == 0 || result.TotalDuration < best.duration {
			best.workers, best.duration = result.Workers, result.TotalDuration
		}
	}

	// Grade updates against the live index
	fmt.Printf("📝 Applying %d grade updates...\n", *numUpdates)
	added, removed := applyUpdates(sess, *numUpdates, cfg.Generate.Seed)
	fmt.Printf("   Added:         %d\n", added)
	fmt.Printf("   Removed:       %d\n\n", removed)

	ids := sess.QueryIDs(*course)
	fmt.Printf("🎓 Records with %s >= %.1f: %d\n", *course, index.Threshold, len(ids))
	if len(ids) > 0 {
		shown, err := sess.Records(ids[:min(5, len(ids))])
		if err != nil {
			log.Fatalf("Failed to resolve records: %v", err)
		}
		for _, r := range shown {
			grade, _ := r.BestGrade(*course)
			fmt.Printf("   %-14s %-12s %s %d  %.1f\n", r.Roll, r.Name, r.Branch, r.StartYear, grade)
		}
	}
	fmt.Printf("   High achievers overall: %d\n\n", len(sess.HighAchievers()))

	fmt.Printf("📊 Summary\n")
	fmt.Printf("======================================\n")
	fmt.Printf("Sequential:    %s (baseline)\n", seqDuration)
	fmt.Printf("🎯 Best:       %s with %d workers (%.2fx)\n",
		best.duration, best.workers, seqDuration.Seconds()/best.duration.Seconds())

	hc := health.NewHealthChecker()
	sess.RegisterHealthChecks(hc)
	report := hc.Check()
	fmt.Printf("\n🩺 Health: %s\n", report.Status)
	for _, name := range hc.Names() {
		check := report.Checks[name]
		fmt.Printf("   %-18s %-10s %s\n", name, check.Status, check.Message)
	}

	if *showMetrics && sess.Metrics() != nil {
		sess.Metrics().UpdateSystemMetrics()
		values, err := sess.Metrics().Snapshot()
		if err != nil {
			log.Fatalf("Failed to gather metrics: %v", err)
		}
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("\n📈 Metrics\n")
		for _, name := range names {
			fmt.Printf("   %-48s %g\n", name, values[name])
		}
	}
}

func benchmarkSequential(records []*roster.Record) time.Duration {
	work := slices.Clone(records)
	start := time.Now()
	slices.SortFunc(work, roster.Compare)
	return time.Since(start)
}

func applyUpdates(sess *session.Session, n int, seed int64) (added, removed int) {
	if sess.Len() == 0 {
		return 0, 0
	}
	rng := rand.New(rand.NewSource(seed))
	courses := sess.Courses().Mappings()

	for i := 0; i < n; i++ {
		id := roster.RecordID(rng.Intn(sess.Len()))
		course := courses[rng.Intn(len(courses))].Code
		value := float64(rng.Intn(101)) / 10

		transition, err := sess.SetGrade(id, course, value)
		if err != nil {
			log.Fatalf("Grade update failed: %v", err)
		}
		switch transition {
		case index.Added:
			added++
		case index.Removed:
			removed++
		}
	}
	return added, removed
}

func sortedInts(v []int) []int {
	out := slices.Clone(v)
	slices.Sort(out)
	return out
}

func throughput(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

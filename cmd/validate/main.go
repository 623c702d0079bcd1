// Command validate checks a gauge dataset directory before it is handed to
// the extraction service: the files parse, the station ordering is
// consistent, every station has usable readings inside its lifetime and
// peak detection runs cleanly.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data -delta 2
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/flood-wave-graph/internal/adapter/catalog"
	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "", "dataset directory")
	delta := flag.Int("delta", 2, "peak window half-width in days")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir, *delta); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string, delta int) int {
	fmt.Println("=== Gauge Dataset Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := catalog.NewLoader(dataDir, logger).Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	peaks := 0
	phases := []*phase{
		validateStructure(c),
		validateCoverage(c),
		validatePeaks(c, delta, &peaks),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	readings, missing := countReadings(c)
	extent := c.Extent()
	fmt.Println()
	fmt.Printf("Stations: %d, readings: %d (%d missing), peaks (delta %d): %d\n",
		len(c.Stations), readings, missing, delta, peaks)
	fmt.Printf("Extent: river km %g-%g, %s to %s\n",
		extent.LowerStation, extent.UpperStation, extent.StartDate, extent.EndDate)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateStructure(c *domain.Catalog) *phase {
	p := &phase{name: "Phase 1: Station ordering and series order"}
	if len(c.Stations) < 2 {
		p.errorf("need at least two stations to build edges, found %d", len(c.Stations))
	}
	if err := c.Validate(); err != nil {
		p.errorf("%v", err)
	}
	return p
}

func validateCoverage(c *domain.Catalog) *phase {
	p := &phase{name: "Phase 2: Readings inside station lifetimes"}
	for _, s := range c.Stations {
		series, ok := c.Series[s.ID]
		if !ok || len(series) == 0 {
			p.errorf("station %s: no measurement column", s.ID)
			continue
		}
		usable := 0
		for _, r := range series {
			if _, err := domain.DaysBetween(r.Date, r.Date); err != nil {
				p.errorf("station %s: %v", s.ID, err)
				break
			}
			if r.Valid && (math.IsNaN(r.Level) || math.IsInf(r.Level, 0)) {
				p.errorf("station %s on %s: non-finite level", s.ID, r.Date)
			}
			if r.Valid && s.Lifetime.Contains(r.Date) {
				usable++
			}
		}
		if usable == 0 {
			p.errorf("station %s: no valid reading between %s and %s", s.ID, s.Lifetime.Start, s.Lifetime.End)
		}
	}
	return p
}

func validatePeaks(c *domain.Catalog, delta int, total *int) *phase {
	p := &phase{name: "Phase 3: Peak detection dry run"}
	for _, s := range c.Stations {
		peaks, err := domain.DetectPeaks(s, c.Series[s.ID], delta, domain.Lifetime{})
		if err != nil {
			p.errorf("station %s: %v", s.ID, err)
			continue
		}
		*total += len(peaks)
	}
	return p
}

func countReadings(c *domain.Catalog) (readings, missing int) {
	for _, series := range c.Series {
		for _, r := range series {
			readings++
			if !r.Valid {
				missing++
			}
		}
	}
	return readings, missing
}

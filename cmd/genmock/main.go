// Command genmock writes a gauge dataset in the layout read by the catalog
// loader. By default it synthesizes a river with flood pulses travelling
// downstream; -reference writes the five-gauge dataset used by the tests.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -stations 8 -days 730 -floods 12 -seed 7
//	go run ./cmd/genmock -out data/reference -reference
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/flood-wave-graph/internal/adapter/catalog"
	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

type options struct {
	out       string
	stations  int
	days      int
	floods    int
	start     string
	seed      uint64
	gapRate   float64
	reference bool
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var o options
	flag.StringVar(&o.out, "out", "", "output dataset directory")
	flag.IntVar(&o.stations, "stations", 6, "number of gauges")
	flag.IntVar(&o.days, "days", 365, "length of every series in days")
	flag.IntVar(&o.floods, "floods", 8, "number of flood pulses")
	flag.StringVar(&o.start, "start", "2020-01-01", "first measurement date")
	flag.Uint64Var(&o.seed, "seed", 1, "random seed")
	flag.Float64Var(&o.gapRate, "gap-rate", 0.01, "probability of a missing reading")
	flag.BoolVar(&o.reference, "reference", false, "write the five-gauge reference dataset")
	flag.Parse()

	if o.out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	var (
		c   *domain.Catalog
		err error
	)
	if o.reference {
		c = referenceCatalog()
	} else if c, err = synthesize(o); err != nil {
		return err
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("generated catalog is invalid: %w", err)
	}
	if err := catalog.Write(o.out, c); err != nil {
		return err
	}

	readings := 0
	for _, s := range c.Series {
		readings += len(s)
	}
	log.Printf("wrote %d stations, %d readings to %s", len(c.Stations), readings, o.out)
	return nil
}

// synthesize builds stations from upstream to downstream, 40 km apart. Each
// flood starts at the first gauge on a random day and reaches the next
// gauge zero to two days later, attenuating on the way.
func synthesize(o options) (*domain.Catalog, error) {
	if o.stations < 2 || o.days < 1 {
		return nil, fmt.Errorf("need at least 2 stations and 1 day, got %d and %d", o.stations, o.days)
	}
	start, err := time.Parse(domain.DateLayout, o.start)
	if err != nil {
		return nil, fmt.Errorf("invalid -start: %w", err)
	}
	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))

	levels := make([][]float64, o.stations)
	for i := range levels {
		levels[i] = make([]float64, o.days)
		base := 150 + 20*float64(i)
		for d := range levels[i] {
			seasonal := 60 * math.Sin(2*math.Pi*float64(d)/365)
			levels[i][d] = base + seasonal + rng.NormFloat64()*3
		}
	}

	for range o.floods {
		day := rng.IntN(o.days)
		height := 250 + rng.Float64()*400
		for i := range levels {
			addPulse(levels[i], day, height)
			day += rng.IntN(3)
			height *= 0.85 + rng.Float64()*0.1
		}
	}

	end := start.AddDate(0, 0, o.days-1).Format(domain.DateLayout)
	c := &domain.Catalog{Series: make(map[string]domain.Series, o.stations)}
	for i := range o.stations {
		id := fmt.Sprintf("%04d", 1000+i*37)
		c.Stations = append(c.Stations, domain.Station{
			ID:         id,
			RiverKm:    float64(40 * (o.stations - i)),
			Lifetime:   domain.Lifetime{Start: o.start, End: end},
			NullPoint:  math.Round(rng.Float64()*10000) / 100,
			LevelGroup: 400 + 25*float64(i),
		})

		series := make(domain.Series, o.days)
		for d, level := range levels[i] {
			series[d] = domain.Reading{
				Date:  start.AddDate(0, 0, d).Format(domain.DateLayout),
				Level: math.Round(level),
				Valid: rng.Float64() >= o.gapRate,
			}
		}
		c.Series[id] = series
	}
	return c, nil
}

// addPulse adds a triangular rise and fall of the given height centred on day.
func addPulse(levels []float64, day int, height float64) {
	const halfWidth = 4
	for k := -halfWidth; k <= halfWidth; k++ {
		d := day + k
		if d < 0 || d >= len(levels) {
			continue
		}
		levels[d] += height * float64(halfWidth+1-abs(k)) / float64(halfWidth+1)
	}
}

func abs(k int) int {
	if k < 0 {
		return -k
	}
	return k
}

func referenceCatalog() *domain.Catalog {
	levels := map[string][]float64{
		"5.0": {1, 2, 3, 4, 5, 6, 7, 8, 7, 6},
		"4.0": {1, 2, 3, 4, 5, 4, 3, 4, 3, 2},
		"3.0": {1, 2, 3, 3, 3, 4, 5, 6, 6, 6},
		"2.0": {1, 2, 3, 4, 4, 4, 3, 3, 2, 1},
		"1.0": {1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	}
	c := &domain.Catalog{Series: make(map[string]domain.Series)}
	for i, id := range []string{"5.0", "4.0", "3.0", "2.0", "1.0"} {
		c.Stations = append(c.Stations, domain.Station{
			ID:         id,
			RiverKm:    float64(5 - i),
			Lifetime:   domain.Lifetime{Start: "2020-01-01", End: "2020-01-10"},
			NullPoint:  10,
			LevelGroup: 6,
		})
		series := make(domain.Series, len(levels[id]))
		for d, l := range levels[id] {
			series[d] = domain.Reading{Date: fmt.Sprintf("2020-01-%02d", d+1), Level: l, Valid: true}
		}
		c.Series[id] = series
	}
	return c
}

// Package analysis aggregates extracted flood waves into period statistics
// and classifies high-water waves.
package analysis

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

// ErrInvalidStatistic is returned for a statistic name that is not supported.
var ErrInvalidStatistic = errors.New("invalid statistic")

// Statistic names an aggregate over the waves of a period.
type Statistic string

const (
	Mean   Statistic = "mean"
	Median Statistic = "median"
	Sum    Statistic = "sum"
	Min    Statistic = "min"
	Max    Statistic = "max"
)

// ParseStatistic validates a statistic name.
func ParseStatistic(s string) (Statistic, error) {
	switch st := Statistic(s); st {
	case Mean, Median, Sum, Min, Max:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatistic, s)
	}
}

// Period is one aggregated bucket. Labels are "2006" for years and
// "2006Q1" for quarters.
type Period struct {
	Label string  `json:"period" msgpack:"period"`
	Value float64 `json:"value" msgpack:"value"`
}

// PeriodStats holds the same aggregate at yearly and quarterly resolution,
// both in chronological order.
type PeriodStats struct {
	Yearly    []Period `json:"yearly" msgpack:"yearly"`
	Quarterly []Period `json:"quarterly" msgpack:"quarterly"`
}

// CountWaves counts waves by the period of their start date. Periods
// between the first and the last populated one are reported with a zero
// count.
func CountWaves(waves []domain.Wave) (PeriodStats, error) {
	starts, err := startDates(waves)
	if err != nil {
		return PeriodStats{}, err
	}

	var out PeriodStats
	for _, res := range []resolution{yearly, quarterly} {
		counts := make(map[bucket]float64)
		for _, d := range starts {
			counts[res.bucketOf(d)]++
		}
		periods := res.fill(counts)
		if res == yearly {
			out.Yearly = periods
		} else {
			out.Quarterly = periods
		}
	}
	return out, nil
}

// PropagationTimes aggregates the days from source to sink of every wave by
// the period of its start date. Only populated periods are reported.
func PropagationTimes(waves []domain.Wave, s Statistic) (PeriodStats, error) {
	if _, err := ParseStatistic(string(s)); err != nil {
		return PeriodStats{}, err
	}
	starts, err := startDates(waves)
	if err != nil {
		return PeriodStats{}, err
	}
	days := make([]float64, len(waves))
	for i, w := range waves {
		d, err := w.PropagationDays()
		if err != nil {
			return PeriodStats{}, err
		}
		days[i] = float64(d)
	}

	var out PeriodStats
	for _, res := range []resolution{yearly, quarterly} {
		groups := make(map[bucket][]float64)
		for i, d := range starts {
			b := res.bucketOf(d)
			groups[b] = append(groups[b], days[i])
		}
		var periods []Period
		for _, b := range sortedBuckets(groups) {
			periods = append(periods, Period{Label: res.label(b), Value: compute(groups[b], s)})
		}
		if res == yearly {
			out.Yearly = periods
		} else {
			out.Quarterly = periods
		}
	}
	return out, nil
}

// compute applies the statistic to a non-empty sample.
func compute(x []float64, s Statistic) float64 {
	switch s {
	case Sum:
		return floats.Sum(x)
	case Min:
		return floats.Min(x)
	case Max:
		return floats.Max(x)
	case Median:
		sorted := slices.Clone(x)
		slices.Sort(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid]
		}
		return stat.Mean(sorted[mid-1:mid+1], nil)
	default:
		return stat.Mean(x, nil)
	}
}

func startDates(waves []domain.Wave) ([]time.Time, error) {
	out := make([]time.Time, len(waves))
	for i, w := range waves {
		if len(w) == 0 {
			return nil, &domain.StructuralError{Reason: fmt.Sprintf("wave %d is empty", i)}
		}
		d, err := time.Parse(domain.DateLayout, w.Source().Date)
		if err != nil {
			return nil, fmt.Errorf("wave %d start date: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}

// resolution is a period length in months.
type resolution int

const (
	yearly    resolution = 12
	quarterly resolution = 3
)

// bucket is the first month of a period.
type bucket struct {
	year  int
	month int
}

func (b bucket) index() int { return b.year*12 + b.month - 1 }

func (r resolution) bucketOf(t time.Time) bucket {
	m := int(t.Month()) - 1
	return bucket{year: t.Year(), month: m - m%int(r) + 1}
}

func (r resolution) next(b bucket) bucket {
	i := b.index() + int(r)
	return bucket{year: i / 12, month: i%12 + 1}
}

func (r resolution) label(b bucket) string {
	if r == yearly {
		return strconv.Itoa(b.year)
	}
	return fmt.Sprintf("%dQ%d", b.year, (b.month-1)/3+1)
}

// fill emits every period from the first to the last populated one.
func (r resolution) fill(counts map[bucket]float64) []Period {
	keys := sortedBuckets(counts)
	if len(keys) == 0 {
		return nil
	}
	last := keys[len(keys)-1].index()
	var out []Period
	for b := keys[0]; b.index() <= last; b = r.next(b) {
		out = append(out, Period{Label: r.label(b), Value: counts[b]})
	}
	return out
}

func sortedBuckets[V any](m map[bucket]V) []bucket {
	keys := make([]bucket, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b bucket) int { return a.index() - b.index() })
	return keys
}

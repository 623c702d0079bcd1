package domain

import (
	"fmt"
	"math"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// DetectPeaks returns the delta-peaks of one station's series as vertices,
// ordered by date.
//
// A reading at day d is a peak when it is strictly greater than each of
// the delta readings on days d-delta..d-1 and greater than or equal to each
// of the delta readings on days d+1..d+delta. Both windows must be fully
// populated: a missing value or an absent date on either side makes d
// ineligible. The strict/non-strict asymmetry attributes a plateau to its
// earliest day.
//
// Only valid, finite readings inside the station lifetime and the analysis
// window are considered, so neighbours outside that range never complete a
// window.
func DetectPeaks(station Station, series Series, delta int, window Lifetime) ([]Vertex, error) {
	if delta < 1 {
		return nil, fmt.Errorf("%w: delta must be at least 1, got %d", ErrInvalidRange, delta)
	}

	type point struct {
		day   int64
		date  string
		level float64
	}

	points := make([]point, 0, len(series))
	levels := make(map[int64]float64, len(series))
	for _, r := range series {
		if !r.Valid || math.IsNaN(r.Level) || math.IsInf(r.Level, 0) {
			continue
		}
		if !station.Lifetime.Contains(r.Date) || !window.Contains(r.Date) {
			continue
		}
		day, err := dayNumber(r.Date)
		if err != nil {
			return nil, &StructuralError{Reason: fmt.Sprintf("station %q: %v", station.ID, err)}
		}
		points = append(points, point{day: day, date: r.Date, level: r.Level})
		levels[day] = r.Level
	}

	var peaks []Vertex
	for _, p := range points {
		if !isPeak(levels, p.day, p.level, delta) {
			continue
		}
		peaks = append(peaks, newVertex(station, p.date, p.level))
	}
	return peaks, nil
}

func isPeak(levels map[int64]float64, day int64, level float64, delta int) bool {
	for k := int64(1); k <= int64(delta); k++ {
		before, ok := levels[day-k]
		if !ok || level <= before {
			return false
		}
		after, ok := levels[day+k]
		if !ok || level < after {
			return false
		}
	}
	return true
}

// newVertex applies the null-point correction and the level-group color.
// Value and Color use different bases: Value is the corrected level, while
// Color compares the uncorrected gauge reading with the level group, which
// is stated on the gauge's own scale.
func newVertex(station Station, date string, level float64) Vertex {
	color := Red
	if level < station.LevelGroup {
		color = Yellow
	}
	return Vertex{
		Key:     VertexKey{Station: station.ID, Date: date},
		RiverKm: station.RiverKm,
		Value:   roundLevel(level + station.NullPoint),
		Color:   color,
	}
}

// dayNumber converts an ISO date to days since the Unix epoch.
func dayNumber(date string) (int64, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", date, err)
	}
	return t.Unix() / secondsPerDay, nil
}

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to string) (int, error) {
	a, err := dayNumber(from)
	if err != nil {
		return 0, err
	}
	b, err := dayNumber(to)
	if err != nil {
		return 0, err
	}
	return int(b - a), nil
}

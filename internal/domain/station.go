package domain

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-date format used for every date key.
// Zero-padded ISO dates order lexicographically, which the filters rely on.
const DateLayout = time.DateOnly

// Lifetime is the closed interval in which a station was active.
type Lifetime struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether the ISO date lies inside the interval.
// An empty bound is open.
func (l Lifetime) Contains(date string) bool {
	if l.Start != "" && date < l.Start {
		return false
	}
	if l.End != "" && date > l.End {
		return false
	}
	return true
}

// Station is a river gauge. Stations are immutable once loaded.
type Station struct {
	ID         string   `json:"id"`
	RiverKm    float64  `json:"river_km"`
	Lifetime   Lifetime `json:"life_interval"`
	NullPoint  float64  `json:"null_point"`
	LevelGroup float64  `json:"level_group"`
}

// Reading is one daily water-level record. Valid is false for a missing
// value, which breaks rolling-window continuity the same way an absent
// date does.
type Reading struct {
	Date  string
	Level float64
	Valid bool
}

// Series is a station's readings ordered by strictly increasing date.
type Series []Reading

// Catalog is the read-only input of a run: stations in river order
// (consistently upstream-to-downstream or the reverse) and their series.
type Catalog struct {
	Stations []Station
	Series   map[string]Series
}

// Station returns the station with the given identifier.
func (c *Catalog) Station(id string) (Station, bool) {
	for _, s := range c.Stations {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}

// Validate checks the catalog invariants: unique identifiers, strictly
// monotonic river-km along the ordering, well-formed lifetimes and
// strictly increasing series dates.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Stations))
	direction := 0
	for i, s := range c.Stations {
		if s.ID == "" {
			return &StructuralError{Reason: fmt.Sprintf("station #%d has no identifier", i)}
		}
		if seen[s.ID] {
			return &StructuralError{Reason: fmt.Sprintf("duplicate station %q", s.ID)}
		}
		seen[s.ID] = true

		if s.Lifetime.Start != "" && s.Lifetime.End != "" && s.Lifetime.End < s.Lifetime.Start {
			return &StructuralError{Reason: fmt.Sprintf("station %q lifetime ends before it starts", s.ID)}
		}

		if i == 0 {
			continue
		}
		prev := c.Stations[i-1].RiverKm
		var d int
		switch {
		case s.RiverKm > prev:
			d = 1
		case s.RiverKm < prev:
			d = -1
		default:
			return &StructuralError{Reason: fmt.Sprintf("stations %q and %q share river km %g", c.Stations[i-1].ID, s.ID, s.RiverKm)}
		}
		if direction != 0 && d != direction {
			return &StructuralError{Reason: fmt.Sprintf("river km is not monotonic at station %q", s.ID)}
		}
		direction = d
	}

	for id, series := range c.Series {
		for i := 1; i < len(series); i++ {
			if series[i].Date <= series[i-1].Date {
				return &StructuralError{Reason: fmt.Sprintf("series %q is not strictly increasing at %s", id, series[i].Date)}
			}
		}
	}
	return nil
}

// Extent is the full station and date range covered by a catalog. It is
// the default for graph filtering when no explicit defaults are configured.
type Extent struct {
	LowerStation float64
	UpperStation float64
	StartDate    string
	EndDate      string
}

// Extent computes the river-km and date bounds of the catalog.
func (c *Catalog) Extent() Extent {
	var e Extent
	for i, s := range c.Stations {
		if i == 0 || s.RiverKm < e.LowerStation {
			e.LowerStation = s.RiverKm
		}
		if i == 0 || s.RiverKm > e.UpperStation {
			e.UpperStation = s.RiverKm
		}
	}
	for _, series := range c.Series {
		if len(series) == 0 {
			continue
		}
		if first := series[0].Date; e.StartDate == "" || first < e.StartDate {
			e.StartDate = first
		}
		if last := series[len(series)-1].Date; last > e.EndDate {
			e.EndDate = last
		}
	}
	return e
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
	"github.com/couchcryptid/flood-wave-graph/internal/graph"
)

const analysisEnvPrefix = "FLOODWAVE_"

// Analysis holds the parameters of a wave extraction run.
type Analysis struct {
	Beta            int    `koanf:"beta"`
	Delta           int    `koanf:"delta"`
	WithEquivalence bool   `koanf:"with_equivalence"`
	Window          Window `koanf:"window"`
	Defaults        Range  `koanf:"defaults"`
	Filter          Range  `koanf:"filter"`
}

// Window restricts peak detection to a date range. Empty bounds are open.
type Window struct {
	Start string `koanf:"start"`
	End   string `koanf:"end"`
}

// Range bounds the wave graph by river km and date. It serves both as the
// filter default (unset bounds fall back to the catalog extent) and as the
// filter applied before extraction (unset bounds take the default).
type Range struct {
	LowerStation *float64 `koanf:"lower_station"`
	UpperStation *float64 `koanf:"upper_station"`
	StartDate    *string  `koanf:"start_date"`
	EndDate      *string  `koanf:"end_date"`
}

// LoadAnalysis loads analysis parameters with the priority defaults, then
// the YAML file at path (if path is not empty), then FLOODWAVE_ environment
// variables.
func LoadAnalysis(path string) (*Analysis, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"beta":             2,
		"delta":            2,
		"with_equivalence": true,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load analysis defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("analysis config: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load analysis config %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(analysisEnvPrefix, ".", analysisEnvKey), nil); err != nil {
		return nil, fmt.Errorf("load analysis env: %w", err)
	}

	var a Analysis
	if err := k.Unmarshal("", &a); err != nil {
		return nil, fmt.Errorf("unmarshal analysis config: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// analysisEnvKey maps FLOODWAVE_DEFAULTS_LOWER_STATION to
// defaults.lower_station. Only the first underscore after a section name
// becomes a dot, since field names contain underscores themselves.
func analysisEnvKey(envKey, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(envKey, analysisEnvPrefix))
	for _, section := range []string{"window", "defaults", "filter"} {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest, value
		}
	}
	return key, value
}

// Validate rejects parameters the engine cannot run with.
func (a *Analysis) Validate() error {
	if a.Delta < 1 {
		return fmt.Errorf("%w: delta must be at least 1, got %d", domain.ErrInvalidRange, a.Delta)
	}
	if a.Beta < 0 {
		return fmt.Errorf("%w: beta must not be negative, got %d", domain.ErrInvalidRange, a.Beta)
	}
	if a.Window.Start != "" && a.Window.End != "" && a.Window.End < a.Window.Start {
		return &domain.RangeError{Field: "window", Lower: a.Window.Start, Upper: a.Window.End}
	}
	return nil
}

// PeakWindow is the analysis window in the form peak detection takes.
func (a *Analysis) PeakWindow() domain.Lifetime {
	return domain.Lifetime{Start: a.Window.Start, End: a.Window.End}
}

// ResolveDefaults resolves the default graph range against the catalog
// extent.
func (a *Analysis) ResolveDefaults(extent domain.Extent) domain.Extent {
	d := a.Defaults
	if d.LowerStation != nil {
		extent.LowerStation = *d.LowerStation
	}
	if d.UpperStation != nil {
		extent.UpperStation = *d.UpperStation
	}
	if d.StartDate != nil {
		extent.StartDate = *d.StartDate
	}
	if d.EndDate != nil {
		extent.EndDate = *d.EndDate
	}
	return extent
}

// StationQuery is the configured station filter.
func (a *Analysis) StationQuery() graph.StationQuery {
	return graph.StationQuery{Lower: a.Filter.LowerStation, Upper: a.Filter.UpperStation}
}

// DateQuery is the configured date filter.
func (a *Analysis) DateQuery() graph.DateQuery {
	return graph.DateQuery{Start: a.Filter.StartDate, End: a.Filter.EndDate}
}

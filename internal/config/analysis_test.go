package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

func writeAnalysisFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAnalysis_Defaults(t *testing.T) {
	a, err := LoadAnalysis("")
	require.NoError(t, err)

	assert.Equal(t, 2, a.Beta)
	assert.Equal(t, 2, a.Delta)
	assert.True(t, a.WithEquivalence)
	assert.Equal(t, Window{}, a.Window)
	assert.Nil(t, a.Defaults.LowerStation)
	assert.Nil(t, a.Filter.StartDate)
}

func TestLoadAnalysis_FromFile(t *testing.T) {
	path := writeAnalysisFile(t, `
beta: 3
delta: 4
with_equivalence: false
window:
  start: "1990-01-01"
  end: "2020-12-31"
defaults:
  lower_station: 1.5
  upper_station: 1850
  start_date: "1876-01-01"
  end_date: "2023-12-31"
filter:
  lower_station: 100
  upper_station: 500
  start_date: "2000-01-01"
`)

	a, err := LoadAnalysis(path)
	require.NoError(t, err)

	assert.Equal(t, 3, a.Beta)
	assert.Equal(t, 4, a.Delta)
	assert.False(t, a.WithEquivalence)
	assert.Equal(t, Window{Start: "1990-01-01", End: "2020-12-31"}, a.Window)

	require.NotNil(t, a.Defaults.LowerStation)
	assert.Equal(t, 1.5, *a.Defaults.LowerStation)
	assert.Equal(t, 1850.0, *a.Defaults.UpperStation)
	assert.Equal(t, "1876-01-01", *a.Defaults.StartDate)

	q := a.StationQuery()
	require.NotNil(t, q.Lower)
	assert.Equal(t, 100.0, *q.Lower)
	assert.Equal(t, 500.0, *q.Upper)

	d := a.DateQuery()
	require.NotNil(t, d.Start)
	assert.Equal(t, "2000-01-01", *d.Start)
	assert.Nil(t, d.End)
}

func TestLoadAnalysis_EnvOverridesFile(t *testing.T) {
	path := writeAnalysisFile(t, "beta: 3\ndelta: 4\n")
	t.Setenv("FLOODWAVE_BETA", "5")
	t.Setenv("FLOODWAVE_WITH_EQUIVALENCE", "false")
	t.Setenv("FLOODWAVE_WINDOW_START", "2001-01-01")
	t.Setenv("FLOODWAVE_DEFAULTS_LOWER_STATION", "12.5")
	t.Setenv("FLOODWAVE_FILTER_END_DATE", "2010-06-30")

	a, err := LoadAnalysis(path)
	require.NoError(t, err)

	assert.Equal(t, 5, a.Beta)
	assert.Equal(t, 4, a.Delta)
	assert.False(t, a.WithEquivalence)
	assert.Equal(t, "2001-01-01", a.Window.Start)
	require.NotNil(t, a.Defaults.LowerStation)
	assert.Equal(t, 12.5, *a.Defaults.LowerStation)
	require.NotNil(t, a.Filter.EndDate)
	assert.Equal(t, "2010-06-30", *a.Filter.EndDate)
}

func TestLoadAnalysis_MissingFile(t *testing.T) {
	_, err := LoadAnalysis(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadAnalysis_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"delta below one", "delta: 0\n"},
		{"negative beta", "beta: -1\n"},
		{"inverted window", "window:\n  start: \"2020-01-01\"\n  end: \"2019-01-01\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAnalysis(writeAnalysisFile(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidRange)
		})
	}
}

func TestAnalysis_ResolveDefaults(t *testing.T) {
	lower := 5.0
	end := "2020-01-31"
	a := &Analysis{Defaults: Range{LowerStation: &lower, EndDate: &end}}

	extent := domain.Extent{LowerStation: 1, UpperStation: 9, StartDate: "2020-01-01", EndDate: "2020-12-31"}
	assert.Equal(t, domain.Extent{
		LowerStation: 5,
		UpperStation: 9,
		StartDate:    "2020-01-01",
		EndDate:      "2020-01-31",
	}, a.ResolveDefaults(extent))
}

func TestAnalysis_PeakWindow(t *testing.T) {
	a := &Analysis{Window: Window{Start: "2000-01-01"}}
	assert.Equal(t, domain.Lifetime{Start: "2000-01-01"}, a.PeakWindow())
}

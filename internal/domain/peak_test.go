package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStartDate = "2020-01-01"

var missing = math.NaN()

// makeSeries builds consecutive daily readings from testStartDate. NaN
// levels become missing readings.
func makeSeries(t *testing.T, levels ...float64) Series {
	t.Helper()
	start, err := time.Parse(DateLayout, testStartDate)
	require.NoError(t, err)

	s := make(Series, len(levels))
	for i, l := range levels {
		s[i] = Reading{
			Date:  start.AddDate(0, 0, i).Format(DateLayout),
			Level: l,
			Valid: !math.IsNaN(l),
		}
	}
	return s
}

func day(n int) string {
	start, _ := time.Parse(DateLayout, testStartDate)
	return start.AddDate(0, 0, n-1).Format(DateLayout)
}

// fixtureStations mirrors the five-gauge reference dataset: null point 10,
// level group 6, active over the whole ten days.
func fixtureStations() []Station {
	ids := []string{"5.0", "4.0", "3.0", "2.0", "1.0"}
	stations := make([]Station, len(ids))
	for i, id := range ids {
		stations[i] = Station{
			ID:         id,
			RiverKm:    float64(5 - i),
			Lifetime:   Lifetime{Start: day(1), End: day(10)},
			NullPoint:  10,
			LevelGroup: 6,
		}
	}
	return stations
}

func fixtureSeries(t *testing.T) map[string]Series {
	return map[string]Series{
		"5.0": makeSeries(t, 1, 2, 3, 4, 5, 6, 7, 8, 7, 6),
		"4.0": makeSeries(t, 1, 2, 3, 4, 5, 4, 3, 4, 3, 2),
		"3.0": makeSeries(t, 1, 2, 3, 3, 3, 4, 5, 6, 6, 6),
		"2.0": makeSeries(t, 1, 2, 3, 4, 4, 4, 3, 3, 2, 1),
		"1.0": makeSeries(t, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1),
	}
}

func TestDetectPeaks_ReferenceDataset(t *testing.T) {
	tests := []struct {
		name     string
		delta    int
		expected map[string][]Vertex
	}{
		{
			name:  "delta 2",
			delta: 2,
			expected: map[string][]Vertex{
				"5.0": {{Key: VertexKey{"5.0", day(8)}, RiverKm: 5, Value: 18, Color: Red}},
				"4.0": {{Key: VertexKey{"4.0", day(5)}, RiverKm: 4, Value: 15, Color: Yellow}},
				"3.0": {
					{Key: VertexKey{"3.0", day(3)}, RiverKm: 3, Value: 13, Color: Yellow},
					{Key: VertexKey{"3.0", day(8)}, RiverKm: 3, Value: 16, Color: Red},
				},
				"2.0": {{Key: VertexKey{"2.0", day(4)}, RiverKm: 2, Value: 14, Color: Yellow}},
				"1.0": nil,
			},
		},
		{
			name:  "delta 3",
			delta: 3,
			expected: map[string][]Vertex{
				"5.0": nil,
				"4.0": {{Key: VertexKey{"4.0", day(5)}, RiverKm: 4, Value: 15, Color: Yellow}},
				"3.0": nil,
				"2.0": {{Key: VertexKey{"2.0", day(4)}, RiverKm: 2, Value: 14, Color: Yellow}},
				"1.0": nil,
			},
		},
	}

	series := fixtureSeries(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, st := range fixtureStations() {
				peaks, err := DetectPeaks(st, series[st.ID], tt.delta, Lifetime{})
				require.NoError(t, err)
				assert.Equal(t, tt.expected[st.ID], peaks, "station %s", st.ID)
			}
		})
	}
}

func TestDetectPeaks_GapBreaksWindow(t *testing.T) {
	st := Station{ID: "3.0", RiverKm: 3, NullPoint: 0.5, LevelGroup: 8}
	series := makeSeries(t, 1, 1, 8, 8, 8, missing, missing, 8, 8, 8)

	peaks, err := DetectPeaks(st, series, 2, Lifetime{})
	require.NoError(t, err)

	require.Len(t, peaks, 1)
	assert.Equal(t, VertexKey{Station: "3.0", Date: day(3)}, peaks[0].Key)
	assert.Equal(t, 8.5, peaks[0].Value)
	assert.Equal(t, Red, peaks[0].Color, "a level equal to the level group is red")
}

func TestDetectPeaks_NonFiniteLevelsAreMissing(t *testing.T) {
	st := Station{ID: "s", LevelGroup: 5}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		series := makeSeries(t, 1, 2, 8, 3, 1, 1, 1)
		for i := range series {
			series[i].Valid = true
		}
		series[3].Level = bad

		peaks, err := DetectPeaks(st, series, 2, Lifetime{})
		require.NoError(t, err)
		assert.Empty(t, peaks, "level %v must not complete the window of day 3", bad)

		series[2].Level = bad
		series[3].Level = 3
		peaks, err = DetectPeaks(st, series, 2, Lifetime{})
		require.NoError(t, err)
		for _, p := range peaks {
			assert.False(t, math.IsNaN(p.Value) || math.IsInf(p.Value, 0), "peak %v", p.Key)
		}
	}
}

func TestDetectPeaks_AbsentDateBreaksWindow(t *testing.T) {
	st := Station{ID: "a", LevelGroup: 100}
	series := makeSeries(t, 1, 2, 9, 2, 1)
	// Drop 2020-01-02 entirely rather than marking it missing.
	series = append(series[:1], series[2:]...)

	peaks, err := DetectPeaks(st, series, 2, Lifetime{})
	require.NoError(t, err)
	assert.Empty(t, peaks)
}

func TestDetectPeaks_WindowBoundaries(t *testing.T) {
	st := Station{ID: "a", LevelGroup: 100}

	tests := []struct {
		name   string
		delta  int
		levels []float64
		dates  []string
	}{
		{"plateau goes to earliest day", 2, []float64{1, 2, 5, 5, 5, 2, 1}, []string{day(3)}},
		{"equal predecessor blocks peak", 1, []float64{1, 5, 5, 2}, []string{day(2)}},
		{"greater successor blocks peak", 1, []float64{1, 5, 6, 2}, []string{day(3)}},
		{"equal successor allowed", 1, []float64{1, 5, 5, 1}, []string{day(2)}},
		{"series edge never qualifies", 1, []float64{9, 1, 9}, nil},
		{"too short for window", 3, []float64{1, 2, 3, 9, 3, 2}, nil},
		{"exactly 2delta+1 points", 3, []float64{1, 2, 3, 9, 3, 2, 1}, []string{day(4)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peaks, err := DetectPeaks(st, makeSeries(t, tt.levels...), tt.delta, Lifetime{})
			require.NoError(t, err)

			var dates []string
			for _, p := range peaks {
				dates = append(dates, p.Key.Date)
			}
			assert.Equal(t, tt.dates, dates)
		})
	}
}

func TestDetectPeaks_RestrictedToLifetimeAndWindow(t *testing.T) {
	levels := []float64{1, 2, 9, 2, 1, 1, 2, 7, 2, 1}

	t.Run("lifetime excludes early peak", func(t *testing.T) {
		st := Station{ID: "a", LevelGroup: 100, Lifetime: Lifetime{Start: day(5)}}
		peaks, err := DetectPeaks(st, makeSeries(t, levels...), 2, Lifetime{})
		require.NoError(t, err)
		require.Len(t, peaks, 1)
		assert.Equal(t, day(8), peaks[0].Key.Date)
	})

	t.Run("neighbours outside lifetime do not complete window", func(t *testing.T) {
		st := Station{ID: "a", LevelGroup: 100, Lifetime: Lifetime{Start: day(2)}}
		peaks, err := DetectPeaks(st, makeSeries(t, levels...), 2, Lifetime{})
		require.NoError(t, err)
		require.Len(t, peaks, 1)
		assert.Equal(t, day(8), peaks[0].Key.Date)
	})

	t.Run("analysis window", func(t *testing.T) {
		st := Station{ID: "a", LevelGroup: 100}
		peaks, err := DetectPeaks(st, makeSeries(t, levels...), 2, Lifetime{End: day(6)})
		require.NoError(t, err)
		require.Len(t, peaks, 1)
		assert.Equal(t, day(3), peaks[0].Key.Date)
	})
}

func TestDetectPeaks_EmptySeries(t *testing.T) {
	peaks, err := DetectPeaks(Station{ID: "a"}, nil, 2, Lifetime{})
	require.NoError(t, err)
	assert.Empty(t, peaks)
}

func TestDetectPeaks_Idempotent(t *testing.T) {
	series := fixtureSeries(t)
	for _, st := range fixtureStations() {
		first, err := DetectPeaks(st, series[st.ID], 2, Lifetime{})
		require.NoError(t, err)
		second, err := DetectPeaks(st, series[st.ID], 2, Lifetime{})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestDetectPeaks_InvalidDelta(t *testing.T) {
	_, err := DetectPeaks(Station{ID: "a"}, nil, 0, Lifetime{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDetectPeaks_BadDate(t *testing.T) {
	series := Series{{Date: "20-1-1", Level: 1, Valid: true}}
	_, err := DetectPeaks(Station{ID: "a"}, series, 1, Lifetime{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestDetectPeaks_RoundsCorrectedValue(t *testing.T) {
	st := Station{ID: "a", NullPoint: 73.704, LevelGroup: 570}
	peaks, err := DetectPeaks(st, makeSeries(t, 100, 200, 650.333, 200, 100), 2, Lifetime{})
	require.NoError(t, err)
	require.Len(t, peaks, 1)
	assert.Equal(t, 724.04, peaks[0].Value)
	assert.Equal(t, Red, peaks[0].Color)
}

package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func datasetFiles() map[string]string {
	return map[string]string{
		MetaFile: "station;name;river_km\n" +
			"2275;Tiszabecs;744.4\n" +
			"1514;Szeged;173.6\n",
		MeasurementFile: "date,1514,2275,9999\n" +
			"2020-01-02T00:00:00Z,410,120,1\n" +
			"2020-01-01T00:00:00Z,400,,1\n" +
			"2020-01-03T00:00:00Z,,130.5,1\n",
		NullPointsFile:  `{"2275": 114.86, "1514": 73.7}`,
		LevelGroupsFile: `{"2275": 500, "1514": 570}`,
		LifetimesFile: `{"2275": {"start": "1876-01-01", "end": "2019-12-31"},` +
			` "1514": {"start": "1876-01-01", "end": "2023-12-31"}}`,
	}
}

func TestLoader_Load(t *testing.T) {
	dir := writeFiles(t, datasetFiles())

	c, err := NewLoader(dir, slog.Default()).Load(context.Background())
	require.NoError(t, err)

	expectedStations := []domain.Station{
		{ID: "2275", RiverKm: 744.4, NullPoint: 114.86, LevelGroup: 500, Lifetime: domain.Lifetime{Start: "1876-01-01", End: "2019-12-31"}},
		{ID: "1514", RiverKm: 173.6, NullPoint: 73.7, LevelGroup: 570, Lifetime: domain.Lifetime{Start: "1876-01-01", End: "2023-12-31"}},
	}
	if diff := cmp.Diff(expectedStations, c.Stations); diff != "" {
		t.Fatalf("stations mismatch (-want +got):\n%s", diff)
	}

	assert.Len(t, c.Series, 2, "columns without metadata are ignored")
	assert.Equal(t, domain.Series{
		{Date: "2020-01-01", Level: 400, Valid: true},
		{Date: "2020-01-02", Level: 410, Valid: true},
		{Date: "2020-01-03"},
	}, c.Series["1514"])
	assert.Equal(t, domain.Series{
		{Date: "2020-01-01"},
		{Date: "2020-01-02", Level: 120, Valid: true},
		{Date: "2020-01-03", Level: 130.5, Valid: true},
	}, c.Series["2275"])

	require.NoError(t, c.Validate())
}

func TestLoader_NonFiniteCellsAreMissing(t *testing.T) {
	files := datasetFiles()
	files[MeasurementFile] = "date,1514,2275\n" +
		"2020-01-03,8,1\n" +
		"2020-01-04,NaN,inf\n" +
		"2020-01-05,nan,-Inf\n" +
		"2020-01-06,1,2\n"

	c, err := NewLoader(writeFiles(t, files), slog.Default()).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.Series{
		{Date: "2020-01-03", Level: 8, Valid: true},
		{Date: "2020-01-04"},
		{Date: "2020-01-05"},
		{Date: "2020-01-06", Level: 1, Valid: true},
	}, c.Series["1514"])
	assert.Equal(t, domain.Series{
		{Date: "2020-01-03", Level: 1, Valid: true},
		{Date: "2020-01-04"},
		{Date: "2020-01-05"},
		{Date: "2020-01-06", Level: 2, Valid: true},
	}, c.Series["2275"])

	peaks, err := domain.DetectPeaks(c.Stations[1], c.Series["1514"], 2, domain.Lifetime{})
	require.NoError(t, err)
	assert.Empty(t, peaks, "a window over missing cells never completes")
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(files map[string]string)
		target error
		msg    string
	}{
		{
			name:   "missing lifetime",
			modify: func(f map[string]string) { f[LifetimesFile] = `{"2275": {"start": "1876-01-01", "end": "2019-12-31"}}` },
			target: ErrIncompleteStation,
		},
		{
			name:   "null level group",
			modify: func(f map[string]string) { f[LevelGroupsFile] = `{"2275": 500, "1514": null}` },
			target: ErrIncompleteStation,
		},
		{
			name:   "missing file",
			modify: func(f map[string]string) { delete(f, NullPointsFile) },
			msg:    "open null_points.json",
		},
		{
			name:   "no river km column",
			modify: func(f map[string]string) { f[MetaFile] = "station;km\n1514;173.6\n" },
			msg:    `missing "river_km" column`,
		},
		{
			name:   "bad level",
			modify: func(f map[string]string) { f[MeasurementFile] = "date,1514\n2020-01-01,high\n" },
			msg:    `station "1514" on 2020-01-01`,
		},
		{
			name:   "bad date",
			modify: func(f map[string]string) { f[MeasurementFile] = "date,1514\n01/02/2020,1\n" },
			msg:    "invalid date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := datasetFiles()
			tt.modify(files)

			_, err := NewLoader(writeFiles(t, files), slog.Default()).Load(context.Background())
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(writeFiles(t, datasetFiles()), slog.Default()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrite_RoundTrip(t *testing.T) {
	c := &domain.Catalog{
		Stations: []domain.Station{
			{ID: "b", RiverKm: 20, NullPoint: 1.5, LevelGroup: 300, Lifetime: domain.Lifetime{Start: "2000-01-01", End: "2030-12-31"}},
			{ID: "a", RiverKm: 10, NullPoint: 2, LevelGroup: 250, Lifetime: domain.Lifetime{Start: "2000-01-01", End: "2030-12-31"}},
		},
		Series: map[string]domain.Series{
			"b": {{Date: "2020-01-01", Level: 100, Valid: true}, {Date: "2020-01-02"}},
			"a": {{Date: "2020-01-01", Level: 90.25, Valid: true}, {Date: "2020-01-02", Level: 95, Valid: true}},
		},
	}

	dir := filepath.Join(t.TempDir(), "dataset")
	require.NoError(t, Write(dir, c))

	got, err := NewLoader(dir, slog.Default()).Load(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(c, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

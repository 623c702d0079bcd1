// Package catalog reads and writes gauge datasets in the directory layout
// produced by the upstream hydrological data exports.
package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

// Dataset file names.
const (
	MetaFile         = "meta_data.csv"
	MeasurementFile  = "measurement_data.csv"
	NullPointsFile   = "null_points.json"
	LevelGroupsFile  = "level_groups.json"
	LifetimesFile    = "station_lifetimes.json"
	riverKmColumn    = "river_km"
	metaSeparator    = ';'
	measureSeparator = ','
)

// ErrIncompleteStation is returned when a station listed in the metadata
// has no null point, level group or lifetime.
var ErrIncompleteStation = errors.New("incomplete station info")

// Loader reads a dataset directory into a domain.Catalog.
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a Loader for the dataset in dir.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load reads every dataset file. Stations keep the metadata row order.
// Measurement columns for stations missing from the metadata are ignored.
func (l *Loader) Load(ctx context.Context) (*domain.Catalog, error) {
	stations, err := l.readMeta()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		nullPoints  map[string]*float64
		levelGroups map[string]*float64
		lifetimes   map[string]*domain.Lifetime
	)
	if err := l.readJSON(NullPointsFile, &nullPoints); err != nil {
		return nil, err
	}
	if err := l.readJSON(LevelGroupsFile, &levelGroups); err != nil {
		return nil, err
	}
	if err := l.readJSON(LifetimesFile, &lifetimes); err != nil {
		return nil, err
	}

	for i := range stations {
		s := &stations[i]
		np, lg, lt := nullPoints[s.ID], levelGroups[s.ID], lifetimes[s.ID]
		if np == nil || lg == nil || lt == nil {
			return nil, fmt.Errorf("%w: station %q", ErrIncompleteStation, s.ID)
		}
		s.NullPoint, s.LevelGroup, s.Lifetime = *np, *lg, *lt
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	series, err := l.readMeasurements(stations)
	if err != nil {
		return nil, err
	}

	l.logger.Info("catalog loaded",
		"dir", l.dir,
		"stations", len(stations),
		"series", len(series),
	)
	return &domain.Catalog{Stations: stations, Series: series}, nil
}

func (l *Loader) open(name string) (*os.File, error) {
	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

func (l *Loader) readJSON(name string, v any) error {
	f, err := l.open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (l *Loader) readMeta() ([]domain.Station, error) {
	f, err := l.open(MetaFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = metaSeparator
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", MetaFile, err)
	}
	kmCol := slices.Index(header, riverKmColumn)
	if kmCol < 1 {
		return nil, fmt.Errorf("%s: missing %q column", MetaFile, riverKmColumn)
	}

	var stations []domain.Station
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", MetaFile, err)
		}
		km, err := strconv.ParseFloat(strings.TrimSpace(rec[kmCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: station %q: invalid river km: %w", MetaFile, rec[0], err)
		}
		stations = append(stations, domain.Station{ID: strings.TrimSpace(rec[0]), RiverKm: km})
	}
	return stations, nil
}

func (l *Loader) readMeasurements(stations []domain.Station) (map[string]domain.Series, error) {
	f, err := l.open(MeasurementFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = measureSeparator
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", MeasurementFile, err)
	}

	known := make(map[string]bool, len(stations))
	for _, s := range stations {
		known[s.ID] = true
	}
	columns := make(map[int]string)
	for i, id := range header[1:] {
		if id = strings.TrimSpace(id); known[id] {
			columns[i+1] = id
		}
	}

	series := make(map[string]domain.Series, len(columns))
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", MeasurementFile, err)
		}
		date, err := normalizeDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", MeasurementFile, err)
		}
		for col, id := range columns {
			reading := domain.Reading{Date: date}
			if cell := strings.TrimSpace(rec[col]); cell != "" {
				level, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("%s: station %q on %s: %w", MeasurementFile, id, date, err)
				}
				if !math.IsNaN(level) && !math.IsInf(level, 0) {
					reading.Level, reading.Valid = level, true
				}
			}
			series[id] = append(series[id], reading)
		}
	}

	for id, s := range series {
		slices.SortStableFunc(s, func(a, b domain.Reading) int { return strings.Compare(a.Date, b.Date) })
		series[id] = s
	}
	return series, nil
}

var dateLayouts = []string{domain.DateLayout, time.RFC3339, time.DateTime}

// normalizeDate accepts ISO 8601 dates with or without a time part and
// returns the calendar date.
func normalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(domain.DateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date %q", s)
}

package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

// Write stores a catalog in dir using the dataset layout read by Loader.
// A date absent from one series is written as an empty cell, which
// reads back as a missing reading.
func Write(dir string, c *domain.Catalog) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}

	nullPoints := make(map[string]float64, len(c.Stations))
	levelGroups := make(map[string]float64, len(c.Stations))
	lifetimes := make(map[string]domain.Lifetime, len(c.Stations))
	meta := [][]string{{"station", riverKmColumn}}
	for _, s := range c.Stations {
		nullPoints[s.ID] = s.NullPoint
		levelGroups[s.ID] = s.LevelGroup
		lifetimes[s.ID] = s.Lifetime
		meta = append(meta, []string{s.ID, formatFloat(s.RiverKm)})
	}

	if err := writeCSV(filepath.Join(dir, MetaFile), metaSeparator, meta); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, MeasurementFile), measureSeparator, measurementRows(c)); err != nil {
		return err
	}
	for name, v := range map[string]any{
		NullPointsFile:  nullPoints,
		LevelGroupsFile: levelGroups,
		LifetimesFile:   lifetimes,
	} {
		if err := writeJSON(filepath.Join(dir, name), v); err != nil {
			return err
		}
	}
	return nil
}

func measurementRows(c *domain.Catalog) [][]string {
	byDate := make(map[string]map[string]string)
	for id, series := range c.Series {
		for _, r := range series {
			if byDate[r.Date] == nil {
				byDate[r.Date] = make(map[string]string)
			}
			if r.Valid {
				byDate[r.Date][id] = formatFloat(r.Level)
			} else {
				byDate[r.Date][id] = ""
			}
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	slices.Sort(dates)

	header := []string{"date"}
	for _, s := range c.Stations {
		header = append(header, s.ID)
	}
	rows := [][]string{header}
	for _, d := range dates {
		row := []string{d}
		for _, s := range c.Stations {
			row = append(row, byDate[d][s.ID])
		}
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(path string, sep rune, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = sep
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

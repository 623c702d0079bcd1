// Package report renders regional analysis reports as spreadsheets.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/flood-wave-graph/internal/analysis"
	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

// Sheet names.
const (
	SummarySheet     = "Summary"
	CountsSheet      = "Wave Counts"
	PropagationSheet = "Propagation"
)

// Meta describes the analysis a report was produced from.
type Meta struct {
	Run       domain.RunInfo
	Section   string
	Statistic analysis.Statistic
	Target    string
	FullWave  bool
}

// Excel renders a report as an XLSX workbook with a summary sheet and one
// sheet per aggregate. Red-wave columns are only written when the report
// has a target station.
func Excel(r analysis.Report, meta Meta) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	summary := [][]any{
		{"Run", meta.Run.ID},
		{"Generated at", meta.Run.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Beta", meta.Run.Beta},
		{"Delta", meta.Run.Delta},
		{"With equivalence", meta.Run.WithEquivalence},
		{"Section", meta.Section},
		{"Statistic", string(meta.Statistic)},
		{"Waves", r.Waves},
	}
	if meta.Target != "" {
		summary = append(summary,
			[]any{"Target station", meta.Target},
			[]any{"Full wave", meta.FullWave},
			[]any{"Red waves", r.RedWaves},
		)
	}
	if err := writeRows(f, SummarySheet, []string{"Field", "Value"}, summary, header); err != nil {
		return nil, err
	}

	withRed := meta.Target != ""
	if err := writePeriods(f, CountsSheet, "Waves", r.WaveCounts, r.RedCounts, withRed, header); err != nil {
		return nil, err
	}
	label := fmt.Sprintf("Propagation days (%s)", meta.Statistic)
	if err := writePeriods(f, PropagationSheet, label, r.Propagation, r.RedPropagation, withRed, header); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writePeriods lays out yearly rows followed by quarterly rows. Red values
// are matched to periods by label; a period without red waves is left blank.
func writePeriods(f *excelize.File, sheet, valueLabel string, all, red analysis.PeriodStats, withRed bool, style int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	cols := []string{"Resolution", "Period", valueLabel}
	if withRed {
		cols = append(cols, "Red "+valueLabel)
	}

	var rows [][]any
	for _, res := range []struct {
		name     string
		all, red []analysis.Period
	}{
		{"yearly", all.Yearly, red.Yearly},
		{"quarterly", all.Quarterly, red.Quarterly},
	} {
		redByLabel := make(map[string]float64, len(res.red))
		for _, p := range res.red {
			redByLabel[p.Label] = p.Value
		}
		for _, p := range res.all {
			row := []any{res.name, p.Label, p.Value}
			if withRed {
				if v, ok := redByLabel[p.Label]; ok {
					row = append(row, v)
				} else {
					row = append(row, nil)
				}
			}
			rows = append(rows, row)
		}
	}
	return writeRows(f, sheet, cols, rows, style)
}

func writeRows(f *excelize.File, sheet string, header []string, rows [][]any, style int) error {
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, r+2, err)
		}
	}
	return nil
}

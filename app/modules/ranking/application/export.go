package rankingservice

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	rankingdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/domain"
)

// Sheet names of the standings workbook.
const (
	SheetTotals    = "Totals"
	SheetAverages  = "Averages"
	SheetRawScores = "Raw scores"
)

// ExportStandingsXLSX writes the standings of one category to a workbook
// with one sheet per ranking.
func ExportStandingsXLSX(category matchdomain.Category, standings *rankingdomain.Standings) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTotals); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetAverages, SheetRawScores} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	if err := writeStandings(f, SheetTotals, category, standings.Totals); err != nil {
		return nil, err
	}
	if err := writeStandings(f, SheetAverages, category, standings.Averages); err != nil {
		return nil, err
	}

	rows := [][]any{{"Rank", "Player", "Total score", "Matches"}}
	for _, t := range standings.RawTotals {
		name := t.DisplayName
		if name == "" {
			name = t.Name
		}
		rows = append(rows, []any{t.Rank, name, t.Score, t.Matches})
	}
	if err := writeRows(f, SheetRawScores, rows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeStandings(f *excelize.File, sheet string, category matchdomain.Category, standings []rankingdomain.Standing) error {
	rows := [][]any{
		{"Map", category.Map, "Time limit (s)", category.TimeLimit},
		{"Rank", "Player", "Points", "Matches"},
	}
	for _, s := range standings {
		rows = append(rows, []any{s.Rank, s.Label(), s.Display(), s.Matches})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

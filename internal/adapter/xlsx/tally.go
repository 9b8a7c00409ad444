// Package xlsx writes seasonal launch tallies as Excel workbooks.
package xlsx

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// SheetName is the single sheet of a tally workbook.
const SheetName = "Soundings"

const totalLabel = "Total"

// ErrBadTally is returned when a workbook does not have the tally layout.
var ErrBadTally = errors.New("not a tally workbook")

// TallyFileNames returns the workbook names for all and validated launches.
func TallyFileNames(prefix string) (all, valid string) {
	return "Table_TotalNumSoundings_" + prefix + ".xlsx", "Table_ValidNumSoundings_" + prefix + ".xlsx"
}

// WriteTallies saves both tally workbooks into dir.
func WriteTallies(dir, prefix string, all, valid domain.Tally) error {
	allName, validName := TallyFileNames(prefix)
	if err := WriteTally(filepath.Join(dir, allName), all); err != nil {
		return err
	}
	return WriteTally(filepath.Join(dir, validName), valid)
}

// WriteTally saves t as a Year x (DJF, MAM, JJA, SON, Total) sheet with a
// trailing Total row.
func WriteTally(path string, t domain.Tally) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	header.AddCell().SetString("Year")
	for _, s := range domain.Seasons {
		header.AddCell().SetString(s.String())
	}
	header.AddCell().SetString(totalLabel)

	for _, y := range t.Years {
		addCounts(sheet, strconv.Itoa(y.Year), y)
	}
	addCounts(sheet, totalLabel, t.Totals)

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func addCounts(sheet *xlsx.Sheet, label string, c domain.SeasonCounts) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	for _, s := range domain.Seasons {
		row.AddCell().SetInt(c.Counts[s])
	}
	row.AddCell().SetInt(c.Total())
}

// ReadTally loads a workbook written by WriteTally. The Total column and row
// are recomputed from the season cells rather than trusted.
func ReadTally(path string) (domain.Tally, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return domain.Tally{}, fmt.Errorf("open %s: %w", path, err)
	}
	sheet, ok := f.Sheet[SheetName]
	if !ok {
		return domain.Tally{}, fmt.Errorf("%w: no sheet %s", ErrBadTally, SheetName)
	}
	if sheet.MaxRow < 2 || strings.TrimSpace(sheet.Cell(0, 0).Value) != "Year" {
		return domain.Tally{}, fmt.Errorf("%w: missing header", ErrBadTally)
	}

	var t domain.Tally
	for r := 1; r < sheet.MaxRow; r++ {
		label := strings.TrimSpace(sheet.Cell(r, 0).Value)
		var c domain.SeasonCounts
		for i, s := range domain.Seasons {
			n, err := strconv.Atoi(strings.TrimSpace(sheet.Cell(r, i+1).Value))
			if err != nil {
				return domain.Tally{}, fmt.Errorf("%w: row %d %s: %v", ErrBadTally, r, s, err)
			}
			c.Counts[s] = n
		}
		if label == totalLabel {
			t.Totals = c
			continue
		}
		y, err := strconv.Atoi(label)
		if err != nil {
			return domain.Tally{}, fmt.Errorf("%w: row %d year %q", ErrBadTally, r, label)
		}
		c.Year = y
		t.Years = append(t.Years, c)
	}
	return t, nil
}

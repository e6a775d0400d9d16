/*
Copyright © 2017 the Transects authors.
This file is part of Transects.

Transects is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Transects is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Transects.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package report records and summarizes optimizer results and exports
// transect endpoints for use in the field.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spatialmodel/transects"
	"github.com/tealeg/xlsx"
)

// CountsSheet is the name of the worksheet that XLSX score files
// hold their counts in.
const CountsSheet = "Counts"

// CSV records optimizer scores as a single comma-separated row:
// the word "Counts" followed by the transect count of each trial.
type CSV struct {
	Path string
}

// RecordScores writes scores to c.Path as a single "Counts" row.
func (c CSV) RecordScores(scores []int) error {
	f, err := os.Create(c.Path)
	if err != nil {
		return fmt.Errorf("report: creating counts file: %v", err)
	}
	w := csv.NewWriter(f)
	row := make([]string, len(scores)+1)
	row[0] = CountsSheet
	for i, s := range scores {
		row[i+1] = strconv.Itoa(s)
	}
	if err := w.Write(row); err != nil {
		f.Close()
		return fmt.Errorf("report: writing counts file: %v", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("report: writing counts file: %v", err)
	}
	return f.Close()
}

// XLSX records optimizer scores in a spreadsheet with one row per trial.
type XLSX struct {
	Path string
}

// RecordScores writes scores to the Counts sheet of a new workbook at
// x.Path, one row per iteration.
func (x XLSX) RecordScores(scores []int) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(CountsSheet)
	if err != nil {
		return fmt.Errorf("report: creating counts sheet: %v", err)
	}
	header := sheet.AddRow()
	header.AddCell().SetString("Iteration")
	header.AddCell().SetString("Count")
	for i, s := range scores {
		row := sheet.AddRow()
		row.AddCell().SetInt(i)
		row.AddCell().SetInt(s)
	}
	if err := file.Save(x.Path); err != nil {
		return fmt.Errorf("report: saving counts spreadsheet: %v", err)
	}
	return nil
}

// NewScoreRecorder returns a recorder for path, choosing the format
// from its extension.
func NewScoreRecorder(path string) transects.ScoreRecorder {
	if strings.ToLower(filepath.Ext(path)) == ".xlsx" {
		return XLSX{Path: path}
	}
	return CSV{Path: path}
}

// ReadCounts reads the scores from a counts file written by CSV or XLSX.
func ReadCounts(path string) ([]int, error) {
	if strings.ToLower(filepath.Ext(path)) == ".xlsx" {
		return readXLSXCounts(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: opening counts file: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("report: reading counts file %s: %v", path, err)
	}
	if len(row) == 0 || strings.TrimSpace(row[0]) != CountsSheet {
		return nil, fmt.Errorf("report: %s is not a counts file", path)
	}
	counts := make([]int, 0, len(row)-1)
	for i, v := range row[1:] {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("report: counts file %s column %d: %v", path, i+1, err)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func readXLSXCounts(path string) ([]int, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: opening counts spreadsheet: %v", err)
	}
	sheet, ok := f.Sheet[CountsSheet]
	if !ok {
		return nil, fmt.Errorf("report: %s has no %s sheet", path, CountsSheet)
	}
	var counts []int
	for i, row := range sheet.Rows {
		// Skip column headers
		if i == 0 {
			continue
		}
		if len(row.Cells) < 2 {
			return nil, fmt.Errorf("report: %s row %d is incomplete", path, i)
		}
		n, err := row.Cells[1].Int()
		if err != nil {
			return nil, fmt.Errorf("report: %s row %d: %v", path, i, err)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

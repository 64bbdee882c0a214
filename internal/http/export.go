package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/predictor"
)

// exportColumns orders the document's parameters: the canonical sensor
// order first, then anything extra alphabetically.
func exportColumns(doc domain.DayDocument) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, key := range predictor.ParameterKeys {
		if _, ok := doc[key]; ok {
			cols = append(cols, key)
			seen[key] = true
		}
	}
	var extras []string
	for key := range doc {
		if !seen[key] {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	return append(cols, extras...)
}

// exportRows flattens the document into timestamp-led rows. Ingestion
// writes every parameter in lockstep so the columns align; a short column
// (partial submissions) leaves blank cells rather than shifting values.
func exportRows(doc domain.DayDocument) ([]string, [][]string) {
	cols := exportColumns(doc)
	header := append([]string{"Timestamp"}, cols...)

	rowCount := 0
	for _, col := range cols {
		if n := len(doc[col]); n > rowCount {
			rowCount = n
		}
	}

	rows := make([][]string, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		row := make([]string, 0, len(header))
		ts := ""
		for _, col := range cols {
			if i < len(doc[col]) && ts == "" {
				ts = doc[col][i].Timestamp
			}
		}
		row = append(row, ts)
		for _, col := range cols {
			if i < len(doc[col]) {
				row = append(row, strconv.FormatFloat(doc[col][i].Value, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return header, rows
}

func writeCsv(doc domain.DayDocument) ([]byte, error) {
	header, rows := exportRows(doc)

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXlsx(doc domain.DayDocument) ([]byte, error) {
	header, rows := exportRows(doc)

	f := excelize.NewFile()
	sheetName := "Sensor Data"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

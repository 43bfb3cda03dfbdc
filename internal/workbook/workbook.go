package workbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/t24codes/internal/types"

	"github.com/xuri/excelize/v2"
)

const (
	DefaultResultSheet = "Resultados"
	DefaultSuffix      = "_CODIGOS"

	// blankSheet is the default sheet name of a fresh workbook created by
	// other spreadsheet tools. excelize names its own default "Sheet1".
	blankSheet    = "Sheet"
	excelizeSheet = "Sheet1"

	// scratchSheet holds new results while the previous sheet is removed.
	scratchSheet = "t24codes_tmp"
)

// Column widths of the results sheet: name, action, code.
var columnWidths = []struct {
	col   string
	width float64
}{
	{"A", 50},
	{"B", 15},
	{"C", 40},
}

// ErrEmptyFile is returned for a CSV file with no records at all.
var ErrEmptyFile = errors.New("empty file")

// RowError reports a source row that could not be decoded.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadTable loads the whole first sheet of an XLSX file, or a CSV file,
// header row included.
func ReadTable(filePath string) (*types.Table, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".csv":
		return readCSVTable(filePath)
	case ".xlsx", ".xlsm":
		return readXLSXTable(filePath)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func readCSVTable(filePath string) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &RowError{Row: parseErr.StartLine, Err: parseErr.Err}
			}
			return nil, err
		}
		rows = append(rows, record)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	return &types.Table{Rows: rows}, nil
}

func readXLSXTable(filePath string) (*types.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)

	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var table [][]string
	rowIdx := 0
	for rows.Next() {
		rowIdx++
		cols, err := rows.Columns()
		if err != nil {
			return nil, &RowError{Row: rowIdx, Err: err}
		}
		table = append(table, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}

	// An empty sheet is a valid table without a header
	return &types.Table{Sheet: sheetName, Rows: table}, nil
}

// WriteResults writes result into a sheet named sheet and saves the workbook
// to outputFile. For XLSX sources the output keeps the source sheets; any
// previous sheet with the same name is replaced, never appended to.
func WriteResults(sourceFile, outputFile, sheet string, result *types.ResultTable) error {
	if sheet == "" {
		sheet = DefaultResultSheet
	}

	f, fresh, err := openBase(sourceFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := replaceSheet(f, sheet); err != nil {
		return err
	}

	if err := writeHeader(f, sheet, result.Headers); err != nil {
		return err
	}

	for i, row := range result.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{row.Name, row.Action, row.Code}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	for _, cw := range columnWidths {
		if err := f.SetColWidth(sheet, cw.col, cw.col, cw.width); err != nil {
			return err
		}
	}

	if err := dropBlankSheets(f, sheet, fresh); err != nil {
		return err
	}

	if err := f.SaveAs(outputFile); err != nil {
		return err
	}

	return nil
}

// openBase returns the workbook the results are added to. Only XLSX sources
// are carried over; everything else starts from an empty workbook.
func openBase(sourceFile string) (*excelize.File, bool, error) {
	ext := strings.ToLower(filepath.Ext(sourceFile))
	if ext != ".xlsx" && ext != ".xlsm" {
		return excelize.NewFile(), true, nil
	}

	f, err := excelize.OpenFile(sourceFile)
	if err != nil {
		return nil, false, err
	}
	return f, false, nil
}

// replaceSheet leaves an empty sheet named sheet in f. An existing sheet is
// swapped for a fresh one rather than cleared, since excelize refuses to
// delete the last sheet of a workbook.
func replaceSheet(f *excelize.File, sheet string) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx == -1 {
		_, err := f.NewSheet(sheet)
		return err
	}

	if _, err := f.NewSheet(scratchSheet); err != nil {
		return err
	}
	tmp, err := f.GetSheetIndex(scratchSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(tmp)

	if err := f.DeleteSheet(sheet); err != nil {
		return err
	}
	return f.SetSheetName(scratchSheet, sheet)
}

func writeHeader(f *excelize.File, sheet string, headers [3]string) error {
	values := []interface{}{headers[0], headers[1], headers[2]}
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	return f.SetCellStyle(sheet, "A1", "C1", style)
}

func dropBlankSheets(f *excelize.File, keep string, fresh bool) error {
	idx, err := f.GetSheetIndex(keep)
	if err != nil {
		return err
	}
	// The active sheet cannot be the one being deleted
	f.SetActiveSheet(idx)

	names := []string{blankSheet}
	if fresh {
		names = append(names, excelizeSheet)
	}

	for _, name := range names {
		if name == keep {
			continue
		}
		i, err := f.GetSheetIndex(name)
		if err != nil {
			return err
		}
		if i == -1 {
			continue
		}
		if err := f.DeleteSheet(name); err != nil {
			return err
		}
	}

	// Deleting sheets shifts indexes
	idx, err = f.GetSheetIndex(keep)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	return nil
}

// DefaultOutputPath derives the output file offered for an input file:
// same directory, same base name plus suffix, always .xlsx.
func DefaultOutputPath(inputFile, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	dir := filepath.Dir(inputFile)
	ext := filepath.Ext(inputFile)
	base := strings.TrimSuffix(filepath.Base(inputFile), ext)
	return filepath.Join(dir, base+suffix+".xlsx")
}

// NormalizeOutputPath appends .xlsx when the path has no such extension.
func NormalizeOutputPath(outputFile string) string {
	outputFile = strings.TrimSpace(outputFile)
	if outputFile == "" {
		return ""
	}
	if !strings.HasSuffix(strings.ToLower(outputFile), ".xlsx") {
		outputFile += ".xlsx"
	}
	return outputFile
}

package types

// ResultHeaders is the fixed header row of the results sheet.
var ResultHeaders = [3]string{"Función", "Acción", "Código Asignado"}

type InputRow struct {
	Name   string
	Action string
}

type OutputRow struct {
	Name   string
	Action string
	Code   string
}

type ResultTable struct {
	Headers [3]string
	Rows    []OutputRow
}

// NewResultTable returns an empty table that already carries the header row.
func NewResultTable() *ResultTable {
	return &ResultTable{Headers: ResultHeaders}
}

// Table is a loaded source sheet. Rows[0] is the header row.
type Table struct {
	Sheet string
	Rows  [][]string
}

type RunResult struct {
	InputFile   string
	OutputFile  string
	Sheet       string
	RowsRead    int
	RowsWritten int
}

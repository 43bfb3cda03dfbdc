package encoder

import (
	"strings"

	"github.com/nconklindev/t24codes/internal/types"
)

const (
	// UnassignedCode is returned for entries without a name.
	UnassignedCode = "CODIGO_NO_ASIGNADO"

	CodePrefix    = "ENQ."
	MaxCodeLength = 50

	// KeepKeyword marks a row to be kept when found anywhere in its action.
	KeepKeyword = "mantener"
)

var codeReplacer = strings.NewReplacer(
	" ", ".",
	"Á", "A",
	"É", "E",
	"Í", "I",
	"Ó", "O",
	"Ú", "U",
	"Ñ", "N",
	"(", "",
	")", "",
	",", "",
)

// GenerateCode derives a T24 enquiry code from an entry name
func GenerateCode(name string) string {
	if name == "" {
		return UnassignedCode
	}

	code := CodePrefix + codeReplacer.Replace(strings.ToUpper(name))

	// Cut on runes so a multi-byte character is never split
	runes := []rune(code)
	if len(runes) > MaxCodeLength {
		return string(runes[:MaxCodeLength])
	}
	return code
}

// Qualifies reports whether an action value marks its row to be kept
func Qualifies(action string) bool {
	return strings.Contains(normalizeAction(action), KeepKeyword)
}

func normalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}

// ParseRow extracts the name and action cells from a data row.
// Rows with fewer than two columns are not usable.
func ParseRow(row []string) (types.InputRow, bool) {
	if len(row) < 2 {
		return types.InputRow{}, false
	}
	return types.InputRow{Name: row[0], Action: row[1]}, true
}

// EncodeRow turns a single data row into an output row when it qualifies.
// The stored action is the raw cell value, not the normalized one.
func EncodeRow(row []string) (types.OutputRow, bool) {
	in, ok := ParseRow(row)
	if !ok || !Qualifies(in.Action) {
		return types.OutputRow{}, false
	}

	return types.OutputRow{
		Name:   in.Name,
		Action: in.Action,
		Code:   GenerateCode(in.Name),
	}, true
}

// FilterAndEncode skips the header row of table and encodes every qualifying
// data row, preserving input order.
func FilterAndEncode(table *types.Table) *types.ResultTable {
	result := types.NewResultTable()
	if table == nil || len(table.Rows) < 2 {
		return result
	}

	for _, row := range table.Rows[1:] {
		if out, ok := EncodeRow(row); ok {
			result.Rows = append(result.Rows, out)
		}
	}

	return result
}

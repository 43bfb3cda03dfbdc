package encoder

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nconklindev/t24codes/internal/types"
)

func TestGenerateCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty name", "", "CODIGO_NO_ASIGNADO"},
		{"Single word", "Clientes", "ENQ.CLIENTES"},
		{"Parens and comma", "Cuenta Corriente (Persona), Física", "ENQ.CUENTA.CORRIENTE.PERSONA.FISICA"},
		{"Enye and accent", "Ñoño Área", "ENQ.NONO.AREA"},
		{"All accented vowels", "á é í ó ú", "ENQ.A.E.I.O.U"},
		{"Other accents pass through", "Crédito Pingüino", "ENQ.CREDITO.PINGÜINO"},
		{"Whitespace only", " ", "ENQ.."},
		{"Truncated", strings.Repeat("ab ", 30), "ENQ." + strings.Repeat("AB.", 15) + "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateCode(tt.input)
			if got != tt.expected {
				t.Errorf("GenerateCode(%q) = %s; want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGenerateCodeLength(t *testing.T) {
	inputs := []string{
		"",
		"x",
		strings.Repeat("Ñ", 200),
		strings.Repeat("Gestión de Préstamos (Hipotecarios), ", 5),
		strings.Repeat("ü", 80),
	}

	for _, in := range inputs {
		got := GenerateCode(in)
		if n := utf8.RuneCountInString(got); n > MaxCodeLength {
			t.Errorf("GenerateCode(%q) has %d characters; want <= %d", in, n, MaxCodeLength)
		}
	}
}

func TestQualifies(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Exact", "mantener", true},
		{"Capitalized with suffix", "Mantener siempre", true},
		{"Upper with padding", "  MANTENER  ", true},
		{"Embedded", "se debe mantener", true},
		{"Delete", "eliminar", false},
		{"Empty", "", false},
		{"Accented is not folded", "mantenér", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Qualifies(tt.input)
			if got != tt.expected {
				t.Errorf("Qualifies(%q) = %v; want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEncodeRow(t *testing.T) {
	out, ok := EncodeRow([]string{"Report X", " Mantener siempre "})
	if !ok {
		t.Fatal("expected row to qualify")
	}
	if out.Action != " Mantener siempre " {
		t.Errorf("Action = %q; want raw cell value", out.Action)
	}
	if out.Code != "ENQ.REPORT.X" {
		t.Errorf("Code = %s; want ENQ.REPORT.X", out.Code)
	}

	if _, ok := EncodeRow([]string{"Report Y", "eliminar"}); ok {
		t.Error("eliminar row should not qualify")
	}
	if _, ok := EncodeRow([]string{"mantener"}); ok {
		t.Error("short row should be skipped")
	}

	out, ok = EncodeRow([]string{"", "mantener"})
	if !ok {
		t.Fatal("row with empty name should still qualify")
	}
	if out.Code != UnassignedCode {
		t.Errorf("Code = %s; want %s", out.Code, UnassignedCode)
	}
}

func TestFilterAndEncode(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		expected []string
	}{
		{
			name:     "Header only",
			rows:     [][]string{{"Funcion", "Accion"}},
			expected: nil,
		},
		{
			name: "Header is never encoded",
			rows: [][]string{
				{"Mantener", "mantener"},
			},
			expected: nil,
		},
		{
			name: "Keeps order of qualifying rows",
			rows: [][]string{
				{"Funcion", "Accion"},
				{"Uno", "mantener"},
				{"Dos", "eliminar"},
				{"Tres", "Mantener siempre"},
				{"Cuatro"},
				{"", "MANTENER"},
				{"Cinco", "mantener", "extra", "columns"},
			},
			expected: []string{"ENQ.UNO", "ENQ.TRES", UnassignedCode, "ENQ.CINCO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterAndEncode(&types.Table{Rows: tt.rows})
			if got.Headers != types.ResultHeaders {
				t.Errorf("Headers = %v; want %v", got.Headers, types.ResultHeaders)
			}
			if len(got.Rows) != len(tt.expected) {
				t.Fatalf("got %d rows; want %d", len(got.Rows), len(tt.expected))
			}
			for i, code := range tt.expected {
				if got.Rows[i].Code != code {
					t.Errorf("row %d code = %s; want %s", i, got.Rows[i].Code, code)
				}
			}
		})
	}
}

func TestFilterAndEncodeNil(t *testing.T) {
	got := FilterAndEncode(nil)
	if got == nil || len(got.Rows) != 0 {
		t.Errorf("FilterAndEncode(nil) = %+v; want empty table", got)
	}
}

package main

import (
	"path/filepath"
	"testing"

	"github.com/nconklindev/t24codes/internal/config"

	"github.com/xuri/excelize/v2"
	"gotest.tools/v3/assert"
)

func testConfig() config.Config {
	return config.Config{
		Log:    config.LogConfig{Level: "error"},
		Output: config.OutputConfig{Sheet: "Resultados", Suffix: "_CODIGOS"},
	}
}

func TestExecuteDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "perfiles.xlsx")

	f := excelize.NewFile()
	assert.NilError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Funcion", "Accion"}))
	assert.NilError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Report X", "mantener"}))
	assert.NilError(t, f.SaveAs(input))
	f.Close()

	quiet = true
	defer func() { quiet = false }()

	assert.Equal(t, execute(testConfig(), []string{input}), ExitSuccess)

	out, err := excelize.OpenFile(filepath.Join(dir, "perfiles_CODIGOS.xlsx"))
	assert.NilError(t, err)
	defer out.Close()

	code, err := out.GetCellValue("Resultados", "C2")
	assert.NilError(t, err)
	assert.Equal(t, code, "ENQ.REPORT.X")
}

func TestExecuteValidationError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xlsx")
	assert.Equal(t, execute(testConfig(), []string{missing, "out"}), ExitValidationError)
}

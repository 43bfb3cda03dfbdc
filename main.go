// Package main provides the CLI entry point for t24codes.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nconklindev/t24codes/internal/config"
	"github.com/nconklindev/t24codes/internal/logging"
	"github.com/nconklindev/t24codes/internal/shell"
	"github.com/nconklindev/t24codes/internal/ui"
	"github.com/nconklindev/t24codes/internal/workbook"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitRuntimeError    = 3
)

var (
	// Global flags
	configPath string
	verbose    bool
	quiet      bool

	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitRuntimeError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "t24codes",
	Short: "Generate T24 enquiry codes from a profile spreadsheet",
	Long: `t24codes reads a spreadsheet of functions and actions, keeps the rows whose
action contains "mantener", assigns each one a T24 enquiry code and writes them
to a "Resultados" sheet in a new workbook.

Without a subcommand it opens the interactive file picker.

Examples:
  # Interactive mode
  t24codes

  # Headless run, output defaults to perfiles_CODIGOS.xlsx
  t24codes run perfiles.xlsx

  # Headless run with explicit output
  t24codes run perfiles.xlsx resultados.xlsx`,
	SilenceUsage: true,
	RunE:         runInteractive,
}

var runCmd = &cobra.Command{
	Use:   "run <input-file> [output-file]",
	Short: "Generate codes without the interactive UI",
	Long: `Process an XLSX or CSV file and print progress to stdout.

Exit codes:
  0 - Codes generated
  1 - Validation errors (missing or nonexistent paths)
  3 - Runtime errors (unreadable input, unwritable output, bad rows)`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runHeadless,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("t24codes %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print errors")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and installs the logger. Interactive mode
// must not write to the terminal, so logs go to log.file or nowhere.
func setup(interactive bool) (config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, func() {}, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	} else if quiet {
		level = "error"
	}

	closeFn, err := logging.Configure(logging.Options{
		Level:   level,
		JSON:    cfg.Log.JSON,
		File:    cfg.Log.File,
		SeqURL:  cfg.Log.SeqURL,
		Discard: interactive && cfg.Log.File == "",
	})
	if err != nil {
		return cfg, func() {}, fmt.Errorf("configure logging: %w", err)
	}

	return cfg, closeFn, nil
}

func runInteractive(_ *cobra.Command, _ []string) error {
	cfg, closeFn, err := setup(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	defer closeFn()

	runner := shell.NewRunner(
		shell.WithLogger(logging.L()),
		shell.WithSheet(cfg.Output.Sheet),
	)

	p := tea.NewProgram(
		ui.InitialModel(ui.Options{Runner: runner, OutputSuffix: cfg.Output.Suffix}),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func runHeadless(_ *cobra.Command, args []string) {
	cfg, closeFn, err := setup(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	code := execute(cfg, args)
	closeFn()
	os.Exit(code)
}

func execute(cfg config.Config, args []string) int {
	input := args[0]
	output := workbook.DefaultOutputPath(input, cfg.Output.Suffix)
	if len(args) > 1 {
		output = workbook.NormalizeOutputPath(args[1])
	}

	runner := shell.NewRunner(
		shell.WithLogger(logging.L()),
		shell.WithSheet(cfg.Output.Sheet),
	)

	events, err := runner.Start(input, output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var valErr *shell.ValidationError
		if errors.As(err, &valErr) {
			return ExitValidationError
		}
		return ExitRuntimeError
	}

	code := ExitSuccess
	for e := range events {
		switch e.Kind {
		case shell.EventProgress:
			if verbose {
				fmt.Printf("  %3d%%\n", e.Percent)
			}
		case shell.EventLog:
			if !quiet {
				fmt.Println(e.Message)
			}
		case shell.EventCompleted:
			if !quiet {
				fmt.Printf("✓ Output written to %s\n", e.OutputPath)
			}
		case shell.EventFailed:
			fmt.Fprintf(os.Stderr, "✗ %s\n", e.Message)
			code = ExitRuntimeError
		}
	}

	return code
}

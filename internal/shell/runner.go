package shell

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nconklindev/t24codes/internal/encoder"
	"github.com/nconklindev/t24codes/internal/types"
	"github.com/nconklindev/t24codes/internal/workbook"

	"github.com/google/uuid"
)

const (
	ProgressLoading = 10
	ProgressHeader  = 30
	ProgressRows    = 65
	ProgressDone    = 100

	// eventBuffer only smooths bursts; sends block once it is full so no
	// event is ever dropped.
	eventBuffer = 64
)

// activeOutputs holds the output paths owned by in-flight runs, across all
// runners in the process.
var activeOutputs sync.Map

type Option func(*Runner)

// WithLogger sets the structured logger used for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSheet sets the name of the results sheet.
func WithSheet(sheet string) Option {
	return func(r *Runner) {
		if sheet != "" {
			r.sheet = sheet
		}
	}
}

// Runner executes one filter-and-encode run at a time in the background and
// reports its progress as an ordered stream of events.
type Runner struct {
	mu     sync.Mutex
	state  State
	sheet  string
	logger *slog.Logger
	encode func([]string) (types.OutputRow, bool)
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		state:  StateIdle,
		sheet:  workbook.DefaultResultSheet,
		logger: slog.Default(),
		encode: encoder.EncodeRow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the state of the current or most recent run.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

type job struct {
	id     string
	input  string
	output string
	claim  string
}

// Start validates the paths and launches a run. Validation failures are
// returned as *ValidationError and leave the runner untouched. The returned
// channel delivers every event of the run in order and is closed after the
// single terminal event (EventCompleted or EventFailed). The caller must
// drain it.
func (r *Runner) Start(inputPath, outputPath string) (<-chan Event, error) {
	inputPath = strings.TrimSpace(inputPath)
	outputPath = strings.TrimSpace(outputPath)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRunning {
		return nil, ErrBusy
	}

	if err := validatePaths(inputPath, outputPath); err != nil {
		return nil, err
	}

	claim := outputKey(outputPath)
	if _, loaded := activeOutputs.LoadOrStore(claim, struct{}{}); loaded {
		return nil, ErrOutputInUse
	}

	j := job{
		id:     uuid.NewString(),
		input:  inputPath,
		output: outputPath,
		claim:  claim,
	}

	r.state = StateRunning
	events := make(chan Event, eventBuffer)
	go r.run(events, j)

	return events, nil
}

func validatePaths(inputPath, outputPath string) error {
	if inputPath == "" {
		return &ValidationError{Field: "input", Reason: "no input file selected"}
	}
	if outputPath == "" {
		return &ValidationError{Field: "output", Reason: "no output file specified"}
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ValidationError{Field: "input", Path: inputPath, Reason: "file does not exist"}
		}
		return &ValidationError{Field: "input", Path: inputPath, Reason: err.Error()}
	}
	if info.IsDir() {
		return &ValidationError{Field: "input", Path: inputPath, Reason: "is a directory"}
	}

	return nil
}

func outputKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (r *Runner) run(events chan<- Event, j job) {
	defer close(events)

	logger := r.logger.With("run_id", j.id, "input", j.input, "output", j.output)
	logger.Info("run started", "sheet", r.sheet)
	started := time.Now()

	// Sheet row being encoded, 0 outside the row loop
	var row int

	fail := func(err error) {
		r.finish(StateFailed, j)
		logger.Error("run failed", "error", err, "row", rowOf(err), "duration", time.Since(started))
		events <- Event{Kind: EventFailed, Message: err.Error(), Row: rowOf(err), Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("unexpected failure: %v", p)
			if row > 0 {
				err = &RowProcessingError{Row: row, Err: err}
			}
			fail(err)
		}
	}()

	result, err := r.execute(j, logger, &row, func(e Event) { events <- e })
	if err != nil {
		fail(err)
		return
	}

	r.finish(StateCompleted, j)
	logger.Info("run completed",
		"rows_read", result.RowsRead,
		"rows_written", result.RowsWritten,
		"duration", time.Since(started),
	)
	events <- Event{Kind: EventCompleted, OutputPath: j.output, Result: result}
}

// finish moves the runner to a terminal state and releases the output path
// before the terminal event is delivered, so a listener may start again
// straight away.
func (r *Runner) finish(state State, j job) {
	activeOutputs.Delete(j.claim)

	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

func (r *Runner) execute(j job, logger *slog.Logger, current *int, emit func(Event)) (*types.RunResult, error) {
	emit(Event{Kind: EventLog, Message: "Loading input file..."})
	emit(Event{Kind: EventProgress, Percent: ProgressLoading})

	table, err := workbook.ReadTable(j.input)
	if err != nil {
		var rowErr *workbook.RowError
		if errors.As(err, &rowErr) {
			return nil, &RowProcessingError{Row: rowErr.Row, Err: rowErr.Err}
		}
		return nil, &IOError{Op: "read", Path: j.input, Err: err}
	}
	logger.Debug("input loaded", "sheet", table.Sheet, "rows", len(table.Rows))

	emit(Event{Kind: EventProgress, Percent: ProgressHeader})

	result := types.NewResultTable()
	totalRows := len(table.Rows)
	rowsRead := 0

	// Sheet rows are 1-based and row 1 is the header
	for rowIdx := 2; rowIdx <= totalRows; rowIdx++ {
		*current = rowIdx
		rowsRead++

		if out, ok := r.encode(table.Rows[rowIdx-1]); ok {
			result.Rows = append(result.Rows, out)
		}

		emit(Event{Kind: EventProgress, Percent: rowProgress(rowIdx, totalRows)})
	}
	*current = 0

	if err := workbook.WriteResults(j.input, j.output, r.sheet, result); err != nil {
		return nil, &IOError{Op: "write", Path: j.output, Err: err}
	}

	emit(Event{Kind: EventProgress, Percent: ProgressDone})
	emit(Event{Kind: EventLog, Message: fmt.Sprintf("Process completed. %d records processed.", len(result.Rows))})

	return &types.RunResult{
		InputFile:   j.input,
		OutputFile:  j.output,
		Sheet:       r.sheet,
		RowsRead:    rowsRead,
		RowsWritten: len(result.Rows),
	}, nil
}

// rowProgress maps a 1-based sheet row to a percentage in [30, 95].
func rowProgress(rowIdx, totalRows int) int {
	if totalRows <= 0 {
		return ProgressHeader
	}
	return ProgressHeader + rowIdx*ProgressRows/totalRows
}

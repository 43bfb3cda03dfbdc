package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/t24codes/internal/shell"
	"github.com/nconklindev/t24codes/internal/types"
	"github.com/nconklindev/t24codes/internal/workbook"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFilePicker state = iota
	stateOutputPath
	stateProcessing
	stateComplete
	stateError
)

const (
	minLogHeight = 5
	minLogWidth  = 30
)

type Model struct {
	state        state
	filepicker   filepicker.Model
	outputInput  textinput.Model
	selectedFile string
	outputSuffix string
	notice       string
	runner       *shell.Runner
	events       <-chan shell.Event
	result       *types.RunResult
	err          error
	width        int
	height       int
	progress     progress.Model
	logView      viewport.Model
	logLines     []string
}

// eventMsg carries one run event into the update loop.
type eventMsg shell.Event

type Options struct {
	Runner       *shell.Runner
	OutputSuffix string
}

func InitialModel(opts Options) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".xlsx", ".xlsm", ".csv"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#27AE60"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#5DADE2"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#5DADE2"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#27AE60")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	ti := textinput.New()
	ti.Placeholder = "Output file (.xlsx)"
	ti.CharLimit = 4096
	ti.Width = 60

	runner := opts.Runner
	if runner == nil {
		runner = shell.NewRunner()
	}

	return Model{
		state:        stateFilePicker,
		filepicker:   fp,
		outputInput:  ti,
		outputSuffix: opts.OutputSuffix,
		runner:       runner,
		progress:     progress.New(progress.WithGradient("#005A9C", "#27AE60")),
		logView:      viewport.New(minLogWidth, minLogHeight),
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Subtract space for title, subtitle, help text, and padding
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		m.logView.Width = max(msg.Width-8, minLogWidth)
		m.logView.Height = max(msg.Height-16, minLogHeight)
		m.outputInput.Width = max(msg.Width-12, minLogWidth)
		m.progress.Width = max(msg.Width-10, minLogWidth)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}

		case stateOutputPath:
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc":
				m.state = stateFilePicker
				m.notice = ""
				m.outputInput.Blur()
				return m, nil
			case "enter":
				return m.startRun()
			}
			var cmd tea.Cmd
			m.outputInput, cmd = m.outputInput.Update(msg)
			return m, cmd

		case stateProcessing:
			// Runs cannot be cancelled; only a hard quit leaves this screen
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			return m, cmd

		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "esc":
				return m, tea.Quit
			case "r", "enter":
				m.state = stateFilePicker
				m.notice = ""
				m.err = nil
				m.result = nil
				return m, nil
			}
			var cmd tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			return m, cmd
		}

	case eventMsg:
		return m.handleEvent(shell.Event(msg))

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd
	}

	// Handle filepicker updates
	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			return m.selectFile(path)
		}

		return m, cmd
	}

	if m.state == stateOutputPath {
		var cmd tea.Cmd
		m.outputInput, cmd = m.outputInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

// selectFile starts a fresh activity log for path and moves on to the
// output file prompt.
func (m Model) selectFile(path string) (Model, tea.Cmd) {
	m.selectedFile = path
	m.logLines = nil
	m.outputInput.SetValue(workbook.DefaultOutputPath(path, m.outputSuffix))
	m.outputInput.CursorEnd()
	m.appendLog(fmt.Sprintf("Input file selected: %s", path))
	m.state = stateOutputPath
	return m, m.outputInput.Focus()
}

func (m Model) startRun() (Model, tea.Cmd) {
	output := workbook.NormalizeOutputPath(m.outputInput.Value())

	events, err := m.runner.Start(m.selectedFile, output)
	if err != nil {
		var valErr *shell.ValidationError
		if errors.As(err, &valErr) || errors.Is(err, shell.ErrBusy) || errors.Is(err, shell.ErrOutputInUse) {
			m.notice = err.Error()
			return m, nil
		}
		m.err = err
		m.state = stateError
		return m, nil
	}

	m.outputInput.SetValue(output)
	m.outputInput.Blur()
	m.notice = ""
	m.events = events
	m.appendLog(fmt.Sprintf("Output file: %s", output))
	m.appendLog("Starting code generation...")
	m.state = stateProcessing

	return m, tea.Batch(m.progress.SetPercent(0), waitForEvent(events))
}

func (m Model) handleEvent(e shell.Event) (Model, tea.Cmd) {
	switch e.Kind {
	case shell.EventProgress:
		cmd := m.progress.SetPercent(float64(e.Percent) / 100)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case shell.EventLog:
		m.appendLog(e.Message)
		return m, waitForEvent(m.events)

	case shell.EventCompleted:
		m.result = e.Result
		m.appendLog("Process finished successfully")
		m.state = stateComplete
		m.events = nil
		return m, nil

	case shell.EventFailed:
		m.err = e.Err
		if m.err == nil {
			m.err = errors.New(e.Message)
		}
		m.appendLog(fmt.Sprintf("Error: %s", e.Message))
		m.state = stateError
		m.events = nil
		return m, nil
	}

	return m, waitForEvent(m.events)
}

func (m *Model) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	m.logView.SetContent(strings.Join(m.logLines, "\n"))
	m.logView.GotoBottom()
}

// waitForEvent reads the next event; events arrive one per command so
// their order is preserved.
func waitForEvent(events <-chan shell.Event) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}

		e, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateOutputPath:
		return m.viewOutputPath()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("T24 Profile Code Generator"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select the input spreadsheet (XLSX or CSV)"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewOutputPath() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Output File"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Input: %s", filepath.Base(m.selectedFile))))
	s.WriteString("\n\n")
	s.WriteString(m.outputInput.View())
	s.WriteString("\n")

	if m.notice != "" {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render("✗ " + m.notice))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("enter: generate codes • esc: choose another file • ctrl+c: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Generating codes..."))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())
	s.WriteString("\n\n")
	s.WriteString(LogLabelStyle.Render("Activity log"))
	s.WriteString("\n")
	s.WriteString(LogStyle.Render(m.logView.View()))

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Process completed"))
	s.WriteString("\n\n")

	// Truncate paths if they're too long
	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	if m.result != nil {
		s.WriteString(fmt.Sprintf("Input:  %s\n", truncatePath(m.result.InputFile, maxPathLen)))
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s", truncatePath(m.result.OutputFile, maxPathLen))))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Sheet: %s\n", m.result.Sheet))
		s.WriteString(fmt.Sprintf("Rows read: %d\n", m.result.RowsRead))
		s.WriteString(fmt.Sprintf("Codes assigned: %d\n", m.result.RowsWritten))
		s.WriteString("\n")
	}

	s.WriteString(LogStyle.Render(m.logView.View()))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("r: process another file • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	if m.err != nil {
		s.WriteString(m.err.Error())
	}
	s.WriteString("\n\n")
	s.WriteString(LogStyle.Render(m.logView.View()))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("r: try again • q: quit"))

	return BoxStyle.Render(s.String())
}

func truncatePath(path string, maxLen int) string {
	if len(path) > maxLen {
		return "..." + path[len(path)-maxLen+3:]
	}
	return path
}

// Package ui is the voicebooth terminal shell: pick a performer, write an
// acting direction and a line, then generate, play, save and mix takes.
package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
)

type focus int

const (
	focusPerformers focus = iota
	focusDirection
	focusLine
)

// NewProgram returns a new Tea program.
func NewProgram(ctx context.Context, cfg Config) *tea.Program {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	cfg.Logger.Debug("starting shell", "alt_screen", cfg.AltScreen, "mouse", cfg.EnableMouse)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	opts = append(opts, tea.WithContext(ctx))
	return tea.NewProgram(newModel(ctx, cfg), opts...)
}

type model struct {
	ctx    context.Context
	cfg    Config
	logger *log.Logger

	names    []string
	filtered []string
	filter   string
	cursor   int
	selected string
	system   string

	direction textinput.Model
	line      textarea.Model
	spinner   spinner.Model
	focus     focus

	busy      string
	status    string
	statusErr bool
	lastSaved string

	width  int
	height int
}

func newModel(ctx context.Context, cfg Config) model {
	direction := textinput.New()
	direction.Placeholder = "Acting direction, e.g. Read calmly."
	direction.Prompt = ""

	line := textarea.New()
	line.Placeholder = "Line to perform"
	line.ShowLineNumbers = false
	line.SetHeight(4)

	m := model{
		ctx:       ctx,
		cfg:       cfg,
		logger:    cfg.Logger,
		direction: direction,
		line:      line,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		width:     80,
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	m.loadPerformers()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForChange(m.cfg.Changes))
}

func (m *model) loadPerformers() {
	if m.cfg.Performers == nil {
		return
	}
	m.names = m.cfg.Performers.Names()
	m.applyFilter()
}

func (m *model) applyFilter() {
	if m.filter == "" {
		m.filtered = append([]string(nil), m.names...)
	} else {
		m.filtered = m.filtered[:0]
		for _, match := range fuzzy.Find(m.filter, m.names) {
			m.filtered = append(m.filtered, match.Str)
		}
	}

	m.cursor = 0
	for i, name := range m.filtered {
		if name == m.selected {
			m.cursor = i
			break
		}
	}
	m.selectCurrent()
}

func (m *model) selectCurrent() {
	if len(m.filtered) == 0 {
		return
	}
	name := m.filtered[m.cursor]
	if name == m.selected {
		return
	}
	m.selected = name
	m.system = ""
	if e, ok := m.cfg.Performers.Lookup(name); ok {
		m.system = e.SystemPrompt
	}
	if m.cfg.Booth != nil {
		m.cfg.Booth.Configure(name)
	}
	m.logger.Debug("performer selected", "performer", name)
}

func (m *model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.direction.Blur()
	m.line.Blur()
	switch f {
	case focusDirection:
		return m.direction.Focus()
	case focusLine:
		return m.line.Focus()
	}
	return nil
}

func (m *model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.direction.Width = max(10, msg.Width-14)
		m.line.SetWidth(max(10, msg.Width-2))

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case GenerateDoneMsg:
		m.busy = ""
		if msg.Err != nil {
			m.setStatus(describe("Generation failed", msg.Err), true)
		} else {
			m.setStatus("Take ready: "+filepath.Base(msg.Path), false)
		}
		return m, nil

	case PlayDoneMsg:
		m.busy = ""
		if msg.Err != nil {
			m.setStatus(describe("Playback failed", msg.Err), true)
		} else {
			m.setStatus("Playback finished", false)
		}
		return m, nil

	case SaveDoneMsg:
		m.busy = ""
		switch {
		case msg.Err != nil:
			m.setStatus(describe("Save failed", msg.Err), true)
		case msg.Path == "":
			m.setStatus("Nothing to save", true)
		default:
			m.lastSaved = msg.Path
			m.setStatus("Saved "+msg.Path, false)
		}
		return m, nil

	case MixDoneMsg:
		m.busy = ""
		switch {
		case msg.Err != nil:
			m.setStatus(describe("Mix failed", msg.Err), true)
		case msg.Path == "":
			m.setStatus("No takes to mix today", true)
		default:
			m.setStatus("Mixed "+msg.Path, false)
		}
		return m, nil

	case CopyDoneMsg:
		if msg.Err != nil {
			m.setStatus(describe("Copy failed", msg.Err), true)
		} else {
			m.setStatus("Copied "+msg.Text, false)
		}
		return m, nil

	case RegistryChangedMsg:
		m.loadPerformers()
		m.setStatus(fmt.Sprintf("Performers reloaded (%d)", len(m.names)), false)
		return m, waitForChange(m.cfg.Changes)

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusDirection:
		m.direction, cmd = m.direction.Update(msg)
	case focusLine:
		m.line, cmd = m.line.Update(msg)
	}
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey processes shell-wide keys and performer list navigation. It
// reports false for keys the focused input should receive.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true

	case "tab":
		return m.setFocus((m.focus + 1) % 3), true

	case "shift+tab":
		return m.setFocus((m.focus + 2) % 3), true

	case "ctrl+g":
		return m.startGenerate(), true

	case "ctrl+p":
		if m.busy != "" {
			return nil, true
		}
		if m.cfg.Booth.LastTake() == "" {
			m.setStatus("Nothing to play", true)
			return nil, true
		}
		m.busy = "Playing"
		return tea.Batch(m.spinner.Tick, playCmd(m.ctx, m.cfg.Booth)), true

	case "ctrl+s":
		if m.busy != "" {
			return nil, true
		}
		if m.selected == "" {
			m.setStatus("Select a performer first", true)
			return nil, true
		}
		return saveCmd(m.cfg.Booth, m.selected), true

	case "ctrl+y":
		if m.lastSaved == "" {
			m.setStatus("No saved take to copy", true)
			return nil, true
		}
		return copyCmd(m.lastSaved), true

	case "ctrl+x":
		if m.busy != "" || m.cfg.Mix == nil {
			return nil, true
		}
		if m.selected == "" {
			m.setStatus("Select a performer first", true)
			return nil, true
		}
		m.busy = "Mixing"
		return tea.Batch(m.spinner.Tick, mixCmd(m.ctx, m.cfg.Mix, m.selected)), true
	}

	if m.focus != focusPerformers {
		return nil, false
	}

	switch msg.Type {
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
			m.selectCurrent()
		}
	case tea.KeyDown:
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.selectCurrent()
		}
	case tea.KeyBackspace:
		if m.filter != "" {
			r := []rune(m.filter)
			m.filter = string(r[:len(r)-1])
			m.applyFilter()
		}
	case tea.KeyEsc:
		m.filter = ""
		m.applyFilter()
	case tea.KeyRunes, tea.KeySpace:
		m.filter += string(msg.Runes)
		m.applyFilter()
	}
	return nil, true
}

func (m *model) startGenerate() tea.Cmd {
	if m.busy != "" {
		return nil
	}
	if m.selected == "" {
		m.setStatus("Select a performer first", true)
		return nil
	}
	text := strings.TrimSpace(m.line.Value())
	if text == "" {
		m.setStatus("Enter a line to perform", true)
		return nil
	}

	m.busy = "Generating"
	m.setStatus("", false)
	return tea.Batch(
		m.spinner.Tick,
		generateCmd(m.ctx, m.cfg.Booth, m.system, m.direction.Value(), text),
	)
}

func describe(prefix string, err error) string {
	if errors.Is(err, context.Canceled) {
		return prefix + ": canceled"
	}
	return prefix + ": " + err.Error()
}

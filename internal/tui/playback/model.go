// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     playback
// Description: Bubbletea model stepping through a compiled trace
// Author:      msto63
// Created:     2026-09-27
// License:     MIT
// ============================================================================

package playback

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/msto63/ct4pwd/foundation/vpl/evaluator"
)

// Config holds playback configuration
type Config struct {
	Title    string
	Program  string
	Trace    evaluator.Trace
	Output   string
	Verify   bool
	Correct  bool
	Interval time.Duration
	Autoplay bool
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Title:    "ct4pwd Playback",
		Interval: 500 * time.Millisecond,
	}
}

// Model is the Bubbletea model of the playback view
type Model struct {
	width   int
	height  int
	ready   bool
	playing bool

	viewport viewport.Model

	config  Config
	points  []Point
	current int // 0 = before the first step
}

// New creates a new playback model
func New(cfg Config) Model {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Title == "" {
		cfg.Title = DefaultConfig().Title
	}
	return Model{
		config:  cfg,
		points:  Positions(cfg.Trace),
		playing: cfg.Autoplay && len(cfg.Trace) > 0,
	}
}

// Current returns the number of steps shown
func (m Model) Current() int {
	return m.current
}

// Playing reports whether playback advances on its own
func (m Model) Playing() bool {
	return m.playing
}

// Cursor returns the cursor after the shown steps
func (m Model) Cursor() Point {
	return m.points[m.current]
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.playing {
		return m.tick()
	}
	return nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.config.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		listHeight := msg.Height - 8
		if listHeight < 3 {
			listHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(m.listWidth(), listHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.listWidth()
			m.viewport.Height = listHeight
		}
		m.updateViewportContent()

	case tickMsg:
		if !m.playing {
			return m, nil
		}
		m.step(1)
		if m.current >= len(m.config.Trace) {
			m.playing = false
			return m, nil
		}
		return m, m.tick()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyRight:
		m.playing = false
		m.step(1)
		return m, nil

	case tea.KeyLeft:
		m.playing = false
		m.step(-1)
		return m, nil

	case tea.KeyHome:
		m.playing = false
		m.jump(0)
		return m, nil

	case tea.KeyEnd:
		m.playing = false
		m.jump(len(m.config.Trace))
		return m, nil

	case tea.KeySpace:
		return m.togglePlay()

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return m, tea.Quit
		case "l", "n":
			m.playing = false
			m.step(1)
		case "h", "b":
			m.playing = false
			m.step(-1)
		case "g":
			m.playing = false
			m.jump(0)
		case "G":
			m.playing = false
			m.jump(len(m.config.Trace))
		case "p":
			return m.togglePlay()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) togglePlay() (tea.Model, tea.Cmd) {
	if m.playing {
		m.playing = false
		return m, nil
	}
	if m.current >= len(m.config.Trace) {
		m.jump(0)
	}
	if len(m.config.Trace) == 0 {
		return m, nil
	}
	m.playing = true
	return m, m.tick()
}

// step moves by delta steps within the trace
func (m *Model) step(delta int) {
	m.jump(m.current + delta)
}

func (m *Model) jump(to int) {
	if to < 0 {
		to = 0
	}
	if to > len(m.config.Trace) {
		to = len(m.config.Trace)
	}
	m.current = to
	m.updateViewportContent()
}

func (m Model) listWidth() int {
	w := m.width / 2
	if w < 20 {
		w = 20
	}
	return w
}

// updateViewportContent renders the step list and keeps the current step
// in view
func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderSteps())

	line := m.current - 1
	if line < m.viewport.YOffset {
		m.viewport.SetYOffset(line)
	} else if line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

func (m Model) renderSteps() string {
	if len(m.config.Trace) == 0 {
		return PendingStepStyle.Render("(leeres Programm)")
	}
	lines := make([]string, len(m.config.Trace))
	for i, s := range m.config.Trace {
		text := fmt.Sprintf("%3d  %s", i+1, describeStep(s))
		switch {
		case i+1 == m.current:
			lines[i] = CurrentStepStyle.Render("> " + text)
		case i+1 < m.current:
			lines[i] = StepStyle.Render("  " + text)
		default:
			lines[i] = PendingStepStyle.Render("  " + text)
		}
	}
	return strings.Join(lines, "\n")
}

// describeStep names a step for the step list
func describeStep(s evaluator.Step) string {
	if s.Kind == evaluator.StepAction {
		return IconAction + s.Label
	}
	switch {
	case s.Vector.DX == 0 && s.Vector.DY == -1:
		return "hoch " + s.String()
	case s.Vector.DX == 0 && s.Vector.DY == 1:
		return "runter " + s.String()
	case s.Vector.DX == -1 && s.Vector.DY == 0:
		return "links " + s.String()
	case s.Vector.DX == 1 && s.Vector.DY == 0:
		return "rechts " + s.String()
	}
	return s.String()
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Lade Wiedergabe..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	grid := PanelStyle.Render(renderGrid(Grid(m.points, m.current)))
	list := ActivePanelStyle.Render(m.viewport.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, grid, " ", list))
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return b.String()
}

func (m Model) renderHeader() string {
	title := TitleStyle.Render(m.config.Title)
	if m.config.Program == "" {
		return title
	}
	return title + "\n" + SubtitleStyle.Render(m.config.Program)
}

func (m Model) renderStatusBar() string {
	state := IconPause + "Pause"
	if m.playing {
		state = IconPlay + "Wiedergabe"
	}

	cursor := m.Cursor()
	parts := []string{
		state,
		fmt.Sprintf("Schritt %d/%d", m.current, len(m.config.Trace)),
		fmt.Sprintf("Position (%d, %d)", cursor.X, cursor.Y),
	}
	if m.current > 0 {
		if s := m.config.Trace[m.current-1]; s.Kind == evaluator.StepAction {
			parts = append(parts, IconAction+s.Label)
		}
	}

	bar := StatusBarStyle.Render(strings.Join(parts, "  │  "))
	if !m.config.Verify || m.current < len(m.config.Trace) {
		return bar
	}
	if m.config.Correct {
		return bar + " " + CorrectStyle.Render(IconCorrect+"Richtig")
	}
	return bar + " " + WrongStyle.Render(IconWrong+m.config.Output)
}

func (m Model) renderHelpBar() string {
	items := []string{
		RenderHelpItem("space", "Start/Pause"),
		RenderHelpItem("←/→", "Schritt"),
		RenderHelpItem("g/G", "Anfang/Ende"),
		RenderHelpItem("q", "Beenden"),
	}
	return strings.Join(items, "  ")
}

// Run starts the playback program
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

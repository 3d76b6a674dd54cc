// Package tui is the interactive table recorder: the session log on top, the
// standings and hand clock on the side, and a command line at the bottom.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/riichibook/internal/command"
	"github.com/lox/riichibook/internal/display"
	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/timer"
)

const maxFeedback = 6

// Model is the Bubble Tea model for recording a live session
type Model struct {
	game   *game.Game
	logger *log.Logger
	clock  quartz.Clock
	timer  *timer.Timer
	save   func(*game.Game) error

	timeUp       chan struct{}
	cancelNotify func() bool

	exportDir string
	styles    display.Styles

	// UI components
	logViewport viewport.Model
	input       textinput.Model

	feedback    []string
	showHelp    bool
	timeUpShown bool
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	width       int
	height      int
	initialized bool
}

// Option configures a Model
type Option func(*Model)

// WithTimer shows and drives a hand clock. deal restarts it and a hand
// result stops it.
func WithTimer(t *timer.Timer) Option {
	return func(m *Model) { m.timer = t }
}

// WithSaver is called with the game after every successful command.
func WithSaver(save func(*game.Game) error) Option {
	return func(m *Model) { m.save = save }
}

// WithClock sets the clock used for export dates.
func WithClock(clock quartz.Clock) Option {
	return func(m *Model) { m.clock = clock }
}

// WithExportDir sets where the export command writes.
func WithExportDir(dir string) Option {
	return func(m *Model) { m.exportDir = dir }
}

// WithRenderer sets the renderer for the log table.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(m *Model) { m.styles = display.NewStyles(r) }
}

// New creates a recorder for g
func New(g *game.Game, logger *log.Logger, opts ...Option) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Enter a command (deal, riichi east, ron north east 3 30, help)"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(focusedBorder).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		game:        g,
		logger:      logger.WithPrefix("tui"),
		clock:       quartz.NewReal(),
		exportDir:   ".",
		styles:      display.NewStyles(lipgloss.DefaultRenderer()),
		logViewport: vp,
		input:       ti,
		focusedPane: 1,
		timeUp:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Game returns the recorded game
func (m *Model) Game() *game.Game { return m.game }

// Feedback returns the recent command feedback, oldest first.
func (m *Model) Feedback() []string {
	out := make([]string, len(m.feedback))
	copy(out, m.feedback)
	return out
}

type tickMsg time.Time

type timeUpMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitTimeUp delivers a timeUpMsg when the hand clock runs out.
func (m *Model) waitTimeUp() tea.Cmd {
	if m.timer == nil {
		return nil
	}
	ch := m.timeUp
	return func() tea.Msg {
		<-ch
		return timeUpMsg{}
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	m.armTimer()
	return tea.Batch(textinput.Blink, tick(), m.waitTimeUp())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()

	case timeUpMsg:
		m.timeIsUp()
		return m, m.waitTimeUp()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.input.Focus()
			} else {
				m.focusedPane = 0
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				line := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if m.Submit(line) {
					m.quitting = true
					return m, tea.Quit
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// Submit handles one entered line. It reports whether the recorder should quit.
func (m *Model) Submit(line string) (quit bool) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "quit", "exit":
		return true
	case "help":
		m.showHelp = !m.showHelp
		return false
	case "timer":
		m.handleTimer(fields[1:])
		return false
	case "export":
		m.export()
		return false
	}

	c, ok, err := command.Parse(line)
	if err != nil {
		m.addFeedback(ErrorStyle.Render(err.Error()))
		return false
	}
	if !ok {
		return false
	}
	if err := command.Apply(m.game, c); err != nil {
		m.logger.Debug("Command rejected", "command", c.String(), "error", err)
		m.addFeedback(ErrorStyle.Render(fmt.Sprintf("%s: %v", c, err)))
		return false
	}
	m.addFeedback(SuccessStyle.Render(c.String()))
	m.afterCommand(c)

	if m.save != nil {
		if err := m.save(m.game); err != nil {
			m.logger.Error("Failed to save session", "error", err)
			m.addFeedback(ErrorStyle.Render("save failed: " + err.Error()))
		}
	}
	return false
}

func (m *Model) afterCommand(c command.Command) {
	if m.timer == nil {
		return
	}
	switch c.Op {
	case command.OpDeal:
		m.timer.Reset()
		m.timer.Start()
		m.timeUpShown = false
	case command.OpDraw, command.OpTsumo, command.OpRon, command.OpChombo, command.OpFinish:
		m.timer.Stop()
	}
	m.armTimer()
}

func (m *Model) handleTimer(args []string) {
	if m.timer == nil {
		m.addFeedback(WarningStyle.Render("no hand clock configured"))
		return
	}
	switch {
	case len(args) == 0:
		m.timer.Toggle()
	case args[0] == "reset":
		m.timer.Reset()
		m.timeUpShown = false
	default:
		m.addFeedback(ErrorStyle.Render("usage: timer [reset]"))
		return
	}
	m.armTimer()
	state := "paused"
	if m.timer.Running() {
		state = "running"
	}
	m.addFeedback(InfoStyle.Render(fmt.Sprintf("clock %s, %s left", state, formatClock(m.timer.Remaining()))))
}

// armTimer schedules the time-up signal for the running clock and cancels
// any earlier one.
func (m *Model) armTimer() {
	if m.cancelNotify != nil {
		m.cancelNotify()
		m.cancelNotify = nil
	}
	if m.timer == nil || !m.timer.Running() {
		return
	}
	ch := m.timeUp
	m.cancelNotify = m.timer.Notify(func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
}

// timeIsUp posts a single warning once the running clock runs out. A signal
// that arrives after a reset or pause is ignored.
func (m *Model) timeIsUp() {
	if m.timer == nil || m.timeUpShown || !m.timer.Running() || !m.timer.TimeIsUp() {
		return
	}
	m.timeUpShown = true
	m.addFeedback(WarningStyle.Render("Time is up"))
}

func (m *Model) export() {
	name := filepath.Join(m.exportDir, display.ExportFilename(m.game, m.clock.Now()))
	f, err := os.Create(name)
	if err != nil {
		m.addFeedback(ErrorStyle.Render("export: " + err.Error()))
		return
	}
	err = display.Export(f, m.game)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		m.addFeedback(ErrorStyle.Render("export: " + err.Error()))
		return
	}
	m.logger.Info("Exported session", "file", name)
	m.addFeedback(SuccessStyle.Render("wrote " + name))
}

func (m *Model) addFeedback(line string) {
	m.feedback = append(m.feedback, line)
	if len(m.feedback) > maxFeedback {
		m.feedback = m.feedback[len(m.feedback)-maxFeedback:]
	}
}

// formatClock renders a duration as m:ss, with a leading minus once overdue.
func formatClock(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%s%d:%02d", sign, int(d.Minutes()), int(d.Seconds())%60)
}

// View renders the recorder
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(1)).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1))
	actionPane := actionStyle.Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(plainBorder).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	m.logViewport.SetContent(display.Table(m.game, m.styles))
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(0)).
		Width(logWidth).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) borderColor(pane int) lipgloss.Color {
	if m.focusedPane == pane {
		return focusedBorder
	}
	return plainBorder
}

func (m *Model) renderSidebarPane() string {
	var content strings.Builder

	h := m.game.CurrentHand()
	content.WriteString(HandInfoStyle.Render(fmt.Sprintf("%s  %s", h.Signature(), h.State)))
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render(fmt.Sprintf("Riichi sticks: %d", h.RiichiSticks)))
	content.WriteString("\n")
	if m.game.IsAllLast() {
		content.WriteString(WarningStyle.Render("All last"))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	for _, line := range strings.Split(strings.TrimRight(display.Standings(m.game), "\n"), "\n") {
		content.WriteString(PlayerInfoStyle.Render(line))
		content.WriteString("\n")
	}

	if m.timer != nil {
		content.WriteString("\n")
		clock := formatClock(m.timer.Remaining())
		switch {
		case m.timer.TimeIsUp():
			content.WriteString(ErrorStyle.Render("Clock " + clock))
		case m.timer.Running():
			content.WriteString(SuccessStyle.Render("Clock " + clock))
		default:
			content.WriteString(InfoStyle.Render("Clock " + clock + " (paused)"))
		}
		content.WriteString("\n")
	}
	return content.String()
}

func (m *Model) renderActionPane() string {
	var content strings.Builder
	if m.showHelp {
		content.WriteString(InfoStyle.Render(command.Help))
		content.WriteString("\n\n")
	}
	for _, line := range m.feedback {
		content.WriteString(line)
		content.WriteString("\n")
	}
	content.WriteString(m.input.View())
	content.WriteString("\n")
	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render("Tab to scroll log • help for commands • Ctrl+C to quit"))
	}
	return content.String()
}

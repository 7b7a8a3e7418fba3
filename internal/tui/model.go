// Package tui provides the Bubble Tea training interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/nback/internal/engine"
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/stats"
	"github.com/verte-zerg/nback/internal/store"
)

// trialTimeoutMsg closes one trial's response window. The sequence number
// ties it to the engine's outstanding timer token; stale messages are
// dropped by the engine.
type trialTimeoutMsg struct {
	seq uint64
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	letterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	respondedMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#6ABF69"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	resultStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
)

// Model implements the Bubble Tea training UI around the game engine.
type Model struct {
	engine   *engine.Engine
	store    *store.Store
	adaptive engine.AdaptivePolicy
	practice bool

	width  int
	height int

	saved   bool
	saveErr string

	lastAcc     float64
	hasLast     bool
	allAcc      float64
	allSessions int
}

// NewModel constructs a training TUI model. The store may be nil for
// practice sessions, which are never persisted.
func NewModel(eng *engine.Engine, st *store.Store, adaptive engine.AdaptivePolicy) *Model {
	m := &Model{engine: eng, store: st, adaptive: adaptive}
	m.loadFooterStats()
	return m
}

// NewPracticeModel constructs a model that auto-starts a pinned practice
// session and never persists it.
func NewPracticeModel(eng *engine.Engine) *Model {
	return &Model{engine: eng, practice: true}
}

// Init implements tea.Model. Practice sessions auto-start.
func (m *Model) Init() tea.Cmd {
	if m.practice {
		return m.startPractice()
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case trialTimeoutMsg:
		return m.handleTimeout(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleTimeout(msg trialTimeoutMsg) (tea.Model, tea.Cmd) {
	token, advanced := m.engine.AdvanceTrial(engine.TimerToken{Seq: msg.seq}, time.Now())
	if advanced {
		return m, scheduleAdvance(token)
	}
	if m.engine.State() == engine.StateResults {
		m.finishSession()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.engine.State() {
	case engine.StateSetup:
		return m.handleSetupKey(msg)
	case engine.StatePlaying:
		return m.handlePlayingKey(msg)
	case engine.StatePaused:
		return m.handlePausedKey(msg)
	case engine.StateResults:
		return m.handleResultsKey(msg)
	}
	return m, nil
}

func (m *Model) handleSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter", " ":
		return m.startSession()
	}
	return m, nil
}

func (m *Model) startSession() (tea.Model, tea.Cmd) {
	token, err := m.engine.StartGame(time.Now())
	if err != nil {
		logErrf("failed to start session: %v\n", err)
		return m, tea.Quit
	}
	m.saved = false
	m.saveErr = ""
	if m.engine.State() == engine.StateResults {
		// Zero-trial configuration completes immediately.
		m.finishSession()
		return m, nil
	}
	return m, scheduleAdvance(token)
}

func (m *Model) startPractice() tea.Cmd {
	token, err := m.engine.StartPractice(time.Now())
	if err != nil {
		logErrf("failed to start practice: %v\n", err)
		return tea.Quit
	}
	return scheduleAdvance(token)
}

func (m *Model) handlePlayingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		m.engine.HandleResponse(engine.ModalityVisual, time.Now())
		return m, nil
	case "l":
		m.engine.HandleResponse(engine.ModalityAudio, time.Now())
		return m, nil
	case " ", "p":
		m.engine.Pause(time.Now())
		return m, nil
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handlePausedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ", "p":
		token := m.engine.Resume(time.Now())
		return m, scheduleAdvance(token)
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.engine.IsPractice() {
		// Any key leaves the practice completion screen.
		return m, tea.Quit
	}
	switch msg.String() {
	case "enter", "r":
		m.engine.ResetGame()
		return m.startSession()
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func scheduleAdvance(token engine.TimerToken) tea.Cmd {
	if token.Seq == 0 {
		return nil
	}
	return tea.Tick(token.Delay, func(time.Time) tea.Msg {
		return trialTimeoutMsg{seq: token.Seq}
	})
}

func (m *Model) finishSession() {
	session := m.engine.Session()
	if session == nil || m.saved {
		return
	}
	m.saved = true
	m.lastAcc = session.Accuracy
	m.hasLast = true
	if m.engine.IsPractice() || m.store == nil {
		return
	}
	ctx := context.Background()
	if _, err := m.store.InsertSession(ctx, *session); err != nil {
		m.saveErr = err.Error()
		logErrf("failed to save session: %v\n", err)
	}
	next := m.adaptive.ProposeNextLevel(session.NLevel, session.Accuracy)
	if err := m.store.SetPreference(ctx, store.PrefNLevel, strconv.Itoa(next)); err != nil {
		logErrf("failed to save n level: %v\n", err)
	}
	m.allAcc = (m.allAcc*float64(m.allSessions) + session.Accuracy) / float64(m.allSessions+1)
	m.allSessions++
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	m.lastAcc = sessions[len(sessions)-1].Accuracy
	m.hasLast = true
	m.allAcc = stats.AverageAccuracy(sessions)
	m.allSessions = len(sessions)
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.engine.State() {
	case engine.StateSetup:
		content = m.renderSetup()
	case engine.StatePlaying, engine.StatePaused:
		content = m.renderTrial()
	case engine.StateResults:
		content = m.renderResults()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderSetup() string {
	cfg := m.engine.Config()
	lines := []string{
		titleStyle.Render("nback"),
		"",
		dimStyle.Render(fmt.Sprintf("mode %s · N=%d · %d trials · %.1fs per trial", cfg.Mode, cfg.NLevel, cfg.NumTrials, float64(cfg.StimulusDurationMs)/1000)),
		"",
		"Press enter to start.",
		dimStyle.Render("a: position match  l: letter match  space: pause  q: quit"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderTrial() string {
	cfg := m.engine.Config()
	grid := renderGrid(m.engine.CurrentPosition())

	var sections []string
	sections = append(sections, grid)
	if cfg.AudioEnabled && cfg.Mode.ScoresAudio() {
		sections = append(sections, letterStyle.Render(centerText(string(m.engine.CurrentLetter()), gridWidth())))
	}
	marks := m.renderResponseMarks()
	if marks != "" {
		sections = append(sections, marks)
	}
	if m.engine.State() == engine.StatePaused {
		sections = append(sections, dimStyle.Render(centerText("Paused (space to resume)", gridWidth())))
	}
	return strings.Join(sections, "\n")
}

func (m *Model) renderResponseMarks() string {
	cfg := m.engine.Config()
	var marks []string
	if cfg.Mode.ScoresVisual() {
		mark := "[a] position"
		if m.engine.Responded(engine.ModalityVisual) {
			mark = respondedMark.Render("[a] position ✓")
		}
		marks = append(marks, mark)
	}
	if cfg.Mode.ScoresAudio() {
		mark := "[l] letter"
		if m.engine.Responded(engine.ModalityAudio) {
			mark = respondedMark.Render("[l] letter ✓")
		}
		marks = append(marks, mark)
	}
	return centerText(strings.Join(marks, "   "), gridWidth())
}

func (m *Model) renderResults() string {
	session := m.engine.Session()
	if session == nil {
		return ""
	}
	if m.engine.IsPractice() {
		lines := []string{
			titleStyle.Render("Practice complete!"),
			"",
			resultStyle.Render(fmt.Sprintf("Accuracy: %.1f%%", session.Accuracy*100)),
			"",
			dimStyle.Render("You are ready for a real session: run nback. Press any key to exit."),
		}
		return strings.Join(lines, "\n")
	}

	lines := []string{
		titleStyle.Render("Session results"),
		"",
		resultStyle.Render(fmt.Sprintf("Accuracy: %.1f%%   N=%d   %d trials", session.Accuracy*100, session.NLevel, session.NumTrials)),
	}
	if session.Mode.ScoresVisual() {
		lines = append(lines, modalityLine("Position", session.Visual, session.VisualAccuracy))
	}
	if session.Mode.ScoresAudio() {
		lines = append(lines, modalityLine("Letter  ", session.Audio, session.AudioAccuracy))
	}
	if session.ResponseCount > 0 {
		lines = append(lines, resultStyle.Render(fmt.Sprintf("Avg response: %.0f ms", session.AverageResponseTimeMs)))
	}
	if m.saveErr != "" {
		lines = append(lines, dimStyle.Render("Session was not saved: "+m.saveErr))
	}
	nextN := m.adaptive.ProposeNextLevel(session.NLevel, session.Accuracy)
	if nextN != session.NLevel {
		lines = append(lines, "", dimStyle.Render(fmt.Sprintf("Next session: N=%d", nextN)))
	}
	lines = append(lines, "", dimStyle.Render("enter: play again  q: quit"))
	return strings.Join(lines, "\n")
}

func modalityLine(name string, stats model.ModalityStats, accuracy float64) string {
	return resultStyle.Render(fmt.Sprintf(
		"%s %5.1f%%  hits %d  misses %d  false alarms %d  correct rej. %d",
		name, accuracy*100, stats.Hits, stats.Misses, stats.FalseAlarms, stats.CorrectRejections))
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.engine.State() == engine.StatePlaying || m.engine.State() == engine.StatePaused {
		cfg := m.engine.Config()
		segments = append(segments, fmt.Sprintf("Trial %d/%d", m.engine.CurrentTrial()+1, cfg.NumTrials))
		segments = append(segments, fmt.Sprintf("N=%d", cfg.NLevel))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%%", m.lastAcc*100))
	}
	if m.allSessions > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%%", m.allAcc*100))
	}
	if len(segments) == 0 {
		return ""
	}
	footer := strings.Join(segments, "  ")
	if m.width > 0 {
		footer = truncateText(footer, m.width)
	}
	return footerStyle.Render(footer)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

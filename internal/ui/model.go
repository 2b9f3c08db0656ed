// Package ui is the terminal host for a concept page.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/p-n-ai/playground/internal/concept"
	"github.com/p-n-ai/playground/internal/navigator"
	"github.com/p-n-ai/playground/internal/page"
	"github.com/p-n-ai/playground/internal/quiz"
	"github.com/p-n-ai/playground/internal/sim"
)

// controllerPort is the part of page.Controller the model drives.
type controllerPort interface {
	Initialize(ctx context.Context) error
	Select(i int) error
	Next() error
	Choose(i int) error
	Match(row, right int) error
}

type actionDoneMsg struct {
	action string
	err    error
}

const (
	helpText         = "←/→ select · n next · 1-9 answer · q quit"
	matchingHelpText = "←/→ select · n next · row 1-9 then item 1-9 · esc clear · q quit"
)

// Model renders page snapshots and turns keys into controller actions.
// Controller calls run as commands because they render synchronously back
// into the program.
type Model struct {
	ctx    context.Context
	ctrl   controllerPort
	snap   page.Snapshot
	status string
	width  int
	height int
	// row is the matching row picked by the first digit, or -1.
	row int
}

// NewModel creates a model for ctrl. ctx bounds the initial fetch.
func NewModel(ctx context.Context, ctrl controllerPort, topic string) Model {
	return Model{
		ctx:    ctx,
		ctrl:   ctrl,
		snap:   page.Snapshot{Topic: topic, State: page.Loading, Selected: navigator.Unselected},
		status: "loading",
		width:  100,
		row:    -1,
	}
}

func (m Model) Init() tea.Cmd {
	return m.run("load", func() error { return m.ctrl.Initialize(m.ctx) })
}

func (m Model) run(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapshotMsg:
		if msg.snap.Version >= m.snap.Version {
			if msg.snap.Matching.Concept != m.snap.Matching.Concept || !msg.snap.Matching.Active {
				m.row = -1
			}
			m.snap = msg.snap
		}

	case announceMsg:
		m.status = msg.text

	case actionDoneMsg:
		if msg.err != nil && !quietError(msg.err) {
			m.status = msg.action + ": " + msg.err.Error()
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "left", "h":
		i := m.snap.Selected - 1
		return m, m.run("select", func() error { return m.ctrl.Select(i) })
	case "right", "l":
		i := m.snap.Selected + 1
		return m, m.run("select", func() error { return m.ctrl.Select(i) })
	case "n", "enter", "tab":
		return m, m.run("next", m.ctrl.Next)
	case "esc":
		m.row = -1
		return m, nil
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		i := int(key[0] - '1')
		if !m.snap.Matching.Active {
			return m, m.run("answer", func() error { return m.ctrl.Choose(i) })
		}
		if m.row < 0 {
			if i < len(m.snap.Matching.Rows) {
				m.row = i
			}
			return m, nil
		}
		row := m.row
		m.row = -1
		return m, m.run("match", func() error { return m.ctrl.Match(row, i) })
	}
	return m, nil
}

// quietError reports errors that are expected from normal key presses.
func quietError(err error) bool {
	return errors.Is(err, navigator.ErrNotFound) ||
		errors.Is(err, navigator.ErrEmpty) ||
		errors.Is(err, quiz.ErrLocked) ||
		errors.Is(err, quiz.ErrNoQuiz) ||
		errors.Is(err, quiz.ErrNoOption) ||
		errors.Is(err, quiz.ErrReadOnly) ||
		errors.Is(err, quiz.ErrNoPuzzle) ||
		errors.Is(err, quiz.ErrSolved) ||
		errors.Is(err, page.ErrNotReady)
}

func (m Model) View() string {
	header := m.renderHeader()

	var body string
	switch {
	case m.snap.State == page.Loading:
		body = mutedStyle.Render("Loading concepts…")
	case m.snap.State == page.Failed:
		body = errorStyle.Render(m.snap.Message)
	case m.snap.Empty:
		body = mutedStyle.Render(m.snap.Message)
	default:
		body = m.renderPage()
	}

	status := m.status
	if status == "" {
		status = m.snap.State.String()
	}
	help := helpText
	if m.snap.Matching.Active {
		help = matchingHelpText
	}
	footer := statusStyle.Width(max(m.width-2, 20)).Render(status + "  " + mutedStyle.Render(help))

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", footer))
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("Science Playground · " + concept.DisplayName(m.snap.Topic))
	if m.snap.State != page.Ready || m.snap.Empty {
		return title
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "   ", progressBar(m.snap.Progress, 24))
}

func (m Model) renderPage() string {
	navWidth := 26
	mainWidth := max(m.width-navWidth-8, 40)

	nav := paneStyle.Width(navWidth).Render(m.renderNav())

	var sections []string
	if c := m.snap.Concept; c != nil {
		sections = append(sections, renderConcept(*c, mainWidth))
	}
	sections = append(sections, activePaneStyle.Width(mainWidth).Render(renderAnimation(m.snap.Animation, mainWidth-4)))
	if m.snap.Matching.Active {
		sections = append(sections, paneStyle.Width(mainWidth).Render(renderMatching(m.snap.Matching, m.row)))
	} else {
		sections = append(sections, paneStyle.Width(mainWidth).Render(renderQuiz(m.snap.Quiz)))
	}
	main := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return lipgloss.JoinHorizontal(lipgloss.Top, nav, " ", main)
}

func (m Model) renderNav() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Concepts"))
	b.WriteString("\n")
	for _, item := range m.snap.Items {
		marker := "  "
		if item.Completed {
			marker = correctStyle.Render("✓ ")
		}
		label := item.Label
		if item.Active {
			label = hotStyle.Render("▶ " + label)
		}
		b.WriteString("\n" + marker + label)
	}
	return b.String()
}

func renderConcept(c concept.Concept, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.DisplayTitle()))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width - 4).Render(c.Explanation))
	if c.HasExample() {
		b.WriteString("\n\n" + mutedStyle.Render("For example… ") + lipgloss.NewStyle().Italic(true).Render(c.Example))
	}
	if c.HasGoal() {
		b.WriteString("\n\n" + hotStyle.Render("Learning goal: ") + lipgloss.NewStyle().Italic(true).Render(c.Goal))
	}
	if c.HasFormula() {
		b.WriteString("\n\n" + formulaStyle.Render("Formula: "+c.Formula))
		for _, p := range c.Breakdown {
			part := p.Part
			if p.Icon != "" {
				part += " " + p.Icon
			}
			b.WriteString("\n  • " + formulaStyle.Render(part))
			if p.Description != "" {
				b.WriteString(mutedStyle.Render("  " + p.Description))
			}
		}
	}
	return paneStyle.Width(width).Render(b.String())
}

func renderAnimation(a page.AnimationView, width int) string {
	switch {
	case a.Pending:
		return mutedStyle.Render("Loading animation " + a.Requested + "…")
	case a.Loaded:
		line := "▶ Playing " + a.Asset.Name
		if a.Fallback {
			line += mutedStyle.Render(" (standing in for " + a.Requested + ")")
		}
		return line + "\n" + mutedStyle.Render(a.Asset.Source)
	case a.Simulation != nil:
		return renderFrame(*a.Simulation, width, 4)
	default:
		return mutedStyle.Render(sim.PlaceholderCaption)
	}
}

// renderFrame draws the frame's sprites on a width×height character grid
// above its caption.
func renderFrame(f sim.Frame, width, height int) string {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	grid := make([][]string, height)
	for r := range grid {
		grid[r] = make([]string, width)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	for _, sp := range f.Sprites {
		col := clamp(int(sp.X*float64(width-1)+0.5), 0, width-1)
		row := height - 1 - clamp(int(sp.Y*float64(height-1)+0.5), 0, height-1)
		grid[row][col] = sp.Glyph
	}

	lines := make([]string, 0, height+2)
	for _, r := range grid {
		lines = append(lines, strings.TrimRight(strings.Join(r, ""), " "))
	}
	lines = append(lines, mutedStyle.Render(strings.Repeat("─", width)))
	if f.Caption != "" {
		lines = append(lines, f.Caption)
	}
	return strings.Join(lines, "\n")
}

func renderQuiz(b quiz.Board) string {
	if b.Placeholder {
		return mutedStyle.Render(b.Feedback)
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Game Time! 🧠"))
	sb.WriteString("\n" + b.Question + "\n")
	for i, opt := range b.Options {
		line := fmt.Sprintf("%d. %s", i+1, opt.Text)
		switch opt.Mark {
		case quiz.MarkedCorrect:
			line = correctStyle.Render(line + " ✓")
		case quiz.MarkedIncorrect:
			line = wrongStyle.Render(line + " ✗")
		default:
			if b.Locked || b.ReadOnly {
				line = mutedStyle.Render(line)
			}
		}
		sb.WriteString("\n" + line)
	}
	if b.Feedback != "" {
		style := mutedStyle
		switch b.Feedback {
		case quiz.CorrectText:
			style = correctStyle
		case quiz.IncorrectText:
			style = wrongStyle
		}
		sb.WriteString("\n\n" + style.Render(b.Feedback))
	}
	return sb.String()
}

// renderMatching draws the rows with their placements beside the numbered
// right column. row is highlighted while it waits for an item.
func renderMatching(b quiz.MatchBoard, row int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(quiz.MatchingTitle))
	sb.WriteString("\n")
	for i, r := range b.Rows {
		placed := mutedStyle.Render("?")
		if r.Placed != "" {
			placed = r.Placed
		}
		line := fmt.Sprintf("%d. %s → %s", i+1, r.Left, placed)
		switch {
		case b.Solved:
			line = correctStyle.Render(line)
		case i == row:
			line = hotStyle.Render("▶ " + line)
		}
		sb.WriteString("\n" + line)
	}
	sb.WriteString("\n")
	for i, right := range b.Rights {
		sb.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("%d) ", i+1)) + right)
	}
	if b.Feedback != "" {
		style := mutedStyle
		if b.Solved {
			style = correctStyle
		}
		sb.WriteString("\n\n" + style.Render(b.Feedback))
	}
	return sb.String()
}

func progressBar(p page.ProgressView, width int) string {
	filled := clamp(int(p.Ratio*float64(width)+0.5), 0, width)
	bar := barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3d%% (%d/%d)", bar, p.Percent(), p.Completed, p.Total)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Package ui renders live scenario progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"deprio/internal/scenario"
)

type progressModel struct {
	title   string
	events  <-chan scenario.Event
	spinner spinner.Model
	prog    progress.Model
	items   []taskItem
	index   map[string]int
	width   int
	done    bool
}

type taskItem struct {
	scenario string
	task     string
	prio     uint
	steps    uint
	maxPolls uint64
	status   scenario.Status
	attempts uint64
	inner    int
}

type eventMsg scenario.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model with one row per task of every
// scenario, fed by events until the channel is closed.
func NewProgressModel(title string, scenarios []*scenario.Scenario, events <-chan scenario.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		width:   80,
	}
	for _, sc := range scenarios {
		for _, t := range sc.Tasks {
			m.index[itemKey(sc.Name, t.Name)] = len(m.items)
			m.items = append(m.items, taskItem{
				scenario: sc.Name,
				task:     t.Name,
				prio:     t.Prio,
				steps:    t.Steps,
				maxPolls: sc.MaxPolls,
				status:   scenario.StatusQueued,
			})
		}
	}
	return m
}

func itemKey(sc, task string) string { return sc + "\x00" + task }

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(scenario.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 10
	const countersWidth = 24
	nameWidth := m.width - statusWidth - countersWidth - 6
	if nameWidth < 20 {
		nameWidth = 20
	}
	for _, item := range m.items {
		name := truncate(item.scenario+"/"+item.task, nameWidth)
		pad := strings.Repeat(" ", max(0, nameWidth-runewidth.StringWidth(name)))
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		fmt.Fprintf(&b, "  %s %s%s  prio %-3d %s\n", status, name, pad, item.prio, counters(item))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func counters(item taskItem) string {
	if item.steps == 0 {
		return fmt.Sprintf("%d/- inner, %d attempts", item.inner, item.attempts)
	}
	return fmt.Sprintf("%d/%d inner, %d attempts", item.inner, item.steps, item.attempts)
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev scenario.Event) tea.Cmd {
	if ev.Task == "" {
		// scenario-level transitions apply to every row of that scenario
		for i := range m.items {
			item := &m.items[i]
			if item.scenario != ev.Scenario || item.status == scenario.StatusDone {
				continue
			}
			switch ev.Status {
			case scenario.StatusQueued:
				item.status = scenario.StatusQueued
			case scenario.StatusRunning:
				item.status = scenario.StatusRunning
			case scenario.StatusExhausted, scenario.StatusError:
				item.status = ev.Status
			case scenario.StatusDone:
				item.status = scenario.StatusDone
			}
		}
	} else {
		idx, ok := m.index[itemKey(ev.Scenario, ev.Task)]
		if !ok {
			return nil
		}
		item := &m.items[idx]
		item.status = ev.Status
		item.attempts = ev.Attempts
		item.inner = ev.InnerPolls
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		total += itemProgress(item)
	}
	return total / float64(len(m.items))
}

func itemProgress(item taskItem) float64 {
	switch item.status {
	case scenario.StatusDone, scenario.StatusExhausted, scenario.StatusError:
		return 1
	case scenario.StatusQueued:
		return 0
	}
	if item.steps > 0 {
		return min(1, float64(item.inner)/float64(item.steps))
	}
	if item.maxPolls > 0 {
		return min(1, float64(item.attempts)/float64(item.maxPolls))
	}
	return 0
}

func styleStatus(status scenario.Status) lipgloss.Style {
	switch status {
	case scenario.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case scenario.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case scenario.StatusExhausted:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case scenario.StatusRunning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

// Package monitor is a terminal dashboard that polls the batch listing and
// shows batches by completion status with their request progress.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/picatz/batchgpt"
)

// DefaultRefreshInterval is used when New is given no positive interval.
const DefaultRefreshInterval = 5 * time.Second

// Lister lists every batch. *batchgpt.Client implements it.
type Lister interface {
	ListBatches(ctx context.Context) ([]batchgpt.BatchRecord, error)
}

var _ Lister = (*batchgpt.Client)(nil)

// Tab is one view of the batch list.
type Tab struct {
	Title  string
	Filter batchgpt.StatusFilter
}

// Tabs are shown in this order.
var Tabs = []Tab{
	{Title: "All", Filter: batchgpt.FilterNone},
	{Title: "Completed", Filter: batchgpt.FilterCompleted},
	{Title: "Not completed", Filter: batchgpt.FilterNotCompleted},
}

type (
	batchesMsg struct {
		batches []batchgpt.BatchRecord
		at      time.Time
	}
	errMsg  struct{ err error }
	tickMsg time.Time
)

// Model is the bubbletea model of the monitor.
type Model struct {
	ctx        context.Context
	lister     Lister
	interval   time.Duration
	normalizer batchgpt.Normalizer

	keys keyMap
	help help.Model

	tab        int
	cursor     int
	offset     int
	batches    []batchgpt.BatchRecord
	loading    bool
	err        error
	lastUpdate time.Time

	width, height int
}

// New returns a monitor listing batches through lister every interval.
func New(ctx context.Context, lister Lister, interval time.Duration, normalizer batchgpt.Normalizer) Model {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return Model{
		ctx:        ctx,
		lister:     lister,
		interval:   interval,
		normalizer: normalizer,
		keys:       defaultKeyMap(),
		help:       help.New(),
		loading:    true,
		width:      80,
	}
}

func (m Model) fetch() tea.Msg {
	batches, err := m.lister.ListBatches(m.ctx)
	if err != nil {
		return errMsg{err}
	}
	return batchesMsg{batches: batches, at: time.Now()}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init fetches the first listing and starts the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.tick())
}

// Selected returns the batches of the current tab, in listing order.
func (m Model) Selected() []batchgpt.BatchRecord {
	return batchgpt.FilterAndSummarize(m.batches, Tabs[m.tab].Filter).Selected
}

// Tab returns the current tab.
func (m Model) Tab() Tab {
	return Tabs[m.tab]
}

// Cursor returns the index of the highlighted batch in Selected.
func (m Model) Cursor() int {
	return m.cursor
}

// headerLines is the title, the tabs row and a blank line after each.
const headerLines = 4

// maxVisible is how many batches fit the window between the header and the
// help, leaving a line for the position indicator. Every batch takes two
// lines. Without a known height every batch is shown.
func (m Model) maxVisible() int {
	if m.height <= 0 {
		return len(m.Selected())
	}
	footer := 1 + lipgloss.Height(m.help.View(m.keys))
	return max((m.height-headerLines-footer-1)/2, 1)
}

// scroll moves the window so that the cursor is inside it.
func (m *Model) scroll() {
	visible := m.maxVisible()
	switch {
	case m.cursor < m.offset:
		m.offset = m.cursor
	case m.cursor >= m.offset+visible:
		m.offset = m.cursor - visible + 1
	}
	m.offset = max(min(m.offset, len(m.Selected())-visible), 0)
}

func (m *Model) switchTab(delta int) {
	m.tab = (m.tab + delta + len(Tabs)) % len(Tabs)
	m.cursor = 0
	m.offset = 0
}

func (m *Model) clampCursor() {
	m.cursor = max(min(m.cursor, len(m.Selected())-1), 0)
	m.scroll()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextTab):
			m.switchTab(1)
		case key.Matches(msg, m.keys.PrevTab):
			m.switchTab(-1)
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			m.scroll()
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.Selected())-1 {
				m.cursor++
			}
			m.scroll()
		case key.Matches(msg, m.keys.Top):
			m.cursor = 0
			m.scroll()
		case key.Matches(msg, m.keys.Bottom):
			m.cursor = max(len(m.Selected())-1, 0)
			m.scroll()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.scroll()
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, m.fetch
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scroll()

	case tickMsg:
		return m, tea.Batch(m.fetch, m.tick())

	case batchesMsg:
		m.batches = msg.batches
		m.lastUpdate = msg.at
		m.loading = false
		m.err = nil
		m.clampCursor()

	case errMsg:
		m.err = msg.err
		m.loading = false
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Batch monitor"))
	if !m.lastUpdate.IsZero() {
		sb.WriteString(mutedStyle.Render("updated " + m.normalizer.Normalize(m.lastUpdate.Unix())))
	}
	sb.WriteString("\n\n")

	tabs := make([]string, len(Tabs))
	for i, t := range Tabs {
		n := len(batchgpt.FilterAndSummarize(m.batches, t.Filter).Selected)
		title := fmt.Sprintf("%s (%d)", t.Title, n)
		if i == m.tab {
			tabs[i] = activeTabStyle.Render(title)
		} else {
			tabs[i] = tabStyle.Render(title)
		}
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	sb.WriteString("\n\n")

	switch selected := m.Selected(); {
	case m.err != nil:
		sb.WriteString(errorStyle.Render("An error occurred: " + m.err.Error()))
		sb.WriteString("\n")
	case m.loading && m.lastUpdate.IsZero():
		sb.WriteString("Loading...\n")
	case len(m.batches) == 0:
		sb.WriteString(batchgpt.NoBatchesMessage + "\n")
	case len(selected) == 0:
		sb.WriteString(batchgpt.NoMatchesMessage(Tabs[m.tab].Filter) + "\n")
	default:
		end := min(m.offset+m.maxVisible(), len(selected))
		for i := m.offset; i < end; i++ {
			sb.WriteString(m.renderBatch(selected[i], i == m.cursor))
			sb.WriteString("\n")
		}
		if m.offset > 0 || end < len(selected) {
			sb.WriteString(mutedStyle.Render(fmt.Sprintf("Showing %d-%d of %d", m.offset+1, end, len(selected))))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) renderBatch(b batchgpt.BatchRecord, selected bool) string {
	marker := "  "
	if selected {
		marker = "> "
	}

	info := marker + batchIDStyle.Render(b.ID) + "  " +
		m.normalizer.Normalize(b.CreatedAt) + "  " +
		statusStyle(b.Status).Render(b.Status)
	if selected {
		info = selectedStyle.Render(info)
	}

	return info + "\n  " + renderProgress(b.RequestCounts, m.width-4)
}

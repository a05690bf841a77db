package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/prioritysync/internal/events"
)

// ProgressPaneModel shows column scanning progress and request budget usage.
type ProgressPaneModel struct {
	columns  int // columns configured for the run
	scanned  int
	roots    int
	nodes    int
	issued   int64
	inUse    int
	budget   int
	failures int
	width    int
	height   int
	focused  bool
}

// NewProgressPaneModel creates a new progress pane model.
func NewProgressPaneModel() ProgressPaneModel {
	return ProgressPaneModel{}
}

// Update handles messages for the progress pane.
func (m ProgressPaneModel) Update(msg tea.Msg) (ProgressPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case events.RunStartedEvent:
		m.columns = len(msg.Columns)

	case events.ColumnScannedEvent:
		m.scanned++
		m.roots += msg.Roots
		m.nodes += msg.Nodes

	case events.CallIssuedEvent:
		if msg.Issued > m.issued {
			m.issued = msg.Issued
		}
		m.inUse = msg.InUse
		m.budget = msg.Budget
		if msg.Err != nil {
			m.failures++
		}
	}

	return m, nil
}

// View renders the progress pane.
func (m ProgressPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Progress")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Columns:  %d/%d\n", m.scanned, m.columns))
	b.WriteString(fmt.Sprintf("Roots:    %d\n", m.roots))
	b.WriteString(fmt.Sprintf("Tasks:    %d\n", m.nodes))
	b.WriteString(fmt.Sprintf("Requests: %s\n", StyleStatusComplete.Render(fmt.Sprintf("%d", m.issued))))
	if m.failures > 0 {
		b.WriteString(fmt.Sprintf("Failed:   %s\n", StyleStatusFailed.Render(fmt.Sprintf("%d", m.failures))))
	}
	b.WriteString("\n")

	if m.budget > 0 {
		b.WriteString(fmt.Sprintf("Budget [%s]  %d/%d\n", m.budgetBar(), m.inUse, m.budget))
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// budgetBar renders cooling-down permits against the free ones.
func (m ProgressPaneModel) budgetBar() string {
	barWidth := min(m.width-20, 40)
	if barWidth <= 0 || m.budget <= 0 {
		return ""
	}
	usedWidth := min(barWidth, (m.inUse*barWidth)/m.budget)

	style := StyleStatusComplete
	if m.inUse >= m.budget {
		style = StyleStatusRunning
	}
	return style.Render(strings.Repeat("=", usedWidth)) +
		StyleStatusPending.Render(strings.Repeat(".", barWidth-usedWidth))
}

// SetSize updates the pane dimensions.
func (m *ProgressPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *ProgressPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

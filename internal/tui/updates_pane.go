package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/prioritysync/internal/events"
)

// UpdateLine is one priority change as shown in the updates pane.
type UpdateLine struct {
	TaskID  string
	Title   string
	From    string
	To      string
	Written bool
}

// UpdatesPaneModel lists priority changes in a scrollable viewport.
type UpdatesPaneModel struct {
	updates  []UpdateLine
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

// NewUpdatesPaneModel creates a new updates pane model.
func NewUpdatesPaneModel() UpdatesPaneModel {
	vp := viewport.New(0, 0)
	vp.SetContent("Scanning...")
	return UpdatesPaneModel{viewport: vp}
}

// Update handles messages for the updates pane.
func (m UpdatesPaneModel) Update(msg tea.Msg) (UpdatesPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}
		// The viewport keymap covers j/k and the arrow keys.
		m.viewport, cmd = m.viewport.Update(msg)

	case events.TaskUpdatedEvent:
		m.updates = append(m.updates, UpdateLine{
			TaskID:  msg.ID,
			Title:   msg.Title,
			From:    msg.From,
			To:      msg.To,
			Written: msg.Written,
		})
		m.updateViewportContent()
	}

	return m, cmd
}

// Updates returns the changes seen so far.
func (m UpdatesPaneModel) Updates() []UpdateLine {
	return m.updates
}

// View renders the updates pane.
func (m UpdatesPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := StyleTitle.Render(fmt.Sprintf("Priority updates (%d)", len(m.updates)))
	content := header + "\n\n" + m.viewport.View()

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// FormatUpdate renders one change as "icon title: from -> to".
func FormatUpdate(u UpdateLine) string {
	icon := StyleStatusComplete.Render("✓")
	if !u.Written {
		icon = StyleStatusPending.Render("○")
	}
	name := u.Title
	if name == "" {
		name = u.TaskID
	}
	return fmt.Sprintf("%s %s: %s -> %s", icon, name, StylePriorityFrom.Render(u.From), StylePriorityTo.Render(u.To))
}

func (m *UpdatesPaneModel) updateViewportContent() {
	lines := make([]string, 0, len(m.updates))
	for _, u := range m.updates {
		lines = append(lines, FormatUpdate(u))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *UpdatesPaneModel) resizeViewport() {
	m.viewport.Width = max(m.width-4, 10)
	m.viewport.Height = max(m.height-6, 5) // borders and header
}

// SetSize updates the pane dimensions.
func (m *UpdatesPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *UpdatesPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

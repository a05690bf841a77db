package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/prioritysync/internal/events"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneUpdates PaneID = iota
	PaneProgress
)

// Model is the root Bubble Tea model for the run view.
type Model struct {
	updatesPane  UpdatesPaneModel
	progressPane ProgressPaneModel
	spinner      spinner.Model
	focusedPane  PaneID
	eventSub     <-chan events.Event // column, task and api topics
	runSub       <-chan events.Event // run topic, never crowded out by progress events
	cancel       func()
	width        int
	height       int
	quitting     bool
	finished     *events.RunFinishedEvent
}

// New creates a new TUI model subscribed to bus. Run lifecycle events get a
// subscription of their own so that a burst of progress events can never
// push out the event that ends the view.
// cancel is called when the user quits before the run has finished.
func New(bus *events.Bus, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StyleStatusRunning

	return Model{
		updatesPane:  NewUpdatesPaneModel(),
		progressPane: NewProgressPaneModel(),
		spinner:      s,
		focusedPane:  PaneUpdates,
		eventSub:     bus.Subscribe(256, events.TopicColumn, events.TopicTask, events.TopicAPI),
		runSub:       bus.Subscribe(4, events.TopicRun),
		cancel:       cancel,
	}
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.eventSub), waitForEvent(m.runSub), m.spinner.Tick)
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, runKeys.Stop):
			m.quitting = true
			if m.finished == nil && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit

		case key.Matches(msg, runKeys.Switch):
			m.focusedPane = (m.focusedPane + 1) % 2
			m.updateFocusStates()

		default:
			var cmd tea.Cmd
			m.updatesPane, cmd = m.updatesPane.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()

	case spinner.TickMsg:
		if m.finished == nil {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case events.TaskUpdatedEvent:
		var cmd tea.Cmd
		m.updatesPane, cmd = m.updatesPane.Update(msg)
		cmds = append(cmds, cmd, waitForEvent(m.eventSub))

	case events.RunStartedEvent:
		var cmd tea.Cmd
		m.progressPane, cmd = m.progressPane.Update(msg)
		cmds = append(cmds, cmd, waitForEvent(m.runSub))

	case events.ColumnScannedEvent, events.CallIssuedEvent:
		var cmd tea.Cmd
		m.progressPane, cmd = m.progressPane.Update(msg)
		cmds = append(cmds, cmd, waitForEvent(m.eventSub))

	case events.RunFinishedEvent:
		m.finished = &msg
		return m, tea.Quit
	}

	return m, tea.Batch(cmds...)
}

// Finished returns the final event of the run, or nil if the run is still going.
func (m Model) Finished() *events.RunFinishedEvent {
	return m.finished
}

// View renders the TUI.
func (m Model) View() string {
	if m.finished != nil {
		return m.resultView() + "\n"
	}
	if m.quitting {
		return "Stopping...\n"
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	status := fmt.Sprintf("%s Syncing priorities", m.spinner.View())
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.updatesPane.View(), m.progressPane.View())
	return lipgloss.JoinVertical(lipgloss.Left, status, main, HelpView())
}

func (m Model) resultView() string {
	f := m.finished
	if f.Err != nil {
		return StyleStatusFailed.Render(fmt.Sprintf("✗ Run failed after %v: %v", f.Duration, f.Err))
	}
	return StyleStatusComplete.Render(fmt.Sprintf("✓ %d updates, %d written in %v", f.Updates, f.Applied, f.Duration))
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 60) / 100
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 2 // status line and help bar

	m.updatesPane.SetSize(leftWidth, availableHeight)
	m.progressPane.SetSize(rightWidth, availableHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.updatesPane.SetFocused(m.focusedPane == PaneUpdates)
	m.progressPane.SetFocused(m.focusedPane == PaneProgress)
}

package tui

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/prioritysync/internal/config"
	"github.com/aristath/prioritysync/internal/priority"
)

// SettingsModel is the interactive config editor behind "prioritysync init".
type SettingsModel struct {
	form        *huh.Form
	config      *config.Config
	globalPath  string
	projectPath string
	width       int
	height      int
	saved       bool
	savedTo     string
	aborted     bool
	err         error

	// Form field bindings (strings for Huh)
	saveTarget       string
	token            string
	requestFrequency string
	stickerID        string
	delayedState     string
	columns          string
	priorities       string
}

// NewSettingsModel creates a settings editor prefilled from cfg.
func NewSettingsModel(cfg *config.Config, globalPath, projectPath string) SettingsModel {
	m := SettingsModel{
		config:      cfg,
		globalPath:  globalPath,
		projectPath: projectPath,

		saveTarget:       "project",
		token:            cfg.Token,
		requestFrequency: formatFrequency(cfg.RequestFrequency),
		stickerID:        cfg.PriorityStickerID,
		delayedState:     cfg.DelayedState,
		columns:          strings.Join(cfg.ColumnIDs, ", "),
		priorities:       FormatPriorities(cfg.PriorityOrder),
	}

	m.buildForm()
	return m
}

// buildForm constructs the Huh form with all settings fields.
func (m *SettingsModel) buildForm() {
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("saveTarget").
				Title("Save To").
				Options(
					huh.NewOption("Project ("+m.projectPath+")", "project"),
					huh.NewOption("Global ("+m.globalPath+")", "global"),
				).
				Value(&m.saveTarget),
		).Title("Save Target"),

		huh.NewGroup(
			huh.NewInput().
				Key("token").
				Title("API Token").
				Description("Leave empty to use $"+config.TokenEnv).
				EchoMode(huh.EchoModePassword).
				Value(&m.token),

			huh.NewInput().
				Key("requestFrequency").
				Title("Requests per minute").
				Value(&m.requestFrequency).
				Placeholder("50").
				Validate(func(s string) error {
					_, err := parsePositive(s)
					return err
				}),
		).Title("API Access"),

		huh.NewGroup(
			huh.NewInput().
				Key("stickerID").
				Title("Priority Sticker ID").
				Value(&m.stickerID).
				Validate(required("sticker id")),

			huh.NewInput().
				Key("delayedState").
				Title("Delayed State ID").
				Value(&m.delayedState).
				Validate(required("delayed state")),

			huh.NewInput().
				Key("priorities").
				Title("Priority States").
				Description("State ids, most urgent first, comma separated").
				Value(&m.priorities).
				Validate(func(s string) error {
					_, err := ParsePriorities(s)
					return err
				}),

			huh.NewInput().
				Key("columns").
				Title("Column IDs").
				Description("Comma separated").
				Value(&m.columns).
				Validate(func(s string) error {
					if len(ParseList(s)) == 0 {
						return errors.New("at least one column is required")
					}
					return nil
				}),
		).Title("Priority Settings"),
	)
}

// Init initializes the settings form.
func (m SettingsModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings form.
func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form.WithWidth(max(msg.Width-8, 20))

	case tea.KeyMsg:
		if key.Matches(msg, cancelKey) {
			m.aborted = true
			return m, tea.Quit
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.aborted = true
		return m, tea.Quit
	case huh.StateCompleted:
		m.save()
		return m, tea.Quit
	}

	return m, cmd
}

func (m *SettingsModel) save() {
	if err := m.applyFormToConfig(); err != nil {
		m.err = err
		return
	}

	targetPath := m.projectPath
	if m.saveTarget == "global" {
		targetPath = m.globalPath
	}

	if err := config.Save(m.config, targetPath); err != nil {
		m.err = err
		return
	}
	m.saved = true
	m.savedTo = targetPath
}

// applyFormToConfig copies form field values back to the config struct.
func (m *SettingsModel) applyFormToConfig() error {
	freq, err := parsePositive(m.requestFrequency)
	if err != nil {
		return fmt.Errorf("request frequency: %w", err)
	}
	order, err := ParsePriorities(m.priorities)
	if err != nil {
		return err
	}

	m.config.Token = strings.TrimSpace(m.token)
	m.config.RequestFrequency = freq
	m.config.PriorityStickerID = strings.TrimSpace(m.stickerID)
	m.config.DelayedState = strings.TrimSpace(m.delayedState)
	m.config.ColumnIDs = ParseList(m.columns)
	m.config.PriorityOrder = order
	return nil
}

// Result reports where the config was saved, or why it was not.
func (m SettingsModel) Result() (path string, saved bool, err error) {
	return m.savedTo, m.saved, m.err
}

// Aborted reports whether the user left the form without saving.
func (m SettingsModel) Aborted() bool {
	return m.aborted
}

// View renders the settings form.
func (m SettingsModel) View() string {
	var content string

	switch {
	case m.saved:
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true).
			Render("✓ Settings saved to " + m.savedTo)
	case m.err != nil:
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Render(fmt.Sprintf("✗ Error saving: %v", m.err))
	case m.aborted:
		content = StyleStatusPending.Render("Cancelled, nothing saved")
	default:
		content = m.form.View()
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("⚙ prioritysync settings")

	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, title, body) + "\n"
}

// ParseList splits a comma separated list, dropping blanks.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParsePriorities turns a most-urgent-first list of state ids into
// priority entries with orders 0, 1, 2...
func ParsePriorities(s string) ([]priority.Entry, error) {
	ids := ParseList(s)
	if len(ids) == 0 {
		return nil, errors.New("at least one priority state is required")
	}

	entries := make([]priority.Entry, len(ids))
	for i, id := range ids {
		entries[i] = priority.Entry{StateID: id, Order: i}
	}
	if _, err := priority.NewTable(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// FormatPriorities is the inverse of ParsePriorities.
func FormatPriorities(entries []priority.Entry) string {
	sorted := append([]priority.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	ids := make([]string, len(sorted))
	for i, e := range sorted {
		ids[i] = e.StateID
	}
	return strings.Join(ids, ", ")
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if n <= 0 {
		return 0, errors.New("must be greater than zero")
	}
	return n, nil
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func formatFrequency(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

package tui

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/profile"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionRun
	ActionAdd
	ActionExport
	ActionDelete
	ActionQuit
)

// PickerResult holds the result of the picker
type PickerResult struct {
	Action  Action
	Profile *profile.Profile
}

// profileItem implements list.Item for profile display
type profileItem struct {
	profile *profile.Profile
	active  bool
}

func (i profileItem) Title() string {
	return i.profile.Name
}

func (i profileItem) Description() string {
	s := i.profile.Summary

	statusIcon := "○"
	if i.active {
		statusIcon = "●"
	}

	sni := s.SNI
	if sni == "" {
		sni = "-"
	}

	return fmt.Sprintf("%s %s | %s | %s | %s | sni %s",
		statusIcon,
		s.Protocol,
		s.Security,
		s.Network,
		truncate(net.JoinHostPort(s.Server, strconv.Itoa(s.Port)), 40),
		sni,
	)
}

func (i profileItem) FilterValue() string {
	return i.profile.Name + " " + i.profile.Summary.Server
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen+3:]
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// Model is the bubbletea model for the profile picker
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a new profile picker. active names the profile whose
// engine is running, if any.
func NewPicker(profiles []*profile.Profile, active string) Model {
	items := make([]list.Item, len(profiles))
	for i, p := range profiles {
		items[i] = profileItem{
			profile: p,
			active:  p.Name == active,
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "vless-ctl - Select Profile"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return Model{
		list: l,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			return m.finish(ActionRun)
		case "e":
			return m.finish(ActionExport)
		case "d":
			return m.finish(ActionDelete)
		case "a":
			m.result = PickerResult{Action: ActionAdd}
			m.quitting = true
			return m, tea.Quit
		case "q", "esc":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// finish selects the highlighted profile for action, if there is one.
func (m Model) finish(action Action) (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(profileItem)
	if !ok {
		return m, nil
	}
	m.result = PickerResult{Action: action, Profile: item.profile}
	m.quitting = true
	return m, tea.Quit
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter] Run  [a] Add  [e] Export  [d] Delete  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive profile picker
func RunPicker(profiles []*profile.Profile, active string) (PickerResult, error) {
	if len(profiles) == 0 {
		return PickerResult{Action: ActionAdd}, nil
	}

	m := NewPicker(profiles, active)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimplePicker is a non-interactive picker that just lists profiles
func SimplePicker(profiles []*profile.Profile, active string) string {
	var sb strings.Builder

	sb.WriteString("vless-ctl - Profiles\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(profiles) == 0 {
		sb.WriteString("No profiles found.\n")
		sb.WriteString("Add one with: vless-ctl add 'vless://...'\n")
		return sb.String()
	}

	for i, p := range profiles {
		statusIcon := "○"
		if p.Name == active {
			statusIcon = "●"
		}
		s := p.Summary

		sb.WriteString(fmt.Sprintf("%d. %s %s (%s/%s)\n",
			i+1, statusIcon, p.Name, s.Protocol, s.Security))
		sb.WriteString(fmt.Sprintf("   Server: %s | Network: %s | SNI: %s\n\n",
			truncate(net.JoinHostPort(s.Server, strconv.Itoa(s.Port)), 40), s.Network, s.SNI))
	}

	return sb.String()
}

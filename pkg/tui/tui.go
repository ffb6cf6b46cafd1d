// Package tui provides a terminal user interface for midiremap
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/james-see/midiremap/pkg/config"
	"github.com/james-see/midiremap/pkg/converter"
)

// Piano roll color scheme
var (
	keyBlue    = lipgloss.Color("#4FC3F7")
	amber      = lipgloss.Color("#FFD54F")
	silverGray = lipgloss.Color("#C0C0C0")
	slate      = lipgloss.Color("#263238")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(keyBlue).
			Background(slate).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(keyBlue).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(amber).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(keyBlue).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(keyBlue).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateWorking
	StateResult
)

// Action is what a menu item does with the picked file
type Action int

const (
	ActionRemap Action = iota
	ActionDump
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
}

var menuItems = []MenuItem{
	{Title: "Remap MIDI", Description: "Write [file]" + converter.RemapSuffix + " with the remapped track", Action: ActionRemap},
	{Title: "Dump events", Description: "Write [file]_events.txt with the remapped event table", Action: ActionDump},
	{Title: "Exit", Description: "Exit the application", Action: ActionExit},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputFile   string
	action       MenuItem
	options      config.Options
	logger       *log.Logger
	err          error
	width        int
	height       int
}

// actionDoneMsg signals completion of the selected action
type actionDoneMsg struct {
	outputFile string
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model. opts supplies the track, tempo and blank beat settings.
func New(opts *config.Options, logger *log.Logger) Model {
	if opts == nil {
		opts = &config.Options{}
	}
	if logger == nil {
		logger = log.Default()
	}

	// Initialize file picker
	fp := filepicker.New()
	fp.AllowedTypes = converter.SupportedExtensions()
	fp.CurrentDirectory, _ = os.Getwd()

	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(keyBlue)

	return Model{
		state:      StateMenu,
		menuIndex:  0,
		filePicker: fp,
		spinner:    s,
		options:    *opts,
		logger:     logger,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle file picker state first - it needs to receive all messages
	if m.state == StateFilePicker {
		// Check for escape/quit keys first
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		// Pass all other messages to the file picker
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		// Check if file was selected
		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateWorking
			return m, tea.Batch(m.spinner.Tick, m.performAction())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case actionDoneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if menuItems[m.menuIndex].Action == ActionExit {
			return m, tea.Quit
		}
		m.action = menuItems[m.menuIndex]
		m.state = StateFilePicker
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performAction() tea.Cmd {
	action := m.action.Action
	input := m.selectedFile
	opts := m.options
	logger := m.logger
	return func() tea.Msg {
		outputFile, err := runAction(action, input, &opts, logger)
		return actionDoneMsg{outputFile: outputFile, err: err}
	}
}

// runAction remaps input and writes either the MIDI file or the event table
func runAction(action Action, input string, opts *config.Options, logger *log.Logger) (string, error) {
	cfg, err := opts.RemapConfig()
	if err != nil {
		return "", err
	}
	conv := converter.New(logger)

	switch action {
	case ActionRemap:
		result, err := conv.RemapFile(input, converter.OutputPath(input), cfg)
		if err != nil {
			return "", err
		}
		return result.Filename, nil
	case ActionDump:
		if err := converter.CheckInputPath(input); err != nil {
			return "", err
		}
		data, err := os.ReadFile(input)
		if err != nil {
			return "", err
		}
		result, err := conv.Remap(data, cfg)
		if err != nil {
			return "", err
		}
		outputFile := strings.TrimSuffix(input, filepath.Ext(input)) + "_events.txt"
		if err := converter.WriteEventsFile(outputFile, result.Track); err != nil {
			return "", err
		}
		return outputFile, nil
	}
	return "", fmt.Errorf("unknown action %d", action)
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	// Header
	header := asciiLogo()
	s.WriteString(header)
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateWorking:
		s.WriteString(m.viewWorking())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	// Footer help
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT ACTION "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(amber).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	s.WriteString(statusStyle.Render(m.settings()))

	return boxStyle.Render(s.String())
}

// settings describes the remap settings in one line
func (m Model) settings() string {
	track, blank := 0, 0
	if m.options.Track != nil {
		track = *m.options.Track
	}
	if m.options.BlankBeats != nil {
		blank = *m.options.BlankBeats
	}
	tempo := "off"
	if len(m.options.TempoFix) == 2 {
		tempo = fmt.Sprintf("%d → %d", m.options.TempoFix[0], m.options.TempoFix[1])
	}
	return fmt.Sprintf("track %d • tempo fix %s • blank beats %d", track, tempo, blank)
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT MIDI FILE "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewWorking() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" REMAPPING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Remapping %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render("  " + m.action.Title))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Remap failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Remap complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s", filepath.Base(m.outputFile)))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   __  __ ___ ____ ___ ____  _____ __  __    _    ____
  |  \/  |_ _|  _ \_ _|  _ \| ____|  \/  |  / \  |  _ \
  | |\/| || || | | | || |_) |  _| | |\/| | / _ \ | |_) |
  | |  | || || |_| | ||  _ <| |___| |  | |/ ___ \|  __/
  |_|  |_|___|____/___|_| \_\_____|_|  |_/_/   \_\_|
`
	return lipgloss.NewStyle().Foreground(keyBlue).Render(logo)
}

// Run starts the TUI application
func Run(opts *config.Options, logger *log.Logger) error {
	p := tea.NewProgram(New(opts, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

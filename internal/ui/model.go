// ABOUTME: Bubbletea model for the printer browser TUI
// ABOUTME: Lists discovered printers, shows details and rescans on demand
package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/samuelkadolph/ultimaker-go/pkg/discovery"
)

// DiscoverFunc runs one discovery pass
type DiscoverFunc func() ([]*discovery.DiscoveredPrinter, error)

// PrintersMsg carries the result of a discovery pass
type PrintersMsg struct {
	Printers []*discovery.DiscoveredPrinter
	Err      error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle   = lipgloss.NewStyle().Underline(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model represents the TUI state
type Model struct {
	discover DiscoverFunc

	printers   []*discovery.DiscoveredPrinter
	cursor     int
	showDetail bool

	scanning bool
	scans    int
	err      error

	width  int
	height int
}

// NewModel creates a model that scans as soon as the program starts
func NewModel(discover DiscoverFunc) Model {
	return Model{
		discover: discover,
		scanning: true,
	}
}

// Init starts the first scan
func (m Model) Init() tea.Cmd {
	return m.scan()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case PrintersMsg:
		m.applyResult(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Ultimaker printers on the network"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Discovery failed: " + m.err.Error()))
		b.WriteString("\n")
	case m.scanning && m.scans == 0:
		b.WriteString("Scanning...\n")
	case len(m.printers) == 0:
		b.WriteString(dimStyle.Render("No printers found"))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderTable())
	}

	if m.showDetail && m.cursor < len(m.printers) {
		b.WriteString("\n")
		b.WriteString(renderDetail(m.printers[m.cursor]))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderTable() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-20s %-22s %-16s %s", "NAME", "MODEL", "ADDRESS", "FIRMWARE")))
	b.WriteString("\n")

	for i, p := range m.printers {
		row := fmt.Sprintf("%-20s %-22s %-16s %s",
			truncate(p.Name(), 20), p.Model(), p.Address(), p.FirmwareVersion())
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + row))
		} else {
			b.WriteString("  " + row)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderDetail(p *discovery.DiscoveredPrinter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hostname: %s\n", p.Hostname())
	fmt.Fprintf(&b, "Type:     %s\n", p.Type())

	extra := p.Extra()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, "  %s = %s\n", k, extra[k])
	}

	return b.String()
}

func (m Model) renderHelp() string {
	status := fmt.Sprintf("%d printer(s)", len(m.printers))
	if m.scanning {
		status = "scanning"
	}
	return dimStyle.Render(fmt.Sprintf("↑/↓:Select  enter:Details  r:Rescan  q:Quit   [%s]", status))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.printers)-1 {
			m.cursor++
		}
	case "enter":
		m.showDetail = !m.showDetail
	case "r":
		if !m.scanning {
			m.scanning = true
			return m, m.scan()
		}
	}

	return m, nil
}

// applyResult stores a finished scan, keeping the cursor in range
func (m *Model) applyResult(msg PrintersMsg) {
	m.scanning = false
	m.scans++
	m.err = msg.Err
	m.printers = msg.Printers

	if m.cursor >= len(m.printers) {
		m.cursor = max(len(m.printers)-1, 0)
	}
}

func (m Model) scan() tea.Cmd {
	discover := m.discover
	if discover == nil {
		return nil
	}

	return func() tea.Msg {
		printers, err := discover()
		return PrintersMsg{Printers: printers, Err: err}
	}
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

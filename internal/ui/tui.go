// ABOUTME: TUI initialization for the printer browser
// ABOUTME: Wraps bubbletea program around the discovery model
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run creates the TUI program; the caller runs it
func Run(discover DiscoverFunc) *tea.Program {
	return tea.NewProgram(NewModel(discover), tea.WithAltScreen())
}

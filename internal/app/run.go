package app

import tea "github.com/charmbracelet/bubbletea"

// Run builds the model from deps and blocks until the UI exits.
func Run(deps Deps, opts ...tea.ProgramOption) error {
	program := tea.NewProgram(NewModel(deps), opts...)
	_, err := program.Run()
	return err
}

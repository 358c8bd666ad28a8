package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskgate/taskgate/models"
)

// PickMatch shows an interactive table of scored matches and returns the
// chosen agent id. Returns an error when the user cancels.
func PickMatch(matches []models.AgentMatch, profiles []models.AgentProfile) (string, error) {
	if len(matches) == 0 {
		return "", fmt.Errorf("no matches to pick from")
	}

	names := displayNames(profiles)

	columns := []table.Column{
		{Title: "Agent", Width: 28},
		{Title: "ID", Width: 22},
		{Title: "Confidence", Width: 10},
	}
	rows := make([]table.Row, len(matches))
	for i, m := range matches {
		rows[i] = table.Row{names.of(m.AgentID), m.AgentID, fmt.Sprintf("%.2f", m.Confidence)}
	}

	height := len(rows)
	if height > 10 {
		height = 10
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(ColorPrimary)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	m := pickerModel{table: t}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", fmt.Errorf("run match picker: %w", err)
	}

	result := final.(pickerModel)
	if result.quit || result.selectedID == "" {
		return "", fmt.Errorf("match selection cancelled")
	}
	return result.selectedID, nil
}

type pickerModel struct {
	table      table.Model
	selectedID string
	quit       bool
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quit = true
			return m, tea.Quit
		case "enter":
			row := m.table.SelectedRow()
			if len(row) > 1 {
				m.selectedID = row[1]
			}
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	s := "\n" + StyleSelectTitle.Render("Route task to agent") + "\n\n"
	s += m.table.View() + "\n"
	s += StyleSelectDim.Render("↑/↓ navigate • enter select • esc cancel") + "\n"
	return s
}

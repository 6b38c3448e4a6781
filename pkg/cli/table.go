package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Tabular is implemented by results that can be printed as a table.
type Tabular interface {
	Headers() []string
	Rows() [][]string
}

// Theme defines the table colors.
type Theme struct {
	Primary lipgloss.Color // header and border accent
	Dim     lipgloss.Color // cell text
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#c9d1d9"),
}

// RenderTable renders t with DefaultTheme.
func RenderTable(t Tabular) string {
	return DefaultTheme.Render(t)
}

// Render renders t as a bordered table.
func (th Theme) Render(t Tabular) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(th.Primary).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(th.Dim).Padding(0, 1)

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(th.Primary)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(t.Headers()...).
		Rows(t.Rows()...).
		String()
}

// Table is a ready-made Tabular value.
type Table struct {
	Head []string
	Body [][]string
}

func (t Table) Headers() []string { return t.Head }
func (t Table) Rows() [][]string  { return t.Body }

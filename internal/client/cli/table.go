package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dmitrijs2005/healthsync/internal/client/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#4a69bd"))
	cellStyle    = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Center)
	stripedStyle = cellStyle.Background(lipgloss.Color("#f8f9fa")).Foreground(lipgloss.Color("#333333"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc3545"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4caf50"))
)

var tableHeaders = []string{"Date", "Morning °C", "Evening °C", "Abdominal pain"}

// renderTable draws every day of rng, empty days included.
func renderTable(rng models.DateRange, m models.RecordMapping) string {
	rows := make([][]string, 0, rng.Days)
	for _, r := range rng.Rows(m) {
		rows = append(rows, []string{r.Label, orDash(r.MorningTemp), orDash(r.EveningTemp), yesNo(r.Pain)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return stripedStyle
			default:
				return cellStyle
			}
		})

	return t.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"finanse/internal/core"
	"finanse/internal/query"
)

const (
	colorText    lipgloss.Color = "#cdd6f4"
	colorSubtext lipgloss.Color = "#a6adc8"
	colorGreen   lipgloss.Color = "#a6e3a1"
	colorRed     lipgloss.Color = "#f38ba8"
	colorBorder  lipgloss.Color = "#585b70"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSubtext)
	labelStyle  = lipgloss.NewStyle().Foreground(colorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorSubtext)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

// column is one rendered table column.
type column struct {
	header string
	cells  []string
	right  bool
}

// renderReport draws one box per year with a row per month: income, each
// expense category and the totals.
func renderReport(months []query.MonthSummary, currency string) string {
	if len(months) == 0 {
		return mutedStyle.Render("No transactions recorded.")
	}

	var blocks []string
	for start := 0; start < len(months); {
		end := start
		for end < len(months) && months[end].Year == months[start].Year {
			end++
		}
		blocks = append(blocks, renderYear(months[start:end], currency))
		start = end
	}
	return strings.Join(blocks, "\n")
}

func renderYear(months []query.MonthSummary, currency string) string {
	names, colors := expenseColumns(months)

	cols := []column{{header: "Month"}, {header: "Income", right: true}}
	for _, name := range names {
		cols = append(cols, column{header: name, right: true})
	}
	cols = append(cols,
		column{header: "Total Expenses", right: true},
		column{header: "Net", right: true})

	for _, m := range months {
		cols[0].cells = append(cols[0].cells, labelStyle.Render(m.Label))
		cols[1].cells = append(cols[1].cells, lipgloss.NewStyle().Foreground(colorGreen).Render(core.FormatMoney(m.Income, currency)))

		amounts := make(map[string]decimal.Decimal, len(m.Expenses))
		for _, e := range m.Expenses {
			amounts[e.Name] = e.Amount
		}
		for i, name := range names {
			cell := mutedStyle.Render("-")
			if a, ok := amounts[name]; ok && !a.IsZero() {
				cell = lipgloss.NewStyle().Foreground(colors[i]).Render(core.FormatMoney(a, currency))
			}
			cols[2+i].cells = append(cols[2+i].cells, cell)
		}

		cols[len(cols)-2].cells = append(cols[len(cols)-2].cells, labelStyle.Render(core.FormatMoney(m.TotalExpenses, currency)))
		netColor := colorGreen
		if m.Net.IsNegative() {
			netColor = colorRed
		}
		cols[len(cols)-1].cells = append(cols[len(cols)-1].cells, lipgloss.NewStyle().Bold(true).Foreground(netColor).Render(core.FormatMoney(m.Net, currency)))
	}

	rendered := make([]string, 0, len(cols))
	for i, c := range cols {
		rendered = append(rendered, renderColumn(c, i > 0))
	}
	table := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	title := titleStyle.Render(fmt.Sprintf("%d", months[0].Year))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", table))
}

func renderColumn(c column, gap bool) string {
	width := lipgloss.Width(c.header)
	for _, cell := range c.cells {
		if w := lipgloss.Width(cell); w > width {
			width = w
		}
	}
	align := lipgloss.Left
	if c.right {
		align = lipgloss.Right
	}
	cellStyle := lipgloss.NewStyle().Width(width).Align(align)
	if gap {
		cellStyle = cellStyle.MarginLeft(2)
	}

	lines := make([]string, 0, len(c.cells)+1)
	lines = append(lines, cellStyle.Inherit(headerStyle).Render(c.header))
	for _, cell := range c.cells {
		lines = append(lines, cellStyle.Render(cell))
	}
	return lipgloss.JoinVertical(align, lines...)
}

// expenseColumns lists the expense category names in first-seen order,
// with their colors.
func expenseColumns(months []query.MonthSummary) ([]string, []lipgloss.Color) {
	var names []string
	var colors []lipgloss.Color
	seen := make(map[string]bool)
	for _, m := range months {
		for _, e := range m.Expenses {
			if seen[e.Name] {
				continue
			}
			seen[e.Name] = true
			names = append(names, e.Name)
			color := lipgloss.Color(e.Color)
			if e.Color == "" {
				color = colorText
			}
			colors = append(colors, color)
		}
	}
	return names, colors
}

// filterMonths keeps the months of year (0 for all) and at most the last
// n of them (0 for all).
func filterMonths(months []query.MonthSummary, year, n int) []query.MonthSummary {
	var out []query.MonthSummary
	for _, m := range months {
		if year != 0 && m.Year != year {
			continue
		}
		out = append(out, m)
	}
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

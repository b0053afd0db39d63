package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("39")  // Cyan
	ColorSecondary = lipgloss.Color("212") // Pink
	ColorSuccess   = lipgloss.Color("82")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("245") // Gray
)

// Styles for various UI elements
var (
	Bold    = lipgloss.NewStyle().Bold(true)
	Dim     = lipgloss.NewStyle().Foreground(ColorMuted)
	Header  = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	Success = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning = lipgloss.NewStyle().Foreground(ColorWarning)
	Error   = lipgloss.NewStyle().Foreground(ColorError)

	SectionTitle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true).
			MarginTop(1)
	cell = lipgloss.NewStyle().Padding(0, 1)
)

// Table renders rows under headers as a bordered table.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Dim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return Header.Padding(0, 1)
			}
			return cell
		})
	return t.String()
}

// KeyValue renders aligned "key: value" lines.
func KeyValue(pairs ...[2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0]))
	}
	var sb strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&sb, "%s %s\n", Dim.Render(fmt.Sprintf("%-*s", width+1, p[0]+":")), p[1])
	}
	return sb.String()
}

// FormatVector shortens long vectors to their first and last elements.
func FormatVector(v []float32) string {
	const keep = 3
	if v == nil {
		return "null"
	}
	if len(v) <= 2*keep {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("[%s ... %s] (%d)", joinFloats(v[:keep]), joinFloats(v[len(v)-keep:]), len(v))
}

func joinFloats(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, " ")
}

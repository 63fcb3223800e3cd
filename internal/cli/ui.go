package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDim).Width(10)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleFailure = lipgloss.NewStyle().Foreground(colorRed)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
)

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, styleTitle.Render(title))
}

// printField writes an indented "label value" row.
func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", styleLabel.Render(label), value)
}

func printSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, styleSuccess.Render(iconSuccess)+" "+msg)
}

func printFailure(w io.Writer, msg string) {
	fmt.Fprintln(w, styleFailure.Render(iconError)+" "+msg)
}

// formatVertices joins ids with spaces, "(none)" when empty.
func formatVertices(vs []int) string {
	if len(vs) == 0 {
		return "(none)"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = styleNumber.Render(strconv.Itoa(v))
	}
	return strings.Join(parts, " ")
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

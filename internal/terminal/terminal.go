// Package terminal renders assessments as tables and bar charts for the CLI.
package terminal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	surfboardgwp "github.com/swellcycle/surfboard-gwp"
)

// barWidth is the width of a 100% bar, in cells.
const barWidth = 40

// Styles used by the renderer.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Bar     lipgloss.Style
	Border  lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0B4F6C")).MarginTop(1),
		Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Padding(0, 1),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#D97706")),
		Bar:     lipgloss.NewStyle().Foreground(lipgloss.Color("#01BAEF")),
		Border:  lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	}
}

// Render returns the full report of an assessment: warnings, one table per
// stage, the summary and the stage share chart.
func Render(assessment surfboardgwp.Assessment, styles Styles) string {
	var sb strings.Builder

	if len(assessment.Warnings) > 0 {
		sb.WriteString(styles.Title.Render("Warnings"))
		sb.WriteString("\n")
		for _, w := range assessment.Warnings {
			sb.WriteString(styles.Warning.Render("! " + w.Message()))
			sb.WriteString("\n")
		}
	}

	for _, stage := range assessment.Stages {
		sb.WriteString(styles.Title.Render(stage.Stage.Title()))
		sb.WriteString("\n")
		sb.WriteString(StageTable(stage, styles))
		sb.WriteString("\n")
	}

	sb.WriteString(styles.Title.Render("Summary"))
	sb.WriteString("\n")
	sb.WriteString(SummaryTable(assessment, styles))
	sb.WriteString("\n")
	sb.WriteString(styles.Title.Render("Share of total"))
	sb.WriteString("\n")
	sb.WriteString(ShareBars(assessment, styles))

	return sb.String()
}

func newTable(styles Styles, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		})
}

// StageTable lists the line items of a stage with its total.
func StageTable(stage surfboardgwp.StageTotal, styles Styles) string {
	if !stage.Valid {
		return styles.Muted.Render("total not computed, see warnings") + "\n"
	}

	t := newTable(styles, "Item", "Quantity", "Unit", "Factor", "kg CO₂ eq")
	for _, item := range stage.Items {
		t.Row(
			item.Name,
			strconv.FormatFloat(surfboardgwp.Round(item.Quantity), 'f', -1, 64),
			item.Unit,
			strconv.FormatFloat(item.EmissionFactor, 'g', -1, 64),
			item.Total.String(),
		)
	}
	t.Row("Stage total", "", "", "", stage.Total.String())
	return t.String() + "\n"
}

// SummaryTable lists the stage totals and the grand total.
func SummaryTable(assessment surfboardgwp.Assessment, styles Styles) string {
	t := newTable(styles, "Component", "Total GWP (kg CO₂ eq)")
	for _, stage := range surfboardgwp.Stages {
		total, found := assessment.Stage(stage)
		value := "not computed"
		if found && total.Valid {
			value = total.Total.String()
		}
		t.Row(stage.Component(), value)
	}
	t.Row("Total", assessment.GrandTotal.String())
	return t.String() + "\n"
}

// ShareBars draws one horizontal bar per stage proportional to its share
// of the grand total.
func ShareBars(assessment surfboardgwp.Assessment, styles Styles) string {
	labelWidth := 0
	for _, stage := range surfboardgwp.Stages {
		labelWidth = max(labelWidth, lipgloss.Width(stage.Title()))
	}

	var sb strings.Builder
	for _, stage := range surfboardgwp.Stages {
		share := assessment.Share(stage)
		cells := int(math.Round(share / 100 * barWidth))
		fmt.Fprintf(&sb, "%-*s %s %5.1f%%\n",
			labelWidth, stage.Title(),
			styles.Bar.Render(strings.Repeat("█", cells))+strings.Repeat(" ", barWidth-cells),
			share,
		)
	}
	return sb.String()
}

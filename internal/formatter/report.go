// Package formatter renders run reports as aligned markdown tables.
package formatter

import (
	"strings"

	"microharvest/internal/models"

	"github.com/mattn/go-runewidth"
)

// Column limits.
const (
	maxTitleWidth = 60
	minColWidth   = 3
	ellipsis      = "…"
	changedLayout = "2006-01-02"
)

// RenderFailures renders one row per abandoned entry.
func RenderFailures(reports []models.FailureReport) string {
	rows := make([][]string, 0, len(reports))

	for _, r := range reports {
		rows = append(rows, []string{r.EntryID, string(r.Reason), truncate(r.Title), r.EntryURL, r.Detail})
	}

	return Table([]string{"ID", "Reason", "Title", "Entry URL", "Detail"}, rows)
}

// RenderEntries renders the listed catalog entries.
func RenderEntries(entries []models.EntryDescriptor) string {
	rows := make([][]string, 0, len(entries))

	for _, e := range entries {
		changed := ""
		if !e.ChangedAt.IsZero() {
			changed = e.ChangedAt.Format(changedLayout)
		}

		rows = append(rows, []string{e.ID, e.IDNo, changed, truncate(e.Title)})
	}

	return Table([]string{"ID", "IDNo", "Changed", "Title"}, rows)
}

// Table renders a markdown table whose columns are padded to their display width.
func Table(header []string, rows [][]string) string {
	colCount := len(header)

	colWidths := make([]int, colCount)

	for _, row := range append([][]string{header}, rows...) {
		for i := 0; i < len(row) && i < colCount; i++ {
			if width := runewidth.StringWidth(cell(row[i])); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	for i := range colWidths {
		colWidths[i] = max(colWidths[i], minColWidth)
	}

	var sb strings.Builder

	writeRow(&sb, header, colWidths, false)
	writeRow(&sb, nil, colWidths, true)

	for _, row := range rows {
		writeRow(&sb, row, colWidths, false)
	}

	return sb.String()
}

func writeRow(sb *strings.Builder, row []string, colWidths []int, separator bool) {
	sb.WriteString("|")

	for j, width := range colWidths {
		sb.WriteString(" ")

		if separator {
			sb.WriteString(strings.Repeat("-", width))
		} else {
			content := ""
			if j < len(row) {
				content = cell(row[j])
			}

			sb.WriteString(runewidth.FillRight(content, width))
		}

		sb.WriteString(" |")
	}

	sb.WriteString("\n")
}

// cell flattens a value so it cannot break the table.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")

	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	return runewidth.Truncate(s, maxTitleWidth, ellipsis)
}

package formatter

import (
	"strings"
	"testing"
	"time"

	"microharvest/internal/models"

	"github.com/mattn/go-runewidth"
)

func TestTable(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		rows     [][]string
		expected string
	}{
		{
			name:   "Basic table formatting",
			header: []string{"Header 1", "Header 2"},
			rows:   [][]string{{"val 1", "val 2"}},
			expected: `| Header 1 | Header 2 |
| -------- | -------- |
| val 1    | val 2    |
`,
		},
		{
			name:   "Minimum column width",
			header: []string{"A", "B"},
			rows:   [][]string{{"x", "y"}},
			expected: `| A   | B   |
| --- | --- |
| x   | y   |
`,
		},
		{
			name:   "Missing cells padded",
			header: []string{"Col A", "Col B"},
			rows:   [][]string{{"only"}},
			expected: `| Col A | Col B |
| ----- | ----- |
| only  |       |
`,
		},
		{
			name:   "Pipes escaped and newlines flattened",
			header: []string{"Value"},
			rows:   [][]string{{"a|b\nc"}},
			expected: `| Value  |
| ------ |
| a\|b c |
`,
		},
		{
			name:   "Wide characters",
			header: []string{"Name", "X"},
			rows:   [][]string{{"日本", "1"}, {"abc", "2"}},
			expected: `| Name | X   |
| ---- | --- |
| 日本 | 1   |
| abc  | 2   |
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Table(tt.header, tt.rows)
			if got != tt.expected {
				t.Errorf("Table() mismatch\nGot:\n%s\nExpected:\n%s", got, tt.expected)
			}
		})
	}
}

func TestRenderFailures(t *testing.T) {
	reports := []models.FailureReport{
		{
			EntryID:  "9",
			EntryURL: "https://microdata.unhcr.org/index.php/catalog/9",
			Title:    strings.Repeat("Long title ", 10),
			Reason:   models.ReasonInvalidDate,
		},
	}

	out := RenderFailures(reports)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), out)
	}

	if !strings.Contains(lines[2], "invalid_date") {
		t.Errorf("reason missing from row: %s", lines[2])
	}

	if !strings.Contains(lines[2], "…") {
		t.Errorf("long title not truncated: %s", lines[2])
	}

	width := runewidth.StringWidth(lines[0])
	for i, line := range lines {
		if w := runewidth.StringWidth(line); w != width {
			t.Errorf("line %d width = %d, want %d", i, w, width)
		}
	}
}

func TestRenderEntries(t *testing.T) {
	entries := []models.EntryDescriptor{
		{ID: "187", IDNo: "UNHCR-AFG-2017", Title: "Survey", ChangedAt: time.Date(2019, time.December, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "272", IDNo: "UNHCR_PHL_2016", Title: "Profiling"},
	}

	expected := `| ID  | IDNo           | Changed    | Title     |
| --- | -------------- | ---------- | --------- |
| 187 | UNHCR-AFG-2017 | 2019-12-05 | Survey    |
| 272 | UNHCR_PHL_2016 |            | Profiling |
`

	if got := RenderEntries(entries); got != expected {
		t.Errorf("RenderEntries() mismatch\nGot:\n%s\nExpected:\n%s", got, expected)
	}
}

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/fincast/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	widths := LayoutRow(10, 3)
	if len(widths) != 3 || widths[0] != 4 || widths[1] != 3 || widths[2] != 3 {
		t.Fatalf("LayoutRow(10, 3) = %v, want [4 3 3]", widths)
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow(10, 0) should be nil")
	}
}

func TestMetricRowWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	row := MetricRow([]Metric{
		{Label: "Next month", Value: "$1,234.00"},
		{Label: "Confidence", Value: "87.0%", Note: "3 categories"},
		{Label: "History", Value: "42"},
	}, 61)

	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 61 {
			t.Errorf("line %d width = %d, want 61", i, w)
		}
	}
	if !strings.Contains(row, "3 categories") {
		t.Error("note missing from rendered row")
	}
}

func TestTabs(t *testing.T) {
	if TabIdxByKey('a') != 1 || TabIdxByKey('z') != -1 {
		t.Fatal("TabIdxByKey mismatch")
	}
	bar := RenderTabBar(0)
	if !strings.Contains(bar, "Forecast") || !strings.Contains(bar, "ccuracy") {
		t.Errorf("tab bar = %q", bar)
	}
}

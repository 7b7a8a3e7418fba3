package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotSeriesLineCount(t *testing.T) {
	var buf bytes.Buffer
	series := []Series{
		{Name: "Accuracy", Values: []float64{50, 60, 70, 80, 90}},
		{Name: "N Level", Values: []float64{1, 1, 2, 2, 3}},
	}
	if err := PlotSeries(&buf, "Curves", series, 20, 6); err != nil {
		t.Fatalf("plot series: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// title + 2 range lines + 6 plot rows.
	if len(lines) != 9 {
		t.Fatalf("expected 9 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Curves" {
		t.Fatalf("first line = %q, want title", lines[0])
	}
	if !strings.Contains(lines[1], "Accuracy: min=50.00 max=90.00") {
		t.Fatalf("range line = %q", lines[1])
	}
	if !strings.Contains(lines[3], axisLabelTop) {
		t.Fatalf("top plot row missing axis label: %q", lines[3])
	}
}

func TestPlotSeriesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "Nothing", []Series{{Name: "empty"}}, 20, 4); err != nil {
		t.Fatalf("plot series: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80); got != 80-6 {
		t.Fatalf("width for 80 = %d, want %d", got, 80-6)
	}
	if got := PlotWidthFor(5); got != minPlotWidth {
		t.Fatalf("narrow width = %d, want %d", got, minPlotWidth)
	}
}

func TestResample(t *testing.T) {
	down := resample([]float64{1, 2, 3, 4}, 2)
	if len(down) != 2 || down[0] != 1.5 || down[1] != 3.5 {
		t.Fatalf("downsample = %v", down)
	}
	up := resample([]float64{0, 10}, 3)
	if len(up) != 3 || up[0] != 0 || up[1] != 5 || up[2] != 10 {
		t.Fatalf("upsample = %v", up)
	}
	same := resample([]float64{7}, 3)
	if len(same) != 3 || same[0] != 7 || same[2] != 7 {
		t.Fatalf("constant upsample = %v", same)
	}
}

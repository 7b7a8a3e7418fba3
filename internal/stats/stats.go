// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"

	"github.com/verte-zerg/nback/internal/model"
)

// AverageAccuracy returns the mean combined accuracy across sessions.
func AverageAccuracy(sessions []model.SessionAggregate) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sessions {
		sum += s.Accuracy
	}
	return sum / float64(len(sessions))
}

// BestAccuracy returns the highest combined accuracy across sessions.
func BestAccuracy(sessions []model.SessionAggregate) float64 {
	best := 0.0
	for _, s := range sessions {
		if s.Accuracy > best {
			best = s.Accuracy
		}
	}
	return best
}

// MaxNLevel returns the highest N level reached across sessions.
func MaxNLevel(sessions []model.SessionAggregate) int {
	maxN := 0
	for _, s := range sessions {
		if s.NLevel > maxN {
			maxN = s.NLevel
		}
	}
	return maxN
}

// AverageResponseMs returns the mean of per-session average response times,
// skipping sessions where no response was ever made.
func AverageResponseMs(sessions []model.SessionAggregate) float64 {
	var sum float64
	var count int
	for _, s := range sessions {
		if s.AvgRTMs <= 0 {
			continue
		}
		sum += s.AvgRTMs
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// ModalityAccuracy computes accuracy from aggregated modality counts.
func ModalityAccuracy(agg model.ModalityAggregate) float64 {
	if agg.ScoredTrials == 0 {
		return 0
	}
	return float64(agg.Hits+agg.CorrectRejections) / float64(agg.ScoredTrials)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// RenderSummary prints a summary for the provided sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Avg Accuracy: %.1f%%", AverageAccuracy(sessions)*100),
		fmt.Sprintf("Best Accuracy: %.1f%%", BestAccuracy(sessions)*100),
		fmt.Sprintf("Max N: %d", MaxNLevel(sessions)),
		fmt.Sprintf("Avg Response: %.0f ms", AverageResponseMs(sessions)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderModalityTable prints aggregated signal-detection counts per channel.
func RenderModalityTable(w io.Writer, aggs []model.ModalityAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No modality stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Modality"); err != nil {
		return err
	}
	headers := []string{"Modality", "Accuracy", "Hits", "Misses", "False Alarms", "Correct Rej.", "Matches", "Scored"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, []string{
			agg.Modality,
			fmt.Sprintf("%.1f%%", ModalityAccuracy(agg)*100),
			fmt.Sprintf("%d", agg.Hits),
			fmt.Sprintf("%d", agg.Misses),
			fmt.Sprintf("%d", agg.FalseAlarms),
			fmt.Sprintf("%d", agg.CorrectRejections),
			fmt.Sprintf("%d", agg.ActualMatches),
			fmt.Sprintf("%d", agg.ScoredTrials),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCurves prints accuracy and N-level learning curves.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window int) error {
	return RenderCurvesWithSize(w, sessions, window, 0, 10, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	accs := make([]float64, len(sessions))
	levels := make([]float64, len(sessions))
	for i, s := range sessions {
		accs[i] = s.Accuracy * 100
		levels[i] = float64(s.NLevel)
	}
	accs = MovingAverage(accs, window)

	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Learning Curves", []Series{
		{Name: "Accuracy", Values: accs},
		{Name: "N Level", Values: levels},
	}, width, height, useColor)
}

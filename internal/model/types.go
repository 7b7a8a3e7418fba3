// Package model defines shared data structures.
package model

import "time"

// GameMode selects which stimulus modalities are presented and scored.
type GameMode string

// Supported game modes.
const (
	ModeSingleVisual GameMode = "single-visual"
	ModeSingleAudio  GameMode = "single-audio"
	ModeDual         GameMode = "dual"
)

// ScoresVisual reports whether the mode scores the position channel.
func (m GameMode) ScoresVisual() bool {
	return m == ModeSingleVisual || m == ModeDual
}

// ScoresAudio reports whether the mode scores the letter channel.
func (m GameMode) ScoresAudio() bool {
	return m == ModeSingleAudio || m == ModeDual
}

// Valid reports whether the mode is one of the supported modes.
func (m GameMode) Valid() bool {
	switch m {
	case ModeSingleVisual, ModeSingleAudio, ModeDual:
		return true
	}
	return false
}

// Config defines one session's settings. Frozen once a session starts.
type Config struct {
	Mode               GameMode
	NLevel             int
	NumTrials          int
	StimulusDurationMs int
	AudioEnabled       bool
}

// Trial records one presented stimulus pair and the player's responses to it.
// VisualMatch and AudioMatch are ground truth; they are always false for
// trial indices below NLevel, where no back-reference exists.
type Trial struct {
	Index          int
	Position       int
	Letter         rune
	VisualMatch    bool
	AudioMatch     bool
	VisualResponse bool
	AudioResponse  bool
	ResponseTimeMs int64
	Responded      bool
}

// ModalityStats holds signal-detection counts for one channel of a session.
type ModalityStats struct {
	ActualMatches     int
	Hits              int
	Misses            int
	FalseAlarms       int
	CorrectRejections int
	ScoredTrials      int
}

// Accuracy returns (hits + correct rejections) / scored trials, or 0 when no
// trials were scored.
func (s ModalityStats) Accuracy() float64 {
	if s.ScoredTrials == 0 {
		return 0
	}
	acc := float64(s.Hits+s.CorrectRejections) / float64(s.ScoredTrials)
	if acc < 0 {
		return 0
	}
	if acc > 1 {
		return 1
	}
	return acc
}

// GameSession is the immutable summary of a completed session.
type GameSession struct {
	StartedAt             time.Time
	EndedAt               time.Time
	Mode                  GameMode
	NLevel                int
	NumTrials             int
	StimulusDurationMs    int
	AudioEnabled          bool
	Visual                ModalityStats
	Audio                 ModalityStats
	Accuracy              float64
	VisualAccuracy        float64
	AudioAccuracy         float64
	AverageResponseTimeMs float64
	ResponseCount         int
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Mode       GameMode
	NLevel     int
	NumTrials  int
	Accuracy   float64
	AvgRTMs    float64
	DurationMs int64
}

// ModalityAggregate aggregates signal-detection counts across sessions.
type ModalityAggregate struct {
	Modality          string
	ActualMatches     int
	Hits              int
	Misses            int
	FalseAlarms       int
	CorrectRejections int
	ScoredTrials      int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode        string
	Since       *time.Time
	Last        int
	CurveWindow int
}

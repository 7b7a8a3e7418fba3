package engine

import (
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

// Aggregate computes the immutable session summary from a completed trial
// list. It reads only its arguments, so calling it twice over the same
// trials yields identical output.
func Aggregate(trials []model.Trial, cfg model.Config, startedAt, endedAt time.Time) model.GameSession {
	session := model.GameSession{
		StartedAt:          startedAt,
		EndedAt:            endedAt,
		Mode:               cfg.Mode,
		NLevel:             cfg.NLevel,
		NumTrials:          len(trials),
		StimulusDurationMs: cfg.StimulusDurationMs,
		AudioEnabled:       cfg.AudioEnabled,
	}

	var responseSumMs int64
	for _, trial := range trials {
		if cfg.Mode.ScoresVisual() {
			tally(&session.Visual, ClassifyTrial(trial.Index, cfg.NLevel, trial.VisualMatch, trial.VisualResponse), trial.VisualMatch)
		}
		if cfg.Mode.ScoresAudio() {
			tally(&session.Audio, ClassifyTrial(trial.Index, cfg.NLevel, trial.AudioMatch, trial.AudioResponse), trial.AudioMatch)
		}
		if trial.Responded {
			responseSumMs += trial.ResponseTimeMs
			session.ResponseCount++
		}
	}

	session.VisualAccuracy = session.Visual.Accuracy()
	session.AudioAccuracy = session.Audio.Accuracy()
	session.Accuracy = combinedAccuracy(cfg.Mode, session.Visual, session.Audio)
	if session.ResponseCount > 0 {
		session.AverageResponseTimeMs = float64(responseSumMs) / float64(session.ResponseCount)
	}
	return session
}

func tally(stats *model.ModalityStats, outcome Outcome, match bool) {
	if outcome == OutcomeUnscored {
		return
	}
	stats.ScoredTrials++
	if match {
		stats.ActualMatches++
	}
	switch outcome {
	case OutcomeHit:
		stats.Hits++
	case OutcomeMiss:
		stats.Misses++
	case OutcomeFalseAlarm:
		stats.FalseAlarms++
	case OutcomeCorrectRejection:
		stats.CorrectRejections++
	}
}

// combinedAccuracy averages the scored modality accuracies with equal
// weight. Modalities with no scored trials drop out of the average rather
// than pulling it toward zero.
func combinedAccuracy(mode model.GameMode, visual, audio model.ModalityStats) float64 {
	var sum float64
	var count int
	if mode.ScoresVisual() && visual.ScoredTrials > 0 {
		sum += visual.Accuracy()
		count++
	}
	if mode.ScoresAudio() && audio.ScoredTrials > 0 {
		sum += audio.Accuracy()
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

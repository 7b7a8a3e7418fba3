package engine

import (
	"fmt"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

// State is the session lifecycle state.
type State int

// Session states.
const (
	StateSetup State = iota
	StatePlaying
	StatePaused
	StateResults
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateResults:
		return "results"
	default:
		return "unknown"
	}
}

// Modality identifies a response channel.
type Modality int

// Response channels.
const (
	ModalityVisual Modality = iota
	ModalityAudio
)

// TimerToken is the handle for one scheduled trial advance. Every schedule
// bumps the engine's sequence counter, so a token held across a pause,
// reset, or session end no longer matches and its advance is dropped.
type TimerToken struct {
	Seq   uint64
	Delay time.Duration
}

// Practice session constants.
const (
	PracticeNLevel    = 1
	PracticeNumTrials = 8
)

// Engine is the game state machine. It owns the trial counter, the stimulus
// history, and the only mutable session state. All timing is injected: the
// caller passes the current time and schedules trial advances from the
// TimerTokens the engine hands out.
type Engine struct {
	cfg      model.Config
	adaptive AdaptivePolicy
	gen      *Generator

	state      State
	history    History
	trials     []model.Trial
	startedAt  time.Time
	stimulusAt time.Time
	remaining  time.Duration
	timerSeq   uint64
	practice   bool
	session    *model.GameSession
}

// New returns an Engine in setup state with the given configuration.
func New(cfg model.Config, adaptive AdaptivePolicy, gen *Generator) *Engine {
	if gen == nil {
		gen = NewGenerator()
	}
	return &Engine{cfg: cfg, adaptive: adaptive, gen: gen}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Config returns the session configuration.
func (e *Engine) Config() model.Config {
	return e.cfg
}

// IsPractice reports whether the running or finished session is a practice
// session.
func (e *Engine) IsPractice() bool {
	return e.practice
}

// CurrentTrial returns the index of the trial in progress, or -1 when no
// trial is running.
func (e *Engine) CurrentTrial() int {
	if e.state != StatePlaying && e.state != StatePaused {
		return -1
	}
	return len(e.trials) - 1
}

// CurrentPosition returns the grid cell of the trial in progress.
func (e *Engine) CurrentPosition() int {
	if idx := e.CurrentTrial(); idx >= 0 {
		return e.trials[idx].Position
	}
	return -1
}

// CurrentLetter returns the letter of the trial in progress, or 0.
func (e *Engine) CurrentLetter() rune {
	if idx := e.CurrentTrial(); idx >= 0 {
		return e.trials[idx].Letter
	}
	return 0
}

// IsWaitingForResponse reports whether a trial's response window is open.
func (e *Engine) IsWaitingForResponse() bool {
	return e.state == StatePlaying && len(e.trials) > 0
}

// Responded reports whether a response was already made on the given channel
// during the trial in progress.
func (e *Engine) Responded(m Modality) bool {
	idx := e.CurrentTrial()
	if idx < 0 {
		return false
	}
	if m == ModalityVisual {
		return e.trials[idx].VisualResponse
	}
	return e.trials[idx].AudioResponse
}

// Session returns the aggregated results, or nil before the session ends.
func (e *Engine) Session() *model.GameSession {
	return e.session
}

// Trials returns a copy of the recorded trials.
func (e *Engine) Trials() []model.Trial {
	out := make([]model.Trial, len(e.trials))
	copy(out, e.trials)
	return out
}

// SetMode sets the game mode. Valid only in setup.
func (e *Engine) SetMode(mode model.GameMode) error {
	if err := e.requireSetup("mode"); err != nil {
		return err
	}
	e.cfg.Mode = mode
	return nil
}

// SetNLevel sets the back-reference distance. Valid only in setup.
func (e *Engine) SetNLevel(n int) error {
	if err := e.requireSetup("n level"); err != nil {
		return err
	}
	e.cfg.NLevel = n
	return nil
}

// SetNumTrials sets the trial count. Valid only in setup.
func (e *Engine) SetNumTrials(n int) error {
	if err := e.requireSetup("trial count"); err != nil {
		return err
	}
	e.cfg.NumTrials = n
	return nil
}

// SetStimulusDurationMs sets the per-trial window. Valid only in setup.
func (e *Engine) SetStimulusDurationMs(ms int) error {
	if err := e.requireSetup("stimulus duration"); err != nil {
		return err
	}
	e.cfg.StimulusDurationMs = ms
	return nil
}

// SetAudioEnabled toggles letter presentation. Valid only in setup.
func (e *Engine) SetAudioEnabled(enabled bool) error {
	if err := e.requireSetup("audio"); err != nil {
		return err
	}
	e.cfg.AudioEnabled = enabled
	return nil
}

func (e *Engine) requireSetup(what string) error {
	if e.state != StateSetup {
		return fmt.Errorf("cannot change %s outside setup (state: %s)", what, e.state)
	}
	return nil
}

// StartGame freezes the configuration and begins the first trial. With zero
// trials configured the session completes immediately with empty statistics.
// The returned token schedules the first trial's advance; it is zero when
// the session is already over.
func (e *Engine) StartGame(now time.Time) (TimerToken, error) {
	if e.state != StateSetup {
		return TimerToken{}, fmt.Errorf("cannot start game in state %s", e.state)
	}
	if !e.cfg.Mode.Valid() {
		return TimerToken{}, fmt.Errorf("invalid game mode %q", e.cfg.Mode)
	}
	if e.cfg.NLevel < 1 {
		return TimerToken{}, fmt.Errorf("n level must be >= 1, got %d", e.cfg.NLevel)
	}
	if e.cfg.NumTrials < 0 {
		return TimerToken{}, fmt.Errorf("trial count must be >= 0, got %d", e.cfg.NumTrials)
	}
	if e.cfg.StimulusDurationMs < 0 {
		return TimerToken{}, fmt.Errorf("stimulus duration must be >= 0, got %d", e.cfg.StimulusDurationMs)
	}

	e.startedAt = now
	e.trials = e.trials[:0]
	e.history = History{}
	e.session = nil

	if e.cfg.NumTrials == 0 {
		e.finish(now)
		return TimerToken{}, nil
	}
	e.state = StatePlaying
	return e.beginTrial(now), nil
}

// StartPractice pins the practice configuration and starts immediately.
func (e *Engine) StartPractice(now time.Time) (TimerToken, error) {
	if e.state != StateSetup {
		return TimerToken{}, fmt.Errorf("cannot start practice in state %s", e.state)
	}
	e.practice = true
	e.cfg.Mode = model.ModeDual
	e.cfg.NLevel = PracticeNLevel
	e.cfg.NumTrials = PracticeNumTrials
	if e.cfg.StimulusDurationMs <= 0 {
		e.cfg.StimulusDurationMs = 2500
	}
	return e.StartGame(now)
}

// HandleResponse records a match response on the given channel for the trial
// in progress. The first response per channel per trial wins; repeats are
// no-ops. Responses outside an open response window are dropped.
func (e *Engine) HandleResponse(m Modality, now time.Time) {
	if e.state != StatePlaying || len(e.trials) == 0 {
		return
	}
	trial := &e.trials[len(e.trials)-1]
	switch m {
	case ModalityVisual:
		if trial.VisualResponse {
			return
		}
		trial.VisualResponse = true
	case ModalityAudio:
		if trial.AudioResponse {
			return
		}
		trial.AudioResponse = true
	default:
		return
	}
	if !trial.Responded {
		trial.Responded = true
		trial.ResponseTimeMs = now.Sub(e.stimulusAt).Milliseconds()
	}
}

// AdvanceTrial closes the current trial's response window and either begins
// the next trial or completes the session. A token that no longer matches
// the engine's sequence is stale (the session was paused, reset, or already
// finished) and is dropped.
func (e *Engine) AdvanceTrial(token TimerToken, now time.Time) (TimerToken, bool) {
	if e.state != StatePlaying || token.Seq != e.timerSeq {
		return TimerToken{}, false
	}
	if len(e.trials) >= e.cfg.NumTrials {
		e.finish(now)
		return TimerToken{}, false
	}
	return e.beginTrial(now), true
}

// Pause suspends the trial clock, keeping trial and history state intact.
// The outstanding timer token is invalidated; the remaining response window
// is preserved for Resume.
func (e *Engine) Pause(now time.Time) {
	if e.state != StatePlaying {
		return
	}
	elapsed := now.Sub(e.stimulusAt)
	e.remaining = e.trialDuration() - elapsed
	if e.remaining < 0 {
		e.remaining = 0
	}
	e.timerSeq++
	e.state = StatePaused
}

// Resume continues the paused trial with its remaining response window. The
// stimulus is not re-presented and the trial counter does not move.
func (e *Engine) Resume(now time.Time) TimerToken {
	if e.state != StatePaused {
		return TimerToken{}
	}
	e.state = StatePlaying
	e.stimulusAt = now.Add(e.remaining - e.trialDuration())
	return e.schedule(e.remaining)
}

// ResetGame returns to setup, discarding trial data. The configuration is
// preserved; after a completed scored session the adaptive policy may adjust
// the N level for the next run.
func (e *Engine) ResetGame() {
	if e.state == StateResults && e.session != nil && !e.practice {
		e.cfg.NLevel = e.adaptive.ProposeNextLevel(e.cfg.NLevel, e.session.Accuracy)
	}
	e.timerSeq++
	e.state = StateSetup
	e.trials = nil
	e.history = History{}
	e.session = nil
	e.practice = false
	e.remaining = 0
}

func (e *Engine) beginTrial(now time.Time) TimerToken {
	s := e.gen.Next(&e.history, e.cfg.NLevel)
	e.trials = append(e.trials, model.Trial{
		Index:       len(e.trials),
		Position:    s.Position,
		Letter:      s.Letter,
		VisualMatch: s.VisualMatch,
		AudioMatch:  s.AudioMatch,
	})
	e.stimulusAt = now
	return e.schedule(e.trialDuration())
}

func (e *Engine) finish(now time.Time) {
	e.timerSeq++
	session := Aggregate(e.trials, e.cfg, e.startedAt, now)
	e.session = &session
	e.state = StateResults
}

func (e *Engine) schedule(d time.Duration) TimerToken {
	e.timerSeq++
	return TimerToken{Seq: e.timerSeq, Delay: d}
}

func (e *Engine) trialDuration() time.Duration {
	return time.Duration(e.cfg.StimulusDurationMs) * time.Millisecond
}

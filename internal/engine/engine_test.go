package engine

import (
	"testing"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

func newTestEngine(cfg model.Config) *Engine {
	return New(cfg, AdaptivePolicy{}, NewGeneratorWithSeed(1))
}

func TestStartGameZeroTrials(t *testing.T) {
	cfg := dualConfig(2, 0)
	e := newTestEngine(cfg)
	token, err := e.StartGame(time.Unix(0, 0))
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if token.Seq != 0 {
		t.Fatalf("expected zero token for empty session, got seq %d", token.Seq)
	}
	if e.State() != StateResults {
		t.Fatalf("state = %s, want results", e.State())
	}
	session := e.Session()
	if session == nil {
		t.Fatalf("expected a session after immediate completion")
	}
	if session.Accuracy != 0 || session.NumTrials != 0 {
		t.Fatalf("empty session: accuracy=%v trials=%d", session.Accuracy, session.NumTrials)
	}
}

func TestStartGameValidation(t *testing.T) {
	base := time.Unix(0, 0)
	cases := []model.Config{
		{Mode: "bogus", NLevel: 2, NumTrials: 10},
		{Mode: model.ModeDual, NLevel: 0, NumTrials: 10},
		{Mode: model.ModeDual, NLevel: 2, NumTrials: -1},
		{Mode: model.ModeDual, NLevel: 2, NumTrials: 10, StimulusDurationMs: -5},
	}
	for i, cfg := range cases {
		e := newTestEngine(cfg)
		if _, err := e.StartGame(base); err == nil {
			t.Fatalf("case %d: expected error for config %+v", i, cfg)
		}
		if e.State() != StateSetup {
			t.Fatalf("case %d: state = %s after rejected start", i, e.State())
		}
	}
}

func TestConfigCommandsOnlyInSetup(t *testing.T) {
	e := newTestEngine(dualConfig(2, 5))
	if err := e.SetNLevel(3); err != nil {
		t.Fatalf("set n level in setup: %v", err)
	}
	if _, err := e.StartGame(time.Unix(0, 0)); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := e.SetNLevel(4); err == nil {
		t.Fatalf("expected error changing n level while playing")
	}
	if err := e.SetMode(model.ModeSingleAudio); err == nil {
		t.Fatalf("expected error changing mode while playing")
	}
	if e.Config().NLevel != 3 {
		t.Fatalf("n level = %d, want 3", e.Config().NLevel)
	}
}

func TestSessionWalkthrough(t *testing.T) {
	cfg := dualConfig(1, 3)
	e := newTestEngine(cfg)
	now := time.Unix(0, 0)
	token, err := e.StartGame(now)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if e.State() != StatePlaying {
		t.Fatalf("state = %s, want playing", e.State())
	}
	if e.CurrentTrial() != 0 {
		t.Fatalf("current trial = %d, want 0", e.CurrentTrial())
	}
	if token.Delay != 2500*time.Millisecond {
		t.Fatalf("trial delay = %v, want 2.5s", token.Delay)
	}
	if e.CurrentPosition() < 0 || e.CurrentLetter() == 0 {
		t.Fatalf("no stimulus presented")
	}

	for trial := 0; trial < cfg.NumTrials; trial++ {
		now = now.Add(token.Delay)
		next, advanced := e.AdvanceTrial(token, now)
		if trial < cfg.NumTrials-1 {
			if !advanced {
				t.Fatalf("trial %d: expected advance", trial)
			}
			if e.CurrentTrial() != trial+1 {
				t.Fatalf("current trial = %d, want %d", e.CurrentTrial(), trial+1)
			}
			token = next
			continue
		}
		if advanced {
			t.Fatalf("final trial advanced instead of finishing")
		}
	}
	if e.State() != StateResults {
		t.Fatalf("state = %s, want results", e.State())
	}
	if e.Session() == nil {
		t.Fatalf("no session after completion")
	}
	if e.Session().NumTrials != cfg.NumTrials {
		t.Fatalf("session trials = %d, want %d", e.Session().NumTrials, cfg.NumTrials)
	}
}

func TestStaleTokenDropped(t *testing.T) {
	e := newTestEngine(dualConfig(1, 5))
	now := time.Unix(0, 0)
	token, err := e.StartGame(now)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	next, advanced := e.AdvanceTrial(token, now.Add(token.Delay))
	if !advanced {
		t.Fatalf("fresh token should advance")
	}
	// Replaying the consumed token must not advance again.
	if _, ok := e.AdvanceTrial(token, now.Add(2*token.Delay)); ok {
		t.Fatalf("stale token advanced the trial")
	}
	if e.CurrentTrial() != 1 {
		t.Fatalf("current trial = %d, want 1", e.CurrentTrial())
	}
	_ = next
}

func TestPauseInvalidatesTimerAndKeepsTrial(t *testing.T) {
	e := newTestEngine(dualConfig(1, 5))
	now := time.Unix(0, 0)
	token, err := e.StartGame(now)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	trialBefore := e.CurrentTrial()
	posBefore := e.CurrentPosition()

	now = now.Add(time.Second)
	e.Pause(now)
	if e.State() != StatePaused {
		t.Fatalf("state = %s, want paused", e.State())
	}
	if _, ok := e.AdvanceTrial(token, now.Add(2*time.Second)); ok {
		t.Fatalf("timer fired against paused session")
	}

	now = now.Add(10 * time.Second)
	resumed := e.Resume(now)
	if e.State() != StatePlaying {
		t.Fatalf("state = %s, want playing", e.State())
	}
	if e.CurrentTrial() != trialBefore {
		t.Fatalf("resume advanced trial: %d -> %d", trialBefore, e.CurrentTrial())
	}
	if e.CurrentPosition() != posBefore {
		t.Fatalf("resume re-drew the stimulus")
	}
	want := 1500 * time.Millisecond
	if resumed.Delay != want {
		t.Fatalf("remaining window = %v, want %v", resumed.Delay, want)
	}
	if resumed.Seq == token.Seq {
		t.Fatalf("resume reissued the invalidated token")
	}
}

func TestHandleResponseIdempotent(t *testing.T) {
	e := newTestEngine(dualConfig(1, 5))
	now := time.Unix(0, 0)
	if _, err := e.StartGame(now); err != nil {
		t.Fatalf("start game: %v", err)
	}
	e.HandleResponse(ModalityVisual, now.Add(400*time.Millisecond))
	trials := e.Trials()
	first := trials[len(trials)-1]
	if !first.VisualResponse || first.ResponseTimeMs != 400 {
		t.Fatalf("first response not recorded: %+v", first)
	}

	e.HandleResponse(ModalityVisual, now.Add(900*time.Millisecond))
	trials = e.Trials()
	second := trials[len(trials)-1]
	if second.ResponseTimeMs != 400 {
		t.Fatalf("repeat response changed response time: %d", second.ResponseTimeMs)
	}

	// A later audio response keeps the first response time.
	e.HandleResponse(ModalityAudio, now.Add(1200*time.Millisecond))
	trials = e.Trials()
	third := trials[len(trials)-1]
	if !third.AudioResponse {
		t.Fatalf("audio response not recorded")
	}
	if third.ResponseTimeMs != 400 {
		t.Fatalf("audio response overwrote response time: %d", third.ResponseTimeMs)
	}
}

func TestHandleResponseDroppedOutsideWindow(t *testing.T) {
	e := newTestEngine(dualConfig(1, 5))
	e.HandleResponse(ModalityVisual, time.Unix(0, 0))
	if len(e.Trials()) != 0 {
		t.Fatalf("response before start created a trial")
	}

	now := time.Unix(0, 0)
	if _, err := e.StartGame(now); err != nil {
		t.Fatalf("start game: %v", err)
	}
	e.Pause(now.Add(time.Second))
	e.HandleResponse(ModalityVisual, now.Add(2*time.Second))
	trials := e.Trials()
	if trials[len(trials)-1].VisualResponse {
		t.Fatalf("response accepted while paused")
	}
}

func TestResetAppliesAdaptiveLevel(t *testing.T) {
	cfg := dualConfig(2, 10)
	e := New(cfg, DefaultAdaptivePolicy(), NewGeneratorWithSeed(3))
	now := time.Unix(0, 0)
	token, err := e.StartGame(now)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	// Respond perfectly on both channels.
	for e.State() == StatePlaying {
		trials := e.Trials()
		current := trials[len(trials)-1]
		if current.VisualMatch {
			e.HandleResponse(ModalityVisual, now.Add(300*time.Millisecond))
		}
		if current.AudioMatch {
			e.HandleResponse(ModalityAudio, now.Add(350*time.Millisecond))
		}
		now = now.Add(token.Delay)
		token, _ = e.AdvanceTrial(token, now)
	}
	if e.State() != StateResults {
		t.Fatalf("state = %s, want results", e.State())
	}
	if e.Session().Accuracy != 1.0 {
		t.Fatalf("accuracy = %v, want 1.0", e.Session().Accuracy)
	}

	e.ResetGame()
	if e.State() != StateSetup {
		t.Fatalf("state = %s, want setup", e.State())
	}
	if e.Config().NLevel != cfg.NLevel+1 {
		t.Fatalf("n level = %d, want %d", e.Config().NLevel, cfg.NLevel+1)
	}
	if e.Session() != nil {
		t.Fatalf("session survived reset")
	}
	if len(e.Trials()) != 0 {
		t.Fatalf("trials survived reset")
	}
	if e.Config().NumTrials != cfg.NumTrials || e.Config().Mode != cfg.Mode {
		t.Fatalf("reset changed configuration: %+v", e.Config())
	}
}

func TestPracticePinsConfiguration(t *testing.T) {
	e := New(model.Config{StimulusDurationMs: 2000}, DefaultAdaptivePolicy(), NewGeneratorWithSeed(4))
	token, err := e.StartPractice(time.Unix(0, 0))
	if err != nil {
		t.Fatalf("start practice: %v", err)
	}
	if !e.IsPractice() {
		t.Fatalf("practice flag not set")
	}
	cfg := e.Config()
	if cfg.Mode != model.ModeDual || cfg.NLevel != PracticeNLevel || cfg.NumTrials != PracticeNumTrials {
		t.Fatalf("practice config not pinned: %+v", cfg)
	}
	if token.Delay != 2*time.Second {
		t.Fatalf("practice kept configured duration: %v", token.Delay)
	}

	// Practice results never feed the adaptive controller.
	now := time.Unix(0, 0)
	for e.State() == StatePlaying {
		now = now.Add(token.Delay)
		token, _ = e.AdvanceTrial(token, now)
	}
	e.ResetGame()
	if e.Config().NLevel != PracticeNLevel {
		t.Fatalf("practice session adjusted n level to %d", e.Config().NLevel)
	}
	if e.IsPractice() {
		t.Fatalf("practice flag survived reset")
	}
}

package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/nback/internal/engine"
	"github.com/verte-zerg/nback/internal/model"
)

func testEngine(t *testing.T, numTrials int) *engine.Engine {
	t.Helper()
	cfg := model.Config{
		Mode:               model.ModeDual,
		NLevel:             2,
		NumTrials:          numTrials,
		StimulusDurationMs: 2500,
		AudioEnabled:       true,
	}
	return engine.New(cfg, engine.DefaultAdaptivePolicy(), engine.NewGeneratorWithSeed(1))
}

func TestRenderFooterFormats(t *testing.T) {
	eng := testEngine(t, 20)
	if _, err := eng.StartGame(time.Unix(0, 0)); err != nil {
		t.Fatalf("start game: %v", err)
	}
	m := &Model{engine: eng, lastAcc: 0.724, hasLast: true, allAcc: 0.8, allSessions: 2}
	out := m.renderFooter()
	for _, want := range []string{"Trial 1/20", "N=2", "Last 72.4%", "All-time 80.0%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}

func TestRenderSetupShowsConfig(t *testing.T) {
	m := &Model{engine: testEngine(t, 20)}
	out := m.renderSetup()
	for _, want := range []string{"dual", "N=2", "20 trials", "enter"} {
		if !strings.Contains(out, want) {
			t.Fatalf("setup view missing %q:\n%s", want, out)
		}
	}
}

func TestTimeoutDrivesSessionToResults(t *testing.T) {
	eng := testEngine(t, 2)
	m := NewModel(eng, nil, engine.DefaultAdaptivePolicy())
	if _, cmd := m.startSession(); cmd == nil {
		t.Fatalf("expected a scheduled advance after start")
	}

	// The engine's seq is 1 after the first schedule; replay timeouts
	// until the session completes.
	for seq := uint64(1); eng.State() == engine.StatePlaying; seq++ {
		m.handleTimeout(trialTimeoutMsg{seq: seq})
	}
	if eng.State() != engine.StateResults {
		t.Fatalf("state = %s, want results", eng.State())
	}
	if !m.saved {
		t.Fatalf("finishSession did not run")
	}
	if !m.hasLast {
		t.Fatalf("last accuracy not recorded")
	}
}

func TestStaleTimeoutIgnored(t *testing.T) {
	eng := testEngine(t, 5)
	m := NewModel(eng, nil, engine.DefaultAdaptivePolicy())
	if _, cmd := m.startSession(); cmd == nil {
		t.Fatalf("expected a scheduled advance after start")
	}
	before := eng.CurrentTrial()
	m.handleTimeout(trialTimeoutMsg{seq: 999})
	if eng.CurrentTrial() != before {
		t.Fatalf("stale timeout advanced the trial")
	}
}

func TestResultsViewShowsModalities(t *testing.T) {
	eng := testEngine(t, 2)
	m := NewModel(eng, nil, engine.DefaultAdaptivePolicy())
	m.startSession()
	for seq := uint64(1); eng.State() == engine.StatePlaying; seq++ {
		m.handleTimeout(trialTimeoutMsg{seq: seq})
	}
	out := m.renderResults()
	for _, want := range []string{"Session results", "Position", "Letter", "Accuracy"} {
		if !strings.Contains(out, want) {
			t.Fatalf("results view missing %q:\n%s", want, out)
		}
	}
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "nback.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleSession(n int, endedAt time.Time) model.GameSession {
	return model.GameSession{
		StartedAt:          endedAt.Add(-time.Minute),
		EndedAt:            endedAt,
		Mode:               model.ModeDual,
		NLevel:             n,
		NumTrials:          20,
		StimulusDurationMs: 2500,
		AudioEnabled:       true,
		Visual: model.ModalityStats{
			ActualMatches: 4, Hits: 3, Misses: 1, FalseAlarms: 2, CorrectRejections: 12, ScoredTrials: 18,
		},
		Audio: model.ModalityStats{
			ActualMatches: 5, Hits: 4, Misses: 1, FalseAlarms: 1, CorrectRejections: 12, ScoredTrials: 18,
		},
		Accuracy:              0.8,
		VisualAccuracy:        0.83,
		AudioAccuracy:         0.77,
		AverageResponseTimeMs: 512.5,
		ResponseCount:         9,
	}
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1000, 0).UTC()
	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := st.InsertSession(ctx, sampleSession(2+i, base.Add(time.Duration(i)*time.Hour)))
		if err != nil {
			t.Fatalf("insert session %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].SessionID != ids[0] || sessions[2].SessionID != ids[2] {
		t.Fatalf("sessions out of order: %+v", sessions)
	}
	if sessions[1].NLevel != 3 || sessions[1].Mode != model.ModeDual {
		t.Fatalf("unexpected session row: %+v", sessions[1])
	}

	since := base.Add(90 * time.Minute)
	filtered, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list filtered sessions: %v", err)
	}
	if len(filtered) != 1 || filtered[0].SessionID != ids[2] {
		t.Fatalf("since filter returned %+v", filtered)
	}
}

func TestListModalityAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1000, 0).UTC()
	var ids []int64
	for i := 0; i < 2; i++ {
		id, err := st.InsertSession(ctx, sampleSession(2, base.Add(time.Duration(i)*time.Hour)))
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}
	aggs, err := st.ListModalityAggregatesForSessions(ctx, ids)
	if err != nil {
		t.Fatalf("list aggregates: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected visual and audio aggregates, got %d", len(aggs))
	}
	byName := map[string]model.ModalityAggregate{}
	for _, agg := range aggs {
		byName[agg.Modality] = agg
	}
	visual := byName["visual"]
	if visual.Hits != 6 || visual.ScoredTrials != 36 {
		t.Fatalf("visual aggregate = %+v", visual)
	}
	audio := byName["audio"]
	if audio.FalseAlarms != 2 || audio.ActualMatches != 10 {
		t.Fatalf("audio aggregate = %+v", audio)
	}
}

func TestSingleModeInsertsOneModality(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	session := sampleSession(2, time.Unix(1000, 0).UTC())
	session.Mode = model.ModeSingleVisual
	id, err := st.InsertSession(ctx, session)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	aggs, err := st.ListModalityAggregatesForSessions(ctx, []int64{id})
	if err != nil {
		t.Fatalf("list aggregates: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Modality != "visual" {
		t.Fatalf("expected only visual aggregate, got %+v", aggs)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.GetPreference(ctx, PrefNLevel); err != nil || ok {
		t.Fatalf("expected missing preference, got ok=%v err=%v", ok, err)
	}
	if err := st.SetPreference(ctx, PrefNLevel, "3"); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	value, ok, err := st.GetPreference(ctx, PrefNLevel)
	if err != nil || !ok || value != "3" {
		t.Fatalf("get preference: value=%q ok=%v err=%v", value, ok, err)
	}
	if err := st.SetPreference(ctx, PrefNLevel, "4"); err != nil {
		t.Fatalf("overwrite preference: %v", err)
	}
	value, _, err = st.GetPreference(ctx, PrefNLevel)
	if err != nil || value != "4" {
		t.Fatalf("overwritten preference: value=%q err=%v", value, err)
	}
}

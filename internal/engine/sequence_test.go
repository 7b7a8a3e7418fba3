package engine

import "testing"

func TestMatchesBackScenario(t *testing.T) {
	// n=2 over positions [3,3,3,1,1]: only t=2 refers back to an equal value.
	positions := []int{3, 3, 3, 1, 1}
	want := []bool{false, false, true, false, false}
	var history []int
	for i, pos := range positions {
		got := MatchesBack(history, pos, 2)
		if got != want[i] {
			t.Fatalf("trial %d: match = %v, want %v", i, got, want[i])
		}
		history = append(history, pos)
	}
}

func TestMatchesBackWarmup(t *testing.T) {
	for n := 1; n <= 3; n++ {
		var history []int
		for i := 0; i < n; i++ {
			if MatchesBack(history, 4, n) {
				t.Fatalf("n=%d trial %d: warm-up trial reported a match", n, i)
			}
			history = append(history, 4)
		}
		if !MatchesBack(history, 4, n) {
			t.Fatalf("n=%d: expected match once history reaches n entries", n)
		}
	}
}

func TestMatchesBackInvalidLevel(t *testing.T) {
	if MatchesBack([]int{1, 2, 3}, 3, 0) {
		t.Fatalf("nLevel 0 must never match")
	}
	if MatchesBack([]int{1, 2, 3}, 3, -1) {
		t.Fatalf("negative nLevel must never match")
	}
}

func TestGeneratorDrawsValidStimuli(t *testing.T) {
	gen := NewGeneratorWithSeed(42)
	alphabet := map[rune]struct{}{}
	for _, r := range Alphabet {
		alphabet[r] = struct{}{}
	}
	var h History
	for i := 0; i < 200; i++ {
		s := gen.Next(&h, 2)
		if s.Position < 0 || s.Position >= GridCells {
			t.Fatalf("trial %d: position %d out of range", i, s.Position)
		}
		if _, ok := alphabet[s.Letter]; !ok {
			t.Fatalf("trial %d: letter %q not in alphabet", i, s.Letter)
		}
	}
	if h.Len() != 200 {
		t.Fatalf("history length = %d, want 200", h.Len())
	}
}

func TestGeneratorMatchFlagsConsistentWithHistory(t *testing.T) {
	const nLevel = 3
	gen := NewGeneratorWithSeed(7)
	var h History
	for i := 0; i < 500; i++ {
		s := gen.Next(&h, nLevel)
		if h.PositionAt(i) != s.Position || h.LetterAt(i) != s.Letter {
			t.Fatalf("trial %d: history entry does not echo the draw", i)
		}
		wantVisual := i >= nLevel && h.PositionAt(i-nLevel) == s.Position
		wantAudio := i >= nLevel && h.LetterAt(i-nLevel) == s.Letter
		if s.VisualMatch != wantVisual {
			t.Fatalf("trial %d: visual match = %v, want %v", i, s.VisualMatch, wantVisual)
		}
		if s.AudioMatch != wantAudio {
			t.Fatalf("trial %d: audio match = %v, want %v", i, s.AudioMatch, wantAudio)
		}
	}
}

func TestAlphabetHasTwelveDistinctLetters(t *testing.T) {
	if len(Alphabet) != 12 {
		t.Fatalf("alphabet size = %d, want 12", len(Alphabet))
	}
	seen := map[rune]struct{}{}
	for _, r := range Alphabet {
		if _, ok := seen[r]; ok {
			t.Fatalf("duplicate letter %q", r)
		}
		seen[r] = struct{}{}
	}
}

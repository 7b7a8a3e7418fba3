// Package engine implements the n-back trial generation, scoring, and
// session state machine.
package engine

import (
	"math/rand"
	"time"
)

// GridCells is the number of cells in the 3x3 stimulus grid.
const GridCells = 9

// Alphabet is the fixed letter set for the audio channel.
var Alphabet = []rune("BCDGHKLPQRTV")

// Stimulus is one generated position/letter pair with its ground-truth
// match flags against the history it was drawn into.
type Stimulus struct {
	Position    int
	Letter      rune
	VisualMatch bool
	AudioMatch  bool
}

// History is the append-only record of presented stimuli. Match lookups read
// exactly one entry, nLevel back; nothing ever mutates past entries.
type History struct {
	positions []int
	letters   []rune
}

// Len returns the number of recorded stimuli.
func (h *History) Len() int {
	return len(h.positions)
}

// PositionAt returns the position presented at trial index i.
func (h *History) PositionAt(i int) int {
	return h.positions[i]
}

// LetterAt returns the letter presented at trial index i.
func (h *History) LetterAt(i int) rune {
	return h.letters[i]
}

func (h *History) append(position int, letter rune) {
	h.positions = append(h.positions, position)
	h.letters = append(h.letters, letter)
}

// Generator produces randomized stimulus sequences.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a Generator seeded with the current time.
func NewGenerator() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewGeneratorWithSeed returns a deterministically seeded Generator.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Next draws the next stimulus uniformly, computes its match flags against
// the entry nLevel back in each channel's history, and appends it to the
// history. Draws are never biased toward a target match rate; ground truth
// is derived after the draw.
func (g *Generator) Next(h *History, nLevel int) Stimulus {
	position := g.rnd.Intn(GridCells)
	letter := Alphabet[g.rnd.Intn(len(Alphabet))]
	s := Stimulus{
		Position:    position,
		Letter:      letter,
		VisualMatch: MatchesBack(h.positions, position, nLevel),
		AudioMatch:  letterMatchesBack(h.letters, letter, nLevel),
	}
	h.append(position, letter)
	return s
}

// MatchesBack reports whether value equals the entry nLevel positions back.
// A history shorter than nLevel has no valid back-reference and never
// matches.
func MatchesBack(history []int, value, nLevel int) bool {
	if nLevel <= 0 || len(history) < nLevel {
		return false
	}
	return history[len(history)-nLevel] == value
}

func letterMatchesBack(history []rune, value rune, nLevel int) bool {
	if nLevel <= 0 || len(history) < nLevel {
		return false
	}
	return history[len(history)-nLevel] == value
}

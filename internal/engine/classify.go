package engine

// Outcome is one of the four signal-detection classifications.
type Outcome int

// Signal-detection outcomes. OutcomeUnscored marks warm-up trials that have
// no valid back-reference and contribute to neither accuracy numerator nor
// denominator.
const (
	OutcomeUnscored Outcome = iota
	OutcomeHit
	OutcomeMiss
	OutcomeFalseAlarm
	OutcomeCorrectRejection
)

// String returns a short label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeFalseAlarm:
		return "false-alarm"
	case OutcomeCorrectRejection:
		return "correct-rejection"
	default:
		return "unscored"
	}
}

// Classify crosses ground truth with the player's response for one channel
// of one trial. Warm-up trials (index < nLevel) must not be passed here; use
// ClassifyTrial for index-aware classification.
func Classify(match, responded bool) Outcome {
	switch {
	case match && responded:
		return OutcomeHit
	case match && !responded:
		return OutcomeMiss
	case !match && responded:
		return OutcomeFalseAlarm
	default:
		return OutcomeCorrectRejection
	}
}

// ClassifyTrial classifies one channel of the trial at the given index,
// returning OutcomeUnscored for warm-up trials.
func ClassifyTrial(index, nLevel int, match, responded bool) Outcome {
	if index < nLevel {
		return OutcomeUnscored
	}
	return Classify(match, responded)
}

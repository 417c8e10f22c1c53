package routing

import (
	"strings"
	"time"
)

// PendingDecision is the short-lived confirmation gate for a
// disruptive routing intent. At most one exists; a newer ambiguous
// intent overwrites it rather than queueing behind it.
type PendingDecision struct {
	Decision            Decision
	Input               string // the message that triggered the decision
	SupersededSessionID string // session that would close if confirmed
	CreatedAt           time.Time
	ExpiresAt           time.Time
}

// Expired reports whether the confirmation window has closed.
func (p *PendingDecision) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Answer is the interpretation of a reply to the confirmation prompt.
type Answer int

const (
	AnswerUnclear Answer = iota
	AnswerYes
	AnswerNo
)

// Canonical confirmation vocabulary. Anything outside it re-prompts
// without consuming the pending decision.
var (
	affirmatives = []string{
		"yes", "y", "yeah", "yep", "sure", "ok", "okay", "confirm",
		"go ahead", "do it", "please do",
	}
	negatives = []string{
		"no", "n", "nope", "nah", "cancel", "stop", "don't", "keep it",
		"never mind", "nevermind",
	}
)

// InterpretAnswer maps a reply onto yes/no/unclear.
func InterpretAnswer(input string) Answer {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.TrimRight(s, ".!?,")
	s = strings.TrimSpace(s)

	for _, a := range affirmatives {
		if s == a {
			return AnswerYes
		}
	}
	for _, n := range negatives {
		if s == n {
			return AnswerNo
		}
	}
	return AnswerUnclear
}

package models

import "strings"

// RoundStatus is the recorded outcome of a student in a round. The set is
// closed; ParseRoundStatus rejects anything else.
type RoundStatus string

const (
	RoundPassed     RoundStatus = "passed"
	RoundSelected   RoundStatus = "selected"
	RoundFailed     RoundStatus = "failed"
	RoundRejected   RoundStatus = "rejected"
	RoundEliminated RoundStatus = "eliminated"
	RoundOnHold     RoundStatus = "on_hold"
	RoundAbsent     RoundStatus = "absent"
)

// Outcome classifies a RoundStatus for progression.
type Outcome int

const (
	// OutcomeNeutral records something without deciding the student's fate.
	OutcomeNeutral Outcome = iota
	// OutcomeAdvance moves the student past the round.
	OutcomeAdvance
	// OutcomeTerminal ends the student's drive at this round.
	OutcomeTerminal
)

var roundOutcomes = map[RoundStatus]Outcome{
	RoundPassed:     OutcomeAdvance,
	RoundSelected:   OutcomeAdvance,
	RoundFailed:     OutcomeTerminal,
	RoundRejected:   OutcomeTerminal,
	RoundEliminated: OutcomeTerminal,
	RoundAbsent:     OutcomeTerminal,
	RoundOnHold:     OutcomeNeutral,
}

// ParseRoundStatus normalizes s and reports whether it is a known status.
func ParseRoundStatus(s string) (RoundStatus, bool) {
	st := RoundStatus(strings.ToLower(strings.TrimSpace(s)))
	_, ok := roundOutcomes[st]
	return st, ok
}

// Valid reports whether s is one of the known statuses.
func (s RoundStatus) Valid() bool {
	_, ok := roundOutcomes[s]
	return ok
}

// Outcome returns the progression class of s. Unknown values are neutral.
func (s RoundStatus) Outcome() Outcome {
	return roundOutcomes[s]
}

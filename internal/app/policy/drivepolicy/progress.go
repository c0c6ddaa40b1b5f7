package drivepolicy

import (
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Overall student statuses.
const (
	StatusSelected             = "selected"
	StatusEliminated           = "eliminated"
	StatusInProgress           = "in_progress"
	StatusAwaitingFinalResults = "awaiting_final_results"
	StatusRegistered           = "registered"
)

// Per-round statuses.
const (
	RoundPending     = "pending"
	RoundShortlisted = "shortlisted"
	RoundCurrent     = "current"
	RoundCompleted   = "completed"
	RoundEliminated  = "eliminated"
)

// RoundProgress is one row of the per-round breakdown.
type RoundProgress struct {
	Index  int                 `json:"index"`
	Name   string              `json:"name"`
	Status string              `json:"status"`
	Result *models.RoundResult `json:"result,omitempty"`
}

// Progress is a read-only projection of a drive for one student.
type Progress struct {
	Status       string          `json:"status"`
	EliminatedAt *int            `json:"eliminatedAt,omitempty"`
	Rounds       []RoundProgress `json:"rounds"`
}

// StudentProgress projects d for student. Final selection wins over any
// round result.
func StudentProgress(d models.Drive, student primitive.ObjectID) Progress {
	rounds := make([]RoundProgress, len(d.Rounds))
	for i, r := range d.Rounds {
		rounds[i] = RoundProgress{Index: i, Name: r.Name, Status: RoundPending}
	}

	if d.IsFinalSelected(student) {
		for i, r := range d.Rounds {
			rounds[i].Status = RoundCompleted
			if res, ok := r.ResultFor(student); ok {
				res := res
				rounds[i].Result = &res
			}
		}
		return Progress{Status: StatusSelected, Rounds: rounds}
	}

	pointer := 0
	touched := false
	for i, r := range d.Rounds {
		res, ok := r.ResultFor(student)
		if ok {
			res := res
			rounds[i].Result = &res
			touched = true
			switch res.Status.Outcome() {
			case models.OutcomeTerminal:
				rounds[i].Status = RoundEliminated
				at := i
				return Progress{Status: StatusEliminated, EliminatedAt: &at, Rounds: rounds}
			case models.OutcomeAdvance:
				rounds[i].Status = RoundCompleted
				pointer = i + 1
				continue
			}
		}
		switch {
		case r.IsShortlisted(student):
			rounds[i].Status = RoundShortlisted
			touched = true
		case i == d.CurrentRoundIndex:
			rounds[i].Status = RoundCurrent
		}
	}

	status := StatusInProgress
	switch {
	case pointer == len(d.Rounds):
		status = StatusAwaitingFinalResults
	case !touched && StateOf(d).Phase == AwaitingStart:
		status = StatusRegistered
	}
	return Progress{Status: status, Rounds: rounds}
}

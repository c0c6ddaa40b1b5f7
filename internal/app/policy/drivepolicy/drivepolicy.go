// Package drivepolicy holds the drive state machine: which state a drive is
// in and which writes that state allows. Everything here is pure; the drive
// store validates with these functions and then applies the write with a
// conditional update.
//
// Rules:
//   - Round results may only be recorded for the current round
//   - The current round index stays in [0, len(rounds)] and never decreases
//   - Rounds can be edited only before any round has results
//   - A drive with results cannot be deleted
//   - A closed drive rejects every write
package drivepolicy

import (
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Phase is the coarse state of a drive.
type Phase string

const (
	AwaitingStart        Phase = "awaiting_start"
	InRound              Phase = "in_round"
	AwaitingFinalization Phase = "awaiting_finalization"
	Closed               Phase = "closed"
)

// State is a Phase plus the round it refers to (meaningful for InRound).
type State struct {
	Phase Phase `json:"phase"`
	Round int   `json:"round"`
}

// StateOf derives the state of d.
func StateOf(d models.Drive) State {
	switch {
	case d.IsClosed:
		return State{Phase: Closed, Round: d.CurrentRoundIndex}
	case d.CurrentRoundIndex >= len(d.Rounds):
		return State{Phase: AwaitingFinalization, Round: len(d.Rounds)}
	case d.CurrentRoundIndex == 0 && !d.HasResults():
		return State{Phase: AwaitingStart}
	default:
		return State{Phase: InRound, Round: d.CurrentRoundIndex}
	}
}

// NewFromRegistration builds a drive for reg with rounds cloned from the
// company's template. It is the only way a drive is constructed.
func NewFromRegistration(reg models.Registration, company models.Company, createdBy *primitive.ObjectID, now time.Time) models.Drive {
	rounds := make([]models.Round, 0, len(company.RoundsTemplate))
	for _, t := range company.RoundsTemplate {
		rounds = append(rounds, models.Round{
			Name:        t.Name,
			Description: t.Description,
			Shortlisted: []primitive.ObjectID{},
			Results:     []models.RoundResult{},
		})
	}
	return models.Drive{
		ID:                primitive.NewObjectID(),
		Registration:      reg.ID,
		Company:           reg.Company,
		CompanyNameCached: reg.CompanyNameCached,
		CompanyNameCI:     reg.CompanyNameCI,
		Date:              reg.DriveDate,
		Announcements:     []models.Announcement{},
		Rounds:            rounds,
		CurrentRoundIndex: 0,
		FinalSelected:     []primitive.ObjectID{},
		IsClosed:          false,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

var errClosed = apperr.Forbidden("drive is closed")

// CheckOpen rejects writes to a closed drive.
func CheckOpen(d models.Drive) error {
	if d.IsClosed {
		return errClosed
	}
	return nil
}

// CheckAnnounce decides whether an announcement may be posted.
// Closed drives accept announcements only when allowClosed is set.
func CheckAnnounce(d models.Drive, text string, allowClosed bool) error {
	if text == "" {
		return apperr.Validation("announcement text is required")
	}
	if d.IsClosed && !allowClosed {
		return errClosed
	}
	return nil
}

// CheckEditRounds decides whether the round structure (or the date) may change.
func CheckEditRounds(d models.Drive) error {
	if err := CheckOpen(d); err != nil {
		return err
	}
	if d.CurrentRoundIndex != 0 || d.HasResults() {
		return apperr.Forbidden("drive has started; rounds can no longer be edited")
	}
	return nil
}

// CheckDelete decides whether the drive may be deleted.
func CheckDelete(d models.Drive) error {
	if err := CheckOpen(d); err != nil {
		return err
	}
	if d.HasResults() {
		return apperr.Forbidden("drive has round results and cannot be deleted")
	}
	return nil
}

// CheckRounds validates an edited round list.
func CheckRounds(rounds []models.RoundTemplate) error {
	for i, r := range rounds {
		if r.Name == "" {
			return apperr.Validation("round %d needs a name", i)
		}
	}
	return nil
}

// ApplicantSet is the set of students registered for a drive's registration.
type ApplicantSet map[primitive.ObjectID]struct{}

// NewApplicantSet builds an ApplicantSet from ids.
func NewApplicantSet(ids []primitive.ObjectID) ApplicantSet {
	s := make(ApplicantSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is a registered applicant.
func (s ApplicantSet) Has(id primitive.ObjectID) bool {
	_, ok := s[id]
	return ok
}

// CheckResults validates recording results for round i and optionally moving
// the current round pointer to next. It returns the normalized results.
func CheckResults(d models.Drive, i int, results []models.RoundResult, next *int, applicants ApplicantSet) ([]models.RoundResult, error) {
	if err := CheckOpen(d); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(d.Rounds) {
		return nil, apperr.Validation("round index %d is out of range", i)
	}
	if i != d.CurrentRoundIndex {
		return nil, apperr.Validation("results can only be recorded for the current round (%d)", d.CurrentRoundIndex)
	}
	if next != nil {
		if *next < 0 || *next > len(d.Rounds) {
			return nil, apperr.Validation("next round index must be between 0 and %d", len(d.Rounds))
		}
		if *next < d.CurrentRoundIndex {
			return nil, apperr.Validation("round index cannot move backwards")
		}
	}

	out := make([]models.RoundResult, 0, len(results))
	seen := make(map[primitive.ObjectID]struct{}, len(results))
	for _, res := range results {
		st, ok := models.ParseRoundStatus(string(res.Status))
		if !ok {
			return nil, apperr.Validation("unknown result status %q", res.Status)
		}
		if res.Student.IsZero() {
			return nil, apperr.Validation("result is missing a student")
		}
		if _, dup := seen[res.Student]; dup {
			return nil, apperr.Validation("student %s appears more than once", res.Student.Hex())
		}
		if applicants != nil && !applicants.Has(res.Student) {
			return nil, apperr.Validation("student %s is not registered for this drive", res.Student.Hex())
		}
		seen[res.Student] = struct{}{}
		out = append(out, models.RoundResult{Student: res.Student, Status: st, Notes: res.Notes})
	}
	return out, nil
}

// CheckShortlist validates marking students for round i. Only the current
// round and later rounds can be shortlisted.
func CheckShortlist(d models.Drive, i int, ids []primitive.ObjectID, applicants ApplicantSet) ([]primitive.ObjectID, error) {
	if err := CheckOpen(d); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(d.Rounds) {
		return nil, apperr.Validation("round index %d is out of range", i)
	}
	if i < d.CurrentRoundIndex {
		return nil, apperr.Validation("round %d is already complete", i)
	}
	return checkStudents(ids, applicants)
}

// CheckFinalize validates a final selection. Every selected student must be a
// registered applicant.
func CheckFinalize(d models.Drive, ids []primitive.ObjectID, applicants ApplicantSet) ([]primitive.ObjectID, error) {
	if err := CheckOpen(d); err != nil {
		return nil, err
	}
	return checkStudents(ids, applicants)
}

func checkStudents(ids []primitive.ObjectID, applicants ApplicantSet) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		if applicants != nil && !applicants.Has(id) {
			return nil, apperr.Validation("student %s is not registered for this drive", id.Hex())
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// internal/app/features/drives/types.go
package drives

import (
	"github.com/Saravanans7/PlaceMate/internal/app/placement"
	"github.com/Saravanans7/PlaceMate/internal/app/policy/drivepolicy"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
)

type createInput struct {
	Registration string `json:"registration" validate:"required"`
}

type roundInput struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"max=500"`
}

type updateInput struct {
	Rounds []roundInput `json:"rounds" validate:"omitempty,dive"`
	Date   *string      `json:"date"`
}

type announcementInput struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type shortlistInput struct {
	StudentIDs []string `json:"studentIds"`
}

type resultInput struct {
	Student string `json:"student" validate:"required"`
	Status  string `json:"status" validate:"required"`
	Notes   string `json:"notes" validate:"max=500"`
}

type resultsInput struct {
	Results        []resultInput `json:"results" validate:"dive"`
	NextRoundIndex *int          `json:"nextRoundIndex"`
}

type finalizeInput struct {
	FinalSelected []string `json:"finalSelected"`
	Close         bool     `json:"close"`
}

// driveView is a drive with its derived state.
type driveView struct {
	models.Drive
	State drivepolicy.State `json:"state"`
}

// detailView is the staff view of one drive.
type detailView struct {
	driveView
	Registration models.Registration   `json:"registrationDetail"`
	Applicants   []placement.Applicant `json:"applicants"`
}

type ensureView struct {
	driveView
	Created bool `json:"created"`
}

type backfillView struct {
	CreatedCount int `json:"createdCount"`
}

func view(d models.Drive) driveView {
	return driveView{Drive: d, State: drivepolicy.StateOf(d)}
}

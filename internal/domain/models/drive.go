// internal/domain/models/drive.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement is an append-only note posted on a drive.
type Announcement struct {
	Text     string             `bson:"text" json:"text"`
	PostedBy primitive.ObjectID `bson:"posted_by" json:"postedBy"`
	PostedAt time.Time          `bson:"posted_at" json:"postedAt"`
}

// RoundResult is the recorded outcome for one student in one round.
type RoundResult struct {
	Student primitive.ObjectID `bson:"student" json:"student" validate:"required"`
	Status  RoundStatus        `bson:"status" json:"status" validate:"required"`
	Notes   string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Round is one interview stage of a drive.
type Round struct {
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Shortlisted []primitive.ObjectID `bson:"shortlisted" json:"shortlisted"`
	Results     []RoundResult        `bson:"results" json:"results"`
}

// ResultFor returns the recorded result for the student, if any.
func (r Round) ResultFor(student primitive.ObjectID) (RoundResult, bool) {
	for _, res := range r.Results {
		if res.Student == student {
			return res, true
		}
	}
	return RoundResult{}, false
}

// IsShortlisted reports whether the student was shortlisted for the round.
func (r Round) IsShortlisted(student primitive.ObjectID) bool {
	for _, id := range r.Shortlisted {
		if id == student {
			return true
		}
	}
	return false
}

// Drive is the live, round-by-round process created from a registration.
//
// Invariants: 0 <= CurrentRoundIndex <= len(Rounds); IsClosed never reverts;
// Rounds are frozen once any round has results.
type Drive struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Registration      primitive.ObjectID   `bson:"registration" json:"registration"`
	Company           primitive.ObjectID   `bson:"company" json:"company"`
	CompanyNameCached string               `bson:"company_name_cached" json:"companyNameCached"`
	CompanyNameCI     string               `bson:"company_name_ci" json:"-"`
	Date              time.Time            `bson:"date" json:"date"`
	Announcements     []Announcement       `bson:"announcements" json:"announcements"`
	Rounds            []Round              `bson:"rounds" json:"rounds"`
	CurrentRoundIndex int                  `bson:"current_round_index" json:"currentRoundIndex"`
	FinalSelected     []primitive.ObjectID `bson:"final_selected" json:"finalSelected"`
	IsClosed          bool                 `bson:"is_closed" json:"isClosed"`
	ClosedAt          *time.Time           `bson:"closed_at,omitempty" json:"closedAt,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// HasResults reports whether any round has recorded results.
func (d Drive) HasResults() bool {
	for _, r := range d.Rounds {
		if len(r.Results) > 0 {
			return true
		}
	}
	return false
}

// IsFinalSelected reports whether the student is in the final selection.
func (d Drive) IsFinalSelected(student primitive.ObjectID) bool {
	for _, id := range d.FinalSelected {
		if id == student {
			return true
		}
	}
	return false
}

// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/Saravanans7/PlaceMate/internal/app/store/audit"
)

// listItem is one audit event with actor and subject names resolved.
type listItem struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"createdAt"`
	Category    string            `json:"category"`
	EventType   string            `json:"eventType"`
	ActorName   string            `json:"actorName,omitempty"`   // resolved from ActorID
	SubjectName string            `json:"subjectName,omitempty"` // resolved from UserID
	TargetType  string            `json:"targetType,omitempty"`
	TargetID    string            `json:"targetId,omitempty"`
	IP          string            `json:"ip"`
	Success     bool              `json:"success"`
	Reason      string            `json:"failureReason,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

type categoryOption struct {
	Value      string   `json:"value"`
	Label      string   `json:"label"`
	EventTypes []string `json:"eventTypes"`
}

// allCategories returns the filter options for the audit log.
func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication", EventTypes: eventTypesForCategory(audit.CategoryAuth)},
		{Value: audit.CategoryAdmin, Label: "Administration", EventTypes: eventTypesForCategory(audit.CategoryAdmin)},
		{Value: audit.CategoryPlacement, Label: "Placement drives", EventTypes: eventTypesForCategory(audit.CategoryPlacement)},
	}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
		audit.EventUserRegistered,
	}

	adminEvents := []string{
		audit.EventStudentCreated,
		audit.EventStudentsImported,
		audit.EventStudentUpdated,
		audit.EventStudentDeleted,
		audit.EventCompanyCreated,
		audit.EventCompanyUpdated,
		audit.EventCompanyDeleted,
		audit.EventRegistrationCreated,
		audit.EventRegistrationUpdated,
		audit.EventRegistrationDeleted,
		audit.EventBlacklistAdded,
		audit.EventBlacklistRemoved,
		audit.EventExperienceApproved,
		audit.EventExperienceRejected,
	}

	placementEvents := []string{
		audit.EventDriveCreated,
		audit.EventDriveUpdated,
		audit.EventDriveDeleted,
		audit.EventShortlistUpdated,
		audit.EventResultsRecorded,
		audit.EventDriveFinalized,
		audit.EventAnnouncement,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategoryPlacement:
		return placementEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(placementEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		all = append(all, placementEvents...)
		return all
	default:
		return nil
	}
}

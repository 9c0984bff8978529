package domain

import "time"

// ApplicationStatus enumerates lifecycle states for applications.
type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusCompleted   ApplicationStatus = "completed"
)

// ApplicationStatuses lists every valid status in workflow order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusUnderReview,
	ApplicationStatusApproved,
	ApplicationStatusRejected,
	ApplicationStatusCompleted,
}

// Valid reports whether s is one of the enumerated statuses.
func (s ApplicationStatus) Valid() bool {
	for _, candidate := range ApplicationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Label returns the human readable form, e.g. "under review".
func (s ApplicationStatus) Label() string {
	if s == ApplicationStatusUnderReview {
		return "under review"
	}
	return string(s)
}

// Application links a citizen to a Service they applied for.
type Application struct {
	ID          string
	UserID      string
	ServiceID   string
	FormData    map[string]string
	Status      ApplicationStatus
	Remarks     string
	ProcessedBy *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// ServiceTitle is joined from the service on reads.
	ServiceTitle string
}

// ApplicationHistory is an immutable audit trail entry for a status update.
type ApplicationHistory struct {
	ID            string
	ApplicationID string
	ChangedBy     string
	OldStatus     ApplicationStatus
	NewStatus     ApplicationStatus
	Remarks       string
	CreatedAt     time.Time
}

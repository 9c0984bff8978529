package dto

import (
	"time"

	"github.com/spec-kit/gram-portal/internal/domain"
)

// SubmitApplicationRequest is the citizen application form.
type SubmitApplicationRequest struct {
	ServiceID string            `json:"service_id"`
	FormData  map[string]string `json:"form_data"`
}

// UpdateStatusRequest is sent by staff and admins.
type UpdateStatusRequest struct {
	Status  domain.ApplicationStatus `json:"status"`
	Remarks string                   `json:"remarks"`
}

// ApplicationResponse summarises an application.
type ApplicationResponse struct {
	ID           string                     `json:"id"`
	UserID       string                     `json:"user_id"`
	ServiceID    string                     `json:"service_id"`
	ServiceTitle string                     `json:"service_title"`
	FormData     map[string]string          `json:"form_data"`
	Status       domain.ApplicationStatus   `json:"status"`
	Remarks      string                     `json:"remarks"`
	ProcessedBy  *string                    `json:"processed_by"`
	NextStatuses []domain.ApplicationStatus `json:"next_statuses,omitempty"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID        string                   `json:"id"`
	ChangedBy string                   `json:"changed_by"`
	OldStatus domain.ApplicationStatus `json:"old_status"`
	NewStatus domain.ApplicationStatus `json:"new_status"`
	Remarks   string                   `json:"remarks"`
	CreatedAt time.Time                `json:"created_at"`
}

// ApplicationDetailResponse includes the audit trail.
type ApplicationDetailResponse struct {
	ApplicationResponse
	History []HistoryResponse `json:"history"`
}

// NewApplicationResponse maps a domain application.
func NewApplicationResponse(a *domain.Application) ApplicationResponse {
	form := a.FormData
	if form == nil {
		form = map[string]string{}
	}
	return ApplicationResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		ServiceID:    a.ServiceID,
		ServiceTitle: a.ServiceTitle,
		FormData:     form,
		Status:       a.Status,
		Remarks:      a.Remarks,
		ProcessedBy:  a.ProcessedBy,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// NewApplicationList maps a page of applications.
func NewApplicationList(apps []domain.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, NewApplicationResponse(&apps[i]))
	}
	return out
}

// NewApplicationDetail maps an application with its history. next lists the
// statuses the caller may move it to; nil for citizens.
func NewApplicationDetail(a *domain.Application, history []domain.ApplicationHistory, next []domain.ApplicationStatus) ApplicationDetailResponse {
	resp := ApplicationDetailResponse{
		ApplicationResponse: NewApplicationResponse(a),
		History:             make([]HistoryResponse, 0, len(history)),
	}
	resp.NextStatuses = next
	for _, h := range history {
		resp.History = append(resp.History, HistoryResponse{
			ID:        h.ID,
			ChangedBy: h.ChangedBy,
			OldStatus: h.OldStatus,
			NewStatus: h.NewStatus,
			Remarks:   h.Remarks,
			CreatedAt: h.CreatedAt,
		})
	}
	return resp
}

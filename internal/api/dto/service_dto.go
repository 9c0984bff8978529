package dto

import (
	"time"

	"github.com/spec-kit/gram-portal/internal/domain"
)

// ServiceRequest is the admin create/update form.
type ServiceRequest struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	Eligibility       string   `json:"eligibility"`
	RequiredDocuments []string `json:"required_documents"`
	IsActive          *bool    `json:"is_active"`
}

// ServiceActiveRequest toggles availability.
type ServiceActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

// ServiceResponse describes a catalogue entry.
type ServiceResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Category          string    `json:"category"`
	Eligibility       string    `json:"eligibility"`
	RequiredDocuments []string  `json:"required_documents"`
	IsActive          bool      `json:"is_active"`
	CreatedBy         string    `json:"created_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewServiceResponse maps a domain service.
func NewServiceResponse(s *domain.Service) ServiceResponse {
	docs := s.RequiredDocuments
	if docs == nil {
		docs = []string{}
	}
	return ServiceResponse{
		ID:                s.ID,
		Title:             s.Title,
		Description:       s.Description,
		Category:          s.Category,
		Eligibility:       s.Eligibility,
		RequiredDocuments: docs,
		IsActive:          s.IsActive,
		CreatedBy:         s.CreatedBy,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// NewServiceList maps a page of services.
func NewServiceList(services []domain.Service) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(services))
	for i := range services {
		out = append(out, NewServiceResponse(&services[i]))
	}
	return out
}

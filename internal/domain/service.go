package domain

import "time"

// AllCategories is the wildcard category used by catalogue filters.
const AllCategories = "All Categories"

// Service is a government scheme or certificate citizens can apply for.
type Service struct {
	ID                string
	Title             string
	Description       string
	Category          string
	Eligibility       string
	RequiredDocuments []string
	IsActive          bool
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

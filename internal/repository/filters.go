package repository

import (
	"sort"
	"strings"

	"github.com/spec-kit/gram-portal/internal/domain"
)

// ServiceFilter selects catalogue entries.
type ServiceFilter struct {
	// Search is matched case-insensitively against the title and, depending on
	// SearchCategory, the description or the category.
	Search         string
	SearchCategory bool
	// Category is an exact match; empty or domain.AllCategories matches any.
	Category   string
	ActiveOnly bool
	Limit      int
	Offset     int
}

func (f ServiceFilter) term() string {
	return strings.ToLower(strings.TrimSpace(f.Search))
}

func (f ServiceFilter) category() string {
	cat := strings.TrimSpace(f.Category)
	if cat == domain.AllCategories {
		return ""
	}
	return cat
}

// Matches reports whether svc satisfies every predicate of the filter.
func (f ServiceFilter) Matches(svc *domain.Service) bool {
	if f.ActiveOnly && !svc.IsActive {
		return false
	}
	if cat := f.category(); cat != "" && svc.Category != cat {
		return false
	}
	term := f.term()
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(svc.Title), term) {
		return true
	}
	if f.SearchCategory {
		return strings.Contains(strings.ToLower(svc.Category), term)
	}
	return strings.Contains(strings.ToLower(svc.Description), term)
}

// ApplicationFilter selects applications. ServiceTitle must be populated on
// the applications passed to Matches.
type ApplicationFilter struct {
	UserID    *string
	ServiceID *string
	// Status is an exact match; empty matches any.
	Status domain.ApplicationStatus
	// Search is matched against the service title and, with SearchByID, the
	// application id.
	Search     string
	SearchByID bool
	Limit      int
	Offset     int
}

func (f ApplicationFilter) term() string {
	return strings.ToLower(strings.TrimSpace(f.Search))
}

// Matches reports whether app satisfies every predicate of the filter.
func (f ApplicationFilter) Matches(app *domain.Application) bool {
	if f.UserID != nil && app.UserID != *f.UserID {
		return false
	}
	if f.ServiceID != nil && app.ServiceID != *f.ServiceID {
		return false
	}
	if f.Status != "" && app.Status != f.Status {
		return false
	}
	term := f.term()
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(app.ServiceTitle), term) {
		return true
	}
	return f.SearchByID && strings.Contains(strings.ToLower(app.ID), term)
}

// UserFilter selects accounts for the admin listing.
type UserFilter struct {
	Role   domain.Role
	Search string
	Limit  int
	Offset int
}

// Matches reports whether user satisfies the filter.
func (f UserFilter) Matches(user *domain.User) bool {
	if f.Role != "" && user.Role != f.Role {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(user.Name), term) ||
		strings.Contains(strings.ToLower(user.Email), term)
}

// paginate applies offset/limit to an already ordered slice. A non-positive
// limit returns everything after offset.
func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// sortNewestFirst orders by created_at desc with id as tie breaker, matching
// the SQL repositories.
func sortNewestFirst[T any](items []T, createdAt func(T) int64, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := createdAt(items[i]), createdAt(items[j])
		if ci != cj {
			return ci > cj
		}
		return id(items[i]) < id(items[j])
	})
}

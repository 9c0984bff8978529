package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/gram-portal/internal/domain"
)

func catalogue() []domain.Service {
	return []domain.Service{
		{ID: "1", Title: "Birth Certificate", Description: "Register a new birth", Category: "Certificates", IsActive: true},
		{ID: "2", Title: "Old Age Pension", Description: "Monthly pension for senior citizens", Category: "Welfare", IsActive: true},
		{ID: "3", Title: "Water Connection", Description: "Apply for a new tap", Category: "Utilities", IsActive: false},
		{ID: "4", Title: "Income Certificate", Description: "Proof of family income", Category: "Certificates", IsActive: true},
	}
}

func TestServiceFilterPublicView(t *testing.T) {
	tests := []struct {
		name   string
		filter ServiceFilter
		want   []string
	}{
		{"all active", ServiceFilter{ActiveOnly: true}, []string{"1", "2", "4"}},
		{"wildcard category", ServiceFilter{ActiveOnly: true, Category: domain.AllCategories}, []string{"1", "2", "4"}},
		{"category exact", ServiceFilter{ActiveOnly: true, Category: "Certificates"}, []string{"1", "4"}},
		{"search title case insensitive", ServiceFilter{ActiveOnly: true, Search: "PENSION"}, []string{"2"}},
		{"search description", ServiceFilter{ActiveOnly: true, Search: "family"}, []string{"4"}},
		{"search and category", ServiceFilter{ActiveOnly: true, Search: "certificate", Category: "Welfare"}, nil},
		{"inactive hidden", ServiceFilter{ActiveOnly: true, Search: "water"}, nil},
		{"category is not searched", ServiceFilter{ActiveOnly: true, Search: "welfare"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, svc := range catalogue() {
				if tt.filter.Matches(&svc) {
					got = append(got, svc.ID)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceFilterAdminSearchesCategory(t *testing.T) {
	filter := ServiceFilter{Search: "utilit", SearchCategory: true}
	var got []string
	for _, svc := range catalogue() {
		if filter.Matches(&svc) {
			got = append(got, svc.ID)
		}
	}
	assert.Equal(t, []string{"3"}, got)

	filter.Search = "senior"
	svc := catalogue()[1]
	assert.False(t, filter.Matches(&svc), "admin search ignores description")
}

func TestServiceFilterResultIsSubset(t *testing.T) {
	all := catalogue()
	for _, search := range []string{"", "cert", "a", "zzz"} {
		for _, category := range []string{"", domain.AllCategories, "Certificates", "Welfare", "Missing"} {
			filter := ServiceFilter{ActiveOnly: true, Search: search, Category: category}
			for _, svc := range all {
				if !filter.Matches(&svc) {
					continue
				}
				assert.True(t, svc.IsActive)
				if category != "" && category != domain.AllCategories {
					assert.Equal(t, category, svc.Category)
				}
				if search != "" {
					text := strings.ToLower(svc.Title + " " + svc.Description)
					assert.Contains(t, text, search)
				}
			}
		}
	}
}

func TestApplicationFilter(t *testing.T) {
	owner := "u1"
	apps := []domain.Application{
		{ID: "abc-123", UserID: "u1", Status: domain.ApplicationStatusPending, ServiceTitle: "Birth Certificate"},
		{ID: "def-456", UserID: "u2", Status: domain.ApplicationStatusApproved, ServiceTitle: "Old Age Pension"},
		{ID: "ghi-789", UserID: "u1", Status: domain.ApplicationStatusApproved, ServiceTitle: "Income Certificate"},
	}
	tests := []struct {
		name   string
		filter ApplicationFilter
		want   []string
	}{
		{"everything", ApplicationFilter{}, []string{"abc-123", "def-456", "ghi-789"}},
		{"owner scoped", ApplicationFilter{UserID: &owner}, []string{"abc-123", "ghi-789"}},
		{"status", ApplicationFilter{Status: domain.ApplicationStatusApproved}, []string{"def-456", "ghi-789"}},
		{"title search", ApplicationFilter{Search: "certificate"}, []string{"abc-123", "ghi-789"}},
		{"id search disabled for citizens", ApplicationFilter{Search: "456"}, nil},
		{"id search for staff", ApplicationFilter{Search: "456", SearchByID: true}, []string{"def-456"}},
		{"combined", ApplicationFilter{UserID: &owner, Status: domain.ApplicationStatusApproved, Search: "income"}, []string{"ghi-789"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, app := range apps {
				if tt.filter.Matches(&app) {
					got = append(got, app.ID)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, paginate(items, 2, 0))
	assert.Equal(t, []int{5}, paginate(items, 2, 4))
	assert.Equal(t, []int{}, paginate(items, 2, 10))
	assert.Equal(t, []int{3, 4, 5}, paginate(items, 0, 2))
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off%`, likePattern(" 50% OFF "))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
}

package service

import (
	"context"

	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/repository"
)

const (
	recentApplicationsLimit = 5
	featuredServicesLimit   = 4
)

// DashboardService aggregates the per-role landing pages.
type DashboardService struct {
	users        repository.UserRepository
	services     repository.ServiceRepository
	applications repository.ApplicationRepository
}

// DashboardDependencies bundles repositories for the dashboard service.
type DashboardDependencies struct {
	UserRepo        repository.UserRepository
	ServiceRepo     repository.ServiceRepository
	ApplicationRepo repository.ApplicationRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		users:        deps.UserRepo,
		services:     deps.ServiceRepo,
		applications: deps.ApplicationRepo,
	}
}

// UserDashboard is the citizen landing page.
type UserDashboard struct {
	TotalApplications  int
	InProgress         int
	Approved           int
	AvailableServices  int
	RecentApplications []domain.Application
	FeaturedServices   []domain.Service
}

// StaffDashboard is the staff landing page.
type StaffDashboard struct {
	Total       int
	Pending     int
	UnderReview int
	Approved    int
}

// DashboardStats are the admin headline counters.
type DashboardStats struct {
	TotalUsers        int
	TotalServices     int
	ActiveServices    int
	TotalApplications int
	ByStatus          map[domain.ApplicationStatus]int
}

// AdminDashboard is the administrator landing page.
type AdminDashboard struct {
	Stats              DashboardStats
	ServicesByCategory map[string]int
	RecentApplications []domain.Application
}

// User builds the dashboard for a citizen.
func (s *DashboardService) User(ctx context.Context, userID string) (*UserDashboard, error) {
	counts, err := s.applications.CountByStatus(ctx, &userID)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.applications.List(ctx, repository.ApplicationFilter{UserID: &userID, Limit: recentApplicationsLimit})
	if err != nil {
		return nil, err
	}
	featured, active, err := s.services.List(ctx, repository.ServiceFilter{ActiveOnly: true, Limit: featuredServicesLimit})
	if err != nil {
		return nil, err
	}
	return &UserDashboard{
		TotalApplications:  sum(counts),
		InProgress:         counts[domain.ApplicationStatusPending] + counts[domain.ApplicationStatusUnderReview],
		Approved:           counts[domain.ApplicationStatusApproved] + counts[domain.ApplicationStatusCompleted],
		AvailableServices:  active,
		RecentApplications: recent,
		FeaturedServices:   featured,
	}, nil
}

// Staff builds the dashboard for staff members.
func (s *DashboardService) Staff(ctx context.Context) (*StaffDashboard, error) {
	counts, err := s.applications.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &StaffDashboard{
		Total:       sum(counts),
		Pending:     counts[domain.ApplicationStatusPending],
		UnderReview: counts[domain.ApplicationStatusUnderReview],
		Approved:    counts[domain.ApplicationStatusApproved],
	}, nil
}

// Admin builds the dashboard for administrators.
func (s *DashboardService) Admin(ctx context.Context) (*AdminDashboard, error) {
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.services.CountByCategory(ctx, false)
	if err != nil {
		return nil, err
	}
	activeServices, err := s.services.Count(ctx, true)
	if err != nil {
		return nil, err
	}
	counts, err := s.applications.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.applications.List(ctx, repository.ApplicationFilter{Limit: recentApplicationsLimit})
	if err != nil {
		return nil, err
	}

	return &AdminDashboard{
		Stats: DashboardStats{
			TotalUsers:        totalUsers,
			TotalServices:     sum(byCategory),
			ActiveServices:    activeServices,
			TotalApplications: sum(counts),
			ByStatus:          counts,
		},
		ServicesByCategory: byCategory,
		RecentApplications: recent,
	}, nil
}

func sum[K comparable](counts map[K]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

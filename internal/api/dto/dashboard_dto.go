package dto

import (
	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/service"
)

// UserDashboardResponse backs /user/dashboard.
type UserDashboardResponse struct {
	TotalApplications  int                   `json:"total_applications"`
	InProgress         int                   `json:"in_progress"`
	Approved           int                   `json:"approved"`
	AvailableServices  int                   `json:"available_services"`
	RecentApplications []ApplicationResponse `json:"recent_applications"`
	FeaturedServices   []ServiceResponse     `json:"featured_services"`
}

// StaffDashboardResponse backs /staff/dashboard.
type StaffDashboardResponse struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	UnderReview int `json:"under_review"`
	Approved    int `json:"approved"`
}

// DashboardStatsResponse carries the admin counters.
type DashboardStatsResponse struct {
	TotalUsers        int `json:"total_users"`
	TotalServices     int `json:"total_services"`
	ActiveServices    int `json:"active_services"`
	TotalApplications int `json:"total_applications"`
	Pending           int `json:"pending"`
	UnderReview       int `json:"under_review"`
	Approved          int `json:"approved"`
	Rejected          int `json:"rejected"`
	Completed         int `json:"completed"`
}

// AdminDashboardResponse backs /admin/dashboard.
type AdminDashboardResponse struct {
	Stats              DashboardStatsResponse `json:"stats"`
	ServicesByCategory map[string]int         `json:"services_by_category"`
	RecentApplications []ApplicationResponse  `json:"recent_applications"`
}

func NewUserDashboard(d *service.UserDashboard) UserDashboardResponse {
	return UserDashboardResponse{
		TotalApplications:  d.TotalApplications,
		InProgress:         d.InProgress,
		Approved:           d.Approved,
		AvailableServices:  d.AvailableServices,
		RecentApplications: NewApplicationList(d.RecentApplications),
		FeaturedServices:   NewServiceList(d.FeaturedServices),
	}
}

func NewStaffDashboard(d *service.StaffDashboard) StaffDashboardResponse {
	return StaffDashboardResponse{
		Total:       d.Total,
		Pending:     d.Pending,
		UnderReview: d.UnderReview,
		Approved:    d.Approved,
	}
}

func NewAdminDashboard(d *service.AdminDashboard) AdminDashboardResponse {
	byStatus := d.Stats.ByStatus
	byCategory := d.ServicesByCategory
	if byCategory == nil {
		byCategory = map[string]int{}
	}
	return AdminDashboardResponse{
		Stats: DashboardStatsResponse{
			TotalUsers:        d.Stats.TotalUsers,
			TotalServices:     d.Stats.TotalServices,
			ActiveServices:    d.Stats.ActiveServices,
			TotalApplications: d.Stats.TotalApplications,
			Pending:           byStatus[domain.ApplicationStatusPending],
			UnderReview:       byStatus[domain.ApplicationStatusUnderReview],
			Approved:          byStatus[domain.ApplicationStatusApproved],
			Rejected:          byStatus[domain.ApplicationStatusRejected],
			Completed:         byStatus[domain.ApplicationStatusCompleted],
		},
		ServicesByCategory: byCategory,
		RecentApplications: NewApplicationList(d.RecentApplications),
	}
}

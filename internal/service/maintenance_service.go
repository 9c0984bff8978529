package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/observability"
	"github.com/spec-kit/gram-portal/internal/repository"
)

// SessionSweeper is implemented by session stores that keep expired entries
// until swept. Redis expires keys itself and does not need one.
type SessionSweeper interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// MaintenanceService holds the periodic housekeeping jobs.
type MaintenanceService struct {
	resets       repository.PasswordResetRepository
	applications repository.ApplicationRepository
	sessions     SessionSweeper
	metrics      *observability.Metrics
	logger       *zap.Logger
	staleAfter   time.Duration
	now          func() time.Time
}

// MaintenanceDependencies bundles requirements for the maintenance service.
type MaintenanceDependencies struct {
	PasswordResetRepo repository.PasswordResetRepository
	ApplicationRepo   repository.ApplicationRepository
	Sessions          SessionSweeper
	Metrics           *observability.Metrics
	Logger            *zap.Logger
	StaleAfter        time.Duration
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(deps MaintenanceDependencies) *MaintenanceService {
	return &MaintenanceService{
		resets:       deps.PasswordResetRepo,
		applications: deps.ApplicationRepo,
		sessions:     deps.Sessions,
		metrics:      deps.Metrics,
		logger:       loggerOrNop(deps.Logger),
		staleAfter:   deps.StaleAfter,
		now:          time.Now,
	}
}

// PurgePasswordResets removes expired and consumed reset tokens.
func (s *MaintenanceService) PurgePasswordResets(ctx context.Context) (int, error) {
	removed, err := s.resets.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("purged password reset tokens", zap.Int("count", removed))
	}
	return removed, nil
}

// PurgeSessions drops sessions that expired without a logout.
func (s *MaintenanceService) PurgeSessions(ctx context.Context) (int, error) {
	if s.sessions == nil {
		return 0, nil
	}
	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("purged expired sessions", zap.Int("count", removed))
	}
	return removed, nil
}

// ScanStaleApplications counts pending applications nobody has picked up
// within the configured window and publishes the count as a gauge.
func (s *MaintenanceService) ScanStaleApplications(ctx context.Context) (int, error) {
	if s.staleAfter <= 0 {
		return 0, nil
	}
	stale, err := s.applications.CountStale(ctx, domain.ApplicationStatusPending, s.now().Add(-s.staleAfter))
	if err != nil {
		return 0, err
	}
	s.metrics.SetStaleApplications(stale)
	if stale > 0 {
		s.logger.Warn("pending applications awaiting review", zap.Int("count", stale), zap.Duration("older_than", s.staleAfter))
	}
	return stale, nil
}

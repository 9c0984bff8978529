package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/events"
	"github.com/spec-kit/gram-portal/internal/observability"
	"github.com/spec-kit/gram-portal/internal/repository"
	apperrors "github.com/spec-kit/gram-portal/pkg/util/errorutil"
)

// Application form fields every submission must carry.
const (
	FieldApplicantName  = "applicant_name"
	FieldContactNumber  = "contact_number"
	FieldAddress        = "address"
	FieldAdditionalInfo = "additional_info"
)

// ApplicationService coordinates submissions and the review workflow.
type ApplicationService struct {
	applications repository.ApplicationRepository
	services     repository.ServiceRepository
	history      repository.ApplicationHistoryRepository
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// ApplicationDependencies bundles repositories for the application service.
type ApplicationDependencies struct {
	ApplicationRepo repository.ApplicationRepository
	ServiceRepo     repository.ServiceRepository
	HistoryRepo     repository.ApplicationHistoryRepository
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(deps ApplicationDependencies) *ApplicationService {
	return &ApplicationService{
		applications: deps.ApplicationRepo,
		services:     deps.ServiceRepo,
		history:      deps.HistoryRepo,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       loggerOrNop(deps.Logger),
	}
}

// SubmitInput is a citizen's application form.
type SubmitInput struct {
	ServiceID string
	FormData  map[string]string
}

// ApplicationQuery holds list parameters. Status "" or "all" matches any.
type ApplicationQuery struct {
	Search string
	Status string
	Limit  int
	Offset int
}

// ApplicationDetail is an application together with its audit trail.
type ApplicationDetail struct {
	Application *domain.Application
	History     []domain.ApplicationHistory
}

// ParseStatusFilter validates a status query parameter.
func ParseStatusFilter(raw string) (domain.ApplicationStatus, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == "all" {
		return "", nil
	}
	status := domain.ApplicationStatus(raw)
	if !status.Valid() {
		return "", apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
	}
	return status, nil
}

// Submit files a new pending application for an active service. Contact
// fields missing from the form are taken from the applicant's profile.
func (s *ApplicationService) Submit(ctx context.Context, applicant *domain.User, input SubmitInput) (*domain.Application, error) {
	if applicant == nil {
		return nil, apperrors.NewLoginRequired()
	}
	if strings.TrimSpace(input.ServiceID) == "" {
		return nil, apperrors.NewValidationError("service_id is required", map[string]any{"field": "service_id"})
	}
	svc, err := s.services.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, notFound("service", err)
	}
	if !svc.IsActive {
		return nil, apperrors.NewValidationError("service is not accepting applications", map[string]any{"service_id": svc.ID})
	}

	form := make(map[string]string, len(input.FormData)+3)
	for key, value := range input.FormData {
		if key = strings.TrimSpace(key); key != "" {
			form[key] = strings.TrimSpace(value)
		}
	}
	prefill(form, FieldApplicantName, applicant.Name)
	prefill(form, FieldContactNumber, applicant.Phone)
	prefill(form, FieldAddress, applicant.Address)
	if err := requireFields(form, FieldApplicantName, FieldContactNumber, FieldAddress); err != nil {
		return nil, err
	}

	app := &domain.Application{
		UserID:    applicant.ID,
		ServiceID: svc.ID,
		FormData:  form,
		Status:    domain.ApplicationStatusPending,
	}
	if err := s.applications.Create(ctx, app); err != nil {
		return nil, err
	}
	app.ServiceTitle = svc.Title

	s.metrics.RecordSubmission(svc.Category)
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventApplicationSubmitted, app.ID, actorOf(applicant),
		events.ApplicationSubmittedPayload{ServiceID: svc.ID, ServiceTitle: svc.Title, Category: svc.Category}))
	return app, nil
}

func prefill(form map[string]string, key, fallback string) {
	if strings.TrimSpace(form[key]) == "" {
		form[key] = strings.TrimSpace(fallback)
	}
}

// ListForUser returns the caller's own applications, searchable by service title.
func (s *ApplicationService) ListForUser(ctx context.Context, userID string, query ApplicationQuery) ([]domain.Application, int, error) {
	status, err := ParseStatusFilter(query.Status)
	if err != nil {
		return nil, 0, err
	}
	return s.applications.List(ctx, repository.ApplicationFilter{
		UserID: &userID,
		Status: status,
		Search: query.Search,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
}

// GetForUser fetches one of the caller's applications. Other citizens'
// applications are reported as missing.
func (s *ApplicationService) GetForUser(ctx context.Context, userID, id string) (*ApplicationDetail, error) {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("application", err)
	}
	if app.UserID != userID {
		return nil, apperrors.NewNotFound("application", nil)
	}
	return s.withHistory(ctx, app)
}

// ListForOperator returns every application for staff and admins; the search
// text also matches application ids.
func (s *ApplicationService) ListForOperator(ctx context.Context, query ApplicationQuery) ([]domain.Application, int, error) {
	status, err := ParseStatusFilter(query.Status)
	if err != nil {
		return nil, 0, err
	}
	return s.applications.List(ctx, repository.ApplicationFilter{
		Status:     status,
		Search:     query.Search,
		SearchByID: true,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
}

// GetForOperator fetches any application with its history.
func (s *ApplicationService) GetForOperator(ctx context.Context, id string) (*ApplicationDetail, error) {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("application", err)
	}
	return s.withHistory(ctx, app)
}

func (s *ApplicationService) withHistory(ctx context.Context, app *domain.Application) (*ApplicationDetail, error) {
	history := []domain.ApplicationHistory{}
	if s.history != nil {
		entries, err := s.history.ListByApplication(ctx, app.ID)
		if err != nil {
			return nil, err
		}
		history = entries
	}
	return &ApplicationDetail{Application: app, History: history}, nil
}

// UpdateStatus moves an application along the review workflow. Requesting
// the current status only updates the remarks.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor *domain.User, id string, newStatus domain.ApplicationStatus, remarks string) (*domain.Application, error) {
	if actor == nil || !actor.Role.IsOperator() {
		return nil, apperrors.NewNotAuthorized()
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("application", err)
	}

	oldStatus := app.Status
	if oldStatus != newStatus && !IsValidTransition(oldStatus, newStatus) {
		return nil, apperrors.NewInvalidTransition(string(oldStatus), string(newStatus))
	}

	processedBy := actor.ID
	app.Status = newStatus
	app.Remarks = strings.TrimSpace(remarks)
	app.ProcessedBy = &processedBy
	entry := &domain.ApplicationHistory{
		ApplicationID: app.ID,
		ChangedBy:     actor.ID,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		Remarks:       app.Remarks,
	}
	if err := s.applications.Transition(ctx, app, oldStatus, entry); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, apperrors.NewInvalidTransition(string(oldStatus), string(newStatus))
		case errors.Is(err, repository.ErrInUse):
			return nil, apperrors.NewNotFound("application", nil)
		}
		return nil, notFound("application", err)
	}

	if oldStatus != newStatus {
		s.metrics.RecordStatusChange(string(oldStatus), string(newStatus))
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventApplicationStatusChanged, app.ID, actorOf(actor),
		events.ApplicationStatusChangedPayload{
			ApplicantID: app.UserID,
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
			Remarks:     app.Remarks,
		}))
	return app, nil
}

var allowedTransitions = map[domain.ApplicationStatus][]domain.ApplicationStatus{
	domain.ApplicationStatusPending:     {domain.ApplicationStatusUnderReview},
	domain.ApplicationStatusUnderReview: {domain.ApplicationStatusApproved, domain.ApplicationStatusRejected},
	domain.ApplicationStatusApproved:    {domain.ApplicationStatusCompleted},
	domain.ApplicationStatusRejected:    {},
	domain.ApplicationStatusCompleted:   {},
}

// IsValidTransition reports whether current may move to next.
func IsValidTransition(current, next domain.ApplicationStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from current.
func NextStatuses(current domain.ApplicationStatus) []domain.ApplicationStatus {
	return append([]domain.ApplicationStatus{}, allowedTransitions[current]...)
}

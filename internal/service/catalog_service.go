package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/events"
	"github.com/spec-kit/gram-portal/internal/repository"
	apperrors "github.com/spec-kit/gram-portal/pkg/util/errorutil"
)

// CatalogService manages the public service catalogue.
type CatalogService struct {
	services     repository.ServiceRepository
	applications repository.ApplicationRepository
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// CatalogDependencies bundles repositories for the catalogue service.
type CatalogDependencies struct {
	ServiceRepo     repository.ServiceRepository
	ApplicationRepo repository.ApplicationRepository
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		services:     deps.ServiceRepo,
		applications: deps.ApplicationRepo,
		dispatcher:   deps.Dispatcher,
		logger:       loggerOrNop(deps.Logger),
	}
}

// ServiceInput describes the admin service form. A nil IsActive keeps the
// current value on update and defaults to active on create.
type ServiceInput struct {
	Title             string
	Description       string
	Category          string
	Eligibility       string
	RequiredDocuments []string
	IsActive          *bool
}

// CatalogQuery holds the list parameters shared by both catalogue views.
type CatalogQuery struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}

// ListPublic returns active services matching the search text against title
// or description and the category.
func (s *CatalogService) ListPublic(ctx context.Context, query CatalogQuery) ([]domain.Service, int, error) {
	return s.services.List(ctx, repository.ServiceFilter{
		Search:     query.Search,
		Category:   query.Category,
		ActiveOnly: true,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
}

// ListAdmin returns every service, active or not, matching the search text
// against title or category.
func (s *CatalogService) ListAdmin(ctx context.Context, query CatalogQuery) ([]domain.Service, int, error) {
	return s.services.List(ctx, repository.ServiceFilter{
		Search:         query.Search,
		SearchCategory: true,
		Category:       query.Category,
		Limit:          query.Limit,
		Offset:         query.Offset,
	})
}

// Categories lists the categories of active services, led by the wildcard.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.services.Categories(ctx, true)
	if err != nil {
		return nil, err
	}
	return append([]string{domain.AllCategories}, categories...), nil
}

// GetPublic fetches an active service.
func (s *CatalogService) GetPublic(ctx context.Context, id string) (*domain.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("service", err)
	}
	if !svc.IsActive {
		return nil, apperrors.NewNotFound("service", nil)
	}
	return svc, nil
}

// Get fetches a service regardless of its active flag.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("service", err)
	}
	return svc, nil
}

// Create adds a service to the catalogue.
func (s *CatalogService) Create(ctx context.Context, actor *domain.User, input ServiceInput) (*domain.Service, error) {
	if err := validateServiceInput(&input); err != nil {
		return nil, err
	}
	svc := &domain.Service{
		Title:             input.Title,
		Description:       input.Description,
		Category:          input.Category,
		Eligibility:       input.Eligibility,
		RequiredDocuments: input.RequiredDocuments,
		IsActive:          input.IsActive == nil || *input.IsActive,
	}
	if actor != nil {
		svc.CreatedBy = actor.ID
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventServiceCreated, actor, svc)
	return svc, nil
}

// Update replaces the editable fields of a service.
func (s *CatalogService) Update(ctx context.Context, actor *domain.User, id string, input ServiceInput) (*domain.Service, error) {
	if err := validateServiceInput(&input); err != nil {
		return nil, err
	}
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("service", err)
	}
	svc.Title = input.Title
	svc.Description = input.Description
	svc.Category = input.Category
	svc.Eligibility = input.Eligibility
	svc.RequiredDocuments = input.RequiredDocuments
	if input.IsActive != nil {
		svc.IsActive = *input.IsActive
	}
	if err := s.services.Update(ctx, svc); err != nil {
		return nil, notFound("service", err)
	}
	s.publish(ctx, events.EventServiceUpdated, actor, svc)
	return svc, nil
}

// SetActive shows or hides a service from citizens.
func (s *CatalogService) SetActive(ctx context.Context, actor *domain.User, id string, active bool) (*domain.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("service", err)
	}
	if svc.IsActive == active {
		return svc, nil
	}
	svc.IsActive = active
	if err := s.services.Update(ctx, svc); err != nil {
		return nil, notFound("service", err)
	}
	s.publish(ctx, events.EventServiceUpdated, actor, svc)
	return svc, nil
}

// Delete removes a service nobody has applied to yet.
func (s *CatalogService) Delete(ctx context.Context, actor *domain.User, id string) error {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return notFound("service", err)
	}
	inUse := apperrors.NewConflict("service has applications and cannot be deleted; deactivate it instead",
		map[string]any{"service_id": id})

	count, err := s.applications.CountByService(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return inUse
	}
	if err := s.services.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return inUse
		}
		return notFound("service", err)
	}
	s.publish(ctx, events.EventServiceDeleted, actor, svc)
	return nil
}

func (s *CatalogService) publish(ctx context.Context, eventType events.EventType, actor *domain.User, svc *domain.Service) {
	publishEvent(ctx, s.dispatcher, s.logger, events.New(eventType, svc.ID, actorOf(actor), events.ServiceChangedPayload{
		Title:    svc.Title,
		Category: svc.Category,
		IsActive: svc.IsActive,
	}))
}

func validateServiceInput(input *ServiceInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.Eligibility = strings.TrimSpace(input.Eligibility)
	if err := requireFields(map[string]string{
		"title":       input.Title,
		"description": input.Description,
		"category":    input.Category,
	}, "title", "description", "category"); err != nil {
		return err
	}
	if input.Category == domain.AllCategories {
		return apperrors.NewValidationError("category is reserved", map[string]any{"field": "category"})
	}

	docs := make([]string, 0, len(input.RequiredDocuments))
	for _, doc := range input.RequiredDocuments {
		if doc = strings.TrimSpace(doc); doc != "" {
			docs = append(docs, doc)
		}
	}
	input.RequiredDocuments = docs
	return nil
}

package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/gram-portal/internal/domain"
)

// MemoryStore keeps every table in process memory. It backs the demo mode
// that runs without POSTGRES_DSN and the test suites. Records are copied on
// the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	services     map[string]domain.Service
	applications map[string]domain.Application
	history      map[string][]domain.ApplicationHistory
	resets       map[string]domain.PasswordResetToken

	now  func() time.Time
	last time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]domain.User),
		services:     make(map[string]domain.Service),
		applications: make(map[string]domain.Application),
		history:      make(map[string][]domain.ApplicationHistory),
		resets:       make(map[string]domain.PasswordResetToken),
		now:          time.Now,
	}
}

// Users exposes the accounts table.
func (s *MemoryStore) Users() UserRepository { return &memoryUsers{s} }

// Services exposes the catalogue table.
func (s *MemoryStore) Services() ServiceRepository { return &memoryServices{s} }

// Applications exposes the applications table.
func (s *MemoryStore) Applications() ApplicationRepository { return &memoryApplications{s} }

// History exposes the application audit trail.
func (s *MemoryStore) History() ApplicationHistoryRepository { return &memoryHistory{s} }

// PasswordResets exposes the reset token table.
func (s *MemoryStore) PasswordResets() PasswordResetRepository { return &memoryResets{s} }

// tick returns a strictly increasing timestamp so newest-first ordering is
// stable for records created in quick succession. Callers hold mu.
func (s *MemoryStore) tick() time.Time {
	now := s.now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

type memoryUsers struct{ s *MemoryStore }

func (r *memoryUsers) Create(ctx context.Context, user *domain.User) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.tick()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r *memoryUsers) Update(ctx context.Context, user *domain.User) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = user.Name
	existing.Phone = user.Phone
	existing.Address = user.Address
	existing.PasswordHash = user.PasswordHash
	existing.Role = user.Role
	existing.UpdatedAt = r.s.tick()
	r.s.users[user.ID] = existing
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *memoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range r.s.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUsers) List(ctx context.Context, filter UserFilter) ([]domain.User, int, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := []domain.User{}
	for _, user := range r.s.users {
		if filter.Matches(&user) {
			matched = append(matched, user)
		}
	}
	sortNewestFirst(matched,
		func(u domain.User) int64 { return u.CreatedAt.UnixNano() },
		func(u domain.User) string { return u.ID })
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r *memoryUsers) Count(ctx context.Context) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

type memoryServices struct{ s *MemoryStore }

func cloneService(svc domain.Service) domain.Service {
	svc.RequiredDocuments = append([]string{}, svc.RequiredDocuments...)
	return svc
}

func (r *memoryServices) Create(ctx context.Context, svc *domain.Service) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	svc.ID = uuid.NewString()
	svc.RequiredDocuments = documents(svc.RequiredDocuments)
	svc.CreatedAt = r.s.tick()
	svc.UpdatedAt = svc.CreatedAt
	r.s.services[svc.ID] = cloneService(*svc)
	return nil
}

func (r *memoryServices) Update(ctx context.Context, svc *domain.Service) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.services[svc.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title = svc.Title
	existing.Description = svc.Description
	existing.Category = svc.Category
	existing.Eligibility = svc.Eligibility
	existing.RequiredDocuments = documents(svc.RequiredDocuments)
	existing.IsActive = svc.IsActive
	existing.UpdatedAt = r.s.tick()
	r.s.services[svc.ID] = existing
	svc.RequiredDocuments = cloneService(existing).RequiredDocuments
	svc.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *memoryServices) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	svc, ok := r.s.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	svc = cloneService(svc)
	return &svc, nil
}

func (r *memoryServices) Delete(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.services[id]; !ok {
		return ErrNotFound
	}
	for _, app := range r.s.applications {
		if app.ServiceID == id {
			return ErrInUse
		}
	}
	delete(r.s.services, id)
	return nil
}

func (r *memoryServices) List(ctx context.Context, filter ServiceFilter) ([]domain.Service, int, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := []domain.Service{}
	for _, svc := range r.s.services {
		if filter.Matches(&svc) {
			matched = append(matched, cloneService(svc))
		}
	}
	sortNewestFirst(matched,
		func(s domain.Service) int64 { return s.CreatedAt.UnixNano() },
		func(s domain.Service) string { return s.ID })
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r *memoryServices) Count(ctx context.Context, activeOnly bool) (int, error) {
	counts, err := r.CountByCategory(ctx, activeOnly)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (r *memoryServices) CountByCategory(ctx context.Context, activeOnly bool) (map[string]int, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := map[string]int{}
	for _, svc := range r.s.services {
		if activeOnly && !svc.IsActive {
			continue
		}
		counts[svc.Category]++
	}
	return counts, nil
}

func (r *memoryServices) Categories(ctx context.Context, activeOnly bool) ([]string, error) {
	counts, err := r.CountByCategory(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(counts))
	for category := range counts {
		result = append(result, category)
	}
	sort.Strings(result)
	return result, nil
}

type memoryApplications struct{ s *MemoryStore }

// withTitle copies app and joins the service title. Callers hold mu.
func (r *memoryApplications) withTitle(app domain.Application) domain.Application {
	data := make(map[string]string, len(app.FormData))
	for k, v := range app.FormData {
		data[k] = v
	}
	app.FormData = data
	if app.ProcessedBy != nil {
		by := *app.ProcessedBy
		app.ProcessedBy = &by
	}
	app.ServiceTitle = r.s.services[app.ServiceID].Title
	return app
}

func (r *memoryApplications) Create(ctx context.Context, app *domain.Application) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[app.UserID]; !ok {
		return ErrInUse
	}
	if _, ok := r.s.services[app.ServiceID]; !ok {
		return ErrInUse
	}
	app.ID = uuid.NewString()
	app.FormData = formData(app.FormData)
	if app.CreatedAt.IsZero() {
		app.CreatedAt = r.s.tick()
	}
	app.UpdatedAt = app.CreatedAt
	stored := r.withTitle(*app)
	r.s.applications[app.ID] = stored
	app.ServiceTitle = stored.ServiceTitle
	return nil
}

func (r *memoryApplications) Update(ctx context.Context, app *domain.Application) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.applications[app.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = app.Status
	existing.Remarks = app.Remarks
	existing.ProcessedBy = app.ProcessedBy
	existing.FormData = formData(app.FormData)
	existing.UpdatedAt = r.s.tick()
	r.s.applications[app.ID] = r.withTitle(existing)
	app.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *memoryApplications) Transition(ctx context.Context, app *domain.Application, from domain.ApplicationStatus, entry *domain.ApplicationHistory) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.applications[app.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.Status != from {
		return ErrStaleStatus
	}
	existing.Status = app.Status
	existing.Remarks = app.Remarks
	existing.ProcessedBy = app.ProcessedBy
	existing.FormData = formData(app.FormData)
	existing.UpdatedAt = r.s.tick()
	r.s.applications[app.ID] = r.withTitle(existing)
	app.UpdatedAt = existing.UpdatedAt

	if entry != nil {
		entry.ApplicationID = app.ID
		entry.ID = uuid.NewString()
		entry.CreatedAt = r.s.tick()
		r.s.history[app.ID] = append(r.s.history[app.ID], *entry)
	}
	return nil
}

func (r *memoryApplications) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	app, ok := r.s.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	app = r.withTitle(app)
	return &app, nil
}

func (r *memoryApplications) List(ctx context.Context, filter ApplicationFilter) ([]domain.Application, int, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := []domain.Application{}
	for _, app := range r.s.applications {
		app = r.withTitle(app)
		if filter.Matches(&app) {
			matched = append(matched, app)
		}
	}
	sortNewestFirst(matched,
		func(a domain.Application) int64 { return a.CreatedAt.UnixNano() },
		func(a domain.Application) string { return a.ID })
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r *memoryApplications) CountByStatus(ctx context.Context, userID *string) (map[domain.ApplicationStatus]int, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[domain.ApplicationStatus]int, len(domain.ApplicationStatuses))
	for _, status := range domain.ApplicationStatuses {
		counts[status] = 0
	}
	for _, app := range r.s.applications {
		if userID != nil && app.UserID != *userID {
			continue
		}
		counts[app.Status]++
	}
	return counts, nil
}

func (r *memoryApplications) CountByService(ctx context.Context, serviceID string) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total := 0
	for _, app := range r.s.applications {
		if app.ServiceID == serviceID {
			total++
		}
	}
	return total, nil
}

func (r *memoryApplications) CountStale(ctx context.Context, status domain.ApplicationStatus, olderThan time.Time) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total := 0
	for _, app := range r.s.applications {
		if app.Status == status && app.CreatedAt.Before(olderThan) {
			total++
		}
	}
	return total, nil
}

type memoryHistory struct{ s *MemoryStore }

func (r *memoryHistory) Create(ctx context.Context, history *domain.ApplicationHistory) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.applications[history.ApplicationID]; !ok {
		return ErrInUse
	}
	history.ID = uuid.NewString()
	history.CreatedAt = r.s.tick()
	r.s.history[history.ApplicationID] = append(r.s.history[history.ApplicationID], *history)
	return nil
}

func (r *memoryHistory) ListByApplication(ctx context.Context, applicationID string) ([]domain.ApplicationHistory, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]domain.ApplicationHistory{}, r.s.history[applicationID]...), nil
}

type memoryResets struct{ s *MemoryStore }

func (r *memoryResets) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.resets {
		if existing.Token == token.Token {
			return ErrDuplicate
		}
	}
	token.ID = uuid.NewString()
	token.CreatedAt = r.s.tick()
	r.s.resets[token.ID] = *token
	return nil
}

func (r *memoryResets) GetByToken(ctx context.Context, value string) (*domain.PasswordResetToken, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, token := range r.s.resets {
		if token.Token == value {
			found := token
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryResets) MarkUsed(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token, ok := r.s.resets[id]
	if !ok || token.UsedAt != nil {
		return ErrNotFound
	}
	usedAt := r.s.tick()
	token.UsedAt = &usedAt
	r.s.resets[id] = token
	return nil
}

func (r *memoryResets) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	removed := 0
	for id, token := range r.s.resets {
		if token.ExpiresAt.Before(before) || token.UsedAt != nil {
			delete(r.s.resets, id)
			removed++
		}
	}
	return removed, nil
}

package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/gram-portal/internal/config"
	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/events"
	"github.com/spec-kit/gram-portal/internal/observability"
	"github.com/spec-kit/gram-portal/internal/repository"
	"github.com/spec-kit/gram-portal/internal/seed"
	"github.com/spec-kit/gram-portal/internal/session"
	apperrors "github.com/spec-kit/gram-portal/pkg/util/errorutil"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store        *repository.MemoryStore
	sessions     *session.MemoryStore
	metrics      *observability.Metrics
	events       *recorder
	auth         *AuthService
	catalog      *CatalogService
	applications *ApplicationService
	dashboards   *DashboardService
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              bcrypt.MinCost,
		},
	}
}

func newTestEnv(t *testing.T, seeded bool) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	if seeded {
		require.NoError(t, seed.NewSeeder(seed.Dependencies{
			UserRepo:        store.Users(),
			ServiceRepo:     store.Services(),
			ApplicationRepo: store.Applications(),
			HistoryRepo:     store.History(),
			BcryptCost:      bcrypt.MinCost,
		}).Run(context.Background()))
	}

	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, rec.handle)
	}
	sessions := session.NewMemoryStore()
	metrics := observability.NewMetrics()

	return &testEnv{
		store:    store,
		sessions: sessions,
		metrics:  metrics,
		events:   rec,
		auth: NewAuthService(testConfig(), AuthDependencies{
			UserRepo:          store.Users(),
			PasswordResetRepo: store.PasswordResets(),
			Sessions:          sessions,
			Dispatcher:        dispatcher,
			Metrics:           metrics,
		}),
		catalog: NewCatalogService(CatalogDependencies{
			ServiceRepo:     store.Services(),
			ApplicationRepo: store.Applications(),
			Dispatcher:      dispatcher,
		}),
		applications: NewApplicationService(ApplicationDependencies{
			ApplicationRepo: store.Applications(),
			ServiceRepo:     store.Services(),
			HistoryRepo:     store.History(),
			Dispatcher:      dispatcher,
			Metrics:         metrics,
		}),
		dashboards: NewDashboardService(DashboardDependencies{
			UserRepo:        store.Users(),
			ServiceRepo:     store.Services(),
			ApplicationRepo: store.Applications(),
		}),
	}
}

func (e *testEnv) user(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := e.store.Users().GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user
}

func (e *testEnv) service(t *testing.T, title string) *domain.Service {
	t.Helper()
	list, _, err := e.store.Services().List(context.Background(), repository.ServiceFilter{Search: title})
	require.NoError(t, err)
	for i := range list {
		if list[i].Title == title {
			return &list[i]
		}
	}
	t.Fatalf("service %q not seeded", title)
	return nil
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

// counterValue sums the samples of a gathered counter whose labels include
// every pair in labels.
func counterValue(t *testing.T, metrics *observability.Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, pair := range metric.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want == pair.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

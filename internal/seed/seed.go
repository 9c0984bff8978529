package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/gram-portal/internal/auth"
	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/repository"
)

// Demo account credentials.
const (
	AdminEmail      = "admin@grampanchayat.gov"
	AdminPassword   = "admin123"
	StaffEmail      = "staff@grampanchayat.gov"
	StaffPassword   = "staff123"
	CitizenEmail    = "ramesh@example.com"
	CitizenPassword = "user123"
)

// Seeder loads demo accounts, the service catalogue and sample applications.
type Seeder struct {
	users        repository.UserRepository
	services     repository.ServiceRepository
	applications repository.ApplicationRepository
	history      repository.ApplicationHistoryRepository
	bcryptCost   int
	logger       *zap.Logger
	now          func() time.Time
}

// Dependencies bundles the repositories the seeder writes to.
type Dependencies struct {
	UserRepo        repository.UserRepository
	ServiceRepo     repository.ServiceRepository
	ApplicationRepo repository.ApplicationRepository
	HistoryRepo     repository.ApplicationHistoryRepository
	BcryptCost      int
	Logger          *zap.Logger
}

// NewSeeder creates a new seeder instance.
func NewSeeder(deps Dependencies) *Seeder {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		users:        deps.UserRepo,
		services:     deps.ServiceRepo,
		applications: deps.ApplicationRepo,
		history:      deps.HistoryRepo,
		bcryptCost:   deps.BcryptCost,
		logger:       logger,
		now:          time.Now,
	}
}

type account struct {
	name, email, phone, address, password string
	role                                  domain.Role
}

var accounts = []account{
	{"Admin User", AdminEmail, "9876543210", "Panchayat Office, Village Center", AdminPassword, domain.RoleAdmin},
	{"Staff Member", StaffEmail, "9876543211", "Panchayat Office, Village Center", StaffPassword, domain.RoleStaff},
	{"Ramesh Kumar", CitizenEmail, "9876543212", "123 Village Road, Ward 5", CitizenPassword, domain.RoleCitizen},
}

var catalogue = []domain.Service{
	{
		Title:             "Birth Certificate",
		Description:       "Official registration and certificate for a birth within the panchayat.",
		Category:          "Certificates",
		Eligibility:       "Births registered within the panchayat limits.",
		RequiredDocuments: []string{"Hospital discharge record", "Parents' Aadhaar card", "Address proof"},
		IsActive:          true,
	},
	{
		Title:             "Income Certificate",
		Description:       "Certificate stating the annual family income for schemes and admissions.",
		Category:          "Certificates",
		Eligibility:       "Residents of the panchayat.",
		RequiredDocuments: []string{"Aadhaar card", "Salary slip or self declaration", "Ration card"},
		IsActive:          true,
	},
	{
		Title:             "Residence Certificate",
		Description:       "Proof of residence issued by the Gram Panchayat.",
		Category:          "Certificates",
		Eligibility:       "Residents living in the village for at least one year.",
		RequiredDocuments: []string{"Aadhaar card", "Electricity bill"},
		IsActive:          true,
	},
	{
		Title:             "Old Age Pension",
		Description:       "Monthly pension support for senior citizens.",
		Category:          "Welfare Schemes",
		Eligibility:       "Residents aged 60 years or above with limited income.",
		RequiredDocuments: []string{"Age proof", "Income certificate", "Bank passbook"},
		IsActive:          true,
	},
	{
		Title:             "Widow Pension",
		Description:       "Financial assistance for widows of the panchayat.",
		Category:          "Welfare Schemes",
		Eligibility:       "Widows residing in the panchayat.",
		RequiredDocuments: []string{"Death certificate of spouse", "Aadhaar card", "Bank passbook"},
		IsActive:          true,
	},
	{
		Title:             "Water Connection",
		Description:       "New household drinking water tap connection.",
		Category:          "Utilities",
		Eligibility:       "Property owners within the supply area.",
		RequiredDocuments: []string{"Property tax receipt", "Aadhaar card"},
		IsActive:          true,
	},
	{
		Title:             "Trade License",
		Description:       "License to run a shop or small business in the village.",
		Category:          "Licenses",
		Eligibility:       "Business owners operating within the panchayat.",
		RequiredDocuments: []string{"Shop ownership or rent agreement", "Aadhaar card", "Photograph"},
		IsActive:          true,
	},
	{
		Title:             "Crop Damage Compensation",
		Description:       "Compensation claim for crops damaged by natural calamities.",
		Category:          "Agriculture",
		Eligibility:       "Farmers with land records in the panchayat.",
		RequiredDocuments: []string{"Land record (7/12 extract)", "Bank passbook", "Photographs of damage"},
		IsActive:          false,
	},
}

type sampleApplication struct {
	service string
	status  domain.ApplicationStatus
	remarks string
	age     time.Duration
	info    string
}

var samples = []sampleApplication{
	{"Birth Certificate", domain.ApplicationStatusPending, "", 2 * 24 * time.Hour, "Certificate for my daughter"},
	{"Income Certificate", domain.ApplicationStatusUnderReview, "Documents are being verified", 5 * 24 * time.Hour, "Required for scholarship"},
	{"Old Age Pension", domain.ApplicationStatusApproved, "Approved. Pension starts next month.", 12 * 24 * time.Hour, "Application for my father"},
}

// Run seeds everything that is missing. It is safe to call on every boot.
func (s *Seeder) Run(ctx context.Context) error {
	s.logger.Info("running demo data seeders")

	users := make(map[domain.Role]*domain.User, len(accounts))
	for _, acc := range accounts {
		user, err := s.seedAccount(ctx, acc)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", acc.email, err)
		}
		users[acc.role] = user
	}

	existing, err := s.services.Count(ctx, false)
	if err != nil {
		return err
	}
	if existing > 0 {
		s.logger.Info("catalogue already present; skipping catalogue seed", zap.Int("services", existing))
		return nil
	}

	byTitle := make(map[string]*domain.Service, len(catalogue))
	for _, tmpl := range catalogue {
		svc := tmpl
		svc.RequiredDocuments = append([]string{}, tmpl.RequiredDocuments...)
		svc.CreatedBy = users[domain.RoleAdmin].ID
		if err := s.services.Create(ctx, &svc); err != nil {
			return fmt.Errorf("seed service %s: %w", svc.Title, err)
		}
		byTitle[svc.Title] = &svc
	}

	for _, sample := range samples {
		if err := s.seedApplication(ctx, users[domain.RoleCitizen], users[domain.RoleStaff], byTitle[sample.service], sample); err != nil {
			return fmt.Errorf("seed application for %s: %w", sample.service, err)
		}
	}

	s.logger.Info("demo data seeded",
		zap.Int("services", len(catalogue)),
		zap.Int("applications", len(samples)))
	return nil
}

func (s *Seeder) seedAccount(ctx context.Context, acc account) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, acc.email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(acc.password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user = &domain.User{
		Name:         acc.name,
		Email:        acc.email,
		Phone:        acc.phone,
		Address:      acc.address,
		PasswordHash: hash,
		Role:         acc.role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("demo account created", zap.String("email", user.Email), zap.String("role", string(user.Role)))
	return user, nil
}

// seedApplication replays the workflow up to the sample's status so the
// history matches what staff would have produced.
func (s *Seeder) seedApplication(ctx context.Context, citizen, staff *domain.User, svc *domain.Service, sample sampleApplication) error {
	app := &domain.Application{
		UserID:    citizen.ID,
		ServiceID: svc.ID,
		FormData: map[string]string{
			"applicant_name":  citizen.Name,
			"contact_number":  citizen.Phone,
			"address":         citizen.Address,
			"additional_info": sample.info,
		},
		Status:    domain.ApplicationStatusPending,
		CreatedAt: s.now().Add(-sample.age).UTC(),
	}
	if err := s.applications.Create(ctx, app); err != nil {
		return err
	}

	path := workflowPath(sample.status)
	for i := 1; i < len(path); i++ {
		remarks := ""
		if i == len(path)-1 {
			remarks = sample.remarks
		}
		if err := s.history.Create(ctx, &domain.ApplicationHistory{
			ApplicationID: app.ID,
			ChangedBy:     staff.ID,
			OldStatus:     path[i-1],
			NewStatus:     path[i],
			Remarks:       remarks,
		}); err != nil {
			return err
		}
	}
	if len(path) == 1 {
		return nil
	}

	processedBy := staff.ID
	app.Status = sample.status
	app.Remarks = sample.remarks
	app.ProcessedBy = &processedBy
	return s.applications.Update(ctx, app)
}

func workflowPath(target domain.ApplicationStatus) []domain.ApplicationStatus {
	switch target {
	case domain.ApplicationStatusUnderReview:
		return []domain.ApplicationStatus{domain.ApplicationStatusPending, domain.ApplicationStatusUnderReview}
	case domain.ApplicationStatusApproved:
		return []domain.ApplicationStatus{domain.ApplicationStatusPending, domain.ApplicationStatusUnderReview, domain.ApplicationStatusApproved}
	case domain.ApplicationStatusRejected:
		return []domain.ApplicationStatus{domain.ApplicationStatusPending, domain.ApplicationStatusUnderReview, domain.ApplicationStatusRejected}
	case domain.ApplicationStatusCompleted:
		return []domain.ApplicationStatus{domain.ApplicationStatusPending, domain.ApplicationStatusUnderReview, domain.ApplicationStatusApproved, domain.ApplicationStatusCompleted}
	default:
		return []domain.ApplicationStatus{domain.ApplicationStatusPending}
	}
}

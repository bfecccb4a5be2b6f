package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/skregdev/skreg/internal/models"
)

// MockNamespaceRepository is a mock implementation of NamespaceRepository for testing.
type MockNamespaceRepository struct {
	mock.Mock
}

func (m *MockNamespaceRepository) Create(ctx context.Context, ns *models.Namespace) error {
	args := m.Called(ctx, ns)
	if args.Error(0) == nil {
		if ns.ID == uuid.Nil {
			ns.ID = uuid.New()
		}
		ns.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockNamespaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Namespace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Namespace), args.Error(1)
}

func (m *MockNamespaceRepository) GetBySlug(ctx context.Context, slug string) (*models.Namespace, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Namespace), args.Error(1)
}

func (m *MockNamespaceRepository) ListSlugs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockNamespaceRepository) Ban(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAPIKeyRepository is a mock implementation of APIKeyRepository for testing.
type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	args := m.Called(ctx, key)
	if args.Error(0) == nil {
		if key.ID == uuid.Nil {
			key.ID = uuid.New()
		}
		key.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockAPIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	args := m.Called(ctx, keyHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPackageRepository is a mock implementation of PackageRepository for testing.
type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) Upsert(ctx context.Context, pkg *models.Package) error {
	args := m.Called(ctx, pkg)
	if args.Error(0) == nil {
		if pkg.ID == uuid.Nil {
			pkg.ID = uuid.New()
		}
		pkg.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockPackageRepository) GetByName(ctx context.Context, namespaceID uuid.UUID, name string) (*models.Package, error) {
	args := m.Called(ctx, namespaceID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Package), args.Error(1)
}

func (m *MockPackageRepository) ListAllNames(ctx context.Context) ([]models.PackageSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PackageSummary), args.Error(1)
}

func (m *MockPackageRepository) Search(ctx context.Context, query string, limit int) ([]models.PackageSummary, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PackageSummary), args.Error(1)
}

// MockVersionRepository is a mock implementation of VersionRepository for testing.
type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) Create(ctx context.Context, v *models.Version) error {
	args := m.Called(ctx, v)
	if args.Error(0) == nil {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		if v.Signer == "" {
			v.Signer = models.SignerRegistry
		}
		v.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Version, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Version), args.Error(1)
}

func (m *MockVersionRepository) GetWithNames(ctx context.Context, id uuid.UUID) (*models.Version, string, string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*models.Version), args.String(1), args.String(2), args.Error(3)
}

func (m *MockVersionRepository) GetByVersion(ctx context.Context, packageID uuid.UUID, version string) (*models.Version, error) {
	args := m.Called(ctx, packageID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Version), args.Error(1)
}

func (m *MockVersionRepository) Exists(ctx context.Context, packageID uuid.UUID, version string) (bool, error) {
	args := m.Called(ctx, packageID, version)
	return args.Bool(0), args.Error(1)
}

func (m *MockVersionRepository) Latest(ctx context.Context, packageID uuid.UUID) (*models.Version, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Version), args.Error(1)
}

func (m *MockVersionRepository) ListByPackage(ctx context.Context, packageID uuid.UUID) ([]*models.Version, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Version), args.Error(1)
}

func (m *MockVersionRepository) ListYanked(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockVersionRepository) SetSignature(ctx context.Context, id uuid.UUID, sigPath, signer string, certSerial *int64) error {
	args := m.Called(ctx, id, sigPath, signer, certSerial)
	return args.Error(0)
}

func (m *MockVersionRepository) Yank(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockJobRepository is a mock implementation of JobRepository for testing.
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *models.VettingJob) error {
	args := m.Called(ctx, job)
	if args.Error(0) == nil {
		if job.ID == uuid.Nil {
			job.ID = uuid.New()
		}
		job.Status = models.JobStatusPending
		job.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VettingJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VettingJob), args.Error(1)
}

func (m *MockJobRepository) GetStatus(ctx context.Context, id uuid.UUID) (models.JobStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.JobStatus), args.Error(1)
}

func (m *MockJobRepository) Complete(ctx context.Context, id uuid.UUID, status models.JobStatus, results *models.JobResults) error {
	args := m.Called(ctx, id, status, results)
	return args.Error(0)
}

func (m *MockJobRepository) ListStalePending(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/skregdev/skreg/internal/models"
)

type mockNamespaceRepo struct {
	mock.Mock
}

func (m *mockNamespaceRepo) Create(ctx context.Context, ns *models.Namespace) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

func (m *mockNamespaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Namespace, error) {
	args := m.Called(ctx, id)
	if ns := args.Get(0); ns != nil {
		return ns.(*models.Namespace), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNamespaceRepo) GetBySlug(ctx context.Context, slug string) (*models.Namespace, error) {
	args := m.Called(ctx, slug)
	if ns := args.Get(0); ns != nil {
		return ns.(*models.Namespace), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNamespaceRepo) ListSlugs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if slugs := args.Get(0); slugs != nil {
		return slugs.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNamespaceRepo) Ban(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockAPIKeyRepo struct {
	mock.Mock
}

func (m *mockAPIKeyRepo) Create(ctx context.Context, key *models.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockAPIKeyRepo) GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	args := m.Called(ctx, keyHash)
	if key := args.Get(0); key != nil {
		return key.(*models.APIKey), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPIKeyRepo) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockPackageRepo struct {
	mock.Mock
}

func (m *mockPackageRepo) Upsert(ctx context.Context, pkg *models.Package) error {
	args := m.Called(ctx, pkg)
	return args.Error(0)
}

func (m *mockPackageRepo) GetByName(ctx context.Context, namespaceID uuid.UUID, name string) (*models.Package, error) {
	args := m.Called(ctx, namespaceID, name)
	if pkg := args.Get(0); pkg != nil {
		return pkg.(*models.Package), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPackageRepo) ListAllNames(ctx context.Context) ([]models.PackageSummary, error) {
	args := m.Called(ctx)
	if names := args.Get(0); names != nil {
		return names.([]models.PackageSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPackageRepo) Search(ctx context.Context, query string, limit int) ([]models.PackageSummary, error) {
	args := m.Called(ctx, query, limit)
	if results := args.Get(0); results != nil {
		return results.([]models.PackageSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVersionRepo struct {
	mock.Mock
}

func (m *mockVersionRepo) Create(ctx context.Context, v *models.Version) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockVersionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Version, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Version), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVersionRepo) GetWithNames(ctx context.Context, id uuid.UUID) (*models.Version, string, string, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Version), args.String(1), args.String(2), args.Error(3)
	}
	return nil, args.String(1), args.String(2), args.Error(3)
}

func (m *mockVersionRepo) GetByVersion(ctx context.Context, packageID uuid.UUID, version string) (*models.Version, error) {
	args := m.Called(ctx, packageID, version)
	if v := args.Get(0); v != nil {
		return v.(*models.Version), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVersionRepo) Exists(ctx context.Context, packageID uuid.UUID, version string) (bool, error) {
	args := m.Called(ctx, packageID, version)
	return args.Bool(0), args.Error(1)
}

func (m *mockVersionRepo) Latest(ctx context.Context, packageID uuid.UUID) (*models.Version, error) {
	args := m.Called(ctx, packageID)
	if v := args.Get(0); v != nil {
		return v.(*models.Version), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVersionRepo) ListByPackage(ctx context.Context, packageID uuid.UUID) ([]*models.Version, error) {
	args := m.Called(ctx, packageID)
	if vs := args.Get(0); vs != nil {
		return vs.([]*models.Version), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVersionRepo) ListYanked(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if ys := args.Get(0); ys != nil {
		return ys.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVersionRepo) SetSignature(ctx context.Context, id uuid.UUID, sigPath, signer string, certSerial *int64) error {
	args := m.Called(ctx, id, sigPath, signer, certSerial)
	return args.Error(0)
}

func (m *mockVersionRepo) Yank(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockPublishRepo struct {
	mock.Mock
}

func (m *mockPublishRepo) CreatePublication(ctx context.Context, pkg *models.Package, v *models.Version, job *models.VettingJob) error {
	args := m.Called(ctx, pkg, v, job)
	return args.Error(0)
}

type mockJobRepo struct {
	mock.Mock
}

func (m *mockJobRepo) Create(ctx context.Context, job *models.VettingJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.VettingJob, error) {
	args := m.Called(ctx, id)
	if job := args.Get(0); job != nil {
		return job.(*models.VettingJob), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJobRepo) GetStatus(ctx context.Context, id uuid.UUID) (models.JobStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.JobStatus), args.Error(1)
}

func (m *mockJobRepo) Complete(ctx context.Context, id uuid.UUID, status models.JobStatus, results *models.JobResults) error {
	args := m.Called(ctx, id, status, results)
	return args.Error(0)
}

func (m *mockJobRepo) ListStalePending(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	args := m.Called(ctx, olderThan)
	if ids := args.Get(0); ids != nil {
		return ids.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyVettingJob(ctx context.Context, jobID uuid.UUID) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

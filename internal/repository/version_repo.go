package repository

import (
	"context"
	"errors"

	"github.com/coreos/go-semver/semver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skregdev/skreg/internal/models"
)

// VersionRepository defines the interface for version data operations.
type VersionRepository interface {
	Create(ctx context.Context, v *models.Version) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Version, error)
	GetWithNames(ctx context.Context, id uuid.UUID) (*models.Version, string, string, error)
	GetByVersion(ctx context.Context, packageID uuid.UUID, version string) (*models.Version, error)
	Exists(ctx context.Context, packageID uuid.UUID, version string) (bool, error)
	Latest(ctx context.Context, packageID uuid.UUID) (*models.Version, error)
	ListByPackage(ctx context.Context, packageID uuid.UUID) ([]*models.Version, error)
	ListYanked(ctx context.Context) ([]string, error)
	SetSignature(ctx context.Context, id uuid.UUID, sigPath, signer string, certSerial *int64) error
	Yank(ctx context.Context, id uuid.UUID) error
}

type versionRepo struct {
	pool *pgxpool.Pool
}

// NewVersionRepository creates a new version repository.
func NewVersionRepository(pool *pgxpool.Pool) VersionRepository {
	return &versionRepo{pool: pool}
}

const versionColumns = `id, package_id, version, sha256, storage_path, sig_path, signer, cert_serial, yanked_at, created_at`

// Create inserts a new version row. Signature fields start empty and
// are filled by the vetting worker after signing.
func (r *versionRepo) Create(ctx context.Context, v *models.Version) error {
	query := `
		INSERT INTO versions (id, package_id, version, sha256, storage_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Signer == "" {
		v.Signer = models.SignerRegistry
	}

	return r.pool.QueryRow(ctx, query,
		v.ID,
		v.PackageID,
		v.Version,
		v.SHA256,
		v.StoragePath,
	).Scan(&v.CreatedAt)
}

func (r *versionRepo) scanOne(row pgx.Row) (*models.Version, error) {
	var v models.Version
	err := row.Scan(
		&v.ID,
		&v.PackageID,
		&v.Version,
		&v.SHA256,
		&v.StoragePath,
		&v.SigPath,
		&v.Signer,
		&v.CertSerial,
		&v.YankedAt,
		&v.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByID retrieves a version by its UUID.
func (r *versionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetWithNames retrieves a version along with its package name and
// namespace slug. Used by the vetting worker.
func (r *versionRepo) GetWithNames(ctx context.Context, id uuid.UUID) (*models.Version, string, string, error) {
	query := `
		SELECT v.id, v.package_id, v.version, v.sha256, v.storage_path, v.sig_path,
		       v.signer, v.cert_serial, v.yanked_at, v.created_at, p.name, n.slug
		FROM versions v
		JOIN packages p ON p.id = v.package_id
		JOIN namespaces n ON n.id = p.namespace_id
		WHERE v.id = $1`

	var v models.Version
	var name, slug string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.PackageID,
		&v.Version,
		&v.SHA256,
		&v.StoragePath,
		&v.SigPath,
		&v.Signer,
		&v.CertSerial,
		&v.YankedAt,
		&v.CreatedAt,
		&name,
		&slug,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", "", nil
	}
	if err != nil {
		return nil, "", "", err
	}
	return &v, name, slug, nil
}

// GetByVersion retrieves a specific version of a package.
func (r *versionRepo) GetByVersion(ctx context.Context, packageID uuid.UUID, version string) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE package_id = $1 AND version = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, packageID, version))
}

// Exists reports whether the (package, version) pair has been published.
func (r *versionRepo) Exists(ctx context.Context, packageID uuid.UUID, version string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM versions WHERE package_id = $1 AND version = $2)`,
		packageID, version,
	).Scan(&exists)
	return exists, err
}

// Latest returns the highest non-yanked semantic version of a package.
func (r *versionRepo) Latest(ctx context.Context, packageID uuid.UUID) (*models.Version, error) {
	versions, err := r.ListByPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	var best *models.Version
	var bestVer *semver.Version
	for _, v := range versions {
		if v.Yanked() {
			continue
		}
		sv, err := semver.NewVersion(v.Version)
		if err != nil {
			continue
		}
		if bestVer == nil || bestVer.LessThan(*sv) {
			best = v
			bestVer = sv
		}
	}
	return best, nil
}

// ListByPackage returns every version of a package, newest first.
func (r *versionRepo) ListByPackage(ctx context.Context, packageID uuid.UUID) ([]*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE package_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Version
	for rows.Next() {
		var v models.Version
		err := rows.Scan(
			&v.ID,
			&v.PackageID,
			&v.Version,
			&v.SHA256,
			&v.StoragePath,
			&v.SigPath,
			&v.Signer,
			&v.CertSerial,
			&v.YankedAt,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

// ListYanked returns every yanked version as "name@version". Used by
// the vetting worker to quarantine re-uploads of withdrawn releases.
func (r *versionRepo) ListYanked(ctx context.Context) ([]string, error) {
	query := `
		SELECT p.name || '@' || v.version
		FROM versions v
		JOIN packages p ON p.id = v.package_id
		WHERE v.yanked_at IS NOT NULL`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var yanked []string
	for rows.Next() {
		var nv string
		if err := rows.Scan(&nv); err != nil {
			return nil, err
		}
		yanked = append(yanked, nv)
	}
	return yanked, rows.Err()
}

// SetSignature records the signature artifact produced by vetting.
func (r *versionRepo) SetSignature(ctx context.Context, id uuid.UUID, sigPath, signer string, certSerial *int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE versions SET sig_path = $2, signer = $3, cert_serial = $4 WHERE id = $1`,
		id, sigPath, signer, certSerial,
	)
	return err
}

// Yank withdraws a version from resolution.
func (r *versionRepo) Yank(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE versions SET yanked_at = now() WHERE id = $1`, id)
	return err
}

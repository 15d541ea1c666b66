package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cividup/cividup/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const reportColumns = `id, fingerprint, latitude, longitude, type, severity, status, duplicate_of, description, image_path, created_at, updated_at`

func scanReport(row pgx.Row) (*models.Report, error) {
	var r models.Report
	err := row.Scan(&r.ID, &r.Fingerprint, &r.Latitude, &r.Longitude, &r.Type,
		&r.Severity, &r.Status, &r.DuplicateOf, &r.Description, &r.ImagePath,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// --- Reports ---

func (s *PostgresStore) CreateReport(ctx context.Context, r *models.Report) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reports (`+reportColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.Fingerprint, r.Latitude, r.Longitude, r.Type, r.Severity,
		r.Status, r.DuplicateOf, r.Description, r.ImagePath, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReportByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	r, err := scanReport(s.pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

// FindCandidates returns open reports inside the bounding box, newest first,
// capped at q.Limit. Read-only.
func (s *PostgresStore) FindCandidates(ctx context.Context, q CandidateQuery) ([]*models.Report, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+reportColumns+`
		 FROM reports
		 WHERE latitude BETWEEN $1 AND $2
		   AND longitude BETWEEN $3 AND $4
		   AND status != ALL($5)
		 ORDER BY created_at DESC
		 LIMIT $6`,
		q.MinLat, q.MaxLat, q.MinLon, q.MaxLon, q.ExcludedStatuses, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// MarkReportDuplicate sets status = duplicate and the back-reference to the
// canonical parent in one row-level write.
func (s *PostgresStore) MarkReportDuplicate(ctx context.Context, id, duplicateOf uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET status = $2, duplicate_of = $3, updated_at = NOW()
		 WHERE id = $1`,
		id, models.StatusDuplicate, duplicateOf)
	if err != nil {
		return fmt.Errorf("mark report duplicate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Duplicate clusters ---

const clusterColumns = `id, parent_report_id, latitude, longitude, radius, report_count, created_at, updated_at`

func (s *PostgresStore) GetClusterByParent(ctx context.Context, parentID uuid.UUID) (*models.DuplicateCluster, error) {
	var c models.DuplicateCluster
	err := s.pool.QueryRow(ctx,
		`SELECT `+clusterColumns+` FROM duplicate_clusters WHERE parent_report_id = $1`, parentID,
	).Scan(&c.ID, &c.ParentReportID, &c.Latitude, &c.Longitude, &c.Radius,
		&c.ReportCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cluster by parent: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) InsertCluster(ctx context.Context, c *models.DuplicateCluster) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO duplicate_clusters (`+clusterColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.ParentReportID, c.Latitude, c.Longitude, c.Radius,
		c.ReportCount, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert cluster: %w", err)
	}
	return nil
}

func (s *PostgresStore) IncrementClusterCount(ctx context.Context, parentID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE duplicate_clusters SET report_count = report_count + 1, updated_at = NOW()
		 WHERE parent_report_id = $1`, parentID)
	if err != nil {
		return fmt.Errorf("increment cluster count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListClusters returns clusters that have accumulated more than one report,
// joined with the parent report's descriptive fields, largest first.
func (s *PostgresStore) ListClusters(ctx context.Context) ([]*models.ClusterSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.parent_report_id, c.latitude, c.longitude, c.radius,
		        c.report_count, c.created_at, c.updated_at,
		        r.type, r.severity, r.status, r.description, r.image_path, r.created_at
		 FROM duplicate_clusters c
		 JOIN reports r ON r.id = c.parent_report_id
		 WHERE c.report_count > 1
		 ORDER BY c.report_count DESC`)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	defer rows.Close()

	var clusters []*models.ClusterSummary
	for rows.Next() {
		var c models.ClusterSummary
		if err := rows.Scan(&c.ID, &c.ParentReportID, &c.Latitude, &c.Longitude,
			&c.Radius, &c.ReportCount, &c.CreatedAt, &c.UpdatedAt,
			&c.ParentType, &c.ParentSeverity, &c.ParentStatus,
			&c.ParentDescription, &c.ParentImagePath, &c.ParentCreatedAt); err != nil {
			return nil, fmt.Errorf("scan cluster summary: %w", err)
		}
		clusters = append(clusters, &c)
	}
	return clusters, rows.Err()
}

// --- Activity log ---

func (s *PostgresStore) AppendActivity(ctx context.Context, e *models.ActivityEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO activity_log (id, report_id, action, details, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.ReportID, e.Action, e.Details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearlens/resolve/internal/domain/entity"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/prometheus"
	"github.com/clearlens/resolve/pkg/errors"
	"github.com/clearlens/resolve/pkg/types/common"
)

// RegistryRepository implements entity.Registry on PostgreSQL.  One row per
// record; reruns replace rows in a single transaction so a reader never
// observes a half-written assignment set.
type RegistryRepository struct {
	pool    *pgxpool.Pool
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// NewRegistryRepository constructs a ready-to-use RegistryRepository.
func NewRegistryRepository(pool *pgxpool.Pool, logger logging.Logger, metrics *prometheus.AppMetrics) *RegistryRepository {
	return &RegistryRepository{
		pool:    pool,
		logger:  logger.Named("registry_repo"),
		metrics: metrics,
	}
}

// Prior loads every assignment from earlier runs.
func (r *RegistryRepository) Prior(ctx context.Context) (map[common.RecordID]entity.PriorAssignment, error) {
	start := time.Now()
	defer func() {
		r.metrics.DBQueryDuration.WithLabelValues("registry_prior").Observe(time.Since(start).Seconds())
	}()

	rows, err := r.pool.Query(ctx, `
		SELECT source, row_id, business_id, assigned_at
		FROM business_id_assignments`)
	if err != nil {
		r.logger.Error("loading prior assignments failed", logging.Err(err))
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "loading prior assignments failed")
	}
	defer rows.Close()

	prior := make(map[common.RecordID]entity.PriorAssignment)
	for rows.Next() {
		var source string
		var rowID int64
		var businessID string
		var assignedAt time.Time
		if err := rows.Scan(&source, &rowID, &businessID, &assignedAt); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBQueryError, "scanning assignment row failed")
		}
		id := common.RecordID{Source: common.SourceDataset(source), Row: rowID}
		prior[id] = entity.PriorAssignment{
			BusinessID: common.BusinessID(businessID),
			AssignedAt: assignedAt,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQueryError, "reading assignment rows failed")
	}

	r.logger.Debug("prior assignments loaded", logging.Int("count", len(prior)))
	return prior, nil
}

// Save persists the complete assignment set for a finished run in one
// transaction, batching the upserts.
func (r *RegistryRepository) Save(ctx context.Context, assignments map[common.RecordID]entity.PriorAssignment) error {
	start := time.Now()
	defer func() {
		r.metrics.DBQueryDuration.WithLabelValues("registry_save").Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeDBConnectionError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for id, pa := range assignments {
		batch.Queue(`
			INSERT INTO business_id_assignments (source, row_id, business_id, assigned_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (source, row_id)
			DO UPDATE SET business_id = EXCLUDED.business_id, assigned_at = EXCLUDED.assigned_at`,
			id.Source.String(), id.Row, pa.BusinessID.String(), pa.AssignedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range assignments {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return errors.Wrap(err, errors.CodeDBQueryError, "upserting assignment failed")
		}
	}
	if err := results.Close(); err != nil {
		return errors.Wrap(err, errors.CodeDBQueryError, "closing assignment batch failed")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.CodeDBConnectionError, "failed to commit transaction")
	}
	r.logger.Debug("assignments saved", logging.Int("count", len(assignments)))
	return nil
}

var _ entity.Registry = (*RegistryRepository)(nil)

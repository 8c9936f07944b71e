// Package repositories provides PostgreSQL-backed implementations of the
// domain persistence ports: the pseudonym mapping store and the business-ID
// registry.  Every method takes a context.Context and uses parameterised
// queries exclusively.
package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearlens/resolve/internal/domain/pseudonym"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/prometheus"
	"github.com/clearlens/resolve/pkg/errors"
)

// PseudonymRepository implements pseudonym.Store on PostgreSQL.  At-most-one
// token per key is enforced by the primary key on (business_id, field_kind):
// concurrent Upserts race at the database, one insert wins, and every caller
// reads the winner back in the same statement.
type PseudonymRepository struct {
	pool    *pgxpool.Pool
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// NewPseudonymRepository constructs a ready-to-use PseudonymRepository.
func NewPseudonymRepository(pool *pgxpool.Pool, logger logging.Logger, metrics *prometheus.AppMetrics) *PseudonymRepository {
	return &PseudonymRepository{
		pool:    pool,
		logger:  logger.Named("pseudonym_repo"),
		metrics: metrics,
	}
}

// Get returns the stored token for key, or CodeMappingNotFound.
func (r *PseudonymRepository) Get(ctx context.Context, key pseudonym.Key) (string, error) {
	start := time.Now()
	defer func() {
		r.metrics.DBQueryDuration.WithLabelValues("pseudonym_get").Observe(time.Since(start).Seconds())
	}()

	var token string
	err := r.pool.QueryRow(ctx, `
		SELECT token FROM pseudonyms
		WHERE business_id = $1 AND field_kind = $2`,
		key.BusinessID.String(), key.FieldKind.String(),
	).Scan(&token)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return "", errors.New(errors.CodeMappingNotFound, fmt.Sprintf("no pseudonym for %s", key))
	}
	if err != nil {
		r.logger.Error("pseudonym lookup failed", logging.Err(err))
		return "", errors.Wrap(err, errors.CodeMappingStoreUnavailable, "pseudonym lookup failed")
	}
	return token, nil
}

// Upsert installs token for key if absent and returns the surviving token.
// The no-op DO UPDATE makes the conflicting row visible to RETURNING, so a
// losing writer still reads the incumbent in one round trip.
func (r *PseudonymRepository) Upsert(ctx context.Context, key pseudonym.Key, token string) (string, error) {
	start := time.Now()
	defer func() {
		r.metrics.DBQueryDuration.WithLabelValues("pseudonym_upsert").Observe(time.Since(start).Seconds())
	}()

	var stored string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pseudonyms (business_id, field_kind, token, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (business_id, field_kind)
		DO UPDATE SET token = pseudonyms.token
		RETURNING token`,
		key.BusinessID.String(), key.FieldKind.String(), token,
	).Scan(&stored)
	if err != nil {
		r.logger.Error("pseudonym upsert failed", logging.Err(err))
		return "", errors.Wrap(err, errors.CodeMappingStoreUnavailable, "pseudonym upsert failed")
	}
	if stored == token {
		r.metrics.PseudonymsMintedTotal.WithLabelValues(key.FieldKind.String()).Inc()
	}
	return stored, nil
}

var _ pseudonym.Store = (*PseudonymRepository)(nil)

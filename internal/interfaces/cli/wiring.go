package cli

import (
	"context"

	"github.com/clearlens/resolve/internal/application/resolution"
	"github.com/clearlens/resolve/internal/domain/entity"
	"github.com/clearlens/resolve/internal/domain/pseudonym"
	"github.com/clearlens/resolve/internal/infrastructure/database/postgres"
	"github.com/clearlens/resolve/internal/infrastructure/database/postgres/repositories"
	"github.com/clearlens/resolve/internal/infrastructure/database/redis"
	"github.com/clearlens/resolve/internal/infrastructure/messaging/kafka"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
)

// backends bundles the external dependencies a pipeline invocation needs.
// In dry-run mode everything is process-local: no database, no Redis, no
// Kafka, and therefore no Business ID stability across invocations.
type backends struct {
	Registry  entity.Registry
	Store     pseudonym.Store
	Publisher resolution.EventPublisher
	Cache     *redis.QualityCache

	// RunLock serializes resolution runs across processes.  Save replaces
	// assignment rows wholesale, so two concurrent runs would overwrite each
	// other's registry writes.
	RunLock *redis.KeyLock

	closers []func() error
}

// Close releases connections in reverse acquisition order.
func (b *backends) Close(log logging.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Warn("failed to close backend", logging.Err(err))
		}
	}
}

// withRunLock runs fn while holding the cross-process run lock, when one is
// configured.  The unlock uses a fresh context so a canceled run still
// releases the lock.
func (b *backends) withRunLock(ctx context.Context, log logging.Logger, fn func() error) error {
	if b.RunLock == nil {
		return fn()
	}
	if err := b.RunLock.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if err := b.RunLock.Unlock(context.Background()); err != nil {
			log.Warn("failed to release run lock", logging.Err(err))
		}
	}()
	return fn()
}

// buildBackends connects to the configured infrastructure.  Postgres is
// mandatory outside dry-run: the assignment registry and pseudonym vault are
// what make IDs and tokens durable.  Redis and Kafka are optional
// collaborators; absence of either degrades reporting, never resolution.
func buildBackends(ctx context.Context, cliCtx *CLIContext, dryRun bool) (*backends, error) {
	if dryRun {
		return &backends{
			Registry: entity.NewMemoryRegistry(),
			Store:    pseudonym.NewMemoryStore(),
		}, nil
	}

	cfg := cliCtx.Config
	b := &backends{}

	conn, err := postgres.NewConnection(ctx, cfg.Database, cliCtx.Logger)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, func() error { conn.Close(); return nil })

	if err := postgres.RunMigrations(cfg.Database); err != nil {
		b.Close(cliCtx.Logger)
		return nil, err
	}

	b.Registry = repositories.NewRegistryRepository(conn.Pool(), cliCtx.Logger, cliCtx.Metrics)
	b.Store = repositories.NewPseudonymRepository(conn.Pool(), cliCtx.Logger, cliCtx.Metrics)

	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, cfg.Redis, cliCtx.Logger)
		if err != nil {
			b.Close(cliCtx.Logger)
			return nil, err
		}
		b.closers = append(b.closers, client.Close)
		b.Cache = redis.NewQualityCache(client, 0)
		b.RunLock = client.NewKeyLock("resolution-run")
	}

	if cfg.Kafka.Enabled {
		publisher := kafka.NewPublisher(cfg.Kafka, cliCtx.Logger, cliCtx.Metrics)
		b.closers = append(b.closers, publisher.Close)
		b.Publisher = publisher
	}

	return b, nil
}

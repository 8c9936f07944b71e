// Package resolution runs the batch identity-resolution pipeline: normalize,
// block, decide, cluster, assign.  It owns stage ordering and failure
// semantics; all matching logic lives in the domain packages it composes.
package resolution

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/clearlens/resolve/internal/config"
	"github.com/clearlens/resolve/internal/domain/candidate"
	"github.com/clearlens/resolve/internal/domain/entity"
	"github.com/clearlens/resolve/internal/domain/match"
	"github.com/clearlens/resolve/internal/domain/normalize"
	"github.com/clearlens/resolve/internal/domain/quality"
	"github.com/clearlens/resolve/internal/domain/record"
	"github.com/clearlens/resolve/internal/domain/similarity"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/prometheus"
	"github.com/clearlens/resolve/pkg/errors"
	"github.com/clearlens/resolve/pkg/types/common"
)

// EventPublisher is the port for run events consumed by external monitoring
// collaborators.  Publish failures are logged, never fatal: the events are
// also present in the Result, so a broker outage degrades visibility without
// invalidating the run.
type EventPublisher interface {
	PublishCollisions(ctx context.Context, events []entity.CollisionEvent) error
	PublishQuality(ctx context.Context, report quality.Report) error
}

// Result is the complete output of one resolution run.
type Result struct {
	Entities []entity.BusinessEntity `json:"entities"`

	// Decisions holds every evaluated pair, including NO_MATCH, for audit.
	Decisions []match.Decision `json:"decisions"`

	// Ambiguous is the review queue: pairs the rule table declined to decide.
	Ambiguous []match.Decision `json:"ambiguous"`

	// Assignments maps every resolved record to its Business ID.
	Assignments map[common.RecordID]entity.PriorAssignment `json:"-"`

	Collisions []entity.CollisionEvent `json:"collisions,omitempty"`
	Skipped    []common.RecordID       `json:"skipped,omitempty"`
	Report     quality.Report          `json:"report"`
}

// Service wires the domain packages into the batch pipeline.
type Service struct {
	normalizer *normalize.Normalizer
	engine     *match.Engine
	blocking   candidate.Policy
	workers    int
	registry   entity.Registry
	publisher  EventPublisher
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
	now        func() time.Time
}

// NewService constructs the pipeline.  registry is required; publisher may be
// nil when no broker is configured.
func NewService(
	cfg config.MatchingConfig,
	blocking config.BlockingConfig,
	registry entity.Registry,
	publisher EventPublisher,
	logger logging.Logger,
	metrics *prometheus.AppMetrics,
) *Service {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Service{
		normalizer: normalize.NewNormalizer(),
		engine: match.NewEngine(similarity.NewScorer(), match.Policy{
			HighNameThreshold: cfg.HighNameThreshold,
			MidNameThreshold:  cfg.MidNameThreshold,
		}),
		blocking: candidate.Policy{
			ByFirstNameToken: blocking.ByFirstNameToken,
			ByEmailDomain:    blocking.ByEmailDomain,
			ByAccountPrefix:  blocking.ByAccountPrefix,
			AccountPrefixLen: blocking.AccountPrefixLen,
		},
		workers:   workers,
		registry:  registry,
		publisher: publisher,
		logger:    logger.Named("resolution"),
		metrics:   metrics,
		now:       time.Now,
	}
}

// Run executes the pipeline over one batch.  A stage error aborts the whole
// run and nothing is persisted or returned: downstream consumers never see a
// partially resolved batch.
func (s *Service) Run(ctx context.Context, records []record.RawIdentityRecord) (*Result, error) {
	if len(records) == 0 {
		return nil, errors.New(errors.CodeEmptyBatch, "resolution batch is empty")
	}
	runAt := s.now()
	s.logger.Info("resolution run started", logging.Int("records", len(records)))

	// Stage 1: normalize.  Malformed records are skipped and counted, never
	// silently dropped; duplicate record IDs make the whole batch invalid.
	keys, skipped, err := s.normalizeStage(records)
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("aborted").Inc()
		return nil, err
	}
	if len(keys) == 0 {
		s.metrics.RunsTotal.WithLabelValues("aborted").Inc()
		return nil, errors.New(errors.CodeEmptyBatch, "no usable records after normalization")
	}

	// Stage 2: candidate index.
	index := s.indexStage(records, keys)

	// Stage 3: parallel pairwise decisions.
	decisions, err := s.decideStage(ctx, records, keys, index)
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("aborted").Inc()
		return nil, err
	}

	// Stage 4: clustering and ID assignment, single-threaded for
	// determinism.
	entities, collisions, assignments, err := s.clusterStage(ctx, records, keys, decisions, runAt)
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("aborted").Inc()
		return nil, err
	}

	result := &Result{
		Entities:    entities,
		Decisions:   decisions,
		Assignments: assignments,
		Collisions:  collisions,
		Skipped:     skipped,
	}
	for _, d := range decisions {
		if d.Verdict == common.VerdictAmbiguous {
			result.Ambiguous = append(result.Ambiguous, d)
		}
	}
	result.Report = quality.Build(runAt, len(records), len(skipped), decisions, entities, collisions)

	s.observe(result)
	s.publish(ctx, result)
	s.metrics.RunsTotal.WithLabelValues("completed").Inc()
	s.logger.Info("resolution run completed",
		logging.Int("entities", len(entities)),
		logging.Int("pairs", len(decisions)),
		logging.Int("ambiguous", len(result.Ambiguous)),
		logging.Int("skipped", len(skipped)),
		logging.Int("collisions", len(collisions)),
		logging.String("assessment", string(result.Report.Assessment)))
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// stages
// ─────────────────────────────────────────────────────────────────────────────

func (s *Service) normalizeStage(records []record.RawIdentityRecord) (map[common.RecordID]record.NormalizedKey, []common.RecordID, error) {
	start := s.now()
	keys := make(map[common.RecordID]record.NormalizedKey, len(records))
	var skipped []common.RecordID

	for _, rec := range records {
		if !rec.ID.Source.Valid() {
			return nil, nil, errors.New(errors.CodeMalformedInput,
				fmt.Sprintf("record %s: unknown source dataset", rec.ID))
		}
		if _, dup := keys[rec.ID]; dup {
			return nil, nil, errors.New(errors.CodeMalformedInput,
				fmt.Sprintf("duplicate record id %s in batch", rec.ID))
		}
		s.metrics.RecordsTotal.WithLabelValues(rec.ID.Source.String()).Inc()

		if !rec.Usable() {
			skipped = append(skipped, rec.ID)
			s.metrics.RecordsSkippedTotal.WithLabelValues(rec.ID.Source.String()).Inc()
			continue
		}

		key := s.normalizer.Normalize(s.withExtractedName(rec))
		keys[rec.ID] = key
	}

	if len(skipped) > 0 {
		s.logger.Warn("malformed records skipped", logging.Int("count", len(skipped)))
	}
	s.metrics.StageDuration.WithLabelValues("normalize").Observe(s.now().Sub(start).Seconds())
	return keys, skipped, nil
}

// withExtractedName recovers a business name for EMAIL-source records whose
// name field is free text (a subject or sender line) rather than a name.  If
// an embedded business name is found it replaces the raw name; otherwise the
// record passes through unchanged.
func (s *Service) withExtractedName(rec record.RawIdentityRecord) record.RawIdentityRecord {
	if rec.ID.Source != common.SourceEmail {
		return rec
	}
	if extracted := record.ExtractBusinessName(rec.RawName); extracted != "" {
		rec.RawName = extracted
	}
	return rec
}

func (s *Service) indexStage(records []record.RawIdentityRecord, keys map[common.RecordID]record.NormalizedKey) *candidate.Index {
	start := s.now()
	index := candidate.NewIndex(s.blocking)
	for _, rec := range records {
		key, ok := keys[rec.ID]
		if !ok {
			continue // skipped during normalization
		}
		index.Add(rec, key)
	}
	s.metrics.StageDuration.WithLabelValues("index").Observe(s.now().Sub(start).Seconds())
	return index
}

// pair is one unit of decision work.  A always orders before B, so each
// candidate pair is evaluated exactly once.
type pair struct {
	a, b common.RecordID
}

func (s *Service) decideStage(ctx context.Context, records []record.RawIdentityRecord, keys map[common.RecordID]record.NormalizedKey, index *candidate.Index) ([]match.Decision, error) {
	start := s.now()

	// Enumerate pairs deterministically: records in RecordID order, each
	// pair kept only in its canonical (lower, higher) orientation.
	ordered := make([]record.RawIdentityRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := keys[rec.ID]; ok {
			ordered = append(ordered, rec)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID.Less(ordered[j].ID) })

	var pairs []pair
	for _, rec := range ordered {
		for _, other := range index.Candidates(rec, keys[rec.ID]) {
			if rec.ID.Less(other) {
				pairs = append(pairs, pair{a: rec.ID, b: other})
			}
		}
	}
	s.metrics.PairsComparedTotal.WithLabelValues().Add(float64(len(pairs)))

	// Fan the pairs out over the worker pool.  Workers are stateless; the
	// engine is safe for concurrent use.
	jobs := make(chan pair)
	decisions := make([]match.Decision, len(pairs))
	indexOf := make(map[pair]int, len(pairs))
	for i, p := range pairs {
		indexOf[p] = i
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var workerErr error
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				a, ka, _ := index.Get(p.a)
				b, kb, _ := index.Get(p.b)
				d := s.engine.Decide(a, b, ka, kb)
				mu.Lock()
				decisions[indexOf[p]] = d
				mu.Unlock()
			}
		}()
	}

feed:
	for _, p := range pairs {
		select {
		case jobs <- p:
		case <-ctx.Done():
			workerErr = errors.Wrap(ctx.Err(), errors.CodeRunAborted, "decision stage cancelled")
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if workerErr != nil {
		return nil, workerErr
	}

	for _, d := range decisions {
		s.metrics.DecisionsTotal.WithLabelValues(string(d.Verdict)).Inc()
	}
	s.metrics.StageDuration.WithLabelValues("decide").Observe(s.now().Sub(start).Seconds())
	return decisions, nil
}

func (s *Service) clusterStage(ctx context.Context, records []record.RawIdentityRecord, keys map[common.RecordID]record.NormalizedKey, decisions []match.Decision, runAt time.Time) ([]entity.BusinessEntity, []entity.CollisionEvent, map[common.RecordID]entity.PriorAssignment, error) {
	start := s.now()

	members := make([]entity.Member, 0, len(keys))
	for _, rec := range records {
		key, ok := keys[rec.ID]
		if !ok {
			continue
		}
		members = append(members, entity.Member{
			ID:             rec.ID,
			NormalizedName: key.Name,
			AccountNo:      rec.AccountNo,
		})
	}

	var edges []entity.Edge
	for _, d := range decisions {
		if d.Verdict == common.VerdictMatch {
			edges = append(edges, entity.Edge{A: d.A, B: d.B})
		}
	}

	entities := entity.Cluster(members, edges)

	prior, err := s.registry.Prior(ctx)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.CodeRunAborted, "loading prior business-id assignments failed")
	}
	collisions := entity.AssignIDs(entities, prior, runAt)
	assignments := entity.Assignments(entities, prior, runAt)
	if err := s.registry.Save(ctx, assignments); err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.CodeRunAborted, "persisting business-id assignments failed")
	}

	for _, ev := range collisions {
		s.logger.Warn("business-id collision",
			logging.String("survivor", ev.Survivor.String()),
			logging.Int("absorbed", len(ev.Absorbed)),
			logging.Int("members", len(ev.Members)))
	}
	s.metrics.StageDuration.WithLabelValues("cluster").Observe(s.now().Sub(start).Seconds())
	return entities, collisions, assignments, nil
}

func (s *Service) observe(r *Result) {
	s.metrics.EntitiesResolved.WithLabelValues().Set(float64(len(r.Entities)))
	if len(r.Collisions) > 0 {
		s.metrics.CollisionsTotal.WithLabelValues().Add(float64(len(r.Collisions)))
	}
}

func (s *Service) publish(ctx context.Context, r *Result) {
	if s.publisher == nil {
		return
	}
	if len(r.Collisions) > 0 {
		if err := s.publisher.PublishCollisions(ctx, r.Collisions); err != nil {
			s.logger.Error("publishing collision events failed", logging.Err(err))
		}
	}
	if err := s.publisher.PublishQuality(ctx, r.Report); err != nil {
		s.logger.Error("publishing quality report failed", logging.Err(err))
	}
}

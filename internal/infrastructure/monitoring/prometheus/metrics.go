package prometheus

// AppMetrics holds every metric the resolution platform records, registered
// once at startup and handed to the layers that need them.
type AppMetrics struct {
	// Pipeline
	RecordsTotal         CounterVec
	RecordsSkippedTotal  CounterVec
	PairsComparedTotal   CounterVec
	DecisionsTotal       CounterVec
	EntitiesResolved     GaugeVec
	CollisionsTotal      CounterVec
	StageDuration        HistogramVec
	RunsTotal            CounterVec

	// Anonymization
	PseudonymsMintedTotal CounterVec
	PseudonymLookupsTotal CounterVec

	// Infrastructure
	DBQueryDuration  HistogramVec
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	EventsPublished  CounterVec
}

// DefaultStageDurationBuckets covers stages from sub-second normalization to
// multi-minute clustering on large batches.
var DefaultStageDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300, 900}

// DefaultDBDurationBuckets covers storage round trips.
var DefaultDBDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}

// NewAppMetrics registers all metrics against the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.RecordsTotal = collector.RegisterCounter("records_total", "Records entering resolution", "source")
	m.RecordsSkippedTotal = collector.RegisterCounter("records_skipped_total", "Malformed records skipped", "source")
	m.PairsComparedTotal = collector.RegisterCounter("pairs_compared_total", "Candidate pairs evaluated")
	m.DecisionsTotal = collector.RegisterCounter("decisions_total", "Match decisions by verdict", "verdict")
	m.EntitiesResolved = collector.RegisterGauge("entities_resolved", "Entities produced by the last run")
	m.CollisionsTotal = collector.RegisterCounter("collisions_total", "Business-ID collision events")
	m.StageDuration = collector.RegisterHistogram("stage_duration_seconds", "Pipeline stage duration", DefaultStageDurationBuckets, "stage")
	m.RunsTotal = collector.RegisterCounter("runs_total", "Resolution runs by outcome", "outcome")

	m.PseudonymsMintedTotal = collector.RegisterCounter("pseudonyms_minted_total", "Fresh pseudonym tokens created", "field_kind")
	m.PseudonymLookupsTotal = collector.RegisterCounter("pseudonym_lookups_total", "Pseudonym lookups", "field_kind")

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Storage query duration", DefaultDBDurationBuckets, "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.EventsPublished = collector.RegisterCounter("events_published_total", "Events published", "topic")

	return m
}

// NewNopMetrics returns an AppMetrics whose instruments discard everything.
// Used by tests and by binaries running with metrics disabled.
func NewNopMetrics() *AppMetrics {
	return &AppMetrics{
		RecordsTotal:          noopCounterVec{},
		RecordsSkippedTotal:   noopCounterVec{},
		PairsComparedTotal:    noopCounterVec{},
		DecisionsTotal:        noopCounterVec{},
		EntitiesResolved:      noopGaugeVec{},
		CollisionsTotal:       noopCounterVec{},
		StageDuration:         noopHistogramVec{},
		RunsTotal:             noopCounterVec{},
		PseudonymsMintedTotal: noopCounterVec{},
		PseudonymLookupsTotal: noopCounterVec{},
		DBQueryDuration:       noopHistogramVec{},
		CacheHitsTotal:        noopCounterVec{},
		CacheMissesTotal:      noopCounterVec{},
		EventsPublished:       noopCounterVec{},
	}
}

package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// DefaultHighNameThreshold and DefaultMidNameThreshold reconstruct the
	// hand-tuned matching policy: >= 0.90 matches alone, [0.60, 0.90) needs a
	// corroborating signal.  They are starting points, not validated finals.
	DefaultHighNameThreshold = 0.90
	DefaultMidNameThreshold  = 0.60

	DefaultAccountPrefixLen = 4

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "resolve"
	DefaultDBSSLMode  = "disable"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "resolve:"

	DefaultKafkaBroker         = "localhost:9092"
	DefaultKafkaCollisionTopic = "resolve.identity.collision"
	DefaultKafkaQualityTopic   = "resolve.run.quality"

	DefaultMetricsNamespace = "resolve"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins.  It must run after unmarshalling and before
// Validate so that optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Matching ──────────────────────────────────────────────────────────────
	if cfg.Matching.HighNameThreshold == 0 {
		cfg.Matching.HighNameThreshold = DefaultHighNameThreshold
	}
	if cfg.Matching.MidNameThreshold == 0 {
		cfg.Matching.MidNameThreshold = DefaultMidNameThreshold
	}

	// ── Blocking ──────────────────────────────────────────────────────────────
	// All three keys default to enabled; disabling one is an explicit choice.
	if !cfg.Blocking.ByFirstNameToken && !cfg.Blocking.ByEmailDomain && !cfg.Blocking.ByAccountPrefix {
		cfg.Blocking.ByFirstNameToken = true
		cfg.Blocking.ByEmailDomain = true
		cfg.Blocking.ByAccountPrefix = true
	}
	if cfg.Blocking.AccountPrefixLen == 0 {
		cfg.Blocking.AccountPrefixLen = DefaultAccountPrefixLen
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.CollisionTopic == "" {
		cfg.Kafka.CollisionTopic = DefaultKafkaCollisionTopic
	}
	if cfg.Kafka.QualityTopic == "" {
		cfg.Kafka.QualityTopic = DefaultKafkaQualityTopic
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = time.Second
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

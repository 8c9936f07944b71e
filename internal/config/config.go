// Package config defines all configuration structures for the resolve
// platform.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// MatchingConfig holds the declarative matching policy: every threshold the
// decision engine consults lives here so the policy is auditable in one place
// and reproducible across runs.  The numeric values are hand-tuned, not
// learned; they must be revalidated against labelled data before changing.
type MatchingConfig struct {
	// HighNameThreshold is the name-similarity score at or above which a pair
	// matches on name evidence alone.
	HighNameThreshold float64 `mapstructure:"high_name_threshold"`

	// MidNameThreshold is the lower bound of the ambiguous band.  A score in
	// [MidNameThreshold, HighNameThreshold) matches only with a corroborating
	// signal (shared email domain or phone); without one the pair is reported
	// as ambiguous and excluded from clustering.
	MidNameThreshold float64 `mapstructure:"mid_name_threshold"`

	// Workers is the number of parallel decision workers.  Zero means
	// runtime.NumCPU.
	Workers int `mapstructure:"workers"`
}

// BlockingConfig controls candidate generation.  Blocking is an explicit
// recall/runtime trade-off: pairs sharing none of the enabled keys are never
// compared at all.
type BlockingConfig struct {
	ByFirstNameToken bool `mapstructure:"by_first_name_token"`
	ByEmailDomain    bool `mapstructure:"by_email_domain"`
	ByAccountPrefix  bool `mapstructure:"by_account_prefix"`

	// AccountPrefixLen is the number of leading account-number digits used as
	// a blocking key.
	AccountPrefixLen int `mapstructure:"account_prefix_len"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the mapping store
// and the business-ID registry.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.  Redis backs the per-key
// pseudonym-creation lock and the quality-report cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the event-publisher parameters.  Identity-collision
// warnings and run-quality reports are published for external monitoring
// collaborators.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	CollisionTopic  string        `mapstructure:"collision_topic"`
	QualityTopic    string        `mapstructure:"quality_topic"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	Enabled         bool          `mapstructure:"enabled"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig mirrors logging.LogConfig; duplicated here so that the config
// package does not import infrastructure.
type LogConfig struct {
	Level            string   `mapstructure:"level"`
	Format           string   `mapstructure:"format"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Config — the root configuration aggregate
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration for every resolve binary.
type Config struct {
	Matching MatchingConfig `mapstructure:"matching"`
	Blocking BlockingConfig `mapstructure:"blocking"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate checks cross-field consistency.  It is called by the loader after
// defaults have been applied, so zero values reaching it are genuine errors.
func (c *Config) Validate() error {
	m := c.Matching
	if m.HighNameThreshold <= 0 || m.HighNameThreshold > 1 {
		return fmt.Errorf("matching.high_name_threshold must be in (0,1], got %v", m.HighNameThreshold)
	}
	if m.MidNameThreshold <= 0 || m.MidNameThreshold > 1 {
		return fmt.Errorf("matching.mid_name_threshold must be in (0,1], got %v", m.MidNameThreshold)
	}
	if m.MidNameThreshold >= m.HighNameThreshold {
		return fmt.Errorf("matching.mid_name_threshold (%v) must be below high_name_threshold (%v)",
			m.MidNameThreshold, m.HighNameThreshold)
	}
	if m.Workers < 0 {
		return fmt.Errorf("matching.workers must be >= 0, got %d", m.Workers)
	}

	b := c.Blocking
	if !b.ByFirstNameToken && !b.ByEmailDomain && !b.ByAccountPrefix {
		return fmt.Errorf("blocking: at least one blocking key must be enabled")
	}
	if b.ByAccountPrefix && b.AccountPrefixLen <= 0 {
		return fmt.Errorf("blocking.account_prefix_len must be > 0 when account-prefix blocking is enabled")
	}

	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port out of range: %d", c.Database.Port)
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database.db_name must not be empty")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must not be empty when kafka is enabled")
	}

	return nil
}

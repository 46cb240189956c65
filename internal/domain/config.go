package domain

import "time"

// Config holds the complete Credix configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines which backends are used
	Tier Tier `json:"tier"`

	// Intervention flow settings
	Intervention InterventionConfig `json:"intervention"`

	// Component configurations
	Repository   RepositoryConfig   `json:"repository"`
	Cache        CacheConfig        `json:"cache"`
	EventBus     EventBusConfig     `json:"eventBus"`
	Notification NotificationConfig `json:"-"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// InterventionConfig controls the customer-facing intervention flow.
type InterventionConfig struct {
	// DemoMode falls back to a sample high-risk customer when a token
	// cannot be resolved, so the portal never renders empty. Tokens are
	// plaintext customer ids and are not secure capabilities.
	DemoMode bool `json:"demoMode"`

	// DemoThreshold is the PD above which the demo fallback customer is picked.
	DemoThreshold float64 `json:"demoThreshold"`

	// OutcomeLogPath is the append-only interaction log file.
	OutcomeLogPath string `json:"outcomeLogPath"`

	// ScanLimit is the default number of customers alerted per scan.
	ScanLimit int `json:"scanLimit"`

	// ScanConcurrency bounds parallel dispatches during a scan.
	ScanConcurrency int `json:"scanConcurrency"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
}

// Tier represents the deployment tier.
type Tier string

const (
	// TierCommunity runs on SQLite + in-process cache + channels
	TierCommunity Tier = "community"

	// TierPro runs on PostgreSQL + Redis + NATS
	TierPro Tier = "pro"
)

// DefaultConfig returns a default configuration for Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8051,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierCommunity,
		Intervention: InterventionConfig{
			DemoMode:        true,
			DemoThreshold:   0.6,
			OutcomeLogPath:  "./intervention_audit_log.jsonl",
			ScanLimit:       3,
			ScanConcurrency: 4,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./credix.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			CustomerTTL:  5 * time.Minute,
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Notification: NotificationConfig{
			BaseURL:     "http://localhost:8051",
			SMTPPort:    587,
			SMTPTimeout: 15 * time.Second,
			SMSEnabled:  true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "credix",
		},
	}
}

// ProConfig returns a configuration for Pro tier.
// Demo fallback is off: an unknown token is a 404, not a sample customer.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Intervention.DemoMode = false
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "credix",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		CustomerTTL:    5 * time.Minute,
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
		LocalTTL:       time.Minute,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
		NATSQueueGroup:    "credix-workers",
	}
	cfg.Tracing.Enabled = true
	return cfg
}

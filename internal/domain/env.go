package domain

import (
	"strconv"
	"strings"
)

// ConfigFromEnv builds the configuration for the tier named by CREDIX_TIER
// and applies the remaining environment overrides.
func ConfigFromEnv(getenv func(string) string) *Config {
	cfg := DefaultConfig()
	if getenv("CREDIX_TIER") == "pro" {
		cfg = ProConfig()
	}
	cfg.ApplyEnv(getenv)
	return cfg
}

// ApplyEnv overrides cfg from the environment. Credentials only ever come
// from here, never from source. Unparseable numbers are ignored.
func (cfg *Config) ApplyEnv(getenv func(string) string) {
	if getenv("CREDIX_DEBUG") == "true" {
		cfg.Logging.Level = "debug"
	}
	if v := getenv("CREDIX_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := getenv("CREDIX_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := getenv("CREDIX_DB_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := getenv("CREDIX_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := getenv("CREDIX_POSTGRES_USER"); v != "" {
		cfg.Repository.PostgresUser = v
	}
	if v := getenv("CREDIX_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := getenv("CREDIX_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := getenv("CREDIX_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}

	if v := getenv("CREDIX_DEMO_MODE"); v != "" {
		cfg.Intervention.DemoMode = v == "true"
	}
	if v := getenv("CREDIX_OUTCOME_LOG"); v != "" {
		cfg.Intervention.OutcomeLogPath = v
	}
	if v := getenv("INTERVENTION_BASE_URL"); v != "" {
		cfg.Notification.BaseURL = strings.TrimRight(v, "/")
	}

	if v := getenv("CREDIX_SMTP_HOST"); v != "" {
		cfg.Notification.SMTPHost = v
	}
	if v := getenv("CREDIX_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Notification.SMTPPort = port
		}
	}
	if v := getenv("CREDIX_SMTP_USERNAME"); v != "" {
		cfg.Notification.SMTPUsername = v
	}
	if v := getenv("CREDIX_SMTP_PASSWORD"); v != "" {
		cfg.Notification.SMTPPassword = v
	}
	if v := getenv("CREDIX_SMTP_FROM"); v != "" {
		cfg.Notification.SMTPFrom = v
	}
	if v := getenv("CREDIX_SMS_ENABLED"); v != "" {
		cfg.Notification.SMSEnabled = v == "true"
	}
}

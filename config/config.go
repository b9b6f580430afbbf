package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the runtime configuration of every taskboard command.
type Config struct {
	StorageConnectionString string `mapstructure:"storage_connection_string"`
	TasksTable              string `mapstructure:"tasks_table"`
	ChangesQueue            string `mapstructure:"changes_queue"`

	RedisConnectionString string        `mapstructure:"redis_connection_string"`
	CacheTTL              time.Duration `mapstructure:"cache_ttl"`
	DeduperTTL            time.Duration `mapstructure:"deduper_ttl"`

	Auth0Domain   string `mapstructure:"auth0_domain"`
	Auth0Audience string `mapstructure:"auth0_audience"`
	Auth0TestMode bool   `mapstructure:"auth0_test_mode"`
	TestJWTSecret string `mapstructure:"test_jwt_secret"`

	ListenAddr         string        `mapstructure:"listen_addr"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`

	OutboxWorkers        int           `mapstructure:"outbox_workers"`
	OutboxBuffer         int           `mapstructure:"outbox_buffer"`
	OutboxTimeout        time.Duration `mapstructure:"outbox_timeout"`
	OutboxHandoffTimeout time.Duration `mapstructure:"outbox_handoff_timeout"`

	Debug bool `mapstructure:"debug"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		TasksTable:           "Tasks",
		ChangesQueue:         "task-changes",
		CacheTTL:             5 * time.Minute,
		DeduperTTL:           24 * time.Hour,
		ListenAddr:           ":8080",
		SessionIdleTimeout:   30 * time.Minute,
		OutboxWorkers:        16,
		OutboxBuffer:         4096,
		OutboxTimeout:        60 * time.Second,
		OutboxHandoffTimeout: 25 * time.Millisecond,
	}
}

// SetDefaults registers every key on v so environment variables bind on Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage_connection_string", d.StorageConnectionString)
	v.SetDefault("tasks_table", d.TasksTable)
	v.SetDefault("changes_queue", d.ChangesQueue)
	v.SetDefault("redis_connection_string", d.RedisConnectionString)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("deduper_ttl", d.DeduperTTL)
	v.SetDefault("auth0_domain", d.Auth0Domain)
	v.SetDefault("auth0_audience", d.Auth0Audience)
	v.SetDefault("auth0_test_mode", d.Auth0TestMode)
	v.SetDefault("test_jwt_secret", d.TestJWTSecret)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("session_idle_timeout", d.SessionIdleTimeout)
	v.SetDefault("outbox_workers", d.OutboxWorkers)
	v.SetDefault("outbox_buffer", d.OutboxBuffer)
	v.SetDefault("outbox_timeout", d.OutboxTimeout)
	v.SetDefault("outbox_handoff_timeout", d.OutboxHandoffTimeout)
	v.SetDefault("debug", d.Debug)
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads the optional config file and decodes v into a Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

var ErrMissingSetting = errors.New("missing required setting")

// ValidateServe reports settings the HTTP service cannot run without.
func (c *Config) ValidateServe() error {
	var missing []string
	if c.StorageConnectionString == "" {
		missing = append(missing, "STORAGE_CONNECTION_STRING")
	}
	if c.TasksTable == "" {
		missing = append(missing, "TASKS_TABLE")
	}
	if c.ChangesQueue == "" {
		missing = append(missing, "CHANGES_QUEUE")
	}
	if c.RedisConnectionString == "" {
		missing = append(missing, "REDIS_CONNECTION_STRING")
	}
	if c.Auth0TestMode {
		if c.TestJWTSecret == "" {
			missing = append(missing, "TEST_JWT_SECRET")
		}
	} else {
		if c.Auth0Domain == "" {
			missing = append(missing, "AUTH0_DOMAIN")
		}
		if c.Auth0Audience == "" {
			missing = append(missing, "AUTH0_AUDIENCE")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateStorage reports settings storage provisioning needs.
func (c *Config) ValidateStorage() error {
	if c.StorageConnectionString == "" {
		return fmt.Errorf("%w: STORAGE_CONNECTION_STRING", ErrMissingSetting)
	}
	return nil
}

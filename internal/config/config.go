package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceMode selects where documentation content is read from.
type SourceMode string

const (
	SourceModeLocal  SourceMode = "local"
	SourceModeRemote SourceMode = "remote"
)

// Config is the complete docmirror configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	HTTP      HTTPConfig      `yaml:"http"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Watch     WatchConfig     `yaml:"watch"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Journal   JournalConfig   `yaml:"journal"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// SourceConfig describes the documentation source and the cache bounds applied to it.
type SourceConfig struct {
	Mode              SourceMode `yaml:"mode"`           // local|remote
	Owner             string     `yaml:"owner"`          // remote: repository owner
	Repo              string     `yaml:"repo"`           // remote: repository name
	LocalPath         string     `yaml:"local_path"`     // local: directory holding docs_root
	DefaultBranch     string     `yaml:"default_branch"` // tracked ref
	DocsRoot          string     `yaml:"docs_root"`      // e.g. "docs"
	RootDocument      string     `yaml:"root_document"`  // extra root page name besides readme/index
	ReservedPrefix    string     `yaml:"reserved_prefix"`
	PrivateSegment    string     `yaml:"private_segment"`
	CacheTTLSeconds   int        `yaml:"cache_ttl_seconds"`
	MaxCacheEntries   int        `yaml:"max_cache_entries"`
	RawContentBaseURL string     `yaml:"raw_content_base_url"`
	APIURL            string     `yaml:"api_url"`
	AccessToken       string     `yaml:"access_token"`
}

// CacheTTL returns the configured entry lifetime.
func (s SourceConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// HTTPConfig holds listener settings and the upstream HTTP client policy.
type HTTPConfig struct {
	Addr              string           `yaml:"addr"`
	BasePath          string           `yaml:"base_path"`
	ReadTimeout       string           `yaml:"read_timeout"`
	WriteTimeout      string           `yaml:"write_timeout"`
	ConnectTimeout    string           `yaml:"connect_timeout"`
	RequestTimeout    string           `yaml:"request_timeout"`
	MaxRetries        int              `yaml:"max_retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay string           `yaml:"retry_initial_delay"`
	RetryMaxDelay     string           `yaml:"retry_max_delay"`
}

// WebhookConfig configures the push-event invalidation endpoint.
type WebhookConfig struct {
	Path   string `yaml:"path"`
	Secret string `yaml:"secret"` // when set, X-Hub-Signature-256 is required
}

// ScheduleConfig configures periodic catalog refresh. Empty interval disables it.
type ScheduleConfig struct {
	ReloadInterval string `yaml:"reload_interval"`
}

// WatchConfig configures the local source tree watcher.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Debounce string `yaml:"debounce"`
}

// BroadcastConfig configures invalidation fan-out between replicas over NATS.
type BroadcastConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// JournalConfig configures the sync journal database. Empty path keeps it in memory.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads, expands, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration content with ${VAR} expansion, then applies
// defaults and validation.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Source: SourceConfig{
			Mode:              SourceModeRemote,
			Owner:             "your-org",
			Repo:              "your-repo",
			DefaultBranch:     "main",
			DocsRoot:          "docs",
			CacheTTLSeconds:   300,
			MaxCacheEntries:   500,
			RawContentBaseURL: "https://raw.githubusercontent.com",
			AccessToken:       "${GITHUB_TOKEN}",
		},
		HTTP:     HTTPConfig{Addr: ":8080", BasePath: "/docs"},
		Webhook:  WebhookConfig{Path: "/__hooks/github", Secret: "${WEBHOOK_SECRET}"},
		Schedule: ScheduleConfig{ReloadInterval: "15m"},
		Logging:  LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Metrics:  MetricsConfig{Enabled: true, Path: "/metrics"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Duration parses a duration field, returning fallback for empty or invalid input.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

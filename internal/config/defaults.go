package config

import "strings"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

// appliers run in order; later domains may read values defaulted by earlier ones.
var appliers = []DefaultApplier{
	&sourceDefaults{},
	&httpDefaults{},
	&webhookDefaults{},
	&ambientDefaults{},
}

// ApplyDefaults fills unset fields across all configuration domains.
func ApplyDefaults(cfg *Config) {
	for _, a := range appliers {
		a.ApplyDefaults(cfg)
	}
}

type sourceDefaults struct{}

func (sourceDefaults) Domain() string { return "source" }

func (sourceDefaults) ApplyDefaults(cfg *Config) {
	s := &cfg.Source
	switch SourceMode(strings.ToLower(strings.TrimSpace(string(s.Mode)))) {
	case SourceModeLocal:
		s.Mode = SourceModeLocal
	case SourceModeRemote:
		s.Mode = SourceModeRemote
	case "":
		if s.Owner != "" && s.Repo != "" {
			s.Mode = SourceModeRemote
		} else {
			s.Mode = SourceModeLocal
		}
	}
	if s.DefaultBranch == "" {
		s.DefaultBranch = "main"
	}
	s.DocsRoot = strings.Trim(s.DocsRoot, "/")
	if s.DocsRoot == "" {
		s.DocsRoot = "docs"
	}
	if s.LocalPath == "" {
		s.LocalPath = "."
	}
	if s.RootDocument == "" {
		s.RootDocument = "overview"
	}
	s.ReservedPrefix = strings.Trim(s.ReservedPrefix, "/")
	if s.ReservedPrefix == "" {
		s.ReservedPrefix = "api-reference"
	}
	if s.PrivateSegment == "" {
		s.PrivateSegment = "private"
	}
	if s.CacheTTLSeconds <= 0 {
		s.CacheTTLSeconds = 300
	}
	if s.MaxCacheEntries <= 0 {
		s.MaxCacheEntries = 500
	}
	if s.RawContentBaseURL == "" {
		s.RawContentBaseURL = "https://raw.githubusercontent.com"
	}
	if s.APIURL == "" {
		s.APIURL = "https://api.github.com"
	}
}

type httpDefaults struct{}

func (httpDefaults) Domain() string { return "http" }

func (httpDefaults) ApplyDefaults(cfg *Config) {
	h := &cfg.HTTP
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	h.BasePath = "/" + strings.Trim(h.BasePath, "/")
	if h.BasePath == "/" {
		h.BasePath = ""
	}
	if h.ConnectTimeout == "" {
		h.ConnectTimeout = "5s"
	}
	if h.RequestTimeout == "" {
		h.RequestTimeout = "15s"
	}
	if h.ReadTimeout == "" {
		h.ReadTimeout = "30s"
	}
	if h.WriteTimeout == "" {
		h.WriteTimeout = "30s"
	}
	if h.MaxRetries < 0 {
		h.MaxRetries = 0
	}
	if h.MaxRetries == 0 {
		h.MaxRetries = 2
	}
	if mode := NormalizeRetryBackoff(string(h.RetryBackoff)); mode != "" {
		h.RetryBackoff = mode
	} else {
		h.RetryBackoff = RetryBackoffExponential
	}
}

type webhookDefaults struct{}

func (webhookDefaults) Domain() string { return "webhook" }

func (webhookDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Webhook.Path == "" {
		cfg.Webhook.Path = "/__hooks/github"
	}
	if !strings.HasPrefix(cfg.Webhook.Path, "/") {
		cfg.Webhook.Path = "/" + cfg.Webhook.Path
	}
}

type ambientDefaults struct{}

func (ambientDefaults) Domain() string { return "ambient" }

func (ambientDefaults) ApplyDefaults(cfg *Config) {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Broadcast.Subject == "" {
		cfg.Broadcast.Subject = "docmirror.invalidate"
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "500ms"
	}
}

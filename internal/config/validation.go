package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validate checks a defaulted configuration for impossible or inconsistent values.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateSource(); err != nil {
		return err
	}
	if err := cv.validateDurations(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateSource() error {
	s := cv.config.Source
	switch s.Mode {
	case SourceModeLocal:
		if s.LocalPath == "" {
			return errors.New("source.local_path is required in local mode")
		}
	case SourceModeRemote:
		if s.Owner == "" || s.Repo == "" {
			return errors.New("source.owner and source.repo are required in remote mode")
		}
		for name, raw := range map[string]string{"raw_content_base_url": s.RawContentBaseURL, "api_url": s.APIURL} {
			u, err := url.Parse(raw)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("source.%s must be an absolute URL: %q", name, raw)
			}
		}
	default:
		return fmt.Errorf("unsupported source.mode: %q (expected local or remote)", s.Mode)
	}
	return nil
}

func (cv *configurationValidator) validateDurations() error {
	fields := map[string]string{
		"http.read_timeout":          cv.config.HTTP.ReadTimeout,
		"http.write_timeout":         cv.config.HTTP.WriteTimeout,
		"http.connect_timeout":       cv.config.HTTP.ConnectTimeout,
		"http.request_timeout":       cv.config.HTTP.RequestTimeout,
		"http.retry_initial_delay":   cv.config.HTTP.RetryInitialDelay,
		"http.retry_max_delay":       cv.config.HTTP.RetryMaxDelay,
		"schedule.reload_interval":   cv.config.Schedule.ReloadInterval,
		"watch.debounce":             cv.config.Watch.Debounce,
	}
	for name, raw := range fields {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
	}
	return nil
}

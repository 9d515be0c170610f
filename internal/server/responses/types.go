// Package responses defines API response types used by docmirror HTTP handlers.
package responses

import (
	"time"

	"git.home.luguber.info/inful/docmirror/internal/cache"
	"git.home.luguber.info/inful/docmirror/internal/eventstore"
)

// AckResponse acknowledges a webhook delivery.
type AckResponse struct {
	Status string `json:"status"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}

// StatusResponse summarizes catalog, cache and recent sync activity.
type StatusResponse struct {
	Status       string             `json:"status"`
	Timestamp    time.Time          `json:"timestamp"`
	Mode         string             `json:"mode"`
	DefaultRef   string             `json:"default_ref"`
	CatalogSize  int                `json:"catalog_size"`
	CatalogBuilt time.Time          `json:"catalog_built_at"`
	Cache        cache.Stats        `json:"cache"`
	RecentEvents []eventstore.Event `json:"recent_events"`
}

// ReloadResponse reports the outcome of a manual reload.
type ReloadResponse struct {
	Status  string `json:"status"`
	Removed int    `json:"removed"`
}

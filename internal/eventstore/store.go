// Package eventstore keeps an append-only journal of sync events (catalog
// reloads, cache invalidations, ignored webhooks) for status reporting.
package eventstore

import (
	"context"
	"encoding/json"
	"time"
)

// Event types written by the pipeline.
const (
	TypeCatalogReloaded  = "catalog.reloaded"
	TypeCacheInvalidated = "cache.invalidated"
	TypeWebhookIgnored   = "webhook.ignored"
	TypeWebhookRejected  = "webhook.rejected"
)

// Event is one journal entry.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Store defines the interface for persisting and retrieving sync events.
type Store interface {
	// Record appends an event whose payload is JSON-encoded.
	Record(ctx context.Context, eventType string, payload any) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// Package broadcast fans cache invalidations out to other replicas over NATS.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docmirror/internal/logfields"
)

// Message announces that prefix was invalidated for ref on the origin replica.
type Message struct {
	Ref       string    `json:"ref"`
	Prefix    string    `json:"prefix"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler applies an invalidation received from another replica.
type Handler func(ctx context.Context, msg Message)

// Bus publishes and receives invalidation messages on one subject.
type Bus struct {
	conn    *nats.Conn
	subject string
	origin  string

	mu  sync.Mutex
	sub *nats.Subscription
}

// Connect dials the NATS server at url.
func Connect(url, subject string) (*Bus, error) {
	origin := uuid.NewString()
	conn, err := nats.Connect(url,
		nats.Name("docmirror-"+origin[:8]),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS invalidation bus connected",
		logfields.URL(url),
		slog.String("subject", subject),
		slog.String("origin", origin))

	return &Bus{conn: conn, subject: subject, origin: origin}, nil
}

// Origin identifies this replica in published messages.
func (b *Bus) Origin() string { return b.origin }

// Publish announces an invalidation of prefix at ref.
func (b *Bus) Publish(_ context.Context, ref, prefix string) error {
	data, err := encode(Message{Ref: ref, Prefix: prefix, Origin: b.origin, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := b.conn.Publish(b.subject, data); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	slog.Debug("Published invalidation", logfields.Ref(ref), logfields.Prefix(prefix))
	return nil
}

// Subscribe delivers messages from other replicas to h until Close.
func (b *Bus) Subscribe(h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		return fmt.Errorf("already subscribed to %s", b.subject)
	}
	sub, err := b.conn.Subscribe(b.subject, func(m *nats.Msg) {
		b.dispatch(m.Data, h)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
	}
	b.sub = sub
	return nil
}

// dispatch decodes data and invokes h for messages from other origins.
func (b *Bus) dispatch(data []byte, h Handler) bool {
	msg, err := decode(data)
	if err != nil {
		slog.Warn("Dropping malformed invalidation message", logfields.Error(err))
		return false
	}
	if msg.Origin == b.origin {
		return false
	}
	h(context.Background(), msg)
	return true
}

// Close unsubscribes and drains the connection.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
		b.sub = nil
	}
	if b.conn != nil {
		return b.conn.Drain()
	}
	return nil
}

func encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invalidation: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("failed to unmarshal invalidation: %w", err)
	}
	if m.Ref == "" || m.Prefix == "" {
		return Message{}, fmt.Errorf("invalidation message missing ref or prefix")
	}
	return m, nil
}

// Package events publishes reduction events to NATS.
//
// Events are published to subjects of the form:
//   - {prefix}.reduction.completed
//   - {prefix}.reduction.batch_completed
//   - {prefix}.stats.reset
//
// Events carry metrics and digests only, never the submitted text.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/reductiond/internal/config"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Type identifies an event kind and forms the subject suffix.
type Type string

const (
	// TypeReductionCompleted is published after a single text is reduced.
	TypeReductionCompleted Type = "reduction.completed"
	// TypeBatchCompleted is published once per batch request.
	TypeBatchCompleted Type = "reduction.batch_completed"
	// TypeStatsReset is published when the engine statistics are cleared.
	TypeStatsReset Type = "stats.reset"
)

// Event is the JSON payload published for every reduction operation.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id,omitempty"`
	Algorithm     string    `json:"algorithm,omitempty"`
	Count         int       `json:"count,omitempty"`
	OriginalChars int       `json:"original_chars"`
	SavedChars    int       `json:"saved_chars"`
	LatencyMs     float64   `json:"latency_ms"`
	Digest        string    `json:"digest,omitempty"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// New returns a NATS publisher when cfg names a server and a no-op
// publisher otherwise.
func New(cfg config.EventsConfig, opts ...nats.Option) (Publisher, error) {
	if cfg.NATSURL == "" {
		return Nop{}, nil
	}
	return Connect(cfg.NATSURL, cfg.SubjectPrefix, opts...)
}

// NATSPublisher publishes events as JSON NATS messages.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	owned  bool
}

// Connect dials url and returns a publisher that closes the connection on
// Close.
func Connect(url, prefix string, opts ...nats.Option) (*NATSPublisher, error) {
	opts = append([]nats.Option{nats.Name("reductiond")}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	p := NewNATSPublisher(nc, prefix)
	p.owned = true
	return p, nil
}

// NewNATSPublisher wraps an existing connection. Close leaves the
// connection open.
func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Subject returns the subject an event type is published to.
func (p *NATSPublisher) Subject(t Type) string {
	if p.prefix == "" {
		return string(t)
	}
	return p.prefix + "." + string(t)
}

// Publish fills ID and Timestamp when unset and publishes ev. The event ID
// doubles as the JetStream deduplication key.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	msg := nats.NewMsg(p.Subject(ev.Type))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, ev.ID)
	if ev.RequestID != "" {
		msg.Header.Set("X-Request-Id", ev.RequestID)
	}

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	return nil
}

// Close drains the connection if the publisher opened it.
func (p *NATSPublisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.nc.Drain()
}

// Nop discards events.
type Nop struct{}

// Publish drops the event and returns nil.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close returns nil.
func (Nop) Close() error { return nil }

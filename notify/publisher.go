// Package notify publishes sync events to NATS so downstream consumers
// (dashboards, import jobs) can react to ontology changes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/c360studio/ontosync/sync"
)

// DefaultSubject is the subject sync events are published to.
const DefaultSubject = "ontology.sync.event"

// Event is the message published after each sync invocation.
type Event struct {
	EventID     string    `json:"event_id"`
	LeftPath    string    `json:"left_path"`
	RightPath   string    `json:"right_path"`
	Decision    string    `json:"decision"`
	Written     string    `json:"written,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	LeftCount   int       `json:"left_count"`
	RightCount  int       `json:"right_count"`
	Added       int       `json:"added"`
	Removed     int       `json:"removed"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher publishes sync events. A nil Publisher, or one built from an
// empty URL, skips publishing (graceful degradation).
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// Connect builds a publisher for the given NATS URL. An empty URL returns
// a nil publisher; every method on a nil publisher is a no-op.
func Connect(url, subject string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url, nats.Name("ontosync"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return &Publisher{nc: nc, subject: subject}, nil
}

// PublishResult converts an orchestrator result into an event and publishes
// it.
func (p *Publisher) PublishResult(ctx context.Context, leftPath, rightPath string, res *sync.Result) error {
	if p == nil {
		return nil
	}
	ev := Event{
		EventID:     uuid.New().String(),
		LeftPath:    leftPath,
		RightPath:   rightPath,
		Decision:    string(res.Decision),
		Written:     res.Written,
		Fingerprint: string(res.Fingerprint),
		LeftCount:   res.LeftCount,
		RightCount:  res.RightCount,
		Timestamp:   time.Now(),
	}
	if res.Report != nil {
		ev.Added = len(res.Report.Added)
		ev.Removed = len(res.Report.Removed)
	}
	return p.publish(ctx, ev)
}

func (p *Publisher) publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal sync event: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish sync event: %w", err)
	}
	// Flush bounded by the caller's context so a one-shot CLI run does not
	// exit before the event leaves the client buffer.
	if deadline, ok := ctx.Deadline(); ok {
		return p.nc.FlushTimeout(time.Until(deadline))
	}
	return p.nc.Flush()
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}

// Package events publishes batch lifecycle events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/taskdrop/taskdrop/internal/batch"
)

// publishTimeout bounds how long a publish waits for its JetStream ack.
const publishTimeout = 5 * time.Second

// Publisher implements batch.EventSink on JetStream. Publishes are
// asynchronous; delivery failures are logged and dropped.
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *slog.Logger
	acks   sync.WaitGroup
}

// Connect dials url, ensures the stream exists, and returns a publisher that
// owns the connection.
func Connect(url string, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("taskdrop"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("get JetStream context: %w", err)
	}
	if err := EnsureStreams(js); err != nil {
		nc.Close()
		return nil, err
	}
	p := NewPublisher(js, logger)
	p.nc = nc
	return p, nil
}

// NewPublisher wraps an existing JetStream context. The caller keeps
// ownership of the underlying connection.
func NewPublisher(js nats.JetStreamContext, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{js: js, logger: logger}
}

// JetStream returns the publisher's JetStream context.
func (p *Publisher) JetStream() nats.JetStreamContext {
	return p.js
}

// Publish queues ev for taskbatch.<kind> and returns without waiting for the
// server to acknowledge it.
func (p *Publisher) Publish(_ context.Context, ev batch.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("marshal batch event", "kind", ev.Kind, "error", err)
		return
	}

	future, err := p.js.PublishAsync(SubjectFor(ev.Kind), data)
	if err != nil {
		p.logger.Warn("publish batch event", "kind", ev.Kind, "token", ev.Token, "error", err)
		return
	}
	p.acks.Go(func() {
		select {
		case <-future.Ok():
		case err := <-future.Err():
			p.logger.Warn("publish batch event", "kind", ev.Kind, "token", ev.Token, "error", err)
		case <-time.After(publishTimeout):
			p.logger.Warn("publish batch event", "kind", ev.Kind, "token", ev.Token, "error", "no ack within "+publishTimeout.String())
		}
	})
}

// Subscribe delivers batch events to fn until the subscription is drained or
// unsubscribed. Without opts only events published from now on are delivered.
// Malformed payloads are skipped.
func (p *Publisher) Subscribe(fn func(batch.Event), opts ...nats.SubOpt) (*nats.Subscription, error) {
	if len(opts) == 0 {
		opts = []nats.SubOpt{nats.DeliverNew()}
	}
	return p.js.Subscribe(SubjectPrefix+">", func(msg *nats.Msg) {
		var ev batch.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			p.logger.Warn("skip malformed batch event", "subject", msg.Subject, "error", err)
			_ = msg.Ack()
			return
		}
		fn(ev)
		_ = msg.Ack()
	}, opts...)
}

// Close waits for outstanding acks, then drains and closes the connection
// if the publisher owns it.
func (p *Publisher) Close() {
	p.acks.Wait()
	if p.nc == nil {
		return
	}
	_ = p.nc.Drain()
	p.nc.Close()
}

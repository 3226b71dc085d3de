package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/hanko-field/schedule/internal/services"
)

// PubSubConflictPublisher publishes partner conflict alerts to a Pub/Sub topic.
type PubSubConflictPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

var _ services.ConflictPublisher = (*PubSubConflictPublisher)(nil)

// NewPubSubConflictPublisher constructs a publisher bound to topic.
func NewPubSubConflictPublisher(topic *pubsub.Topic) (*PubSubConflictPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub conflict publisher: topic is required")
	}
	return &PubSubConflictPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishConflictAlerts queues every alert on the topic, then waits for each result, so the
// messages are batched by the client instead of paying one round trip per alert.
func (p *PubSubConflictPublisher) PublishConflictAlerts(ctx context.Context, alerts []services.ConflictAlert) []error {
	errs := make([]error, len(alerts))
	if p == nil || p.topic == nil {
		for i := range errs {
			errs[i] = errors.New("pubsub conflict publisher: not initialised")
		}
		return errs
	}

	results := make([]*pubsub.PublishResult, len(alerts))
	for i, alert := range alerts {
		msg, err := p.message(alert)
		if err != nil {
			errs[i] = err
			continue
		}
		results[i] = p.topic.Publish(ctx, msg)
	}

	for i, result := range results {
		if result == nil {
			continue
		}
		if _, err := result.Get(ctx); err != nil {
			errs[i] = fmt.Errorf("publish conflict alert %s: %w", alerts[i].AlertID, err)
		}
	}
	return errs
}

func (p *PubSubConflictPublisher) message(alert services.ConflictAlert) (*pubsub.Message, error) {
	data, err := p.marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("marshal conflict alert: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "alertId", alert.AlertID)
	setAttr(attrs, "reportId", alert.ReportID)
	setAttr(attrs, "partner", alert.Partner)
	if !alert.OverlapStart.IsZero() {
		attrs["overlapStart"] = alert.OverlapStart.UTC().Format(time.RFC3339)
	}
	return &pubsub.Message{Data: data, Attributes: attrs}, nil
}

// Stop flushes pending messages and releases the topic's goroutines.
func (p *PubSubConflictPublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

// Package events carries catalog change notifications over Cloud Pub/Sub.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

// PubSubPublisher publishes catalog changes to a Pub/Sub topic.
type PubSubPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubPublisher constructs a publisher for topic.
func NewPubSubPublisher(topic *pubsub.Topic) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("catalog change publisher: topic is required")
	}
	return &PubSubPublisher{topic: topic, marshal: json.Marshal}, nil
}

// PublishCatalogChange sends change and waits for the server to acknowledge it.
func (p *PubSubPublisher) PublishCatalogChange(ctx context.Context, change domain.CatalogChange) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("catalog change publisher: not initialised")
	}

	data, err := p.marshal(change)
	if err != nil {
		return "", fmt.Errorf("marshal catalog change: %w", err)
	}

	attrs := make(map[string]string, 3)
	setAttr(attrs, "kind", string(change.Kind))
	setAttr(attrs, "action", string(change.Action))
	setAttr(attrs, "recordId", change.ID)

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish catalog change: %w", err)
	}
	return id, nil
}

// Stop flushes pending messages.
func (p *PubSubPublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

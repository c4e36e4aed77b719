package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

// ChangeHandler reacts to a catalog change. Returning an error requests redelivery.
type ChangeHandler func(ctx context.Context, change domain.CatalogChange) error

// Listener consumes catalog changes from a subscription.
type Listener struct {
	sub    *pubsub.Subscription
	handle ChangeHandler
	logger *zap.Logger
}

// NewListener constructs a Listener.
func NewListener(sub *pubsub.Subscription, handle ChangeHandler, logger *zap.Logger) (*Listener, error) {
	if sub == nil {
		return nil, errors.New("catalog change listener: subscription is required")
	}
	if handle == nil {
		return nil, errors.New("catalog change listener: handler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{sub: sub, handle: handle, logger: logger}, nil
}

// Run receives messages until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	err := l.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := l.process(ctx, msg.Data); err != nil {
			if errors.Is(err, errMalformedChange) {
				l.logger.Warn("dropping malformed catalog change", zap.String("message_id", msg.ID), zap.Error(err))
				msg.Ack()
				return
			}
			l.logger.Error("catalog change handler failed", zap.String("message_id", msg.ID), zap.Error(err))
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("receive catalog changes: %w", err)
	}
	return nil
}

var errMalformedChange = errors.New("malformed catalog change")

func (l *Listener) process(ctx context.Context, data []byte) error {
	change, err := DecodeChange(data)
	if err != nil {
		return err
	}
	l.logger.Debug("catalog change received",
		zap.String("kind", string(change.Kind)),
		zap.String("action", string(change.Action)),
		zap.String("record_id", change.ID),
	)
	return l.handle(ctx, change)
}

// DecodeChange parses and validates a catalog change payload.
func DecodeChange(data []byte) (domain.CatalogChange, error) {
	var change domain.CatalogChange
	if err := json.Unmarshal(data, &change); err != nil {
		return domain.CatalogChange{}, fmt.Errorf("%w: %v", errMalformedChange, err)
	}
	kind, ok := domain.ParseRecordKind(string(change.Kind))
	if !ok {
		return domain.CatalogChange{}, fmt.Errorf("%w: unknown kind %q", errMalformedChange, change.Kind)
	}
	change.Kind = kind
	return change, nil
}

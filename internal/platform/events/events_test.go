package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

func newTestClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	client, err := pubsub.NewClient(context.Background(), "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestPubSubPublisherPublishesChange(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t)

	topic, err := client.CreateTopic(ctx, "catalog-changes")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	publisher, err := NewPubSubPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubPublisher: %v", err)
	}
	defer publisher.Stop()

	change := domain.CatalogChange{
		Kind:       domain.KindProducts,
		ID:         "p1",
		Slug:       "gold-band",
		Action:     domain.ChangeUpdated,
		OccurredAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	if _, err := publisher.PublishCatalogChange(ctx, change); err != nil {
		t.Fatalf("PublishCatalogChange: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	var payload domain.CatalogChange
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.ID != "p1" || payload.Kind != domain.KindProducts || payload.Action != domain.ChangeUpdated {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["kind"]; attr != "products" {
		t.Fatalf("expected kind attribute, got %q", attr)
	}
	if _, ok := messages[0].Attributes["slug"]; ok {
		t.Fatalf("slug attribute should not be present")
	}
}

func TestListenerDeliversChanges(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, _ := newTestClient(t)

	topic, err := client.CreateTopic(ctx, "catalog-changes")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	sub, err := client.CreateSubscription(ctx, "storefront", pubsub.SubscriptionConfig{Topic: topic})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}

	var (
		mu       sync.Mutex
		received []domain.CatalogChange
	)
	listener, err := NewListener(sub, func(_ context.Context, change domain.CatalogChange) error {
		mu.Lock()
		received = append(received, change)
		mu.Unlock()
		cancel()
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}

	publisher, err := NewPubSubPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubPublisher: %v", err)
	}
	defer publisher.Stop()
	if _, err := publisher.PublishCatalogChange(ctx, domain.CatalogChange{Kind: domain.KindBlogs, ID: "b1", Action: domain.ChangeDeleted}); err != nil {
		t.Fatalf("PublishCatalogChange: %v", err)
	}

	if err := listener.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0].Kind != domain.KindBlogs || received[0].ID != "b1" {
		t.Fatalf("unexpected changes %#v", received)
	}
}

func TestDecodeChange(t *testing.T) {
	change, err := DecodeChange([]byte(`{"kind":"product","id":"p1","action":"created"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change.Kind != domain.KindProducts {
		t.Fatalf("expected singular kind to normalise, got %q", change.Kind)
	}

	if _, err := DecodeChange([]byte(`{"kind":"orders"}`)); !errors.Is(err, errMalformedChange) {
		t.Fatalf("expected malformed error for unknown kind, got %v", err)
	}
	if _, err := DecodeChange([]byte(`not json`)); !errors.Is(err, errMalformedChange) {
		t.Fatalf("expected malformed error for bad json, got %v", err)
	}
}

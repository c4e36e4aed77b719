package services

import (
	"context"
	"reflect"
	"testing"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

func newTestResolver(t *testing.T, products *stubProductRepo, collections *stubCollectionRepo) MembershipResolver {
	t.Helper()
	resolver, err := NewMembershipResolver(newTestCatalog(t, products, collections, nil, nil))
	if err != nil {
		t.Fatalf("NewMembershipResolver: %v", err)
	}
	return resolver
}

func TestMembershipResolveUsesBackReferences(t *testing.T) {
	products := &stubProductRepo{products: []domain.Product{
		{ID: "p1", Collection: "bridal"},
		{ID: "p2", Collection: "festive"},
		{ID: "p3", Collection: "bridal"},
	}}
	collections := &stubCollectionRepo{collections: []domain.Collection{
		// forward list disagrees on purpose
		{ID: "c1", Slug: "bridal", Products: []string{"p2"}},
	}}
	resolver := newTestResolver(t, products, collections)

	members := resolver.Resolve(context.Background(), " bridal ")
	if got := ids(members.Items); !reflect.DeepEqual(got, []string{"p1", "p3"}) {
		t.Fatalf("expected back-referenced products, got %v", got)
	}

	none := resolver.Resolve(context.Background(), "winter")
	if none.Outcome != domain.OutcomeEmpty {
		t.Fatalf("expected empty membership, got %s", none.Outcome)
	}
}

func TestMembershipResolveUnavailable(t *testing.T) {
	resolver := newTestResolver(t, &stubProductRepo{listErr: errStoreDown}, nil)
	if got := resolver.Resolve(context.Background(), "bridal"); !got.Unavailable() {
		t.Fatalf("expected unavailable, got %s", got.Outcome)
	}
}

func TestMembershipAudit(t *testing.T) {
	products := &stubProductRepo{products: []domain.Product{
		{ID: "p1", Collection: "bridal"},
		{ID: "p3", Collection: "bridal"},
	}}
	collections := &stubCollectionRepo{collections: []domain.Collection{
		{ID: "c1", Slug: "bridal", Products: []string{"p1", "p2", "p2", " "}},
		{ID: "c2", Slug: "festive"},
	}}
	resolver := newTestResolver(t, products, collections)
	ctx := context.Background()

	audit := resolver.Audit(ctx, "bridal")
	if !audit.OK() {
		t.Fatalf("expected audit, got %s", audit.Outcome)
	}
	if !reflect.DeepEqual(audit.Item.ForwardOnly, []string{"p2"}) {
		t.Fatalf("unexpected forward-only ids %v", audit.Item.ForwardOnly)
	}
	if !reflect.DeepEqual(audit.Item.BackReferenceOnly, []string{"p3"}) {
		t.Fatalf("unexpected back-reference-only ids %v", audit.Item.BackReferenceOnly)
	}
	if audit.Item.Consistent {
		t.Fatalf("expected inconsistent membership")
	}

	clean := resolver.Audit(ctx, "festive")
	if !clean.OK() || !clean.Item.Consistent {
		t.Fatalf("expected consistent empty collection, got %+v", clean)
	}

	if missing := resolver.Audit(ctx, "winter"); missing.Outcome != domain.OutcomeNotFound {
		t.Fatalf("expected not_found, got %s", missing.Outcome)
	}
}

func TestMembershipAuditUnavailable(t *testing.T) {
	collections := &stubCollectionRepo{collections: []domain.Collection{{ID: "c1", Slug: "bridal"}}}
	resolver := newTestResolver(t, &stubProductRepo{listErr: errStoreDown}, collections)
	if got := resolver.Audit(context.Background(), "bridal"); got.Outcome != domain.OutcomeUnavailable {
		t.Fatalf("expected unavailable, got %s", got.Outcome)
	}
}

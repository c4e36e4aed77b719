package services

import (
	"context"
	"errors"
	"strings"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

// MembershipAudit compares the two ways a collection's members are recorded: the forward
// product ID list on the collection and each product's back-reference slug.
type MembershipAudit struct {
	CollectionID   string
	CollectionSlug string
	// ForwardOnly holds IDs listed on the collection whose products do not point back to it.
	ForwardOnly []string
	// BackReferenceOnly holds IDs of products pointing at the collection but missing from its list.
	BackReferenceOnly []string
	Consistent        bool
}

type membershipResolver struct {
	catalog CatalogService
}

// NewMembershipResolver constructs a resolver. Membership is read from the products'
// back-reference; the forward list on the collection is only consulted by Audit.
func NewMembershipResolver(catalog CatalogService) (MembershipResolver, error) {
	if catalog == nil {
		return nil, errors.New("membership resolver: catalog service is required")
	}
	return &membershipResolver{catalog: catalog}, nil
}

func (r *membershipResolver) Resolve(ctx context.Context, collectionSlug string) domain.Listing[domain.Product] {
	return r.catalog.ListProductsByCollectionSlug(ctx, strings.TrimSpace(collectionSlug))
}

func (r *membershipResolver) Audit(ctx context.Context, collectionSlug string) domain.Lookup[MembershipAudit] {
	collection := r.catalog.GetCollectionBySlug(ctx, collectionSlug)
	if !collection.OK() {
		return domain.Lookup[MembershipAudit]{Outcome: collection.Outcome}
	}
	members := r.Resolve(ctx, collection.Item.Slug)
	if members.Unavailable() {
		return domain.UnavailableLookup[MembershipAudit]()
	}

	backRefs := make(map[string]struct{}, len(members.Items))
	for _, p := range members.Items {
		backRefs[p.ID] = struct{}{}
	}
	forward := make(map[string]struct{}, len(collection.Item.Products))

	audit := MembershipAudit{
		CollectionID:      collection.Item.ID,
		CollectionSlug:    collection.Item.Slug,
		ForwardOnly:       []string{},
		BackReferenceOnly: []string{},
	}
	for _, id := range collection.Item.Products {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := forward[id]; dup {
			continue
		}
		forward[id] = struct{}{}
		if _, ok := backRefs[id]; !ok {
			audit.ForwardOnly = append(audit.ForwardOnly, id)
		}
	}
	for _, p := range members.Items {
		if _, ok := forward[p.ID]; !ok {
			audit.BackReferenceOnly = append(audit.BackReferenceOnly, p.ID)
		}
	}
	audit.Consistent = len(audit.ForwardOnly) == 0 && len(audit.BackReferenceOnly) == 0
	return domain.Found(audit)
}

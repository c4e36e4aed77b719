// Package services holds the storefront's catalog rules on top of the repositories.
package services

import (
	"context"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

// CatalogService answers storefront reads. Store failures never surface as errors: they are
// logged and reported through the Outcome of the returned Listing or Lookup.
type CatalogService interface {
	ListProducts(ctx context.Context, limit int) domain.Listing[domain.Product]
	GetProductBySlug(ctx context.Context, slug string) domain.Lookup[domain.Product]
	ListProductsByCategory(ctx context.Context, category string, limit int) domain.Listing[domain.Product]
	// ListProductsByGender returns products for gender plus those merchandised for both audiences.
	ListProductsByGender(ctx context.Context, gender domain.Gender, limit int) domain.Listing[domain.Product]
	ListProductsByCollectionSlug(ctx context.Context, slug string) domain.Listing[domain.Product]
	ListRelatedProducts(ctx context.Context, product domain.Product) domain.Listing[domain.Product]
	ListCollections(ctx context.Context, limit int) domain.Listing[domain.Collection]
	GetCollectionBySlug(ctx context.Context, slug string) domain.Lookup[domain.Collection]
	ListBlogs(ctx context.Context) domain.Listing[domain.Blog]
	GetBlogBySlug(ctx context.Context, slug string) domain.Lookup[domain.Blog]
	// Invalidate drops every cached read of kind.
	Invalidate(ctx context.Context, kind domain.RecordKind) error
}

// MembershipResolver lists the products that belong to a collection.
type MembershipResolver interface {
	Resolve(ctx context.Context, collectionSlug string) domain.Listing[domain.Product]
	Audit(ctx context.Context, collectionSlug string) domain.Lookup[MembershipAudit]
}

// AdminGateway validates and writes catalog records on behalf of the admin console.
type AdminGateway interface {
	Create(ctx context.Context, cmd UpsertCommand) (UpsertResult, error)
	Update(ctx context.Context, id string, cmd UpsertCommand) (UpsertResult, error)
	Delete(ctx context.Context, cmd DeleteCommand) error
}

// StorefrontService composes multi-section pages.
type StorefrontService interface {
	Home(ctx context.Context) HomePage
	Dashboard(ctx context.Context) Dashboard
}

// BlogRenderer turns editor-authored Markdown into safe HTML.
type BlogRenderer interface {
	Render(markdown string) (string, error)
}

// ImageStore uploads catalog images and resolves their public URLs.
type ImageStore interface {
	Upload(ctx context.Context, objectPath, contentType string, data []byte) error
	URL(objectPath string) string
}

// ChangePublisher announces committed writes to other storefront instances.
type ChangePublisher interface {
	PublishCatalogChange(ctx context.Context, change domain.CatalogChange) (string, error)
}

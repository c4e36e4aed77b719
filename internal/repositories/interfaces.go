// Package repositories declares the persistence contracts of the catalog.
package repositories

import (
	"context"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductQuery narrows a product listing. Zero values leave a field unconstrained.
type ProductQuery struct {
	Slug           string
	Category       string
	Genders        []domain.Gender
	CollectionSlug string
	Limit          int
}

// ProductRepository stores products.
type ProductRepository interface {
	ListProducts(ctx context.Context, query ProductQuery) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	// ReplaceProduct overwrites every attribute of an existing product.
	ReplaceProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// CollectionQuery narrows a collection listing.
type CollectionQuery struct {
	Slug  string
	Limit int
}

// CollectionRepository stores collections.
type CollectionRepository interface {
	ListCollections(ctx context.Context, query CollectionQuery) ([]domain.Collection, error)
	GetCollection(ctx context.Context, id string) (domain.Collection, error)
	CreateCollection(ctx context.Context, collection domain.Collection) (domain.Collection, error)
	ReplaceCollection(ctx context.Context, collection domain.Collection) (domain.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
}

// BlogQuery narrows a blog listing.
type BlogQuery struct {
	Slug  string
	Limit int
}

// BlogRepository stores blog posts.
type BlogRepository interface {
	ListBlogs(ctx context.Context, query BlogQuery) ([]domain.Blog, error)
	GetBlog(ctx context.Context, id string) (domain.Blog, error)
	CreateBlog(ctx context.Context, blog domain.Blog) (domain.Blog, error)
	ReplaceBlog(ctx context.Context, blog domain.Blog) (domain.Blog, error)
	DeleteBlog(ctx context.Context, id string) error
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

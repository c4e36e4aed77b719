package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/cache"
	"github.com/unfazed24072005io/luxe-jewellery/internal/repositories"
)

const (
	defaultQueryTimeout = 5 * time.Second
	relatedFetchLimit   = 4
	relatedMaxResults   = 3
)

// ErrCatalogRepositoryMissing signals that a catalog repository dependency is absent.
var ErrCatalogRepositoryMissing = errors.New("catalog service: repositories are not configured")

// CatalogServiceDeps groups constructor parameters for the catalog service.
type CatalogServiceDeps struct {
	Products     repositories.ProductRepository
	Collections  repositories.CollectionRepository
	Blogs        repositories.BlogRepository
	Cache        cache.Store
	Logger       *zap.Logger
	QueryTimeout time.Duration
}

type catalogService struct {
	products    repositories.ProductRepository
	collections repositories.CollectionRepository
	blogs       repositories.BlogRepository
	cache       cache.Store
	logger      *zap.Logger
	timeout     time.Duration
}

// NewCatalogService constructs the catalog read service.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil || deps.Collections == nil || deps.Blogs == nil {
		return nil, ErrCatalogRepositoryMissing
	}
	store := deps.Cache
	if store == nil {
		store = cache.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &catalogService{
		products:    deps.Products,
		collections: deps.Collections,
		blogs:       deps.Blogs,
		cache:       store,
		logger:      logger,
		timeout:     timeout,
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, limit int) domain.Listing[domain.Product] {
	return s.listProducts(ctx, "list", repositories.ProductQuery{Limit: normaliseLimit(limit)})
}

func (s *catalogService) GetProductBySlug(ctx context.Context, slug string) domain.Lookup[domain.Product] {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.NotFound[domain.Product]()
	}
	return firstOf(s.listProducts(ctx, "slug", repositories.ProductQuery{Slug: slug, Limit: 1}))
}

func (s *catalogService) ListProductsByCategory(ctx context.Context, category string, limit int) domain.Listing[domain.Product] {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return domain.NewListing[domain.Product](nil)
	}
	return s.listProducts(ctx, "category", repositories.ProductQuery{Category: category, Limit: normaliseLimit(limit)})
}

func (s *catalogService) ListProductsByGender(ctx context.Context, gender domain.Gender, limit int) domain.Listing[domain.Product] {
	gender, ok := domain.ParseGender(string(gender))
	if !ok {
		return domain.NewListing[domain.Product](nil)
	}
	genders := []domain.Gender{gender}
	if gender != domain.GenderBoth {
		genders = append(genders, domain.GenderBoth)
	}
	listing := s.listProducts(ctx, "gender", repositories.ProductQuery{Genders: genders, Limit: normaliseLimit(limit)})
	if listing.Unavailable() {
		return listing
	}
	return domain.NewListing(dedupeProducts(listing.Items))
}

func (s *catalogService) ListProductsByCollectionSlug(ctx context.Context, slug string) domain.Listing[domain.Product] {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.NewListing[domain.Product](nil)
	}
	return s.listProducts(ctx, "collection", repositories.ProductQuery{CollectionSlug: slug})
}

// ListRelatedProducts returns up to three other products from the same category.
func (s *catalogService) ListRelatedProducts(ctx context.Context, product domain.Product) domain.Listing[domain.Product] {
	listing := s.ListProductsByCategory(ctx, product.Category, relatedFetchLimit)
	if listing.Unavailable() {
		return listing
	}
	related := make([]domain.Product, 0, relatedMaxResults)
	for _, candidate := range listing.Items {
		if sameProduct(candidate, product) {
			continue
		}
		related = append(related, candidate)
		if len(related) == relatedMaxResults {
			break
		}
	}
	return domain.NewListing(related)
}

func (s *catalogService) ListCollections(ctx context.Context, limit int) domain.Listing[domain.Collection] {
	limit = normaliseLimit(limit)
	return readListing(ctx, s, domain.KindCollections, cache.Key("list", strconv.Itoa(limit)),
		func(ctx context.Context) ([]domain.Collection, error) {
			return s.collections.ListCollections(ctx, repositories.CollectionQuery{Limit: limit})
		})
}

func (s *catalogService) GetCollectionBySlug(ctx context.Context, slug string) domain.Lookup[domain.Collection] {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.NotFound[domain.Collection]()
	}
	return firstOf(readListing(ctx, s, domain.KindCollections, cache.Key("slug", slug),
		func(ctx context.Context) ([]domain.Collection, error) {
			return s.collections.ListCollections(ctx, repositories.CollectionQuery{Slug: slug, Limit: 1})
		}))
}

func (s *catalogService) ListBlogs(ctx context.Context) domain.Listing[domain.Blog] {
	return readListing(ctx, s, domain.KindBlogs, cache.Key("list"),
		func(ctx context.Context) ([]domain.Blog, error) {
			return s.blogs.ListBlogs(ctx, repositories.BlogQuery{})
		})
}

func (s *catalogService) GetBlogBySlug(ctx context.Context, slug string) domain.Lookup[domain.Blog] {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.NotFound[domain.Blog]()
	}
	return firstOf(readListing(ctx, s, domain.KindBlogs, cache.Key("slug", slug),
		func(ctx context.Context) ([]domain.Blog, error) {
			return s.blogs.ListBlogs(ctx, repositories.BlogQuery{Slug: slug, Limit: 1})
		}))
}

func (s *catalogService) Invalidate(ctx context.Context, kind domain.RecordKind) error {
	if err := s.cache.Invalidate(ctx, kind); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.String("kind", string(kind)), zap.Error(err))
		return err
	}
	s.logger.Debug("catalog cache invalidated", zap.String("kind", string(kind)))
	return nil
}

func (s *catalogService) listProducts(ctx context.Context, label string, query repositories.ProductQuery) domain.Listing[domain.Product] {
	genders := make([]string, len(query.Genders))
	for i, g := range query.Genders {
		genders[i] = string(g)
	}
	key := cache.Key(label, query.Slug, query.Category, strings.Join(genders, "|"), query.CollectionSlug, strconv.Itoa(query.Limit))
	return readListing(ctx, s, domain.KindProducts, key, func(ctx context.Context) ([]domain.Product, error) {
		return s.products.ListProducts(ctx, query)
	})
}

// readListing serves a listing from cache or the store. Failed reads are logged and
// reported as unavailable; they are never cached.
func readListing[T any](ctx context.Context, s *catalogService, kind domain.RecordKind, key string, fetch func(context.Context) ([]T, error)) domain.Listing[T] {
	logger := s.logger.With(zap.String("kind", string(kind)), zap.String("query", key))

	if raw, ok, err := s.cache.Get(ctx, kind, key); err != nil {
		logger.Warn("catalog cache read failed", zap.Error(err))
	} else if ok {
		var items []T
		if err := json.Unmarshal(raw, &items); err == nil {
			return domain.NewListing(items)
		}
		logger.Warn("discarding undecodable cache entry")
	}

	// taken before the fetch so a write landing mid-query keeps this result out of the cache
	gen, genErr := s.cache.Generation(ctx, kind)
	if genErr != nil {
		logger.Warn("catalog cache generation read failed", zap.Error(genErr))
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := fetch(queryCtx)
	if err != nil {
		logger.Error("catalog query failed", zap.Error(err), zap.Bool("timeout", errors.Is(queryCtx.Err(), context.DeadlineExceeded)))
		return domain.UnavailableListing[T]()
	}

	if genErr != nil {
		return domain.NewListing(items)
	}
	if raw, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, kind, gen, key, raw); err != nil {
			logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return domain.NewListing(items)
}

func firstOf[T any](listing domain.Listing[T]) domain.Lookup[T] {
	switch {
	case listing.Unavailable():
		return domain.UnavailableLookup[T]()
	case len(listing.Items) == 0:
		return domain.NotFound[T]()
	default:
		return domain.Found(listing.Items[0])
	}
}

func dedupeProducts(products []domain.Product) []domain.Product {
	seen := make(map[string]struct{}, len(products))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.ID != "" {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
		}
		out = append(out, p)
	}
	return out
}

func sameProduct(a, b domain.Product) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.Slug != "" && a.Slug == b.Slug
}

// normaliseLimit maps "no limit" spellings to 0.
func normaliseLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	return limit
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/cache"
)

func newTestCatalog(t *testing.T, products *stubProductRepo, collections *stubCollectionRepo, blogs *stubBlogRepo, store cache.Store) CatalogService {
	t.Helper()
	if products == nil {
		products = &stubProductRepo{}
	}
	if collections == nil {
		collections = &stubCollectionRepo{}
	}
	if blogs == nil {
		blogs = &stubBlogRepo{}
	}
	svc, err := NewCatalogService(CatalogServiceDeps{
		Products:     products,
		Collections:  collections,
		Blogs:        blogs,
		Cache:        store,
		QueryTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc
}

func TestNewCatalogServiceRequiresRepositories(t *testing.T) {
	_, err := NewCatalogService(CatalogServiceDeps{Products: &stubProductRepo{}})
	if !errors.Is(err, ErrCatalogRepositoryMissing) {
		t.Fatalf("expected ErrCatalogRepositoryMissing, got %v", err)
	}
}

func TestCatalogServiceListProductsOutcomes(t *testing.T) {
	ctx := context.Background()

	empty := newTestCatalog(t, &stubProductRepo{}, nil, nil, nil).ListProducts(ctx, 0)
	if empty.Outcome != domain.OutcomeEmpty || empty.Items == nil || len(empty.Items) != 0 {
		t.Fatalf("expected empty listing with non-nil items, got %+v", empty)
	}

	repo := &stubProductRepo{products: []domain.Product{{ID: "p1", Slug: "halo"}, {ID: "p2", Slug: "drop"}}}
	ok := newTestCatalog(t, repo, nil, nil, nil).ListProducts(ctx, 1)
	if ok.Outcome != domain.OutcomeOK || len(ok.Items) != 1 || ok.Items[0].ID != "p1" {
		t.Fatalf("unexpected listing %+v", ok)
	}

	down := newTestCatalog(t, &stubProductRepo{listErr: errStoreDown}, nil, nil, nil).ListProducts(ctx, 0)
	if !down.Unavailable() || down.Items == nil || len(down.Items) != 0 {
		t.Fatalf("expected unavailable listing with empty items, got %+v", down)
	}
}

func TestCatalogServiceQueryTimeoutIsUnavailable(t *testing.T) {
	repo := &stubProductRepo{block: true}
	svc := newTestCatalog(t, repo, nil, nil, nil)

	start := time.Now()
	listing := svc.ListProducts(context.Background(), 0)
	if !listing.Unavailable() {
		t.Fatalf("expected unavailable after timeout, got %s", listing.Outcome)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("query was not bounded: %s", elapsed)
	}
}

func TestCatalogServiceUnavailableIsNotCached(t *testing.T) {
	repo := &stubProductRepo{listErr: errStoreDown}
	store := cache.NewMemory(time.Minute)
	svc := newTestCatalog(t, repo, nil, nil, store)
	ctx := context.Background()

	if listing := svc.ListProducts(ctx, 0); !listing.Unavailable() {
		t.Fatalf("expected unavailable, got %s", listing.Outcome)
	}
	if store.Len(domain.KindProducts) != 0 {
		t.Fatalf("failed read must not be cached")
	}

	repo.mu.Lock()
	repo.listErr = nil
	repo.products = []domain.Product{{ID: "p1"}}
	repo.mu.Unlock()

	if listing := svc.ListProducts(ctx, 0); listing.Outcome != domain.OutcomeOK {
		t.Fatalf("expected recovery on the next read, got %s", listing.Outcome)
	}
}

func TestCatalogServiceCachesUntilInvalidated(t *testing.T) {
	repo := &stubProductRepo{products: []domain.Product{{ID: "p1", Slug: "halo", Price: 1200}}}
	store := cache.NewMemory(time.Minute)
	svc := newTestCatalog(t, repo, nil, nil, store)
	ctx := context.Background()

	first := svc.ListProducts(ctx, 0)
	second := svc.ListProducts(ctx, 0)
	if repo.listCalls() != 1 {
		t.Fatalf("expected one store query, got %d", repo.listCalls())
	}
	if len(second.Items) != 1 || second.Items[0].Price != first.Items[0].Price {
		t.Fatalf("cached listing differs: %+v vs %+v", second, first)
	}

	if err := svc.Invalidate(ctx, domain.KindCollections); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	svc.ListProducts(ctx, 0)
	if repo.listCalls() != 1 {
		t.Fatalf("invalidating another kind must keep product reads cached")
	}

	if err := svc.Invalidate(ctx, domain.KindProducts); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	svc.ListProducts(ctx, 0)
	if repo.listCalls() != 2 {
		t.Fatalf("expected re-query after invalidation, got %d calls", repo.listCalls())
	}
}

func TestCatalogServiceInvalidateDuringReadDropsStaleResult(t *testing.T) {
	repo := &stubProductRepo{products: []domain.Product{{ID: "p1", Slug: "halo", Price: 100}}}
	store := cache.NewMemory(0)
	svc := newTestCatalog(t, repo, nil, nil, store)
	ctx := context.Background()

	// a write commits and invalidates while the first read is still in flight
	repo.afterRead = func() {
		repo.mu.Lock()
		repo.products = []domain.Product{{ID: "p1", Slug: "halo", Price: 200}}
		repo.afterRead = nil
		repo.mu.Unlock()
		if err := svc.Invalidate(ctx, domain.KindProducts); err != nil {
			t.Errorf("Invalidate: %v", err)
		}
	}

	if stale := svc.ListProducts(ctx, 0); len(stale.Items) != 1 || stale.Items[0].Price != 100 {
		t.Fatalf("expected the in-flight read to return the old price, got %+v", stale.Items)
	}
	if store.Len(domain.KindProducts) != 0 {
		t.Fatalf("result fetched before invalidation must not be cached")
	}

	fresh := svc.ListProducts(ctx, 0)
	if len(fresh.Items) != 1 || fresh.Items[0].Price != 200 {
		t.Fatalf("expected price 200 after write, got %+v", fresh.Items)
	}
	if repo.listCalls() != 2 {
		t.Fatalf("expected a second store query, got %d", repo.listCalls())
	}
}

func TestCatalogServiceGetProductBySlug(t *testing.T) {
	repo := &stubProductRepo{products: []domain.Product{
		{ID: "p1", Slug: "twin"},
		{ID: "p2", Slug: "twin"},
		{ID: "p3", Slug: "solo"},
	}}
	svc := newTestCatalog(t, repo, nil, nil, nil)
	ctx := context.Background()

	got := svc.GetProductBySlug(ctx, "twin")
	if !got.OK() || got.Item.ID != "p1" {
		t.Fatalf("expected first match p1, got %+v", got)
	}
	if missing := svc.GetProductBySlug(ctx, "ghost"); missing.Outcome != domain.OutcomeNotFound {
		t.Fatalf("expected not_found, got %s", missing.Outcome)
	}
	if blank := svc.GetProductBySlug(ctx, "  "); blank.Outcome != domain.OutcomeNotFound {
		t.Fatalf("expected not_found for blank slug, got %s", blank.Outcome)
	}

	down := newTestCatalog(t, &stubProductRepo{listErr: errStoreDown}, nil, nil, nil)
	if got := down.GetProductBySlug(ctx, "twin"); got.Outcome != domain.OutcomeUnavailable {
		t.Fatalf("expected unavailable, got %s", got.Outcome)
	}
}

func TestCatalogServiceListProductsByGender(t *testing.T) {
	repo := &stubProductRepo{products: []domain.Product{
		{ID: "w1", Gender: domain.GenderWomen},
		{ID: "m1", Gender: domain.GenderMen},
		{ID: "b1", Gender: domain.GenderBoth},
		{ID: "b1", Gender: domain.GenderBoth},
	}}
	svc := newTestCatalog(t, repo, nil, nil, nil)

	listing := svc.ListProductsByGender(context.Background(), domain.GenderWomen, 0)
	if len(listing.Items) != 2 || listing.Items[0].ID != "w1" || listing.Items[1].ID != "b1" {
		t.Fatalf("expected women plus unisex without duplicates, got %+v", listing.Items)
	}
	query := repo.queries[0]
	if len(query.Genders) != 2 || query.Genders[0] != domain.GenderWomen || query.Genders[1] != domain.GenderBoth {
		t.Fatalf("unexpected gender query %+v", query.Genders)
	}

	both := svc.ListProductsByGender(context.Background(), domain.GenderBoth, 0)
	if len(both.Items) != 1 || both.Items[0].ID != "b1" {
		t.Fatalf("expected only unisex products, got %+v", both.Items)
	}

	unknown := svc.ListProductsByGender(context.Background(), domain.Gender("kids"), 0)
	if unknown.Outcome != domain.OutcomeEmpty {
		t.Fatalf("expected empty listing for unknown gender, got %s", unknown.Outcome)
	}
}

func TestCatalogServiceListProductsByCategoryLowercases(t *testing.T) {
	repo := &stubProductRepo{products: []domain.Product{{ID: "r1", Category: "rings"}}}
	svc := newTestCatalog(t, repo, nil, nil, nil)

	listing := svc.ListProductsByCategory(context.Background(), " Rings ", 0)
	if len(listing.Items) != 1 {
		t.Fatalf("expected case-insensitive category match, got %+v", listing)
	}
	if repo.queries[0].Category != "rings" {
		t.Fatalf("expected lowercased query, got %q", repo.queries[0].Category)
	}
}

func TestCatalogServiceListRelatedProducts(t *testing.T) {
	current := domain.Product{ID: "r2", Slug: "band", Category: "rings"}
	repo := &stubProductRepo{products: []domain.Product{
		{ID: "r1", Category: "rings"},
		current,
		{ID: "r3", Category: "rings"},
		{ID: "r4", Category: "rings"},
		{ID: "r5", Category: "rings"},
		{ID: "e1", Category: "earrings"},
	}}
	svc := newTestCatalog(t, repo, nil, nil, nil)

	listing := svc.ListRelatedProducts(context.Background(), current)
	if len(listing.Items) != 3 {
		t.Fatalf("expected three related products, got %d", len(listing.Items))
	}
	for _, p := range listing.Items {
		if p.ID == current.ID {
			t.Fatalf("related products must exclude the product itself")
		}
		if p.Category != "rings" {
			t.Fatalf("unexpected category %q", p.Category)
		}
	}
	if repo.queries[0].Limit != relatedFetchLimit {
		t.Fatalf("expected fetch limit %d, got %d", relatedFetchLimit, repo.queries[0].Limit)
	}

	lonely := newTestCatalog(t, &stubProductRepo{products: []domain.Product{current}}, nil, nil, nil)
	if got := lonely.ListRelatedProducts(context.Background(), current); got.Outcome != domain.OutcomeEmpty {
		t.Fatalf("expected empty related listing, got %s", got.Outcome)
	}
}

func TestCatalogServiceCollectionsAndBlogs(t *testing.T) {
	collections := &stubCollectionRepo{collections: []domain.Collection{{ID: "c1", Slug: "bridal"}}}
	blogs := &stubBlogRepo{blogs: []domain.Blog{{ID: "b1", Slug: "care-guide", Title: "Care"}}}
	svc := newTestCatalog(t, nil, collections, blogs, nil)
	ctx := context.Background()

	if got := svc.GetCollectionBySlug(ctx, "bridal"); !got.OK() || got.Item.ID != "c1" {
		t.Fatalf("unexpected collection lookup %+v", got)
	}
	if got := svc.GetCollectionBySlug(ctx, "festive"); got.Outcome != domain.OutcomeNotFound {
		t.Fatalf("expected not_found, got %s", got.Outcome)
	}
	if got := svc.GetBlogBySlug(ctx, "care-guide"); !got.OK() || got.Item.Title != "Care" {
		t.Fatalf("unexpected blog lookup %+v", got)
	}
	if got := svc.ListBlogs(ctx); got.Outcome != domain.OutcomeOK || len(got.Items) != 1 {
		t.Fatalf("unexpected blog listing %+v", got)
	}

	down := newTestCatalog(t, nil, &stubCollectionRepo{listErr: errStoreDown}, &stubBlogRepo{listErr: errStoreDown}, nil)
	if got := down.ListCollections(ctx, 0); !got.Unavailable() {
		t.Fatalf("expected unavailable collections, got %s", got.Outcome)
	}
	if got := down.GetBlogBySlug(ctx, "care-guide"); got.Outcome != domain.OutcomeUnavailable {
		t.Fatalf("expected unavailable blog lookup, got %s", got.Outcome)
	}
}

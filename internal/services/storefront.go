package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

const (
	homeProductLimit    = 12
	homeCollectionLimit = 6
	homeAudienceLimit   = 8
)

// HomePage is the landing page aggregate. Each section carries its own outcome.
type HomePage struct {
	Products    domain.Listing[domain.Product]
	Collections domain.Listing[domain.Collection]
	Women       domain.Listing[domain.Product]
	Men         domain.Listing[domain.Product]
	Categories  []domain.CategoryHint
}

// Dashboard is the admin console's full view of every record kind.
type Dashboard struct {
	Products    domain.Listing[domain.Product]
	Collections domain.Listing[domain.Collection]
	Blogs       domain.Listing[domain.Blog]
}

type storefrontService struct {
	catalog CatalogService
}

// NewStorefrontService constructs the page aggregation service.
func NewStorefrontService(catalog CatalogService) (StorefrontService, error) {
	if catalog == nil {
		return nil, errors.New("storefront service: catalog service is required")
	}
	return &storefrontService{catalog: catalog}, nil
}

// Home issues every section query at once and returns when all have settled. Sections
// never fail, so one slow or broken section cannot cancel the others.
func (s *storefrontService) Home(ctx context.Context) HomePage {
	page := HomePage{Categories: append([]domain.CategoryHint(nil), domain.StorefrontCategories...)}

	var g errgroup.Group
	g.Go(func() error {
		page.Products = s.catalog.ListProducts(ctx, homeProductLimit)
		return nil
	})
	g.Go(func() error {
		page.Collections = s.catalog.ListCollections(ctx, homeCollectionLimit)
		return nil
	})
	g.Go(func() error {
		page.Women = s.catalog.ListProductsByGender(ctx, domain.GenderWomen, homeAudienceLimit)
		return nil
	})
	g.Go(func() error {
		page.Men = s.catalog.ListProductsByGender(ctx, domain.GenderMen, homeAudienceLimit)
		return nil
	})
	_ = g.Wait()
	return page
}

// Dashboard fetches all three kinds in full, the wholesale refresh the console runs after every write.
func (s *storefrontService) Dashboard(ctx context.Context) Dashboard {
	var board Dashboard
	var g errgroup.Group
	g.Go(func() error {
		board.Products = s.catalog.ListProducts(ctx, 0)
		return nil
	})
	g.Go(func() error {
		board.Collections = s.catalog.ListCollections(ctx, 0)
		return nil
	})
	g.Go(func() error {
		board.Blogs = s.catalog.ListBlogs(ctx)
		return nil
	})
	_ = g.Wait()
	return board
}

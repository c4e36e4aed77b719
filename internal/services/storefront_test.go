package services

import (
	"context"
	"testing"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

func TestStorefrontHome(t *testing.T) {
	products := &stubProductRepo{products: []domain.Product{
		{ID: "w1", Gender: domain.GenderWomen},
		{ID: "m1", Gender: domain.GenderMen},
		{ID: "b1", Gender: domain.GenderBoth},
	}}
	svc, err := NewStorefrontService(newTestCatalog(t, products, &stubCollectionRepo{listErr: errStoreDown}, nil, nil))
	if err != nil {
		t.Fatalf("NewStorefrontService: %v", err)
	}

	page := svc.Home(context.Background())
	if len(page.Products.Items) != 3 {
		t.Fatalf("expected all products, got %d", len(page.Products.Items))
	}
	if got := ids(page.Women.Items); len(got) != 2 || got[0] != "w1" || got[1] != "b1" {
		t.Fatalf("unexpected women section %v", got)
	}
	if got := ids(page.Men.Items); len(got) != 2 || got[0] != "m1" {
		t.Fatalf("unexpected men section %v", got)
	}
	if !page.Collections.Unavailable() {
		t.Fatalf("a failing section must degrade on its own, got %s", page.Collections.Outcome)
	}
	if len(page.Categories) != len(domain.StorefrontCategories) {
		t.Fatalf("expected fixed category navigation")
	}
}

func TestStorefrontDashboard(t *testing.T) {
	blogs := &stubBlogRepo{blogs: []domain.Blog{{ID: "b1"}}}
	svc, err := NewStorefrontService(newTestCatalog(t, &stubProductRepo{}, nil, blogs, nil))
	if err != nil {
		t.Fatalf("NewStorefrontService: %v", err)
	}

	board := svc.Dashboard(context.Background())
	if board.Products.Outcome != domain.OutcomeEmpty || board.Collections.Outcome != domain.OutcomeEmpty {
		t.Fatalf("unexpected outcomes %s %s", board.Products.Outcome, board.Collections.Outcome)
	}
	if len(board.Blogs.Items) != 1 {
		t.Fatalf("expected one blog, got %d", len(board.Blogs.Items))
	}
}

func TestNewStorefrontServiceRequiresCatalog(t *testing.T) {
	if _, err := NewStorefrontService(nil); err == nil {
		t.Fatalf("expected error")
	}
}

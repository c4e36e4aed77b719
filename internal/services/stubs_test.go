package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/repositories"
)

type stubRepoError struct {
	msg         string
	notFound    bool
	unavailable bool
}

func (e stubRepoError) Error() string       { return e.msg }
func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return false }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

var (
	errStoreDown = stubRepoError{msg: "firestore unavailable", unavailable: true}
	errNoDoc     = stubRepoError{msg: "document missing", notFound: true}
)

type stubProductRepo struct {
	mu       sync.Mutex
	products []domain.Product
	listErr  error
	block    bool
	queries  []repositories.ProductQuery
	created  []domain.Product
	replaced []domain.Product
	deleted  []string
	writeErr error
	nextID   int

	// afterRead runs once results are snapshotted, outside the lock.
	afterRead func()
}

func (r *stubProductRepo) ListProducts(ctx context.Context, q repositories.ProductQuery) ([]domain.Product, error) {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	block, listErr := r.block, r.listErr
	r.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if listErr != nil {
		return nil, listErr
	}
	r.mu.Lock()
	afterRead := r.afterRead
	var out []domain.Product
	for _, p := range r.products {
		if q.Slug != "" && p.Slug != q.Slug {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.CollectionSlug != "" && p.Collection != q.CollectionSlug {
			continue
		}
		if len(q.Genders) > 0 && !containsGender(q.Genders, p.Gender) {
			continue
		}
		out = append(out, p)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	r.mu.Unlock()
	if afterRead != nil {
		afterRead()
	}
	return out, nil
}

func (r *stubProductRepo) GetProduct(_ context.Context, id string) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return domain.Product{}, r.listErr
	}
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, errNoDoc
}

func (r *stubProductRepo) CreateProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return domain.Product{}, r.writeErr
	}
	r.nextID++
	p.ID = fmt.Sprintf("p%d", r.nextID)
	r.created = append(r.created, p)
	r.products = append(r.products, p)
	return p, nil
}

func (r *stubProductRepo) ReplaceProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return domain.Product{}, r.writeErr
	}
	for i := range r.products {
		if r.products[i].ID == p.ID {
			r.products[i] = p
			r.replaced = append(r.replaced, p)
			return p, nil
		}
	}
	return domain.Product{}, errNoDoc
}

func (r *stubProductRepo) DeleteProduct(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return r.writeErr
}

func (r *stubProductRepo) listCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

type stubCollectionRepo struct {
	mu          sync.Mutex
	collections []domain.Collection
	listErr     error
	created     []domain.Collection
	replaced    []domain.Collection
	deleted     []string
	calls       int
}

func (r *stubCollectionRepo) ListCollections(_ context.Context, q repositories.CollectionQuery) ([]domain.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Collection
	for _, c := range r.collections {
		if q.Slug != "" && c.Slug != q.Slug {
			continue
		}
		out = append(out, c)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (r *stubCollectionRepo) GetCollection(_ context.Context, id string) (domain.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.collections {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Collection{}, errNoDoc
}

func (r *stubCollectionRepo) CreateCollection(_ context.Context, c domain.Collection) (domain.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = fmt.Sprintf("c%d", len(r.created)+1)
	r.created = append(r.created, c)
	return c, nil
}

func (r *stubCollectionRepo) ReplaceCollection(_ context.Context, c domain.Collection) (domain.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaced = append(r.replaced, c)
	return c, nil
}

func (r *stubCollectionRepo) DeleteCollection(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

type stubBlogRepo struct {
	mu      sync.Mutex
	blogs   []domain.Blog
	listErr error
	created []domain.Blog
	deleted []string
}

func (r *stubBlogRepo) ListBlogs(_ context.Context, q repositories.BlogQuery) ([]domain.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Blog
	for _, b := range r.blogs {
		if q.Slug != "" && b.Slug != q.Slug {
			continue
		}
		out = append(out, b)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (r *stubBlogRepo) GetBlog(_ context.Context, id string) (domain.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.blogs {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Blog{}, errNoDoc
}

func (r *stubBlogRepo) CreateBlog(_ context.Context, b domain.Blog) (domain.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = fmt.Sprintf("b%d", len(r.created)+1)
	r.created = append(r.created, b)
	return b, nil
}

func (r *stubBlogRepo) ReplaceBlog(_ context.Context, b domain.Blog) (domain.Blog, error) {
	return b, nil
}

func (r *stubBlogRepo) DeleteBlog(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

type stubImageStore struct {
	mu       sync.Mutex
	uploaded []string
	types    []string
	failFor  map[string]bool
}

func (s *stubImageStore) Upload(_ context.Context, objectPath, contentType string, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.failFor {
		if len(objectPath) >= len(name) && objectPath[len(objectPath)-len(name):] == name {
			return errors.New("upload rejected")
		}
	}
	s.uploaded = append(s.uploaded, objectPath)
	s.types = append(s.types, contentType)
	return nil
}

func (s *stubImageStore) URL(objectPath string) string {
	return "https://cdn.test/" + objectPath
}

type stubInvalidator struct {
	mu    sync.Mutex
	kinds []domain.RecordKind
}

func (s *stubInvalidator) Invalidate(_ context.Context, kind domain.RecordKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, kind)
	return nil
}

type stubPublisher struct {
	mu      sync.Mutex
	changes []domain.CatalogChange
	err     error
}

func (s *stubPublisher) PublishCatalogChange(_ context.Context, change domain.CatalogChange) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, change)
	return "msg-1", s.err
}

func containsGender(set []domain.Gender, g domain.Gender) bool {
	for _, candidate := range set {
		if candidate == g {
			return true
		}
	}
	return false
}

func float(v float64) *float64 { return &v }

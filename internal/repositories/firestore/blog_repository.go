package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	pfirestore "github.com/unfazed24072005io/luxe-jewellery/internal/platform/firestore"
	"github.com/unfazed24072005io/luxe-jewellery/internal/repositories"
)

const blogsCollection = string(domain.KindBlogs)

type blogDocument struct {
	Slug      string    `firestore:"slug"`
	Title     string    `firestore:"title"`
	Excerpt   string    `firestore:"excerpt"`
	Content   string    `firestore:"content"`
	Author    string    `firestore:"author"`
	Date      string    `firestore:"date"`
	Image     string    `firestore:"image"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// BlogRepository persists editorial posts.
type BlogRepository struct {
	base *pfirestore.BaseRepository[domain.Blog]
}

var _ repositories.BlogRepository = (*BlogRepository)(nil)

// NewBlogRepository constructs a Firestore-backed blog repository.
func NewBlogRepository(provider *pfirestore.Provider) (*BlogRepository, error) {
	if provider == nil {
		return nil, errors.New("blog repository: firestore provider is required")
	}
	return &BlogRepository{
		base: pfirestore.NewBaseRepository(provider, blogsCollection, encodeBlog, decodeBlog),
	}, nil
}

func (r *BlogRepository) ListBlogs(ctx context.Context, query repositories.BlogQuery) ([]domain.Blog, error) {
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if slug := strings.TrimSpace(query.Slug); slug != "" {
			q = q.Where("slug", "==", slug)
		}
		if query.Limit > 0 {
			q = q.Limit(query.Limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Blog, 0, len(docs))
	for _, doc := range docs {
		blog := doc.Data
		if blog.CreatedAt.IsZero() {
			blog.CreatedAt = doc.CreateTime.UTC()
		}
		if blog.UpdatedAt.IsZero() {
			blog.UpdatedAt = doc.UpdateTime.UTC()
		}
		out = append(out, blog)
	}
	return out, nil
}

func (r *BlogRepository) GetBlog(ctx context.Context, id string) (domain.Blog, error) {
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Blog{}, err
	}
	return doc.Data, nil
}

func (r *BlogRepository) CreateBlog(ctx context.Context, blog domain.Blog) (domain.Blog, error) {
	id, err := r.base.Add(ctx, blog)
	if err != nil {
		return domain.Blog{}, err
	}
	blog.ID = id
	return blog, nil
}

func (r *BlogRepository) ReplaceBlog(ctx context.Context, blog domain.Blog) (domain.Blog, error) {
	if err := r.base.Replace(ctx, blog.ID, blog); err != nil {
		return domain.Blog{}, err
	}
	return blog, nil
}

func (r *BlogRepository) DeleteBlog(ctx context.Context, id string) error {
	return r.base.Delete(ctx, id)
}

func encodeBlog(_ context.Context, b domain.Blog) (any, error) {
	return blogDocument{
		Slug:      strings.TrimSpace(b.Slug),
		Title:     strings.TrimSpace(b.Title),
		Excerpt:   b.Excerpt,
		Content:   b.Content,
		Author:    strings.TrimSpace(b.Author),
		Date:      strings.TrimSpace(b.Date),
		Image:     strings.TrimSpace(b.Image),
		CreatedAt: b.CreatedAt.UTC(),
		UpdatedAt: b.UpdatedAt.UTC(),
	}, nil
}

func decodeBlog(_ context.Context, id string, data map[string]any) (domain.Blog, error) {
	return domain.Blog{
		ID:        id,
		Slug:      stringField(data, "slug"),
		Title:     stringField(data, "title"),
		Excerpt:   stringField(data, "excerpt"),
		Content:   stringField(data, "content"),
		Author:    stringField(data, "author"),
		Date:      stringField(data, "date"),
		Image:     stringField(data, "image"),
		CreatedAt: timeField(data, "createdAt"),
		UpdatedAt: timeField(data, "updatedAt"),
	}, nil
}

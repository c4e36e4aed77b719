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

const collectionsCollection = string(domain.KindCollections)

type collectionDocument struct {
	Slug        string    `firestore:"slug"`
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	Style       string    `firestore:"style"`
	Gender      string    `firestore:"gender"`
	Image       string    `firestore:"image"`
	Images      []string  `firestore:"images"`
	Products    []string  `firestore:"products"`
	Featured    bool      `firestore:"featured"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// CollectionRepository persists merchandising collections.
type CollectionRepository struct {
	base *pfirestore.BaseRepository[domain.Collection]
}

var _ repositories.CollectionRepository = (*CollectionRepository)(nil)

// NewCollectionRepository constructs a Firestore-backed collection repository.
func NewCollectionRepository(provider *pfirestore.Provider) (*CollectionRepository, error) {
	if provider == nil {
		return nil, errors.New("collection repository: firestore provider is required")
	}
	return &CollectionRepository{
		base: pfirestore.NewBaseRepository(provider, collectionsCollection, encodeCollection, decodeCollection),
	}, nil
}

func (r *CollectionRepository) ListCollections(ctx context.Context, query repositories.CollectionQuery) ([]domain.Collection, error) {
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
	out := make([]domain.Collection, 0, len(docs))
	for _, doc := range docs {
		out = append(out, withCollectionTimes(doc))
	}
	return out, nil
}

func (r *CollectionRepository) GetCollection(ctx context.Context, id string) (domain.Collection, error) {
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Collection{}, err
	}
	return withCollectionTimes(doc), nil
}

func (r *CollectionRepository) CreateCollection(ctx context.Context, collection domain.Collection) (domain.Collection, error) {
	id, err := r.base.Add(ctx, collection)
	if err != nil {
		return domain.Collection{}, err
	}
	collection.ID = id
	return collection, nil
}

func (r *CollectionRepository) ReplaceCollection(ctx context.Context, collection domain.Collection) (domain.Collection, error) {
	if err := r.base.Replace(ctx, collection.ID, collection); err != nil {
		return domain.Collection{}, err
	}
	return collection, nil
}

func (r *CollectionRepository) DeleteCollection(ctx context.Context, id string) error {
	return r.base.Delete(ctx, id)
}

func withCollectionTimes(doc pfirestore.Document[domain.Collection]) domain.Collection {
	collection := doc.Data
	if collection.CreatedAt.IsZero() {
		collection.CreatedAt = doc.CreateTime.UTC()
	}
	if collection.UpdatedAt.IsZero() {
		collection.UpdatedAt = doc.UpdateTime.UTC()
	}
	return collection
}

func encodeCollection(_ context.Context, c domain.Collection) (any, error) {
	return collectionDocument{
		Slug:        strings.TrimSpace(c.Slug),
		Name:        strings.TrimSpace(c.Name),
		Description: c.Description,
		Style:       strings.TrimSpace(c.Style),
		Gender:      string(c.Gender),
		Image:       strings.TrimSpace(c.Image),
		Images:      nonNilStrings(c.Images),
		Products:    nonNilStrings(c.Products),
		Featured:    c.Featured,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}, nil
}

func decodeCollection(_ context.Context, id string, data map[string]any) (domain.Collection, error) {
	collection := domain.Collection{
		ID:          id,
		Slug:        stringField(data, "slug"),
		Name:        stringField(data, "name"),
		Description: stringField(data, "description"),
		Style:       stringField(data, "style"),
		Gender:      genderField(data, "gender"),
		Image:       stringField(data, "image"),
		Images:      stringsField(data, "images"),
		Products:    stringsField(data, "products"),
		Featured:    boolField(data, "featured"),
		CreatedAt:   timeField(data, "createdAt"),
		UpdatedAt:   timeField(data, "updatedAt"),
	}
	if collection.Image == "" && len(collection.Images) > 0 {
		collection.Image = collection.Images[0]
	}
	return collection, nil
}

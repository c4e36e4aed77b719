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

const productsCollection = string(domain.KindProducts)

type productDocument struct {
	Slug             string    `firestore:"slug"`
	Name             string    `firestore:"name"`
	Description      string    `firestore:"description"`
	Category         string    `firestore:"category"`
	Material         string    `firestore:"material"`
	Style            string    `firestore:"style"`
	Stones           string    `firestore:"stones"`
	CareInstructions string    `firestore:"careInstructions"`
	Weight           float64   `firestore:"weight"`
	SKU              string    `firestore:"sku"`
	Price            float64   `firestore:"price"`
	OriginalPrice    *float64  `firestore:"originalPrice,omitempty"`
	Gender           string    `firestore:"gender"`
	Collection       string    `firestore:"collection"`
	Images           []string  `firestore:"images"`
	Image            string    `firestore:"image,omitempty"`
	Featured         bool      `firestore:"featured"`
	InStock          bool      `firestore:"inStock"`
	CreatedAt        time.Time `firestore:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt"`
}

// ProductRepository persists products in the top-level products collection.
type ProductRepository struct {
	base *pfirestore.BaseRepository[domain.Product]
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository: firestore provider is required")
	}
	return &ProductRepository{
		base: pfirestore.NewBaseRepository(provider, productsCollection, encodeProduct, decodeProduct),
	}, nil
}

// ListProducts runs query in store default order.
func (r *ProductRepository) ListProducts(ctx context.Context, query repositories.ProductQuery) ([]domain.Product, error) {
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if slug := strings.TrimSpace(query.Slug); slug != "" {
			q = q.Where("slug", "==", slug)
		}
		if category := strings.ToLower(strings.TrimSpace(query.Category)); category != "" {
			q = q.Where("category", "==", category)
		}
		switch genders := genderValues(query.Genders); len(genders) {
		case 0:
		case 1:
			q = q.Where("gender", "==", genders[0])
		default:
			q = q.Where("gender", "in", genders)
		}
		if slug := strings.TrimSpace(query.CollectionSlug); slug != "" {
			q = q.Where("collection", "==", slug)
		}
		if query.Limit > 0 {
			q = q.Limit(query.Limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		out = append(out, withProductTimes(doc))
	}
	return out, nil
}

// GetProduct fetches a product by document ID.
func (r *ProductRepository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return withProductTimes(doc), nil
}

// CreateProduct writes a new product under a store-assigned ID.
func (r *ProductRepository) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	id, err := r.base.Add(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = id
	return product, nil
}

// ReplaceProduct overwrites the stored product. Fields absent from product are removed.
func (r *ProductRepository) ReplaceProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := r.base.Replace(ctx, product.ID, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// DeleteProduct removes a product.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) error {
	return r.base.Delete(ctx, id)
}

// BackfillGender writes an explicit lowercase gender on products stored without one or with a
// non-canonical value. Such products read as "both" but audience listings cannot match them
// until the field is stored. It returns the rewritten product IDs.
func (r *ProductRepository) BackfillGender(ctx context.Context) ([]string, error) {
	return r.base.Backfill(ctx, "gender", canonicalGender)
}

func withProductTimes(doc pfirestore.Document[domain.Product]) domain.Product {
	product := doc.Data
	if product.CreatedAt.IsZero() {
		product.CreatedAt = doc.CreateTime.UTC()
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = doc.UpdateTime.UTC()
	}
	return product
}

func encodeProduct(_ context.Context, p domain.Product) (any, error) {
	return productDocument{
		Slug:             strings.TrimSpace(p.Slug),
		Name:             strings.TrimSpace(p.Name),
		Description:      p.Description,
		Category:         strings.ToLower(strings.TrimSpace(p.Category)),
		Material:         strings.TrimSpace(p.Material),
		Style:            strings.TrimSpace(p.Style),
		Stones:           strings.TrimSpace(p.Stones),
		CareInstructions: p.CareInstructions,
		Weight:           p.Weight,
		SKU:              strings.TrimSpace(p.SKU),
		Price:            p.Price,
		OriginalPrice:    p.OriginalPrice,
		Gender:           string(p.Gender),
		Collection:       strings.TrimSpace(p.Collection),
		Images:           nonNilStrings(p.Images),
		Image:            strings.TrimSpace(p.Image),
		Featured:         p.Featured,
		InStock:          p.InStock,
		CreatedAt:        p.CreatedAt.UTC(),
		UpdatedAt:        p.UpdatedAt.UTC(),
	}, nil
}

func decodeProduct(_ context.Context, id string, data map[string]any) (domain.Product, error) {
	return domain.Product{
		ID:               id,
		Slug:             stringField(data, "slug"),
		Name:             stringField(data, "name"),
		Description:      stringField(data, "description"),
		Category:         stringField(data, "category"),
		Material:         stringField(data, "material"),
		Style:            stringField(data, "style"),
		Stones:           stringField(data, "stones"),
		CareInstructions: stringField(data, "careInstructions"),
		Weight:           amountField(data, "weight"),
		SKU:              stringField(data, "sku"),
		Price:            amountField(data, "price"),
		OriginalPrice:    optionalAmountField(data, "originalPrice"),
		Gender:           genderField(data, "gender"),
		Collection:       stringField(data, "collection"),
		Images:           stringsField(data, "images"),
		Image:            stringField(data, "image"),
		Featured:         boolField(data, "featured"),
		InStock:          boolField(data, "inStock"),
		CreatedAt:        timeField(data, "createdAt"),
		UpdatedAt:        timeField(data, "updatedAt"),
	}, nil
}

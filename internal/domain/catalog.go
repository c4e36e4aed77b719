package domain

import (
	"strings"
	"time"
)

// Gender identifies the audience a product or collection is merchandised for.
type Gender string

const (
	GenderMen   Gender = "men"
	GenderWomen Gender = "women"
	GenderBoth  Gender = "both"
)

// ParseGender normalises raw input into a known Gender.
func ParseGender(raw string) (Gender, bool) {
	switch Gender(strings.ToLower(strings.TrimSpace(raw))) {
	case GenderMen:
		return GenderMen, true
	case GenderWomen:
		return GenderWomen, true
	case GenderBoth:
		return GenderBoth, true
	default:
		return "", false
	}
}

// RecordKind names one of the three record stores. The value doubles as the Firestore collection name.
type RecordKind string

const (
	KindProducts    RecordKind = "products"
	KindCollections RecordKind = "collections"
	KindBlogs       RecordKind = "blogs"
)

// RecordKinds lists every kind in dashboard order.
var RecordKinds = []RecordKind{KindProducts, KindCollections, KindBlogs}

// ParseRecordKind accepts both singular and plural spellings.
func ParseRecordKind(raw string) (RecordKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "products", "product":
		return KindProducts, true
	case "collections", "collection":
		return KindCollections, true
	case "blogs", "blog":
		return KindBlogs, true
	default:
		return "", false
	}
}

// Product is a single jewellery item in the catalog.
type Product struct {
	ID               string
	Slug             string
	Name             string
	Description      string
	Category         string
	Material         string
	Style            string
	Stones           string
	CareInstructions string
	Weight           float64
	SKU              string
	Price            float64
	OriginalPrice    *float64
	Gender           Gender
	Collection       string
	Images           []string
	// Image is the single cover URL carried by records created before Images existed.
	Image     string
	Featured  bool
	InStock   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CoverImage returns the canonical image, falling back to the legacy single image field.
func (p Product) CoverImage() string {
	for _, img := range p.Images {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			return trimmed
		}
	}
	return strings.TrimSpace(p.Image)
}

// DiscountPercent reports the whole-number markdown against OriginalPrice, or 0 when not discounted.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= 0 || *p.OriginalPrice <= p.Price {
		return 0
	}
	return int((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100)
}

// Collection groups products under a merchandising theme.
type Collection struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Style       string
	Gender      Gender
	// Image is the cover. It always equals Images[0] once the record has been saved through the gateway.
	Image  string
	Images []string
	// Products is the forward membership list written by the admin console. Reads resolve
	// membership through Product.Collection instead.
	Products  []string
	Featured  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Blog is an editorial article.
type Blog struct {
	ID      string
	Slug    string
	Title   string
	Excerpt string
	Content string
	Author  string
	// Date is free text as entered by editors.
	Date      string
	Image     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryHint describes a storefront category tile and the audience it links to.
type CategoryHint struct {
	Name   string
	Slug   string
	Gender Gender
}

// StorefrontCategories is the fixed category navigation shown on the home page.
var StorefrontCategories = []CategoryHint{
	{Name: "Earrings", Slug: "earrings", Gender: GenderWomen},
	{Name: "Pendants", Slug: "pendants", Gender: GenderBoth},
	{Name: "Bracelets", Slug: "bracelets", Gender: GenderBoth},
	{Name: "Rings", Slug: "rings", Gender: GenderBoth},
	{Name: "Chains", Slug: "chains", Gender: GenderMen},
	{Name: "Charms", Slug: "charms", Gender: GenderBoth},
	{Name: "Studs", Slug: "studs", Gender: GenderMen},
}

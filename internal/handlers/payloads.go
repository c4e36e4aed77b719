package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/textutil"
)

const (
	messageUnavailable     = "The catalog is temporarily unavailable. Please try again shortly."
	messageNoFilterMatches = "No products match your filters."
	messageEmptyCollection = "No products in this collection yet. Browse all products in the meantime."
)

type productPayload struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category,omitempty"`
	Material         string   `json:"material,omitempty"`
	Style            string   `json:"style,omitempty"`
	Stones           string   `json:"stones,omitempty"`
	CareInstructions string   `json:"careInstructions,omitempty"`
	Weight           float64  `json:"weight,omitempty"`
	SKU              string   `json:"sku,omitempty"`
	Price            float64  `json:"price"`
	PriceDisplay     string   `json:"priceDisplay"`
	OriginalPrice    *float64 `json:"originalPrice,omitempty"`
	OriginalDisplay  string   `json:"originalPriceDisplay,omitempty"`
	DiscountPercent  int      `json:"discountPercent,omitempty"`
	Gender           string   `json:"gender"`
	Collection       string   `json:"collection,omitempty"`
	Images           []string `json:"images"`
	CoverImage       string   `json:"coverImage,omitempty"`
	Featured         bool     `json:"featured"`
	InStock          bool     `json:"inStock"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`
}

type collectionPayload struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Style       string   `json:"style,omitempty"`
	Gender      string   `json:"gender"`
	Image       string   `json:"image,omitempty"`
	Images      []string `json:"images"`
	Products    []string `json:"products"`
	Featured    bool     `json:"featured"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

type blogPayload struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt,omitempty"`
	Content   string `json:"content,omitempty"`
	HTML      string `json:"html,omitempty"`
	Author    string `json:"author,omitempty"`
	Date      string `json:"date,omitempty"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type categoryPayload struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Gender string `json:"gender"`
}

type productListResponse struct {
	State    string           `json:"state"`
	Message  string           `json:"message,omitempty"`
	Products []productPayload `json:"products"`
	Total    int              `json:"total"`
	Filters  filtersPayload   `json:"filters"`
}

type filtersPayload struct {
	Category   string   `json:"category,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	Categories []string `json:"categories"`
	Materials  []string `json:"materials"`
	MaxPrice   *float64 `json:"maxPrice"`
}

type productDetailResponse struct {
	State   string           `json:"state"`
	Message string           `json:"message,omitempty"`
	Product *productPayload  `json:"product"`
	Related []productPayload `json:"related"`
}

type productSection struct {
	State    string           `json:"state"`
	Products []productPayload `json:"products"`
}

type collectionSection struct {
	State       string              `json:"state"`
	Collections []collectionPayload `json:"collections"`
}

type blogSection struct {
	State string        `json:"state"`
	Blogs []blogPayload `json:"blogs"`
}

type homeResponse struct {
	Featured    productSection    `json:"featured"`
	Collections collectionSection `json:"collections"`
	Women       productSection    `json:"women"`
	Men         productSection    `json:"men"`
	Categories  []categoryPayload `json:"categories"`
}

type collectionDetailResponse struct {
	State      string             `json:"state"`
	Message    string             `json:"message,omitempty"`
	Collection *collectionPayload `json:"collection"`
	Members    productSection     `json:"members"`
}

type blogDetailResponse struct {
	State   string       `json:"state"`
	Message string       `json:"message,omitempty"`
	Blog    *blogPayload `json:"blog"`
}

type dashboardResponse struct {
	Products    productSection    `json:"products"`
	Collections collectionSection `json:"collections"`
	Blogs       blogSection       `json:"blogs"`
}

func newProductPayload(p domain.Product) productPayload {
	images := p.Images
	if len(images) == 0 && p.Image != "" {
		images = []string{p.Image}
	}
	payload := productPayload{
		ID:               p.ID,
		Slug:             p.Slug,
		Name:             p.Name,
		Description:      p.Description,
		Category:         p.Category,
		Material:         p.Material,
		Style:            p.Style,
		Stones:           p.Stones,
		CareInstructions: p.CareInstructions,
		Weight:           textutil.SafeAmount(p.Weight),
		SKU:              p.SKU,
		Price:            textutil.SafeAmount(p.Price),
		PriceDisplay:     textutil.FormatINR(p.Price),
		DiscountPercent:  p.DiscountPercent(),
		Gender:           string(p.Gender),
		Collection:       p.Collection,
		Images:           copyStrings(images),
		CoverImage:       p.CoverImage(),
		Featured:         p.Featured,
		InStock:          p.InStock,
		CreatedAt:        formatTimestamp(p.CreatedAt),
		UpdatedAt:        formatTimestamp(p.UpdatedAt),
	}
	if p.OriginalPrice != nil {
		original := textutil.SafeAmount(*p.OriginalPrice)
		payload.OriginalPrice = &original
		payload.OriginalDisplay = textutil.FormatINR(original)
	}
	return payload
}

func newProductPayloads(products []domain.Product) []productPayload {
	out := make([]productPayload, 0, len(products))
	for _, p := range products {
		out = append(out, newProductPayload(p))
	}
	return out
}

func newProductSection(listing domain.Listing[domain.Product]) productSection {
	return productSection{State: string(listing.Outcome), Products: newProductPayloads(listing.Items)}
}

func newCollectionPayload(c domain.Collection) collectionPayload {
	return collectionPayload{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		Style:       c.Style,
		Gender:      string(c.Gender),
		Image:       c.Image,
		Images:      copyStrings(c.Images),
		Products:    copyStrings(c.Products),
		Featured:    c.Featured,
		CreatedAt:   formatTimestamp(c.CreatedAt),
		UpdatedAt:   formatTimestamp(c.UpdatedAt),
	}
}

func newCollectionSection(listing domain.Listing[domain.Collection]) collectionSection {
	out := make([]collectionPayload, 0, len(listing.Items))
	for _, c := range listing.Items {
		out = append(out, newCollectionPayload(c))
	}
	return collectionSection{State: string(listing.Outcome), Collections: out}
}

func newBlogPayload(b domain.Blog) blogPayload {
	return blogPayload{
		ID:        b.ID,
		Slug:      b.Slug,
		Title:     b.Title,
		Excerpt:   b.Excerpt,
		Content:   b.Content,
		Author:    b.Author,
		Date:      b.Date,
		Image:     b.Image,
		CreatedAt: formatTimestamp(b.CreatedAt),
		UpdatedAt: formatTimestamp(b.UpdatedAt),
	}
}

// newBlogSection builds a blog listing. Storefront listings drop the body and keep the teaser.
func newBlogSection(listing domain.Listing[domain.Blog], withContent bool) blogSection {
	out := make([]blogPayload, 0, len(listing.Items))
	for _, b := range listing.Items {
		payload := newBlogPayload(b)
		if !withContent {
			payload.Content = ""
		}
		out = append(out, payload)
	}
	return blogSection{State: string(listing.Outcome), Blogs: out}
}

func newCategoryPayloads(hints []domain.CategoryHint) []categoryPayload {
	out := make([]categoryPayload, 0, len(hints))
	for _, hint := range hints {
		out = append(out, categoryPayload{Name: hint.Name, Slug: hint.Slug, Gender: string(hint.Gender)})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

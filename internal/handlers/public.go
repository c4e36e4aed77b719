package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/httpx"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/requestctx"
	"github.com/unfazed24072005io/luxe-jewellery/internal/services"
)

const (
	defaultPriceCeiling = 100000
	maxListLimit        = 500
	publicCacheControl  = "public, max-age=60"
)

// PublicHandlers exposes the unauthenticated storefront reads.
type PublicHandlers struct {
	catalog      services.CatalogService
	membership   services.MembershipResolver
	storefront   services.StorefrontService
	renderer     services.BlogRenderer
	priceCeiling float64
}

// PublicOption customises construction of PublicHandlers.
type PublicOption func(*PublicHandlers)

// WithPublicCatalogService injects the catalog read service.
func WithPublicCatalogService(svc services.CatalogService) PublicOption {
	return func(h *PublicHandlers) {
		h.catalog = svc
	}
}

// WithPublicMembershipResolver injects the collection membership resolver.
func WithPublicMembershipResolver(resolver services.MembershipResolver) PublicOption {
	return func(h *PublicHandlers) {
		h.membership = resolver
	}
}

// WithPublicStorefrontService injects the home page aggregator.
func WithPublicStorefrontService(svc services.StorefrontService) PublicOption {
	return func(h *PublicHandlers) {
		h.storefront = svc
	}
}

// WithPublicBlogRenderer injects the Markdown renderer for blog bodies.
func WithPublicBlogRenderer(renderer services.BlogRenderer) PublicOption {
	return func(h *PublicHandlers) {
		h.renderer = renderer
	}
}

// WithPublicPriceCeiling sets the price ceiling applied when a listing request names none.
func WithPublicPriceCeiling(ceiling float64) PublicOption {
	return func(h *PublicHandlers) {
		if ceiling > 0 && !math.IsNaN(ceiling) {
			h.priceCeiling = ceiling
		}
	}
}

// NewPublicHandlers constructs the storefront read handlers.
func NewPublicHandlers(opts ...PublicOption) *PublicHandlers {
	h := &PublicHandlers{priceCeiling: defaultPriceCeiling}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the storefront endpoints.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/home", h.home)
	r.Get("/products", h.listProducts)
	r.Get("/products/{slug}", h.getProduct)
	r.Get("/collections", h.listCollections)
	r.Get("/collections/{slug}", h.getCollection)
	r.Get("/blogs", h.listBlogs)
	r.Get("/blogs/{slug}", h.getBlog)
}

func (h *PublicHandlers) home(w http.ResponseWriter, r *http.Request) {
	if h.storefront == nil {
		writeServiceMissing(w, r)
		return
	}
	page := h.storefront.Home(r.Context())
	w.Header().Set("Cache-Control", publicCacheControl)
	writeJSON(w, http.StatusOK, homeResponse{
		Featured:    newProductSection(page.Products),
		Collections: newCollectionSection(page.Collections),
		Women:       newProductSection(page.Women),
		Men:         newProductSection(page.Men),
		Categories:  newCategoryPayloads(page.Categories),
	})
}

func (h *PublicHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeServiceMissing(w, r)
		return
	}
	ctx := r.Context()
	query := r.URL.Query()

	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	ceiling, err := parsePriceCeiling(query.Get("maxPrice"), h.priceCeiling)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	category := strings.TrimSpace(query.Get("category"))
	rawGender := strings.TrimSpace(query.Get("gender"))
	selection := services.NewFilterSelection(ceiling).
		WithCategories(splitList(query["categories"])...).
		WithMaterials(splitList(query["materials"])...)

	var listing domain.Listing[domain.Product]
	switch {
	case rawGender != "":
		gender, ok := domain.ParseGender(rawGender)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_gender", "gender must be one of men, women or both", http.StatusBadRequest))
			return
		}
		listing = h.catalog.ListProductsByGender(ctx, gender, limit)
		if category != "" {
			// the store query takes one equality facet; the rest narrows in memory
			selection = selection.WithCategories(category)
		}
	case category != "":
		listing = h.catalog.ListProductsByCategory(ctx, category, limit)
	default:
		listing = h.catalog.ListProducts(ctx, limit)
	}

	response := productListResponse{
		State:    string(listing.Outcome),
		Products: []productPayload{},
		Filters: filtersPayload{
			Category:   category,
			Gender:     rawGender,
			Categories: selection.Categories(),
			Materials:  selection.Materials(),
		},
	}
	if !math.IsInf(ceiling, 1) {
		response.Filters.MaxPrice = &ceiling
	}
	if listing.Unavailable() {
		response.Message = messageUnavailable
		writeJSON(w, http.StatusOK, response)
		return
	}

	matches := services.ApplyFilter(listing.Items, selection)
	response.Products = newProductPayloads(matches)
	response.Total = len(matches)
	if len(matches) == 0 {
		response.State = string(domain.OutcomeEmpty)
		response.Message = messageNoFilterMatches
	} else {
		response.State = string(domain.OutcomeOK)
	}
	w.Header().Set("Cache-Control", publicCacheControl)
	writeJSON(w, http.StatusOK, response)
}

func (h *PublicHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeServiceMissing(w, r)
		return
	}
	ctx := r.Context()
	lookup := h.catalog.GetProductBySlug(ctx, chi.URLParam(r, "slug"))
	switch lookup.Outcome {
	case domain.OutcomeNotFound:
		writeNotFound(w, r, "product_not_found", "Product not found", "/products")
		return
	case domain.OutcomeUnavailable:
		writeJSON(w, http.StatusOK, productDetailResponse{
			State:   string(domain.OutcomeUnavailable),
			Message: messageUnavailable,
			Related: []productPayload{},
		})
		return
	}

	product := newProductPayload(lookup.Item)
	related := h.catalog.ListRelatedProducts(ctx, lookup.Item)
	w.Header().Set("Cache-Control", publicCacheControl)
	writeJSON(w, http.StatusOK, productDetailResponse{
		State:   string(domain.OutcomeOK),
		Product: &product,
		Related: newProductPayloads(related.Items),
	})
}

func (h *PublicHandlers) listCollections(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeServiceMissing(w, r)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	section := newCollectionSection(h.catalog.ListCollections(r.Context(), limit))
	writeJSON(w, http.StatusOK, section)
}

func (h *PublicHandlers) getCollection(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil || h.membership == nil {
		writeServiceMissing(w, r)
		return
	}
	ctx := r.Context()
	lookup := h.catalog.GetCollectionBySlug(ctx, chi.URLParam(r, "slug"))
	switch lookup.Outcome {
	case domain.OutcomeNotFound:
		writeNotFound(w, r, "collection_not_found", "Collection not found", "/collections")
		return
	case domain.OutcomeUnavailable:
		writeJSON(w, http.StatusOK, collectionDetailResponse{
			State:   string(domain.OutcomeUnavailable),
			Message: messageUnavailable,
			Members: productSection{State: string(domain.OutcomeUnavailable), Products: []productPayload{}},
		})
		return
	}

	collection := newCollectionPayload(lookup.Item)
	members := h.membership.Resolve(ctx, lookup.Item.Slug)
	response := collectionDetailResponse{
		State:      string(members.Outcome),
		Collection: &collection,
		Members:    newProductSection(members),
	}
	switch members.Outcome {
	case domain.OutcomeEmpty:
		response.Message = messageEmptyCollection
	case domain.OutcomeUnavailable:
		response.Message = messageUnavailable
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *PublicHandlers) listBlogs(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeServiceMissing(w, r)
		return
	}
	writeJSON(w, http.StatusOK, newBlogSection(h.catalog.ListBlogs(r.Context()), false))
}

func (h *PublicHandlers) getBlog(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeServiceMissing(w, r)
		return
	}
	ctx := r.Context()
	lookup := h.catalog.GetBlogBySlug(ctx, chi.URLParam(r, "slug"))
	switch lookup.Outcome {
	case domain.OutcomeNotFound:
		writeNotFound(w, r, "blog_not_found", "Blog post not found", "/blogs")
		return
	case domain.OutcomeUnavailable:
		writeJSON(w, http.StatusOK, blogDetailResponse{State: string(domain.OutcomeUnavailable), Message: messageUnavailable})
		return
	}

	blog := newBlogPayload(lookup.Item)
	if h.renderer != nil && strings.TrimSpace(lookup.Item.Content) != "" {
		html, err := h.renderer.Render(lookup.Item.Content)
		if err != nil {
			requestctx.Logger(ctx).Warn("blog render failed", zap.String("slug", lookup.Item.Slug), zap.Error(err))
		} else {
			blog.HTML = html
		}
	}
	writeJSON(w, http.StatusOK, blogDetailResponse{State: string(domain.OutcomeOK), Blog: &blog})
}

func writeServiceMissing(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
}

// writeNotFound renders the not-found state together with the page to return to.
func writeNotFound(w http.ResponseWriter, r *http.Request, code, message, back string) {
	httpx.WriteError(r.Context(), w, httpx.NewError(code, message, http.StatusNotFound).WithDetails(map[string]any{
		"state": string(domain.OutcomeNotFound),
		"back":  back,
	}))
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	if value > maxListLimit {
		value = maxListLimit
	}
	return value, nil
}

func parsePriceCeiling(raw string, fallback float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	if strings.EqualFold(raw, "none") {
		return services.NoPriceCeiling, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || value < 0 {
		return 0, fmt.Errorf("maxPrice must be a non-negative number")
	}
	return value, nil
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

package services

import (
	"math"
	"sort"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/textutil"
)

// NoPriceCeiling disables the price facet.
var NoPriceCeiling = math.Inf(1)

// FilterSelection is the facet state of a product listing page. Empty facet sets do not
// restrict results. Values are immutable: toggles return a new selection.
type FilterSelection struct {
	categories   map[string]struct{}
	materials    map[string]struct{}
	PriceCeiling float64
}

// NewFilterSelection returns a selection with no category or material restriction.
func NewFilterSelection(priceCeiling float64) FilterSelection {
	if math.IsNaN(priceCeiling) {
		priceCeiling = NoPriceCeiling
	}
	return FilterSelection{PriceCeiling: priceCeiling}
}

// WithCategories returns a copy with values added to the category facet.
func (s FilterSelection) WithCategories(values ...string) FilterSelection {
	s.categories = addFacets(s.categories, values)
	return s
}

// WithMaterials returns a copy with values added to the material facet.
func (s FilterSelection) WithMaterials(values ...string) FilterSelection {
	s.materials = addFacets(s.materials, values)
	return s
}

// ToggleCategory adds value when absent and removes it when present.
func (s FilterSelection) ToggleCategory(value string) FilterSelection {
	s.categories = ToggleFacet(s.categories, value)
	return s
}

// ToggleMaterial adds value when absent and removes it when present.
func (s FilterSelection) ToggleMaterial(value string) FilterSelection {
	s.materials = ToggleFacet(s.materials, value)
	return s
}

// Categories lists the selected categories in sorted order.
func (s FilterSelection) Categories() []string { return sortedFacets(s.categories) }

// Materials lists the selected materials in sorted order.
func (s FilterSelection) Materials() []string { return sortedFacets(s.materials) }

// Matches reports whether p passes every facet.
func (s FilterSelection) Matches(p domain.Product) bool {
	if len(s.categories) > 0 {
		if _, ok := s.categories[textutil.NormalizeFacet(p.Category)]; !ok {
			return false
		}
	}
	if len(s.materials) > 0 {
		if _, ok := s.materials[textutil.NormalizeFacet(p.Material)]; !ok {
			return false
		}
	}
	ceiling := s.PriceCeiling
	if math.IsNaN(ceiling) {
		ceiling = NoPriceCeiling
	}
	return textutil.SafeAmount(p.Price) <= ceiling
}

// ApplyFilter returns the products passing selection, in input order. products is not modified.
func ApplyFilter(products []domain.Product, selection FilterSelection) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if selection.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// ToggleFacet returns a copy of set with value's membership flipped. Values are compared
// case-insensitively; blank values leave the set unchanged.
func ToggleFacet(set map[string]struct{}, value string) map[string]struct{} {
	out := make(map[string]struct{}, len(set)+1)
	for k := range set {
		out[k] = struct{}{}
	}
	value = textutil.NormalizeFacet(value)
	if value == "" {
		return out
	}
	if _, ok := out[value]; ok {
		delete(out, value)
	} else {
		out[value] = struct{}{}
	}
	return out
}

func addFacets(set map[string]struct{}, values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(set)+len(values))
	for k := range set {
		out[k] = struct{}{}
	}
	for _, v := range values {
		if v = textutil.NormalizeFacet(v); v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

func sortedFacets(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

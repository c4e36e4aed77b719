package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/textutil"
)

var (
	// ErrInvalidRecord marks input rejected before any I/O.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrCollectionImageRequired rejects a collection without any cover image.
	ErrCollectionImageRequired = fmt.Errorf("%w: collection requires a cover image", ErrInvalidRecord)
	// ErrRecordNotFound signals an update or delete of a missing record.
	ErrRecordNotFound = errors.New("record not found")
	// ErrStoreUnavailable signals that the record store could not be reached.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// ValidationError lists failing fields by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid record: %s", strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

// Amount is a numeric form field accepted as a JSON number or as text such as "1,299.50".
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount must be a number or numeric string: %w", err)
		}
		*a = Amount(n)
	}
	return nil
}

// ProductInput carries the product form.
type ProductInput struct {
	Name             string   `json:"name" yaml:"name" validate:"required"`
	Slug             string   `json:"slug" yaml:"slug" validate:"required,excludesall=/?#"`
	Price            Amount   `json:"price" yaml:"price" validate:"required"`
	OriginalPrice    Amount   `json:"originalPrice" yaml:"originalPrice"`
	Weight           Amount   `json:"weight" yaml:"weight"`
	Description      string   `json:"description" yaml:"description"`
	Category         string   `json:"category" yaml:"category"`
	Material         string   `json:"material" yaml:"material"`
	Style            string   `json:"style" yaml:"style"`
	Stones           string   `json:"stones" yaml:"stones"`
	CareInstructions string   `json:"careInstructions" yaml:"careInstructions"`
	SKU              string   `json:"sku" yaml:"sku"`
	Gender           string   `json:"gender" yaml:"gender" validate:"omitempty,oneof=men women both"`
	Collection       string   `json:"collection" yaml:"collection"`
	Images           []string `json:"images" yaml:"images" validate:"dive,url"`
	Featured         bool     `json:"featured" yaml:"featured"`
	InStock          bool     `json:"inStock" yaml:"inStock"`
}

// CollectionInput carries the collection form.
type CollectionInput struct {
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Slug        string   `json:"slug" yaml:"slug" validate:"required,excludesall=/?#"`
	Description string   `json:"description" yaml:"description"`
	Style       string   `json:"style" yaml:"style"`
	Gender      string   `json:"gender" yaml:"gender" validate:"omitempty,oneof=men women both"`
	Images      []string `json:"images" yaml:"images" validate:"dive,url"`
	Products    []string `json:"products" yaml:"products"`
	Featured    bool     `json:"featured" yaml:"featured"`
}

// BlogInput carries the blog form.
type BlogInput struct {
	Title   string `json:"title" yaml:"title" validate:"required"`
	Slug    string `json:"slug" yaml:"slug" validate:"required,excludesall=/?#"`
	Excerpt string `json:"excerpt" yaml:"excerpt"`
	Content string `json:"content" yaml:"content"`
	Author  string `json:"author" yaml:"author"`
	Date    string `json:"date" yaml:"date"`
	Image   string `json:"image" yaml:"image" validate:"omitempty,url"`
}

// ImageUpload is a pending local file attached to a product or collection submission.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UploadWarning reports an image that was skipped while the record write went ahead.
type UploadWarning struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// UpsertCommand is a create or update request. Exactly the input matching Kind must be set.
type UpsertCommand struct {
	Kind       domain.RecordKind
	Product    *ProductInput
	Collection *CollectionInput
	Blog       *BlogInput
	Uploads    []ImageUpload
	Actor      string
}

// UpsertResult describes a committed write.
type UpsertResult struct {
	Kind     domain.RecordKind
	ID       string
	Slug     string
	Images   []string
	Warnings []UploadWarning
}

// DeleteCommand removes a record.
type DeleteCommand struct {
	Kind  domain.RecordKind
	ID    string
	Actor string
}

func newRecordValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateInput runs struct tags and returns a ValidationError keyed by JSON field name.
func validateInput(v *validator.Validate, input any, extra map[string]string) error {
	fields := map[string]string{}
	for k, msg := range extra {
		fields[k] = msg
	}
	if err := v.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		for _, fe := range verrs {
			name := fe.Field()
			if _, seen := fields[name]; seen {
				continue
			}
			fields[name] = describeFieldError(fe)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a URL"
	case "excludesall":
		return "must not contain " + fe.Param()
	default:
		return "is invalid"
	}
}

func (in *ProductInput) normalise() {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Gender = strings.ToLower(strings.TrimSpace(in.Gender))
	in.Collection = strings.TrimSpace(in.Collection)
	in.Images = trimURLs(in.Images)
}

func (in *CollectionInput) normalise() {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Gender = strings.ToLower(strings.TrimSpace(in.Gender))
	in.Images = trimURLs(in.Images)
	in.Products = trimURLs(in.Products)
}

func (in *BlogInput) normalise() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Image = strings.TrimSpace(in.Image)
}

// amounts parses the numeric product fields, adding a message per malformed field.
func (in ProductInput) amounts(fields map[string]string) (price, weight float64, original *float64) {
	if raw := strings.TrimSpace(string(in.Price)); raw != "" {
		value, ok := textutil.ParseAmount(raw)
		switch {
		case !ok:
			fields["price"] = "must be a number"
		case value < 0:
			fields["price"] = "must not be negative"
		default:
			price = value
		}
	}
	if raw := strings.TrimSpace(string(in.Weight)); raw != "" {
		value, ok := textutil.ParseAmount(raw)
		if !ok || value < 0 {
			fields["weight"] = "must be a non-negative number"
		} else {
			weight = value
		}
	}
	if raw := strings.TrimSpace(string(in.OriginalPrice)); raw != "" {
		value, ok := textutil.ParseAmount(raw)
		if !ok || value < 0 {
			fields["originalPrice"] = "must be a non-negative number"
		} else {
			original = &value
		}
	}
	return price, weight, original
}

func genderOrBoth(raw string) domain.Gender {
	if g, ok := domain.ParseGender(raw); ok {
		return g
	}
	return domain.GenderBoth
}

func trimURLs(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

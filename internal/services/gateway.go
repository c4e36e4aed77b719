package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/storage"
	"github.com/unfazed24072005io/luxe-jewellery/internal/repositories"
)

// Invalidator drops cached reads of a record kind.
type Invalidator interface {
	Invalidate(ctx context.Context, kind domain.RecordKind) error
}

// AdminGatewayDeps groups constructor parameters for the admin gateway.
type AdminGatewayDeps struct {
	Products    repositories.ProductRepository
	Collections repositories.CollectionRepository
	Blogs       repositories.BlogRepository
	Images      ImageStore
	Invalidator Invalidator
	// Publisher and EditSlot are optional.
	Publisher ChangePublisher
	EditSlot  *EditSlot
	Logger    *zap.Logger
	Clock     func() time.Time
}

type adminGateway struct {
	products    repositories.ProductRepository
	collections repositories.CollectionRepository
	blogs       repositories.BlogRepository
	images      ImageStore
	invalidator Invalidator
	publisher   ChangePublisher
	slot        *EditSlot
	logger      *zap.Logger
	clock       func() time.Time
	validate    *validator.Validate
}

// NewAdminGateway constructs the admin write gateway.
func NewAdminGateway(deps AdminGatewayDeps) (AdminGateway, error) {
	if deps.Products == nil || deps.Collections == nil || deps.Blogs == nil {
		return nil, errors.New("admin gateway: repositories are required")
	}
	if deps.Images == nil {
		return nil, errors.New("admin gateway: image store is required")
	}
	if deps.Invalidator == nil {
		return nil, errors.New("admin gateway: invalidator is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &adminGateway{
		products:    deps.Products,
		collections: deps.Collections,
		blogs:       deps.Blogs,
		images:      deps.Images,
		invalidator: deps.Invalidator,
		publisher:   deps.Publisher,
		slot:        deps.EditSlot,
		logger:      logger,
		clock:       func() time.Time { return clock().UTC() },
		validate:    newRecordValidator(),
	}, nil
}

func (g *adminGateway) Create(ctx context.Context, cmd UpsertCommand) (UpsertResult, error) {
	return g.upsert(ctx, "", cmd)
}

func (g *adminGateway) Update(ctx context.Context, id string, cmd UpsertCommand) (UpsertResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return UpsertResult{}, &ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	return g.upsert(ctx, id, cmd)
}

func (g *adminGateway) upsert(ctx context.Context, id string, cmd UpsertCommand) (UpsertResult, error) {
	var (
		result UpsertResult
		err    error
	)
	switch cmd.Kind {
	case domain.KindProducts:
		if cmd.Product == nil {
			return UpsertResult{}, fmt.Errorf("%w: product attributes are required", ErrInvalidRecord)
		}
		result, err = g.upsertProduct(ctx, id, *cmd.Product, cmd.Uploads)
	case domain.KindCollections:
		if cmd.Collection == nil {
			return UpsertResult{}, fmt.Errorf("%w: collection attributes are required", ErrInvalidRecord)
		}
		result, err = g.upsertCollection(ctx, id, *cmd.Collection, cmd.Uploads)
	case domain.KindBlogs:
		if cmd.Blog == nil {
			return UpsertResult{}, fmt.Errorf("%w: blog attributes are required", ErrInvalidRecord)
		}
		result, err = g.upsertBlog(ctx, id, *cmd.Blog, cmd.Uploads)
	default:
		return UpsertResult{}, fmt.Errorf("%w: unknown record kind %q", ErrInvalidRecord, cmd.Kind)
	}
	if err != nil {
		return UpsertResult{}, err
	}

	action := domain.ChangeUpdated
	if id == "" {
		action = domain.ChangeCreated
	}
	g.afterWrite(ctx, domain.CatalogChange{
		Kind:       result.Kind,
		ID:         result.ID,
		Slug:       result.Slug,
		Action:     action,
		Actor:      cmd.Actor,
		OccurredAt: g.clock(),
	})
	return result, nil
}

func (g *adminGateway) upsertProduct(ctx context.Context, id string, in ProductInput, uploads []ImageUpload) (UpsertResult, error) {
	in.normalise()
	fields := map[string]string{}
	price, weight, original := in.amounts(fields)
	if err := validateInput(g.validate, in, fields); err != nil {
		return UpsertResult{}, err
	}

	now := g.clock()
	createdAt := now
	if id != "" {
		existing, err := g.products.GetProduct(ctx, id)
		if err != nil {
			return UpsertResult{}, mapRepositoryError(err)
		}
		createdAt = existing.CreatedAt
	}

	folder := in.Category
	if folder == "" {
		folder = string(domain.KindProducts)
	}
	added, warnings := g.uploadAll(ctx, folder, uploads)
	images := append(append([]string{}, in.Images...), added...)

	product := domain.Product{
		ID:               id,
		Slug:             in.Slug,
		Name:             in.Name,
		Description:      in.Description,
		Category:         in.Category,
		Material:         strings.TrimSpace(in.Material),
		Style:            strings.TrimSpace(in.Style),
		Stones:           strings.TrimSpace(in.Stones),
		CareInstructions: in.CareInstructions,
		Weight:           weight,
		SKU:              strings.TrimSpace(in.SKU),
		Price:            price,
		OriginalPrice:    original,
		Gender:           genderOrBoth(in.Gender),
		Collection:       in.Collection,
		Images:           images,
		Featured:         in.Featured,
		InStock:          in.InStock,
		CreatedAt:        createdAt,
		UpdatedAt:        now,
	}

	var saved domain.Product
	var err error
	if id == "" {
		saved, err = g.products.CreateProduct(ctx, product)
	} else {
		saved, err = g.products.ReplaceProduct(ctx, product)
	}
	if err != nil {
		return UpsertResult{}, mapRepositoryError(err)
	}
	return UpsertResult{Kind: domain.KindProducts, ID: saved.ID, Slug: saved.Slug, Images: images, Warnings: warnings}, nil
}

func (g *adminGateway) upsertCollection(ctx context.Context, id string, in CollectionInput, uploads []ImageUpload) (UpsertResult, error) {
	in.normalise()
	if err := validateInput(g.validate, in, nil); err != nil {
		return UpsertResult{}, err
	}
	if len(in.Images) == 0 && len(uploads) == 0 {
		return UpsertResult{}, ErrCollectionImageRequired
	}

	now := g.clock()
	createdAt := now
	if id != "" {
		existing, err := g.collections.GetCollection(ctx, id)
		if err != nil {
			return UpsertResult{}, mapRepositoryError(err)
		}
		createdAt = existing.CreatedAt
	}

	added, warnings := g.uploadAll(ctx, string(domain.KindCollections), uploads)
	images := append(append([]string{}, in.Images...), added...)
	if len(images) == 0 {
		return UpsertResult{Warnings: warnings}, ErrCollectionImageRequired
	}

	collection := domain.Collection{
		ID:          id,
		Slug:        in.Slug,
		Name:        in.Name,
		Description: in.Description,
		Style:       strings.TrimSpace(in.Style),
		Gender:      genderOrBoth(in.Gender),
		Image:       images[0],
		Images:      images,
		Products:    in.Products,
		Featured:    in.Featured,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}

	var saved domain.Collection
	var err error
	if id == "" {
		saved, err = g.collections.CreateCollection(ctx, collection)
	} else {
		saved, err = g.collections.ReplaceCollection(ctx, collection)
	}
	if err != nil {
		return UpsertResult{}, mapRepositoryError(err)
	}
	return UpsertResult{Kind: domain.KindCollections, ID: saved.ID, Slug: saved.Slug, Images: images, Warnings: warnings}, nil
}

func (g *adminGateway) upsertBlog(ctx context.Context, id string, in BlogInput, uploads []ImageUpload) (UpsertResult, error) {
	in.normalise()
	var extra map[string]string
	if len(uploads) > 0 {
		extra = map[string]string{"images": "blog posts take an image URL, not uploads"}
	}
	if err := validateInput(g.validate, in, extra); err != nil {
		return UpsertResult{}, err
	}

	now := g.clock()
	createdAt := now
	if id != "" {
		existing, err := g.blogs.GetBlog(ctx, id)
		if err != nil {
			return UpsertResult{}, mapRepositoryError(err)
		}
		createdAt = existing.CreatedAt
	}

	blog := domain.Blog{
		ID:        id,
		Slug:      in.Slug,
		Title:     in.Title,
		Excerpt:   in.Excerpt,
		Content:   in.Content,
		Author:    strings.TrimSpace(in.Author),
		Date:      strings.TrimSpace(in.Date),
		Image:     in.Image,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}

	var saved domain.Blog
	var err error
	if id == "" {
		saved, err = g.blogs.CreateBlog(ctx, blog)
	} else {
		saved, err = g.blogs.ReplaceBlog(ctx, blog)
	}
	if err != nil {
		return UpsertResult{}, mapRepositoryError(err)
	}
	var images []string
	if saved.Image != "" {
		images = []string{saved.Image}
	}
	return UpsertResult{Kind: domain.KindBlogs, ID: saved.ID, Slug: saved.Slug, Images: images}, nil
}

func (g *adminGateway) Delete(ctx context.Context, cmd DeleteCommand) error {
	id := strings.TrimSpace(cmd.ID)
	if id == "" {
		return &ValidationError{Fields: map[string]string{"id": "is required"}}
	}

	var (
		slug string
		err  error
	)
	switch cmd.Kind {
	case domain.KindProducts:
		var p domain.Product
		if p, err = g.products.GetProduct(ctx, id); err == nil {
			slug = p.Slug
			err = g.products.DeleteProduct(ctx, id)
		}
	case domain.KindCollections:
		var c domain.Collection
		if c, err = g.collections.GetCollection(ctx, id); err == nil {
			slug = c.Slug
			err = g.collections.DeleteCollection(ctx, id)
		}
	case domain.KindBlogs:
		var b domain.Blog
		if b, err = g.blogs.GetBlog(ctx, id); err == nil {
			slug = b.Slug
			err = g.blogs.DeleteBlog(ctx, id)
		}
	default:
		return fmt.Errorf("%w: unknown record kind %q", ErrInvalidRecord, cmd.Kind)
	}
	if err != nil {
		return mapRepositoryError(err)
	}

	g.afterWrite(ctx, domain.CatalogChange{
		Kind:       cmd.Kind,
		ID:         id,
		Slug:       slug,
		Action:     domain.ChangeDeleted,
		Actor:      cmd.Actor,
		OccurredAt: g.clock(),
	})
	return nil
}

// uploadAll uploads files one at a time in submission order. A failed file is skipped
// with a warning and does not stop the rest.
func (g *adminGateway) uploadAll(ctx context.Context, folder string, uploads []ImageUpload) ([]string, []UploadWarning) {
	urls := make([]string, 0, len(uploads))
	var warnings []UploadWarning
	for i, upload := range uploads {
		url, err := g.uploadOne(ctx, folder, i, upload)
		if err != nil {
			g.logger.Warn("image upload skipped", zap.String("file", upload.FileName), zap.Error(err))
			warnings = append(warnings, UploadWarning{FileName: upload.FileName, Reason: err.Error()})
			continue
		}
		urls = append(urls, url)
	}
	return urls, warnings
}

func (g *adminGateway) uploadOne(ctx context.Context, folder string, index int, upload ImageUpload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	objectPath, err := storage.BuildImagePath(storage.ImagePathParams{
		Folder:   folder,
		FileName: upload.FileName,
		At:       g.clock(),
		Index:    index,
	})
	if err != nil {
		return "", err
	}
	contentType := strings.TrimSpace(upload.ContentType)
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = mimetype.Detect(upload.Data).String()
	}
	if err := g.images.Upload(ctx, objectPath, contentType, upload.Data); err != nil {
		return "", err
	}
	return g.images.URL(objectPath), nil
}

func (g *adminGateway) afterWrite(ctx context.Context, change domain.CatalogChange) {
	logger := g.logger.With(
		zap.String("kind", string(change.Kind)),
		zap.String("record_id", change.ID),
		zap.String("action", string(change.Action)),
	)
	logger.Info("catalog record written", zap.String("actor", change.Actor))

	// the write is committed; follow-up failures are logged only
	if err := g.invalidator.Invalidate(ctx, change.Kind); err != nil {
		logger.Warn("cache invalidation after write failed", zap.Error(err))
	}
	if g.slot != nil && change.Actor != "" {
		g.slot.Release(change.Actor, change.Kind, change.ID)
	}
	if g.publisher != nil {
		if _, err := g.publisher.PublishCatalogChange(ctx, change); err != nil {
			logger.Warn("catalog change not published", zap.Error(err))
		}
	}
}

func mapRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrRecordNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/services"
)

// Fixture is a catalog snapshot. Product.collection names a collection by slug, which is also how
// the store links them; the forward member list of each collection is derived while seeding.
type Fixture struct {
	Collections []services.CollectionInput `yaml:"collections"`
	Products    []services.ProductInput    `yaml:"products"`
	Blogs       []services.BlogInput       `yaml:"blogs"`
}

// LoadFixture decodes a YAML fixture, rejecting unknown keys.
func LoadFixture(r io.Reader) (Fixture, error) {
	var fixture Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fixture); err != nil {
		if errors.Is(err, io.EOF) {
			return Fixture{}, errors.New("fixture is empty")
		}
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return fixture, nil
}

// Check reports duplicate slugs and products pointing at collections the fixture does not define.
func (f Fixture) Check() error {
	var problems []error
	collections := make(map[string]struct{}, len(f.Collections))
	for i, c := range f.Collections {
		slug := strings.TrimSpace(c.Slug)
		if _, dup := collections[slug]; dup {
			problems = append(problems, fmt.Errorf("collections[%d]: duplicate slug %q", i, slug))
		}
		collections[slug] = struct{}{}
	}
	products := make(map[string]struct{}, len(f.Products))
	for i, p := range f.Products {
		slug := strings.TrimSpace(p.Slug)
		if _, dup := products[slug]; dup {
			problems = append(problems, fmt.Errorf("products[%d]: duplicate slug %q", i, slug))
		}
		products[slug] = struct{}{}
		if ref := strings.TrimSpace(p.Collection); ref != "" {
			if _, ok := collections[ref]; !ok {
				problems = append(problems, fmt.Errorf("products[%d]: unknown collection %q", i, ref))
			}
		}
	}
	blogs := make(map[string]struct{}, len(f.Blogs))
	for i, b := range f.Blogs {
		slug := strings.TrimSpace(b.Slug)
		if _, dup := blogs[slug]; dup {
			problems = append(problems, fmt.Errorf("blogs[%d]: duplicate slug %q", i, slug))
		}
		blogs[slug] = struct{}{}
	}
	return errors.Join(problems...)
}

// Summary counts the records a seed run wrote.
type Summary struct {
	Collections int
	Products    int
	Blogs       int
	Warnings    int
}

type seeder struct {
	gateway services.AdminGateway
	actor   string
	logger  *zap.Logger
}

// Apply writes the fixture through the admin gateway. Collections go first, then products, then
// each collection is rewritten with the store IDs of its members.
func (s *seeder) Apply(ctx context.Context, fixture Fixture) (Summary, error) {
	var summary Summary
	collectionIDs := make(map[string]string, len(fixture.Collections))
	for _, in := range fixture.Collections {
		in.Products = nil
		result, err := s.write(ctx, "", services.UpsertCommand{Kind: domain.KindCollections, Collection: &in})
		if err != nil {
			return summary, fmt.Errorf("collection %q: %w", in.Slug, err)
		}
		collectionIDs[strings.TrimSpace(in.Slug)] = result.ID
		summary.Collections++
		summary.Warnings += len(result.Warnings)
	}

	members := make(map[string][]string, len(collectionIDs))
	for _, in := range fixture.Products {
		ref := strings.TrimSpace(in.Collection)
		result, err := s.write(ctx, "", services.UpsertCommand{Kind: domain.KindProducts, Product: &in})
		if err != nil {
			return summary, fmt.Errorf("product %q: %w", in.Slug, err)
		}
		if ref != "" {
			members[ref] = append(members[ref], result.ID)
		}
		summary.Products++
		summary.Warnings += len(result.Warnings)
	}

	for _, in := range fixture.Collections {
		slug := strings.TrimSpace(in.Slug)
		ids := members[slug]
		if len(ids) == 0 {
			continue
		}
		in.Products = ids
		if _, err := s.write(ctx, collectionIDs[slug], services.UpsertCommand{Kind: domain.KindCollections, Collection: &in}); err != nil {
			return summary, fmt.Errorf("collection %q membership: %w", slug, err)
		}
	}

	for _, in := range fixture.Blogs {
		result, err := s.write(ctx, "", services.UpsertCommand{Kind: domain.KindBlogs, Blog: &in})
		if err != nil {
			return summary, fmt.Errorf("blog %q: %w", in.Slug, err)
		}
		summary.Blogs++
		summary.Warnings += len(result.Warnings)
	}
	return summary, nil
}

func (s *seeder) write(ctx context.Context, id string, cmd services.UpsertCommand) (services.UpsertResult, error) {
	cmd.Actor = s.actor
	var (
		result services.UpsertResult
		err    error
	)
	if id == "" {
		result, err = s.gateway.Create(ctx, cmd)
	} else {
		result, err = s.gateway.Update(ctx, id, cmd)
	}
	if err != nil {
		return result, err
	}
	s.logger.Info("seeded record",
		zap.String("kind", string(result.Kind)),
		zap.String("id", result.ID),
		zap.String("slug", result.Slug),
	)
	return result, nil
}

package handlers

import (
	"context"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/services"
)

type stubCatalog struct {
	products    domain.Listing[domain.Product]
	byGender    map[domain.Gender]domain.Listing[domain.Product]
	byCategory  map[string]domain.Listing[domain.Product]
	product     map[string]domain.Lookup[domain.Product]
	related     domain.Listing[domain.Product]
	collections domain.Listing[domain.Collection]
	collection  map[string]domain.Lookup[domain.Collection]
	blogs       domain.Listing[domain.Blog]
	blog        map[string]domain.Lookup[domain.Blog]

	lastLimit    int
	lastCategory string
	lastGender   domain.Gender
}

func (s *stubCatalog) ListProducts(_ context.Context, limit int) domain.Listing[domain.Product] {
	s.lastLimit = limit
	return s.products
}

func (s *stubCatalog) GetProductBySlug(_ context.Context, slug string) domain.Lookup[domain.Product] {
	if lookup, ok := s.product[slug]; ok {
		return lookup
	}
	return domain.NotFound[domain.Product]()
}

func (s *stubCatalog) ListProductsByCategory(_ context.Context, category string, limit int) domain.Listing[domain.Product] {
	s.lastCategory, s.lastLimit = category, limit
	return s.byCategory[category]
}

func (s *stubCatalog) ListProductsByGender(_ context.Context, gender domain.Gender, limit int) domain.Listing[domain.Product] {
	s.lastGender, s.lastLimit = gender, limit
	return s.byGender[gender]
}

func (s *stubCatalog) ListProductsByCollectionSlug(context.Context, string) domain.Listing[domain.Product] {
	return domain.NewListing[domain.Product](nil)
}

func (s *stubCatalog) ListRelatedProducts(context.Context, domain.Product) domain.Listing[domain.Product] {
	return s.related
}

func (s *stubCatalog) ListCollections(_ context.Context, limit int) domain.Listing[domain.Collection] {
	s.lastLimit = limit
	return s.collections
}

func (s *stubCatalog) GetCollectionBySlug(_ context.Context, slug string) domain.Lookup[domain.Collection] {
	if lookup, ok := s.collection[slug]; ok {
		return lookup
	}
	return domain.NotFound[domain.Collection]()
}

func (s *stubCatalog) ListBlogs(context.Context) domain.Listing[domain.Blog] { return s.blogs }

func (s *stubCatalog) GetBlogBySlug(_ context.Context, slug string) domain.Lookup[domain.Blog] {
	if lookup, ok := s.blog[slug]; ok {
		return lookup
	}
	return domain.NotFound[domain.Blog]()
}

func (s *stubCatalog) Invalidate(context.Context, domain.RecordKind) error { return nil }

type stubMembership struct {
	members map[string]domain.Listing[domain.Product]
	audit   domain.Lookup[services.MembershipAudit]
}

func (s *stubMembership) Resolve(_ context.Context, slug string) domain.Listing[domain.Product] {
	if listing, ok := s.members[slug]; ok {
		return listing
	}
	return domain.NewListing[domain.Product](nil)
}

func (s *stubMembership) Audit(context.Context, string) domain.Lookup[services.MembershipAudit] {
	return s.audit
}

type stubStorefront struct {
	home      services.HomePage
	dashboard services.Dashboard
}

func (s *stubStorefront) Home(context.Context) services.HomePage       { return s.home }
func (s *stubStorefront) Dashboard(context.Context) services.Dashboard { return s.dashboard }

type stubRenderer struct{}

func (stubRenderer) Render(markdown string) (string, error) { return "<p>" + markdown + "</p>", nil }

type stubGateway struct {
	created []services.UpsertCommand
	updated map[string]services.UpsertCommand
	deleted []services.DeleteCommand
	result  services.UpsertResult
	err     error
}

func (s *stubGateway) Create(_ context.Context, cmd services.UpsertCommand) (services.UpsertResult, error) {
	s.created = append(s.created, cmd)
	return s.result, s.err
}

func (s *stubGateway) Update(_ context.Context, id string, cmd services.UpsertCommand) (services.UpsertResult, error) {
	if s.updated == nil {
		s.updated = map[string]services.UpsertCommand{}
	}
	s.updated[id] = cmd
	return s.result, s.err
}

func (s *stubGateway) Delete(_ context.Context, cmd services.DeleteCommand) error {
	s.deleted = append(s.deleted, cmd)
	return s.err
}

type stubIssuer struct {
	idToken     *firebaseauth.Token
	idErr       error
	cookieToken *firebaseauth.Token
	cookieErr   error
	revokedUID  string
}

func (s *stubIssuer) VerifyIDToken(context.Context, string) (*firebaseauth.Token, error) {
	return s.idToken, s.idErr
}

func (s *stubIssuer) SessionCookie(_ context.Context, idToken string, _ time.Duration) (string, error) {
	return "session-" + idToken, nil
}

func (s *stubIssuer) VerifySessionCookieAndCheckRevoked(context.Context, string) (*firebaseauth.Token, error) {
	return s.cookieToken, s.cookieErr
}

func (s *stubIssuer) VerifySessionCookie(context.Context, string) (*firebaseauth.Token, error) {
	return s.cookieToken, s.cookieErr
}

func (s *stubIssuer) RevokeRefreshTokens(_ context.Context, uid string) error {
	s.revokedUID = uid
	return nil
}

func operatorToken(authTime time.Time) *firebaseauth.Token {
	return &firebaseauth.Token{
		UID: "uid-ops",
		Claims: map[string]interface{}{
			"role":      "admin",
			"email":     "ops@luxe.example",
			"auth_time": float64(authTime.Unix()),
		},
	}
}

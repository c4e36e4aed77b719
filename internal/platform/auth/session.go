// Package auth guards the admin console with Firebase session cookies.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
)

const (
	defaultRoleClaim     = "role"
	defaultVerifyTimeout = 5 * time.Second
	// Firebase only mints session cookies for recent sign-ins.
	maxSignInAge = 5 * time.Minute
)

var (
	// ErrInvalidCredentials signals an ID token or session cookie that Firebase rejected.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrSignInTooOld signals that the operator must sign in again before a session is issued.
	ErrSignInTooOld = errors.New("auth: sign-in is not recent")
	// ErrForbidden signals a valid identity without an allowed role.
	ErrForbidden = errors.New("auth: identity lacks an allowed role")
)

// SessionIssuer is the subset of the Firebase auth client used by SessionGate.
type SessionIssuer interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*firebaseauth.Token, error)
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*firebaseauth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Identity describes the operator behind a session.
type Identity struct {
	UID   string
	Email string
	Roles []string
}

// HasRole reports whether the identity includes role (case-insensitive).
func (i Identity) HasRole(role string) bool {
	role = normaliseRole(role)
	if role == "" {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Session is the result of a successful login.
type Session struct {
	Cookie    string
	Identity  Identity
	ExpiresAt time.Time
}

// SessionGate issues, verifies and revokes admin sessions.
type SessionGate struct {
	issuer    SessionIssuer
	ttl       time.Duration
	allowed   map[string]struct{}
	roleClaim string
	timeout   time.Duration
	now       func() time.Time
}

// GateOption customises SessionGate.
type GateOption func(*SessionGate)

// WithRoleClaim overrides the custom claim holding operator roles.
func WithRoleClaim(claim string) GateOption {
	return func(g *SessionGate) {
		claim = strings.TrimSpace(claim)
		if claim != "" {
			g.roleClaim = claim
		}
	}
}

// WithVerificationTimeout bounds each Firebase call.
func WithVerificationTimeout(d time.Duration) GateOption {
	return func(g *SessionGate) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithClock overrides the clock used for sign-in age checks.
func WithClock(clock func() time.Time) GateOption {
	return func(g *SessionGate) {
		if clock != nil {
			g.now = func() time.Time { return clock().UTC() }
		}
	}
}

// NewSessionGate constructs a SessionGate. An empty role list admits any verified identity.
func NewSessionGate(issuer SessionIssuer, ttl time.Duration, allowedRoles []string, opts ...GateOption) (*SessionGate, error) {
	if issuer == nil {
		return nil, errors.New("session gate: issuer is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session gate: ttl must be positive")
	}
	g := &SessionGate{
		issuer:    issuer,
		ttl:       ttl,
		allowed:   make(map[string]struct{}, len(allowedRoles)),
		roleClaim: defaultRoleClaim,
		timeout:   defaultVerifyTimeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, role := range allowedRoles {
		if role = normaliseRole(role); role != "" {
			g.allowed[role] = struct{}{}
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// TTL reports the lifetime of issued sessions.
func (g *SessionGate) TTL() time.Duration { return g.ttl }

// Login exchanges a freshly minted Firebase ID token for a session cookie.
func (g *SessionGate) Login(ctx context.Context, idToken string) (Session, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return Session{}, fmt.Errorf("%w: id token is required", ErrInvalidCredentials)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	token, err := g.issuer.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	identity, err := g.identityFrom(token)
	if err != nil {
		return Session{}, err
	}
	if authTime := claimAsTime(token.Claims, "auth_time"); !authTime.IsZero() && g.now().Sub(authTime) > maxSignInAge {
		return Session{}, ErrSignInTooOld
	}

	cookie, err := g.issuer.SessionCookie(ctx, idToken, g.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("auth: create session cookie: %w", err)
	}
	return Session{
		Cookie:    cookie,
		Identity:  identity,
		ExpiresAt: g.now().Add(g.ttl),
	}, nil
}

// Verify returns the identity behind cookie, rejecting revoked sessions.
func (g *SessionGate) Verify(ctx context.Context, cookie string) (Identity, error) {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return Identity{}, fmt.Errorf("%w: session cookie missing", ErrInvalidCredentials)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	token, err := g.issuer.VerifySessionCookieAndCheckRevoked(ctx, cookie)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return g.identityFrom(token)
}

// Authenticated reports whether cookie names a live admin session.
func (g *SessionGate) Authenticated(ctx context.Context, cookie string) bool {
	_, err := g.Verify(ctx, cookie)
	return err == nil
}

// Logout revokes the refresh tokens of the session owner. Unknown or expired cookies are a no-op.
func (g *SessionGate) Logout(ctx context.Context, cookie string) error {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	token, err := g.issuer.VerifySessionCookie(ctx, cookie)
	if err != nil {
		return nil
	}
	if err := g.issuer.RevokeRefreshTokens(ctx, token.UID); err != nil {
		return fmt.Errorf("auth: revoke session: %w", err)
	}
	return nil
}

func (g *SessionGate) identityFrom(token *firebaseauth.Token) (Identity, error) {
	if token == nil || token.UID == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrInvalidCredentials)
	}
	identity := Identity{
		UID:   token.UID,
		Email: claimAsString(token.Claims, "email"),
		Roles: rolesFromClaims(token.Claims, g.roleClaim),
	}
	if len(g.allowed) == 0 {
		return identity, nil
	}
	for _, role := range identity.Roles {
		if _, ok := g.allowed[role]; ok {
			return identity, nil
		}
	}
	return Identity{}, ErrForbidden
}

func rolesFromClaims(claims map[string]interface{}, key string) []string {
	var raw []string
	switch v := claims[key].(type) {
	case string:
		raw = []string{v}
	case []string:
		raw = v
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case map[string]interface{}:
		for role, enabled := range v {
			if on, ok := enabled.(bool); ok && on {
				raw = append(raw, role)
			}
		}
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, role := range raw {
		role = normaliseRole(role)
		if role == "" {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

func claimAsString(claims map[string]interface{}, key string) string {
	if s, ok := claims[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func claimAsTime(claims map[string]interface{}, key string) time.Time {
	switch v := claims[key].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC()
	case int64:
		return time.Unix(v, 0).UTC()
	case int:
		return time.Unix(int64(v), 0).UTC()
	default:
		return time.Time{}
	}
}

func normaliseRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

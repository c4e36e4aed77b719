package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/auth"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/httpx"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/requestctx"
	"github.com/unfazed24072005io/luxe-jewellery/internal/services"
)

const (
	defaultMaxUploadBytes = 10 << 20
	maxSessionBodyBytes   = 64 << 10
)

// AdminHandlers serves the admin console: session exchange, the dashboard, record writes and
// the edit session.
type AdminHandlers struct {
	gate           *auth.SessionGate
	cookies        auth.CookieSettings
	gateway        services.AdminGateway
	storefront     services.StorefrontService
	membership     services.MembershipResolver
	slot           *services.EditSlot
	maxUploadBytes int64
}

// AdminOption customises construction of AdminHandlers.
type AdminOption func(*AdminHandlers)

// WithAdminSessionGate injects the session gate and cookie settings.
func WithAdminSessionGate(gate *auth.SessionGate, cookies auth.CookieSettings) AdminOption {
	return func(h *AdminHandlers) {
		h.gate = gate
		h.cookies = cookies
	}
}

// WithAdminGateway injects the write gateway.
func WithAdminGateway(gateway services.AdminGateway) AdminOption {
	return func(h *AdminHandlers) {
		h.gateway = gateway
	}
}

// WithAdminStorefrontService injects the dashboard aggregator.
func WithAdminStorefrontService(svc services.StorefrontService) AdminOption {
	return func(h *AdminHandlers) {
		h.storefront = svc
	}
}

// WithAdminMembershipResolver injects the resolver used by the membership audit.
func WithAdminMembershipResolver(resolver services.MembershipResolver) AdminOption {
	return func(h *AdminHandlers) {
		h.membership = resolver
	}
}

// WithAdminEditSlot injects the per-operator edit session store.
func WithAdminEditSlot(slot *services.EditSlot) AdminOption {
	return func(h *AdminHandlers) {
		h.slot = slot
	}
}

// WithAdminMaxUploadBytes caps the size of a record submission including its images.
func WithAdminMaxUploadBytes(limit int64) AdminOption {
	return func(h *AdminHandlers) {
		if limit > 0 {
			h.maxUploadBytes = limit
		}
	}
}

// NewAdminHandlers constructs the admin console handlers.
func NewAdminHandlers(opts ...AdminOption) *AdminHandlers {
	h := &AdminHandlers{maxUploadBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the admin endpoints. Everything except the session exchange requires a
// live session cookie.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/session", h.createSession)
	r.Get("/session", h.getSession)
	r.Delete("/session", h.deleteSession)

	r.Group(func(protected chi.Router) {
		protected.Use(auth.RequireSession(h.gate, h.cookies))
		protected.Get("/dashboard", h.dashboard)
		protected.Put("/edit-session", h.enterEditSession)
		protected.Get("/edit-session", h.getEditSession)
		protected.Delete("/edit-session", h.exitEditSession)
		protected.Get("/collections/{slug}/membership-audit", h.membershipAudit)
		for _, kind := range domain.RecordKinds {
			kind := kind
			path := "/" + string(kind)
			protected.Post(path, h.createRecord(kind))
			protected.Put(path+"/{id}", h.updateRecord(kind))
			protected.Delete(path+"/{id}", h.deleteRecord(kind))
		}
	})
}

type sessionRequest struct {
	IDToken string `json:"idToken"`
}

type sessionResponse struct {
	Authenticated bool     `json:"authenticated"`
	UID           string   `json:"uid,omitempty"`
	Email         string   `json:"email,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	ExpiresAt     string   `json:"expiresAt,omitempty"`
}

func (h *AdminHandlers) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.gate == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "admin sessions are not configured", http.StatusServiceUnavailable))
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSessionBodyBytes)).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "body must be JSON with an idToken", http.StatusBadRequest))
		return
	}

	session, err := h.gate.Login(ctx, req.IDToken)
	if err != nil {
		logger := requestctx.Logger(ctx)
		switch {
		case errors.Is(err, auth.ErrSignInTooOld):
			httpx.WriteError(ctx, w, httpx.NewError("recent_sign_in_required", "sign in again to open an admin session", http.StatusUnauthorized))
		case errors.Is(err, auth.ErrForbidden):
			logger.Warn("admin login without role", zap.Error(err))
			httpx.WriteError(ctx, w, httpx.NewError("insufficient_role", "identity does not have required role", http.StatusForbidden))
		case errors.Is(err, auth.ErrInvalidCredentials):
			logger.Info("admin login rejected", zap.Error(err))
			httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid credentials", http.StatusUnauthorized))
		default:
			logger.Error("admin session creation failed", zap.Error(err))
			httpx.WriteError(ctx, w, httpx.NewError("session_unavailable", "could not create admin session", http.StatusBadGateway))
		}
		return
	}

	h.cookies.Set(w, session)
	requestctx.Logger(ctx).Info("admin session opened", zap.String("admin_uid", session.Identity.UID))
	writeJSON(w, http.StatusCreated, sessionResponse{
		Authenticated: true,
		UID:           session.Identity.UID,
		Email:         session.Identity.Email,
		Roles:         session.Identity.Roles,
		ExpiresAt:     formatTimestamp(session.ExpiresAt),
	})
}

func (h *AdminHandlers) getSession(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	identity, err := h.gate.Verify(r.Context(), h.cookies.SessionCookieValue(r))
	if err != nil {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		UID:           identity.UID,
		Email:         identity.Email,
		Roles:         identity.Roles,
	})
}

func (h *AdminHandlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cookie := h.cookies.SessionCookieValue(r)
	if h.gate != nil && cookie != "" {
		if identity, err := h.gate.Verify(ctx, cookie); err == nil && h.slot != nil {
			h.slot.Exit(identity.UID)
		}
		if err := h.gate.Logout(ctx, cookie); err != nil {
			requestctx.Logger(ctx).Warn("admin session revoke failed", zap.Error(err))
		}
	}
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) dashboard(w http.ResponseWriter, r *http.Request) {
	if h.storefront == nil {
		writeServiceMissing(w, r)
		return
	}
	board := h.storefront.Dashboard(r.Context())
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, dashboardResponse{
		Products:    newProductSection(board.Products),
		Collections: newCollectionSection(board.Collections),
		Blogs:       newBlogSection(board.Blogs, true),
	})
}

type upsertResponse struct {
	Kind     string                   `json:"kind"`
	ID       string                   `json:"id"`
	Slug     string                   `json:"slug"`
	Images   []string                 `json:"images"`
	Warnings []services.UploadWarning `json:"warnings"`
}

func newUpsertResponse(result services.UpsertResult) upsertResponse {
	warnings := result.Warnings
	if warnings == nil {
		warnings = []services.UploadWarning{}
	}
	return upsertResponse{
		Kind:     string(result.Kind),
		ID:       result.ID,
		Slug:     result.Slug,
		Images:   copyStrings(result.Images),
		Warnings: warnings,
	}
}

func (h *AdminHandlers) createRecord(kind domain.RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.gateway == nil {
			writeServiceMissing(w, r)
			return
		}
		cmd, err := decodeUpsert(w, r, kind, h.maxUploadBytes)
		if err != nil {
			writeGatewayError(w, r, err)
			return
		}
		cmd.Actor = actorFrom(r)
		result, err := h.gateway.Create(r.Context(), cmd)
		if err != nil {
			writeGatewayError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newUpsertResponse(result))
	}
}

func (h *AdminHandlers) updateRecord(kind domain.RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.gateway == nil {
			writeServiceMissing(w, r)
			return
		}
		cmd, err := decodeUpsert(w, r, kind, h.maxUploadBytes)
		if err != nil {
			writeGatewayError(w, r, err)
			return
		}
		cmd.Actor = actorFrom(r)
		result, err := h.gateway.Update(r.Context(), chi.URLParam(r, "id"), cmd)
		if err != nil {
			writeGatewayError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newUpsertResponse(result))
	}
}

func (h *AdminHandlers) deleteRecord(kind domain.RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if h.gateway == nil {
			writeServiceMissing(w, r)
			return
		}
		if confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !confirmed {
			httpx.WriteError(ctx, w, httpx.NewError("confirmation_required", "repeat the request with confirm=true to delete this record", http.StatusConflict))
			return
		}
		err := h.gateway.Delete(ctx, services.DeleteCommand{
			Kind:  kind,
			ID:    chi.URLParam(r, "id"),
			Actor: actorFrom(r),
		})
		if err != nil {
			writeGatewayError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type editSessionRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type editSessionResponse struct {
	Session  *services.EditSession `json:"session"`
	Replaced *services.EditSession `json:"replaced,omitempty"`
}

func (h *AdminHandlers) enterEditSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.slot == nil {
		writeServiceMissing(w, r)
		return
	}
	var req editSessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSessionBodyBytes)).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "body must be JSON with kind and id", http.StatusBadRequest))
		return
	}
	kind, ok := domain.ParseRecordKind(req.Kind)
	if !ok || strings.TrimSpace(req.ID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "kind must be products, collections or blogs and id is required", http.StatusBadRequest))
		return
	}
	session, replaced := h.slot.Enter(actorFrom(r), kind, req.ID)
	writeJSON(w, http.StatusOK, editSessionResponse{Session: &session, Replaced: replaced})
}

func (h *AdminHandlers) getEditSession(w http.ResponseWriter, r *http.Request) {
	if h.slot == nil {
		writeServiceMissing(w, r)
		return
	}
	response := editSessionResponse{}
	if session, ok := h.slot.Current(actorFrom(r)); ok {
		response.Session = &session
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *AdminHandlers) exitEditSession(w http.ResponseWriter, r *http.Request) {
	if h.slot != nil {
		h.slot.Exit(actorFrom(r))
	}
	w.WriteHeader(http.StatusNoContent)
}

type membershipAuditResponse struct {
	CollectionID      string   `json:"collectionId"`
	CollectionSlug    string   `json:"collectionSlug"`
	ForwardOnly       []string `json:"forwardOnly"`
	BackReferenceOnly []string `json:"backReferenceOnly"`
	Consistent        bool     `json:"consistent"`
	CheckedAt         string   `json:"checkedAt"`
}

func (h *AdminHandlers) membershipAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.membership == nil {
		writeServiceMissing(w, r)
		return
	}
	audit := h.membership.Audit(ctx, chi.URLParam(r, "slug"))
	switch audit.Outcome {
	case domain.OutcomeNotFound:
		writeNotFound(w, r, "collection_not_found", "Collection not found", "/collections")
		return
	case domain.OutcomeUnavailable:
		httpx.WriteError(ctx, w, httpx.NewError("store_unavailable", "the record store could not be reached", http.StatusServiceUnavailable))
		return
	}
	writeJSON(w, http.StatusOK, membershipAuditResponse{
		CollectionID:      audit.Item.CollectionID,
		CollectionSlug:    audit.Item.CollectionSlug,
		ForwardOnly:       audit.Item.ForwardOnly,
		BackReferenceOnly: audit.Item.BackReferenceOnly,
		Consistent:        audit.Item.Consistent,
		CheckedAt:         formatTimestamp(time.Now()),
	})
}

func actorFrom(r *http.Request) string {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		return identity.UID
	}
	return requestctx.AdminUID(r.Context())
}

func writeGatewayError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_record", "the record has invalid fields", http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"fields": validation.Fields}))
	case errors.Is(err, services.ErrCollectionImageRequired):
		httpx.WriteError(ctx, w, httpx.NewError("collection_image_required", "a collection needs at least one image", http.StatusUnprocessableEntity))
	case errors.Is(err, errRequestTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("request_too_large", "the submission exceeds the upload limit", http.StatusRequestEntityTooLarge))
	case errors.Is(err, services.ErrInvalidRecord):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_record", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrRecordNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("record_not_found", "the record no longer exists", http.StatusNotFound))
	case errors.Is(err, services.ErrStoreUnavailable):
		requestctx.Logger(ctx).Error("record store unavailable", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("store_unavailable", "the record store could not be reached", http.StatusServiceUnavailable))
	default:
		requestctx.Logger(ctx).Error("admin write failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "the record could not be saved", http.StatusInternalServerError))
	}
}

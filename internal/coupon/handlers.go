package coupon

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/pricing"
	"github.com/glowcart/storefront-api/internal/store"
)

// Repo captures the admin-facing persistence methods used by the handlers.
type Repo interface {
	Create(ctx context.Context, c store.Coupon) (store.Coupon, error)
	Update(ctx context.Context, code string, c store.Coupon) (store.Coupon, error)
	Delete(ctx context.Context, code string) error
}

// Handler exposes coupon endpoints for the storefront and the admin console.
type Handler struct {
	Repo     Repo
	Svc      *Service
	Validate *validator.Validate
}

type validateRequest struct {
	CouponCode         string              `json:"coupon_code"`
	CartItems          []validateCartItem  `json:"cart_items"`
	Subtotal           pricing.Amount      `json:"subtotal"`
	UserID             *uuid.UUID          `json:"user_id"`
	SourceCollectionID *uuid.UUID          `json:"source_collection_id"`
}

type validateCartItem struct {
	ProductID    uuid.UUID      `json:"product_id"`
	CollectionID *uuid.UUID     `json:"collection_id"`
	Subtotal     pricing.Amount `json:"subtotal"`
}

type availableRequest struct {
	UserID             *uuid.UUID `json:"user_id"`
	SourceCollectionID *uuid.UUID `json:"source_collection_id"`
}

type couponPayload struct {
	Code           string     `json:"code" validate:"required,min=3,max=32"`
	Scope          string     `json:"scope" validate:"required,oneof=sales user collection"`
	Kind           string     `json:"kind" validate:"required,oneof=percent flat"`
	Value          int64      `json:"value" validate:"gte=0"`
	PercentBps     *int32     `json:"percentBps" validate:"omitempty,gt=0,lte=10000"`
	MinOrderAmount int64      `json:"minOrderAmount" validate:"gte=0"`
	MaxDiscount    *int64     `json:"maxDiscount" validate:"omitempty,gte=0"`
	UsageLimit     *int32     `json:"usageLimit" validate:"omitempty,gte=0"`
	PerUserLimit   *int32     `json:"perUserLimit" validate:"omitempty,gte=0"`
	UserID         *uuid.UUID `json:"userId"`
	CollectionIDs  []string   `json:"collectionIds"`
	StartAt        *time.Time `json:"startAt"`
	EndAt          *time.Time `json:"endAt"`
	Active         *bool      `json:"active"`
}

// ValidateCoupon handles POST /coupons/validate: a dry-run evaluation of the
// code against the submitted cart snapshot.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var req validateRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	items := make([]Item, 0, len(req.CartItems))
	for _, it := range req.CartItems {
		collectionID := it.CollectionID
		if collectionID == nil {
			// Items sent without a collection inherit the browsing context.
			collectionID = req.SourceCollectionID
		}
		items = append(items, Item{
			ProductID:    it.ProductID,
			CollectionID: collectionID,
			Subtotal:     int64(it.Subtotal),
		})
	}
	result, err := h.Svc.Validate(r.Context(), req.CouponCode, req.UserID, int64(req.Subtotal), items)
	if err != nil {
		WriteRejection(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"coupon":   result.Coupon,
		"discount": result.Discount,
	})
}

// Available handles POST /coupons/available: coupons the caller could apply.
func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var req availableRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	coupons, err := h.Svc.Available(r.Context(), req.UserID, req.SourceCollectionID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"coupons": emptyIfNil(coupons)})
}

// Active handles GET /coupons/active.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	coupons, err := h.Svc.Active(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"coupons": emptyIfNil(coupons)})
}

// ForUser handles GET /coupons/user/{userId}.
func (h *Handler) ForUser(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	userID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "userId")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	coupons, err := h.Svc.ForUser(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"coupons": emptyIfNil(coupons)})
}

// Create inserts a new coupon rule. Admin only.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon repository not configured", nil)
		return
	}
	payload, err := h.decodePayload(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	model, err := payload.toModel()
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	created, err := h.Repo.Create(r.Context(), model)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create coupon", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, created)
}

// Update mutates an existing coupon identified by code. Admin only.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon repository not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	payload, err := h.decodePayload(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	model, err := payload.toModel()
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	updated, err := h.Repo.Update(r.Context(), code, model)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update coupon", nil)
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}

// Delete removes a coupon by code. Admin only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon repository not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	if err := h.Repo.Delete(r.Context(), code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete coupon", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodePayload(r *http.Request) (couponPayload, error) {
	var payload couponPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		return couponPayload{}, errors.New("invalid payload")
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			return couponPayload{}, err
		}
	}
	return payload, nil
}

func (p couponPayload) toModel() (store.Coupon, error) {
	if strings.EqualFold(p.Kind, store.CouponKindPercent) && p.PercentBps == nil {
		return store.Coupon{}, errors.New("percentBps is required for percent coupons")
	}
	if p.Scope == store.CouponScopeUser && p.UserID == nil {
		return store.Coupon{}, errors.New("userId is required for user-scoped coupons")
	}
	collectionIDs := make([]uuid.UUID, 0, len(p.CollectionIDs))
	for _, raw := range p.CollectionIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return store.Coupon{}, errors.New("invalid collection id: " + raw)
		}
		collectionIDs = append(collectionIDs, id)
	}
	if p.Scope == store.CouponScopeCollection && len(collectionIDs) == 0 {
		return store.Coupon{}, errors.New("collectionIds are required for collection-scoped coupons")
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return store.Coupon{
		Code:           strings.TrimSpace(p.Code),
		Scope:          strings.ToLower(p.Scope),
		Kind:           strings.ToLower(p.Kind),
		Value:          p.Value,
		PercentBps:     p.PercentBps,
		MinOrderAmount: p.MinOrderAmount,
		MaxDiscount:    p.MaxDiscount,
		UsageLimit:     p.UsageLimit,
		PerUserLimit:   p.PerUserLimit,
		UserID:         p.UserID,
		CollectionIDs:  collectionIDs,
		StartAt:        p.StartAt,
		EndAt:          p.EndAt,
		Active:         active,
	}, nil
}

// WriteRejection maps coupon evaluation errors to the canonical error
// response, preserving the specific rejection reason for the client.
func WriteRejection(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "COUPON_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrExpired):
		common.JSONError(w, http.StatusBadRequest, "COUPON_EXPIRED", err.Error(), nil)
	case errors.Is(err, ErrNotStarted):
		common.JSONError(w, http.StatusBadRequest, "COUPON_NOT_STARTED", err.Error(), nil)
	case errors.Is(err, ErrInactive):
		common.JSONError(w, http.StatusBadRequest, "COUPON_INACTIVE", err.Error(), nil)
	case errors.Is(err, ErrMinOrderUnmet):
		common.JSONError(w, http.StatusBadRequest, "MIN_ORDER_NOT_MET", err.Error(), nil)
	case errors.Is(err, ErrPerUserLimitReached):
		common.JSONError(w, http.StatusBadRequest, "PER_USER_LIMIT", err.Error(), nil)
	case errors.Is(err, ErrUsageLimitReached):
		common.JSONError(w, http.StatusBadRequest, "USAGE_LIMIT", err.Error(), nil)
	case errors.Is(err, ErrNotApplicable):
		common.JSONError(w, http.StatusBadRequest, "NOT_APPLICABLE", err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}

func emptyIfNil(coupons []store.Coupon) []store.Coupon {
	if coupons == nil {
		return []store.Coupon{}
	}
	return coupons
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"clientzap/internal/api/v1/dto"
	"clientzap/internal/middleware"
	"clientzap/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// BillingHandler handles billing and subscription endpoints.
type BillingHandler struct {
	stripeSvc *service.StripeService
	formSvc   service.FormService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(stripeSvc *service.StripeService, formSvc service.FormService, validate *validator.Validate, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{stripeSvc: stripeSvc, formSvc: formSvc, validate: validate, logger: logger}
}

// RegisterRoutes mounts billing routes. The webhook endpoint is deliberately
// outside the auth middleware: Stripe authenticates with its signature.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/billing", authMw(http.HandlerFunc(h.getBilling)))
	mux.Handle("/billing/checkout", authMw(http.HandlerFunc(h.checkout)))
	mux.Handle("/billing/cancel", authMw(http.HandlerFunc(h.cancel)))
	mux.Handle("/billing/reactivate", authMw(http.HandlerFunc(h.reactivate)))
	mux.Handle("/billing/usage", authMw(http.HandlerFunc(h.usage)))
	mux.Handle("/billing/webhook", http.HandlerFunc(h.webhook))
}

// checkout godoc
// @Summary Initiate a Stripe Checkout session for upgrading to pro
// @Description Creates a hosted checkout session and returns its URL.
// @Tags billing
// @Accept json
// @Produce json
// @Param checkout body dto.CheckoutRequestDTO true "Billing interval"
// @Success 200 {object} dto.CheckoutResponseDTO
// @Failure 400 {string} string "invalid request payload"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to create checkout session"
// @Router /billing/checkout [post]
func (h *BillingHandler) checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req dto.CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	url, err := h.stripeSvc.CreateCheckoutSession(r.Context(), userID, req.Interval)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create checkout session")
		http.Error(w, "failed to create checkout session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.CheckoutResponseDTO{URL: url})
}

// getBilling godoc
// @Summary Get the billing view for the authenticated user
// @Description Returns local subscription fields enriched with live period and upcoming invoice detail.
// @Tags billing
// @Produce json
// @Success 200 {object} dto.BillingInfoResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to load billing info"
// @Router /billing [get]
func (h *BillingHandler) getBilling(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	info, err := h.stripeSvc.GetBillingInfo(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load billing info")
		http.Error(w, "failed to load billing info", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.BillingInfoResponseDTO{
		HasSubscription:    info.HasSubscription,
		SubscriptionType:   info.SubscriptionType,
		SubscriptionStatus: info.SubscriptionStatus,
		CurrentPeriodEnd:   info.CurrentPeriodEnd,
		CancelAtPeriodEnd:  info.CancelAtPeriodEnd,
		NextBillDate:       info.NextBillDate,
		NextBillAmount:     info.NextBillAmount,
		Currency:           info.Currency,
	})
}

// cancel godoc
// @Summary Cancel the subscription at period end
// @Description Toggles the provider-side auto-renewal flag; the local record is only updated once Stripe confirms via webhook.
// @Tags billing
// @Produce json
// @Success 200 {object} dto.AckResponseDTO
// @Failure 400 {string} string "no subscription to cancel"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to cancel subscription"
// @Router /billing/cancel [post]
func (h *BillingHandler) cancel(w http.ResponseWriter, r *http.Request) {
	h.toggleRenewal(w, r, true)
}

// reactivate godoc
// @Summary Resume auto-renewal for a subscription pending cancellation
// @Tags billing
// @Produce json
// @Success 200 {object} dto.AckResponseDTO
// @Failure 400 {string} string "no subscription to reactivate"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to reactivate subscription"
// @Router /billing/reactivate [post]
func (h *BillingHandler) reactivate(w http.ResponseWriter, r *http.Request) {
	h.toggleRenewal(w, r, false)
}

func (h *BillingHandler) toggleRenewal(w http.ResponseWriter, r *http.Request, cancel bool) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var err error
	if cancel {
		err = h.stripeSvc.CancelSubscription(r.Context(), userID)
	} else {
		err = h.stripeSvc.ReactivateSubscription(r.Context(), userID)
	}
	if errors.Is(err, service.ErrNoSubscription) {
		http.Error(w, "no active subscription", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Bool("cancel", cancel).Msg("failed to update subscription renewal")
		http.Error(w, "failed to update subscription", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.AckResponseDTO{Success: true})
}

// usage godoc
// @Summary Get current usage against plan limits
// @Tags billing
// @Produce json
// @Success 200 {object} dto.UsageResponseDTO
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to load usage"
// @Router /billing/usage [get]
func (h *BillingHandler) usage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	usage, err := h.formSvc.GetUsage(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load usage")
		http.Error(w, "failed to load usage", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.UsageResponseDTO{
		Forms:          usage.Forms,
		Submissions:    usage.Submissions,
		MaxForms:       usage.Limits.MaxForms,
		MaxSubmissions: usage.Limits.MaxSubmissions,
		CustomBranding: usage.Limits.CustomBranding,
		SavedContracts: usage.Limits.SavedContracts,
		MultiFormFlows: usage.Limits.MultiFormFlows,
	})
}

// webhook godoc
// @Summary Stripe webhook receiver
// @Description Verifies the Stripe signature and applies subscription state transitions.
// @Tags billing
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {string} string "signature verification failed"
// @Router /billing/webhook [post]
func (h *BillingHandler) webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.stripeSvc.HandleWebhook(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

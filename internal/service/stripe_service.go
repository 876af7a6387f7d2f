package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"clientzap/internal/config"
	"clientzap/internal/model"
	"clientzap/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	invoicepkg "github.com/stripe/stripe-go/v82/invoice"
	subscriptionpkg "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe webhooks are small; cap the body well above any real payload.
const webhookBodyLimit = 1024 * 1024 // 1 MiB

// ErrNoSubscription is returned by cancel/reactivate when the user has never
// completed a checkout.
var ErrNoSubscription = errors.New("user has no stripe subscription")

// StripeAPI is the set of remote Stripe calls the service makes. It exists so
// tests can stub the provider; the default implementation delegates to the
// official SDK package functions.
type StripeAPI interface {
	CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
	GetCustomer(id string) (*stripe.Customer, error)
	GetSubscription(id string) (*stripe.Subscription, error)
	UpdateSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	PreviewInvoice(params *stripe.InvoiceCreatePreviewParams) (*stripe.Invoice, error)
}

type stripeAPI struct{}

func (stripeAPI) CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	return customerpkg.New(params)
}

func (stripeAPI) GetCustomer(id string) (*stripe.Customer, error) {
	return customerpkg.Get(id, nil)
}

func (stripeAPI) GetSubscription(id string) (*stripe.Subscription, error) {
	return subscriptionpkg.Get(id, nil)
}

func (stripeAPI) UpdateSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return subscriptionpkg.Update(id, params)
}

func (stripeAPI) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return checkoutsession.New(params)
}

func (stripeAPI) PreviewInvoice(params *stripe.InvoiceCreatePreviewParams) (*stripe.Invoice, error) {
	return invoicepkg.CreatePreview(params)
}

// BillingInfo is the merged local+remote billing view returned to the
// dashboard. The remote fields are enrichment only and may be absent when
// Stripe is unreachable.
type BillingInfo struct {
	HasSubscription    bool       `json:"has_subscription"`
	SubscriptionType   string     `json:"subscription_type"`
	SubscriptionStatus string     `json:"subscription_status"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	NextBillDate       *time.Time `json:"next_bill_date,omitempty"`
	NextBillAmount     *int64     `json:"next_bill_amount,omitempty"`
	Currency           string     `json:"currency,omitempty"`
}

// StripeService manages the Stripe integration: checkout sessions, webhook
// state synchronization, cancel/reactivate and the billing view.
type StripeService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	api      StripeAPI
	logger   zerolog.Logger
}

// NewStripeService initializes the Stripe key and returns the service with a
// scoped logger.
func NewStripeService(cfg *config.Config, userRepo repository.UserRepository, logger zerolog.Logger) *StripeService {
	stripe.Key = cfg.StripeSecretKey
	lg := logger.With().Str("service", "StripeService").Logger()
	return &StripeService{cfg: cfg, userRepo: userRepo, api: stripeAPI{}, logger: lg}
}

// WithAPI replaces the remote Stripe calls. Used by tests.
func (s *StripeService) WithAPI(api StripeAPI) *StripeService {
	s.api = api
	return s
}

// CreateCustomer creates a new Stripe customer for a user and persists the
// returned ID before anything else happens. A failure here aborts checkout.
func (s *StripeService) CreateCustomer(ctx context.Context, user *model.User) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(user.Email),
		Name:     stripe.String(user.Name),
		Metadata: map[string]string{"user_id": user.UserID},
	}
	cust, err := s.api.CreateCustomer(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to create Stripe customer")
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	if err := s.userRepo.UpdateStripeCustomerID(ctx, user.UserID, cust.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to store stripe customer id")
		return "", fmt.Errorf("store stripe customer id: %w", err)
	}
	return cust.ID, nil
}

// GetOrCreateCustomer ensures a Stripe customer exists for a user. The ID is
// set once on first checkout and reused for every later call.
func (s *StripeService) GetOrCreateCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}
	return s.CreateCustomer(ctx, user)
}

// CreateCheckoutSession creates a hosted Stripe Checkout session for the
// given billing interval and returns its URL. The caller redirects the
// browser; completion comes back asynchronously via webhook.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID, interval string) (string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for checkout session")
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("user not found: %s", userID)
	}

	var priceID string
	switch interval {
	case "monthly":
		priceID = s.cfg.StripePriceMonthly
	case "yearly":
		priceID = s.cfg.StripePriceYearly
	default:
		return "", fmt.Errorf("invalid billing interval: %s", interval)
	}

	customerID, err := s.GetOrCreateCustomer(ctx, user)
	if err != nil {
		return "", err
	}

	sessParams := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(stripe.CheckoutSessionModeSubscription),
		SuccessURL:         stripe.String(s.cfg.CheckoutSuccessURL),
		CancelURL:          stripe.String(s.cfg.CheckoutCancelURL),
		Metadata:           map[string]string{"user_id": userID, "interval": interval},
	}
	sess, err := s.api.NewCheckoutSession(sessParams)
	if err != nil {
		s.logger.Error().Err(err).Str("interval", interval).Msg("Failed to create Stripe checkout session")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CancelSubscription flags the user's subscription to cancel at period end.
// The local record is untouched; the provider confirms via webhook later.
func (s *StripeService) CancelSubscription(ctx context.Context, userID string) error {
	return s.setCancelAtPeriodEnd(ctx, userID, true)
}

// ReactivateSubscription clears the cancel-at-period-end flag.
func (s *StripeService) ReactivateSubscription(ctx context.Context, userID string) error {
	return s.setCancelAtPeriodEnd(ctx, userID, false)
}

func (s *StripeService) setCancelAtPeriodEnd(ctx context.Context, userID string, cancel bool) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user not found: %s", userID)
	}
	if user.StripeSubscriptionID == nil || *user.StripeSubscriptionID == "" {
		return ErrNoSubscription
	}
	_, err = s.api.UpdateSubscription(*user.StripeSubscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Bool("cancel", cancel).Msg("Failed to update subscription auto-renewal")
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

// GetBillingInfo returns the billing view for a user: local subscription
// fields enriched with live period and upcoming-invoice detail from Stripe.
// Remote lookups are best effort; when they fail the enrichment fields are
// simply omitted. Never mutates local state.
func (s *StripeService) GetBillingInfo(ctx context.Context, userID string) (*BillingInfo, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found: %s", userID)
	}

	info := &BillingInfo{
		SubscriptionType:   user.SubscriptionType,
		SubscriptionStatus: user.SubscriptionStatus,
	}
	if user.StripeSubscriptionID == nil || *user.StripeSubscriptionID == "" {
		return info, nil
	}
	info.HasSubscription = true
	if user.SubscriptionEndsAt != nil {
		end := *user.SubscriptionEndsAt
		info.CurrentPeriodEnd = &end
	}

	sub, err := s.api.GetSubscription(*user.StripeSubscriptionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to fetch subscription for billing view")
		return info, nil
	}
	info.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if len(sub.Items.Data) > 0 {
		end := time.Unix(sub.Items.Data[0].CurrentPeriodEnd, 0)
		info.CurrentPeriodEnd = &end
	}

	// Upcoming invoice preview is purely decorative on the billing screen.
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" && !sub.CancelAtPeriodEnd {
		preview, err := s.api.PreviewInvoice(&stripe.InvoiceCreatePreviewParams{
			Customer:     stripe.String(*user.StripeCustomerID),
			Subscription: stripe.String(*user.StripeSubscriptionID),
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to preview upcoming invoice")
		} else {
			amount := preview.AmountDue
			info.NextBillAmount = &amount
			info.Currency = string(preview.Currency)
			if preview.NextPaymentAttempt > 0 {
				next := time.Unix(preview.NextPaymentAttempt, 0)
				info.NextBillDate = &next
			} else if preview.PeriodEnd > 0 {
				next := time.Unix(preview.PeriodEnd, 0)
				info.NextBillDate = &next
			}
		}
	}
	return info, nil
}

// HandleWebhook processes Stripe webhook events. Signature failures are
// permanent 400s; processing errors return 5xx so Stripe retries; events that
// reference no known user are acknowledged as no-ops so Stripe stops
// retrying them. Every state write is an unconditional field-set keyed by
// user ID, which makes redelivery idempotent.
func (s *StripeService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(payload, sig, s.cfg.StripeWebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}
	s.logger.Info().Str("event_type", string(event.Type)).Str("event_id", event.ID).Msg("Stripe webhook received")

	ctx := r.Context()
	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			s.logger.Error().Err(err).Msg("Invalid checkout.session data")
			http.Error(w, "invalid checkout.session data", http.StatusBadRequest)
			return
		}
		userID := cs.Metadata["user_id"]
		if userID == "" || cs.Subscription == nil || cs.Subscription.ID == "" {
			// One-time payments and foreign sessions are none of our business.
			s.logger.Warn().Str("session_id", cs.ID).Msg("checkout.session.completed without user metadata or subscription, ignoring")
			break
		}
		user, err := s.userRepo.GetUserByID(ctx, userID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user on checkout.session.completed")
			http.Error(w, "failed to fetch user", http.StatusInternalServerError)
			return
		}
		if user == nil {
			s.logger.Warn().Str("user_id", userID).Msg("checkout.session.completed for unknown user, ignoring")
			break
		}
		if err := s.userRepo.ActivateSubscription(ctx, userID, cs.Subscription.ID); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to activate subscription on checkout.session.completed")
			http.Error(w, "failed to activate subscription", http.StatusInternalServerError)
			return
		}

	case "invoice.paid":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			s.logger.Error().Err(err).Msg("Invalid invoice.paid payload")
			http.Error(w, "invalid invoice data", http.StatusBadRequest)
			return
		}
		subID := subscriptionIDFromInvoice(&invoice)
		if subID == "" {
			s.logger.Info().Str("invoice_id", invoice.ID).Msg("Invoice has no subscription, skipping")
			break
		}
		sub, err := s.api.GetSubscription(subID)
		if err != nil {
			s.logger.Error().Err(err).Str("subscription_id", subID).Msg("Failed to fetch subscription details")
			http.Error(w, "failed to fetch subscription details", http.StatusInternalServerError)
			return
		}
		if len(sub.Items.Data) == 0 {
			s.logger.Error().Str("subscription_id", subID).Msg("Subscription has no items")
			http.Error(w, "subscription has no items", http.StatusInternalServerError)
			return
		}
		periodEnd := time.Unix(sub.Items.Data[0].CurrentPeriodEnd, 0)

		user, handled := s.resolveUser(ctx, w, customerIDFromInvoice(&invoice))
		if handled {
			return
		}
		if user == nil {
			break
		}
		if err := s.userRepo.RenewSubscription(ctx, user.UserID, periodEnd); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to renew subscription on invoice.paid")
			http.Error(w, "failed to renew subscription", http.StatusInternalServerError)
			return
		}

	case "customer.subscription.deleted":
		var ss stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &ss); err != nil {
			s.logger.Error().Err(err).Msg("Invalid customer.subscription.deleted payload")
			http.Error(w, "invalid subscription data", http.StatusBadRequest)
			return
		}
		user, handled := s.resolveUser(ctx, w, customerIDFromSubscription(&ss))
		if handled {
			return
		}
		if user == nil {
			break
		}
		if err := s.userRepo.ClearSubscription(ctx, user.UserID); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to downgrade user on customer.subscription.deleted")
			http.Error(w, "failed to downgrade user", http.StatusInternalServerError)
			return
		}

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			s.logger.Error().Err(err).Msg("Invalid invoice.payment_failed payload")
			http.Error(w, "invalid invoice data", http.StatusBadRequest)
			return
		}
		user, handled := s.resolveUser(ctx, w, customerIDFromInvoice(&invoice))
		if handled {
			return
		}
		if user == nil {
			break
		}
		if err := s.userRepo.SetSubscriptionStatus(ctx, user.UserID, model.SubscriptionStatusPastDue); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to mark subscription past_due on invoice.payment_failed")
			http.Error(w, "failed to mark past_due", http.StatusInternalServerError)
			return
		}

	default:
		s.logger.Debug().Str("event_type", string(event.Type)).Msg("Unhandled Stripe webhook event, acknowledging")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

// resolveUser maps a Stripe customer ID to a local user: first through the
// customer's user_id metadata, then through the locally stored customer ID.
// A nil user with handled=false means the event is a stale or foreign
// delivery and must be acknowledged without any write. handled=true means an
// error response has already been written.
func (s *StripeService) resolveUser(ctx context.Context, w http.ResponseWriter, customerID string) (*model.User, bool) {
	if customerID == "" {
		s.logger.Warn().Msg("Webhook event has no customer, ignoring")
		return nil, false
	}

	if cust, err := s.api.GetCustomer(customerID); err != nil {
		s.logger.Warn().Err(err).Str("stripe_customer_id", customerID).Msg("Failed to fetch Stripe customer, falling back to local lookup")
	} else if userID := cust.Metadata["user_id"]; userID != "" {
		user, err := s.userRepo.GetUserByID(ctx, userID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for webhook event")
			http.Error(w, "failed to fetch user", http.StatusInternalServerError)
			return nil, true
		}
		if user == nil {
			s.logger.Warn().Str("user_id", userID).Str("stripe_customer_id", customerID).Msg("Webhook references unknown user, ignoring")
		}
		return user, false
	}

	user, err := s.userRepo.GetUserByStripeCustomerID(ctx, customerID)
	if err != nil {
		s.logger.Error().Err(err).Str("stripe_customer_id", customerID).Msg("Failed to look up user by Stripe customer ID")
		http.Error(w, "failed to fetch user", http.StatusInternalServerError)
		return nil, true
	}
	if user == nil {
		s.logger.Warn().Str("stripe_customer_id", customerID).Msg("Webhook references unknown customer, ignoring")
	}
	return user, false
}

func subscriptionIDFromInvoice(invoice *stripe.Invoice) string {
	if invoice.Lines == nil {
		return ""
	}
	for _, line := range invoice.Lines.Data {
		if line.Subscription != nil && line.Subscription.ID != "" {
			return line.Subscription.ID
		}
	}
	return ""
}

func customerIDFromInvoice(invoice *stripe.Invoice) string {
	if invoice.Customer == nil {
		return ""
	}
	return invoice.Customer.ID
}

func customerIDFromSubscription(ss *stripe.Subscription) string {
	if ss.Customer == nil {
		return ""
	}
	return ss.Customer.ID
}

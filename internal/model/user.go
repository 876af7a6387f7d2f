package model

import "time"

// Subscription tiers.
const (
	SubscriptionTypeFree = "free"
	SubscriptionTypePro  = "pro"
)

// Subscription statuses as reported by billing webhooks.
const (
	SubscriptionStatusInactive = "inactive"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// User represents an account in the system. The subscription fields are
// written by the Stripe webhook flow; user-facing endpoints only read them.
type User struct {
	UserID               string     `db:"user_id" json:"user_id"`
	Name                 string     `db:"name" json:"name"`
	Email                string     `db:"email" json:"email"`
	SubscriptionType     string     `db:"subscription_type" json:"subscription_type"`
	SubscriptionStatus   string     `db:"subscription_status" json:"subscription_status"`
	StripeCustomerID     *string    `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string    `db:"stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	SubscriptionEndsAt   *time.Time `db:"subscription_ends_at" json:"subscription_ends_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// IsPro reports whether the user is entitled to paid features. Pro plan with
// an active subscription is the sole qualifying combination; past_due,
// canceled and inactive all fall back to the free tier.
func (u *User) IsPro() bool {
	return u.SubscriptionType == SubscriptionTypePro && u.SubscriptionStatus == SubscriptionStatusActive
}

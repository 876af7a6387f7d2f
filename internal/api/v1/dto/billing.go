package dto

import "time"

// CheckoutRequestDTO selects the billing interval for a new checkout session.
type CheckoutRequestDTO struct {
	Interval string `json:"interval" validate:"required,oneof=monthly yearly"`
}

// CheckoutResponseDTO carries the hosted checkout URL to redirect to.
type CheckoutResponseDTO struct {
	URL string `json:"url"`
}

// BillingInfoResponseDTO is the merged local+remote billing view.
type BillingInfoResponseDTO struct {
	HasSubscription    bool       `json:"has_subscription"`
	SubscriptionType   string     `json:"subscription_type"`
	SubscriptionStatus string     `json:"subscription_status"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	NextBillDate       *time.Time `json:"next_bill_date,omitempty"`
	NextBillAmount     *int64     `json:"next_bill_amount,omitempty"`
	Currency           string     `json:"currency,omitempty"`
}

// AckResponseDTO is a bare success acknowledgment.
type AckResponseDTO struct {
	Success bool `json:"success"`
}

// UsageResponseDTO reports current counts against plan limits.
type UsageResponseDTO struct {
	Forms          int  `json:"forms"`
	Submissions    int  `json:"submissions"`
	MaxForms       int  `json:"max_forms"`
	MaxSubmissions int  `json:"max_submissions"`
	CustomBranding bool `json:"custom_branding"`
	SavedContracts bool `json:"saved_contracts"`
	MultiFormFlows bool `json:"multi_form_flows"`
}

package dto

import "time"

// UserResponseDTO is returned in API responses.
type UserResponseDTO struct {
	UserID             string     `json:"user_id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	SubscriptionType   string     `json:"subscription_type"`
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

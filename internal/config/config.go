package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment        string `envconfig:"ENV" default:"development"`
	Port               string `envconfig:"PORT" default:"8080"`
	DBConnectionString string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`

	// Stripe settings. The secret key and webhook secret are fatal to miss:
	// the process must not come up without the ability to verify webhooks.
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	StripePriceMonthly  string `envconfig:"STRIPE_PRICE_MONTHLY" required:"true"`
	StripePriceYearly   string `envconfig:"STRIPE_PRICE_YEARLY" required:"true"`
	CheckoutSuccessURL  string `envconfig:"CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/dashboard?upgraded=true"`
	CheckoutCancelURL   string `envconfig:"CHECKOUT_CANCEL_URL" default:"http://localhost:3000/pricing"`

	// Object storage for generated contracts (any S3-compatible endpoint).
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

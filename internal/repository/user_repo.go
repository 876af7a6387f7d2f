package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clientzap/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository defines methods for accessing user records, including the
// subscription fields written by the billing webhook flow. Lookups return
// (nil, nil) when no row matches so callers can treat a miss as a no-op.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error)
	UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error

	// ActivateSubscription sets the pro plan, active status and the Stripe
	// subscription ID. Unconditional overwrite keyed by user ID.
	ActivateSubscription(ctx context.Context, userID, stripeSubscriptionID string) error
	// RenewSubscription marks the subscription active and refreshes the
	// period end.
	RenewSubscription(ctx context.Context, userID string, endsAt time.Time) error
	// SetSubscriptionStatus updates the status field only.
	SetSubscriptionStatus(ctx context.Context, userID, status string) error
	// ClearSubscription resets the user to the free tier and clears the
	// Stripe subscription ID and period end.
	ClearSubscription(ctx context.Context, userID string) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = `user_id, name, email, subscription_type, subscription_status,
       stripe_customer_id, stripe_subscription_id, subscription_ends_at, created_at, updated_at`

func (r *userRepo) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.SubscriptionType,
		&u.SubscriptionStatus,
		&u.StripeCustomerID,
		&u.StripeSubscriptionID,
		&u.SubscriptionEndsAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	const q = `
        INSERT INTO users (user_id, name, email, subscription_type, subscription_status, created_at, updated_at)
        VALUES ($1, $2, $3, 'free', 'inactive', NOW(), NOW())
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := r.pool.Exec(ctx, q, u.UserID, u.Name, u.Email); err != nil {
		return fmt.Errorf("create user %s: %w", u.UserID, err)
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	u, err := r.scanUser(r.pool.QueryRow(ctx, q, userID))
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", userID, err)
	}
	return u, nil
}

func (r *userRepo) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE stripe_customer_id = $1`
	u, err := r.scanUser(r.pool.QueryRow(ctx, q, customerID))
	if err != nil {
		return nil, fmt.Errorf("fetch user by stripe customer %s: %w", customerID, err)
	}
	return u, nil
}

func (r *userRepo) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	const q = `UPDATE users SET stripe_customer_id = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, q, userID, customerID); err != nil {
		return fmt.Errorf("store stripe customer id for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) ActivateSubscription(ctx context.Context, userID, stripeSubscriptionID string) error {
	const q = `
        UPDATE users
        SET subscription_type = 'pro',
            subscription_status = 'active',
            stripe_subscription_id = $2,
            updated_at = NOW()
        WHERE user_id = $1
    `
	if _, err := r.pool.Exec(ctx, q, userID, stripeSubscriptionID); err != nil {
		return fmt.Errorf("activate subscription for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) RenewSubscription(ctx context.Context, userID string, endsAt time.Time) error {
	const q = `
        UPDATE users
        SET subscription_status = 'active',
            subscription_ends_at = $2,
            updated_at = NOW()
        WHERE user_id = $1
    `
	if _, err := r.pool.Exec(ctx, q, userID, endsAt); err != nil {
		return fmt.Errorf("renew subscription for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) SetSubscriptionStatus(ctx context.Context, userID, status string) error {
	const q = `UPDATE users SET subscription_status = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, q, userID, status); err != nil {
		return fmt.Errorf("set subscription status for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) ClearSubscription(ctx context.Context, userID string) error {
	const q = `
        UPDATE users
        SET subscription_type = 'free',
            subscription_status = 'inactive',
            stripe_subscription_id = NULL,
            subscription_ends_at = NULL,
            updated_at = NOW()
        WHERE user_id = $1
    `
	if _, err := r.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("clear subscription for user %s: %w", userID, err)
	}
	return nil
}

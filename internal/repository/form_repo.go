package repository

import (
	"context"
	"errors"
	"fmt"

	"clientzap/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FormRepository defines methods for accessing forms.
type FormRepository interface {
	CreateForm(ctx context.Context, f *model.Form) error
	GetFormByID(ctx context.Context, formID string) (*model.Form, error)
	GetFormByShareCode(ctx context.Context, shareCode string) (*model.Form, error)
	ListFormsByUser(ctx context.Context, userID string) ([]model.Form, error)
	DeleteForm(ctx context.Context, formID string) error
	CountFormsByUser(ctx context.Context, userID string) (int, error)
	ShareCodeExists(ctx context.Context, shareCode string) (bool, error)
}

type formRepo struct {
	pool *pgxpool.Pool
}

// NewFormRepo creates a new FormRepository.
func NewFormRepo(pool *pgxpool.Pool) FormRepository {
	return &formRepo{pool: pool}
}

const formColumns = `form_id, user_id, name, share_code, created_at, updated_at`

func scanForm(row pgx.Row) (*model.Form, error) {
	var f model.Form
	err := row.Scan(&f.FormID, &f.UserID, &f.Name, &f.ShareCode, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *formRepo) CreateForm(ctx context.Context, f *model.Form) error {
	const q = `
        INSERT INTO forms (form_id, user_id, name, share_code, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
    `
	if _, err := r.pool.Exec(ctx, q, f.FormID, f.UserID, f.Name, f.ShareCode); err != nil {
		return fmt.Errorf("create form for user %s: %w", f.UserID, err)
	}
	return nil
}

func (r *formRepo) GetFormByID(ctx context.Context, formID string) (*model.Form, error) {
	q := `SELECT ` + formColumns + ` FROM forms WHERE form_id = $1`
	f, err := scanForm(r.pool.QueryRow(ctx, q, formID))
	if err != nil {
		return nil, fmt.Errorf("fetch form %s: %w", formID, err)
	}
	return f, nil
}

func (r *formRepo) GetFormByShareCode(ctx context.Context, shareCode string) (*model.Form, error) {
	q := `SELECT ` + formColumns + ` FROM forms WHERE share_code = $1`
	f, err := scanForm(r.pool.QueryRow(ctx, q, shareCode))
	if err != nil {
		return nil, fmt.Errorf("fetch form by share code %s: %w", shareCode, err)
	}
	return f, nil
}

func (r *formRepo) ListFormsByUser(ctx context.Context, userID string) ([]model.Form, error) {
	q := `SELECT ` + formColumns + ` FROM forms WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list forms for user %s: %w", userID, err)
	}
	defer rows.Close()

	var forms []model.Form
	for rows.Next() {
		var f model.Form
		if err := rows.Scan(&f.FormID, &f.UserID, &f.Name, &f.ShareCode, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan form row: %w", err)
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

func (r *formRepo) DeleteForm(ctx context.Context, formID string) error {
	const q = `DELETE FROM forms WHERE form_id = $1`
	if _, err := r.pool.Exec(ctx, q, formID); err != nil {
		return fmt.Errorf("delete form %s: %w", formID, err)
	}
	return nil
}

func (r *formRepo) CountFormsByUser(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM forms WHERE user_id = $1`
	var count int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count forms for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *formRepo) ShareCodeExists(ctx context.Context, shareCode string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM forms WHERE share_code = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, shareCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("check share code %s: %w", shareCode, err)
	}
	return exists, nil
}

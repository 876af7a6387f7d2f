package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"clientzap/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SubmissionRepository defines methods for accessing form submissions.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, s *model.FormSubmission) error
	ListSubmissionsByForm(ctx context.Context, formID string) ([]model.FormSubmission, error)
	// CountSubmissionsByUser counts submissions across all forms owned by the
	// user; the total feeds the free-tier submission cap.
	CountSubmissionsByUser(ctx context.Context, userID string) (int, error)
}

type submissionRepo struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepo creates a new SubmissionRepository.
func NewSubmissionRepo(pool *pgxpool.Pool) SubmissionRepository {
	return &submissionRepo{pool: pool}
}

func (r *submissionRepo) CreateSubmission(ctx context.Context, s *model.FormSubmission) error {
	data, err := json.Marshal(s.Data)
	if err != nil {
		return fmt.Errorf("marshal submission data: %w", err)
	}
	const q = `
        INSERT INTO form_submissions (submission_id, form_id, client_name, client_email, data, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
    `
	if _, err := r.pool.Exec(ctx, q, s.SubmissionID, s.FormID, s.ClientName, s.ClientEmail, data); err != nil {
		return fmt.Errorf("create submission for form %s: %w", s.FormID, err)
	}
	return nil
}

func (r *submissionRepo) ListSubmissionsByForm(ctx context.Context, formID string) ([]model.FormSubmission, error) {
	const q = `
        SELECT submission_id, form_id, client_name, client_email, data, created_at
        FROM form_submissions
        WHERE form_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.pool.Query(ctx, q, formID)
	if err != nil {
		return nil, fmt.Errorf("list submissions for form %s: %w", formID, err)
	}
	defer rows.Close()

	var submissions []model.FormSubmission
	for rows.Next() {
		var s model.FormSubmission
		var raw []byte
		if err := rows.Scan(&s.SubmissionID, &s.FormID, &s.ClientName, &s.ClientEmail, &raw, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		if err := json.Unmarshal(raw, &s.Data); err != nil {
			return nil, fmt.Errorf("unmarshal submission data %s: %w", s.SubmissionID, err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

func (r *submissionRepo) CountSubmissionsByUser(ctx context.Context, userID string) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM form_submissions fs
        JOIN forms f ON f.form_id = fs.form_id
        WHERE f.user_id = $1
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count submissions for user %s: %w", userID, err)
	}
	return count, nil
}

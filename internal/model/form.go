package model

import "time"

// Form is a client intake form owned by a user. Clients reach it through the
// form's share code, not its ID.
type Form struct {
	FormID    string    `db:"form_id" json:"form_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	ShareCode string    `db:"share_code" json:"share_code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FormSubmission is a single client response to a form.
type FormSubmission struct {
	SubmissionID string         `db:"submission_id" json:"submission_id"`
	FormID       string         `db:"form_id" json:"form_id"`
	ClientName   string         `db:"client_name" json:"client_name"`
	ClientEmail  string         `db:"client_email" json:"client_email"`
	Data         map[string]any `db:"data" json:"data"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

package dto

import "time"

// FormCreateDTO is used for incoming form create requests.
type FormCreateDTO struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// FormResponseDTO is returned in API responses.
type FormResponseDTO struct {
	FormID    string    `json:"form_id"`
	Name      string    `json:"name"`
	ShareCode string    `json:"share_code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmissionCreateDTO is an incoming public form submission.
type SubmissionCreateDTO struct {
	ClientName  string         `json:"client_name" validate:"required,min=1,max=200"`
	ClientEmail string         `json:"client_email" validate:"required,email"`
	Data        map[string]any `json:"data"`
}

// SubmissionResponseDTO is returned for recorded submissions.
type SubmissionResponseDTO struct {
	SubmissionID string         `json:"submission_id"`
	FormID       string         `json:"form_id"`
	ClientName   string         `json:"client_name"`
	ClientEmail  string         `json:"client_email"`
	Data         map[string]any `json:"data"`
	CreatedAt    time.Time      `json:"created_at"`
}

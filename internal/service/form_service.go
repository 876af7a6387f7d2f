package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"clientzap/internal/model"
	"clientzap/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Share codes avoid ambiguous characters (0/O, 1/I/L).
const shareCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	shareCodeLength   = 6
	shareCodeAttempts = 5
)

var (
	// ErrFormLimitReached is returned when the user's plan does not allow
	// another form.
	ErrFormLimitReached = errors.New("form limit reached for current plan")
	// ErrSubmissionLimitReached is returned when the form owner's plan does
	// not allow another submission.
	ErrSubmissionLimitReached = errors.New("submission limit reached for current plan")
	// ErrFormNotFound is returned for unknown form IDs or share codes.
	ErrFormNotFound = errors.New("form not found")
)

// Usage summarizes a user's current counts against their plan limits.
type Usage struct {
	Forms       int        `json:"forms"`
	Submissions int        `json:"submissions"`
	Limits      PlanLimits `json:"limits"`
}

// FormService defines form and submission operations.
type FormService interface {
	CreateForm(ctx context.Context, userID, name string) (*model.Form, error)
	GetForm(ctx context.Context, formID string) (*model.Form, error)
	ListForms(ctx context.Context, userID string) ([]model.Form, error)
	DeleteForm(ctx context.Context, userID, formID string) error
	ListSubmissions(ctx context.Context, formID string) ([]model.FormSubmission, error)
	// SubmitForm records a public submission against the form with the given
	// share code, enforcing the owner's submission cap.
	SubmitForm(ctx context.Context, shareCode string, sub *model.FormSubmission) (*model.FormSubmission, error)
	// GetUsage returns the user's current counts and plan limits.
	GetUsage(ctx context.Context, userID string) (*Usage, error)
}

type formService struct {
	formRepo       repository.FormRepository
	submissionRepo repository.SubmissionRepository
	userRepo       repository.UserRepository
	entitlements   *EntitlementService
	logger         zerolog.Logger
}

// NewFormService creates a new FormService with a scoped logger.
func NewFormService(
	formRepo repository.FormRepository,
	submissionRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	entitlements *EntitlementService,
	logger zerolog.Logger,
) FormService {
	return &formService{
		formRepo:       formRepo,
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		entitlements:   entitlements,
		logger:         logger.With().Str("service", "FormService").Logger(),
	}
}

func (s *formService) CreateForm(ctx context.Context, userID, name string) (*model.Form, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found: %s", userID)
	}

	count, err := s.formRepo.CountFormsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count forms: %w", err)
	}
	if !s.entitlements.CanCreateForm(user, count) {
		return nil, ErrFormLimitReached
	}

	shareCode, err := s.generateShareCode(ctx)
	if err != nil {
		return nil, err
	}

	form := &model.Form{
		FormID:    uuid.NewString(),
		UserID:    userID,
		Name:      name,
		ShareCode: shareCode,
	}
	if err := s.formRepo.CreateForm(ctx, form); err != nil {
		return nil, err
	}
	created, err := s.formRepo.GetFormByID(ctx, form.FormID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// generateShareCode draws random 6-character codes until one is unused, with
// a bounded number of attempts.
func (s *formService) generateShareCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < shareCodeAttempts; attempt++ {
		code, err := randomShareCode()
		if err != nil {
			return "", err
		}
		exists, err := s.formRepo.ShareCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check share code: %w", err)
		}
		if !exists {
			return code, nil
		}
		s.logger.Warn().Str("share_code", code).Msg("Share code collision, retrying")
	}
	return "", fmt.Errorf("could not generate a unique share code after %d attempts", shareCodeAttempts)
}

func randomShareCode() (string, error) {
	buf := make([]byte, shareCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = shareCodeAlphabet[int(b)%len(shareCodeAlphabet)]
	}
	return string(buf), nil
}

func (s *formService) GetForm(ctx context.Context, formID string) (*model.Form, error) {
	return s.formRepo.GetFormByID(ctx, formID)
}

func (s *formService) ListForms(ctx context.Context, userID string) ([]model.Form, error) {
	return s.formRepo.ListFormsByUser(ctx, userID)
}

func (s *formService) DeleteForm(ctx context.Context, userID, formID string) error {
	form, err := s.formRepo.GetFormByID(ctx, formID)
	if err != nil {
		return err
	}
	if form == nil || form.UserID != userID {
		return ErrFormNotFound
	}
	return s.formRepo.DeleteForm(ctx, formID)
}

func (s *formService) ListSubmissions(ctx context.Context, formID string) ([]model.FormSubmission, error) {
	return s.submissionRepo.ListSubmissionsByForm(ctx, formID)
}

func (s *formService) SubmitForm(ctx context.Context, shareCode string, sub *model.FormSubmission) (*model.FormSubmission, error) {
	form, err := s.formRepo.GetFormByShareCode(ctx, shareCode)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, ErrFormNotFound
	}

	owner, err := s.userRepo.GetUserByID(ctx, form.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch form owner: %w", err)
	}
	count, err := s.submissionRepo.CountSubmissionsByUser(ctx, form.UserID)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	if !s.entitlements.CanCreateSubmission(owner, count) {
		return nil, ErrSubmissionLimitReached
	}

	sub.SubmissionID = uuid.NewString()
	sub.FormID = form.FormID
	if err := s.submissionRepo.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *formService) GetUsage(ctx context.Context, userID string) (*Usage, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found: %s", userID)
	}
	forms, err := s.formRepo.CountFormsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.submissionRepo.CountSubmissionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Usage{
		Forms:       forms,
		Submissions: submissions,
		Limits:      s.entitlements.Evaluate(user),
	}, nil
}

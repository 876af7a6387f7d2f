package service

import (
	"context"
	"strings"
	"testing"

	"clientzap/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFormService(userRepo *fakeUserRepo) (FormService, *fakeFormRepo, *fakeSubmissionRepo) {
	formRepo := newFakeFormRepo()
	subRepo := newFakeSubmissionRepo(formRepo)
	svc := NewFormService(formRepo, subRepo, userRepo, NewEntitlementService(), zerolog.Nop())
	return svc, formRepo, subRepo
}

func freeUser(id string) *model.User {
	return &model.User{
		UserID:             id,
		SubscriptionType:   model.SubscriptionTypeFree,
		SubscriptionStatus: model.SubscriptionStatusInactive,
	}
}

func proUser(id string) *model.User {
	return &model.User{
		UserID:             id,
		SubscriptionType:   model.SubscriptionTypePro,
		SubscriptionStatus: model.SubscriptionStatusActive,
	}
}

func TestCreateFormGeneratesShareCode(t *testing.T) {
	svc, _, _ := newTestFormService(newFakeUserRepo(freeUser("user-1")))

	form, err := svc.CreateForm(context.Background(), "user-1", "Onboarding questionnaire")
	require.NoError(t, err)
	require.NotNil(t, form)

	assert.Len(t, form.ShareCode, 6)
	for _, c := range form.ShareCode {
		assert.Contains(t, shareCodeAlphabet, string(c), "share code uses the unambiguous alphabet")
	}
	assert.NotContainsf(t, form.ShareCode, "0", "ambiguous characters are excluded")
}

func TestCreateFormEnforcesFreeTierLimit(t *testing.T) {
	svc, _, _ := newTestFormService(newFakeUserRepo(freeUser("user-1")))
	ctx := context.Background()

	_, err := svc.CreateForm(ctx, "user-1", "First form")
	require.NoError(t, err)

	_, err = svc.CreateForm(ctx, "user-1", "Second form")
	assert.ErrorIs(t, err, ErrFormLimitReached)
}

func TestCreateFormUnlimitedForPro(t *testing.T) {
	svc, _, _ := newTestFormService(newFakeUserRepo(proUser("user-1")))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.CreateForm(ctx, "user-1", "Form")
		require.NoError(t, err)
	}
}

func TestCreateFormShareCodeCollisionRetries(t *testing.T) {
	userRepo := newFakeUserRepo(proUser("user-1"))
	formRepo := newFakeFormRepo()
	subRepo := newFakeSubmissionRepo(formRepo)
	svc := NewFormService(formRepo, subRepo, userRepo, NewEntitlementService(), zerolog.Nop())

	// Every candidate collides: generation must give up after the bounded
	// number of attempts instead of looping forever.
	formRepo.existingCodes["*"] = true
	_, err := svc.CreateForm(context.Background(), "user-1", "Form")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share code")
	assert.Equal(t, shareCodeAttempts, formRepo.codeChecks)
}

func TestSubmitFormByShareCode(t *testing.T) {
	svc, _, subRepo := newTestFormService(newFakeUserRepo(freeUser("user-1")))
	ctx := context.Background()

	form, err := svc.CreateForm(ctx, "user-1", "Client intake")
	require.NoError(t, err)

	sub, err := svc.SubmitForm(ctx, form.ShareCode, &model.FormSubmission{
		ClientName:  "Grace",
		ClientEmail: "grace@example.com",
		Data:        map[string]any{"project": "Portfolio site"},
	})
	require.NoError(t, err)
	assert.Equal(t, form.FormID, sub.FormID)
	assert.NotEmpty(t, sub.SubmissionID)
	assert.Len(t, subRepo.submissions, 1)
}

func TestSubmitFormUnknownShareCode(t *testing.T) {
	svc, _, _ := newTestFormService(newFakeUserRepo(freeUser("user-1")))

	_, err := svc.SubmitForm(context.Background(), "ZZZZZZ", &model.FormSubmission{
		ClientName:  "Grace",
		ClientEmail: "grace@example.com",
	})
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestSubmitFormEnforcesOwnerSubmissionCap(t *testing.T) {
	svc, _, _ := newTestFormService(newFakeUserRepo(freeUser("user-1")))
	ctx := context.Background()

	form, err := svc.CreateForm(ctx, "user-1", "Client intake")
	require.NoError(t, err)

	for i := 0; i < FreeMaxSubmissions; i++ {
		_, err := svc.SubmitForm(ctx, form.ShareCode, &model.FormSubmission{
			ClientName:  "Client",
			ClientEmail: "client@example.com",
		})
		require.NoError(t, err)
	}

	_, err = svc.SubmitForm(ctx, form.ShareCode, &model.FormSubmission{
		ClientName:  "One too many",
		ClientEmail: "late@example.com",
	})
	assert.ErrorIs(t, err, ErrSubmissionLimitReached)
}

func TestDeleteFormOwnership(t *testing.T) {
	svc, formRepo, _ := newTestFormService(newFakeUserRepo(freeUser("user-1"), freeUser("user-2")))
	ctx := context.Background()

	form, err := svc.CreateForm(ctx, "user-1", "Client intake")
	require.NoError(t, err)

	// Another user cannot delete it.
	err = svc.DeleteForm(ctx, "user-2", form.FormID)
	assert.ErrorIs(t, err, ErrFormNotFound)
	assert.Len(t, formRepo.forms, 1)

	require.NoError(t, svc.DeleteForm(ctx, "user-1", form.FormID))
	assert.Empty(t, formRepo.forms)
}

func TestGetUsage(t *testing.T) {
	svc, _, _ := newTestFormService(newFakeUserRepo(freeUser("user-1")))
	ctx := context.Background()

	form, err := svc.CreateForm(ctx, "user-1", "Client intake")
	require.NoError(t, err)
	_, err = svc.SubmitForm(ctx, form.ShareCode, &model.FormSubmission{
		ClientName:  "Grace",
		ClientEmail: "grace@example.com",
	})
	require.NoError(t, err)

	usage, err := svc.GetUsage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Forms)
	assert.Equal(t, 1, usage.Submissions)
	assert.Equal(t, FreeMaxForms, usage.Limits.MaxForms)
	assert.Equal(t, FreeMaxSubmissions, usage.Limits.MaxSubmissions)
	assert.False(t, usage.Limits.SavedContracts)
}

func TestRandomShareCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := randomShareCode()
		require.NoError(t, err)
		require.Len(t, code, shareCodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(shareCodeAlphabet, c), "unexpected character %q", c)
		}
	}
}

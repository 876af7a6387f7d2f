package service

import (
	"testing"

	"clientzap/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateProActive(t *testing.T) {
	svc := NewEntitlementService()
	limits := svc.Evaluate(&model.User{
		SubscriptionType:   model.SubscriptionTypePro,
		SubscriptionStatus: model.SubscriptionStatusActive,
	})

	assert.Equal(t, Unlimited, limits.MaxForms)
	assert.Equal(t, Unlimited, limits.MaxSubmissions)
	assert.True(t, limits.CustomBranding)
	assert.True(t, limits.SavedContracts)
	assert.True(t, limits.MultiFormFlows)
}

func TestEvaluateNonProCombinations(t *testing.T) {
	svc := NewEntitlementService()
	free := PlanLimits{MaxForms: FreeMaxForms, MaxSubmissions: FreeMaxSubmissions}

	cases := []struct {
		name string
		user *model.User
	}{
		{"free inactive", &model.User{SubscriptionType: model.SubscriptionTypeFree, SubscriptionStatus: model.SubscriptionStatusInactive}},
		{"free active", &model.User{SubscriptionType: model.SubscriptionTypeFree, SubscriptionStatus: model.SubscriptionStatusActive}},
		{"pro past_due", &model.User{SubscriptionType: model.SubscriptionTypePro, SubscriptionStatus: model.SubscriptionStatusPastDue}},
		{"pro canceled", &model.User{SubscriptionType: model.SubscriptionTypePro, SubscriptionStatus: model.SubscriptionStatusCanceled}},
		{"pro inactive", &model.User{SubscriptionType: model.SubscriptionTypePro, SubscriptionStatus: model.SubscriptionStatusInactive}},
		{"zero value", &model.User{}},
		{"nil user", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, free, svc.Evaluate(tc.user))
		})
	}
}

func TestCanCreateForm(t *testing.T) {
	svc := NewEntitlementService()
	free := &model.User{SubscriptionType: model.SubscriptionTypeFree}
	pro := &model.User{SubscriptionType: model.SubscriptionTypePro, SubscriptionStatus: model.SubscriptionStatusActive}

	assert.True(t, svc.CanCreateForm(free, 0))
	assert.False(t, svc.CanCreateForm(free, FreeMaxForms))
	assert.False(t, svc.CanCreateForm(free, FreeMaxForms+5))
	assert.True(t, svc.CanCreateForm(pro, 10000))
}

func TestCanCreateSubmission(t *testing.T) {
	svc := NewEntitlementService()
	free := &model.User{SubscriptionType: model.SubscriptionTypeFree}
	pro := &model.User{SubscriptionType: model.SubscriptionTypePro, SubscriptionStatus: model.SubscriptionStatusActive}

	assert.True(t, svc.CanCreateSubmission(free, FreeMaxSubmissions-1))
	assert.False(t, svc.CanCreateSubmission(free, FreeMaxSubmissions))
	assert.True(t, svc.CanCreateSubmission(pro, 10000))
}

package service

import "clientzap/internal/model"

// Unlimited indicates no cap for a resource (-1 chosen for SQL compatibility).
const Unlimited = -1

// Free-tier caps.
const (
	FreeMaxForms       = 1
	FreeMaxSubmissions = 3
)

// PlanLimits is the set of caps and feature flags derived from a user's
// current subscription state.
type PlanLimits struct {
	MaxForms       int  `json:"max_forms"`
	MaxSubmissions int  `json:"max_submissions"`
	CustomBranding bool `json:"custom_branding"`
	SavedContracts bool `json:"saved_contracts"`
	MultiFormFlows bool `json:"multi_form_flows"`
}

// EntitlementService evaluates plan limits from a user record. All methods
// are pure: no I/O, no errors, defined for every input.
type EntitlementService struct{}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService() *EntitlementService {
	return &EntitlementService{}
}

// Evaluate maps a user record to its plan limits. Pro users with an active
// subscription get everything; every other combination is the free tier.
func (s *EntitlementService) Evaluate(u *model.User) PlanLimits {
	if u != nil && u.IsPro() {
		return PlanLimits{
			MaxForms:       Unlimited,
			MaxSubmissions: Unlimited,
			CustomBranding: true,
			SavedContracts: true,
			MultiFormFlows: true,
		}
	}
	return PlanLimits{
		MaxForms:       FreeMaxForms,
		MaxSubmissions: FreeMaxSubmissions,
	}
}

// CanCreateForm reports whether the user may create another form given their
// current form count.
func (s *EntitlementService) CanCreateForm(u *model.User, currentFormCount int) bool {
	limits := s.Evaluate(u)
	return limits.MaxForms == Unlimited || currentFormCount < limits.MaxForms
}

// CanCreateSubmission reports whether another submission may be collected for
// the user's forms given their current submission count.
func (s *EntitlementService) CanCreateSubmission(u *model.User, currentSubmissionCount int) bool {
	limits := s.Evaluate(u)
	return limits.MaxSubmissions == Unlimited || currentSubmissionCount < limits.MaxSubmissions
}

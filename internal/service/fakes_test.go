package service

import (
	"context"
	"errors"
	"time"

	"clientzap/internal/model"

	"github.com/stripe/stripe-go/v82"
)

// fakeUserRepo is an in-memory UserRepository mirroring the SQL semantics:
// lookups return (nil, nil) on a miss, create is a no-op for existing IDs and
// all subscription writes are unconditional field-sets.
type fakeUserRepo struct {
	users map[string]*model.User
	// errOn forces an error from the named method, to exercise 5xx paths.
	errOn string
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		cp := *u
		r.users[u.UserID] = &cp
	}
	return r
}

func (r *fakeUserRepo) fail(method string) error {
	if r.errOn == method {
		return errors.New(method + ": forced failure")
	}
	return nil
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error {
	if err := r.fail("CreateUser"); err != nil {
		return err
	}
	if _, ok := r.users[u.UserID]; ok {
		return nil
	}
	now := time.Now()
	r.users[u.UserID] = &model.User{
		UserID:             u.UserID,
		Name:               u.Name,
		Email:              u.Email,
		SubscriptionType:   model.SubscriptionTypeFree,
		SubscriptionStatus: model.SubscriptionStatusInactive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	if err := r.fail("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	if err := r.fail("GetUserByStripeCustomerID"); err != nil {
		return nil, err
	}
	for _, u := range r.users {
		if u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	if err := r.fail("UpdateStripeCustomerID"); err != nil {
		return err
	}
	if u, ok := r.users[userID]; ok {
		u.StripeCustomerID = &customerID
	}
	return nil
}

func (r *fakeUserRepo) ActivateSubscription(ctx context.Context, userID, stripeSubscriptionID string) error {
	if err := r.fail("ActivateSubscription"); err != nil {
		return err
	}
	if u, ok := r.users[userID]; ok {
		u.SubscriptionType = model.SubscriptionTypePro
		u.SubscriptionStatus = model.SubscriptionStatusActive
		u.StripeSubscriptionID = &stripeSubscriptionID
	}
	return nil
}

func (r *fakeUserRepo) RenewSubscription(ctx context.Context, userID string, endsAt time.Time) error {
	if err := r.fail("RenewSubscription"); err != nil {
		return err
	}
	if u, ok := r.users[userID]; ok {
		u.SubscriptionStatus = model.SubscriptionStatusActive
		u.SubscriptionEndsAt = &endsAt
	}
	return nil
}

func (r *fakeUserRepo) SetSubscriptionStatus(ctx context.Context, userID, status string) error {
	if err := r.fail("SetSubscriptionStatus"); err != nil {
		return err
	}
	if u, ok := r.users[userID]; ok {
		u.SubscriptionStatus = status
	}
	return nil
}

func (r *fakeUserRepo) ClearSubscription(ctx context.Context, userID string) error {
	if err := r.fail("ClearSubscription"); err != nil {
		return err
	}
	if u, ok := r.users[userID]; ok {
		u.SubscriptionType = model.SubscriptionTypeFree
		u.SubscriptionStatus = model.SubscriptionStatusInactive
		u.StripeSubscriptionID = nil
		u.SubscriptionEndsAt = nil
	}
	return nil
}

// fakeStripeAPI stubs the remote Stripe calls. Unset functions fail loudly so
// a test cannot silently depend on a call it did not expect.
type fakeStripeAPI struct {
	createCustomer     func(params *stripe.CustomerParams) (*stripe.Customer, error)
	getCustomer        func(id string) (*stripe.Customer, error)
	getSubscription    func(id string) (*stripe.Subscription, error)
	updateSubscription func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	newCheckoutSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	previewInvoice     func(params *stripe.InvoiceCreatePreviewParams) (*stripe.Invoice, error)
}

func (f *fakeStripeAPI) CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	if f.createCustomer == nil {
		return nil, errors.New("unexpected CreateCustomer call")
	}
	return f.createCustomer(params)
}

func (f *fakeStripeAPI) GetCustomer(id string) (*stripe.Customer, error) {
	if f.getCustomer == nil {
		return nil, errors.New("unexpected GetCustomer call")
	}
	return f.getCustomer(id)
}

func (f *fakeStripeAPI) GetSubscription(id string) (*stripe.Subscription, error) {
	if f.getSubscription == nil {
		return nil, errors.New("unexpected GetSubscription call")
	}
	return f.getSubscription(id)
}

func (f *fakeStripeAPI) UpdateSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	if f.updateSubscription == nil {
		return nil, errors.New("unexpected UpdateSubscription call")
	}
	return f.updateSubscription(id, params)
}

func (f *fakeStripeAPI) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if f.newCheckoutSession == nil {
		return nil, errors.New("unexpected NewCheckoutSession call")
	}
	return f.newCheckoutSession(params)
}

func (f *fakeStripeAPI) PreviewInvoice(params *stripe.InvoiceCreatePreviewParams) (*stripe.Invoice, error) {
	if f.previewInvoice == nil {
		return nil, errors.New("unexpected PreviewInvoice call")
	}
	return f.previewInvoice(params)
}

// metadataCustomer returns a GetCustomer stub that maps customer IDs to
// user_id metadata the way the production integration stores them.
func metadataCustomer(mapping map[string]string) func(id string) (*stripe.Customer, error) {
	return func(id string) (*stripe.Customer, error) {
		userID, ok := mapping[id]
		if !ok {
			return nil, errors.New("no such customer: " + id)
		}
		return &stripe.Customer{ID: id, Metadata: map[string]string{"user_id": userID}}, nil
	}
}

// fakeFormRepo is an in-memory FormRepository.
type fakeFormRepo struct {
	forms map[string]*model.Form
	// existingCodes forces share-code collisions.
	existingCodes map[string]bool
	codeChecks    int
}

func newFakeFormRepo() *fakeFormRepo {
	return &fakeFormRepo{forms: make(map[string]*model.Form), existingCodes: make(map[string]bool)}
}

func (r *fakeFormRepo) CreateForm(ctx context.Context, f *model.Form) error {
	now := time.Now()
	cp := *f
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.forms[f.FormID] = &cp
	return nil
}

func (r *fakeFormRepo) GetFormByID(ctx context.Context, formID string) (*model.Form, error) {
	f, ok := r.forms[formID]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFormRepo) GetFormByShareCode(ctx context.Context, shareCode string) (*model.Form, error) {
	for _, f := range r.forms {
		if f.ShareCode == shareCode {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFormRepo) ListFormsByUser(ctx context.Context, userID string) ([]model.Form, error) {
	var out []model.Form
	for _, f := range r.forms {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFormRepo) DeleteForm(ctx context.Context, formID string) error {
	delete(r.forms, formID)
	return nil
}

func (r *fakeFormRepo) CountFormsByUser(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, f := range r.forms {
		if f.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFormRepo) ShareCodeExists(ctx context.Context, shareCode string) (bool, error) {
	r.codeChecks++
	if r.existingCodes["*"] {
		return true, nil
	}
	if r.existingCodes[shareCode] {
		return true, nil
	}
	for _, f := range r.forms {
		if f.ShareCode == shareCode {
			return true, nil
		}
	}
	return false, nil
}

// fakeSubmissionRepo is an in-memory SubmissionRepository. It needs the form
// repo to resolve form ownership for the per-user count.
type fakeSubmissionRepo struct {
	forms       *fakeFormRepo
	submissions []model.FormSubmission
}

func newFakeSubmissionRepo(forms *fakeFormRepo) *fakeSubmissionRepo {
	return &fakeSubmissionRepo{forms: forms}
}

func (r *fakeSubmissionRepo) CreateSubmission(ctx context.Context, s *model.FormSubmission) error {
	cp := *s
	cp.CreatedAt = time.Now()
	r.submissions = append(r.submissions, cp)
	return nil
}

func (r *fakeSubmissionRepo) ListSubmissionsByForm(ctx context.Context, formID string) ([]model.FormSubmission, error) {
	var out []model.FormSubmission
	for _, s := range r.submissions {
		if s.FormID == formID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) CountSubmissionsByUser(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, s := range r.submissions {
		f, _ := r.forms.GetFormByID(ctx, s.FormID)
		if f != nil && f.UserID == userID {
			n++
		}
	}
	return n, nil
}

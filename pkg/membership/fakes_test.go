package membership

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v79"
	"github.com/trailkeepers/membership-engine/pkg/salesforce"
)

type fakeCRM struct {
	createContactCalls     int
	getContactCalls        int
	createOpportunityCalls int
	updateContactCalls     int

	lastContactParams     salesforce.ContactParams
	lastOpportunityParams salesforce.OpportunityParams
	lastUpdateFields      map[string]interface{}

	createContactErr     error
	getContactErr        error
	createOpportunityErr error
	updateContactErr     error

	contactID     string
	accountID     string
	opportunityID string

	contactByEmail *salesforce.Contact
	contactByClerk *salesforce.Contact
	opportunities  []salesforce.Opportunity
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		contactID:     "003AAA",
		accountID:     "001BBB",
		opportunityID: "006CCC",
	}
}

func (f *fakeCRM) CreateContact(_ context.Context, p salesforce.ContactParams) (string, error) {
	f.createContactCalls++
	f.lastContactParams = p
	if f.createContactErr != nil {
		return "", f.createContactErr
	}
	return f.contactID, nil
}

func (f *fakeCRM) GetContact(_ context.Context, id string) (*salesforce.Contact, error) {
	f.getContactCalls++
	if f.getContactErr != nil {
		return nil, f.getContactErr
	}
	return &salesforce.Contact{
		ID:        id,
		AccountID: f.accountID,
		FirstName: f.lastContactParams.FirstName,
		LastName:  f.lastContactParams.LastName,
		Email:     f.lastContactParams.Email,
	}, nil
}

func (f *fakeCRM) CreateOpportunity(_ context.Context, p salesforce.OpportunityParams) (string, error) {
	f.createOpportunityCalls++
	f.lastOpportunityParams = p
	if f.createOpportunityErr != nil {
		return "", f.createOpportunityErr
	}
	return f.opportunityID, nil
}

func (f *fakeCRM) UpdateContact(_ context.Context, id string, fields map[string]interface{}) error {
	f.updateContactCalls++
	f.lastUpdateFields = fields
	return f.updateContactErr
}

func (f *fakeCRM) GetContactByEmail(_ context.Context, email string) (*salesforce.Contact, error) {
	if f.contactByEmail == nil {
		return nil, salesforce.ErrContactNotFound
	}
	return f.contactByEmail, nil
}

func (f *fakeCRM) GetContactByClerkUserID(_ context.Context, clerkUserID string) (*salesforce.Contact, error) {
	if f.contactByClerk == nil {
		return nil, salesforce.ErrContactNotFound
	}
	return f.contactByClerk, nil
}

func (f *fakeCRM) GetOpportunitiesByContact(_ context.Context, contactID string) ([]salesforce.Opportunity, error) {
	return f.opportunities, nil
}

type fakeIdentity struct {
	createUserCalls int
	deleteUserCalls int

	lastEmail    string
	lastPassword string

	createUserErr error
	deleteUserErr error

	userID string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{userID: "user_123"}
}

func (f *fakeIdentity) CreateUser(_ context.Context, email, firstName, lastName, password string) (string, error) {
	f.createUserCalls++
	f.lastEmail = email
	f.lastPassword = password
	if f.createUserErr != nil {
		return "", f.createUserErr
	}
	return f.userID, nil
}

func (f *fakeIdentity) DeleteUser(_ context.Context, userID string) error {
	f.deleteUserCalls++
	return f.deleteUserErr
}

type fakePayments struct {
	createIntentCalls   int
	getIntentCalls      int
	createCustomerCalls int

	createIntentErr error
	getIntentErr    error

	intent   *stripe.PaymentIntent
	customer *stripe.Customer
}

func newFakePayments() *fakePayments {
	return &fakePayments{
		intent: &stripe.PaymentIntent{
			ID:           "pi_123",
			ClientSecret: "pi_123_secret",
			Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
			Amount:       10000,
		},
		customer: &stripe.Customer{ID: "cus_123"},
	}
}

func (f *fakePayments) CreatePaymentIntent(_ context.Context, amountDollars float64, email string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	f.createIntentCalls++
	if f.createIntentErr != nil {
		return nil, f.createIntentErr
	}
	return f.intent, nil
}

func (f *fakePayments) GetPaymentIntent(_ context.Context, id string) (*stripe.PaymentIntent, error) {
	f.getIntentCalls++
	if f.getIntentErr != nil {
		return nil, f.getIntentErr
	}
	return f.intent, nil
}

func (f *fakePayments) CreateCustomer(_ context.Context, email, name string, metadata map[string]string) (*stripe.Customer, error) {
	f.createCustomerCalls++
	return f.customer, nil
}

var errUpstream = errors.New("upstream unavailable")

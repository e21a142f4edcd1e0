package api

import "encoding/json"

// MembershipRequest is the signup payload. EmailOptIn is kept raw so the
// saga can reject non-boolean values with its own message instead of a
// generic bind error.
type MembershipRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`

	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`

	EmailOptIn json.RawMessage `json:"emailOptIn,omitempty"`

	MembershipLevel string `json:"membershipLevel"`
	MembershipTerm  string `json:"membershipTerm"`

	StripeCustomerID      string   `json:"stripeCustomerId,omitempty"`
	StripePaymentIntentID string   `json:"stripePaymentIntentId,omitempty"`
	StripePaymentMethodID string   `json:"stripePaymentMethodId,omitempty"`
	NetAmount             *float64 `json:"netAmount,omitempty"`
	ProcessingFee         *float64 `json:"processingFee,omitempty"`
}

type MembershipContact struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	AccountID   string  `json:"accountId"`
	ClerkUserID *string `json:"clerkUserId"`
}

type MembershipOpportunity struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Amount              float64 `json:"amount"`
	MembershipStartDate string  `json:"membershipStartDate"`
	MembershipEndDate   string  `json:"membershipEndDate"`
}

type MembershipResponse struct {
	Success          bool                  `json:"success"`
	Contact          MembershipContact     `json:"contact"`
	Opportunity      MembershipOpportunity `json:"opportunity"`
	ClerkUserCreated bool                  `json:"clerkUserCreated"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Stage     string `json:"stage,omitempty"`
	ContactID string `json:"contactId,omitempty"`
}

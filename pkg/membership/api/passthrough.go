package api

// CreateContactRequest is the direct contact-creation payload.
type CreateContactRequest struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	EmailOptIn bool   `json:"emailOptIn"`

	StripeCustomerID string `json:"stripeCustomerId,omitempty"`
}

type CreateContactResponse struct {
	ID string `json:"id"`
}

// CreateOpportunityRequest is the direct membership-creation payload.
type CreateOpportunityRequest struct {
	Name                string  `json:"name" validate:"required"`
	AccountID           string  `json:"accountId" validate:"required"`
	ContactID           string  `json:"contactId" validate:"required"`
	Amount              float64 `json:"amount" validate:"required,gt=0"`
	StageName           string  `json:"stageName,omitempty"`
	CloseDate           string  `json:"closeDate,omitempty"`
	MembershipStartDate string  `json:"membershipStartDate" validate:"required"`
	MembershipEndDate   string  `json:"membershipEndDate" validate:"required"`
	MembershipLevel     string  `json:"membershipLevel,omitempty"`
	MembershipTerm      string  `json:"membershipTerm,omitempty"`
}

type CreateOpportunityResponse struct {
	ID string `json:"id"`
}

type CreatePaymentIntentRequest struct {
	Amount   float64           `json:"amount" validate:"required,gt=0"`
	Email    string            `json:"email,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type PaymentIntentResponse struct {
	ID           string   `json:"id"`
	ClientSecret string   `json:"clientSecret,omitempty"`
	Status       string   `json:"status"`
	Amount       float64  `json:"amount"`
	NetAmount    *float64 `json:"netAmount,omitempty"`
	Fee          *float64 `json:"fee,omitempty"`
}

type CreateCustomerRequest struct {
	Email    string            `json:"email" validate:"required,email"`
	Name     string            `json:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type CreateCustomerResponse struct {
	ID string `json:"id"`
}

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Password  string `json:"password,omitempty"`
}

type CreateUserResponse struct {
	UserID string `json:"userId"`
}

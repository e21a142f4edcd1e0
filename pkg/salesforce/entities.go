package salesforce

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	InstanceURL      string `json:"instance_url"`
	TokenType        string `json:"token_type"`
	IssuedAt         string `json:"issued_at"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type createResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

type queryResponse[T any] struct {
	TotalSize int  `json:"totalSize"`
	Done      bool `json:"done"`
	Records   []T  `json:"records"`
}

// Contact is the CRM contact record. AccountId is assigned by the CRM on
// creation, which is why the saga re-fetches the contact after creating it.
type Contact struct {
	ID                string `json:"Id"`
	AccountID         string `json:"AccountId"`
	FirstName         string `json:"FirstName"`
	LastName          string `json:"LastName"`
	Email             string `json:"Email"`
	Phone             string `json:"Phone,omitempty"`
	MailingStreet     string `json:"MailingStreet,omitempty"`
	MailingCity       string `json:"MailingCity,omitempty"`
	MailingState      string `json:"MailingState,omitempty"`
	MailingPostalCode string `json:"MailingPostalCode,omitempty"`
	ClerkUserID       string `json:"Clerk_User_Id__c,omitempty"`
	StripeCustomerID  string `json:"Stripe_Customer_Id__c,omitempty"`
}

// Opportunity is the CRM membership record.
type Opportunity struct {
	ID                  string  `json:"Id"`
	Name                string  `json:"Name"`
	AccountID           string  `json:"AccountId"`
	ContactID           string  `json:"ContactId"`
	Amount              float64 `json:"Amount"`
	StageName           string  `json:"StageName"`
	CloseDate           string  `json:"CloseDate"`
	MembershipStartDate string  `json:"Membership_Start_Date__c"`
	MembershipEndDate   string  `json:"Membership_End_Date__c"`
	MembershipLevel     string  `json:"Membership_Level__c,omitempty"`
	MembershipTerm      string  `json:"Membership_Term__c,omitempty"`
}

// ContactParams are the caller-supplied fields for contact creation.
type ContactParams struct {
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	MailingStreet     string
	MailingCity       string
	MailingState      string
	MailingPostalCode string
	EmailOptIn        bool
	StripeCustomerID  string
}

// OpportunityParams are the caller-supplied fields for membership creation.
type OpportunityParams struct {
	Name                string
	AccountID           string
	ContactID           string
	Amount              float64
	StageName           string
	CloseDate           string
	MembershipStartDate string
	MembershipEndDate   string
	MembershipLevel     string
	MembershipTerm      string
}

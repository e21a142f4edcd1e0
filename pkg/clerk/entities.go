package clerk

type createUserRequest struct {
	EmailAddress []string `json:"email_address"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Password     string   `json:"password,omitempty"`

	// Set on the password path: the email comes from an already-trusted
	// CRM lead, so the provider's own strength checks are skipped.
	SkipPasswordChecks bool `json:"skip_password_checks,omitempty"`

	// Set on the no-password path: the account is created without
	// credentials and the provider drives its own verification flow
	// before first login.
	SkipPasswordRequirement bool `json:"skip_password_requirement,omitempty"`
}

type userResponse struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	EmailAddresses []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

type errorResponse struct {
	Errors []struct {
		Message     string `json:"message"`
		LongMessage string `json:"long_message"`
		Code        string `json:"code"`
	} `json:"errors"`
}

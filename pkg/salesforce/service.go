package salesforce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/trailkeepers/membership-engine/pkg/httpclient"
	"go.uber.org/zap"
)

const (
	apiVersion = "v58.0"

	// tokenExpiryMargin is subtracted from the grant's expires_in so a
	// token is refreshed before the CRM actually rejects it.
	tokenExpiryMargin = 5 * time.Minute

	// defaultTokenLifetime applies when the grant response omits
	// expires_in, which Salesforce does for some org configurations.
	defaultTokenLifetime = 2 * time.Hour
)

type Config struct {
	LoginURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Service is the CRM gateway. It holds the process-wide cached access token;
// the mutex makes the check-then-refresh explicit instead of racing to a
// harmless duplicate token fetch.
type Service struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	token       string
	instanceURL string
	expiresAt   time.Time
}

func New(cfg Config, logger *zap.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// GetAccessToken returns the cached token while it is still valid, otherwise
// performs a password-grant exchange against the CRM token endpoint. The
// instance URL returned by the grant is authoritative for all later calls.
func (s *Service) GetAccessToken(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, s.instanceURL, nil
	}

	if err := s.checkConfig(); err != nil {
		return "", "", err
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("username", s.cfg.Username)
	form.Set("password", s.cfg.Password)

	tokenURL := strings.TrimRight(s.cfg.LoginURL, "/") + "/services/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", &AuthError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := http.Client{Timeout: 15 * time.Second}
	res, err := client.Do(req)
	if err != nil {
		return "", "", &AuthError{Message: err.Error(), Err: err}
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", "", &AuthError{Message: err.Error(), Err: err}
	}

	var resp tokenResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return "", "", &AuthError{Message: fmt.Sprintf("unexpected token response: %s", b), Err: err}
	}

	if res.StatusCode != http.StatusOK || resp.AccessToken == "" {
		msg := resp.ErrorDescription
		if msg == "" {
			msg = fmt.Sprintf("token endpoint returned status %d", res.StatusCode)
		}
		return "", "", &AuthError{Message: msg}
	}

	lifetime := defaultTokenLifetime
	if resp.ExpiresIn > 0 {
		lifetime = time.Duration(resp.ExpiresIn) * time.Second
	}

	s.token = resp.AccessToken
	s.instanceURL = strings.TrimRight(resp.InstanceURL, "/")
	s.expiresAt = s.now().Add(lifetime - tokenExpiryMargin)

	s.logger.Info("Obtained Salesforce access token",
		zap.String("instance_url", s.instanceURL),
		zap.Time("expires_at", s.expiresAt))

	return s.token, s.instanceURL, nil
}

func (s *Service) checkConfig() error {
	var missing []string
	if s.cfg.LoginURL == "" {
		missing = append(missing, "login url")
	}
	if s.cfg.ClientID == "" {
		missing = append(missing, "client id")
	}
	if s.cfg.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if s.cfg.Username == "" {
		missing = append(missing, "username")
	}
	if s.cfg.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// CallAPI resolves a token, issues the request against the CRM instance and
// decodes the JSON response into out. Error payloads are reduced to a single
// message: the first element of an error array, else the error/message field,
// else a generic one.
func (s *Service) CallAPI(ctx context.Context, method, endpoint string, body, out interface{}) error {
	token, instanceURL, err := s.GetAccessToken(ctx)
	if err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return &APIError{Message: fmt.Sprintf("marshal request: %s", err)}
		}
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}

	statusCode, err := httpclient.DoRequest(ctx, method, instanceURL+endpoint, headers, payload, out)
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) {
			return &APIError{StatusCode: statusCode, Message: extractErrorMessage(se.Body)}
		}
		return &APIError{StatusCode: statusCode, Message: err.Error()}
	}
	return nil
}

func extractErrorMessage(body []byte) string {
	var arr []struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
	}
	if err := json.Unmarshal(body, &arr); err == nil && len(arr) > 0 && arr[0].Message != "" {
		return arr[0].Message
	}

	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.Error != "" {
			return obj.Error
		}
		if obj.Message != "" {
			return obj.Message
		}
	}

	return "Salesforce API error"
}

func sobjectPath(object string) string {
	return fmt.Sprintf("/services/data/%s/sobjects/%s", apiVersion, object)
}

// CreateContact creates a CRM contact and returns its id.
func (s *Service) CreateContact(ctx context.Context, p ContactParams) (string, error) {
	fields := map[string]interface{}{
		"FirstName":          p.FirstName,
		"LastName":           p.LastName,
		"Email":              p.Email,
		"HasOptedOutOfEmail": !p.EmailOptIn,
	}
	if p.Phone != "" {
		fields["Phone"] = p.Phone
	}
	if p.MailingStreet != "" {
		fields["MailingStreet"] = p.MailingStreet
	}
	if p.MailingCity != "" {
		fields["MailingCity"] = p.MailingCity
	}
	if p.MailingState != "" {
		fields["MailingState"] = p.MailingState
	}
	if p.MailingPostalCode != "" {
		fields["MailingPostalCode"] = p.MailingPostalCode
	}
	if p.StripeCustomerID != "" {
		fields["Stripe_Customer_Id__c"] = p.StripeCustomerID
	}

	var resp createResponse
	if err := s.CallAPI(ctx, http.MethodPost, sobjectPath("Contact"), fields, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// GetContact fetches a contact by id, including the CRM-assigned AccountId.
func (s *Service) GetContact(ctx context.Context, id string) (*Contact, error) {
	var c Contact
	if err := s.CallAPI(ctx, http.MethodGet, sobjectPath("Contact")+"/"+url.PathEscape(id), nil, &c); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetContactByEmail looks a contact up by email address.
func (s *Service) GetContactByEmail(ctx context.Context, email string) (*Contact, error) {
	soql := fmt.Sprintf("SELECT Id, AccountId, FirstName, LastName, Email, Phone, Clerk_User_Id__c, Stripe_Customer_Id__c FROM Contact WHERE Email = '%s' LIMIT 1", escapeSOQL(email))
	return s.queryContact(ctx, soql)
}

// GetContactByClerkUserID looks a contact up by its identity-provider
// back-reference.
func (s *Service) GetContactByClerkUserID(ctx context.Context, clerkUserID string) (*Contact, error) {
	soql := fmt.Sprintf("SELECT Id, AccountId, FirstName, LastName, Email, Phone, Clerk_User_Id__c, Stripe_Customer_Id__c FROM Contact WHERE Clerk_User_Id__c = '%s' LIMIT 1", escapeSOQL(clerkUserID))
	return s.queryContact(ctx, soql)
}

func (s *Service) queryContact(ctx context.Context, soql string) (*Contact, error) {
	var resp queryResponse[Contact]
	if err := s.CallAPI(ctx, http.MethodGet, queryPath(soql), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Records) == 0 {
		return nil, ErrContactNotFound
	}
	return &resp.Records[0], nil
}

// UpdateContact patches the given fields on a contact.
func (s *Service) UpdateContact(ctx context.Context, id string, fields map[string]interface{}) error {
	return s.CallAPI(ctx, http.MethodPatch, sobjectPath("Contact")+"/"+url.PathEscape(id), fields, nil)
}

// CreateOpportunity creates a membership opportunity and returns its id.
func (s *Service) CreateOpportunity(ctx context.Context, p OpportunityParams) (string, error) {
	fields := map[string]interface{}{
		"Name":                     p.Name,
		"AccountId":                p.AccountID,
		"ContactId":                p.ContactID,
		"Amount":                   p.Amount,
		"StageName":                p.StageName,
		"CloseDate":                p.CloseDate,
		"Membership_Start_Date__c": p.MembershipStartDate,
		"Membership_End_Date__c":   p.MembershipEndDate,
	}
	if p.MembershipLevel != "" {
		fields["Membership_Level__c"] = p.MembershipLevel
	}
	if p.MembershipTerm != "" {
		fields["Membership_Term__c"] = p.MembershipTerm
	}

	var resp createResponse
	if err := s.CallAPI(ctx, http.MethodPost, sobjectPath("Opportunity"), fields, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// GetOpportunitiesByContact lists the membership opportunities attached to a
// contact.
func (s *Service) GetOpportunitiesByContact(ctx context.Context, contactID string) ([]Opportunity, error) {
	soql := fmt.Sprintf("SELECT Id, Name, AccountId, ContactId, Amount, StageName, CloseDate, Membership_Start_Date__c, Membership_End_Date__c, Membership_Level__c, Membership_Term__c FROM Opportunity WHERE ContactId = '%s' ORDER BY CloseDate DESC", escapeSOQL(contactID))

	var resp queryResponse[Opportunity]
	if err := s.CallAPI(ctx, http.MethodGet, queryPath(soql), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func queryPath(soql string) string {
	return fmt.Sprintf("/services/data/%s/query?q=%s", apiVersion, url.QueryEscape(soql))
}

func escapeSOQL(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

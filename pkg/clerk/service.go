package clerk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/trailkeepers/membership-engine/pkg/httpclient"
	"go.uber.org/zap"
)

const DefaultAPIURL = "https://api.clerk.com"

// ErrUserNotFound is returned when the provider reports 404 on delete.
var ErrUserNotFound = errors.New("user not found")

// Error wraps an identity-provider failure.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Service wraps the identity provider's admin API.
type Service struct {
	apiURL    string
	secretKey string
	logger    *zap.Logger
}

func New(apiURL, secretKey string, logger *zap.Logger) *Service {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Service{
		apiURL:    strings.TrimRight(apiURL, "/"),
		secretKey: secretKey,
		logger:    logger,
	}
}

// CreateUser creates an identity-provider account and returns the new user
// id. A non-empty password is set directly with the provider's strength
// checks skipped; without one the account is created credential-less and the
// provider requires its own verification flow before first login.
func (s *Service) CreateUser(ctx context.Context, email, firstName, lastName, password string) (string, error) {
	req := createUserRequest{
		EmailAddress: []string{email},
		FirstName:    firstName,
		LastName:     lastName,
	}
	if password != "" {
		req.Password = password
		req.SkipPasswordChecks = true
	} else {
		req.SkipPasswordRequirement = true
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", &Error{Message: fmt.Sprintf("Failed to create user: %s", err)}
	}

	var resp userResponse
	_, err = httpclient.DoRequest(ctx, http.MethodPost, s.apiURL+"/v1/users", s.headers(), payload, &resp)
	if err != nil {
		return "", &Error{Message: fmt.Sprintf("Failed to create user: %s", upstreamMessage(err))}
	}

	s.logger.Info("Created identity provider user",
		zap.String("user_id", resp.ID),
		zap.String("email", email))

	return resp.ID, nil
}

// DeleteUser deletes an identity-provider account.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	statusCode, err := httpclient.DoRequest(ctx, http.MethodDelete, s.apiURL+"/v1/users/"+url.PathEscape(userID), s.headers(), nil, nil)
	if err != nil {
		if statusCode == http.StatusNotFound {
			return ErrUserNotFound
		}
		return &Error{Message: fmt.Sprintf("Failed to delete user: %s", upstreamMessage(err))}
	}

	s.logger.Info("Deleted identity provider user", zap.String("user_id", userID))
	return nil
}

func (s *Service) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + s.secretKey,
	}
}

func upstreamMessage(err error) string {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		var resp errorResponse
		if jserr := json.Unmarshal(se.Body, &resp); jserr == nil && len(resp.Errors) > 0 {
			if m := resp.Errors[0].LongMessage; m != "" {
				return m
			}
			if m := resp.Errors[0].Message; m != "" {
				return m
			}
		}
		return "unknown identity provider error"
	}
	return err.Error()
}

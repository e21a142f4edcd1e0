package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type crmMock struct {
	server *httptest.Server

	tokenCalls int
	apiCalls   int

	tokenStatus int
	tokenBody   func(instanceURL string) interface{}

	handle func(w http.ResponseWriter, r *http.Request)
}

func newCRMMock() *crmMock {
	m := &crmMock{
		tokenStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/services/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		m.tokenCalls++

		r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(m.tokenStatus)

		body := m.tokenBody
		if body == nil {
			body = func(instanceURL string) interface{} {
				return map[string]interface{}{
					"access_token": fmt.Sprintf("tok-%d", m.tokenCalls),
					"instance_url": instanceURL,
					"token_type":   "Bearer",
					"expires_in":   7200,
				}
			}
		}
		json.NewEncoder(w).Encode(body(m.server.URL))
	})
	mux.HandleFunc("/services/data/", func(w http.ResponseWriter, r *http.Request) {
		m.apiCalls++
		if m.handle != nil {
			m.handle(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})

	m.server = httptest.NewServer(mux)
	return m
}

func (m *crmMock) service() *Service {
	return New(Config{
		LoginURL:     m.server.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		Username:     "user@example.com",
		Password:     "password",
	}, zap.NewNop())
}

func TestGetAccessTokenCached(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()
	s := m.service()

	ctx := context.Background()
	token, instanceURL, err := s.GetAccessToken(ctx)
	require.NoError(err)
	require.Equal("tok-1", token)
	require.Equal(m.server.URL, instanceURL)

	token, _, err = s.GetAccessToken(ctx)
	require.NoError(err)
	require.Equal("tok-1", token)
	require.Equal(1, m.tokenCalls, "second call should use the cache")
}

func TestGetAccessTokenRefreshesAfterExpiry(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()
	s := m.service()

	now := time.Now()
	s.now = func() time.Time { return now }

	ctx := context.Background()
	_, _, err := s.GetAccessToken(ctx)
	require.NoError(err)

	// Just inside the 5-minute safety margin.
	now = now.Add(2*time.Hour - 4*time.Minute)

	token, _, err := s.GetAccessToken(ctx)
	require.NoError(err)
	require.Equal("tok-2", token)
	require.Equal(2, m.tokenCalls)
}

func TestGetAccessTokenMissingConfig(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()

	s := New(Config{LoginURL: m.server.URL, ClientID: "client"}, zap.NewNop())

	_, _, err := s.GetAccessToken(context.Background())

	var cfgErr *ConfigError
	require.ErrorAs(err, &cfgErr)
	require.Contains(cfgErr.Missing, "client secret")
	require.Contains(cfgErr.Missing, "username")
	require.Contains(cfgErr.Missing, "password")
	require.Zero(m.tokenCalls, "no token exchange with incomplete config")
}

func TestGetAccessTokenAuthError(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()
	m.tokenStatus = http.StatusBadRequest
	m.tokenBody = func(string) interface{} {
		return map[string]string{
			"error":             "invalid_grant",
			"error_description": "authentication failure",
		}
	}

	s := m.service()
	_, _, err := s.GetAccessToken(context.Background())

	var authErr *AuthError
	require.ErrorAs(err, &authErr)
	require.Equal("authentication failure", authErr.Message)
}

func TestCallAPIErrorShapes(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"error array", `[{"message":"duplicate value found","errorCode":"DUPLICATE_VALUE"}]`, "duplicate value found"},
		{"error field", `{"error":"bad request"}`, "bad request"},
		{"message field", `{"message":"something broke"}`, "something broke"},
		{"unrecognized body", `oops`, "Salesforce API error"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require := require.New(t)

			m := newCRMMock()
			defer m.server.Close()
			m.handle = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(c.body))
			}

			s := m.service()
			err := s.CallAPI(context.Background(), http.MethodGet, "/services/data/v58.0/sobjects/Contact/003X", nil, nil)

			var apiErr *APIError
			require.ErrorAs(err, &apiErr)
			require.Equal(c.message, apiErr.Message)
		})
	}
}

func TestCreateContact(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()

	var gotAuth string
	var gotFields map[string]interface{}
	m.handle = func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotFields)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"003NEW","success":true,"errors":[]}`))
	}

	s := m.service()
	id, err := s.CreateContact(context.Background(), ContactParams{
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      "jane@example.com",
		EmailOptIn: true,
	})
	require.NoError(err)
	require.Equal("003NEW", id)
	require.Equal("Bearer tok-1", gotAuth)
	require.Equal(false, gotFields["HasOptedOutOfEmail"])
	require.NotContains(gotFields, "Phone", "empty optional fields are omitted")
}

func TestGetContact(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()
	m.handle = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Id":"003X","AccountId":"001Y","FirstName":"Jane","LastName":"Doe","Email":"jane@example.com"}`))
	}

	s := m.service()
	contact, err := s.GetContact(context.Background(), "003X")
	require.NoError(err)
	require.Equal("001Y", contact.AccountID)
}

func TestGetContactNotFound(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()
	m.handle = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`[{"message":"The requested resource does not exist","errorCode":"NOT_FOUND"}]`))
	}

	s := m.service()
	_, err := s.GetContact(context.Background(), "003MISSING")
	require.ErrorIs(err, ErrContactNotFound)
}

func TestGetContactByEmail(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()

	var gotQuery string
	m.handle = func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"totalSize":1,"done":true,"records":[{"Id":"003X","AccountId":"001Y","Email":"jane@example.com"}]}`))
	}

	s := m.service()
	contact, err := s.GetContactByEmail(context.Background(), "jane@example.com")
	require.NoError(err)
	require.Equal("003X", contact.ID)
	require.Contains(gotQuery, "Email = 'jane@example.com'")
}

func TestGetContactByEmailNoRecords(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()
	m.handle = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"totalSize":0,"done":true,"records":[]}`))
	}

	s := m.service()
	_, err := s.GetContactByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(err, ErrContactNotFound)
}

func TestUpdateContact(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()

	var gotMethod string
	var gotFields map[string]interface{}
	m.handle = func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotFields)
		w.WriteHeader(http.StatusNoContent)
	}

	s := m.service()
	err := s.UpdateContact(context.Background(), "003X", map[string]interface{}{
		"Clerk_User_Id__c": "user_123",
	})
	require.NoError(err)
	require.Equal(http.MethodPatch, gotMethod)
	require.Equal("user_123", gotFields["Clerk_User_Id__c"])
}

func TestCreateOpportunity(t *testing.T) {
	require := require.New(t)

	m := newCRMMock()
	defer m.server.Close()

	var gotFields map[string]interface{}
	m.handle = func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotFields)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"006NEW","success":true,"errors":[]}`))
	}

	s := m.service()
	id, err := s.CreateOpportunity(context.Background(), OpportunityParams{
		Name:                "Jane Doe - Silver 06/10/2024",
		AccountID:           "001Y",
		ContactID:           "003X",
		Amount:              100,
		StageName:           "Closed Won",
		CloseDate:           "2024-06-10",
		MembershipStartDate: "2024-06-10",
		MembershipEndDate:   "2025-06-10",
	})
	require.NoError(err)
	require.Equal("006NEW", id)
	require.Equal("Closed Won", gotFields["StageName"])
	require.Equal(float64(100), gotFields["Amount"])
}

func TestEscapeSOQL(t *testing.T) {
	require.Equal(t, `O\'Brien`, escapeSOQL("O'Brien"))
}

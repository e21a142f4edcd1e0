package clerk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateUserWithPassword(t *testing.T) {
	require := require.New(t)

	var gotBody map[string]interface{}
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"user_abc","first_name":"Jane","last_name":"Doe"}`))
	}))
	defer server.Close()

	s := New(server.URL, "sk_test_123", zap.NewNop())
	id, err := s.CreateUser(context.Background(), "jane@example.com", "Jane", "Doe", "hunter2hunter2")
	require.NoError(err)
	require.Equal("user_abc", id)
	require.Equal("Bearer sk_test_123", gotAuth)

	require.Equal([]interface{}{"jane@example.com"}, gotBody["email_address"])
	require.Equal("hunter2hunter2", gotBody["password"])
	require.Equal(true, gotBody["skip_password_checks"])
	require.NotContains(gotBody, "skip_password_requirement")
}

func TestCreateUserWithoutPassword(t *testing.T) {
	require := require.New(t)

	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"user_abc"}`))
	}))
	defer server.Close()

	s := New(server.URL, "sk_test_123", zap.NewNop())
	_, err := s.CreateUser(context.Background(), "jane@example.com", "Jane", "Doe", "")
	require.NoError(err)

	require.NotContains(gotBody, "password")
	require.NotContains(gotBody, "skip_password_checks")
	require.Equal(true, gotBody["skip_password_requirement"])
}

func TestCreateUserUpstreamError(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors":[{"message":"taken","long_message":"That email address is taken.","code":"form_identifier_exists"}]}`))
	}))
	defer server.Close()

	s := New(server.URL, "sk_test_123", zap.NewNop())
	_, err := s.CreateUser(context.Background(), "jane@example.com", "Jane", "Doe", "")

	var cErr *Error
	require.ErrorAs(err, &cErr)
	require.Equal("Failed to create user: That email address is taken.", cErr.Message)
}

func TestCreateUserUpstreamErrorWithoutMessage(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	s := New(server.URL, "sk_test_123", zap.NewNop())
	_, err := s.CreateUser(context.Background(), "jane@example.com", "Jane", "Doe", "")

	var cErr *Error
	require.ErrorAs(err, &cErr)
	require.Equal("Failed to create user: unknown identity provider error", cErr.Message)
}

func TestDeleteUser(t *testing.T) {
	require := require.New(t)

	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"user_abc","deleted":true}`))
	}))
	defer server.Close()

	s := New(server.URL, "sk_test_123", zap.NewNop())
	require.NoError(s.DeleteUser(context.Background(), "user_abc"))
	require.Equal(http.MethodDelete, gotMethod)
	require.Equal("/v1/users/user_abc", gotPath)
}

func TestDeleteUserNotFound(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[{"message":"not found"}]}`))
	}))
	defer server.Close()

	s := New(server.URL, "sk_test_123", zap.NewNop())
	err := s.DeleteUser(context.Background(), "user_missing")
	require.ErrorIs(err, ErrUserNotFound)
}

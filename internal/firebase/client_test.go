package firebase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientVerify(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:lookup" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"users":[{"localId":"abc123","email":"a@x.com","displayName":"Alice","emailVerified":"true"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(nil, server.URL, "test-key", 0)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	identity, err := client.Verify(context.Background(), "some-id-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UID != "abc123" {
		t.Errorf("UID = %q, want abc123", identity.UID)
	}
	if identity.Email != "a@x.com" || identity.DisplayName != "Alice" {
		t.Errorf("unexpected identity: %+v", identity)
	}
	if !identity.EmailVerified {
		t.Error("expected EmailVerified")
	}
}

func TestClientVerifyDisplayNameFallsBackToEmail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"users":[{"localId":"abc123","email":"a@x.com","emailVerified":"false"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(nil, server.URL, "test-key", 0)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	identity, err := client.Verify(context.Background(), "some-id-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.DisplayName != "a@x.com" {
		t.Errorf("DisplayName = %q, want email fallback", identity.DisplayName)
	}
	if identity.EmailVerified {
		t.Error("expected EmailVerified false")
	}
}

func TestClientVerifyFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		token   string
		network bool
	}{
		{
			name:  "empty token",
			token: "",
		},
		{
			name:   "provider rejects token",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"INVALID_ID_TOKEN"}}`,
			token:  "bad-token",
		},
		{
			name:   "zero matched accounts",
			status: http.StatusOK,
			body:   `{"users":[]}`,
			token:  "orphan-token",
		},
		{
			name:   "account without subject",
			status: http.StatusOK,
			body:   `{"users":[{"email":"a@x.com"}]}`,
			token:  "subjectless-token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(nil, server.URL, "test-key", 0)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			_, err = client.Verify(context.Background(), tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestClientVerifyEmptyTokenSkipsNetwork(t *testing.T) {
	t.Parallel()

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, err := NewClient(nil, server.URL, "test-key", 0)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Verify(context.Background(), "   "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if called {
		t.Error("lookup endpoint should not be called for an empty token")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(nil, "", "key", 0); err == nil {
		t.Error("expected error for missing base url")
	}
	if _, err := NewClient(nil, "http://127.0.0.1:9099", "", 0); err == nil {
		t.Error("expected error for missing api key")
	}
}

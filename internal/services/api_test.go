package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/flavor/internal/shared"
	tu "github.com/desertthunder/flavor/internal/testing"
)

// loggedIn returns a credential store holding an opaque token for user 7.
func loggedIn(t *testing.T) *shared.Credentials {
	t.Helper()
	creds := shared.NewCredentials("")
	if err := creds.Set("test-token", "refresh"); err != nil {
		t.Fatalf("failed to set credentials: %v", err)
	}
	if err := creds.SetUserID(7); err != nil {
		t.Fatalf("failed to set user id: %v", err)
	}
	return creds
}

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient, nil)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil, nil)

			if srv.BaseURL() != defaultBaseURL {
				t.Errorf("expected default baseURL %s, got %s", defaultBaseURL, srv.BaseURL())
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Authentication", func(t *testing.T) {
		t.Run("Missing Credential Fails Before I/O", func(t *testing.T) {
			var called atomic.Bool
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called.Store(true)
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, shared.NewCredentials(""))
			_, err := srv.Get(context.Background(), "/recipes")

			var authErr *shared.AuthenticationError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthenticationError, got %v", err)
			}
			if called.Load() {
				t.Error("no request should reach the server without a credential")
			}
		})

		t.Run("Nil Store", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil, nil)
			if _, err := srv.Get(context.Background(), "/x"); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if _, err := srv.CurrentUserID(); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Bearer And Request ID Headers", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
					t.Errorf("expected bearer header, got %q", got)
				}
				if r.Header.Get("X-Request-Id") == "" {
					t.Error("expected X-Request-Id header")
				}
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, loggedIn(t))
			if _, err := srv.Get(context.Background(), "/x"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})

		t.Run("Unauthorized Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message":"Unauthorized"}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, loggedIn(t))
			err := srv.doJSON(context.Background(), "list recipes", http.MethodGet, "/recipes", nil, nil)

			if !errors.Is(err, shared.ErrNotAuthenticated) || !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected authentication and remote error, got %v", err)
			}
		})
	})

	t.Run("Remote Errors", func(t *testing.T) {
		tests := []struct {
			name    string
			body    string
			message string
		}{
			{"String Message", `{"message":"Recipe not found"}`, "Recipe not found"},
			{"List Message", `{"message":["name should not be empty","bad rating"]}`, "name should not be empty; bad rating"},
			{"No Message", `not json`, ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusNotFound)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				srv := NewAPIService(server.URL, nil, loggedIn(t))
				err := srv.doJSON(context.Background(), "get recipe", http.MethodGet, "/recipes/1", nil, nil)

				var remote *shared.RemoteError
				if !errors.As(err, &remote) {
					t.Fatalf("expected RemoteError, got %v", err)
				}
				if remote.Status != http.StatusNotFound {
					t.Errorf("expected status 404, got %d", remote.Status)
				}
				if remote.Message != tt.message {
					t.Errorf("expected message %q, got %q", tt.message, remote.Message)
				}
			})
		}
	})

	t.Run("Transport Failures", func(t *testing.T) {
		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed")),
			}

			srv := NewAPIService("http://example.com", client, loggedIn(t))
			if _, err := srv.Get(context.Background(), "/test"); err == nil {
				t.Fatal("expected error for failed request")
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     make(http.Header),
				}, nil),
			}

			srv := NewAPIService("http://example.com", client, loggedIn(t))
			err := srv.doJSON(context.Background(), "list", http.MethodGet, "/test", nil, nil)
			if err == nil {
				t.Fatal("expected error for body read failure")
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(100 * time.Millisecond)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			srv := NewAPIService(server.URL, nil, loggedIn(t))
			if _, err := srv.Get(ctx, "/test"); err == nil {
				t.Fatal("expected error for canceled context")
			}
		})
	})

	t.Run("Rate Limit", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, loggedIn(t), WithRateLimit(20))
		start := time.Now()
		for range 3 {
			if err := srv.doJSON(context.Background(), "list", http.MethodGet, "/x", nil, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if hits.Load() != 3 {
			t.Errorf("expected 3 requests, got %d", hits.Load())
		}
		if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
			t.Errorf("expected pacing of at least 80ms, took %v", elapsed)
		}
	})

	t.Run("Raw Responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				var body map[string]any
				json.NewDecoder(r.Body).Decode(&body)
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(body)
				return
			}
			w.Header().Set("X-Custom", "value")
			w.WriteHeader(http.StatusTeapot)
			w.Write([]byte("plain text"))
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, loggedIn(t))

		resp, err := srv.Get(context.Background(), "/anything")
		if err != nil {
			t.Fatalf("raw requests do not fail on status, got %v", err)
		}
		if resp.StatusCode != http.StatusTeapot || resp.IsJSON || resp.Headers.Get("X-Custom") != "value" {
			t.Errorf("unexpected response %+v", resp)
		}

		resp, err = srv.Post(context.Background(), "/echo", []byte(`{"a":1}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusCreated || !resp.IsJSON {
			t.Errorf("expected JSON echo, got %+v", resp)
		}
	})
}

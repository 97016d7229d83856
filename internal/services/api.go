// API service for making authenticated HTTP requests to the recipe & train backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flavor/internal/shared"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:3001"

// CredentialStore is the bearer credential read on every authenticated call.
//
// [shared.Credentials] is the production implementation.
type CredentialStore interface {
	oauth2.TokenSource
	UserID() (int, bool)
}

// APIService performs requests against the backend. It attaches the bearer credential, paces requests
// and turns non-2xx responses into [shared.RemoteError].
type APIService struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialStore
	limiter     *rate.Limiter
	logger      *log.Logger
}

// Option configures an [APIService].
type Option func(*APIService)

// WithRateLimit caps outgoing requests at rps per second. Zero or less disables pacing.
func WithRateLimit(rps float64) Option {
	return func(a *APIService) {
		if rps <= 0 {
			a.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(a *APIService) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAPIService creates a new API service for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client, credentials CredentialStore, opts ...Option) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  client,
		credentials: credentials,
		limiter:     rate.NewLimiter(rate.Inf, 0),
		logger:      shared.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the backend root the service talks to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// SetLogger swaps the request logger, e.g. when the TUI takes over the terminal.
func (a *APIService) SetLogger(l *log.Logger) {
	if l != nil {
		a.logger = l
	}
}

// CurrentUserID returns the logged-in user's id from the credential store.
func (a *APIService) CurrentUserID() (int, error) {
	if a.credentials == nil {
		return 0, &shared.AuthenticationError{Reason: "no credential store"}
	}
	id, ok := a.credentials.UserID()
	if !ok {
		return 0, &shared.AuthenticationError{Reason: "user id unknown, log in again"}
	}
	return id, nil
}

// token reads the credential. It never touches the network.
func (a *APIService) token() (*oauth2.Token, error) {
	if a.credentials == nil {
		return nil, &shared.AuthenticationError{Reason: "no credential store"}
	}
	tok, err := a.credentials.Token()
	if err != nil {
		var authErr *shared.AuthenticationError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &shared.AuthenticationError{Err: err}
	}
	return tok, nil
}

// newRequest builds a request, attaching the bearer credential when authenticated is set.
//
// A missing credential fails here, before any I/O.
func (a *APIService) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string, authenticated bool) (*http.Request, error) {
	var tok *oauth2.Token
	if authenticated {
		var err error
		if tok, err = a.token(); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if tok != nil {
		tok.SetAuthHeader(req)
	}
	return req, nil
}

// do paces and sends req, returning the body of a 2xx response.
func (a *APIService) do(op string, req *http.Request) ([]byte, error) {
	if err := a.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.logger.Debug("request", "op", op, "method", req.Method, "path", req.URL.Path, "request_id", req.Header.Get("X-Request-Id"))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.logger.Warn("request failed", "op", op, "status", resp.StatusCode)
		return nil, remoteError(op, resp.StatusCode, body)
	}
	return body, nil
}

// remoteError maps an error response onto the error taxonomy. A 401 is both an authentication failure and a remote error.
func remoteError(op string, status int, body []byte) error {
	rerr := &shared.RemoteError{Op: op, Status: status, Message: serverMessage(body)}
	if status == http.StatusUnauthorized {
		return &shared.AuthenticationError{Reason: "credential rejected", Err: rerr}
	}
	return rerr
}

// serverMessage extracts the JSON "message" field, which may be a string or a list of strings.
func serverMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Message) == 0 {
		return ""
	}

	var msg string
	if err := json.Unmarshal(payload.Message, &msg); err == nil {
		return msg
	}

	var msgs []string
	if err := json.Unmarshal(payload.Message, &msgs); err == nil {
		return strings.Join(msgs, "; ")
	}
	return ""
}

// doJSON sends an authenticated request with an optional JSON body and decodes the response into result.
func (a *APIService) doJSON(ctx context.Context, op, method, path string, in, result any) error {
	return a.sendJSON(ctx, op, method, path, in, result, true)
}

func (a *APIService) sendJSON(ctx context.Context, op, method, path string, in, result any, authenticated bool) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := a.newRequest(ctx, method, path, body, contentType, authenticated)
	if err != nil {
		return err
	}

	data, err := a.do(op, req)
	if err != nil {
		return err
	}
	return decode(op, data, result)
}

func decode(op string, data []byte, result any) error {
	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs an authenticated GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := a.newRequest(ctx, http.MethodGet, path, nil, "", true)
	if err != nil {
		return nil, err
	}
	return a.raw(req)
}

// Post performs an authenticated POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := a.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json", true)
	if err != nil {
		return nil, err
	}
	return a.raw(req)
}

// raw sends req without checking the status, leaving interpretation to the caller.
func (a *APIService) raw(req *http.Request) (*APIResponse, error) {
	if err := a.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

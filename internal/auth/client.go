package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const responseBodyReadLimit int64 = 1 << 20

var errBaseURLRequired = errors.New("auth base url is required")

// Client calls the remote authentication backend. The backend owns
// credentials, token issuance and revocation; this client only proxies.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds an auth backend client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// User is the profile stored alongside the session token.
type User struct {
	ID       string `json:"id,omitempty"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

// SignInResult carries the extracted session data from a sign-in response.
type SignInResult struct {
	Token   string
	User    *User
	Message string
}

type signInBody struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// RegisterInput is forwarded verbatim to the customer registration endpoint.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// SignIn exchanges credentials for a session token. The backend has shipped
// several response shapes over time; token and user are looked up in each
// known location.
func (c *Client) SignIn(ctx context.Context, email, password string, rememberMe bool) (*SignInResult, error) {
	payload, err := c.postJSON(ctx, "/api/Auth/sign-in", signInBody{Email: email, Password: password, RememberMe: rememberMe}, "")
	if err != nil {
		return nil, err
	}

	result := &SignInResult{
		Token:   extractToken(payload),
		Message: extractString(payload, "message"),
	}
	if user := extractUser(payload); user != nil {
		result.User = user
	}
	return result, nil
}

// Register creates a customer account.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	_, err := c.postJSON(ctx, "/api/Auth/customer/register", input, "")
	return err
}

// CurrentUser fetches the profile for the given session token.
func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, token)
	if err != nil {
		return nil, err
	}
	if user := extractUser(raw); user != nil {
		return user, nil
	}
	var direct User
	if err := remarshal(raw, &direct); err == nil && direct.Email != "" {
		return &direct, nil
	}
	return nil, errors.New("auth backend returned no user profile")
}

// Logout revokes the session on the backend. Callers clear local session
// state regardless of the outcome.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.postJSON(ctx, "/api/Auth/logout", struct{}{}, token)
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, body any, token string) (map[string]any, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, encoded, token)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, token string) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling auth backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, fmt.Errorf("reading auth response: %w", err)
	}

	payload := map[string]any{}
	if len(raw) > 0 {
		// Some error responses are plain text; keep the payload empty then.
		_ = json.Unmarshal(raw, &payload)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := extractString(payload, "message")
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return payload, &BackendError{StatusCode: resp.StatusCode, Message: msg}
	}
	return payload, nil
}

// BackendError reports a non-2xx auth backend response.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("auth backend returned status %d: %s", e.StatusCode, e.Message)
}

func extractToken(payload map[string]any) string {
	if token := extractString(payload, "token"); token != "" {
		return token
	}
	for _, key := range []string{"data", "result"} {
		switch nested := payload[key].(type) {
		case string:
			// A bare string result longer than a short status word is the token.
			if len(nested) > 20 {
				return nested
			}
		case map[string]any:
			if token := extractString(nested, "token"); token != "" {
				return token
			}
			if token := extractString(nested, "accessToken"); token != "" {
				return token
			}
		}
	}
	return ""
}

func extractUser(payload map[string]any) *User {
	candidates := []any{payload["user"]}
	for _, key := range []string{"data", "result"} {
		if nested, ok := payload[key].(map[string]any); ok {
			candidates = append(candidates, nested["user"])
		}
	}
	for _, candidate := range candidates {
		nested, ok := candidate.(map[string]any)
		if !ok {
			continue
		}
		var user User
		if err := remarshal(nested, &user); err == nil && (user.Email != "" || user.ID != "") {
			return &user
		}
	}
	return nil
}

func extractString(payload map[string]any, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}

func remarshal(src any, dest any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

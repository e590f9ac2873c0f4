package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/metrics"
)

// Client talks to an external identity service over HTTP. The service owns
// credentials and token issuance; this module only forwards the calls.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type sessionResponse struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewClient creates the remote identity adapter.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

var _ domain.Identity = (*Client)(nil)

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (domain.Session, error) {
	payload := map[string]any{
		"email":        normalizeEmail(email),
		"password":     password,
		"display_name": strings.TrimSpace(displayName),
	}
	var resp sessionResponse
	if err := c.post(ctx, "signup", "/v1/signup", "", payload, &resp); err != nil {
		return domain.Session{}, err
	}
	return sessionFromResponse(resp), nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	payload := map[string]any{
		"email":    normalizeEmail(email),
		"password": password,
	}
	var resp sessionResponse
	if err := c.post(ctx, "signin", "/v1/signin", "", payload, &resp); err != nil {
		return domain.Session{}, err
	}
	return sessionFromResponse(resp), nil
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.post(ctx, "signout", "/v1/signout", token, nil, nil)
}

func (c *Client) Update(ctx context.Context, userID int64, update domain.ProfileUpdate) error {
	payload := map[string]any{
		"display_name": update.DisplayName,
		"locale":       update.Locale,
		"timezone":     update.Timezone,
		"birth_time":   update.BirthTime,
		"birth_place":  update.BirthPlace,
		"location": map[string]any{
			"label":     update.Location.Label,
			"latitude":  update.Location.Latitude,
			"longitude": update.Location.Longitude,
		},
	}
	if update.BirthDate != nil {
		payload["birth_date"] = update.BirthDate.Format(domain.DateLayout)
	}
	endpoint := fmt.Sprintf("/v1/users/%d/profile", userID)
	return c.post(ctx, "update_profile", endpoint, "", payload, nil)
}

func sessionFromResponse(resp sessionResponse) domain.Session {
	return domain.Session{
		UserID:    resp.UserID,
		Email:     resp.Email,
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
	}
}

func (c *Client) post(ctx context.Context, operation, endpoint, bearer string, body any, out any) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		buf = bytes.NewReader(raw)
	}

	resolved := *c.baseURL
	resolved.Path = path.Join(c.baseURL.Path, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resolved.String(), buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("identity", operation, c.baseURL.Host, start, err)
	if err != nil {
		return fmt.Errorf("identity api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		data, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &apiErr)
		}
		if apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(data))
		}
		return mapAPIError(resp.StatusCode, apiErr)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapAPIError(status int, err apiError) error {
	switch err.Code {
	case "email_taken":
		return domain.ErrEmailTaken
	case "invalid_credentials":
		return domain.ErrInvalidCredentials
	case "":
		if status == http.StatusUnauthorized {
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("identity api error: status=%d message=%s", status, err.Error)
	default:
		return fmt.Errorf("identity api error [%s]: %s", err.Code, err.Error)
	}
}

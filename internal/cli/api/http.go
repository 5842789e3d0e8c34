package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"BabyKeeper/internal/cli/repo"
)

// Status classifies the outcome of a wire call. Every network call returns
// one of these instead of burying retryability in error values, so the
// scheduler's retry policy stays a visible decision table.
type Status int

const (
	// StatusOK — 2xx, payload decoded.
	StatusOK Status = iota
	// StatusTransient — network failure, timeout or 5xx; safe to retry.
	StatusTransient
	// StatusUnauthorized — 401; the session credential is gone or stale.
	StatusUnauthorized
	// StatusDenied — 403; the server rejected on permission grounds.
	StatusDenied
	// StatusNotFound — 404; the referenced entity does not exist.
	StatusNotFound
	// StatusInvalid — other 4xx; the request is wrong and retrying is useless.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTransient:
		return "transient"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusDenied:
		return "denied"
	case StatusNotFound:
		return "not_found"
	default:
		return "invalid"
	}
}

func classify(code int) Status {
	switch {
	case code >= 200 && code < 300:
		return StatusOK
	case code == http.StatusUnauthorized:
		return StatusUnauthorized
	case code == http.StatusForbidden:
		return StatusDenied
	case code == http.StatusNotFound:
		return StatusNotFound
	case code >= 500:
		return StatusTransient
	default:
		return StatusInvalid
	}
}

// errorBody is the structured error envelope the server uses for non-2xx.
type errorBody struct {
	Error string `json:"error"`
}

// Client is the HTTP wire client. All calls carry the auth cookie from the
// token store and a bounded timeout.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  repo.TokenStore
}

func NewClient(baseURL string, timeout time.Duration, tokens repo.TokenStore) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) (Status, string) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return StatusInvalid, fmt.Sprintf("encode request: %v", err)
		}
		body = bytes.NewReader(b)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return StatusInvalid, fmt.Sprintf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, err := c.tokens.Load(); err == nil && token != "" {
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and unreachable hosts are retryable by definition.
		return StatusTransient, err.Error()
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	status := classify(resp.StatusCode)
	if status != StatusOK {
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			return status, eb.Error
		}
		return status, fmt.Sprintf("server returned status %d", resp.StatusCode)
	}
	c.persistAuthCookie(resp)
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return StatusInvalid, fmt.Sprintf("decode response: %v", err)
		}
	}
	return StatusOK, ""
}

// persistAuthCookie stores a refreshed auth cookie when the server sets one.
func (c *Client) persistAuthCookie(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name == "auth_token" && ck.Value != "" {
			_ = c.tokens.Save(ck.Value)
		}
	}
}

// Pull fetches change records for a baby after the given cursor.
func (c *Client) Pull(ctx context.Context, babyID string, since int64, limit int) (*PullResponse, Status, string) {
	q := url.Values{}
	q.Set("babyId", babyID)
	q.Set("since", fmt.Sprintf("%d", since))
	q.Set("limit", fmt.Sprintf("%d", limit))
	var out PullResponse
	st, msg := c.do(ctx, http.MethodGet, "/api/sync/pull", q, nil, &out)
	if st != StatusOK {
		return nil, st, msg
	}
	return &out, st, ""
}

// Push sends queued mutations and returns per-mutation results.
func (c *Client) Push(ctx context.Context, req PushRequest) (*PushResponse, Status, string) {
	var out PushResponse
	st, msg := c.do(ctx, http.MethodPost, "/api/sync/push", nil, req, &out)
	if st != StatusOK {
		return nil, st, msg
	}
	return &out, st, ""
}

// Bootstrap fetches the full cold-start snapshot.
func (c *Client) Bootstrap(ctx context.Context) (*BootstrapResponse, Status, string) {
	var out BootstrapResponse
	st, msg := c.do(ctx, http.MethodGet, "/api/sync/bootstrap", nil, nil, &out)
	if st != StatusOK {
		return nil, st, msg
	}
	return &out, st, ""
}

// VerifyAccess asks the server whether the caller still holds a grant on the
// baby. This is the authoritative check behind revocation handling; a push
// 403 alone is not conclusive.
func (c *Client) VerifyAccess(ctx context.Context, babyID string) (*VerifyAccessResponse, Status, string) {
	q := url.Values{}
	q.Set("babyId", babyID)
	var out VerifyAccessResponse
	st, msg := c.do(ctx, http.MethodGet, "/api/babies/verify-access", q, nil, &out)
	if st != StatusOK {
		return nil, st, msg
	}
	return &out, st, ""
}

// CreateBaby registers a new baby on the server; the caller becomes owner.
func (c *Client) CreateBaby(ctx context.Context, name string, birthDate string) (*CreateBabyResponse, Status, string) {
	var out CreateBabyResponse
	st, msg := c.do(ctx, http.MethodPost, "/api/babies", nil, CreateBabyRequest{Name: name, BirthDate: birthDate}, &out)
	if st != StatusOK {
		return nil, st, msg
	}
	return &out, st, ""
}

// Register creates an account; the server sets the auth cookie on success.
func (c *Client) Register(ctx context.Context, email, password string) (Status, string) {
	return c.do(ctx, http.MethodPost, "/api/user/register", nil, credentials{Email: email, Password: password}, nil)
}

// Login authenticates; the server sets the auth cookie on success.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, Status, string) {
	var out LoginResponse
	st, msg := c.do(ctx, http.MethodPost, "/api/user/login", nil, credentials{Email: email, Password: password}, &out)
	if st != StatusOK {
		return nil, st, msg
	}
	return &out, st, ""
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

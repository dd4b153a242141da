package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/bus-tracking/internal/api/dto"
	"github.com/spec-kit/bus-tracking/internal/domain"
	"github.com/spec-kit/bus-tracking/internal/guard"
	"github.com/spec-kit/bus-tracking/internal/session"
	"github.com/spec-kit/bus-tracking/internal/validation"
)

// LoginPath is where the client is sent after its session is revoked.
const LoginPath = guard.LoginPath

// ErrUnauthorized matches every *APIError with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Is reports ErrUnauthorized for 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// SessionStore is the part of session.Store the client depends on.
type SessionStore interface {
	Save(token string, profile domain.Profile) error
	Read() session.Session
	Token() string
	Clear() error
}

// Navigator moves the client to another view.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// RequestInterceptor runs on every outgoing request before it is sent.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor runs on every response before it is decoded. The
// returned error, if any, replaces the result of the call.
type ResponseInterceptor func(req *http.Request, resp *http.Response) error

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient sets the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRequestInterceptor adds a request interceptor. It runs after the bearer
// token is attached, on every request.
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(c *Client) { c.requestInterceptors = append(c.requestInterceptors, i) }
}

// WithResponseInterceptor appends a response interceptor after the built-in one.
func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(c *Client) { c.responseInterceptors = append(c.responseInterceptors, i) }
}

// Client talks to the bus-tracking API on behalf of one signed-in user.
//
// Every 401 is returned to the caller as an *APIError matching
// ErrUnauthorized. The session is cleared and the client sent to LoginPath
// only when the rejected request carried the token that is still stored;
// 401s on unauthenticated calls or for a token already replaced leave the
// session alone.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions SessionStore
	nav      Navigator
	logger   *zap.Logger

	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor

	// revokeMu serializes the clear-and-redirect on 401 with session saves.
	revokeMu sync.Mutex
}

// New builds a Client. sessions and nav are required.
func New(baseURL string, sessions SessionStore, nav Navigator, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		sessions: sessions,
		nav:      nav,
		logger:   zap.NewNop(),
	}
	c.responseInterceptors = []ResponseInterceptor{c.revokeOnUnauthorized}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates a student account and stores the returned session.
// Invalid input is rejected with validation.FieldErrors before any request.
func (c *Client) Register(ctx context.Context, in validation.RegisterInput) (*dto.AuthResponse, error) {
	if fields := in.Check(); fields != nil {
		return nil, fields
	}
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &out, false); err != nil {
		return nil, err
	}
	if err := c.saveSession(out.Token, out.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &out, nil
}

// Login signs in and stores the returned session.
func (c *Client) Login(ctx context.Context, in validation.LoginInput) (*dto.AuthResponse, error) {
	if fields := in.Check(); fields != nil {
		return nil, fields
	}
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out, false); err != nil {
		return nil, err
	}
	if err := c.saveSession(out.Token, out.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &out, nil
}

func (c *Client) saveSession(token string, profile domain.Profile) error {
	c.revokeMu.Lock()
	defer c.revokeMu.Unlock()
	return c.sessions.Save(token, profile)
}

// Me fetches the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*domain.Profile, error) {
	var out dto.UserResponse
	if err := c.Get(ctx, "/api/auth/me", &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Home fetches the role-gated landing payload for role.
func (c *Client) Home(ctx context.Context, role domain.Role) (*dto.RoleHomeResponse, error) {
	var out dto.RoleHomeResponse
	if err := c.Get(ctx, "/api/"+string(role)+"/home", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports the server liveness message.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out dto.HealthResponse
	if err := c.Get(ctx, "/api/health", &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// Logout drops the local session and returns to the login view. The server
// keeps no session state, so no request is made.
func (c *Client) Logout() error {
	err := c.sessions.Clear()
	c.nav.Navigate(LoginPath)
	return err
}

// Session returns the locally stored session.
func (c *Client) Session() session.Session {
	return c.sessions.Read()
}

// Get issues an authenticated GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		c.attachToken(req)
	}
	for _, intercept := range c.requestInterceptors {
		if err := intercept(req); err != nil {
			return err
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("close response body", zap.Error(err))
		}
	}()

	for _, intercept := range c.responseInterceptors {
		if err := intercept(req, resp); err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// attachToken is the built-in request interceptor. Credential endpoints are
// sent without it so a failed sign-in never revokes the current session.
func (c *Client) attachToken(req *http.Request) {
	if token := c.sessions.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// revokeOnUnauthorized clears the session and navigates to the login view
// when the server rejects the token the request carried. Only the first
// response for the stored token acts; later ones find it already gone.
func (c *Client) revokeOnUnauthorized(req *http.Request, resp *http.Response) error {
	if resp.StatusCode != http.StatusUnauthorized {
		return nil
	}
	sent := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
	if sent == "" {
		return nil
	}

	c.revokeMu.Lock()
	defer c.revokeMu.Unlock()
	if c.sessions.Token() != sent {
		return nil
	}
	if err := c.sessions.Clear(); err != nil {
		c.logger.Warn("clear session after 401", zap.Error(err))
	}
	c.logger.Info("session rejected by server; returning to login")
	c.nav.Navigate(LoginPath)
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body dto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Message
		apiErr.Fields = body.Errors
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// Package directory is the HTTP client for the chat server's account
// endpoints: login, registration and the contact list.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhubert/pischat/internal/chat"
	perrors "github.com/zhubert/pischat/internal/errors"
	"github.com/zhubert/pischat/internal/logger"
)

// DefaultTimeout matches the mobile client's request timeout.
const DefaultTimeout = time.Second

// Messages the server sends on success.
const (
	LoginSuccess    = "login success"
	RegisterSuccess = "register success"
)

const (
	msgNoResponse = "No response received from the server"
	msgUnexpected = "An unexpected error occurred"
)

// Kind says how a request failed.
type Kind int

const (
	// KindServer means the server answered with an error payload.
	KindServer Kind = iota + 1
	// KindNoResponse means the request went out but nothing came back.
	KindNoResponse
	// KindUnexpected covers everything else, including malformed bodies.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindNoResponse:
		return "no response"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Error is returned for every failed request.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Credentials are what the login form collects.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate rejects blank fields.
func (c Credentials) Validate() error {
	const op = perrors.Op("directory.Credentials.Validate")
	if strings.TrimSpace(c.Username) == "" {
		return perrors.Invalid(op, "Username is required")
	}
	if strings.TrimSpace(c.Password) == "" {
		return perrors.Invalid(op, "Password is required")
	}
	return nil
}

// Registration is what the register form collects. Repeat is checked locally
// and never sent.
type Registration struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Repeat   string `json:"-"`
}

// Validate checks the password repeat first, then blank fields.
func (r Registration) Validate() error {
	const op = perrors.Op("directory.Registration.Validate")
	switch {
	case r.Password != r.Repeat:
		return perrors.Invalid(op, "Passwords are not the same")
	case strings.TrimSpace(r.Name) == "":
		return perrors.Invalid(op, "Name is required")
	case strings.TrimSpace(r.Username) == "":
		return perrors.Invalid(op, "Username is required")
	case strings.TrimSpace(r.Password) == "":
		return perrors.Invalid(op, "Password is required")
	}
	return nil
}

// AuthResult is a successful login or registration.
type AuthResult struct {
	Message string
	User    chat.User
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the directory endpoints.
type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a Client for server, a bare host[:port] or an http(s) URL.
func New(server string, opts ...Option) (*Client, error) {
	const op = perrors.Op("directory.New")

	raw := strings.TrimSpace(server)
	if raw == "" {
		return nil, perrors.E(op, perrors.KindConfig, "server address is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, perrors.E(op, perrors.KindConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, perrors.E(op, perrors.KindConfig, fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, perrors.E(op, perrors.KindConfig, "server address has no host")
	}

	c := &Client{
		base: u,
		http: &http.Client{Timeout: DefaultTimeout},
		log:  logger.WithComponent("directory"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Login authenticates creds.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return c.auth(ctx, "/auth/login", creds)
}

// Register creates an account and returns it.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return c.auth(ctx, "/auth/register", reg)
}

func (c *Client) auth(ctx context.Context, endpoint string, payload any) (*AuthResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: msgUnexpected, Err: err}
	}
	env, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}

	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	var user chat.User
	if err := json.Unmarshal(data, &user); err != nil || user.ID == "" {
		// A 2xx without a user is the server refusing in its own words.
		if env.Message != "" && err == nil {
			return nil, &Error{Kind: KindServer, Status: env.Status, Message: env.Message}
		}
		return nil, &Error{Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: msgUnexpected, Err: err}
	}
	return &AuthResult{Message: env.Message, User: user}, nil
}

// Contacts lists the users viewerID can talk to. The viewer is never
// included.
func (c *Client) Contacts(ctx context.Context, viewerID string) ([]chat.User, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, perrors.Invalid(perrors.Op("directory.Contacts"), "viewer id is empty")
	}
	env, err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(viewerID), nil)
	if err != nil {
		return nil, err
	}

	var users []chat.User
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &users); err != nil {
			return nil, &Error{Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: msgUnexpected, Err: err}
		}
	}
	out := users[:0]
	for _, u := range users {
		if u.ID != viewerID {
			out = append(out, u)
		}
	}
	return out, nil
}

// do sends one request and decodes the response envelope.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*envelope, error) {
	u := *c.base
	u.Path = path.Join(c.base.Path, endpoint)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, &Error{Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: msgUnexpected, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	log := c.log.With("request", reqID, "method", method, "path", u.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("no response", "error", err)
		return nil, &Error{Kind: KindNoResponse, Status: http.StatusGatewayTimeout, Message: msgNoResponse, Err: err}
	}
	defer resp.Body.Close()
	log.Debug("response", "status", resp.StatusCode, "elapsed", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNoResponse, Status: http.StatusGatewayTimeout, Message: msgNoResponse, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr != nil || env.Message == "" {
			return nil, &Error{Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: msgUnexpected, Err: decodeErr}
		}
		status := env.Status
		if status == 0 {
			status = resp.StatusCode
		}
		return nil, &Error{Kind: KindServer, Status: status, Message: env.Message}
	}
	if decodeErr != nil {
		return nil, &Error{Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: msgUnexpected, Err: decodeErr}
	}
	if env.Status == 0 {
		env.Status = resp.StatusCode
	}
	return &env, nil
}

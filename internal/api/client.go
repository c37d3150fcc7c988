// Package api is the HTTP client for the project backend. One Client is
// scoped to a single base URL; authentication is attached per request by
// reading the token store (see transport.go).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shweta76555/deskcli/internal/errs"
	"github.com/shweta76555/deskcli/internal/model"
	"github.com/shweta76555/deskcli/internal/tokenstore"
)

// DefaultBaseURL matches the backend's documented mount point.
const DefaultBaseURL = "http://localhost:5052/api/v1/"

// APIError is a non-2xx response. Message carries the server's `message`
// field verbatim when present, else a generic text. It unwraps to the
// matching sentinel for 401 and 404.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.ErrUnauthorized
	case http.StatusNotFound:
		return errs.ErrNotFound
	}
	return nil
}

// Client talks to one backend instance.
type Client struct {
	baseURL string
	hc      *http.Client
	log     *zap.Logger
}

// New builds a Client over the given token store. A nil logger disables
// request logging; an empty baseURL falls back to DefaultBaseURL.
func New(baseURL string, store tokenstore.Store, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		hc: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &authTransport{
				store: store,
				base:  http.DefaultTransport,
				log:   log,
			},
		},
		log: log,
	}
}

// do runs one JSON request. A non-nil out receives the decoded 2xx body;
// non-2xx statuses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return nil
}

// errorMessage pulls the server's message field out of an error body.
func errorMessage(raw []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Message != "" {
		return e.Message
	}
	return "request failed"
}

// ---- auth ----

// Login exchanges credentials for a bearer token. The backend has shipped
// the token under both `token` and `accessToken`; accept either.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	in := map[string]string{"email": email, "password": password}
	var out struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
	}
	if err := c.do(ctx, http.MethodPost, "auth/login", in, &out); err != nil {
		return "", err
	}
	token := out.Token
	if token == "" {
		token = out.AccessToken
	}
	if token == "" {
		return "", &APIError{Status: http.StatusOK, Message: "login response carried no token"}
	}
	return token, nil
}

// Register creates an account. Local field checks belong to the caller;
// the server's message is surfaced verbatim on failure.
func (c *Client) Register(ctx context.Context, name, email, password, userType string) error {
	in := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"userType": userType,
	}
	return c.do(ctx, http.MethodPost, "auth/register", in, nil)
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, http.MethodGet, "auth/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

var numericID = regexp.MustCompile(`^\d+$`)

// Profile implements session.ProfileFetcher: numeric subject ids resolve
// through the user lookup, anything else through the self endpoint.
func (c *Client) Profile(ctx context.Context, subjectID string) (*model.Profile, error) {
	if numericID.MatchString(subjectID) {
		var p model.Profile
		if err := c.do(ctx, http.MethodGet, "User/"+subjectID, nil, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}
	return c.Me(ctx)
}

// ---- users (admin) ----

// Users lists all accounts.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var us []model.User
	if err := c.do(ctx, http.MethodGet, "User", nil, &us); err != nil {
		return nil, err
	}
	return us, nil
}

// UserByID fetches one account.
func (c *Client) UserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("User/%d", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ---- project items ----

// Items lists every project item (admin view).
func (c *Client) Items(ctx context.Context) ([]model.ProjectItem, error) {
	var items []model.ProjectItem
	if err := c.do(ctx, http.MethodGet, "ProjectItem", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MyItems lists the authenticated user's own items.
func (c *Client) MyItems(ctx context.Context) ([]model.ProjectItem, error) {
	var items []model.ProjectItem
	if err := c.do(ctx, http.MethodGet, "ProjectItem/my-items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem creates a project item.
func (c *Client) CreateItem(ctx context.Context, draft model.ItemDraft) error {
	return c.do(ctx, http.MethodPost, "ProjectItem", draft, nil)
}

// UpdateItem replaces a project item.
func (c *Client) UpdateItem(ctx context.Context, id int64, draft model.ItemDraft) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("ProjectItem/%d", id), draft, nil)
}

// DeleteItem removes a project item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("ProjectItem/%d", id), nil, nil)
}

// IsUnauthorized reports whether err is a 401/403 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, errs.ErrUnauthorized)
}

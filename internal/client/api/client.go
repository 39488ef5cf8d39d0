// Package api is the HTTP client of the triagekeeper server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
)

// ErasurePath is the erasure function endpoint, relative to the base URL.
const ErasurePath = "/functions/v1/secure-delete-patient-data"

// Error is a non-2xx answer of the server.
type Error struct {
	Status  int
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for k, v := range e.Details {
		parts = append(parts, k+"="+v)
	}
	return fmt.Sprintf("server returned %d: %s (%s)", e.Status, e.Message, strings.Join(parts, ", "))
}

// Unwrap lets callers match 401 and 404 answers with errors.Is.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusNotFound:
		return common.ErrorNotFound
	}
	return nil
}

type Profile struct {
	Profile *models.Profile `json:"profile"`
	Omitted []string        `json:"omitted"`
}

type Session struct {
	Session  models.SymptomSession `json:"session"`
	Messages []models.Message      `json:"messages"`
	Omitted  []string              `json:"omitted"`
}

type AvatarUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Erasure struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	DeletedAt string `json:"deletedAt"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for the server at baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) HasToken() bool { return c.token != "" }

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, "/api/v1/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveProfile(ctx context.Context, p models.Profile) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodPut, "/api/v1/profile", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context) ([]Session, error) {
	var out []Session
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Audit returns the newest audit entries; limit <= 0 leaves the cap to the
// server.
func (c *Client) Audit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	path := "/api/v1/audit"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out []models.AuditEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RequestAvatarUpload(ctx context.Context) (*AvatarUpload, error) {
	var out AvatarUpload
	if err := c.do(ctx, http.MethodPost, "/api/v1/profile/avatar", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AvatarURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/profile/avatar", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// DeleteAllData asks the server to erase every record of the caller.
func (c *Client) DeleteAllData(ctx context.Context) (*Erasure, error) {
	var out Erasure
	body := map[string]string{"action": common.ErasureAction}
	if err := c.do(ctx, http.MethodPost, ErasurePath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

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
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var payload struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		apiErr.Message = resp.Status
		return apiErr
	}
	apiErr.Message = payload.Error
	apiErr.Details = payload.Details
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}

// Package client drives the admin endpoints of a running dashboard: login
// with the hashed password, clearing the database and registering links.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/vincentbai/browsetrace-dashboard/internal/auth"
	"github.com/vincentbai/browsetrace-dashboard/internal/models"
)

var ErrLoginFailed = errors.New("login failed")

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

// WithInsecureTLS accepts the service's self-signed certificate.
func WithInsecureTLS() Option {
	return func(c *Client) {
		c.http.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// Login submits the password the way the login form does: the digest is
// appended as an extra password field. The session cookie is kept for
// later calls.
func (c *Client) Login(ctx context.Context, password string) error {
	form, err := auth.InterceptForm(url.Values{}, password)
	if err != nil {
		return err
	}
	c.logger.Debug("Submitting hashed password", "digest", auth.SubmittedDigest(form))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/statistics", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusSeeOther {
		return fmt.Errorf("%w: %s", ErrLoginFailed, resp.Status)
	}
	return nil
}

// Records fetches every stored record.
func (c *Client) Records(ctx context.Context) ([]models.UserRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/records", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list records: %s", resp.Status)
	}
	var records []models.UserRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// GenerateLink registers a link. Any non-2xx answer or a body that is not
// JSON is an error.
func (c *Client) GenerateLink(ctx context.Context, link models.LinkRequest) error {
	body, err := json.Marshal(link)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-link", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("network response was not ok: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("response is not JSON")
	}
	c.logger.Debug("Link registered", "link", link.GeneratedLink, "message", gjson.GetBytes(data, "message").String())
	return nil
}

func (c *Client) post(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// Package backend is the typed client for the platform REST API. The API
// owns all business logic; this package only shapes requests, carries the
// session cookie, and maps failures to typed errors.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 15 * time.Second

// APIError is returned for any non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cookieName string

	mu           sync.RWMutex
	sessionToken string
}

type ClientConfig struct {
	BaseURL    string
	CookieName string
	Timeout    time.Duration
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if cfg.CookieName == "" {
		return nil, fmt.Errorf("cookie name is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		cookieName: cfg.CookieName,
	}, nil
}

// SessionToken reports the raw session cookie value captured at login, or ""
// when no session is held.
func (c *Client) SessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken
}

// ClearSession drops the captured session cookie. Safe to call when no
// session is held.
func (c *Client) ClearSession() {
	c.mu.Lock()
	c.sessionToken = ""
	c.mu.Unlock()
}

// Login authenticates against the platform and captures the session cookie
// the backend sets on success.
func (c *Client) Login(ctx context.Context, creds Credentials) (Principal, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return Principal{}, fmt.Errorf("encode credentials: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/login", nil, bytes.NewReader(body), "application/json")
	if err != nil {
		return Principal{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Principal{}, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return Principal{}, err
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == c.cookieName {
			c.mu.Lock()
			c.sessionToken = ck.Value
			c.mu.Unlock()
		}
	}

	var out struct {
		User Principal `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Principal{}, fmt.Errorf("decode login response: %w", err)
	}
	return out.User, nil
}

func (c *Client) CurrentUser(ctx context.Context) (Principal, error) {
	var p Principal
	err := c.doJSON(ctx, http.MethodGet, "/current-user", nil, nil, &p)
	return p, err
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (Principal, error) {
	var p Principal
	err := c.doJSON(ctx, http.MethodPut, "/profile", nil, update, &p)
	return p, err
}

// UploadDocument streams a document to the backend as multipart form data.
func (c *Client) UploadDocument(ctx context.Context, kind, fileName string, content io.Reader) (Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("kind", kind); err != nil {
		return Document{}, fmt.Errorf("write kind field: %w", err)
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return Document{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Document{}, fmt.Errorf("copy file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Document{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/documents", nil, &buf, mw.FormDataContentType())
	if err != nil {
		return Document{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("upload document: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return Document{}, err
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode document response: %w", err)
	}
	return doc, nil
}

func (c *Client) ListCommissions(ctx context.Context, opts ListOptions) (Page[Commission], error) {
	var page Page[Commission]
	err := c.doJSON(ctx, http.MethodGet, "/commissions", listQuery(opts), nil, &page)
	return page, err
}

func (c *Client) ListLeads(ctx context.Context, opts ListOptions) (Page[Lead], error) {
	var page Page[Lead]
	err := c.doJSON(ctx, http.MethodGet, "/leads", listQuery(opts), nil, &page)
	return page, err
}

func (c *Client) ListUsers(ctx context.Context, opts ListOptions) (Page[UserSummary], error) {
	var page Page[UserSummary]
	err := c.doJSON(ctx, http.MethodGet, "/users", listQuery(opts), nil, &page)
	return page, err
}

func (c *Client) CreatePaymentOrder(ctx context.Context, amount float64) (PaymentOrder, error) {
	var order PaymentOrder
	err := c.doJSON(ctx, http.MethodPost, "/payments/orders", nil, map[string]float64{"amount": amount}, &order)
	return order, err
}

func (c *Client) VerifyPayment(ctx context.Context, verification PaymentVerification) error {
	return c.doJSON(ctx, http.MethodPost, "/payments/verify", nil, verification, nil)
}

func (c *Client) ActivateAccount(ctx context.Context) (Principal, error) {
	var p Principal
	err := c.doJSON(ctx, http.MethodPost, "/activate", nil, struct{}{}, &p)
	return p, err
}

func (c *Client) RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (Withdrawal, error) {
	var w Withdrawal
	err := c.doJSON(ctx, http.MethodPost, "/withdrawals", nil, req, &w)
	return w, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.SessionToken(); tok != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: tok})
	}
	return req, nil
}

func listQuery(opts ListOptions) url.Values {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Role != "" {
		q.Set("role", opts.Role)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	return q
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg := http.StatusText(resp.StatusCode)
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(raw) > 0 {
		if jsonErr := json.Unmarshal(raw, &payload); jsonErr == nil {
			if payload.Error != "" {
				msg = payload.Error
			} else if payload.Message != "" {
				msg = payload.Message
			}
		}
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

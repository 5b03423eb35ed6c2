package client

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

	"go.uber.org/zap"
)

// Client calls the blog JSON API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger logs each request at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithToken starts the client with an existing session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the API served at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Signup creates an account and returns the server's confirmation message.
func (c *Client) Signup(ctx context.Context, username, email, password string) (string, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": username, "email": email, "password": password,
	}, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Signin authenticates and keeps the returned token for later calls.
func (c *Client) Signin(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/auth/signin", map[string]string{
		"email": email, "password": password,
	}, &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return &out.User, nil
}

// Signout revokes the session token.
func (c *Client) Signout(ctx context.Context) error {
	_, err := c.doJSON(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
	if err == nil {
		c.setToken("")
	}
	return err
}

// UpdateUser sends the changed profile fields and returns the updated user.
func (c *Client) UpdateUser(ctx context.Context, id string, changes map[string]string) (*User, error) {
	var u User
	if _, err := c.doJSON(ctx, http.MethodPut, "/api/user/update/"+url.PathEscape(id), changes, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes the account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/api/user/delete/"+url.PathEscape(id), nil, nil)
	return err
}

// CreatePost publishes a post built from the given fields.
func (c *Client) CreatePost(ctx context.Context, fields map[string]string) (*Post, error) {
	var p Post
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/post/create", fields, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPosts lists posts matching q.
func (c *Client) GetPosts(ctx context.Context, q PostQuery) (*PostList, error) {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("userId", q.UserID)
	set("category", q.Category)
	set("slug", q.Slug)
	set("postId", q.PostID)
	set("searchTerm", q.SearchTerm)
	if q.StartIndex > 0 {
		v.Set("startIndex", strconv.Itoa(q.StartIndex))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Ascending {
		v.Set("order", "asc")
	}
	path := "/api/post/getposts"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var list PostList
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UploadImage streams r as the multipart "file" field, reporting progress as
// bytes leave the client.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader, size int64, progress ProgressFunc) (*UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, &progressReader{r: r, total: size, fn: progress})
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out UploadResult
	if _, err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) (*envelope, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) (*envelope, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, decodeErr)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s %s data: %w", req.Method, req.URL.Path, err)
		}
	}
	return &env, nil
}

type progressReader struct {
	r     io.Reader
	total int64
	done  int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil && p.total > 0 {
		p.done += int64(n)
		p.fn(int(p.done * 100 / p.total))
	}
	return n, err
}

// Package client is the typed HTTP client for the collection API. It
// builds URLs, signs requests with the session's bearer token, and maps
// response statuses: tolerated 404s become nil results, a 401 force-clears
// the session and broadcasts the unauthorized signal, anything else
// non-2xx is a RequestError. No caching, no retries, no deduplication;
// every call is independent and cancelled only by its context.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"smarttasks/client/session"
	"smarttasks/internal/model"
)

// TokenSource supplies the bearer token and clears it on forced logout.
// The session store implements it.
type TokenSource interface {
	Token() string
	Clear()
}

type Config struct {
	// BaseURL is the API origin, e.g. "https://api.example.com".
	BaseURL string
	// HTTPClient defaults to a 10s-timeout client.
	HTTPClient *http.Client
	// Tokens supplies bearer tokens; required.
	Tokens TokenSource
	// Bus carries the unauthorized signal; optional.
	Bus *session.Broadcaster
	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

var _ Service = (*Client)(nil)

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	bus     *session.Broadcaster
	logger  *zap.Logger
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		tokens:  cfg.Tokens,
		bus:     cfg.Bus,
		logger:  logger,
	}
}

// do issues one request and maps the response. found is false only when a
// tolerated 404 was suppressed.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, allowNotFound bool, out any) (found bool, err error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The caller's own cancellation is not a failure; surface it as
		// the context error so it stays distinguishable.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && allowNotFound {
		return false, nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.forceLogout()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, &RequestError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(text)),
		}
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		return true, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

// forceLogout clears the session and announces the rejection. Runs even
// when the originating view has been abandoned: a dead token is dead for
// everyone.
func (c *Client) forceLogout() {
	c.logger.Info("Server rejected credentials, clearing session")
	c.tokens.Clear()
	if c.bus != nil {
		c.bus.Publish(session.TopicUnauthorized)
	}
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Dashboard is the tenant-wide summary the server computes.
type Dashboard struct {
	ActiveProjectsCount int64           `json:"activeProjectsCount"`
	TotalTasksCount     int64           `json:"totalTasksCount"`
	OverdueTasksCount   int64           `json:"overdueTasksCount"`
	LatestProjects      []model.Project `json:"latestProjects"`
}

// Dashboard fetches the tenant summary. Remote-only; the local store has no
// equivalent.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	if _, err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, nil, "", false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects fetches one page of the tenant's projects.
func (c *Client) ListProjects(ctx context.Context, page, size int) (model.Page[model.Project], error) {
	var out model.Page[model.Project]
	_, err := c.do(ctx, http.MethodGet, "/api/projects", pageQuery(page, size), nil, "", false, &out)
	return out, err
}

// GetProject fetches a project; a missing one is (nil, nil).
func (c *Client) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var out model.Project
	found, err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id), nil, nil, "", true, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProject(ctx context.Context, name string) (*model.Project, error) {
	body, err := jsonBody(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	var out model.Project
	if _, err := c.do(ctx, http.MethodPost, "/api/projects", nil, body, "", false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context, projectID string, page, size int) (model.Page[model.Task], error) {
	var out model.Page[model.Task]
	path := "/api/projects/" + url.PathEscape(projectID) + "/tasks"
	_, err := c.do(ctx, http.MethodGet, path, pageQuery(page, size), nil, "", false, &out)
	return out, err
}

// GetTask fetches a task; a missing one is (nil, nil).
func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var out model.Task
	found, err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, nil, "", true, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, projectID string, req TaskCreate) (*model.Task, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var out model.Task
	path := "/api/projects/" + url.PathEscape(projectID) + "/tasks"
	if _, err := c.do(ctx, http.MethodPost, path, nil, body, "", false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAttachments(ctx context.Context, taskID string, page, size int) (model.Page[model.Attachment], error) {
	var out model.Page[model.Attachment]
	path := "/api/tasks/" + url.PathEscape(taskID) + "/attachments"
	_, err := c.do(ctx, http.MethodGet, path, pageQuery(page, size), nil, "", false, &out)
	return out, err
}

// UploadAttachment sends a file as a multipart form with a "file" field.
func (c *Client) UploadAttachment(ctx context.Context, taskID, filename string, r io.Reader) (*model.Attachment, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mimeType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out model.Attachment
	path := "/api/tasks/" + url.PathEscape(taskID) + "/attachments"
	if _, err := c.do(ctx, http.MethodPost, path, nil, &buf, w.FormDataContentType(), false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenAttachment streams an attachment payload. The response body is
// handed to the caller, so this does not go through do().
func (c *Client) OpenAttachment(ctx context.Context, id string) (*Download, error) {
	u := c.baseURL + "/api/attachments/" + url.PathEscape(id) + "/download"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("download %s: %w", id, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.forceLogout()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &RequestError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(text)),
		}
	}

	name := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	size, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	return &Download{
		Content:      resp.Body,
		OriginalName: name,
		MimeType:     resp.Header.Get("Content-Type"),
		Size:         size,
	}, nil
}

func filenameFromDisposition(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if decoded, err := url.QueryUnescape(name); err == nil {
		return decoded
	}
	return name
}

// Login exchanges first-party credentials for a server-issued token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	var out struct {
		Token string `json:"token"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, "", false, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// LoginWithIdentity exchanges an identity-provider assertion for a
// server-issued token.
func (c *Client) LoginWithIdentity(ctx context.Context, assertion string) (string, error) {
	body, err := jsonBody(map[string]string{"assertion": assertion})
	if err != nil {
		return "", err
	}
	var out struct {
		Token string `json:"token"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/identity", nil, body, "", false, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Logout revokes the current token server-side, then clears it locally.
// The local clear happens even when revocation fails.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, "", false, nil)
	c.tokens.Clear()
	if err != nil && !IsUnauthorized(err) {
		return err
	}
	return nil
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/freeplan/internal/clipboard"
	"github.com/claude/freeplan/internal/models"
)

// APIError is a non-2xx answer of the REST API. Notice is set for commands
// the server rejected without changing anything (409 Conflict).
type APIError struct {
	Path    string
	Status  int
	Message string
	Notice  bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.Status, e.Message)
}

// HTTPClient implements DataSource by calling the FreePlan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// programs live on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL. A
// non-empty apiKey is sent as X-API-Key.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Error  string `json:"error"`
			Notice string `json:"notice"`
		}
		apiErr := &APIError{Path: path, Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		if json.Unmarshal(data, &msg) == nil {
			switch {
			case msg.Notice != "":
				apiErr.Message, apiErr.Notice = msg.Notice, true
			case msg.Error != "":
				apiErr.Message = msg.Error
			}
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("httpclient: decode %s: %w", path, err)
		}
	}
	return nil
}

func programPath(id string, parts ...string) string {
	p := "/api/v1/programs/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func (c *HTTPClient) command(ctx context.Context, method, path string, in any) (Result, error) {
	var r Result
	if err := c.do(ctx, method, path, in, &r); err != nil {
		return Result{}, err
	}
	return r, nil
}

func (c *HTTPClient) ListPrograms(ctx context.Context, status models.Status) ([]models.ProgramSummary, error) {
	path := "/api/v1/programs"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var list []models.ProgramSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	var p models.Program
	if err := c.do(ctx, http.MethodGet, programPath(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) GetDay(ctx context.Context, id string, pos models.Position) ([]models.Exercise, error) {
	var list []models.Exercise
	path := programPath(id, "branches", pos.BranchID, "weeks", pos.WeekKey, "days", pos.DayKey)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) Switch(ctx context.Context, id string, pos models.Position) (Result, error) {
	return c.command(ctx, http.MethodPost, programPath(id, "switch"), pos)
}

func (c *HTTPClient) AddWeek(ctx context.Context, id string) (Result, error) {
	return c.command(ctx, http.MethodPost, programPath(id, "weeks"), nil)
}

func (c *HTTPClient) RemoveWeek(ctx context.Context, id, week string) (Result, error) {
	return c.command(ctx, http.MethodDelete, programPath(id, "weeks", week), nil)
}

func (c *HTTPClient) AddDay(ctx context.Context, id string) (Result, error) {
	return c.command(ctx, http.MethodPost, programPath(id, "days"), nil)
}

func (c *HTTPClient) RemoveDay(ctx context.Context, id, day string) (Result, error) {
	return c.command(ctx, http.MethodDelete, programPath(id, "days", day), nil)
}

func (c *HTTPClient) CloneBranch(ctx context.Context, id, source string) (Result, error) {
	return c.command(ctx, http.MethodPost, programPath(id, "branches"), map[string]string{"source": source})
}

func (c *HTTPClient) AddExercise(ctx context.Context, id string, ex models.Exercise) (Result, error) {
	return c.command(ctx, http.MethodPost, programPath(id, "exercises"), ex)
}

func (c *HTTPClient) LinkSuperset(ctx context.Context, id, leader, follower string) (Result, error) {
	return c.command(ctx, http.MethodPost, programPath(id, "exercises", follower, "link"), map[string]string{"leader": leader})
}

func (c *HTTPClient) Copy(ctx context.Context, id string, scope clipboard.Scope) (Result, error) {
	return c.command(ctx, http.MethodPost, programPath(id, "copy"), map[string]string{"scope": string(scope)})
}

func (c *HTTPClient) Paste(ctx context.Context, id string) (Result, error) {
	return c.command(ctx, http.MethodPost, programPath(id, "paste"), nil)
}

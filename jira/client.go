package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StartedLayout is the offset timestamp format Jira expects for "started".
const StartedLayout = "2006-01-02T15:04:05.000-0700"

// Client defines the Jira Cloud REST v3 operations used by the sync.
type Client interface {
	GetIssue(ctx context.Context, key string) (Issue, error)
	ListWorklogs(ctx context.Context, key string) ([]Worklog, error)
	FindAssignableUsers(ctx context.Context, projectKey, query string) ([]User, error)
	AddWorklog(ctx context.Context, key string, input WorklogInput) (Worklog, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	// Domain is a site host such as "acme.atlassian.net" or a full base URL.
	Domain     string
	Email      string
	Token      string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient httpDoer
}

type HTTPClient struct {
	baseURL       string
	authorization string
	userAgent     string
	httpClient    httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL, err := BaseURLForDomain(cfg.Domain)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(cfg.Email)
	token := strings.TrimSpace(cfg.Token)
	if email == "" || token == "" {
		return nil, errors.New("jira email and token are required")
	}

	doer := cfg.HTTPClient
	if doer == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		doer = &http.Client{Timeout: timeout}
	}

	return &HTTPClient{
		baseURL:       baseURL,
		authorization: "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+token)),
		userAgent:     strings.TrimSpace(cfg.UserAgent),
		httpClient:    doer,
	}, nil
}

// BaseURLForDomain turns a configured Jira domain into an API base URL.
func BaseURLForDomain(domain string) (string, error) {
	raw := strings.TrimRight(strings.TrimSpace(domain), "/")
	if raw == "" {
		return "", errors.New("jira domain is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid jira domain %q", domain)
	}
	return raw, nil
}

type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type IssueFields struct {
	Summary string       `json:"summary"`
	Status  *Status      `json:"status,omitempty"`
	Worklog *WorklogPage `json:"worklog,omitempty"`
}

type Status struct {
	Name string `json:"name"`
}

// WorklogPage is one page of an issue's work logs.
type WorklogPage struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Worklogs   []Worklog `json:"worklogs"`
}

// Complete reports whether the page holds every work log of the issue.
func (p *WorklogPage) Complete() bool {
	return p != nil && p.StartAt == 0 && p.Total <= len(p.Worklogs)
}

type Worklog struct {
	ID               string `json:"id"`
	IssueID          string `json:"issueId,omitempty"`
	Author           *User  `json:"author,omitempty"`
	Comment          *Node  `json:"comment,omitempty"`
	Started          string `json:"started,omitempty"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

// CommentText is the work-log comment flattened to plain text.
func (w Worklog) CommentText() string {
	return w.Comment.PlainText()
}

type User struct {
	AccountID    string `json:"accountId"`
	EmailAddress string `json:"emailAddress,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	TimeZone     string `json:"timeZone,omitempty"`
	Active       bool   `json:"active,omitempty"`
}

// WorklogInput is the body of POST /rest/api/3/issue/{key}/worklog.
type WorklogInput struct {
	Comment          *Node  `json:"comment"`
	Started          string `json:"started"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (c *HTTPClient) GetIssue(ctx context.Context, key string) (Issue, error) {
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "?fields=summary,status,worklog"
	var out Issue
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return Issue{}, err
	}
	return out, nil
}

// ListWorklogs pages through /worklog with startAt until every work log is
// read. A server that ignores startAt (returns 0 again) ends the walk.
func (c *HTTPClient) ListWorklogs(ctx context.Context, key string) ([]Worklog, error) {
	out := make([]Worklog, 0)
	startAt := 0
	for {
		path := "/rest/api/3/issue/" + url.PathEscape(key) + "/worklog?startAt=" + strconv.Itoa(startAt)
		var page WorklogPage
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		if startAt > 0 && page.StartAt == 0 {
			return out, nil
		}
		out = append(out, page.Worklogs...)

		next := page.StartAt + len(page.Worklogs)
		if len(page.Worklogs) == 0 || next >= page.Total {
			return out, nil
		}
		startAt = next
	}
}

func (c *HTTPClient) FindAssignableUsers(ctx context.Context, projectKey, query string) ([]User, error) {
	params := url.Values{}
	params.Set("projectKeys", projectKey)
	params.Set("query", query)
	var out []User
	if err := c.doJSON(ctx, http.MethodGet, "/rest/api/3/user/assignable/multiProjectSearch?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) AddWorklog(ctx context.Context, key string, input WorklogInput) (Worklog, error) {
	if input.TimeSpentSeconds <= 0 {
		return Worklog{}, fmt.Errorf("worklog for %s must have positive time spent", key)
	}
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "/worklog"
	var out Worklog
	if err := c.doJSON(ctx, http.MethodPost, path, input, &out); err != nil {
		return Worklog{}, err
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authorization)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Method:     method,
			Path:       endpointPath,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(responseBody)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}

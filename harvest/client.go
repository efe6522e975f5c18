package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"harvestsync/internal/timeutil"
)

const (
	DefaultBaseURL   = "https://api.harvestapp.com"
	DefaultPageSize  = 100
	defaultUserAgent = "harvestsync"
)

// Client defines the Harvest API v2 operations used by the sync.
type Client interface {
	ListTimeEntries(ctx context.Context, query ListQuery) (TimeEntriesPage, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL     string
	AccountID   string
	AccessToken string
	UserAgent   string
	Timeout     time.Duration
	HTTPClient  httpDoer
}

type HTTPClient struct {
	baseURL     string
	accountID   string
	accessToken string
	userAgent   string
	httpClient  httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid harvest base URL %q", cfg.BaseURL)
	}
	if strings.TrimSpace(cfg.AccountID) == "" || strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("harvest account id and access token are required")
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
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
		baseURL:     baseURL,
		accountID:   strings.TrimSpace(cfg.AccountID),
		accessToken: strings.TrimSpace(cfg.AccessToken),
		userAgent:   userAgent,
		httpClient:  doer,
	}, nil
}

type Reference struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TimeEntry is one Harvest time entry as returned by /v2/time_entries.
type TimeEntry struct {
	ID           int64     `json:"id"`
	SpentDate    string    `json:"spent_date"`
	Hours        float64   `json:"hours"`
	RoundedHours float64   `json:"rounded_hours"`
	Notes        *string   `json:"notes"`
	IsClosed     bool      `json:"is_closed"`
	User         Reference `json:"user"`
	Project      Reference `json:"project"`
}

// NotesText returns the notes or an empty string when Harvest sent null.
func (e TimeEntry) NotesText() string {
	if e.Notes == nil {
		return ""
	}
	return *e.Notes
}

// Day parses SpentDate as a calendar date.
func (e TimeEntry) Day() (time.Time, error) {
	return timeutil.ParseDay(e.SpentDate)
}

type TimeEntriesPage struct {
	TimeEntries  []TimeEntry `json:"time_entries"`
	PerPage      int         `json:"per_page"`
	TotalPages   int         `json:"total_pages"`
	TotalEntries int         `json:"total_entries"`
	Page         int         `json:"page"`
	NextPage     *int        `json:"next_page"`
}

// ListQuery selects one page of time entries. From and To are inclusive days.
type ListQuery struct {
	Page    int
	PerPage int
	From    time.Time
	To      time.Time
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

func (c *HTTPClient) ListTimeEntries(ctx context.Context, query ListQuery) (TimeEntriesPage, error) {
	page := query.Page
	if page <= 0 {
		page = 1
	}
	perPage := query.PerPage
	if perPage <= 0 {
		perPage = DefaultPageSize
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	if !query.From.IsZero() {
		params.Set("from", timeutil.FormatDay(query.From))
	}
	if !query.To.IsZero() {
		params.Set("to", timeutil.FormatDay(query.To))
	}

	var out TimeEntriesPage
	if err := c.doJSON(ctx, http.MethodGet, "/v2/time_entries?"+params.Encode(), &out); err != nil {
		return TimeEntriesPage{}, err
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, nil)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Harvest-Account-Id", c.accountID)
	req.Header.Set("User-Agent", c.userAgent)

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

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}

// Package tracker is the single gateway to the issue tracker's REST API.
// It normalizes the legacy and current response schemas into one Issue
// representation and surfaces a small typed error taxonomy.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/common"
	"github.com/ternarybob/custos/internal/models"
	"golang.org/x/time/rate"
)

// Error taxonomy. NotFound issues arrive as a tracker error payload and are
// reported as ErrTracker; callers treat the two identically.
var (
	ErrTransport = errors.New("tracker transport error")
	ErrDecode    = errors.New("tracker response decode error")
	ErrTracker   = errors.New("tracker reported an error")
)

const apiPrefix = "/rest/api/latest/"

// Client issues authenticated requests against the tracker REST API.
// Configuration is resolved once at construction and immutable after.
type Client struct {
	baseURL         string
	username        string
	password        string
	useLegacySchema bool
	httpClient      *http.Client
	limiter         *rate.Limiter
	logger          arbor.ILogger
}

// NewClient creates a tracker client from configuration. When no username
// is configured requests go out unauthenticated.
func NewClient(config *common.TrackerConfig, logger arbor.ILogger) *Client {
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &Client{
		baseURL:         trimTrailingSlash(config.BaseURL),
		username:        config.Username,
		password:        config.Password,
		useLegacySchema: config.UseLegacySchema,
		httpClient: &http.Client{
			Timeout: config.ParsedTimeout(),
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// BrowseURL returns the web UI deep link for an issue key
func (c *Client) BrowseURL(key string) string {
	return c.baseURL + "/browse/" + key
}

// NavigatorURL returns the web UI deep link showing a query's results
func (c *Client) NavigatorURL(jql string) string {
	return c.baseURL + "/issues/?jql=" + url.QueryEscape(jql)
}

// fetchJSON issues a GET against the versioned API and decodes the body.
// Outcomes: transport failure, decode failure, tracker error payload, or
// the decoded body.
func (c *Client) fetchJSON(ctx context.Context, path string) (map[string]interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	reqURL := c.baseURL + apiPrefix + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", reqURL).Msg("Tracker request failed")
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", reqURL).Msg("Failed to read tracker response")
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			// Error page that is not JSON (proxy, maintenance page)
			c.logger.Warn().Int("status", resp.StatusCode).Str("url", reqURL).Msg("Tracker returned non-JSON error")
			return nil, fmt.Errorf("%w: HTTP %d", ErrTracker, resp.StatusCode)
		}
		c.logger.Warn().Err(err).Str("url", reqURL).Msg("Failed to decode tracker response")
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if trackerError(parsed) || resp.StatusCode >= 400 {
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("url", reqURL).
			Msg("Tracker returned an error payload")
		return nil, fmt.Errorf("%w: %s", ErrTracker, errorDetail(parsed, resp.StatusCode))
	}

	return parsed, nil
}

// trackerError reports whether a well-formed body carries an application
// error. The tracker uses "errorMessages" (list) and "errors" (object).
func trackerError(body map[string]interface{}) bool {
	if msgs, ok := body["errorMessages"].([]interface{}); ok && len(msgs) > 0 {
		return true
	}
	if errs, ok := body["errors"].(map[string]interface{}); ok && len(errs) > 0 {
		return true
	}
	// Some endpoints report "errors" as a plain list
	if errs, ok := body["errors"].([]interface{}); ok && len(errs) > 0 {
		return true
	}
	return false
}

func errorDetail(body map[string]interface{}, status int) string {
	if msgs, ok := body["errorMessages"].([]interface{}); ok && len(msgs) > 0 {
		if msg, ok := msgs[0].(string); ok {
			return msg
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// GetIssue fetches issue/{key} and flattens it into the normalized shape,
// branching on the configured schema version.
func (c *Client) GetIssue(ctx context.Context, key string) (*models.Issue, error) {
	body, err := c.fetchJSON(ctx, "issue/"+url.PathEscape(key))
	if err != nil {
		return nil, err
	}

	issueKey, _ := body["key"].(string)
	if issueKey == "" {
		issueKey = key
	}

	fields, _ := body["fields"].(map[string]interface{})

	issue := &models.Issue{
		Key:         issueKey,
		Summary:     stringField(fields, "summary"),
		Status:      nameOf(c.objectField(fields, "status")),
		Assignee:    displayNameOf(c.objectField(fields, "assignee"), models.NoAssignee),
		FixVersions: namesOf(c.arrayField(fields, "fixVersions")),
		Type:        nameOf(objectField(fields, "issuetype")),
		Priority:    nameOf(objectField(fields, "priority")),
		Reporter:    displayNameOf(objectField(fields, "reporter"), ""),
		Description: stringField(fields, "description"),
		DueDate:     stringField(fields, "duedate"),
		IconURL:     stringField(objectField(fields, "issuetype"), "iconUrl"),
		BrowseURL:   c.BrowseURL(issueKey),
	}

	c.logger.Debug().Str("key", issue.Key).Str("status", issue.Status).Msg("Fetched issue")
	return issue, nil
}

// GetWatchers returns the display names watching an issue, in API order.
func (c *Client) GetWatchers(ctx context.Context, key string) ([]string, error) {
	body, err := c.fetchJSON(ctx, "issue/"+url.PathEscape(key)+"/watchers")
	if err != nil {
		return nil, err
	}

	raw, _ := body["watchers"].([]interface{})
	watchers := make([]string, 0, len(raw))
	for _, entry := range raw {
		watcher, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if name := displayNameOf(watcher, ""); name != "" {
			watchers = append(watchers, name)
		}
	}

	return watchers, nil
}

// Search runs a JQL query. Matching keys are expanded only when the total
// is at or under maxList; above the cap only the count is surfaced, which
// keeps callers from fanning out per-issue fetches.
func (c *Client) Search(ctx context.Context, jql string, maxList int) (*models.SearchResult, error) {
	body, err := c.fetchJSON(ctx, "search/?jql="+url.QueryEscape(jql))
	if err != nil {
		return nil, err
	}

	total := intField(body, "total")
	result := &models.SearchResult{Total: total}

	if total > maxList {
		result.Truncated = true
		return result, nil
	}

	raw, _ := body["issues"].([]interface{})
	for _, entry := range raw {
		issue, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if key, ok := issue["key"].(string); ok && key != "" {
			result.Keys = append(result.Keys, key)
		}
	}

	return result, nil
}

// objectField reads a nested object off the fields map. The client method
// additionally unwraps the legacy schema's ".value" indirection; only
// status, assignee and fixVersions carry that wrapper.
func (c *Client) objectField(fields map[string]interface{}, name string) map[string]interface{} {
	obj := objectField(fields, name)
	if !c.useLegacySchema {
		return obj
	}
	if obj == nil {
		return nil
	}
	wrapped, _ := obj["value"].(map[string]interface{})
	return wrapped
}

func (c *Client) arrayField(fields map[string]interface{}, name string) []interface{} {
	if fields == nil {
		return nil
	}
	if c.useLegacySchema {
		wrapper, _ := fields[name].(map[string]interface{})
		if wrapper == nil {
			return nil
		}
		arr, _ := wrapper["value"].([]interface{})
		return arr
	}
	arr, _ := fields[name].([]interface{})
	return arr
}

func objectField(fields map[string]interface{}, name string) map[string]interface{} {
	if fields == nil {
		return nil
	}
	obj, _ := fields[name].(map[string]interface{})
	return obj
}

func stringField(obj map[string]interface{}, name string) string {
	if obj == nil {
		return ""
	}
	s, _ := obj[name].(string)
	return s
}

func intField(obj map[string]interface{}, name string) int {
	if obj == nil {
		return 0
	}
	// encoding/json decodes numbers as float64
	f, _ := obj[name].(float64)
	return int(f)
}

func nameOf(obj map[string]interface{}) string {
	return stringField(obj, "name")
}

// displayNameOf prefers displayName and falls back to name, then to the
// given default when the object is absent entirely.
func displayNameOf(obj map[string]interface{}, fallback string) string {
	if obj == nil {
		return fallback
	}
	if name := stringField(obj, "displayName"); name != "" {
		return name
	}
	if name := stringField(obj, "name"); name != "" {
		return name
	}
	return fallback
}

func namesOf(arr []interface{}) []string {
	names := make([]string, 0, len(arr))
	for _, entry := range arr {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if name := stringField(obj, "name"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

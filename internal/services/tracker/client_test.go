package tracker

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/common"
	"github.com/ternarybob/custos/internal/models"
)

func newTestClient(t *testing.T, serverURL string, legacy bool) *Client {
	t.Helper()
	return NewClient(&common.TrackerConfig{
		BaseURL:         serverURL,
		Username:        "bot",
		Password:        "secret",
		UseLegacySchema: legacy,
		RequestTimeout:  "5s",
	}, arbor.NewLogger())
}

const currentSchemaIssue = `{
	"key": "ABC-123",
	"fields": {
		"summary": "Fix the widget",
		"status": {"name": "In Progress"},
		"assignee": {"displayName": "Ada Lovelace"},
		"fixVersions": [{"name": "1.1"}, {"name": "2.0"}],
		"issuetype": {"name": "Bug", "iconUrl": "https://tracker/icons/bug.png"},
		"priority": {"name": "Major"},
		"reporter": {"displayName": "Grace Hopper"},
		"description": "The widget is broken.",
		"duedate": "2026-09-15"
	}
}`

const legacySchemaIssue = `{
	"key": "ABC-123",
	"fields": {
		"summary": "Fix the widget",
		"status": {"value": {"name": "In Progress"}},
		"assignee": {"value": {"displayName": "Ada Lovelace"}},
		"fixVersions": {"value": [{"name": "1.1"}, {"name": "2.0"}]},
		"issuetype": {"name": "Bug", "iconUrl": "https://tracker/icons/bug.png"},
		"priority": {"name": "Major"},
		"reporter": {"displayName": "Grace Hopper"},
		"description": "The widget is broken.",
		"duedate": "2026-09-15"
	}
}`

func issueServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/latest/issue/ABC-123", r.URL.Path)
		fmt.Fprint(w, payload)
	}))
}

func TestGetIssueSchemaNormalization(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		legacy  bool
	}{
		{"current schema", currentSchemaIssue, false},
		{"legacy schema", legacySchemaIssue, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := issueServer(t, tt.payload)
			defer server.Close()

			client := newTestClient(t, server.URL, tt.legacy)
			issue, err := client.GetIssue(context.Background(), "ABC-123")
			require.NoError(t, err)

			// Both schemas must flatten to the identical Issue value.
			assert.Equal(t, &models.Issue{
				Key:         "ABC-123",
				Summary:     "Fix the widget",
				Status:      "In Progress",
				Assignee:    "Ada Lovelace",
				FixVersions: []string{"1.1", "2.0"},
				Type:        "Bug",
				Priority:    "Major",
				Reporter:    "Grace Hopper",
				Description: "The widget is broken.",
				DueDate:     "2026-09-15",
				IconURL:     "https://tracker/icons/bug.png",
				BrowseURL:   server.URL + "/browse/ABC-123",
			}, issue)
		})
	}
}

func TestGetIssueDefaultsWhenFieldsAbsent(t *testing.T) {
	server := issueServer(t, `{"key": "ABC-123", "fields": {"summary": "Bare minimum"}}`)
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	issue, err := client.GetIssue(context.Background(), "ABC-123")
	require.NoError(t, err)

	assert.Equal(t, models.NoAssignee, issue.Assignee)
	assert.Empty(t, issue.FixVersions)
	assert.Empty(t, issue.DueDate)
	assert.Empty(t, issue.IconURL)
}

func TestGetIssueAttachesBasicAuth(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		fmt.Fprint(w, currentSchemaIssue)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	_, err := client.GetIssue(context.Background(), "ABC-123")
	require.NoError(t, err)

	expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("bot:secret"))
	assert.Equal(t, expected, authHeader)
}

func TestGetIssueUnauthenticatedWithoutUsername(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		fmt.Fprint(w, currentSchemaIssue)
	}))
	defer server.Close()

	client := NewClient(&common.TrackerConfig{BaseURL: server.URL}, arbor.NewLogger())
	_, err := client.GetIssue(context.Background(), "ABC-123")
	require.NoError(t, err)
	assert.Empty(t, authHeader)
}

func TestGetWatchers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/latest/issue/ABC-123/watchers", r.URL.Path)
		fmt.Fprint(w, `{"watchers": [{"displayName": "Ada"}, {"displayName": "Grace"}, {"name": "turing"}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	watchers, err := client.GetWatchers(context.Background(), "ABC-123")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Grace", "turing"}, watchers)
}

func TestSearchUnderCapListsKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "project = X", r.URL.Query().Get("jql"))
		fmt.Fprint(w, `{"total": 3, "issues": [{"key": "X-1"}, {"key": "X-2"}, {"key": "X-3"}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	result, err := client.Search(context.Background(), "project = X", 10)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.False(t, result.Truncated)
	assert.Equal(t, []string{"X-1", "X-2", "X-3"}, result.Keys)
}

func TestSearchOverCapReturnsCountOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total": 50, "issues": [{"key": "X-1"}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, false)
	result, err := client.Search(context.Background(), "project = X", 10)
	require.NoError(t, err)

	assert.Equal(t, 50, result.Total)
	assert.True(t, result.Truncated)
	assert.Empty(t, result.Keys)
}

func TestFetchErrorTaxonomy(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // Connection refused

		client := newTestClient(t, server.URL, false)
		_, err := client.GetIssue(context.Background(), "ABC-123")
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("decode error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>definitely not json</html>")
		}))
		defer server.Close()

		client := newTestClient(t, server.URL, false)
		_, err := client.GetIssue(context.Background(), "ABC-123")
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("tracker error payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"errorMessages": ["Issue Does Not Exist"], "errors": {}}`)
		}))
		defer server.Close()

		client := newTestClient(t, server.URL, false)
		_, err := client.GetIssue(context.Background(), "NOPE-1")
		assert.ErrorIs(t, err, ErrTracker)
		assert.Contains(t, err.Error(), "Issue Does Not Exist")
	})

	t.Run("non-JSON error page", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, "<html>bad gateway</html>")
		}))
		defer server.Close()

		client := newTestClient(t, server.URL, false)
		_, err := client.GetIssue(context.Background(), "ABC-123")
		assert.ErrorIs(t, err, ErrTracker)
	})
}

func TestURLs(t *testing.T) {
	client := newTestClient(t, "https://tracker.example.com/", false)

	assert.Equal(t, "https://tracker.example.com/browse/ABC-123", client.BrowseURL("ABC-123"))
	assert.Equal(t, "https://tracker.example.com/issues/?jql=project+%3D+X", client.NavigatorURL("project = X"))
}

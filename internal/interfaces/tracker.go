package interfaces

import (
	"context"

	"github.com/ternarybob/custos/internal/models"
)

// TrackerService is the single gateway to the external issue tracker's REST
// API. Implementations normalize the legacy and current response schemas
// into one Issue shape.
type TrackerService interface {
	// GetIssue fetches and normalizes a single issue by key
	GetIssue(ctx context.Context, key string) (*models.Issue, error)

	// GetWatchers returns the display names watching an issue, in API order
	GetWatchers(ctx context.Context, key string) ([]string, error)

	// Search runs a JQL query. Issue keys are expanded only when the total
	// is at or under maxList; above it only the count is surfaced.
	Search(ctx context.Context, jql string, maxList int) (*models.SearchResult, error)

	// BrowseURL returns the web UI deep link for an issue key
	BrowseURL(key string) string

	// NavigatorURL returns the web UI deep link showing a query's results
	NavigatorURL(jql string) string
}

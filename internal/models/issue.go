package models

// Sentinel display values used when the tracker omits a field
const (
	NoAssignee   = "no assignee"
	NoFixVersion = "no fix version"
)

// Issue is the normalized ticket representation. Both tracker response
// schemas (legacy and current) are flattened into this shape; it is built
// fresh on every fetch and never cached.
type Issue struct {
	Key         string   `json:"key"`
	Summary     string   `json:"summary"`
	Status      string   `json:"status"`
	Assignee    string   `json:"assignee"`
	FixVersions []string `json:"fix_versions"`
	Type        string   `json:"type"`
	Priority    string   `json:"priority"`
	Reporter    string   `json:"reporter"`
	Description string   `json:"description"`
	DueDate     string   `json:"due_date,omitempty"`
	IconURL     string   `json:"icon_url,omitempty"`
	BrowseURL   string   `json:"browse_url"`
}

// SearchResult carries the outcome of a JQL search. Keys is only populated
// when Total is at or under the listing cap; otherwise Truncated is set and
// callers must not expand results into per-issue fetches.
type SearchResult struct {
	Total     int      `json:"total"`
	Keys      []string `json:"keys,omitempty"`
	Truncated bool     `json:"truncated"`
}

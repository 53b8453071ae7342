package models

// Filter is a named, reusable JQL query. Names are matched
// case-insensitively; the stored name keeps the casing the user typed.
type Filter struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// FilterList is the persisted shape: the full ordered filter list stored
// under a single fixed key in the key/value store.
type FilterList struct {
	Key     string   `json:"key" badgerhold:"key"`
	Filters []Filter `json:"filters"`
}

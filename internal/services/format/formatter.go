// Package format renders normalized tracker data into chat-facing text and
// structured attachment payloads. Everything here is a pure function of its
// input.
package format

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/custos/internal/models"
)

var htmlTagPattern = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// Formatter builds replies. Descriptions that arrive as rendered HTML
// (tracker renderedFields) are converted to markdown for chat display.
type Formatter struct {
	converter *md.Converter
}

// New creates a formatter
func New() *Formatter {
	return &Formatter{
		converter: md.NewConverter("", true, nil),
	}
}

// IssueLine renders the single-issue summary line
func (f *Formatter) IssueLine(issue *models.Issue) string {
	return fmt.Sprintf("[%s] %s. %s / %s, %s %s",
		issue.Key,
		issue.Summary,
		issue.Assignee,
		issue.Status,
		FixVersions(issue),
		issue.BrowseURL,
	)
}

// FixVersions joins version names with ", ", or returns the no-fix-version
// sentinel when the list is empty.
func FixVersions(issue *models.Issue) string {
	if len(issue.FixVersions) == 0 {
		return models.NoFixVersion
	}
	return strings.Join(issue.FixVersions, ", ")
}

// IssueAttachment builds the rich attachment for a single issue. Only the
// attributes actually present become fields; absent ones are omitted rather
// than rendered blank.
func (f *Formatter) IssueAttachment(issue *models.Issue) *models.Attachment {
	attachment := &models.Attachment{
		Title:      fmt.Sprintf("[%s] %s", issue.Key, issue.Summary),
		TitleLink:  issue.BrowseURL,
		AuthorIcon: issue.IconURL,
		Text:       f.Description(issue.Description),
	}

	if issue.Reporter != "" {
		attachment.AuthorName = issue.Reporter + " (Reporter)"
	}

	addField := func(title, value string) {
		if value == "" {
			return
		}
		attachment.Fields = append(attachment.Fields, models.AttachmentField{
			Title: title,
			Value: value,
			Short: true,
		})
	}

	addField("Type", issue.Type)
	addField("Status", issue.Status)
	addField("Priority", issue.Priority)
	if issue.Assignee != models.NoAssignee {
		addField("Assignee", issue.Assignee)
	}
	addField("Due Date", issue.DueDate)

	return attachment
}

// Description returns the description ready for chat display, converting
// rendered HTML to markdown when the tracker sent HTML.
func (f *Formatter) Description(description string) string {
	if !htmlTagPattern.MatchString(description) {
		return description
	}

	converted, err := f.converter.ConvertString(description)
	if err != nil {
		return description
	}
	return strings.TrimSpace(converted)
}

// SearchSummary renders the search reply: a count line with the navigator
// deep link, then one line per resolved issue when under the listing cap,
// or a too-many marker otherwise.
func (f *Formatter) SearchSummary(result *models.SearchResult, navigatorURL string, issues []*models.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d issues for your search. %s", result.Total, navigatorURL)

	if result.Truncated {
		b.WriteString(" (too many to list)")
		return b.String()
	}

	for _, issue := range issues {
		b.WriteString("\n")
		b.WriteString(f.IssueLine(issue))
	}

	return b.String()
}

// FilterLine renders one saved filter
func (f *Formatter) FilterLine(filter models.Filter) string {
	return fmt.Sprintf("%s: %s", filter.Name, filter.Query)
}

// FilterList renders the count line plus one line per saved filter
func (f *Formatter) FilterList(filters []models.Filter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I have %d saved filters", len(filters))

	for _, filter := range filters {
		b.WriteString("\n")
		b.WriteString(f.FilterLine(filter))
	}

	return b.String()
}

// WatcherList renders the watcher reply for an issue
func (f *Formatter) WatcherList(key string, watchers []string) string {
	if len(watchers) == 0 {
		return fmt.Sprintf("Nobody is watching %s", key)
	}
	return fmt.Sprintf("Watchers for %s: %s", key, strings.Join(watchers, ", "))
}

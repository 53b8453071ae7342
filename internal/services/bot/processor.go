// Package bot drives the message-triggered pipeline (scan, dedup gate,
// fetch, format, reply) and dispatches the chat command surface.
package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/common"
	"github.com/ternarybob/custos/internal/interfaces"
	"github.com/ternarybob/custos/internal/models"
	"github.com/ternarybob/custos/internal/services/dedup"
	"github.com/ternarybob/custos/internal/services/filters"
	"github.com/ternarybob/custos/internal/services/format"
	"github.com/ternarybob/custos/internal/services/scanner"
)

// Command surface. Bare "filter NAME" executes the filter; "show filter
// NAME" displays its stored query.
var (
	watchersPattern     = regexp.MustCompile(`(?i)^(?:show\s+)?watchers\s+(?:for\s+)?(\S+)\s*$`)
	searchPattern       = regexp.MustCompile(`(?i)^search\s+(?:for\s+)?(.+?)\s*$`)
	saveFilterPattern   = regexp.MustCompile(`(?i)^save\s+filter\s+(.+?)\s+as\s+(\S+)\s*$`)
	deleteFilterPattern = regexp.MustCompile(`(?i)^delete\s+filter\s+(\S+)\s*$`)
	showFilterPattern   = regexp.MustCompile(`(?i)^show\s+filter\s+(\S+)\s*$`)
	useFilterPattern    = regexp.MustCompile(`(?i)^(?:use\s+)?filter\s+(\S+)\s*$`)
	listFiltersPattern  = regexp.MustCompile(`(?i)^(?:show\s+)?filters\s*$`)
)

// Processor handles inbound chat messages
type Processor struct {
	scanner   *scanner.Scanner
	window    *dedup.Window
	filters   *filters.Service
	tracker   interfaces.TrackerService
	formatter *format.Formatter
	logger    arbor.ILogger

	botName string
	ignored map[string]bool
	maxList int

	wg sync.WaitGroup
}

// NewProcessor wires the pipeline from configuration
func NewProcessor(
	config *common.BotConfig,
	trackerService interfaces.TrackerService,
	filterService *filters.Service,
	logger arbor.ILogger,
) (*Processor, error) {
	keyScanner, err := scanner.New(config.ProjectPattern)
	if err != nil {
		return nil, err
	}

	ignored := make(map[string]bool, len(config.IgnoredUsers))
	for _, user := range config.IgnoredUsers {
		ignored[strings.ToLower(user)] = true
	}

	return &Processor{
		scanner:   keyScanner,
		window:    dedup.NewWindow(time.Duration(config.DedupWindowSeconds) * time.Second),
		filters:   filterService,
		tracker:   trackerService,
		formatter: format.New(),
		logger:    logger,
		botName:   config.Name,
		ignored:   ignored,
		maxList:   config.MaxList,
	}, nil
}

// HandleMessage routes an inbound message: recognized commands are
// dispatched directly; everything else goes through the mention pipeline.
func (p *Processor) HandleMessage(ctx context.Context, msg models.ChatMessage, responder interfaces.Responder) {
	if strings.EqualFold(msg.User, p.botName) {
		return
	}
	if p.ignored[strings.ToLower(msg.User)] {
		p.logger.Debug().Str("user", msg.User).Msg("Ignoring message from ignored user")
		return
	}

	if p.dispatchCommand(ctx, msg, responder) {
		return
	}

	p.handleMentions(ctx, msg, responder)
}

// Wait blocks until all in-flight issue lookups have completed. Used by
// tests and the shutdown path; lookups are never cancelled.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// handleMentions runs the scan -> dedup -> fetch -> format pipeline. Each
// key is fetched independently and replied to as soon as its result
// arrives, so replies may not follow mention order. A key that fails to
// resolve produces silence, not an error reply.
func (p *Processor) handleMentions(ctx context.Context, msg models.ChatMessage, responder interfaces.Responder) {
	for _, key := range p.scanner.Extract(msg.Text) {
		if !p.window.ShouldAnnounce(key) {
			p.logger.Debug().Str("key", key).Msg("Suppressing repeat mention")
			continue
		}

		p.wg.Add(1)
		go func(key string) {
			defer p.wg.Done()

			issue, err := p.tracker.GetIssue(ctx, key)
			if err != nil {
				p.logger.Debug().Err(err).Str("key", key).Msg("Mention lookup failed")
				return
			}

			reply := models.ChatReply{
				Text:       p.formatter.IssueLine(issue),
				Attachment: p.formatter.IssueAttachment(issue),
			}
			if err := responder.Reply(ctx, reply); err != nil {
				p.logger.Warn().Err(err).Str("key", key).Msg("Failed to deliver reply")
			}
		}(key)
	}
}

// dispatchCommand matches the message against the command surface.
// Returns false when the text is not a command.
func (p *Processor) dispatchCommand(ctx context.Context, msg models.ChatMessage, responder interfaces.Responder) bool {
	text := strings.TrimSpace(msg.Text)

	switch {
	case listFiltersPattern.MatchString(text):
		p.replyText(ctx, responder, p.formatter.FilterList(p.filters.All()))

	case watchersPattern.MatchString(text):
		key := watchersPattern.FindStringSubmatch(text)[1]
		p.handleWatchers(ctx, key, responder)

	case saveFilterPattern.MatchString(text):
		m := saveFilterPattern.FindStringSubmatch(text)
		p.handleSaveFilter(ctx, m[2], m[1], responder)

	case deleteFilterPattern.MatchString(text):
		name := deleteFilterPattern.FindStringSubmatch(text)[1]
		p.handleDeleteFilter(ctx, name, responder)

	case showFilterPattern.MatchString(text):
		name := showFilterPattern.FindStringSubmatch(text)[1]
		p.handleShowFilter(ctx, name, responder)

	case useFilterPattern.MatchString(text):
		name := useFilterPattern.FindStringSubmatch(text)[1]
		p.handleUseFilter(ctx, name, responder)

	case searchPattern.MatchString(text):
		jql := searchPattern.FindStringSubmatch(text)[1]
		p.runSearch(ctx, jql, responder)

	default:
		return false
	}

	return true
}

func (p *Processor) handleWatchers(ctx context.Context, key string, responder interfaces.Responder) {
	key = strings.ToUpper(key)
	watchers, err := p.tracker.GetWatchers(ctx, key)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("Watcher lookup failed")
		p.replyText(ctx, responder, fmt.Sprintf("Could not fetch watchers for %s", key))
		return
	}

	p.replyText(ctx, responder, p.formatter.WatcherList(key, watchers))
}

func (p *Processor) handleSaveFilter(ctx context.Context, name, query string, responder interfaces.Responder) {
	if err := p.filters.Save(ctx, name, query); err != nil {
		p.logger.Error().Err(err).Str("name", name).Msg("Failed to save filter")
		p.replyText(ctx, responder, fmt.Sprintf("Could not save filter %s", name))
		return
	}

	p.replyText(ctx, responder, fmt.Sprintf("Saved filter %s", name))
}

func (p *Processor) handleDeleteFilter(ctx context.Context, name string, responder interfaces.Responder) {
	removed, err := p.filters.Delete(ctx, name)
	if err != nil {
		p.logger.Error().Err(err).Str("name", name).Msg("Failed to delete filter")
		p.replyText(ctx, responder, fmt.Sprintf("Could not delete filter %s", name))
		return
	}
	if !removed {
		p.replyText(ctx, responder, fmt.Sprintf("Could not find filter %s", name))
		return
	}

	p.replyText(ctx, responder, fmt.Sprintf("Deleted filter %s", name))
}

func (p *Processor) handleShowFilter(ctx context.Context, name string, responder interfaces.Responder) {
	filter, err := p.filters.Get(name)
	if err != nil {
		p.replyText(ctx, responder, fmt.Sprintf("Could not find filter %s", name))
		return
	}

	p.replyText(ctx, responder, p.formatter.FilterLine(filter))
}

func (p *Processor) handleUseFilter(ctx context.Context, name string, responder interfaces.Responder) {
	filter, err := p.filters.Get(name)
	if err != nil {
		p.replyText(ctx, responder, fmt.Sprintf("Could not find filter %s", name))
		return
	}

	p.runSearch(ctx, filter.Query, responder)
}

// runSearch executes a JQL query and replies with the summary. User
// initiated the search, so failures come back as explicit replies.
func (p *Processor) runSearch(ctx context.Context, jql string, responder interfaces.Responder) {
	result, err := p.tracker.Search(ctx, jql, p.maxList)
	if err != nil {
		p.logger.Warn().Err(err).Str("jql", jql).Msg("Search failed")
		p.replyText(ctx, responder, "Search failed, check your query")
		return
	}

	var issues []*models.Issue
	for _, key := range result.Keys {
		issue, err := p.tracker.GetIssue(ctx, key)
		if err != nil {
			p.logger.Debug().Err(err).Str("key", key).Msg("Skipping unresolvable search hit")
			continue
		}
		issues = append(issues, issue)
	}

	p.replyText(ctx, responder, p.formatter.SearchSummary(result, p.tracker.NavigatorURL(jql), issues))
}

func (p *Processor) replyText(ctx context.Context, responder interfaces.Responder, text string) {
	if err := responder.Reply(ctx, models.ChatReply{Text: text}); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn().Err(err).Msg("Failed to deliver reply")
	}
}

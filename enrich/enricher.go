package enrich

import (
	"context"
	"time"

	"github.com/jonwraymond/chatbridge/chat"
	"github.com/jonwraymond/chatbridge/resolve"
)

// Per-operation result bounds. Truncation happens before enrichment, so
// resolver cost scales with what the caller actually sees.
const (
	// DefaultPostsPerPage is the default page size for channel history.
	DefaultPostsPerPage = 20

	// DefaultSearchLimit is the default cap on search results.
	DefaultSearchLimit = 50

	// MaxPerPage is the hard upper bound the platform accepts per page.
	MaxPerPage = 200
)

// timestampLayout renders millisecond epoch timestamps for display.
const timestampLayout = "2006-01-02 15:04:05"

// Post is a chat post with resolved author fields and a formatted timestamp.
// Created per request and never cached; only its constituent entities are.
type Post struct {
	ID                string `json:"id"`
	ChannelID         string `json:"channel_id"`
	UserID            string `json:"user_id"`
	RootID            string `json:"root_id,omitempty"`
	Username          string `json:"username"`
	UserDisplayName   string `json:"user_display_name"`
	Message           string `json:"message"`
	CreateAt          int64  `json:"create_at"`
	CreateAtFormatted string `json:"create_at_formatted"`
}

// SearchResult is an enriched search hit: a Post plus resolved channel
// fields, since search spans channels.
type SearchResult struct {
	Post
	ChannelName        string `json:"channel_name"`
	ChannelDisplayName string `json:"channel_display_name"`
}

// Enricher resolves the references in raw records through the entity
// resolvers and produces enriched copies.
type Enricher struct {
	users    *resolve.Resolver[chat.User]
	channels *resolve.Resolver[chat.Channel]
}

// New creates an Enricher over the given resolvers.
func New(users *resolve.Resolver[chat.User], channels *resolve.Resolver[chat.Channel]) *Enricher {
	return &Enricher{users: users, channels: channels}
}

// Posts enriches a page of channel posts with author information. One output
// record per input record, same order.
func (e *Enricher) Posts(ctx context.Context, posts []chat.Post) []Post {
	userIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		userIDs = append(userIDs, p.UserID)
	}
	users := e.users.Resolve(ctx, userIDs)

	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, enrichPost(p, users[p.UserID]))
	}
	return out
}

// SearchResults enriches search hits with author and channel information.
// One output record per input record, same order.
func (e *Enricher) SearchResults(ctx context.Context, posts []chat.Post) []SearchResult {
	userIDs := make([]string, 0, len(posts))
	channelIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		userIDs = append(userIDs, p.UserID)
		channelIDs = append(channelIDs, p.ChannelID)
	}
	users := e.users.Resolve(ctx, userIDs)
	channels := e.channels.Resolve(ctx, channelIDs)

	out := make([]SearchResult, 0, len(posts))
	for _, p := range posts {
		ch := channels[p.ChannelID]
		out = append(out, SearchResult{
			Post:               enrichPost(p, users[p.UserID]),
			ChannelName:        ch.Name,
			ChannelDisplayName: ch.DisplayName,
		})
	}
	return out
}

func enrichPost(p chat.Post, author chat.User) Post {
	username := author.Username
	if username == "" {
		// Resolution failed outright; fall back to the raw id.
		username = p.UserID
	}
	return Post{
		ID:                p.ID,
		ChannelID:         p.ChannelID,
		UserID:            p.UserID,
		RootID:            p.RootID,
		Username:          username,
		UserDisplayName:   author.DisplayName(),
		Message:           p.Message,
		CreateAt:          p.CreateAt,
		CreateAtFormatted: FormatTimestamp(p.CreateAt),
	}
}

// FormatTimestamp renders a millisecond epoch timestamp as
// "YYYY-MM-DD HH:MM:SS" in UTC. Zero renders as the epoch start, a defined
// degenerate case rather than an error.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(timestampLayout)
}

// Truncate bounds a result set to limit items. Non-positive limits fall back
// to def; limits are clamped to MaxPerPage.
func Truncate(posts []chat.Post, limit, def int) []chat.Post {
	if limit <= 0 {
		limit = def
	}
	if limit > MaxPerPage {
		limit = MaxPerPage
	}
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

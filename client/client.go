package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/chatbridge/cache"
	"github.com/jonwraymond/chatbridge/chat"
	"github.com/jonwraymond/chatbridge/config"
	"github.com/jonwraymond/chatbridge/enrich"
	"github.com/jonwraymond/chatbridge/observe"
	"github.com/jonwraymond/chatbridge/remote"
	"github.com/jonwraymond/chatbridge/resolve"
)

// Config configures a Client.
type Config struct {
	// API is the remote platform transport. Required.
	API remote.API

	// Token is a personal access token. Takes precedence over Login/Password.
	Token string

	// Login and Password establish a password session when no token is set.
	Login    string
	Password string

	// CacheTTL is the entity cache entry lifetime.
	// Default: cache.DefaultTTL
	CacheTTL time.Duration

	// Now overrides the cache clock, for tests.
	// Default: time.Now
	Now func() time.Time

	// Logger receives structured session and operation events.
	// Default: observe.NopLogger()
	Logger observe.Logger

	// Metrics records operation outcomes. Optional; nil disables recording.
	Metrics *observe.Metrics
}

// Client is the caller-facing surface of the enrichment layer. It owns the
// session, the entity cache, and the resolvers, and is safe for concurrent
// use.
type Client struct {
	cfg      Config
	api      remote.API
	store    *cache.Store
	users    *resolve.Resolver[chat.User]
	channels *resolve.Resolver[chat.Channel]
	enricher *enrich.Enricher
	logger   observe.Logger
	metrics  *observe.Metrics
	shutdown func(context.Context) error

	mu    sync.Mutex
	state State
	me    chat.User
}

// Member is a channel membership with the member's resolved identity.
type Member struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Roles       string `json:"roles,omitempty"`
}

// New creates a Client. The session starts disconnected; it is established by
// Connect or lazily by the first operation.
func New(cfg Config) (*Client, error) {
	if cfg.API == nil {
		return nil, ErrNoAPI
	}
	if cfg.Token == "" && (cfg.Login == "" || cfg.Password == "") {
		return nil, ErrNoCredentials
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	c := &Client{
		cfg:     cfg,
		api:     cfg.API,
		store:   cache.NewStore(cache.Config{TTL: cfg.CacheTTL, Now: cfg.Now}),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		state:   StateDisconnected,
	}

	c.users = resolve.New(resolve.Config[chat.User]{
		Lookup: c.store.GetUser,
		Store:  c.store.SetUser,
		Fetch: func(ctx context.Context, id string) (chat.User, error) {
			var u *chat.User
			err := c.call(ctx, "users.get", func(ctx context.Context) error {
				var err error
				u, err = c.api.GetUser(ctx, id)
				return err
			})
			if err != nil {
				return chat.User{}, err
			}
			return *u, nil
		},
		Placeholder: func(id string) chat.User {
			c.metrics.RecordPlaceholder(context.Background(), "user")
			return chat.User{ID: id, Username: "user_" + shortID(id)}
		},
	})

	c.channels = resolve.New(resolve.Config[chat.Channel]{
		Lookup: c.store.GetChannel,
		Store:  c.store.SetChannel,
		Fetch: func(ctx context.Context, id string) (chat.Channel, error) {
			var ch *chat.Channel
			err := c.call(ctx, "channels.get", func(ctx context.Context) error {
				var err error
				ch, err = c.api.GetChannel(ctx, id)
				return err
			})
			if err != nil {
				return chat.Channel{}, err
			}
			return *ch, nil
		},
		Placeholder: func(id string) chat.Channel {
			c.metrics.RecordPlaceholder(context.Background(), "channel")
			return chat.Channel{
				ID:          id,
				Name:        "channel_" + shortID(id),
				DisplayName: "Unknown Channel",
			}
		},
	})

	c.enricher = enrich.New(c.users, c.channels)
	return c, nil
}

// NewFromConfig builds a Client, its HTTP transport, and its telemetry from
// environment configuration. The metrics provider set up here is flushed by
// Disconnect.
func NewFromConfig(ctx context.Context, cfg config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	api, err := remote.NewClient(remote.ClientConfig{
		BaseURL:            cfg.URL,
		Timeout:            cfg.HTTPTimeout,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, err
	}

	tel, err := observe.New(ctx, observe.Config{
		ServiceName:     "chatbridge",
		MetricsExporter: cfg.MetricsExporter,
		LogLevel:        cfg.LogLevel,
	})
	if err != nil {
		return nil, err
	}

	c, err := New(Config{
		API:      api,
		Token:    cfg.Token,
		Login:    cfg.Login,
		Password: cfg.Password,
		CacheTTL: cfg.CacheTTL,
		Logger:   tel.Logger,
		Metrics:  tel.Metrics,
	})
	if err != nil {
		return nil, err
	}
	c.shutdown = tel.Shutdown
	return c, nil
}

// Connect establishes and verifies the session.
func (c *Client) Connect(ctx context.Context) error {
	return c.authenticate(ctx)
}

// Disconnect revokes password sessions, releases transport connections,
// flushes telemetry owned by the client, and leaves the session
// disconnected. Token sessions are not revoked: the token outlives the
// process.
func (c *Client) Disconnect(ctx context.Context) error {
	var err error
	if c.cfg.Token == "" {
		err = c.api.Logout(ctx)
	}
	c.api.Close()

	c.mu.Lock()
	c.state = StateDisconnected
	c.me = chat.User{}
	c.mu.Unlock()

	c.logger.Info("session closed")

	if c.shutdown != nil {
		if serr := c.shutdown(ctx); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

// State returns the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// authenticate exchanges credentials for a verified session. Token
// credentials are verified with a who-am-I call so an invalid token fails
// here rather than on the first real operation. Serialized: concurrent
// callers wait and observe the resulting state.
func (c *Client) authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateAuthenticating

	var (
		me  *chat.User
		err error
	)
	if c.cfg.Token != "" {
		c.api.SetToken(c.cfg.Token)
		me, err = c.api.GetMe(ctx)
	} else {
		me, err = c.api.Login(ctx, c.cfg.Login, c.cfg.Password)
	}
	if err != nil {
		c.state = StateDisconnected
		c.logger.Error("authentication failed", observe.Err(err))
		return fmt.Errorf("authenticate: %w", err)
	}

	c.me = *me
	c.state = StateConnected
	c.logger.Info("session established", observe.String("user", me.Username))
	return nil
}

// call runs fn with the session guarantees: a session is established first if
// none is held, and a session-rejected failure triggers exactly one
// re-authentication and one retry. The second failure is surfaced verbatim;
// non-auth failures propagate untouched. A retry that fails with a non-auth
// error leaves the session connected, since the re-authentication just
// proved the session itself good; only an auth failure on the retry
// disconnects.
func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := c.ensureConnected(ctx); err != nil {
		return err
	}

	err := c.run(ctx, op, fn)
	if err == nil || !remote.IsAuthError(err) {
		return err
	}

	c.logger.Warn("session rejected, re-authenticating",
		observe.String("op", op), observe.Err(err))

	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()

	if aerr := c.authenticate(ctx); aerr != nil {
		c.metrics.RecordReauth(ctx, false)
		return aerr
	}
	c.metrics.RecordReauth(ctx, true)

	err = c.run(ctx, op, fn)
	if err != nil && remote.IsAuthError(err) {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
	}
	return err
}

func (c *Client) run(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	c.metrics.RecordOperation(ctx, op, time.Since(start), err)
	return err
}

func (c *Client) ensureConnected(ctx context.Context) error {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()
	if connected {
		return nil
	}
	return c.authenticate(ctx)
}

// Teams lists the session user's teams and caches each one.
func (c *Client) Teams(ctx context.Context) ([]chat.Team, error) {
	var teams []chat.Team
	err := c.call(ctx, "teams.list", func(ctx context.Context) error {
		var err error
		teams, err = c.api.ListTeams(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		c.store.SetTeam(t)
	}
	return teams, nil
}

// TeamByName resolves a team by name or display name. The cached team index
// is consulted first; on a miss the team list is refreshed and scanned. A
// name matching no team is a descriptive failure before any channel or post
// fetch.
func (c *Client) TeamByName(ctx context.Context, name string) (*chat.Team, error) {
	if t, ok := c.store.GetTeamByName(name); ok {
		return &t, nil
	}

	teams, err := c.Teams(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		if t.Name == name || t.DisplayName == name {
			team := t
			return &team, nil
		}
	}
	return nil, fmt.Errorf("team %q not found", name)
}

// Channels lists the session user's channels in a team and caches each one.
func (c *Client) Channels(ctx context.Context, teamID string) ([]chat.Channel, error) {
	var channels []chat.Channel
	err := c.call(ctx, "channels.list", func(ctx context.Context) error {
		var err error
		channels, err = c.api.ListChannels(ctx, teamID)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		c.store.SetChannel(ch)
	}
	return channels, nil
}

// ChannelByName resolves a channel by team id and name, cache first.
func (c *Client) ChannelByName(ctx context.Context, teamID, name string) (*chat.Channel, error) {
	if ch, ok := c.store.GetChannelByName(teamID, name); ok {
		return &ch, nil
	}

	var ch *chat.Channel
	err := c.call(ctx, "channels.get_by_name", func(ctx context.Context) error {
		var err error
		ch, err = c.api.GetChannelByName(ctx, teamID, name)
		return err
	})
	if err != nil {
		if remote.IsNotFound(err) {
			return nil, fmt.Errorf("channel %q not found: %w", name, err)
		}
		return nil, err
	}
	c.store.SetChannel(*ch)
	return ch, nil
}

// User returns a user by id, cache first. The ids "me" and "" name the
// session user, which is never cached: the answer depends on the session, not
// the id.
func (c *Client) User(ctx context.Context, id string) (*chat.User, error) {
	if id == "" || id == "me" {
		var me *chat.User
		err := c.call(ctx, "users.me", func(ctx context.Context) error {
			var err error
			me, err = c.api.GetMe(ctx)
			return err
		})
		return me, err
	}

	if u, ok := c.store.GetUser(id); ok {
		return &u, nil
	}

	var u *chat.User
	err := c.call(ctx, "users.get", func(ctx context.Context) error {
		var err error
		u, err = c.api.GetUser(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.store.SetUser(*u)
	return u, nil
}

// Posts returns one page of a channel's posts, newest first, enriched with
// author fields. Page zero is the most recent page; limit bounds the page
// size, falling back to enrich.DefaultPostsPerPage when non-positive.
// Truncation happens before enrichment.
func (c *Client) Posts(ctx context.Context, channelID string, page, limit int) ([]enrich.Post, error) {
	if page < 0 {
		page = 0
	}
	var list *chat.PostList
	err := c.call(ctx, "posts.list", func(ctx context.Context) error {
		var err error
		list, err = c.api.GetPosts(ctx, channelID, page, bound(limit, enrich.DefaultPostsPerPage))
		return err
	})
	if err != nil {
		return nil, err
	}

	posts := enrich.Truncate(list.Ordered(), limit, enrich.DefaultPostsPerPage)
	for _, p := range posts {
		c.store.SetPost(p)
	}
	return c.enricher.Posts(ctx, posts), nil
}

// PostsByChannelName is Posts addressed by team and channel name.
func (c *Client) PostsByChannelName(ctx context.Context, teamName, channelName string, page, limit int) ([]enrich.Post, error) {
	team, err := c.TeamByName(ctx, teamName)
	if err != nil {
		return nil, err
	}
	ch, err := c.ChannelByName(ctx, team.ID, channelName)
	if err != nil {
		return nil, err
	}
	return c.Posts(ctx, ch.ID, page, limit)
}

// Send posts a message to a channel. A non-empty rootID makes it a thread
// reply.
func (c *Client) Send(ctx context.Context, channelID, message, rootID string) (*chat.Post, error) {
	var post *chat.Post
	err := c.call(ctx, "posts.create", func(ctx context.Context) error {
		var err error
		post, err = c.api.CreatePost(ctx, channelID, message, rootID)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.store.SetPost(*post)
	return post, nil
}

// SendByChannelName is Send addressed by team and channel name.
func (c *Client) SendByChannelName(ctx context.Context, teamName, channelName, message, rootID string) (*chat.Post, error) {
	team, err := c.TeamByName(ctx, teamName)
	if err != nil {
		return nil, err
	}
	ch, err := c.ChannelByName(ctx, team.ID, channelName)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, ch.ID, message, rootID)
}

// Search searches a team's posts and returns up to limit hits enriched with
// author and channel fields. Non-positive limits fall back to
// enrich.DefaultSearchLimit. Truncation happens before enrichment. Zero hits
// is a successful empty result, not a failure.
func (c *Client) Search(ctx context.Context, teamID, terms string, limit int) ([]enrich.SearchResult, error) {
	var list *chat.PostList
	err := c.call(ctx, "posts.search", func(ctx context.Context) error {
		var err error
		list, err = c.api.SearchPosts(ctx, teamID, terms)
		return err
	})
	if err != nil {
		return nil, err
	}

	posts := enrich.Truncate(list.Ordered(), limit, enrich.DefaultSearchLimit)
	for _, p := range posts {
		c.store.SetPost(p)
	}
	return c.enricher.SearchResults(ctx, posts), nil
}

// SearchByTeamName is Search addressed by team name.
func (c *Client) SearchByTeamName(ctx context.Context, teamName, terms string, limit int) ([]enrich.SearchResult, error) {
	team, err := c.TeamByName(ctx, teamName)
	if err != nil {
		return nil, err
	}
	return c.Search(ctx, team.ID, terms, limit)
}

// ChannelMembers lists a channel's members with their resolved identities.
// Unresolvable members degrade to placeholder identities rather than failing
// the listing.
func (c *Client) ChannelMembers(ctx context.Context, channelID string) ([]Member, error) {
	var members []chat.ChannelMember
	err := c.call(ctx, "channels.members", func(ctx context.Context) error {
		var err error
		members, err = c.api.GetChannelMembers(ctx, channelID)
		return err
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users := c.users.Resolve(ctx, ids)

	out := make([]Member, 0, len(members))
	for _, m := range members {
		u := users[m.UserID]
		out = append(out, Member{
			UserID:      m.UserID,
			Username:    u.Username,
			DisplayName: u.DisplayName(),
			Roles:       m.Roles,
		})
	}
	return out, nil
}

// ClearCache drops all cached entities.
func (c *Client) ClearCache() {
	c.store.Clear()
	c.logger.Info("cache cleared")
}

// CacheStats returns a snapshot of cache contents and traffic.
func (c *Client) CacheStats() cache.Stats {
	return c.store.Stats()
}

// bound clamps a caller-supplied item limit to a usable page size.
func bound(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > enrich.MaxPerPage {
		return enrich.MaxPerPage
	}
	return limit
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

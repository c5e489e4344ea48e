package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jonwraymond/chatbridge/chat"
)

const (
	apiPrefix        = "/api/v4"
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "chatbridge"

	// tokenHeader is the response header carrying the session token after a
	// password login.
	tokenHeader = "Token"
)

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	// BaseURL is the platform root, e.g. "https://chat.example.com". Required.
	BaseURL string

	// UserAgent is sent on every request.
	// Default: "chatbridge"
	UserAgent string

	// Timeout bounds every request, connection prologue included.
	// Default: 10s
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification. Not
	// recommended outside development.
	InsecureSkipVerify bool
}

// Client is the HTTP implementation of API against a Mattermost-compatible
// /api/v4 REST surface.
type Client struct {
	base *url.URL
	http *http.Client

	mu    sync.RWMutex
	token string
}

// userAgentRoundTripper stamps a User-Agent on every outgoing request
// without mutating the caller's request.
type userAgentRoundTripper struct {
	wrapped   http.RoundTripper
	userAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.userAgent)
	return rt.wrapped.RoundTrip(clone)
}

// NewClient creates a Client for the platform at cfg.BaseURL.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("remote: invalid base URL: %w", err)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in via config
		transport = t
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &userAgentRoundTripper{
				wrapped:   transport,
				userAgent: cfg.UserAgent,
			},
		},
	}, nil
}

// SetToken installs a personal access token for subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login establishes a password session and captures the session token.
func (c *Client) Login(ctx context.Context, loginID, password string) (*chat.User, error) {
	if loginID == "" || password == "" {
		return nil, ErrNoCredentials
	}

	body := map[string]string{"login_id": loginID, "password": password}
	var user chat.User
	header, err := c.do(ctx, http.MethodPost, "/users/login", nil, body, &user)
	if err != nil {
		return nil, err
	}

	token := header.Get(tokenHeader)
	if token == "" {
		return nil, fmt.Errorf("remote: login response carried no session token")
	}
	c.SetToken(token)
	return &user, nil
}

// GetMe returns the user owning the current session.
func (c *Client) GetMe(ctx context.Context) (*chat.User, error) {
	var user chat.User
	if _, err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListTeams returns the teams the session user is a member of.
func (c *Client) ListTeams(ctx context.Context) ([]chat.Team, error) {
	var teams []chat.Team
	if _, err := c.do(ctx, http.MethodGet, "/users/me/teams", nil, nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// ListChannels returns the session user's channels in a team.
func (c *Client) ListChannels(ctx context.Context, teamID string) ([]chat.Channel, error) {
	var channels []chat.Channel
	path := "/users/me/teams/" + url.PathEscape(teamID) + "/channels"
	if _, err := c.do(ctx, http.MethodGet, path, nil, nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// GetChannel returns a channel by id.
func (c *Client) GetChannel(ctx context.Context, channelID string) (*chat.Channel, error) {
	var channel chat.Channel
	path := "/channels/" + url.PathEscape(channelID)
	if _, err := c.do(ctx, http.MethodGet, path, nil, nil, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// GetChannelByName returns a channel by team id and channel name.
func (c *Client) GetChannelByName(ctx context.Context, teamID, name string) (*chat.Channel, error) {
	var channel chat.Channel
	path := "/teams/" + url.PathEscape(teamID) + "/channels/name/" + url.PathEscape(name)
	if _, err := c.do(ctx, http.MethodGet, path, nil, nil, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// GetUser returns a user by id. The id "me" resolves to the session user.
func (c *Client) GetUser(ctx context.Context, userID string) (*chat.User, error) {
	var user chat.User
	path := "/users/" + url.PathEscape(userID)
	if _, err := c.do(ctx, http.MethodGet, path, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPosts returns a page of a channel's posts, newest first.
func (c *Client) GetPosts(ctx context.Context, channelID string, page, perPage int) (*chat.PostList, error) {
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	var list chat.PostList
	path := "/channels/" + url.PathEscape(channelID) + "/posts"
	if _, err := c.do(ctx, http.MethodGet, path, query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreatePost posts a message to a channel, optionally as a thread reply.
func (c *Client) CreatePost(ctx context.Context, channelID, message, rootID string) (*chat.Post, error) {
	body := map[string]string{
		"channel_id": channelID,
		"message":    message,
	}
	if rootID != "" {
		body["root_id"] = rootID
	}

	var post chat.Post
	if _, err := c.do(ctx, http.MethodPost, "/posts", nil, body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// SearchPosts searches a team's posts for the given terms.
func (c *Client) SearchPosts(ctx context.Context, teamID, terms string) (*chat.PostList, error) {
	body := map[string]any{
		"terms":        terms,
		"is_or_search": false,
	}
	var list chat.PostList
	path := "/teams/" + url.PathEscape(teamID) + "/posts/search"
	if _, err := c.do(ctx, http.MethodPost, path, nil, body, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetChannelMembers returns the members of a channel.
func (c *Client) GetChannelMembers(ctx context.Context, channelID string) ([]chat.ChannelMember, error) {
	var members []chat.ChannelMember
	path := "/channels/" + url.PathEscape(channelID) + "/members"
	if _, err := c.do(ctx, http.MethodGet, path, nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// Logout revokes the current session and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/users/logout", nil, nil, nil)
	if err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Close releases idle transport connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// apiError is the platform's error response body.
type apiError struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// do performs a single request against apiPrefix+path and decodes the JSON
// response into out when out is non-nil. Response headers are returned so
// Login can read the session token.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (http.Header, error) {
	ref := &url.URL{Path: apiPrefix + path}
	u := c.base.ResolveReference(ref)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("remote: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network-level failure: propagated as-is, never retried upstream.
		return nil, fmt.Errorf("remote: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr) // body may not be JSON; keep zero values
		return nil, NewStatusError(resp.StatusCode, apiErr.ID, apiErr.Message)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("remote: failed to decode response: %w", err)
		}
	}
	return resp.Header, nil
}

// Ensure Client implements API
var _ API = (*Client)(nil)

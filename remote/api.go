package remote

import (
	"context"

	"github.com/jonwraymond/chatbridge/chat"
)

// API is the remote chat platform surface the client layer consumes. Every
// method either returns a populated record or fails with an error from the
// taxonomy in errors.go.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: every call honors cancellation/deadlines; the transport carries
//   its own timeout, no additional layer is added upstream.
// - Errors: server messages are preserved verbatim inside StatusError.
type API interface {
	// Login establishes a password session and stores the session token for
	// subsequent calls. Returns the authenticated user.
	Login(ctx context.Context, loginID, password string) (*chat.User, error)

	// SetToken installs a personal access token for subsequent calls.
	SetToken(token string)

	// GetMe returns the user owning the current session. Used to verify a
	// token at authentication time.
	GetMe(ctx context.Context) (*chat.User, error)

	// ListTeams returns the teams the session user is a member of.
	ListTeams(ctx context.Context) ([]chat.Team, error)

	// ListChannels returns the session user's channels in a team.
	ListChannels(ctx context.Context, teamID string) ([]chat.Channel, error)

	// GetChannel returns a channel by id.
	GetChannel(ctx context.Context, channelID string) (*chat.Channel, error)

	// GetChannelByName returns a channel by team id and channel name.
	GetChannelByName(ctx context.Context, teamID, name string) (*chat.Channel, error)

	// GetUser returns a user by id.
	GetUser(ctx context.Context, userID string) (*chat.User, error)

	// GetPosts returns a page of a channel's posts, newest first.
	GetPosts(ctx context.Context, channelID string, page, perPage int) (*chat.PostList, error)

	// CreatePost posts a message to a channel. rootID, when non-empty, makes
	// the post a reply in that thread.
	CreatePost(ctx context.Context, channelID, message, rootID string) (*chat.Post, error)

	// SearchPosts searches a team's posts for the given terms.
	SearchPosts(ctx context.Context, teamID, terms string) (*chat.PostList, error)

	// GetChannelMembers returns the members of a channel.
	GetChannelMembers(ctx context.Context, channelID string) ([]chat.ChannelMember, error)

	// Logout revokes the current session, if any.
	Logout(ctx context.Context) error

	// Close releases idle transport connections.
	Close()
}

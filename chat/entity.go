package chat

import "strings"

// Kind identifies an entity kind for caching and resolution.
type Kind string

const (
	KindUser    Kind = "user"
	KindTeam    Kind = "team"
	KindChannel Kind = "channel"
	KindPost    Kind = "post"
)

// User is a chat platform user account.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
}

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	if u.Username != "" {
		return u.Username
	}
	return "Unknown User"
}

// Team is a chat platform team.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Channel is a channel within a team.
type Channel struct {
	ID          string `json:"id"`
	TeamID      string `json:"team_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// Post is a single message in a channel. CreateAt is a millisecond epoch
// timestamp, as delivered by the platform.
type Post struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	RootID    string `json:"root_id"`
	Message   string `json:"message"`
	CreateAt  int64  `json:"create_at"`
}

// PostList is the wire shape of a page of posts: posts keyed by id plus the
// display order of those ids, newest first.
type PostList struct {
	Order []string        `json:"order"`
	Posts map[string]Post `json:"posts"`
}

// Ordered returns the posts in display order. Ids in Order with no matching
// post are skipped.
func (pl *PostList) Ordered() []Post {
	if pl == nil {
		return nil
	}
	out := make([]Post, 0, len(pl.Order))
	for _, id := range pl.Order {
		if p, ok := pl.Posts[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// ChannelMember records a user's membership in a channel.
type ChannelMember struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Roles     string `json:"roles"`
}

package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/chatbridge/chat"
)

// DefaultTTL is the default entry lifetime. Team, channel and user metadata
// churns slowly relative to request rate, so a conservative uniform TTL
// trades a bounded staleness window for far fewer remote calls.
const DefaultTTL = 5 * time.Minute

// Config configures a Store.
type Config struct {
	// TTL is the uniform entry lifetime across all kinds.
	// Default: DefaultTTL
	TTL time.Duration

	// Now overrides the clock, for tests.
	// Default: time.Now
	Now func() time.Time
}

// Stats is a point-in-time snapshot of store contents and traffic. It is
// observability-only and carries no behavioral contract.
type Stats struct {
	Users    int
	Teams    int
	Channels int
	Posts    int

	// OldestAge is the age of the oldest live entry across all kinds.
	OldestAge time.Duration

	Hits   int64
	Misses int64
}

// Store is a time-bounded cache of chat entities, one table per kind plus
// secondary name indices for teams and channels. It is safe for concurrent
// use.
type Store struct {
	ttl time.Duration
	now func() time.Time

	users    *table[chat.User]
	teams    *table[chat.Team]
	channels *table[chat.Channel]
	posts    *table[chat.Post]

	// Secondary indices redirect into the primary tables. A pointer is only
	// as fresh as the primary entry it names; stale pointers are dropped on
	// the lookup that discovers them.
	namesMu      sync.RWMutex
	teamNames    map[string]string // team name -> team id
	channelNames map[string]string // team id + "/" + channel name -> channel id

	hits   atomic.Int64
	misses atomic.Int64
}

// NewStore creates a Store with the given configuration.
func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Store{
		ttl:          cfg.TTL,
		now:          cfg.Now,
		users:        newTable[chat.User](),
		teams:        newTable[chat.Team](),
		channels:     newTable[chat.Channel](),
		posts:        newTable[chat.Post](),
		teamNames:    make(map[string]string),
		channelNames: make(map[string]string),
	}
}

// TTL returns the configured entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// GetUser returns the cached user if present and not expired.
func (s *Store) GetUser(id string) (chat.User, bool) {
	u, ok := s.users.get(id, s.now(), s.ttl)
	s.record(ok)
	return u, ok
}

// SetUser inserts or replaces the user, stamping the current time.
func (s *Store) SetUser(u chat.User) {
	s.users.set(u.ID, u, s.now())
}

// GetTeam returns the cached team if present and not expired.
func (s *Store) GetTeam(id string) (chat.Team, bool) {
	t, ok := s.teams.get(id, s.now(), s.ttl)
	s.record(ok)
	return t, ok
}

// SetTeam inserts or replaces the team and (re)points the name index at it.
// Both the canonical name and the display name are indexed, so lookups by
// either form hit.
func (s *Store) SetTeam(t chat.Team) {
	s.teams.set(t.ID, t, s.now())
	if t.Name == "" && t.DisplayName == "" {
		return
	}
	s.namesMu.Lock()
	if t.Name != "" {
		s.teamNames[t.Name] = t.ID
	}
	if t.DisplayName != "" {
		s.teamNames[t.DisplayName] = t.ID
	}
	s.namesMu.Unlock()
}

// GetTeamByName resolves a team name or display name to an id and behaves as
// GetTeam. A name hit whose primary entry has expired is a full miss; both
// the stale pointer and the expired entry are removed.
func (s *Store) GetTeamByName(name string) (chat.Team, bool) {
	s.namesMu.RLock()
	id, ok := s.teamNames[name]
	s.namesMu.RUnlock()
	if !ok {
		s.record(false)
		return chat.Team{}, false
	}

	t, ok := s.teams.get(id, s.now(), s.ttl)
	if !ok {
		s.teams.delete(id)
		s.namesMu.Lock()
		delete(s.teamNames, name)
		s.namesMu.Unlock()
	}
	s.record(ok)
	return t, ok
}

// GetChannel returns the cached channel if present and not expired.
func (s *Store) GetChannel(id string) (chat.Channel, bool) {
	c, ok := s.channels.get(id, s.now(), s.ttl)
	s.record(ok)
	return c, ok
}

// SetChannel inserts or replaces the channel and (re)points the
// (team, name) index at it.
func (s *Store) SetChannel(c chat.Channel) {
	s.channels.set(c.ID, c, s.now())
	if c.TeamID != "" && c.Name != "" {
		s.namesMu.Lock()
		s.channelNames[channelKey(c.TeamID, c.Name)] = c.ID
		s.namesMu.Unlock()
	}
}

// GetChannelByName resolves (teamID, name) to an id and behaves as
// GetChannel, with the same lazy removal of stale pointers and expired
// entries.
func (s *Store) GetChannelByName(teamID, name string) (chat.Channel, bool) {
	key := channelKey(teamID, name)

	s.namesMu.RLock()
	id, ok := s.channelNames[key]
	s.namesMu.RUnlock()
	if !ok {
		s.record(false)
		return chat.Channel{}, false
	}

	c, ok := s.channels.get(id, s.now(), s.ttl)
	if !ok {
		s.channels.delete(id)
		s.namesMu.Lock()
		delete(s.channelNames, key)
		s.namesMu.Unlock()
	}
	s.record(ok)
	return c, ok
}

// GetPost returns the cached post if present and not expired.
func (s *Store) GetPost(id string) (chat.Post, bool) {
	p, ok := s.posts.get(id, s.now(), s.ttl)
	s.record(ok)
	return p, ok
}

// SetPost inserts or replaces the post, stamping the current time.
func (s *Store) SetPost(p chat.Post) {
	s.posts.set(p.ID, p, s.now())
}

// Clear drops all entries, all kinds. Traffic counters are reset as well.
func (s *Store) Clear() {
	s.users.clear()
	s.teams.clear()
	s.channels.clear()
	s.posts.clear()

	s.namesMu.Lock()
	s.teamNames = make(map[string]string)
	s.channelNames = make(map[string]string)
	s.namesMu.Unlock()

	s.hits.Store(0)
	s.misses.Store(0)
}

// Sweep removes all entries whose age meets or exceeds the TTL, plus name
// pointers left dangling by the removal. Never required for correctness:
// reads already treat expired entries as absent.
func (s *Store) Sweep() {
	now := s.now()
	s.users.sweep(now, s.ttl)
	s.teams.sweep(now, s.ttl)
	s.channels.sweep(now, s.ttl)
	s.posts.sweep(now, s.ttl)

	s.namesMu.Lock()
	for name, id := range s.teamNames {
		if _, ok := s.teams.get(id, now, s.ttl); !ok {
			delete(s.teamNames, name)
		}
	}
	for key, id := range s.channelNames {
		if _, ok := s.channels.get(id, now, s.ttl); !ok {
			delete(s.channelNames, key)
		}
	}
	s.namesMu.Unlock()
}

// Stats returns a snapshot of live entry counts and traffic counters.
func (s *Store) Stats() Stats {
	now := s.now()

	stats := Stats{
		Users:    s.users.count(now, s.ttl),
		Teams:    s.teams.count(now, s.ttl),
		Channels: s.channels.count(now, s.ttl),
		Posts:    s.posts.count(now, s.ttl),
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
	}

	for _, age := range []time.Duration{
		s.users.oldest(now, s.ttl),
		s.teams.oldest(now, s.ttl),
		s.channels.oldest(now, s.ttl),
		s.posts.oldest(now, s.ttl),
	} {
		if age > stats.OldestAge {
			stats.OldestAge = age
		}
	}
	return stats
}

func (s *Store) record(hit bool) {
	if hit {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
}

func channelKey(teamID, name string) string {
	return teamID + "/" + name
}

// /internal/music/session/session.go
package session

import (
	"errors"
	"sync"

	"shizu/internal/music/resolver"
)

var (
	ErrNotConnected = errors.New("no active voice connection for this guild")
)

// Transport is the voice layer the registry joins guild channels through.
// Implemented over discordgo in internal/music/voice; faked in tests.
type Transport interface {
	Join(guildID, channelID string) (Connection, error)
}

// Connection is one live voice link. Enqueue hands a source to the transport's
// own playback queue: if nothing is playing it starts immediately, otherwise
// it plays after the sources enqueued before it. Enqueue must return without
// blocking, whatever the backlog — the registry calls it while holding the
// session lock. onEnd fires exactly once per source, after its playback ends
// normally or by skip, and is never invoked while a session lock is held by
// the transport.
type Connection interface {
	Enqueue(src Source, onEnd func())
	Skip() error
	Leave() error
}

// Notifier delivers playback announcements back to a text channel. Failures
// are the caller's to swallow; announcing must never block queue advancement.
type Notifier interface {
	NowPlaying(channelID string, meta resolver.Metadata, mention string) error
}

// Session binds one guild to its voice connection and play queue. All reads
// and writes of conn and queue happen under mu; two commands for the same
// guild serialize here, commands for different guilds never contend.
type Session struct {
	mu      sync.Mutex
	guildID string
	conn    Connection
	queue   Queue
}

// GuildID returns the owning guild.
func (s *Session) GuildID() string { return s.guildID }

// Current returns the front-of-queue track.
func (s *Session) Current() (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Current()
}

// QueueLen returns the number of queued tracks.
func (s *Session) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// QueuedTracks returns a copy of the queue in play order.
func (s *Session) QueuedTracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Tracks()
}

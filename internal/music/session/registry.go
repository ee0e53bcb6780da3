// /internal/music/session/registry.go
package session

import (
	"fmt"
	"log"
	"sync"
)

// SkipOutcome reports what a skip request did.
type SkipOutcome int

const (
	// SkipNoSession means the guild had no active session; nothing to skip.
	SkipNoSession SkipOutcome = iota
	// SkipTornDown means the queue was already empty, so the connection was
	// closed and the session evicted.
	SkipTornDown
	// SkipStopped means the current track was stopped; the completion handler
	// advances and announces.
	SkipStopped
)

// Registry is the process-wide guildID -> Session map. Map mutation is
// serialized by its own mutex, independent of the per-session mutexes, so one
// guild's playback work never blocks another guild's lookup.
type Registry struct {
	mu        sync.Mutex
	transport Transport
	notify    Notifier
	sessions  map[string]*Session
}

func NewRegistry(transport Transport, notify Notifier) *Registry {
	return &Registry{
		transport: transport,
		notify:    notify,
		sessions:  make(map[string]*Session),
	}
}

// GetOrCreate returns the guild's session, establishing a voice connection and
// registering a new session if none exists. Calling it for an already
// connected guild is idempotent and leaves the existing session untouched.
func (r *Registry) GetOrCreate(guildID, voiceChannelID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s, nil
	}

	conn, err := r.transport.Join(guildID, voiceChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	s := &Session{guildID: guildID, conn: conn}
	r.sessions[guildID] = s
	return s, nil
}

// Get returns the guild's session if one exists.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// Remove tears down the guild's connection and drops the session.
func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	s, ok := r.sessions[guildID]
	delete(r.sessions, guildID)
	r.mu.Unlock()

	if !ok {
		return
	}

	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		if err := conn.Leave(); err != nil {
			log.Printf("[WARN] Failed to leave voice channel for guild %s: %v", guildID, err)
		}
	}
}

// Play enqueues an already-resolved track on the guild's session and registers
// the completion callback for it. It returns the post-enqueue queue position;
// position 1 means the track starts immediately. Resolution must happen before
// this call — Play only takes the session lock for the atomic append.
func (r *Registry) Play(guildID string, t Track, announceChannelID string) (int, error) {
	s, ok := r.Get(guildID)
	if !ok {
		return 0, ErrNotConnected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return 0, ErrNotConnected
	}

	s.queue.Enqueue(t)
	s.conn.Enqueue(t.Source, func() {
		r.handleTrackEnd(guildID, announceChannelID)
	})

	return s.queue.Len(), nil
}

// Skip stops the current track, or tears the session down if the queue is
// already empty. The actual advance-and-announce happens in the completion
// handler the transport fires.
func (r *Registry) Skip(guildID string) (SkipOutcome, error) {
	s, ok := r.Get(guildID)
	if !ok {
		return SkipNoSession, nil
	}

	s.mu.Lock()
	if s.queue.Len() == 0 {
		s.mu.Unlock()
		r.Remove(guildID)
		return SkipTornDown, nil
	}
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return SkipNoSession, nil
	}
	if err := conn.Skip(); err != nil {
		return SkipStopped, fmt.Errorf("failed to stop current track: %w", err)
	}
	return SkipStopped, nil
}

// handleTrackEnd runs once per finished track. It advances the queue and
// either announces the new front track or, when nothing remains, closes the
// voice connection and evicts the session. A completion event firing after the
// session is gone is a no-op.
func (r *Registry) handleTrackEnd(guildID, announceChannelID string) {
	s, ok := r.Get(guildID)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return
	}

	next, more := s.queue.Advance()
	if !more {
		s.mu.Unlock()
		r.Remove(guildID)
		return
	}
	s.mu.Unlock()

	// Announcement failure must never prevent advancement or cleanup.
	if err := r.notify.NowPlaying(announceChannelID, next.Meta, next.RequestedBy); err != nil {
		log.Printf("[WARN] Failed to announce next track in guild %s: %v", guildID, err)
	}
}

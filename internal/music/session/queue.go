// /internal/music/session/queue.go
package session

import (
	"io"
	"slices"

	"shizu/internal/music/resolver"
)

// Source is the opaque playable handle the voice transport consumes. The
// concrete type comes from the resolver's stream package; this package never
// opens it.
type Source interface {
	Open() (io.ReadCloser, func(), error)
}

// Track is one queued unit of playable audio. It is owned exclusively by the
// session that enqueued it and is dropped once it finishes or is skipped.
type Track struct {
	Meta        resolver.Metadata
	Source      Source
	RequestedBy string // mention of the requesting user
}

// Queue is the ordered track sequence for one guild. The front element, if
// any, is the track currently sounding or about to sound. Removal only ever
// happens at the front; there is no reordering.
//
// Queue is not safe for concurrent use on its own; the owning session's mutex
// guards it.
type Queue struct {
	tracks []Track
}

// Enqueue appends a track at the back.
func (q *Queue) Enqueue(t Track) {
	q.tracks = append(q.tracks, t)
}

// Current returns the front track without removing it.
func (q *Queue) Current() (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	return q.tracks[0], true
}

// Advance removes the front track and returns the new front, if any. On an
// empty queue it is a no-op reporting nothing to advance to.
func (q *Queue) Advance() (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	q.tracks[0] = Track{}
	q.tracks = q.tracks[1:]
	return q.Current()
}

// Len returns the number of queued tracks, including the current one.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Tracks returns a copy of the queue in order.
func (q *Queue) Tracks() []Track {
	return slices.Clone(q.tracks)
}

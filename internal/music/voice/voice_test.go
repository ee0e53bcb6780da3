package voice

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shizu/internal/music/resolver"
	"shizu/internal/music/session"
)

func newTestConnection(t *testing.T) *Connection {
	c := &Connection{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go c.loop()
	t.Cleanup(func() { c.closed.Do(func() { close(c.done) }) })
	return c
}

// stubSource fails to open, optionally after blocking until released.
// Playback never reaches the voice link, so no gateway connection is needed.
type stubSource struct {
	release chan struct{}
	opened  atomic.Bool
}

func (s *stubSource) Open() (io.ReadCloser, func(), error) {
	s.opened.Store(true)
	if s.release != nil {
		<-s.release
	}
	return nil, nil, errors.New("source unavailable")
}

type staticTransport struct {
	conn *Connection
}

func (t *staticTransport) Join(guildID, channelID string) (session.Connection, error) {
	return t.conn, nil
}

// gatedNotifier counts announcements, then holds each one until the gate is
// closed.
type gatedNotifier struct {
	gate  chan struct{}
	calls atomic.Int32
}

func (n *gatedNotifier) NowPlaying(channelID string, meta resolver.Metadata, mention string) error {
	n.calls.Add(1)
	<-n.gate
	return nil
}

func TestEnqueueNeverBlocks(t *testing.T) {
	c := newTestConnection(t)

	var wg sync.WaitGroup
	first := &stubSource{release: make(chan struct{})}
	wg.Add(1)
	c.Enqueue(first, wg.Done)

	// Pile up a backlog far beyond any channel capacity while the first track
	// is still opening.
	enqueued := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			wg.Add(1)
			c.Enqueue(&stubSource{}, wg.Done)
		}
		close(enqueued)
	}()

	select {
	case <-enqueued:
	case <-time.After(5 * time.Second):
		t.Fatal("Enqueue blocked on a deep backlog")
	}

	close(first.release)

	finished := make(chan struct{})
	go func() { wg.Wait(); close(finished) }()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("completion callbacks did not all fire")
	}
}

// A long playlist import must keep queueing while the first track is still
// opening, and the completion handler must still be able to take the session
// lock afterwards.
func TestDeepPlaylistQueueingAndAdvance(t *testing.T) {
	c := newTestConnection(t)

	n := &gatedNotifier{gate: make(chan struct{})}
	r := session.NewRegistry(&staticTransport{conn: c}, n)

	sess, err := r.GetOrCreate("guild-1", "voice-1")
	require.NoError(t, err)

	first := &stubSource{release: make(chan struct{})}
	_, err = r.Play("guild-1", session.Track{Source: first, RequestedBy: "@alice"}, "text-1")
	require.NoError(t, err)

	queued := make(chan struct{})
	go func() {
		for i := 0; i < 140; i++ {
			if _, err := r.Play("guild-1", session.Track{Source: &stubSource{}, RequestedBy: "@alice"}, "text-1"); err != nil {
				t.Error(err)
				break
			}
		}
		close(queued)
	}()

	select {
	case <-queued:
	case <-time.After(5 * time.Second):
		t.Fatal("queueing stalled while the first track was still opening")
	}
	assert.Equal(t, 141, sess.QueueLen())

	close(first.release)

	require.Eventually(t, func() bool {
		return n.calls.Load() >= 1 && sess.QueueLen() == 140
	}, 5*time.Second, 10*time.Millisecond)

	c.closed.Do(func() { close(c.done) })
	close(n.gate)
}

func TestSkipBetweenTracksDropsNext(t *testing.T) {
	c := newTestConnection(t)

	second := &stubSource{}
	var wg sync.WaitGroup
	wg.Add(2)

	// Skip from inside the first track's completion callback: the next track
	// has not been dequeued yet, so the skip must land on it.
	c.Enqueue(&stubSource{}, func() {
		assert.NoError(t, c.Skip())
		wg.Done()
	})
	c.Enqueue(second, wg.Done)

	finished := make(chan struct{})
	go func() { wg.Wait(); close(finished) }()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("completion callbacks did not all fire")
	}

	assert.False(t, second.opened.Load(), "skipped track must not be opened")
}

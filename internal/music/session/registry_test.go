package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shizu/internal/music/resolver"
)

type fakeConn struct {
	onEnds  []func()
	skips   int
	left    bool
	skipErr error
}

func (c *fakeConn) Enqueue(src Source, onEnd func()) { c.onEnds = append(c.onEnds, onEnd) }
func (c *fakeConn) Skip() error                      { c.skips++; return c.skipErr }
func (c *fakeConn) Leave() error                     { c.left = true; return nil }

// finish fires the completion callback of the oldest enqueued source, the way
// the voice transport does when a track ends or is stopped.
func (c *fakeConn) finish(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, c.onEnds)
	onEnd := c.onEnds[0]
	c.onEnds = c.onEnds[1:]
	onEnd()
}

type fakeTransport struct {
	conn  *fakeConn
	joins []string
	err   error
}

func (tr *fakeTransport) Join(guildID, channelID string) (Connection, error) {
	tr.joins = append(tr.joins, guildID+"/"+channelID)
	if tr.err != nil {
		return nil, tr.err
	}
	return tr.conn, nil
}

type announcement struct {
	channelID string
	title     string
	mention   string
}

type fakeNotifier struct {
	sent []announcement
	err  error
}

func (n *fakeNotifier) NowPlaying(channelID string, meta resolver.Metadata, mention string) error {
	n.sent = append(n.sent, announcement{channelID, meta.Title, mention})
	return n.err
}

func newTestRegistry() (*Registry, *fakeTransport, *fakeNotifier) {
	tr := &fakeTransport{conn: &fakeConn{}}
	n := &fakeNotifier{}
	return NewRegistry(tr, n), tr, n
}

func TestGetOrCreateIdempotent(t *testing.T) {
	r, tr, _ := newTestRegistry()

	s1, err := r.GetOrCreate("guild-1", "voice-1")
	require.NoError(t, err)

	s2, err := r.GetOrCreate("guild-1", "voice-2")
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, []string{"guild-1/voice-1"}, tr.joins)
}

func TestGetOrCreateJoinError(t *testing.T) {
	r, tr, _ := newTestRegistry()
	tr.err = errors.New("gateway unavailable")

	_, err := r.GetOrCreate("guild-1", "voice-1")
	require.Error(t, err)

	_, ok := r.Get("guild-1")
	assert.False(t, ok)
}

func TestPlayReturnsQueuePosition(t *testing.T) {
	r, tr, _ := newTestRegistry()

	_, err := r.GetOrCreate("guild-1", "voice-1")
	require.NoError(t, err)

	pos, err := r.Play("guild-1", namedTrack("first"), "text-1")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = r.Play("guild-1", namedTrack("second"), "text-1")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	assert.Len(t, tr.conn.onEnds, 2)
}

func TestPlayWithoutSession(t *testing.T) {
	r, _, _ := newTestRegistry()

	_, err := r.Play("guild-1", namedTrack("first"), "text-1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSkipNoSession(t *testing.T) {
	r, _, _ := newTestRegistry()

	outcome, err := r.Skip("guild-1")
	require.NoError(t, err)
	assert.Equal(t, SkipNoSession, outcome)
}

func TestSkipEmptyQueueTearsDown(t *testing.T) {
	r, tr, _ := newTestRegistry()

	_, err := r.GetOrCreate("guild-1", "voice-1")
	require.NoError(t, err)

	outcome, err := r.Skip("guild-1")
	require.NoError(t, err)
	assert.Equal(t, SkipTornDown, outcome)
	assert.True(t, tr.conn.left)

	_, ok := r.Get("guild-1")
	assert.False(t, ok)
}

func TestSkipStopsCurrentTrack(t *testing.T) {
	r, tr, _ := newTestRegistry()

	_, err := r.GetOrCreate("guild-1", "voice-1")
	require.NoError(t, err)
	_, err = r.Play("guild-1", namedTrack("first"), "text-1")
	require.NoError(t, err)

	outcome, err := r.Skip("guild-1")
	require.NoError(t, err)
	assert.Equal(t, SkipStopped, outcome)
	assert.Equal(t, 1, tr.conn.skips)
	assert.False(t, tr.conn.left)
}

func TestTrackEndAdvancesAndAnnounces(t *testing.T) {
	r, tr, n := newTestRegistry()

	s, err := r.GetOrCreate("guild-1", "voice-1")
	require.NoError(t, err)
	_, err = r.Play("guild-1", namedTrack("first"), "text-1")
	require.NoError(t, err)
	_, err = r.Play("guild-1", namedTrack("second"), "text-1")
	require.NoError(t, err)

	tr.conn.finish(t)

	require.Len(t, n.sent, 1)
	assert.Equal(t, "text-1", n.sent[0].channelID)
	assert.Equal(t, "second", n.sent[0].title)
	assert.Equal(t, "@someone", n.sent[0].mention)
	assert.Equal(t, 1, s.QueueLen())
}

func TestTrackEndLastTrackTearsDown(t *testing.T) {
	r, tr, n := newTestRegistry()

	_, err := r.GetOrCreate("guild-1", "voice-1")
	require.NoError(t, err)
	_, err = r.Play("guild-1", namedTrack("only"), "text-1")
	require.NoError(t, err)

	tr.conn.finish(t)

	assert.Empty(t, n.sent)
	assert.True(t, tr.conn.left)

	_, ok := r.Get("guild-1")
	assert.False(t, ok)
}

func TestTrackEndAfterRemovalIsNoOp(t *testing.T) {
	r, tr, n := newTestRegistry()

	_, err := r.GetOrCreate("guild-1", "voice-1")
	require.NoError(t, err)
	_, err = r.Play("guild-1", namedTrack("first"), "text-1")
	require.NoError(t, err)

	r.Remove("guild-1")
	tr.conn.finish(t)

	assert.Empty(t, n.sent)
}

func TestAnnounceFailureStillAdvances(t *testing.T) {
	r, tr, n := newTestRegistry()
	n.err = errors.New("channel gone")

	s, err := r.GetOrCreate("guild-1", "voice-1")
	require.NoError(t, err)
	_, err = r.Play("guild-1", namedTrack("first"), "text-1")
	require.NoError(t, err)
	_, err = r.Play("guild-1", namedTrack("second"), "text-1")
	require.NoError(t, err)

	tr.conn.finish(t)

	assert.Equal(t, 1, s.QueueLen())
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "second", cur.Meta.Title)
}

// Full lifecycle: two requesters queue tracks, playback advances through both,
// and the session leaves once the queue drains.
func TestPlaybackLifecycle(t *testing.T) {
	r, tr, n := newTestRegistry()

	_, err := r.GetOrCreate("guild-1", "voice-1")
	require.NoError(t, err)

	pos, err := r.Play("guild-1", Track{Meta: resolver.Metadata{Title: "opener"}, RequestedBy: "@alice"}, "text-1")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = r.Play("guild-1", Track{Meta: resolver.Metadata{Title: "closer"}, RequestedBy: "@bob"}, "text-2")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	tr.conn.finish(t)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "closer", n.sent[0].title)
	assert.Equal(t, "@bob", n.sent[0].mention)

	tr.conn.finish(t)
	assert.Len(t, n.sent, 1)
	assert.True(t, tr.conn.left)

	_, ok := r.Get("guild-1")
	assert.False(t, ok)
}

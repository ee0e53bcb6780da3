package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shizu/internal/music/resolver"
)

func namedTrack(title string) Track {
	return Track{Meta: resolver.Metadata{Title: title}, RequestedBy: "@someone"}
}

func TestQueueOrder(t *testing.T) {
	var q Queue

	_, ok := q.Current()
	assert.False(t, ok)

	q.Enqueue(namedTrack("first"))
	q.Enqueue(namedTrack("second"))
	q.Enqueue(namedTrack("third"))

	require.Equal(t, 3, q.Len())

	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "first", cur.Meta.Title)

	next, more := q.Advance()
	require.True(t, more)
	assert.Equal(t, "second", next.Meta.Title)

	next, more = q.Advance()
	require.True(t, more)
	assert.Equal(t, "third", next.Meta.Title)

	_, more = q.Advance()
	assert.False(t, more)
	assert.Equal(t, 0, q.Len())
}

func TestQueueAdvanceEmpty(t *testing.T) {
	var q Queue

	_, more := q.Advance()
	assert.False(t, more)
	assert.Equal(t, 0, q.Len())
}

func TestQueueTracksReturnsCopy(t *testing.T) {
	var q Queue
	q.Enqueue(namedTrack("only"))

	tracks := q.Tracks()
	require.Len(t, tracks, 1)

	tracks[0].Meta.Title = "mutated"

	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "only", cur.Meta.Title)
}

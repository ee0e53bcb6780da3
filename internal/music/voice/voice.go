// /internal/music/voice/voice.go
package voice

import (
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"shizu/internal/music/session"
	"shizu/internal/music/stream"
)

// Transport joins guild voice channels over discordgo.
type Transport struct {
	dg *discordgo.Session
}

func New(dg *discordgo.Session) *Transport {
	return &Transport{dg: dg}
}

// Join connects to the given voice channel and starts the connection's
// playback loop.
func (t *Transport) Join(guildID, channelID string) (session.Connection, error) {
	vc, err := t.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("voice join error: %w", err)
	}

	c := &Connection{
		vc:   vc,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go c.loop()
	return c, nil
}

type queued struct {
	src   session.Source
	onEnd func()
}

// Connection plays enqueued sources one after another on a single voice link.
// Each source's onEnd callback fires exactly once, from the playback
// goroutine, after the source finishes, fails to open or is skipped.
//
// The backlog is unbounded and guarded by the connection's own mutex, so
// Enqueue returns immediately no matter how far playback lags behind; callers
// may hold their own locks across it.
type Connection struct {
	vc *discordgo.VoiceConnection

	mu       sync.Mutex
	backlog  []queued
	current  chan struct{} // stop channel of the sounding track, nil between tracks
	skipNext bool

	wake   chan struct{}
	done   chan struct{}
	closed sync.Once
}

func (c *Connection) Enqueue(src session.Source, onEnd func()) {
	c.mu.Lock()
	c.backlog = append(c.backlog, queued{src: src, onEnd: onEnd})
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Skip stops the currently sounding track; its onEnd callback then fires as if
// it had finished naturally. A skip landing in the gap between one track's end
// and the next track's start marks that next track, which is then dropped
// without being opened.
func (c *Connection) Skip() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		close(c.current)
		c.current = nil
		return nil
	}
	c.skipNext = true
	return nil
}

// Leave stops the playback loop and disconnects from the voice channel.
func (c *Connection) Leave() error {
	c.closed.Do(func() { close(c.done) })
	return c.vc.Disconnect()
}

func (c *Connection) loop() {
	for {
		q, ok := c.next()
		if !ok {
			select {
			case <-c.done:
				return
			case <-c.wake:
				continue
			}
		}

		select {
		case <-c.done:
			return
		default:
		}

		c.playOne(q)
	}
}

func (c *Connection) next() (queued, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.backlog) == 0 {
		return queued{}, false
	}
	q := c.backlog[0]
	c.backlog[0] = queued{}
	c.backlog = c.backlog[1:]
	return q, true
}

func (c *Connection) playOne(q queued) {
	defer q.onEnd()

	stop := make(chan struct{})

	c.mu.Lock()
	if c.skipNext {
		c.skipNext = false
		c.mu.Unlock()
		return
	}
	c.current = stop
	c.mu.Unlock()

	src, cleanup, err := q.src.Open()
	if err != nil {
		log.Printf("[ERR] Failed to open stream: %v", err)
		c.clearCurrent(stop)
		return
	}
	defer cleanup()

	finished := make(chan struct{})
	go func() {
		select {
		case <-c.done:
			c.closeCurrent(stop)
		case <-finished:
		}
	}()

	if err := c.vc.Speaking(true); err != nil {
		log.Printf("[WARN] Speaking(true) failed: %v", err)
	}
	if err := stream.SendPCM(src, stop, c.vc); err != nil {
		log.Printf("[ERR] Playback error: %v", err)
	}
	if err := c.vc.Speaking(false); err != nil {
		log.Printf("[WARN] Speaking(false) failed: %v", err)
	}
	close(finished)
	c.clearCurrent(stop)
}

// clearCurrent retires stop as the sounding track's stop channel without
// closing it.
func (c *Connection) clearCurrent(stop chan struct{}) {
	c.mu.Lock()
	if c.current == stop {
		c.current = nil
	}
	c.mu.Unlock()
}

// closeCurrent closes stop if it is still the sounding track's stop channel.
// Skip and closeCurrent both clear current under the mutex, so stop is closed
// at most once.
func (c *Connection) closeCurrent(stop chan struct{}) {
	c.mu.Lock()
	if c.current == stop {
		close(c.current)
		c.current = nil
	}
	c.mu.Unlock()
}

// /internal/vote/vote.go
package vote

import "sync"

// Vote is the closed set of confirmation responses. Reactions that map to
// neither value are ignored entirely.
type Vote int

const (
	Accept Vote = iota
	Reject
)

const (
	AcceptEmoji = "☑️"
	RejectEmoji = "❌"
)

// FromEmoji maps a reaction emoji to a Vote. The second return value is false
// for anything outside the closed set.
func FromEmoji(emoji string) (Vote, bool) {
	switch emoji {
	case AcceptEmoji:
		return Accept, true
	case RejectEmoji:
		return Reject, true
	default:
		return 0, false
	}
}

type pending struct {
	authorID string
	ch       chan Vote
}

// Waiter routes reaction events to the confirmation flows waiting on them,
// keyed by proposal message ID. Only the proposal author's first matching
// reaction is delivered; everything else is dropped.
type Waiter struct {
	mu      sync.Mutex
	pending map[string]pending
}

func NewWaiter() *Waiter {
	return &Waiter{pending: make(map[string]pending)}
}

// Register starts waiting for a vote on the given proposal message. The
// returned channel yields at most one vote.
func (w *Waiter) Register(messageID, authorID string) <-chan Vote {
	ch := make(chan Vote, 1)
	w.mu.Lock()
	w.pending[messageID] = pending{authorID: authorID, ch: ch}
	w.mu.Unlock()
	return ch
}

// Cancel stops waiting on a proposal. Safe to call after a vote was delivered.
func (w *Waiter) Cancel(messageID string) {
	w.mu.Lock()
	delete(w.pending, messageID)
	w.mu.Unlock()
}

// Dispatch feeds a reaction event into the waiter. Reactions on unknown
// messages, from anyone but the proposal author, or with unmapped emoji are
// ignored.
func (w *Waiter) Dispatch(messageID, userID, emoji string) {
	v, ok := FromEmoji(emoji)
	if !ok {
		return
	}

	w.mu.Lock()
	p, ok := w.pending[messageID]
	if !ok || p.authorID != userID {
		w.mu.Unlock()
		return
	}
	delete(w.pending, messageID)
	w.mu.Unlock()

	p.ch <- v
}

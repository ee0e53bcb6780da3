// /internal/vote/confirm.go
package vote

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"shizu/internal/music/resolver"
)

// Outcome is how a confirmation resolved.
type Outcome int

const (
	Accepted Outcome = iota
	Rejected
	Expired
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "expired"
	}
}

// Messenger posts and removes proposal messages. Implemented over discordgo;
// faked in tests.
type Messenger interface {
	// SendProposal posts the proposal with its accept/reject reactions and
	// returns the message ID.
	SendProposal(channelID string, meta resolver.Metadata) (string, error)
	// DeleteProposal removes the proposal message.
	DeleteProposal(channelID, messageID string) error
}

// Flow runs the propose -> timed vote -> commit-or-discard confirmation used
// to gate playlist edits. Each invocation is independent; concurrent flows on
// the same playlist do not exclude each other.
type Flow struct {
	waiter  *Waiter
	msgr    Messenger
	clock   clockwork.Clock
	timeout time.Duration
}

func NewFlow(waiter *Waiter, msgr Messenger, clock clockwork.Clock, timeout time.Duration) *Flow {
	return &Flow{waiter: waiter, msgr: msgr, clock: clock, timeout: timeout}
}

// Confirm posts a proposal for the resolved track and waits, bounded by the
// configured deadline, for a reaction from authorID. Only that identity's
// reaction is honored. The proposal message is removed in every outcome.
func (f *Flow) Confirm(ctx context.Context, channelID, authorID string, meta resolver.Metadata) (Outcome, error) {
	messageID, err := f.msgr.SendProposal(channelID, meta)
	if err != nil {
		return Expired, fmt.Errorf("failed to post proposal: %w", err)
	}

	votes := f.waiter.Register(messageID, authorID)
	defer f.waiter.Cancel(messageID)
	defer func() {
		if err := f.msgr.DeleteProposal(channelID, messageID); err != nil {
			log.Printf("[WARN] Failed to delete proposal message %s: %v", messageID, err)
		}
	}()

	select {
	case v := <-votes:
		if v == Accept {
			return Accepted, nil
		}
		return Rejected, nil
	case <-f.clock.After(f.timeout):
		return Expired, nil
	case <-ctx.Done():
		return Expired, ctx.Err()
	}
}

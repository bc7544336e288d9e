package actors

import (
	gods "github.com/Workiva/go-datastructures/queue"
	"go.uber.org/atomic"

	"github.com/stagehand-io/stagehand/config"
)

// Mailbox is a per-actor FIFO message queue shared between the sender side
// (every ActorWrapper handle) and the consumer side (the actor's Executor).
// It is safe for many concurrent producers and a single consumer.
//
// A bounded mailbox is backed by a blocking ring buffer: with the default
// Block backpressure policy a full mailbox makes the sender wait, which
// preserves at-most-once in-order delivery per sender. An unbounded mailbox
// never blocks the sender.
//
// Once stopped, a mailbox accepts no further messages. Stopping is
// irreversible.
type Mailbox struct {
	policy   config.Backpressure
	ring     *gods.RingBuffer // bounded mailboxes
	queue    *gods.Queue      // unbounded mailboxes
	stopped  *atomic.Bool
	sleeping *atomic.Bool
}

// NewMailbox creates a mailbox with the given capacity. Zero capacity means
// unbounded; the backpressure policy then has no effect.
func NewMailbox(capacity int, policy config.Backpressure) *Mailbox {
	mailbox := &Mailbox{
		policy:   policy,
		stopped:  atomic.NewBool(false),
		sleeping: atomic.NewBool(true),
	}
	if capacity > 0 {
		mailbox.ring = gods.NewRingBuffer(uint64(capacity))
	} else {
		mailbox.queue = gods.New(64)
	}
	return mailbox
}

// Enqueue pushes a message into the mailbox. It returns ErrMailboxClosed
// after MarkStopped. A full bounded mailbox blocks the caller under the
// Block policy and returns ErrMailboxFull under the Fail policy.
func (m *Mailbox) Enqueue(msg Message) error {
	if m.stopped.Load() {
		return ErrMailboxClosed
	}
	if m.ring != nil {
		if m.policy == config.BackpressureFail {
			ok, err := m.ring.Offer(msg)
			if err != nil {
				return ErrMailboxClosed
			}
			if !ok {
				return ErrMailboxFull
			}
			return nil
		}
		if err := m.ring.Put(msg); err != nil {
			// the buffer was disposed while the sender was blocked
			return ErrMailboxClosed
		}
		return nil
	}
	if err := m.queue.Put(msg); err != nil {
		return ErrMailboxClosed
	}
	return nil
}

// DequeueBatch drains up to limit messages in FIFO order. It never blocks:
// an empty mailbox yields an empty result. Only the owning Executor may call
// it.
func (m *Mailbox) DequeueBatch(limit int) []Message {
	if limit <= 0 {
		return nil
	}
	if m.ring != nil {
		pending := int(m.ring.Len())
		if pending > limit {
			pending = limit
		}
		if pending == 0 {
			return nil
		}
		out := make([]Message, 0, pending)
		for i := 0; i < pending; i++ {
			item, err := m.ring.Get()
			if err != nil {
				break
			}
			out = append(out, item)
		}
		return out
	}
	if m.queue.Empty() {
		return nil
	}
	items, err := m.queue.Get(int64(limit))
	if err != nil {
		return nil
	}
	out := make([]Message, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

// IsEmpty reports whether the mailbox currently has no messages.
func (m *Mailbox) IsEmpty() bool {
	return m.Len() == 0
}

// Len returns a snapshot of the number of pending messages.
func (m *Mailbox) Len() int64 {
	if m.ring != nil {
		return int64(m.ring.Len())
	}
	return m.queue.Len()
}

// MarkStopped closes the mailbox for senders. It is idempotent and
// irreversible; pending messages stay queued until Dispose.
func (m *Mailbox) MarkStopped() {
	m.stopped.Store(true)
}

// IsStopped reports whether the mailbox has been stopped.
func (m *Mailbox) IsStopped() bool {
	return m.stopped.Load()
}

// Dispose discards pending messages and unblocks senders waiting on a full
// bounded mailbox. The mailbox must not be used afterwards.
func (m *Mailbox) Dispose() {
	m.stopped.Store(true)
	if m.ring != nil {
		m.ring.Dispose()
		return
	}
	m.queue.Dispose()
}

// setSleeping records the scheduling side's view of the actor: true while
// the actor is asleep, false once it has been woken. Senders read it to skip
// redundant wake requests.
func (m *Mailbox) setSleeping(sleeping bool) {
	m.sleeping.Store(sleeping)
}

// isSleeping reports whether the owning actor is currently asleep.
func (m *Mailbox) isSleeping() bool {
	return m.sleeping.Load()
}

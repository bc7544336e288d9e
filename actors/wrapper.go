package actors

import (
	"context"

	"github.com/stagehand-io/stagehand/address"
)

// ActorWrapper is the lightweight handle returned by Spawn. It exposes send
// and stop to callers; it holds the producer side of the mailbox and the
// actor's address, never the Executor.
type ActorWrapper struct {
	address address.Address
	mailbox *Mailbox
	system  *ActorSystem
}

// Address returns the actor's address.
func (w *ActorWrapper) Address() address.Address {
	return w.address
}

// Send enqueues a message into the actor's mailbox and wakes the actor if it
// is asleep. Messages from a single sender are delivered in send order.
//
// Send returns ErrMailboxClosed once the actor has been stopped. With a
// bounded mailbox and the default Block backpressure policy a full mailbox
// makes Send wait; under the Fail policy it returns ErrMailboxFull instead.
func (w *ActorWrapper) Send(ctx context.Context, msg Message) error {
	_, span := getSpanContext(ctx, "ActorWrapper.Send")
	defer span.End()

	if err := w.mailbox.Enqueue(msg); err != nil {
		return err
	}
	if w.mailbox.isSleeping() {
		w.system.wakeup.Wake(w.address)
	}
	return nil
}

// Stop marks the actor's mailbox stopped and schedules the actor so its
// executor can deregister it. Pending messages are discarded. Stop is
// idempotent and independent of system-wide shutdown.
func (w *ActorWrapper) Stop() {
	w.mailbox.MarkStopped()
	w.system.wakeup.Wake(w.address)
}

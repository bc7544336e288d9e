package actors

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/stagehand-io/stagehand/address"
	"github.com/stagehand-io/stagehand/log"
)

// Scheduling states of an actor. An actor is in exactly one of these at any
// instant; transitions happen through compare-and-swap so that concurrent
// wake requests collapse to a single scheduling event.
const (
	stateAsleep int32 = iota
	stateRunnable
	stateRunning
	stateStopped
)

// scheduledActor pairs an Executor with its scheduling state. The address is
// the stable key; the entry is the single owner of the actor's lifecycle
// transitions.
type scheduledActor struct {
	address  address.Address
	pool     string
	executor *Executor
	state    *atomic.Int32
}

// WakeupManager tracks which actors are asleep and which are runnable. It
// decouples "a message arrived" from "a thread is executing it": a wake
// transitions an actor from asleep to runnable and publishes it, exactly
// once per transition, to the work queue of the pool the actor belongs to.
type WakeupManager struct {
	mu     sync.RWMutex
	actors map[address.Address]*scheduledActor
	pools  *ThreadPoolManager
	state  *SystemState
	logger log.Logger
}

// NewWakeupManager creates a WakeupManager publishing runnable actors to the
// given pool manager.
func NewWakeupManager(pools *ThreadPoolManager, state *SystemState, logger log.Logger) *WakeupManager {
	return &WakeupManager{
		actors: make(map[address.Address]*scheduledActor),
		pools:  pools,
		state:  state,
		logger: logger,
	}
}

// AddSleeping registers a newly spawned actor as asleep.
func (w *WakeupManager) AddSleeping(addr address.Address, pool string, executor *Executor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.actors[addr]; exists {
		return ErrDuplicateActor
	}
	w.actors[addr] = &scheduledActor{
		address:  addr,
		pool:     pool,
		executor: executor,
		state:    atomic.NewInt32(stateAsleep),
	}
	return nil
}

// Wake transitions an actor from asleep to runnable and hands it to its
// pool. It is idempotent: wakes for an actor already runnable or running are
// no-ops, so an actor is never queued twice.
func (w *WakeupManager) Wake(addr address.Address) {
	w.mu.RLock()
	entry := w.actors[addr]
	w.mu.RUnlock()
	if entry == nil {
		return
	}
	if entry.state.CompareAndSwap(stateAsleep, stateRunnable) {
		entry.executor.mailbox.setSleeping(false)
		if err := w.pools.publish(entry); err != nil {
			w.logger.Errorf("failed to schedule actor %s: %v", addr, err)
		}
	}
}

// WakeAll wakes every registered actor. The system uses it at the start of
// shutdown so idle actors get one activation in which to observe the
// stopping state.
func (w *WakeupManager) WakeAll() {
	w.mu.RLock()
	addresses := make([]address.Address, 0, len(w.actors))
	for addr := range w.actors {
		addresses = append(addresses, addr)
	}
	w.mu.RUnlock()
	for _, addr := range addresses {
		w.Wake(addr)
	}
}

// Remove deletes an actor from the registry. Called when the actor stops.
func (w *WakeupManager) Remove(addr address.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.actors, addr)
}

// Len returns the number of registered actors.
func (w *WakeupManager) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.actors)
}

// claim marks a published actor as running. The worker that dequeued the
// entry is the only one that can do this, which makes the mutual exclusion
// structural: the actor left the runnable set the moment it was claimed.
func (w *WakeupManager) claim(entry *scheduledActor) {
	entry.state.Store(stateRunning)
}

// completeActivation routes an actor's post-activation state. A runnable
// actor is republished immediately (cooperative yield). A sleeping actor has
// its mailbox rechecked after the state store: a sender may have enqueued
// between the executor's empty check and the transition to asleep, and that
// sender's wake attempt would have found the actor still running.
func (w *WakeupManager) completeActivation(entry *scheduledActor, outcome activationOutcome) {
	switch outcome {
	case outcomeRunnable:
		entry.state.Store(stateRunnable)
		if err := w.pools.publish(entry); err != nil {
			w.logger.Errorf("failed to reschedule actor %s: %v", entry.address, err)
		}
	case outcomeAsleep:
		mailbox := entry.executor.mailbox
		mailbox.setSleeping(true)
		entry.state.Store(stateAsleep)
		if !mailbox.IsEmpty() || mailbox.IsStopped() || w.state.isStopping() {
			w.Wake(entry.address)
		}
	case outcomeStopped:
		entry.state.Store(stateStopped)
	}
}

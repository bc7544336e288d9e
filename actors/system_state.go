package actors

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/stagehand-io/stagehand/address"
)

// SystemState is the process-wide actor registry plus the system lifecycle
// flags. Flag transitions are monotonic: Running -> Stopping -> Stopped,
// optionally with the forced flag when the shutdown deadline elapsed first.
type SystemState struct {
	mu     sync.RWMutex
	actors map[address.Address]*ActorWrapper

	count    *atomic.Int64
	stopping *atomic.Bool
	stopped  *atomic.Bool
	forced   *atomic.Bool
	done     chan struct{}
}

func newSystemState() *SystemState {
	return &SystemState{
		actors:   make(map[address.Address]*ActorWrapper),
		count:    atomic.NewInt64(0),
		stopping: atomic.NewBool(false),
		stopped:  atomic.NewBool(false),
		forced:   atomic.NewBool(false),
		done:     make(chan struct{}),
	}
}

// addActor registers a wrapper under its address and bumps the live count.
func (s *SystemState) addActor(wrapper *ActorWrapper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := wrapper.Address()
	if _, exists := s.actors[addr]; exists {
		return ErrDuplicateActor
	}
	s.actors[addr] = wrapper
	s.count.Inc()
	return nil
}

// removeActor drops a registration and decrements the live count. Removing
// an unknown address is a no-op.
func (s *SystemState) removeActor(addr address.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.actors[addr]; !exists {
		return
	}
	delete(s.actors, addr)
	s.count.Dec()
}

// getActor looks up the wrapper registered under the address.
func (s *SystemState) getActor(addr address.Address) (*ActorWrapper, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wrapper, ok := s.actors[addr]
	return wrapper, ok
}

// wrappers snapshots the registered handles.
func (s *SystemState) wrappers() []*ActorWrapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ActorWrapper, 0, len(s.actors))
	for _, wrapper := range s.actors {
		out = append(out, wrapper)
	}
	return out
}

// actorCount returns the number of live actors.
func (s *SystemState) actorCount() int64 {
	return s.count.Load()
}

// beginStop flips the system into the stopping state. It returns false when
// a shutdown was already in progress.
func (s *SystemState) beginStop() bool {
	return s.stopping.CompareAndSwap(false, true)
}

// finalizeStop marks the system stopped and releases every AwaitShutdown
// caller. It runs once; later calls are no-ops.
func (s *SystemState) finalizeStop(forced bool) {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.forced.Store(forced)
	close(s.done)
}

func (s *SystemState) isStopping() bool {
	return s.stopping.Load()
}

func (s *SystemState) isStopped() bool {
	return s.stopped.Load()
}

func (s *SystemState) isForced() bool {
	return s.forced.Load()
}

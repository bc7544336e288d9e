package actors

import (
	"sync"

	gods "github.com/Workiva/go-datastructures/queue"
	"github.com/pkg/errors"

	"github.com/stagehand-io/stagehand/config"
	"github.com/stagehand-io/stagehand/log"
)

// workerPool is a fixed-size set of worker goroutines draining one work
// queue of runnable actors.
type workerPool struct {
	name    string
	threads int
	tasks   *gods.Queue
	wg      sync.WaitGroup
}

// start launches the pool's workers.
func (p *workerPool) start(wakeup *WakeupManager) {
	p.wg.Add(p.threads)
	for i := 0; i < p.threads; i++ {
		go p.worker(wakeup)
	}
}

// worker blocks until a runnable actor is available, claims it, runs one
// activation, and routes the post-activation state back through the wakeup
// manager. It exits when the pool's queue is disposed.
func (p *workerPool) worker(wakeup *WakeupManager) {
	defer p.wg.Done()
	for {
		items, err := p.tasks.Get(1)
		if err != nil {
			// queue disposed, the pool is shutting down
			return
		}
		entry := items[0].(*scheduledActor)
		wakeup.claim(entry)
		outcome := entry.executor.runActivation()
		wakeup.completeActivation(entry, outcome)
	}
}

// shutdown disposes the work queue, unblocks the workers and waits for them
// to finish their current activation. It returns whatever was still queued.
func (p *workerPool) shutdown() []any {
	leftover := p.tasks.Dispose()
	p.wg.Wait()
	return leftover
}

// ThreadPoolManager owns the named worker pools. Pools are independent: an
// actor bound to one pool never executes on another pool's threads, which
// isolates, say, CPU-bound actors on a dedicated pool without a global
// scheduler bottleneck.
type ThreadPoolManager struct {
	mu      sync.RWMutex
	pools   map[string]*workerPool
	wakeup  *WakeupManager
	started bool
	logger  log.Logger
}

// NewThreadPoolManager creates an empty pool manager. Pools added before
// Start sit idle until Start launches their workers.
func NewThreadPoolManager(logger log.Logger) *ThreadPoolManager {
	return &ThreadPoolManager{
		pools:  make(map[string]*workerPool),
		logger: logger,
	}
}

// AddPoolWithConfig creates (or replaces) a named pool with the configured
// number of worker threads. Replacing a live pool re-queues its pending
// actors on the replacement so no runnable actor is lost.
func (t *ThreadPoolManager) AddPoolWithConfig(name string, cfg config.PoolConfig) error {
	if cfg.Threads < 1 {
		return errors.Wrapf(ErrInvalidPoolConfig, "pool %q configured with %d threads", name, cfg.Threads)
	}

	pool := &workerPool{
		name:    name,
		threads: cfg.Threads,
		tasks:   gods.New(64),
	}

	t.mu.Lock()
	previous := t.pools[name]
	t.pools[name] = pool
	started := t.started
	wakeup := t.wakeup
	t.mu.Unlock()

	if started {
		pool.start(wakeup)
	}
	// drain the replaced pool outside the lock: its workers republish
	// yielded actors through publish, which needs the read lock
	if previous != nil {
		for _, item := range previous.shutdown() {
			if err := pool.tasks.Put(item); err != nil {
				return errors.Wrapf(err, "failed to requeue actors on pool %q", name)
			}
		}
	}
	t.logger.Infof("pool %q ready with %d threads", name, cfg.Threads)
	return nil
}

// Start launches the workers of every registered pool. Pools added later
// start immediately.
func (t *ThreadPoolManager) Start(wakeup *WakeupManager) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	t.wakeup = wakeup
	t.started = true
	for _, pool := range t.pools {
		pool.start(wakeup)
	}
}

// HasPool reports whether a pool with the given name exists.
func (t *ThreadPoolManager) HasPool(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.pools[name]
	return ok
}

// publish hands a runnable actor to its pool's work queue.
func (t *ThreadPoolManager) publish(entry *scheduledActor) error {
	t.mu.RLock()
	pool := t.pools[entry.pool]
	t.mu.RUnlock()
	if pool == nil {
		return errors.Wrapf(ErrPoolNotFound, "pool %q", entry.pool)
	}
	return pool.tasks.Put(entry)
}

// Shutdown disposes every pool's queue and joins the workers. In-flight
// activations complete; queued actors are abandoned.
func (t *ThreadPoolManager) Shutdown() {
	t.mu.Lock()
	pools := make([]*workerPool, 0, len(t.pools))
	for _, pool := range t.pools {
		pools = append(pools, pool)
	}
	t.pools = make(map[string]*workerPool)
	t.started = false
	t.mu.Unlock()

	for _, pool := range pools {
		pool.shutdown()
	}
}

package actors

import (
	"context"
	"time"

	"github.com/stagehand-io/stagehand/address"
	"github.com/stagehand-io/stagehand/config"
	"github.com/stagehand-io/stagehand/log"
)

// Exit statuses returned by AwaitShutdown.
const (
	// ExitGraceful means every actor drained before the stop deadline.
	ExitGraceful = 0
	// ExitForced means the deadline elapsed and remaining actors were
	// abandoned.
	ExitForced = 1
)

// shutdownPollInterval paces the coarse wait for the live-actor count to
// reach zero during Stop.
const shutdownPollInterval = 10 * time.Millisecond

// ActorSystem is the entry point of the runtime. It owns the actor registry,
// the wakeup scheduler and the named worker pools, and exposes spawn, send
// and shutdown sequencing.
type ActorSystem struct {
	name   string
	cfg    config.Config
	state  *SystemState
	pools  *ThreadPoolManager
	wakeup *WakeupManager
	logger log.Logger
}

// Option configures an ActorSystem at construction time.
type Option func(system *ActorSystem)

// WithLogger sets the system logger.
func WithLogger(logger log.Logger) Option {
	return func(system *ActorSystem) {
		system.logger = logger
	}
}

// NewActorSystem creates a running actor system from a resolved
// configuration: every configured pool is created and its workers started.
// The reserved default pool is always present.
func NewActorSystem(cfg config.Config, opts ...Option) (*ActorSystem, error) {
	if _, ok := cfg.Pools[config.DefaultPoolName]; !ok {
		if cfg.Pools == nil {
			cfg.Pools = make(map[string]config.PoolConfig)
		}
		cfg.Pools[config.DefaultPoolName] = config.Default().Pools[config.DefaultPoolName]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	system := &ActorSystem{
		name:   cfg.Global.Name,
		cfg:    cfg,
		state:  newSystemState(),
		logger: log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(system)
	}

	system.pools = NewThreadPoolManager(system.logger)
	system.wakeup = NewWakeupManager(system.pools, system.state, system.logger)
	for name, poolCfg := range cfg.Pools {
		if err := system.pools.AddPoolWithConfig(name, poolCfg); err != nil {
			return nil, err
		}
	}
	system.pools.Start(system.wakeup)
	system.logger.Infof("actor system %q started", system.name)
	return system, nil
}

// Name returns the actor system name.
func (s *ActorSystem) Name() string {
	return s.name
}

// AddPool creates (or replaces) a named pool using its configured size,
// falling back to the default pool's configuration when the name carries no
// explicit entry.
func (s *ActorSystem) AddPool(name string) error {
	return s.pools.AddPoolWithConfig(name, s.cfg.PoolConfig(name))
}

// AddPoolWithConfig creates (or replaces) a named pool with an explicit
// configuration.
func (s *ActorSystem) AddPoolWithConfig(name string, cfg config.PoolConfig) error {
	return s.pools.AddPoolWithConfig(name, cfg)
}

// Spawn creates an actor from the factory and registers it, initially
// asleep, with the scheduler. The configuration resolves against the global
// defaults before use. Spawn fails with ErrDuplicateActor when the address
// is already registered and with ErrSystemStopping once shutdown has begun.
func (s *ActorSystem) Spawn(ctx context.Context, factory ActorFactory, cfg config.ActorConfig) (*ActorWrapper, error) {
	_, span := getSpanContext(ctx, "ActorSystem.Spawn")
	defer span.End()

	if s.state.isStopping() {
		return nil, ErrSystemStopping
	}
	resolved := cfg.Resolve(s.cfg.Global)
	if err := resolved.Validate(); err != nil {
		return nil, err
	}
	if !s.pools.HasPool(resolved.Pool) {
		return nil, ErrPoolNotFound
	}

	addr := address.New(resolved.Name, s.name, resolved.Pool)
	mailbox := NewMailbox(resolved.MailboxSize, resolved.Backpressure)
	wrapper := &ActorWrapper{
		address: addr,
		mailbox: mailbox,
		system:  s,
	}

	// register first so the address is reserved while the factory runs
	if err := s.state.addActor(wrapper); err != nil {
		return nil, err
	}

	actorCtx := &Context{system: s, self: wrapper, logger: s.logger}
	executor, err := newExecutor(addr, mailbox, resolved, factory, s, actorCtx, s.logger)
	if err != nil {
		s.state.removeActor(addr)
		return nil, err
	}
	if err := s.wakeup.AddSleeping(addr, resolved.Pool, executor); err != nil {
		s.state.removeActor(addr)
		return nil, err
	}
	s.logger.Infof("actor %s spawned", addr)
	return wrapper, nil
}

// Send delivers a message to the actor registered under the given address.
func (s *ActorSystem) Send(ctx context.Context, addr address.Address, msg Message) error {
	wrapper, ok := s.state.getActor(addr)
	if !ok {
		return ErrActorNotFound
	}
	return wrapper.Send(ctx, msg)
}

// Stop begins system shutdown: no new spawns are accepted, every actor is
// woken so it can observe the stopping state, and a background waiter gives
// actors until the timeout to drain naturally. Past the deadline the
// shutdown is forced: remaining actors are abandoned and their pending
// messages discarded in place. Stop is idempotent.
func (s *ActorSystem) Stop(timeout time.Duration) {
	if !s.state.beginStop() {
		return
	}
	s.logger.Infof("actor system %q stopping, draining %d actors within %v", s.name, s.state.actorCount(), timeout)
	go s.shutdown(timeout)
}

// shutdown waits for the live actor count to reach zero or for the timeout
// to elapse, then finalizes the stop either way.
func (s *ActorSystem) shutdown(timeout time.Duration) {
	s.wakeup.WakeAll()

	deadline := time.Now().Add(timeout)
	forced := false
	for s.state.actorCount() != 0 {
		if !time.Now().Before(deadline) {
			forced = true
			break
		}
		time.Sleep(shutdownPollInterval)
	}

	if forced {
		// discard pending messages in place and release anyone blocked on a
		// full mailbox, workers included, so the pools can be joined
		for _, wrapper := range s.state.wrappers() {
			wrapper.mailbox.Dispose()
		}
	}
	s.pools.Shutdown()
	s.state.finalizeStop(forced)
	if forced {
		s.logger.Warnf("actor system %q force stopped with %d actors remaining", s.name, s.state.actorCount())
		return
	}
	s.logger.Infof("actor system %q stopped", s.name)
}

// AwaitShutdown blocks until the system has stopped and returns ExitGraceful
// when every actor drained in time or ExitForced when the deadline elapsed
// first.
func (s *ActorSystem) AwaitShutdown() int {
	<-s.state.done
	if s.state.isForced() {
		return ExitForced
	}
	return ExitGraceful
}

// ActorCount returns the number of live actors.
func (s *ActorSystem) ActorCount() int64 {
	return s.state.actorCount()
}

// deregister removes an actor from both registries. Only the actor's own
// executor calls it, at terminal stop.
func (s *ActorSystem) deregister(addr address.Address) {
	s.state.removeActor(addr)
	s.wakeup.Remove(addr)
}

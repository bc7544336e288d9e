package actors

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/stagehand-io/stagehand/address"
	"github.com/stagehand-io/stagehand/config"
)

func TestSpawnAndSend(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	rec := new(recorder)
	handle, err := system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig("worker"))
	require.NoError(t, err)
	assert.Equal(t, "worker", handle.Address().Actor())
	assert.Equal(t, "test", handle.Address().System())
	assert.Equal(t, config.DefaultPoolName, handle.Address().Pool())
	assert.Equal(t, int64(1), system.ActorCount())

	for i := 0; i < 10; i++ {
		require.NoError(t, handle.Send(ctx, i))
	}
	require.Eventually(t, func() bool { return rec.len() == 10 }, time.Second, time.Millisecond)
}

func TestSendByAddress(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	rec := new(recorder)
	handle, err := system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig("worker"))
	require.NoError(t, err)

	require.NoError(t, system.Send(ctx, handle.Address(), 1))
	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, time.Millisecond)
}

func TestSendToUnknownAddress(t *testing.T) {
	system := newTestSystem(t)
	_, err := system.Spawn(context.Background(), recordingFactory(new(recorder)), config.NewActorConfig("worker"))
	require.NoError(t, err)

	err = system.Send(context.Background(), addressOf(system, "nobody"), 1)
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestSpawnDuplicate(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()
	rec := new(recorder)

	_, err := system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig("worker"))
	require.NoError(t, err)
	_, err = system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig("worker"))
	assert.ErrorIs(t, err, ErrDuplicateActor)
}

func TestSpawnUnknownPool(t *testing.T) {
	system := newTestSystem(t)
	cfg := config.NewActorConfig("worker")
	cfg.Pool = "no-such-pool"
	_, err := system.Spawn(context.Background(), recordingFactory(new(recorder)), cfg)
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestFIFOPerSender(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	rec := new(recorder)
	handle, err := system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig("fifo"))
	require.NoError(t, err)

	const senders = 8
	const perSender = 200
	var wg sync.WaitGroup
	wg.Add(senders)
	for s := 0; s < senders; s++ {
		go func(sender int) {
			defer wg.Done()
			for seq := 0; seq < perSender; seq++ {
				assert.NoError(t, handle.Send(ctx, sender*perSender+seq))
			}
		}(s)
	}
	wg.Wait()
	require.Eventually(t, func() bool { return rec.len() == senders*perSender }, 5*time.Second, time.Millisecond)

	// within each sender's range, sequence numbers must appear in order
	lastSeen := make(map[int]int)
	for _, msg := range rec.snapshot() {
		value := msg.(int)
		sender := value / perSender
		seq := value % perSender
		last, seen := lastSeen[sender]
		if seen {
			require.Greater(t, seq, last, "messages from sender %d reordered", sender)
		}
		lastSeen[sender] = seq
	}
}

func TestMutualExclusion(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	inFlight := atomic.NewInt32(0)
	violations := atomic.NewInt32(0)
	processed := atomic.NewInt32(0)
	factory := ActorFactoryFunc(func(*Context) Actor {
		return actorFunc(func(_ *Context, _ Message) error {
			if inFlight.Inc() > 1 {
				violations.Inc()
			}
			time.Sleep(time.Microsecond)
			inFlight.Dec()
			processed.Inc()
			return nil
		})
	})

	handle, err := system.Spawn(ctx, factory, config.NewActorConfig("exclusive"))
	require.NoError(t, err)

	const senders = 16
	const perSender = 100
	var wg sync.WaitGroup
	wg.Add(senders)
	for s := 0; s < senders; s++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				assert.NoError(t, handle.Send(ctx, i))
				// hammer the scheduler with redundant wakes
				system.wakeup.Wake(handle.Address())
			}
		}()
	}
	wg.Wait()
	require.Eventually(t, func() bool { return processed.Load() == senders*perSender }, 10*time.Second, time.Millisecond)
	assert.Zero(t, violations.Load())
}

func TestWakeIdempotence(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	rec := new(recorder)
	handle, err := system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig("wakeful"))
	require.NoError(t, err)

	// enqueue one message without the implicit wake, then issue many
	// concurrent wakes: they must collapse to one delivery
	require.NoError(t, handle.mailbox.Enqueue(42))
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			system.wakeup.Wake(handle.Address())
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.len())
	assert.Equal(t, []Message{42}, rec.snapshot())
}

func TestUnsupportedMessageKeepsActorAlive(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	rec := new(recorder)
	handle, err := system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig("picky"))
	require.NoError(t, err)

	require.NoError(t, handle.Send(ctx, struct{ weird bool }{true}))
	require.NoError(t, handle.Send(ctx, "supported"))

	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []Message{"supported"}, rec.snapshot())
	assert.Equal(t, int64(1), system.ActorCount())
}

func TestRestartPreservesBacklog(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	rec := new(recorder)
	instances := atomic.NewInt32(0)
	factory := ActorFactoryFunc(func(*Context) Actor {
		instance := instances.Inc()
		return actorFunc(func(_ *Context, msg Message) error {
			if msg == "boom" {
				panic("handler exploded")
			}
			rec.record(fmt.Sprintf("i%d:%v", instance, msg))
			return nil
		})
	})

	cfg := config.NewActorConfig("phoenix")
	cfg.RestartPolicy = config.RestartAlways()
	handle, err := system.Spawn(ctx, factory, cfg)
	require.NoError(t, err)

	require.NoError(t, handle.Send(ctx, "boom"))
	require.NoError(t, handle.Send(ctx, "m2"))
	require.NoError(t, handle.Send(ctx, "m3"))

	require.Eventually(t, func() bool { return rec.len() == 2 }, 2*time.Second, time.Millisecond)
	// the replacement instance resumes with m2, in order
	assert.Equal(t, []Message{"i2:m2", "i2:m3"}, rec.snapshot())
	assert.Equal(t, int64(1), system.ActorCount())
}

func TestRestartNeverStopsActor(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	factory := ActorFactoryFunc(func(*Context) Actor {
		return actorFunc(func(_ *Context, _ Message) error {
			panic("always failing")
		})
	})
	cfg := config.NewActorConfig("fragile")
	cfg.RestartPolicy = config.RestartNever()
	handle, err := system.Spawn(ctx, factory, cfg)
	require.NoError(t, err)

	require.NoError(t, handle.Send(ctx, 1))
	require.Eventually(t, func() bool { return system.ActorCount() == 0 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, handle.Send(ctx, 2), ErrMailboxClosed)
}

func TestFailureDoesNotLeakAcrossActors(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	crashFactory := ActorFactoryFunc(func(*Context) Actor {
		return actorFunc(func(_ *Context, _ Message) error { panic("contained") })
	})
	crashCfg := config.NewActorConfig("crasher")
	crashCfg.RestartPolicy = config.RestartNever()
	crasher, err := system.Spawn(ctx, crashFactory, crashCfg)
	require.NoError(t, err)

	rec := new(recorder)
	bystander, err := system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig("bystander"))
	require.NoError(t, err)

	require.NoError(t, crasher.Send(ctx, 1))
	for i := 0; i < 20; i++ {
		require.NoError(t, bystander.Send(ctx, i))
	}
	require.Eventually(t, func() bool { return rec.len() == 20 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), system.ActorCount())
}

func TestBoundedMailboxScenario(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	entered := make(chan struct{}, 3)
	gate := make(chan struct{})
	rec := new(recorder)
	factory := ActorFactoryFunc(func(*Context) Actor {
		return actorFunc(func(_ *Context, msg Message) error {
			entered <- struct{}{}
			<-gate
			rec.record(msg)
			return nil
		})
	})

	cfg := config.NewActorConfig("slowpoke")
	cfg.MailboxSize = 1
	handle, err := system.Spawn(ctx, factory, cfg)
	require.NoError(t, err)

	require.NoError(t, handle.Send(ctx, 1))
	<-entered // handler now holds message 1
	require.NoError(t, handle.Send(ctx, 2))

	thirdDone := atomic.NewBool(false)
	go func() {
		assert.NoError(t, handle.Send(ctx, 3))
		thirdDone.Store(true)
	}()

	// the third send must stay blocked while the handler still holds the
	// first message and the second fills the single slot
	time.Sleep(100 * time.Millisecond)
	assert.False(t, thirdDone.Load())

	gate <- struct{}{} // release message 1, freeing the slot for message 3
	require.Eventually(t, thirdDone.Load, time.Second, time.Millisecond)
	<-entered
	gate <- struct{}{} // release message 2
	<-entered
	gate <- struct{}{} // release message 3

	require.Eventually(t, func() bool { return rec.len() == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []Message{1, 2, 3}, rec.snapshot())
}

func TestActorStop(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	rec := new(recorder)
	handle, err := system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig("mortal"))
	require.NoError(t, err)

	require.NoError(t, handle.Send(ctx, 1))
	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, time.Millisecond)

	handle.Stop()
	require.Eventually(t, func() bool { return system.ActorCount() == 0 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, handle.Send(ctx, 2), ErrMailboxClosed)

	// stopping twice is fine
	handle.Stop()
}

func TestGracefulShutdown(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	rec := new(recorder)
	for i := 0; i < 5; i++ {
		_, err := system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig(fmt.Sprintf("drainer-%d", i)))
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, system.Send(ctx, addressOf(system, fmt.Sprintf("drainer-%d", i)), i))
	}

	system.Stop(5 * time.Second)
	status := system.AwaitShutdown()
	assert.Equal(t, ExitGraceful, status)
	assert.Equal(t, int64(0), system.ActorCount())
	assert.Equal(t, 5, rec.len())

	// a second stop is a no-op, await returns the same status
	system.Stop(time.Second)
	assert.Equal(t, ExitGraceful, system.AwaitShutdown())
}

func TestForcedShutdown(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	// a treadmill actor refills its own mailbox and never drains
	factory := ActorFactoryFunc(func(actorCtx *Context) Actor {
		return actorFunc(func(c *Context, _ Message) error {
			_ = c.Self().Send(context.Background(), "again")
			return nil
		})
	})
	handle, err := system.Spawn(ctx, factory, config.NewActorConfig("treadmill"))
	require.NoError(t, err)
	require.NoError(t, handle.Send(ctx, "go"))

	const timeout = 300 * time.Millisecond
	start := time.Now()
	system.Stop(timeout)
	status := system.AwaitShutdown()

	assert.Equal(t, ExitForced, status)
	assert.GreaterOrEqual(t, time.Since(start), timeout)
}

func TestSpawnAfterStop(t *testing.T) {
	system := newTestSystem(t)
	system.Stop(time.Second)
	system.AwaitShutdown()

	_, err := system.Spawn(context.Background(), recordingFactory(new(recorder)), config.NewActorConfig("late"))
	assert.ErrorIs(t, err, ErrSystemStopping)
}

func TestSystemStopHook(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	hookCalls := atomic.NewInt32(0)
	factory := ActorFactoryFunc(func(*Context) Actor {
		return &stopHookActor{calls: hookCalls}
	})
	_, err := system.Spawn(ctx, factory, config.NewActorConfig("orderly"))
	require.NoError(t, err)

	system.Stop(2 * time.Second)
	require.Equal(t, ExitGraceful, system.AwaitShutdown())
	assert.Equal(t, int32(1), hookCalls.Load())
}

func TestPoolIsolation(t *testing.T) {
	system := newTestSystem(t)
	require.NoError(t, system.AddPoolWithConfig("blocking-io", config.PoolConfig{Threads: 1}))
	ctx := context.Background()

	// park the io pool's only worker
	parked := make(chan struct{})
	release := make(chan struct{})
	ioFactory := ActorFactoryFunc(func(*Context) Actor {
		return actorFunc(func(_ *Context, _ Message) error {
			close(parked)
			<-release
			return nil
		})
	})
	ioCfg := config.NewActorConfig("sleeper")
	ioCfg.Pool = "blocking-io"
	ioHandle, err := system.Spawn(ctx, ioFactory, ioCfg)
	require.NoError(t, err)
	require.NoError(t, ioHandle.Send(ctx, "park"))
	<-parked

	// the default pool keeps executing regardless
	rec := new(recorder)
	busy, err := system.Spawn(ctx, recordingFactory(rec), config.NewActorConfig("busy"))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, busy.Send(ctx, i))
	}
	require.Eventually(t, func() bool { return rec.len() == 10 }, time.Second, time.Millisecond)

	close(release)
}

func TestPreStartRetry(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	attempts := atomic.NewInt32(0)
	factory := ActorFactoryFunc(func(*Context) Actor {
		return &flakyStarter{attempts: attempts, failUntil: 3}
	})
	_, err := system.Spawn(ctx, factory, config.NewActorConfig("flaky"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestPreStartExhaustionFailsSpawn(t *testing.T) {
	system := newTestSystem(t)
	ctx := context.Background()

	attempts := atomic.NewInt32(0)
	factory := ActorFactoryFunc(func(*Context) Actor {
		return &flakyStarter{attempts: attempts, failUntil: 1 << 30}
	})
	_, err := system.Spawn(ctx, factory, config.NewActorConfig("doomed"))
	require.Error(t, err)
	assert.Equal(t, int64(0), system.ActorCount())
}

// actorFunc adapts a plain function to the Actor interface for tests.
type actorFunc func(ctx *Context, msg Message) error

func (f actorFunc) Receive(ctx *Context, msg Message) error {
	return f(ctx, msg)
}

type stopHookActor struct {
	calls *atomic.Int32
}

func (a *stopHookActor) Receive(*Context, Message) error {
	return nil
}

func (a *stopHookActor) OnSystemStop(*Context) {
	a.calls.Inc()
}

type flakyStarter struct {
	attempts  *atomic.Int32
	failUntil int32
}

func (a *flakyStarter) Receive(*Context, Message) error {
	return nil
}

func (a *flakyStarter) PreStart(*Context) error {
	if a.attempts.Inc() < a.failUntil {
		return fmt.Errorf("not ready yet")
	}
	return nil
}

// addressOf rebuilds the address of an actor spawned on the default pool.
func addressOf(system *ActorSystem, name string) address.Address {
	return address.New(name, system.Name(), config.DefaultPoolName)
}

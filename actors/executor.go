package actors

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/stagehand-io/stagehand/address"
	"github.com/stagehand-io/stagehand/config"
	"github.com/stagehand-io/stagehand/log"
)

// Retry limits for PreStart, applied at spawn and on every restart.
const preStartMaxRetries = 5

// activationOutcome is what an Executor reports back to the scheduler after
// one activation.
type activationOutcome int

const (
	// outcomeAsleep means the mailbox is empty; the actor goes back to sleep.
	outcomeAsleep activationOutcome = iota
	// outcomeRunnable means messages remain after the throughput limit; the
	// actor yields its worker and is rescheduled.
	outcomeRunnable
	// outcomeStopped means the actor terminated and was deregistered.
	outcomeStopped
)

// Executor owns one actor instance and its mailbox, and runs the actor's
// activations on whichever worker thread claims it. The Executor is created
// once per spawn and survives restarts; only the actor instance inside it is
// replaced.
//
// All fields besides the mailbox are confined to the activation path, which
// the scheduler guarantees is entered by at most one worker at a time.
type Executor struct {
	address        address.Address
	mailbox        *Mailbox
	cfg            config.ActorConfig
	factory        ActorFactory
	system         *ActorSystem
	actorCtx       *Context
	actor          Actor
	logger         log.Logger
	restartBackoff backoff.BackOff
	stopNotified   bool
}

// newExecutor builds the Executor and the initial actor instance. The
// factory runs immediately; a failing PreStart aborts the spawn.
func newExecutor(
	addr address.Address,
	mailbox *Mailbox,
	cfg config.ActorConfig,
	factory ActorFactory,
	system *ActorSystem,
	actorCtx *Context,
	logger log.Logger,
) (*Executor, error) {
	executor := &Executor{
		address:        addr,
		mailbox:        mailbox,
		cfg:            cfg,
		factory:        factory,
		system:         system,
		actorCtx:       actorCtx,
		logger:         logger,
		restartBackoff: newRestartBackoff(),
	}
	if err := executor.startInstance(); err != nil {
		return nil, err
	}
	return executor, nil
}

// runActivation drains the mailbox in FIFO order, up to the configured
// throughput, dispatching each message through the failure boundary. It
// returns the actor's next scheduling state. Exactly one worker runs a given
// actor's activation at a time; the scheduler enforces this structurally.
func (e *Executor) runActivation() activationOutcome {
	stopping := e.system.state.isStopping()
	if stopping && !e.stopNotified {
		e.stopNotified = true
		if handler, ok := e.actor.(SystemStopHandler); ok {
			e.invokeStopHook(handler)
		}
	}

	if e.mailbox.IsStopped() {
		e.terminate()
		return outcomeStopped
	}

	failed := false
	for _, msg := range e.mailbox.DequeueBatch(e.cfg.Throughput) {
		err := e.dispatch(msg)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrUnhandled) {
			e.logger.Warnf("actor %s dropped unsupported message of kind %T", e.address, msg)
			continue
		}

		// handler failure: contained here, resolved via the restart policy
		failed = true
		switch e.cfg.RestartPolicy.Decide(err) {
		case config.DirectiveRestart:
			e.logger.Errorf("actor %s failed handling %T, restarting: %v", e.address, msg, err)
			if restartErr := e.restart(); restartErr != nil {
				e.logger.Errorf("actor %s could not be restarted: %v", e.address, restartErr)
				e.terminate()
				return outcomeStopped
			}
		default:
			e.logger.Errorf("actor %s failed handling %T, stopping: %v", e.address, msg, err)
			e.terminate()
			return outcomeStopped
		}
	}
	if !failed {
		e.restartBackoff.Reset()
	}

	if !e.mailbox.IsEmpty() {
		return outcomeRunnable
	}
	if stopping || e.mailbox.IsStopped() {
		e.terminate()
		return outcomeStopped
	}
	return outcomeAsleep
}

// dispatch hands one message to the actor and converts an abnormal handler
// termination into a value-level failure the caller can match on.
func (e *Executor) dispatch(msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicError(r)
		}
	}()
	return e.actor.Receive(e.actorCtx, msg)
}

// restart discards the failed actor instance and builds a replacement from
// the factory. The mailbox and its pending messages are untouched, so
// processing resumes with the next queued message. Rapid failure loops are
// damped with exponential backoff.
func (e *Executor) restart() error {
	if delay := e.restartBackoff.NextBackOff(); delay > 0 {
		time.Sleep(delay)
	}
	e.disposeInstance()
	return e.startInstance()
}

// terminate ends the actor's life: the mailbox is stopped and disposed, the
// remaining instance is released, and the actor disappears from the system
// and scheduler registries.
func (e *Executor) terminate() {
	e.mailbox.MarkStopped()
	e.disposeInstance()
	e.mailbox.Dispose()
	e.system.deregister(e.address)
	e.logger.Infof("actor %s stopped", e.address)
}

// startInstance asks the factory for a fresh actor and runs its PreStart
// hook, retrying with exponential backoff for transient failures.
func (e *Executor) startInstance() error {
	actor := e.factory.NewActor(e.actorCtx)
	if starter, ok := actor.(PreStarter); ok {
		policy := backoff.WithMaxRetries(newPreStartBackoff(), preStartMaxRetries)
		if err := backoff.Retry(func() error { return starter.PreStart(e.actorCtx) }, policy); err != nil {
			return errors.Wrapf(err, "actor %s failed to initialize", e.address)
		}
	}
	e.actor = actor
	return nil
}

// disposeInstance runs the PostStop hook of the current instance,
// containing any panic it raises.
func (e *Executor) disposeInstance() {
	stopper, ok := e.actor.(PostStopper)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("actor %s panicked during PostStop: %v", e.address, r)
		}
	}()
	stopper.PostStop(e.actorCtx)
}

// invokeStopHook runs OnSystemStop, containing any panic it raises.
func (e *Executor) invokeStopHook(handler SystemStopHandler) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("actor %s panicked during OnSystemStop: %v", e.address, r)
		}
	}()
	handler.OnSystemStop(e.actorCtx)
}

func newRestartBackoff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = time.Second
	policy.MaxElapsedTime = 0
	return policy
}

func newPreStartBackoff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = 0
	return policy
}

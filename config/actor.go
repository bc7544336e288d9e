package config

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Backpressure selects what a bounded mailbox does when it is full.
type Backpressure int

const (
	// BackpressureBlock makes the sender wait until space is available.
	// This is the default: messages are neither dropped nor reordered.
	BackpressureBlock Backpressure = iota
	// BackpressureFail makes the send return ErrMailboxFull immediately,
	// leaving retry or drop decisions to the caller.
	BackpressureFail
)

// ActorConfig carries the resolved settings of one actor. It is immutable
// after spawn.
type ActorConfig struct {
	// Name is the actor name, unique within the system.
	Name string
	// Pool names the worker pool the actor is bound to. Empty selects the
	// reserved default pool.
	Pool string
	// MailboxSize is the mailbox capacity. Zero means unbounded.
	MailboxSize int
	// Throughput is the maximum number of messages processed per activation
	// before the actor yields its worker thread. Zero selects the global
	// default.
	Throughput int
	// Backpressure applies to bounded mailboxes only.
	Backpressure Backpressure
	// RestartPolicy decides Restart versus Stop after a handler failure.
	// Nil selects the global default.
	RestartPolicy RestartPolicy
}

// NewActorConfig returns an ActorConfig with only the name set; every other
// field resolves from the global defaults at spawn time.
func NewActorConfig(name string) ActorConfig {
	return ActorConfig{Name: name}
}

// Resolve fills unset fields from the global defaults and returns the
// completed config. MailboxSize is taken literally because zero already has
// a meaning (unbounded); DefaultActorConfig applies the global default size.
func (c ActorConfig) Resolve(global GlobalConfig) ActorConfig {
	if c.Pool == "" {
		c.Pool = DefaultPoolName
	}
	if c.Throughput == 0 {
		c.Throughput = global.DefaultThroughput
	}
	if c.RestartPolicy == nil {
		c.RestartPolicy = NewRestartPolicy(global.DefaultRestart)
	}
	return c
}

// DefaultActorConfig returns an ActorConfig for the given name with every
// field, the mailbox size included, resolved from the global defaults.
func DefaultActorConfig(name string, global GlobalConfig) ActorConfig {
	cfg := NewActorConfig(name)
	cfg.MailboxSize = global.DefaultMailboxSize
	return cfg.Resolve(global)
}

// Validate reports every problem with the actor configuration at once.
// It is meant to run after Resolve.
func (c ActorConfig) Validate() error {
	var err error
	if c.Name == "" {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfig, "actor name is empty"))
	}
	if c.Pool == "" {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfig, "pool name is empty"))
	}
	if c.MailboxSize < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "mailbox size %d is negative", c.MailboxSize))
	}
	if c.Throughput <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "throughput %d must be positive", c.Throughput))
	}
	if c.Backpressure != BackpressureBlock && c.Backpressure != BackpressureFail {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "unknown backpressure policy %d", c.Backpressure))
	}
	if c.RestartPolicy == nil {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfig, "restart policy is not set"))
	}
	return err
}

package config

import (
	"sync"
	"time"
)

// Directive is the outcome of a restart-policy decision after a handler
// failure.
type Directive int

const (
	// DirectiveStop instructs the runtime to stop the failing actor.
	DirectiveStop Directive = iota
	// DirectiveRestart instructs the runtime to replace the failing actor
	// with a fresh instance from its factory. The mailbox and its pending
	// messages are preserved.
	DirectiveRestart
)

// String returns the string representation of the directive.
func (d Directive) String() string {
	switch d {
	case DirectiveStop:
		return "Stop"
	case DirectiveRestart:
		return "Restart"
	default:
		return ""
	}
}

// Restart policy kinds understood by GlobalConfig.DefaultRestart.
const (
	RestartKindAlways = "always"
	RestartKindNever  = "never"
)

func validRestartKind(kind string) bool {
	return kind == RestartKindAlways || kind == RestartKindNever
}

// RestartPolicy decides what happens when one of the actor's message
// handlers fails. Implementations carrying internal state (such as the
// limited policy) must not be shared across actors.
type RestartPolicy interface {
	// Decide maps a handler failure to a directive.
	Decide(failure error) Directive
}

// NewRestartPolicy returns the policy instance for a configured kind.
// Unknown kinds fall back to never restarting.
func NewRestartPolicy(kind string) RestartPolicy {
	if kind == RestartKindAlways {
		return RestartAlways()
	}
	return RestartNever()
}

type restartAlways struct{}

func (restartAlways) Decide(error) Directive { return DirectiveRestart }

// RestartAlways returns a policy that restarts the actor on every failure.
func RestartAlways() RestartPolicy { return restartAlways{} }

type restartNever struct{}

func (restartNever) Decide(error) Directive { return DirectiveStop }

// RestartNever returns a policy that stops the actor on the first failure.
func RestartNever() RestartPolicy { return restartNever{} }

// restartLimited restarts until maxRestarts failures land inside the sliding
// window, then stops. A zero window counts failures over the actor lifetime.
type restartLimited struct {
	mu          sync.Mutex
	maxRestarts int
	window      time.Duration
	failures    []time.Time
	now         func() time.Time
}

// RestartLimited returns a policy that restarts the actor at most
// maxRestarts times within the given window, then stops it. Each returned
// value tracks its own failure history; create one per actor.
func RestartLimited(maxRestarts int, window time.Duration) RestartPolicy {
	return &restartLimited{
		maxRestarts: maxRestarts,
		window:      window,
		now:         time.Now,
	}
}

func (p *restartLimited) Decide(error) Directive {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.window > 0 {
		cutoff := now.Add(-p.window)
		kept := p.failures[:0]
		for _, at := range p.failures {
			if at.After(cutoff) {
				kept = append(kept, at)
			}
		}
		p.failures = kept
	}

	p.failures = append(p.failures, now)
	if len(p.failures) > p.maxRestarts {
		return DirectiveStop
	}
	return DirectiveRestart
}

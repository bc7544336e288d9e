package actors

// Message is anything delivered to an actor's mailbox. Actors declare the
// kinds they accept by type-switching in Receive and returning ErrUnhandled
// for everything else.
type Message any

// Actor knows how to receive and process messages. The runtime guarantees
// that at most one Receive call for a given actor runs at any instant, so
// implementations may treat their own state as single-threaded.
//
// Returning ErrUnhandled marks the message as an unsupported kind: it is
// logged and dropped without affecting the actor. Any other non-nil error,
// or a panic, is a handler failure resolved through the actor's restart
// policy.
type Actor interface {
	Receive(ctx *Context, msg Message) error
}

// ActorFactory constructs actor instances. It is invoked once at spawn and
// again on every restart, which is why actors never need to be copyable:
// the runtime asks for a fresh instance instead of cloning a live one.
type ActorFactory interface {
	NewActor(ctx *Context) Actor
}

// ActorFactoryFunc adapts a function to the ActorFactory interface.
type ActorFactoryFunc func(ctx *Context) Actor

// NewActor implements ActorFactory.
func (f ActorFactoryFunc) NewActor(ctx *Context) Actor {
	return f(ctx)
}

// PreStarter is implemented by actors that need initialization before
// processing messages. PreStart runs at spawn and after every restart; it is
// retried with exponential backoff and the spawn or restart fails when the
// retries are exhausted.
type PreStarter interface {
	PreStart(ctx *Context) error
}

// PostStopper is implemented by actors that need cleanup. PostStop runs
// best-effort when the instance is discarded, both on restart and on
// terminal stop.
type PostStopper interface {
	PostStop(ctx *Context)
}

// SystemStopHandler is implemented by actors that want to do orderly-stop
// work. OnSystemStop is invoked exactly once, at the start of the actor's
// first activation after system shutdown begins. Actors without the hook
// simply stop once their mailbox drains.
type SystemStopHandler interface {
	OnSystemStop(ctx *Context)
}

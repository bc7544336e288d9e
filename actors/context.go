package actors

import (
	"github.com/stagehand-io/stagehand/log"
)

// Context is injected into every actor at construction time. It exposes the
// owning system and the actor's own handle, so an actor can message itself,
// spawn siblings, or inspect system state during orderly-stop handling.
type Context struct {
	system *ActorSystem
	self   *ActorWrapper
	logger log.Logger
}

// System returns the owning actor system.
func (c *Context) System() *ActorSystem {
	return c.system
}

// Self returns the actor's own handle.
func (c *Context) Self() *ActorWrapper {
	return c.self
}

// Logger returns the system logger.
func (c *Context) Logger() log.Logger {
	return c.logger
}

// Package address provides the canonical identity of an actor.
//
// An address is a structured value made of four parts:
//
//   - Actor: the actor's name within its system
//   - System: the name of the owning actor system
//   - Pool: the name of the worker pool the actor is bound to
//   - Location: "local" for in-process actors; reserved for future transports
//
// Addresses are immutable values with structural equality, which makes them
// usable as registry keys. The canonical textual representation is:
//
//	stagehand://<system>@<pool>/<actor>
package address

import (
	"fmt"

	"github.com/pkg/errors"
)

// scheme defines the stagehand addressing scheme
const scheme = "stagehand"

// LocationLocal is the reserved location tag for in-process actors.
const LocationLocal = "local"

// ErrInvalidAddress is returned when one of the address parts is empty.
var ErrInvalidAddress = errors.New("invalid actor address")

// Address identifies a single actor within an actor system.
// The zero value is not a valid address; use New.
type Address struct {
	actor    string
	system   string
	pool     string
	location string
}

// New creates a local Address from its parts. New does not validate the
// inputs; call Validate to verify the resulting address.
func New(actor, system, pool string) Address {
	return Address{
		actor:    actor,
		system:   system,
		pool:     pool,
		location: LocationLocal,
	}
}

// Actor returns the actor name component of the Address.
func (a Address) Actor() string {
	return a.actor
}

// System returns the actor system name component of the Address.
func (a Address) System() string {
	return a.system
}

// Pool returns the worker pool name component of the Address.
func (a Address) Pool() string {
	return a.pool
}

// Location returns the location tag of the Address.
func (a Address) Location() string {
	return a.location
}

// IsLocal reports whether the address points at an in-process actor.
func (a Address) IsLocal() bool {
	return a.location == LocationLocal
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Equal reports whether two addresses identify the same actor.
// Equality is structural across all four parts.
func (a Address) Equal(other Address) bool {
	return a == other
}

// Validate checks that every part of the address is set.
func (a Address) Validate() error {
	switch {
	case a.actor == "":
		return errors.Wrap(ErrInvalidAddress, "actor name is empty")
	case a.system == "":
		return errors.Wrap(ErrInvalidAddress, "system name is empty")
	case a.pool == "":
		return errors.Wrap(ErrInvalidAddress, "pool name is empty")
	case a.location == "":
		return errors.Wrap(ErrInvalidAddress, "location is empty")
	default:
		return nil
	}
}

// String returns the canonical textual representation of the Address.
func (a Address) String() string {
	return fmt.Sprintf("%s://%s@%s/%s", scheme, a.system, a.pool, a.actor)
}

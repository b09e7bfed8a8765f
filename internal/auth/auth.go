// Package auth defines caller roles. Role checks happen at the ledger
// and API boundary; the pool itself assumes they already passed.
package auth

import (
	"errors"
	"fmt"
)

// Role is the privilege level of a caller.
type Role uint8

const (
	// RoleObserver may only query pool state.
	RoleObserver Role = iota
	// RoleAdmin may run every pool operation.
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleObserver:
		return "observer"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

var ErrUnauthorized = errors.New("auth: caller not authorized")

// Caller identifies who invokes an operation.
type Caller struct {
	Name string
	Role Role
}

// Require fails unless c holds at least the given role.
func Require(c Caller, r Role) error {
	if c.Role < r {
		return fmt.Errorf("%w: %q needs role %s", ErrUnauthorized, c.Name, r)
	}
	return nil
}

package access

import (
	"bytes"
	"fmt"

	ledgererr "vidchain/core/errors"
)

// Role identifies a capability recognised by the ledger. The set is closed:
// grants against unknown roles are rejected rather than silently stored.
type Role string

const (
	RoleAdmin   Role = "ROLE_ADMIN"
	RoleMinter  Role = "ROLE_MINTER"
	RolePauser  Role = "ROLE_PAUSER"
	RoleRewards Role = "ROLE_REWARDS"
	RoleOracle  Role = "ROLE_ORACLE"
	RoleMarket  Role = "ROLE_MARKET"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:   {},
	RoleMinter:  {},
	RolePauser:  {},
	RoleRewards: {},
	RoleOracle:  {},
	RoleMarket:  {},
}

// Valid reports whether the role belongs to the recognised set.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

type registryState interface {
	RoleMembers(role string) ([][]byte, error)
	SetRoleMembers(role string, members [][]byte) error
}

// Registry answers capability queries and applies admin-gated grant and
// revoke mutations against the persisted membership lists.
type Registry struct {
	state registryState
}

// NewRegistry constructs a registry over the supplied state backend.
func NewRegistry(state registryState) *Registry {
	return &Registry{state: state}
}

// HasRole reports whether addr holds the role. Read errors degrade to false,
// matching the best-effort semantics the capability check requires.
func (r *Registry) HasRole(role Role, addr [20]byte) bool {
	if r == nil || r.state == nil || !role.Valid() {
		return false
	}
	members, err := r.state.RoleMembers(string(role))
	if err != nil {
		return false
	}
	for _, member := range members {
		if bytes.Equal(member, addr[:]) {
			return true
		}
	}
	return false
}

// Require returns ErrUnauthorized unless addr holds the role.
func (r *Registry) Require(role Role, addr [20]byte) error {
	if !r.HasRole(role, addr) {
		return fmt.Errorf("access: %s required: %w", role, ledgererr.ErrUnauthorized)
	}
	return nil
}

// Grant adds addr to the role membership. Caller must hold the admin role.
func (r *Registry) Grant(caller [20]byte, role Role, addr [20]byte) error {
	if err := r.Require(RoleAdmin, caller); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("access: unknown role %q", role)
	}
	members, err := r.state.RoleMembers(string(role))
	if err != nil {
		return err
	}
	for _, member := range members {
		if bytes.Equal(member, addr[:]) {
			return nil
		}
	}
	members = append(members, append([]byte{}, addr[:]...))
	return r.state.SetRoleMembers(string(role), members)
}

// Revoke removes addr from the role membership. Caller must hold the admin
// role. Revoking an address that never held the role is a no-op.
func (r *Registry) Revoke(caller [20]byte, role Role, addr [20]byte) error {
	if err := r.Require(RoleAdmin, caller); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("access: unknown role %q", role)
	}
	members, err := r.state.RoleMembers(string(role))
	if err != nil {
		return err
	}
	filtered := members[:0]
	for _, member := range members {
		if !bytes.Equal(member, addr[:]) {
			filtered = append(filtered, member)
		}
	}
	return r.state.SetRoleMembers(string(role), filtered)
}

// Seed installs a role membership without an admin check. It exists for
// genesis wiring only: the deployment configuration installs the initial
// admin before any admin exists to authorise the grant.
func (r *Registry) Seed(role Role, addr [20]byte) error {
	if !role.Valid() {
		return fmt.Errorf("access: unknown role %q", role)
	}
	members, err := r.state.RoleMembers(string(role))
	if err != nil {
		return err
	}
	for _, member := range members {
		if bytes.Equal(member, addr[:]) {
			return nil
		}
	}
	members = append(members, append([]byte{}, addr[:]...))
	return r.state.SetRoleMembers(string(role), members)
}

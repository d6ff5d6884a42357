package access

import (
	"errors"
	"testing"

	ledgererr "vidchain/core/errors"
)

type mockState struct {
	roles map[string][][]byte
}

func newMockState() *mockState {
	return &mockState{roles: make(map[string][][]byte)}
}

func (m *mockState) RoleMembers(role string) ([][]byte, error) {
	out := make([][]byte, len(m.roles[role]))
	for i, member := range m.roles[role] {
		out[i] = append([]byte{}, member...)
	}
	return out, nil
}

func (m *mockState) SetRoleMembers(role string, members [][]byte) error {
	stored := make([][]byte, len(members))
	for i, member := range members {
		stored[i] = append([]byte{}, member...)
	}
	m.roles[role] = stored
	return nil
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func TestGrantRevokeRoundTrip(t *testing.T) {
	state := newMockState()
	registry := NewRegistry(state)
	admin := addr(0x01)
	minter := addr(0x02)

	if err := registry.Seed(RoleAdmin, admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := registry.Grant(admin, RoleMinter, minter); err != nil {
		t.Fatalf("grant minter: %v", err)
	}
	if !registry.HasRole(RoleMinter, minter) {
		t.Fatalf("expected minter role to be granted")
	}
	if err := registry.Revoke(admin, RoleMinter, minter); err != nil {
		t.Fatalf("revoke minter: %v", err)
	}
	if registry.HasRole(RoleMinter, minter) {
		t.Fatalf("expected minter role to be revoked")
	}
}

func TestGrantRequiresAdmin(t *testing.T) {
	state := newMockState()
	registry := NewRegistry(state)
	outsider := addr(0x05)

	err := registry.Grant(outsider, RoleMinter, addr(0x06))
	if !errors.Is(err, ledgererr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUnknownRoleRejected(t *testing.T) {
	state := newMockState()
	registry := NewRegistry(state)
	admin := addr(0x01)
	if err := registry.Seed(RoleAdmin, admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := registry.Grant(admin, Role("ROLE_BOGUS"), addr(0x02)); err == nil {
		t.Fatalf("expected unknown role rejection")
	}
	if registry.HasRole(Role("ROLE_BOGUS"), addr(0x02)) {
		t.Fatalf("unknown role must never match")
	}
}

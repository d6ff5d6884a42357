package common

import (
	"errors"
	"testing"
)

func TestReentrancyGuardBlocksNestedEntry(t *testing.T) {
	guard := &ReentrancyGuard{}

	release, err := guard.Enter()
	if err != nil {
		t.Fatalf("first entry failed: %v", err)
	}
	if _, err := guard.Enter(); !errors.Is(err, ErrReentrancy) {
		t.Fatalf("expected reentrancy rejection, got %v", err)
	}
	release()
	release2, err := guard.Enter()
	if err != nil {
		t.Fatalf("entry after release failed: %v", err)
	}
	release2()
}

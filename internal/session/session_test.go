package session

import (
	"errors"
	"testing"
)

func TestCreateValidateBinding(t *testing.T) {
	a := NewAuthority(4)

	token, err := a.Create("FAN1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != tokenBytes*2 {
		t.Errorf("token length = %d, want %d hex chars", len(token), tokenBytes*2)
	}

	deviceID, err := a.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if deviceID != "FAN1" {
		t.Errorf("Validate resolved %q, want FAN1", deviceID)
	}
}

func TestValidateRejections(t *testing.T) {
	a := NewAuthority(4)
	if _, err := a.Validate("nope"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate(unknown) error = %v, want ErrInvalidToken", err)
	}
	if _, err := a.Validate(""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate(empty) error = %v, want ErrInvalidToken", err)
	}
}

func TestRevoke(t *testing.T) {
	a := NewAuthority(4)
	token, _ := a.Create("FAN1")

	a.Revoke(token)
	if _, err := a.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("revoked token still validates")
	}
	if a.ActiveCount() != 0 {
		t.Errorf("ActiveCount = %d after revoke", a.ActiveCount())
	}

	// revoking again is a no-op
	a.Revoke(token)
	a.Revoke("never-issued")
}

func TestCapacityAndSlotReuse(t *testing.T) {
	a := NewAuthority(2)

	t1, _ := a.Create("A")
	if _, err := a.Create("B"); err != nil {
		t.Fatalf("Create(B): %v", err)
	}
	if _, err := a.Create("C"); !errors.Is(err, ErrPoolFull) {
		t.Errorf("Create on full pool error = %v, want ErrPoolFull", err)
	}

	a.Revoke(t1)
	t3, err := a.Create("C")
	if err != nil {
		t.Fatalf("Create after revoke: %v", err)
	}
	if got, _ := a.Validate(t3); got != "C" {
		t.Errorf("reused slot resolves %q, want C", got)
	}
	// the stale token from the reused slot must not validate
	if _, err := a.Validate(t1); !errors.Is(err, ErrInvalidToken) {
		t.Error("stale token from reused slot still validates")
	}
}

func TestMultipleSessionsPerDevice(t *testing.T) {
	a := NewAuthority(4)

	t1, _ := a.Create("FAN1")
	t2, _ := a.Create("FAN1")
	if t1 == t2 {
		t.Error("two sessions issued the same token")
	}
	for _, tok := range []string{t1, t2} {
		if got, err := a.Validate(tok); err != nil || got != "FAN1" {
			t.Errorf("Validate(%q) = (%q, %v)", tok, got, err)
		}
	}
}

func TestTokenUniqueness(t *testing.T) {
	a := NewAuthority(32)
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		tok, err := a.Create("D")
		if err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token issued: %s", tok)
		}
		seen[tok] = true
	}
}

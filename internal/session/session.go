// Package session issues and validates the bearer tokens that bind a
// client to one device identity after CONNECT.
//
// The pool has fixed capacity and never grows; a slot freed by BYE is
// reused by the next CONNECT. Tokens are 256-bit values from
// crypto/rand, hex-encoded. There is no expiry: a session lives until
// it is revoked or the process restarts. That is a deliberate
// simplification — the protocol has an explicit logout and the server
// is a single operator process.
//
// A device may hold several active sessions at once; only token
// uniqueness among active slots is enforced.
//
// Like the device registry, the Authority is confined to the engine
// goroutine and carries no locks.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// DefaultCapacity is the session slot count used unless configured.
const DefaultCapacity = 32

// tokenBytes is the entropy per token (256 bits).
const tokenBytes = 32

// Pool errors, checked with errors.Is.
var (
	// ErrPoolFull is returned when every slot is active.
	ErrPoolFull = errors.New("session: no free slots")

	// ErrInvalidToken is returned when a token matches no active slot.
	ErrInvalidToken = errors.New("session: token invalid")
)

type slot struct {
	token    string
	deviceID string
	active   bool
}

// Authority owns the fixed-capacity session pool.
type Authority struct {
	slots []slot
}

// NewAuthority creates a pool with the given capacity.
// A non-positive capacity falls back to DefaultCapacity.
func NewAuthority(capacity int) *Authority {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Authority{slots: make([]slot, capacity)}
}

// Create binds a fresh token to the device id in the first free slot.
func (a *Authority) Create(deviceID string) (string, error) {
	for i := range a.slots {
		if a.slots[i].active {
			continue
		}
		token, err := generateToken()
		if err != nil {
			return "", err
		}
		a.slots[i] = slot{token: token, deviceID: deviceID, active: true}
		return token, nil
	}
	return "", ErrPoolFull
}

// Validate resolves an active token to its bound device id.
// Inactive slots never match, even if their token bytes linger.
func (a *Authority) Validate(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	for i := range a.slots {
		if a.slots[i].active && a.slots[i].token == token {
			return a.slots[i].deviceID, nil
		}
	}
	return "", ErrInvalidToken
}

// Revoke deactivates the matching session. Unknown tokens are a no-op.
func (a *Authority) Revoke(token string) {
	for i := range a.slots {
		if a.slots[i].active && a.slots[i].token == token {
			a.slots[i].active = false
			return
		}
	}
}

// ActiveCount returns the number of live sessions.
func (a *Authority) ActiveCount() int {
	n := 0
	for i := range a.slots {
		if a.slots[i].active {
			n++
		}
	}
	return n
}

// generateToken draws 256 bits from the system CSPRNG.
// Collision probability among tens of active sessions is negligible,
// so uniqueness needs no rescan.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Package coop tracks the named device groups (coops). Coops exist for
// organisation and display only; they play no part in authorisation.
package coop

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultCapacity is the coop slot count used unless configured.
const DefaultCapacity = 10

// Registry errors, checked with errors.Is.
var (
	// ErrFull is returned when the fixed-capacity registry has no free slot.
	ErrFull = errors.New("coop: registry full")

	// ErrInvalidName is returned for an empty coop name.
	ErrInvalidName = errors.New("coop: invalid name")

	// ErrInvalidID is returned for a non-positive coop id.
	ErrInvalidID = errors.New("coop: invalid id")
)

// Coop is one named group of devices.
type Coop struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Registry owns the fixed-capacity coop list. Like the device registry
// it is confined to the engine goroutine and carries no locks.
type Registry struct {
	coops    []Coop
	capacity int
	nextID   int
}

// NewRegistry creates an empty registry with the given capacity.
// A non-positive capacity falls back to DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{capacity: capacity, nextID: 1}
}

// Count returns the number of coops.
func (r *Registry) Count() int { return len(r.coops) }

// List returns the coops in creation order.
func (r *Registry) List() []Coop {
	out := make([]Coop, len(r.coops))
	copy(out, r.coops)
	return out
}

// Find returns the coop with the given id.
func (r *Registry) Find(id int) (Coop, bool) {
	for _, c := range r.coops {
		if c.ID == id {
			return c, true
		}
	}
	return Coop{}, false
}

// Add creates a coop with the next free id and returns that id.
func (r *Registry) Add(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidName
	}
	if len(r.coops) >= r.capacity {
		return 0, fmt.Errorf("%w: capacity %d", ErrFull, r.capacity)
	}
	id := r.nextID
	r.nextID++
	r.coops = append(r.coops, Coop{ID: id, Name: name})
	return id, nil
}

// Upsert inserts or renames a coop with an explicit id. Used when
// reloading persisted state; keeps the auto-increment counter ahead of
// every explicit id. Names that are empty or "0" (artifacts of older
// persistence files) are sanitised to "Coop <id>".
func (r *Registry) Upsert(id int, name string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "0" {
		name = fmt.Sprintf("Coop %d", id)
	}
	for i := range r.coops {
		if r.coops[i].ID == id {
			r.coops[i].Name = name
			return nil
		}
	}
	if len(r.coops) >= r.capacity {
		return fmt.Errorf("%w: capacity %d", ErrFull, r.capacity)
	}
	r.coops = append(r.coops, Coop{ID: id, Name: name})
	if id >= r.nextID {
		r.nextID = id + 1
	}
	return nil
}

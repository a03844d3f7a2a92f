// Package storage persists the full farm state (coops plus devices,
// including credentials) as a JSON snapshot file.
//
// The file is the durability contract of the protocol: it is rewritten
// after every acknowledged mutating command, before the response goes
// out, and reloaded at startup to seed the registries. Writes are
// atomic (temp file then rename) so a crash mid-write leaves the
// previous snapshot intact.
//
// Device state inside the file is the same canonical snapshot JSON the
// wire uses; there is exactly one serialization of a device in the
// system.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coopnet/coopnet-core/internal/coop"
	"github.com/coopnet/coopnet-core/internal/device"
)

// ErrNotFound is returned by Load when no snapshot file exists yet.
// First boot is a normal condition, not a fault.
var ErrNotFound = errors.New("storage: no farm state file")

// formatVersion guards against future layout changes.
const formatVersion = 1

// filePermissions keeps credentials out of other users' reach.
const filePermissions = 0600

// DeviceRecord is one persisted device: identity, credential, and the
// canonical state snapshot.
type DeviceRecord struct {
	ID       string          `json:"device_id"`
	Type     device.Type     `json:"type"`
	CoopID   int             `json:"coop_id"`
	Password string          `json:"password"`
	State    json.RawMessage `json:"state"`
}

// FarmState is the whole persisted farm.
type FarmState struct {
	Version int            `json:"version"`
	Coops   []coop.Coop    `json:"coops"`
	Devices []DeviceRecord `json:"devices"`
}

// Store reads and writes the farm state file.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Save writes the farm state atomically.
func (s *Store) Save(state *FarmState) error {
	state.Version = formatVersion

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding farm state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".farm-state-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // best-effort cleanup, no-op after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("writing farm state: %w", err)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("setting state file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing farm state file: %w", err)
	}
	return nil
}

// Load reads the farm state file. Returns ErrNotFound when the file
// does not exist.
func (s *Store) Load() (*FarmState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("reading farm state: %w", err)
	}

	var state FarmState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding farm state: %w", err)
	}
	return &state, nil
}

// SnapshotFarm captures the live registries into a persistable state.
func SnapshotFarm(coops *coop.Registry, devices *device.Registry) (*FarmState, error) {
	state := &FarmState{
		Version: formatVersion,
		Coops:   coops.List(),
	}
	for _, d := range devices.Export() {
		raw, err := d.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("snapshotting %s: %w", d.ID, err)
		}
		state.Devices = append(state.Devices, DeviceRecord{
			ID:       d.ID,
			Type:     d.Type,
			CoopID:   d.CoopID,
			Password: d.Password,
			State:    raw,
		})
	}
	return state, nil
}

// RestoreFarm seeds the registries from a loaded state. Records that
// cannot be restored (duplicate id, unknown type, overflow) are skipped
// and reported through the returned count so the caller can log them.
func RestoreFarm(state *FarmState, coops *coop.Registry, devices *device.Registry) (skipped int) {
	for _, c := range state.Coops {
		if err := coops.Upsert(c.ID, c.Name); err != nil {
			skipped++
		}
	}
	for _, rec := range state.Devices {
		st, err := device.ParseState(rec.Type, rec.State)
		if err != nil {
			skipped++
			continue
		}
		password := rec.Password
		if password == "" {
			password = device.DefaultPassword
		}
		d := &device.Device{
			ID:       rec.ID,
			Type:     rec.Type,
			CoopID:   rec.CoopID,
			Password: password,
			State:    st,
		}
		if err := devices.Restore(d); err != nil {
			skipped++
		}
	}
	return skipped
}

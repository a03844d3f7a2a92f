package device

import (
	"encoding/json"
	"fmt"
)

// The snapshot JSON is the single canonical serialization of device
// state. It is what INFO and SETCFG return on the wire and what the
// persistence file stores, so the key set below is frozen: renaming a
// key is a wire-protocol change.

// snapshotHeader carries the type tag shared by every snapshot.
type snapshotHeader struct {
	DeviceID string `json:"device_id"`
	Type     Type   `json:"type"`
}

// Snapshot renders the device as a compact, type-tagged JSON object:
// {"device_id":...,"type":...,<type-specific fields>}.
func (d *Device) Snapshot() ([]byte, error) {
	hdr := snapshotHeader{DeviceID: d.ID, Type: d.Type}
	switch s := d.State.(type) {
	case *SensorState:
		return json.Marshal(struct {
			snapshotHeader
			*SensorState
		}{hdr, s})
	case *EggCounterState:
		return json.Marshal(struct {
			snapshotHeader
			*EggCounterState
		}{hdr, s})
	case *FanState:
		return json.Marshal(struct {
			snapshotHeader
			*FanState
		}{hdr, s})
	case *HeaterState:
		return json.Marshal(struct {
			snapshotHeader
			*HeaterState
		}{hdr, s})
	case *SprayerState:
		return json.Marshal(struct {
			snapshotHeader
			*SprayerState
		}{hdr, s})
	case *FeederState:
		return json.Marshal(struct {
			snapshotHeader
			*FeederState
		}{hdr, s})
	case *DrinkerState:
		return json.Marshal(struct {
			snapshotHeader
			*DrinkerState
		}{hdr, s})
	default:
		return nil, fmt.Errorf("%w: type %q", ErrInvalidType, d.Type)
	}
}

// ParseState decodes a snapshot object (or any object carrying the same
// keys) into the state variant for the given type. Unknown keys are
// ignored, which lets the persistence loader feed whole snapshot
// objects through.
func ParseState(t Type, data []byte) (State, error) {
	var (
		state State
		err   error
	)
	switch t {
	case TypeSensor:
		s := &SensorState{}
		err = json.Unmarshal(data, s)
		state = s
	case TypeEggCounter:
		s := &EggCounterState{}
		err = json.Unmarshal(data, s)
		state = s
	case TypeFan:
		s := &FanState{}
		err = json.Unmarshal(data, s)
		state = s
	case TypeHeater:
		s := &HeaterState{}
		err = json.Unmarshal(data, s)
		state = s
	case TypeSprayer:
		s := &SprayerState{}
		err = json.Unmarshal(data, s)
		state = s
	case TypeFeeder:
		s := &FeederState{}
		err = json.Unmarshal(data, s)
		state = s
	case TypeDrinker:
		s := &DrinkerState{}
		err = json.Unmarshal(data, s)
		state = s
	case TypeUnknown:
		return nil, fmt.Errorf("%w: type %q", ErrInvalidType, t)
	default:
		return nil, fmt.Errorf("%w: type %q", ErrInvalidType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return state, nil
}

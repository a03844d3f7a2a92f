package device

import "errors"

// Domain errors for the device package, checked with errors.Is.
// The dispatcher maps these to wire response codes; everything that is
// not ErrNotFound or ErrWrongPassword surfaces as a bad request.
var (
	// ErrNotFound is returned when a device id does not exist.
	// Absence is a reportable outcome, not a fault.
	ErrNotFound = errors.New("device: not found")

	// ErrExists is returned when registering an id that is already taken.
	ErrExists = errors.New("device: already exists")

	// ErrRegistryFull is returned when the fixed-capacity registry has no free slot.
	ErrRegistryFull = errors.New("device: registry full")

	// ErrInvalidID is returned for an empty device id.
	ErrInvalidID = errors.New("device: invalid id")

	// ErrInvalidType is returned for a type word outside the closed set.
	ErrInvalidType = errors.New("device: invalid type")

	// ErrInvalidCoop is returned for a non-positive coop id.
	ErrInvalidCoop = errors.New("device: invalid coop id")

	// ErrNotActuator is returned when power control is attempted on a
	// sensor or egg counter.
	ErrNotActuator = errors.New("device: type has no power control")

	// ErrWrongType is returned when an action or configuration targets
	// a device of a different type (FEED_NOW on a fan, say).
	ErrWrongType = errors.New("device: action not supported by type")

	// ErrOutOfRange is returned when a numeric argument falls outside
	// its fixed domain range. Values are rejected, never clamped.
	ErrOutOfRange = errors.New("device: value out of range")

	// ErrThresholdOrder is returned when paired thresholds violate
	// their relational invariant.
	ErrThresholdOrder = errors.New("device: threshold ordering invalid")

	// ErrScheduleTooLong is returned when a schedule exceeds the fixed
	// entry cap. Overflow is rejected, never truncated.
	ErrScheduleTooLong = errors.New("device: schedule exceeds capacity")

	// ErrInvalidSchedule is returned for a malformed schedule entry.
	ErrInvalidSchedule = errors.New("device: invalid schedule entry")

	// ErrWrongPassword is returned when a supplied credential does not
	// match the stored one.
	ErrWrongPassword = errors.New("device: wrong password")

	// ErrInvalidState is returned when a persisted state payload cannot
	// be decoded for the device's type.
	ErrInvalidState = errors.New("device: invalid state payload")
)

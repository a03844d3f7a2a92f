package device

import "strings"

// Type classifies a device. The set is closed: every state-bearing
// switch in this package matches all seven variants exhaustively, so
// adding a type is a compile-surface change, not a silent gap.
type Type string

// Device types.
const (
	TypeSensor     Type = "sensor"
	TypeEggCounter Type = "egg_counter"
	TypeFeeder     Type = "feeder"
	TypeDrinker    Type = "drinker"
	TypeFan        Type = "fan"
	TypeHeater     Type = "heater"
	TypeSprayer    Type = "sprayer"
	TypeUnknown    Type = "unknown"
)

// TypeFromString resolves a wire type word to a Type.
// Matching is case-insensitive; unrecognised words map to TypeUnknown.
func TypeFromString(s string) Type {
	switch Type(strings.ToLower(s)) {
	case TypeSensor:
		return TypeSensor
	case TypeEggCounter:
		return TypeEggCounter
	case TypeFeeder:
		return TypeFeeder
	case TypeDrinker:
		return TypeDrinker
	case TypeFan:
		return TypeFan
	case TypeHeater:
		return TypeHeater
	case TypeSprayer:
		return TypeSprayer
	default:
		return TypeUnknown
	}
}

// Valid reports whether t is a member of the closed type set.
func (t Type) Valid() bool {
	return t != TypeUnknown && TypeFromString(string(t)) == t
}

// IsActuator reports whether the type accepts power control.
// Sensors and egg counters are read-only.
func (t Type) IsActuator() bool {
	switch t {
	case TypeFan, TypeHeater, TypeSprayer, TypeFeeder, TypeDrinker:
		return true
	case TypeSensor, TypeEggCounter, TypeUnknown:
		return false
	default:
		return false
	}
}

// Power is the on/off state of an actuator, spelled exactly as it
// appears on the wire and in the persistence file.
type Power string

// Power states.
const (
	PowerOn  Power = "ON"
	PowerOff Power = "OFF"
)

// Valid reports whether p is ON or OFF.
func (p Power) Valid() bool { return p == PowerOn || p == PowerOff }

// ScheduleEntry is one timed dispensing slot for a feeder or drinker.
// Drinker entries carry no feed quantity; the field is omitted when zero.
type ScheduleEntry struct {
	Time   string  `json:"time"` // HH:MM, 24-hour
	FeedKg float64 `json:"feed_kg,omitempty"`
	WaterL float64 `json:"water_l"`
}

// State is the closed union of per-type device payloads.
// The unexported marker keeps the variant set sealed to this package.
type State interface {
	deviceState()
}

// SensorState is a temperature/humidity reading.
type SensorState struct {
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	UnitTemperature string  `json:"unit_temperature"`
	UnitHumidity    string  `json:"unit_humidity"`
}

// EggCounterState is a cumulative egg count.
type EggCounterState struct {
	EggCount int `json:"egg_count"`
}

// FanState holds ventilation configuration. The fan switches on at
// TempOnC and back off at TempOffC, so TempOffC must not exceed TempOnC.
type FanState struct {
	Power    Power   `json:"state"`
	TempOnC  float64 `json:"temp_on_c"`
	TempOffC float64 `json:"temp_off_c"`
	UnitTemp string  `json:"unit_temp"`
}

// HeaterState holds heating configuration. The heater switches on at
// TempOnC and off at TempOffC, so TempOnC must not exceed TempOffC.
type HeaterState struct {
	Power    Power   `json:"state"`
	TempOnC  float64 `json:"temp_on_c"`
	TempOffC float64 `json:"temp_off_c"`
	Mode     string  `json:"mode"`
	UnitTemp string  `json:"unit_temp"`
}

// SprayerState holds misting configuration. Spraying starts below
// HumidityOnPct and targets HumidityTargetPct, so the activation
// humidity must not exceed the target.
type SprayerState struct {
	Power             Power   `json:"state"`
	HumidityOnPct     float64 `json:"humidity_on_pct"`
	HumidityTargetPct float64 `json:"humidity_target_pct"`
	FlowLph           float64 `json:"flow_lph"`
	UnitHumidity      string  `json:"unit_humidity"`
	UnitFlow          string  `json:"unit_flow"`
}

// FeederState holds ration quantities and the dispensing schedule.
type FeederState struct {
	Power     Power           `json:"state"`
	FeedKg    float64         `json:"feed_kg"`
	WaterL    float64         `json:"water_l"`
	UnitFood  string          `json:"unit_food"`
	UnitWater string          `json:"unit_water"`
	Schedule  []ScheduleEntry `json:"schedule"`
}

// DrinkerState holds the water ration and the dispensing schedule.
type DrinkerState struct {
	Power     Power           `json:"state"`
	WaterL    float64         `json:"water_l"`
	UnitWater string          `json:"unit_water"`
	Schedule  []ScheduleEntry `json:"schedule"`
}

func (*SensorState) deviceState()     {}
func (*EggCounterState) deviceState() {}
func (*FanState) deviceState()        {}
func (*HeaterState) deviceState()     {}
func (*SprayerState) deviceState()    {}
func (*FeederState) deviceState()     {}
func (*DrinkerState) deviceState()    {}

// Device is one simulated unit: stable identity, credential, and the
// type-specific state variant. The ID is immutable after creation;
// CoopID may be reassigned.
type Device struct {
	ID       string
	Type     Type
	CoopID   int
	Password string
	State    State
}

// DeepCopy returns an independent copy of the device. Schedule slices
// are cloned so callers can mutate the copy without touching registry
// internals.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	switch s := d.State.(type) {
	case *SensorState:
		sc := *s
		cpy.State = &sc
	case *EggCounterState:
		sc := *s
		cpy.State = &sc
	case *FanState:
		sc := *s
		cpy.State = &sc
	case *HeaterState:
		sc := *s
		cpy.State = &sc
	case *SprayerState:
		sc := *s
		cpy.State = &sc
	case *FeederState:
		sc := *s
		sc.Schedule = cloneSchedule(s.Schedule)
		cpy.State = &sc
	case *DrinkerState:
		sc := *s
		sc.Schedule = cloneSchedule(s.Schedule)
		cpy.State = &sc
	}
	return &cpy
}

func cloneSchedule(entries []ScheduleEntry) []ScheduleEntry {
	if entries == nil {
		return nil
	}
	cpy := make([]ScheduleEntry, len(entries))
	copy(cpy, entries)
	return cpy
}

// Identity is the (id, type, coop) tuple reported by SCAN.
type Identity struct {
	ID     string
	Type   Type
	CoopID int
}

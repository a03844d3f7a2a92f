package device

// DefaultPassword is the credential seeded on registration when the
// caller supplies none, and on every bootstrap default device.
const DefaultPassword = "123456"

// Measurement unit labels, fixed across the fleet.
const (
	unitCelsius    = "C"
	unitPercent    = "%"
	unitKilogram   = "kg"
	unitLitre      = "L"
	unitLitresHour = "L/h"
)

// defaultState seeds the type-appropriate initial state for a freshly
// registered device. Values match the demo farm the system boots with.
func defaultState(t Type) State {
	switch t {
	case TypeSensor:
		return &SensorState{
			Temperature:     32.5,
			Humidity:        58.2,
			UnitTemperature: unitCelsius,
			UnitHumidity:    unitPercent,
		}
	case TypeEggCounter:
		return &EggCounterState{EggCount: 35}
	case TypeFan:
		return &FanState{
			Power:    PowerOn,
			TempOnC:  32.0,
			TempOffC: 28.0,
			UnitTemp: unitCelsius,
		}
	case TypeHeater:
		return &HeaterState{
			Power:    PowerOff,
			TempOnC:  20.0,
			TempOffC: 24.0,
			Mode:     "AUTO",
			UnitTemp: unitCelsius,
		}
	case TypeSprayer:
		return &SprayerState{
			Power:             PowerOff,
			HumidityOnPct:     45.0,
			HumidityTargetPct: 60.0,
			FlowLph:           0.5,
			UnitHumidity:      unitPercent,
			UnitFlow:          unitLitresHour,
		}
	case TypeFeeder:
		return &FeederState{
			Power:     PowerOn,
			FeedKg:    0.3,
			WaterL:    0.5,
			UnitFood:  unitKilogram,
			UnitWater: unitLitre,
			Schedule: []ScheduleEntry{
				{Time: "06:00", FeedKg: 0.3, WaterL: 0.5},
				{Time: "16:00", FeedKg: 0.4, WaterL: 0.6},
			},
		}
	case TypeDrinker:
		return &DrinkerState{
			Power:     PowerOn,
			WaterL:    0.4,
			UnitWater: unitLitre,
			Schedule: []ScheduleEntry{
				{Time: "06:00", WaterL: 0.3},
				{Time: "16:00", WaterL: 0.5},
			},
		}
	case TypeUnknown:
		return nil
	default:
		return nil
	}
}

// NewDefault builds a device of the given type with default state.
// An empty password falls back to DefaultPassword.
func NewDefault(id string, t Type, password string, coopID int) *Device {
	if password == "" {
		password = DefaultPassword
	}
	return &Device{
		ID:       id,
		Type:     t,
		CoopID:   coopID,
		Password: password,
		State:    defaultState(t),
	}
}

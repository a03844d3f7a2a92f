package device

import "fmt"

// Domain ranges for numeric arguments. Out-of-range values are rejected
// outright; nothing is clamped.
const (
	TempMinC       = 0.0
	TempMaxC       = 60.0
	HumidityMinPct = 0.0
	HumidityMaxPct = 100.0
	SprayMaxLph    = 10.0
	FeedMaxKg      = 10.0
	WaterMaxL      = 20.0

	// MaxScheduleEntries caps feeder/drinker schedules.
	MaxScheduleEntries = 10
)

func inRange(v, min, max float64) bool { return v >= min && v <= max }

func checkTemp(v float64) error {
	if !inRange(v, TempMinC, TempMaxC) {
		return fmt.Errorf("%w: temperature %.2f outside [%.0f, %.0f]", ErrOutOfRange, v, TempMinC, TempMaxC)
	}
	return nil
}

func checkHumidity(v float64) error {
	if !inRange(v, HumidityMinPct, HumidityMaxPct) {
		return fmt.Errorf("%w: humidity %.2f outside [%.0f, %.0f]", ErrOutOfRange, v, HumidityMinPct, HumidityMaxPct)
	}
	return nil
}

func checkFlow(v float64) error {
	if !inRange(v, 0, SprayMaxLph) {
		return fmt.Errorf("%w: flow %.2f outside [0, %.0f]", ErrOutOfRange, v, SprayMaxLph)
	}
	return nil
}

func checkFeed(v float64) error {
	if !inRange(v, 0, FeedMaxKg) {
		return fmt.Errorf("%w: feed %.2f outside [0, %.0f]", ErrOutOfRange, v, FeedMaxKg)
	}
	return nil
}

func checkWater(v float64) error {
	if !inRange(v, 0, WaterMaxL) {
		return fmt.Errorf("%w: water %.2f outside [0, %.0f]", ErrOutOfRange, v, WaterMaxL)
	}
	return nil
}

// validateSchedule checks the entry cap, time-of-day format, and
// quantity ranges of a schedule. Overflow is rejected, never
// truncated; silent truncation would lose configuration without
// telling the client.
func validateSchedule(entries []ScheduleEntry) error {
	if len(entries) > MaxScheduleEntries {
		return fmt.Errorf("%w: %d entries, cap %d", ErrScheduleTooLong, len(entries), MaxScheduleEntries)
	}
	for i, e := range entries {
		if !validTimeOfDay(e.Time) {
			return fmt.Errorf("%w: entry %d time %q", ErrInvalidSchedule, i, e.Time)
		}
		if err := checkFeed(e.FeedKg); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if err := checkWater(e.WaterL); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// validTimeOfDay accepts "HH:MM" with HH in 00..23 and MM in 00..59.
func validTimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	return hh < 24 && mm < 60
}

package device

import "fmt"

// DefaultCapacity is the registry slot count used unless configured.
const DefaultCapacity = 32

// Registry owns the device fleet and enforces every per-type invariant.
//
// It is deliberately not safe for concurrent use: the connection engine
// executes all commands on a single goroutine (one writer system-wide),
// so the registry carries no locks. Construct it once and confine it to
// that goroutine.
type Registry struct {
	devices  []*Device // insertion order, preserved by SCAN
	byID     map[string]*Device
	capacity int
}

// NewRegistry creates an empty registry with the given slot capacity.
// A non-positive capacity falls back to DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		byID:     make(map[string]*Device, capacity),
		capacity: capacity,
	}
}

// Count returns the number of registered devices.
func (r *Registry) Count() int { return len(r.devices) }

// Capacity returns the fixed slot capacity.
func (r *Registry) Capacity() int { return r.capacity }

// Scan lists the identity of every device in registration order.
func (r *Registry) Scan() []Identity {
	out := make([]Identity, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, Identity{ID: d.ID, Type: d.Type, CoopID: d.CoopID})
	}
	return out
}

// Find returns a deep copy of the device, or ErrNotFound.
// Mutations go through the typed operations below, never through the copy.
func (r *Registry) Find(id string) (*Device, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return d.DeepCopy(), nil
}

// Export returns deep copies of every device, in registration order.
// Used to hand the full fleet to the persistence collaborator.
func (r *Registry) Export() []*Device {
	out := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d.DeepCopy())
	}
	return out
}

// Add registers a new device of the given type with default state.
// It rejects empty ids, duplicate ids, unknown types, non-positive coop
// ids, and a full registry.
func (r *Registry) Add(id string, t Type, password string, coopID int) error {
	if id == "" {
		return ErrInvalidID
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	if coopID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCoop, coopID)
	}
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("%w: %q", ErrExists, id)
	}
	if len(r.devices) >= r.capacity {
		return fmt.Errorf("%w: capacity %d", ErrRegistryFull, r.capacity)
	}
	d := NewDefault(id, t, password, coopID)
	r.devices = append(r.devices, d)
	r.byID[id] = d
	return nil
}

// Restore inserts a fully formed device, used when reloading persisted
// state at startup. Duplicates and overflow are rejected so the loader
// can skip them explicitly.
func (r *Registry) Restore(d *Device) error {
	if d == nil || d.ID == "" {
		return ErrInvalidID
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}
	if d.State == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if _, ok := r.byID[d.ID]; ok {
		return fmt.Errorf("%w: %q", ErrExists, d.ID)
	}
	if len(r.devices) >= r.capacity {
		return fmt.Errorf("%w: capacity %d", ErrRegistryFull, r.capacity)
	}
	cpy := d.DeepCopy()
	r.devices = append(r.devices, cpy)
	r.byID[cpy.ID] = cpy
	return nil
}

// Authenticate checks the supplied credential against the stored one.
func (r *Registry) Authenticate(id, password string) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if d.Password != password {
		return ErrWrongPassword
	}
	return nil
}

// ChangePassword replaces the credential if oldPassword matches.
func (r *Registry) ChangePassword(id, oldPassword, newPassword string) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if d.Password != oldPassword {
		return ErrWrongPassword
	}
	d.Password = newPassword
	return nil
}

// AssignCoop moves the device to another coop. The coop's existence is
// the caller's concern; the registry only rejects non-positive ids.
func (r *Registry) AssignCoop(id string, coopID int) error {
	if coopID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCoop, coopID)
	}
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	d.CoopID = coopID
	return nil
}

// Snapshot renders the canonical JSON state of one device.
func (r *Registry) Snapshot(id string) ([]byte, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return d.Snapshot()
}

// SetPower switches an actuator on or off. Sensors and egg counters
// reject the operation rather than ignoring it.
func (r *Registry) SetPower(id string, p Power) error {
	if !p.Valid() {
		return fmt.Errorf("%w: power %q", ErrOutOfRange, p)
	}
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	switch s := d.State.(type) {
	case *FanState:
		s.Power = p
	case *HeaterState:
		s.Power = p
	case *SprayerState:
		s.Power = p
	case *FeederState:
		s.Power = p
	case *DrinkerState:
		s.Power = p
	case *SensorState, *EggCounterState:
		return fmt.Errorf("%w: %q", ErrNotActuator, d.Type)
	default:
		return fmt.Errorf("%w: %q", ErrNotActuator, d.Type)
	}
	return nil
}

// FeedNow dispenses an immediate ration. Feeder only; quantities are
// range-checked before any state changes.
func (r *Registry) FeedNow(id string, feedKg, waterL float64) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s, ok := d.State.(*FeederState)
	if !ok {
		return fmt.Errorf("%w: FEED_NOW on %q", ErrWrongType, d.Type)
	}
	if err := checkFeed(feedKg); err != nil {
		return err
	}
	if err := checkWater(waterL); err != nil {
		return err
	}
	s.FeedKg = feedKg
	s.WaterL = waterL
	return nil
}

// DrinkNow dispenses an immediate water ration. Drinker only.
func (r *Registry) DrinkNow(id string, waterL float64) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s, ok := d.State.(*DrinkerState)
	if !ok {
		return fmt.Errorf("%w: DRINK_NOW on %q", ErrWrongType, d.Type)
	}
	if err := checkWater(waterL); err != nil {
		return err
	}
	s.WaterL = waterL
	return nil
}

// SprayNow starts misting at the given flow rate. Sprayer only; the
// sprayer is switched on as a side effect, matching the hardware.
func (r *Registry) SprayNow(id string, flowLph float64) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s, ok := d.State.(*SprayerState)
	if !ok {
		return fmt.Errorf("%w: SPRAY_NOW on %q", ErrWrongType, d.Type)
	}
	if err := checkFlow(flowLph); err != nil {
		return err
	}
	s.FlowLph = flowLph
	s.Power = PowerOn
	return nil
}

// ConfigureFan sets the fan thresholds. The switch-off temperature must
// not exceed the switch-on temperature.
func (r *Registry) ConfigureFan(id string, tempOnC, tempOffC float64) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s, ok := d.State.(*FanState)
	if !ok {
		return fmt.Errorf("%w: fan config on %q", ErrWrongType, d.Type)
	}
	if err := checkTemp(tempOnC); err != nil {
		return err
	}
	if err := checkTemp(tempOffC); err != nil {
		return err
	}
	if tempOffC > tempOnC {
		return fmt.Errorf("%w: fan off %.2f > on %.2f", ErrThresholdOrder, tempOffC, tempOnC)
	}
	s.TempOnC = tempOnC
	s.TempOffC = tempOffC
	return nil
}

// ConfigureHeater sets the heater thresholds and optionally its mode.
// The switch-on temperature must not exceed the switch-off temperature.
// An empty mode keeps the current one.
func (r *Registry) ConfigureHeater(id string, tempOnC, tempOffC float64, mode string) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s, ok := d.State.(*HeaterState)
	if !ok {
		return fmt.Errorf("%w: heater config on %q", ErrWrongType, d.Type)
	}
	if err := checkTemp(tempOnC); err != nil {
		return err
	}
	if err := checkTemp(tempOffC); err != nil {
		return err
	}
	if tempOnC > tempOffC {
		return fmt.Errorf("%w: heater on %.2f > off %.2f", ErrThresholdOrder, tempOnC, tempOffC)
	}
	s.TempOnC = tempOnC
	s.TempOffC = tempOffC
	if mode != "" {
		s.Mode = mode
	}
	return nil
}

// ConfigureSprayer sets humidity thresholds and flow. The activation
// humidity must not exceed the target humidity.
func (r *Registry) ConfigureSprayer(id string, humidityOnPct, humidityTargetPct, flowLph float64) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s, ok := d.State.(*SprayerState)
	if !ok {
		return fmt.Errorf("%w: sprayer config on %q", ErrWrongType, d.Type)
	}
	if err := checkHumidity(humidityOnPct); err != nil {
		return err
	}
	if err := checkHumidity(humidityTargetPct); err != nil {
		return err
	}
	if err := checkFlow(flowLph); err != nil {
		return err
	}
	if humidityOnPct > humidityTargetPct {
		return fmt.Errorf("%w: sprayer activation %.2f > target %.2f", ErrThresholdOrder, humidityOnPct, humidityTargetPct)
	}
	s.HumidityOnPct = humidityOnPct
	s.HumidityTargetPct = humidityTargetPct
	s.FlowLph = flowLph
	return nil
}

// ConfigureFeeder sets ration quantities and, when scheduleSet is true,
// replaces the dispensing schedule. Nothing changes if any check fails.
func (r *Registry) ConfigureFeeder(id string, feedKg, waterL float64, schedule []ScheduleEntry, scheduleSet bool) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s, ok := d.State.(*FeederState)
	if !ok {
		return fmt.Errorf("%w: feeder config on %q", ErrWrongType, d.Type)
	}
	if err := checkFeed(feedKg); err != nil {
		return err
	}
	if err := checkWater(waterL); err != nil {
		return err
	}
	if scheduleSet {
		if err := validateSchedule(schedule); err != nil {
			return err
		}
	}
	s.FeedKg = feedKg
	s.WaterL = waterL
	if scheduleSet {
		s.Schedule = cloneSchedule(schedule)
	}
	return nil
}

// ConfigureDrinker sets the water ration and, when scheduleSet is true,
// replaces the dispensing schedule. Feed quantities on drinker entries
// are zeroed; a drinker dispenses water only.
func (r *Registry) ConfigureDrinker(id string, waterL float64, schedule []ScheduleEntry, scheduleSet bool) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s, ok := d.State.(*DrinkerState)
	if !ok {
		return fmt.Errorf("%w: drinker config on %q", ErrWrongType, d.Type)
	}
	if err := checkWater(waterL); err != nil {
		return err
	}
	if scheduleSet {
		if err := validateSchedule(schedule); err != nil {
			return err
		}
	}
	s.WaterL = waterL
	if scheduleSet {
		entries := cloneSchedule(schedule)
		for i := range entries {
			entries[i].FeedKg = 0
		}
		s.Schedule = entries
	}
	return nil
}

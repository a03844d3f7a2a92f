package server

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/coopnet/coopnet-core/internal/coop"
	"github.com/coopnet/coopnet-core/internal/device"
	"github.com/coopnet/coopnet-core/internal/infrastructure/logging"
	"github.com/coopnet/coopnet-core/internal/monitor"
	"github.com/coopnet/coopnet-core/internal/protocol"
	"github.com/coopnet/coopnet-core/internal/session"
)

// LineWriter receives protocol response lines. Multi-row responses
// (SCAN, COOPLIST) are written row by row through this interface.
type LineWriter interface {
	WriteLine(line string) error
}

// Dispatcher executes parsed commands against the registries and maps
// every outcome to a protocol response. It must only ever be called
// from the single dispatch goroutine.
type Dispatcher struct {
	devices  *device.Registry
	coops    *coop.Registry
	sessions *session.Authority
	monitor  *monitor.Monitor
	persist  func() error
	log      *logging.Logger
}

// NewDispatcher wires a dispatcher. persist is called after every
// successful mutating command, before the response is returned; pass
// nil to disable persistence (tests).
func NewDispatcher(devices *device.Registry, coops *coop.Registry, sessions *session.Authority, mon *monitor.Monitor, persist func() error, log *logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Default()
	}
	return &Dispatcher{
		devices:  devices,
		coops:    coops,
		sessions: sessions,
		monitor:  mon,
		persist:  persist,
		log:      log,
	}
}

// Dispatch runs one command and returns the response line. For
// multi-row commands the rows are written to w and the returned string
// is empty. Every failure mode maps to a response; Dispatch never
// terminates the connection.
func (d *Dispatcher) Dispatch(ctx context.Context, w LineWriter, cmd protocol.Command, args string) string {
	switch cmd {
	case protocol.CommandScan:
		return d.handleScan(w)
	case protocol.CommandConnect:
		return d.handleConnect(ctx, args)
	case protocol.CommandInfo:
		return d.handleInfo(args)
	case protocol.CommandControl:
		return d.handleControl(ctx, args)
	case protocol.CommandSetConfig:
		return d.handleSetConfig(ctx, args)
	case protocol.CommandChangePassword:
		return d.handleChangePassword(ctx, args)
	case protocol.CommandBye:
		return d.handleBye(ctx, args)
	case protocol.CommandAddDevice:
		return d.handleAddDevice(ctx, args)
	case protocol.CommandAssignDevice:
		return d.handleAssignDevice(ctx, args)
	case protocol.CommandCoopList:
		return d.handleCoopList(w)
	case protocol.CommandCoopAdd:
		return d.handleCoopAdd(ctx, args)
	default:
		return protocol.BadRequest()
	}
}

func (d *Dispatcher) handleScan(w LineWriter) string {
	identities := d.devices.Scan()
	if len(identities) == 0 {
		return protocol.NoDeviceScan()
	}
	for _, id := range identities {
		if err := w.WriteLine(protocol.Device(id.ID, string(id.Type), id.CoopID)); err != nil {
			d.log.Warn("scan row write failed", "error", err)
			return ""
		}
	}
	return ""
}

func (d *Dispatcher) handleConnect(ctx context.Context, args string) string {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return protocol.BadRequest()
	}
	id, clientTag, password := fields[0], fields[1], fields[2]
	if err := d.devices.Authenticate(id, password); err != nil {
		return errorResponse(err)
	}
	token, err := d.sessions.Create(id)
	if err != nil {
		d.log.Warn("session create failed", "device_id", id, "error", err)
		return protocol.BadRequest()
	}
	d.record(ctx, monitor.Event{
		Action:     "connect",
		DeviceID:   id,
		DeviceType: d.deviceType(id),
		Details:    map[string]any{"client": clientTag},
	})
	return protocol.ConnectOK(token)
}

func (d *Dispatcher) handleInfo(args string) string {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return protocol.BadRequest()
	}
	id, token := fields[0], fields[1]
	if resp, ok := d.authorize(id, token); !ok {
		return resp
	}
	snapshot, err := d.devices.Snapshot(id)
	if err != nil {
		return errorResponse(err)
	}
	d.recordReading(id)
	return protocol.InfoOK(string(snapshot))
}

func (d *Dispatcher) handleControl(ctx context.Context, args string) string {
	fields, payload := cutFields(args, 3)
	if len(fields) < 3 {
		return protocol.BadRequest()
	}
	id, token, action := fields[0], fields[1], strings.ToUpper(fields[2])
	if resp, ok := d.authorize(id, token); !ok {
		return resp
	}

	var err error
	switch action {
	case "ON":
		err = d.devices.SetPower(id, device.PowerOn)
	case "OFF":
		err = d.devices.SetPower(id, device.PowerOff)
	case "FEED_NOW":
		var p feedNowPayload
		if p, err = decodeFeedNow(payload); err == nil {
			err = d.devices.FeedNow(id, *p.FeedKg, *p.WaterL)
		}
	case "DRINK_NOW":
		var p drinkNowPayload
		if p, err = decodeDrinkNow(payload); err == nil {
			err = d.devices.DrinkNow(id, *p.WaterL)
		}
	case "SPRAY_NOW":
		var p sprayNowPayload
		if p, err = decodeSprayNow(payload); err == nil {
			err = d.devices.SprayNow(id, *p.FlowLph)
		}
	default:
		return protocol.BadRequest()
	}
	if err != nil {
		return errorResponse(err)
	}

	d.save()
	d.record(ctx, monitor.Event{
		Action:     "control",
		DeviceID:   id,
		DeviceType: d.deviceType(id),
		Details:    map[string]any{"command": action},
		State:      d.snapshot(id),
	})
	return protocol.ControlOK()
}

func (d *Dispatcher) handleSetConfig(ctx context.Context, args string) string {
	fields, raw := cutFields(args, 2)
	if len(fields) < 2 || raw == "" {
		return protocol.BadRequest()
	}
	id, token := fields[0], fields[1]
	if resp, ok := d.authorize(id, token); !ok {
		return resp
	}
	dev, err := d.devices.Find(id)
	if err != nil {
		return errorResponse(err)
	}

	switch dev.Type {
	case device.TypeFan:
		var cfg fanConfig
		if cfg, err = decodeFanConfig(raw); err == nil {
			err = d.devices.ConfigureFan(id, *cfg.TempOnC, *cfg.TempOffC)
		}
	case device.TypeHeater:
		var cfg heaterConfig
		if cfg, err = decodeHeaterConfig(raw); err == nil {
			err = d.devices.ConfigureHeater(id, *cfg.TempOnC, *cfg.TempOffC, cfg.Mode)
		}
	case device.TypeSprayer:
		var cfg sprayerConfig
		if cfg, err = decodeSprayerConfig(raw); err == nil {
			err = d.devices.ConfigureSprayer(id, *cfg.HumidityOnPct, *cfg.HumidityTargetPct, *cfg.FlowLph)
		}
	case device.TypeFeeder:
		var cfg feederConfig
		if cfg, err = decodeFeederConfig(raw); err == nil {
			err = d.devices.ConfigureFeeder(id, *cfg.FeedKg, *cfg.WaterL, scheduleOf(cfg.Schedule), cfg.Schedule != nil)
		}
	case device.TypeDrinker:
		var cfg drinkerConfig
		if cfg, err = decodeDrinkerConfig(raw); err == nil {
			err = d.devices.ConfigureDrinker(id, *cfg.WaterL, scheduleOf(cfg.Schedule), cfg.Schedule != nil)
		}
	default:
		// Sensors and egg counters carry no configuration.
		return protocol.BadRequest()
	}
	if err != nil {
		return errorResponse(err)
	}

	snapshot, err := d.devices.Snapshot(id)
	if err != nil {
		return errorResponse(err)
	}
	d.save()
	d.record(ctx, monitor.Event{
		Action:     "setcfg",
		DeviceID:   id,
		DeviceType: string(dev.Type),
		State:      snapshot,
	})
	return protocol.SetConfigOK(string(snapshot))
}

func (d *Dispatcher) handleChangePassword(ctx context.Context, args string) string {
	fields := strings.Fields(args)
	if len(fields) != 4 {
		return protocol.BadRequest()
	}
	id, token, oldPassword, newPassword := fields[0], fields[1], fields[2], fields[3]
	if resp, ok := d.authorize(id, token); !ok {
		return resp
	}
	if err := d.devices.ChangePassword(id, oldPassword, newPassword); err != nil {
		return errorResponse(err)
	}
	d.save()
	// Credentials never reach the audit trail.
	d.record(ctx, monitor.Event{
		Action:     "chpass",
		DeviceID:   id,
		DeviceType: d.deviceType(id),
	})
	return protocol.PassOK()
}

func (d *Dispatcher) handleBye(ctx context.Context, args string) string {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return protocol.BadRequest()
	}
	id, token := fields[0], fields[1]
	if resp, ok := d.authorize(id, token); !ok {
		return resp
	}
	d.sessions.Revoke(token)
	d.record(ctx, monitor.Event{
		Action:     "bye",
		DeviceID:   id,
		DeviceType: d.deviceType(id),
	})
	return protocol.ByeOK()
}

func (d *Dispatcher) handleAddDevice(ctx context.Context, args string) string {
	fields := strings.Fields(args)
	if len(fields) != 4 {
		return protocol.BadRequest()
	}
	id, typeWord, password := fields[0], fields[1], fields[2]
	coopID, err := strconv.Atoi(fields[3])
	if err != nil {
		return protocol.BadRequest()
	}
	if _, ok := d.coops.Find(coopID); !ok {
		return protocol.BadRequest()
	}
	t := device.TypeFromString(typeWord)
	if err := d.devices.Add(id, t, password, coopID); err != nil {
		return errorResponse(err)
	}
	d.save()
	d.record(ctx, monitor.Event{
		Action:     "add",
		DeviceID:   id,
		DeviceType: string(t),
		Details:    map[string]any{"coop_id": coopID},
		State:      d.snapshot(id),
	})
	return protocol.AddOK()
}

func (d *Dispatcher) handleAssignDevice(ctx context.Context, args string) string {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return protocol.BadRequest()
	}
	id := fields[0]
	coopID, err := strconv.Atoi(fields[1])
	if err != nil {
		return protocol.BadRequest()
	}
	if _, ok := d.coops.Find(coopID); !ok {
		return protocol.BadRequest()
	}
	if err := d.devices.AssignCoop(id, coopID); err != nil {
		return errorResponse(err)
	}
	d.save()
	d.record(ctx, monitor.Event{
		Action:     "assign",
		DeviceID:   id,
		DeviceType: d.deviceType(id),
		Details:    map[string]any{"coop_id": coopID},
	})
	return protocol.AssignOK()
}

func (d *Dispatcher) handleCoopList(w LineWriter) string {
	coops := d.coops.List()
	if len(coops) == 0 {
		return protocol.NoCoop()
	}
	for _, c := range coops {
		if err := w.WriteLine(protocol.Coop(c.ID, c.Name)); err != nil {
			d.log.Warn("coop row write failed", "error", err)
			return ""
		}
	}
	return ""
}

func (d *Dispatcher) handleCoopAdd(ctx context.Context, args string) string {
	// The coop name is the whole remainder; names may contain spaces.
	name := strings.TrimSpace(args)
	if name == "" {
		return protocol.BadRequest()
	}
	id, err := d.coops.Add(name)
	if err != nil {
		return errorResponse(err)
	}
	d.save()
	d.record(ctx, monitor.Event{
		Action:  "coopadd",
		Details: map[string]any{"coop_id": id, "name": name},
	})
	return protocol.CoopAddOK(id)
}

// authorize validates the token and confirms it is bound to exactly
// the device named in the command. A token valid for another device is
// indistinguishable from no token at all.
func (d *Dispatcher) authorize(id, token string) (string, bool) {
	boundID, err := d.sessions.Validate(token)
	if err != nil {
		return protocol.NotConnected(), false
	}
	if boundID != id {
		return protocol.NotConnected(), false
	}
	return "", true
}

// save writes the farm snapshot before the success response goes out.
// A persistence failure is logged but does not fail the command; the
// in-memory state already changed.
func (d *Dispatcher) save() {
	if d.persist == nil {
		return
	}
	if err := d.persist(); err != nil {
		d.log.Error("state persistence failed", "error", err)
	}
}

func (d *Dispatcher) record(ctx context.Context, ev monitor.Event) {
	if d.monitor == nil {
		return
	}
	d.monitor.Record(ctx, ev)
}

// recordReading forwards sensor and egg-counter values read by INFO to
// the telemetry sink.
func (d *Dispatcher) recordReading(id string) {
	if d.monitor == nil {
		return
	}
	dev, err := d.devices.Find(id)
	if err != nil {
		return
	}
	switch s := dev.State.(type) {
	case *device.SensorState:
		d.monitor.RecordReading(id, s.Temperature, s.Humidity)
	case *device.EggCounterState:
		d.monitor.RecordEggCount(id, s.EggCount)
	}
}

func (d *Dispatcher) deviceType(id string) string {
	dev, err := d.devices.Find(id)
	if err != nil {
		return ""
	}
	return string(dev.Type)
}

func (d *Dispatcher) snapshot(id string) []byte {
	snapshot, err := d.devices.Snapshot(id)
	if err != nil {
		return nil
	}
	return snapshot
}

// cutFields splits off up to n space-separated fields, tolerating runs
// of spaces between them like strings.Fields does, and returns the
// remainder with surrounding whitespace trimmed but internal spacing
// intact. Payload remainders may be JSON and must never be re-split.
func cutFields(s string, n int) ([]string, string) {
	fields := make([]string, 0, n)
	for len(fields) < n {
		s = strings.TrimLeft(s, " ")
		if s == "" {
			return fields, ""
		}
		word, rest, _ := strings.Cut(s, " ")
		fields = append(fields, word)
		s = rest
	}
	return fields, strings.TrimSpace(s)
}

func scheduleOf(s *[]device.ScheduleEntry) []device.ScheduleEntry {
	if s == nil {
		return nil
	}
	return *s
}

// errorResponse maps a registry or session error to its wire response.
// Everything that is not a known sentinel is a bad request.
func errorResponse(err error) string {
	switch {
	case errors.Is(err, device.ErrNotFound):
		return protocol.NoDevice()
	case errors.Is(err, device.ErrWrongPassword):
		return protocol.WrongPassword()
	case errors.Is(err, session.ErrInvalidToken):
		return protocol.NotConnected()
	default:
		return protocol.BadRequest()
	}
}

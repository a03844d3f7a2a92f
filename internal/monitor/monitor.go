// Package monitor fans farm command events out to the observers
// configured at startup: the structured log, the audit trail, the MQTT
// broker, and the telemetry store.
//
// Observer failures are logged and never propagate to the caller. A
// broker outage must not fail a CONTROL command.
package monitor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coopnet/coopnet-core/internal/audit"
	"github.com/coopnet/coopnet-core/internal/infrastructure/logging"
	"github.com/coopnet/coopnet-core/internal/infrastructure/mqtt"
)

// auditTimeout bounds the audit insert so a locked database cannot
// stall command handling.
const auditTimeout = 2 * time.Second

// Event describes a command executed against a device.
type Event struct {
	// Action is the lower-case command name (connect, control, setcfg,
	// chpass, add, assign, coopadd).
	Action string

	// DeviceID is the target device, empty for farm-level actions.
	DeviceID string

	// DeviceType is the device's type string, empty when unknown.
	DeviceType string

	// Details carries action-specific fields for the audit trail.
	Details map[string]any

	// State is the device's JSON snapshot after the command, if the
	// command changed it. Published retained so late subscribers see
	// current state.
	State []byte
}

// Publisher is the subset of the MQTT client the monitor needs.
type Publisher interface {
	PublishEvent(topic string, payload []byte) error
	PublishRetained(topic string, payload []byte) error
}

// Telemetry is the subset of the InfluxDB client the monitor needs.
type Telemetry interface {
	WriteDeviceEvent(deviceID, deviceType, action string)
	WriteSensorReading(deviceID string, temperatureC, humidityPct float64)
	WriteEggCount(deviceID string, count int)
}

// Monitor distributes events to the configured observers.
// The publisher and telemetry sinks are optional; pass nil to disable.
type Monitor struct {
	log       *logging.Logger
	audits    audit.Repository
	publisher Publisher
	telemetry Telemetry
	topics    mqtt.Topics
}

// New creates a Monitor. audits, publisher and telemetry may each be
// nil, in which case that sink is skipped.
func New(log *logging.Logger, audits audit.Repository, publisher Publisher, telemetry Telemetry) *Monitor {
	return &Monitor{
		log:       log,
		audits:    audits,
		publisher: publisher,
		telemetry: telemetry,
	}
}

// Record distributes a command event to all configured sinks.
func (m *Monitor) Record(ctx context.Context, ev Event) {
	m.log.Info("command executed",
		"action", ev.Action,
		"device_id", ev.DeviceID,
	)

	if m.audits != nil {
		auditCtx, cancel := context.WithTimeout(ctx, auditTimeout)
		entry := &audit.AuditLog{
			Action:   ev.Action,
			DeviceID: ev.DeviceID,
			Source:   "tcp",
			Details:  ev.Details,
		}
		if err := m.audits.Create(auditCtx, entry); err != nil {
			m.log.Error("audit write failed", "action", ev.Action, "error", err)
		}
		cancel()
	}

	if m.publisher != nil && ev.DeviceID != "" {
		payload, err := json.Marshal(map[string]any{
			"action":    ev.Action,
			"device_id": ev.DeviceID,
			"type":      ev.DeviceType,
			"details":   ev.Details,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if err == nil {
			if err := m.publisher.PublishEvent(m.topics.DeviceEvent(ev.DeviceID), payload); err != nil {
				m.log.Warn("event publish failed", "device_id", ev.DeviceID, "error", err)
			}
		}

		if len(ev.State) > 0 {
			if err := m.publisher.PublishRetained(m.topics.DeviceState(ev.DeviceID), ev.State); err != nil {
				m.log.Warn("state publish failed", "device_id", ev.DeviceID, "error", err)
			}
		}
	}

	if m.telemetry != nil && ev.DeviceID != "" {
		m.telemetry.WriteDeviceEvent(ev.DeviceID, ev.DeviceType, ev.Action)
	}
}

// ReportRecentActivity logs a short summary of the latest audit
// entries. Called once at startup so operators can see where the
// trail left off before the restart.
func (m *Monitor) ReportRecentActivity(ctx context.Context) {
	if m.audits == nil {
		return
	}
	listCtx, cancel := context.WithTimeout(ctx, auditTimeout)
	defer cancel()

	recent, err := m.audits.List(listCtx, audit.Filter{Limit: 5})
	if err != nil {
		m.log.Warn("could not read recent audit activity", "error", err)
		return
	}
	if recent.Total == 0 {
		m.log.Info("audit trail empty")
		return
	}
	last := recent.Logs[0]
	m.log.Info("audit trail resumed",
		"entries", recent.Total,
		"last_action", last.Action,
		"last_device", last.DeviceID,
		"last_at", last.CreatedAt,
	)
}

// RecordReading forwards a sensor's climate reading to telemetry.
func (m *Monitor) RecordReading(deviceID string, temperatureC, humidityPct float64) {
	if m.telemetry == nil {
		return
	}
	m.telemetry.WriteSensorReading(deviceID, temperatureC, humidityPct)
}

// RecordEggCount forwards an egg counter's total to telemetry.
func (m *Monitor) RecordEggCount(deviceID string, count int) {
	if m.telemetry == nil {
		return
	}
	m.telemetry.WriteEggCount(deviceID, count)
}

package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/coopnet/coopnet-core/internal/audit"
	"github.com/coopnet/coopnet-core/internal/infrastructure/logging"
)

type mockAudits struct {
	entries   []audit.AuditLog
	listCalls []audit.Filter
	err       error
}

func (m *mockAudits) Create(_ context.Context, log *audit.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *log)
	return nil
}

func (m *mockAudits) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	m.listCalls = append(m.listCalls, filter)
	if m.err != nil {
		return nil, m.err
	}
	return &audit.ListResult{Logs: m.entries, Total: len(m.entries)}, nil
}

type published struct {
	topic    string
	payload  []byte
	retained bool
}

type mockPublisher struct {
	messages []published
	err      error
}

func (m *mockPublisher) PublishEvent(topic string, payload []byte) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, published{topic: topic, payload: payload})
	return nil
}

func (m *mockPublisher) PublishRetained(topic string, payload []byte) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, published{topic: topic, payload: payload, retained: true})
	return nil
}

type mockTelemetry struct {
	events   []string
	readings []string
	counts   []string
}

func (m *mockTelemetry) WriteDeviceEvent(deviceID, _, action string) {
	m.events = append(m.events, deviceID+":"+action)
}

func (m *mockTelemetry) WriteSensorReading(deviceID string, _, _ float64) {
	m.readings = append(m.readings, deviceID)
}

func (m *mockTelemetry) WriteEggCount(deviceID string, _ int) {
	m.counts = append(m.counts, deviceID)
}

func TestRecordFansOut(t *testing.T) {
	audits := &mockAudits{}
	pub := &mockPublisher{}
	tel := &mockTelemetry{}
	m := New(logging.Default(), audits, pub, tel)

	m.Record(context.Background(), Event{
		Action:     "control",
		DeviceID:   "FAN1",
		DeviceType: "fan",
		Details:    map[string]any{"state": "ON"},
		State:      []byte(`{"state":"ON"}`),
	})

	if len(audits.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audits.entries))
	}
	if audits.entries[0].Action != "control" || audits.entries[0].DeviceID != "FAN1" {
		t.Errorf("audit entry = %+v", audits.entries[0])
	}

	if len(pub.messages) != 2 {
		t.Fatalf("published messages = %d, want event + retained state", len(pub.messages))
	}
	if pub.messages[0].topic != "coopnet/event/FAN1" {
		t.Errorf("event topic = %q", pub.messages[0].topic)
	}
	var event map[string]any
	if err := json.Unmarshal(pub.messages[0].payload, &event); err != nil {
		t.Fatalf("event payload is not JSON: %v", err)
	}
	if event["action"] != "control" {
		t.Errorf("event action = %v", event["action"])
	}
	if pub.messages[1].topic != "coopnet/state/FAN1" || !pub.messages[1].retained {
		t.Errorf("state message = %+v, want retained coopnet/state/FAN1", pub.messages[1])
	}

	if len(tel.events) != 1 || tel.events[0] != "FAN1:control" {
		t.Errorf("telemetry events = %v", tel.events)
	}
}

func TestRecordWithNilSinks(t *testing.T) {
	m := New(logging.Default(), nil, nil, nil)

	// Must not panic with every sink disabled.
	m.Record(context.Background(), Event{Action: "control", DeviceID: "FAN1"})
	m.RecordReading("SENSOR1", 32.5, 58.2)
	m.RecordEggCount("EGG1", 35)
}

func TestRecordAuditFailureDoesNotPropagate(t *testing.T) {
	audits := &mockAudits{err: errors.New("database is locked")}
	pub := &mockPublisher{}
	m := New(logging.Default(), audits, pub, nil)

	m.Record(context.Background(), Event{Action: "control", DeviceID: "FAN1"})

	// Publish still happens after the audit failure.
	if len(pub.messages) != 1 {
		t.Errorf("published messages = %d, want 1", len(pub.messages))
	}
}

func TestRecordPublishFailureDoesNotPropagate(t *testing.T) {
	audits := &mockAudits{}
	pub := &mockPublisher{err: errors.New("mqtt: client not connected")}
	m := New(logging.Default(), audits, pub, nil)

	m.Record(context.Background(), Event{
		Action:   "control",
		DeviceID: "FAN1",
		State:    []byte(`{"state":"ON"}`),
	})

	if len(audits.entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(audits.entries))
	}
}

func TestRecordSkipsPublishWithoutDevice(t *testing.T) {
	pub := &mockPublisher{}
	tel := &mockTelemetry{}
	m := New(logging.Default(), nil, pub, tel)

	m.Record(context.Background(), Event{Action: "coopadd"})

	if len(pub.messages) != 0 {
		t.Errorf("published messages = %d, want 0 for farm-level action", len(pub.messages))
	}
	if len(tel.events) != 0 {
		t.Errorf("telemetry events = %v, want none", tel.events)
	}
}

func TestRecordReading(t *testing.T) {
	tel := &mockTelemetry{}
	m := New(logging.Default(), nil, nil, tel)

	m.RecordReading("SENSOR1", 32.5, 58.2)
	m.RecordEggCount("EGG1", 35)

	if len(tel.readings) != 1 || tel.readings[0] != "SENSOR1" {
		t.Errorf("readings = %v", tel.readings)
	}
	if len(tel.counts) != 1 || tel.counts[0] != "EGG1" {
		t.Errorf("counts = %v", tel.counts)
	}
}

func TestReportRecentActivity(t *testing.T) {
	audits := &mockAudits{entries: []audit.AuditLog{
		{Action: "control", DeviceID: "FAN1"},
	}}
	m := New(logging.Default(), audits, nil, nil)

	m.ReportRecentActivity(context.Background())

	if len(audits.listCalls) != 1 {
		t.Fatalf("List calls = %d, want 1", len(audits.listCalls))
	}
	if audits.listCalls[0].Limit != 5 {
		t.Errorf("List limit = %d, want 5", audits.listCalls[0].Limit)
	}
}

func TestReportRecentActivityFailuresAreSilent(t *testing.T) {
	m := New(logging.Default(), &mockAudits{err: errors.New("db locked")}, nil, nil)
	m.ReportRecentActivity(context.Background())

	// No audit store configured at all is fine too.
	m = New(logging.Default(), nil, nil, nil)
	m.ReportRecentActivity(context.Background())
}

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/coopnet/coopnet-core/internal/coop"
	"github.com/coopnet/coopnet-core/internal/device"
)

func newFarm(t *testing.T) (*coop.Registry, *device.Registry) {
	t.Helper()
	coops := coop.NewRegistry(coop.DefaultCapacity)
	if _, err := coops.Add("Coop 1"); err != nil {
		t.Fatalf("coop add: %v", err)
	}
	devices := device.NewRegistry(device.DefaultCapacity)
	for _, s := range []struct {
		id  string
		typ device.Type
	}{
		{"SENSOR1", device.TypeSensor},
		{"FAN1", device.TypeFan},
		{"FEEDER1", device.TypeFeeder},
	} {
		if err := devices.Add(s.id, s.typ, "", 1); err != nil {
			t.Fatalf("device add %s: %v", s.id, err)
		}
	}
	return coops, devices
}

func TestSaveLoadRoundTrip(t *testing.T) {
	coops, devices := newFarm(t)
	if err := devices.ChangePassword("FAN1", device.DefaultPassword, "secret"); err != nil {
		t.Fatalf("password change: %v", err)
	}
	if err := devices.ConfigureFan("FAN1", 40, 35); err != nil {
		t.Fatalf("configure: %v", err)
	}

	store := NewStore(filepath.Join(t.TempDir(), "farm", "state.json"))
	state, err := SnapshotFarm(coops, devices)
	if err != nil {
		t.Fatalf("SnapshotFarm: %v", err)
	}
	if err := store.Save(state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	coops2 := coop.NewRegistry(coop.DefaultCapacity)
	devices2 := device.NewRegistry(device.DefaultCapacity)
	if skipped := RestoreFarm(loaded, coops2, devices2); skipped != 0 {
		t.Fatalf("RestoreFarm skipped %d records", skipped)
	}

	if !reflect.DeepEqual(coops.List(), coops2.List()) {
		t.Errorf("coops did not round-trip: %+v vs %+v", coops.List(), coops2.List())
	}

	d1, _ := devices.Find("FAN1")
	d2, err := devices2.Find("FAN1")
	if err != nil {
		t.Fatalf("restored registry missing FAN1: %v", err)
	}
	if !reflect.DeepEqual(d1, d2) {
		t.Errorf("FAN1 did not round-trip:\n got %+v\nwant %+v", d2, d1)
	}
	if d2.Password != "secret" {
		t.Errorf("credential did not round-trip: %q", d2.Password)
	}

	if devices2.Count() != devices.Count() {
		t.Errorf("device count %d, want %d", devices2.Count(), devices.Count())
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := store.Load(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	store := NewStore(path)

	coops, devices := newFarm(t)
	state, _ := SnapshotFarm(coops, devices)
	if err := store.Save(state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// truncate to simulate corruption
	if err := os.WriteFile(path, []byte("{half"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(); err == nil {
		t.Error("Load of corrupt file should fail")
	}
}

func TestRestoreSkipsBadRecords(t *testing.T) {
	state := &FarmState{
		Version: 1,
		Coops:   []coop.Coop{{ID: 1, Name: "Coop 1"}},
		Devices: []DeviceRecord{
			{ID: "OK1", Type: device.TypeFan, CoopID: 1, Password: "x", State: []byte(`{"state":"ON","temp_on_c":32,"temp_off_c":28,"unit_temp":"C"}`)},
			{ID: "BAD1", Type: device.Type("laser"), CoopID: 1, Password: "x", State: []byte(`{}`)},
			{ID: "OK1", Type: device.TypeFan, CoopID: 1, Password: "x", State: []byte(`{"state":"ON","temp_on_c":32,"temp_off_c":28,"unit_temp":"C"}`)},
		},
	}

	coops := coop.NewRegistry(coop.DefaultCapacity)
	devices := device.NewRegistry(device.DefaultCapacity)
	if skipped := RestoreFarm(state, coops, devices); skipped != 2 {
		t.Errorf("RestoreFarm skipped %d records, want 2", skipped)
	}
	if devices.Count() != 1 {
		t.Errorf("device count = %d, want 1", devices.Count())
	}
}

// CoopNet Core - Livestock House Control Server
//
// This is the main entry point for the CoopNet server. It exposes the
// line-oriented TCP control protocol over a simulated device fleet,
// persists farm state to a JSON snapshot, records an audit trail in
// SQLite, and optionally mirrors device events to MQTT and InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/coopnet/coopnet-core/migrations"

	"github.com/coopnet/coopnet-core/internal/audit"
	"github.com/coopnet/coopnet-core/internal/coop"
	"github.com/coopnet/coopnet-core/internal/device"
	"github.com/coopnet/coopnet-core/internal/infrastructure/config"
	"github.com/coopnet/coopnet-core/internal/infrastructure/database"
	"github.com/coopnet/coopnet-core/internal/infrastructure/influxdb"
	"github.com/coopnet/coopnet-core/internal/infrastructure/logging"
	"github.com/coopnet/coopnet-core/internal/infrastructure/mqtt"
	"github.com/coopnet/coopnet-core/internal/monitor"
	"github.com/coopnet/coopnet-core/internal/server"
	"github.com/coopnet/coopnet-core/internal/session"
	"github.com/coopnet/coopnet-core/internal/storage"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so failures
// flow back as errors instead of os.Exit calls scattered through setup.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting CoopNet Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	// Open the audit database and bring the schema current.
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	audits := audit.NewSQLiteRepository(db.DB)

	// MQTT mirror (optional).
	var publisher monitor.Publisher
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		publisher = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB telemetry (optional).
	var telemetry monitor.Telemetry
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		telemetry = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	mon := monitor.New(log.With("component", "monitor"), audits, publisher, telemetry)
	mon.ReportRecentActivity(ctx)

	// Build the farm: load the persisted snapshot, or seed the demo
	// fleet on first start.
	coops := coop.NewRegistry(cfg.Farm.MaxCoops)
	devices := device.NewRegistry(cfg.Farm.MaxDevices)
	store := storage.NewStore(cfg.Farm.StatePath)

	state, err := store.Load()
	switch {
	case err == nil:
		if skipped := storage.RestoreFarm(state, coops, devices); skipped > 0 {
			log.Warn("skipped unreadable records in farm state", "skipped", skipped)
		}
		log.Info("farm state loaded", "path", store.Path(), "devices", devices.Count(), "coops", coops.Count())
	case errors.Is(err, storage.ErrNotFound):
		if seedErr := seedDemoFarm(coops, devices); seedErr != nil {
			return fmt.Errorf("seeding demo farm: %w", seedErr)
		}
		log.Info("no farm state found, seeded demo farm", "devices", devices.Count())
	default:
		return fmt.Errorf("loading farm state: %w", err)
	}

	persist := func() error {
		snapshot, snapErr := storage.SnapshotFarm(coops, devices)
		if snapErr != nil {
			return snapErr
		}
		return store.Save(snapshot)
	}
	// Write the initial snapshot so a freshly seeded farm survives a
	// restart even if no command ever mutates it.
	if err := persist(); err != nil {
		return fmt.Errorf("writing initial farm state: %w", err)
	}

	sessions := session.NewAuthority(cfg.Farm.SessionSlots)
	dispatcher := server.NewDispatcher(devices, coops, sessions, mon, persist, log.With("component", "dispatcher"))
	engine := server.NewEngine(cfg.Server, dispatcher, log.With("component", "engine"))

	log.Info("serving", "addr", cfg.ListenAddr())
	if err := engine.ListenAndServe(ctx, cfg.ListenAddr()); err != nil {
		return fmt.Errorf("serving: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// seedDemoFarm registers the bootstrap fleet: one coop and one device
// of every type, all with the default credential.
func seedDemoFarm(coops *coop.Registry, devices *device.Registry) error {
	if _, err := coops.Add("Coop 1"); err != nil {
		return err
	}
	seed := []struct {
		id string
		t  device.Type
	}{
		{"SENSOR1", device.TypeSensor},
		{"EGG1", device.TypeEggCounter},
		{"FAN1", device.TypeFan},
		{"HEATER1", device.TypeHeater},
		{"SPRAYER1", device.TypeSprayer},
		{"FEEDER1", device.TypeFeeder},
		{"DRINKER1", device.TypeDrinker},
	}
	for _, s := range seed {
		if err := devices.Add(s.id, s.t, device.DefaultPassword, 1); err != nil {
			return fmt.Errorf("seeding %s: %w", s.id, err)
		}
	}
	return nil
}

// getConfigPath resolves the config file location: the first CLI
// argument wins, then COOPNET_CONFIG, then the default path.
func getConfigPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	if path := os.Getenv("COOPNET_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

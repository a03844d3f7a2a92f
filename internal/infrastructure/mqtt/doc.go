// Package mqtt provides MQTT client connectivity for CoopNet Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// CoopNet publishes device events and retained device state so external
// dashboards and automations can observe the farm without speaking the
// line protocol. The server never subscribes; MQTT is an outbound
// mirror, not a command path.
//
//	CoopNet Core → MQTT Broker → Dashboards / Automations
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceEvent("FEEDER1")
//	client.Publish(topic, []byte(`{"action":"feed_now"}`), 1, false)
package mqtt

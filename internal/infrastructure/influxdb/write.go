package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceEvent records a command executed against a device.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteDeviceEvent("FEEDER1", "feeder", "feed_now")
func (c *Client) WriteDeviceEvent(deviceID, deviceType, action string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_events",
		map[string]string{
			"device_id": deviceID,
			"type":      deviceType,
		},
		map[string]interface{}{
			"action": action,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSensorReading records an environmental reading from a sensor.
//
// Example:
//
//	client.WriteSensorReading("SENSOR1", 32.5, 58.2)
func (c *Client) WriteSensorReading(deviceID string, temperatureC, humidityPct float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"climate",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"temperature_c": temperatureC,
			"humidity_pct":  humidityPct,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEggCount records the cumulative egg count from a counter device.
func (c *Client) WriteEggCount(deviceID string, count int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"production",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"egg_count": count,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Example:
//
//	client.WritePoint("server_stats",
//	    map[string]string{"host": "farm-01"},
//	    map[string]interface{}{"sessions": 4, "devices": 12})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

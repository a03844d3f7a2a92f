package mqtt

import "fmt"

// Topic prefixes for the CoopNet MQTT hierarchy.
//
// All topics use the flat scheme: coopnet/{category}/{device_id}
const (
	// TopicPrefix is the base for all CoopNet topics.
	TopicPrefix = "coopnet"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "coopnet/system"
)

// Topics provides builders for CoopNet MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("FAN1")
//	// Returns: "coopnet/state/FAN1"
type Topics struct{}

// DeviceState returns the retained topic carrying the latest device state.
//
// Example: coopnet/state/FAN1
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, deviceID)
}

// DeviceEvent returns the topic for command events on a device.
//
// Example: coopnet/event/FEEDER1
func (Topics) DeviceEvent(deviceID string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, deviceID)
}

// SystemStatus returns the topic for server online/offline status.
//
// Example: coopnet/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

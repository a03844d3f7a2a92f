package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coopnet/coopnet-core/internal/device"
)

// errBadPayload is returned for structured payloads that do not parse
// or that omit a required key. The dispatcher maps it to a bad request.
var errBadPayload = errors.New("server: bad payload")

// Configuration payloads use pointer fields so a missing key is
// distinguishable from an explicit zero. Required keys must be present;
// the registry range-checks the values.

type fanConfig struct {
	TempOnC  *float64 `json:"temp_on_c"`
	TempOffC *float64 `json:"temp_off_c"`
}

type heaterConfig struct {
	TempOnC  *float64 `json:"temp_on_c"`
	TempOffC *float64 `json:"temp_off_c"`
	Mode     string   `json:"mode"`
}

type sprayerConfig struct {
	HumidityOnPct     *float64 `json:"humidity_on_pct"`
	HumidityTargetPct *float64 `json:"humidity_target_pct"`
	FlowLph           *float64 `json:"flow_lph"`
}

type feederConfig struct {
	FeedKg   *float64                `json:"feed_kg"`
	WaterL   *float64                `json:"water_l"`
	Schedule *[]device.ScheduleEntry `json:"schedule"`
}

type drinkerConfig struct {
	WaterL   *float64                `json:"water_l"`
	Schedule *[]device.ScheduleEntry `json:"schedule"`
}

// Immediate-action payloads for CONTROL.

type feedNowPayload struct {
	FeedKg *float64 `json:"feed_kg"`
	WaterL *float64 `json:"water_l"`
}

type drinkNowPayload struct {
	WaterL *float64 `json:"water_l"`
}

type sprayNowPayload struct {
	FlowLph *float64 `json:"flow_lph"`
}

func decodeFanConfig(raw string) (fanConfig, error) {
	var cfg fanConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if cfg.TempOnC == nil || cfg.TempOffC == nil {
		return cfg, fmt.Errorf("%w: fan config requires temp_on_c and temp_off_c", errBadPayload)
	}
	return cfg, nil
}

func decodeHeaterConfig(raw string) (heaterConfig, error) {
	var cfg heaterConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if cfg.TempOnC == nil || cfg.TempOffC == nil {
		return cfg, fmt.Errorf("%w: heater config requires temp_on_c and temp_off_c", errBadPayload)
	}
	return cfg, nil
}

func decodeSprayerConfig(raw string) (sprayerConfig, error) {
	var cfg sprayerConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if cfg.HumidityOnPct == nil || cfg.HumidityTargetPct == nil || cfg.FlowLph == nil {
		return cfg, fmt.Errorf("%w: sprayer config requires humidity_on_pct, humidity_target_pct and flow_lph", errBadPayload)
	}
	return cfg, nil
}

func decodeFeederConfig(raw string) (feederConfig, error) {
	var cfg feederConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if cfg.FeedKg == nil || cfg.WaterL == nil {
		return cfg, fmt.Errorf("%w: feeder config requires feed_kg and water_l", errBadPayload)
	}
	return cfg, nil
}

func decodeDrinkerConfig(raw string) (drinkerConfig, error) {
	var cfg drinkerConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if cfg.WaterL == nil {
		return cfg, fmt.Errorf("%w: drinker config requires water_l", errBadPayload)
	}
	return cfg, nil
}

func decodeFeedNow(raw string) (feedNowPayload, error) {
	var p feedNowPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if p.FeedKg == nil || p.WaterL == nil {
		return p, fmt.Errorf("%w: FEED_NOW requires feed_kg and water_l", errBadPayload)
	}
	return p, nil
}

func decodeDrinkNow(raw string) (drinkNowPayload, error) {
	var p drinkNowPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if p.WaterL == nil {
		return p, fmt.Errorf("%w: DRINK_NOW requires water_l", errBadPayload)
	}
	return p, nil
}

func decodeSprayNow(raw string) (sprayNowPayload, error) {
	var p sprayNowPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if p.FlowLph == nil {
		return p, fmt.Errorf("%w: SPRAY_NOW requires flow_lph", errBadPayload)
	}
	return p, nil
}

package findmy

import (
	"encoding/json"
	"time"
)

// DeviceState is the JSON snapshot published for a device.
type DeviceState struct {
	ID            string         `json:"id"`
	Name          string         `json:"name,omitempty"`
	Model         string         `json:"model,omitempty"`
	DeviceStatus  string         `json:"device_status,omitempty"`
	BatteryLevel  *float64       `json:"battery_level,omitempty"`
	BatteryStatus string         `json:"battery_status,omitempty"`
	LowPowerMode  bool           `json:"low_power_mode"`
	Location      *LocationState `json:"location,omitempty"`
}

type LocationState struct {
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	HorizontalAccuracy float64    `json:"horizontal_accuracy"`
	PositionType       string     `json:"position_type,omitempty"`
	Timestamp          *time.Time `json:"timestamp,omitempty"`
	IsOld              bool       `json:"is_old"`
}

// State builds the snapshot from cached content.
func (d *Device) State() DeviceState {
	state := DeviceState{
		ID:            d.id,
		Name:          d.Name(),
		Model:         d.DisplayName(),
		DeviceStatus:  d.DeviceStatus(),
		BatteryStatus: d.BatteryStatus(),
		LowPowerMode:  d.LowPowerMode(),
	}
	if level, ok := d.BatteryLevel(); ok {
		state.BatteryLevel = &level
	}
	if loc, err := d.CachedLocation(); err == nil {
		state.Location = &LocationState{
			Latitude:           loc.Latitude,
			Longitude:          loc.Longitude,
			HorizontalAccuracy: loc.HorizontalAccuracy,
			PositionType:       loc.PositionType,
			Timestamp:          loc.Timestamp,
			IsOld:              loc.IsOld,
		}
	}
	return state
}

func (d *Device) StatePayload() ([]byte, error) {
	return json.Marshal(d.State())
}

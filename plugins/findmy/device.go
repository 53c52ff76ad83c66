package findmy

import (
	"context"
	"maps"
)

// statusFields are always present in the Status result.
var statusFields = []string{"batteryLevel", "deviceDisplayName", "deviceStatus", "name"}

// Device is a view over the last content fetched for one device id.
type Device struct {
	id      string
	content map[string]any
}

func newDevice(id string, content map[string]any) *Device {
	return &Device{id: id, content: content}
}

func (d *Device) ID() string {
	return d.id
}

// Update replaces the cached content wholesale.
func (d *Device) Update(content map[string]any) {
	d.content = content
}

// Content returns a shallow copy of the cached attributes.
func (d *Device) Content() map[string]any {
	return maps.Clone(d.content)
}

func (d *Device) Field(name string) (any, bool) {
	value, ok := d.content[name]
	return value, ok
}

func (d *Device) BatteryLevel() (float64, bool) {
	value, ok := d.content["batteryLevel"].(float64)
	return value, ok
}

func (d *Device) BatteryStatus() string {
	return parseString(d.content["batteryStatus"])
}

func (d *Device) DisplayName() string {
	return parseString(d.content["deviceDisplayName"])
}

func (d *Device) Name() string {
	return parseString(d.content["name"])
}

func (d *Device) DeviceStatus() string {
	return parseString(d.content["deviceStatus"])
}

func (d *Device) LowPowerMode() bool {
	return parseBool(d.content["lowPowerMode"])
}

// CachedLocation decodes the location held in the current content without
// contacting the API.
func (d *Device) CachedLocation() (Location, error) {
	raw, ok := d.content["location"].(map[string]any)
	if !ok {
		return Location{}, ErrNoLocation
	}
	return locationFromContent(raw), nil
}

// Location refreshes every device through m and returns this device's
// location.
func (d *Device) Location(ctx context.Context, m *Manager) (Location, error) {
	if err := m.RefreshAll(ctx); err != nil {
		return Location{}, err
	}
	return d.CachedLocation()
}

// Status refreshes every device through m and returns the battery level,
// display name, device status and name, plus any additional fields. Missing
// fields map to nil.
func (d *Device) Status(ctx context.Context, m *Manager, additional ...string) (map[string]any, error) {
	if err := m.RefreshAll(ctx); err != nil {
		return nil, err
	}
	return d.Fields(additional...), nil
}

// Fields resolves the status field set from cached content.
func (d *Device) Fields(additional ...string) map[string]any {
	properties := make(map[string]any, len(statusFields)+len(additional))
	for _, field := range statusFields {
		properties[field] = d.content[field]
	}
	for _, field := range additional {
		properties[field] = d.content[field]
	}
	return properties
}

func (d *Device) PlaySound(ctx context.Context, m *Manager, subject string) error {
	return m.PlaySound(ctx, d.id, subject)
}

func (d *Device) DisplayMessage(ctx context.Context, m *Manager, subject, message string, withSound bool) error {
	return m.DisplayMessage(ctx, d.id, subject, message, withSound)
}

func (d *Device) LostMode(ctx context.Context, m *Manager, phoneNumber, text, newPasscode string) error {
	return m.SetLostMode(ctx, d.id, phoneNumber, text, newPasscode)
}

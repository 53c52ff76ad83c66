package findmy

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

const (
	selectAllDevices = "All"

	DefaultSoundSubject = "Find My iPhone Alert"
	DefaultMessage      = "This is a note"
	DefaultLostModeText = "This iPhone has been lost. Please call me."
)

// Manager owns a connection and the device records it has fetched.
// It is not safe for concurrent use.
type Manager struct {
	conn       *Connection
	withFamily bool

	devices      map[string]*Device
	lastResponse map[string]any
}

func NewManager(conn *Connection, withFamily bool) *Manager {
	return &Manager{
		conn:       conn,
		withFamily: withFamily,
		devices:    make(map[string]*Device),
	}
}

func (m *Manager) WithFamily() bool {
	return m.withFamily
}

// Device returns the cached record for id.
func (m *Manager) Device(id string) (*Device, bool) {
	device, ok := m.devices[id]
	return device, ok
}

// Devices returns all cached records ordered by id.
func (m *Manager) Devices() []*Device {
	ids := make([]string, 0, len(m.devices))
	for id := range m.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	devices := make([]*Device, 0, len(ids))
	for _, id := range ids {
		devices = append(devices, m.devices[id])
	}
	return devices
}

// LastResponse is the most recent decoded payload, or nil before the first
// successful refresh.
func (m *Manager) LastResponse() map[string]any {
	return m.lastResponse
}

// RefreshAll fetches every device on the account and merges the results.
func (m *Manager) RefreshAll(ctx context.Context) error {
	entries, err := m.requestData(ctx, selectAllDevices)
	if err != nil {
		return err
	}
	m.merge(entries)
	return nil
}

// RefreshDevice fetches a single device and merges the result.
func (m *Manager) RefreshDevice(ctx context.Context, id string) error {
	entries, err := m.requestData(ctx, id)
	if err != nil {
		return err
	}
	m.merge(entries)
	return nil
}

// InitList fetches every device and installs a fresh record for each id,
// replacing any record already held for it.
func (m *Manager) InitList(ctx context.Context) error {
	entries, err := m.requestData(ctx, selectAllDevices)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		id, ok := entryID(entry)
		if !ok {
			continue
		}
		m.devices[id] = newDevice(id, entry)
	}
	return nil
}

func (m *Manager) PlaySound(ctx context.Context, id, subject string) error {
	if subject == "" {
		subject = DefaultSoundSubject
	}
	payload := map[string]any{
		"device":  id,
		"subject": subject,
		"clientContext": map[string]any{
			"fmly": true,
		},
	}
	return m.post(ctx, CommandPlaySound, payload)
}

// DisplayMessage shows text on the device, optionally with a sound. The
// request goes to the play-sound command, which is where the upstream client
// has always sent it.
func (m *Manager) DisplayMessage(ctx context.Context, id, subject, message string, withSound bool) error {
	if subject == "" {
		subject = DefaultSoundSubject
	}
	if message == "" {
		message = DefaultMessage
	}
	payload := map[string]any{
		"device":   id,
		"subject":  subject,
		"sound":    withSound,
		"userText": true,
		"text":     message,
	}
	return m.post(ctx, CommandPlaySound, payload)
}

func (m *Manager) SetLostMode(ctx context.Context, id, phoneNumber, text, newPasscode string) error {
	if text == "" {
		text = DefaultLostModeText
	}
	payload := map[string]any{
		"text":            text,
		"userText":        true,
		"ownerNbr":        phoneNumber,
		"lostModeEnabled": true,
		"trackingEnabled": true,
		"device":          id,
		"passcode":        newPasscode,
	}
	return m.post(ctx, CommandLostMode, payload)
}

func (m *Manager) requestData(ctx context.Context, selected string) ([]map[string]any, error) {
	payload := map[string]any{
		"clientContext": map[string]any{
			"fmly":              m.withFamily,
			"selectedDevice":    selected,
			"shouldLocate":      true,
			"appName":           "FindMyiPhone",
			"appVersion":        "5.0",
			"deviceListVersion": 1,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp, err := m.conn.Call(ctx, m.conn.Endpoint(CommandInitClient), body)
	if err != nil {
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal(resp, &decoded); err != nil {
		return nil, &ParseError{Err: err}
	}
	m.lastResponse = decoded

	content, ok := decoded["content"].([]any)
	if !ok {
		return nil, ErrNoDevices
	}

	entries := make([]map[string]any, 0, len(content))
	for _, raw := range content {
		if entry, ok := raw.(map[string]any); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (m *Manager) merge(entries []map[string]any) {
	for _, entry := range entries {
		id, ok := entryID(entry)
		if !ok {
			continue
		}
		if device, exists := m.devices[id]; exists {
			device.Update(entry)
			continue
		}
		m.devices[id] = newDevice(id, entry)
	}
}

func (m *Manager) post(ctx context.Context, command string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	_, err = m.conn.Call(ctx, m.conn.Endpoint(command), body)
	return err
}

func entryID(entry map[string]any) (string, bool) {
	id, ok := entry["id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

package findmy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	path string
	body map[string]any
}

type fakeAPI struct {
	t        *testing.T
	status   int
	response string
	requests []recordedRequest
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Manager) {
	t.Helper()
	api := &fakeAPI{t: t, status: http.StatusOK}
	server := httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(server.Close)
	return api, NewManager(newTestConnection(t, server.URL), true)
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		f.t.Fatalf("request body is not JSON: %s", raw)
	}
	f.requests = append(f.requests, recordedRequest{
		path: strings.TrimPrefix(r.URL.Path, "/fmipservice/device/a@example.com"),
		body: body,
	})
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.response)
}

func (f *fakeAPI) last() recordedRequest {
	f.t.Helper()
	if len(f.requests) == 0 {
		f.t.Fatalf("no requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

const twoDevices = `{"statusCode":"200","content":[
	{"id":"dev1","name":"Phone","deviceDisplayName":"iPhone 15","batteryLevel":0.5},
	{"id":"dev2","name":"Tablet","batteryLevel":0.9},
	{"name":"no id"}
]}`

func TestRefreshAllBuildsClientContext(t *testing.T) {
	api, manager := newFakeAPI(t)
	api.response = twoDevices

	if err := manager.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}

	req := api.last()
	if req.path != CommandInitClient {
		t.Fatalf("unexpected path: %s", req.path)
	}
	clientContext, ok := req.body["clientContext"].(map[string]any)
	if !ok {
		t.Fatalf("missing clientContext: %v", req.body)
	}
	want := map[string]any{
		"fmly":              true,
		"selectedDevice":    "All",
		"shouldLocate":      true,
		"appName":           "FindMyiPhone",
		"appVersion":        "5.0",
		"deviceListVersion": float64(1),
	}
	for key, value := range want {
		if clientContext[key] != value {
			t.Fatalf("clientContext[%s] = %v, want %v", key, clientContext[key], value)
		}
	}

	devices := manager.Devices()
	if len(devices) != 2 || devices[0].ID() != "dev1" || devices[1].ID() != "dev2" {
		t.Fatalf("unexpected devices: %v", devices)
	}
	if manager.LastResponse()["statusCode"] != "200" {
		t.Fatalf("last response not recorded: %v", manager.LastResponse())
	}
}

func TestRefreshKeepsIdentity(t *testing.T) {
	api, manager := newFakeAPI(t)
	api.response = twoDevices
	ctx := context.Background()

	if err := manager.RefreshAll(ctx); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	first, _ := manager.Device("dev1")

	api.response = `{"content":[{"id":"dev1","name":"Renamed"}]}`
	if err := manager.RefreshDevice(ctx, "dev1"); err != nil {
		t.Fatalf("RefreshDevice: %v", err)
	}
	if got := api.last().body["clientContext"].(map[string]any)["selectedDevice"]; got != "dev1" {
		t.Fatalf("unexpected selectedDevice: %v", got)
	}

	second, ok := manager.Device("dev1")
	if !ok || second != first {
		t.Fatalf("expected record identity to be preserved")
	}
	if second.Name() != "Renamed" {
		t.Fatalf("content not replaced: %v", second.Content())
	}
	if _, ok := second.Field("batteryLevel"); ok {
		t.Fatalf("content should be replaced wholesale, found stale batteryLevel")
	}
	if _, ok := manager.Device("dev2"); !ok {
		t.Fatalf("dev2 should remain cached")
	}

	if err := manager.RefreshAll(ctx); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	third, _ := manager.Device("dev1")
	if third != first {
		t.Fatalf("RefreshAll must keep record identity")
	}
}

func TestInitListCreatesFreshRecords(t *testing.T) {
	api, manager := newFakeAPI(t)
	api.response = twoDevices
	ctx := context.Background()

	if err := manager.RefreshAll(ctx); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	before, _ := manager.Device("dev1")

	if err := manager.InitList(ctx); err != nil {
		t.Fatalf("InitList: %v", err)
	}
	if api.last().body["clientContext"].(map[string]any)["selectedDevice"] != "All" {
		t.Fatalf("InitList should select all devices")
	}
	after, ok := manager.Device("dev1")
	if !ok {
		t.Fatalf("dev1 missing after InitList")
	}
	if after == before {
		t.Fatalf("InitList should install a fresh record")
	}
	if after.Name() != "Phone" {
		t.Fatalf("unexpected content: %v", after.Content())
	}
}

func TestRefreshErrorsLeaveDevicesUnchanged(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "invalid json",
			status:   http.StatusOK,
			response: `not json`,
			check: func(t *testing.T, err error) {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected ParseError, got %v", err)
				}
			},
		},
		{
			name:     "json array",
			status:   http.StatusOK,
			response: `[1,2]`,
			check: func(t *testing.T, err error) {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected ParseError, got %v", err)
				}
			},
		},
		{
			name:     "missing content",
			status:   http.StatusOK,
			response: `{"statusCode":"200"}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNoDevices) {
					t.Fatalf("expected ErrNoDevices, got %v", err)
				}
			},
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			response: twoDevices,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrAuthentication) {
					t.Fatalf("expected ErrAuthentication, got %v", err)
				}
			},
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			response: twoDevices,
			check: func(t *testing.T, err error) {
				var apiErr APIError
				if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
					t.Fatalf("expected 500 APIError, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, manager := newFakeAPI(t)
			api.response = `{"content":[{"id":"dev1","name":"Phone"}]}`
			ctx := context.Background()
			if err := manager.RefreshAll(ctx); err != nil {
				t.Fatalf("seed RefreshAll: %v", err)
			}
			device, _ := manager.Device("dev1")

			api.status = tt.status
			api.response = tt.response
			for _, refresh := range []func() error{
				func() error { return manager.RefreshAll(ctx) },
				func() error { return manager.RefreshDevice(ctx, "dev1") },
				func() error { return manager.InitList(ctx) },
			} {
				tt.check(t, refresh())
			}

			devices := manager.Devices()
			if len(devices) != 1 || devices[0] != device || device.Name() != "Phone" {
				t.Fatalf("device map changed: %v", devices)
			}
		})
	}
}

func TestActionPayloads(t *testing.T) {
	api, manager := newFakeAPI(t)
	api.response = `{}`
	ctx := context.Background()

	if err := manager.PlaySound(ctx, "dev1", ""); err != nil {
		t.Fatalf("PlaySound: %v", err)
	}
	req := api.last()
	if req.path != CommandPlaySound {
		t.Fatalf("unexpected play sound path: %s", req.path)
	}
	if req.body["device"] != "dev1" || req.body["subject"] != DefaultSoundSubject {
		t.Fatalf("unexpected play sound body: %v", req.body)
	}
	if req.body["clientContext"].(map[string]any)["fmly"] != true {
		t.Fatalf("play sound must set fmly: %v", req.body)
	}

	if err := manager.DisplayMessage(ctx, "dev1", "Hi", "Call home", true); err != nil {
		t.Fatalf("DisplayMessage: %v", err)
	}
	req = api.last()
	if req.path != CommandPlaySound {
		t.Fatalf("display message is sent to the play sound command, got %s", req.path)
	}
	wantMessage := map[string]any{"device": "dev1", "subject": "Hi", "sound": true, "userText": true, "text": "Call home"}
	assertBody(t, req.body, wantMessage)

	if err := manager.SetLostMode(ctx, "dev1", "+15550100", "", "1234"); err != nil {
		t.Fatalf("SetLostMode: %v", err)
	}
	req = api.last()
	if req.path != CommandLostMode {
		t.Fatalf("unexpected lost mode path: %s", req.path)
	}
	wantLost := map[string]any{
		"text":            DefaultLostModeText,
		"userText":        true,
		"ownerNbr":        "+15550100",
		"lostModeEnabled": true,
		"trackingEnabled": true,
		"device":          "dev1",
		"passcode":        "1234",
	}
	assertBody(t, req.body, wantLost)
}

func TestActionErrorsPropagate(t *testing.T) {
	api, manager := newFakeAPI(t)
	api.status = http.StatusUnauthorized
	api.response = `{}`

	if err := manager.PlaySound(context.Background(), "dev1", "x"); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func assertBody(t *testing.T, got, want map[string]any) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("unexpected body fields: got %v, want %v", got, want)
	}
	for key, value := range want {
		if got[key] != value {
			t.Fatalf("body[%s] = %v, want %v", key, got[key], value)
		}
	}
}

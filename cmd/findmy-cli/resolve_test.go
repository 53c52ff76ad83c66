package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joshp123/findmy/plugins/findmy"
)

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Josh’s iPhone":   "joshs_iphone",
		"  Living - Room": "living_room",
		"iPad":            "ipad",
	}
	for input, want := range tests {
		if got := normalizeName(input); got != want {
			t.Fatalf("normalizeName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{value: nil, want: "-"},
		{value: "", want: "-"},
		{value: "Phone", want: "Phone"},
		{value: 0.5, want: "0.5"},
		{value: true, want: "true"},
		{value: map[string]any{"a": 1.0}, want: `{"a":1}`},
	}
	for _, tt := range tests {
		if got := formatValue(tt.value); got != tt.want {
			t.Fatalf("formatValue(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestConfigSearchPaths(t *testing.T) {
	if got := configSearchPaths("/tmp/explicit.yaml"); len(got) != 1 || got[0] != "/tmp/explicit.yaml" {
		t.Fatalf("explicit path should win: %v", got)
	}
	t.Setenv("FINDMY_CONFIG", "/tmp/env.yaml")
	if got := configSearchPaths(""); len(got) != 1 || got[0] != "/tmp/env.yaml" {
		t.Fatalf("env path should win: %v", got)
	}
}

func TestResolveDevice(t *testing.T) {
	devices := devicesFromResponse(t, `{"content":[
		{"id":"abc","name":"Josh’s iPhone"},
		{"id":"def","name":"iPad"},
		{"id":"ghi","name":"iPad"}
	]}`)

	device, err := resolveDevice(devices, "abc")
	if err != nil || device.ID() != "abc" {
		t.Fatalf("resolve by id: %v %v", device, err)
	}
	device, err = resolveDevice(devices, "joshs iphone")
	if err != nil || device.ID() != "abc" {
		t.Fatalf("resolve by name: %v %v", device, err)
	}
	if _, err := resolveDevice(devices, "ipad"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("expected ambiguous error, got %v", err)
	}
	if _, err := resolveDevice(devices, "watch"); err == nil || !strings.Contains(err.Error(), "Available") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func devicesFromResponse(t *testing.T, body string) []*findmy.Device {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer server.Close()

	conn, err := findmy.NewConnection(findmy.Config{AccountID: "a@example.com", Password: "pw", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new connection: %v", err)
	}
	manager := findmy.NewManager(conn, false)
	if err := manager.InitList(context.Background()); err != nil {
		t.Fatalf("InitList: %v", err)
	}
	return manager.Devices()
}

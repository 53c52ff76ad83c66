package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joshp123/findmy/plugins/findmy"
)

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer(" ", "_", "-", "_", "’", "", "'", "")
	name = replacer.Replace(name)
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	return name
}

// resolveDevice matches input against device ids first, then names.
func resolveDevice(devices []*findmy.Device, input string) (*findmy.Device, error) {
	for _, device := range devices {
		if device.ID() == input {
			return device, nil
		}
	}

	needle := normalizeName(input)
	var matches []*findmy.Device
	for _, device := range devices {
		if normalizeName(device.Name()) == needle {
			matches = append(matches, device)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("device name %q is ambiguous; use the device id", input)
	}

	available := make([]string, 0, len(devices))
	for _, device := range devices {
		available = append(available, device.Name())
	}
	sort.Strings(available)
	return nil, fmt.Errorf("device %q not found. Available: %s", input, strings.Join(available, ", "))
}

package findmy

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCollector(t *testing.T) {
	api, manager := newFakeAPI(t)
	api.response = `{"content":[
		{"id":"dev1","name":"Phone","deviceDisplayName":"iPhone 15","deviceStatus":"200","batteryLevel":0.5,"lowPowerMode":true,
		 "location":{"latitude":52.37,"longitude":4.89,"horizontalAccuracy":65,"timeStamp":1722763208000}}
	]}`

	collector := NewMetricsCollector(manager, nil)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	expected := `
# HELP findmy_battery_level_ratio Battery level per device (0-1)
# TYPE findmy_battery_level_ratio gauge
findmy_battery_level_ratio{device_id="dev1",device_name="Phone",model="iPhone 15"} 0.5
# HELP findmy_location_latitude_degrees Last reported latitude per device
# TYPE findmy_location_latitude_degrees gauge
findmy_location_latitude_degrees{device_id="dev1",device_name="Phone",model="iPhone 15"} 52.37
# HELP findmy_location_timestamp_seconds Timestamp of the last location per device (epoch seconds)
# TYPE findmy_location_timestamp_seconds gauge
findmy_location_timestamp_seconds{device_id="dev1",device_name="Phone",model="iPhone 15"} 1.722763208e+09
# HELP findmy_device_status_code Vendor device status code per device
# TYPE findmy_device_status_code gauge
findmy_device_status_code{device_id="dev1",device_name="Phone",model="iPhone 15"} 200
# HELP findmy_low_power_mode_bool Low power mode per device (1=on, 0=off)
# TYPE findmy_low_power_mode_bool gauge
findmy_low_power_mode_bool{device_id="dev1",device_name="Phone",model="iPhone 15"} 1
# HELP findmy_devices Number of devices returned by the last refresh
# TYPE findmy_devices gauge
findmy_devices 1
# HELP findmy_scrape_success Last scrape success (1=ok, 0=error)
# TYPE findmy_scrape_success gauge
findmy_scrape_success 1
`
	err := testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"findmy_battery_level_ratio",
		"findmy_location_latitude_degrees",
		"findmy_location_timestamp_seconds",
		"findmy_device_status_code",
		"findmy_low_power_mode_bool",
		"findmy_devices",
		"findmy_scrape_success",
	)
	if err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestMetricsCollectorFailure(t *testing.T) {
	api, manager := newFakeAPI(t)
	api.status = http.StatusUnauthorized

	registry := prometheus.NewRegistry()
	registry.MustRegister(NewMetricsCollector(manager, nil))

	expected := `
# HELP findmy_scrape_success Last scrape success (1=ok, 0=error)
# TYPE findmy_scrape_success gauge
findmy_scrape_success 0
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "findmy_scrape_success"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

package findmy

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const scrapeTimeout = 10 * time.Second

// MetricsCollector refreshes all devices on every scrape and exports battery
// and location gauges.
type MetricsCollector struct {
	// mu serializes manager access across concurrent scrapes.
	mu      sync.Mutex
	manager *Manager
	logger  *slog.Logger

	battery      *prometheus.GaugeVec
	lowPower     *prometheus.GaugeVec
	status       *prometheus.GaugeVec
	latitude     *prometheus.GaugeVec
	longitude    *prometheus.GaugeVec
	accuracy     *prometheus.GaugeVec
	locationTime *prometheus.GaugeVec
	devices      prometheus.Gauge
	lastSuccess  prometheus.Gauge
	success      prometheus.Gauge
}

func NewMetricsCollector(manager *Manager, logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}
	labels := []string{"device_id", "device_name", "model"}
	return &MetricsCollector{
		manager: manager,
		logger:  logger,
		battery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "findmy_battery_level_ratio",
			Help: "Battery level per device (0-1)",
		}, labels),
		lowPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "findmy_low_power_mode_bool",
			Help: "Low power mode per device (1=on, 0=off)",
		}, labels),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "findmy_device_status_code",
			Help: "Vendor device status code per device",
		}, labels),
		latitude: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "findmy_location_latitude_degrees",
			Help: "Last reported latitude per device",
		}, labels),
		longitude: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "findmy_location_longitude_degrees",
			Help: "Last reported longitude per device",
		}, labels),
		accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "findmy_location_horizontal_accuracy_meters",
			Help: "Horizontal accuracy of the last location per device",
		}, labels),
		locationTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "findmy_location_timestamp_seconds",
			Help: "Timestamp of the last location per device (epoch seconds)",
		}, labels),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "findmy_devices",
			Help: "Number of devices returned by the last refresh",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "findmy_last_success_timestamp_seconds",
			Help: "Last successful Find My scrape timestamp (epoch seconds)",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "findmy_scrape_success",
			Help: "Last scrape success (1=ok, 0=error)",
		}),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.battery.Describe(ch)
	c.lowPower.Describe(ch)
	c.status.Describe(ch)
	c.latitude.Describe(ch)
	c.longitude.Describe(ch)
	c.accuracy.Describe(ch)
	c.locationTime.Describe(ch)
	c.devices.Describe(ch)
	c.lastSuccess.Describe(ch)
	c.success.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	if err := c.manager.RefreshAll(ctx); err != nil {
		c.logger.Warn("findmy refresh failed", "error", err)
		c.success.Set(0)
		c.collectAll(ch)
		return
	}

	c.battery.Reset()
	c.lowPower.Reset()
	c.status.Reset()
	c.latitude.Reset()
	c.longitude.Reset()
	c.accuracy.Reset()
	c.locationTime.Reset()

	devices := c.manager.Devices()
	for _, device := range devices {
		labels := prometheus.Labels{
			"device_id":   device.ID(),
			"device_name": device.Name(),
			"model":       device.DisplayName(),
		}
		if level, ok := device.BatteryLevel(); ok {
			c.battery.With(labels).Set(level)
		}
		c.lowPower.With(labels).Set(boolToFloat(device.LowPowerMode()))
		if code, err := strconv.ParseFloat(device.DeviceStatus(), 64); err == nil {
			c.status.With(labels).Set(code)
		}
		loc, err := device.CachedLocation()
		if err != nil {
			continue
		}
		c.latitude.With(labels).Set(loc.Latitude)
		c.longitude.With(labels).Set(loc.Longitude)
		c.accuracy.With(labels).Set(loc.HorizontalAccuracy)
		if loc.Timestamp != nil {
			c.locationTime.With(labels).Set(float64(loc.Timestamp.Unix()))
		}
	}

	c.devices.Set(float64(len(devices)))
	c.success.Set(1)
	c.lastSuccess.Set(float64(time.Now().Unix()))
	c.collectAll(ch)
}

func (c *MetricsCollector) collectAll(ch chan<- prometheus.Metric) {
	c.battery.Collect(ch)
	c.lowPower.Collect(ch)
	c.status.Collect(ch)
	c.latitude.Collect(ch)
	c.longitude.Collect(ch)
	c.accuracy.Collect(ch)
	c.locationTime.Collect(ch)
	c.devices.Collect(ch)
	c.lastSuccess.Collect(ch)
	c.success.Collect(ch)
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}

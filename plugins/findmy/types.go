package findmy

import (
	"strconv"
	"time"
)

// Location is the last position reported for a device.
type Location struct {
	Latitude           float64
	Longitude          float64
	HorizontalAccuracy float64
	VerticalAccuracy   float64
	Altitude           float64
	PositionType       string
	Timestamp          *time.Time
	IsOld              bool
	IsInaccurate       bool
	Finished           bool
}

func locationFromContent(raw map[string]any) Location {
	loc := Location{
		Latitude:           parseFloat(raw["latitude"]),
		Longitude:          parseFloat(raw["longitude"]),
		HorizontalAccuracy: parseFloat(raw["horizontalAccuracy"]),
		VerticalAccuracy:   parseFloat(raw["verticalAccuracy"]),
		Altitude:           parseFloat(raw["altitude"]),
		PositionType:       parseString(raw["positionType"]),
		IsOld:              parseBool(raw["isOld"]),
		IsInaccurate:       parseBool(raw["isInaccurate"]),
		Finished:           parseBool(raw["locationFinished"]),
	}
	if ms := parseFloat(raw["timeStamp"]); ms > 0 {
		ts := time.UnixMilli(int64(ms))
		loc.Timestamp = &ts
	}
	return loc
}

func parseFloat(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case float32:
		return float64(typed)
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	case string:
		if typed == "" {
			return 0
		}
		if parsed, err := strconv.ParseFloat(typed, 64); err == nil {
			return parsed
		}
	}
	return 0
}

func parseString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	}
	return ""
}

func parseBool(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		parsed, _ := strconv.ParseBool(typed)
		return parsed
	}
	return false
}

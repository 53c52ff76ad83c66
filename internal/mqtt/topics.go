package mqtt

import "strings"

var topicReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

// DeviceStateTopic is the retained state topic for one device:
// {prefix}/device/{id}/state. Wildcards and separators in id are replaced.
func DeviceStateTopic(prefix, deviceID string) string {
	return strings.TrimRight(prefix, "/") + "/device/" + topicReplacer.Replace(deviceID) + "/state"
}

// StatusTopic carries the publisher's online/offline status.
func StatusTopic(prefix string) string {
	return strings.TrimRight(prefix, "/") + "/status"
}

func validTopic(topic string) bool {
	return topic != "" && !strings.ContainsAny(topic, "+#")
}

package domain

// Channel is a delivery medium for notifications.
type Channel string

const (
	ChannelInApp   Channel = "in_app"
	ChannelEmail   Channel = "email"
	ChannelPush    Channel = "push"
	ChannelWebhook Channel = "webhook"
	ChannelSMS     Channel = "sms"
)

// AllChannels lists every supported channel.
var AllChannels = []Channel{ChannelInApp, ChannelEmail, ChannelPush, ChannelWebhook, ChannelSMS}

// ValidChannel reports whether c names a supported channel.
func ValidChannel(c Channel) bool {
	for _, k := range AllChannels {
		if k == c {
			return true
		}
	}
	return false
}

// Priority orders notifications by urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a known priority level.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

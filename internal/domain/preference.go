package domain

import "time"

// ChannelSetting toggles one delivery channel for a user.
type ChannelSetting struct {
	Enabled bool `json:"enabled" dynamodbav:"enabled"`
}

// TypeSetting overrides delivery behavior for one notification type.
type TypeSetting struct {
	Enabled  bool      `json:"enabled" dynamodbav:"enabled"`
	Channels []Channel `json:"channels,omitempty" dynamodbav:"channels,omitempty"`
	Priority Priority  `json:"priority,omitempty" dynamodbav:"priority,omitempty"`
}

// Preference holds a user's channel enablement and per-type overrides.
// There is at most one Preference per user.
type Preference struct {
	UserID            string                     `json:"user_id" dynamodbav:"user_id"`
	Channels          map[Channel]ChannelSetting `json:"channels" dynamodbav:"channels"`
	NotificationTypes map[string]TypeSetting     `json:"notification_types,omitempty" dynamodbav:"notification_types,omitempty"`
	UnsubscribedTypes []string                   `json:"unsubscribed_types,omitempty" dynamodbav:"unsubscribed_types,omitempty"`
	UpdatedAt         time.Time                  `json:"updated_at" dynamodbav:"updated_at"`
}

// DefaultPreference is what a user gets before storing anything explicitly:
// in-app delivery only, no per-type overrides.
func DefaultPreference(userID string) *Preference {
	channels := make(map[Channel]ChannelSetting, len(AllChannels))
	for _, c := range AllChannels {
		channels[c] = ChannelSetting{Enabled: c == ChannelInApp}
	}
	return &Preference{UserID: userID, Channels: channels}
}

// Unsubscribed reports whether the user explicitly opted out of the given type.
// An entry here overrides any per-type enablement.
func (p *Preference) Unsubscribed(notificationType string) bool {
	for _, t := range p.UnsubscribedTypes {
		if t == notificationType {
			return true
		}
	}
	return false
}

// ResolveChannels computes the channel set a notification of the given type
// should go out on. An empty result means the notification is suppressed.
func (p *Preference) ResolveChannels(notificationType string) []Channel {
	if p.Unsubscribed(notificationType) {
		return nil
	}
	ts, hasOverride := p.NotificationTypes[notificationType]
	if hasOverride && !ts.Enabled {
		return nil
	}

	var out []Channel
	for _, c := range AllChannels {
		if !p.Channels[c].Enabled {
			continue
		}
		if hasOverride && len(ts.Channels) > 0 && !containsChannel(ts.Channels, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ResolvePriority returns the per-type priority override, or normal.
func (p *Preference) ResolvePriority(notificationType string) Priority {
	if ts, ok := p.NotificationTypes[notificationType]; ok && ValidPriority(ts.Priority) {
		return ts.Priority
	}
	return PriorityNormal
}

func containsChannel(list []Channel, c Channel) bool {
	for _, k := range list {
		if k == c {
			return true
		}
	}
	return false
}

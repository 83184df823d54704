package fanout

import "strings"

// Templater renders a notification title and body for an event. The real
// template catalog is an external collaborator; DefaultTemplater gives a
// usable fallback.
type Templater interface {
	Render(eventType string, data map[string]interface{}) (title, body string)
}

// DefaultTemplater humanizes the event type for the title and pulls an
// optional message out of the event payload for the body.
type DefaultTemplater struct{}

func (DefaultTemplater) Render(eventType string, data map[string]interface{}) (string, string) {
	title := humanize(eventType)
	body := ""
	if msg, ok := data["message"].(string); ok {
		body = msg
	}
	return title, body
}

// humanize turns "SESSION_STARTED" into "Session started".
func humanize(eventType string) string {
	words := strings.Split(strings.ToLower(eventType), "_")
	if len(words) == 0 || words[0] == "" {
		return eventType
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}

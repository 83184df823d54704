package domain

// EventSource identifies the application that published an event.
type EventSource struct {
	AppID   string `json:"app_id" dynamodbav:"app_id"`
	AppName string `json:"app_name,omitempty" dynamodbav:"app_name,omitempty"`
	Version string `json:"version,omitempty" dynamodbav:"version,omitempty"`
}

// EventMetadata carries request-scoped context captured at publish time.
type EventMetadata struct {
	Environment string `json:"environment,omitempty" dynamodbav:"environment,omitempty"`
	IPAddress   string `json:"ip_address,omitempty" dynamodbav:"ip_address,omitempty"`
	UserAgent   string `json:"user_agent,omitempty" dynamodbav:"user_agent,omitempty"`
}

// Event is an immutable fact published by an app on behalf of a user.
// Once persisted it is never mutated or deleted.
type Event struct {
	EventID        string                 `json:"id" dynamodbav:"event_id"`
	Type           string                 `json:"type" dynamodbav:"event_type"`
	Source         EventSource            `json:"source" dynamodbav:"source"`
	UserID         string                 `json:"user_id" dynamodbav:"user_id"`
	OrganizationID string                 `json:"organization_id,omitempty" dynamodbav:"organization_id,omitempty"`
	Timestamp      int64                  `json:"timestamp" dynamodbav:"timestamp"` // ms epoch, set at persistence time
	Data           map[string]interface{} `json:"data,omitempty" dynamodbav:"data,omitempty"`
	CorrelationID  string                 `json:"correlation_id" dynamodbav:"correlation_id"`
	Metadata       EventMetadata          `json:"metadata" dynamodbav:"metadata"`
}

package domain

import (
	"sort"
	"time"
)

// TimeRange bounds event timestamps, inclusive on both ends. Values are ms epoch.
type TimeRange struct {
	Start int64 `json:"start" dynamodbav:"start"`
	End   int64 `json:"end" dynamodbav:"end"`
}

// SubscriptionFilters narrows which events a subscription matches.
// Absent clauses match everything.
type SubscriptionFilters struct {
	UserID    string     `json:"user_id,omitempty" dynamodbav:"user_id,omitempty"`
	Sources   []string   `json:"sources,omitempty" dynamodbav:"sources,omitempty"`
	TimeRange *TimeRange `json:"time_range,omitempty" dynamodbav:"time_range,omitempty"`
}

// Subscription registers a (user, app) pair's standing interest in event types.
type Subscription struct {
	SubscriptionID string              `json:"id" dynamodbav:"subscription_id"`
	UserID         string              `json:"user_id" dynamodbav:"user_id"`
	AppID          string              `json:"app_id" dynamodbav:"app_id"`
	EventTypes     []string            `json:"event_types" dynamodbav:"event_types"` // sorted, unique
	Filters        SubscriptionFilters `json:"filters" dynamodbav:"filters"`
	Active         bool                `json:"active" dynamodbav:"active"`
	// ActiveFlag mirrors Active as a number for the active_flag GSI
	// (DynamoDB cannot use booleans as index keys).
	ActiveFlag int       `json:"-" dynamodbav:"active_flag"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// NormalizeEventTypes returns the sorted de-duplicated form of the given types.
func NormalizeEventTypes(types []string) []string {
	seen := make(map[string]bool, len(types))
	var out []string
	for _, t := range types {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether two filter sets are identical after normalization.
// Source order is not significant.
func (f SubscriptionFilters) Equal(o SubscriptionFilters) bool {
	if f.UserID != o.UserID {
		return false
	}
	a, b := NormalizeEventTypes(f.Sources), NormalizeEventTypes(o.Sources)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	if (f.TimeRange == nil) != (o.TimeRange == nil) {
		return false
	}
	if f.TimeRange != nil && *f.TimeRange != *o.TimeRange {
		return false
	}
	return true
}

// Matches reports whether the event satisfies every present filter clause of
// the subscription: type membership, publisher user, source app and time range.
func (s *Subscription) Matches(e *Event) bool {
	typeOK := false
	for _, t := range s.EventTypes {
		if t == e.Type {
			typeOK = true
			break
		}
	}
	if !typeOK {
		return false
	}
	if s.Filters.UserID != "" && s.Filters.UserID != e.UserID {
		return false
	}
	if len(s.Filters.Sources) > 0 {
		found := false
		for _, src := range s.Filters.Sources {
			if src == e.Source.AppID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if tr := s.Filters.TimeRange; tr != nil {
		if e.Timestamp < tr.Start || e.Timestamp > tr.End {
			return false
		}
	}
	return true
}

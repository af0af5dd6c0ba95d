// Package kafka publishes GrantScope domain events.
package kafka

import (
	"encoding/json"
	"time"
)

// Topic constants for grant discovery and matching events.
const (
	TopicGrantDiscovered = "grant.discovered"
	TopicGrantMatched    = "grant.matched"
	TopicGrantClosed     = "grant.closed"
	TopicModelTrained    = "predictor.model_trained"
)

// EventEnvelope standardizes event messages across topics.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// GrantDiscoveredPayload announces a newly seen grant listing.
type GrantDiscoveredPayload struct {
	GrantID    string     `json:"grant_id"`
	Title      string     `json:"title"`
	FunderName string     `json:"funder_name"`
	SourceName string     `json:"source_name"`
	SourceURL  string     `json:"source_url"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	FoundAt    time.Time  `json:"found_at"`
}

// GrantMatchedPayload announces a grant scoring above an organization's
// match threshold.
type GrantMatchedPayload struct {
	GrantID          string    `json:"grant_id"`
	GrantTitle       string    `json:"grant_title"`
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	Score            float64   `json:"score"`
	MatchReasons     []string  `json:"match_reasons,omitempty"`
	MatchedAt        time.Time `json:"matched_at"`
}

// ModelTrainedPayload announces a fresh predictor artifact.
type ModelTrainedPayload struct {
	ModelID    string    `json:"model_id"`
	Version    string    `json:"version"`
	Accuracy   float64   `json:"accuracy"`
	SampleSize int       `json:"sample_size"`
	TrainedAt  time.Time `json:"trained_at"`
}

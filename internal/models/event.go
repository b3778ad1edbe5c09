package models

import "time"

const (
	EventRecommendationServed = "recommendation.served"
	EventPriceQuoted          = "price.quoted"
	EventModelTrained         = "model.trained"
)

// Event is the envelope for everything this service publishes.
type Event struct {
	Type      string      `json:"type"`
	Key       string      `json:"key"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type ModelInfo struct {
	Loaded    bool      `json:"loaded"`
	Version   int       `json:"version,omitempty"`
	Samples   int       `json:"samples,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
	Path      string    `json:"path"`
	Source    string    `json:"source"`
	LoadError string    `json:"load_error,omitempty"`
}

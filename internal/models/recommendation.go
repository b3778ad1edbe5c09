package models

import (
	"time"

	"github.com/uptrace/bun"
)

type RecommendationRequest struct {
	Profile   Profile  `json:"profile"`
	RoomTypes []string `json:"room_types,omitempty"`
	Limit     int      `json:"limit,omitempty" binding:"omitempty,gte=1"`
}

type RecommendedRoom struct {
	RoomType           string  `json:"room_type"`
	Compatibility      float64 `json:"compatibility"`
	BookingProbability float64 `json:"booking_probability"`
	PredictedRating    float64 `json:"predicted_rating"`
	NightlyPrice       float64 `json:"nightly_price,omitempty"`
	Currency           string  `json:"currency,omitempty"`
	ExpectedRevenue    float64 `json:"expected_revenue,omitempty"`
	Reason             string  `json:"reason"`
}

type RecommendationResponse struct {
	UserID       string            `json:"user_id"`
	Group        ABGroup           `json:"ab_group"`
	Source       string            `json:"source"`
	ModelVersion int               `json:"model_version,omitempty"`
	Rooms        []RecommendedRoom `json:"rooms"`
	Cached       bool              `json:"cached"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

type Impression struct {
	bun.BaseModel `bun:"table:impressions"`

	ImpressionID string    `json:"impression_id" bun:"impression_id,pk"`
	UserID       string    `json:"user_id" bun:"user_id"`
	Group        ABGroup   `json:"ab_group" bun:"ab_group"`
	Source       string    `json:"source" bun:"source"`
	TopRoomType  string    `json:"top_room_type" bun:"top_room_type"`
	CreatedAt    time.Time `json:"created_at" bun:"created_at"`
}

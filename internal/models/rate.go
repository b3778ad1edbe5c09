package models

import "time"

// PublishedRate is one reference nightly rate pushed to the payment catalog.
type PublishedRate struct {
	RoomType     string             `json:"room_type"`
	Group        ABGroup            `json:"ab_group"`
	LookupKey    string             `json:"lookup_key"`
	NightlyPrice float64            `json:"nightly_price"`
	Currency     string             `json:"currency"`
	Factors      map[string]float64 `json:"factors"`
	ProductID    string             `json:"product_id"`
	PriceID      string             `json:"price_id"`
}

type RatePublishRequest struct {
	Date time.Time `json:"date"`
}

type RatePublishResult struct {
	Date      time.Time       `json:"date"`
	Published []PublishedRate `json:"published"`
	Failed    []string        `json:"failed,omitempty"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

type QuoteStatus string

const (
	QuoteQuoted    QuoteStatus = "quoted"
	QuoteConverted QuoteStatus = "converted"
	QuoteCancelled QuoteStatus = "cancelled"
)

type PriceQuote struct {
	bun.BaseModel `bun:"table:price_quotes"`

	QuoteID      string             `json:"quote_id" bun:"quote_id,pk"`
	UserID       string             `json:"user_id" bun:"user_id"`
	RoomType     string             `json:"room_type" bun:"room_type"`
	Group        ABGroup            `json:"ab_group" bun:"ab_group"`
	BasePrice    float64            `json:"base_price" bun:"base_price"`
	Multiplier   float64            `json:"multiplier" bun:"multiplier"`
	NightlyPrice float64            `json:"nightly_price" bun:"nightly_price"`
	TotalPrice   float64            `json:"total_price" bun:"total_price"`
	Currency     string             `json:"currency" bun:"currency"`
	Factors      map[string]float64 `json:"factors" bun:"factors,type:json"`
	CheckIn      time.Time          `json:"check_in" bun:"check_in"`
	Nights       int                `json:"nights" bun:"nights"`
	Status       QuoteStatus        `json:"status" bun:"status"`
	CreatedAt    time.Time          `json:"created_at" bun:"created_at"`
	ExpiresAt    time.Time          `json:"expires_at" bun:"expires_at"`
}

type QuoteRequest struct {
	RoomType string    `json:"room_type" binding:"required"`
	CheckIn  time.Time `json:"check_in" binding:"required"`
	Nights   int       `json:"nights" binding:"omitempty,gte=1,lte=60"`
	Profile  *Profile  `json:"profile,omitempty"`
}

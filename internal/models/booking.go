package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingRefunded  BookingStatus = "refunded"
)

const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingRefunded  = "booking.refunded"
	EventReviewCreated    = "review.created"
)

// BookingEvent is published by the booking platform on booking-events.
type BookingEvent struct {
	Type       string        `json:"type"`
	BookingID  string        `json:"booking_id"`
	UserID     string        `json:"user_id"`
	QuoteID    string        `json:"quote_id,omitempty"`
	RoomType   string        `json:"room_type"`
	Status     BookingStatus `json:"status"`
	TotalPrice float64       `json:"total_price"`
	Rating     int           `json:"rating,omitempty"`
	Profile    *Profile      `json:"profile,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Observation is one training row for the room model.
type Observation struct {
	bun.BaseModel `bun:"table:observations"`

	BookingID  string    `json:"booking_id" bun:"booking_id,pk"`
	UserID     string    `json:"user_id" bun:"user_id"`
	UserType   string    `json:"user_type" bun:"user_type"`
	Budget     string    `json:"budget" bun:"budget"`
	Season     string    `json:"season" bun:"season"`
	StayLength string    `json:"stay_length" bun:"stay_length"`
	PartySize  string    `json:"party_size" bun:"party_size"`
	RoomType   string    `json:"room_type" bun:"room_type"`
	Booked     bool      `json:"booked" bun:"booked"`
	Rating     int       `json:"rating" bun:"rating"`
	CreatedAt  time.Time `json:"created_at" bun:"created_at"`
}

func (o *Observation) Profile() Profile {
	return Profile{
		UserID:     o.UserID,
		UserType:   o.UserType,
		Budget:     o.Budget,
		Season:     o.Season,
		StayLength: o.StayLength,
		PartySize:  o.PartySize,
	}
}

// Targets returns compatibility, booking probability and rating targets.
func (o *Observation) Targets() [3]float64 {
	switch {
	case o.Booked && o.Rating > 0:
		return [3]float64{float64(o.Rating) / 5, 1, float64(o.Rating)}
	case o.Booked:
		return [3]float64{0.8, 1, 4}
	case o.Rating > 0:
		return [3]float64{0.3, 0, float64(o.Rating)}
	default:
		return [3]float64{0.3, 0, 2}
	}
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoomStandard  = "standard"
	RoomDeluxe    = "deluxe"
	RoomSuite     = "suite"
	RoomFamily    = "family"
	RoomExecutive = "executive"
)

// RoomTypeCodes is the candidate order used by the feature encoder.
var RoomTypeCodes = []string{RoomStandard, RoomDeluxe, RoomSuite, RoomFamily, RoomExecutive}

func IsRoomType(code string) bool {
	for _, c := range RoomTypeCodes {
		if c == code {
			return true
		}
	}
	return false
}

type RoomType struct {
	bun.BaseModel `bun:"table:room_types"`

	Code      string    `json:"code" bun:"code,pk"`
	Name      string    `json:"name" bun:"name"`
	BasePrice float64   `json:"base_price" bun:"base_price"`
	Currency  string    `json:"currency" bun:"currency"`
	MaxGuests int       `json:"max_guests" bun:"max_guests"`
	Active    bool      `json:"active" bun:"active"`
	UpdatedAt time.Time `json:"updated_at" bun:"updated_at"`
}

type RoomTypeUpdateRequest struct {
	Name      string  `json:"name"`
	BasePrice float64 `json:"base_price" binding:"required,gt=0"`
	Currency  string  `json:"currency" binding:"omitempty,len=3"`
	MaxGuests int     `json:"max_guests" binding:"omitempty,gte=1"`
	Active    *bool   `json:"active,omitempty"`
}

// DefaultRoomTypes seeds an empty catalog.
func DefaultRoomTypes() []*RoomType {
	now := time.Now().UTC()
	return []*RoomType{
		{Code: RoomStandard, Name: "Standard Room", BasePrice: 120, Currency: "usd", MaxGuests: 2, Active: true, UpdatedAt: now},
		{Code: RoomDeluxe, Name: "Deluxe Room", BasePrice: 180, Currency: "usd", MaxGuests: 2, Active: true, UpdatedAt: now},
		{Code: RoomSuite, Name: "Suite", BasePrice: 320, Currency: "usd", MaxGuests: 4, Active: true, UpdatedAt: now},
		{Code: RoomFamily, Name: "Family Room", BasePrice: 220, Currency: "usd", MaxGuests: 5, Active: true, UpdatedAt: now},
		{Code: RoomExecutive, Name: "Executive Room", BasePrice: 260, Currency: "usd", MaxGuests: 2, Active: true, UpdatedAt: now},
	}
}

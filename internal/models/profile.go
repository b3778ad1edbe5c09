package models

import (
	"strings"
	"time"
)

// Profile is the guest profile the recommender encodes. Season, StayLength
// and PartySize are derived from CheckIn, Nights and Guests when empty.
type Profile struct {
	UserID     string    `json:"user_id,omitempty"`
	UserType   string    `json:"user_type"`
	Budget     string    `json:"budget,omitempty"`
	Season     string    `json:"season,omitempty"`
	StayLength string    `json:"stay_length,omitempty"`
	PartySize  string    `json:"party_size,omitempty"`
	CheckIn    time.Time `json:"check_in,omitempty"`
	Nights     int       `json:"nights,omitempty"`
	Guests     int       `json:"guests,omitempty"`
}

const (
	UserTypeBusiness = "business"
	UserTypeLeisure  = "leisure"
	UserTypeFamily   = "family"
	UserTypeCouple   = "couple"
	UserTypeSolo     = "solo"
)

var (
	UserTypes   = []string{UserTypeBusiness, UserTypeLeisure, UserTypeFamily, UserTypeCouple, UserTypeSolo}
	Budgets     = []string{"budget", "standard", "premium", "luxury"}
	Seasons     = []string{"spring", "summer", "autumn", "winter"}
	StayLengths = []string{"short", "medium", "long"}
	PartySizes  = []string{"single", "pair", "group", "large"}
)

// Normalized lower-cases every category and fills the derived ones.
func (p Profile) Normalized() Profile {
	p.UserType = normalize(p.UserType)
	p.Budget = normalize(p.Budget)
	p.Season = normalize(p.Season)
	p.StayLength = normalize(p.StayLength)
	p.PartySize = normalize(p.PartySize)

	if p.Season == "" && !p.CheckIn.IsZero() {
		p.Season = SeasonOf(p.CheckIn.Month())
	}
	if p.StayLength == "" && p.Nights > 0 {
		p.StayLength = StayLengthOf(p.Nights)
	}
	if p.PartySize == "" && p.Guests > 0 {
		p.PartySize = PartySizeOf(p.Guests)
	}
	return p
}

func SeasonOf(m time.Month) string {
	switch m {
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	case time.September, time.October, time.November:
		return "autumn"
	default:
		return "winter"
	}
}

func StayLengthOf(nights int) string {
	switch {
	case nights <= 2:
		return "short"
	case nights <= 6:
		return "medium"
	default:
		return "long"
	}
}

func PartySizeOf(guests int) string {
	switch {
	case guests <= 1:
		return "single"
	case guests == 2:
		return "pair"
	case guests <= 4:
		return "group"
	default:
		return "large"
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package pricing

import (
	"errors"
	"math"
	"time"

	"booking-intelligence/internal/models"
)

const (
	FactorTimeOfDay = "time_of_day"
	FactorDayOfWeek = "day_of_week"
	FactorSeason    = "season"
	FactorLeadTime  = "lead_time"
	FactorDemand    = "demand"
)

const (
	MinMultiplier = 0.70
	MaxMultiplier = 1.60
)

var ErrInvalidBasePrice = errors.New("base price must be positive")

// monthDemand is indexed by time.Month-1.
var monthDemand = [12]float64{
	0.85, 0.90, 0.95, 1.00, 1.05, 1.20,
	1.30, 1.30, 1.05, 1.00, 0.90, 1.15,
}

type QuoteInput struct {
	BasePrice float64
	Group     models.ABGroup
	// At is when the guest asks for the price.
	At      time.Time
	CheckIn time.Time
	Nights  int
	// BookingProbability drives the demand factor when set.
	BookingProbability *float64
}

type Breakdown struct {
	BasePrice    float64            `json:"base_price"`
	Group        models.ABGroup     `json:"ab_group"`
	Factors      map[string]float64 `json:"factors"`
	Multiplier   float64            `json:"multiplier"`
	NightlyPrice float64            `json:"nightly_price"`
	Nights       int                `json:"nights"`
	TotalPrice   float64            `json:"total_price"`
}

// Adjuster applies the percentage heuristics to a base nightly rate.
type Adjuster struct{}

func NewAdjuster() *Adjuster { return &Adjuster{} }

func (a *Adjuster) Quote(in QuoteInput) (Breakdown, error) {
	if in.BasePrice <= 0 || math.IsNaN(in.BasePrice) || math.IsInf(in.BasePrice, 0) {
		return Breakdown{}, ErrInvalidBasePrice
	}
	nights := in.Nights
	if nights < 1 {
		nights = 1
	}
	group := in.Group
	if !group.Valid() {
		group = models.GroupControl
	}

	factors := map[string]float64{}
	if group != models.GroupControl {
		factors[FactorTimeOfDay] = TimeOfDayFactor(in.At.Hour())
		factors[FactorDayOfWeek] = DayOfWeekFactor(in.CheckIn.Weekday())
		factors[FactorSeason] = SeasonFactor(in.CheckIn.Month())
		factors[FactorLeadTime] = LeadTimeFactor(in.At, in.CheckIn)
	}
	if group == models.GroupPriceOptimized {
		factors[FactorDemand] = DemandFactor(in.BookingProbability)
	}

	multiplier := 1.0
	for _, f := range factors {
		multiplier *= f
	}
	multiplier = math.Max(MinMultiplier, math.Min(MaxMultiplier, multiplier))

	nightly := roundCents(in.BasePrice * multiplier)
	return Breakdown{
		BasePrice:    in.BasePrice,
		Group:        group,
		Factors:      factors,
		Multiplier:   math.Round(multiplier*10000) / 10000,
		NightlyPrice: nightly,
		Nights:       nights,
		TotalPrice:   roundCents(nightly * float64(nights)),
	}, nil
}

func TimeOfDayFactor(hour int) float64 {
	switch {
	case hour < 6:
		return 0.95
	case hour < 12:
		return 1.00
	case hour < 18:
		return 1.02
	default:
		return 1.05
	}
}

func DayOfWeekFactor(d time.Weekday) float64 {
	if d == time.Friday || d == time.Saturday {
		return 1.15
	}
	return 1.00
}

func SeasonFactor(m time.Month) float64 {
	if m < time.January || m > time.December {
		return 1.00
	}
	return monthDemand[m-1]
}

// LeadTimeFactor rewards early bookings and charges a premium for last
// minute ones. Lead time is measured in whole days.
func LeadTimeFactor(at, checkIn time.Time) float64 {
	days := checkIn.Sub(at).Hours() / 24
	switch {
	case days < 2:
		return 1.10
	case days > 60:
		return 0.90
	default:
		return 1.00
	}
}

func DemandFactor(p *float64) float64 {
	switch {
	case p == nil:
		return 1.00
	case *p >= 0.7:
		return 1.08
	case *p <= 0.3:
		return 0.92
	default:
		return 1.00
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

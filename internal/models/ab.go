package models

type ABGroup string

const (
	GroupControl        ABGroup = "control"
	GroupAIEnhanced     ABGroup = "ai_enhanced"
	GroupPriceOptimized ABGroup = "price_optimized"
)

// ABGroups is the fixed cohort order; hash assignment indexes into it.
var ABGroups = []ABGroup{GroupControl, GroupAIEnhanced, GroupPriceOptimized}

func (g ABGroup) Valid() bool {
	switch g {
	case GroupControl, GroupAIEnhanced, GroupPriceOptimized:
		return true
	}
	return false
}

type ABAssignment struct {
	UserID string  `json:"user_id"`
	Group  ABGroup `json:"group"`
	Sticky bool    `json:"sticky"`
}

type ABOverrideRequest struct {
	Group ABGroup `json:"group" binding:"required"`
}

// GroupReport aggregates one cohort's funnel.
type GroupReport struct {
	Group              ABGroup `json:"group"`
	Impressions        int     `json:"impressions"`
	Quotes             int     `json:"quotes"`
	Conversions        int     `json:"conversions"`
	ConversionRate     float64 `json:"conversion_rate"`
	AverageNightlyRate float64 `json:"average_nightly_rate"`
	Revenue            float64 `json:"revenue"`
}

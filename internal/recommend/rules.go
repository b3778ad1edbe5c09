package recommend

import (
	"strings"

	"booking-intelligence/internal/models"
)

type RuleScore struct {
	RoomType string
	Score    float64
}

// ruleTable is the hand-tuned ranking used when no model is available.
var ruleTable = map[string][]RuleScore{
	models.UserTypeBusiness: {
		{models.RoomExecutive, 0.90}, {models.RoomDeluxe, 0.75}, {models.RoomStandard, 0.60},
		{models.RoomSuite, 0.55}, {models.RoomFamily, 0.20},
	},
	models.UserTypeLeisure: {
		{models.RoomDeluxe, 0.85}, {models.RoomSuite, 0.70}, {models.RoomStandard, 0.65},
		{models.RoomFamily, 0.40}, {models.RoomExecutive, 0.35},
	},
	models.UserTypeFamily: {
		{models.RoomFamily, 0.95}, {models.RoomSuite, 0.70}, {models.RoomDeluxe, 0.55},
		{models.RoomStandard, 0.45}, {models.RoomExecutive, 0.20},
	},
	models.UserTypeCouple: {
		{models.RoomSuite, 0.90}, {models.RoomDeluxe, 0.85}, {models.RoomStandard, 0.50},
		{models.RoomExecutive, 0.40}, {models.RoomFamily, 0.15},
	},
	models.UserTypeSolo: {
		{models.RoomStandard, 0.85}, {models.RoomDeluxe, 0.60}, {models.RoomExecutive, 0.50},
		{models.RoomSuite, 0.30}, {models.RoomFamily, 0.10},
	},
}

var defaultRules = []RuleScore{
	{models.RoomStandard, 0.70}, {models.RoomDeluxe, 0.60}, {models.RoomSuite, 0.50},
	{models.RoomFamily, 0.40}, {models.RoomExecutive, 0.40},
}

// RuleScores returns the ranking for a user type. Unknown types get the
// default ranking. The returned slice is a copy.
func RuleScores(userType string) []RuleScore {
	scores, ok := ruleTable[strings.ToLower(strings.TrimSpace(userType))]
	if !ok {
		scores = defaultRules
	}
	return append([]RuleScore(nil), scores...)
}

// RulePrediction expresses a rule score in model output terms.
func RulePrediction(score float64) Prediction {
	return Prediction{
		Compatibility:      score,
		BookingProbability: score * 0.5,
		Rating:             1 + 4*score,
	}.clamped()
}

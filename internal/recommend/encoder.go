package recommend

import (
	"strings"

	"booking-intelligence/internal/models"
)

// block is one one-hot group of the feature vector.
type block struct {
	name       string
	categories []string
	value      func(p models.Profile, roomType string) string
}

// Encoder turns a profile and a candidate room type into a flat one-hot
// vector. Block order is fixed; a trained model is only valid for the
// exact feature names it was fitted with.
type Encoder struct {
	blocks []block
	names  []string
	index  []map[string]int
	width  int
}

func NewEncoder() *Encoder {
	blocks := []block{
		{"user_type", models.UserTypes, func(p models.Profile, _ string) string { return p.UserType }},
		{"budget", models.Budgets, func(p models.Profile, _ string) string { return p.Budget }},
		{"season", models.Seasons, func(p models.Profile, _ string) string { return p.Season }},
		{"stay_length", models.StayLengths, func(p models.Profile, _ string) string { return p.StayLength }},
		{"party_size", models.PartySizes, func(p models.Profile, _ string) string { return p.PartySize }},
		{"room_type", models.RoomTypeCodes, func(_ models.Profile, rt string) string { return rt }},
	}

	e := &Encoder{blocks: blocks}
	for _, b := range blocks {
		idx := make(map[string]int, len(b.categories))
		for _, c := range b.categories {
			idx[c] = e.width
			e.names = append(e.names, b.name+"="+c)
			e.width++
		}
		e.index = append(e.index, idx)
	}
	return e
}

// Width is the length of every encoded vector.
func (e *Encoder) Width() int { return e.width }

// FeatureNames returns a copy of the feature names in vector order.
func (e *Encoder) FeatureNames() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Encode never fails: unknown categories leave their block all zeros.
func (e *Encoder) Encode(p models.Profile, roomType string) []float64 {
	p = p.Normalized()
	roomType = normalizeRoomType(roomType)
	x := make([]float64, e.width)
	for i, b := range e.blocks {
		if pos, ok := e.index[i][b.value(p, roomType)]; ok {
			x[pos] = 1
		}
	}
	return x
}

func normalizeRoomType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

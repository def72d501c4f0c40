package models

// Itinerary is the ordered multi-leg journey assembled by the user: optional
// start/end stations, intermediate step stations (insertion order, unique by
// id) and the legs in travel order.
//
// TotalDistance and TotalTime are derived fields. They hold the sum of the
// legs' own values and are nil when the raw sum is zero or there are no legs;
// zero and "unknown" are deliberately not distinguished. They are only ever
// produced by the aggregate's recompute step, never set independently.
type Itinerary struct {
	Start         *Station  `json:"start,omitempty"`
	End           *Station  `json:"end,omitempty"`
	Steps         []Station `json:"steps"`
	Legs          []Leg     `json:"legs"`
	TotalDistance *float64  `json:"totalDistance,omitempty"` // kilometers
	TotalTime     *int      `json:"totalTime,omitempty"`     // minutes
}

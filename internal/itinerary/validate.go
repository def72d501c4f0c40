package itinerary

import (
	"fmt"

	"planner.randoplan.org/internal/models"
)

// Validation is the outcome of checking an itinerary for coherence. An
// incoherent itinerary is not an error condition: it stays fully editable and
// the result is surfaced to the user as a warning.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Validate checks an itinerary snapshot for coherence. It is a pure function:
// no side effects, first failing rule wins, fixed rule order.
//
// Rules, in order:
//  1. An itinerary with no legs is valid (vacuously).
//  2. Consecutive legs must share an endpoint station.
//  3. The start station, when set, must match the first leg's origin.
//  4. The end station, when set, must match the last leg's destination.
//  5. Leg ids must be unique.
//  6. A REST leg's from, to and location must all name the same station.
//
// Validate never panics past its boundary: an unexpected panic during
// evaluation is recovered and reported as an invalid result carrying the
// panic's message.
func Validate(it models.Itinerary) (result Validation) {
	defer func() {
		if r := recover(); r != nil {
			result = Validation{
				Valid: false,
				Error: fmt.Sprintf("unexpected validation error: %v", r),
			}
		}
	}()

	legs := it.Legs

	if len(legs) == 0 {
		return Validation{Valid: true}
	}

	for i := 0; i < len(legs)-1; i++ {
		current := legs[i]
		next := legs[i+1]
		if current.To.ID != next.From.ID {
			return Validation{
				Valid: false,
				Error: fmt.Sprintf(
					"Discontinuity detected: leg %d ends at %s but leg %d starts at %s",
					i+1, current.To.Label, i+2, next.From.Label,
				),
			}
		}
	}

	if it.Start != nil && it.Start.ID != legs[0].From.ID {
		return Validation{
			Valid: false,
			Error: fmt.Sprintf(
				"Start station (%s) doesn't match the first leg's starting point (%s)",
				it.Start.Label, legs[0].From.Label,
			),
		}
	}

	if it.End != nil && it.End.ID != legs[len(legs)-1].To.ID {
		return Validation{
			Valid: false,
			Error: fmt.Sprintf(
				"End station (%s) doesn't match the last leg's ending point (%s)",
				it.End.Label, legs[len(legs)-1].To.Label,
			),
		}
	}

	seen := make(map[string]struct{}, len(legs))
	for _, leg := range legs {
		if _, dup := seen[leg.ID]; dup {
			return Validation{Valid: false, Error: "Duplicate legs detected in the itinerary"}
		}
		seen[leg.ID] = struct{}{}
	}

	for i, leg := range legs {
		if leg.Type != models.LegTypeRest {
			continue
		}
		if leg.Location == nil || leg.From.ID != leg.To.ID || leg.Location.ID != leg.From.ID {
			return Validation{
				Valid: false,
				Error: fmt.Sprintf("Rest leg %d must start, end and rest at the same station", i+1),
			}
		}
	}

	return Validation{Valid: true}
}

package itinerary

import (
	"log/slog"
	"sync"

	"github.com/getsentry/sentry-go"
	"planner.randoplan.org/internal/geo"
	"planner.randoplan.org/internal/metrics"
	"planner.randoplan.org/internal/models"
	"planner.randoplan.org/internal/report"
)

// Persister stores the itinerary after each mutation. Writes are
// fire-and-forget from the aggregate's point of view: a failed save is logged
// and reported but never blocks or fails the mutation that triggered it.
type Persister interface {
	Save(it models.Itinerary) error
}

// Service is the itinerary aggregate. It owns the itinerary state and is the
// only legal mutation path; presentation code must not reach the state any
// other way.
//
// The domain is single-writer (mutations arrive one user action at a time),
// but the HTTP surface calls in from server goroutines, so a mutex serializes
// access. Every mutation ends with a synchronous recompute of the derived
// fields (totals, validation) followed by a persistence write.
type Service struct {
	mu         sync.RWMutex
	itinerary  models.Itinerary
	validation Validation

	logger    *slog.Logger
	persister Persister
}

func NewService(logger *slog.Logger, persister Persister) *Service {
	return &Service{
		itinerary:  models.Itinerary{Steps: []models.Station{}, Legs: []models.Leg{}},
		validation: Validation{Valid: true},
		logger:     logger,
		persister:  persister,
	}
}

// Restore replaces the itinerary with a previously persisted copy, typically
// once at startup. Derived fields are recomputed rather than trusted from the
// restored document; the restore itself is not written back.
func (s *Service) Restore(it models.Itinerary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.Steps == nil {
		it.Steps = []models.Station{}
	}
	if it.Legs == nil {
		it.Legs = []models.Leg{}
	}
	s.itinerary = it
	s.recomputeDerivedLocked(false)
}

// Snapshot returns a deep copy of the itinerary together with its current
// validation result.
func (s *Service) Snapshot() (models.Itinerary, Validation) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItinerary(s.itinerary), s.validation
}

// SetStart replaces the start station. Passing nil clears it. Coherence with
// the first leg is a validation concern, not a precondition.
func (s *Service) SetStart(station *models.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itinerary.Start = station
	metrics.ItineraryMutations.WithLabelValues("set_start").Inc()
	s.recomputeDerivedLocked(true)
}

// SetEnd replaces the end station. Passing nil clears it.
func (s *Service) SetEnd(station *models.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itinerary.End = station
	metrics.ItineraryMutations.WithLabelValues("set_end").Inc()
	s.recomputeDerivedLocked(true)
}

// AddStep appends a step station. Adding a station whose id is already
// present is a no-op, so the call is idempotent.
func (s *Service) AddStep(station models.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, step := range s.itinerary.Steps {
		if step.ID == station.ID {
			return
		}
	}
	s.itinerary.Steps = append(s.itinerary.Steps, station)
	metrics.ItineraryMutations.WithLabelValues("add_step").Inc()
	s.recomputeDerivedLocked(true)
}

// RemoveStep removes all steps with the given station id.
func (s *Service) RemoveStep(stationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.itinerary.Steps[:0]
	for _, step := range s.itinerary.Steps {
		if step.ID != stationID {
			kept = append(kept, step)
		}
	}
	s.itinerary.Steps = kept
	metrics.ItineraryMutations.WithLabelValues("remove_step").Inc()
	s.recomputeDerivedLocked(true)
}

// AddLeg appends a leg. Adding a leg whose id is already present is a no-op.
// Continuity with the previous leg is deliberately not checked here: it is a
// derived, reported property, so a temporarily incoherent intermediate state
// stays representable while the user builds the trip step by step.
func (s *Service) AddLeg(leg models.Leg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.itinerary.Legs {
		if existing.ID == leg.ID {
			return
		}
	}
	s.itinerary.Legs = append(s.itinerary.Legs, leg)
	metrics.ItineraryMutations.WithLabelValues("add_leg").Inc()
	s.recomputeDerivedLocked(true)
}

// RemoveLeg removes the leg with the given id, if present.
func (s *Service) RemoveLeg(legID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.itinerary.Legs[:0]
	for _, leg := range s.itinerary.Legs {
		if leg.ID != legID {
			kept = append(kept, leg)
		}
	}
	s.itinerary.Legs = kept
	metrics.ItineraryMutations.WithLabelValues("remove_leg").Inc()
	s.recomputeDerivedLocked(true)
}

// UpdateLeg replaces the leg with a matching id in place, preserving its
// position in travel order. Unknown ids are a no-op.
func (s *Service) UpdateLeg(updated models.Leg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, leg := range s.itinerary.Legs {
		if leg.ID == updated.ID {
			s.itinerary.Legs[i] = updated
			metrics.ItineraryMutations.WithLabelValues("update_leg").Inc()
			s.recomputeDerivedLocked(true)
			return
		}
	}
}

// recomputeDerivedLocked recomputes totals and validation from the current
// legs and, when persist is set, writes the itinerary out. Derived fields are
// never stored as independently settable state; this is the only producer.
// Callers must hold the write lock.
func (s *Service) recomputeDerivedLocked(persist bool) {
	s.itinerary.TotalDistance = totalDistance(s.itinerary.Legs)
	s.itinerary.TotalTime = totalTime(s.itinerary.Legs)
	s.validation = Validate(s.itinerary)

	metrics.ItineraryLegCount.Set(float64(len(s.itinerary.Legs)))
	if s.itinerary.TotalDistance != nil {
		metrics.ItineraryTotalDistanceKm.Set(*s.itinerary.TotalDistance)
	} else {
		metrics.ItineraryTotalDistanceKm.Set(0)
	}
	if s.validation.Valid {
		metrics.ItineraryValid.Set(1)
	} else {
		metrics.ItineraryValid.Set(0)
	}

	if !persist || s.persister == nil {
		return
	}
	if err := s.persister.Save(cloneItinerary(s.itinerary)); err != nil {
		metrics.PersistenceFailures.WithLabelValues("write").Inc()
		report.ReportError(err, sentry.LevelWarning)
		s.logger.Error("Failed to persist itinerary", "error", err)
	}
}

// totalDistance sums the legs' distances in kilometers. The result is nil
// when there are no legs or the raw sum is zero: zero and "unknown" are
// deliberately not distinguished.
func totalDistance(legs []models.Leg) *float64 {
	if len(legs) == 0 {
		return nil
	}
	var sum float64
	for _, leg := range legs {
		if leg.Distance != nil {
			sum += *leg.Distance
		}
	}
	if sum > 0 {
		return &sum
	}
	return nil
}

// totalTime sums the legs' estimated times in minutes, with the same
// nil-when-zero convention as totalDistance.
func totalTime(legs []models.Leg) *int {
	if len(legs) == 0 {
		return nil
	}
	var sum int
	for _, leg := range legs {
		if leg.EstimatedTime != nil {
			sum += *leg.EstimatedTime
		}
	}
	if sum > 0 {
		return &sum
	}
	return nil
}

// cloneItinerary copies the itinerary's slices so callers cannot mutate the
// aggregate's state through a snapshot. Stations and routes inside legs are
// immutable reference data, so sharing those pointers is safe.
func cloneItinerary(it models.Itinerary) models.Itinerary {
	out := it
	out.Steps = append([]models.Station(nil), it.Steps...)
	out.Legs = append([]models.Leg(nil), it.Legs...)
	for i := range out.Legs {
		if len(out.Legs[i].EditedCoordinates) > 0 {
			out.Legs[i].EditedCoordinates = append([]geo.LatLng(nil), it.Legs[i].EditedCoordinates...)
		}
	}
	if it.TotalDistance != nil {
		d := *it.TotalDistance
		out.TotalDistance = &d
	}
	if it.TotalTime != nil {
		t := *it.TotalTime
		out.TotalTime = &t
	}
	return out
}

package itinerary

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"planner.randoplan.org/internal/models"
)

// recordingPersister captures every save so tests can assert on the persisted
// documents. Setting err makes each save fail.
type recordingPersister struct {
	mu    sync.Mutex
	saves []models.Itinerary
	err   error
}

func (p *recordingPersister) Save(it models.Itinerary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, it)
	return p.err
}

func (p *recordingPersister) saveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func newTestService(persister Persister) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, persister)
}

func legWithTotals(id string, from, to models.Station, distanceKm float64, timeMin int) models.Leg {
	leg := hikingLeg(id, from, to)
	leg.Distance = &distanceKm
	leg.EstimatedTime = &timeMin
	return leg
}

func TestServiceStartEnd(t *testing.T) {
	svc := newTestService(nil)
	stationA := testStation("a", "Aussois")

	svc.SetStart(&stationA)
	it, _ := svc.Snapshot()
	if it.Start == nil || it.Start.ID != "a" {
		t.Fatalf("expected start station a, got %+v", it.Start)
	}

	svc.SetStart(nil)
	it, _ = svc.Snapshot()
	if it.Start != nil {
		t.Errorf("expected start to be cleared, got %+v", it.Start)
	}

	svc.SetEnd(&stationA)
	it, _ = svc.Snapshot()
	if it.End == nil || it.End.ID != "a" {
		t.Errorf("expected end station a, got %+v", it.End)
	}
}

func TestServiceSteps(t *testing.T) {
	svc := newTestService(nil)
	stationA := testStation("a", "Aussois")
	stationB := testStation("b", "Bonneval")

	svc.AddStep(stationA)
	svc.AddStep(stationB)
	svc.AddStep(stationA) // idempotent

	it, _ := svc.Snapshot()
	if len(it.Steps) != 2 {
		t.Fatalf("expected 2 steps after duplicate add, got %d", len(it.Steps))
	}

	svc.RemoveStep("a")
	it, _ = svc.Snapshot()
	if len(it.Steps) != 1 || it.Steps[0].ID != "b" {
		t.Errorf("expected only step b to remain, got %+v", it.Steps)
	}
}

func TestServiceLegs(t *testing.T) {
	stationA := testStation("a", "Aussois")
	stationB := testStation("b", "Bonneval")
	stationC := testStation("c", "Ceillac")

	t.Run("AddLegIsIdempotent", func(t *testing.T) {
		svc := newTestService(nil)
		svc.AddLeg(hikingLeg("l1", stationA, stationB))
		svc.AddLeg(hikingLeg("l1", stationB, stationC))

		it, _ := svc.Snapshot()
		if len(it.Legs) != 1 {
			t.Fatalf("expected 1 leg after duplicate add, got %d", len(it.Legs))
		}
		if it.Legs[0].To.ID != "b" {
			t.Errorf("expected the first add to win, got leg to %s", it.Legs[0].To.ID)
		}
	})

	t.Run("TotalsSumLegValues", func(t *testing.T) {
		svc := newTestService(nil)
		svc.AddLeg(legWithTotals("l1", stationA, stationB, 3.2, 60))
		svc.AddLeg(legWithTotals("l2", stationB, stationC, 4.8, 90))

		it, _ := svc.Snapshot()
		if it.TotalDistance == nil || math.Abs(*it.TotalDistance-8.0) > 1e-9 {
			t.Errorf("expected total distance 8.0, got %v", it.TotalDistance)
		}
		if it.TotalTime == nil || *it.TotalTime != 150 {
			t.Errorf("expected total time 150, got %v", it.TotalTime)
		}
	})

	t.Run("TotalsNilWithoutLegs", func(t *testing.T) {
		svc := newTestService(nil)
		svc.AddLeg(legWithTotals("l1", stationA, stationB, 3.2, 60))
		svc.RemoveLeg("l1")

		it, _ := svc.Snapshot()
		if it.TotalDistance != nil {
			t.Errorf("expected nil total distance for empty legs, got %v", *it.TotalDistance)
		}
		if it.TotalTime != nil {
			t.Errorf("expected nil total time for empty legs, got %v", *it.TotalTime)
		}
	})

	t.Run("UpdateLegPreservesOrder", func(t *testing.T) {
		svc := newTestService(nil)
		svc.AddLeg(hikingLeg("l1", stationA, stationB))
		svc.AddLeg(hikingLeg("l2", stationB, stationC))

		updated := legWithTotals("l1", stationA, stationB, 5.5, 95)
		svc.UpdateLeg(updated)

		it, _ := svc.Snapshot()
		if len(it.Legs) != 2 || it.Legs[0].ID != "l1" {
			t.Fatalf("expected l1 to stay first, got %+v", it.Legs)
		}
		if it.Legs[0].Distance == nil || *it.Legs[0].Distance != 5.5 {
			t.Errorf("expected updated distance 5.5, got %v", it.Legs[0].Distance)
		}
	})

	t.Run("UpdateUnknownLegIsNoOp", func(t *testing.T) {
		svc := newTestService(nil)
		svc.AddLeg(hikingLeg("l1", stationA, stationB))
		svc.UpdateLeg(hikingLeg("ghost", stationB, stationC))

		it, _ := svc.Snapshot()
		if len(it.Legs) != 1 || it.Legs[0].ID != "l1" {
			t.Errorf("expected itinerary unchanged, got %+v", it.Legs)
		}
	})
}

func TestServiceValidationTracksMutations(t *testing.T) {
	svc := newTestService(nil)
	stationA := testStation("a", "Aussois")
	stationB := testStation("b", "Bonneval")
	stationC := testStation("c", "Ceillac")
	stationD := testStation("d", "Dormillouse")

	svc.AddLeg(hikingLeg("l1", stationA, stationB))
	if _, v := svc.Snapshot(); !v.Valid {
		t.Fatalf("expected single leg to be valid, got %q", v.Error)
	}

	svc.AddLeg(hikingLeg("l2", stationD, stationC))
	if _, v := svc.Snapshot(); v.Valid {
		t.Fatal("expected discontinuity to invalidate the itinerary")
	}

	svc.RemoveLeg("l2")
	if _, v := svc.Snapshot(); !v.Valid {
		t.Errorf("expected validity restored after removal, got %q", v.Error)
	}
}

func TestServicePersistence(t *testing.T) {
	stationA := testStation("a", "Aussois")
	stationB := testStation("b", "Bonneval")

	t.Run("EveryMutationPersists", func(t *testing.T) {
		persister := &recordingPersister{}
		svc := newTestService(persister)

		svc.SetStart(&stationA)
		svc.AddLeg(hikingLeg("l1", stationA, stationB))
		svc.RemoveLeg("l1")

		if got := persister.saveCount(); got != 3 {
			t.Errorf("expected 3 saves, got %d", got)
		}
	})

	t.Run("SaveFailureDoesNotFailMutation", func(t *testing.T) {
		persister := &recordingPersister{err: errors.New("disk full")}
		svc := newTestService(persister)

		svc.AddLeg(hikingLeg("l1", stationA, stationB))

		it, _ := svc.Snapshot()
		if len(it.Legs) != 1 {
			t.Errorf("expected the mutation to apply despite the save failure, got %d legs", len(it.Legs))
		}
	})

	t.Run("RestoreDoesNotWriteBack", func(t *testing.T) {
		persister := &recordingPersister{}
		svc := newTestService(persister)

		svc.Restore(models.Itinerary{
			Start: &stationA,
			Legs:  []models.Leg{legWithTotals("l1", stationA, stationB, 3.2, 60)},
		})

		if got := persister.saveCount(); got != 0 {
			t.Errorf("expected no saves during restore, got %d", got)
		}
		it, _ := svc.Snapshot()
		if it.TotalDistance == nil || *it.TotalDistance != 3.2 {
			t.Errorf("expected totals recomputed on restore, got %v", it.TotalDistance)
		}
	})
}

func TestSnapshotIsolation(t *testing.T) {
	svc := newTestService(nil)
	stationA := testStation("a", "Aussois")
	stationB := testStation("b", "Bonneval")

	svc.AddStep(stationA)
	svc.AddLeg(hikingLeg("l1", stationA, stationB))

	it, _ := svc.Snapshot()
	it.Steps[0].Label = "mutated"
	it.Legs[0].ID = "mutated"

	fresh, _ := svc.Snapshot()
	if fresh.Steps[0].Label != "Aussois" {
		t.Error("expected snapshot step mutation not to leak into the aggregate")
	}
	if fresh.Legs[0].ID != "l1" {
		t.Error("expected snapshot leg mutation not to leak into the aggregate")
	}
}

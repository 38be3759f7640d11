package inventory

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTrackerUpdate(t *testing.T) {
	var tr Tracker
	tr.Update(1, 100, 0)
	if tr.NetExposure() != 1 {
		t.Fatalf("expected net 1")
	}
	if tr.AvgCost() != 100 {
		t.Fatalf("expected cost 100 got %f", tr.AvgCost())
	}
	tr.Update(1, 110, 0) // cost should move toward 105
	if !near(tr.AvgCost(), 105) {
		t.Fatalf("unexpected avg cost %f", tr.AvgCost())
	}
}

func TestTrackerRealizesOnReduce(t *testing.T) {
	var tr Tracker
	tr.Update(2, 100, 0)
	tr.Update(-1, 103, 0.5)
	if !near(tr.Realized(), 2.5) {
		t.Fatalf("expected realized 3-0.5 got %v", tr.Realized())
	}
	if tr.NetExposure() != 1 || tr.AvgCost() != 100 {
		t.Fatalf("reduce should keep cost: net=%v cost=%v", tr.NetExposure(), tr.AvgCost())
	}
	tr.Update(-1, 98, 0)
	if tr.NetExposure() != 0 || tr.AvgCost() != 0 {
		t.Fatalf("flat position should reset cost")
	}
	if !near(tr.Realized(), 0.5) {
		t.Fatalf("expected realized 0.5 got %v", tr.Realized())
	}
}

func TestTrackerFlipThroughZero(t *testing.T) {
	var tr Tracker
	tr.Update(-1, 100, 0)
	tr.Update(3, 95, 0)
	if tr.NetExposure() != 2 {
		t.Fatalf("expected net 2 got %v", tr.NetExposure())
	}
	if tr.AvgCost() != 95 {
		t.Fatalf("flipped position should open at fill price, got %v", tr.AvgCost())
	}
	if !near(tr.Realized(), 5) {
		t.Fatalf("short closed 5 lower should realize 5, got %v", tr.Realized())
	}
}

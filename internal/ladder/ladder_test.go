package ladder

import (
	"math"
	"testing"
)

func TestBuild_EvenlySpacedInclusive(t *testing.T) {
	prices, err := Build(95, 100, 6)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if len(prices) != 6 {
		t.Fatalf("expected 6 prices, got %d", len(prices))
	}
	if prices[0] != 95 {
		t.Errorf("expected first price 95, got %v", prices[0])
	}
	if prices[len(prices)-1] != 100 {
		t.Errorf("expected last price 100, got %v", prices[len(prices)-1])
	}

	expectedStep := 1.0
	for i := 1; i < len(prices); i++ {
		if prices[i] <= prices[i-1] {
			t.Errorf("prices not strictly increasing at index %d: %v <= %v", i, prices[i], prices[i-1])
		}
		if diff := math.Abs(prices[i] - prices[i-1] - expectedStep); diff > 1e-9 {
			t.Errorf("non-uniform step at index %d: %v", i, prices[i]-prices[i-1])
		}
	}
}

func TestBuild_TwoSteps(t *testing.T) {
	prices, err := Build(0.00019, 0.0002, 2)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(prices) != 2 || prices[0] != 0.00019 || prices[1] != 0.0002 {
		t.Fatalf("unexpected ladder: %v", prices)
	}
}

func TestBuild_RejectsTooFewSteps(t *testing.T) {
	if _, err := Build(95, 100, 1); err == nil {
		t.Fatal("expected error for steps < 2")
	}
	if _, err := Build(95, 100, 0); err == nil {
		t.Fatal("expected error for steps = 0")
	}
}

func TestBuild_RejectsInvertedRange(t *testing.T) {
	if _, err := Build(100, 95, 4); err == nil {
		t.Fatal("expected error when ceiling below floor")
	}
}

func TestBuild_RejectsFlatRange(t *testing.T) {
	prices, err := Build(0.0002, 0.0002, 4)
	if err == nil {
		t.Fatalf("expected error when ceiling equals floor, got ladder %v", prices)
	}
}

package services

import (
	"errors"
	"testing"
	"time"
)

func TestComputeChargeRoundsUpToFullHour(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	cost, hours, err := ComputeCharge(start, end, 20.0)
	if err != nil {
		t.Fatalf("ComputeCharge returned error: %v", err)
	}
	if hours != 2 {
		t.Fatalf("expected 2 billed hours, got %d", hours)
	}
	if cost != 40.0 {
		t.Fatalf("expected cost 40.00, got %.2f", cost)
	}
}

func TestComputeChargeMinimumOneHour(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)

	cost, hours, err := ComputeCharge(start, end, 20.0)
	if err != nil {
		t.Fatalf("ComputeCharge returned error: %v", err)
	}
	if hours != 1 {
		t.Fatalf("expected minimum 1 billed hour, got %d", hours)
	}
	if cost != 20.0 {
		t.Fatalf("expected cost 20.00, got %.2f", cost)
	}
}

func TestComputeChargeZeroDuration(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	cost, hours, err := ComputeCharge(start, start, 15.5)
	if err != nil {
		t.Fatalf("ComputeCharge returned error: %v", err)
	}
	if hours != 1 {
		t.Fatalf("expected minimum 1 billed hour, got %d", hours)
	}
	if cost != 15.5 {
		t.Fatalf("expected cost 15.50, got %.2f", cost)
	}
}

func TestComputeChargeExactHourBoundary(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	cost, hours, err := ComputeCharge(start, end, 12.0)
	if err != nil {
		t.Fatalf("ComputeCharge returned error: %v", err)
	}
	if hours != 3 {
		t.Fatalf("expected 3 billed hours, got %d", hours)
	}
	if cost != 36.0 {
		t.Fatalf("expected cost 36.00, got %.2f", cost)
	}
}

func TestComputeChargeRoundsCostToTwoDecimals(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	cost, _, err := ComputeCharge(start, end, 33.333)
	if err != nil {
		t.Fatalf("ComputeCharge returned error: %v", err)
	}
	if cost != 33.33 {
		t.Fatalf("expected cost rounded to 33.33, got %v", cost)
	}
}

func TestComputeChargeEndBeforeStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(-time.Minute)

	_, _, err := ComputeCharge(start, end, 20.0)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestComputeChargeZeroRateBillsZero(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	cost, hours, err := ComputeCharge(start, end, 0)
	if err != nil {
		t.Fatalf("ComputeCharge returned error for zero rate: %v", err)
	}
	if hours != 2 {
		t.Fatalf("expected 2 billed hours, got %d", hours)
	}
	if cost != 0 {
		t.Fatalf("expected cost 0.00 for zero rate, got %.2f", cost)
	}
}

func TestComputeChargeNegativeRate(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	_, _, err := ComputeCharge(start, end, -5)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative rate, got %v", err)
	}
}

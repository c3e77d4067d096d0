package fare

import (
	"testing"

	"github.com/example/recab-client/internal/models"
)

func settings() models.RideSettings {
	return models.RideSettings{BaseFare: 200, CostPerKm: 50, CostPerMinute: 0, SurgeMultiplier: 1}
}

func TestEstimateBaseOnly(t *testing.T) {
	if got := Estimate(0, 0, settings()); got != 200 {
		t.Fatalf("expected base fare 200, got %d", got)
	}
}

func TestEstimateLinearInDistance(t *testing.T) {
	r := settings()
	if got := Estimate(10, 0, r); got != 700 {
		t.Fatalf("expected 700, got %d", got)
	}
	prev := -1
	for km := 0.0; km <= 20; km += 2.5 {
		f := Estimate(km, 0, r)
		if f < prev {
			t.Fatalf("fare decreased at %f km: %d < %d", km, f, prev)
		}
		prev = f
	}
}

func TestEstimateMonotonicInRate(t *testing.T) {
	lo := settings()
	hi := settings()
	hi.CostPerKm = 80
	if Estimate(5, 0, hi) < Estimate(5, 0, lo) {
		t.Fatal("fare decreased with higher per-km rate")
	}
}

func TestEstimateSurge(t *testing.T) {
	r := settings()
	r.SurgeEnabled = true
	r.SurgeMultiplier = 1.5
	if got := Estimate(10, 0, r); got != 1050 {
		t.Fatalf("expected 1050 with surge, got %d", got)
	}
	// multiplier at or below 1 is ignored even when enabled
	r.SurgeMultiplier = 1
	if got := Estimate(10, 0, r); got != 700 {
		t.Fatalf("expected 700, got %d", got)
	}
}

func TestEstimateClampsNegativeInputs(t *testing.T) {
	if got := Estimate(-3, -10, settings()); got != 200 {
		t.Fatalf("expected clamp to base fare, got %d", got)
	}
}

func TestEstimateRounds(t *testing.T) {
	r := models.RideSettings{BaseFare: 0.4, CostPerKm: 1}
	if got := Estimate(1, 0, r); got != 1 {
		t.Fatalf("expected round to 1, got %d", got)
	}
}

func TestEstimatePerMinute(t *testing.T) {
	r := settings()
	r.CostPerMinute = 10
	if got := Estimate(0, 12, r); got != 320 {
		t.Fatalf("expected 320, got %d", got)
	}
}

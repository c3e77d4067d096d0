// Package fare implements the client-side fare estimate. The backend owns
// the authoritative fare; this keeps the quote on screen responsive while
// typing, so it must stay pure and cheap.
package fare

import (
	"math"

	"github.com/example/recab-client/internal/geo"
	"github.com/example/recab-client/internal/models"
)

// Estimate computes a fare from distance and duration under the given ride
// settings. Inputs are clamped to >= 0, surge applies only when enabled with
// a multiplier above 1, and the result is rounded to a whole currency unit.
func Estimate(distanceKm, durationMin float64, r models.RideSettings) int {
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		distanceKm = 0
	}
	if durationMin < 0 || math.IsNaN(durationMin) {
		durationMin = 0
	}
	total := r.BaseFare + r.CostPerKm*distanceKm + r.CostPerMinute*durationMin
	if r.SurgeEnabled && r.SurgeMultiplier > 1 {
		total *= r.SurgeMultiplier
	}
	if total < 0 {
		return 0
	}
	return int(math.Round(total))
}

// Distance is the trip distance estimate between pickup and destination.
func Distance(pickup, destination models.Coords) float64 {
	return geo.HaversineKm(pickup, destination)
}

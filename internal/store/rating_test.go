package store

import (
	"testing"

	"github.com/example/recab-client/internal/api"
	"github.com/example/recab-client/internal/models"
)

func TestSubmitRatingRunningAverage(t *testing.T) {
	f := newFixture(t, riderUser())
	f.roster.Upsert(models.DriverInfo{ID: "d9", Name: "Ngozi"})

	f.store.OpenRatingPrompt("d9", "")
	f.store.SubmitRating("d9", 4)
	f.store.Wait()

	d, _ := f.roster.Get("d9")
	if d.Rides != 1 || d.Rating != 4.0 {
		t.Fatalf("first rating: rides=%d rating=%v", d.Rides, d.Rating)
	}

	f.store.OpenRatingPrompt("d9", "")
	f.store.SubmitRating("d9", 5)
	f.store.Wait()

	d, _ = f.roster.Get("d9")
	if d.Rides != 2 || d.Rating != 4.5 {
		t.Fatalf("second rating: rides=%d rating=%v", d.Rides, d.Rating)
	}
}

func TestSubmitRatingAttachesToTripAndCloses(t *testing.T) {
	f := newFixture(t, riderUser())
	f.store.StartTrip("A", "B", "d1", intp(100))
	f.store.EndTrip(floatp(100))
	f.store.Wait()

	prompt := f.store.Rating()
	if !prompt.Open || prompt.TripID == "" {
		t.Fatalf("prompt = %+v", prompt)
	}

	f.store.SubmitRating(prompt.DriverID, 5)
	if f.store.Rating().Open {
		t.Fatal("prompt must close immediately")
	}
	f.store.Wait()

	hist := f.store.History()
	if hist[0].Rating == nil || *hist[0].Rating != 5 {
		t.Fatalf("history rating = %v", hist[0].Rating)
	}
	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	if len(f.backend.driverRatings) != 1 || len(f.backend.tripRatings) != 1 {
		t.Fatalf("server posts: driver=%v trip=%v", f.backend.driverRatings, f.backend.tripRatings)
	}
}

func TestSubmitRatingServerAggregatesWin(t *testing.T) {
	f := newFixture(t, riderUser())
	rides, rating := 200, 4.9
	f.backend.agg = &api.RatingAggregates{Rides: &rides, Rating: &rating}

	f.store.OpenRatingPrompt("d1", "")
	f.store.SubmitRating("d1", 1)
	f.store.Wait()

	d, _ := f.roster.Get("d1")
	if d.Rides != 200 || d.Rating != 4.9 {
		t.Fatalf("server aggregates must overwrite: rides=%d rating=%v", d.Rides, d.Rating)
	}
}

func TestSubmitRatingClampsStars(t *testing.T) {
	f := newFixture(t, riderUser())
	f.roster.Upsert(models.DriverInfo{ID: "d9", Name: "Ngozi"})

	f.store.OpenRatingPrompt("d9", "")
	f.store.SubmitRating("d9", 9)
	f.store.Wait()

	d, _ := f.roster.Get("d9")
	if d.Rating != 5.0 {
		t.Fatalf("rating = %v, want clamp to 5", d.Rating)
	}
}

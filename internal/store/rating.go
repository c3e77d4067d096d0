package store

import (
	"context"
	"math"

	"github.com/example/recab-client/internal/models"
)

// RatingPrompt is the single post-trip modal state.
type RatingPrompt struct {
	Open     bool
	DriverID string
	TripID   string
}

func (s *Store) OpenRatingPrompt(driverID, tripID string) {
	s.mu.Lock()
	s.rating = RatingPrompt{Open: true, DriverID: driverID, TripID: tripID}
	s.mu.Unlock()
}

func (s *Store) CloseRatingPrompt() {
	s.mu.Lock()
	s.rating = RatingPrompt{}
	s.mu.Unlock()
}

func (s *Store) Rating() RatingPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rating
}

// SubmitRating applies the running-average update optimistically, attaches
// the stars to the trip history entry, closes the prompt, and posts to the
// backend detached. Server-computed aggregates win over the local guess.
func (s *Store) SubmitRating(driverID string, stars int) {
	if stars < 1 {
		stars = 1
	}
	if stars > 5 {
		stars = 5
	}

	s.roster.Apply(driverID, func(d *models.DriverInfo) {
		newRides := d.Rides + 1
		newRating := (d.Rating*float64(d.Rides) + float64(stars)) / float64(newRides)
		d.Rides = newRides
		d.Rating = math.Round(newRating*10) / 10
	})

	s.mu.Lock()
	tripID := s.rating.TripID
	for i := range s.history {
		if tripID != "" && s.history[i].ID == tripID {
			r := stars
			s.history[i].Rating = &r
			s.history[i].UpdatedAt = s.now()
		}
	}
	s.rating = RatingPrompt{}
	s.persistHistoryLocked()
	s.mu.Unlock()

	s.background("rating sync", func(ctx context.Context) error {
		agg, err := s.backend.RateDriver(ctx, driverID, stars)
		if err != nil {
			return err
		}
		if agg != nil && (agg.Rides != nil || agg.Rating != nil) {
			s.roster.Apply(driverID, func(d *models.DriverInfo) {
				if agg.Rides != nil {
					d.Rides = *agg.Rides
				}
				if agg.Rating != nil {
					d.Rating = *agg.Rating
				}
			})
		}
		if tripID != "" {
			return s.backend.RateTrip(ctx, tripID, stars)
		}
		return nil
	})
}

package store

import (
	"context"
	"errors"
	"math"

	"github.com/example/recab-client/internal/apperrors"
	"github.com/example/recab-client/internal/geo"
	"github.com/example/recab-client/internal/models"
	"github.com/example/recab-client/internal/storage"
)

// StartTrip books a trip. The local record is applied synchronously with a
// temporary id; server persistence runs detached and reconciles the id on
// success. A failed persist leaves the optimistic record untouched.
func (s *Store) StartTrip(pickup, destination, driverID string, fee *int) models.Trip {
	s.mu.Lock()

	driver, ok := s.roster.Get(driverID)
	if !ok {
		// never refuse a trip over missing driver metadata
		driver, _ = s.roster.First()
	}
	resolvedDriver := driver.ID
	if resolvedDriver == "" {
		resolvedDriver = driverID
	}

	var distanceKm *float64
	var vehicle models.VehicleClass
	if p := s.pending; p != nil {
		vehicle = p.Vehicle
		if p.PickupCoords != nil && p.DestinationCoords != nil {
			d := geo.HaversineKm(*p.PickupCoords, *p.DestinationCoords)
			distanceKm = &d
		}
	}

	amount := 0
	switch {
	case fee != nil:
		amount = *fee
		if amount < 0 {
			amount = 0
		}
	case distanceKm != nil:
		amount = s.computeFareLocked(*distanceKm, 0)
	}

	now := s.now()
	trip := models.Trip{
		ID:          s.nextIDLocked("t"),
		Pickup:      pickup,
		Destination: destination,
		Fee:         amount,
		DriverID:    resolvedDriver,
		Status:      models.TripOngoing,
		StartedAt:   now,
		Vehicle:     vehicle,
		DistanceKm:  distanceKm,
		UpdatedAt:   now,
	}
	if u := s.identity.User(); u != nil {
		trip.UserID = u.ID
	}

	s.active = &trip
	s.history = append([]models.Trip{trip}, s.history...)
	s.pending = nil
	s.session.Delete(storage.KeyPendingTrip)
	s.persistHistoryLocked()
	s.mu.Unlock()

	if trip.UserID != "" {
		tempID := trip.ID
		s.background("trip create", func(ctx context.Context) error {
			serverID, err := s.backend.CreateTrip(ctx, trip)
			if err != nil {
				return err
			}
			if serverID != "" && serverID != tempID {
				s.ReconcileTripID(tempID, serverID)
			}
			return nil
		})
	}
	return trip
}

// ReconcileTripID swaps the optimistic id for the server-issued one across
// the active slot and history. Idempotent.
func (s *Store) ReconcileTripID(tempID, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == tempID {
			s.history[i].ID = serverID
		}
	}
	if s.active != nil && s.active.ID == tempID {
		s.active.ID = serverID
	}
	s.persistHistoryLocked()
}

// ReconcileTrip applies an authoritative server record, last-writer-wins by
// UpdatedAt. An older server record never clobbers newer local state.
func (s *Store) ReconcileTrip(server models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID != server.ID {
			continue
		}
		if server.UpdatedAt.Before(s.history[i].UpdatedAt) {
			return
		}
		s.history[i] = server
		if s.active != nil && s.active.ID == server.ID {
			if server.Status == models.TripOngoing {
				t := server
				s.active = &t
			} else {
				s.active = nil
			}
		}
		s.persistHistoryLocked()
		return
	}
}

// EndTrip closes the active trip: clamp the fee, complete the history entry,
// run the rider payment protocol, then open the rating prompt. Without an
// active trip it reports ErrNoActiveTrip and changes nothing.
func (s *Store) EndTrip(feeInput *float64) error {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return apperrors.ErrNoActiveTrip
	}
	amount := 0
	if feeInput != nil && !math.IsNaN(*feeInput) && !math.IsInf(*feeInput, 0) && *feeInput >= 0 {
		amount = int(math.Round(*feeInput))
	}
	trip := *s.active
	endedAt := s.now()
	for i := range s.history {
		if s.history[i].ID == trip.ID {
			s.history[i].Status = models.TripCompleted
			s.history[i].EndedAt = &endedAt
			s.history[i].Fee = amount
			s.history[i].UpdatedAt = endedAt
		}
	}
	s.active = nil
	s.persistHistoryLocked()
	s.mu.Unlock()

	u := s.identity.User()
	method := models.PaymentMethod("")
	if u != nil && u.Role == models.RoleRider && amount > 0 {
		method = s.resolvePayment(trip, amount)
	}

	// rating is never skipped over payment friction
	if trip.DriverID != "" {
		s.OpenRatingPrompt(trip.DriverID, trip.ID)
	}

	if u != nil {
		tripID, m := trip.ID, method
		s.background("trip end", func(ctx context.Context) error {
			_, err := s.backend.EndTrip(ctx, tripID, amount, m)
			return err
		})
	}
	return nil
}

// resolvePayment runs the wallet-or-cash protocol and returns the method the
// fee was ultimately settled with.
func (s *Store) resolvePayment(trip models.Trip, amount int) models.PaymentMethod {
	method := s.dialogs.ChoosePayment(amount)
	if method != models.PayWallet {
		s.dialogs.Notify("Pay cash", "Please pay cash to the driver.")
		return models.PayCash
	}

	status, err := s.wallet.Deduct(context.Background(), amount, trip.ID, trip.DriverID)
	switch {
	case err == nil && status == models.TxCompleted:
		s.dialogs.Notify("Payment successful", "Wallet charged and driver credited.")
		return models.PayWallet
	case err == nil:
		s.dialogs.Notify("Payment processing", "Recorded and marked as processing.")
		return models.PayWallet
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		s.dialogs.Notify("Wallet payment failed", "Please pay cash.")
		return models.PayCash
	default:
		s.dialogs.Notify("Network error", "Could not reach server. Please pay cash.")
		return models.PayCash
	}
}

package store

import (
	"context"

	"github.com/example/recab-client/internal/fare"
	"github.com/example/recab-client/internal/models"
)

// DefaultSettings is the pricing/payment policy used until the first
// successful fetch.
func DefaultSettings() models.AppSettings {
	return models.AppSettings{
		AppName:  "reCab",
		Timezone: "Africa/Lagos",
		Currency: "NGN",
		Ride: models.RideSettings{
			BaseFare:        200,
			CostPerKm:       50,
			SurgeMultiplier: 1,
			MaxDistanceKm:   1000,
		},
		Payments: models.PaymentSettings{
			DefaultMethods:    []string{"cash", "wallet"},
			CommissionPercent: 5,
			WithdrawalMin:     1000,
			WalletTopupMax:    200000,
		},
	}
}

func (s *Store) Settings() models.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// TopupMax reports the current wallet top-up policy limit.
func (s *Store) TopupMax() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Payments.WalletTopupMax
}

// RefreshSettings replaces the snapshot with the server's, last-fetched-wins.
func (s *Store) RefreshSettings(ctx context.Context) error {
	fetched, err := s.backend.FetchSettings(ctx)
	if err != nil {
		return err
	}
	if fetched == nil {
		return nil
	}
	s.mu.Lock()
	s.settings = *fetched
	s.mu.Unlock()
	return nil
}

// UpdateSettings applies the patch locally first, then pushes it to the
// server; an authoritative response overwrites the local merge. The error is
// returned so admin UI can report a failed push, but the local snapshot
// keeps the merged values either way.
func (s *Store) UpdateSettings(ctx context.Context, patch models.SettingsPatch) error {
	s.mu.Lock()
	applyPatch(&s.settings, patch)
	s.mu.Unlock()

	updated, err := s.backend.UpdateSettings(ctx, patch)
	if err != nil {
		return err
	}
	if updated != nil {
		s.mu.Lock()
		s.settings = *updated
		s.mu.Unlock()
	}
	return nil
}

// ComputeFare prices a ride with the current settings snapshot.
func (s *Store) ComputeFare(distanceKm, durationMin float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.computeFareLocked(distanceKm, durationMin)
}

func (s *Store) computeFareLocked(distanceKm, durationMin float64) int {
	return fare.Estimate(distanceKm, durationMin, s.settings.Ride)
}

func applyPatch(dst *models.AppSettings, p models.SettingsPatch) {
	if p.AppName != nil {
		dst.AppName = *p.AppName
	}
	if p.Timezone != nil {
		dst.Timezone = *p.Timezone
	}
	if p.Currency != nil {
		dst.Currency = *p.Currency
	}
	if r := p.Ride; r != nil {
		if r.BaseFare != nil {
			dst.Ride.BaseFare = *r.BaseFare
		}
		if r.CostPerKm != nil {
			dst.Ride.CostPerKm = *r.CostPerKm
		}
		if r.CostPerMinute != nil {
			dst.Ride.CostPerMinute = *r.CostPerMinute
		}
		if r.SurgeEnabled != nil {
			dst.Ride.SurgeEnabled = *r.SurgeEnabled
		}
		if r.SurgeMultiplier != nil {
			dst.Ride.SurgeMultiplier = *r.SurgeMultiplier
		}
		if r.MinDistanceKm != nil {
			dst.Ride.MinDistanceKm = *r.MinDistanceKm
		}
		if r.MaxDistanceKm != nil {
			dst.Ride.MaxDistanceKm = *r.MaxDistanceKm
		}
		if r.CancelFee != nil {
			dst.Ride.CancelFee = *r.CancelFee
		}
		if r.WaitingPerMinute != nil {
			dst.Ride.WaitingPerMinute = *r.WaitingPerMinute
		}
	}
	if pm := p.Payments; pm != nil {
		if pm.DefaultMethods != nil {
			dst.Payments.DefaultMethods = pm.DefaultMethods
		}
		if pm.CommissionPercent != nil {
			dst.Payments.CommissionPercent = *pm.CommissionPercent
		}
		if pm.WithdrawalMin != nil {
			dst.Payments.WithdrawalMin = *pm.WithdrawalMin
		}
		if pm.WithdrawalFee != nil {
			dst.Payments.WithdrawalFee = *pm.WithdrawalFee
		}
		if pm.WalletTopupMax != nil {
			dst.Payments.WalletTopupMax = *pm.WalletTopupMax
		}
		if pm.AdminUserID != nil {
			dst.Payments.AdminUserID = *pm.AdminUserID
		}
	}
}

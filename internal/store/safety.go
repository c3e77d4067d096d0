package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/recab-client/internal/models"
	"github.com/example/recab-client/internal/observability"
)

// SendSOS returns the number of contacts that will be alerted; the dispatch
// itself runs detached so the caller is never blocked by geolocation or
// network latency. Every step is best-effort: partial information still
// produces an alert.
func (s *Store) SendSOS(message string) int {
	contacts := s.Contacts()
	s.background("sos dispatch", func(ctx context.Context) error {
		s.dispatchSOS(ctx, message, contacts)
		return nil
	})
	return len(contacts)
}

func (s *Store) dispatchSOS(ctx context.Context, message string, contacts []models.EmergencyContact) {
	name := "Passenger"
	if u := s.identity.User(); u != nil {
		if n := u.FullName(); n != "" {
			name = n
		}
	}

	locText := "Unavailable"
	if s.locator != nil {
		gctx, cancel := context.WithTimeout(ctx, s.geoTimeout)
		if c, err := s.locator.Current(gctx); err == nil {
			locText = fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lng)
		}
		cancel()
	}

	driverID, tripID := s.tripContext()
	driverName, driverPhone, vehicleText, plate := "Unknown", "Unknown", "Unknown", "Unknown"
	if driverID != "" {
		if d, err := s.backend.DriverByID(ctx, driverID); err == nil && d != nil {
			if n := d.DisplayName(); n != "" {
				driverName = n
			}
			if d.Phone != "" {
				driverPhone = d.Phone
			}
			if v := strings.TrimSpace(d.VehicleMake + " " + d.VehicleModel); v != "" {
				vehicleText = v
			}
			if d.PlateNumber != "" {
				plate = d.PlateNumber
			}
		}
	}

	trackURL := ""
	if tripID != "" {
		if u, err := s.backend.ShareLink(ctx, tripID); err == nil {
			trackURL = u
		}
	}

	body := strings.TrimSpace(message)
	if body == "" {
		var b strings.Builder
		fmt.Fprintf(&b, "EMERGENCY ALERT\n\n%s has triggered an SOS alert on reCab.\n\n", name)
		fmt.Fprintf(&b, "Last known location: %s\n", locText)
		fmt.Fprintf(&b, "Driver: %s, phone %s\n", driverName, driverPhone)
		fmt.Fprintf(&b, "Vehicle: %s, plate %s\n", vehicleText, plate)
		if trackURL != "" {
			fmt.Fprintf(&b, "Live tracking: %s\n", trackURL)
		}
		fmt.Fprintf(&b, "\nPlease check on %s immediately. If in danger, contact local emergency services.\n\n- reCab Safety System", name)
		body = b.String()
	}

	delivered := 0
	for _, c := range contacts {
		if err := s.backend.SendSafety(ctx, c.Phone, body); err == nil {
			delivered++
		}
	}
	observability.SOSDispatched.Inc()
	s.log.Info("sos dispatched", "contacts", len(contacts), "delivered", delivered)
}

// tripContext picks the active trip's driver, falling back to the newest
// ongoing history entry that has one.
func (s *Store) tripContext() (driverID, tripID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.DriverID != "" {
		return s.active.DriverID, s.active.ID
	}
	for _, t := range s.history {
		if t.Status == models.TripOngoing && t.DriverID != "" {
			return t.DriverID, t.ID
		}
	}
	return "", ""
}

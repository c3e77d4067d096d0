package store

import (
	"context"
	"regexp"
	"strings"

	"github.com/example/recab-client/internal/models"
	"github.com/example/recab-client/internal/storage"
)

var driverCodeRe = regexp.MustCompile(`(?i)d\d+`)

// VerifyDriver resolves a scanned or typed driver code. Order: local roster,
// session lookup cache, then the backend; a backend hit is cached and folded
// into the roster.
func (s *Store) VerifyDriver(ctx context.Context, codeOrID string) (models.DriverInfo, bool) {
	normalized := strings.TrimSpace(codeOrID)
	if normalized == "" {
		return models.DriverInfo{}, false
	}
	id := strings.ToLower(normalized)
	if m := driverCodeRe.FindString(normalized); m != "" {
		id = strings.ToLower(m)
	}

	if d, ok := s.roster.FindByCode(id); ok {
		return d, true
	}

	cacheKey := "lookup:" + id
	var cached models.DriverInfo
	if storage.GetJSON(s.session, cacheKey, &cached) && cached.ID != "" {
		s.roster.Upsert(cached)
		return cached, true
	}

	rec, err := s.backend.LookupCode(ctx, id)
	if err != nil || rec == nil {
		return models.DriverInfo{}, false
	}
	info := models.DriverInfo{
		ID:     rec.ID,
		Name:   rec.DisplayName(),
		Rating: rec.Rating,
		Rides:  rec.Rides,
	}
	s.roster.Upsert(info)
	storage.PutJSON(s.session, cacheKey, info)
	return info, true
}

// ApplyOnboarding folds a partially completed driver profile into its roster
// entry. Empty fields leave the current value in place; an unknown driver id
// reports false and changes nothing.
func (s *Store) ApplyOnboarding(driverID string, p models.UserProfile) bool {
	return s.roster.Apply(driverID, func(d *models.DriverInfo) {
		if name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName)); name != "" {
			d.Name = name
		}
		if p.ProfilePhoto != "" {
			d.Avatar = p.ProfilePhoto
		}
		if p.DriverLicenseNumber != "" {
			d.LicenseNo = p.DriverLicenseNumber
		}
		if p.DriverLicensePhoto != "" {
			d.LicensePic = p.DriverLicensePhoto
		}
		if p.VehicleType != "" {
			d.VehicleType = p.VehicleType
		}
	})
}

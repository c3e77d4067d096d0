package geo

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/example/recab-client/internal/models"
)

// HaversineKm returns the great-circle distance between two points in
// kilometers using the spherical law of haversines (Earth radius 6371 km).
func HaversineKm(a, b models.Coords) float64 {
	const R = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + sinLng*sinLng*math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return R * c
}

// Index is the in-memory driver roster. New drivers are prepended so the
// most recently seen appear first; First is the fallback when a trip
// references an unknown driver id.
type Index struct {
	mu      sync.RWMutex
	order   []string
	drivers map[string]models.DriverInfo
}

func NewIndex() *Index {
	return &Index{drivers: make(map[string]models.DriverInfo)}
}

// Upsert merges the given fields into an existing driver or prepends a new
// one with zero-value defaults filled.
func (g *Index) Upsert(d models.DriverInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d.Updated = time.Now()
	if prev, ok := g.drivers[d.ID]; ok {
		if d.Name == "" {
			d.Name = prev.Name
		}
		if d.Avatar == "" {
			d.Avatar = prev.Avatar
		}
		if d.VehicleType == "" {
			d.VehicleType = prev.VehicleType
		}
		if d.LicenseNo == "" {
			d.LicenseNo = prev.LicenseNo
		}
		if d.LicensePic == "" {
			d.LicensePic = prev.LicensePic
		}
		if d.Rating == 0 {
			d.Rating = prev.Rating
		}
		if d.Rides == 0 {
			d.Rides = prev.Rides
		}
		if d.EtaMin == 0 {
			d.EtaMin = prev.EtaMin
		}
		if d.DistanceKm == 0 {
			d.DistanceKm = prev.DistanceKm
		}
		if d.Price == 0 {
			d.Price = prev.Price
		}
		if d.Passengers == 0 {
			d.Passengers = prev.Passengers
		}
		g.drivers[d.ID] = d
		return
	}
	if d.Name == "" {
		d.Name = "Unknown"
	}
	if d.Passengers == 0 {
		d.Passengers = 1
	}
	g.drivers[d.ID] = d
	g.order = append([]string{d.ID}, g.order...)
}

func (g *Index) Get(id string) (models.DriverInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.drivers[id]
	return d, ok
}

// First returns the head of the roster, used as the fallback driver.
func (g *Index) First() (models.DriverInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.order) == 0 {
		return models.DriverInfo{}, false
	}
	return g.drivers[g.order[0]], true
}

// Snapshot returns drivers in roster order.
func (g *Index) Snapshot() []models.DriverInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.DriverInfo, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.drivers[id])
	}
	return out
}

// Nearest returns up to limit drivers ordered by reported distance.
func (g *Index) Nearest(limit int) []models.DriverInfo {
	arr := g.Snapshot()
	// partial selection sort for top-N
	n := limit
	if n > len(arr) {
		n = len(arr)
	}
	for i := 0; i < n; i++ {
		minIdx := i
		for j := i + 1; j < len(arr); j++ {
			if arr[j].DistanceKm < arr[minIdx].DistanceKm {
				minIdx = j
			}
		}
		arr[i], arr[minIdx] = arr[minIdx], arr[i]
	}
	return arr[:n]
}

// Apply mutates one driver in place under the roster lock.
func (g *Index) Apply(id string, fn func(*models.DriverInfo)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.drivers[id]
	if !ok {
		return false
	}
	fn(&d)
	d.Updated = time.Now()
	g.drivers[id] = d
	return true
}

// FindByCode resolves a driver by exact id, case-insensitively.
func (g *Index) FindByCode(code string) (models.DriverInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	lower := strings.ToLower(strings.TrimSpace(code))
	for id, d := range g.drivers {
		if strings.ToLower(id) == lower {
			return d, true
		}
	}
	return models.DriverInfo{}, false
}

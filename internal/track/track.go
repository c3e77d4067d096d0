// Package track moves live location data: outbound driver pings while a
// trip is active, and the inbound presence stream.
package track

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/recab-client/internal/api"
	"github.com/example/recab-client/internal/models"
)

// Backend is the API surface the publisher needs.
type Backend interface {
	PingLocation(ctx context.Context, tripID string, lat, lng, speed float64) error
	PublishPresence(ctx context.Context, entry models.PresenceEntry) error
	Track(ctx context.Context, tripID string) (*api.TrackResult, error)
}

// Publisher forwards position samples for the active trip, throttled so a
// chatty location source cannot flood the backend.
type Publisher struct {
	backend  Backend
	throttle time.Duration
	now      func() time.Time
	log      *slog.Logger

	mu   sync.Mutex
	last time.Time
}

func NewPublisher(backend Backend, throttle time.Duration, log *slog.Logger) *Publisher {
	return &Publisher{backend: backend, throttle: throttle, now: time.Now, log: log}
}

// Publish sends one sample unless it falls inside the throttle window.
// Returns whether the sample went out. Send failures are logged, not
// surfaced; the next sample simply tries again.
func (p *Publisher) Publish(ctx context.Context, tripID string, pt models.TrackPoint) bool {
	p.mu.Lock()
	if !p.last.IsZero() && p.now().Sub(p.last) < p.throttle {
		p.mu.Unlock()
		return false
	}
	p.last = p.now()
	p.mu.Unlock()

	if err := p.backend.PingLocation(ctx, tripID, pt.Lat, pt.Lng, pt.Speed); err != nil {
		p.log.Debug("location ping dropped", "trip", tripID, "err", err)
	}
	return true
}

// Run consumes samples until ctx is cancelled or the channel closes. The
// loop is the publisher's whole lifetime: every exit path releases it.
func (p *Publisher) Run(ctx context.Context, tripID string, samples <-chan models.TrackPoint) {
	for {
		select {
		case <-ctx.Done():
			return
		case pt, ok := <-samples:
			if !ok {
				return
			}
			p.Publish(ctx, tripID, pt)
		}
	}
}

// Announce publishes an online/offline presence flip.
func (p *Publisher) Announce(ctx context.Context, id string, pt models.TrackPoint, online bool) error {
	return p.backend.PublishPresence(ctx, models.PresenceEntry{ID: id, Lat: pt.Lat, Lng: pt.Lng, Online: online})
}

// Fetch returns the recorded path for a trip.
func (p *Publisher) Fetch(ctx context.Context, tripID string) (*api.TrackResult, error) {
	return p.backend.Track(ctx, tripID)
}

// StreamPresence consumes the server-sent presence feed, invoking fn for
// every event until ctx ends or the stream closes. The caller owns retry
// policy; one call is one connection.
func StreamPresence(ctx context.Context, httpc *http.Client, streamURL string, fn func([]models.PresenceEntry)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		var payload struct {
			Presence []models.PresenceEntry `json:"presence"`
		}
		if json.Unmarshal([]byte(data), &payload) == nil && payload.Presence != nil {
			fn(payload.Presence)
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return sc.Err()
}

// Package store is the application-state container: the single place that
// owns trip, contact, rating, and settings state and coordinates optimistic
// local mutation with background server reconciliation. All collaborators
// arrive as narrow interfaces so tests run against fakes.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/recab-client/internal/api"
	"github.com/example/recab-client/internal/geo"
	"github.com/example/recab-client/internal/models"
	"github.com/example/recab-client/internal/observability"
	"github.com/example/recab-client/internal/storage"
)

// Backend is the slice of the API client the store drives.
type Backend interface {
	CreateTrip(ctx context.Context, t models.Trip) (string, error)
	EndTrip(ctx context.Context, tripID string, fee int, method models.PaymentMethod) (*models.Trip, error)
	RateTrip(ctx context.Context, tripID string, stars int) error
	RateDriver(ctx context.Context, driverID string, stars int) (*api.RatingAggregates, error)
	Contacts(ctx context.Context, userID string) ([]models.EmergencyContact, error)
	AddContact(ctx context.Context, userID string, contact models.EmergencyContact) (string, error)
	RemoveContact(ctx context.Context, userID, contactID string) error
	SendSafety(ctx context.Context, to, message string) error
	DriverByID(ctx context.Context, id string) (*models.DriverRecord, error)
	LookupCode(ctx context.Context, code string) (*models.DriverRecord, error)
	ShareLink(ctx context.Context, tripID string) (string, error)
	FetchSettings(ctx context.Context) (*models.AppSettings, error)
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.AppSettings, error)
}

// Identity answers "who is acting" without exposing the whole session holder.
type Identity interface {
	User() *models.UserProfile
}

// Charger settles trip fees from the wallet mirror.
type Charger interface {
	Deduct(ctx context.Context, amount int, tripID, driverID string) (models.TxStatus, error)
}

// Dialogs is the blocking user-interaction surface. The payment choice and
// the outcome notifications run through it so tests can script answers.
type Dialogs interface {
	ChoosePayment(fee int) models.PaymentMethod
	Notify(title, message string)
}

// Locator reads the current device position.
type Locator interface {
	Current(ctx context.Context) (models.Coords, error)
}

type Deps struct {
	Backend    Backend
	Identity   Identity
	Wallet     Charger
	Dialogs    Dialogs
	Locator    Locator
	Roster     *geo.Index
	Session    storage.KV
	Durable    storage.KV
	GeoTimeout time.Duration
	Log        *slog.Logger
}

type Store struct {
	backend    Backend
	identity   Identity
	wallet     Charger
	dialogs    Dialogs
	locator    Locator
	roster     *geo.Index
	session    storage.KV
	durable    storage.KV
	geoTimeout time.Duration
	validate   *validator.Validate
	now        func() time.Time
	log        *slog.Logger

	mu       sync.Mutex
	seq      int64
	active   *models.Trip
	history  []models.Trip
	pending  *models.PendingTrip
	contacts []models.EmergencyContact
	rating   RatingPrompt
	settings models.AppSettings

	wg sync.WaitGroup
}

func New(d Deps) *Store {
	s := &Store{
		backend:    d.Backend,
		identity:   d.Identity,
		wallet:     d.Wallet,
		dialogs:    d.Dialogs,
		locator:    d.Locator,
		roster:     d.Roster,
		session:    d.Session,
		durable:    d.Durable,
		geoTimeout: d.GeoTimeout,
		validate:   validator.New(),
		now:        time.Now,
		log:        d.Log,
		settings:   DefaultSettings(),
	}
	if s.geoTimeout <= 0 {
		s.geoTimeout = 3 * time.Second
	}
	s.restore()
	return s
}

// restore rebuilds state persisted by a previous run. Missing or corrupt
// entries read as absent.
func (s *Store) restore() {
	storage.GetJSON(s.durable, storage.KeyTripHistory, &s.history)
	storage.GetJSON(s.durable, storage.KeyContacts, &s.contacts)
	var p models.PendingTrip
	if storage.GetJSON(s.session, storage.KeyPendingTrip, &p) {
		s.pending = &p
	}
	for i := range s.history {
		if s.history[i].Status == models.TripOngoing && s.active == nil {
			t := s.history[i]
			s.active = &t
		}
	}
}

// background runs fn detached. Failures land in the diagnostic sink instead
// of being discarded.
func (s *Store) background(task string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(context.Background()); err != nil {
			observability.BackgroundFailures.WithLabelValues(task).Inc()
			s.log.Warn("background task failed", "task", task, "err", err)
		}
	}()
}

// Wait blocks until all detached work has finished. Test hook and shutdown
// barrier.
func (s *Store) Wait() { s.wg.Wait() }

// SetPending replaces the trip draft and mirrors it to session storage.
func (s *Store) SetPending(p *models.PendingTrip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = p
	if p == nil {
		s.session.Delete(storage.KeyPendingTrip)
		return
	}
	storage.PutJSON(s.session, storage.KeyPendingTrip, p)
}

func (s *Store) Pending() *models.PendingTrip {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// ActiveTrip returns the single locally-tracked ongoing trip, if any.
func (s *Store) ActiveTrip() *models.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	t := *s.active
	return &t
}

// History returns trips newest first.
func (s *Store) History() []models.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Trip, len(s.history))
	copy(out, s.history)
	return out
}

// nextIDLocked builds a time-based temporary id; the sequence keeps ids
// distinct within one millisecond.
func (s *Store) nextIDLocked(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s_%d_%d", prefix, s.now().UnixMilli(), s.seq)
}

func (s *Store) persistHistoryLocked() {
	storage.PutJSON(s.durable, storage.KeyTripHistory, s.history)
}

func (s *Store) persistContactsLocked() {
	storage.PutJSON(s.durable, storage.KeyContacts, s.contacts)
}

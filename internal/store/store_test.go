package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/example/recab-client/internal/api"
	"github.com/example/recab-client/internal/geo"
	"github.com/example/recab-client/internal/models"
	"github.com/example/recab-client/internal/storage"
)

type endCall struct {
	TripID string
	Fee    int
	Method models.PaymentMethod
}

type safetyCall struct {
	To      string
	Message string
}

type fakeBackend struct {
	mu sync.Mutex

	createErr error
	createID  string
	created   []models.Trip

	ended []endCall

	driverRatings []int
	tripRatings   []int
	agg           *api.RatingAggregates
	rateErr       error

	serverContacts []models.EmergencyContact
	addContactID   string
	addContactErr  error
	addedContacts  []models.EmergencyContact
	removed        []string

	safety []safetyCall

	drivers  map[string]*models.DriverRecord
	lookup   map[string]*models.DriverRecord
	lookups  int
	shareURL string

	settings    *models.AppSettings
	settingsErr error
	updateErr   error
	updated     *models.AppSettings
}

func (f *fakeBackend) CreateTrip(_ context.Context, t models.Trip) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, t)
	return f.createID, nil
}

func (f *fakeBackend) EndTrip(_ context.Context, tripID string, fee int, method models.PaymentMethod) (*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, endCall{TripID: tripID, Fee: fee, Method: method})
	return nil, nil
}

func (f *fakeBackend) RateTrip(_ context.Context, _ string, stars int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tripRatings = append(f.tripRatings, stars)
	return nil
}

func (f *fakeBackend) RateDriver(_ context.Context, _ string, stars int) (*api.RatingAggregates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rateErr != nil {
		return nil, f.rateErr
	}
	f.driverRatings = append(f.driverRatings, stars)
	return f.agg, nil
}

func (f *fakeBackend) Contacts(context.Context, string) ([]models.EmergencyContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.serverContacts, nil
}

func (f *fakeBackend) AddContact(_ context.Context, _ string, c models.EmergencyContact) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addContactErr != nil {
		return "", f.addContactErr
	}
	f.addedContacts = append(f.addedContacts, c)
	return f.addContactID, nil
}

func (f *fakeBackend) RemoveContact(_ context.Context, _ string, contactID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, contactID)
	return nil
}

func (f *fakeBackend) SendSafety(_ context.Context, to, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.safety = append(f.safety, safetyCall{To: to, Message: message})
	return nil
}

func (f *fakeBackend) DriverByID(_ context.Context, id string) (*models.DriverRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.drivers[id]; ok {
		return d, nil
	}
	return nil, nil
}

func (f *fakeBackend) LookupCode(_ context.Context, code string) (*models.DriverRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if d, ok := f.lookup[code]; ok {
		return d, nil
	}
	return nil, nil
}

func (f *fakeBackend) ShareLink(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shareURL == "" {
		return "", errors.New("no share link")
	}
	return f.shareURL, nil
}

func (f *fakeBackend) FetchSettings(context.Context) (*models.AppSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings, f.settingsErr
}

func (f *fakeBackend) UpdateSettings(context.Context, models.SettingsPatch) (*models.AppSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updated, nil
}

func (f *fakeBackend) endedCalls() []endCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]endCall, len(f.ended))
	copy(out, f.ended)
	return out
}

func (f *fakeBackend) safetyCalls() []safetyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]safetyCall, len(f.safety))
	copy(out, f.safety)
	return out
}

type fakeIdentity struct {
	mu   sync.Mutex
	user *models.UserProfile
}

func (f *fakeIdentity) User() *models.UserProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return nil
	}
	u := *f.user
	return &u
}

type deductCall struct {
	Amount   int
	TripID   string
	DriverID string
}

type fakeCharger struct {
	mu     sync.Mutex
	status models.TxStatus
	err    error
	calls  []deductCall
}

func (f *fakeCharger) Deduct(_ context.Context, amount int, tripID, driverID string) (models.TxStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, deductCall{Amount: amount, TripID: tripID, DriverID: driverID})
	return f.status, f.err
}

type fakeDialogs struct {
	mu      sync.Mutex
	choice  models.PaymentMethod
	asked   []int
	notices []string
}

func (f *fakeDialogs) ChoosePayment(fee int) models.PaymentMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, fee)
	return f.choice
}

func (f *fakeDialogs) Notify(title, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, title)
}

type fakeLocator struct {
	coords models.Coords
	err    error
}

func (f *fakeLocator) Current(context.Context) (models.Coords, error) {
	return f.coords, f.err
}

type fixture struct {
	store    *Store
	backend  *fakeBackend
	identity *fakeIdentity
	charger  *fakeCharger
	dialogs  *fakeDialogs
	locator  *fakeLocator
	roster   *geo.Index
	session  *storage.Memory
	durable  *storage.Memory
}

func newFixture(t *testing.T, user *models.UserProfile) *fixture {
	t.Helper()
	f := &fixture{
		backend:  &fakeBackend{},
		identity: &fakeIdentity{user: user},
		charger:  &fakeCharger{status: models.TxCompleted},
		dialogs:  &fakeDialogs{choice: models.PayCash},
		locator:  &fakeLocator{coords: models.Coords{Lat: 6.5, Lng: 3.4}},
		roster:   geo.NewIndex(),
		session:  storage.NewMemory(),
		durable:  storage.NewMemory(),
	}
	f.roster.Upsert(models.DriverInfo{ID: "d2", Name: "Tunde", Rating: 4.2, Rides: 10})
	f.roster.Upsert(models.DriverInfo{ID: "d1", Name: "Kunle", Rating: 4.8, Rides: 120})
	f.store = New(Deps{
		Backend:  f.backend,
		Identity: f.identity,
		Wallet:   f.charger,
		Dialogs:  f.dialogs,
		Locator:  f.locator,
		Roster:   f.roster,
		Session:  f.session,
		Durable:  f.durable,
		Log:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	return f
}

func riderUser() *models.UserProfile {
	return &models.UserProfile{ID: "u1", FirstName: "Ada", LastName: "Obi", Role: models.RoleRider, WalletBalance: 10000}
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/example/recab-client/internal/apperrors"
	"github.com/example/recab-client/internal/models"
)

// Client is the typed surface over the resolver: one method per backend
// endpoint. Coordinators consume narrow interfaces satisfied by this type so
// tests can substitute fakes without any HTTP.
type Client struct {
	rs *Resolver
}

func NewClient(rs *Resolver) *Client { return &Client{rs: rs} }

// RatingAggregates is the authoritative answer to a driver rating post.
// Nil fields mean the server did not recompute that aggregate.
type RatingAggregates struct {
	Rides  *int     `json:"rides"`
	Rating *float64 `json:"rating"`
}

type TrackResult struct {
	Path []models.TrackPoint `json:"path"`
	Last *models.TrackPoint  `json:"last"`
}

func (c *Client) FetchSettings(ctx context.Context) (*models.AppSettings, error) {
	res, err := c.rs.Do(ctx, http.MethodGet, "/api/settings", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Settings *models.AppSettings `json:"settings"`
	}
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return out.Settings, nil
}

func (c *Client) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.AppSettings, error) {
	res, err := c.rs.Do(ctx, http.MethodPut, "/api/settings", patch)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, apperrors.ServerMessage("Settings update failed", serverMessage(res))
	}
	var out struct {
		Settings *models.AppSettings `json:"settings"`
	}
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return out.Settings, nil
}

func (c *Client) CreateTrip(ctx context.Context, t models.Trip) (string, error) {
	body := map[string]any{
		"userId":      t.UserID,
		"pickup":      t.Pickup,
		"destination": t.Destination,
		"fee":         t.Fee,
		"driverId":    t.DriverID,
		"vehicle":     t.Vehicle,
		"distanceKm":  t.DistanceKm,
		"status":      t.Status,
		"startedAt":   t.StartedAt.Format(time.RFC3339),
	}
	res, err := c.rs.Do(ctx, http.MethodPost, "/api/trips", body)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", apperrors.ServerMessage("Trip create failed", serverMessage(res))
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := res.JSON(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) EndTrip(ctx context.Context, tripID string, fee int, method models.PaymentMethod) (*models.Trip, error) {
	body := map[string]any{"fee": fee}
	if method != "" {
		body["paymentMethod"] = method
	}
	res, err := c.rs.Do(ctx, http.MethodPost, "/api/trips/"+url.PathEscape(tripID)+"/end", body)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, apperrors.ServerMessage("Trip end failed", serverMessage(res))
	}
	var out struct {
		Trip *models.Trip `json:"trip"`
	}
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return out.Trip, nil
}

func (c *Client) RateTrip(ctx context.Context, tripID string, stars int) error {
	return c.post(ctx, "/api/trips/"+url.PathEscape(tripID)+"/rate", map[string]any{"stars": stars}, nil, "trip rating")
}

func (c *Client) RateDriver(ctx context.Context, driverID string, stars int) (*RatingAggregates, error) {
	var agg RatingAggregates
	err := c.post(ctx, "/api/drivers/"+url.PathEscape(driverID)+"/rate", map[string]any{"stars": stars}, &agg, "driver rating")
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (c *Client) ShareLink(ctx context.Context, tripID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.post(ctx, "/api/trips/"+url.PathEscape(tripID)+"/share", nil, &out, "share link")
	return out.URL, err
}

type DeductInput struct {
	UserID   string `json:"userId"`
	Amount   int    `json:"amount"`
	TripID   string `json:"tripId,omitempty"`
	DriverID string `json:"driverId,omitempty"`
	Note     string `json:"note,omitempty"`
}

func (c *Client) WalletDeduct(ctx context.Context, in DeductInput) error {
	return c.post(ctx, "/api/wallet/deduct", in, nil, "wallet payment")
}

type TransferInput struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Amount int    `json:"amount"`
	Note   string `json:"note,omitempty"`
}

func (c *Client) WalletTransfer(ctx context.Context, in TransferInput) error {
	return c.post(ctx, "/api/wallet/transfer", in, nil, "wallet transfer")
}

type RequestInput struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Amount int    `json:"amount"`
	Note   string `json:"note,omitempty"`
	TripID string `json:"tripId,omitempty"`
}

func (c *Client) WalletRequest(ctx context.Context, in RequestInput) error {
	return c.post(ctx, "/api/wallet/request", in, nil, "wallet request")
}

type TopupInput struct {
	UserID string `json:"userId"`
	Amount int    `json:"amount"`
}

func (c *Client) WalletTopup(ctx context.Context, in TopupInput) error {
	return c.post(ctx, "/api/wallet/topup", in, nil, "wallet top-up")
}

func (c *Client) Transactions(ctx context.Context, userID string) ([]models.WalletTransaction, error) {
	res, err := c.rs.Do(ctx, http.MethodGet, "/api/wallet/transactions/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Transactions []models.WalletTransaction `json:"transactions"`
	}
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

func (c *Client) WalletRequests(ctx context.Context, userID string) ([]models.WalletTransaction, error) {
	res, err := c.rs.Do(ctx, http.MethodGet, "/api/wallet/requests/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Requests []models.WalletTransaction `json:"requests"`
	}
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

func (c *Client) Contacts(ctx context.Context, userID string) ([]models.EmergencyContact, error) {
	res, err := c.rs.Do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/contacts", nil)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, apperrors.ErrNotFound
	}
	var out struct {
		Contacts []models.EmergencyContact `json:"contacts"`
	}
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return out.Contacts, nil
}

func (c *Client) AddContact(ctx context.Context, userID string, contact models.EmergencyContact) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/api/users/"+url.PathEscape(userID)+"/contacts", contact, &out, "contact save")
	return out.ID, err
}

func (c *Client) RemoveContact(ctx context.Context, userID, contactID string) error {
	res, err := c.rs.Do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(userID)+"/contacts/"+url.PathEscape(contactID), nil)
	if err != nil {
		return err
	}
	if !res.OK() {
		return apperrors.ServerMessage("Contact remove failed", serverMessage(res))
	}
	return nil
}

func (c *Client) SendSafety(ctx context.Context, to, message string) error {
	return c.post(ctx, "/api/safety", map[string]string{"to": to, "message": message}, nil, "safety alert")
}

// DriverByID reads through the per-URL response cache; driver documents are
// refetched at most once per TTL.
func (c *Client) DriverByID(ctx context.Context, id string) (*models.DriverRecord, error) {
	res, err := c.rs.CachedGet(ctx, "/api/drivers/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var out struct {
		Driver *models.DriverRecord `json:"driver"`
	}
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return out.Driver, nil
}

func (c *Client) UserByID(ctx context.Context, id string) (*models.UserProfile, error) {
	res, err := c.rs.CachedGet(ctx, "/api/users/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var out struct {
		User *models.UserProfile `json:"user"`
	}
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) LookupCode(ctx context.Context, code string) (*models.DriverRecord, error) {
	res, err := c.rs.Do(ctx, http.MethodGet, "/api/lookup/"+url.PathEscape(code), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Driver *models.DriverRecord `json:"driver"`
	}
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return out.Driver, nil
}

func (c *Client) Presence(ctx context.Context) ([]models.PresenceEntry, error) {
	res, err := c.rs.Do(ctx, http.MethodGet, "/api/presence", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Presence []models.PresenceEntry `json:"presence"`
	}
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return out.Presence, nil
}

func (c *Client) PublishPresence(ctx context.Context, entry models.PresenceEntry) error {
	return c.post(ctx, "/api/presence", entry, nil, "presence update")
}

func (c *Client) PingLocation(ctx context.Context, tripID string, lat, lng, speed float64) error {
	body := map[string]float64{"lat": lat, "lng": lng, "speed": speed}
	return c.post(ctx, "/api/trips/"+url.PathEscape(tripID)+"/loc", body, nil, "location ping")
}

func (c *Client) Track(ctx context.Context, tripID string) (*TrackResult, error) {
	res, err := c.rs.Do(ctx, http.MethodGet, "/api/trips/"+url.PathEscape(tripID)+"/track", nil)
	if err != nil {
		return nil, err
	}
	var out TrackResult
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any, op string) error {
	res, err := c.rs.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return apperrors.Unreachable(op)
	}
	if !res.OK() {
		return apperrors.ServerMessage("Request failed", serverMessage(res))
	}
	if out != nil {
		// tolerate empty or non-JSON success bodies
		_ = res.JSON(out)
	}
	return nil
}

// serverMessage extracts the backend's error text when present so
// business-rule failures surface verbatim.
func serverMessage(res *Result) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(res.Body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return ""
}

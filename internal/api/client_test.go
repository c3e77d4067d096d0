package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/recab-client/internal/apperrors"
	"github.com/example/recab-client/internal/cache"
	"github.com/example/recab-client/internal/models"
)

// fakeBackend wires a mux router with the happy-path endpoints the typed
// client talks to. Individual tests override or extend routes before start.
func fakeBackend(t *testing.T, mutate func(r *mux.Router)) *Client {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/api/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})
	if mutate != nil {
		mutate(r)
	}
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(NewResolver(testConfig(srv.URL), cache.NewMemory(), testLogger()))
}

func TestCreateTripReturnsServerID(t *testing.T) {
	var got map[string]any
	c := fakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/api/trips", func(w http.ResponseWriter, req *http.Request) {
			json.NewDecoder(req.Body).Decode(&got)
			json.NewEncoder(w).Encode(map[string]string{"id": "srv-42"})
		}).Methods(http.MethodPost)
	})

	id, err := c.CreateTrip(context.Background(), models.Trip{
		ID:          "t_1",
		UserID:      "u1",
		Pickup:      "Ikeja",
		Destination: "Lekki",
		Fee:         700,
		DriverID:    "d1",
		Status:      models.TripOngoing,
		StartedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != "srv-42" {
		t.Fatalf("id = %q", id)
	}
	if got["pickup"] != "Ikeja" || got["userId"] != "u1" {
		t.Fatalf("payload = %+v", got)
	}
	if _, present := got["id"]; present {
		t.Fatal("local temp id must not be sent")
	}
}

func TestRateDriverDecodesAggregates(t *testing.T) {
	c := fakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/api/drivers/{id}/rate", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"rides":3,"rating":4.5}`))
		}).Methods(http.MethodPost)
	})

	agg, err := c.RateDriver(context.Background(), "d1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Rides == nil || *agg.Rides != 3 {
		t.Fatalf("rides = %v", agg.Rides)
	}
	if agg.Rating == nil || *agg.Rating != 4.5 {
		t.Fatalf("rating = %v", agg.Rating)
	}
}

func TestRateDriverTolerantOfEmptyBody(t *testing.T) {
	c := fakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/api/drivers/{id}/rate", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}).Methods(http.MethodPost)
	})

	agg, err := c.RateDriver(context.Background(), "d1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Rides != nil || agg.Rating != nil {
		t.Fatalf("want nil aggregates, got %+v", agg)
	}
}

func TestWalletDeductSurfacesServerError(t *testing.T) {
	c := fakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/api/wallet/deduct", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Insufficient funds"})
		}).Methods(http.MethodPost)
	})

	err := c.WalletDeduct(context.Background(), DeductInput{UserID: "u1", Amount: 500})
	if err == nil {
		t.Fatal("expected error")
	}
	var app *apperrors.AppError
	if !errors.As(err, &app) {
		t.Fatalf("want AppError, got %T", err)
	}
	if app.Message != "Insufficient funds" {
		t.Fatalf("message = %q", app.Message)
	}
}

func TestTransactionsDecodesList(t *testing.T) {
	c := fakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/api/wallet/transactions/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"transactions":[{"id":"tx1","type":"topup","amount":2000,"status":"completed"}]}`))
		})
	})

	txs, err := c.Transactions(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 1 || txs[0].ID != "tx1" || txs[0].Type != models.TxTopup {
		t.Fatalf("txs = %+v", txs)
	}
}

func TestTransactionsSyntheticWhenDown(t *testing.T) {
	c := NewClient(NewResolver(testConfig("http://127.0.0.1:1"), cache.NewMemory(), testLogger()))
	txs, err := c.Transactions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("reads must not fail: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("want empty list, got %+v", txs)
	}
}

func TestContactLifecycle(t *testing.T) {
	c := fakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/api/users/{id}/contacts", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"id": "c-9"})
		}).Methods(http.MethodPost)
		r.HandleFunc("/api/users/{id}/contacts", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"contacts":[{"id":"c-9","name":"Ada","phone":"08012345678"}]}`))
		}).Methods(http.MethodGet)
		r.HandleFunc("/api/users/{id}/contacts/{cid}", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"ok":true}`))
		}).Methods(http.MethodDelete)
	})

	id, err := c.AddContact(context.Background(), "u1", models.EmergencyContact{Name: "Ada", Phone: "08012345678"})
	if err != nil || id != "c-9" {
		t.Fatalf("add: id=%q err=%v", id, err)
	}
	contacts, err := c.Contacts(context.Background(), "u1")
	if err != nil || len(contacts) != 1 || contacts[0].Name != "Ada" {
		t.Fatalf("list: %+v err=%v", contacts, err)
	}
	if err := c.RemoveContact(context.Background(), "u1", "c-9"); err != nil {
		t.Fatalf("remove: %v", err)
	}
}

func TestShareLink(t *testing.T) {
	c := fakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/api/trips/{id}/share", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"url": "https://recab.example.com/t/abc"})
		}).Methods(http.MethodPost)
	})

	u, err := c.ShareLink(context.Background(), "t1")
	if err != nil || u != "https://recab.example.com/t/abc" {
		t.Fatalf("url=%q err=%v", u, err)
	}
}

func TestTrackDecodesPath(t *testing.T) {
	c := fakeBackend(t, func(r *mux.Router) {
		r.HandleFunc("/api/trips/{id}/track", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"path":[{"lat":6.5,"lng":3.4,"speed":12}],"last":{"lat":6.5,"lng":3.4,"speed":12}}`))
		})
	})

	tr, err := c.Track(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Path) != 1 || tr.Last == nil || tr.Last.Lat != 6.5 {
		t.Fatalf("track = %+v", tr)
	}
}

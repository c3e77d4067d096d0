// Package ops is the agent's local diagnostics endpoint: metrics, health,
// and a state snapshot. It never serves application traffic.
package ops

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/recab-client/internal/models"
	"github.com/example/recab-client/internal/store"
)

// Identity is read-only here; the snapshot only reports who is signed in.
type Identity interface {
	User() *models.UserProfile
}

type Server struct {
	store    *store.Store
	identity Identity
	logger   *slog.Logger
	mux      *mux.Router
}

func NewServer(st *store.Store, identity Identity, logger *slog.Logger) *Server {
	s := &Server{store: st, identity: identity, logger: logger, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/statusz", s.handleStatus).Methods(http.MethodGet)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type statusSnapshot struct {
	SignedIn   bool        `json:"signedIn"`
	Role       models.Role `json:"role,omitempty"`
	ActiveTrip string      `json:"activeTrip,omitempty"`
	Trips      int         `json:"trips"`
	Contacts   int         `json:"contacts"`
	AppName    string      `json:"appName"`
	Currency   string      `json:"currency"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := statusSnapshot{
		Trips:    len(s.store.History()),
		Contacts: len(s.store.Contacts()),
	}
	if u := s.identity.User(); u != nil {
		snap.SignedIn = true
		snap.Role = u.Role
	}
	if t := s.store.ActiveTrip(); t != nil {
		snap.ActiveTrip = t.ID
	}
	settings := s.store.Settings()
	snap.AppName = settings.AppName
	snap.Currency = settings.Currency

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

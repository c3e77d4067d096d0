// Package session holds the authenticated identity, enforces the inactivity
// window, and answers route-gating queries for the UI router.
package session

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/example/recab-client/internal/models"
	"github.com/example/recab-client/internal/storage"
)

// New accounts that never carried a balance start with a seeded wallet.
const defaultWalletBalance = 10000

// Holder is the single authenticated identity for the process. The identity
// is always mirrored to session-scoped storage; it reaches durable storage
// only when the remember flag was set at sign-in, otherwise any durable copy
// is removed.
type Holder struct {
	mu       sync.Mutex
	session  storage.KV
	durable  storage.KV
	log      *slog.Logger
	user     *models.UserProfile
	remember bool
}

func NewHolder(session, durable storage.KV, log *slog.Logger) *Holder {
	h := &Holder{session: session, durable: durable, log: log}
	h.restore()
	return h
}

// restore rebuilds identity from a previous run: durable copy wins over the
// session copy. A profile stored without a wallet balance gets the seed.
func (h *Holder) restore() {
	storage.GetJSON(h.durable, storage.KeyRemember, &h.remember)

	raw, ok := h.durable.Get(storage.KeyUser)
	if !ok {
		raw, ok = h.session.Get(storage.KeyUser)
	}
	if !ok {
		return
	}
	var u models.UserProfile
	if json.Unmarshal(raw, &u) != nil {
		return
	}
	var probe map[string]json.RawMessage
	if json.Unmarshal(raw, &probe) == nil {
		if _, present := probe["walletBalance"]; !present {
			u.WalletBalance = defaultWalletBalance
		}
	}
	h.user = &u
	h.persistLocked()
	h.log.Info("session restored", "user", u.ID, "role", u.Role)
}

// User returns a copy so callers cannot mutate held state behind the lock.
func (h *Holder) User() *models.UserProfile {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.user == nil {
		return nil
	}
	u := *h.user
	return &u
}

func (h *Holder) SignIn(u models.UserProfile, remember bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if u.WalletBalance == 0 {
		u.WalletBalance = defaultWalletBalance
	}
	h.user = &u
	h.remember = remember
	storage.PutJSON(h.durable, storage.KeyRemember, remember)
	h.persistLocked()
	h.log.Info("signed in", "user", u.ID, "role", u.Role, "remember", remember)
}

func (h *Holder) SignOut() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.user = nil
	h.persistLocked()
	h.log.Info("signed out")
}

// SetUser replaces the identity in place, preserving the remember choice.
// A nil user is a sign-out.
func (h *Holder) SetUser(u *models.UserProfile) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if u == nil {
		h.user = nil
	} else {
		cp := *u
		h.user = &cp
	}
	h.persistLocked()
}

// AdjustWalletBalance applies a signed delta and returns the new balance.
// The second return is false when no one is signed in.
func (h *Holder) AdjustWalletBalance(delta int) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.user == nil {
		return 0, false
	}
	h.user.WalletBalance += delta
	if h.user.WalletBalance < 0 {
		h.user.WalletBalance = 0
	}
	h.persistLocked()
	return h.user.WalletBalance, true
}

func (h *Holder) persistLocked() {
	if h.user == nil {
		h.session.Delete(storage.KeyUser)
		h.durable.Delete(storage.KeyUser)
		return
	}
	storage.PutJSON(h.session, storage.KeyUser, h.user)
	if h.remember {
		storage.PutJSON(h.durable, storage.KeyUser, h.user)
	} else {
		h.durable.Delete(storage.KeyUser)
	}
}

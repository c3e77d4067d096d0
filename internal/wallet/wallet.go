// Package wallet mirrors the server-side ledger: optimistic balance
// adjustments between authoritative refreshes, append-only transaction
// history, and lazy counterparty name resolution.
package wallet

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/example/recab-client/internal/api"
	"github.com/example/recab-client/internal/apperrors"
	"github.com/example/recab-client/internal/models"
)

// Backend is the slice of the API client the mirror needs.
type Backend interface {
	WalletDeduct(ctx context.Context, in api.DeductInput) error
	WalletTransfer(ctx context.Context, in api.TransferInput) error
	WalletRequest(ctx context.Context, in api.RequestInput) error
	WalletTopup(ctx context.Context, in api.TopupInput) error
	Transactions(ctx context.Context, userID string) ([]models.WalletTransaction, error)
	WalletRequests(ctx context.Context, userID string) ([]models.WalletTransaction, error)
	DriverByID(ctx context.Context, id string) (*models.DriverRecord, error)
	UserByID(ctx context.Context, id string) (*models.UserProfile, error)
}

// Identity is the session holder surface the mirror mutates.
type Identity interface {
	User() *models.UserProfile
	AdjustWalletBalance(delta int) (int, bool)
	SetUser(u *models.UserProfile)
}

// Mirror keeps the client-side view of the wallet. Local writes are guesses;
// a full refresh from the server is authoritative and overwrites them.
type Mirror struct {
	backend  Backend
	identity Identity
	validate *validator.Validate
	topupMax func() int
	now      func() time.Time
	log      *slog.Logger

	mu    sync.Mutex
	txs   []models.WalletTransaction
	names map[string]string
}

func NewMirror(backend Backend, identity Identity, topupMax func() int, log *slog.Logger) *Mirror {
	return &Mirror{
		backend:  backend,
		identity: identity,
		validate: validator.New(),
		topupMax: topupMax,
		now:      time.Now,
		log:      log,
		names:    make(map[string]string),
	}
}

// RefreshBalance replaces the local balance with the authoritative record,
// looked up by role.
func (m *Mirror) RefreshBalance(ctx context.Context) error {
	u := m.identity.User()
	if u == nil {
		return apperrors.ErrNoSession
	}
	switch u.Role {
	case models.RoleDriver:
		rec, err := m.backend.DriverByID(ctx, u.ID)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		u.WalletBalance = rec.WalletBalance
	default:
		rec, err := m.backend.UserByID(ctx, u.ID)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		u.WalletBalance = rec.WalletBalance
	}
	m.identity.SetUser(u)
	return nil
}

// Refresh replaces the ledger with the server lists, keeping local pending
// entries the server does not know about yet.
func (m *Mirror) Refresh(ctx context.Context) error {
	u := m.identity.User()
	if u == nil {
		return apperrors.ErrNoSession
	}
	txs, err := m.backend.Transactions(ctx, u.ID)
	if err != nil {
		return err
	}
	reqs, err := m.backend.WalletRequests(ctx, u.ID)
	if err != nil {
		return err
	}
	server := append(txs, reqs...)
	known := make(map[string]bool, len(server))
	for i := range server {
		known[server[i].ID] = true
		if server[i].ParticipantID != "" {
			continue
		}
		// counterparty relative to the signed-in user
		if server[i].From != "" && server[i].From != u.ID {
			server[i].ParticipantID = server[i].From
		} else {
			server[i].ParticipantID = server[i].To
		}
	}

	m.mu.Lock()
	for _, tx := range m.txs {
		if tx.Status == models.TxPending && !known[tx.ID] {
			server = append(server, tx)
		}
	}
	m.txs = server
	m.mu.Unlock()
	return nil
}

// Transactions is a snapshot ordered newest first.
func (m *Mirror) Transactions() []models.WalletTransaction {
	m.mu.Lock()
	out := make([]models.WalletTransaction, len(m.txs))
	copy(out, m.txs)
	m.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ts.After(out[j].Ts) })
	return out
}

type transferInput struct {
	ToID   string `validate:"required"`
	Amount int    `validate:"required,gt=0"`
}

// Transfer moves funds to another wallet. The local balance is debited only
// after the server accepts the transfer.
func (m *Mirror) Transfer(ctx context.Context, toID string, amount int, note string) error {
	if err := m.validate.Struct(transferInput{ToID: toID, Amount: amount}); err != nil {
		return apperrors.Validation("Enter a recipient and a positive amount.")
	}
	u := m.identity.User()
	if u == nil {
		return apperrors.ErrNoSession
	}
	if u.WalletBalance < amount {
		return apperrors.InsufficientFunds()
	}
	if err := m.backend.WalletTransfer(ctx, api.TransferInput{FromID: u.ID, ToID: toID, Amount: amount, Note: note}); err != nil {
		return err
	}
	m.identity.AdjustWalletBalance(-amount)
	m.append(models.WalletTransaction{
		ID:            "tx_" + uuid.NewString(),
		Ts:            m.now(),
		Type:          models.TxTransfer,
		From:          u.ID,
		To:            toID,
		ParticipantID: toID,
		Amount:        amount,
		Status:        models.TxCompleted,
		Note:          note,
	})
	return nil
}

// Request asks a counterparty for funds. Balance is untouched; the entry
// stays pending until a refresh reports it settled.
func (m *Mirror) Request(ctx context.Context, toID string, amount int, note string) error {
	if err := m.validate.Struct(transferInput{ToID: toID, Amount: amount}); err != nil {
		return apperrors.Validation("Enter a recipient and a positive amount.")
	}
	u := m.identity.User()
	if u == nil {
		return apperrors.ErrNoSession
	}
	if err := m.backend.WalletRequest(ctx, api.RequestInput{FromID: u.ID, ToID: toID, Amount: amount, Note: note}); err != nil {
		return err
	}
	m.append(models.WalletTransaction{
		ID:            "tx_" + uuid.NewString(),
		Ts:            m.now(),
		Type:          models.TxRequest,
		From:          u.ID,
		To:            toID,
		ParticipantID: toID,
		Amount:        amount,
		Status:        models.TxPending,
		Note:          note,
	})
	return nil
}

// Topup funds the wallet from an external source, bounded by policy.
func (m *Mirror) Topup(ctx context.Context, amount int) error {
	if amount <= 0 {
		return apperrors.Validation("Enter a positive amount.")
	}
	if max := m.topupMax(); max > 0 && amount > max {
		return apperrors.Validation("Amount exceeds the top-up limit.")
	}
	u := m.identity.User()
	if u == nil {
		return apperrors.ErrNoSession
	}
	if err := m.backend.WalletTopup(ctx, api.TopupInput{UserID: u.ID, Amount: amount}); err != nil {
		return err
	}
	m.append(models.WalletTransaction{
		ID:            "tx_" + uuid.NewString(),
		Ts:            m.now(),
		Type:          models.TxTopup,
		To:            u.ID,
		ParticipantID: u.ID,
		Amount:        amount,
		Status:        models.TxPending,
	})
	return nil
}

// Deduct settles a trip fee from the wallet. Server deduction is tried
// first; when it fails but the local balance covers the fee, the client
// debits locally and leaves a pending request to the driver so both parties
// see the processing payment. The local balance is the source of truth
// during that fallback. The returned status is TxCompleted when the server
// accepted the charge and TxPending when the fallback path was taken.
func (m *Mirror) Deduct(ctx context.Context, amount int, tripID, driverID string) (models.TxStatus, error) {
	u := m.identity.User()
	if u == nil {
		return "", apperrors.ErrNoSession
	}
	err := m.backend.WalletDeduct(ctx, api.DeductInput{
		UserID:   u.ID,
		Amount:   amount,
		TripID:   tripID,
		DriverID: driverID,
		Note:     "trip fare",
	})
	if err == nil {
		m.identity.AdjustWalletBalance(-amount)
		m.append(models.WalletTransaction{
			ID:            "tx_" + uuid.NewString(),
			Ts:            m.now(),
			Type:          models.TxDeduct,
			From:          u.ID,
			To:            driverID,
			ParticipantID: driverID,
			Amount:        amount,
			Status:        models.TxCompleted,
			TripID:        tripID,
		})
		return models.TxCompleted, nil
	}

	if u.WalletBalance < amount {
		return "", apperrors.InsufficientFunds()
	}
	m.identity.AdjustWalletBalance(-amount)
	m.append(models.WalletTransaction{
		ID:            "tx_" + uuid.NewString(),
		Ts:            m.now(),
		Type:          models.TxRequest,
		From:          u.ID,
		To:            driverID,
		ParticipantID: driverID,
		Amount:        amount,
		Status:        models.TxPending,
		TripID:        tripID,
		Note:          "trip fare (processing)",
	})
	if driverID != "" {
		if rerr := m.backend.WalletRequest(ctx, api.RequestInput{FromID: u.ID, ToID: driverID, Amount: amount, TripID: tripID, Note: "trip fare"}); rerr != nil {
			m.log.Warn("wallet fallback request not persisted", "trip", tripID, "err", rerr)
		}
	}
	return models.TxPending, nil
}

// NameFor returns the cached counterparty name, or the raw id while
// resolution is still outstanding. Never blocks.
func (m *Mirror) NameFor(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.names[id]; ok && n != "" {
		return n
	}
	return id
}

// ParticipantIDs lists the distinct counterparties in the ledger, in entry
// order. Feed it to ResolveNames after a refresh.
func (m *Mirror) ParticipantIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool, len(m.txs))
	var out []string
	for _, tx := range m.txs {
		id := tx.ParticipantID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ResolveNames batch-fetches display names for ids not yet cached. Intended
// to run detached after a ledger refresh.
func (m *Mirror) ResolveNames(ctx context.Context, ids []string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		m.mu.Lock()
		_, done := m.names[id]
		m.mu.Unlock()
		if done {
			continue
		}
		name := id
		if u, err := m.backend.UserByID(ctx, id); err == nil && u != nil {
			name = u.FullName()
		} else if d, err := m.backend.DriverByID(ctx, id); err == nil && d != nil {
			name = d.DisplayName()
		}
		m.mu.Lock()
		m.names[id] = name
		m.mu.Unlock()
	}
}

func (m *Mirror) append(tx models.WalletTransaction) {
	m.mu.Lock()
	m.txs = append([]models.WalletTransaction{tx}, m.txs...)
	m.mu.Unlock()
}

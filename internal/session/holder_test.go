package session

import (
	"io"
	"log/slog"
	"testing"

	"github.com/example/recab-client/internal/models"
	"github.com/example/recab-client/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func rider(id string) models.UserProfile {
	return models.UserProfile{ID: id, FirstName: "Ada", Role: models.RoleRider}
}

func TestSignInMirrorsSessionOnly(t *testing.T) {
	sess, dur := storage.NewMemory(), storage.NewMemory()
	h := NewHolder(sess, dur, testLogger())

	h.SignIn(rider("u1"), false)

	var u models.UserProfile
	if !storage.GetJSON(sess, storage.KeyUser, &u) || u.ID != "u1" {
		t.Fatal("session copy missing")
	}
	if _, ok := dur.Get(storage.KeyUser); ok {
		t.Fatal("durable copy must not exist without remember")
	}
}

func TestRememberMirrorsDurable(t *testing.T) {
	sess, dur := storage.NewMemory(), storage.NewMemory()
	h := NewHolder(sess, dur, testLogger())

	h.SignIn(rider("u1"), true)
	var u models.UserProfile
	if !storage.GetJSON(dur, storage.KeyUser, &u) || u.ID != "u1" {
		t.Fatal("durable copy missing with remember")
	}

	// a fresh process restores from the durable copy
	h2 := NewHolder(storage.NewMemory(), dur, testLogger())
	got := h2.User()
	if got == nil || got.ID != "u1" {
		t.Fatalf("restore failed: %+v", got)
	}

	h2.SignOut()
	if _, ok := dur.Get(storage.KeyUser); ok {
		t.Fatal("sign-out must clear durable copy")
	}
}

func TestRestoreSeedsMissingWalletBalance(t *testing.T) {
	sess := storage.NewMemory()
	sess.Set(storage.KeyUser, []byte(`{"id":"u1","role":"user"}`))
	h := NewHolder(sess, storage.NewMemory(), testLogger())

	u := h.User()
	if u == nil || u.WalletBalance != 10000 {
		t.Fatalf("want seeded balance, got %+v", u)
	}
}

func TestRestoreKeepsExplicitZeroBalance(t *testing.T) {
	sess := storage.NewMemory()
	sess.Set(storage.KeyUser, []byte(`{"id":"u1","role":"user","walletBalance":0}`))
	h := NewHolder(sess, storage.NewMemory(), testLogger())

	u := h.User()
	if u == nil || u.WalletBalance != 0 {
		t.Fatalf("explicit zero must survive restore, got %+v", u)
	}
}

func TestAdjustWalletBalance(t *testing.T) {
	h := NewHolder(storage.NewMemory(), storage.NewMemory(), testLogger())
	if _, ok := h.AdjustWalletBalance(-100); ok {
		t.Fatal("adjust without a session must report false")
	}

	h.SignIn(rider("u1"), false)
	bal, ok := h.AdjustWalletBalance(-1500)
	if !ok || bal != 8500 {
		t.Fatalf("balance = %d ok=%v", bal, ok)
	}
	bal, _ = h.AdjustWalletBalance(-20000)
	if bal != 0 {
		t.Fatalf("balance must clamp at zero, got %d", bal)
	}
}

func TestUserReturnsCopy(t *testing.T) {
	h := NewHolder(storage.NewMemory(), storage.NewMemory(), testLogger())
	h.SignIn(rider("u1"), false)

	u := h.User()
	u.WalletBalance = -999
	if h.User().WalletBalance == -999 {
		t.Fatal("caller mutation leaked into holder")
	}
}

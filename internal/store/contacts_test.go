package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/recab-client/internal/apperrors"
	"github.com/example/recab-client/internal/models"
	"github.com/example/recab-client/internal/storage"
)

func TestAddContactValidation(t *testing.T) {
	f := newFixture(t, riderUser())

	var app *apperrors.AppError
	if _, err := f.store.AddContact(models.EmergencyContact{Phone: "08012345678"}); !errors.As(err, &app) {
		t.Fatalf("missing name must fail validation, got %v", err)
	}
	if _, err := f.store.AddContact(models.EmergencyContact{Name: "Ada", Phone: "123"}); err == nil {
		t.Fatal("short phone must fail validation")
	}
	if len(f.store.Contacts()) != 0 {
		t.Fatal("invalid contact must not be applied")
	}
}

func TestAddContactOptimisticThenReconciled(t *testing.T) {
	f := newFixture(t, riderUser())
	f.backend.addContactID = "c-srv"

	c, err := f.store.AddContact(models.EmergencyContact{Name: "Ada", Phone: "08012345678"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(c.ID, "c_") {
		t.Fatalf("temp id = %q", c.ID)
	}
	f.store.Wait()

	contacts := f.store.Contacts()
	if len(contacts) != 1 || contacts[0].ID != "c-srv" {
		t.Fatalf("contacts = %+v", contacts)
	}
	var persisted []models.EmergencyContact
	if !storage.GetJSON(f.durable, storage.KeyContacts, &persisted) || persisted[0].ID != "c-srv" {
		t.Fatalf("durable cache = %+v", persisted)
	}
}

func TestAddContactSurvivesPersistFailure(t *testing.T) {
	f := newFixture(t, riderUser())
	f.backend.addContactErr = errors.New("server down")

	c, err := f.store.AddContact(models.EmergencyContact{Name: "Ada", Phone: "08012345678"})
	if err != nil {
		t.Fatal(err)
	}
	f.store.Wait()

	contacts := f.store.Contacts()
	if len(contacts) != 1 || contacts[0].ID != c.ID {
		t.Fatalf("optimistic contact must survive, got %+v", contacts)
	}
}

func TestRemoveContact(t *testing.T) {
	f := newFixture(t, riderUser())
	c, _ := f.store.AddContact(models.EmergencyContact{Name: "Ada", Phone: "08012345678"})
	f.store.Wait()

	f.store.RemoveContact(c.ID)
	f.store.Wait()

	if len(f.store.Contacts()) != 0 {
		t.Fatal("contact must be removed")
	}
	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	if len(f.backend.removed) != 1 || f.backend.removed[0] != c.ID {
		t.Fatalf("server delete = %v", f.backend.removed)
	}
}

func TestRefreshContactsReplacesList(t *testing.T) {
	f := newFixture(t, riderUser())
	f.store.AddContact(models.EmergencyContact{Name: "Old", Phone: "08000000000"})
	f.store.Wait()

	f.backend.serverContacts = []models.EmergencyContact{
		{ID: "c1", Name: "Ada", Phone: "08012345678"},
		{ID: "c2", Name: "Bisi", Phone: "08087654321"},
	}
	if err := f.store.RefreshContacts(context.Background()); err != nil {
		t.Fatal(err)
	}
	contacts := f.store.Contacts()
	if len(contacts) != 2 || contacts[0].ID != "c1" {
		t.Fatalf("contacts = %+v", contacts)
	}
}

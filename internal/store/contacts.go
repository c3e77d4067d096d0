package store

import (
	"context"

	"github.com/example/recab-client/internal/apperrors"
	"github.com/example/recab-client/internal/models"
)

func (s *Store) Contacts() []models.EmergencyContact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EmergencyContact, len(s.contacts))
	copy(out, s.contacts)
	return out
}

// AddContact validates, applies optimistically with a temporary id, and
// persists detached; the server id replaces the temporary one on success.
func (s *Store) AddContact(c models.EmergencyContact) (models.EmergencyContact, error) {
	if err := s.validate.Struct(c); err != nil {
		return models.EmergencyContact{}, apperrors.Validation("Enter a contact name and a valid phone number.")
	}

	s.mu.Lock()
	c.ID = s.nextIDLocked("c")
	s.contacts = append(s.contacts, c)
	s.persistContactsLocked()
	s.mu.Unlock()

	u := s.identity.User()
	if u != nil {
		tempID, userID, payload := c.ID, u.ID, c
		s.background("contact save", func(ctx context.Context) error {
			serverID, err := s.backend.AddContact(ctx, userID, payload)
			if err != nil {
				return err
			}
			if serverID != "" && serverID != tempID {
				s.mu.Lock()
				for i := range s.contacts {
					if s.contacts[i].ID == tempID {
						s.contacts[i].ID = serverID
					}
				}
				s.persistContactsLocked()
				s.mu.Unlock()
			}
			return nil
		})
	}
	return c, nil
}

// RemoveContact deletes optimistically; the server delete is best-effort.
func (s *Store) RemoveContact(id string) {
	s.mu.Lock()
	kept := s.contacts[:0]
	for _, c := range s.contacts {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.contacts = kept
	s.persistContactsLocked()
	s.mu.Unlock()

	u := s.identity.User()
	if u == nil {
		return
	}
	userID := u.ID
	s.background("contact remove", func(ctx context.Context) error {
		return s.backend.RemoveContact(ctx, userID, id)
	})
}

// RefreshContacts replaces the local list with the server's when available.
// The durable cache keeps SOS usable while offline.
func (s *Store) RefreshContacts(ctx context.Context) error {
	u := s.identity.User()
	if u == nil {
		return apperrors.ErrNoSession
	}
	list, err := s.backend.Contacts(ctx, u.ID)
	if err != nil {
		return err
	}
	if list == nil {
		return nil
	}
	s.mu.Lock()
	s.contacts = list
	s.persistContactsLocked()
	s.mu.Unlock()
	return nil
}

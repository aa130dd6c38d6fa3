package leads

import (
	"context"
	"errors"
	"slices"
	"sync"

	"polimata/pkg/domain"
)

var ErrContactNotFound = errors.New("contact not found")

// StatusUpdater persists a status change and returns the stored record.
type StatusUpdater interface {
	UpdateContactStatus(ctx context.Context, id int64, status domain.ContactStatus) (domain.Contact, error)
}

// Board owns the contact list a view renders. Status changes are applied
// only after the backend accepts them.
type Board struct {
	mu       sync.RWMutex
	updater  StatusUpdater
	contacts []domain.Contact
}

func NewBoard(updater StatusUpdater, contacts []domain.Contact) *Board {
	return &Board{updater: updater, contacts: slices.Clone(contacts)}
}

// Replace swaps in a freshly fetched list.
func (b *Board) Replace(contacts []domain.Contact) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contacts = slices.Clone(contacts)
}

func (b *Board) Contacts() []domain.Contact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.contacts)
}

func (b *Board) Get(id int64) (domain.Contact, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.index(id); i >= 0 {
		return b.contacts[i], true
	}
	return domain.Contact{}, false
}

func (b *Board) View(q Query) []domain.Contact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Derive(b.contacts, q)
}

// SetStatus sends the change to the backend and, on success, replaces the
// local record with the returned one. On failure the board is unchanged.
func (b *Board) SetStatus(ctx context.Context, id int64, status domain.ContactStatus) (domain.Contact, error) {
	if !status.Valid() {
		return domain.Contact{}, domain.ErrInvalidStatus
	}
	if _, ok := b.Get(id); !ok {
		return domain.Contact{}, ErrContactNotFound
	}
	updated, err := b.updater.UpdateContactStatus(ctx, id, status)
	if err != nil {
		return domain.Contact{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	// the list may have been replaced while the request was in flight
	if i := b.index(id); i >= 0 {
		b.contacts[i] = updated
	}
	return updated, nil
}

func (b *Board) index(id int64) int {
	return slices.IndexFunc(b.contacts, func(c domain.Contact) bool { return c.ID == id })
}

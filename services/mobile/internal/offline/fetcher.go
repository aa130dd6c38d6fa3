// Package offline serves the contact list from the backend, or from a fixed
// demo set when the backend cannot be reached.
package offline

import (
	"context"
	"log/slog"
	"time"

	"polimata/pkg/crmclient"
	"polimata/pkg/domain"
	"polimata/pkg/leads"
)

// ContactSource is the slice of the backend client the fetcher reads from.
type ContactSource interface {
	ListContacts(ctx context.Context, opts crmclient.ListOptions) ([]domain.Contact, error)
	GetContact(ctx context.Context, id int64) (domain.Contact, error)
}

// Result carries the contacts and where they came from.
type Result struct {
	Contacts []domain.Contact
	Source   domain.DataSource
}

type Fetcher struct {
	src    ContactSource
	logger *slog.Logger
	now    func() time.Time
}

func NewFetcher(src ContactSource, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{src: src, logger: logger, now: time.Now}
}

// FetchContacts never fails: any backend error, 401 included, yields the
// demo set tagged as mock data.
func (f *Fetcher) FetchContacts(ctx context.Context) Result {
	contacts, err := f.src.ListContacts(ctx, crmclient.ListOptions{})
	if err != nil {
		f.logger.Warn("backend unavailable, using mock contacts", "err", err, "status", crmclient.StatusOf(err))
		return Result{Contacts: MockContacts(f.now()), Source: domain.SourceMock}
	}
	return Result{Contacts: contacts, Source: domain.SourceBackend}
}

// GetContact looks the contact up on the backend, then in the demo set.
// leads.ErrContactNotFound is returned only when neither has it.
func (f *Fetcher) GetContact(ctx context.Context, id int64) (domain.Contact, domain.DataSource, error) {
	contact, err := f.src.GetContact(ctx, id)
	if err == nil {
		return contact, domain.SourceBackend, nil
	}
	f.logger.Warn("backend unavailable, looking up mock contact", "id", id, "err", err)
	for _, c := range MockContacts(f.now()) {
		if c.ID == id {
			return c, domain.SourceMock, nil
		}
	}
	return domain.Contact{}, domain.SourceMock, leads.ErrContactNotFound
}

// MockContacts returns a fresh copy of the demo contacts, dated relative to now.
func MockContacts(now time.Time) []domain.Contact {
	return []domain.Contact{
		{
			ID:        1,
			Name:      "Juan Pérez",
			Email:     "juan@example.com",
			Company:   "Tech Corp",
			Message:   "Interesado en automatizar procesos de mi empresa",
			Status:    domain.StatusNew,
			CreatedAt: now,
		},
		{
			ID:        2,
			Name:      "María García",
			Email:     "maria@startup.com",
			Company:   "StartupXYZ",
			Message:   "Necesito consultoría en IA para mi startup",
			Status:    domain.StatusContacted,
			CreatedAt: now.Add(-24 * time.Hour),
		},
		{
			ID:        3,
			Name:      "Carlos López",
			Email:     "carlos@empresa.com",
			Company:   "Mi Empresa",
			Message:   "Quiero una demo del producto",
			Status:    domain.StatusClosed,
			CreatedAt: now.Add(-48 * time.Hour),
		},
	}
}

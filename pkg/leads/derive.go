package leads

import (
	"cmp"
	"slices"
	"strings"

	"polimata/pkg/domain"
)

// Query is what the contact list view filters by.
type Query struct {
	Text   string
	Status domain.StatusFilter
}

// Derive returns the visible contacts for q: text match on name, email or
// company, status filter, then lead ordering. The input is never modified.
func Derive(contacts []domain.Contact, q Query) []domain.Contact {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]domain.Contact, 0, len(contacts))
	for _, c := range contacts {
		if !q.Status.Matches(c.Status) {
			continue
		}
		if needle != "" && !matchesText(c, needle) {
			continue
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, compareLeads)
	return out
}

func matchesText(c domain.Contact, needle string) bool {
	for _, field := range [...]string{c.Name, c.Email, c.Company} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// compareLeads puts scored contacts first, highest score first; everything
// else falls back to newest first, then highest id.
func compareLeads(a, b domain.Contact) int {
	switch {
	case a.HasScore() && !b.HasScore():
		return -1
	case !a.HasScore() && b.HasScore():
		return 1
	case a.HasScore() && b.HasScore():
		if c := cmp.Compare(*b.AIScore, *a.AIScore); c != 0 {
			return c
		}
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// StatusCounts feeds the filter tabs.
type StatusCounts struct {
	All       int `json:"all"`
	New       int `json:"new"`
	Contacted int `json:"contacted"`
	Closed    int `json:"closed"`
}

func CountByStatus(contacts []domain.Contact) StatusCounts {
	counts := StatusCounts{All: len(contacts)}
	for _, c := range contacts {
		switch c.Status {
		case domain.StatusNew:
			counts.New++
		case domain.StatusContacted:
			counts.Contacted++
		case domain.StatusClosed:
			counts.Closed++
		}
	}
	return counts
}

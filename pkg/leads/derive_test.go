package leads

import (
	"testing"
	"slices"
	"time"

	"polimata/pkg/domain"
)

func score(v int) *int { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ids(contacts []domain.Contact) []int64 {
	out := make([]int64, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, c.ID)
	}
	return out
}

func TestDeriveScoredFirstThenNewest(t *testing.T) {
	contacts := []domain.Contact{
		{ID: 1, AIScore: score(90), Status: domain.StatusNew, CreatedAt: day("2024-01-01")},
		{ID: 2, Status: domain.StatusNew, CreatedAt: day("2024-01-02")},
		{ID: 3, Status: domain.StatusNew, CreatedAt: day("2024-01-05")},
	}

	got := ids(Derive(contacts, Query{Status: domain.FilterAll}))

	if want := []int64{1, 3, 2}; !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	contacts := []domain.Contact{
		{ID: 2, Status: domain.StatusNew, CreatedAt: day("2024-01-02")},
		{ID: 1, AIScore: score(50), Status: domain.StatusNew, CreatedAt: day("2024-01-01")},
	}

	_ = Derive(contacts, Query{})

	if got := ids(contacts); !slices.Equal(got, []int64{2, 1}) {
		t.Fatalf("input reordered: %v", got)
	}
}

func TestDeriveFilters(t *testing.T) {
	contacts := []domain.Contact{
		{ID: 1, Name: "Juan Pérez", Email: "juan@techcorp.com", Company: "Tech Corp", Status: domain.StatusNew, CreatedAt: day("2024-01-03")},
		{ID: 2, Name: "María García", Email: "maria@startup.xyz", Company: "StartupXYZ", Status: domain.StatusContacted, CreatedAt: day("2024-01-02")},
		{ID: 3, Name: "Carlos López", Email: "carlos@miempresa.com", Company: "Mi Empresa", Status: domain.StatusClosed, CreatedAt: day("2024-01-01")},
	}

	tests := []struct {
		name  string
		query Query
		want  []int64
	}{
		{name: "empty query keeps all", query: Query{}, want: []int64{1, 2, 3}},
		{name: "name is case insensitive", query: Query{Text: "  MARÍA "}, want: []int64{2}},
		{name: "matches email", query: Query{Text: "miempresa.com"}, want: []int64{3}},
		{name: "matches company", query: Query{Text: "tech"}, want: []int64{1}},
		{name: "does not match message", query: Query{Text: "hola"}, want: []int64{}},
		{name: "status filter", query: Query{Status: domain.StatusFilter(domain.StatusClosed)}, want: []int64{3}},
		{name: "text and status combine", query: Query{Text: "a", Status: domain.StatusFilter(domain.StatusContacted)}, want: []int64{2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ids(Derive(contacts, tc.query)); !slices.Equal(got, tc.want) {
				t.Fatalf("Derive(%+v) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestDeriveTieBreaks(t *testing.T) {
	contacts := []domain.Contact{
		{ID: 1, AIScore: score(70), CreatedAt: day("2024-01-01")},
		{ID: 2, AIScore: score(70), CreatedAt: day("2024-01-04")},
		{ID: 3, AIScore: score(0), CreatedAt: day("2024-01-09")},
		{ID: 4, CreatedAt: day("2024-01-09")},
		{ID: 5, CreatedAt: day("2024-01-09")},
	}

	got := ids(Derive(contacts, Query{}))

	if want := []int64{2, 1, 3, 5, 4}; !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestCountByStatus(t *testing.T) {
	contacts := []domain.Contact{
		{Status: domain.StatusNew}, {Status: domain.StatusNew},
		{Status: domain.StatusContacted}, {Status: domain.StatusClosed},
	}

	want := StatusCounts{All: 4, New: 2, Contacted: 1, Closed: 1}
	if got := CountByStatus(contacts); got != want {
		t.Fatalf("counts = %+v, want %+v", got, want)
	}
}

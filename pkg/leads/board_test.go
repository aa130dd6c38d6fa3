package leads

import (
	"context"
	"errors"
	"slices"
	"testing"

	"polimata/pkg/domain"
)

type fakeUpdater struct {
	err   error
	calls int
}

func (f *fakeUpdater) UpdateContactStatus(_ context.Context, id int64, status domain.ContactStatus) (domain.Contact, error) {
	f.calls++
	if f.err != nil {
		return domain.Contact{}, f.err
	}
	return domain.Contact{ID: id, Name: "server copy", Status: status}, nil
}

func seed() []domain.Contact {
	return []domain.Contact{
		{ID: 1, Name: "Juan", Status: domain.StatusNew, CreatedAt: day("2024-01-01")},
		{ID: 2, Name: "María", Status: domain.StatusContacted, CreatedAt: day("2024-01-02")},
	}
}

func TestBoardSetStatusAppliesBackendRecord(t *testing.T) {
	updater := &fakeUpdater{}
	board := NewBoard(updater, seed())

	got, err := board.SetStatus(context.Background(), 1, domain.StatusClosed)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if got.Status != domain.StatusClosed {
		t.Fatalf("status = %q, want closed", got.Status)
	}

	stored, ok := board.Get(1)
	if !ok {
		t.Fatal("contact 1 missing after update")
	}
	if stored.Name != "server copy" || stored.Status != domain.StatusClosed {
		t.Fatalf("stored = %+v, want backend record", stored)
	}
}

func TestBoardSetStatusFailureLeavesBoardUnchanged(t *testing.T) {
	updater := &fakeUpdater{err: errors.New("connection refused")}
	board := NewBoard(updater, seed())
	before := board.Contacts()

	if _, err := board.SetStatus(context.Background(), 1, domain.StatusContacted); err == nil {
		t.Fatal("expected error from updater")
	}
	if after := board.Contacts(); !slices.EqualFunc(before, after, func(a, b domain.Contact) bool {
		return a.ID == b.ID && a.Status == b.Status && a.Name == b.Name
	}) {
		t.Fatalf("board changed: before %+v, after %+v", before, after)
	}
}

func TestBoardSetStatusValidation(t *testing.T) {
	updater := &fakeUpdater{}
	board := NewBoard(updater, seed())

	if _, err := board.SetStatus(context.Background(), 1, domain.ContactStatus("archived")); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("invalid status err = %v", err)
	}
	if _, err := board.SetStatus(context.Background(), 99, domain.StatusNew); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("unknown contact err = %v", err)
	}
	if updater.calls != 0 {
		t.Fatalf("updater called %d times, want 0", updater.calls)
	}
}

func TestBoardAllowsAnyTransition(t *testing.T) {
	updater := &fakeUpdater{}
	board := NewBoard(updater, []domain.Contact{{ID: 3, Status: domain.StatusClosed}})

	for i := 0; i < 2; i++ {
		if _, err := board.SetStatus(context.Background(), 3, domain.StatusNew); err != nil {
			t.Fatalf("set status #%d: %v", i+1, err)
		}
	}
	if updater.calls != 2 {
		t.Fatalf("updater called %d times, want 2", updater.calls)
	}
}

func TestBoardOwnsItsCopy(t *testing.T) {
	contacts := seed()
	board := NewBoard(&fakeUpdater{}, contacts)
	contacts[0].Name = "mutated"

	if got, _ := board.Get(1); got.Name != "Juan" {
		t.Fatalf("name = %q, board shares the caller's slice", got.Name)
	}
}

func TestBoardReplaceAndView(t *testing.T) {
	board := NewBoard(&fakeUpdater{}, nil)
	board.Replace([]domain.Contact{
		{ID: 5, Status: domain.StatusNew, CreatedAt: day("2024-01-01")},
		{ID: 6, Status: domain.StatusClosed, AIScore: score(40), CreatedAt: day("2024-01-01")},
	})

	if got := ids(board.View(Query{})); !slices.Equal(got, []int64{6, 5}) {
		t.Fatalf("view = %v, want [6 5]", got)
	}
	if got := ids(board.View(Query{Status: domain.StatusFilter(domain.StatusNew)})); !slices.Equal(got, []int64{5}) {
		t.Fatalf("filtered view = %v, want [5]", got)
	}
}

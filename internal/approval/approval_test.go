package approval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
)

func d(s string) time.Time {
	return dateutil.MustParse(s)
}

func TestCheck_ScenarioE(t *testing.T) {
	absences := []*schedule.Absence{{
		ID: "abs", ResourceID: "R", StartDate: d("2025-02-01"), EndDate: d("2025-02-03"),
		Kind: schedule.AbsenceVacation, Status: schedule.StatusPending,
	}}
	bookings := []*schedule.Booking{
		{ID: "hit", ResourceID: "R", Date: d("2025-02-02"), Start: "10:00", End: "11:00"},
		{ID: "before", ResourceID: "R", Date: d("2025-01-31"), Start: "10:00", End: "11:00"},
		{ID: "after", ResourceID: "R", Date: d("2025-02-04"), Start: "10:00", End: "11:00"},
		{ID: "other", ResourceID: "Q", Date: d("2025-02-02"), Start: "10:00", End: "11:00"},
	}

	report := Check(absences, bookings)
	got := report.For("abs")
	if len(got) != 1 || got[0].ID != "hit" {
		t.Fatalf("got %+v, want exactly booking hit", got)
	}
	if report.Count() != 1 {
		t.Errorf("Count = %d, want 1", report.Count())
	}
}

func TestCheck(t *testing.T) {
	absences := []*schedule.Absence{
		{ID: "p1", ResourceID: "R", StartDate: d("2025-02-01"), EndDate: d("2025-02-02"), Status: schedule.StatusPending},
		{ID: "c1", ResourceID: "R", StartDate: d("2025-02-01"), EndDate: d("2025-02-02"), Status: schedule.StatusConfirmed},
		{ID: "p2", ResourceID: "Q", StartDate: d("2025-02-05"), EndDate: d("2025-02-05"), Status: schedule.StatusPending},
	}
	bookings := []*schedule.Booking{
		{ID: "b3", ResourceID: "R", Date: d("2025-02-02"), Start: "09:00", End: "10:00"},
		{ID: "b2", ResourceID: "R", Date: d("2025-02-01"), Start: "14:00", End: "15:00"},
		{ID: "b1", ResourceID: "R", Date: d("2025-02-01"), Start: "09:00", End: "10:00"},
	}

	report := Check(absences, bookings)

	var entryIDs []string
	for _, e := range report.Entries {
		entryIDs = append(entryIDs, e.Absence.ID)
	}
	if diff := cmp.Diff([]string{"p1", "p2"}, entryIDs); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	var ids []string
	for _, b := range report.For("p1") {
		ids = append(ids, b.ID)
	}
	if diff := cmp.Diff([]string{"b1", "b2", "b3"}, ids); diff != "" {
		t.Errorf("bookings not ordered by date and start (-want +got):\n%s", diff)
	}
	if len(report.For("p2")) != 0 {
		t.Error("p2 has no conflicts")
	}
	if report.For("c1") != nil {
		t.Error("confirmed absences are not reviewed")
	}
}

func TestReport_Text(t *testing.T) {
	report := Check(
		[]*schedule.Absence{
			{ID: "p1", ResourceID: "R", StartDate: d("2025-02-01"), EndDate: d("2025-02-03"),
				Kind: schedule.AbsenceVacation, Status: schedule.StatusPending, Reason: "family"},
			{ID: "p2", ResourceID: "Q", StartDate: d("2025-02-05"), EndDate: d("2025-02-05"),
				Kind: schedule.AbsenceDayOff, Status: schedule.StatusPending},
		},
		[]*schedule.Booking{
			{ID: "b1", ResourceID: "R", Date: d("2025-02-02"), Start: "10:00", End: "11:00",
				Kind: schedule.BookingPrivate, Participant: "Ana"},
		},
	)

	text := report.Text(map[string]string{"R": "Rosa"})
	for _, want := range []string{
		"2 pending absence(s), 1 conflicting booking(s)",
		"Rosa: vacation 2025-02-01..2025-02-03 (family)",
		"2025-02-02 10:00-11:00 private: Ana",
		"Q: day_off 2025-02-05..2025-02-05",
		"no conflicts",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report text missing %q:\n%s", want, text)
		}
	}

	if got := (Report{}).Text(nil); got != "No pending absences." {
		t.Errorf("empty report text = %q", got)
	}
}

type fakeStore struct {
	facts     schedule.Facts
	queries   []schedule.Query
	decisions []schedule.AbsenceDecision
	err       error
}

func (f *fakeStore) ListResources(ctx context.Context) ([]*schedule.Resource, error) {
	return nil, nil
}

func (f *fakeStore) Occupancy(ctx context.Context, q schedule.Query) (schedule.Facts, error) {
	f.queries = append(f.queries, q)
	var out schedule.Facts
	for _, b := range f.facts.Bookings {
		if dateutil.Key(b.Date) >= dateutil.Key(q.Start) && dateutil.Key(b.Date) <= dateutil.Key(q.End) {
			out.Bookings = append(out.Bookings, b)
		}
	}
	for _, a := range f.facts.Absences {
		if dateutil.Key(a.EndDate) >= dateutil.Key(q.Start) && dateutil.Key(a.StartDate) <= dateutil.Key(q.End) {
			out.Absences = append(out.Absences, a)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateBookings(ctx context.Context, intents []schedule.CreateBooking) ([]*schedule.Booking, error) {
	return nil, nil
}

func (f *fakeStore) CreateAbsences(ctx context.Context, intents []schedule.CreateAbsence) ([]*schedule.Absence, error) {
	return nil, nil
}

func (f *fakeStore) MoveBooking(ctx context.Context, intent schedule.MoveBooking) error {
	return nil
}

func (f *fakeStore) DecideAbsence(ctx context.Context, decision schedule.AbsenceDecision) error {
	if f.err != nil {
		return f.err
	}
	f.decisions = append(f.decisions, decision)
	return nil
}

func TestReviewer_Report(t *testing.T) {
	store := &fakeStore{facts: schedule.Facts{
		Absences: []*schedule.Absence{
			{ID: "p1", ResourceID: "R", StartDate: d("2025-02-01"), EndDate: d("2025-02-10"), Status: schedule.StatusPending},
		},
		Bookings: []*schedule.Booking{
			{ID: "inside", ResourceID: "R", Date: d("2025-02-02"), Start: "10:00", End: "11:00"},
			{ID: "beyond", ResourceID: "R", Date: d("2025-02-09"), Start: "10:00", End: "11:00"},
		},
	}}
	r := NewReviewer(store, store, nil)

	report, err := r.Report(context.Background(), d("2025-02-01"), d("2025-02-03"))
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	// The absence extends past the window, so bookings are reloaded for its full range.
	if got := report.For("p1"); len(got) != 2 {
		t.Errorf("got %d bookings, want 2", len(got))
	}
	if len(store.queries) != 2 {
		t.Errorf("got %d queries, want 2", len(store.queries))
	}
}

func TestReviewer_Decisions(t *testing.T) {
	store := &fakeStore{}
	r := NewReviewer(store, store, nil)
	ctx := context.Background()

	if err := r.Approve(ctx, "p1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := r.Reject(ctx, "p2", "peak season"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	want := []schedule.AbsenceDecision{
		{AbsenceID: "p1", Decision: schedule.DecisionApprove},
		{AbsenceID: "p2", Decision: schedule.DecisionReject, Reason: "peak season"},
	}
	if diff := cmp.Diff(want, store.decisions); diff != "" {
		t.Errorf("decisions mismatch (-want +got):\n%s", diff)
	}

	store.err = schedule.ErrNotPending
	if err := r.Approve(ctx, "p1"); !errors.Is(err, schedule.ErrNotPending) {
		t.Errorf("got %v, want ErrNotPending", err)
	}
}

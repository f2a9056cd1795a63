package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
)

func newTestRepo(t *testing.T) *SQLite {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}

	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}

func addResource(t *testing.T, repo *SQLite, name string) *schedule.Resource {
	t.Helper()
	r, err := schedule.NewResource(name, []string{"ski", "kids"}, "#ff8800")
	if err != nil {
		t.Fatalf("NewResource: %v", err)
	}
	if err := repo.CreateResource(context.Background(), r); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	return r
}

func bookingIntent(resourceID, date, start, end string) schedule.CreateBooking {
	return schedule.CreateBooking{
		ResourceID: resourceID,
		Date:       dateutil.MustParse(date),
		Start:      start,
		End:        end,
		Kind:       schedule.BookingPrivate,
	}
}

func TestMigrations(t *testing.T) {
	repo := newTestRepo(t)
	v, err := repo.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("got schema version %d, want 2", v)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	repo, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r, _ := schedule.NewResource("Ana", nil, "")
	if err := repo.CreateResource(context.Background(), r); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	_ = repo.Close()

	repo, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = repo.Close() }()
	list, err := repo.ListResources(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("got %d resources, err %v", len(list), err)
	}
}

func TestResources(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	addResource(t, repo, "Zoe")
	addResource(t, repo, "Ana")

	list, err := repo.ListResources(ctx)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	var names []string
	for _, r := range list {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"Ana", "Zoe"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ski", "kids"}, list[0].Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	if err := repo.CreateResource(ctx, &schedule.Resource{Name: "  "}); !errors.Is(err, schedule.ErrEmptyName) {
		t.Errorf("got %v, want ErrEmptyName", err)
	}
}

func TestCreateBookings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	r := addResource(t, repo, "Ana")

	in := bookingIntent(r.ID, "2025-01-10", "10:00", "11:00")
	in.Paid = true
	in.Participant = "Lena"
	created, err := repo.CreateBookings(ctx, []schedule.CreateBooking{in})
	if err != nil {
		t.Fatalf("CreateBookings: %v", err)
	}
	if len(created) != 1 || created[0].ID == "" {
		t.Fatalf("unexpected result %+v", created)
	}

	got, err := repo.Booking(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("Booking: %v", err)
	}
	want := &schedule.Booking{
		ID:          created[0].ID,
		ResourceID:  r.ID,
		Date:        dateutil.MustParse("2025-01-10"),
		Start:       "10:00",
		End:         "11:00",
		Kind:        schedule.BookingPrivate,
		Paid:        true,
		Participant: "Lena",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("booking mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateBookings_Conflicts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	r := addResource(t, repo, "Ana")
	other := addResource(t, repo, "Ben")

	if _, err := repo.CreateBookings(ctx, []schedule.CreateBooking{
		bookingIntent(r.ID, "2025-01-10", "10:00", "11:00"),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := repo.CreateAbsences(ctx, []schedule.CreateAbsence{{
		ResourceID: r.ID, StartDate: dateutil.MustParse("2025-01-12"), EndDate: dateutil.MustParse("2025-01-12"),
		Kind: schedule.AbsenceDayOff, Status: schedule.StatusConfirmed,
	}}); err != nil {
		t.Fatalf("seed absence: %v", err)
	}

	tests := []struct {
		name    string
		intents []schedule.CreateBooking
		wantErr error
	}{
		{"overlaps stored", []schedule.CreateBooking{bookingIntent(r.ID, "2025-01-10", "10:30", "11:30")}, schedule.ErrWriteConflict},
		{"overlaps in batch", []schedule.CreateBooking{
			bookingIntent(r.ID, "2025-01-11", "09:00", "10:00"),
			bookingIntent(r.ID, "2025-01-11", "09:30", "10:30"),
		}, schedule.ErrWriteConflict},
		{"confirmed absence", []schedule.CreateBooking{bookingIntent(r.ID, "2025-01-12", "09:00", "10:00")}, schedule.ErrWriteConflict},
		{"unknown resource", []schedule.CreateBooking{bookingIntent("ghost", "2025-01-10", "12:00", "13:00")}, schedule.ErrNotFound},
		{"end before start", []schedule.CreateBooking{bookingIntent(r.ID, "2025-01-10", "13:00", "12:00")}, schedule.ErrEndBeforeStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.CreateBookings(ctx, tt.intents)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Touching and other-resource bookings are fine, and a failed batch writes nothing.
	if _, err := repo.CreateBookings(ctx, []schedule.CreateBooking{
		bookingIntent(r.ID, "2025-01-10", "11:00", "12:00"),
		bookingIntent(other.ID, "2025-01-10", "10:00", "11:00"),
	}); err != nil {
		t.Fatalf("valid batch: %v", err)
	}
	facts, _ := repo.Occupancy(ctx, schedule.Query{Start: dateutil.MustParse("2025-01-10"), End: dateutil.MustParse("2025-01-12")})
	if len(facts.Bookings) != 3 {
		t.Errorf("got %d bookings, want 3", len(facts.Bookings))
	}
}

func TestOccupancy(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := addResource(t, repo, "Ana")
	b := addResource(t, repo, "Ben")

	_, err := repo.CreateBookings(ctx, []schedule.CreateBooking{
		bookingIntent(a.ID, "2025-01-09", "10:00", "11:00"),
		bookingIntent(a.ID, "2025-01-10", "14:00", "15:00"),
		bookingIntent(a.ID, "2025-01-10", "09:00", "10:00"),
		bookingIntent(b.ID, "2025-01-11", "09:00", "10:00"),
		bookingIntent(a.ID, "2025-01-13", "09:00", "10:00"),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err = repo.CreateAbsences(ctx, []schedule.CreateAbsence{
		{ResourceID: a.ID, StartDate: dateutil.MustParse("2025-01-05"), EndDate: dateutil.MustParse("2025-01-10"), Kind: schedule.AbsenceVacation, Status: schedule.StatusPending},
		{ResourceID: b.ID, StartDate: dateutil.MustParse("2025-01-20"), EndDate: dateutil.MustParse("2025-01-21"), Kind: schedule.AbsenceVacation, Status: schedule.StatusPending},
	})
	if err != nil {
		t.Fatalf("seed absences: %v", err)
	}

	q := schedule.Query{Start: dateutil.MustParse("2025-01-10"), End: dateutil.MustParse("2025-01-12")}
	facts, err := repo.Occupancy(ctx, q)
	if err != nil {
		t.Fatalf("Occupancy: %v", err)
	}
	var got []string
	for _, bk := range facts.Bookings {
		got = append(got, dateutil.Key(bk.Date)+" "+bk.Start)
	}
	want := []string{"2025-01-10 09:00", "2025-01-10 14:00", "2025-01-11 09:00"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bookings mismatch (-want +got):\n%s", diff)
	}
	if len(facts.Absences) != 1 || facts.Absences[0].ResourceID != a.ID {
		t.Errorf("expected the intersecting absence only, got %+v", facts.Absences)
	}

	q.ResourceID = b.ID
	facts, _ = repo.Occupancy(ctx, q)
	if len(facts.Bookings) != 1 || len(facts.Absences) != 0 {
		t.Errorf("resource filter: got %d bookings %d absences", len(facts.Bookings), len(facts.Absences))
	}
}

func TestMoveBooking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := addResource(t, repo, "Ana")
	b := addResource(t, repo, "Ben")

	group := bookingIntent(a.ID, "2025-01-10", "09:00", "11:00")
	group.Kind = schedule.BookingGroup
	created, err := repo.CreateBookings(ctx, []schedule.CreateBooking{
		bookingIntent(a.ID, "2025-01-10", "14:00", "15:00"),
		bookingIntent(b.ID, "2025-01-10", "11:00", "12:00"),
		group,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	private, groupID := created[0], created[2].ID
	jan10 := dateutil.MustParse("2025-01-10")

	move := schedule.MoveBooking{BookingID: private.ID, ResourceID: b.ID, Date: jan10, Start: "09:30", End: "10:30"}
	if err := repo.MoveBooking(ctx, move); err != nil {
		t.Fatalf("MoveBooking: %v", err)
	}
	got, _ := repo.Booking(ctx, private.ID)
	if got.ResourceID != b.ID || got.Start != "09:30" || got.End != "10:30" {
		t.Errorf("got %+v", got)
	}

	// Shifting within its own span does not collide with itself.
	if err := repo.MoveBooking(ctx, schedule.MoveBooking{BookingID: private.ID, ResourceID: b.ID, Date: jan10, Start: "10:00", End: "11:00"}); err != nil {
		t.Errorf("self overlap: %v", err)
	}

	tests := []struct {
		name    string
		move    schedule.MoveBooking
		wantErr error
	}{
		{"target overlap", schedule.MoveBooking{BookingID: private.ID, ResourceID: b.ID, Date: jan10, Start: "11:30", End: "12:30"}, schedule.ErrWriteConflict},
		{"group booking", schedule.MoveBooking{BookingID: groupID, ResourceID: b.ID, Date: jan10, Start: "14:00", End: "16:00"}, schedule.ErrWriteConflict},
		{"unknown booking", schedule.MoveBooking{BookingID: "ghost", ResourceID: b.ID, Date: jan10, Start: "14:00", End: "15:00"}, schedule.ErrNotFound},
		{"unknown resource", schedule.MoveBooking{BookingID: private.ID, ResourceID: "ghost", Date: jan10, Start: "14:00", End: "15:00"}, schedule.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.MoveBooking(ctx, tt.move); !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAbsences(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	r := addResource(t, repo, "Ana")

	created, err := repo.CreateAbsences(ctx, []schedule.CreateAbsence{{
		ResourceID: r.ID,
		StartDate:  dateutil.MustParse("2025-02-01"),
		EndDate:    dateutil.MustParse("2025-02-03"),
		Kind:       schedule.AbsenceVacation,
		Status:     schedule.StatusPending,
		Reason:     "family",
	}})
	if err != nil {
		t.Fatalf("CreateAbsences: %v", err)
	}
	id := created[0].ID

	got, err := repo.Absence(ctx, id)
	if err != nil {
		t.Fatalf("Absence: %v", err)
	}
	if got.Reason != "family" || got.Status != schedule.StatusPending || got.Days() != 3 {
		t.Errorf("got %+v", got)
	}

	if _, err := repo.CreateAbsences(ctx, []schedule.CreateAbsence{{
		ResourceID: r.ID, StartDate: dateutil.MustParse("2025-02-03"), EndDate: dateutil.MustParse("2025-02-04"),
		Kind: schedule.AbsenceDayOff, Status: schedule.StatusPending,
	}}); !errors.Is(err, schedule.ErrWriteConflict) {
		t.Errorf("overlapping absence: got %v, want ErrWriteConflict", err)
	}

	if err := repo.DecideAbsence(ctx, schedule.AbsenceDecision{AbsenceID: id, Decision: schedule.DecisionReject, Reason: "peak"}); err != nil {
		t.Fatalf("DecideAbsence: %v", err)
	}
	got, _ = repo.Absence(ctx, id)
	if got.Status != schedule.StatusRejected {
		t.Errorf("got status %q, want rejected", got.Status)
	}

	if err := repo.DecideAbsence(ctx, schedule.AbsenceDecision{AbsenceID: id, Decision: schedule.DecisionApprove}); !errors.Is(err, schedule.ErrNotPending) {
		t.Errorf("second decision: got %v, want ErrNotPending", err)
	}
	if err := repo.DecideAbsence(ctx, schedule.AbsenceDecision{AbsenceID: "ghost", Decision: schedule.DecisionApprove}); !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("unknown absence: got %v, want ErrNotFound", err)
	}

	// Rejected absences no longer reserve their days.
	if _, err := repo.CreateAbsences(ctx, []schedule.CreateAbsence{{
		ResourceID: r.ID, StartDate: dateutil.MustParse("2025-02-02"), EndDate: dateutil.MustParse("2025-02-02"),
		Kind: schedule.AbsenceSickLeave, Status: schedule.StatusConfirmed,
	}}); err != nil {
		t.Errorf("absence over rejected one: %v", err)
	}
}

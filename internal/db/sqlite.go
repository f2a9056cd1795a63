// Package db provides the SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/timegrid"
)

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var bookingColumns = []string{
	"id", "resource_id", "booking_date", "start_time", "end_time", "kind", "paid", "participant",
}

var absenceColumns = []string{
	"id", "resource_id", "start_date", "end_date", "kind", "status", "reason",
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite implements schedule.Repository using SQLite.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ schedule.Repository = (*SQLite)(nil)

// Option configures the store.
type Option func(*SQLite)

// WithLogger sets the logger used for writes.
func WithLogger(l *zap.Logger) Option {
	return func(s *SQLite) {
		if l != nil {
			s.logger = l
		}
	}
}

// New opens the database at path and runs migrations.
func New(path string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection serializes writers and keeps the foreign_keys pragma in effect.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLite{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// CreateResource adds a resource to the roster.
func (s *SQLite) CreateResource(ctx context.Context, r *schedule.Resource) error {
	if strings.TrimSpace(r.Name) == "" {
		return schedule.ErrEmptyName
	}
	if r.ID == "" {
		r.ID = schedule.NewID()
	}
	query, args, err := builder.Insert("resources").
		Columns("id", "name", "tags", "color").
		Values(r.ID, r.Name, strings.Join(r.Tags, ","), r.Color).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting resource: %w", err)
	}
	s.logger.Info("resource created", zap.String("resource_id", r.ID), zap.String("name", r.Name))
	return nil
}

// ListResources returns the roster ordered by name.
func (s *SQLite) ListResources(ctx context.Context) ([]*schedule.Resource, error) {
	query, args, err := builder.Select("id", "name", "tags", "color").
		From("resources").
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*schedule.Resource
	for rows.Next() {
		var (
			r    schedule.Resource
			tags string
		)
		if err := rows.Scan(&r.ID, &r.Name, &tags, &r.Color); err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		if tags != "" {
			r.Tags = strings.Split(tags, ",")
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}
	return out, nil
}

// Occupancy returns the bookings dated inside the window and the absences
// whose range intersects it, optionally filtered to one resource.
func (s *SQLite) Occupancy(ctx context.Context, q schedule.Query) (schedule.Facts, error) {
	from, to := dateutil.Key(q.Start), dateutil.Key(q.End)

	bq := builder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.GtOrEq{"booking_date": from}).
		Where(squirrel.LtOrEq{"booking_date": to}).
		OrderBy("booking_date", "start_time")
	aq := builder.Select(absenceColumns...).
		From("absences").
		Where(squirrel.LtOrEq{"start_date": to}).
		Where(squirrel.GtOrEq{"end_date": from}).
		OrderBy("start_date", "id")
	if q.ResourceID != "" {
		bq = bq.Where(squirrel.Eq{"resource_id": q.ResourceID})
		aq = aq.Where(squirrel.Eq{"resource_id": q.ResourceID})
	}

	bookings, err := queryBookings(ctx, s.db, bq)
	if err != nil {
		return schedule.Facts{}, err
	}
	absences, err := queryAbsences(ctx, s.db, aq)
	if err != nil {
		return schedule.Facts{}, err
	}
	return schedule.Facts{Bookings: bookings, Absences: absences}, nil
}

// Booking returns the booking with id, or schedule.ErrNotFound.
func (s *SQLite) Booking(ctx context.Context, id string) (*schedule.Booking, error) {
	return getBooking(ctx, s.db, id)
}

// Absence returns the absence with id, or schedule.ErrNotFound.
func (s *SQLite) Absence(ctx context.Context, id string) (*schedule.Absence, error) {
	list, err := queryAbsences(ctx, s.db, builder.Select(absenceColumns...).
		From("absences").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("absence %s: %w", id, schedule.ErrNotFound)
	}
	return list[0], nil
}

// CreateBookings adds bookings in one transaction.
// Returns schedule.ErrWriteConflict if any booking overlaps another booking of
// the same resource, stored or in the batch, or falls on a confirmed absence.
func (s *SQLite) CreateBookings(ctx context.Context, intents []schedule.CreateBooking) ([]*schedule.Booking, error) {
	if len(intents) == 0 {
		return nil, nil
	}

	bookings := make([]*schedule.Booking, 0, len(intents))
	for _, in := range intents {
		if in.End <= in.Start {
			return nil, schedule.ErrEndBeforeStart
		}
		bookings = append(bookings, in.Booking())
	}
	if err := checkBatchOverlap(bookings); err != nil {
		return nil, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, b := range bookings {
			if err := checkResource(ctx, tx, b.ResourceID); err != nil {
				return err
			}
			if err := checkOverlap(ctx, tx, b.ResourceID, b.Date, b.Start, b.End, ""); err != nil {
				return err
			}
			if err := checkConfirmedAbsence(ctx, tx, b.ResourceID, b.Date); err != nil {
				return err
			}

			query, args, err := builder.Insert("bookings").
				Columns(bookingColumns...).
				Values(b.ID, b.ResourceID, dateutil.Key(b.Date), b.Start, b.End, string(b.Kind), b.Paid, b.Participant).
				ToSql()
			if err != nil {
				return fmt.Errorf("building insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("inserting booking: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("create bookings failed", zap.Int("count", len(bookings)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("bookings created", zap.Int("count", len(bookings)))
	return bookings, nil
}

// CreateAbsences adds absences in one transaction.
// Returns schedule.ErrWriteConflict if an absence intersects another
// non-rejected absence of the same resource.
func (s *SQLite) CreateAbsences(ctx context.Context, intents []schedule.CreateAbsence) ([]*schedule.Absence, error) {
	if len(intents) == 0 {
		return nil, nil
	}

	absences := make([]*schedule.Absence, 0, len(intents))
	for _, in := range intents {
		if dateutil.Key(in.EndDate) < dateutil.Key(in.StartDate) {
			return nil, dateutil.ErrEndDateBeforeStart
		}
		if !in.Status.Valid() {
			return nil, schedule.ErrInvalidStatus
		}
		absences = append(absences, in.Absence())
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, a := range absences {
			if err := checkResource(ctx, tx, a.ResourceID); err != nil {
				return err
			}
			if err := checkAbsenceOverlap(ctx, tx, a); err != nil {
				return err
			}

			query, args, err := builder.Insert("absences").
				Columns(absenceColumns...).
				Values(a.ID, a.ResourceID, dateutil.Key(a.StartDate), dateutil.Key(a.EndDate), string(a.Kind), string(a.Status), a.Reason).
				ToSql()
			if err != nil {
				return fmt.Errorf("building insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("inserting absence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("create absences failed", zap.Int("count", len(absences)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("absences created", zap.Int("count", len(absences)))
	return absences, nil
}

// MoveBooking relocates a private booking.
func (s *SQLite) MoveBooking(ctx context.Context, m schedule.MoveBooking) error {
	if m.End <= m.Start {
		return schedule.ErrEndBeforeStart
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBooking(ctx, tx, m.BookingID)
		if err != nil {
			return err
		}
		if !b.IsPrivate() {
			return fmt.Errorf("%w: group booking %s cannot move", schedule.ErrWriteConflict, b.ID)
		}
		if err := checkResource(ctx, tx, m.ResourceID); err != nil {
			return err
		}
		if err := checkOverlap(ctx, tx, m.ResourceID, m.Date, m.Start, m.End, b.ID); err != nil {
			return err
		}
		if err := checkConfirmedAbsence(ctx, tx, m.ResourceID, m.Date); err != nil {
			return err
		}

		query, args, err := builder.Update("bookings").
			Set("resource_id", m.ResourceID).
			Set("booking_date", dateutil.Key(m.Date)).
			Set("start_time", m.Start).
			Set("end_time", m.End).
			Where(squirrel.Eq{"id": m.BookingID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("building update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("moving booking: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("move booking failed", zap.String("booking_id", m.BookingID), zap.Error(err))
		return err
	}

	s.logger.Info("booking moved",
		zap.String("booking_id", m.BookingID),
		zap.String("resource_id", m.ResourceID),
		zap.String("date", dateutil.Key(m.Date)),
		zap.String("start", m.Start),
		zap.String("end", m.End))
	return nil
}

// DecideAbsence approves or rejects a pending absence.
func (s *SQLite) DecideAbsence(ctx context.Context, d schedule.AbsenceDecision) error {
	if d.Decision != schedule.DecisionApprove && d.Decision != schedule.DecisionReject {
		return fmt.Errorf("unknown decision %q", d.Decision)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var status schedule.AbsenceStatus
		query, args, err := builder.Select("status").From("absences").Where(squirrel.Eq{"id": d.AbsenceID}).ToSql()
		if err != nil {
			return fmt.Errorf("building select: %w", err)
		}
		err = tx.QueryRowContext(ctx, query, args...).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("absence %s: %w", d.AbsenceID, schedule.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("querying absence: %w", err)
		}
		if status != schedule.StatusPending {
			return fmt.Errorf("absence %s is %s: %w", d.AbsenceID, status, schedule.ErrNotPending)
		}

		query, args, err = builder.Update("absences").
			Set("status", string(d.Decision.Status())).
			Set("decision_reason", d.Reason).
			Set("decided_at", time.Now().UTC().Format(time.RFC3339)).
			Where(squirrel.Eq{"id": d.AbsenceID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("building update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("updating absence: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("absence decided",
		zap.String("absence_id", d.AbsenceID),
		zap.String("decision", string(d.Decision)))
	return nil
}

func getBooking(ctx context.Context, q queryer, id string) (*schedule.Booking, error) {
	list, err := queryBookings(ctx, q, builder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("booking %s: %w", id, schedule.ErrNotFound)
	}
	return list[0], nil
}

func queryBookings(ctx context.Context, q queryer, sb squirrel.SelectBuilder) ([]*schedule.Booking, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*schedule.Booking
	for rows.Next() {
		var (
			b    schedule.Booking
			date string
		)
		if err := rows.Scan(&b.ID, &b.ResourceID, &date, &b.Start, &b.End, &b.Kind, &b.Paid, &b.Participant); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		if b.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("parsing booking date: %w", err)
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookings: %w", err)
	}
	return out, nil
}

func queryAbsences(ctx context.Context, q queryer, sb squirrel.SelectBuilder) ([]*schedule.Absence, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying absences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*schedule.Absence
	for rows.Next() {
		var (
			a          schedule.Absence
			start, end string
		)
		if err := rows.Scan(&a.ID, &a.ResourceID, &start, &end, &a.Kind, &a.Status, &a.Reason); err != nil {
			return nil, fmt.Errorf("scanning absence: %w", err)
		}
		if a.StartDate, err = parseDate(start); err != nil {
			return nil, fmt.Errorf("parsing absence start: %w", err)
		}
		if a.EndDate, err = parseDate(end); err != nil {
			return nil, fmt.Errorf("parsing absence end: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating absences: %w", err)
	}
	return out, nil
}

// parseDate accepts the stored YYYY-MM-DD form and the RFC 3339 form some
// SQLite drivers return for date-like columns.
func parseDate(s string) (time.Time, error) {
	if len(s) >= len(dateutil.Layout) {
		if t, err := time.Parse(dateutil.Layout, s[:len(dateutil.Layout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}

func checkResource(ctx context.Context, q queryer, id string) error {
	query, args, err := builder.Select("1").From("resources").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building select: %w", err)
	}
	var one int
	err = q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("resource %s: %w", id, schedule.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking resource: %w", err)
	}
	return nil
}

// checkOverlap looks for a booking of resourceID on date overlapping
// [start, end). Two ranges overlap if start1 < end2 AND start2 < end1.
func checkOverlap(ctx context.Context, q queryer, resourceID string, date time.Time, start, end, excludeID string) error {
	sb := builder.Select("id", "start_time", "end_time").
		From("bookings").
		Where(squirrel.Eq{"resource_id": resourceID, "booking_date": dateutil.Key(date)}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		Limit(1)
	if excludeID != "" {
		sb = sb.Where(squirrel.NotEq{"id": excludeID})
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return fmt.Errorf("building select: %w", err)
	}

	var id, existStart, existEnd string
	err = q.QueryRowContext(ctx, query, args...).Scan(&id, &existStart, &existEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking overlap: %w", err)
	}
	return fmt.Errorf("%w: overlaps booking %s (%s-%s)", schedule.ErrWriteConflict, id, existStart, existEnd)
}

// checkConfirmedAbsence rejects writes on a day the resource is confirmed absent.
// Pending absences are left to the caller's placement policy.
func checkConfirmedAbsence(ctx context.Context, q queryer, resourceID string, date time.Time) error {
	key := dateutil.Key(date)
	query, args, err := builder.Select("id").
		From("absences").
		Where(squirrel.Eq{"resource_id": resourceID, "status": string(schedule.StatusConfirmed)}).
		Where(squirrel.LtOrEq{"start_date": key}).
		Where(squirrel.GtOrEq{"end_date": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return fmt.Errorf("building select: %w", err)
	}
	var id string
	err = q.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking absence: %w", err)
	}
	return fmt.Errorf("%w: resource absent on %s (absence %s)", schedule.ErrWriteConflict, key, id)
}

func checkAbsenceOverlap(ctx context.Context, q queryer, a *schedule.Absence) error {
	query, args, err := builder.Select("id").
		From("absences").
		Where(squirrel.Eq{"resource_id": a.ResourceID}).
		Where(squirrel.NotEq{"status": string(schedule.StatusRejected)}).
		Where(squirrel.LtOrEq{"start_date": dateutil.Key(a.EndDate)}).
		Where(squirrel.GtOrEq{"end_date": dateutil.Key(a.StartDate)}).
		Limit(1).
		ToSql()
	if err != nil {
		return fmt.Errorf("building select: %w", err)
	}
	var id string
	err = q.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking absence overlap: %w", err)
	}
	return fmt.Errorf("%w: overlaps absence %s", schedule.ErrWriteConflict, id)
}

// checkBatchOverlap checks for overlaps between bookings in the same batch.
func checkBatchOverlap(bookings []*schedule.Booking) error {
	for i := 0; i < len(bookings); i++ {
		for j := i + 1; j < len(bookings); j++ {
			b1, b2 := bookings[i], bookings[j]
			if b1.ResourceID != b2.ResourceID || !dateutil.SameDay(b1.Date, b2.Date) {
				continue
			}
			if timegrid.Overlaps(b1.Start, b1.End, b2.Start, b2.End) {
				return fmt.Errorf("%w: %s-%s conflicts with %s-%s on %s",
					schedule.ErrWriteConflict,
					b1.Start, b1.End, b2.Start, b2.End, dateutil.Key(b1.Date))
			}
		}
	}
	return nil
}

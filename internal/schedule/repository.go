package schedule

import "context"

// Provider supplies occupancy facts. It is a pure read dependency.
type Provider interface {
	// ListResources returns the resource roster ordered by name.
	ListResources(ctx context.Context) ([]*Resource, error)

	// Occupancy returns the bookings and absences inside the query window.
	// Absences are included when any day of their range falls inside it.
	Occupancy(ctx context.Context, q Query) (Facts, error)
}

// Mutator persists intents.
type Mutator interface {
	// CreateBookings adds bookings atomically.
	// Returns ErrWriteConflict if any of them collides with stored occupancy.
	CreateBookings(ctx context.Context, intents []CreateBooking) ([]*Booking, error)

	// CreateAbsences adds absences atomically.
	CreateAbsences(ctx context.Context, intents []CreateAbsence) ([]*Absence, error)

	// MoveBooking relocates a booking.
	// Returns ErrNotFound for an unknown booking and ErrWriteConflict if the
	// target is occupied at write time.
	MoveBooking(ctx context.Context, intent MoveBooking) error

	// DecideAbsence approves or rejects a pending absence.
	DecideAbsence(ctx context.Context, decision AbsenceDecision) error
}

// Repository is the full storage interface.
type Repository interface {
	Provider
	Mutator

	// CreateResource adds a resource to the roster.
	CreateResource(ctx context.Context, r *Resource) error

	// Close releases any resources held by the repository.
	Close() error
}

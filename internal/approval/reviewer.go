package approval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/javiermolinar/skigrid/internal/schedule"
)

// Reviewer loads pending absences and records decisions on them.
type Reviewer struct {
	provider schedule.Provider
	mutator  schedule.Mutator
	logger   *zap.Logger
}

// NewReviewer creates a reviewer. A nil logger disables logging.
func NewReviewer(p schedule.Provider, m schedule.Mutator, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{provider: p, mutator: m, logger: logger}
}

// Report builds the conflict report for every pending absence overlapping
// the window [from, to]. Zero times widen the window to cover everything.
func (r *Reviewer) Report(ctx context.Context, from, to time.Time) (Report, error) {
	if from.IsZero() {
		from = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}

	facts, err := r.provider.Occupancy(ctx, schedule.Query{Start: from, End: to})
	if err != nil {
		return Report{}, fmt.Errorf("loading occupancy: %w", err)
	}
	pending := facts.Pending()
	if len(pending) == 0 {
		return Report{}, nil
	}

	// Bookings must cover each absence's full range, which may extend past the window.
	lo, hi := pending[0].StartDate, pending[0].EndDate
	for _, a := range pending[1:] {
		if a.StartDate.Before(lo) {
			lo = a.StartDate
		}
		if a.EndDate.After(hi) {
			hi = a.EndDate
		}
	}
	if lo.Before(from) || hi.After(to) {
		full, err := r.provider.Occupancy(ctx, schedule.Query{Start: lo, End: hi})
		if err != nil {
			return Report{}, fmt.Errorf("loading occupancy: %w", err)
		}
		facts.Bookings = full.Bookings
	}

	report := Check(pending, facts.Bookings)
	r.logger.Debug("approval report built",
		zap.Int("pending", len(report.Entries)),
		zap.Int("conflicts", report.Count()))
	return report, nil
}

// Approve confirms a pending absence. Conflicts do not prevent approval.
func (r *Reviewer) Approve(ctx context.Context, absenceID string) error {
	return r.decide(ctx, schedule.AbsenceDecision{AbsenceID: absenceID, Decision: schedule.DecisionApprove})
}

// Reject rejects a pending absence with an optional reason.
func (r *Reviewer) Reject(ctx context.Context, absenceID, reason string) error {
	return r.decide(ctx, schedule.AbsenceDecision{AbsenceID: absenceID, Decision: schedule.DecisionReject, Reason: reason})
}

func (r *Reviewer) decide(ctx context.Context, d schedule.AbsenceDecision) error {
	if err := r.mutator.DecideAbsence(ctx, d); err != nil {
		r.logger.Warn("absence decision failed",
			zap.String("absence_id", d.AbsenceID),
			zap.String("decision", string(d.Decision)),
			zap.Error(err))
		return fmt.Errorf("%s absence %s: %w", d.Decision, d.AbsenceID, err)
	}
	r.logger.Info("absence decided",
		zap.String("absence_id", d.AbsenceID),
		zap.String("decision", string(d.Decision)))
	return nil
}

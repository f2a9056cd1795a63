// Package summary aggregates a week of occupancy into per-instructor load.
package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/timegrid"
)

// Load is one instructor's week.
type Load struct {
	ResourceID     string
	PrivateMinutes int
	GroupMinutes   int
	Lessons        int
	PaidLessons    int
	AbsentDays     int // confirmed
	PendingDays    int
	// AvailableMinutes counts operational hours on days without a confirmed absence.
	AvailableMinutes int
}

// BookedMinutes returns the lesson minutes of the week.
func (l Load) BookedMinutes() int {
	return l.PrivateMinutes + l.GroupMinutes
}

// Utilization returns booked over available minutes, or 0 when nothing is available.
func (l Load) Utilization() float64 {
	if l.AvailableMinutes == 0 {
		return 0
	}
	return float64(l.BookedMinutes()) / float64(l.AvailableMinutes)
}

func (l *Load) add(o Load) {
	l.PrivateMinutes += o.PrivateMinutes
	l.GroupMinutes += o.GroupMinutes
	l.Lessons += o.Lessons
	l.PaidLessons += o.PaidLessons
	l.AbsentDays += o.AbsentDays
	l.PendingDays += o.PendingDays
	l.AvailableMinutes += o.AvailableMinutes
}

// WeekSummary holds aggregated week data.
type WeekSummary struct {
	Start time.Time
	End   time.Time
	Loads []Load // roster order
}

// Totals sums every instructor's load.
func (w *WeekSummary) Totals() Load {
	var total Load
	for _, l := range w.Loads {
		total.add(l)
	}
	return total
}

// SummarizeWeek builds the summary of the seven days starting at weekStart.
// Bookings and absences outside the week are ignored.
func SummarizeWeek(weekStart time.Time, resources []*schedule.Resource, facts schedule.Facts, grid timegrid.Grid) *WeekSummary {
	start := dateutil.TruncateToDay(weekStart)
	end := start.AddDate(0, 0, 6)
	dayMinutes := grid.DayEnd - grid.DayStart

	s := &WeekSummary{Start: start, End: end}
	for _, r := range resources {
		l := Load{ResourceID: r.ID}
		for d := 0; d < 7; d++ {
			date := start.AddDate(0, 0, d)
			a := facts.AbsenceOn(r.ID, date)
			switch {
			case a == nil:
				l.AvailableMinutes += dayMinutes
			case a.IsPending():
				l.PendingDays++
				l.AvailableMinutes += dayMinutes
			default:
				l.AbsentDays++
			}

			for _, b := range facts.BookingsFor(r.ID, date) {
				l.Lessons++
				if b.Kind == schedule.BookingGroup {
					l.GroupMinutes += b.Duration()
					continue
				}
				l.PrivateMinutes += b.Duration()
				if b.Paid {
					l.PaidLessons++
				}
			}
		}
		s.Loads = append(s.Loads, l)
	}
	return s
}

// BuildWeekSummary loads the roster and occupancy for the week containing
// date, with weeks beginning on first.
func BuildWeekSummary(ctx context.Context, p schedule.Provider, grid timegrid.Grid, date time.Time, first time.Weekday) (*WeekSummary, error) {
	start := dateutil.WeekStarting(date, first)

	resources, err := p.ListResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	facts, err := p.Occupancy(ctx, schedule.Query{Start: start, End: start.AddDate(0, 0, 6)})
	if err != nil {
		return nil, fmt.Errorf("fetching occupancy: %w", err)
	}
	return SummarizeWeek(start, resources, facts, grid), nil
}

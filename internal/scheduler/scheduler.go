// Package scheduler finds free lesson slots on the grid.
package scheduler

import (
	"time"

	"github.com/javiermolinar/skigrid/internal/conflict"
	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/timegrid"
)

// Scheduler searches the grid for placeable intervals.
type Scheduler struct {
	engine *conflict.Engine
	grid   timegrid.Grid
}

// New creates a Scheduler that validates every candidate with engine.
func New(engine *conflict.Engine) *Scheduler {
	return &Scheduler{engine: engine, grid: engine.Grid()}
}

// Opening is a free interval for one resource.
type Opening struct {
	ResourceID string
	Date       time.Time
	Start      string
	End        string
	// Warning is set when the opening falls on a pending absence under
	// the warn policy.
	Warning bool
}

// Query describes a search.
type Query struct {
	ResourceIDs []string
	Duration    int       // minutes; must be an allowed lesson length
	From        time.Time // earliest instant a lesson may start
	Days        int       // calendar days to search, starting with From's day
	Limit       int       // 0 means no limit
}

// NextAvailableStart returns the first bookable slot start at or after now.
// Before opening it is today's first slot; during hours it is now rounded up
// to the next slot boundary; after hours it is the next day's first slot.
func (s *Scheduler) NextAvailableStart(now time.Time) (time.Time, string) {
	today := dateutil.TruncateToDay(now)
	minute := roundUpToSlot(now, s.grid.SlotMinutes)

	switch {
	case minute <= s.grid.DayStart:
		return today, timegrid.FromMinutes(s.grid.DayStart)
	case minute < s.grid.DayEnd:
		return today, timegrid.FromMinutes(minute)
	default:
		return today.AddDate(0, 0, 1), timegrid.FromMinutes(s.grid.DayStart)
	}
}

// FreeSlots walks the grid day by day, resource by resource, and returns
// every start where a lesson of q.Duration could be placed against facts.
// Openings may overlap each other; each is a separate choice.
func (s *Scheduler) FreeSlots(facts schedule.Facts, q Query) ([]Opening, error) {
	if !s.grid.ValidDuration(q.Duration) {
		return nil, conflict.ErrInvalidDuration
	}

	firstDay, firstStart := s.NextAvailableStart(q.From)
	lastDay := dateutil.TruncateToDay(q.From).AddDate(0, 0, max(q.Days, 1)-1)

	var out []Opening
	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		for _, id := range q.ResourceIDs {
			for _, start := range s.grid.Marks() {
				if dateutil.SameDay(day, firstDay) && start < firstStart {
					continue
				}
				end := timegrid.AddMinutes(start, q.Duration)
				res := s.engine.CanPlace(id, day, start, end, facts)
				if !res.Valid() {
					continue
				}
				out = append(out, Opening{
					ResourceID: id,
					Date:       day,
					Start:      start,
					End:        end,
					Warning:    res.Warning != conflict.ReasonNone,
				})
				if q.Limit > 0 && len(out) == q.Limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// AvailableMinutes returns the bookable minutes left on date after now.
func (s *Scheduler) AvailableMinutes(date, now time.Time) int {
	day, start := s.NextAvailableStart(now)
	switch {
	case dateutil.Key(date) < dateutil.Key(day):
		return 0
	case dateutil.SameDay(date, day):
		return s.grid.DayEnd - timegrid.ToMinutes(start)
	default:
		return s.grid.DayEnd - s.grid.DayStart
	}
}

// roundUpToSlot returns minutes since midnight of t rounded up to a slot boundary.
func roundUpToSlot(t time.Time, slot int) int {
	minute := t.Hour()*60 + t.Minute()
	if t.Second() > 0 || t.Nanosecond() > 0 {
		minute++
	}
	if slot <= 0 {
		return minute
	}
	if r := minute % slot; r != 0 {
		minute += slot - r
	}
	return minute
}

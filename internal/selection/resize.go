package selection

import (
	"go.uber.org/zap"

	"github.com/javiermolinar/skigrid/internal/conflict"
	"github.com/javiermolinar/skigrid/internal/timegrid"
)

// GestureState is the state of a resize gesture.
type GestureState int

const (
	GestureIdle GestureState = iota
	GestureDragging
	GestureCommitted
	GestureCancelled
)

func (g GestureState) String() string {
	switch g {
	case GestureDragging:
		return "dragging"
	case GestureCommitted:
		return "committed"
	case GestureCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// gesture is one start -> move* -> end|cancel resize sequence.
type gesture struct {
	slotID      string
	widthPx     float64
	pxPerMinute float64
	state       GestureState

	// preview is the last valid candidate duration, 0 if none yet.
	preview int
}

// Preview is the candidate shown while resizing.
type Preview struct {
	SlotID          string
	End             string
	DurationMinutes int
	// Valid is false when no candidate has passed validation yet.
	Valid bool
}

func (s *Set) resizing() bool {
	return s.gesture != nil && s.gesture.state == GestureDragging
}

// GestureState returns the state of the current or last resize gesture.
func (s *Set) GestureState() GestureState {
	if s.gesture == nil {
		return GestureIdle
	}
	return s.gesture.state
}

// ResizingID returns the id of the selection under resize, or "".
func (s *Set) ResizingID() string {
	if !s.resizing() {
		return ""
	}
	return s.gesture.slotID
}

// BeginResize starts resizing the selection with id, whose rendered width is
// widthPx at pxPerMinute.
func (s *Set) BeginResize(id string, widthPx, pxPerMinute float64) error {
	if s.resizing() {
		return ErrResizeActive
	}
	if pxPerMinute <= 0 {
		return ErrInvalidScale
	}
	if s.index(id) < 0 {
		return ErrSelectionNotFound
	}
	s.gesture = &gesture{
		slotID:      id,
		widthPx:     widthPx,
		pxPerMinute: pxPerMinute,
		state:       GestureDragging,
	}
	return nil
}

// ResizeMove recomputes the candidate end from the cursor delta.
// The duration snaps to the grid step and is clamped to the allowed bounds.
// A candidate that fails validation leaves the last valid preview in place.
func (s *Set) ResizeMove(deltaPx float64) (Preview, conflict.Result, error) {
	if !s.resizing() {
		return Preview{}, conflict.Result{}, ErrNotResizing
	}
	g := s.gesture
	sl := s.slots[s.index(g.slotID)]

	raw := (g.widthPx + deltaPx) / g.pxPerMinute
	dur := s.engine.Grid().SnapDuration(raw)
	end := timegrid.AddMinutes(sl.Start, dur)

	res := s.engine.CanPlace(sl.ResourceID, sl.Date, sl.Start, end, s.facts,
		conflict.WithOccupied(s.Intervals()), conflict.Excluding(sl.ID))
	if res.Valid() {
		g.preview = dur
	} else {
		s.logger.Debug("resize candidate rejected",
			zap.String("selection_id", sl.ID),
			zap.Int("duration", dur),
			zap.String("reason", string(res.Reason)))
	}
	return s.currentPreview(), res, nil
}

// CurrentPreview returns the preview of the active gesture.
func (s *Set) CurrentPreview() (Preview, bool) {
	if !s.resizing() {
		return Preview{}, false
	}
	return s.currentPreview(), true
}

func (s *Set) currentPreview() Preview {
	g := s.gesture
	sl := s.slots[s.index(g.slotID)]
	if g.preview == 0 {
		return Preview{SlotID: sl.ID, End: sl.End, DurationMinutes: sl.DurationMinutes}
	}
	return Preview{
		SlotID:          sl.ID,
		End:             timegrid.AddMinutes(sl.Start, g.preview),
		DurationMinutes: g.preview,
		Valid:           true,
	}
}

// EndResize commits the last valid preview and ends the gesture. Without a
// valid preview, or when the duration did not change, the gesture ends
// cancelled. It returns whether the selection changed.
func (s *Set) EndResize() (bool, error) {
	if !s.resizing() {
		return false, ErrNotResizing
	}
	g := s.gesture
	sl := s.slots[s.index(g.slotID)]
	if g.preview == 0 || g.preview == sl.DurationMinutes {
		g.state = GestureCancelled
		return false, nil
	}
	g.state = GestureCommitted
	return s.UpdateDuration(sl.ID, timegrid.AddMinutes(sl.Start, g.preview), g.preview), nil
}

// CancelResize discards the gesture without touching the selection.
func (s *Set) CancelResize() {
	if s.resizing() {
		s.gesture.state = GestureCancelled
	}
}

package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/skigrid/internal/dateutil"
)

// logKey records a keystroke with the grid position it landed on.
func (m Model) logKey(msg tea.KeyMsg) {
	m.logger.Debug("key",
		zap.String("key", msg.String()),
		zap.Stringer("mode", m.mode),
		zap.String("date", dateutil.Key(m.cursorDate())),
		zap.String("time", m.cursorTime()),
		zap.String("resource_id", m.currentResourceID()),
		zap.Int("selected", m.set.Len()),
	)
}

// logMode records a mode transition.
func (m Model) logMode(from, to Mode) {
	if from == to {
		return
	}
	m.logger.Debug("mode", zap.Stringer("from", from), zap.Stringer("to", to))
}

func (m Model) logError(err error) {
	m.logger.Warn("tui error", zap.Error(err))
}

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/skigrid/internal/tui/theme"
)

const (
	defaultColWidth = 14
	minColWidth     = 8
	timeColWidth    = 6
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	TitleStyle          lipgloss.Style
	ResourceStyle       lipgloss.Style
	DayHeaderStyle      lipgloss.Style
	DayHeaderTodayStyle lipgloss.Style
	TimeColumnStyle     lipgloss.Style
	TimeColumnOffStyle  lipgloss.Style

	// Grid cells
	CellStyle         lipgloss.Style
	OffHoursStyle     lipgloss.Style
	PrivateStyle      lipgloss.Style
	PrivateAltStyle   lipgloss.Style
	GroupStyle        lipgloss.Style
	GroupAltStyle     lipgloss.Style
	AbsenceStyle      lipgloss.Style
	PendingStyle      lipgloss.Style
	SelectionStyle    lipgloss.Style
	PreviewStyle      lipgloss.Style
	CandidateStyle    lipgloss.Style
	CandidateBadStyle lipgloss.Style
	CursorStyle       lipgloss.Style

	// Footer
	ModeStyle        lipgloss.Style
	StatusStyle      lipgloss.Style
	ErrorStyle       lipgloss.Style
	HelpStyle        lipgloss.Style
	PromptLabelStyle lipgloss.Style
	SuggestionStyle  lipgloss.Style

	// Modal
	ModalStyle          lipgloss.Style
	ModalTitleStyle     lipgloss.Style
	ModalTextStyle      lipgloss.Style
	ModalMutedStyle     lipgloss.Style
	ModalHighlightStyle lipgloss.Style
	ModalWarningStyle   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	s := &Styles{}

	s.TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent)
	s.ResourceStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Fg)
	s.DayHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Fg)
	s.DayHeaderTodayStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Underline(true)
	s.TimeColumnStyle = lipgloss.NewStyle().Foreground(p.Fg).Width(timeColWidth)
	s.TimeColumnOffStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Width(timeColWidth)

	s.CellStyle = lipgloss.NewStyle().Foreground(p.FgMuted)
	s.OffHoursStyle = lipgloss.NewStyle().Background(p.BgHighlight).Foreground(p.FgMuted)
	s.PrivateStyle = lipgloss.NewStyle().Background(p.PrivateBg).Foreground(p.TextOnPrivate)
	s.PrivateAltStyle = lipgloss.NewStyle().Background(p.PrivateBgAlt).Foreground(p.TextOnPrivate)
	s.GroupStyle = lipgloss.NewStyle().Background(p.GroupBg).Foreground(p.TextOnGroup)
	s.GroupAltStyle = lipgloss.NewStyle().Background(p.GroupBgAlt).Foreground(p.TextOnGroup)
	s.AbsenceStyle = lipgloss.NewStyle().Background(p.AbsenceBg).Foreground(p.Absence)
	s.PendingStyle = lipgloss.NewStyle().Background(p.PendingBg).Foreground(p.Pending)
	s.SelectionStyle = lipgloss.NewStyle().Background(p.SelectionBg).Foreground(p.TextOnAccent).Bold(true)
	s.PreviewStyle = lipgloss.NewStyle().Background(p.PreviewBg).Foreground(p.TextOnAccent)
	s.CandidateStyle = lipgloss.NewStyle().Background(p.Accent).Foreground(p.TextOnAccent)
	s.CandidateBadStyle = lipgloss.NewStyle().Background(p.Warning).Foreground(p.TextOnWarning)
	s.CursorStyle = lipgloss.NewStyle().Background(p.BgSelection).Foreground(p.Fg).Bold(true)

	s.ModeStyle = lipgloss.NewStyle().Bold(true).Background(p.Accent).Foreground(p.TextOnAccent).Padding(0, 1)
	s.StatusStyle = lipgloss.NewStyle().Foreground(p.Fg)
	s.ErrorStyle = lipgloss.NewStyle().Foreground(p.Warning)
	s.HelpStyle = lipgloss.NewStyle().Foreground(p.FgMuted)
	s.PromptLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent)
	s.SuggestionStyle = lipgloss.NewStyle().Foreground(p.FgMuted)

	s.ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.ModalBorder).
		Background(p.ModalBg).
		Padding(0, 1)
	s.ModalTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Background(p.ModalBg)
	s.ModalTextStyle = lipgloss.NewStyle().Foreground(p.Fg).Background(p.ModalBg)
	s.ModalMutedStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.ModalBg)
	s.ModalHighlightStyle = lipgloss.NewStyle().Bold(true).Foreground(p.ModalHighlightText).Background(p.ModalHighlight)
	s.ModalWarningStyle = lipgloss.NewStyle().Foreground(p.Warning).Background(p.ModalBg)

	return s
}

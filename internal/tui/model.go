// Package tui provides the interactive booking grid for skigrid.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.uber.org/zap"

	"github.com/javiermolinar/skigrid/internal/approval"
	"github.com/javiermolinar/skigrid/internal/config"
	"github.com/javiermolinar/skigrid/internal/conflict"
	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/drag"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/selection"
	"github.com/javiermolinar/skigrid/internal/timegrid"
	"github.com/javiermolinar/skigrid/internal/tui/commands"
	"github.com/javiermolinar/skigrid/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeResize      // Stretching a selection
	ModeMove        // Dragging a private lesson
	ModePrompt
	ModeModal
)

func (m Mode) String() string {
	switch m {
	case ModeResize:
		return "RESIZE"
	case ModeMove:
		return "MOVE"
	case ModePrompt:
		return "PROMPT"
	case ModeModal:
		return "APPROVALS"
	default:
		return "NORMAL"
	}
}

type promptKind int

const (
	promptNone promptKind = iota
	promptBooking
	promptAbsence
)

// Position is a cursor position in the grid.
type Position struct {
	Day  int // 0 = first day of the visible week
	Slot int // index into the displayed time marks
}

// Deps are the collaborators the TUI needs.
type Deps struct {
	Store  commands.Store
	Config *config.Config
	Engine *conflict.Engine
	Role   schedule.Role
	Logger *zap.Logger
}

// Model is the main TUI model.
type Model struct {
	// Dependencies
	store    commands.Store
	config   *config.Config
	engine   *conflict.Engine
	role     schedule.Role
	logger   *zap.Logger
	reviewer *approval.Reviewer

	// Theme and styles
	theme  *theme.Theme
	styles *Styles

	grid  timegrid.Grid
	marks []string

	// Selection and drag own their state; the model only renders it.
	set  *selection.Set
	drag *drag.Manager

	// Loaded data
	weekStart  time.Time
	loadedWeek time.Time
	resources  []*schedule.Resource
	resIdx     int
	facts      schedule.Facts

	cursor  Position
	mode    Mode
	loading bool

	// Resize gesture, in rows moved since it began.
	resizeRows int

	prompt     textinput.Model
	promptKind promptKind

	report    approval.Report
	reportIdx int

	width      int
	height     int
	colWidth   int
	statusMsg  string
	statusTime time.Time
	err        error

	nowFunc func() time.Time
	tick    func(time.Duration, func(time.Time) tea.Msg) tea.Cmd
}

// Option configures a Model.
type Option func(*Model)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(m *Model) {
		m.nowFunc = now
	}
}

// New creates a new TUI model.
func New(deps Deps, opts ...Option) Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	engine := deps.Engine
	if engine == nil {
		engine = conflict.NewEngine(timegrid.Default())
	}

	t, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		logger.Warn("theme not loaded, using default", zap.String("theme", cfg.UI.Theme), zap.Error(err))
		t, _ = theme.Load(theme.DefaultName)
	}

	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 60

	m := Model{
		store:    deps.Store,
		config:   cfg,
		engine:   engine,
		role:     deps.Role,
		logger:   logger,
		theme:    t,
		styles:   NewStyles(t),
		grid:     engine.Grid(),
		marks:    engine.Grid().DisplayMarks(),
		set:      selection.NewSet(engine, selection.WithLogger(logger.Named("selection"))),
		drag:     drag.NewManager(engine, drag.WithLogger(logger.Named("drag"))),
		prompt:   ti,
		colWidth: defaultColWidth,
		loading:  true,
		nowFunc:  time.Now,
		tick:     tea.Tick,
	}
	if deps.Store != nil {
		m.reviewer = approval.NewReviewer(deps.Store, deps.Store, logger.Named("approval"))
	}
	for _, opt := range opts {
		opt(&m)
	}

	today := m.today()
	m.weekStart = dateutil.WeekStarting(today, cfg.WeekStart())
	m.cursor = Position{
		Day:  dateutil.DaysBetween(m.weekStart, today),
		Slot: m.firstOperationalSlot(),
	}
	return m
}

// Init loads the current week.
func (m Model) Init() tea.Cmd {
	return commands.LoadWeek(m.store, m.weekStart)
}

// Run starts the TUI.
func Run(deps Deps) error {
	lipgloss.SetColorProfile(termenv.EnvColorProfile())

	model := New(deps)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) today() time.Time {
	return dateutil.TruncateToDay(m.nowFunc())
}

func (m Model) firstOperationalSlot() int {
	for i, t := range m.marks {
		if m.grid.IsOperational(t) {
			return i
		}
	}
	return 0
}

// currentResource returns the resource whose column set is shown.
func (m Model) currentResource() *schedule.Resource {
	if len(m.resources) == 0 {
		return nil
	}
	return m.resources[m.resIdx]
}

func (m Model) currentResourceID() string {
	if r := m.currentResource(); r != nil {
		return r.ID
	}
	return ""
}

func (m Model) cursorDate() time.Time {
	return m.weekStart.AddDate(0, 0, m.cursor.Day)
}

func (m Model) cursorTime() string {
	if len(m.marks) == 0 {
		return ""
	}
	return m.marks[m.cursor.Slot]
}

// bookingAt returns the booking of the current resource covering date and t.
func (m Model) bookingAt(date time.Time, t string) *schedule.Booking {
	minute := timegrid.ToMinutes(t)
	for _, b := range m.facts.BookingsFor(m.currentResourceID(), date) {
		if minute >= timegrid.ToMinutes(b.Start) && minute < timegrid.ToMinutes(b.End) {
			return b
		}
	}
	return nil
}

// slotIndex returns the display row of t, or -1.
func (m Model) slotIndex(t string) int {
	for i, mark := range m.marks {
		if mark == t {
			return i
		}
	}
	return -1
}

func (m Model) resourceNames() map[string]string {
	names := make(map[string]string, len(m.resources))
	for _, r := range m.resources {
		names[r.ID] = r.Name
	}
	return names
}

package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette holds the derived colors the grid renders with.
type Palette struct {
	Bg          lipgloss.Color
	BgHighlight lipgloss.Color
	BgSelection lipgloss.Color
	Fg          lipgloss.Color
	FgMuted     lipgloss.Color
	Accent      lipgloss.Color
	Absence     lipgloss.Color
	Pending     lipgloss.Color
	Warning     lipgloss.Color

	// Cell backgrounds. Alt shades tell adjacent lessons apart.
	PrivateBg    lipgloss.Color
	PrivateBgAlt lipgloss.Color
	GroupBg      lipgloss.Color
	GroupBgAlt   lipgloss.Color
	AbsenceBg    lipgloss.Color
	PendingBg    lipgloss.Color
	SelectionBg  lipgloss.Color
	PreviewBg    lipgloss.Color

	TextOnAccent  lipgloss.Color
	TextOnWarning lipgloss.Color
	TextOnPrivate lipgloss.Color
	TextOnGroup   lipgloss.Color

	ModalBg            lipgloss.Color
	ModalBorder        lipgloss.Color
	ModalHighlight     lipgloss.Color
	ModalHighlightText lipgloss.Color
}

var (
	black = colorful.Color{}
	white = colorful.Color{R: 1, G: 1, B: 1}
)

// NewPalette derives a Palette from t, or from the default theme when t is nil.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load(DefaultName)
	}

	bg, fg := parse(t.Bg), parse(t.Fg)
	s := shader{bg: bg, light: luminance(bg) > 0.55}

	private := s.block(parse(t.Private))
	group := s.block(parse(t.Group))
	selection := s.block(parse(t.Accent))
	highlight := parse(t.BgSelection)

	return &Palette{
		Bg:          color(bg),
		BgHighlight: lipgloss.Color(t.BgHighlight),
		BgSelection: lipgloss.Color(t.BgSelection),
		Fg:          color(fg),
		FgMuted:     lipgloss.Color(t.FgMuted),
		Accent:      lipgloss.Color(t.Accent),
		Absence:     lipgloss.Color(t.Absence),
		Pending:     lipgloss.Color(t.Pending),
		Warning:     lipgloss.Color(t.Warning),

		PrivateBg:    color(private),
		PrivateBgAlt: color(s.alternate(private)),
		GroupBg:      color(group),
		GroupBgAlt:   color(s.alternate(group)),
		AbsenceBg:    color(s.muted(parse(t.Absence))),
		PendingBg:    color(s.muted(parse(t.Pending))),
		SelectionBg:  color(selection),
		PreviewBg:    color(s.alternate(selection)),

		TextOnAccent:  color(readableOn(parse(t.Accent), bg, fg)),
		TextOnWarning: color(readableOn(parse(t.Warning), bg, fg)),
		TextOnPrivate: color(readableOn(private, bg, fg)),
		TextOnGroup:   color(readableOn(group, bg, fg)),

		ModalBg:            lipgloss.Color(t.BgHighlight),
		ModalBorder:        lipgloss.Color(t.Accent),
		ModalHighlight:     color(highlight),
		ModalHighlightText: color(readableOn(highlight, bg, fg)),
	}
}

// shader moves theme colors towards the background so text stays legible
// on top of them. Light themes fade towards the background, dark themes
// towards black.
type shader struct {
	bg    colorful.Color
	light bool
}

func (s shader) block(c colorful.Color) colorful.Color {
	if s.light {
		return c.BlendRgb(s.bg, 0.75)
	}
	return c.BlendRgb(black, 0.5)
}

func (s shader) muted(c colorful.Color) colorful.Color {
	if s.light {
		return c.BlendRgb(s.bg, 0.88)
	}
	return c.BlendRgb(black, 0.7)
}

func (s shader) alternate(c colorful.Color) colorful.Color {
	if s.light {
		return c.BlendRgb(black, 0.1)
	}
	return c.BlendRgb(white, 0.3)
}

// readableOn returns whichever of a and b contrasts more with bg.
func readableOn(bg, a, b colorful.Color) colorful.Color {
	if contrast(bg, a) >= contrast(bg, b) {
		return a
	}
	return b
}

func contrast(a, b colorful.Color) float64 {
	l1, l2 := luminance(a), luminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// luminance is the WCAG relative luminance.
func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// parse reads a hex color; anything unparsable renders as black.
func parse(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return black
	}
	return c
}

func color(c colorful.Color) lipgloss.Color {
	return lipgloss.Color(c.Clamped().Hex())
}

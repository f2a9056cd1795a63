package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/summary"
)

func (a *App) weekCmd() *cobra.Command {
	var date string
	var noColor bool

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show each instructor's load for a week",
		Long: `Summarize one week per instructor: lesson hours split into private and
group, paid lessons, absent days, and how much of the available
operational time is booked.

The week containing --date is shown, starting on the configured week_start.`,
		Example: `  skigrid week
  skigrid week --date=2025-02-10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				SetColor(false)
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			day := dateutil.Today()
			if date != "" {
				d, err := dateutil.ParseDate(date)
				if err != nil {
					return err
				}
				day = d
			}

			ctx := cmd.Context()
			weekSummary, err := summary.BuildWeekSummary(ctx, a.repo, a.engine.Grid(), day, a.config.WeekStart())
			if err != nil {
				return fmt.Errorf("building week summary: %w", err)
			}
			names, err := a.resourceNames(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(weekSummary.Loads) == 0 {
				fmt.Fprintln(w, "No instructors yet. Add one with: skigrid resources add NAME")
				return nil
			}
			printWeekSummary(w, weekSummary, names)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any day of the week to show (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

func printWeekSummary(w io.Writer, s *summary.WeekSummary, names map[string]string) {
	header := fmt.Sprintf("WEEK: %s - %s", s.Start.Format("Mon Jan 2"), s.End.Format("Mon Jan 2, 2006"))
	fmt.Fprintf(w, "\n  %s\n", paint(toneHeader, header))
	fmt.Fprintln(w, strings.Repeat("─", 74))

	for _, l := range s.Loads {
		fmt.Fprintf(w, "  %-12s %s %-6s %s %-6s %2d lessons  %s\n",
			truncate(resourceName(names, l.ResourceID), 12),
			paint(tonePrivate, "P"), FormatDuration(l.PrivateMinutes),
			paint(toneGroup, "G"), FormatDuration(l.GroupMinutes),
			l.Lessons,
			LoadBar(l.BookedMinutes(), l.AvailableMinutes, 20),
		)
		if l.PaidLessons > 0 || l.AbsentDays > 0 || l.PendingDays > 0 {
			fmt.Fprintf(w, "  %-12s %s\n", "", paint(toneMuted, loadNotes(l)))
		}
	}

	total := s.Totals()
	fmt.Fprintln(w, strings.Repeat("─", 74))
	fmt.Fprintf(w, "  Total: %s booked in %d lessons (%d paid)\n",
		FormatDuration(total.BookedMinutes()), total.Lessons, total.PaidLessons)
	fmt.Fprintf(w, "  Load:  %s\n\n", LoadBar(total.BookedMinutes(), total.AvailableMinutes, 20))
}

func loadNotes(l summary.Load) string {
	var notes []string
	if l.PaidLessons > 0 {
		notes = append(notes, fmt.Sprintf("%d paid", l.PaidLessons))
	}
	if l.AbsentDays > 0 {
		notes = append(notes, fmt.Sprintf("%d day(s) absent", l.AbsentDays))
	}
	if l.PendingDays > 0 {
		notes = append(notes, fmt.Sprintf("%d day(s) pending", l.PendingDays))
	}
	return strings.Join(notes, ", ")
}

// LoadBar creates an ASCII bar showing how much available time is booked.
func LoadBar(booked, available, width int) string {
	if available == 0 {
		return "[" + strings.Repeat("░", width) + "] (no availability)"
	}
	filled := min(booked*width/available, width)
	pct := booked * 100 / available
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] (%d%% booked)", paint(toneOK, bar), pct)
}

package ui

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/drag"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/timegrid"
)

func (a *App) checkCmd() *cobra.Command {
	var (
		resource string
		date     string
		start    string
		end      string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a lesson could be placed",
		Long: `Validate a candidate lesson without booking it.

Prints "ok" or the conflict reason: invalid_duration, out_of_hours,
absence_blocked, or booking_overlap.

Example:
  skigrid check --resource=Ana --date=2025-01-10 --start=10:00 --end=11:00`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			ctx := cmd.Context()
			resourceID, err := a.resolveResource(ctx, resource)
			if err != nil {
				return err
			}
			d, err := dateutil.ParseDate(date)
			if err != nil {
				return err
			}

			facts, err := a.repo.Occupancy(ctx, schedule.Query{Start: d, End: d, ResourceID: resourceID})
			if err != nil {
				return fmt.Errorf("loading occupancy: %w", err)
			}
			res := a.engine.CanPlace(resourceID, d, start, end, facts)

			w := cmd.OutOrStdout()
			if !res.Valid() {
				fmt.Fprintln(w, paint(toneAbsence, string(res.Reason)))
				return res.Err()
			}
			if warn := res.WarningText(); warn != "" {
				fmt.Fprintln(w, paint(tonePending, "ok, warning: "+warn))
				return nil
			}
			fmt.Fprintln(w, paint(toneOK, "ok"))
			return nil
		},
	}

	cmd.Flags().StringVar(&resource, "resource", "", "Instructor ID or name (required)")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM, required)")
	cmd.Flags().StringVar(&end, "end", "", "End time (HH:MM, required)")

	_ = cmd.MarkFlagRequired("resource")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func (a *App) moveCmd() *cobra.Command {
	var (
		resource string
		date     string
		start    string
	)

	cmd := &cobra.Command{
		Use:   "move [booking-id]",
		Short: "Move a private lesson",
		Long: `Move a private lesson to another instructor, day, or start time.

The lesson keeps its length. Omitted flags keep the current value.
Group lessons cannot be moved.

Example:
  skigrid move 3f1c... --resource=Ben --start=14:00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := a.repo.Booking(ctx, args[0])
			if err != nil {
				return err
			}

			target := drag.Target{ResourceID: b.ResourceID, Date: b.Date, Start: b.Start}
			if resource != "" {
				if target.ResourceID, err = a.resolveResource(ctx, resource); err != nil {
					return err
				}
			}
			if date != "" {
				if target.Date, err = dateutil.ParseDate(date); err != nil {
					return err
				}
			}
			if start != "" {
				if _, err := timegrid.ParseClock(start); err != nil {
					return err
				}
				target.Start = start
			}

			lo, hi := b.Date, target.Date
			if hi.Before(lo) {
				lo, hi = hi, lo
			}
			facts, err := a.repo.Occupancy(ctx, schedule.Query{Start: lo, End: hi})
			if err != nil {
				return fmt.Errorf("loading occupancy: %w", err)
			}

			mgr := drag.NewManager(a.engine, drag.WithLogger(a.logger.Named("drag")))
			mgr.SetFacts(facts)
			if err := mgr.Start(b); err != nil {
				return err
			}
			if _, err := mgr.Hover(target.ResourceID, target.Date, target.Start); err != nil {
				return err
			}
			move, err := mgr.Drop()
			if errors.Is(err, drag.ErrUnchanged) {
				fmt.Fprintln(cmd.OutOrStdout(), "Lesson is already there.")
				return nil
			}
			if err != nil {
				return err
			}

			if err := a.repo.MoveBooking(ctx, move); err != nil {
				return fmt.Errorf("moving booking: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved lesson %s to %s %s-%s\n",
				b.ID, dateutil.Key(move.Date), move.Start, move.End)
			return nil
		},
	}

	cmd.Flags().StringVar(&resource, "resource", "", "Target instructor ID or name")
	cmd.Flags().StringVar(&date, "date", "", "Target date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "Target start time (HH:MM)")

	return cmd
}

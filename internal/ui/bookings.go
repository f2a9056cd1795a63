package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
)

func (a *App) bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookings",
		Aliases: []string{"lessons"},
		Short:   "List and create lessons",
	}
	cmd.AddCommand(a.bookingsListCmd(), a.bookingsAddCmd())
	return cmd
}

func (a *App) bookingsListCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
		resource  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lessons in a date range",
		Long: `List all lessons within a date range.

If no dates are specified, lists today's lessons.
If only --start is specified, lists lessons for that single day.
If both --start and --end are specified, lists lessons in that range (inclusive).`,
		Example: `  skigrid bookings list
  skigrid bookings list --start=2025-01-15 --resource=Ana`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			dateRange, err := dateutil.NewDateRange(startDate, endDate)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			resourceID, err := a.resolveResource(ctx, resource)
			if err != nil {
				return err
			}

			facts, err := a.repo.Occupancy(ctx, schedule.Query{
				Start:      dateRange.Start,
				End:        dateRange.End,
				ResourceID: resourceID,
			})
			if err != nil {
				return fmt.Errorf("listing bookings: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(facts.Bookings) == 0 {
				fmt.Fprintln(w, "No lessons found in the specified date range.")
				return nil
			}
			names, err := a.resourceNames(ctx)
			if err != nil {
				return err
			}
			printBookings(w, facts.Bookings, names)
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD, defaults to start date)")
	cmd.Flags().StringVar(&resource, "resource", "", "Instructor ID or name")

	return cmd
}

func (a *App) bookingsAddCmd() *cobra.Command {
	var (
		resource    string
		date        string
		start       string
		end         string
		kind        string
		participant string
		paid        bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Book a lesson",
		Long: `Book a lesson for an instructor.

The lesson must fit the operating hours, have an allowed length, and
not collide with another lesson or an absence of the instructor.

Example:
  skigrid bookings add --resource=Ana --date=2025-01-10 --start=10:00 --end=11:30 --participant="Lena" --paid`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			ctx := cmd.Context()
			resourceID, err := a.resolveResource(ctx, resource)
			if err != nil {
				return err
			}
			k, err := schedule.ParseBookingKind(kind)
			if err != nil {
				return err
			}
			b, err := schedule.NewBooking(resourceID, date, start, end, k)
			if err != nil {
				return err
			}

			facts, err := a.repo.Occupancy(ctx, schedule.Query{Start: b.Date, End: b.Date, ResourceID: resourceID})
			if err != nil {
				return fmt.Errorf("loading occupancy: %w", err)
			}
			res := a.engine.CanPlace(resourceID, b.Date, b.Start, b.End, facts)
			if err := res.Err(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if warn := res.WarningText(); warn != "" {
				fmt.Fprintln(w, paint(tonePending, "Warning: "+warn))
			}

			created, err := a.repo.CreateBookings(ctx, []schedule.CreateBooking{{
				ResourceID:  resourceID,
				Date:        b.Date,
				Start:       b.Start,
				End:         b.End,
				Kind:        k,
				Paid:        paid,
				Participant: participant,
			}})
			if err != nil {
				return fmt.Errorf("creating booking: %w", err)
			}

			fmt.Fprintf(w, "Booked %s lesson for %s on %s %s-%s (%s)\n",
				string(k),
				resource,
				dateutil.Key(b.Date),
				b.Start,
				b.End,
				created[0].ID,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&resource, "resource", "", "Instructor ID or name (required)")
	cmd.Flags().StringVar(&date, "date", "", "Lesson date (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM, required)")
	cmd.Flags().StringVar(&end, "end", "", "End time (HH:MM, required)")
	cmd.Flags().StringVar(&kind, "kind", "private", "Lesson kind: private or group")
	cmd.Flags().StringVar(&participant, "participant", "", "Student or group name")
	cmd.Flags().BoolVar(&paid, "paid", false, "Mark a private lesson as paid")

	_ = cmd.MarkFlagRequired("resource")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/scheduler"
)

func (a *App) freeCmd() *cobra.Command {
	var (
		resource string
		date     string
		duration int
		days     int
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "free",
		Short: "Find free lesson slots",
		Long: `List start times where a lesson of the given length could be booked.

Without --date the search starts now, rounded up to the next slot.
Without --resource every instructor is searched.`,
		Example: `  skigrid free --duration=90
  skigrid free --resource=Ana --date=2025-02-10 --days=3 --limit=5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			ctx := cmd.Context()

			from := time.Now()
			if date != "" {
				d, err := dateutil.ParseDate(date)
				if err != nil {
					return err
				}
				from = d
			}

			var ids []string
			if resource != "" {
				id, err := a.resolveResource(ctx, resource)
				if err != nil {
					return err
				}
				ids = []string{id}
			} else {
				list, err := a.repo.ListResources(ctx)
				if err != nil {
					return fmt.Errorf("listing resources: %w", err)
				}
				for _, r := range list {
					ids = append(ids, r.ID)
				}
			}

			start := dateutil.TruncateToDay(from)
			facts, err := a.repo.Occupancy(ctx, schedule.Query{Start: start, End: start.AddDate(0, 0, max(days, 1))})
			if err != nil {
				return fmt.Errorf("loading occupancy: %w", err)
			}
			openings, err := scheduler.New(a.engine).FreeSlots(facts, scheduler.Query{
				ResourceIDs: ids,
				Duration:    duration,
				From:        from,
				Days:        days,
				Limit:       limit,
			})
			if err != nil {
				return err
			}
			names, err := a.resourceNames(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(openings) == 0 {
				fmt.Fprintln(w, "No free slots found.")
				return nil
			}
			var currentDate string
			for _, o := range openings {
				if key := dateutil.Key(o.Date); key != currentDate {
					if currentDate != "" {
						fmt.Fprintln(w)
					}
					fmt.Fprintln(w, paint(toneHeader, fmt.Sprintf("=== %s %s ===", key, o.Date.Weekday().String()[:3])))
					currentDate = key
				}
				warn := ""
				if o.Warning {
					warn = "  " + paint(tonePending, "pending absence")
				}
				fmt.Fprintf(w, "  %s-%s  %s%s\n", o.Start, o.End, resourceName(names, o.ResourceID), warn)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&resource, "resource", "", "Instructor ID or name (default: everyone)")
	cmd.Flags().StringVar(&date, "date", "", "First day to search (YYYY-MM-DD, default: now)")
	cmd.Flags().IntVar(&duration, "duration", 60, "Lesson length in minutes")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to search")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum slots to list (0 for all)")

	return cmd
}

package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/skigrid/internal/approval"
	"github.com/javiermolinar/skigrid/internal/dateutil"
	"github.com/javiermolinar/skigrid/internal/schedule"
)

func (a *App) absencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "absences",
		Short: "Request, list, and decide on absences",
	}
	cmd.AddCommand(
		a.absencesListCmd(),
		a.absencesRequestCmd(),
		a.absencesDecideCmd(schedule.DecisionApprove),
		a.absencesDecideCmd(schedule.DecisionReject),
	)
	return cmd
}

func (a *App) absencesListCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
		resource  string
		pending   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List absences intersecting a date range",
		Example: `  skigrid absences list --start=2025-02-01 --end=2025-02-28
  skigrid absences list --pending`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			ctx := cmd.Context()
			resourceID, err := a.resolveResource(ctx, resource)
			if err != nil {
				return err
			}

			q := schedule.Query{ResourceID: resourceID}
			if pending && startDate == "" {
				// Every pending request, regardless of date.
				q.Start = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
				q.End = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
			} else {
				dateRange, err := dateutil.NewDateRange(startDate, endDate)
				if err != nil {
					return err
				}
				q.Start, q.End = dateRange.Start, dateRange.End
			}

			facts, err := a.repo.Occupancy(ctx, q)
			if err != nil {
				return fmt.Errorf("listing absences: %w", err)
			}
			absences := facts.Absences
			if pending {
				absences = facts.Pending()
			}

			w := cmd.OutOrStdout()
			if len(absences) == 0 {
				fmt.Fprintln(w, "No absences found.")
				return nil
			}
			names, err := a.resourceNames(ctx)
			if err != nil {
				return err
			}
			for _, abs := range absences {
				printAbsenceRow(w, abs, names)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD, defaults to start date)")
	cmd.Flags().StringVar(&resource, "resource", "", "Instructor ID or name")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only pending requests (all dates unless --start is set)")

	return cmd
}

func (a *App) absencesRequestCmd() *cobra.Command {
	var (
		resource  string
		startDate string
		endDate   string
		kind      string
		reason    string
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request an absence",
		Long: `Request an absence for an instructor.

Instructors may only request absences for themselves (--as or
[role] self_resource_id) and their requests start pending.
Schedulers (--privileged) may create confirmed absences for anyone.

Example:
  skigrid absences request --resource=Ana --start=2025-02-01 --end=2025-02-03 --kind=vacation --reason="family"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			ctx := cmd.Context()
			resourceID, err := a.resolveResource(ctx, resource)
			if err != nil {
				return err
			}
			k, err := schedule.ParseAbsenceKind(kind)
			if err != nil {
				return err
			}

			role := a.role()
			if res := a.engine.CheckAbsenceRequest(role, resourceID); !res.Valid() {
				return res.Err()
			}

			abs, err := schedule.NewAbsence(resourceID, startDate, endDate, k, role.DefaultAbsenceStatus())
			if err != nil {
				return err
			}
			created, err := a.repo.CreateAbsences(ctx, []schedule.CreateAbsence{{
				ResourceID: resourceID,
				StartDate:  abs.StartDate,
				EndDate:    abs.EndDate,
				Kind:       k,
				Reason:     reason,
				Status:     abs.Status,
			}})
			if err != nil {
				return fmt.Errorf("creating absence: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s absence %s..%s (%s)\n",
				abs.Status, k, dateutil.Key(abs.StartDate), dateutil.Key(abs.EndDate), created[0].ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&resource, "resource", "", "Instructor ID or name (required)")
	cmd.Flags().StringVar(&startDate, "start", "", "First day (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&endDate, "end", "", "Last day (YYYY-MM-DD, default: start)")
	cmd.Flags().StringVar(&kind, "kind", "vacation", "Kind: vacation, sick_leave, day_off, other")
	cmd.Flags().StringVar(&reason, "reason", "", "Free-text reason")

	_ = cmd.MarkFlagRequired("resource")

	return cmd
}

func (a *App) absencesDecideCmd(d schedule.Decision) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   string(d) + " [absence-id]",
		Short: "Decide on a pending absence: " + string(d),
		Long: `Approve or reject a pending absence.

Run "skigrid conflicts" first to see the lessons each request collides
with. Approving does not move or cancel those lessons.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if !a.role().Privileged {
				return fmt.Errorf("only schedulers may decide on absences (use --privileged)")
			}
			reviewer := approval.NewReviewer(a.repo, a.repo, a.logger.Named("approval"))

			var err error
			if d == schedule.DecisionApprove {
				err = reviewer.Approve(cmd.Context(), args[0])
			} else {
				err = reviewer.Reject(cmd.Context(), args[0], reason)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Absence %s: %s\n", args[0], paint(toneOK, string(d.Status())))
			return nil
		},
	}

	if d == schedule.DecisionReject {
		cmd.Flags().StringVar(&reason, "reason", "", "Why the request was rejected")
	}

	return cmd
}

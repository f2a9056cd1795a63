package ui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/skigrid/internal/approval"
	"github.com/javiermolinar/skigrid/internal/dateutil"
)

func (a *App) conflictsCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
		copyText  bool
	)

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Show lessons that collide with pending absences",
		Long: `List every pending absence with the lessons it would collide with
if approved. Use this before "skigrid absences approve".

Without dates every pending absence is reviewed.`,
		Example: `  skigrid conflicts
  skigrid conflicts --start=2025-02-01 --end=2025-02-28 --copy`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			ctx := cmd.Context()

			var from, to time.Time
			if startDate != "" || endDate != "" {
				r, err := dateutil.NewDateRange(startDate, endDate)
				if err != nil {
					return err
				}
				from, to = r.Start, r.End
			}

			reviewer := approval.NewReviewer(a.repo, a.repo, a.logger.Named("approval"))
			report, err := reviewer.Report(ctx, from, to)
			if err != nil {
				return err
			}
			names, err := a.resourceNames(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printReport(w, report, names)

			if copyText {
				if err := clipboard.WriteAll(report.Text(names)); err != nil {
					return fmt.Errorf("copying report: %w", err)
				}
				fmt.Fprintln(w, paint(toneMuted, "Report copied to clipboard."))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "Window end (YYYY-MM-DD, defaults to start)")
	cmd.Flags().BoolVar(&copyText, "copy", false, "Copy the plain-text report to the clipboard")

	return cmd
}

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/skigrid/internal/schedule"
)

func (a *App) resourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resources",
		Aliases: []string{"instructors"},
		Short:   "Manage the instructor roster",
	}
	cmd.AddCommand(a.resourcesListCmd(), a.resourcesAddCmd())
	return cmd
}

func (a *App) resourcesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List instructors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			list, err := a.repo.ListResources(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing resources: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No instructors yet. Add one with: skigrid resources add NAME")
				return nil
			}
			for _, r := range list {
				fmt.Fprintf(w, "  %-20s %-24s %s\n", r.Name, joinTags(r.Tags), paint(toneMuted, r.ID))
			}
			return nil
		},
	}
}

func (a *App) resourcesAddCmd() *cobra.Command {
	var (
		tags  []string
		color string
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add an instructor",
		Long: `Add an instructor to the roster.

Example:
  skigrid resources add "Ana Ruiz" --tags=ski,kids --color=#f5a97f`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			r, err := schedule.NewResource(args[0], tags, color)
			if err != nil {
				return err
			}
			if err := a.repo.CreateResource(cmd.Context(), r); err != nil {
				return fmt.Errorf("creating resource: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created instructor %s (%s)\n", r.Name, r.ID)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Skills or groups (comma-separated)")
	cmd.Flags().StringVar(&color, "color", "", "Display color (#rrggbb)")

	return cmd
}

// resourceNames maps resource IDs to display names.
func (a *App) resourceNames(ctx context.Context) (map[string]string, error) {
	list, err := a.repo.ListResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	names := make(map[string]string, len(list))
	for _, r := range list {
		names[r.ID] = r.Name
	}
	return names, nil
}

// resolveResource accepts a resource ID or a unique case-insensitive name.
func (a *App) resolveResource(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	list, err := a.repo.ListResources(ctx)
	if err != nil {
		return "", fmt.Errorf("listing resources: %w", err)
	}
	var match string
	for _, r := range list {
		if r.ID == ref {
			return r.ID, nil
		}
		if strings.EqualFold(r.Name, ref) {
			if match != "" {
				return "", fmt.Errorf("instructor name %q is ambiguous, use the ID", ref)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("instructor %q: %w", ref, schedule.ErrNotFound)
	}
	return match, nil
}

package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/skigrid/internal/config"
	"github.com/javiermolinar/skigrid/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  skigrid config`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), config.DefaultConfigPath())
		},
	}
}

func runConfigInteractive(in io.Reader, w io.Writer, configPath string) error {
	fmt.Fprintf(w, "Config file: %s\n\n", configPath)

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, fileErr := os.Stat(configPath)
	if os.IsNotExist(fileErr) {
		fmt.Fprintln(w, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(w, "Created %s\n\n", configPath)
	}

	printConfig(w, cfg)

	reader := bufio.NewReader(in)
	if !promptYesNo(reader, w, "\nWould you like to edit the configuration?") {
		return nil
	}

	p := prompter{r: reader, w: w}
	cfg.Schedule.DayStart = p.value("Day start", cfg.Schedule.DayStart)
	cfg.Schedule.DayEnd = p.value("Day end", cfg.Schedule.DayEnd)
	cfg.Schedule.SlotMinutes = p.number("Slot minutes", cfg.Schedule.SlotMinutes)
	cfg.Schedule.MinDuration = p.number("Shortest lesson (minutes)", cfg.Schedule.MinDuration)
	cfg.Schedule.MaxDuration = p.number("Longest lesson (minutes)", cfg.Schedule.MaxDuration)
	cfg.Schedule.PendingAbsences = p.value("Pending absences (block or warn)", cfg.Schedule.PendingAbsences)
	cfg.Schedule.WeekStart = p.value("Week start (monday or sunday)", cfg.Schedule.WeekStart)
	cfg.Storage.DBPath = p.value("Database path", cfg.Storage.DBPath)
	cfg.Role.SelfResourceID = p.value("Your instructor ID (empty for none)", cfg.Role.SelfResourceID)
	cfg.UI.Theme = p.theme(cfg.UI.Theme)
	cfg.Log.File = p.value("Log file (empty to disable)", cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(w, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[schedule]")
	fmt.Fprintf(w, "  day_start        = %s\n", cfg.Schedule.DayStart)
	fmt.Fprintf(w, "  day_end          = %s\n", cfg.Schedule.DayEnd)
	fmt.Fprintf(w, "  slot_minutes     = %d\n", cfg.Schedule.SlotMinutes)
	fmt.Fprintf(w, "  lead_hours       = %d\n", cfg.Schedule.LeadHours)
	fmt.Fprintf(w, "  trail_hours      = %d\n", cfg.Schedule.TrailHours)
	fmt.Fprintf(w, "  min_duration     = %d\n", cfg.Schedule.MinDuration)
	fmt.Fprintf(w, "  max_duration     = %d\n", cfg.Schedule.MaxDuration)
	fmt.Fprintf(w, "  pending_absences = %s\n", cfg.Schedule.PendingAbsences)
	fmt.Fprintf(w, "  week_start       = %s\n", cfg.Schedule.WeekStart)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path          = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[role]")
	fmt.Fprintf(w, "  privileged       = %t\n", cfg.Role.Privileged)
	fmt.Fprintf(w, "  self_resource_id = %s\n", cfg.Role.SelfResourceID)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme            = %s\n", cfg.UI.Theme)
	fmt.Fprintln(w, "\n[log]")
	fmt.Fprintf(w, "  level            = %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "  file             = %s\n", cfg.Log.File)
}

func promptYesNo(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func (p prompter) value(label, current string) string {
	if current == "" {
		fmt.Fprintf(p.w, "  %s: ", label)
	} else {
		fmt.Fprintf(p.w, "  %s [%s]: ", label, current)
	}
	input, _ := p.r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func (p prompter) number(label string, current int) int {
	for {
		v := p.value(label, strconv.Itoa(current))
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		fmt.Fprintf(p.w, "  Invalid number %q\n", v)
	}
}

func (p prompter) theme(current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(p.value(label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(p.w, "  Invalid theme %q. Available: %s\n", value, options)
	}
}

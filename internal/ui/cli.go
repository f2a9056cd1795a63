package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/skigrid/internal/config"
	"github.com/javiermolinar/skigrid/internal/conflict"
	"github.com/javiermolinar/skigrid/internal/db"
	"github.com/javiermolinar/skigrid/internal/schedule"
	"github.com/javiermolinar/skigrid/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// Store is the storage the CLI needs beyond schedule.Repository.
type Store interface {
	schedule.Repository
	Booking(ctx context.Context, id string) (*schedule.Booking, error)
	SchemaVersion(ctx context.Context) (int64, error)
}

// App holds the CLI application state.
type App struct {
	repo   Store
	config *config.Config
	logger *zap.Logger
	engine *conflict.Engine
	root   *cobra.Command

	// Role overrides from flags.
	privileged bool
	actAs      string
}

// Option configures the App.
type Option func(*App)

// WithStore uses an already opened store instead of opening the configured database.
func WithStore(s Store) Option {
	return func(a *App) {
		a.repo = s
	}
}

// WithLogger sets the application logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewApp creates a new CLI application for cfg.
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{config: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}

	engine, err := cfg.Engine(a.logger.Named("conflict"))
	if err != nil {
		return nil, err
	}
	a.engine = engine

	a.root = &cobra.Command{
		Use:   "skigrid",
		Short: "Ski school booking grid",
		Long: `Skigrid schedules instructors on a weekly time grid.

Run without a subcommand to open the interactive grid, where lessons
are selected, booked, moved, and absences are requested and approved.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			return tui.Run(tui.Deps{
				Store:  a.repo,
				Config: a.config,
				Engine: a.engine,
				Role:   a.role(),
				Logger: a.logger.Named("tui"),
			})
		},
	}

	a.root.PersistentFlags().BoolVar(&a.privileged, "privileged", false, "Act as a scheduler who may manage any instructor")
	a.root.PersistentFlags().StringVar(&a.actAs, "as", "", "Act as the instructor with this resource ID")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.resourcesCmd())
	a.root.AddCommand(a.bookingsCmd())
	a.root.AddCommand(a.absencesCmd())
	a.root.AddCommand(a.checkCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.conflictsCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.freeCmd())

	return a, nil
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "skigrid %s (commit: %s)\n", Version, Commit)
			if err := a.ensureRepo(); err != nil {
				fmt.Fprintln(w, paint(toneMuted, "schema version unavailable: "+err.Error()))
				return nil
			}
			v, err := a.repo.SchemaVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "schema version %d\n", v)
			return nil
		},
	}
}

// role returns the configured role with flag overrides applied.
func (a *App) role() schedule.Role {
	r := a.config.ActingRole()
	if a.privileged {
		r.Privileged = true
	}
	if a.actAs != "" {
		r.SelfResourceID = a.actAs
	}
	return r
}

// ensureRepo opens the configured database on first use.
func (a *App) ensureRepo() error {
	if a.repo != nil {
		return nil
	}
	path := a.config.Storage.DBPath
	if path == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	repo, err := db.New(path, db.WithLogger(a.logger.Named("db")))
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	a.repo = repo
	return nil
}

// SetArgs overrides the command line, for tests.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

// SetOutput redirects command output.
func (a *App) SetOutput(w io.Writer) {
	a.root.SetOut(w)
	a.root.SetErr(w)
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.ExecuteContext(context.Background())
}

// Close releases the store.
func (a *App) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

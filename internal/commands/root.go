package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/app"
	"github.com/balkashynov/pulse/internal/config"
	"github.com/balkashynov/pulse/internal/habits"
	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/tasks"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgPath string

	// pulse is the application the running command works against
	pulse *app.App
)

var (
	// ErrAmbiguousRef is returned when an id prefix matches more than one record
	ErrAmbiguousRef = errors.New("ambiguous id prefix")
	errNoMatch      = errors.New("no match")
)

// skipApp marks commands that run without opening the database
const skipApp = "skip-app"

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Tasks, time tracking, habits and productivity analytics",
	Long: `pulse is a command-line tool that combines task management with time tracking.
Tasks can depend on each other, tracked time rolls up into a daily productivity
score, and habits are correlated with how productive your days were.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: openApp,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

// openApp loads configuration and opens the database for every command
// that needs it
func openApp(cmd *cobra.Command, args []string) error {
	if _, ok := cmd.Annotations[skipApp]; ok {
		return nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	a, err := app.Open(cmd.Context(), cfg, app.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	pulse = a
	return nil
}

func closeApp() error {
	if pulse == nil {
		return nil
	}
	err := pulse.Close()
	pulse = nil
	return err
}

// resolveTask finds a task by full id or unique id prefix
func resolveTask(cmd *cobra.Command, ref string) (*models.Task, error) {
	ref = strings.TrimSpace(ref)
	if t, err := pulse.Tasks.Get(cmd.Context(), ref); err == nil {
		return t, nil
	}

	all, err := pulse.Tasks.List(cmd.Context(), tasks.Filter{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(all))
	for i, t := range all {
		ids[i] = t.ID
	}
	id, err := matchPrefix(ids, ref)
	if errors.Is(err, errNoMatch) {
		return nil, fmt.Errorf("%w: %s", tasks.ErrTaskNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	return pulse.Tasks.Get(cmd.Context(), id)
}

// resolveHabit finds a habit by id prefix or exact name
func resolveHabit(cmd *cobra.Command, ref string) (*models.Habit, error) {
	all, err := pulse.Habits.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for _, h := range all {
		if strings.EqualFold(h.Name, ref) {
			return &h, nil
		}
		ids = append(ids, h.ID)
	}
	id, err := matchPrefix(ids, ref)
	if errors.Is(err, errNoMatch) {
		return nil, fmt.Errorf("%w: %s", habits.ErrHabitNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	return pulse.Habits.Get(cmd.Context(), id)
}

// matchPrefix returns the single id starting with ref
func matchPrefix(ids []string, ref string) (string, error) {
	if ref == "" {
		return "", errNoMatch
	}
	var found []string
	for _, id := range ids {
		if strings.HasPrefix(id, ref) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", errNoMatch
	case 1:
		return found[0], nil
	}
	short := make([]string, len(found))
	for i, id := range found {
		short[i] = models.ShortID(id)
	}
	return "", fmt.Errorf("%w '%s' matches %s", ErrAmbiguousRef, ref, strings.Join(short, ", "))
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeApp(); err == nil {
		err = cerr
	}
	return err
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{skipApp: ""},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pulse %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.pulse/config.yaml)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(reopenCmd)
	rootCmd.AddCommand(depCmd)
	rootCmd.AddCommand(blockedCmd)
	rootCmd.AddCommand(subtaskCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(timesheetCmd)
	rootCmd.AddCommand(habitCmd)
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(correlationCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}

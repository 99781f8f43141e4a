package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/todox/internal/config"
	"github.com/roach88/todox/internal/todo"
)

// StoreOptions holds the storage flags shared by the item commands.
type StoreOptions struct {
	*RootOptions
	Backend  string
	Database string
	DataDir  string
}

func (o *StoreOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Backend, "backend", "", "storage backend (memory|sqlite|badger)")
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&o.DataDir, "data-dir", "", "Badger data directory")
}

// withStore loads config, opens the store, runs fn and closes the store.
// Errors are reported through the formatter.
func (o *StoreOptions) withStore(cmd *cobra.Command, fn func(ctx context.Context, st todo.Store, f *OutputFormatter) error) error {
	formatter := o.formatter(cmd)

	cfg, err := o.loadConfig(func(c *config.Config) {
		applyStorageFlags(cmd, c, o.Backend, o.Database, o.DataDir)
	})
	if err != nil {
		return report(formatter, err)
	}
	logger := cfg.NewLogger(cmd.ErrOrStderr())

	st, err := openStore(cfg, logger)
	if err != nil {
		return report(formatter, err)
	}
	defer closeStore(st, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx, st, formatter); err != nil {
		return report(formatter, err)
	}
	return nil
}

// report writes err through f and returns it as an ExitError.
func report(f *OutputFormatter, err error) error {
	_ = f.Error(ErrorCode(err), err.Error(), nil)
	if _, ok := err.(*ExitError); ok {
		return err
	}
	code := ExitFailure
	if ErrorCode(err) == ErrCodeValidation {
		code = ExitCommandError
	}
	return WrapExitError(code, "command failed", err)
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	StoreOptions
	HideDone bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{StoreOptions: StoreOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, newest first",
		Long: `List items newest first.

Without --hide-done the stored "hide completed" preference decides whether
done items are shown.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, st todo.Store, f *OutputFormatter) error {
				hideDone := opts.HideDone
				if !cmd.Flags().Changed("hide-done") {
					prefs, err := st.Preferences(ctx)
					if err != nil {
						f.VerboseLog("preferences unavailable, showing all: %v", err)
					}
					hideDone = prefs.HideDone
				}
				items, err := st.List(ctx, hideDone)
				if err != nil {
					return err
				}
				return f.Items(items)
			})
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVar(&opts.HideDone, "hide-done", false, "skip completed items")

	return cmd
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add an item",
		Long: `Add an item. Multiple arguments are joined with spaces.

Example:
  todox add buy milk`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, st todo.Store, f *OutputFormatter) error {
				it, err := st.Add(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(it)
				}
				return f.Success(fmt.Sprintf("added %d: %s", it.ID, it.Text))
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

// clearResult is the JSON payload of clear-completed.
type clearResult struct {
	Removed int64 `json:"removed"`
}

// NewClearCompletedCommand creates the clear-completed command.
func NewClearCompletedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "clear-completed",
		Short:         "Delete every completed item",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, st todo.Store, f *OutputFormatter) error {
				n, err := st.DeleteAllDone(ctx)
				if err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(clearResult{Removed: n})
				}
				return f.Success(fmt.Sprintf("removed %d completed item(s)", n))
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

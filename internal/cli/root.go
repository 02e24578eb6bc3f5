// Package cli wires the pulse commands. Every command opens the store for
// the resolved project, runs one manager operation and prints the result.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/project"
	"github.com/nhle/pulse/internal/store"
	"github.com/nhle/pulse/internal/tasks"
)

// options are the persistent flags shared by all commands.
type options struct {
	version    string
	workingDir string
	tag        string
	configPath string
	verbose    bool
}

// NewRootCmd builds the full command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{version: version}

	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "Pulse - local task tracker",
		Long: `Pulse keeps tasks in tag-sharded YAML files under .pulse/ in your project.

Tags group related work (use them as epics). Tasks move through
PENDING -> INPROGRESS -> DONE and can carry an ordered list of subtasks.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&opts.workingDir, "working-dir", "w", "", "Project directory (default: nearest git root)")
	rootCmd.PersistentFlags().StringVarP(&opts.tag, "tag", "t", "", "Tag to operate on")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", model.DefaultConfigPath(), "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(addCmd(opts))
	rootCmd.AddCommand(listCmd(opts))
	rootCmd.AddCommand(showCmd(opts))
	rootCmd.AddCommand(updateCmd(opts))
	rootCmd.AddCommand(statusCmd(opts))
	rootCmd.AddCommand(nextCmd(opts))
	rootCmd.AddCommand(deleteCmd(opts))
	rootCmd.AddCommand(subtaskCmd(opts))
	rootCmd.AddCommand(tagCmd(opts))
	rootCmd.AddCommand(tagsCmd(opts))
	rootCmd.AddCommand(dirCmd(opts))
	rootCmd.AddCommand(mcpCmd(opts))
	rootCmd.AddCommand(uiCmd(opts))
	rootCmd.AddCommand(configCmd(opts))
	rootCmd.AddCommand(versionCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// session is an opened project store.
type session struct {
	cfg     *model.AppConfig
	logger  *slog.Logger
	store   store.ShardStore
	manager *tasks.Manager
}

func (s *session) Close() error {
	return s.store.Close()
}

// open loads config, resolves the project root and opens its store.
// Pending tag moves from an interrupted run are completed here.
func (o *options) open(cmd *cobra.Command) (*session, error) {
	cfg, err := model.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel()
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	root, err := project.ResolveRoot(o.workingDir, "", logger)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(cfg.Storage, root, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	m, err := tasks.Open(cmd.Context(), s, logger, tasks.WithDefaultTag(cfg.Tags.Default))
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, store: s, manager: m}, nil
}

// withManager opens a session, runs fn and closes the store.
func (o *options) withManager(cmd *cobra.Command, fn func(*tasks.Manager) error) error {
	s, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s.manager)
}

func dirCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Print the storage directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				fmt.Fprintln(cmd.OutOrStdout(), m.Dir())
				return nil
			})
		},
	}
}

func versionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pulse version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Pulse version: %s\n", opts.version)
		},
	}
}

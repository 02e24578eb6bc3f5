package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/pulse/internal/app"
	"github.com/nhle/pulse/internal/mcp"
	"github.com/nhle/pulse/internal/tagname"
	"github.com/nhle/pulse/internal/theme"
)

func mcpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			// Handle shutdown signals
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			server := mcp.NewServer(s.manager, opts.version, s.logger)
			err = server.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func uiCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := theme.Apply(s.cfg.Display.Theme); err != nil {
				return err
			}

			showDone := s.cfg.Display.ShowDone
			if cmd.Flags().Changed("hide-done") {
				hide, _ := cmd.Flags().GetBool("hide-done")
				showDone = !hide
			}

			tag := ""
			if opts.tag != "" {
				tag = tagname.OrDefault(opts.tag)
			}

			return app.Run(s.manager, app.Options{Tag: tag, ShowDone: showDone})
		},
	}
	cmd.Flags().Bool("hide-done", false, "Start with the DONE column hidden")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/pulse/internal/tagname"
	"github.com/nhle/pulse/internal/tasks"
)

func tagCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags (lists tags when run without a subcommand)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(cmd, opts)
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Show all tags including those without open tasks")

	list := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(cmd, opts)
		},
	}
	list.Flags().BoolP("all", "a", false, "Show all tags including those without open tasks")

	cmd.AddCommand(list)
	cmd.AddCommand(tagCreateCmd(opts))
	cmd.AddCommand(tagUpdateCmd(opts))
	cmd.AddCommand(tagDeleteCmd(opts))
	cmd.AddCommand(tagShowCmd(opts))
	return cmd
}

func tagsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags with open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(cmd, opts)
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Show all tags including those without open tasks")
	return cmd
}

func runTags(cmd *cobra.Command, opts *options) error {
	all, _ := cmd.Flags().GetBool("all")
	return opts.withManager(cmd, func(m *tasks.Manager) error {
		summaries, err := m.TagSummaries(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), FormatTagList(summaries, all))
		return nil
	})
}

func tagCreateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, ok := tagname.Canonical(args[0])
			if !ok {
				return fmt.Errorf("invalid tag name %q: use letters, digits and hyphens", args[0])
			}
			var desc *string
			if cmd.Flags().Changed("description") {
				v, _ := cmd.Flags().GetString("description")
				desc = &v
			}
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				if err := m.CreateTag(cmd.Context(), tag, desc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tag %q created successfully.\n", tag)
				return nil
			})
		},
	}
	cmd.Flags().StringP("description", "d", "", "Tag description")
	return cmd
}

func tagUpdateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Set a tag description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("description") {
				return fmt.Errorf(`description required (-d "desc")`)
			}
			desc, _ := cmd.Flags().GetString("description")
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				ok, err := m.UpdateTag(cmd.Context(), args[0], desc)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("tag %q not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tag %q updated successfully.\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringP("description", "d", "", "Tag description")
	return cmd
}

func tagDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a tag and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				ok, err := m.DeleteTag(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("tag %q not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tag %q deleted successfully.\n", args[0])
				return nil
			})
		},
	}
}

func tagShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a tag's description and task counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				d, err := m.GetTagDetails(cmd.Context(), args[0])
				if isMissing(err) {
					return fmt.Errorf("tag %q not found", args[0])
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Tag: %s\n", d.Tag)
				if d.Description != "" {
					fmt.Fprintf(out, "Description: %s\n", d.Description)
				}
				fmt.Fprintf(out, "Tasks: %d (%d open)\n", d.TaskCount, d.OpenCount)
				return nil
			})
		},
	}
}

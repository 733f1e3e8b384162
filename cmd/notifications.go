package cmd

import (
	"fmt"
	"strconv"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/export"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newNotificationsCmd(loader *appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notes"},
		Short:   "Read and acknowledge notifications",
	}

	var (
		unread bool
		format string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			notifications, err := client.ListNotifications(cmd.Context())
			if err != nil {
				return err
			}
			if unread {
				kept := notifications[:0]
				for _, n := range notifications {
					if !n.IsRead {
						kept = append(kept, n)
					}
				}
				notifications = kept
			}

			if outFormat != export.FormatTable {
				return export.WriteValue(cmd.OutOrStdout(), notifications, outFormat)
			}

			tw := newTableWriter(cmd)
			tw.AppendHeader(table.Row{"ID", "Read", "Issue", "Message"})
			for _, n := range notifications {
				issue := ""
				if n.Issue != nil {
					issue = "#" + strconv.FormatInt(*n.Issue, 10)
				}
				read := ""
				if n.IsRead {
					read = "yes"
				}
				tw.AppendRow(table.Row{n.ID, read, issue, n.Message})
			}
			tw.Render()
			return nil
		},
	}
	listCmd.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")
	listCmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, json or yaml")

	readCmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid notification id %q", args[0])
			}

			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			if err := client.MarkNotificationRead(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Marked notification %d as read\n", id)
			return err
		},
	}

	readAllCmd := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			if err := client.MarkAllNotificationsRead(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Marked all notifications as read")
			return err
		},
	}

	cmd.AddCommand(listCmd, readCmd, readAllCmd)
	return cmd
}

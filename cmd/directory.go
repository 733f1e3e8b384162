package cmd

import (
	"strconv"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/export"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newDirectoryCmds(loader *appLoader) []*cobra.Command {
	return []*cobra.Command{
		newUsersCmd(loader),
		newCollegesCmd(loader),
		newCourseUnitsCmd(loader),
	}
}

func newUsersCmd(loader *appLoader) *cobra.Command {
	var (
		role   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users, optionally by role",
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

			users, err := client.ListUsers(cmd.Context(), domain.Role(role))
			if err != nil {
				return err
			}
			if outFormat != export.FormatTable {
				return export.WriteValue(cmd.OutOrStdout(), users, outFormat)
			}

			tw := newTableWriter(cmd)
			tw.AppendHeader(table.Row{"ID", "Username", "Name", "Role", "College"})
			for _, user := range users {
				tw.AppendRow(table.Row{user.ID, user.Username, user.DisplayName(), user.Role, user.College})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Filter by role: student, lecturer, registrar")
	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, json or yaml")

	return cmd
}

func newCollegesCmd(loader *appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "colleges",
		Short: "List colleges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			colleges, err := client.ListColleges(cmd.Context())
			if err != nil {
				return err
			}

			tw := newTableWriter(cmd)
			tw.AppendHeader(table.Row{"ID", "Name", "Code"})
			for _, college := range colleges {
				tw.AppendRow(table.Row{college.ID, college.Name, college.Code})
			}
			tw.Render()
			return nil
		},
	}
}

func newCourseUnitsCmd(loader *appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "course-units",
		Short: "List course units",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			units, err := client.ListCourseUnits(cmd.Context())
			if err != nil {
				return err
			}

			tw := newTableWriter(cmd)
			tw.AppendHeader(table.Row{"ID", "Code", "Name", "Lecturer"})
			for _, unit := range units {
				lecturer := ""
				if unit.Lecturer != nil {
					lecturer = strconv.FormatInt(*unit.Lecturer, 10)
				}
				tw.AppendRow(table.Row{unit.ID, unit.Code, unit.Name, lecturer})
			}
			tw.Render()
			return nil
		},
	}
}

func newTableWriter(cmd *cobra.Command) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Footer = text.FormatDefault
	return tw
}

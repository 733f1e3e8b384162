package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/export"
	"github.com/spf13/cobra"
)

func newIssuesCmd(loader *appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue"},
		Short:   "List, create and manage issues",
	}

	cmd.AddCommand(
		newIssuesListCmd(loader),
		newIssuesGetCmd(loader),
		newIssuesCreateCmd(loader),
		newIssuesUpdateCmd(loader),
		newIssuesDeleteCmd(loader),
		newIssuesAssignCmd(loader),
		newIssuesCommentsCmd(loader),
		newIssuesCommentCmd(loader),
	)

	return cmd
}

func newIssuesListCmd(loader *appLoader) *cobra.Command {
	var (
		status     string
		priority   string
		college    string
		assignedTo int64
		format     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues visible to the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			filter := domain.IssueFilter{College: college}
			if status != "" {
				if filter.Status, err = domain.ParseStatus(status); err != nil {
					return err
				}
			}
			if priority != "" {
				if filter.Priority, err = domain.ParsePriority(priority); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("assigned-to") {
				filter.AssignedTo = &assignedTo
			}

			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			issues, err := client.ListIssues(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return export.WriteIssues(cmd.OutOrStdout(), issues, outFormat)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status: pending, in_progress, resolved, closed")
	cmd.Flags().StringVar(&priority, "priority", "", "Filter by priority: low, medium, high, urgent")
	cmd.Flags().StringVar(&college, "college", "", "Filter by college")
	cmd.Flags().Int64Var(&assignedTo, "assigned-to", 0, "Filter by assignee user ID")
	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, csv, json or yaml")

	return cmd
}

func newIssuesGetCmd(loader *appLoader) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
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

			issue, err := client.GetIssue(cmd.Context(), id)
			if err != nil {
				return err
			}
			if outFormat != export.FormatTable {
				return export.WriteValue(cmd.OutOrStdout(), issue, outFormat)
			}
			return printIssue(cmd, issue)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, json or yaml")

	return cmd
}

type issueFlags struct {
	title       string
	description string
	category    string
	status      string
	priority    string
	courseUnit  string
}

func (f *issueFlags) register(cmd *cobra.Command, withStatus bool) {
	cmd.Flags().StringVar(&f.title, "title", "", "Issue title")
	cmd.Flags().StringVar(&f.description, "description", "", "Issue description")
	cmd.Flags().StringVar(&f.category, "category", "", "Issue category, for example missing_marks")
	cmd.Flags().StringVar(&f.priority, "priority", "", "Priority: low, medium, high, urgent")
	cmd.Flags().StringVar(&f.courseUnit, "course-unit", "", "Course unit")
	if withStatus {
		cmd.Flags().StringVar(&f.status, "status", "", "Status: pending, in_progress, resolved, closed")
	}
}

func (f issueFlags) input() (domain.IssueInput, error) {
	input := domain.IssueInput{
		Title:       strings.TrimSpace(f.title),
		Description: f.description,
		Category:    f.category,
		CourseUnit:  f.courseUnit,
	}

	var err error
	if f.status != "" {
		if input.Status, err = domain.ParseStatus(f.status); err != nil {
			return domain.IssueInput{}, err
		}
	}
	if f.priority != "" {
		if input.Priority, err = domain.ParsePriority(f.priority); err != nil {
			return domain.IssueInput{}, err
		}
	}
	return input, nil
}

func newIssuesCreateCmd(loader *appLoader) *cobra.Command {
	var flags issueFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new issue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := flags.input()
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

			issue, err := client.CreateIssue(cmd.Context(), input)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created issue #%d: %s\n", issue.ID, issue.Title)
			return err
		},
	}

	flags.register(cmd, false)
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newIssuesUpdateCmd(loader *appLoader) *cobra.Command {
	var flags issueFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			input, err := flags.input()
			if err != nil {
				return err
			}
			if input == (domain.IssueInput{}) {
				return fmt.Errorf("nothing to update for issue #%d", id)
			}

			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			issue, err := client.UpdateIssue(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated issue #%d (%s, %s)\n", issue.ID, issue.Status.Label(), issue.Priority.Label())
			return err
		},
	}

	flags.register(cmd, true)

	return cmd
}

func newIssuesDeleteCmd(loader *appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
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

			if err := client.DeleteIssue(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted issue #%d\n", id)
			return err
		},
	}
}

func newIssuesAssignCmd(loader *appLoader) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "assign <id>",
		Short: "Assign an issue to a lecturer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
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

			issue, err := client.AssignIssue(cmd.Context(), id, userID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Assigned issue #%d to user %d\n", issue.ID, userID)
			return err
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Assignee user ID")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newIssuesCommentsCmd(loader *appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <id>",
		Short: "List comments on an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
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

			comments, err := client.ListComments(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(comments) == 0 {
				_, err = fmt.Fprintln(out, "No comments.")
				return err
			}
			for _, comment := range comments {
				author := comment.Author
				if author == "" {
					author = "unknown"
				}
				_, _ = fmt.Fprintf(out, "%s %s: %s\n", comment.CreatedAt.In(app.now().Location()).Format("2006-01-02 15:04"), author, comment.Content)
			}
			return nil
		},
	}
}

func newIssuesCommentCmd(loader *appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Add a comment to an issue",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			content := strings.TrimSpace(strings.Join(args[1:], " "))
			if content == "" {
				return fmt.Errorf("comment on issue #%d is empty", id)
			}

			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			comment, err := client.AddComment(cmd.Context(), id, content)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added comment %d to issue #%d\n", comment.ID, id)
			return err
		},
	}
}

func parseIssueID(raw string) (domain.IssueID, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid issue id %q", raw)
	}
	return domain.IssueID(id), nil
}

func printIssue(cmd *cobra.Command, issue domain.Issue) error {
	out := cmd.OutOrStdout()
	college := issue.College
	if college == "" {
		college = "Unknown"
	}

	lines := []string{
		fmt.Sprintf("#%d %s", issue.ID, issue.Title),
		fmt.Sprintf("status:   %s", issue.Status.Label()),
		fmt.Sprintf("priority: %s", issue.Priority.Label()),
		fmt.Sprintf("college:  %s", college),
	}
	if issue.Category != "" {
		lines = append(lines, fmt.Sprintf("category: %s", issue.Category))
	}
	if issue.CourseUnit != "" {
		lines = append(lines, fmt.Sprintf("course:   %s", issue.CourseUnit))
	}
	if issue.AssignedTo != nil {
		lines = append(lines, fmt.Sprintf("assignee: %d", *issue.AssignedTo))
	}
	if !issue.CreatedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("created:  %s", issue.CreatedAt.Format("2006-01-02 15:04")))
	}
	if issue.ResolvedAt != nil {
		lines = append(lines, fmt.Sprintf("resolved: %s", issue.ResolvedAt.Format("2006-01-02 15:04")))
	}
	if issue.Description != "" {
		lines = append(lines, "", issue.Description)
	}

	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	dashboardrender "github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/render/dashboard"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/analytics"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/application"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/export"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/scheduler"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	sourceLocal  = "local"
	sourceServer = "server"

	snapshotStaleAfter = 24 * time.Hour
	alertJobTimeout    = 2 * time.Minute
)

// selectionFlags are shared by every command that aggregates issues.
type selectionFlags struct {
	window     string
	college    string
	assignedTo int64
	offline    bool
}

func (f *selectionFlags) register(cmd *cobra.Command, defaultWindow domain.TimeWindow) {
	cmd.Flags().StringVar(&f.window, "window", string(defaultWindow), "Time window: week, month, quarter or year")
	cmd.Flags().StringVar(&f.college, "college", analytics.AllDimensions, "College to include, or all")
	cmd.Flags().Int64Var(&f.assignedTo, "assigned-to", 0, "Only issues assigned to this user ID (lecturer view)")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Use the last fetched issues instead of the service")
}

func (f selectionFlags) query(cmd *cobra.Command) (application.DashboardQuery, error) {
	window, err := domain.ParseWindow(f.window)
	if err != nil {
		return application.DashboardQuery{}, err
	}

	query := application.DashboardQuery{
		Selection: analytics.Selection{Window: window, Dimension: f.college},
		Offline:   f.offline,
	}
	if cmd.Flags().Changed("assigned-to") {
		assignedTo := f.assignedTo
		query.AssignedTo = &assignedTo
	}
	return query, nil
}

// requireOnline fails early when an online query has no service to talk to.
func requireOnline(app *app, query application.DashboardQuery) error {
	if query.Offline {
		return nil
	}
	_, err := app.apiClient()
	return err
}

func newDashboardCmd(loader *appLoader) *cobra.Command {
	var (
		selection selectionFlags
		format    string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show issue statistics for a time window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				format = string(export.FormatJSON)
			}
			outFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			query, err := selection.query(cmd)
			if err != nil {
				return err
			}

			app, err := loader.load()
			if err != nil {
				return err
			}
			if err := requireOnline(app, query); err != nil {
				return err
			}

			var dashboard application.Dashboard
			load := func(ctx context.Context) error {
				var err error
				dashboard, err = app.dashboards.Dashboard(ctx, query)
				return err
			}
			if outFormat == export.FormatTable && !query.Offline {
				err = runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching issues...", load)
			} else {
				err = load(cmd.Context())
			}
			if err != nil {
				return err
			}

			if outFormat != export.FormatTable {
				return export.WriteValue(cmd.OutOrStdout(), dashboard, outFormat)
			}

			rendered, err := app.render(dashboard, dashboardrender.RenderOptions{Now: app.now(), StaleAfter: snapshotStaleAfter})
			if err != nil {
				return fmt.Errorf("render dashboard: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	selection.register(cmd, domain.WindowMonth)
	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, json or yaml")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Shorthand for --format json")

	return cmd
}

func newReportCmd(loader *appLoader) *cobra.Command {
	var (
		selection selectionFlags
		kind      string
		source    string
		format    string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a status, priority, college, resolution time or trend report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reportType, err := analytics.ParseReportType(kind)
			if err != nil {
				return err
			}
			outFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			query, err := selection.query(cmd)
			if err != nil {
				return err
			}

			app, err := loader.load()
			if err != nil {
				return err
			}

			var report analytics.Report
			switch source {
			case sourceLocal:
				if err := requireOnline(app, query); err != nil {
					return err
				}
				report, err = app.dashboards.Report(cmd.Context(), query, reportType)
			case sourceServer:
				if query.Offline {
					return fmt.Errorf("--offline cannot be combined with --source %s", sourceServer)
				}
				client, clientErr := app.apiClient()
				if clientErr != nil {
					return clientErr
				}
				college := query.Selection.Dimension
				if college == analytics.AllDimensions {
					college = ""
				}
				report, err = client.Report(cmd.Context(), reportType, query.Selection.Window, college)
			default:
				return fmt.Errorf("unsupported report source %q (%s|%s)", source, sourceLocal, sourceServer)
			}
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return export.WriteReport(cmd.OutOrStdout(), report, outFormat)
			}
			return writeReportFile(cmd, app, report, outFormat, output)
		},
	}

	selection.register(cmd, domain.WindowMonth)
	cmd.Flags().StringVar(&kind, "type", string(analytics.ReportStatus), "Report type: status, priority, college, resolution_time or trend")
	cmd.Flags().StringVar(&source, "source", sourceLocal, "Aggregate locally or ask the service: local or server")
	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, csv, json or yaml")
	cmd.Flags().StringVar(&output, "output", "", "Write to this file, or a generated file name inside this directory")

	return cmd
}

func writeReportFile(cmd *cobra.Command, app *app, report analytics.Report, format export.Format, output string) error {
	path := output
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		path = filepath.Join(output, export.FileName(report, format, app.now()))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := export.WriteReport(file, report, format); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return err
}

func newStatsCmd(loader *appLoader) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show issue counts computed by the service",
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

			stats, err := client.IssueStats(cmd.Context())
			if err != nil {
				return err
			}
			if outFormat != export.FormatTable {
				return export.WriteValue(cmd.OutOrStdout(), stats, outFormat)
			}

			tw := newTableWriter(cmd)
			tw.AppendHeader(table.Row{"Category", "Count"})
			for _, status := range domain.Statuses {
				tw.AppendRow(table.Row{status.Label(), stats.Status.Count(status)})
			}
			tw.AppendSeparator()
			for _, priority := range domain.Priorities {
				tw.AppendRow(table.Row{priority.Label(), stats.Priority.Count(priority)})
			}
			tw.AppendFooter(table.Row{"Total", stats.Total})
			tw.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, json or yaml")

	return cmd
}

func newAlertsCmd(loader *appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Watch for priority issues",
	}

	var (
		selection selectionFlags
		schedule  string
		once      bool
	)
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Print newly flagged priority issues on a schedule",
		Long:  "Print issues that are high or urgent priority, or pending for more than seven days, the first time they show up. Runs until interrupted unless --once is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := selection.query(cmd)
			if err != nil {
				return err
			}

			app, err := loader.load()
			if err != nil {
				return err
			}
			if err := requireOnline(app, query); err != nil {
				return err
			}

			monitor := application.NewAlertMonitor(app.dashboards, query)
			out := cmd.OutOrStdout()
			job := func(ctx context.Context) error {
				issues, err := monitor.Check(ctx)
				if err != nil {
					return err
				}
				stamp := app.now().Format("2006-01-02 15:04")
				for _, issue := range issues {
					college := issue.College
					if college == "" {
						college = analytics.UnknownDimension
					}
					_, _ = fmt.Fprintf(out, "[%s] #%d %s: %s (%s, %s)\n", stamp, issue.ID, issue.Priority.Label(), issue.Title, issue.Status.Label(), college)
				}
				return nil
			}

			if once {
				return job(cmd.Context())
			}

			sched := scheduler.New(app.cfg.Location, alertJobTimeout, app.logger)
			if err := sched.Add(schedule, "priority-alerts", job); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Watching for priority issues (%s), press Ctrl+C to stop\n", schedule)
			sched.RunNow("priority-alerts", job)
			sched.Run(cmd.Context())
			return nil
		},
	}

	selection.register(watchCmd, domain.WindowMonth)
	watchCmd.Flags().StringVar(&schedule, "schedule", scheduler.DefaultAlertSchedule, "Cron schedule, for example \"*/5 * * * *\" or \"@every 10m\"")
	watchCmd.Flags().BoolVar(&once, "once", false, "Check once and exit")

	cmd.AddCommand(watchCmd)
	return cmd
}

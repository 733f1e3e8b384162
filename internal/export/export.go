// Package export writes reports and issue listings as tables, CSV, JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/analytics"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var Formats = []Format{FormatTable, FormatCSV, FormatJSON, FormatYAML}

var whitespace = regexp.MustCompile(`\s+`)

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (table|csv|json|yaml)", raw)
	}
}

// Extension is the file suffix for the format; tables export as text.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "txt"
	}
}

// FileName follows "<report title>_<date>.<ext>", lower-cased with underscores.
func FileName(report analytics.Report, format Format, now time.Time) string {
	title := whitespace.ReplaceAllString(strings.TrimSpace(report.Type.Title()), "_")
	return fmt.Sprintf("%s_%s.%s", strings.ToLower(title), now.Format("2006-01-02"), format.Extension())
}

func WriteReport(w io.Writer, report analytics.Report, format Format) error {
	switch format {
	case FormatCSV:
		return writeReportCSV(w, report)
	case FormatJSON:
		return writeJSON(w, report)
	case FormatYAML:
		return writeYAML(w, report)
	default:
		return writeReportTable(w, report)
	}
}

func WriteIssues(w io.Writer, issues []domain.Issue, format Format) error {
	switch format {
	case FormatCSV:
		return writeIssuesCSV(w, issues)
	case FormatJSON:
		return writeJSON(w, issues)
	case FormatYAML:
		return writeYAML(w, issueDocuments(issues))
	default:
		tw := newTable(w)
		tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "College", "Assignee", "Created"})
		for _, issue := range issues {
			tw.AppendRow(table.Row{issue.ID, issue.Title, issue.Status.Label(), issue.Priority.Label(), collegeOf(issue), assigneeOf(issue), formatDate(issue.CreatedAt)})
		}
		tw.Render()
		return nil
	}
}

// WriteValue encodes any value as JSON or YAML; other formats fall back to JSON.
func WriteValue(w io.Writer, value any, format Format) error {
	if format == FormatYAML {
		return writeYAML(w, value)
	}
	return writeJSON(w, value)
}

// writeReportTable prints the title on its own line; a go-pretty title is
// wrapped to the table width.
func writeReportTable(w io.Writer, report analytics.Report) error {
	if _, err := fmt.Fprintln(w, report.Type.Title()); err != nil {
		return fmt.Errorf("write report title: %w", err)
	}
	tw := newTable(w)

	if report.Type == analytics.ReportTrend {
		tw.AppendHeader(table.Row{"Date", "Created Issues", "Resolved Issues"})
		created, resolved := 0, 0
		for _, point := range report.Trend {
			tw.AppendRow(table.Row{point.Date, point.Created, point.Resolved})
			created += point.Created
			resolved += point.Resolved
		}
		tw.AppendFooter(table.Row{"Total", created, resolved})
		tw.Render()
		return nil
	}

	tw.AppendHeader(table.Row{"Category", "Value"})
	for _, row := range report.Rows {
		tw.AppendRow(table.Row{row.Label, row.Value})
	}
	if report.Type != analytics.ReportResolutionTime {
		tw.AppendFooter(table.Row{"Total", report.Total()})
	}
	tw.Render()
	return nil
}

func writeReportCSV(w io.Writer, report analytics.Report) error {
	cw := csv.NewWriter(w)

	if report.Type == analytics.ReportTrend {
		if err := cw.Write([]string{"Date", "Created Issues", "Resolved Issues"}); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		for _, point := range report.Trend {
			if err := cw.Write([]string{point.Date, strconv.Itoa(point.Created), strconv.Itoa(point.Resolved)}); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	} else {
		if err := cw.Write([]string{"Category", "Value"}); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		for _, row := range report.Rows {
			if err := cw.Write([]string{row.Label, strconv.Itoa(row.Value)}); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeIssuesCSV(w io.Writer, issues []domain.Issue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Title", "Status", "Priority", "College", "Assignee", "Created", "Resolved"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, issue := range issues {
		resolved := ""
		if issue.Status.Finished() {
			resolved = formatDate(issue.ResolutionTime())
		}
		record := []string{
			strconv.FormatInt(int64(issue.ID), 10),
			issue.Title,
			string(issue.Status),
			string(issue.Priority),
			issue.College,
			assigneeOf(issue),
			formatDate(issue.CreatedAt),
			resolved,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, value any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}

type issueDocument struct {
	ID         domain.IssueID `yaml:"id"`
	Title      string         `yaml:"title"`
	Status     string         `yaml:"status"`
	Priority   string         `yaml:"priority"`
	College    string         `yaml:"college,omitempty"`
	CourseUnit string         `yaml:"course_unit,omitempty"`
	AssignedTo *int64         `yaml:"assigned_to,omitempty"`
	CreatedAt  string         `yaml:"created_at,omitempty"`
	ResolvedAt string         `yaml:"resolved_at,omitempty"`
}

func issueDocuments(issues []domain.Issue) []issueDocument {
	docs := make([]issueDocument, 0, len(issues))
	for _, issue := range issues {
		doc := issueDocument{
			ID:         issue.ID,
			Title:      issue.Title,
			Status:     string(issue.Status),
			Priority:   string(issue.Priority),
			College:    issue.College,
			CourseUnit: issue.CourseUnit,
			AssignedTo: issue.AssignedTo,
		}
		if !issue.CreatedAt.IsZero() {
			doc.CreatedAt = issue.CreatedAt.Format(time.RFC3339)
		}
		if issue.ResolvedAt != nil {
			doc.ResolvedAt = issue.ResolvedAt.Format(time.RFC3339)
		}
		docs = append(docs, doc)
	}
	return docs
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Footer = text.FormatDefault
	return tw
}

func collegeOf(issue domain.Issue) string {
	if issue.College == "" {
		return analytics.UnknownDimension
	}
	return issue.College
}

func assigneeOf(issue domain.Issue) string {
	if issue.AssignedTo == nil {
		return ""
	}
	return strconv.FormatInt(*issue.AssignedTo, 10)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

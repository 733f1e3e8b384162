package analytics

import (
	"fmt"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
)

type ReportType string

const (
	ReportStatus         ReportType = "status"
	ReportPriority       ReportType = "priority"
	ReportCollege        ReportType = "college"
	ReportResolutionTime ReportType = "resolution_time"
	ReportTrend          ReportType = "trend"
)

var ReportTypes = []ReportType{ReportStatus, ReportPriority, ReportCollege, ReportResolutionTime, ReportTrend}

func ParseReportType(raw string) (ReportType, error) {
	for _, kind := range ReportTypes {
		if string(kind) == raw {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unsupported report type %q", raw)
}

func (t ReportType) Title() string {
	switch t {
	case ReportStatus:
		return "Issue Status Distribution"
	case ReportPriority:
		return "Issue Priority Distribution"
	case ReportCollege:
		return "Issues by College"
	case ReportResolutionTime:
		return "Average Resolution Time by College (Days)"
	case ReportTrend:
		return "Issue Creation and Resolution Trends"
	default:
		return string(t)
	}
}

type ReportRow struct {
	Label string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

// Report is a category report (Rows) or, for ReportTrend, a daily series.
type Report struct {
	Type      ReportType        `json:"type" yaml:"type"`
	Window    domain.TimeWindow `json:"period" yaml:"period"`
	Dimension string            `json:"college" yaml:"college"`
	Rows      []ReportRow       `json:"rows,omitempty" yaml:"rows,omitempty"`
	Trend     []TrendPoint      `json:"trend,omitempty" yaml:"trend,omitempty"`
}

// Total sums the category values. Trend reports total their created counts.
func (r Report) Total() int {
	total := 0
	for _, row := range r.Rows {
		total += row.Value
	}
	for _, point := range r.Trend {
		total += point.Created
	}
	return total
}

func BuildReport(issues []domain.Issue, kind ReportType, window domain.TimeWindow, dimension string, now time.Time) Report {
	if dimension == "" {
		dimension = AllDimensions
	}
	filtered := FilterByWindow(issues, window, dimension, now)
	report := Report{Type: kind, Window: window, Dimension: dimension}

	switch kind {
	case ReportStatus:
		report.Rows = StatusRows(StatusDistributionOf(filtered))
	case ReportPriority:
		report.Rows = PriorityRows(PriorityDistributionOf(filtered))
	case ReportCollege:
		for _, entry := range DimensionBreakdown(filtered) {
			report.Rows = append(report.Rows, ReportRow{Label: entry.Dimension, Value: entry.Count})
		}
	case ReportResolutionTime:
		for _, entry := range ResolutionTimeByDimension(filtered).PerDimension {
			report.Rows = append(report.Rows, ReportRow{Label: entry.Dimension, Value: entry.AverageDays})
		}
	case ReportTrend:
		report.Trend = TrendSeries(filtered, window, now)
	}

	return report
}

func StatusRows(dist StatusDistribution) []ReportRow {
	rows := make([]ReportRow, 0, len(domain.Statuses))
	for _, status := range domain.Statuses {
		rows = append(rows, ReportRow{Label: status.Label(), Value: dist.Count(status)})
	}
	return rows
}

func PriorityRows(dist PriorityDistribution) []ReportRow {
	rows := make([]ReportRow, 0, len(domain.Priorities))
	for _, priority := range domain.Priorities {
		rows = append(rows, ReportRow{Label: priority.Label(), Value: dist.Count(priority)})
	}
	return rows
}

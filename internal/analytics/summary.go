package analytics

import (
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
)

type Selection struct {
	Window    domain.TimeWindow
	Dimension string
}

// Summary is everything the dashboard shows for one selection.
type Summary struct {
	Window                domain.TimeWindow     `json:"window" yaml:"window"`
	Dimension             string                `json:"college" yaml:"college"`
	GeneratedAt           time.Time             `json:"generated_at" yaml:"generated_at"`
	Total                 int                   `json:"total" yaml:"total"`
	Status                StatusDistribution    `json:"status" yaml:"status"`
	Priority              PriorityDistribution  `json:"priority" yaml:"priority"`
	Colleges              []DimensionCount      `json:"colleges" yaml:"colleges"`
	ResolutionRate        int                   `json:"resolution_rate" yaml:"resolution_rate"`
	AverageResolutionDays int                   `json:"average_resolution_days" yaml:"average_resolution_days"`
	ResolutionTime        ResolutionTimeSummary `json:"resolution_time" yaml:"resolution_time"`
	Trend                 []TrendPoint          `json:"trend" yaml:"trend"`
	PriorityIssues        []domain.Issue        `json:"priority_issues" yaml:"priority_issues"`
	Unassigned            []domain.Issue        `json:"unassigned" yaml:"unassigned"`
}

func Aggregate(issues []domain.Issue, sel Selection, now time.Time) Summary {
	dimension := sel.Dimension
	if dimension == "" {
		dimension = AllDimensions
	}

	filtered := FilterByWindow(issues, sel.Window, dimension, now)

	return Summary{
		Window:                sel.Window,
		Dimension:             dimension,
		GeneratedAt:           now,
		Total:                 len(filtered),
		Status:                StatusDistributionOf(filtered),
		Priority:              PriorityDistributionOf(filtered),
		Colleges:              DimensionBreakdown(filtered),
		ResolutionRate:        ResolutionRate(filtered),
		AverageResolutionDays: AverageResolutionDays(filtered),
		ResolutionTime:        ResolutionTimeByDimension(filtered),
		Trend:                 TrendSeries(filtered, sel.Window, now),
		PriorityIssues:        PriorityIssues(filtered, now),
		Unassigned:            Unassigned(filtered),
	}
}

// Unassigned lists issues nobody has been assigned to yet.
func Unassigned(issues []domain.Issue) []domain.Issue {
	out := make([]domain.Issue, 0)
	for _, issue := range issues {
		if issue.AssignedTo == nil {
			out = append(out, issue)
		}
	}
	return out
}

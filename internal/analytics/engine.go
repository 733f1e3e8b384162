// Package analytics derives dashboard statistics from raw issue listings.
//
// Every function is pure: inputs are never mutated and the current time is an
// explicit argument, so the same issues, selection and now always yield the
// same result. Calendar days are taken in now's location.
package analytics

import (
	"math"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
)

const (
	// AllDimensions disables the college filter.
	AllDimensions = "all"
	// UnknownDimension buckets issues without a college.
	UnknownDimension = "Unknown"

	dateLayout       = "2006-01-02"
	stalePendingDays = 7
)

type StatusDistribution struct {
	Pending    int `json:"pending" yaml:"pending"`
	InProgress int `json:"in_progress" yaml:"in_progress"`
	Resolved   int `json:"resolved" yaml:"resolved"`
	Closed     int `json:"closed" yaml:"closed"`
}

func (d StatusDistribution) Count(status domain.IssueStatus) int {
	switch status {
	case domain.StatusPending:
		return d.Pending
	case domain.StatusInProgress:
		return d.InProgress
	case domain.StatusResolved:
		return d.Resolved
	case domain.StatusClosed:
		return d.Closed
	default:
		return 0
	}
}

func (d StatusDistribution) Total() int {
	return d.Pending + d.InProgress + d.Resolved + d.Closed
}

type PriorityDistribution struct {
	Low    int `json:"low" yaml:"low"`
	Medium int `json:"medium" yaml:"medium"`
	High   int `json:"high" yaml:"high"`
	Urgent int `json:"urgent" yaml:"urgent"`
}

func (d PriorityDistribution) Count(priority domain.IssuePriority) int {
	switch priority {
	case domain.PriorityLow:
		return d.Low
	case domain.PriorityMedium:
		return d.Medium
	case domain.PriorityHigh:
		return d.High
	case domain.PriorityUrgent:
		return d.Urgent
	default:
		return 0
	}
}

func (d PriorityDistribution) Total() int {
	return d.Low + d.Medium + d.High + d.Urgent
}

type DimensionCount struct {
	Dimension string `json:"college" yaml:"college"`
	Count     int    `json:"count" yaml:"count"`
}

type DimensionAverage struct {
	Dimension   string `json:"college" yaml:"college"`
	AverageDays int    `json:"average_days" yaml:"average_days"`
}

type ResolutionTimeSummary struct {
	PerDimension []DimensionAverage `json:"per_college" yaml:"per_college"`
}

// TrendPoint is one calendar day of the trend series. Date is YYYY-MM-DD.
type TrendPoint struct {
	Date     string `json:"date" yaml:"date"`
	Created  int    `json:"created" yaml:"created"`
	Resolved int    `json:"resolved" yaml:"resolved"`
}

// FilterByWindow keeps issues created at or after the window cutoff and, unless
// dimension is empty or AllDimensions, whose college equals dimension.
func FilterByWindow(issues []domain.Issue, window domain.TimeWindow, dimension string, now time.Time) []domain.Issue {
	cutoff := window.Cutoff(now)
	filterDimension := dimension != "" && dimension != AllDimensions

	filtered := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.CreatedAt.IsZero() || issue.CreatedAt.Before(cutoff) {
			continue
		}
		if filterDimension && issue.College != dimension {
			continue
		}
		filtered = append(filtered, issue)
	}

	return filtered
}

func StatusDistributionOf(issues []domain.Issue) StatusDistribution {
	var dist StatusDistribution
	for _, issue := range issues {
		switch issue.Status {
		case domain.StatusPending:
			dist.Pending++
		case domain.StatusInProgress:
			dist.InProgress++
		case domain.StatusResolved:
			dist.Resolved++
		case domain.StatusClosed:
			dist.Closed++
		}
	}
	return dist
}

func PriorityDistributionOf(issues []domain.Issue) PriorityDistribution {
	var dist PriorityDistribution
	for _, issue := range issues {
		switch issue.Priority {
		case domain.PriorityLow:
			dist.Low++
		case domain.PriorityMedium:
			dist.Medium++
		case domain.PriorityHigh:
			dist.High++
		case domain.PriorityUrgent:
			dist.Urgent++
		}
	}
	return dist
}

// DimensionBreakdown counts issues per college in order of first appearance.
func DimensionBreakdown(issues []domain.Issue) []DimensionCount {
	index := make(map[string]int)
	breakdown := make([]DimensionCount, 0)

	for _, issue := range issues {
		name := dimensionOf(issue)
		i, ok := index[name]
		if !ok {
			i = len(breakdown)
			index[name] = i
			breakdown = append(breakdown, DimensionCount{Dimension: name})
		}
		breakdown[i].Count++
	}

	return breakdown
}

// ResolutionRate is the rounded percentage of resolved or closed issues, 0 for
// an empty set.
func ResolutionRate(issues []domain.Issue) int {
	if len(issues) == 0 {
		return 0
	}

	finished := 0
	for _, issue := range issues {
		if issue.Status.Finished() {
			finished++
		}
	}

	return roundHalfUp(100 * float64(finished) / float64(len(issues)))
}

// AverageResolutionDays averages whole-day resolution times of finished issues.
// Finished issues with no known resolution or creation time are skipped.
func AverageResolutionDays(issues []domain.Issue) int {
	total, count := 0, 0
	for _, issue := range issues {
		days, ok := resolutionDays(issue)
		if !ok {
			continue
		}
		total += days
		count++
	}

	if count == 0 {
		return 0
	}
	return roundHalfUp(float64(total) / float64(count))
}

// ResolutionTimeByDimension applies AverageResolutionDays per college. Colleges
// without finished issues are omitted.
func ResolutionTimeByDimension(issues []domain.Issue) ResolutionTimeSummary {
	type accumulator struct {
		name  string
		total int
		count int
	}

	index := make(map[string]int)
	groups := make([]accumulator, 0)
	for _, issue := range issues {
		days, ok := resolutionDays(issue)
		if !ok {
			continue
		}

		name := dimensionOf(issue)
		i, seen := index[name]
		if !seen {
			i = len(groups)
			index[name] = i
			groups = append(groups, accumulator{name: name})
		}
		groups[i].total += days
		groups[i].count++
	}

	summary := ResolutionTimeSummary{PerDimension: make([]DimensionAverage, 0, len(groups))}
	for _, group := range groups {
		summary.PerDimension = append(summary.PerDimension, DimensionAverage{
			Dimension:   group.name,
			AverageDays: roundHalfUp(float64(group.total) / float64(group.count)),
		})
	}

	return summary
}

// TrendSeries returns one point per calendar day from the window cutoff's day
// through now's day inclusive, whether or not the day has data.
func TrendSeries(issues []domain.Issue, window domain.TimeWindow, now time.Time) []TrendPoint {
	loc := now.Location()
	start := startOfDay(window.Cutoff(now))
	end := startOfDay(now)

	series := make([]TrendPoint, 0)
	index := make(map[string]int)
	for i := 0; ; i++ {
		day := time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, loc)
		if day.After(end) {
			break
		}
		key := day.Format(dateLayout)
		index[key] = len(series)
		series = append(series, TrendPoint{Date: key})
	}

	for _, issue := range issues {
		if !issue.CreatedAt.IsZero() {
			if i, ok := index[issue.CreatedAt.In(loc).Format(dateLayout)]; ok {
				series[i].Created++
			}
		}

		if !issue.Status.Finished() {
			continue
		}
		resolvedAt := issue.ResolutionTime()
		if resolvedAt.IsZero() {
			continue
		}
		if i, ok := index[resolvedAt.In(loc).Format(dateLayout)]; ok {
			series[i].Resolved++
		}
	}

	return series
}

// PriorityIssues flags issues pending for more than seven days and every high or
// urgent issue. Each issue appears once, in input order.
func PriorityIssues(issues []domain.Issue, now time.Time) []domain.Issue {
	staleBefore := now.AddDate(0, 0, -stalePendingDays)

	flagged := make([]domain.Issue, 0)
	for _, issue := range issues {
		stalePending := issue.Status == domain.StatusPending && !issue.CreatedAt.IsZero() && issue.CreatedAt.Before(staleBefore)
		important := issue.Priority == domain.PriorityHigh || issue.Priority == domain.PriorityUrgent
		if stalePending || important {
			flagged = append(flagged, issue)
		}
	}

	return flagged
}

func dimensionOf(issue domain.Issue) string {
	if issue.College == "" {
		return UnknownDimension
	}
	return issue.College
}

func resolutionDays(issue domain.Issue) (int, bool) {
	if !issue.Status.Finished() || issue.CreatedAt.IsZero() {
		return 0, false
	}
	resolvedAt := issue.ResolutionTime()
	if resolvedAt.IsZero() {
		return 0, false
	}

	days := resolvedAt.Sub(issue.CreatedAt).Hours() / 24
	return roundHalfUp(days), true
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

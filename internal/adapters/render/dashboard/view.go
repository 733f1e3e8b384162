package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/analytics"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/application"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	barWidth        = 24
	labelWidth      = 12
	maxListedIssues = 10
)

type RenderOptions struct {
	Now time.Time
	// StaleAfter marks offline data older than this. Zero disables the marker.
	StaleAfter time.Duration
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

func renderView(dashboard application.Dashboard, opts RenderOptions, s styles) string {
	summary := dashboard.Summary

	lines := []string{
		s.title.Render("Academic Issue Dashboard"),
		s.header.Render(fmt.Sprintf("window: %s | college: %s | issues: %d", summary.Window.Label(), summary.Dimension, summary.Total)),
	}
	if fetched := fetchedLine(dashboard, opts, s); fetched != "" {
		lines = append(lines, fetched)
	}

	if summary.Total == 0 {
		lines = append(lines, s.section.Render(s.empty.Render("No issues in this window.")))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines,
		s.section.Render(renderMetrics(summary, s)),
		s.section.Render(renderStatus(summary, s)),
		s.section.Render(renderPriority(summary, s)),
		s.section.Render(renderColleges(summary, s)),
		s.section.Render(renderTrend(summary.Trend, s)),
		s.section.Render(renderPriorityIssues(summary.PriorityIssues, s)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func fetchedLine(dashboard application.Dashboard, opts RenderOptions, s styles) string {
	if dashboard.FetchedAt.IsZero() {
		return ""
	}

	line := s.header.Render("fetched " + formatFetchedAt(dashboard.FetchedAt, opts.Now))
	if dashboard.Offline {
		line += " " + s.warning.Render("[offline]")
		if opts.StaleAfter > 0 && !opts.Now.IsZero() && opts.Now.Sub(dashboard.FetchedAt) > opts.StaleAfter {
			line += " " + s.warning.Render("[stale]")
		}
	}
	return line
}

func renderMetrics(summary analytics.Summary, s styles) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.heading.Render("Overview"),
		metricLine("resolution rate", fmt.Sprintf("%d%%", summary.ResolutionRate), s),
		metricLine("avg resolution", formatDays(summary.AverageResolutionDays), s),
		metricLine("unassigned", fmt.Sprintf("%d", len(summary.Unassigned)), s),
	)
}

func metricLine(label, value string, s styles) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render(padLabel(label+":", 17)), s.metric.Render(value))
}

func renderStatus(summary analytics.Summary, s styles) string {
	parts := []string{s.heading.Render("Status")}
	for _, status := range domain.Statuses {
		parts = append(parts, shareLine(status.Label(), summary.Status.Count(status), summary.Total, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderPriority(summary analytics.Summary, s styles) string {
	parts := []string{s.heading.Render("Priority")}
	for _, priority := range domain.Priorities {
		parts = append(parts, shareLine(priority.Label(), summary.Priority.Count(priority), summary.Total, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderColleges(summary analytics.Summary, s styles) string {
	averages := make(map[string]int, len(summary.ResolutionTime.PerDimension))
	for _, avg := range summary.ResolutionTime.PerDimension {
		averages[avg.Dimension] = avg.AverageDays
	}

	parts := []string{s.heading.Render("Colleges")}
	for _, college := range summary.Colleges {
		line := shareLine(college.Dimension, college.Count, summary.Total, s)
		if days, ok := averages[college.Dimension]; ok {
			line += " " + s.header.Render("avg "+formatDays(days))
		}
		parts = append(parts, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func shareLine(label string, count, total int, s styles) string {
	percent := 0.0
	if total > 0 {
		percent = float64(count) / float64(total) * 100
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render(padLabel(label, labelWidth)),
		" ",
		renderProgressBar(percent, barWidth, s),
		" ",
		s.detail.Render(fmt.Sprintf("%3d (%3.0f%%)", count, percent)),
	)
}

func renderTrend(trend []analytics.TrendPoint, s styles) string {
	if len(trend) == 0 {
		return s.empty.Render("No trend data.")
	}

	created := make([]int, len(trend))
	resolved := make([]int, len(trend))
	createdTotal, resolvedTotal := 0, 0
	for i, point := range trend {
		created[i] = point.Created
		resolved[i] = point.Resolved
		createdTotal += point.Created
		resolvedTotal += point.Resolved
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.heading.Render(fmt.Sprintf("Trend %s to %s", trend[0].Date, trend[len(trend)-1].Date)),
		lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render(padLabel("created", labelWidth)), " ", s.created.Render(sparkline(created)), " ", s.detail.Render(fmt.Sprintf("%d", createdTotal))),
		lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render(padLabel("resolved", labelWidth)), " ", s.resolved.Render(sparkline(resolved)), " ", s.detail.Render(fmt.Sprintf("%d", resolvedTotal))),
	)
}

func renderPriorityIssues(issues []domain.Issue, s styles) string {
	parts := []string{s.heading.Render(fmt.Sprintf("Priority issues (%d)", len(issues)))}
	if len(issues) == 0 {
		parts = append(parts, s.empty.Render("Nothing flagged."))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	for i, issue := range issues {
		if i == maxListedIssues {
			parts = append(parts, s.empty.Render(fmt.Sprintf("... and %d more", len(issues)-maxListedIssues)))
			break
		}
		parts = append(parts, issueLine(issue, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func issueLine(issue domain.Issue, s styles) string {
	marker := s.detail.Render(issue.Priority.Label())
	if issue.Priority == domain.PriorityUrgent || issue.Priority == domain.PriorityHigh {
		marker = s.warning.Render(issue.Priority.Label())
	}

	college := issue.College
	if college == "" {
		college = analytics.UnknownDimension
	}

	return fmt.Sprintf("#%-5d %s %s %s", issue.ID, marker, s.detail.Render(issue.Title), s.header.Render(fmt.Sprintf("(%s, %s)", issue.Status.Label(), college)))
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	empty := width - filled

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", empty)),
		s.barBracket.Render("]"),
	)
}

func sparkline(values []int) string {
	peak := 0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		if peak == 0 || v == 0 {
			b.WriteRune(sparkLevels[0])
			continue
		}
		level := int(math.Ceil(float64(v)/float64(peak)*float64(len(sparkLevels)))) - 1
		if level < 0 {
			level = 0
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func padLabel(label string, width int) string {
	if len(label) >= width {
		return label
	}
	return label + strings.Repeat(" ", width-len(label))
}

func formatDays(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func formatFetchedAt(fetchedAt, now time.Time) string {
	if now.IsZero() {
		return fetchedAt.Format(time.RFC3339)
	}

	age := now.Sub(fetchedAt)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%d min ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%d hours ago (%s)", int(age.Hours()), fetchedAt.Format("15:04"))
	default:
		return fetchedAt.Format("15:04 on 02 Jan")
	}
}

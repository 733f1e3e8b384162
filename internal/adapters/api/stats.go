package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/analytics"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
)

// IssueStats is the server-side counterpart of the local status and priority
// distributions.
type IssueStats struct {
	Total    int                            `json:"total" yaml:"total"`
	Status   analytics.StatusDistribution   `json:"status" yaml:"status"`
	Priority analytics.PriorityDistribution `json:"priority" yaml:"priority"`
}

type issueStatsResponse struct {
	Total      *int `json:"total"`
	Pending    int  `json:"pending"`
	InProgress int  `json:"in_progress"`
	Resolved   int  `json:"resolved"`
	Closed     int  `json:"closed"`
	Low        int  `json:"low"`
	Medium     int  `json:"medium"`
	High       int  `json:"high"`
	Urgent     int  `json:"urgent"`
}

func (c *Client) IssueStats(ctx context.Context) (IssueStats, error) {
	var payload issueStatsResponse
	if err := c.Do(ctx, Request{Path: "issues/stats/"}, &payload); err != nil {
		return IssueStats{}, fmt.Errorf("get issue stats: %w", err)
	}

	stats := IssueStats{
		Status: analytics.StatusDistribution{
			Pending:    payload.Pending,
			InProgress: payload.InProgress,
			Resolved:   payload.Resolved,
			Closed:     payload.Closed,
		},
		Priority: analytics.PriorityDistribution{
			Low:    payload.Low,
			Medium: payload.Medium,
			High:   payload.High,
			Urgent: payload.Urgent,
		},
	}
	stats.Total = stats.Status.Total()
	if payload.Total != nil {
		stats.Total = *payload.Total
	}
	return stats, nil
}

type trendCounts struct {
	Created  int `json:"created"`
	Resolved int `json:"resolved"`
}

// Report fetches a server-generated report and shapes it like a local
// analytics.Report. Missing categories count zero; named categories and trend
// days are sorted.
func (c *Client) Report(ctx context.Context, kind analytics.ReportType, window domain.TimeWindow, college string) (analytics.Report, error) {
	query := url.Values{}
	query.Set("type", string(kind))
	query.Set("period", string(window))
	if college != "" && college != analytics.AllDimensions {
		query.Set("college", college)
	}

	resp, err := c.Send(ctx, Request{Path: "issues/report/", Query: query})
	if err != nil {
		return analytics.Report{}, fmt.Errorf("generate %s report: %w", kind, err)
	}

	if college == "" {
		college = analytics.AllDimensions
	}
	report := analytics.Report{Type: kind, Window: window, Dimension: college}

	switch kind {
	case analytics.ReportStatus:
		var dist analytics.StatusDistribution
		if err := json.Unmarshal(resp.Body, &dist); err != nil {
			return analytics.Report{}, fmt.Errorf("decode %s report: %w", kind, err)
		}
		report.Rows = analytics.StatusRows(dist)
	case analytics.ReportPriority:
		var dist analytics.PriorityDistribution
		if err := json.Unmarshal(resp.Body, &dist); err != nil {
			return analytics.Report{}, fmt.Errorf("decode %s report: %w", kind, err)
		}
		report.Rows = analytics.PriorityRows(dist)
	case analytics.ReportCollege, analytics.ReportResolutionTime:
		var values map[string]float64
		if err := json.Unmarshal(resp.Body, &values); err != nil {
			return analytics.Report{}, fmt.Errorf("decode %s report: %w", kind, err)
		}
		for _, name := range sortedNames(values) {
			report.Rows = append(report.Rows, analytics.ReportRow{Label: name, Value: int(math.Floor(values[name] + 0.5))})
		}
	case analytics.ReportTrend:
		var days map[string]trendCounts
		if err := json.Unmarshal(resp.Body, &days); err != nil {
			return analytics.Report{}, fmt.Errorf("decode %s report: %w", kind, err)
		}
		for _, date := range sortedNames(days) {
			report.Trend = append(report.Trend, analytics.TrendPoint{Date: date, Created: days[date].Created, Resolved: days[date].Resolved})
		}
	default:
		return analytics.Report{}, fmt.Errorf("unsupported report type %q", kind)
	}

	return report, nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

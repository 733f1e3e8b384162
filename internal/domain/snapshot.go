package domain

import "time"

// IssueSnapshot is the last issue listing fetched from the service, kept for
// offline dashboards.
type IssueSnapshot struct {
	BaseURL   string
	FetchedAt time.Time
	Filter    IssueFilter
	Issues    []Issue
	Colleges  []College
}

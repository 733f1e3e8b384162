package domain

import (
	"fmt"
	"time"
)

type IssueID int64

type IssueStatus string

const (
	StatusPending    IssueStatus = "pending"
	StatusInProgress IssueStatus = "in_progress"
	StatusResolved   IssueStatus = "resolved"
	StatusClosed     IssueStatus = "closed"
)

// Statuses lists every status in display order.
var Statuses = []IssueStatus{StatusPending, StatusInProgress, StatusResolved, StatusClosed}

func (s IssueStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	default:
		return false
	}
}

// Finished reports whether the issue counts as resolved for analytics.
func (s IssueStatus) Finished() bool {
	return s == StatusResolved || s == StatusClosed
}

func (s IssueStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	case StatusClosed:
		return "Closed"
	default:
		return string(s)
	}
}

type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
	PriorityUrgent IssuePriority = "urgent"
)

var Priorities = []IssuePriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

func (p IssuePriority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	default:
		return string(p)
	}
}

func ParseStatus(raw string) (IssueStatus, error) {
	status := IssueStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("unsupported issue status %q", raw)
	}
	return status, nil
}

func ParsePriority(raw string) (IssuePriority, error) {
	priority := IssuePriority(raw)
	if !priority.Valid() {
		return "", fmt.Errorf("unsupported issue priority %q", raw)
	}
	return priority, nil
}

// Issue is a tracked record as served by GET /issues/. College is the
// organizational unit analytics group by.
type Issue struct {
	ID          IssueID       `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category,omitempty"`
	Status      IssueStatus   `json:"status"`
	Priority    IssuePriority `json:"priority"`
	College     string        `json:"college,omitempty"`
	CourseUnit  string        `json:"course_unit,omitempty"`
	AssignedTo  *int64        `json:"assigned_to,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}

// ResolutionTime is ResolvedAt, falling back to UpdatedAt. The zero time means
// neither is known.
func (i Issue) ResolutionTime() time.Time {
	if i.ResolvedAt != nil && !i.ResolvedAt.IsZero() {
		return *i.ResolvedAt
	}
	return i.UpdatedAt
}

// IssueInput is the writable subset sent on create and update.
type IssueInput struct {
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category,omitempty"`
	Status      IssueStatus   `json:"status,omitempty"`
	Priority    IssuePriority `json:"priority,omitempty"`
	CourseUnit  string        `json:"course_unit,omitempty"`
}

// IssueFilter maps to the query string of GET /issues/.
type IssueFilter struct {
	Status     IssueStatus
	Priority   IssuePriority
	College    string
	AssignedTo *int64
}

type Comment struct {
	ID        int64     `json:"id"`
	Issue     IssueID   `json:"issue"`
	Author    string    `json:"author,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

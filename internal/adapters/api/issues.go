package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/ports"
)

var _ ports.IssueSource = (*Client)(nil)

func issuePath(id domain.IssueID, suffix string) string {
	return "issues/" + strconv.FormatInt(int64(id), 10) + "/" + suffix
}

func (c *Client) ListIssues(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Priority != "" {
		query.Set("priority", string(filter.Priority))
	}
	if filter.College != "" {
		query.Set("college", filter.College)
	}
	if filter.AssignedTo != nil {
		query.Set("assigned_to", strconv.FormatInt(*filter.AssignedTo, 10))
	}

	issues, err := listAll[domain.Issue](ctx, c, "issues/", query)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issues, nil
}

func (c *Client) GetIssue(ctx context.Context, id domain.IssueID) (domain.Issue, error) {
	var issue domain.Issue
	if err := c.Do(ctx, Request{Path: issuePath(id, "")}, &issue); err != nil {
		return domain.Issue{}, notFound(fmt.Errorf("get issue %d: %w", id, err))
	}
	return issue, nil
}

func (c *Client) CreateIssue(ctx context.Context, input domain.IssueInput) (domain.Issue, error) {
	var issue domain.Issue
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "issues/", Body: input}, &issue); err != nil {
		return domain.Issue{}, fmt.Errorf("create issue: %w", err)
	}
	return issue, nil
}

func (c *Client) UpdateIssue(ctx context.Context, id domain.IssueID, input domain.IssueInput) (domain.Issue, error) {
	var issue domain.Issue
	if err := c.Do(ctx, Request{Method: http.MethodPatch, Path: issuePath(id, ""), Body: input}, &issue); err != nil {
		return domain.Issue{}, notFound(fmt.Errorf("update issue %d: %w", id, err))
	}
	return issue, nil
}

func (c *Client) DeleteIssue(ctx context.Context, id domain.IssueID) error {
	if _, err := c.Send(ctx, Request{Method: http.MethodDelete, Path: issuePath(id, "")}); err != nil {
		return notFound(fmt.Errorf("delete issue %d: %w", id, err))
	}
	return nil
}

type assignRequest struct {
	UserID int64 `json:"user_id"`
}

func (c *Client) AssignIssue(ctx context.Context, id domain.IssueID, userID int64) (domain.Issue, error) {
	var issue domain.Issue
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: issuePath(id, "assign/"), Body: assignRequest{UserID: userID}}, &issue)
	if err != nil {
		return domain.Issue{}, notFound(fmt.Errorf("assign issue %d: %w", id, err))
	}
	return issue, nil
}

func (c *Client) ListComments(ctx context.Context, id domain.IssueID) ([]domain.Comment, error) {
	comments, err := listAll[domain.Comment](ctx, c, issuePath(id, "comments/"), nil)
	if err != nil {
		return nil, notFound(fmt.Errorf("list comments of issue %d: %w", id, err))
	}
	return comments, nil
}

type commentRequest struct {
	Issue   domain.IssueID `json:"issue"`
	Content string         `json:"content"`
}

func (c *Client) AddComment(ctx context.Context, id domain.IssueID, content string) (domain.Comment, error) {
	if content == "" {
		return domain.Comment{}, errors.New("comment content is empty")
	}

	var comment domain.Comment
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: issuePath(id, "comments/"), Body: commentRequest{Issue: id, Content: content}}, &comment)
	if err != nil {
		return domain.Comment{}, notFound(fmt.Errorf("comment on issue %d: %w", id, err))
	}
	return comment, nil
}

// notFound adds domain.ErrIssueNotFound to the chain of a 404.
func notFound(err error) error {
	if status, ok := StatusCode(err); ok && status == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrIssueNotFound, err)
	}
	return err
}

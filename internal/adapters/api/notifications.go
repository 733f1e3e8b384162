package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
)

func (c *Client) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	notifications, err := listAll[domain.Notification](ctx, c, "notifications/", nil)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	path := "notifications/" + strconv.FormatInt(id, 10) + "/mark_read/"
	if _, err := c.Send(ctx, Request{Method: http.MethodPost, Path: path}); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return nil
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := c.Send(ctx, Request{Method: http.MethodPost, Path: "notifications/mark_all_read/"}); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

package redopssdk

import (
	"context"
	"net/http"

	"redops/internal/domain"
)

// NotificationGateway polls and acknowledges notifications.
type NotificationGateway struct {
	c *Client
}

func (c *Client) Notifications() NotificationGateway { return NotificationGateway{c: c} }

func (g NotificationGateway) List(ctx context.Context) ([]domain.Notification, error) {
	var resp []domain.Notification
	_, err := g.c.Do(ctx, http.MethodGet, "notifications", nil, &resp)
	return resp, err
}

func (g NotificationGateway) MarkRead(ctx context.Context, id string) error {
	_, err := g.c.Do(ctx, http.MethodPut, resourcePath("notifications", id, "read"), nil, nil)
	return err
}

func (g NotificationGateway) MarkAllRead(ctx context.Context) error {
	_, err := g.c.Do(ctx, http.MethodPut, "notifications/read-all", nil, nil)
	return err
}

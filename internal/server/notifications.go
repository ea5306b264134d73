package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"redops/internal/domain"
)

func registerNotifications(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "List notifications, newest first",
	}, func(ctx context.Context, _ *struct{}) (*bodyOutput[[]domain.Notification], error) {
		return respond(cfg.Store.ListNotifications()), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-all-notifications-read",
		Method:      http.MethodPut,
		Path:        "/notifications/read-all",
		Summary:     "Mark every notification read",
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		cfg.Store.MarkAllNotificationsRead()
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-notification-read",
		Method:      http.MethodPut,
		Path:        "/notifications/{id}/read",
		Summary:     "Mark a notification read",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := cfg.Store.MarkNotificationRead(input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

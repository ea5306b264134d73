package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"redops/internal/domain"
)

type idPath struct {
	ID string `path:"id"`
}

type bodyOutput[T any] struct {
	Body T `json:"body"`
}

func respond[T any](v T) *bodyOutput[T] {
	return &bodyOutput[T]{Body: v}
}

func registerUsers(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
	}, func(ctx context.Context, _ *struct{}) (*bodyOutput[[]domain.User], error) {
		return respond(cfg.Store.ListUsers()), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get user",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*bodyOutput[domain.User], error) {
		u, err := cfg.Store.GetUser(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return respond(u), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user-by-email",
		Method:      http.MethodGet,
		Path:        "/users/email/{email}",
		Summary:     "Get user by email",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Email string `path:"email"`
	}) (*bodyOutput[domain.User], error) {
		u, err := cfg.Store.GetUserByEmail(input.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return respond(u), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create user",
		Description:   "Admin only.",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		Body domain.UserDraft `json:"body"`
	}) (*bodyOutput[domain.User], error) {
		if err := requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, handleError(err)
		}
		u, err := cfg.Store.CreateUser(input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		cfg.Logger.Info("user created", "user", u.Username, "role", u.Role)
		return respond(u), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPut,
		Path:        "/users/{id}",
		Summary:     "Update user",
		Description: "Users may update themselves; admins may update anyone.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string           `path:"id"`
		Body domain.UserPatch `json:"body"`
	}) (*bodyOutput[domain.User], error) {
		p, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if p.UserID != input.ID && p.Role != domain.RoleAdmin {
			return nil, newAPIError(http.StatusForbidden, "insufficient role")
		}
		if input.Body.Role != nil && p.Role != domain.RoleAdmin {
			return nil, newAPIError(http.StatusForbidden, "only admins may change roles")
		}
		u, err := cfg.Store.UpdateUser(input.ID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return respond(u), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-user",
		Method:      http.MethodDelete,
		Path:        "/users/{id}",
		Summary:     "Delete user",
		Description: "Admin only.",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, handleError(err)
		}
		if err := cfg.Store.DeleteUser(input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

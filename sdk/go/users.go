package redopssdk

import (
	"context"
	"net/http"

	"redops/internal/domain"
)

// UserGateway maps team membership onto /users.
type UserGateway struct {
	c *Client
}

func (c *Client) Users() UserGateway { return UserGateway{c: c} }

func (g UserGateway) List(ctx context.Context) ([]domain.User, error) {
	var resp []domain.User
	_, err := g.c.Do(ctx, http.MethodGet, "users", nil, &resp)
	return resp, err
}

func (g UserGateway) Get(ctx context.Context, id string) (domain.User, error) {
	var resp domain.User
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("users", id), nil, &resp)
	return resp, err
}

func (g UserGateway) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var resp domain.User
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("users", "email", email), nil, &resp)
	return resp, err
}

func (g UserGateway) Create(ctx context.Context, draft domain.UserDraft) (domain.User, error) {
	var resp domain.User
	_, err := g.c.Do(ctx, http.MethodPost, "users", draft, &resp)
	return resp, err
}

func (g UserGateway) Update(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error) {
	var resp domain.User
	_, err := g.c.Do(ctx, http.MethodPut, resourcePath("users", id), patch, &resp)
	return resp, err
}

func (g UserGateway) Delete(ctx context.Context, id string) error {
	_, err := g.c.Do(ctx, http.MethodDelete, resourcePath("users", id), nil, nil)
	return err
}

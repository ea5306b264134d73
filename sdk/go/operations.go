package redopssdk

import (
	"context"
	"net/http"

	"redops/internal/domain"
)

// OperationGateway maps operation CRUD onto /operations.
type OperationGateway struct {
	c *Client
}

func (c *Client) Operations() OperationGateway { return OperationGateway{c: c} }

func (g OperationGateway) List(ctx context.Context) ([]domain.Operation, error) {
	var resp []domain.Operation
	_, err := g.c.Do(ctx, http.MethodGet, "operations", nil, &resp)
	return resp, err
}

func (g OperationGateway) Get(ctx context.Context, id string) (domain.Operation, error) {
	var resp domain.Operation
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("operations", id), nil, &resp)
	return resp, err
}

// ListByTeamMember returns operations where userID leads or is a member.
func (g OperationGateway) ListByTeamMember(ctx context.Context, userID string) ([]domain.Operation, error) {
	var resp []domain.Operation
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("operations", "user", userID), nil, &resp)
	return resp, err
}

func (g OperationGateway) ListByPhase(ctx context.Context, phase domain.Phase) ([]domain.Operation, error) {
	var resp []domain.Operation
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("operations", "phase", string(phase)), nil, &resp)
	return resp, err
}

func (g OperationGateway) Create(ctx context.Context, draft domain.OperationDraft) (domain.Operation, error) {
	var resp domain.Operation
	_, err := g.c.Do(ctx, http.MethodPost, "operations", draft, &resp)
	return resp, err
}

func (g OperationGateway) Update(ctx context.Context, id string, patch domain.OperationPatch) (domain.Operation, error) {
	var resp domain.Operation
	_, err := g.c.Do(ctx, http.MethodPut, resourcePath("operations", id), patch, &resp)
	return resp, err
}

// UpdatePhase moves an operation to any phase; order is not enforced.
func (g OperationGateway) UpdatePhase(ctx context.Context, id string, phase domain.Phase) (domain.Operation, error) {
	var resp domain.Operation
	body := map[string]any{"phase": phase}
	_, err := g.c.Do(ctx, http.MethodPut, resourcePath("operations", id, "phase"), body, &resp)
	return resp, err
}

func (g OperationGateway) Delete(ctx context.Context, id string) error {
	_, err := g.c.Do(ctx, http.MethodDelete, resourcePath("operations", id), nil, nil)
	return err
}

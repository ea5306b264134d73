package redopssdk

import (
	"context"
	"net/http"

	"redops/internal/domain"
)

// ToolGateway maps the tool catalog onto /tools.
type ToolGateway struct {
	c *Client
}

func (c *Client) Tools() ToolGateway { return ToolGateway{c: c} }

func (g ToolGateway) List(ctx context.Context) ([]domain.Tool, error) {
	var resp []domain.Tool
	_, err := g.c.Do(ctx, http.MethodGet, "tools", nil, &resp)
	return normalizeTools(resp), err
}

func (g ToolGateway) Get(ctx context.Context, id string) (domain.Tool, error) {
	var resp domain.Tool
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("tools", id), nil, &resp)
	return resp, err
}

func (g ToolGateway) ListByType(ctx context.Context, toolType domain.ToolType) ([]domain.Tool, error) {
	var resp []domain.Tool
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("tools", "type", string(toolType)), nil, &resp)
	return normalizeTools(resp), err
}

func (g ToolGateway) ListActive(ctx context.Context) ([]domain.Tool, error) {
	var resp []domain.Tool
	_, err := g.c.Do(ctx, http.MethodGet, "tools/active", nil, &resp)
	return normalizeTools(resp), err
}

func (g ToolGateway) Create(ctx context.Context, draft domain.ToolDraft) (domain.Tool, error) {
	var resp domain.Tool
	_, err := g.c.Do(ctx, http.MethodPost, "tools", draft, &resp)
	return resp, err
}

func (g ToolGateway) Update(ctx context.Context, id string, patch domain.ToolPatch) (domain.Tool, error) {
	var resp domain.Tool
	_, err := g.c.Do(ctx, http.MethodPut, resourcePath("tools", id), patch, &resp)
	return resp, err
}

func (g ToolGateway) SetActive(ctx context.Context, id string, active bool) (domain.Tool, error) {
	var resp domain.Tool
	body := map[string]any{"is_active": active}
	_, err := g.c.Do(ctx, http.MethodPut, resourcePath("tools", id, "status"), body, &resp)
	return resp, err
}

// Execute asks the backend to run a tool for a task and returns the
// execution record it created.
func (g ToolGateway) Execute(ctx context.Context, id string, req domain.ExecuteRequest) (domain.ToolExecution, error) {
	var resp domain.ToolExecution
	_, err := g.c.Do(ctx, http.MethodPost, resourcePath("tools", id, "execute"), req, &resp)
	return resp, err
}

func (g ToolGateway) Delete(ctx context.Context, id string) error {
	_, err := g.c.Do(ctx, http.MethodDelete, resourcePath("tools", id), nil, nil)
	return err
}

// normalizeTools fills defaults older backends leave empty.
func normalizeTools(items []domain.Tool) []domain.Tool {
	for i := range items {
		if items[i].OutputFormat == "" {
			items[i].OutputFormat = "text"
		}
		if items[i].Arguments == nil {
			items[i].Arguments = map[string]string{}
		}
	}
	return items
}

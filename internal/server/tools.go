package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"redops/internal/domain"
)

func registerTools(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tools",
		Method:      http.MethodGet,
		Path:        "/tools",
		Summary:     "List tools",
	}, func(ctx context.Context, _ *struct{}) (*bodyOutput[[]domain.Tool], error) {
		return respond(cfg.Store.ListTools()), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-active-tools",
		Method:      http.MethodGet,
		Path:        "/tools/active",
		Summary:     "List active tools",
	}, func(ctx context.Context, _ *struct{}) (*bodyOutput[[]domain.Tool], error) {
		return respond(cfg.Store.ActiveTools()), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tools-by-type",
		Method:      http.MethodGet,
		Path:        "/tools/type/{type}",
		Summary:     "List tools of a type",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Type string `path:"type"`
	}) (*bodyOutput[[]domain.Tool], error) {
		toolType := domain.ToolType(input.Type)
		if !toolType.Valid() {
			return nil, newAPIError(http.StatusBadRequest, fmt.Sprintf("unknown tool type %q", input.Type))
		}
		return respond(cfg.Store.ToolsByType(toolType)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tool",
		Method:      http.MethodGet,
		Path:        "/tools/{id}",
		Summary:     "Get tool",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*bodyOutput[domain.Tool], error) {
		t, err := cfg.Store.GetTool(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return respond(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-tool",
		Method:        http.MethodPost,
		Path:          "/tools",
		Summary:       "Register tool",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body domain.ToolDraft `json:"body"`
	}) (*bodyOutput[domain.Tool], error) {
		t, err := cfg.Store.CreateTool(input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return respond(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tool",
		Method:      http.MethodPut,
		Path:        "/tools/{id}",
		Summary:     "Update tool",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string           `path:"id"`
		Body domain.ToolPatch `json:"body"`
	}) (*bodyOutput[domain.Tool], error) {
		t, err := cfg.Store.UpdateTool(input.ID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return respond(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-tool-status",
		Method:      http.MethodPut,
		Path:        "/tools/{id}/status",
		Summary:     "Activate or deactivate a tool",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body struct {
			IsActive bool `json:"is_active"`
		} `json:"body"`
	}) (*bodyOutput[domain.Tool], error) {
		active := input.Body.IsActive
		t, err := cfg.Store.UpdateTool(input.ID, domain.ToolPatch{IsActive: &active})
		if err != nil {
			return nil, handleError(err)
		}
		return respond(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "execute-tool",
		Method:      http.MethodPost,
		Path:        "/tools/{id}/execute",
		Summary:     "Queue a tool execution for a task",
		Description: "The command template is resolved and recorded with status queued. Nothing is run.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body domain.ExecuteRequest `json:"body"`
	}) (*bodyOutput[domain.ToolExecution], error) {
		exec, err := cfg.Store.ExecuteTool(input.ID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		p, _ := principalFromContext(ctx)
		cfg.Logger.Info("tool execution queued", "tool", exec.ToolID, "task", exec.TaskID, "user", p.Username)
		cfg.publish(domain.SeverityInfo, "Tool execution queued", exec.Command, "/tasks/"+exec.TaskID)
		return respond(exec), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-tool",
		Method:      http.MethodDelete,
		Path:        "/tools/{id}",
		Summary:     "Delete tool",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := cfg.Store.DeleteTool(input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"redops/internal/domain"
)

func taskLink(t domain.Task) string { return operationLink(t.OperationID) + "/tasks/" + t.ID }

func registerTasks(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, _ *struct{}) (*bodyOutput[[]domain.Task], error) {
		return respond(cfg.Store.ListTasks()), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*bodyOutput[domain.Task], error) {
		t, err := cfg.Store.GetTask(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return respond(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks-by-operation",
		Method:      http.MethodGet,
		Path:        "/tasks/operation/{operation_id}",
		Summary:     "List tasks of an operation",
	}, func(ctx context.Context, input *struct {
		OperationID string `path:"operation_id"`
	}) (*bodyOutput[[]domain.Task], error) {
		return respond(cfg.Store.TasksByOperation(input.OperationID)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks-by-assignee",
		Method:      http.MethodGet,
		Path:        "/tasks/user/{user_id}",
		Summary:     "List tasks assigned to a user",
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*bodyOutput[[]domain.Task], error) {
		return respond(cfg.Store.TasksByAssignee(input.UserID)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body domain.TaskDraft `json:"body"`
	}) (*bodyOutput[domain.Task], error) {
		t, err := cfg.Store.CreateTask(input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		if op, err := cfg.Store.GetOperation(t.OperationID); err == nil {
			if err := domain.ValidateTaskForOperation(op.Type, t.MITREID, t.OWASPID); err != nil {
				cfg.Logger.Warn("task framework mapping mismatch", "task", t.ID, "operation_type", op.Type, "error", err)
			}
		}
		cfg.publish(domain.SeverityInfo, "Task created", t.Title, taskLink(t))
		return respond(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update task",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string           `path:"id"`
		Body domain.TaskPatch `json:"body"`
	}) (*bodyOutput[domain.Task], error) {
		t, err := cfg.Store.UpdateTask(input.ID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.Status != nil && t.Status == domain.TaskCompleted {
			cfg.publish(domain.SeveritySuccess, "Task completed", t.Title, taskLink(t))
		}
		return respond(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-status",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}/status",
		Summary:     "Set task status",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body struct {
			Status domain.TaskStatus `json:"status"`
		} `json:"body"`
	}) (*bodyOutput[domain.Task], error) {
		status := input.Body.Status
		t, err := cfg.Store.UpdateTask(input.ID, domain.TaskPatch{Status: &status})
		if err != nil {
			return nil, handleError(err)
		}
		severity := domain.SeverityInfo
		switch t.Status {
		case domain.TaskCompleted:
			severity = domain.SeveritySuccess
		case domain.TaskBlocked:
			severity = domain.SeverityWarning
		}
		cfg.publish(severity, "Task status changed", fmt.Sprintf("%s is now %s", t.Title, t.Status), taskLink(t))
		return respond(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-results",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}/results",
		Summary:     "Record task results",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body struct {
			Results string `json:"results"`
		} `json:"body"`
	}) (*bodyOutput[domain.Task], error) {
		results := input.Body.Results
		t, err := cfg.Store.UpdateTask(input.ID, domain.TaskPatch{Results: &results})
		if err != nil {
			return nil, handleError(err)
		}
		return respond(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := cfg.Store.DeleteTask(input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

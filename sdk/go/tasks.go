package redopssdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"redops/internal/domain"
)

// TaskGateway maps task CRUD onto /tasks.
type TaskGateway struct {
	c *Client
}

func (c *Client) Tasks() TaskGateway { return TaskGateway{c: c} }

func (g TaskGateway) List(ctx context.Context) ([]domain.Task, error) {
	var resp []domain.Task
	_, err := g.c.Do(ctx, http.MethodGet, "tasks", nil, &resp)
	return resp, err
}

func (g TaskGateway) Get(ctx context.Context, id string) (domain.Task, error) {
	var resp domain.Task
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("tasks", id), nil, &resp)
	return resp, err
}

func (g TaskGateway) ListByOperation(ctx context.Context, operationID string) ([]domain.Task, error) {
	var resp []domain.Task
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("tasks", "operation", operationID), nil, &resp)
	return resp, err
}

func (g TaskGateway) ListByAssignee(ctx context.Context, userID string) ([]domain.Task, error) {
	var resp []domain.Task
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("tasks", "user", userID), nil, &resp)
	return resp, err
}

func (g TaskGateway) Create(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	var resp domain.Task
	_, err := g.c.Do(ctx, http.MethodPost, "tasks", draft, &resp)
	return resp, err
}

func (g TaskGateway) Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	var resp domain.Task
	_, err := g.c.Do(ctx, http.MethodPut, resourcePath("tasks", id), patch, &resp)
	return resp, err
}

func (g TaskGateway) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) (domain.Task, error) {
	var resp domain.Task
	body := map[string]any{"status": status}
	_, err := g.c.Do(ctx, http.MethodPut, resourcePath("tasks", id, "status"), body, &resp)
	return resp, err
}

func (g TaskGateway) UpdateResults(ctx context.Context, id, results string) (domain.Task, error) {
	var resp domain.Task
	body := map[string]any{"results": results}
	_, err := g.c.Do(ctx, http.MethodPut, resourcePath("tasks", id, "results"), body, &resp)
	return resp, err
}

func (g TaskGateway) Delete(ctx context.Context, id string) error {
	_, err := g.c.Do(ctx, http.MethodDelete, resourcePath("tasks", id), nil, nil)
	return err
}

func (g TaskGateway) ListResults(ctx context.Context, taskID string) ([]domain.TaskResult, error) {
	var resp []domain.TaskResult
	_, err := g.c.Do(ctx, http.MethodGet, resourcePath("tasks", taskID, "results"), nil, &resp)
	return resp, err
}

// ImportResults uploads a results file as multipart form field "file". The
// server picks the parser from filename's extension and returns every result
// the task now has.
func (g TaskGateway) ImportResults(ctx context.Context, taskID, filename string, r io.Reader) ([]domain.TaskResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var resp []domain.TaskResult
	body := encodedBody{contentType: mw.FormDataContentType(), data: &buf}
	_, err = g.c.Do(ctx, http.MethodPost, resourcePath("tasks", taskID, "results", "import"), body, &resp)
	return resp, err
}

func (g TaskGateway) ClearResults(ctx context.Context, taskID string) error {
	_, err := g.c.Do(ctx, http.MethodDelete, resourcePath("tasks", taskID, "results"), nil, nil)
	return err
}

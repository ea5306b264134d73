package server

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"redops/internal/domain"
	"redops/internal/resultfile"
)

const maxImportBytes = 16 << 20

func registerTaskResults(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-task-results",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}/results",
		Summary:     "List structured task results",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*bodyOutput[[]domain.TaskResult], error) {
		results, err := cfg.Store.TaskResults(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return respond(results), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:  "import-task-results",
		Method:       http.MethodPost,
		Path:         "/tasks/{id}/results/import",
		Summary:      "Import task results from an xlsx, csv or json file",
		MaxBodyBytes: maxImportBytes,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		RawBody multipart.Form
	}) (*bodyOutput[[]domain.TaskResult], error) {
		t, err := cfg.Store.GetTask(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		files := input.RawBody.File["file"]
		if len(files) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "no file uploaded")
		}
		src, err := files[0].Open()
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "unreadable upload")
		}
		defer src.Close()
		rows, err := resultfile.Parse(files[0].Filename, src)
		if err != nil {
			cfg.Logger.Warn("result import rejected", "task", t.ID, "file", files[0].Filename, "error", err)
			return nil, newAPIError(http.StatusBadRequest, err.Error())
		}
		results, err := cfg.Store.ImportTaskResults(t.ID, rows)
		if err != nil {
			return nil, handleError(err)
		}
		cfg.publish(domain.SeveritySuccess, "Results imported", fmt.Sprintf("%d results added to %s", len(rows), t.Title), taskLink(t))
		return respond(results), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-task-results",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}/results",
		Summary:     "Delete every structured result of a task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := cfg.Store.ClearTaskResults(input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

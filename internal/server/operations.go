package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"redops/internal/domain"
)

func operationLink(id string) string { return "/operations/" + id }

func registerOperations(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-operations",
		Method:      http.MethodGet,
		Path:        "/operations",
		Summary:     "List operations",
	}, func(ctx context.Context, _ *struct{}) (*bodyOutput[[]domain.Operation], error) {
		return respond(cfg.Store.ListOperations()), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-operation",
		Method:      http.MethodGet,
		Path:        "/operations/{id}",
		Summary:     "Get operation",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*bodyOutput[domain.Operation], error) {
		op, err := cfg.Store.GetOperation(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return respond(op), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-operations-by-member",
		Method:      http.MethodGet,
		Path:        "/operations/user/{user_id}",
		Summary:     "List operations led by or including a user",
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*bodyOutput[[]domain.Operation], error) {
		return respond(cfg.Store.OperationsByMember(input.UserID)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-operations-by-phase",
		Method:      http.MethodGet,
		Path:        "/operations/phase/{phase}",
		Summary:     "List operations in a phase",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Phase string `path:"phase"`
	}) (*bodyOutput[[]domain.Operation], error) {
		phase := domain.Phase(input.Phase)
		if !phase.Valid() {
			return nil, newAPIError(http.StatusBadRequest, fmt.Sprintf("unknown phase %q", input.Phase))
		}
		return respond(cfg.Store.OperationsByPhase(phase)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-operation",
		Method:        http.MethodPost,
		Path:          "/operations",
		Summary:       "Create operation",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body domain.OperationDraft `json:"body"`
	}) (*bodyOutput[domain.Operation], error) {
		op, err := cfg.Store.CreateOperation(input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		cfg.publish(domain.SeverityInfo, "Operation created", fmt.Sprintf("%s (%s) was created", op.Name, op.Type), operationLink(op.ID))
		return respond(op), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-operation",
		Method:      http.MethodPut,
		Path:        "/operations/{id}",
		Summary:     "Update operation",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body domain.OperationPatch `json:"body"`
	}) (*bodyOutput[domain.Operation], error) {
		op, err := cfg.Store.UpdateOperation(input.ID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return respond(op), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-operation-phase",
		Method:      http.MethodPut,
		Path:        "/operations/{id}/phase",
		Summary:     "Move an operation to another phase",
		Description: "Phases need not advance in order.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body struct {
			Phase domain.Phase `json:"phase"`
		} `json:"body"`
	}) (*bodyOutput[domain.Operation], error) {
		phase := input.Body.Phase
		op, err := cfg.Store.UpdateOperation(input.ID, domain.OperationPatch{CurrentPhase: &phase})
		if err != nil {
			return nil, handleError(err)
		}
		cfg.publish(domain.SeverityInfo, "Phase changed", fmt.Sprintf("%s moved to %s", op.Name, op.CurrentPhase), operationLink(op.ID))
		return respond(op), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-operation",
		Method:      http.MethodDelete,
		Path:        "/operations/{id}",
		Summary:     "Delete operation",
		Description: "Tasks of the operation are deleted with it.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := cfg.Store.DeleteOperation(input.ID); err != nil {
			return nil, handleError(err)
		}
		cfg.publish(domain.SeverityWarning, "Operation deleted", "operation "+input.ID+" was deleted", "")
		return &struct{}{}, nil
	})
}

package store

import (
	"context"
	"fmt"
	"sync"

	"redops/internal/domain"
	redopssdk "redops/sdk/go"
)

// Operations holds operations and the phase-board filters.
type Operations struct {
	*Store[domain.Operation, domain.OperationDraft, domain.OperationPatch]
	gw redopssdk.OperationGateway
}

func NewOperations(gw redopssdk.OperationGateway, opts ...Option) *Operations {
	return &Operations{Store: New[domain.Operation, domain.OperationDraft, domain.OperationPatch]("operations", gw, opts...), gw: gw}
}

func (s *Operations) FetchByTeamMember(ctx context.Context, userID string) error {
	return s.FetchBy(ctx, "member="+userID, func(ctx context.Context) ([]domain.Operation, error) {
		return s.gw.ListByTeamMember(ctx, userID)
	})
}

func (s *Operations) FetchByPhase(ctx context.Context, phase domain.Phase) error {
	return s.FetchBy(ctx, "phase="+string(phase), func(ctx context.Context) ([]domain.Operation, error) {
		return s.gw.ListByPhase(ctx, phase)
	})
}

// UpdatePhase moves an operation to any of the 13 phases.
func (s *Operations) UpdatePhase(ctx context.Context, id string, phase domain.Phase) (domain.Operation, error) {
	if !phase.Valid() {
		s.begin(false)
		return domain.Operation{}, s.fail("update", &domain.ValidationError{Field: "phase", Message: fmt.Sprintf("invalid value %s", phase)})
	}
	return s.Mutate(ctx, id, func(ctx context.Context) (domain.Operation, error) {
		return s.gw.UpdatePhase(ctx, id, phase)
	})
}

// Tasks holds tasks and their status/result shortcuts.
type Tasks struct {
	*Store[domain.Task, domain.TaskDraft, domain.TaskPatch]
	gw redopssdk.TaskGateway
}

func NewTasks(gw redopssdk.TaskGateway, opts ...Option) *Tasks {
	return &Tasks{Store: New[domain.Task, domain.TaskDraft, domain.TaskPatch]("tasks", gw, opts...), gw: gw}
}

func (s *Tasks) FetchByOperation(ctx context.Context, operationID string) error {
	return s.FetchBy(ctx, "operation="+operationID, func(ctx context.Context) ([]domain.Task, error) {
		return s.gw.ListByOperation(ctx, operationID)
	})
}

func (s *Tasks) FetchByAssignee(ctx context.Context, userID string) error {
	return s.FetchBy(ctx, "assignee="+userID, func(ctx context.Context) ([]domain.Task, error) {
		return s.gw.ListByAssignee(ctx, userID)
	})
}

func (s *Tasks) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) (domain.Task, error) {
	if !status.Valid() {
		s.begin(false)
		return domain.Task{}, s.fail("update", &domain.ValidationError{Field: "status", Message: fmt.Sprintf("invalid value %s", status)})
	}
	return s.Mutate(ctx, id, func(ctx context.Context) (domain.Task, error) {
		return s.gw.UpdateStatus(ctx, id, status)
	})
}

func (s *Tasks) UpdateResults(ctx context.Context, id, results string) (domain.Task, error) {
	return s.Mutate(ctx, id, func(ctx context.Context) (domain.Task, error) {
		return s.gw.UpdateResults(ctx, id, results)
	})
}

// Tools holds the tool catalog and the executions started from this client.
type Tools struct {
	*Store[domain.Tool, domain.ToolDraft, domain.ToolPatch]
	gw redopssdk.ToolGateway

	execMu     sync.Mutex
	executions []domain.ToolExecution
}

func NewTools(gw redopssdk.ToolGateway, opts ...Option) *Tools {
	return &Tools{Store: New[domain.Tool, domain.ToolDraft, domain.ToolPatch]("tools", gw, opts...), gw: gw}
}

func (s *Tools) FetchByType(ctx context.Context, toolType domain.ToolType) error {
	return s.FetchBy(ctx, "type="+string(toolType), func(ctx context.Context) ([]domain.Tool, error) {
		return s.gw.ListByType(ctx, toolType)
	})
}

func (s *Tools) FetchActive(ctx context.Context) error {
	return s.FetchBy(ctx, "active", s.gw.ListActive)
}

func (s *Tools) SetActive(ctx context.Context, id string, active bool) (domain.Tool, error) {
	return s.Mutate(ctx, id, func(ctx context.Context) (domain.Tool, error) {
		return s.gw.SetActive(ctx, id, active)
	})
}

// Execute asks the backend to run a tool for a task. When the tool is cached
// its command template is resolved locally first so bad arguments never leave
// the client. The returned execution is appended to Executions; the tool
// collection itself is untouched.
func (s *Tools) Execute(ctx context.Context, toolID, taskID string, args map[string]string) (domain.ToolExecution, error) {
	s.begin(false)
	if tool, ok := s.Find(toolID); ok {
		if _, err := tool.ResolveCommand(args); err != nil {
			return domain.ToolExecution{}, s.fail("execute", err)
		}
	}
	exec, err := s.gw.Execute(ctx, toolID, domain.ExecuteRequest{TaskID: taskID, Args: args})
	if err != nil {
		return exec, s.fail("execute", err)
	}
	s.execMu.Lock()
	s.executions = append(s.executions, exec)
	s.execMu.Unlock()
	s.commit(func() { s.inflight-- })
	return exec, nil
}

// Executions returns the executions recorded by Execute, oldest first.
func (s *Tools) Executions() []domain.ToolExecution {
	s.execMu.Lock()
	defer s.execMu.Unlock()
	return append([]domain.ToolExecution(nil), s.executions...)
}

// Users holds team membership.
type Users struct {
	*Store[domain.User, domain.UserDraft, domain.UserPatch]
	gw redopssdk.UserGateway
}

func NewUsers(gw redopssdk.UserGateway, opts ...Option) *Users {
	return &Users{Store: New[domain.User, domain.UserDraft, domain.UserPatch]("users", gw, opts...), gw: gw}
}

// FetchByEmail narrows the collection to the one user with email.
func (s *Users) FetchByEmail(ctx context.Context, email string) error {
	return s.FetchBy(ctx, "email="+email, func(ctx context.Context) ([]domain.User, error) {
		u, err := s.gw.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return []domain.User{u}, nil
	})
}

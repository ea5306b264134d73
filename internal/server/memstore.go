package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"redops/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type userRecord struct {
	domain.User
	passwordHash []byte
}

// MemStore is the reference backend's in-memory persistence. Collections keep
// insertion order; notifications are kept newest first.
type MemStore struct {
	mu  sync.RWMutex
	now func() time.Time

	users         []*userRecord
	operations    []domain.Operation
	tasks         []domain.Task
	tools         []domain.Tool
	executions    []domain.ToolExecution
	results       []domain.TaskResult
	notifications []domain.Notification
}

func NewMemStore() *MemStore {
	return &MemStore{now: func() time.Time { return time.Now().UTC() }}
}

func indexOf[T domain.Entity](items []T, id string) int {
	for i, it := range items {
		if it.EntityID() == id {
			return i
		}
	}
	return -1
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// Users

func (s *MemStore) CreateUser(d domain.UserDraft) (domain.User, error) {
	if err := d.Validate(); err != nil {
		return domain.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(d.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, d.Email) {
			return domain.User{}, fmt.Errorf("email %s already registered: %w", d.Email, ErrConflict)
		}
	}
	role := d.Role
	if role == "" {
		role = domain.RoleMember
	}
	now := s.now()
	rec := &userRecord{
		User: domain.User{
			ID:        uuid.NewString(),
			Username:  d.Username,
			Email:     d.Email,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		},
		passwordHash: hash,
	}
	s.users = append(s.users, rec)
	return rec.User, nil
}

// Authenticate checks a password against the stored bcrypt hash.
func (s *MemStore) Authenticate(email, password string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
				return domain.User{}, ErrInvalidCredentials
			}
			return u.User, nil
		}
	}
	return domain.User{}, ErrInvalidCredentials
}

func (s *MemStore) ListUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, len(s.users))
	for i, u := range s.users {
		out[i] = u.User
	}
	return out
}

func (s *MemStore) GetUser(id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.users, id); i >= 0 {
		return s.users[i].User, nil
	}
	return domain.User{}, notFound("user", id)
}

func (s *MemStore) GetUserByEmail(email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u.User, nil
		}
	}
	return domain.User{}, notFound("user", email)
}

func (s *MemStore) UpdateUser(id string, p domain.UserPatch) (domain.User, error) {
	if err := p.Validate(); err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.users, id)
	if i < 0 {
		return domain.User{}, notFound("user", id)
	}
	p.Apply(&s.users[i].User)
	s.users[i].UpdatedAt = s.now()
	return s.users[i].User, nil
}

func (s *MemStore) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.users, id)
	if i < 0 {
		return notFound("user", id)
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	return nil
}

// Operations

func (s *MemStore) ListOperations() []domain.Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Operation{}, s.operations...)
}

func (s *MemStore) GetOperation(id string) (domain.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.operations, id); i >= 0 {
		return s.operations[i], nil
	}
	return domain.Operation{}, notFound("operation", id)
}

// OperationsByMember returns operations led by userID or listing it as a member.
func (s *MemStore) OperationsByMember(userID string) []domain.Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Operation{}
	for _, op := range s.operations {
		if op.TeamLead == userID || contains(op.Members, userID) {
			out = append(out, op)
		}
	}
	return out
}

func (s *MemStore) OperationsByPhase(phase domain.Phase) []domain.Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Operation{}
	for _, op := range s.operations {
		if op.CurrentPhase == phase {
			out = append(out, op)
		}
	}
	return out
}

func (s *MemStore) CreateOperation(d domain.OperationDraft) (domain.Operation, error) {
	if err := d.Validate(); err != nil {
		return domain.Operation{}, err
	}
	now := s.now()
	op := domain.Operation{
		ID:           uuid.NewString(),
		Name:         d.Name,
		Type:         d.Type,
		Description:  d.Description,
		Scope:        d.Scope,
		ROE:          d.ROE,
		TeamLead:     d.TeamLead,
		Members:      append([]string{}, d.Members...),
		CurrentPhase: d.CurrentPhase,
		Status:       d.Status,
		StartDate:    d.StartDate,
		EndDate:      d.EndDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if op.CurrentPhase == "" {
		op.CurrentPhase = domain.PhaseReconnaissance
	}
	if op.Status == "" {
		op.Status = domain.OperationPending
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations = append(s.operations, op)
	return op, nil
}

func (s *MemStore) UpdateOperation(id string, p domain.OperationPatch) (domain.Operation, error) {
	if err := p.Validate(); err != nil {
		return domain.Operation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.operations, id)
	if i < 0 {
		return domain.Operation{}, notFound("operation", id)
	}
	p.Apply(&s.operations[i])
	s.operations[i].UpdatedAt = s.now()
	return s.operations[i], nil
}

// DeleteOperation removes the operation and its tasks.
func (s *MemStore) DeleteOperation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.operations, id)
	if i < 0 {
		return notFound("operation", id)
	}
	s.operations = append(s.operations[:i], s.operations[i+1:]...)
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.OperationID != id {
			kept = append(kept, t)
		} else {
			s.dropResults(t.ID)
		}
	}
	s.tasks = kept
	return nil
}

// Tasks

func (s *MemStore) ListTasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Task{}, s.tasks...)
}

func (s *MemStore) GetTask(id string) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.tasks, id); i >= 0 {
		return s.tasks[i], nil
	}
	return domain.Task{}, notFound("task", id)
}

func (s *MemStore) filterTasks(keep func(domain.Task) bool) []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Task{}
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *MemStore) TasksByOperation(operationID string) []domain.Task {
	return s.filterTasks(func(t domain.Task) bool { return t.OperationID == operationID })
}

func (s *MemStore) TasksByAssignee(userID string) []domain.Task {
	return s.filterTasks(func(t domain.Task) bool { return t.AssignedTo != nil && *t.AssignedTo == userID })
}

// CreateTask defaults the phase to the operation's current phase.
func (s *MemStore) CreateTask(d domain.TaskDraft) (domain.Task, error) {
	if err := d.Validate(); err != nil {
		return domain.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	oi := indexOf(s.operations, d.OperationID)
	if oi < 0 {
		return domain.Task{}, &domain.ValidationError{Field: "operation_id", Message: "unknown operation " + d.OperationID}
	}
	now := s.now()
	t := domain.Task{
		ID:          uuid.NewString(),
		OperationID: d.OperationID,
		Title:       d.Title,
		Description: d.Description,
		AssignedTo:  d.AssignedTo,
		Status:      d.Status,
		Phase:       d.Phase,
		MITREID:     d.MITREID,
		OWASPID:     d.OWASPID,
		Results:     d.Results,
		Tools:       append([]string{}, d.Tools...),
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.AssignedTo != nil && *t.AssignedTo == "" {
		t.AssignedTo = nil
	}
	if t.Status == "" {
		t.Status = domain.TaskPending
	}
	if t.Phase == "" {
		t.Phase = s.operations[oi].CurrentPhase
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *MemStore) UpdateTask(id string, p domain.TaskPatch) (domain.Task, error) {
	if err := p.Validate(); err != nil {
		return domain.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		return domain.Task{}, notFound("task", id)
	}
	p.Apply(&s.tasks[i])
	s.tasks[i].UpdatedAt = s.now()
	return s.tasks[i], nil
}

func (s *MemStore) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		return notFound("task", id)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.dropResults(id)
	return nil
}

// Task results

func (s *MemStore) resultsOf(taskID string) []domain.TaskResult {
	out := []domain.TaskResult{}
	for _, r := range s.results {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out
}

func (s *MemStore) dropResults(taskID string) {
	kept := s.results[:0]
	for _, r := range s.results {
		if r.TaskID != taskID {
			kept = append(kept, r)
		}
	}
	s.results = kept
}

func (s *MemStore) TaskResults(taskID string) ([]domain.TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if indexOf(s.tasks, taskID) < 0 {
		return nil, notFound("task", taskID)
	}
	return s.resultsOf(taskID), nil
}

// ImportTaskResults appends rows to the task's results and returns all of
// them in import order.
func (s *MemStore) ImportTaskResults(taskID string, rows []domain.TaskResult) ([]domain.TaskResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.tasks, taskID) < 0 {
		return nil, notFound("task", taskID)
	}
	now := s.now()
	for _, r := range rows {
		r.ID = uuid.NewString()
		r.TaskID = taskID
		r.CreatedAt = now
		r.UpdatedAt = now
		s.results = append(s.results, r)
	}
	return s.resultsOf(taskID), nil
}

func (s *MemStore) ClearTaskResults(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.tasks, taskID) < 0 {
		return notFound("task", taskID)
	}
	s.dropResults(taskID)
	return nil
}

// Tools

func (s *MemStore) ListTools() []domain.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Tool{}, s.tools...)
}

func (s *MemStore) GetTool(id string) (domain.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.tools, id); i >= 0 {
		return s.tools[i], nil
	}
	return domain.Tool{}, notFound("tool", id)
}

func (s *MemStore) filterTools(keep func(domain.Tool) bool) []domain.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Tool{}
	for _, t := range s.tools {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *MemStore) ToolsByType(toolType domain.ToolType) []domain.Tool {
	return s.filterTools(func(t domain.Tool) bool { return t.Type == toolType })
}

func (s *MemStore) ActiveTools() []domain.Tool {
	return s.filterTools(func(t domain.Tool) bool { return t.IsActive })
}

func (s *MemStore) CreateTool(d domain.ToolDraft) (domain.Tool, error) {
	if err := d.Validate(); err != nil {
		return domain.Tool{}, err
	}
	now := s.now()
	t := domain.Tool{
		ID:           uuid.NewString(),
		Name:         d.Name,
		Type:         d.Type,
		Description:  d.Description,
		Command:      d.Command,
		Arguments:    map[string]string{},
		OutputFormat: d.OutputFormat,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for k, v := range d.Arguments {
		t.Arguments[k] = v
	}
	if t.OutputFormat == "" {
		t.OutputFormat = "text"
	}
	if d.IsActive != nil {
		t.IsActive = *d.IsActive
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, t)
	return t, nil
}

func (s *MemStore) UpdateTool(id string, p domain.ToolPatch) (domain.Tool, error) {
	if err := p.Validate(); err != nil {
		return domain.Tool{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.tools, id)
	if i < 0 {
		return domain.Tool{}, notFound("tool", id)
	}
	p.Apply(&s.tools[i])
	s.tools[i].UpdatedAt = s.now()
	return s.tools[i], nil
}

func (s *MemStore) DeleteTool(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.tools, id)
	if i < 0 {
		return notFound("tool", id)
	}
	s.tools = append(s.tools[:i], s.tools[i+1:]...)
	return nil
}

// ExecuteTool records a queued execution of an active tool for a task. The
// command is resolved but never run.
func (s *MemStore) ExecuteTool(toolID string, req domain.ExecuteRequest) (domain.ToolExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ti := indexOf(s.tools, toolID)
	if ti < 0 {
		return domain.ToolExecution{}, notFound("tool", toolID)
	}
	tool := s.tools[ti]
	if !tool.IsActive {
		return domain.ToolExecution{}, fmt.Errorf("tool %s is inactive: %w", tool.Name, ErrConflict)
	}
	if indexOf(s.tasks, req.TaskID) < 0 {
		return domain.ToolExecution{}, &domain.ValidationError{Field: "task_id", Message: "unknown task " + req.TaskID}
	}
	command, err := tool.ResolveCommand(req.Args)
	if err != nil {
		return domain.ToolExecution{}, err
	}
	now := s.now()
	args := map[string]string{}
	for k, v := range req.Args {
		args[k] = v
	}
	exec := domain.ToolExecution{
		ID:        uuid.NewString(),
		ToolID:    tool.ID,
		TaskID:    req.TaskID,
		Command:   command,
		Arguments: args,
		Status:    "queued",
		StartTime: now,
		CreatedAt: now,
	}
	s.executions = append(s.executions, exec)
	return exec, nil
}

func (s *MemStore) Executions(toolID string) []domain.ToolExecution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.ToolExecution{}
	for _, e := range s.executions {
		if toolID == "" || e.ToolID == toolID {
			out = append(out, e)
		}
	}
	return out
}

// Notifications

func (s *MemStore) AddNotification(n domain.Notification) domain.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append([]domain.Notification{n}, s.notifications...)
	return n
}

func (s *MemStore) ListNotifications() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]domain.Notification{}, s.notifications...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (s *MemStore) MarkNotificationRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.notifications, id)
	if i < 0 {
		return notFound("notification", id)
	}
	s.notifications[i].Read = true
	return nil
}

func (s *MemStore) MarkAllNotificationsRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
}

func contains(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}

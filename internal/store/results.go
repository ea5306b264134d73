package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"redops/internal/domain"
)

// ResultGateway is the remote surface for a task's structured results.
type ResultGateway interface {
	ListResults(ctx context.Context, taskID string) ([]domain.TaskResult, error)
	ImportResults(ctx context.Context, taskID, filename string, r io.Reader) ([]domain.TaskResult, error)
	ClearResults(ctx context.Context, taskID string) error
}

// ResultsState is the result list of one task.
type ResultsState struct {
	TaskID  string
	Items   []domain.TaskResult
	Loading bool
	Err     string
}

// Results holds the structured results of the task last fetched. Every
// successful call replaces the list wholesale.
type Results struct {
	gw     ResultGateway
	logger *slog.Logger

	mu       sync.Mutex
	taskID   string
	items    []domain.TaskResult
	inflight int
	err      string
	subs     map[int]func(ResultsState)
	nextSub  int
}

func NewResults(gw ResultGateway, opts ...Option) *Results {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Results{gw: gw, logger: o.logger, subs: map[int]func(ResultsState){}}
}

func (s *Results) State() ResultsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Results) snapshot() ResultsState {
	return ResultsState{
		TaskID:  s.taskID,
		Items:   append([]domain.TaskResult(nil), s.items...),
		Loading: s.inflight > 0,
		Err:     s.err,
	}
}

func (s *Results) Subscribe(fn func(ResultsState)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Results) commit(fn func()) {
	s.mu.Lock()
	fn()
	st := s.snapshot()
	subs := make([]func(ResultsState), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub(st)
	}
}

func (s *Results) run(op, taskID string, call func() ([]domain.TaskResult, error)) error {
	s.commit(func() {
		s.inflight++
		s.err = ""
	})
	items, err := call()
	if err != nil {
		s.commit(func() {
			s.inflight--
			s.err = err.Error()
		})
		return fmt.Errorf("%s results of %s: %w", op, taskID, err)
	}
	if items == nil {
		items = []domain.TaskResult{}
	}
	s.commit(func() {
		s.inflight--
		s.taskID = taskID
		s.items = items
	})
	return nil
}

// Fetch loads the results of taskID.
func (s *Results) Fetch(ctx context.Context, taskID string) error {
	return s.run("fetch", taskID, func() ([]domain.TaskResult, error) {
		return s.gw.ListResults(ctx, taskID)
	})
}

// Import uploads a results file and takes the server's full list back.
func (s *Results) Import(ctx context.Context, taskID, filename string, r io.Reader) error {
	return s.run("import", taskID, func() ([]domain.TaskResult, error) {
		return s.gw.ImportResults(ctx, taskID, filename, r)
	})
}

// Clear deletes every result of taskID. A 404 means the task is gone, which
// leaves nothing to clear.
func (s *Results) Clear(ctx context.Context, taskID string) error {
	return s.run("clear", taskID, func() ([]domain.TaskResult, error) {
		if err := s.gw.ClearResults(ctx, taskID); err != nil && !isNotFound(err) {
			return nil, err
		}
		return []domain.TaskResult{}, nil
	})
}

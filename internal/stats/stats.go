// Package stats derives chart aggregates from store snapshots.
package stats

import (
	"math"
	"sort"

	"redops/internal/domain"
)

// Count is one bar or slice of a chart.
type Count[K ~string] struct {
	Key   K   `json:"key"`
	Count int `json:"count"`
}

// TaskCountsByStatus counts tasks per status in canonical status order.
func TaskCountsByStatus(tasks []domain.Task) []Count[domain.TaskStatus] {
	seen := map[domain.TaskStatus]int{}
	for _, t := range tasks {
		seen[t.Status]++
	}
	out := make([]Count[domain.TaskStatus], 0, len(domain.TaskStatuses))
	for _, s := range domain.TaskStatuses {
		out = append(out, Count[domain.TaskStatus]{Key: s, Count: seen[s]})
	}
	return out
}

func TasksCompleted(tasks []domain.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Status == domain.TaskCompleted {
			n++
		}
	}
	return n
}

// OperationsByPhase counts operations for each of the 13 phases in order,
// including phases with no operations.
func OperationsByPhase(ops []domain.Operation) []Count[domain.Phase] {
	seen := map[domain.Phase]int{}
	for _, op := range ops {
		seen[op.CurrentPhase]++
	}
	out := make([]Count[domain.Phase], 0, len(domain.Phases))
	for _, p := range domain.Phases {
		out = append(out, Count[domain.Phase]{Key: p, Count: seen[p]})
	}
	return out
}

func OperationsByStatus(ops []domain.Operation) []Count[domain.OperationStatus] {
	seen := map[domain.OperationStatus]int{}
	for _, op := range ops {
		seen[op.Status]++
	}
	out := make([]Count[domain.OperationStatus], 0, len(domain.OperationStatuses))
	for _, s := range domain.OperationStatuses {
		out = append(out, Count[domain.OperationStatus]{Key: s, Count: seen[s]})
	}
	return out
}

// OperationCompletion is the rounded percentage of the operation's tasks
// that are completed. An operation without tasks is 0%.
func OperationCompletion(tasks []domain.Task, operationID string) int {
	total, done := 0, 0
	for _, t := range tasks {
		if t.OperationID != operationID {
			continue
		}
		total++
		if t.Status == domain.TaskCompleted {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// PhaseProgress returns the 1-based position of the current phase and the
// number of phases. An unknown phase reports 0.
func PhaseProgress(op domain.Operation) (int, int) {
	return op.CurrentPhase.Index() + 1, len(domain.Phases)
}

type MemberStats struct {
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	TasksCompleted  int    `json:"tasks_completed"`
	TasksInProgress int    `json:"tasks_in_progress"`
}

// MemberPerformance reports per-user task throughput, busiest first.
func MemberPerformance(users []domain.User, tasks []domain.Task) []MemberStats {
	byUser := make(map[string]*MemberStats, len(users))
	out := make([]MemberStats, len(users))
	for i, u := range users {
		out[i] = MemberStats{UserID: u.ID, Username: u.Username}
		byUser[u.ID] = &out[i]
	}
	for _, t := range tasks {
		if t.AssignedTo == nil {
			continue
		}
		m, ok := byUser[*t.AssignedTo]
		if !ok {
			continue
		}
		switch t.Status {
		case domain.TaskCompleted:
			m.TasksCompleted++
		case domain.TaskInProgress:
			m.TasksInProgress++
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TasksCompleted != out[j].TasksCompleted {
			return out[i].TasksCompleted > out[j].TasksCompleted
		}
		return out[i].TasksInProgress > out[j].TasksInProgress
	})
	return out
}

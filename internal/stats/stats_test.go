package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redops/internal/domain"
)

func ptr(s string) *string { return &s }

func sampleTasks() []domain.Task {
	return []domain.Task{
		{ID: "t1", OperationID: "op1", Status: domain.TaskCompleted, AssignedTo: ptr("u1")},
		{ID: "t2", OperationID: "op1", Status: domain.TaskInProgress, AssignedTo: ptr("u2")},
		{ID: "t3", OperationID: "op1", Status: domain.TaskCompleted, AssignedTo: ptr("u2")},
		{ID: "t4", OperationID: "op2", Status: domain.TaskBlocked},
	}
}

func TestTaskCounts(t *testing.T) {
	tasks := sampleTasks()
	assert.Equal(t, 2, TasksCompleted(tasks))
	assert.Equal(t, []Count[domain.TaskStatus]{
		{Key: domain.TaskPending, Count: 0},
		{Key: domain.TaskInProgress, Count: 1},
		{Key: domain.TaskCompleted, Count: 2},
		{Key: domain.TaskBlocked, Count: 1},
	}, TaskCountsByStatus(tasks))
}

func TestOperationsByPhaseCoversEveryPhase(t *testing.T) {
	ops := []domain.Operation{
		{ID: "a", CurrentPhase: domain.PhaseReconnaissance},
		{ID: "b", CurrentPhase: domain.PhaseImpact},
		{ID: "c", CurrentPhase: domain.PhaseReconnaissance},
	}
	counts := OperationsByPhase(ops)
	require.Len(t, counts, 13)
	assert.Equal(t, Count[domain.Phase]{Key: domain.PhaseReconnaissance, Count: 2}, counts[0])
	assert.Equal(t, Count[domain.Phase]{Key: domain.PhaseImpact, Count: 1}, counts[12])

	byStatus := OperationsByStatus([]domain.Operation{{Status: domain.OperationPending}, {Status: domain.OperationPending}})
	assert.Equal(t, 2, byStatus[0].Count)
}

func TestOperationCompletion(t *testing.T) {
	tasks := sampleTasks()
	assert.Equal(t, 67, OperationCompletion(tasks, "op1"))
	assert.Equal(t, 0, OperationCompletion(tasks, "op2"))
	assert.Equal(t, 0, OperationCompletion(tasks, "none"))
}

func TestPhaseProgress(t *testing.T) {
	pos, total := PhaseProgress(domain.Operation{CurrentPhase: domain.PhaseExecution})
	assert.Equal(t, 3, pos)
	assert.Equal(t, 13, total)
}

func TestMemberPerformance(t *testing.T) {
	users := []domain.User{{ID: "u1", Username: "alice"}, {ID: "u2", Username: "bob"}, {ID: "u3", Username: "carol"}}
	perf := MemberPerformance(users, sampleTasks())
	require.Len(t, perf, 3)
	assert.Equal(t, MemberStats{UserID: "u2", Username: "bob", TasksCompleted: 1, TasksInProgress: 1}, perf[0])
	assert.Equal(t, "alice", perf[1].Username)
	assert.Equal(t, 0, perf[2].TasksCompleted)
}

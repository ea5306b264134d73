package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseOrder(t *testing.T) {
	require.Len(t, Phases, 13)
	assert.Equal(t, 0, PhaseReconnaissance.Index())
	assert.Equal(t, 12, PhaseImpact.Index())
	assert.Equal(t, -1, Phase("weaponization").Index())
	assert.False(t, Phase("").Valid())
}

func TestCredentialsValidate(t *testing.T) {
	err := Credentials{Email: "lead@example.com"}.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "please enter both email and password", err.Error())
	assert.NoError(t, Credentials{Email: "a@b.c", Password: "pw"}.Validate())
}

func TestOperationDraftValidate(t *testing.T) {
	ok := OperationDraft{Name: "Web App Assessment", Type: OperationRedTeam, CurrentPhase: PhaseReconnaissance, Status: OperationPending}
	assert.NoError(t, ok.Validate())

	cases := map[string]OperationDraft{
		"missing name": {Type: OperationPenTest},
		"bad type":     {Name: "x", Type: "audit"},
		"bad phase":    {Name: "x", Type: OperationPenTest, CurrentPhase: "weaponization"},
		"bad status":   {Name: "x", Type: OperationPenTest, Status: "paused"},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			var verr *ValidationError
			assert.True(t, errors.As(d.Validate(), &verr))
		})
	}
}

func TestTaskPatchApply(t *testing.T) {
	task := Task{ID: "t1", Title: "Enumerate hosts", Status: TaskInProgress, Phase: PhaseDiscovery}
	status := TaskCompleted
	results := "42 hosts"
	TaskPatch{Status: &status, Results: &results}.Apply(&task)
	assert.Equal(t, TaskCompleted, task.Status)
	assert.Equal(t, "42 hosts", task.Results)
	assert.Equal(t, "Enumerate hosts", task.Title)
	assert.Equal(t, PhaseDiscovery, task.Phase)
}

func TestTaskPatchAssignment(t *testing.T) {
	lead := "u-lead"
	task := Task{ID: "t1", AssignedTo: &lead}

	TaskPatch{}.Apply(&task)
	require.NotNil(t, task.AssignedTo)

	other := "u-member"
	TaskPatch{AssignedTo: &other}.Apply(&task)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, "u-member", *task.AssignedTo)
	other = "changed"
	assert.Equal(t, "u-member", *task.AssignedTo)

	none := ""
	TaskPatch{AssignedTo: &none}.Apply(&task)
	assert.Nil(t, task.AssignedTo)
	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "assigned_to")
}

func TestValidateTaskForOperation(t *testing.T) {
	assert.NoError(t, ValidateTaskForOperation(OperationRedTeam, "T1595", ""))
	assert.NoError(t, ValidateTaskForOperation(OperationPenTest, "", "A03"))
	assert.NoError(t, ValidateTaskForOperation(OperationVulnerabilityAssessment, "", ""))
	assert.Error(t, ValidateTaskForOperation(OperationPenTest, "T1595", ""))
	assert.Error(t, ValidateTaskForOperation(OperationRedTeam, "", "A03"))
	assert.Error(t, ValidateTaskForOperation(OperationRedTeam, "T1595", "A03"))
}

func TestToolResolveCommand(t *testing.T) {
	tool := Tool{
		Name:      "nmap",
		Command:   "nmap -sV {target} -p {ports}",
		Arguments: map[string]string{"target": "host or CIDR", "ports": "port list"},
	}
	cmd, err := tool.ResolveCommand(map[string]string{"target": "10.0.0.0/24", "ports": "1-1024"})
	require.NoError(t, err)
	assert.Equal(t, "nmap -sV 10.0.0.0/24 -p 1-1024", cmd)

	_, err = tool.ResolveCommand(map[string]string{"target": "10.0.0.1"})
	assert.ErrorContains(t, err, "missing argument \"ports\"")

	_, err = tool.ResolveCommand(map[string]string{"target": "a", "ports": "b", "rate": "c"})
	assert.ErrorContains(t, err, "unknown argument")
}

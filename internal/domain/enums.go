package domain

// Phase is a kill-chain stage shared by operations and tasks.
type Phase string

const (
	PhaseReconnaissance      Phase = "reconnaissance"
	PhaseInitialAccess       Phase = "initial_access"
	PhaseExecution           Phase = "execution"
	PhasePersistence         Phase = "persistence"
	PhasePrivilegeEscalation Phase = "privilege_escalation"
	PhaseDefenseEvasion      Phase = "defense_evasion"
	PhaseCredentialAccess    Phase = "credential_access"
	PhaseDiscovery           Phase = "discovery"
	PhaseLateralMovement     Phase = "lateral_movement"
	PhaseCollection          Phase = "collection"
	PhaseCommandAndControl   Phase = "command_and_control"
	PhaseExfiltration        Phase = "exfiltration"
	PhaseImpact              Phase = "impact"
)

// Phases lists every phase in kill-chain order.
var Phases = []Phase{
	PhaseReconnaissance,
	PhaseInitialAccess,
	PhaseExecution,
	PhasePersistence,
	PhasePrivilegeEscalation,
	PhaseDefenseEvasion,
	PhaseCredentialAccess,
	PhaseDiscovery,
	PhaseLateralMovement,
	PhaseCollection,
	PhaseCommandAndControl,
	PhaseExfiltration,
	PhaseImpact,
}

// Index returns the zero-based position of p in Phases, or -1.
func (p Phase) Index() int {
	for i, ph := range Phases {
		if ph == p {
			return i
		}
	}
	return -1
}

func (p Phase) Valid() bool { return p.Index() >= 0 }

type OperationType string

const (
	OperationRedTeam                 OperationType = "red_team"
	OperationPenTest                 OperationType = "pen_test"
	OperationVulnerabilityAssessment OperationType = "vulnerability_assessment"
)

func (t OperationType) Valid() bool {
	switch t {
	case OperationRedTeam, OperationPenTest, OperationVulnerabilityAssessment:
		return true
	}
	return false
}

type OperationStatus string

const (
	OperationPending    OperationStatus = "pending"
	OperationInProgress OperationStatus = "in_progress"
	OperationCompleted  OperationStatus = "completed"
	OperationCancelled  OperationStatus = "cancelled"
)

var OperationStatuses = []OperationStatus{OperationPending, OperationInProgress, OperationCompleted, OperationCancelled}

func (s OperationStatus) Valid() bool {
	for _, v := range OperationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
)

var TaskStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskCompleted, TaskBlocked}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type ToolType string

const (
	ToolReconnaissance   ToolType = "reconnaissance"
	ToolVulnerability    ToolType = "vulnerability"
	ToolExploitation     ToolType = "exploitation"
	ToolPostExploitation ToolType = "post_exploitation"
)

func (t ToolType) Valid() bool {
	switch t {
	case ToolReconnaissance, ToolVulnerability, ToolExploitation, ToolPostExploitation:
		return true
	}
	return false
}

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleTeamLead UserRole = "team_lead"
	RoleMember   UserRole = "member"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeamLead, RoleMember:
		return true
	}
	return false
}

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

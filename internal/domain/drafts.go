package domain

import "time"

// Drafts are entities minus identifier and timestamps; patches carry only the
// fields being changed.

type UserDraft struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     UserRole `json:"role,omitempty"`
}

func (d UserDraft) Validate() error {
	switch {
	case d.Username == "":
		return required("username")
	case d.Email == "":
		return required("email")
	case d.Password == "":
		return required("password")
	case d.Role != "" && !d.Role.Valid():
		return invalid("role", d.Role)
	}
	return nil
}

type UserPatch struct {
	Username *string   `json:"username,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Role     *UserRole `json:"role,omitempty"`
}

func (p UserPatch) Validate() error {
	if p.Role != nil && !p.Role.Valid() {
		return invalid("role", *p.Role)
	}
	return nil
}

func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
}

type OperationDraft struct {
	Name         string          `json:"name"`
	Type         OperationType   `json:"type"`
	Description  string          `json:"description,omitempty"`
	Scope        string          `json:"scope,omitempty"`
	ROE          string          `json:"roe,omitempty"`
	TeamLead     string          `json:"team_lead,omitempty"`
	Members      []string        `json:"members,omitempty"`
	CurrentPhase Phase           `json:"current_phase,omitempty"`
	Status       OperationStatus `json:"status,omitempty"`
	StartDate    *time.Time      `json:"start_date,omitempty"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
}

func (d OperationDraft) Validate() error {
	switch {
	case d.Name == "":
		return required("name")
	case !d.Type.Valid():
		return invalid("type", d.Type)
	case d.CurrentPhase != "" && !d.CurrentPhase.Valid():
		return invalid("current_phase", d.CurrentPhase)
	case d.Status != "" && !d.Status.Valid():
		return invalid("status", d.Status)
	}
	return nil
}

type OperationPatch struct {
	Name         *string          `json:"name,omitempty"`
	Type         *OperationType   `json:"type,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Scope        *string          `json:"scope,omitempty"`
	ROE          *string          `json:"roe,omitempty"`
	TeamLead     *string          `json:"team_lead,omitempty"`
	Members      *[]string        `json:"members,omitempty"`
	CurrentPhase *Phase           `json:"current_phase,omitempty"`
	Status       *OperationStatus `json:"status,omitempty"`
	StartDate    *time.Time       `json:"start_date,omitempty"`
	EndDate      *time.Time       `json:"end_date,omitempty"`
}

func (p OperationPatch) Validate() error {
	switch {
	case p.Name != nil && *p.Name == "":
		return required("name")
	case p.Type != nil && !p.Type.Valid():
		return invalid("type", *p.Type)
	case p.CurrentPhase != nil && !p.CurrentPhase.Valid():
		return invalid("current_phase", *p.CurrentPhase)
	case p.Status != nil && !p.Status.Valid():
		return invalid("status", *p.Status)
	}
	return nil
}

func (p OperationPatch) Apply(op *Operation) {
	if p.Name != nil {
		op.Name = *p.Name
	}
	if p.Type != nil {
		op.Type = *p.Type
	}
	if p.Description != nil {
		op.Description = *p.Description
	}
	if p.Scope != nil {
		op.Scope = *p.Scope
	}
	if p.ROE != nil {
		op.ROE = *p.ROE
	}
	if p.TeamLead != nil {
		op.TeamLead = *p.TeamLead
	}
	if p.Members != nil {
		op.Members = append([]string(nil), (*p.Members)...)
	}
	if p.CurrentPhase != nil {
		op.CurrentPhase = *p.CurrentPhase
	}
	if p.Status != nil {
		op.Status = *p.Status
	}
	if p.StartDate != nil {
		op.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		op.EndDate = p.EndDate
	}
}

type TaskDraft struct {
	OperationID string     `json:"operation_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	Phase       Phase      `json:"phase,omitempty"`
	MITREID     string     `json:"mitre_id,omitempty"`
	OWASPID     string     `json:"owasp_id,omitempty"`
	Results     string     `json:"results,omitempty"`
	Tools       []string   `json:"tools,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

func (d TaskDraft) Validate() error {
	switch {
	case d.OperationID == "":
		return required("operation_id")
	case d.Title == "":
		return required("title")
	case d.Status != "" && !d.Status.Valid():
		return invalid("status", d.Status)
	case d.Phase != "" && !d.Phase.Valid():
		return invalid("phase", d.Phase)
	}
	return nil
}

// TaskPatch carries the fields to change. An empty AssignedTo unassigns the
// task; JSON null is indistinguishable from an absent field.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	AssignedTo  *string     `json:"assigned_to,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	Phase       *Phase      `json:"phase,omitempty"`
	MITREID     *string     `json:"mitre_id,omitempty"`
	OWASPID     *string     `json:"owasp_id,omitempty"`
	Results     *string     `json:"results,omitempty"`
	Tools       *[]string   `json:"tools,omitempty"`
	StartDate   *time.Time  `json:"start_date,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
}

func (p TaskPatch) Validate() error {
	switch {
	case p.Title != nil && *p.Title == "":
		return required("title")
	case p.Status != nil && !p.Status.Valid():
		return invalid("status", *p.Status)
	case p.Phase != nil && !p.Phase.Valid():
		return invalid("phase", *p.Phase)
	}
	return nil
}

func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.AssignedTo != nil {
		t.AssignedTo = nil
		if v := *p.AssignedTo; v != "" {
			t.AssignedTo = &v
		}
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Phase != nil {
		t.Phase = *p.Phase
	}
	if p.MITREID != nil {
		t.MITREID = *p.MITREID
	}
	if p.OWASPID != nil {
		t.OWASPID = *p.OWASPID
	}
	if p.Results != nil {
		t.Results = *p.Results
	}
	if p.Tools != nil {
		t.Tools = append([]string(nil), (*p.Tools)...)
	}
	if p.StartDate != nil {
		t.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = p.EndDate
	}
}

// ValidateTaskForOperation checks the framework mapping convention: MITRE ids
// belong to red team operations, OWASP ids to penetration tests.
func ValidateTaskForOperation(opType OperationType, mitreID, owaspID string) error {
	if mitreID != "" && owaspID != "" {
		return &ValidationError{Field: "mitre_id", Message: "mitre_id and owasp_id are mutually exclusive"}
	}
	if mitreID != "" && opType != OperationRedTeam {
		return &ValidationError{Field: "mitre_id", Message: "only red_team operations map to MITRE ATT&CK"}
	}
	if owaspID != "" && opType != OperationPenTest {
		return &ValidationError{Field: "owasp_id", Message: "only pen_test operations map to OWASP"}
	}
	return nil
}

type ToolDraft struct {
	Name         string            `json:"name"`
	Type         ToolType          `json:"type"`
	Description  string            `json:"description,omitempty"`
	Command      string            `json:"command,omitempty"`
	Arguments    map[string]string `json:"arguments,omitempty"`
	OutputFormat string            `json:"output_format,omitempty"`
	IsActive     *bool             `json:"is_active,omitempty"`
}

func (d ToolDraft) Validate() error {
	switch {
	case d.Name == "":
		return required("name")
	case !d.Type.Valid():
		return invalid("type", d.Type)
	}
	return nil
}

type ToolPatch struct {
	Name         *string            `json:"name,omitempty"`
	Type         *ToolType          `json:"type,omitempty"`
	Description  *string            `json:"description,omitempty"`
	Command      *string            `json:"command,omitempty"`
	Arguments    *map[string]string `json:"arguments,omitempty"`
	OutputFormat *string            `json:"output_format,omitempty"`
	IsActive     *bool              `json:"is_active,omitempty"`
}

func (p ToolPatch) Validate() error {
	switch {
	case p.Name != nil && *p.Name == "":
		return required("name")
	case p.Type != nil && !p.Type.Valid():
		return invalid("type", *p.Type)
	}
	return nil
}

func (p ToolPatch) Apply(t *Tool) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Command != nil {
		t.Command = *p.Command
	}
	if p.Arguments != nil {
		t.Arguments = make(map[string]string, len(*p.Arguments))
		for k, v := range *p.Arguments {
			t.Arguments[k] = v
		}
	}
	if p.OutputFormat != nil {
		t.OutputFormat = *p.OutputFormat
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
}

// ExecuteRequest asks the backend to run a tool on behalf of a task.
type ExecuteRequest struct {
	TaskID string            `json:"task_id"`
	Args   map[string]string `json:"args,omitempty"`
}

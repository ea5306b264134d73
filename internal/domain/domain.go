package domain

import "time"

// Entity is anything a store can key by identifier.
type Entity interface {
	EntityID() string
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role" enum:"admin,team_lead,member"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) EntityID() string { return u.ID }

type Operation struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         OperationType   `json:"type" enum:"red_team,pen_test,vulnerability_assessment"`
	Description  string          `json:"description"`
	Scope        string          `json:"scope"`
	ROE          string          `json:"roe"`
	TeamLead     string          `json:"team_lead"`
	Members      []string        `json:"members"`
	CurrentPhase Phase           `json:"current_phase"`
	Status       OperationStatus `json:"status" enum:"pending,in_progress,completed,cancelled"`
	StartDate    *time.Time      `json:"start_date,omitempty"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (o Operation) EntityID() string { return o.ID }

type Task struct {
	ID          string     `json:"id"`
	OperationID string     `json:"operation_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	Status      TaskStatus `json:"status" enum:"pending,in_progress,completed,blocked"`
	Phase       Phase      `json:"phase"`
	MITREID     string     `json:"mitre_id,omitempty"`
	OWASPID     string     `json:"owasp_id,omitempty"`
	Results     string     `json:"results"`
	Tools       []string   `json:"tools"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t Task) EntityID() string { return t.ID }

type Tool struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         ToolType          `json:"type" enum:"reconnaissance,vulnerability,exploitation,post_exploitation"`
	Description  string            `json:"description"`
	Command      string            `json:"command"`
	Arguments    map[string]string `json:"arguments"`
	OutputFormat string            `json:"output_format"`
	IsActive     bool              `json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (t Tool) EntityID() string { return t.ID }

// ToolExecution is the record left behind by executing a tool for a task.
type ToolExecution struct {
	ID        string            `json:"id"`
	ToolID    string            `json:"tool_id"`
	TaskID    string            `json:"task_id"`
	Command   string            `json:"command"`
	Arguments map[string]string `json:"arguments"`
	Output    string            `json:"output"`
	Status    string            `json:"status"`
	StartTime time.Time         `json:"start_time"`
	EndTime   *time.Time        `json:"end_time,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (e ToolExecution) EntityID() string { return e.ID }

type Notification struct {
	ID        string    `json:"id"`
	Type      Severity  `json:"type" enum:"success,error,warning,info"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	Link      string    `json:"link,omitempty"`
}

func (n Notification) EntityID() string { return n.ID }

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate rejects empty credentials before anything reaches the network.
func (c Credentials) Validate() error {
	if c.Email == "" || c.Password == "" {
		return &ValidationError{Message: "please enter both email and password"}
	}
	return nil
}

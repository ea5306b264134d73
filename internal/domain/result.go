package domain

import (
	"strings"
	"time"
)

// TaskResult is one structured finding row recorded against a task, usually
// imported from an operator's spreadsheet.
type TaskResult struct {
	ID                 string    `json:"id"`
	TaskID             string    `json:"task_id"`
	Start              string    `json:"start,omitempty"`
	End                string    `json:"end,omitempty"`
	SourceIP           string    `json:"source_ip,omitempty"`
	DestinationIP      string    `json:"destination_ip,omitempty"`
	DestinationPort    string    `json:"destination_port,omitempty"`
	DestinationSystem  string    `json:"destination_system,omitempty"`
	PivotIP            string    `json:"pivot_ip,omitempty"`
	PivotPort          string    `json:"pivot_port,omitempty"`
	URL                string    `json:"url,omitempty"`
	ToolApp            string    `json:"tool_app,omitempty"`
	Command            string    `json:"command,omitempty"`
	Description        string    `json:"description,omitempty"`
	Output             string    `json:"output,omitempty"`
	Result             string    `json:"result,omitempty"`
	SystemModification string    `json:"system_modification,omitempty"`
	Comments           string    `json:"comments,omitempty"`
	OperatorName       string    `json:"operator_name,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (r TaskResult) EntityID() string { return r.ID }

// TaskResultColumns is the spreadsheet column order for results.
var TaskResultColumns = []string{
	"Start",
	"End",
	"Source IP",
	"Destination IP",
	"Destination Port",
	"Destination System",
	"Pivot IP",
	"Pivot Port",
	"URL",
	"Tool/App",
	"Command",
	"Description",
	"Output",
	"Result",
	"System Modification",
	"Comments",
	"Operator Name",
}

func (r *TaskResult) fields() []*string {
	return []*string{
		&r.Start, &r.End, &r.SourceIP, &r.DestinationIP, &r.DestinationPort,
		&r.DestinationSystem, &r.PivotIP, &r.PivotPort, &r.URL, &r.ToolApp,
		&r.Command, &r.Description, &r.Output, &r.Result, &r.SystemModification,
		&r.Comments, &r.OperatorName,
	}
}

// Row returns the values in TaskResultColumns order.
func (r TaskResult) Row() []string {
	fields := r.fields()
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = *f
	}
	return row
}

// TaskResultFromRow maps cells in TaskResultColumns order. Missing trailing
// cells stay empty and extra cells are ignored.
func TaskResultFromRow(row []string) TaskResult {
	var r TaskResult
	for i, f := range r.fields() {
		if i < len(row) {
			*f = strings.TrimSpace(row[i])
		}
	}
	return r
}

// IsBlank reports whether every column is empty.
func (r TaskResult) IsBlank() bool {
	for _, f := range r.fields() {
		if *f != "" {
			return false
		}
	}
	return true
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"redops/internal/app"
	"redops/internal/domain"
	"redops/internal/stats"
)

type dashboard struct {
	TasksByStatus      []stats.Count[domain.TaskStatus]      `json:"tasks_by_status"`
	TasksCompleted     int                                   `json:"tasks_completed"`
	OperationsByPhase  []stats.Count[domain.Phase]           `json:"operations_by_phase"`
	OperationsByStatus []stats.Count[domain.OperationStatus] `json:"operations_by_status"`
	Completion         map[string]int                        `json:"operation_completion"`
	Members            []stats.MemberStats                   `json:"members"`
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.LoadAll(ctx); err != nil {
					return err
				}
				ops := a.Operations.State().Items
				tasks := a.Tasks.State().Items
				users := a.Users.State().Items

				d := dashboard{
					TasksByStatus:      stats.TaskCountsByStatus(tasks),
					TasksCompleted:     stats.TasksCompleted(tasks),
					OperationsByPhase:  stats.OperationsByPhase(ops),
					OperationsByStatus: stats.OperationsByStatus(ops),
					Completion:         map[string]int{},
					Members:            stats.MemberPerformance(users, tasks),
				}
				for _, op := range ops {
					d.Completion[op.ID] = stats.OperationCompletion(tasks, op.ID)
				}
				if viper.GetBool("json") {
					return printJSON(d)
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Operations")
				tw.AppendHeader(table.Row{"Name", "Status", "Phase", "Progress", "Tasks done"})
				for _, op := range ops {
					step, total := stats.PhaseProgress(op)
					tw.AppendRow(table.Row{op.Name, op.Status, op.CurrentPhase, fmt.Sprintf("%d/%d", step, total), fmt.Sprintf("%d%%", d.Completion[op.ID])})
				}
				tw.Render()

				tw = table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Tasks by status")
				tw.AppendHeader(table.Row{"Status", "Count"})
				for _, c := range d.TasksByStatus {
					tw.AppendRow(table.Row{c.Key, c.Count})
				}
				tw.Render()

				tw = table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Operations by phase")
				tw.AppendHeader(table.Row{"Phase", "Count"})
				for _, c := range d.OperationsByPhase {
					if c.Count > 0 {
						tw.AppendRow(table.Row{c.Key, c.Count})
					}
				}
				tw.Render()

				tw = table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Team")
				tw.AppendHeader(table.Row{"User", "Completed", "In progress"})
				for _, m := range d.Members {
					tw.AppendRow(table.Row{m.Username, m.TasksCompleted, m.TasksInProgress})
				}
				tw.Render()
				return nil
			})
		},
	}
}

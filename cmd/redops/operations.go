package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"redops/internal/app"
	"redops/internal/domain"
	"redops/internal/stats"
)

func operationCmd() *cobra.Command {
	op := &cobra.Command{Use: "operation", Aliases: []string{"op"}, Short: "Manage operations"}
	op.AddCommand(operationListCmd())
	op.AddCommand(operationCreateCmd())
	op.AddCommand(operationUpdateCmd())
	op.AddCommand(operationPhaseCmd())
	op.AddCommand(operationDeleteCmd())
	return op
}

func printOperations(ops []domain.Operation) error {
	rows := make([]table.Row, 0, len(ops))
	for _, o := range ops {
		step, total := stats.PhaseProgress(o)
		rows = append(rows, table.Row{o.ID, o.Name, o.Type, o.Status, fmt.Sprintf("%s (%d/%d)", o.CurrentPhase, step, total), o.TeamLead})
	}
	return printJSONOrTable(ops, table.Row{"ID", "Name", "Type", "Status", "Phase", "Lead"}, rows)
}

func operationListCmd() *cobra.Command {
	var member, phase string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				var err error
				switch {
				case member != "":
					err = a.Operations.FetchByTeamMember(ctx, member)
				case phase != "":
					err = a.Operations.FetchByPhase(ctx, domain.Phase(phase))
				default:
					err = a.Operations.FetchAll(ctx)
				}
				st := a.Operations.State()
				if err != nil {
					return storeError(err, st.Err)
				}
				return printOperations(st.Items)
			})
		},
	}
	cmd.Flags().StringVar(&member, "member", "", "only operations including this user id")
	cmd.Flags().StringVar(&phase, "phase", "", "only operations in this phase")
	return cmd
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return &t, nil
}

func operationCreateCmd() *cobra.Command {
	var d domain.OperationDraft
	var opType, phase, status, members, start, end string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Type = domain.OperationType(opType)
			d.CurrentPhase = domain.Phase(phase)
			d.Status = domain.OperationStatus(status)
			if members != "" {
				d.Members = strings.Split(members, ",")
			}
			var err error
			if d.StartDate, err = parseDate(start); err != nil {
				return err
			}
			if d.EndDate, err = parseDate(end); err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				op, err := a.Operations.Create(ctx, d)
				if err != nil {
					return storeError(err, a.Operations.State().Err)
				}
				return printOperations([]domain.Operation{op})
			})
		},
	}
	cmd.Flags().StringVar(&d.Name, "name", "", "operation name")
	cmd.Flags().StringVar(&opType, "type", "", "red_team, pen_test or vulnerability_assessment")
	cmd.Flags().StringVar(&d.Description, "description", "", "description")
	cmd.Flags().StringVar(&d.Scope, "scope", "", "scope")
	cmd.Flags().StringVar(&d.ROE, "roe", "", "rules of engagement")
	cmd.Flags().StringVar(&d.TeamLead, "lead", "", "team lead user id")
	cmd.Flags().StringVar(&members, "members", "", "comma-separated member user ids")
	cmd.Flags().StringVar(&phase, "phase", "", "initial phase (default reconnaissance)")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default pending)")
	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "end date YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func operationUpdateCmd() *cobra.Command {
	var name, description, scope, roe, lead, status string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p domain.OperationPatch
			if cmd.Flags().Changed("name") {
				p.Name = &name
			}
			if cmd.Flags().Changed("description") {
				p.Description = &description
			}
			if cmd.Flags().Changed("scope") {
				p.Scope = &scope
			}
			if cmd.Flags().Changed("roe") {
				p.ROE = &roe
			}
			if cmd.Flags().Changed("lead") {
				p.TeamLead = &lead
			}
			if cmd.Flags().Changed("status") {
				s := domain.OperationStatus(status)
				p.Status = &s
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Operations.FetchAll(ctx); err != nil {
					return storeError(err, a.Operations.State().Err)
				}
				op, err := a.Operations.Update(ctx, args[0], p)
				if err != nil {
					return storeError(err, a.Operations.State().Err)
				}
				return printOperations([]domain.Operation{op})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "operation name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&scope, "scope", "", "scope")
	cmd.Flags().StringVar(&roe, "roe", "", "rules of engagement")
	cmd.Flags().StringVar(&lead, "lead", "", "team lead user id")
	cmd.Flags().StringVar(&status, "status", "", "pending, in_progress, completed or cancelled")
	return cmd
}

func operationPhaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phase <id> <phase>",
		Short: "Move an operation to a phase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Operations.FetchAll(ctx); err != nil {
					return storeError(err, a.Operations.State().Err)
				}
				op, err := a.Operations.UpdatePhase(ctx, args[0], domain.Phase(args[1]))
				if err != nil {
					return storeError(err, a.Operations.State().Err)
				}
				return printOperations([]domain.Operation{op})
			})
		},
	}
}

func operationDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an operation and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Operations.Delete(ctx, args[0]); err != nil {
					return storeError(err, a.Operations.State().Err)
				}
				fmt.Println("Deleted operation", args[0])
				return nil
			})
		},
	}
}

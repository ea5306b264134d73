package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"redops/internal/app"
	"redops/internal/domain"
)

func toolCmd() *cobra.Command {
	t := &cobra.Command{Use: "tool", Short: "Manage the tool catalog"}
	t.AddCommand(toolListCmd())
	t.AddCommand(toolCreateCmd())
	t.AddCommand(toolActivateCmd())
	t.AddCommand(toolExecuteCmd())
	t.AddCommand(toolDeleteCmd())
	return t
}

func printTools(tools []domain.Tool) error {
	rows := make([]table.Row, 0, len(tools))
	for _, t := range tools {
		names := make([]string, 0, len(t.Arguments))
		for name := range t.Arguments {
			names = append(names, name)
		}
		sort.Strings(names)
		rows = append(rows, table.Row{t.ID, t.Name, t.Type, t.Command, strings.Join(names, ","), t.IsActive})
	}
	return printJSONOrTable(tools, table.Row{"ID", "Name", "Type", "Command", "Args", "Active"}, rows)
}

func toolListCmd() *cobra.Command {
	var toolType string
	var active bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				var err error
				switch {
				case toolType != "":
					err = a.Tools.FetchByType(ctx, domain.ToolType(toolType))
				case active:
					err = a.Tools.FetchActive(ctx)
				default:
					err = a.Tools.FetchAll(ctx)
				}
				st := a.Tools.State()
				if err != nil {
					return storeError(err, st.Err)
				}
				return printTools(st.Items)
			})
		},
	}
	cmd.Flags().StringVar(&toolType, "type", "", "reconnaissance, vulnerability, exploitation or post_exploitation")
	cmd.Flags().BoolVar(&active, "active", false, "only active tools")
	return cmd
}

func toolCreateCmd() *cobra.Command {
	var d domain.ToolDraft
	var toolType string
	var arguments []string
	var inactive bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a tool",
		Long: `Registers a command template. Placeholders in braces are filled at execution time,
for example: redops tool create --name nmap --type reconnaissance --command "nmap -sV {target}" --arg "target=host or CIDR"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Type = domain.ToolType(toolType)
			hints, err := parseArgs(arguments)
			if err != nil {
				return err
			}
			d.Arguments = hints
			if inactive {
				off := false
				d.IsActive = &off
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				t, err := a.Tools.Create(ctx, d)
				if err != nil {
					return storeError(err, a.Tools.State().Err)
				}
				return printTools([]domain.Tool{t})
			})
		},
	}
	cmd.Flags().StringVar(&d.Name, "name", "", "tool name")
	cmd.Flags().StringVar(&toolType, "type", "", "reconnaissance, vulnerability, exploitation or post_exploitation")
	cmd.Flags().StringVar(&d.Description, "description", "", "description")
	cmd.Flags().StringVar(&d.Command, "command", "", "command template with {arg} placeholders")
	cmd.Flags().StringArrayVar(&arguments, "arg", nil, "declared argument as name=hint (repeatable)")
	cmd.Flags().StringVar(&d.OutputFormat, "output-format", "", "output format (default text)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "register the tool deactivated")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func toolActivateCmd() *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "activate <id>",
		Short: "Activate or deactivate a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Tools.FetchAll(ctx); err != nil {
					return storeError(err, a.Tools.State().Err)
				}
				t, err := a.Tools.SetActive(ctx, args[0], !off)
				if err != nil {
					return storeError(err, a.Tools.State().Err)
				}
				return printTools([]domain.Tool{t})
			})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "deactivate instead")
	return cmd
}

func toolExecuteCmd() *cobra.Command {
	var taskID string
	var arguments []string
	cmd := &cobra.Command{
		Use:   "execute <id>",
		Short: "Queue a tool execution for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseArgs(arguments)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Tools.FetchAll(ctx); err != nil {
					return storeError(err, a.Tools.State().Err)
				}
				exec, err := a.Tools.Execute(ctx, args[0], taskID, values)
				if err != nil {
					return storeError(err, a.Tools.State().Err)
				}
				return printJSONOrTable(exec,
					table.Row{"ID", "Tool", "Task", "Command", "Status"},
					[]table.Row{{exec.ID, exec.ToolID, exec.TaskID, exec.Command, exec.Status}})
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "task id")
	cmd.Flags().StringArrayVar(&arguments, "arg", nil, "argument value as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func toolDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Tools.Delete(ctx, args[0]); err != nil {
					return storeError(err, a.Tools.State().Err)
				}
				fmt.Println("Deleted tool", args[0])
				return nil
			})
		},
	}
}

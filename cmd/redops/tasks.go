package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"redops/internal/app"
	"redops/internal/domain"
	"redops/internal/resultfile"
)

func taskCmd() *cobra.Command {
	t := &cobra.Command{Use: "task", Short: "Manage tasks"}
	t.AddCommand(taskListCmd())
	t.AddCommand(taskCreateCmd())
	t.AddCommand(taskStatusCmd())
	t.AddCommand(taskResultsCmd())
	t.AddCommand(taskDeleteCmd())
	return t
}

func printTasks(tasks []domain.Task) error {
	rows := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		mapping := t.MITREID
		if mapping == "" {
			mapping = t.OWASPID
		}
		rows = append(rows, table.Row{t.ID, t.Title, t.Status, t.Phase, deref(t.AssignedTo), mapping, t.OperationID})
	}
	return printJSONOrTable(tasks, table.Row{"ID", "Title", "Status", "Phase", "Assignee", "Mapping", "Operation"}, rows)
}

func taskListCmd() *cobra.Command {
	var operation, assignee string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				var err error
				switch {
				case operation != "":
					err = a.Tasks.FetchByOperation(ctx, operation)
				case assignee != "":
					err = a.Tasks.FetchByAssignee(ctx, assignee)
				default:
					err = a.Tasks.FetchAll(ctx)
				}
				st := a.Tasks.State()
				if err != nil {
					return storeError(err, st.Err)
				}
				return printTasks(st.Items)
			})
		},
	}
	cmd.Flags().StringVar(&operation, "operation", "", "only tasks of this operation id")
	cmd.Flags().StringVar(&assignee, "assignee", "", "only tasks assigned to this user id")
	return cmd
}

func taskCreateCmd() *cobra.Command {
	var d domain.TaskDraft
	var assignee, status, phase, toolIDs string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in an operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.AssignedTo = optionalString(assignee)
			d.Status = domain.TaskStatus(status)
			d.Phase = domain.Phase(phase)
			if toolIDs != "" {
				d.Tools = strings.Split(toolIDs, ",")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if d.MITREID != "" || d.OWASPID != "" {
					if err := a.Operations.FetchAll(ctx); err == nil {
						if op, ok := a.Operations.Find(d.OperationID); ok {
							if err := domain.ValidateTaskForOperation(op.Type, d.MITREID, d.OWASPID); err != nil {
								fmt.Fprintln(os.Stderr, "warning:", err)
							}
						}
					}
				}
				t, err := a.Tasks.Create(ctx, d)
				if err != nil {
					return storeError(err, a.Tasks.State().Err)
				}
				return printTasks([]domain.Task{t})
			})
		},
	}
	cmd.Flags().StringVar(&d.OperationID, "operation", "", "operation id")
	cmd.Flags().StringVar(&d.Title, "title", "", "task title")
	cmd.Flags().StringVar(&d.Description, "description", "", "description")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assigned user id")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default pending)")
	cmd.Flags().StringVar(&phase, "phase", "", "phase (default the operation's current phase)")
	cmd.Flags().StringVar(&d.MITREID, "mitre", "", "MITRE ATT&CK technique id (red_team operations)")
	cmd.Flags().StringVar(&d.OWASPID, "owasp", "", "OWASP id (pen_test operations)")
	cmd.Flags().StringVar(&toolIDs, "tools", "", "comma-separated tool ids")
	_ = cmd.MarkFlagRequired("operation")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Tasks.FetchAll(ctx); err != nil {
					return storeError(err, a.Tasks.State().Err)
				}
				t, err := a.Tasks.UpdateStatus(ctx, args[0], domain.TaskStatus(args[1]))
				if err != nil {
					return storeError(err, a.Tasks.State().Err)
				}
				return printTasks([]domain.Task{t})
			})
		},
	}
}

func taskResultsCmd() *cobra.Command {
	r := &cobra.Command{Use: "results", Short: "Record and exchange task results"}
	r.AddCommand(taskResultsSetCmd())
	r.AddCommand(taskResultsListCmd())
	r.AddCommand(taskResultsImportCmd())
	r.AddCommand(taskResultsExportCmd())
	r.AddCommand(taskResultsClearCmd())
	return r
}

func taskResultsSetCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "set <id> [text]",
		Short: "Set a task's free-text results",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var results string
			switch {
			case file != "":
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				results = string(b)
			case len(args) == 2:
				results = args[1]
			default:
				return fmt.Errorf("pass results text or --file")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Tasks.FetchAll(ctx); err != nil {
					return storeError(err, a.Tasks.State().Err)
				}
				t, err := a.Tasks.UpdateResults(ctx, args[0], results)
				if err != nil {
					return storeError(err, a.Tasks.State().Err)
				}
				return printTasks([]domain.Task{t})
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read results from a file")
	return cmd
}

func printTaskResults(results []domain.TaskResult) error {
	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		target := r.DestinationIP
		if r.DestinationPort != "" {
			target += ":" + r.DestinationPort
		}
		rows = append(rows, table.Row{r.Start, r.SourceIP, target, r.ToolApp, r.Result, r.OperatorName})
	}
	return printJSONOrTable(results, table.Row{"Start", "Source", "Target", "Tool", "Result", "Operator"}, rows)
}

func taskResultsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <id>",
		Short: "List a task's structured results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Results.Fetch(ctx, args[0]); err != nil {
					return storeError(err, a.Results.State().Err)
				}
				return printTaskResults(a.Results.State().Items)
			})
		},
	}
}

func taskResultsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <id> <file>",
		Short: "Import results from an .xlsx, .csv or .json file",
		Long: `Spreadsheets and CSV files start with a header row followed by one result per row,
in this column order: ` + strings.Join(domain.TaskResultColumns, ", ") + `.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := resultfile.FormatOf(args[1]); err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Results.Import(ctx, args[0], filepath.Base(args[1]), f); err != nil {
					return storeError(err, a.Results.State().Err)
				}
				return printTaskResults(a.Results.State().Items)
			})
		},
	}
}

func taskResultsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> <file>",
		Short: "Write a task's results to an .xlsx, .csv or .json file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resultfile.FormatOf(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Results.Fetch(ctx, args[0]); err != nil {
					return storeError(err, a.Results.State().Err)
				}
				items := a.Results.State().Items
				f, err := os.Create(args[1])
				if err != nil {
					return err
				}
				if err := resultfile.Write(f, format, items); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Printf("Wrote %d results to %s\n", len(items), args[1])
				return nil
			})
		},
	}
}

func taskResultsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <id>",
		Short: "Delete every structured result of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Results.Clear(ctx, args[0]); err != nil {
					return storeError(err, a.Results.State().Err)
				}
				fmt.Println("Cleared results of task", args[0])
				return nil
			})
		},
	}
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Tasks.Delete(ctx, args[0]); err != nil {
					return storeError(err, a.Tasks.State().Err)
				}
				fmt.Println("Deleted task", args[0])
				return nil
			})
		},
	}
}

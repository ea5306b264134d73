package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"redops/internal/app"
	"redops/internal/domain"
)

func userCmd() *cobra.Command {
	u := &cobra.Command{Use: "user", Short: "Manage users"}
	u.AddCommand(userListCmd())
	u.AddCommand(userCreateCmd())
	u.AddCommand(userDeleteCmd())
	return u
}

func printUsers(users []domain.User) error {
	rows := make([]table.Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, table.Row{u.ID, u.Username, u.Email, u.Role})
	}
	return printJSONOrTable(users, table.Row{"ID", "Username", "Email", "Role"}, rows)
}

func userListCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				var err error
				if email != "" {
					err = a.Users.FetchByEmail(ctx, email)
				} else {
					err = a.Users.FetchAll(ctx)
				}
				st := a.Users.State()
				if err != nil {
					return storeError(err, st.Err)
				}
				return printUsers(st.Items)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "look up a single user by email")
	return cmd
}

func userCreateCmd() *cobra.Command {
	var d domain.UserDraft
	var role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Role = domain.UserRole(role)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				u, err := a.Users.Create(ctx, d)
				if err != nil {
					return storeError(err, a.Users.State().Err)
				}
				return printUsers([]domain.User{u})
			})
		},
	}
	cmd.Flags().StringVar(&d.Username, "username", "", "username")
	cmd.Flags().StringVar(&d.Email, "email", "", "email")
	cmd.Flags().StringVar(&d.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", "", "admin, team_lead or member (default member)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Users.Delete(ctx, args[0]); err != nil {
					return storeError(err, a.Users.State().Err)
				}
				fmt.Println("Deleted user", args[0])
				return nil
			})
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"redops/internal/app"
	"redops/internal/domain"
)

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session in the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = viper.GetString("password")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				u, err := a.Session.Login(ctx, domain.Credentials{Email: email, Password: password})
				if err != nil {
					return storeError(err, a.Session.State().Err)
				}
				if viper.GetBool("json") {
					return printJSON(u)
				}
				fmt.Printf("Logged in as %s (%s)\n", u.Username, u.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or REDOPS_PASSWORD)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Session.Logout(ctx); err != nil {
					return err
				}
				fmt.Println("Logged out")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				u, ok := a.Session.User()
				if !ok {
					return fmt.Errorf("not logged in")
				}
				return printJSONOrTable(u,
					table.Row{"ID", "Username", "Email", "Role"},
					[]table.Row{{u.ID, u.Username, u.Email, u.Role}})
			})
		},
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"redops/internal/app"
	"redops/internal/domain"
)

const expiryCheckInterval = 30 * time.Second

var errSessionExpired = errors.New("session expired; run redops login")

func notificationsCmd() *cobra.Command {
	n := &cobra.Command{Use: "notifications", Aliases: []string{"notif"}, Short: "Read and follow notifications"}
	n.AddCommand(notificationsListCmd())
	n.AddCommand(notificationsWatchCmd())
	n.AddCommand(notificationsReadCmd())
	n.AddCommand(notificationsReadAllCmd())
	return n
}

func printNotifications(items []domain.Notification) error {
	rows := make([]table.Row, 0, len(items))
	for _, n := range items {
		mark := ""
		if !n.Read {
			mark = "*"
		}
		rows = append(rows, table.Row{mark, n.ID, n.Type, n.Title, n.Message, n.Timestamp.Local().Format(time.DateTime)})
	}
	return printJSONOrTable(items, table.Row{"", "ID", "Type", "Title", "Message", "When"}, rows)
}

func notificationsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Notifications.Load(ctx); err != nil {
					return storeError(err, a.Notifications.Err())
				}
				return printNotifications(a.Notifications.Items())
			})
		},
	}
}

func notificationsWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow pushed notifications until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				var mu sync.Mutex
				seen := map[string]bool{}
				unsubscribe := a.Notifications.Subscribe(func(items []domain.Notification) {
					mu.Lock()
					defer mu.Unlock()
					for i := len(items) - 1; i >= 0; i-- {
						n := items[i]
						if seen[n.ID] {
							continue
						}
						seen[n.ID] = true
						if viper.GetBool("json") {
							_ = printJSON(n)
							continue
						}
						fmt.Printf("%s [%s] %s: %s\n", n.Timestamp.Local().Format(time.TimeOnly), n.Type, n.Title, n.Message)
					}
				})
				defer unsubscribe()

				ctx, cancel := context.WithCancelCause(ctx)
				defer cancel(nil)
				go func() {
					ticker := time.NewTicker(expiryCheckInterval)
					defer ticker.Stop()
					for {
						select {
						case <-ctx.Done():
							return
						case <-ticker.C:
							if !a.Session.CheckExpiry(ctx) {
								cancel(errSessionExpired)
								return
							}
						}
					}
				}()

				err := a.Channel().Run(ctx)
				if cause := context.Cause(ctx); errors.Is(cause, errSessionExpired) {
					return cause
				}
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}

func notificationsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Notifications.MarkRead(ctx, args[0]); err != nil {
					return storeError(err, a.Notifications.Err())
				}
				fmt.Println("Marked", args[0], "read")
				return nil
			})
		},
	}
}

func notificationsReadAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := requireLogin(ctx, a); err != nil {
					return err
				}
				if err := a.Notifications.MarkAllRead(ctx); err != nil {
					return storeError(err, a.Notifications.Err())
				}
				fmt.Println("All notifications marked read")
				return nil
			})
		},
	}
}

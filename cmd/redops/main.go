package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"redops/internal/app"
	"redops/internal/config"
	"redops/internal/db"
	"redops/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "redops",
	Short: "redops CLI",
	Long: `redops manages red team and penetration testing engagements against a redops API.
Core concepts:
- Operation: an engagement with a type (red_team, pen_test, vulnerability_assessment), a scope, rules of engagement and a current phase.
- Phase: one of 13 ATT&CK-style stages from reconnaissance to impact; operations may move between phases in any order.
- Task: a unit of work inside an operation, optionally mapped to a MITRE ATT&CK or OWASP id.
- Tool: a registered command template such as "nmap -sV {target}"; executing it for a task records a queued execution.
- Notifications: pushed over a websocket by the backend and kept in a local log.
- Workspace: the .redops directory holding the session token and principal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

var logCloser io.Closer

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("REDOPS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default <workspace>/redops.yml)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL, including /api")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
	for _, name := range []string{"workspace", "config", "api-url", "json", "log-level"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(operationCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(toolCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(notificationsCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(configCmd())
}

// loadConfig reads the config file, then applies flag and REDOPS_* overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := viper.GetString("config"); path != "" {
		cfg, err = config.FromFile(path)
	} else {
		cfg, err = config.LoadOptional(viper.GetString("workspace"))
	}
	if err != nil {
		return nil, err
	}
	if u := viper.GetString("api-url"); u != "" {
		cfg.API.URL = u
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if secret := viper.GetString("jwt-secret"); secret != "" {
		cfg.Server.JWTSecret = secret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	l, closer, err := logger.New(logger.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Dir: cfg.Log.Dir})
	if err != nil {
		return nil, err
	}
	logCloser = closer
	slog.SetDefault(l)
	return l, nil
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	l, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	a, err := app.Open(ctx, viper.GetString("workspace"), cfg, l)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// requireLogin fails early instead of letting the backend answer 401.
// requireLogin also clears a stored session whose token has expired.
func requireLogin(ctx context.Context, a *app.App) error {
	if !a.Session.CheckExpiry(ctx) {
		return fmt.Errorf("not logged in; run redops login")
	}
	return nil
}

// storeError surfaces the message the store recorded for its last call.
func storeError(err error, recorded string) error {
	if err == nil {
		return nil
	}
	if recorded != "" {
		return errors.New(recorded)
	}
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printJSONOrTable(v any, header table.Row, rows []table.Row) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.Render()
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func parseArgs(pairs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q must be name=value", p)
		}
		out[k] = v
	}
	return out, nil
}

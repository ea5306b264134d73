package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"redops/internal/domain"
	"redops/internal/server"
)

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reference redops API server",
		Long: `Serves the REST API under the base path and push notifications at /ws.
Data is kept in memory. The users listed under server.users in redops.yml are
seeded at startup. Set REDOPS_JWT_SECRET or server.jwt_secret to sign tokens.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return fmt.Errorf("REDOPS_JWT_SECRET is required for bearer auth")
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			ms := server.NewMemStore()
			for _, u := range cfg.Server.Users {
				if _, err := ms.CreateUser(domain.UserDraft{Username: u.Username, Email: u.Email, Password: u.Password, Role: u.Role}); err != nil {
					return fmt.Errorf("seed user %s: %w", u.Email, err)
				}
			}
			hub := server.NewHub(log.With("component", "hub"))
			handler, err := server.New(server.Config{
				Store:    ms,
				Hub:      hub,
				BasePath: basePath,
				Auth:     server.AuthConfig{JWTSecret: cfg.Server.JWTSecret, TokenTTL: cfg.Server.TokenTTL},
				Logger:   log.With("component", "api"),
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				log.Info("serving redops API", "addr", addr, "base_path", basePath, "users", len(cfg.Server.Users))
				fmt.Printf("Serving redops API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs, push at /ws)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				hub.Close()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "API base path")
	return cmd
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"redops/internal/domain"
)

// Config for the HTTP API handler.
type Config struct {
	Store    *MemStore
	Hub      *Hub
	BasePath string
	Auth     AuthConfig
	Logger   *slog.Logger
}

// apiError models the {"error": "..."} envelope the clients expect.
type apiError struct {
	status  int
	Message string `json:"error" example:"operation 42: not found"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Message }

// New returns an HTTP handler exposing the redops API under BasePath and the
// push endpoint at /ws.
func New(cfg Config) (http.Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("server: jwt secret is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = cfg.Logger
	}
	if cfg.Hub == nil {
		cfg.Hub = NewHub(cfg.Logger)
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, msg)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		if len(errs) > 0 && errs[0] != nil {
			msg = msg + ": " + errs[0].Error()
		}
		return newAPIError(status, msg)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("redops API", "1.0.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerAuth(group, cfg)
	registerUsers(group, cfg)
	registerOperations(group, cfg)
	registerTasks(group, cfg)
	registerTaskResults(group, cfg)
	registerTools(group, cfg)
	registerNotifications(group, cfg)
	registerOpenAPI(router, api, basePath)
	router.Handle("/ws", cfg.Hub.handler(cfg.Auth))

	return router, nil
}

func newAPIError(status int, message string) huma.StatusError {
	if message == "" {
		message = strings.ToLower(http.StatusText(status))
	}
	return &apiError{status: status, Message: message}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return newAPIError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrNotFound):
		return newAPIError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		return newAPIError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return newAPIError(http.StatusUnauthorized, "invalid credentials")
	default:
		return newAPIError(http.StatusInternalServerError, "internal error")
	}
}

// publish records a notification for polling and pushes it to connected
// clients.
func (cfg Config) publish(severity domain.Severity, title, message, link string) {
	n := cfg.Store.AddNotification(domain.Notification{
		Type:    severity,
		Title:   title,
		Message: message,
		Link:    link,
	})
	if cfg.Hub != nil {
		cfg.Hub.Broadcast(n)
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var (
		once sync.Once
		doc  []byte
	)
	r.Get(path.Join(basePath, "openapi.json"), func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			doc, _ = json.Marshal(oas)
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(doc)
	})
}

func operationsOf(item *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{
		item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
	}
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range operationsOf(item) {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{{"bearerAuth": {}}}
	oas.Security = security
	open := map[string]bool{
		path.Join("/", basePath, "health"):     true,
		path.Join("/", basePath, "auth/login"): true,
	}
	for route, item := range oas.Paths {
		for _, op := range operationsOf(item) {
			if op == nil {
				continue
			}
			if open[route] {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>redops API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; from POST /api/auth/login.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

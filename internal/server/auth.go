package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"

	"redops/internal/domain"
)

const defaultTokenTTL = 24 * time.Hour

type AuthConfig struct {
	JWTSecret string

	// TokenTTL bounds token lifetime. Tokens past half their lifetime are
	// reissued in the Authorization response header.
	TokenTTL time.Duration
	Logger   *slog.Logger
	now      func() time.Time
}

type Principal struct {
	UserID   string
	Username string
	Role     domain.UserRole
}

type principalKey struct{}

func (c AuthConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c AuthConfig) ttl() time.Duration {
	if c.TokenTTL > 0 {
		return c.TokenTTL
	}
	return defaultTokenTTL
}

func (c AuthConfig) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func principalFromRequest(ctx context.Context) (Principal, huma.StatusError) {
	if p, ok := principalFromContext(ctx); ok && p.UserID != "" {
		return p, nil
	}
	return Principal{}, newAPIError(http.StatusUnauthorized, "authentication required")
}

func requireRole(ctx context.Context, roles ...domain.UserRole) error {
	p, authErr := principalFromRequest(ctx)
	if authErr != nil {
		return authErr
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return newAPIError(http.StatusForbidden, "insufficient role")
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Username string          `json:"username,omitempty"`
	Role     domain.UserRole `json:"role,omitempty"`
}

func signToken(cfg AuthConfig, u domain.User) (string, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return "", errors.New("jwt secret not configured")
	}
	now := cfg.clock()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ttl())),
		},
		Username: u.Username,
		Role:     u.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

func authenticateJWT(token string, cfg AuthConfig) (Principal, *jwtClaims, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Principal{}, nil, errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(cfg.clock),
		jwt.WithExpirationRequired(),
	)
	claims := &jwtClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return Principal{}, nil, err
	}
	if !parsed.Valid {
		return Principal{}, nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return Principal{}, nil, errors.New("subject claim required")
	}
	return Principal{UserID: claims.Subject, Username: claims.Username, Role: claims.Role}, claims, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// newAuthMiddleware enforces bearer JWTs under basePath, except for health,
// login and the OpenAPI document.
func newAuthMiddleware(basePath string, cfg AuthConfig) func(http.Handler) http.Handler {
	open := map[string]bool{
		path.Join(basePath, "health"):       true,
		path.Join(basePath, "auth/login"):   true,
		path.Join(basePath, "openapi.json"): true,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !strings.HasPrefix(req.URL.Path, basePath+"/") || open[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}
			authz := strings.TrimSpace(req.Header.Get("Authorization"))
			if authz == "" {
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "authorization header is required"))
				return
			}
			token, ok := bearerToken(authz)
			if !ok {
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid authorization header format"))
				return
			}
			principal, claims, err := authenticateJWT(token, cfg)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token has expired"
				}
				cfg.logger().Debug("rejected token", "path", req.URL.Path, "error", err)
				respondStatusError(w, newAPIError(http.StatusUnauthorized, msg))
				return
			}
			if shouldRefresh(cfg, claims) {
				if fresh, err := signToken(cfg, domain.User{ID: principal.UserID, Username: principal.Username, Role: principal.Role}); err == nil {
					w.Header().Set("Authorization", "Bearer "+fresh)
				}
			}
			next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
		})
	}
}

func shouldRefresh(cfg AuthConfig, claims *jwtClaims) bool {
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return false
	}
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	return cfg.clock().After(claims.IssuedAt.Add(lifetime / 2))
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.GetStatus())
	_ = json.NewEncoder(w).Encode(err)
}

type loginOutput struct {
	Authorization string      `header:"Authorization"`
	Body          domain.User `json:"body"`
}

func registerAuth(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Exchange credentials for a bearer token",
		Description: "The principal is returned in the body and the token in the Authorization response header.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, input *struct {
		Body domain.Credentials `json:"body"`
	}) (*loginOutput, error) {
		if err := input.Body.Validate(); err != nil {
			return nil, newAPIError(http.StatusBadRequest, "email and password are required")
		}
		user, err := cfg.Store.Authenticate(input.Body.Email, input.Body.Password)
		if err != nil {
			cfg.Auth.logger().Info("login rejected", "email", input.Body.Email)
			return nil, handleError(err)
		}
		token, err := signToken(cfg.Auth, user)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "failed to generate token")
		}
		cfg.Auth.logger().Info("login", "user", user.Username, "role", user.Role)
		return &loginOutput{Authorization: "Bearer " + token, Body: user}, nil
	})
}

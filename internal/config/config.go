package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"redops/internal/domain"
)

// Config models redops.yml.
type Config struct {
	API struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Push struct {
		URL            string        `yaml:"url"`
		MaxReconnects  int           `yaml:"max_reconnects"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	} `yaml:"push"`
	Store struct {
		StaleGuard bool `yaml:"stale_guard"`
	} `yaml:"store"`
	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
		Dir   string `yaml:"dir"`
	} `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

// ServerConfig drives the reference backend started by `redops serve`.
type ServerConfig struct {
	Addr      string        `yaml:"addr"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Users     []SeedUser    `yaml:"users"`
}

type SeedUser struct {
	Username string          `yaml:"username"`
	Email    string          `yaml:"email"`
	Password string          `yaml:"password"`
	Role     domain.UserRole `yaml:"role"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with redops config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("config.api.url is required")
	}
	if u, err := url.Parse(c.API.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config.api.url must be an http(s) URL")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config.api.timeout must be positive")
	}
	if c.Push.URL != "" {
		if u, err := url.Parse(c.Push.URL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("config.push.url must be a ws(s) URL")
		}
	}
	if c.Push.MaxReconnects < 0 {
		return fmt.Errorf("config.push.max_reconnects must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	seen := map[string]bool{}
	for i, u := range c.Server.Users {
		if u.Email == "" || u.Password == "" || u.Username == "" {
			return fmt.Errorf("config.server.users[%d] needs username, email and password", i)
		}
		if u.Role != "" && !u.Role.Valid() {
			return fmt.Errorf("config.server.users[%d] has unknown role %s", i, u.Role)
		}
		if seen[u.Email] {
			return fmt.Errorf("config.server.users has duplicate email %s", u.Email)
		}
		seen[u.Email] = true
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "redops.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses config from raw YAML bytes over the defaults and validates it.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `api:
  url: http://localhost:8080/api
  timeout: 10s

push:
  url: ws://localhost:8080/ws
  max_reconnects: 5
  reconnect_delay: 1s

store:
  stale_guard: false

log:
  level: info
  json: false
  dir: ""

server:
  addr: ":8080"
  jwt_secret: ""
  token_ttl: 24h
  users:
    - username: admin
      email: admin@redops.local
      password: changeme
      role: admin
`

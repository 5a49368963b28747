// Package config handles configuration loading and home directory resolution.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-ports/searchctx/internal/models"
)

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// InstanceConfig describes the deployment the viewer is searching on.
type InstanceConfig struct {
	Dotcom                      bool `yaml:"dotcom"` // public multi-tenant deployment
	ExternalServicesUserModeAll bool `yaml:"external_services_user_mode_all"`
}

// ViewerConfig describes the signed-in user. An empty Username means an
// anonymous visitor.
type ViewerConfig struct {
	Username      string   `yaml:"username"`
	Organizations []string `yaml:"organizations"`
	SiteAdmin     bool     `yaml:"site_admin"`
	Tags          []string `yaml:"tags"`
}

// SearchConfig controls search defaults.
type SearchConfig struct {
	DefaultContext string `yaml:"default_context"`
}

// Config is the root per-home configuration.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Search   SearchConfig   `yaml:"search"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Instance: InstanceConfig{Dotcom: true},
		Search:   SearchConfig{DefaultContext: models.GlobalSpec},
	}
}

// User returns the configured viewer, or nil for an anonymous visitor.
func (c *Config) User() *models.User {
	name := strings.TrimSpace(c.Viewer.Username)
	if name == "" {
		return nil
	}
	return &models.User{
		ID:            "user:" + name,
		Username:      name,
		Organizations: c.Viewer.Organizations,
		SiteAdmin:     c.Viewer.SiteAdmin,
		Tags:          c.Viewer.Tags,
	}
}

// Load reads a per-home config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Unmarshal into a plain map so we can apply only the keys that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if inst, ok := raw["instance"].(map[string]any); ok {
		if v, ok := inst["dotcom"].(bool); ok {
			cfg.Instance.Dotcom = v
		}
		if v, ok := inst["external_services_user_mode_all"].(bool); ok {
			cfg.Instance.ExternalServicesUserModeAll = v
		}
	}

	if viewer, ok := raw["viewer"].(map[string]any); ok {
		if v, ok := viewer["username"].(string); ok {
			cfg.Viewer.Username = strings.TrimSpace(v)
		}
		cfg.Viewer.Organizations = stringList(viewer["organizations"])
		cfg.Viewer.Tags = stringList(viewer["tags"])
		if v, ok := viewer["site_admin"].(bool); ok {
			cfg.Viewer.SiteAdmin = v
		}
	}

	if search, ok := raw["search"].(map[string]any); ok {
		if v, ok := search["default_context"].(string); ok && strings.TrimSpace(v) != "" {
			cfg.Search.DefaultContext = strings.TrimSpace(v)
		}
	}

	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Home resolution
// ---------------------------------------------------------------------------

// EnvHome names the environment variable that overrides the home directory.
const EnvHome = "SEARCHCTX_HOME"

// globalConfigPath returns the path to the global searchctx config file.
// This file stores only home (and future global settings).
func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "searchctx", "config.yaml"), nil
}

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// ResolveHome returns the home path and the source of the resolution.
// Priority: SEARCHCTX_HOME env → persisted global config → ~/.searchctx
// source is one of "env", "config", or "default".
func ResolveHome() (path, source string) {
	if env := os.Getenv(EnvHome); env != "" {
		p, err := normalizePath(env)
		if err == nil {
			return p, "env"
		}
	}

	if persisted, ok, _ := GetPersistedHome(); ok {
		return persisted, "config"
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".searchctx"), "default"
}

// GetHome returns the resolved home path.
func GetHome() string {
	path, _ := ResolveHome()
	return path
}

// GetPersistedHome reads home from the global config.
// Returns ("", false, nil) if not set.
func GetPersistedHome() (string, bool, error) {
	raw, _, err := readGlobal()
	if err != nil || raw == nil {
		return "", false, err
	}

	val, _ := raw["home"].(string)
	val = strings.TrimSpace(val)
	if val == "" {
		return "", false, nil
	}

	p, err := normalizePath(val)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// SetPersistedHome normalizes path and persists it in the global config.
// Returns the normalized path.
func SetPersistedHome(path string) (string, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return "", err
	}

	raw, cfgPath, err := readGlobal()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", err
	}
	// Preserve any other keys.
	if raw == nil {
		raw = make(map[string]any)
	}
	raw["home"] = normalized

	out, err := yaml.Marshal(raw)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(cfgPath, out, 0o600); err != nil {
		return "", err
	}
	return normalized, nil
}

// ClearPersistedHome removes home from the global config.
// Returns true if the key was present and removed.
// If the file becomes empty after removal it is deleted.
func ClearPersistedHome() (bool, error) {
	raw, cfgPath, err := readGlobal()
	if err != nil || raw == nil {
		return false, err
	}
	if _, ok := raw["home"]; !ok {
		return false, nil
	}
	delete(raw, "home")

	if len(raw) == 0 {
		_ = os.Remove(cfgPath)
		return true, nil
	}

	out, err := yaml.Marshal(raw)
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(cfgPath, out, 0o600)
}

// readGlobal loads the global config as a map. A missing or unparsable file
// yields a nil map and no error.
func readGlobal() (map[string]any, string, error) {
	cfgPath, err := globalConfigPath()
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return nil, cfgPath, nil
	}
	if err != nil {
		return nil, cfgPath, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, cfgPath, nil
	}
	return raw, cfgPath, nil
}

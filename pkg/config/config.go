package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	xdgAppName = "tugas"
	configFile = "config.json"

	DefaultDatabase   = "(default)"
	DefaultCollection = "tasks"
	DefaultLogLevel   = "info"
)

type Config struct {
	Project         string `json:"project"`
	Database        string `json:"database,omitempty"`
	Collection      string `json:"collection,omitempty"`
	APIKey          string `json:"api_key,omitempty"`
	CredentialsFile string `json:"credentials_file,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	LogLevel        string `json:"log_level,omitempty"`
	Reconcile       string `json:"reconcile,omitempty"`
}

// keys maps every settable key to its field and environment variable.
var keys = map[string]struct {
	env   string
	field func(*Config) *string
}{
	"project":          {"TUGAS_PROJECT", func(c *Config) *string { return &c.Project }},
	"database":         {"TUGAS_DATABASE", func(c *Config) *string { return &c.Database }},
	"collection":       {"TUGAS_COLLECTION", func(c *Config) *string { return &c.Collection }},
	"api_key":          {"TUGAS_API_KEY", func(c *Config) *string { return &c.APIKey }},
	"credentials_file": {"TUGAS_CREDENTIALS", func(c *Config) *string { return &c.CredentialsFile }},
	"endpoint":         {"TUGAS_ENDPOINT", func(c *Config) *string { return &c.Endpoint }},
	"log_level":        {"TUGAS_LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
	"reconcile":        {"TUGAS_RECONCILE", func(c *Config) *string { return &c.Reconcile }},
}

// Keys returns the settable keys in sorted order.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Dir returns the directory holding the config file, token and handle index.
func Dir() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Default returns a config with every optional field filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// LoadFile reads path, which may not exist, and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.applyDefaults()
	return cfg, nil
}

// ReadFile reads path without environment overrides or defaults. A missing
// file is an empty config.
func ReadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from TUGAS_* variables that are set and non-empty.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for _, k := range keys {
		if v, ok := lookup(k.env); ok && strings.TrimSpace(v) != "" {
			*k.field(c) = strings.TrimSpace(v)
		}
	}
}

// Set assigns a value by key name.
func (c *Config) Set(key, value string) error {
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	*k.field(c) = strings.TrimSpace(value)
	return nil
}

// Get returns a value by key name.
func (c *Config) Get(key string) (string, bool) {
	k, ok := keys[key]
	if !ok {
		return "", false
	}
	return *k.field(c), true
}

// Validate checks what a Firestore-backed run needs.
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("no project configured: run `tugas config set project <id>` or set TUGAS_PROJECT")
	}
	return nil
}

// Parent is the Firestore documents root for this config.
func (c *Config) Parent() string {
	return fmt.Sprintf("projects/%s/databases/%s/documents", c.Project, c.Database)
}

// SaveFile writes cfg as indented JSON readable only by the owner.
func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

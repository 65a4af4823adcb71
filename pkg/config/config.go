// Package config loads the optional sprig.yaml file that tunes the tree,
// logging, metrics and patch tracing of a sprig host.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/sprig/pkg/core"
	"github.com/go-drift/sprig/pkg/patch"
)

// FileName is the name of the configuration file looked up in a directory.
const FileName = "sprig.yaml"

// Config represents the optional sprig.yaml configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Tree    TreeConfig    `yaml:"tree"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Trace   TraceConfig   `yaml:"trace"`
}

// AppConfig names the application. The name labels metrics and trace
// frames.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// TreeConfig contains reconciler settings.
type TreeConfig struct {
	MaxDepth        int  `yaml:"max_depth"`
	CoalesceUpdates bool `yaml:"coalesce_updates"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string `yaml:"level"`
	Verbose bool   `yaml:"verbose"`
}

// MetricsConfig contains prometheus settings.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// TraceConfig contains patch trace settings. An empty path disables
// tracing.
type TraceConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Tree:    TreeConfig{MaxDepth: core.DefaultMaxDepth},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Namespace: "sprig"},
	}
}

// LoadOptional reads sprig.yaml from dir if present and fills in defaults.
// When the file leaves the app name empty and dir holds a go.mod, the
// name is derived from the module path.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		data = nil
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	if cfg.App.Name == "" {
		if modPath, err := modulePath(dir); err == nil {
			cfg.App.Name = defaultAppName(modPath, dir)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration file at path. Unlike LoadOptional the file
// must exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.App.Name = strings.TrimSpace(cfg.App.Name)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "sprig"
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Tree.MaxDepth < 1 {
		return fmt.Errorf("tree.max_depth must be at least 1 (got %d)", c.Tree.MaxDepth)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if err := validateNamespace(c.Metrics.Namespace); err != nil {
		return err
	}
	return nil
}

// Logger builds a logrus logger at the configured level. Verbose forces
// debug level.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if c.Log.Verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}

// TreeOptions returns the reconciler options the configuration implies.
func (c *Config) TreeOptions(log *logrus.Entry) []core.Option {
	var queueOpts []patch.QueueOption
	if c.Tree.CoalesceUpdates {
		queueOpts = append(queueOpts, patch.WithCoalescing())
	}
	return []core.Option{
		core.WithMaxDepth(c.Tree.MaxDepth),
		core.WithQueue(patch.NewQueue(queueOpts...)),
		core.WithLogger(log),
	}
}

// FindProjectRoot walks up from dir to the nearest directory holding
// sprig.yaml or go.mod.
func FindProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s or go.mod found", FileName)
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

// defaultAppName is the last element of the module path with any major
// version suffix removed, or the directory name.
func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if prefix, _, ok := module.SplitPathVersion(modulePath); ok {
		parts := strings.Split(prefix, "/")
		base = parts[len(parts)-1]
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "sprig_app"
	}
	return base
}

// validateNamespace accepts prometheus metric name prefixes.
func validateNamespace(ns string) error {
	if ns == "" {
		return fmt.Errorf("metrics.namespace must not be empty")
	}
	for i, r := range ns {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("metrics.namespace contains invalid character %q in %q", r, ns)
		}
	}
	return nil
}

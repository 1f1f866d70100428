package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/open-oversight/dashlaunch/internal/model"
)

// Compiled-in defaults. These reproduce the hard-coded values of the
// startup scripts this tool replaces.
const (
	// DefaultPort is the port the dashboard prefers to bind.
	DefaultPort = 5002

	// DefaultAppDir is the project subdirectory containing the entry point.
	DefaultAppDir = "web"

	// DefaultEntry is the Flask entry point file name.
	DefaultEntry = "app.py"

	// DefaultBrowserDelay is how long the browser opener waits after the
	// dashboard process starts before opening the URL. The Flask dev
	// server is normally accepting connections well within this window.
	DefaultBrowserDelay = 1500 * time.Millisecond

	// DefaultContainerImage is the image used for containerized launches.
	DefaultContainerImage = "python:3.11-slim"
)

// DefaultFallbackPorts is the ordered list of ports tried when the default
// port is occupied.
func DefaultFallbackPorts() []int {
	return []int{5003, 5004, 5005, 5006, 8080, 8081}
}

// DefaultRequirements is the fixed list of third-party packages the
// dashboard needs, paired with the module names used to verify they are
// importable.
func DefaultRequirements() []model.Requirement {
	return []model.Requirement{
		{Package: "flask", Module: "flask"},
		{Package: "flask-cors", Module: "flask_cors"},
		{Package: "pandas", Module: "pandas"},
		{Package: "numpy", Module: "numpy"},
		{Package: "plotly", Module: "plotly"},
		{Package: "requests", Module: "requests"},
	}
}

// Config holds the effective launcher configuration after defaults and the
// optional config file have been merged.
type Config struct {
	// Port is the preferred dashboard port.
	Port int `json:"port" yaml:"port"`

	// FallbackPorts is the ordered list tried when Port is occupied.
	FallbackPorts []int `json:"fallbackPorts" yaml:"fallbackPorts"`

	// Requirements lists the packages checked (and installed) before launch.
	Requirements []model.Requirement `json:"requirements" yaml:"requirements"`

	// AppDir is the project subdirectory containing the entry point,
	// relative to the project root.
	AppDir string `json:"appDir" yaml:"appDir"`

	// Entry is the entry point file name within AppDir.
	Entry string `json:"entry" yaml:"entry"`

	// OpenBrowser schedules the delayed browser-open task when true.
	OpenBrowser bool `json:"openBrowser" yaml:"openBrowser"`

	// BrowserDelay is the wait before the browser is opened.
	BrowserDelay time.Duration `json:"-" yaml:"-"`

	// Strategy selects direct or inline startup.
	Strategy model.LaunchStrategy `json:"strategy" yaml:"strategy"`

	// ContainerImage is the Docker image for containerized launches.
	ContainerImage string `json:"containerImage" yaml:"containerImage"`
}

// fileConfig mirrors Config with pointer fields so that "absent" and
// "explicitly zero" can be told apart when merging over defaults. The
// devcontainer.json convention of silently ignoring unknown fields applies
// here too.
type fileConfig struct {
	Port           *int              `json:"port" yaml:"port"`
	FallbackPorts  []int             `json:"fallbackPorts" yaml:"fallbackPorts"`
	Requirements   []fileRequirement `json:"requirements" yaml:"requirements"`
	AppDir         *string           `json:"appDir" yaml:"appDir"`
	Entry          *string           `json:"entry" yaml:"entry"`
	OpenBrowser    *bool             `json:"openBrowser" yaml:"openBrowser"`
	BrowserDelayMS *int              `json:"browserDelayMs" yaml:"browserDelayMs"`
	Strategy       *string           `json:"strategy" yaml:"strategy"`
	ContainerImage *string           `json:"containerImage" yaml:"containerImage"`
}

// fileRequirement allows a requirement to be written either as the full
// {package, module} pair or with the module omitted when it matches the
// package name (e.g., "pandas").
type fileRequirement struct {
	Package string `json:"package" yaml:"package"`
	Module  string `json:"module" yaml:"module"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		FallbackPorts:  DefaultFallbackPorts(),
		Requirements:   DefaultRequirements(),
		AppDir:         DefaultAppDir,
		Entry:          DefaultEntry,
		OpenBrowser:    true,
		BrowserDelay:   DefaultBrowserDelay,
		Strategy:       model.StrategyDirect,
		ContainerImage: DefaultContainerImage,
	}
}

// configFileNames are the probe candidates, in priority order. The JSONC
// variants come first because comments in the launch config are common
// (port lists tend to accumulate explanations).
var configFileNames = []string{
	"dashlaunch.json",
	"dashlaunch.jsonc",
	"dashlaunch.yaml",
}

// Load resolves the effective configuration for a project root: the
// compiled-in defaults overlaid with the first config file found in the
// root. A missing file is not an error.
func Load(root string) (*Config, error) {
	cfg := Default()

	path, ok := findConfigFile(root)
	if !ok {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if strings.HasSuffix(path, ".yaml") {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		// Strip JSONC comments and trailing commas before handing the
		// bytes to encoding/json, same treatment as devcontainer.json.
		if err := json.Unmarshal(jsonc.ToJSON(data), &fc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.apply(&fc); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// findConfigFile probes the candidate config file names in the project
// root and returns the first that exists.
func findConfigFile(root string) (string, bool) {
	for _, name := range configFileNames {
		path := filepath.Join(root, name)
		// os.Stat checks existence without reading contents.
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// apply overlays the file values onto the defaults. Only fields present in
// the file are touched.
func (c *Config) apply(fc *fileConfig) error {
	if fc.Port != nil {
		c.Port = *fc.Port
	}
	if fc.FallbackPorts != nil {
		c.FallbackPorts = fc.FallbackPorts
	}
	if fc.Requirements != nil {
		reqs := make([]model.Requirement, 0, len(fc.Requirements))
		for _, fr := range fc.Requirements {
			module := fr.Module
			if module == "" {
				// Module defaults to the package name; pip names with
				// hyphens import with underscores.
				module = strings.ReplaceAll(fr.Package, "-", "_")
			}
			reqs = append(reqs, model.Requirement{Package: fr.Package, Module: module})
		}
		c.Requirements = reqs
	}
	if fc.AppDir != nil {
		c.AppDir = *fc.AppDir
	}
	if fc.Entry != nil {
		c.Entry = *fc.Entry
	}
	if fc.OpenBrowser != nil {
		c.OpenBrowser = *fc.OpenBrowser
	}
	if fc.BrowserDelayMS != nil {
		if *fc.BrowserDelayMS < 0 {
			return fmt.Errorf("browserDelayMs must not be negative")
		}
		c.BrowserDelay = time.Duration(*fc.BrowserDelayMS) * time.Millisecond
	}
	if fc.Strategy != nil {
		strategy, err := model.ParseLaunchStrategy(*fc.Strategy)
		if err != nil {
			return err
		}
		c.Strategy = strategy
	}
	if fc.ContainerImage != nil {
		c.ContainerImage = *fc.ContainerImage
	}
	return nil
}

// Validate checks the merged configuration for launchable values.
func (c *Config) Validate() error {
	if err := model.ValidatePorts(c.Port, c.FallbackPorts); err != nil {
		return err
	}
	for _, req := range c.Requirements {
		if err := req.Validate(); err != nil {
			return err
		}
	}
	if c.AppDir == "" {
		return fmt.Errorf("appDir must not be empty")
	}
	if filepath.IsAbs(c.AppDir) {
		return fmt.Errorf("appDir must be relative to the project root, got %q", c.AppDir)
	}
	if c.Entry == "" {
		return fmt.Errorf("entry must not be empty")
	}
	if !c.Strategy.IsValid() {
		return fmt.Errorf("invalid strategy %q", c.Strategy)
	}
	if c.ContainerImage == "" {
		return fmt.Errorf("containerImage must not be empty")
	}
	return nil
}

// AllPorts returns the default port followed by the fallbacks, in the
// order they are probed.
func (c *Config) AllPorts() []int {
	ports := make([]int, 0, len(c.FallbackPorts)+1)
	ports = append(ports, c.Port)
	ports = append(ports, c.FallbackPorts...)
	return ports
}

// ResolveRoot determines the project root directory.
//
// When override is non-empty it is used (made absolute). Otherwise the
// root is the directory containing the launcher binary — the equivalent of
// the scripts' "directory containing this script" rule, so the exported
// DASHBOARD_HOME is stable regardless of the caller's working directory.
func ResolveRoot(override string) (string, error) {
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("failed to resolve project root %q: %w", override, err)
		}
		return abs, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate launcher binary: %w", err)
	}
	// Resolve symlinks so a binary invoked through a PATH symlink still
	// reports the real install directory.
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		resolved = exe
	}
	return filepath.Dir(resolved), nil
}

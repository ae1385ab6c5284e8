// Package config loads and validates the optional pybundle configuration
// file. Every field has a default, so the tool runs without any file at all;
// CLI flags override whatever the file provides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rshade/pybundle/internal/logging"
	"github.com/rshade/pybundle/internal/pyenv"
)

// configDirName is the per-user directory holding the config file.
const configDirName = ".pybundle"

// configFileName is the config file inside configDirName.
const configFileName = "config.yaml"

// supportedArchs are the architecture suffixes python.org publishes
// embeddable archives for.
var supportedArchs = map[string]bool{
	"amd64": true,
	"arm64": true,
	"win32": true,
}

// Config is the root of the YAML configuration.
type Config struct {
	Python   PythonConfig   `yaml:"python"`
	Download DownloadConfig `yaml:"download"`
	Logging  logging.Config `yaml:"logging"`
}

// PythonConfig selects the host interpreter used for the version probe.
type PythonConfig struct {
	// Executable is the interpreter name or path. Defaults to "python".
	Executable string `yaml:"executable"`
}

// DownloadConfig controls where archives are fetched from.
type DownloadConfig struct {
	// BaseURL is the archive root, defaulting to the python.org FTP path.
	// Pointing it at a mirror changes only the host part of the URL
	// template; the version-derived path layout is fixed.
	BaseURL string `yaml:"base_url"`

	// Arch is the embeddable build architecture suffix.
	Arch string `yaml:"arch"`

	// GetPipURL serves the pip bootstrap script.
	GetPipURL string `yaml:"get_pip_url"`
}

// Default returns a Config populated with vendor defaults.
func Default() *Config {
	return &Config{
		Python: PythonConfig{Executable: pyenv.DefaultPythonExecutable},
		Download: DownloadConfig{
			BaseURL:   pyenv.DefaultBaseURL,
			Arch:      pyenv.DefaultArch,
			GetPipURL: pyenv.DefaultGetPipURL,
		},
		Logging: logging.Config{Level: "info"},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// Load reads the config file at path. A missing file yields the defaults;
// fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to path, creating the parent directory when absent.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}

	return nil
}

// Validate checks every field that has a constrained value set.
func (c *Config) Validate() error {
	if c.Python.Executable == "" {
		return fmt.Errorf("python.executable must not be empty")
	}

	if c.Download.Arch != "" && !supportedArchs[c.Download.Arch] {
		return fmt.Errorf("download.arch %q is not a published embeddable build", c.Download.Arch)
	}

	for name, raw := range map[string]string{
		"download.base_url":    c.Download.BaseURL,
		"download.get_pip_url": c.Download.GetPipURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s %q is not an absolute URL", name, raw)
		}
	}

	return c.Logging.Validate()
}

// NewBuilder wires a pyenv.Builder from the configuration.
func (c *Config) NewBuilder() *pyenv.Builder {
	downloader := &pyenv.Downloader{
		BaseURL: c.Download.BaseURL,
		Arch:    c.Download.Arch,
	}

	return &pyenv.Builder{
		Resolver:   pyenv.NewResolver(c.Python.Executable),
		Downloader: downloader,
		Installer: &pyenv.PipInstaller{
			Downloader: downloader,
			GetPipURL:  c.Download.GetPipURL,
		},
	}
}

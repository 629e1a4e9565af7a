package config

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relcut/relcut/internal/errors"
)

const (
	// DefaultRemote is the git remote releases are pushed to
	DefaultRemote = "origin"

	// DefaultMainBranch is the mainline the release branch folds back into
	DefaultMainBranch = "main"

	// DefaultConfigFile is the optional per-repository config file
	DefaultConfigFile = ".relcut.yml"

	// DefaultPollInterval between CI queries
	DefaultPollInterval = 15 * time.Second

	// DefaultPollTimeout is the CI gate's whole budget
	DefaultPollTimeout = 3600 * time.Second
)

// DefaultDescriptors is the fixed set of version-bearing artifact
// descriptors, overridable per repository via the config file.
var DefaultDescriptors = []string{
	"package.json",
	"install.sh",
	"default.nix",
	"README.md",
}

// Config holds all relcut application settings
type Config struct {
	// Release input
	Version string

	// Repository configuration
	RepoPath   string
	Remote     string
	MainBranch string
	RepoURL    string

	// Artifact descriptors
	Descriptors    []string
	ChecksumSource string
	ChecksumTarget string

	// Remote-effect control
	DryRun bool
	Token  string

	// CI gate
	PollInterval time.Duration
	PollTimeout  time.Duration

	// User experience
	Verbose        bool
	NonInteractive bool // Skips interactive prompts

	// Debugging
	Debug   bool
	LogFile string

	// Build metadata
	VersionInfo VersionInfo
}

// VersionInfo contains build-time version metadata
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		Remote:         DefaultRemote,
		MainBranch:     DefaultMainBranch,
		Descriptors:    append([]string(nil), DefaultDescriptors...),
		ChecksumSource: "install.sh",
		ChecksumTarget: "default.nix",
		PollInterval:   DefaultPollInterval,
		PollTimeout:    DefaultPollTimeout,
		Verbose:        true,

		// Default version info, will be overridden if provided
		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// fileConfig mirrors the YAML shape of the per-repository config file.
// All values are optional and act as defaults; environment variables and
// CLI flags override them.
type fileConfig struct {
	Remote      string   `yaml:"remote"`
	Mainline    string   `yaml:"mainline"`
	RepoURL     string   `yaml:"repo_url"`
	Descriptors []string `yaml:"descriptors"`
	Checksum    struct {
		Source string `yaml:"source"`
		Target string `yaml:"target"`
	} `yaml:"checksum"`
	PollInterval duration `yaml:"poll_interval"`
	PollTimeout  duration `yaml:"poll_timeout"`
}

// duration wraps time.Duration for YAML string parsing (e.g. "15s", "1h").
type duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "15s" or "1h30m".
func (d *duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// LoadFile merges the per-repository YAML config file into the config.
// A missing file at the default location is not an error; a missing file
// the user named explicitly is.
func (c *Config) LoadFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errors.NewConfigError("config-file", path,
			errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return errors.NewConfigError("config-file", path,
			errors.Wrap(errors.ErrInvalidConfiguration, fmt.Sprintf("invalid YAML: %v", err)))
	}

	if fc.Remote != "" {
		c.Remote = fc.Remote
	}
	if fc.Mainline != "" {
		c.MainBranch = fc.Mainline
	}
	if fc.RepoURL != "" {
		c.RepoURL = fc.RepoURL
	}
	if len(fc.Descriptors) > 0 {
		c.Descriptors = fc.Descriptors
	}
	if fc.Checksum.Source != "" {
		c.ChecksumSource = fc.Checksum.Source
	}
	if fc.Checksum.Target != "" {
		c.ChecksumTarget = fc.Checksum.Target
	}
	if fc.PollInterval.Duration > 0 {
		c.PollInterval = fc.PollInterval.Duration
	}
	if fc.PollTimeout.Duration > 0 {
		c.PollTimeout = fc.PollTimeout.Duration
	}

	return nil
}

// LoadFromEnvironment updates config from environment variables.
// This is the only place ambient environment is read; components receive
// the resulting values explicitly.
func (c *Config) LoadFromEnvironment() {
	c.Token = getEnvString("RELCUT_TOKEN", c.Token)
	if c.Token == "" {
		c.Token = getEnvString("GITHUB_TOKEN", "")
	}
	c.DryRun = getEnvBool("RELCUT_DRY_RUN", c.DryRun)
	c.NonInteractive = getEnvBool("RELCUT_NON_INTERACTIVE", c.NonInteractive)
	c.RepoPath = getEnvString("RELCUT_REPO", c.RepoPath)
	c.RepoURL = getEnvString("RELCUT_REPO_URL", c.RepoURL)
	c.Debug = getEnvBool("RELCUT_DEBUG", c.Debug)
	c.LogFile = getEnvString("RELCUT_LOG_FILE", c.LogFile)
}

// Finalize validates and finalizes the configuration
func (c *Config) Finalize() error {
	if c.RepoPath == "" {
		var err error
		c.RepoPath, err = os.Getwd()
		if err != nil {
			return errors.NewConfigError("repoPath", "",
				errors.Wrap(errors.ErrInvalidConfiguration, fmt.Sprintf("failed to get current directory: %v", err)))
		}
	}

	absRepoPath, err := filepath.Abs(c.RepoPath)
	if err != nil {
		return errors.NewConfigError("repoPath", c.RepoPath,
			errors.Wrap(errors.ErrInvalidConfiguration, fmt.Sprintf("failed to resolve absolute path: %v", err)))
	}
	c.RepoPath = absRepoPath

	if len(c.Descriptors) == 0 {
		return errors.NewConfigError("descriptors", nil,
			errors.Wrap(errors.ErrInvalidConfiguration, "at least one artifact descriptor is required"))
	}

	if c.PollInterval <= 0 {
		return errors.NewConfigError("poll_interval", c.PollInterval,
			errors.Wrap(errors.ErrInvalidConfiguration, "poll interval must be positive"))
	}
	if c.PollTimeout <= 0 {
		return errors.NewConfigError("poll_timeout", c.PollTimeout,
			errors.Wrap(errors.ErrInvalidConfiguration, "poll timeout must be positive"))
	}

	if c.LogFile == "" {
		// Follow XDG Base Directory Specification
		logDir := os.Getenv("XDG_DATA_HOME")
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err == nil {
				logDir = filepath.Join(homeDir, ".local", "share")
			} else {
				// Fallback to the temp directory if home dir can't be determined
				logDir = os.TempDir()
			}
		}

		// Key the log file to the repository
		repoHash := fmt.Sprintf("%x", sha256.Sum256([]byte(c.RepoPath)))[:16]
		c.LogFile = filepath.Join(logDir, "relcut", "logs", fmt.Sprintf("relcut-%s.log", repoHash))
	}

	return nil
}

// getEnvString returns an environment variable string or a default value
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvBool returns an environment variable as bool or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		valueLower := strings.ToLower(valueStr)
		if valueLower == "true" || valueLower == "1" || valueLower == "yes" {
			return true
		}
		if valueLower == "false" || valueLower == "0" || valueLower == "no" {
			return false
		}
		// For any other value, fall back to default
	}
	return defaultValue
}

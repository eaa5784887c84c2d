// Package config loads experiment definitions: which hosts run the channel
// endpoints, how they are built, and which parameter space is swept.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Well-known host names. Scenario load commands may also target LocalHost
// or any extra name listed in Hosts.
const (
	ReceiverHost = "receiver"
	SenderHost   = "sender"
	LocalHost    = "local"
)

// ExperimentConfig is the root of an experiment file. Pointer fields are
// optional; the Get* methods supply defaults.
type ExperimentConfig struct {
	// Directories
	ProjectDir *string `json:"project_dir,omitempty" yaml:"project_dir,omitempty"`
	RemoteDir  *string `json:"remote_dir,omitempty" yaml:"remote_dir,omitempty"`
	EvalDir    *string `json:"eval_dir,omitempty" yaml:"eval_dir,omitempty"`

	// SSH
	Hosts   map[string]string `json:"hosts" yaml:"hosts"`
	SSHUser *string           `json:"ssh_user,omitempty" yaml:"ssh_user,omitempty"`
	SSHKey  *string           `json:"ssh_key,omitempty" yaml:"ssh_key,omitempty"`

	// Run control
	ReceiverTimeout *string `json:"receiver_timeout,omitempty" yaml:"receiver_timeout,omitempty"` // duration string like "40s"
	Iterations      *int    `json:"iterations,omitempty" yaml:"iterations,omitempty"`

	// Comparison
	PayloadSize  *int     `json:"payload_size,omitempty" yaml:"payload_size,omitempty"`
	HeaderOffset *int     `json:"header_offset,omitempty" yaml:"header_offset,omitempty"`
	TSCHz        *float64 `json:"tsc_hz,omitempty" yaml:"tsc_hz,omitempty"`

	// Parameter space
	CommonFlags []string      `json:"common_flags,omitempty" yaml:"common_flags,omitempty"`
	Builds      []BuildConfig `json:"builds" yaml:"builds"`
	Files       []FilePair    `json:"files" yaml:"files"`
	Scenarios   []Scenario    `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`
}

// BuildConfig is one compilation of the endpoints and the send windows
// swept with it.
type BuildConfig struct {
	Flags       []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Checksum    string   `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	Evictions   int      `json:"evictions,omitempty" yaml:"evictions,omitempty"`
	ReedSolomon int      `json:"reed_solomon,omitempty" yaml:"reed_solomon,omitempty"`
	// SendWindows is a comma separated list ("80,100,120") or a
	// min:max:step range ("80:1280:40").
	SendWindows string `json:"send_windows" yaml:"send_windows"`
}

// FilePair names the file the sender transmits and the file the receiver
// writes.
type FilePair struct {
	Send    string `json:"send" yaml:"send"`
	Receive string `json:"receive" yaml:"receive"`
}

// Scenario describes interfering background load run alongside the channel.
type Scenario struct {
	Name   string        `json:"name" yaml:"name"`
	Load   []LoadCommand `json:"load,omitempty" yaml:"load,omitempty"`
	Warmup string        `json:"warmup,omitempty" yaml:"warmup,omitempty"` // duration string
}

// LoadCommand starts a background workload on Host and stops it afterwards.
type LoadCommand struct {
	Host  string `json:"host" yaml:"host"`
	Start string `json:"start" yaml:"start"`
	Stop  string `json:"stop,omitempty" yaml:"stop,omitempty"`
}

// IdleScenario is used when a config names no scenarios.
var IdleScenario = Scenario{Name: "idle"}

const maxFileSize = 1 * 1024 * 1024 // 1MB

// LoadExperimentConfig reads a JSON or YAML (.yaml/.yml) experiment file and
// validates it.
func LoadExperimentConfig(path string) (*ExperimentConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ExperimentConfig{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cleanPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration can drive a sweep.
func (c *ExperimentConfig) Validate() error {
	for _, name := range []string{ReceiverHost, SenderHost} {
		if strings.TrimSpace(c.Hosts[name]) == "" {
			return fmt.Errorf("hosts.%s is required", name)
		}
	}

	if c.ReceiverTimeout != nil && *c.ReceiverTimeout != "" {
		d, err := time.ParseDuration(*c.ReceiverTimeout)
		if err != nil {
			return fmt.Errorf("invalid receiver_timeout '%s': %w", *c.ReceiverTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("receiver_timeout must be positive, got %s", d)
		}
	}

	if c.PayloadSize != nil && *c.PayloadSize <= 0 {
		return fmt.Errorf("payload_size must be positive, got %d", *c.PayloadSize)
	}
	if c.HeaderOffset != nil && *c.HeaderOffset < 0 {
		return fmt.Errorf("header_offset must be non-negative, got %d", *c.HeaderOffset)
	}
	if c.TSCHz != nil && *c.TSCHz < 0 {
		return fmt.Errorf("tsc_hz must be non-negative, got %f", *c.TSCHz)
	}
	if c.Iterations != nil && *c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", *c.Iterations)
	}

	if len(c.Builds) == 0 {
		return fmt.Errorf("at least one build is required")
	}
	for i, b := range c.Builds {
		if strings.TrimSpace(b.SendWindows) == "" {
			return fmt.Errorf("builds[%d].send_windows is required", i)
		}
	}

	if len(c.Files) == 0 {
		return fmt.Errorf("at least one file pair is required")
	}
	for i, f := range c.Files {
		if f.Send == "" || f.Receive == "" {
			return fmt.Errorf("files[%d] needs both send and receive names", i)
		}
	}

	seen := make(map[string]bool)
	for i, s := range c.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("scenarios[%d].name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate scenario %q", s.Name)
		}
		seen[s.Name] = true
		if s.Warmup != "" {
			if _, err := time.ParseDuration(s.Warmup); err != nil {
				return fmt.Errorf("invalid warmup '%s' in scenario %q: %w", s.Warmup, s.Name, err)
			}
		}
		for _, l := range s.Load {
			if l.Host != LocalHost && c.Hosts[l.Host] == "" {
				return fmt.Errorf("scenario %q targets unknown host %q", s.Name, l.Host)
			}
			if l.Start == "" {
				return fmt.Errorf("scenario %q has a load command without start", s.Name)
			}
		}
	}
	return nil
}

// GetProjectDir returns the local checkout of the endpoint sources.
func (c *ExperimentConfig) GetProjectDir() string {
	if c.ProjectDir == nil || *c.ProjectDir == "" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "tlbchannels")
	}
	return *c.ProjectDir
}

// GetSrcDir returns the directory make is run in.
func (c *ExperimentConfig) GetSrcDir() string { return filepath.Join(c.GetProjectDir(), "src") }

// GetBinDir returns the directory the endpoint binaries are built into.
func (c *ExperimentConfig) GetBinDir() string { return filepath.Join(c.GetProjectDir(), "bin") }

// GetEvalDir returns where per-run artifacts are stored.
func (c *ExperimentConfig) GetEvalDir() string {
	if c.EvalDir == nil || *c.EvalDir == "" {
		return filepath.Join(c.GetProjectDir(), "eval")
	}
	return *c.EvalDir
}

// GetRemoteDir returns the working directory on the endpoint hosts.
func (c *ExperimentConfig) GetRemoteDir() string {
	if c.RemoteDir == nil || *c.RemoteDir == "" {
		return "/home/user"
	}
	return *c.RemoteDir
}

// GetSSHUser returns the SSH user, empty to defer to ~/.ssh/config.
func (c *ExperimentConfig) GetSSHUser() string {
	if c.SSHUser == nil {
		return ""
	}
	return *c.SSHUser
}

// GetSSHKey returns the SSH key path, empty to defer to ~/.ssh/config.
func (c *ExperimentConfig) GetSSHKey() string {
	if c.SSHKey == nil {
		return ""
	}
	return *c.SSHKey
}

// GetReceiverTimeout returns how long a receiver may run before it is killed.
func (c *ExperimentConfig) GetReceiverTimeout() time.Duration {
	if c.ReceiverTimeout == nil || *c.ReceiverTimeout == "" {
		return 40 * time.Second // default
	}
	d, err := time.ParseDuration(*c.ReceiverTimeout)
	if err != nil {
		return 40 * time.Second // default on parse error
	}
	return d
}

// GetIterations returns the number of repetitions per configuration.
func (c *ExperimentConfig) GetIterations() int {
	if c.Iterations == nil {
		return 1
	}
	return *c.Iterations
}

// GetPayloadSize returns the packet payload size in bytes.
func (c *ExperimentConfig) GetPayloadSize() int {
	if c.PayloadSize == nil {
		return 30
	}
	return *c.PayloadSize
}

// GetHeaderOffset returns how many payload bytes of each log record are
// protocol header.
func (c *ExperimentConfig) GetHeaderOffset() int {
	if c.HeaderOffset == nil {
		return 0
	}
	return *c.HeaderOffset
}

// GetTSCHz returns the timestamp counter frequency, 0 when unknown.
func (c *ExperimentConfig) GetTSCHz() float64 {
	if c.TSCHz == nil {
		return 0
	}
	return *c.TSCHz
}

// GetScenarios returns the configured scenarios, or the idle scenario.
func (c *ExperimentConfig) GetScenarios() []Scenario {
	if len(c.Scenarios) == 0 {
		return []Scenario{IdleScenario}
	}
	return c.Scenarios
}

// WarmupDuration returns the scenario warmup, 0 if unset.
func (s Scenario) WarmupDuration() time.Duration {
	d, err := time.ParseDuration(s.Warmup)
	if err != nil {
		return 0
	}
	return d
}

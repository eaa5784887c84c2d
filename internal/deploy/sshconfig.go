package deploy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SSHConfig represents parsed SSH configuration for a host.
type SSHConfig struct {
	Host          string
	HostName      string
	User          string
	IdentityFile  string
	IdentityAgent string
	Port          string
}

// ParseSSHConfig reads and parses ~/.ssh/config for the given host.
func ParseSSHConfig(host string) (*SSHConfig, error) {
	return ParseSSHConfigFrom(host, "")
}

// ParseSSHConfigFrom reads and parses an SSH config file for the given host.
// If configPath is empty, uses ~/.ssh/config. A missing file yields nil.
func ParseSSHConfigFrom(host, configPath string) (*SSHConfig, error) {
	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		homeDir, _ = os.UserHomeDir()
	}
	if configPath == "" {
		if homeDir == "" {
			return nil, fmt.Errorf("failed to get home directory")
		}
		configPath = filepath.Join(homeDir, ".ssh", "config")
	}

	file, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open SSH config: %w", err)
	}
	defer file.Close()

	return parseSSHConfig(host, file, homeDir)
}

// parseSSHConfig applies first-match-wins semantics across every Host
// block whose patterns match host.
func parseSSHConfig(host string, r io.Reader, homeDir string) (*SSHConfig, error) {
	config := &SSHConfig{Host: host}
	inMatchingHost := false
	foundMatch := false

	set := func(field *string, value string) {
		if inMatchingHost && *field == "" {
			*field = value
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		keyword := strings.ToLower(parts[0])
		value := strings.Join(parts[1:], " ")

		switch keyword {
		case "host":
			inMatchingHost = false
			for _, pattern := range parts[1:] {
				if MatchHost(host, pattern) {
					inMatchingHost = true
				}
			}
			foundMatch = foundMatch || inMatchingHost
		case "hostname":
			set(&config.HostName, value)
		case "user":
			set(&config.User, value)
		case "identityfile":
			set(&config.IdentityFile, expandHome(value, homeDir))
		case "port":
			set(&config.Port, value)
		case "identityagent":
			set(&config.IdentityAgent, expandHome(strings.Trim(value, `"`), homeDir))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SSH config: %w", err)
	}
	if !foundMatch {
		return nil, nil
	}
	return config, nil
}

func expandHome(value, homeDir string) string {
	if strings.HasPrefix(value, "~/") && homeDir != "" {
		return filepath.Join(homeDir, value[2:])
	}
	return value
}

// MatchHost reports whether target matches an ssh_config Host pattern.
// Patterns support * and ?; a leading ! never matches.
func MatchHost(target, pattern string) bool {
	if strings.HasPrefix(pattern, "!") {
		return false
	}
	ok, err := path.Match(pattern, target)
	return err == nil && ok
}

// Target is a fully resolved ssh destination.
type Target struct {
	Host          string
	User          string
	KeyPath       string
	IdentityAgent string
	Port          string
}

// ResolveSSHTarget resolves SSH connection details using ~/.ssh/config.
// Explicit user and key arguments override the config file.
func ResolveSSHTarget(target, user, keyPath string) (Target, error) {
	targetHost := target
	targetUser := user
	if strings.Contains(target, "@") {
		parts := strings.SplitN(target, "@", 2)
		targetUser = parts[0]
		targetHost = parts[1]
	}

	config, err := ParseSSHConfig(targetHost)
	if err != nil {
		return Target{}, fmt.Errorf("failed to parse SSH config: %w", err)
	}
	return resolve(targetHost, targetUser, keyPath, config), nil
}

func resolve(host, user, keyPath string, config *SSHConfig) Target {
	t := Target{Host: host, User: user, KeyPath: keyPath}
	if config == nil {
		return t
	}
	if config.HostName != "" {
		t.Host = config.HostName
	}
	if t.User == "" {
		t.User = config.User
	}
	if t.KeyPath == "" {
		t.KeyPath = config.IdentityFile
	}
	t.IdentityAgent = config.IdentityAgent
	t.Port = config.Port
	return t
}

// NewHostExecutor builds an Executor for target, consulting ~/.ssh/config
// for remote hosts.
func NewHostExecutor(target, user, keyPath string, dryRun bool) (*Executor, error) {
	e := NewExecutor(target, user, keyPath, "", dryRun)
	if e.IsLocal() {
		return e, nil
	}
	t, err := ResolveSSHTarget(target, user, keyPath)
	if err != nil {
		return nil, err
	}
	e.Target = t.Host
	e.SSHUser = t.User
	e.SSHKey = t.KeyPath
	e.IdentityAgent = t.IdentityAgent
	e.Port = t.Port
	return e, nil
}

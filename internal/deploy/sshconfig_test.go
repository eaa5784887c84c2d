package deploy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSSHConfig = `
# lab hosts
Host sender
    HostName 10.0.0.2
    User tlb
    IdentityFile ~/.ssh/lab

Host recv-*
    HostName 10.0.0.3
    Port 2222
    IdentityAgent "~/.agent.sock"

Host *
    User fallback
`

func TestParseSSHConfig(t *testing.T) {
	tests := []struct {
		host string
		want *SSHConfig
	}{
		{"sender", &SSHConfig{Host: "sender", HostName: "10.0.0.2", User: "tlb", IdentityFile: "/home/t/.ssh/lab"}},
		{"recv-1", &SSHConfig{Host: "recv-1", HostName: "10.0.0.3", Port: "2222", IdentityAgent: "/home/t/.agent.sock", User: "fallback"}},
		{"other", &SSHConfig{Host: "other", User: "fallback"}},
	}
	for _, tt := range tests {
		got, err := parseSSHConfig(tt.host, strings.NewReader(sampleSSHConfig), "/home/t")
		if err != nil {
			t.Fatalf("parse %s: %v", tt.host, err)
		}
		if *got != *tt.want {
			t.Errorf("parse %s = %+v, want %+v", tt.host, *got, *tt.want)
		}
	}
}

func TestParseSSHConfig_NoMatch(t *testing.T) {
	got, err := parseSSHConfig("x", strings.NewReader("Host a\n  User b\n"), "")
	if err != nil || got != nil {
		t.Errorf("Expected nil config, got %+v, %v", got, err)
	}
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		target, pattern string
		want            bool
	}{
		{"sender", "sender", true},
		{"sender", "send?r", true},
		{"recv-2", "recv-*", true},
		{"sender", "receiver", false},
		{"sender", "!sender", false},
	}
	for _, tt := range tests {
		if got := MatchHost(tt.target, tt.pattern); got != tt.want {
			t.Errorf("MatchHost(%q, %q) = %v, want %v", tt.target, tt.pattern, got, tt.want)
		}
	}
}

func TestParseSSHConfigFrom_Missing(t *testing.T) {
	cfg, err := ParseSSHConfigFrom("x", filepath.Join(t.TempDir(), "nope"))
	if err != nil || cfg != nil {
		t.Errorf("Expected nil, nil for missing file, got %+v, %v", cfg, err)
	}
}

func TestResolveSSHTarget(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".ssh"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".ssh", "config"), []byte(sampleSSHConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveSSHTarget("sender", "", "")
	if err != nil {
		t.Fatalf("ResolveSSHTarget: %v", err)
	}
	if got.Host != "10.0.0.2" || got.User != "tlb" || got.KeyPath != filepath.Join(home, ".ssh/lab") {
		t.Errorf("Unexpected target %+v", got)
	}

	got, err = ResolveSSHTarget("me@sender", "", "/explicit")
	if err != nil {
		t.Fatalf("ResolveSSHTarget: %v", err)
	}
	if got.User != "me" || got.KeyPath != "/explicit" {
		t.Errorf("Explicit values should win, got %+v", got)
	}

	e, err := NewHostExecutor("recv-9", "", "", false)
	if err != nil {
		t.Fatalf("NewHostExecutor: %v", err)
	}
	if e.Target != "10.0.0.3" || e.Port != "2222" {
		t.Errorf("Unexpected executor %+v", e)
	}
}

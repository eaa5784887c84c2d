package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validJSON = `{
  "project_dir": "/srv/tlbchannels",
  "hosts": {"receiver": "192.168.122.190", "sender": "192.168.122.201", "noise": "192.168.122.85"},
  "ssh_user": "user",
  "receiver_timeout": "2m",
  "iterations": 10,
  "header_offset": 3,
  "common_flags": ["-DARCH_BROADWELL", "-DNUM_EVICTIONS=23"],
  "builds": [
    {"flags": ["-DAS"], "checksum": "crc8", "evictions": 8, "send_windows": "12,43,5"},
    {"flags": ["-DF"], "send_windows": "80:120:20"}
  ],
  "files": [{"send": "text.txt", "receive": "out.txt"}],
  "scenarios": [
    {"name": "idle"},
    {"name": "stress", "warmup": "5s", "load": [{"host": "noise", "start": "stress -m 1", "stop": "pkill stress"}]}
  ]
}`

const validYAML = `
hosts:
  receiver: vm1
  sender: vm2
builds:
  - send_windows: "120"
    checksum: custom
files:
  - send: genesis.txt
    receive: out.txt
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadExperimentConfig_JSON(t *testing.T) {
	cfg, err := LoadExperimentConfig(writeConfig(t, "exp.json", validJSON))
	if err != nil {
		t.Fatalf("LoadExperimentConfig: %v", err)
	}

	if got := cfg.GetReceiverTimeout(); got != 2*time.Minute {
		t.Errorf("GetReceiverTimeout() = %v, want 2m", got)
	}
	if got := cfg.GetIterations(); got != 10 {
		t.Errorf("GetIterations() = %d, want 10", got)
	}
	if got := cfg.GetHeaderOffset(); got != 3 {
		t.Errorf("GetHeaderOffset() = %d, want 3", got)
	}
	if got := cfg.GetSrcDir(); got != "/srv/tlbchannels/src" {
		t.Errorf("GetSrcDir() = %q", got)
	}
	if got := cfg.GetEvalDir(); got != "/srv/tlbchannels/eval" {
		t.Errorf("GetEvalDir() = %q", got)
	}
	if len(cfg.GetScenarios()) != 2 {
		t.Errorf("expected 2 scenarios, got %d", len(cfg.GetScenarios()))
	}
	if got := cfg.Scenarios[1].WarmupDuration(); got != 5*time.Second {
		t.Errorf("WarmupDuration() = %v, want 5s", got)
	}
}

func TestLoadExperimentConfig_YAMLDefaults(t *testing.T) {
	cfg, err := LoadExperimentConfig(writeConfig(t, "exp.yaml", validYAML))
	if err != nil {
		t.Fatalf("LoadExperimentConfig: %v", err)
	}

	if got := cfg.GetPayloadSize(); got != 30 {
		t.Errorf("GetPayloadSize() = %d, want 30", got)
	}
	if got := cfg.GetReceiverTimeout(); got != 40*time.Second {
		t.Errorf("GetReceiverTimeout() = %v, want 40s", got)
	}
	if got := cfg.GetRemoteDir(); got != "/home/user" {
		t.Errorf("GetRemoteDir() = %q", got)
	}
	if got := cfg.GetScenarios(); len(got) != 1 || got[0].Name != "idle" {
		t.Errorf("GetScenarios() = %+v, want idle only", got)
	}
	if cfg.Builds[0].Checksum != "custom" {
		t.Errorf("Checksum = %q", cfg.Builds[0].Checksum)
	}
	if cfg.GetTSCHz() != 0 {
		t.Errorf("GetTSCHz() = %f, want 0", cfg.GetTSCHz())
	}
}

func TestLoadExperimentConfig_BadExtension(t *testing.T) {
	_, err := LoadExperimentConfig(writeConfig(t, "exp.toml", validYAML))
	if err == nil || !strings.Contains(err.Error(), "extension") {
		t.Errorf("expected extension error, got %v", err)
	}
}

func TestLoadExperimentConfig_Missing(t *testing.T) {
	if _, err := LoadExperimentConfig(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *ExperimentConfig {
		return &ExperimentConfig{
			Hosts:  map[string]string{ReceiverHost: "a", SenderHost: "b"},
			Builds: []BuildConfig{{SendWindows: "80"}},
			Files:  []FilePair{{Send: "a.txt", Receive: "b.txt"}},
		}
	}
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	testCases := []struct {
		name    string
		mutate  func(*ExperimentConfig)
		wantErr string
	}{
		{"valid", func(*ExperimentConfig) {}, ""},
		{"missing_receiver", func(c *ExperimentConfig) { delete(c.Hosts, ReceiverHost) }, "hosts.receiver"},
		{"bad_timeout", func(c *ExperimentConfig) { c.ReceiverTimeout = str("soon") }, "receiver_timeout"},
		{"negative_timeout", func(c *ExperimentConfig) { c.ReceiverTimeout = str("-1s") }, "receiver_timeout"},
		{"zero_payload", func(c *ExperimentConfig) { c.PayloadSize = num(0) }, "payload_size"},
		{"negative_offset", func(c *ExperimentConfig) { c.HeaderOffset = num(-1) }, "header_offset"},
		{"zero_iterations", func(c *ExperimentConfig) { c.Iterations = num(0) }, "iterations"},
		{"no_builds", func(c *ExperimentConfig) { c.Builds = nil }, "build"},
		{"no_windows", func(c *ExperimentConfig) { c.Builds[0].SendWindows = " " }, "send_windows"},
		{"no_files", func(c *ExperimentConfig) { c.Files = nil }, "file pair"},
		{"half_file", func(c *ExperimentConfig) { c.Files[0].Receive = "" }, "files[0]"},
		{"unnamed_scenario", func(c *ExperimentConfig) { c.Scenarios = []Scenario{{}} }, "name"},
		{"duplicate_scenario", func(c *ExperimentConfig) { c.Scenarios = []Scenario{{Name: "x"}, {Name: "x"}} }, "duplicate"},
		{"bad_warmup", func(c *ExperimentConfig) { c.Scenarios = []Scenario{{Name: "x", Warmup: "later"}} }, "warmup"},
		{"unknown_load_host", func(c *ExperimentConfig) {
			c.Scenarios = []Scenario{{Name: "x", Load: []LoadCommand{{Host: "vm9", Start: "stress"}}}}
		}, "unknown host"},
		{"local_load_host", func(c *ExperimentConfig) {
			c.Scenarios = []Scenario{{Name: "x", Load: []LoadCommand{{Host: LocalHost, Start: "stress"}}}}
		}, ""},
		{"load_without_start", func(c *ExperimentConfig) {
			c.Scenarios = []Scenario{{Name: "x", Load: []LoadCommand{{Host: SenderHost}}}}
		}, "without start"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

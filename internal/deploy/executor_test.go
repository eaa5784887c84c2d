package deploy

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
)

type testLogger struct {
	messages []string
}

func (l *testLogger) Debugf(format string, args ...interface{}) {
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

func newMockExecutor(target string) (*Executor, *MockCommandBuilder) {
	e := NewExecutor(target, "user", "/keys/id", "", false)
	b := NewMockCommandBuilder()
	e.SetBuilder(b)
	return e, b
}

func TestExecutor_IsLocal(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"receiver.lab", false},
	}
	for _, tt := range tests {
		e := NewExecutor(tt.target, "", "", "", false)
		if got := e.IsLocal(); got != tt.want {
			t.Errorf("IsLocal(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestExecutor_DryRun(t *testing.T) {
	e := NewExecutor("receiver.lab", "user", "", "", true)
	b := NewMockCommandBuilder()
	e.SetBuilder(b)

	out, err := e.Run(context.Background(), "./receiver -o out.bin")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "[DRY-RUN]") {
		t.Errorf("Expected dry-run marker, got %q", out)
	}
	if err := e.CopyFile(context.Background(), "a", "b"); err != nil {
		t.Errorf("CopyFile in dry run returned %v", err)
	}
	if err := e.FetchFile(context.Background(), "a", "b"); err != nil {
		t.Errorf("FetchFile in dry run returned %v", err)
	}
	if len(b.Built()) != 0 {
		t.Errorf("Expected no commands in dry run, got %d", len(b.Built()))
	}
}

func TestExecutor_RunLocal(t *testing.T) {
	e, b := newMockExecutor("localhost")
	b.ExecutorFactory = func(ctx context.Context, name string, args []string) *MockCommandExecutor {
		return &MockCommandExecutor{Output: []byte("time: 1.5 s\n")}
	}

	out, err := e.Run(context.Background(), "cd /home/user && ./sender -f in.bin")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "time: 1.5 s\n" {
		t.Errorf("Expected output to be passed through, got %q", out)
	}
	last := b.LastCommand()
	if last == nil || !last.IsShell {
		t.Fatalf("Expected a shell command, got %+v", last)
	}
	if last.Args[1] != "cd /home/user && ./sender -f in.bin" {
		t.Errorf("Unexpected shell command %q", last.Args[1])
	}
}

func TestExecutor_RunSSH(t *testing.T) {
	e, b := newMockExecutor("receiver.lab")
	e.Port = "2222"
	logger := &testLogger{}
	e.SetLogger(logger)

	if _, err := e.Run(context.Background(), "uptime"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	last := b.LastCommand()
	if last.Name != "ssh" {
		t.Fatalf("Expected ssh, got %s", last.Name)
	}
	joined := strings.Join(last.Args, " ")
	for _, want := range []string{"-i /keys/id", "StrictHostKeyChecking=no", "-p 2222", "user@receiver.lab uptime"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected ssh args to contain %q, got %q", want, joined)
		}
	}
	if len(logger.messages) == 0 {
		t.Error("Expected debug log messages")
	}
}

func TestExecutor_RunFailureWrapsContext(t *testing.T) {
	e, b := newMockExecutor("receiver.lab")
	b.ExecutorFactory = func(ctx context.Context, name string, args []string) *MockCommandExecutor {
		return &MockCommandExecutor{RunFunc: func() ([]byte, error) {
			<-ctx.Done()
			return nil, errors.New("signal: killed")
		}}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, "./receiver")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestExecutor_CopyAndFetch(t *testing.T) {
	e, b := newMockExecutor("sender.lab")
	ctx := context.Background()

	if err := e.CopyFile(ctx, "bin/sender", "/home/user/sender"); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	put := b.LastCommand()
	if put.Name != "scp" || put.Args[len(put.Args)-1] != "user@sender.lab:/home/user/sender" {
		t.Errorf("Unexpected put command %+v", put)
	}

	if err := e.FetchFile(ctx, "/home/user/packets_log.csv", "eval/snd_packets_log.csv"); err != nil {
		t.Fatalf("FetchFile failed: %v", err)
	}
	get := b.LastCommand()
	n := len(get.Args)
	if get.Args[n-2] != "user@sender.lab:/home/user/packets_log.csv" || get.Args[n-1] != "eval/snd_packets_log.csv" {
		t.Errorf("Unexpected get command %+v", get)
	}
}

func TestExecutor_CopyLocal(t *testing.T) {
	e, b := newMockExecutor("")
	if err := e.FetchFile(context.Background(), "/tmp/a", "/tmp/b"); err != nil {
		t.Fatalf("FetchFile failed: %v", err)
	}
	last := b.LastCommand()
	if last.Name != "cp" || last.Args[0] != "/tmp/a" || last.Args[1] != "/tmp/b" {
		t.Errorf("Unexpected local copy %+v", last)
	}
}

func TestExecutor_CopyFailure(t *testing.T) {
	e, b := newMockExecutor("sender.lab")
	b.ExecutorFactory = func(ctx context.Context, name string, args []string) *MockCommandExecutor {
		return &MockCommandExecutor{Output: []byte("No such file"), Err: errors.New("exit status 1")}
	}
	err := e.FetchFile(context.Background(), "missing", "local")
	if err == nil || !strings.Contains(err.Error(), "No such file") {
		t.Errorf("Expected scp output in error, got %v", err)
	}
}

func TestExecutor_Kill(t *testing.T) {
	noMatch := exec.Command("sh", "-c", "exit 1").Run()
	var exitErr *exec.ExitError
	if !errors.As(noMatch, &exitErr) {
		t.Skipf("sh unavailable: %v", noMatch)
	}

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"killed", nil, false},
		{"nothing matched", noMatch, false},
		{"ssh failure", errors.New("connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, b := newMockExecutor("receiver.lab")
			b.ExecutorFactory = func(ctx context.Context, name string, args []string) *MockCommandExecutor {
				return &MockCommandExecutor{Err: tt.err}
			}
			err := e.Kill(context.Background(), "receiver")
			if (err != nil) != tt.wantErr {
				t.Errorf("Kill() error = %v, wantErr %v", err, tt.wantErr)
			}
			last := b.LastCommand()
			if last.Args[len(last.Args)-1] != "pkill receiver" {
				t.Errorf("Expected pkill receiver, got %v", last.Args)
			}
		})
	}
}

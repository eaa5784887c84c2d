// Package deploy runs commands and moves files on the hosts that run the
// channel endpoints, either locally or over ssh/scp.
package deploy

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
)

// CommandExecutor defines an interface for executing shell commands.
// This abstraction enables unit testing without real shell execution.
type CommandExecutor interface {
	// Run executes the command and returns the combined output (stdout+stderr).
	Run() ([]byte, error)

	// SetStdin sets the stdin for the command.
	SetStdin(stdin []byte)
}

// CommandBuilder builds commands bound to a context; cancelling the context
// kills the process.
type CommandBuilder interface {
	// BuildCommand creates a CommandExecutor for running a program directly.
	BuildCommand(ctx context.Context, name string, args ...string) CommandExecutor

	// BuildShellCommand creates a CommandExecutor for running shell commands via sh -c.
	BuildShellCommand(ctx context.Context, command string) CommandExecutor
}

// RealCommandExecutor wraps exec.Cmd to implement CommandExecutor.
type RealCommandExecutor struct {
	cmd *exec.Cmd
}

// Run executes the command and returns combined output.
func (r *RealCommandExecutor) Run() ([]byte, error) {
	return r.cmd.CombinedOutput()
}

// SetStdin sets stdin for the command.
func (r *RealCommandExecutor) SetStdin(stdin []byte) {
	r.cmd.Stdin = bytes.NewReader(stdin)
}

// RealCommandBuilder implements CommandBuilder using exec.CommandContext.
type RealCommandBuilder struct{}

// NewRealCommandBuilder creates a new RealCommandBuilder.
func NewRealCommandBuilder() *RealCommandBuilder {
	return &RealCommandBuilder{}
}

func (b *RealCommandBuilder) BuildCommand(ctx context.Context, name string, args ...string) CommandExecutor {
	return &RealCommandExecutor{cmd: exec.CommandContext(ctx, name, args...)}
}

func (b *RealCommandBuilder) BuildShellCommand(ctx context.Context, command string) CommandExecutor {
	return &RealCommandExecutor{cmd: exec.CommandContext(ctx, "sh", "-c", command)}
}

// MockCommandExecutor implements CommandExecutor for testing.
type MockCommandExecutor struct {
	// Output is the output to return from Run.
	Output []byte
	// Err is the error to return from Run.
	Err error
	// RunFunc, when set, replaces Output and Err.
	RunFunc func() ([]byte, error)
	// Stdin holds the stdin data that was set.
	Stdin []byte
	// RunCalled indicates whether Run was called.
	RunCalled bool
}

// Run returns the configured output and error.
func (m *MockCommandExecutor) Run() ([]byte, error) {
	m.RunCalled = true
	if m.RunFunc != nil {
		return m.RunFunc()
	}
	return m.Output, m.Err
}

// SetStdin records the stdin data.
func (m *MockCommandExecutor) SetStdin(stdin []byte) {
	m.Stdin = stdin
}

// MockCommandBuilder implements CommandBuilder for testing. It is safe for
// concurrent use because the runner drives receiver and sender in parallel.
type MockCommandBuilder struct {
	mu sync.Mutex
	// Commands records all commands that were built.
	Commands []MockBuiltCommand
	// ExecutorFactory creates executors based on the command. If nil, a
	// default MockCommandExecutor is returned.
	ExecutorFactory func(ctx context.Context, name string, args []string) *MockCommandExecutor
}

// MockBuiltCommand records details of a built command.
type MockBuiltCommand struct {
	Name    string
	Args    []string
	IsShell bool
}

// NewMockCommandBuilder creates a new MockCommandBuilder.
func NewMockCommandBuilder() *MockCommandBuilder {
	return &MockCommandBuilder{}
}

func (b *MockCommandBuilder) BuildCommand(ctx context.Context, name string, args ...string) CommandExecutor {
	b.record(MockBuiltCommand{Name: name, Args: args})
	return b.executor(ctx, name, args)
}

func (b *MockCommandBuilder) BuildShellCommand(ctx context.Context, command string) CommandExecutor {
	args := []string{"-c", command}
	b.record(MockBuiltCommand{Name: "sh", Args: args, IsShell: true})
	return b.executor(ctx, "sh", args)
}

func (b *MockCommandBuilder) record(c MockBuiltCommand) {
	b.mu.Lock()
	b.Commands = append(b.Commands, c)
	b.mu.Unlock()
}

func (b *MockCommandBuilder) executor(ctx context.Context, name string, args []string) *MockCommandExecutor {
	if b.ExecutorFactory != nil {
		if e := b.ExecutorFactory(ctx, name, args); e != nil {
			return e
		}
	}
	return &MockCommandExecutor{}
}

// Built returns a snapshot of the recorded commands.
func (b *MockCommandBuilder) Built() []MockBuiltCommand {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]MockBuiltCommand, len(b.Commands))
	copy(out, b.Commands)
	return out
}

// LastCommand returns the most recently built command, or nil if none.
func (b *MockCommandBuilder) LastCommand() *MockBuiltCommand {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Commands) == 0 {
		return nil
	}
	c := b.Commands[len(b.Commands)-1]
	return &c
}

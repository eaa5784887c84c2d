package deploy

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Logger defines the interface for debug logging.
type Logger interface {
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (n nopLogger) Debugf(format string, args ...interface{}) {}

// Executor runs commands and transfers files for a single host.
type Executor struct {
	Target        string
	SSHUser       string
	SSHKey        string
	IdentityAgent string
	Port          string
	DryRun        bool
	Logger        Logger
	Builder       CommandBuilder
}

// NewExecutor creates a new command executor.
func NewExecutor(target, sshUser, sshKey, identityAgent string, dryRun bool) *Executor {
	return &Executor{
		Target:        target,
		SSHUser:       sshUser,
		SSHKey:        sshKey,
		IdentityAgent: identityAgent,
		DryRun:        dryRun,
		Logger:        nopLogger{},
		Builder:       NewRealCommandBuilder(),
	}
}

// SetLogger sets the debug logger for the executor.
func (e *Executor) SetLogger(logger Logger) {
	if logger != nil {
		e.Logger = logger
	}
}

// SetBuilder replaces the command builder, typically with a mock.
func (e *Executor) SetBuilder(b CommandBuilder) {
	if b != nil {
		e.Builder = b
	}
}

// IsLocal returns true if target is localhost.
func (e *Executor) IsLocal() bool {
	return e.Target == "localhost" || e.Target == "127.0.0.1" || e.Target == ""
}

// String names the host for log lines.
func (e *Executor) String() string {
	if e.IsLocal() {
		return "local"
	}
	return e.remote()
}

// Run executes a shell command on the target and returns its combined output.
func (e *Executor) Run(ctx context.Context, command string) (string, error) {
	if e.DryRun {
		e.Logger.Debugf("[DRY-RUN] %s: %s", e, command)
		return fmt.Sprintf("[DRY-RUN] Would execute: %s", command), nil
	}

	e.Logger.Debugf("Executing: %s (target=%s, local=%v)", command, e.Target, e.IsLocal())

	var cmd CommandExecutor
	if e.IsLocal() {
		cmd = e.builder().BuildShellCommand(ctx, command)
	} else {
		cmd = e.builder().BuildCommand(ctx, "ssh", e.sshArgs(command)...)
	}
	output, err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		e.Logger.Debugf("Command failed: %v, output: %s", err, output)
	}
	return string(output), err
}

// CopyFile puts a local file onto the target.
func (e *Executor) CopyFile(ctx context.Context, src, dst string) error {
	if e.DryRun {
		e.Logger.Debugf("[DRY-RUN] %s: put %s -> %s", e, src, dst)
		return nil
	}

	e.Logger.Debugf("Copying file: %s -> %s (target=%s, local=%v)", src, dst, e.Target, e.IsLocal())

	if e.IsLocal() {
		return e.transfer(ctx, "cp", src, dst)
	}
	return e.transfer(ctx, "scp", e.scpArgs(src, e.remote()+":"+dst)...)
}

// FetchFile gets a file from the target into a local path.
func (e *Executor) FetchFile(ctx context.Context, remotePath, localPath string) error {
	if e.DryRun {
		e.Logger.Debugf("[DRY-RUN] %s: get %s -> %s", e, remotePath, localPath)
		return nil
	}

	e.Logger.Debugf("Fetching file: %s -> %s (target=%s, local=%v)", remotePath, localPath, e.Target, e.IsLocal())

	if e.IsLocal() {
		return e.transfer(ctx, "cp", remotePath, localPath)
	}
	return e.transfer(ctx, "scp", e.scpArgs(e.remote()+":"+remotePath, localPath)...)
}

// Kill terminates every process on the target with the given name. pkill
// exits 1 when nothing matched; that is not an error here.
func (e *Executor) Kill(ctx context.Context, process string) error {
	_, err := e.Run(ctx, "pkill "+process)
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return nil
	}
	return fmt.Errorf("kill %s on %s: %w", process, e, err)
}

func (e *Executor) transfer(ctx context.Context, name string, args ...string) error {
	output, err := e.builder().BuildCommand(ctx, name, args...).Run()
	if err != nil {
		e.Logger.Debugf("Copy failed: %v", err)
		return fmt.Errorf("%s failed: %w, output: %s", name, err, output)
	}
	return nil
}

func (e *Executor) builder() CommandBuilder {
	if e.Builder == nil {
		e.Builder = NewRealCommandBuilder()
	}
	return e.Builder
}

func (e *Executor) remote() string {
	target := e.Target
	if e.SSHUser != "" && !strings.Contains(target, "@") {
		target = fmt.Sprintf("%s@%s", e.SSHUser, target)
	}
	return target
}

func (e *Executor) commonOpts() []string {
	args := []string{}

	if e.SSHKey != "" {
		args = append(args, "-i", e.SSHKey)
	}

	if e.IdentityAgent != "" {
		args = append(args, "-o", fmt.Sprintf("IdentityAgent=%s", e.IdentityAgent))
	}

	// WARNING: The following options disable SSH strict host key checking and known_hosts verification.
	// Connections are vulnerable to man-in-the-middle attacks. Use only on an isolated test bench.
	args = append(args, "-o", "StrictHostKeyChecking=no")
	args = append(args, "-o", "UserKnownHostsFile=/dev/null")
	args = append(args, "-o", "LogLevel=ERROR")
	return args
}

func (e *Executor) sshArgs(command string) []string {
	args := e.commonOpts()
	if e.Port != "" {
		args = append(args, "-p", e.Port)
	}
	return append(args, e.remote(), command)
}

func (e *Executor) scpArgs(src, dst string) []string {
	args := e.commonOpts()
	if e.Port != "" {
		args = append(args, "-P", e.Port)
	}
	return append(args, src, dst)
}

// Package tools implements the concrete tool group the executor always
// composes with: shell, file, browser, message, and the optional search
// tool, each a thin adapter from toolkit.Tool onto a sandbox/browser/
// search client.
package tools

import (
	"context"

	"github.com/sandboxkernel/kernel/internal/sandboxclient"
)

// shellExec runs a command in a shell session.
type shellExec struct{ sandbox *sandboxclient.Client }

type ShellExecParams struct {
	ID      string `json:"id" jsonschema:"required,description=Unique identifier of the target shell session"`
	ExecDir string `json:"exec_dir" jsonschema:"required,description=Working directory for command execution (must use absolute path)"`
	Command string `json:"command" jsonschema:"required,description=Shell command to execute"`
}

func NewShellExec(sandbox *sandboxclient.Client) *shellExec { return &shellExec{sandbox} }
func (t *shellExec) Name() string                           { return "shell_exec" }
func (t *shellExec) Description() string {
	return "Execute commands in a specified shell session. Use for running code, installing packages, or managing files."
}
func (t *shellExec) NewParams() any { return &ShellExecParams{} }
func (t *shellExec) Call(ctx context.Context, params any) (string, error) {
	p := params.(*ShellExecParams)
	res, err := t.sandbox.ExecCommand(ctx, p.ID, p.ExecDir, p.Command)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// shellView inspects a shell session's console output.
type shellView struct{ sandbox *sandboxclient.Client }

type ShellViewParams struct {
	ID string `json:"id" jsonschema:"required,description=Unique identifier of the target shell session"`
}

func NewShellView(sandbox *sandboxclient.Client) *shellView { return &shellView{sandbox} }
func (t *shellView) Name() string                           { return "shell_view" }
func (t *shellView) Description() string {
	return "View the content of a specified shell session. Use for checking command execution results or monitoring output."
}
func (t *shellView) NewParams() any { return &ShellViewParams{} }
func (t *shellView) Call(ctx context.Context, params any) (string, error) {
	p := params.(*ShellViewParams)
	res, err := t.sandbox.ViewShell(ctx, p.ID)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// shellWait blocks until the session's foreground process exits.
type shellWait struct{ sandbox *sandboxclient.Client }

type ShellWaitParams struct {
	ID      string `json:"id" jsonschema:"required,description=Unique identifier of the target shell session"`
	Seconds *int   `json:"seconds,omitempty" jsonschema:"description=Wait duration in seconds"`
}

func NewShellWait(sandbox *sandboxclient.Client) *shellWait { return &shellWait{sandbox} }
func (t *shellWait) Name() string                          { return "shell_wait" }
func (t *shellWait) Description() string {
	return "Wait for the running process in a specified shell session to return. Use after running commands that require longer runtime."
}
func (t *shellWait) NewParams() any { return &ShellWaitParams{} }
func (t *shellWait) Call(ctx context.Context, params any) (string, error) {
	p := params.(*ShellWaitParams)
	res, err := t.sandbox.WaitForProcess(ctx, p.ID, p.Seconds)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// shellWriteToProcess feeds input to an interactive foreground process.
type shellWriteToProcess struct{ sandbox *sandboxclient.Client }

type ShellWriteToProcessParams struct {
	ID         string `json:"id" jsonschema:"required,description=Unique identifier of the target shell session"`
	Input      string `json:"input" jsonschema:"required,description=Input content to write to the process"`
	PressEnter bool   `json:"press_enter" jsonschema:"required,description=Whether to press Enter key after input"`
}

func NewShellWriteToProcess(sandbox *sandboxclient.Client) *shellWriteToProcess {
	return &shellWriteToProcess{sandbox}
}
func (t *shellWriteToProcess) Name() string { return "shell_write_to_process" }
func (t *shellWriteToProcess) Description() string {
	return "Write input to a running process in a specified shell session. Use for responding to interactive command prompts."
}
func (t *shellWriteToProcess) NewParams() any { return &ShellWriteToProcessParams{} }
func (t *shellWriteToProcess) Call(ctx context.Context, params any) (string, error) {
	p := params.(*ShellWriteToProcessParams)
	res, err := t.sandbox.WriteToProcess(ctx, p.ID, p.Input, p.PressEnter)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// shellKillProcess terminates a session's foreground process.
type shellKillProcess struct{ sandbox *sandboxclient.Client }

type ShellKillProcessParams struct {
	ID string `json:"id" jsonschema:"required,description=Unique identifier of the target shell session"`
}

func NewShellKillProcess(sandbox *sandboxclient.Client) *shellKillProcess {
	return &shellKillProcess{sandbox}
}
func (t *shellKillProcess) Name() string { return "shell_kill_process" }
func (t *shellKillProcess) Description() string {
	return "Terminate a running process in a specified shell session. Use for stopping long-running processes or handling frozen commands."
}
func (t *shellKillProcess) NewParams() any { return &ShellKillProcessParams{} }
func (t *shellKillProcess) Call(ctx context.Context, params any) (string, error) {
	p := params.(*ShellKillProcessParams)
	res, err := t.sandbox.KillProcess(ctx, p.ID)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

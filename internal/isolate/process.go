package isolate

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

// Cmd is one isolate invocation. The watchdog timer is armed by the
// caller and kills the whole process group regardless of whether the
// sandboxed program cooperates.
type Cmd struct {
	cmd          *exec.Cmd
	stdout       io.ReadCloser
	stderr       io.ReadCloser
	started      bool
	metaFilePath string

	watchdog      *time.Timer
	watchdogFired atomic.Bool
}

func newCmd(cmdStr string, metaFilePath string) *Cmd {
	cmd := exec.Command("/usr/bin/bash", "-c", cmdStr)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return &Cmd{
		cmd:          cmd,
		metaFilePath: metaFilePath,
	}
}

// Start launches the command with stdin wired to the given reader.
func (p *Cmd) Start(stdin io.Reader) error {
	if p.started {
		panic("isolate command should not be started twice")
	}
	p.started = true

	p.cmd.Stdin = stdin

	var err error
	p.stdout, err = p.cmd.StdoutPipe()
	if err != nil {
		return err
	}
	p.stderr, err = p.cmd.StderrPipe()
	if err != nil {
		return err
	}
	return p.cmd.Start()
}

// KillAfter arms the authoritative watchdog: after d the whole process
// group is killed, independent of the in-box program and of the caller's
// context. Returns a func reporting whether the watchdog fired.
func (p *Cmd) KillAfter(d time.Duration) func() bool {
	p.watchdog = time.AfterFunc(d, func() {
		p.watchdogFired.Store(true)
		p.kill()
	})
	return p.watchdogFired.Load
}

func (p *Cmd) kill() {
	if p.cmd.Process == nil {
		return
	}
	// negative pid targets the process group set up at start
	_ = syscall.Kill(-p.cmd.Process.Pid, syscall.SIGKILL)
}

// Wait blocks until the command finishes or is killed, then parses the
// meta file written by isolate. A non-zero exit of the isolate wrapper
// itself is expected for failed runs and is not an error here.
func (p *Cmd) Wait() (*Metrics, error) {
	if !p.started {
		panic("isolate command should be started before waiting")
	}

	err := p.cmd.Wait()
	if p.watchdog != nil {
		p.watchdog.Stop()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
	}

	metaBytes, err := os.ReadFile(p.metaFilePath)
	if err != nil {
		return nil, err
	}
	defer os.Remove(p.metaFilePath)

	metrics, err := ParseMetaFile(string(metaBytes))
	if err != nil {
		return nil, err
	}
	if p.watchdogFired.Load() {
		metrics.Status = StatusTimeout
		if metrics.Message == "" {
			metrics.Message = "killed by engine watchdog"
		}
	}
	return metrics, nil
}

func (p *Cmd) Stdout() io.ReadCloser {
	if p.stdout == nil {
		panic("isolate command should be started before retrieving stdout")
	}
	return p.stdout
}

func (p *Cmd) Stderr() io.ReadCloser {
	if p.stderr == nil {
		panic("isolate command should be started before retrieving stderr")
	}
	return p.stderr
}

// String returns the shell command for logging.
func (p *Cmd) String() string {
	return strings.Join(p.cmd.Args, " ")
}

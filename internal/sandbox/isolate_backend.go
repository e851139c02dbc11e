package sandbox

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeclass/engine/internal/isolate"
)

// Captured output is capped so a submission cannot exhaust engine memory
// by writing unbounded stdout.
const maxCapturedOutput = 1 << 20

// IsolateBackend adapts the isolate wrapper to the Backend interface.
type IsolateBackend struct {
	isolate *Isolate
}

type Isolate = isolate.Isolate

// NewIsolateBackend returns a backend allocating at most maxBoxes boxes.
func NewIsolateBackend(maxBoxes int) *IsolateBackend {
	return &IsolateBackend{isolate: isolate.New(maxBoxes)}
}

func (b *IsolateBackend) Probe() error {
	return isolate.CheckRuntime()
}

func (b *IsolateBackend) NewBox() (Box, error) {
	box, err := b.isolate.NewBox()
	if err != nil {
		return nil, err
	}
	return &isolateBox{box: box}, nil
}

type isolateBox struct {
	box *isolate.Box
}

func (ib *isolateBox) AddFile(name string, content []byte) error {
	return ib.box.AddFile(name, content)
}

func (ib *isolateBox) Erase() error {
	return ib.box.Erase()
}

func (ib *isolateBox) Run(command string, stdin string, limits Limits) (*RunOutcome, error) {
	constraints := isolate.Constraints{
		CpuTimeLimInSec:      limits.CpuSeconds,
		ExtraCpuTimeLimInSec: 0.5,
		WallTimeLimInSec:     limits.WallSeconds,
		MemoryLimitInKiB:     limits.MemoryKiB,
		MaxProcesses:         limits.MaxProcesses,
		MaxOpenFiles:         limits.MaxOpenFiles,
	}

	cmd, err := ib.box.Command(command, &constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to build isolate command: %w", err)
	}

	if err := cmd.Start(strings.NewReader(stdin)); err != nil {
		return nil, fmt.Errorf("failed to start isolate command: %w", err)
	}

	// The watchdog is armed on the engine's own clock. It outlives any
	// caller cancellation and guarantees Wait returns.
	grace := limits.Grace
	if grace <= 0 {
		grace = time.Second
	}
	watchdogFired := cmd.KillAfter(time.Duration(limits.WallSeconds*float64(time.Second)) + grace)

	var stdout, stderr []byte
	var pumps errgroup.Group
	pumps.Go(func() error {
		var err error
		stdout, err = io.ReadAll(io.LimitReader(cmd.Stdout(), maxCapturedOutput))
		return err
	})
	pumps.Go(func() error {
		var err error
		stderr, err = io.ReadAll(io.LimitReader(cmd.Stderr(), maxCapturedOutput))
		return err
	})
	if err := pumps.Wait(); err != nil {
		_, _ = cmd.Wait()
		return nil, fmt.Errorf("failed to read process output: %w", err)
	}

	metrics, err := cmd.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to wait for isolate command: %w", err)
	}

	return &RunOutcome{
		Stdout:        string(stdout),
		Stderr:        string(stderr),
		ExitCode:      metrics.ExitCode,
		ExitSignal:    metrics.ExitSignal,
		CpuMillis:     int64(metrics.TimeSec * 1000),
		WallMillis:    int64(metrics.TimeWallSec * 1000),
		MemoryKiB:     metrics.CgMemKiB,
		TimedOut:      metrics.Status == isolate.StatusTimeout || watchdogFired(),
		OomKilled:     metrics.CgOomKilled,
		InternalError: metrics.Status == isolate.StatusInternalError,
		Status:        metrics.Status,
	}, nil
}

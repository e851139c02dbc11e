// Package pipeline runs one submission inside an already-acquired
// sandbox: an optional compile step followed by the run step.
package pipeline

import (
	"fmt"
	"time"

	"github.com/codeclass/engine/internal/profile"
	"github.com/codeclass/engine/internal/sandbox"
)

// Compilation gets a fixed generous budget independent of the client
// timeout; compiler hangs are an infrastructure concern, not a grading
// signal.
var compileLimits = sandbox.Limits{
	CpuSeconds:   20.0,
	WallSeconds:  30.0,
	MemoryKiB:    524288,
	MaxProcesses: 128,
	MaxOpenFiles: 256,
	Grace:        2 * time.Second,
}

// Report is the raw result of one pipeline pass.
type Report struct {
	// Compile is nil for interpreted languages and when writing the
	// source file failed before the compiler ran.
	Compile *sandbox.RunOutcome
	// Run is nil when compilation failed.
	Run *sandbox.RunOutcome
}

// CompileFailed reports a non-zero compiler exit.
func (r *Report) CompileFailed() bool {
	return r.Compile != nil && r.Compile.ExitCode != 0
}

// CompileAborted reports a compile step cut short by the sandbox itself,
// a watchdog kill or an isolate fault. No verdict about the code exists
// in that case.
func (r *Report) CompileAborted() bool {
	return r.Compile != nil && (r.Compile.TimedOut || r.Compile.InternalError)
}

// Execute writes the source into the box, compiles when the profile has
// a compile step, and runs the program with the request stdin.
func Execute(
	box sandbox.Box,
	prof *profile.Profile,
	code string,
	stdin string,
	runLimits sandbox.Limits,
) (*Report, error) {
	report := &Report{}

	if err := box.AddFile(prof.SourceFilename, []byte(code)); err != nil {
		return nil, fmt.Errorf("failed to place source file: %w", err)
	}

	if !prof.Interpreted() {
		outcome, err := box.Run(*prof.CompileCmd, "", compileLimits)
		if err != nil {
			return nil, fmt.Errorf("compile step failed to run: %w", err)
		}
		report.Compile = outcome

		// a killed or faulted compile writes no exit code, so a plain
		// exit check would run a binary that was never produced
		if outcome.ExitCode != 0 || outcome.TimedOut || outcome.InternalError {
			return report, nil
		}
	}

	outcome, err := box.Run(prof.ExecCmd, stdin, runLimits)
	if err != nil {
		return report, fmt.Errorf("run step failed: %w", err)
	}
	report.Run = outcome

	return report, nil
}

// RunLimits derives the run-step limits from the profile and the
// client-requested timeout. The memory ceiling is clamped to the
// profile's hard cap no matter what.
func RunLimits(prof *profile.Profile, timeoutSeconds int, grace time.Duration) sandbox.Limits {
	wall := float64(timeoutSeconds) * prof.TimeMultiplier
	memory := prof.DefaultMemLimitKiB
	if memory > prof.HardMemLimitKiB {
		memory = prof.HardMemLimitKiB
	}
	return sandbox.Limits{
		CpuSeconds:   float64(timeoutSeconds),
		WallSeconds:  wall,
		MemoryKiB:    memory,
		MaxProcesses: prof.MaxProcesses,
		MaxOpenFiles: prof.MaxOpenFiles,
		Grace:        grace,
	}
}

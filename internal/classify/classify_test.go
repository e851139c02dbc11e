package classify_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeclass/engine/api"
	"github.com/codeclass/engine/internal/classify"
	"github.com/codeclass/engine/internal/pipeline"
	"github.com/codeclass/engine/internal/sandbox"
	"github.com/codeclass/engine/internal/seccheck"
)

func successRun(stdout string) *sandbox.RunOutcome {
	return &sandbox.RunOutcome{Stdout: stdout, WallMillis: 12, MemoryKiB: 2048}
}

func TestSuccessOutputIsVerbatim(t *testing.T) {
	resp := classify.Build(api.LangPython, classify.Signals{
		Report: &pipeline.Report{Run: successRun("Hello World\n")},
	})

	require.Equal(t, api.StatusSuccess, resp.Status)
	require.True(t, resp.Success)
	require.Equal(t, "Hello World\n", resp.Output)
	require.Empty(t, resp.Error)
	require.Empty(t, resp.CompilationError)
	require.Equal(t, int64(12), resp.ExecutionTimeMs)
	require.Equal(t, int64(2), resp.MemoryUsageMB)
}

func TestSecurityViolationReportsZeroUsage(t *testing.T) {
	resp := classify.Build(api.LangJava, classify.Signals{
		Finding: &seccheck.Finding{Description: "spawning OS processes is not allowed"},
	})

	require.Equal(t, api.StatusSecurityViolation, resp.Status)
	require.False(t, resp.Success)
	require.Contains(t, resp.Error, "security violation")
	require.Zero(t, resp.ExecutionTimeMs)
	require.Zero(t, resp.MemoryUsageMB)
}

func TestTimeoutBeatsEverythingButSecurity(t *testing.T) {
	// a run that timed out AND got OOM-killed AND exited non-zero
	sig := int64(9)
	resp := classify.Build(api.LangPython, classify.Signals{
		Report: &pipeline.Report{Run: &sandbox.RunOutcome{
			TimedOut:   true,
			OomKilled:  true,
			ExitCode:   137,
			ExitSignal: &sig,
			WallMillis: 2500,
		}},
	})

	require.Equal(t, api.StatusTimeout, resp.Status)
	require.NotEmpty(t, resp.Error)
	require.Empty(t, resp.Output)
}

func TestMemoryLimitFromOomKill(t *testing.T) {
	resp := classify.Build(api.LangJava, classify.Signals{
		Report: &pipeline.Report{Run: &sandbox.RunOutcome{
			OomKilled: true,
			ExitCode:  137,
			MemoryKiB: 262144,
		}},
		MemLimitKiB: 262144,
	})
	require.Equal(t, api.StatusMemoryLimit, resp.Status)
}

func TestMemoryLimitFromMeasuredCeiling(t *testing.T) {
	resp := classify.Build(api.LangCpp, classify.Signals{
		Report: &pipeline.Report{Run: &sandbox.RunOutcome{
			MemoryKiB: 131072,
		}},
		MemLimitKiB: 131072,
	})
	require.Equal(t, api.StatusMemoryLimit, resp.Status)
}

func TestCompilationErrorCarriesCompilerStderr(t *testing.T) {
	resp := classify.Build(api.LangJava, classify.Signals{
		Report: &pipeline.Report{Compile: &sandbox.RunOutcome{
			ExitCode: 1,
			Stderr:   "Main.java:3: error: ';' expected",
		}},
	})

	require.Equal(t, api.StatusCompilationError, resp.Status)
	require.Contains(t, resp.CompilationError, "expected")
	require.Empty(t, resp.Output)
	require.Empty(t, resp.Error)
}

func TestRuntimeErrorFromNonZeroExit(t *testing.T) {
	resp := classify.Build(api.LangCpp, classify.Signals{
		Report: &pipeline.Report{Run: &sandbox.RunOutcome{
			ExitCode: 1,
			Stderr:   "floating point exception",
		}},
	})

	require.Equal(t, api.StatusRuntimeError, resp.Status)
	require.Contains(t, resp.Error, "floating point exception")
}

func TestRuntimeErrorFromSignalWithEmptyStderr(t *testing.T) {
	sig := int64(8)
	resp := classify.Build(api.LangCpp, classify.Signals{
		Report: &pipeline.Report{Run: &sandbox.RunOutcome{
			ExitSignal: &sig,
		}},
	})

	require.Equal(t, api.StatusRuntimeError, resp.Status)
	require.Contains(t, resp.Error, "signal 8")
}

func TestSandboxFaultIsNeverSuccess(t *testing.T) {
	// isolate XX writes no exitcode, so the outcome looks like a clean
	// exit with empty output
	resp := classify.Build(api.LangPython, classify.Signals{
		Report: &pipeline.Report{Run: &sandbox.RunOutcome{
			InternalError: true,
			Status:        "XX",
			Stderr:        "isolate: cannot mount /box",
		}},
	})

	require.Equal(t, api.StatusSystemError, resp.Status)
	require.False(t, resp.Success)
	require.Empty(t, resp.Output)
	require.NotEmpty(t, resp.Error)
}

func TestAbortedCompileIsSystemError(t *testing.T) {
	for _, compile := range []*sandbox.RunOutcome{
		{TimedOut: true},
		{InternalError: true, Status: "XX"},
	} {
		resp := classify.Build(api.LangCpp, classify.Signals{
			Report: &pipeline.Report{Compile: compile},
		})
		require.Equal(t, api.StatusSystemError, resp.Status)
		require.Empty(t, resp.CompilationError)
	}
}

func TestSystemErrorWhenNothingRan(t *testing.T) {
	resp := classify.Build(api.LangPython, classify.Signals{
		SysErr: errors.New("backend unreachable"),
	})

	require.Equal(t, api.StatusSystemError, resp.Status)
	require.NotEmpty(t, resp.Error)
	require.Zero(t, resp.ExecutionTimeMs)
}

func TestExactlyOneBodyFieldPerStatus(t *testing.T) {
	cases := []classify.Signals{
		{Report: &pipeline.Report{Run: successRun("out")}},
		{Finding: &seccheck.Finding{Description: "nope"}},
		{Report: &pipeline.Report{Compile: &sandbox.RunOutcome{ExitCode: 1, Stderr: "err"}}},
		{Report: &pipeline.Report{Run: &sandbox.RunOutcome{ExitCode: 2, Stderr: "boom"}}},
		{Report: &pipeline.Report{Run: &sandbox.RunOutcome{InternalError: true, Status: "XX"}}},
		{Report: &pipeline.Report{Compile: &sandbox.RunOutcome{TimedOut: true}}},
		{SysErr: errors.New("down")},
	}

	for _, sig := range cases {
		resp := classify.Build(api.LangPython, sig)
		populated := 0
		if resp.Output != "" {
			populated++
		}
		if resp.Error != "" {
			populated++
		}
		if resp.CompilationError != "" {
			populated++
		}
		require.Equal(t, 1, populated, "status %s", resp.Status)
	}
}

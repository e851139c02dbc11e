// Package classify maps raw execution signals to exactly one status.
package classify

import (
	"fmt"
	"time"

	"github.com/codeclass/engine/api"
	"github.com/codeclass/engine/internal/pipeline"
	"github.com/codeclass/engine/internal/sandbox"
	"github.com/codeclass/engine/internal/seccheck"
)

// Signals is everything collected for one request. At most one of
// Finding, SysErr, Report is expected to be meaningful, but the
// precedence below resolves any overlap deterministically.
type Signals struct {
	Finding *seccheck.Finding
	SysErr  error
	Report  *pipeline.Report

	MemLimitKiB int64
}

// Build assembles the final response. Precedence, highest first:
// SECURITY_VIOLATION > TIMEOUT > MEMORY_LIMIT_EXCEEDED >
// COMPILATION_ERROR > RUNTIME_ERROR > SUCCESS. SYSTEM_ERROR is reserved
// for infrastructure faults where no run signals exist.
func Build(lang api.Language, sig Signals) api.ExecResponse {
	resp := api.ExecResponse{
		Language:   string(lang),
		ExecutedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if sig.Finding != nil {
		resp.Status = api.StatusSecurityViolation
		resp.Error = fmt.Sprintf("security violation: %s", sig.Finding.Description)
		return resp
	}

	rep := sig.Report
	if sig.SysErr != nil || rep == nil {
		resp.Status = api.StatusSystemError
		resp.Error = "execution environment failure, please retry"
		return resp
	}

	fillUsage(&resp, rep)

	run := rep.Run
	switch {
	case run != nil && run.InternalError:
		// the sandbox itself failed; the outcome says nothing about
		// the submitted program
		resp.Status = api.StatusSystemError
		resp.Error = "execution environment failure, please retry"
	case run != nil && run.TimedOut:
		resp.Status = api.StatusTimeout
		resp.Error = "execution timed out"
	case run != nil && memoryExceeded(run, sig.MemLimitKiB):
		resp.Status = api.StatusMemoryLimit
		resp.Error = "memory limit exceeded"
	case rep.CompileAborted():
		// compiler hangs and sandbox faults during compilation are an
		// infrastructure concern, not a verdict on the code
		resp.Status = api.StatusSystemError
		resp.Error = "execution environment failure, please retry"
	case rep.CompileFailed():
		resp.Status = api.StatusCompilationError
		// compiler stderr goes back verbatim
		resp.CompilationError = rep.Compile.Stderr
		if resp.CompilationError == "" {
			resp.CompilationError = rep.Compile.Stdout
		}
	case run != nil && (run.ExitCode != 0 || run.ExitSignal != nil):
		resp.Status = api.StatusRuntimeError
		resp.Error = runtimeErrorText(run)
	case run != nil:
		resp.Status = api.StatusSuccess
		resp.Success = true
		// byte-for-byte, no trimming at this layer
		resp.Output = run.Stdout
	default:
		resp.Status = api.StatusSystemError
		resp.Error = "execution produced no result"
	}

	return resp
}

func memoryExceeded(run *sandbox.RunOutcome, limitKiB int64) bool {
	if run.OomKilled {
		return true
	}
	return limitKiB > 0 && run.MemoryKiB >= limitKiB
}

func runtimeErrorText(run *sandbox.RunOutcome) string {
	if run.Stderr != "" {
		return run.Stderr
	}
	if run.ExitSignal != nil {
		return fmt.Sprintf("process killed by signal %d", *run.ExitSignal)
	}
	return fmt.Sprintf("process exited with code %d", run.ExitCode)
}

func fillUsage(resp *api.ExecResponse, rep *pipeline.Report) {
	// usage reflects the run step when it happened, otherwise the
	// compile step; zero only when the sandbox never ran
	outcome := rep.Run
	if outcome == nil {
		outcome = rep.Compile
	}
	if outcome == nil {
		return
	}
	resp.ExecutionTimeMs = outcome.WallMillis
	resp.MemoryUsageMB = outcome.MemoryKiB / 1024
}

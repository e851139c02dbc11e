// Package sandbox provisions isolated execution slots. Each accepted
// request gets exactly one fresh box, never shared, erased exactly once
// on every exit path.
package sandbox

import (
	"time"
)

// Limits are the caller-facing resource bounds for one run.
type Limits struct {
	CpuSeconds   float64
	WallSeconds  float64
	MemoryKiB    int64
	MaxProcesses int
	MaxOpenFiles int
	// Grace is added to WallSeconds when arming the engine watchdog.
	Grace time.Duration
}

// RunOutcome carries everything the classifier needs from one run.
type RunOutcome struct {
	Stdout   string
	Stderr   string
	ExitCode int64

	ExitSignal *int64

	CpuMillis  int64
	WallMillis int64
	MemoryKiB  int64

	TimedOut  bool
	OomKilled bool
	// InternalError marks a fault of the sandbox itself (isolate XX).
	// Such an outcome says nothing about the submitted program.
	InternalError bool

	// Raw backend status for logging (isolate: OK/TO/SG/RE/XX).
	Status string
}

// Box is one exclusively-owned execution environment.
type Box interface {
	// AddFile places content into the private scratch directory.
	AddFile(name string, content []byte) error
	// Run executes command with the given stdin under limits. The
	// watchdog inside Run always terminates the process once the wall
	// budget plus grace elapses, regardless of caller interest.
	Run(command string, stdin string, limits Limits) (*RunOutcome, error)
	// Erase destroys the box. Idempotent via the provisioner lease.
	Erase() error
}

// Backend creates boxes and reports runtime availability.
type Backend interface {
	NewBox() (Box, error)
	Probe() error
}

package isolate

import (
	"fmt"
)

// Constraints are the resource bounds applied to one box run. Network
// access is never granted; isolate only shares the host network when
// asked to, and we never ask.
type Constraints struct {
	CpuTimeLimInSec      float64
	ExtraCpuTimeLimInSec float64
	WallTimeLimInSec     float64
	MemoryLimitInKiB     int64
	MaxProcesses         int
	MaxOpenFiles         int
}

// DefaultConstraints bounds a run that supplied no explicit limits.
func DefaultConstraints() Constraints {
	return Constraints{
		CpuTimeLimInSec:      10.0,
		ExtraCpuTimeLimInSec: 0.5,
		WallTimeLimInSec:     12.0,
		MemoryLimitInKiB:     262144,
		MaxProcesses:         64,
		MaxOpenFiles:         128,
	}
}

func (c *Constraints) ToArgs() []string {
	return []string{
		fmt.Sprintf("--cg-mem=%d", c.MemoryLimitInKiB),
		fmt.Sprintf("--time=%f", c.CpuTimeLimInSec),
		fmt.Sprintf("--extra-time=%f", c.ExtraCpuTimeLimInSec),
		fmt.Sprintf("--wall-time=%f", c.WallTimeLimInSec),
		fmt.Sprintf("--processes=%d", c.MaxProcesses),
		fmt.Sprintf("--open-files=%d", c.MaxOpenFiles),
	}
}

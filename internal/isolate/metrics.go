package isolate

// Isolate status codes as written to the meta file.
const (
	StatusTimeout       = "TO" // wall or cpu time limit exceeded
	StatusSignal        = "SG" // died on a signal (includes cgroup OOM kill)
	StatusRuntimeError  = "RE" // non-zero exit code
	StatusInternalError = "XX" // isolate itself failed
)

// Metrics is the parsed meta file of one isolate run. Memory numbers
// come from cgroup accounting (cg-mem); max-rss is kept for reference.
type Metrics struct {
	TimeSec      float64
	TimeWallSec  float64
	MaxRssKiB    int64
	CswVoluntary int64
	CswForced    int64
	CgMemKiB     int64
	CgOomKilled  bool
	ExitCode     int64
	ExitSignal   *int64
	Status       string
	Message      string
}

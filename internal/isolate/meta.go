package isolate

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMetaFile parses isolate's key:value meta file format.
func ParseMetaFile(content string) (*Metrics, error) {
	m := &Metrics{}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("malformed meta file line: %q", line)
		}

		var err error
		switch key {
		case "time":
			m.TimeSec, err = strconv.ParseFloat(value, 64)
		case "time-wall":
			m.TimeWallSec, err = strconv.ParseFloat(value, 64)
		case "max-rss":
			m.MaxRssKiB, err = strconv.ParseInt(value, 10, 64)
		case "csw-voluntary":
			m.CswVoluntary, err = strconv.ParseInt(value, 10, 64)
		case "csw-forced":
			m.CswForced, err = strconv.ParseInt(value, 10, 64)
		case "cg-mem":
			m.CgMemKiB, err = strconv.ParseInt(value, 10, 64)
		case "cg-oom-killed":
			m.CgOomKilled = value == "1"
		case "exitcode":
			m.ExitCode, err = strconv.ParseInt(value, 10, 64)
		case "exitsig":
			var sig int64
			sig, err = strconv.ParseInt(value, 10, 64)
			m.ExitSignal = &sig
		case "status":
			m.Status = value
		case "message":
			m.Message = value
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse meta file key %s: %w", key, err)
		}
	}

	return m, nil
}

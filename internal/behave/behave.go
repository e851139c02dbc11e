// Package behave parses TOML behaviour files into runnable execution
// scenarios with expected outcomes. Used by tests and the exec command's
// --scenario flag.
package behave

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/codeclass/engine/api"
)

// SpecRequest is the request block of one scenario entry.
type SpecRequest struct {
	Code           string `toml:"code"`
	Language       string `toml:"language"`
	Stdin          string `toml:"stdin"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SpecExpect describes the expected classified outcome.
type SpecExpect struct {
	Status         string `toml:"status"`
	Output         string `toml:"output"`
	ErrorContains  string `toml:"error_contains"`
	HintContains   string `toml:"hint_contains"`
	MaxExecTimeMs  int64  `toml:"max_exec_time_ms"`
	RejectedReason string `toml:"rejected_reason"`
}

type specScenario struct {
	Description string      `toml:"description"`
	Request     SpecRequest `toml:"request"`
	Expect      SpecExpect  `toml:"expect"`
}

type specRoot struct {
	Scenarios []specScenario `toml:"scenarios"`
}

// Case is one runnable scenario converted from TOML.
type Case struct {
	ID      string
	Name    string
	Request api.ExecRequest
	Expect  SpecExpect
}

// Parse reads a behaviour TOML file and converts it to runnable cases.
func Parse(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read behaviour file: %w", err)
	}

	var root specRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse behaviour TOML: %w", err)
	}

	cases := make([]Case, 0, len(root.Scenarios))
	for _, sc := range root.Scenarios {
		if sc.Request.Code == "" {
			return nil, fmt.Errorf("scenario %q is missing request code", sc.Description)
		}
		if sc.Expect.Status == "" && sc.Expect.RejectedReason == "" {
			return nil, fmt.Errorf("scenario %q expects neither a status nor a rejection", sc.Description)
		}

		cases = append(cases, Case{
			ID:   uuid.NewString(),
			Name: sc.Description,
			Request: api.ExecRequest{
				Code:           sc.Request.Code,
				Language:       api.Language(sc.Request.Language),
				Stdin:          sc.Request.Stdin,
				TimeoutSeconds: sc.Request.TimeoutSeconds,
			},
			Expect: sc.Expect,
		})
	}
	return cases, nil
}

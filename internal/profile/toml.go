package profile

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/codeclass/engine/api"
)

// tomlLanguage mirrors one [[languages]] entry in a profile override file.
type tomlLanguage struct {
	ID             string  `toml:"id"`
	SourceFilename string  `toml:"source_filename"`
	CompileCmd     string  `toml:"compile_cmd"`
	CompiledFname  string  `toml:"compiled_filename"`
	ExecCmd        string  `toml:"exec_cmd"`
	MemLimitKiB    int64   `toml:"mem_limit_kib"`
	HardMemKiB     int64   `toml:"hard_mem_limit_kib"`
	TimeMultiplier float64 `toml:"time_multiplier"`
	MaxProcesses   int     `toml:"max_processes"`
	MaxOpenFiles   int     `toml:"max_open_files"`
}

type tomlRoot struct {
	Languages []tomlLanguage `toml:"languages"`
}

// LoadTOML reads a profile override file and overlays it onto the
// built-in defaults. Only languages already in the table may be
// overridden; the language set stays closed.
func LoadTOML(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var root tomlRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse profile TOML: %w", err)
	}

	table := Default()
	for _, l := range root.Languages {
		base, ok := table.byLang[api.Language(l.ID)]
		if !ok {
			return nil, fmt.Errorf("profile file references unknown language: %q", l.ID)
		}
		if l.SourceFilename != "" {
			base.SourceFilename = l.SourceFilename
		}
		if l.CompileCmd != "" {
			base.CompileCmd = strptr(l.CompileCmd)
		}
		if l.CompiledFname != "" {
			base.CompiledFilename = strptr(l.CompiledFname)
		}
		if l.ExecCmd != "" {
			base.ExecCmd = l.ExecCmd
		}
		if l.MemLimitKiB > 0 {
			base.DefaultMemLimitKiB = l.MemLimitKiB
		}
		if l.HardMemKiB > 0 {
			base.HardMemLimitKiB = l.HardMemKiB
		}
		if l.TimeMultiplier > 0 {
			base.TimeMultiplier = l.TimeMultiplier
		}
		if l.MaxProcesses > 0 {
			base.MaxProcesses = l.MaxProcesses
		}
		if l.MaxOpenFiles > 0 {
			base.MaxOpenFiles = l.MaxOpenFiles
		}
	}
	return table, nil
}

// Package profile holds the static per-language build/run descriptions.
// The set of languages is closed; adding one means adding a table entry.
package profile

import (
	"fmt"

	"github.com/codeclass/engine/api"
)

// Profile describes how to build and run submissions in one language.
type Profile struct {
	Language api.Language

	SourceFilename string
	// CompileCmd is nil for interpreted languages.
	CompileCmd       *string
	CompiledFilename *string
	ExecCmd          string

	// Default ceiling applied when the request does not override it,
	// and a hard cap the engine never exceeds regardless of input.
	DefaultMemLimitKiB int64
	HardMemLimitKiB    int64

	// Wall/cpu budgets get multiplied per language so that JVM startup
	// does not eat into the student's budget.
	TimeMultiplier float64

	MaxProcesses int
	MaxOpenFiles int
}

// Interpreted reports whether the language runs without a compile step.
func (p *Profile) Interpreted() bool {
	return p.CompileCmd == nil
}

// Table is the immutable process-wide language registry.
type Table struct {
	byLang map[api.Language]*Profile
}

func strptr(s string) *string { return &s }

// Default returns the built-in table for the four supported languages.
func Default() *Table {
	profiles := []*Profile{
		{
			Language:           api.LangJava,
			SourceFilename:     "Main.java",
			CompileCmd:         strptr("javac Main.java"),
			CompiledFilename:   strptr("Main.class"),
			ExecCmd:            "java -XX:+UseSerialGC -Xss8m Main",
			DefaultMemLimitKiB: 262144,
			HardMemLimitKiB:    524288,
			TimeMultiplier:     2.0,
			MaxProcesses:       64,
			MaxOpenFiles:       128,
		},
		{
			Language:           api.LangCpp,
			SourceFilename:     "main.cpp",
			CompileCmd:         strptr("g++ -O2 -std=c++17 -o main main.cpp"),
			CompiledFilename:   strptr("main"),
			ExecCmd:            "./main",
			DefaultMemLimitKiB: 131072,
			HardMemLimitKiB:    262144,
			TimeMultiplier:     1.0,
			MaxProcesses:       16,
			MaxOpenFiles:       64,
		},
		{
			Language:           api.LangPython,
			SourceFilename:     "main.py",
			CompileCmd:         nil,
			CompiledFilename:   nil,
			ExecCmd:            "python3 -B main.py",
			DefaultMemLimitKiB: 131072,
			HardMemLimitKiB:    262144,
			TimeMultiplier:     1.5,
			MaxProcesses:       16,
			MaxOpenFiles:       64,
		},
		{
			Language:           api.LangJavaScript,
			SourceFilename:     "main.js",
			CompileCmd:         nil,
			CompiledFilename:   nil,
			ExecCmd:            "node --max-old-space-size=128 main.js",
			DefaultMemLimitKiB: 131072,
			HardMemLimitKiB:    262144,
			TimeMultiplier:     1.5,
			MaxProcesses:       16,
			MaxOpenFiles:       64,
		},
	}

	byLang := make(map[api.Language]*Profile, len(profiles))
	for _, p := range profiles {
		byLang[p.Language] = p
	}
	return &Table{byLang: byLang}
}

// Get returns the profile for lang, or an error for unknown languages.
func (t *Table) Get(lang api.Language) (*Profile, error) {
	p, ok := t.byLang[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %q", lang)
	}
	return p, nil
}

// Languages lists the registered languages.
func (t *Table) Languages() []api.Language {
	res := make([]api.Language, 0, len(t.byLang))
	for lang := range t.byLang {
		res = append(res, lang)
	}
	return res
}

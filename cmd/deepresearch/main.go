// Package main provides the deepresearch binary entry point. Deepresearch
// turns a free-text research topic into a structured report by driving a
// four-phase pipeline of completion calls against an OpenAI-compatible
// model service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/c360studio/deepresearch/config"
	"github.com/c360studio/deepresearch/research"
	"github.com/c360studio/deepresearch/telemetry"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "deepresearch"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath  string
		topic       string
		depth       string
		iterations  int
		constraints string
		outputPath  string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "deepresearch",
		Short: "Multi-perspective research report generator",
		Long: `Deepresearch researches a topic from several model-generated
perspectives and integrates the findings into one report.

The pipeline runs four phases:
- topic analysis
- perspective generation
- per-perspective deep research (initial research, critical analysis,
  gap identification, synthesis)
- cross-perspective synthesis

The final report is written as JSON, including the full run log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, topic, depth, iterations, constraints, outputPath, logLevel)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Research topic (required)")
	cmd.Flags().StringVar(&depth, "depth", "", "Research depth (normal, advanced, extreme)")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "Perspective coverage")
	cmd.Flags().StringVar(&constraints, "constraints", "", "Free-text constraints appended to every prompt")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Report output path (default: stdout)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("topic")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func run(configPath, topic, depth string, iterations int, constraints, outputPath, logLevel string) error {
	logger := newLogger(logLevel)
	slog.SetDefault(logger)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Flags override config defaults.
	if depth == "" {
		depth = cfg.Research.Depth
	}
	if iterations == 0 {
		iterations = cfg.Research.Iterations
	}
	if constraints == "" {
		constraints = cfg.Research.Constraints
	}

	parsedDepth, err := research.ParseDepth(depth)
	if err != nil {
		return err
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		return fmt.Errorf("no API key found; set %s", cfg.Model.APIKeyEnv)
	}

	runID := uuid.NewString()
	observers := []telemetry.Observer{newProgressObserver(logger)}

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name(appName))
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer nc.Close()
		observers = append(observers, telemetry.NewNATSObserver(nc, runID, logger))
	}

	runner := research.New(apiKey, cfg.Model.ID, research.Options{
		RunID:       runID,
		Endpoint:    cfg.Model.Endpoint,
		Constraints: constraints,
		LogCapacity: cfg.Telemetry.LogCapacity,
		Timeout:     cfg.Model.Timeout,
		Logger:      logger,
		Referer:     cfg.Model.Referer,
		Title:       cfg.Model.Title,
		Observers:   observers,
	})
	defer runner.Cancel()

	// SIGINT cancels the run cooperatively; the in-flight call aborts and
	// the next checkpoint fails fast.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		runner.Cancel()
	}()

	logger.Info("Starting research run",
		"run_id", runner.ID(),
		"topic", topic,
		"depth", parsedDepth.String(),
		"iterations", iterations)

	report, err := runner.ConductResearch(ctx, topic, parsedDepth, iterations)
	if err != nil {
		// The full event sequence stays available for diagnosis.
		for _, line := range runner.Log() {
			logger.Debug(line)
		}
		return err
	}

	return writeReport(report, outputPath)
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func writeReport(report *research.FinalReport, outputPath string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if outputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	slog.Info("Report written", "path", outputPath)
	return nil
}

// progressObserver mirrors phase transitions and progress text onto the
// structured logger for interactive use.
type progressObserver struct {
	telemetry.NopObserver
	logger *slog.Logger
}

func newProgressObserver(logger *slog.Logger) *progressObserver {
	return &progressObserver{logger: logger}
}

func (o *progressObserver) OnPhaseLabel(label string) {
	o.logger.Info(label)
}

func (o *progressObserver) OnPhaseProgress(current, total int) {
	o.logger.Info("Phase progress", "current", current, "total", total)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sentinel/internal/config"
	"sentinel/internal/dedup"
	"sentinel/internal/disk"
	"sentinel/internal/logging"
	"sentinel/internal/observe"
	"sentinel/internal/sentinel"
	"sentinel/internal/ux"
)

var (
	// Global flags. Everything except --log and --config maps onto a
	// config field; flags set on the command line win over the file.
	logPath           string
	outputPath        string
	mode              string
	llmBackend        string
	cloudModel        string
	ollamaModel       string
	ollamaURL         string
	intervalSec       int
	debounceSec       int
	batchWindowSec    int
	diskIntervalSec   int
	criticalThreshold int
	runContext        string
	stateDir          string
	promptFile        string
	configFile        string
	quiet             bool
	verbose           bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Watch a log file and record LLM-analyzed error observations",
	Long: `sentinel tails a growing log file and looks for error patterns in the
new content. Matching snippets are debounced, batched, and sent to an LLM
backend (the cloud "llm" CLI, a local Ollama server, or both) for a
structured verdict. Every finding is appended to a Markdown observation
file next to the log; the terminal stays quiet unless alert mode is on.

Free disk space is checked on the side. In pause mode, repeated critical
findings stop the run and leave a pause-required marker for the build
driver to pick up.

Touch <log>.sentinel-pause to stop a running sentinel cleanly.`,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runSentinel,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&logPath, "log", "", "Log file to watch (required)")
	flags.StringVar(&outputPath, "output", "", "Observation file (default: sentinel-observations.md next to the log)")
	flags.StringVar(&mode, "mode", "", "Run mode: observe, alert, or pause")
	flags.StringVar(&llmBackend, "llm-backend", "", "Analysis backend: cloud, ollama, or both")
	flags.StringVar(&cloudModel, "cloud-model", "", "Model for the cloud llm CLI")
	flags.StringVar(&ollamaModel, "ollama-model", "", "Model for the Ollama backend")
	flags.StringVar(&ollamaURL, "ollama-url", "", "Ollama server URL")
	flags.IntVar(&intervalSec, "interval", 0, "Poll interval in seconds")
	flags.IntVar(&debounceSec, "debounce", 0, "Per-signature debounce window in seconds")
	flags.IntVar(&batchWindowSec, "batch-window", 0, "Analysis batch window in seconds")
	flags.IntVar(&diskIntervalSec, "disk-interval", 0, "Disk check interval in seconds")
	flags.IntVar(&criticalThreshold, "critical-threshold", 0, "Critical observations before pause mode stops the run")
	flags.StringVar(&runContext, "context", "", "Run context recorded in the session header (\"bootstrap\" widens the pattern set)")
	flags.StringVar(&stateDir, "state-dir", "", "Debounce/cache state directory (default: per-log dir under the system temp dir)")
	flags.StringVar(&promptFile, "prompt", "", "System prompt file for the analysis backends")
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.BoolVar(&quiet, "quiet", false, "Suppress console output and non-error logs")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.MarkFlagRequired("log")
}

// setup loads the config file, layers the command line on top, and builds
// the logger. Runs before the watch loop; any error here is a startup
// failure and exits 1.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err = logging.New(cfg.Logging.Level, verbose, quiet)
	if err != nil {
		return err
	}
	return nil
}

// applyFlags copies explicitly-set flags into the config. Unset flags keep
// whatever the file or the defaults provided.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	cfg.Log = logPath
	if flags.Changed("output") {
		cfg.Output = outputPath
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("llm-backend") {
		cfg.Analysis.Backend = llmBackend
	}
	if flags.Changed("cloud-model") {
		cfg.Analysis.CloudModel = cloudModel
	}
	if flags.Changed("ollama-model") {
		cfg.Analysis.OllamaModel = ollamaModel
	}
	if flags.Changed("ollama-url") {
		cfg.Analysis.OllamaURL = ollamaURL
	}
	if flags.Changed("interval") {
		cfg.Watch.Interval = fmt.Sprintf("%ds", intervalSec)
	}
	if flags.Changed("debounce") {
		cfg.Watch.Debounce = fmt.Sprintf("%ds", debounceSec)
	}
	if flags.Changed("batch-window") {
		cfg.Watch.BatchWindow = fmt.Sprintf("%ds", batchWindowSec)
	}
	if flags.Changed("disk-interval") {
		cfg.Disk.Interval = fmt.Sprintf("%ds", diskIntervalSec)
	}
	if flags.Changed("critical-threshold") {
		cfg.Watch.CriticalThreshold = criticalThreshold
	}
	if flags.Changed("context") {
		cfg.Context = runContext
	}
	if flags.Changed("state-dir") {
		cfg.StateDir = stateDir
	}
	if flags.Changed("prompt") {
		cfg.Analysis.PromptFile = promptFile
	}
}

func runSentinel(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	backend, note, err := sentinel.ResolveBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("backend setup: %w", err)
	}

	dir := cfg.StateDir
	if dir == "" {
		dir = dedup.DefaultDir(cfg.Log)
	}
	store, err := dedup.NewStore(dir)
	if err != nil {
		return fmt.Errorf("state dir: %w", err)
	}

	writer, err := observe.NewWriter(cfg.OutputPath())
	if err != nil {
		return fmt.Errorf("observation file: %w", err)
	}
	defer writer.Close()

	deps := sentinel.Deps{
		Config:  cfg,
		Logger:  logger,
		Console: ux.NewConsole(quiet),
		Backend: backend,
		Disk:    disk.StatfsQuerier{},
		Writer:  writer,
		Store:   store,
	}
	if note != nil {
		deps.StartupNotes = []observe.Observation{*note}
	}

	return sentinel.New(deps).Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

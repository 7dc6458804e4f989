package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"git-analyse/packages/ai"
	"git-analyse/packages/analysis"
	"git-analyse/packages/config"
	"git-analyse/packages/logging"

	"github.com/spf13/cobra"
)

// errChunksFailed marks a run whose report was printed but contains failed
// parts. The report already says so, so main does not print it again.
var errChunksFailed = errors.New("one or more parts failed")

var rootFlags struct {
	configPath  string
	concurrency int
	maxChars    int
	failFast    bool
}

var rootCmd = &cobra.Command{
	Use:   "git-analyse [flags] <repository-reference> [branch]",
	Short: "Analyse a GitHub or GitLab repository with a language model",
	Long: `git-analyse downloads a repository snapshot, extracts its text files,
splits the corpus into parts and asks a language model to analyse each part.

The branch defaults to the repository's default branch (GitHub) and must be
given explicitly for GitLab repositories.`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyze,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.configPath, "config", "", "Path to YAML config (default config/development.yaml if present)")
	f.IntVar(&rootFlags.concurrency, "concurrency", 0, "Parts analysed in parallel (overrides analysis.concurrency)")
	f.IntVar(&rootFlags.maxChars, "max-chars", 0, "Characters per part (overrides analysis.max_chars)")
	f.BoolVar(&rootFlags.failFast, "fail-fast", false, "Abort on the first failed part")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errChunksFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// loadConfig resolves configuration for a command: .env, YAML file, flag
// overrides, credentials. It installs the configured logger as default.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	config.LoadDotEnv()

	cfg, err := config.LoadConfig(rootFlags.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Analysis.Concurrency = rootFlags.concurrency
	}
	if flags.Changed("max-chars") {
		cfg.Analysis.MaxChars = rootFlags.maxChars
	}
	if flags.Changed("fail-fast") {
		cfg.Analysis.FailFast = rootFlags.failFast
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.SetDefault(logging.New(cfg.Log.Level, cfg.Log.Format))

	if err := cfg.LoadCredentials(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newPipeline builds the completer and pipeline for cfg. The returned
// cleanup releases the completer.
func newPipeline(ctx context.Context, cfg *config.Config) (*analysis.Pipeline, func(), error) {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	completer, cleanup, err := ai.New(ctx, cfg.AI, cfg.Credentials.APIKey, httpClient)
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create AI client: %w", err)
	}

	pipeline, err := analysis.NewPipeline(cfg, completer, httpClient)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("failed to create pipeline: %w", err)
	}
	return pipeline, cleanup, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Usage()
	}

	reference := args[0]
	var branch string
	if len(args) > 1 {
		branch = args[1]
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, cleanup, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := pipeline.Run(ctx, reference, branch)
	if err != nil {
		return err
	}

	analysis.Render(cmd.OutOrStdout(), report)
	if report.Failed() > 0 {
		return errChunksFailed
	}
	return nil
}

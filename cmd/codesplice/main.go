package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/codesplice/codesplice/internal/chunker"
	"github.com/codesplice/codesplice/internal/config"
	"github.com/codesplice/codesplice/internal/embedder"
	"github.com/codesplice/codesplice/internal/pipeline"
	"github.com/codesplice/codesplice/internal/store"
	"github.com/codesplice/codesplice/internal/token"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	flagVerbose      bool
	flagJSONLogs     bool
	flagDBPath       string
	flagProvider     string
	flagRepository   string
	flagCommit       string
	flagIncludeTests bool
	flagNoStructural bool
	flagWorkers      int
	flagMaxTokens    int
)

func main() {
	root := &cobra.Command{
		Use:           "codesplice",
		Short:         "Semantic code chunking and embedding ingestion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "JSON log output instead of console")

	ingest := &cobra.Command{
		Use:   "ingest <path>",
		Short: "Chunk a repository and dispatch embeddings",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
	ingest.Flags().StringVar(&flagDBPath, "db", "codesplice.db", "sqlite database path (empty to skip persistence)")
	ingest.Flags().StringVar(&flagProvider, "provider", "", "embedding provider (jina, openai, local)")
	ingest.Flags().StringVar(&flagRepository, "repository", "", "repository name recorded on chunks")
	ingest.Flags().StringVar(&flagCommit, "commit", "", "commit sha recorded on chunks")
	ingest.Flags().BoolVar(&flagIncludeTests, "include-tests", false, "also ingest test files")
	ingest.Flags().BoolVar(&flagNoStructural, "no-structural", false, "force fallback chunking for all files")
	ingest.Flags().IntVar(&flagWorkers, "workers", 0, "chunking workers (default: NumCPU)")
	ingest.Flags().IntVar(&flagMaxTokens, "max-tokens-per-batch", 0, "token ceiling per embedding batch")

	info := &cobra.Command{
		Use:   "info",
		Short: "Show registered chunkers and build configuration",
		RunE:  runInfo,
	}

	ver := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("codesplice %s\n", version)
			fmt.Printf("  build time: %s\n", buildTime)
			fmt.Printf("  build mode: %s (sqlite driver: %s)\n", store.BuildMode, store.DriverName)
		},
	}

	root.AddCommand(ingest, info, ver)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	if flagJSONLogs {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

func buildConfig() (*config.Config, error) {
	cfg := config.FromEnv()
	if flagNoStructural {
		cfg.UseStructural = false
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagMaxTokens > 0 {
		cfg.MaxTokensPerBatch = flagMaxTokens
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	emb, err := newEmbedder()
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()
	log.Info().Str("provider", emb.Provider()).Str("model", emb.Model()).Msg("embedder ready")

	var st *store.Store
	if flagDBPath != "" {
		st, err = store.Open(flagDBPath)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
	}

	docs, err := pipeline.LoadDocuments(args[0], pipeline.LoaderOptions{
		Repository:   flagRepository,
		Commit:       flagCommit,
		IncludeTests: flagIncludeTests,
		Log:          log,
	})
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no ingestible files under %s", args[0])
	}

	p, err := pipeline.New(cfg, token.NewEstimator("cl100k_base"),
		pipeline.NewEmbedDispatcher(emb, st), log)
	if err != nil {
		return err
	}

	report, err := p.Ingest(ctx, docs)
	printReport(report)
	return err
}

func newEmbedder() (embedder.Embedder, error) {
	if flagProvider == "" {
		return embedder.NewFromEnv()
	}
	return embedder.New(embedder.Config{
		Provider:  flagProvider,
		APIKey:    apiKeyFor(flagProvider),
		CacheSize: 10000,
	})
}

func apiKeyFor(provider string) string {
	switch strings.ToLower(provider) {
	case embedder.ProviderJina:
		return os.Getenv(embedder.EnvJinaAPIKey)
	case embedder.ProviderOpenAI:
		return os.Getenv(embedder.EnvOpenAIAPIKey)
	}
	return ""
}

func printReport(r *pipeline.Report) {
	fmt.Printf("run %s finished in %s\n", r.RunID, r.Duration.Round(time.Millisecond))
	fmt.Printf("  chunks created:   %d\n", r.ChunksCreated)
	fmt.Printf("  batches sent:     %d\n", r.BatchesSent)
	if r.OversizedBatches > 0 {
		fmt.Printf("  oversized batches: %d\n", r.OversizedBatches)
	}
	fmt.Printf("  documents failed: %d\n", r.DocumentsFailed)
	fmt.Printf("  chunks failed:    %d\n", r.ChunksFailed)
	for _, msg := range r.Errors {
		fmt.Printf("    - %s\n", msg)
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	factory := chunker.NewFactory(cfg, newLogger())
	defer factory.Close()

	fmt.Printf("codesplice %s (%s build, sqlite driver %s)\n\n", version, store.BuildMode, store.DriverName)
	fmt.Println("registered chunkers:")
	for _, info := range factory.Chunkers() {
		fmt.Printf("  %-12s %s\n", info.Name, strings.Join(info.Extensions, " "))
	}
	fmt.Printf("\nembedding provider: %s\n", embedder.DetectProvider())
	fmt.Printf("chunk size %d, overlap %d, hard ceiling %d, max tokens/batch %d\n",
		cfg.ChunkSize, cfg.ChunkOverlap, cfg.HardChunkCeiling, cfg.MaxTokensPerBatch)
	return nil
}

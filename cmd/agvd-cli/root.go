package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/h3abionet/agvd-cli/internal/agvd"
	"github.com/h3abionet/agvd-cli/internal/annotate"
	"github.com/h3abionet/agvd-cli/internal/duckdb"
	"github.com/h3abionet/agvd-cli/internal/table"
)

var flags struct {
	key       string
	input     string
	output    string
	threshold float64
	batchSize int
	column    string
	chromCol  string
	posCol    string
	refCol    string
	altCol    string
	endpoint  string
	verbose   bool
	dryRun    bool
	cache     bool
	cacheDB   string
	cacheTTL  time.Duration
	threads   int
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agvd-cli",
		Short: "AGVD variant query filter",
		Long: `Queries the African Genome Variation Database for allele-frequency
threshold verdicts over a table of variants (VCF, CSV, TSV or Excel)
and writes the table back with the verdict columns appended, plus a
JSON run summary.`,
		Example: `  agvd-cli -k $AGVD_KEY -i variants.csv -o annotated.csv -t 0.01 -c snp_id
  agvd-cli -i cohort.vcf -o annotated.csv -t 0.01
  agvd-cli -i calls.tsv -o annotated.tsv -t 0.05 --chr CHROM --pos POS --ref REF --alt ALT`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate()
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.key, "key", "k", "", "AGVD API key (or AGVD_KEY)")
	f.StringVarP(&flags.input, "input", "i", "", "input file path (VCF, CSV, TSV, Excel)")
	f.StringVarP(&flags.output, "output", "o", "", "output file path")
	f.Float64VarP(&flags.threshold, "threshold", "t", 0, "cutoff threshold")
	f.IntVarP(&flags.batchSize, "batch-size", "b", 1000, "identifiers per remote query")
	f.StringVarP(&flags.column, "column", "c", "", "column holding variant IDs (CSV/TSV/Excel)")
	f.StringVar(&flags.chromCol, "chr", "", "chromosome column name")
	f.StringVar(&flags.posCol, "pos", "", "position column name")
	f.StringVar(&flags.refCol, "ref", "", "reference allele column name")
	f.StringVar(&flags.altCol, "alt", "", "alternate allele column name")
	f.StringVar(&flags.endpoint, "endpoint", agvd.DefaultEndpoint, "AGVD query endpoint URL")
	f.BoolVar(&flags.verbose, "verbose", false, "enable debug output")
	f.BoolVar(&flags.dryRun, "dry-run", false, "validate and plan batches without submitting queries")
	f.BoolVar(&flags.cache, "cache", false, "memoize query results in memory")
	f.StringVar(&flags.cacheDB, "cache-db", "", "persist query results to a DuckDB cache at this path")
	f.DurationVar(&flags.cacheTTL, "cache-ttl", 0, "expiry for cached query results (0 = never)")
	f.IntVar(&flags.threads, "threads", annotate.DefaultWorkers, "parallel batch submissions")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	cmd.MarkFlagRequired("threshold")

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI. Errors are printed once, here.
func Execute() error {
	cobra.OnInitialize(initConfig)

	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// initConfig wires viper: ~/.agvd-cli.yaml plus AGVD_* environment
// variables (AGVD_KEY for the API key).
func initConfig() {
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".agvd-cli")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("AGVD")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func runAnnotate() error {
	if flags.batchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", flags.batchSize)
	}
	if flags.threads <= 0 {
		return fmt.Errorf("thread count must be positive, got %d", flags.threads)
	}
	if _, err := os.Stat(flags.input); err != nil {
		return fmt.Errorf("input file: %w", err)
	}

	key := flags.key
	if key == "" {
		key = viper.GetString("key")
	}
	if key == "" {
		return fmt.Errorf("API key required: pass --key or set AGVD_KEY")
	}

	logger, err := newLogger(flags.verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	opts := []agvd.Option{agvd.WithLogger(logger)}
	switch {
	case flags.cacheDB != "":
		store, err := duckdb.Open(flags.cacheDB, flags.cacheTTL)
		if err != nil {
			return fmt.Errorf("open cache db: %w", err)
		}
		defer store.Close()
		store.SetLogger(logger)
		if removed, err := store.Prune(); err == nil && removed > 0 {
			logger.Debug("pruned expired cache entries", zap.Int64("removed", removed))
		}
		opts = append(opts, agvd.WithCache(store))
	case flags.cache:
		opts = append(opts, agvd.WithCache(agvd.NewMemoCache(0, flags.cacheTTL)))
	}

	client := agvd.NewClient(flags.endpoint, key, opts...)

	runner := annotate.NewRunner(annotate.Options{
		Input:     flags.input,
		Output:    flags.output,
		Threshold: flags.threshold,
		BatchSize: flags.batchSize,
		Columns: table.ColumnSpec{
			Column: flags.column,
			Chrom:  flags.chromCol,
			Pos:    flags.posCol,
			Ref:    flags.refCol,
			Alt:    flags.altCol,
		},
		Threads:  flags.threads,
		DryRun:   flags.dryRun,
		Progress: !flags.verbose && !flags.dryRun,
	}, client)
	runner.SetLogger(logger)

	logger.Info("starting AGVD variant processing",
		zap.String("input", flags.input),
		zap.Float64("threshold", flags.threshold))

	return runner.Run(context.Background())
}

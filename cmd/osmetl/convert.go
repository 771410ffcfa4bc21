package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/osm-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/osm-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/osm-data-etl/internal/adapter/ndjson"
	"github.com/couchcryptid/osm-data-etl/internal/adapter/osmxml"
	"github.com/couchcryptid/osm-data-etl/internal/config"
	"github.com/couchcryptid/osm-data-etl/internal/domain"
	"github.com/couchcryptid/osm-data-etl/internal/observability"
	"github.com/couchcryptid/osm-data-etl/internal/pipeline"
)

// stdoutPath selects standard output as the conversion target.
const stdoutPath = "-"

type convertOptions struct {
	clean   bool
	pretty  bool
	workers int
	output  string
}

func newConvertCmd() *cobra.Command {
	var opts convertOptions
	cmd := &cobra.Command{
		Use:   "convert <input.osm>",
		Short: "Convert an OSM XML file into newline-delimited JSON",
		Long: `Convert streams every node and way of an OSM XML file (plain or gzip)
into one JSON document each. Output goes to <input>.json unless --output
is given; "-" writes to standard output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("workers") {
				if opts.workers < 1 {
					return errors.New("--workers must be at least 1")
				}
				cfg.ShapeWorkers = opts.workers
			}
			if opts.output == "" {
				opts.output = ndjson.OutputPath(args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := observability.NewLogger(cfg)
			return runConvert(ctx, cfg, args[0], opts, cmd.OutOrStdout(), logger, observability.NewMetrics())
		},
	}

	cmd.Flags().BoolVar(&opts.clean, "clean", false, "normalize postcodes, amenities, and names")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent each document over several lines")
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "goroutines shaping elements in parallel (overrides SHAPE_WORKERS)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output path, "-" for standard output (default <input>.json)`)
	return cmd
}

func runConvert(ctx context.Context, cfg *config.Config, input string, opts convertOptions, stdout io.Writer, logger *slog.Logger, metrics *observability.Metrics) (err error) {
	reader, err := osmxml.Open(input, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			logger.Error("input close error", "error", cerr)
		}
	}()

	var out *ndjson.Writer
	if opts.output == stdoutPath {
		out = ndjson.NewWriter(stdout, opts.pretty, logger)
	} else {
		out, err = ndjson.Create(opts.output, opts.pretty, logger)
		if err != nil {
			return err
		}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var loader pipeline.BatchLoader = out
	if cfg.KafkaEnabled() {
		kw := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if cerr := kw.Close(); cerr != nil {
				logger.Error("kafka writer close error", "error", cerr)
			}
		}()
		loader = pipeline.FanOut(out, kw)
	}

	transformer := pipeline.NewTransformer(domain.NewShaper(domain.DefaultRules()), opts.clean, metrics, logger)
	p := pipeline.New(reader, transformer, loader, logger, metrics, pipeline.Options{
		BatchSize: cfg.BatchSize,
		Workers:   cfg.ShapeWorkers,
	})

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	summary, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("convert %s: %w", input, err)
	}

	stats := reader.Stats()
	logger.Info("conversion complete",
		"input", input,
		"output", opts.output,
		"elements", summary.Elements,
		"documents", summary.Documents,
		"ignored", stats.Ignored,
		"duration", summary.Duration,
		"clean", opts.clean,
	)
	return nil
}

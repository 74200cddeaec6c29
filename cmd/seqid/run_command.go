package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LdDl/mot-seqid/internal/obsio"
	"github.com/LdDl/mot-seqid/internal/reportstore"
	"github.com/LdDl/mot-seqid/internal/runmetrics"
	"github.com/LdDl/mot-seqid/internal/trailplot"
	"github.com/LdDl/mot-seqid/seqid"
)

type runOptions struct {
	input         string
	output        string
	assignments   string
	plot          string
	metrics       string
	database      string
	classes       []string
	noStore       bool
	jsonOutput    bool
	progressEvery int
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Assign sequential ids to a detection stream and score the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Detections CSV (frame,raw_id,x1,y1,x2,y2,confidence[,class]); - reads stdin")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write full report JSON to this file")
	cmd.Flags().StringVar(&opts.assignments, "assignments", "", "Write per-frame sequential id assignments CSV to this file")
	cmd.Flags().StringVar(&opts.plot, "plot", "", "Render final track trails to this image (png, svg, pdf)")
	cmd.Flags().StringVar(&opts.metrics, "metrics-file", "", "Write run metrics in Prometheus textfile format to this file")
	cmd.Flags().StringVar(&opts.database, "db", "", "Report database path (defaults to storage.database_path)")
	cmd.Flags().StringSliceVar(&opts.classes, "class", nil, "Subject classes to keep (overrides input.classes)")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "Do not save the report to the database")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print full report as JSON instead of a summary")
	cmd.Flags().IntVar(&opts.progressEvery, "progress-every", 500, "Log progress every N frames (0 disables)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func executeRun(cmd *cobra.Command, ctx *commandContext, opts runOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := opts.input
	in := cmd.InOrStdin()
	if opts.input != "-" {
		file, err := os.Open(opts.input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		in = file
		source = filepath.Base(opts.input)
	}

	classes := cfg.Input.Classes
	if cmd.Flags().Changed("class") {
		classes = normalizeClasses(opts.classes)
	}
	reader := obsio.NewReader(in, classes)

	engine, err := seqid.NewEngine(cfg.EngineConfig(), seqid.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("run started", "run_id", engine.RunID(), "source", source, "classes", classes)
	metrics := runmetrics.New(engine.RunID().String(), source)

	var (
		writer          *obsio.AssignmentWriter
		assignmentsFile *os.File
	)
	if opts.assignments != "" {
		assignmentsFile, err = os.Create(opts.assignments)
		if err != nil {
			return fmt.Errorf("create assignments file: %w", err)
		}
		defer assignmentsFile.Close()
		writer = obsio.NewAssignmentWriter(assignmentsFile)
	}

	err = reader.Stream(runCtx, func(frame obsio.Frame) error {
		started := time.Now()
		assigned, err := engine.ProcessFrame(frame.Index, frame.Observations)
		if err != nil {
			return err
		}
		metrics.ObserveFrame(time.Since(started))
		if writer != nil {
			if err := writer.Write(frame.Index, assigned); err != nil {
				return err
			}
		}
		logProgress(logger, engine.Snapshot(), opts.progressEvery)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted", "run_id", engine.RunID(), "frames", engine.Snapshot().FramesProcessed)
		}
		return fmt.Errorf("process %s: %w", source, err)
	}
	if reader.Skipped > 0 {
		logger.Info("rows skipped by class filter", "rows", reader.Skipped)
	}
	if writer != nil {
		if err := writer.Flush(); err != nil {
			return err
		}
	}

	report, err := engine.Finish()
	if err != nil {
		return err
	}

	if !opts.noStore {
		err := ctx.withStore(runCtx, opts.database, func(store *reportstore.Store) error {
			return store.Insert(runCtx, report, source)
		})
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	}

	if opts.plot != "" {
		plotOpts := trailplot.DefaultOptions()
		plotOpts.Title = fmt.Sprintf("%s (%s)", source, report.Quality.Rating)
		err := trailplot.Save(report, opts.plot, plotOpts)
		switch {
		case errors.Is(err, trailplot.ErrNothingToPlot):
			logger.Warn("trail plot skipped", "reason", err.Error())
		case err != nil:
			return err
		}
	}

	if opts.metrics != "" {
		metrics.Record(report)
		if err := metrics.WriteTextfile(opts.metrics); err != nil {
			return err
		}
	}

	if opts.output != "" {
		if err := writeReportFile(opts.output, report); err != nil {
			return err
		}
	}

	if opts.jsonOutput {
		return writeJSON(cmd, report)
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func logProgress(logger *slog.Logger, progress seqid.Progress, every int) {
	if every <= 0 || progress.FramesProcessed%every != 0 {
		return
	}
	logger.Info("progress",
		"frames", progress.FramesProcessed,
		"frame", progress.LastFrame,
		"active", progress.ActiveTracks,
		"lost", progress.LostTracks,
		"minted", progress.SequentialIDsMinted,
	)
}

func writeReportFile(path string, report *seqid.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := encodeJSON(file, report); err != nil {
		file.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return file.Close()
}

func normalizeClasses(classes []string) []string {
	out := make([]string, 0, len(classes))
	for _, class := range classes {
		class = strings.ToLower(strings.TrimSpace(class))
		if class != "" {
			out = append(out, class)
		}
	}
	return out
}

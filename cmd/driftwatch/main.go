package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"driftwatch/adapters/frame"
	"driftwatch/adapters/metric"
	"driftwatch/adapters/postgres"
	"driftwatch/adapters/report"
	"driftwatch/adapters/sink"
	"driftwatch/app"
	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/internal/binning"
	"driftwatch/internal/config"
	"driftwatch/internal/testkit"
	"driftwatch/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "driftwatch",
		Short: "Distribution drift detection for tabular data streams",
		Long: `Score feature drift between a reference dataset and new batches,
or roll a stream through windows and alert through configured sinks.

Defaults come from the environment (DRIFT_*, MONITOR_*, ALERT_*,
DATABASE_URL, METRICS_*), optionally overlaid by the YAML file named
in DRIFT_CONFIG; flags override both.`,
	}

	rootCmd.AddCommand(
		newCheckCmd(cfg),
		newWatchCmd(cfg),
		newRecapCmd(),
		newCompareCmd(),
		newHistoryCmd(cfg),
		newDemoCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("DRIFT_CONFIG"); path != "" {
		return config.LoadWithFile(path)
	}
	return config.Load()
}

// engineFlags are the scoring knobs shared by check and watch
type engineFlags struct {
	algo        string
	threshold   float64
	bins        int
	strategy    string
	floor       float64
	maxParallel int
	timeColumn  string
	features    []string
}

func (f *engineFlags) register(cmd *cobra.Command, cfg config.CheckConfig) {
	cmd.Flags().StringVar(&f.algo, "algo", cfg.Metric, "Drift metric: psi|ks")
	cmd.Flags().Float64Var(&f.threshold, "threshold", cfg.Threshold, "Drift threshold (0 uses the metric default)")
	cmd.Flags().IntVar(&f.bins, "bins", cfg.Bins, "Number of bins for numeric features")
	cmd.Flags().StringVar(&f.strategy, "strategy", cfg.Strategy, "Numeric binning strategy: quantile|width")
	cmd.Flags().Float64Var(&f.floor, "floor", cfg.Floor, "Smoothing floor for empty bins")
	cmd.Flags().IntVar(&f.maxParallel, "max-parallel", cfg.MaxParallel, "Features scored concurrently")
	cmd.Flags().StringVar(&f.timeColumn, "time-column", "", "Column holding row timestamps")
	cmd.Flags().StringSliceVar(&f.features, "features", nil, "Features to monitor (default: all columns)")
}

func (f *engineFlags) checker() (*app.DriftCheckService, error) {
	registry := metric.NewRegistry()
	m, err := registry.Get(f.algo)
	if err != nil {
		return nil, err
	}

	return app.NewDriftCheckService(m, app.CheckOptions{
		Binning: binning.Options{
			Bins:     f.bins,
			Strategy: drift.BinStrategy(f.strategy),
			Floor:    f.floor,
		},
		Threshold:   f.threshold,
		MaxParallel: f.maxParallel,
	})
}

func newCheckCmd(cfg *config.Config) *cobra.Command {
	var flags engineFlags
	var refPath, livePath, outPath string
	var top int
	var asJSON, failOnDrift bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Score one batch against a reference dataset",
		Long: `Build reference profiles from one file and score a second file
against them, feature by feature.

Example: driftwatch check --ref train.csv --live today.csv --algo psi --threshold 0.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), flags, refPath, livePath, outPath, top, asJSON, failOnDrift)
		},
	}

	flags.register(cmd, cfg.Check)
	cmd.Flags().StringVar(&refPath, "ref", "", "Reference dataset (csv or xlsx)")
	cmd.Flags().StringVar(&livePath, "live", "", "Comparison dataset (csv or xlsx)")
	cmd.Flags().StringVar(&outPath, "out", "", "Write a markdown report to this path")
	cmd.Flags().IntVar(&top, "top", 5, "How many top features to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result set as JSON")
	cmd.Flags().BoolVar(&failOnDrift, "fail-on-drift", false, "Exit non-zero when any feature drifts")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("live")

	return cmd
}

func runCheck(ctx context.Context, flags engineFlags, refPath, livePath, outPath string, top int, asJSON, failOnDrift bool) error {
	checker, err := flags.checker()
	if err != nil {
		return err
	}

	refFrame, err := frame.NewFileReader(refPath).ReadFrame(flags.timeColumn)
	if err != nil {
		return fmt.Errorf("failed to load reference: %w", err)
	}
	liveFrame, err := frame.NewFileReader(livePath).ReadFrame(flags.timeColumn)
	if err != nil {
		return fmt.Errorf("failed to load comparison: %w", err)
	}

	if err := checker.BuildReference(ctx, refFrame, flags.features...); err != nil {
		return err
	}

	set, err := checker.Check(ctx, liveFrame)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(set, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printResultSet(set, top)
	}

	if outPath != "" {
		doc := report.NewMarkdown().RenderResultSet(*set)
		if err := os.WriteFile(outPath, doc, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("\nReport written to %s\n", outPath)
	}

	if set.Errored {
		return fmt.Errorf("no features could be scored")
	}
	if failOnDrift && set.AnyDrift() {
		return fmt.Errorf("drift detected in %d features", set.DriftCount())
	}
	return nil
}

func newWatchCmd(cfg *config.Config) *cobra.Command {
	var flags engineFlags
	var refPath, streamPath string
	var window, multiDrift int
	var freq string
	var refresh bool
	var logPath, logFormat, metricsAddr string
	var outPath, reportPath, excelPath string

	defaultMetricsAddr := ""
	if cfg.Metrics.Enabled {
		defaultMetricsAddr = cfg.Metrics.Addr
	}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Roll a stream through windows and alert on drift",
		Long: `Partition a stream into windows, score each window against the
reference, dispatch alerts through the configured sinks and print the
cumulative recap.

Sinks are configured through the environment (SLACK_WEBHOOK_URL,
KAFKA_BROKERS, ALERT_LOG_PATH, DATABASE_URL) or overridden by flags.

Example: driftwatch watch --ref train.csv --stream events.csv --window 500
Example: driftwatch watch --ref train.csv --stream events.csv --time-column ts --freq day`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cfg, watchParams{
				engine:      flags,
				refPath:     refPath,
				streamPath:  streamPath,
				window:      window,
				freq:        freq,
				refresh:     refresh,
				multiDrift:  multiDrift,
				logPath:     logPath,
				logFormat:   logFormat,
				metricsAddr: metricsAddr,
				outPath:     outPath,
				reportPath:  reportPath,
				excelPath:   excelPath,
			})
		},
	}

	flags.register(cmd, cfg.Check)
	cmd.Flags().StringVar(&refPath, "ref", "", "Reference dataset (csv or xlsx)")
	cmd.Flags().StringVar(&streamPath, "stream", "", "Stream dataset to window and score")
	cmd.Flags().IntVar(&window, "window", cfg.Monitor.Window, "Rows per window (cap per bucket with --freq)")
	cmd.Flags().StringVar(&freq, "freq", cfg.Monitor.Frequency, "Calendar windows: hour|day|week|month")
	cmd.Flags().BoolVar(&refresh, "refresh-reference", cfg.Monitor.RefreshReference, "Score each window against the previous one")
	cmd.Flags().IntVar(&multiDrift, "multi-drift", cfg.Monitor.MultiDrift, "Drifting features needed to escalate severity")
	cmd.Flags().StringVar(&logPath, "log-path", cfg.Alert.LogPath, "Append alerts to this file")
	cmd.Flags().StringVar(&logFormat, "log-format", cfg.Alert.LogFormat, "Alert log format: jsonl|csv")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", defaultMetricsAddr, "Serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the recap as JSON to this path")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the recap as markdown to this path")
	cmd.Flags().StringVar(&excelPath, "excel", "", "Write the recap as a workbook to this path")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("stream")

	return cmd
}

type watchParams struct {
	engine      engineFlags
	refPath     string
	streamPath  string
	window      int
	freq        string
	refresh     bool
	multiDrift  int
	logPath     string
	logFormat   string
	metricsAddr string
	outPath     string
	reportPath  string
	excelPath   string
}

func runWatch(ctx context.Context, cfg *config.Config, p watchParams) error {
	frequency, err := drift.ParseFrequency(p.freq)
	if err != nil {
		return err
	}

	checker, err := p.engine.checker()
	if err != nil {
		return err
	}

	refFrame, err := frame.NewFileReader(p.refPath).ReadFrame(p.engine.timeColumn)
	if err != nil {
		return fmt.Errorf("failed to load reference: %w", err)
	}
	streamFrame, err := frame.NewFileReader(p.streamPath).ReadFrame(p.engine.timeColumn)
	if err != nil {
		return fmt.Errorf("failed to load stream: %w", err)
	}

	if err := checker.BuildReference(ctx, refFrame, p.engine.features...); err != nil {
		return err
	}

	sinks, cleanup, err := buildSinks(cfg, p)
	if err != nil {
		return err
	}
	defer cleanup()

	var reg *prometheus.Registry
	if p.metricsAddr != "" {
		reg = prometheus.NewRegistry()
		sinks = append(sinks, sink.NewPrometheus(reg))
	}

	monitor, err := app.NewMonitorService(checker, app.NewDispatchService(sinks...), app.MonitorOptions{
		Window:           p.window,
		Frequency:        frequency,
		RefreshReference: p.refresh,
		MultiDrift:       p.multiDrift,
	})
	if err != nil {
		return err
	}

	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: history disabled, database unreachable: %v\n", err)
		} else {
			defer db.Close()
			monitor.WithHistory(postgres.NewHistoryRepository(db))
		}
	}

	if p.metricsAddr != "" {
		go serveMetrics(p.metricsAddr, reg)
	}

	run, err := monitor.Run(ctx, streamFrame)
	if err != nil {
		return err
	}

	printRun(run)

	if p.outPath != "" && run.Recap != nil {
		data, err := json.MarshalIndent(run.Recap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal recap: %w", err)
		}
		if err := os.WriteFile(p.outPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write recap: %w", err)
		}
		fmt.Printf("Recap written to %s\n", p.outPath)
	}
	if run.Recap != nil {
		if err := writeRecapReports(run.Recap, p.reportPath, "", p.excelPath); err != nil {
			return err
		}
	}

	if p.metricsAddr != "" {
		fmt.Printf("\nServing metrics on %s (ctrl-c to exit)\n", p.metricsAddr)
		waitCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		<-waitCtx.Done()
	}

	if !run.Success {
		return fmt.Errorf("monitoring run finished with errors")
	}
	return nil
}

// buildSinks assembles the delivery sinks; file logging comes from the
// flags (already config-defaulted), webhook and broker sinks from config
func buildSinks(cfg *config.Config, p watchParams) ([]ports.AlertSink, func(), error) {
	var sinks []ports.AlertSink
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if p.logPath != "" {
		logSink, err := sink.NewLogFile(p.logPath, p.logFormat)
		if err != nil {
			return nil, cleanup, err
		}
		sinks = append(sinks, logSink)
	}

	if cfg.Alert.SlackWebhookURL != "" {
		slackSink, err := sink.NewSlack(cfg.Alert.SlackWebhookURL, cfg.Alert.SlackChannel, cfg.Alert.SlackTimeout)
		if err != nil {
			return nil, cleanup, err
		}
		sinks = append(sinks, slackSink)
	}

	if len(cfg.Alert.KafkaBrokers) > 0 {
		kafkaSink, err := sink.NewKafka(cfg.Alert.KafkaBrokers, cfg.Alert.KafkaTopic)
		if err != nil {
			return nil, cleanup, err
		}
		sinks = append(sinks, kafkaSink)
		closers = append(closers, func() { _ = kafkaSink.Close() })
	}

	return sinks, cleanup, nil
}

// serveMetrics exposes the Prometheus registry plus a health probe
func serveMetrics(addr string, reg *prometheus.Registry) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		fmt.Fprintf(os.Stderr, "Metrics server failed: %v\n", err)
	}
}

func newRecapCmd() *cobra.Command {
	var htmlPath, excelPath, outPath string

	cmd := &cobra.Command{
		Use:   "recap [recap.json]",
		Short: "Render a saved recap as markdown, HTML or a workbook",
		Long: `Render the JSON recap written by watch --out into human-readable
reports.

Example: driftwatch recap recap.json --html recap.html --excel recap.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecap(args[0], outPath, htmlPath, excelPath)
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Write markdown to this path instead of stdout")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Write an HTML rendering to this path")
	cmd.Flags().StringVar(&excelPath, "excel", "", "Write a workbook to this path")

	return cmd
}

func runRecap(recapPath, outPath, htmlPath, excelPath string) error {
	data, err := os.ReadFile(recapPath)
	if err != nil {
		return fmt.Errorf("failed to read recap: %w", err)
	}

	var recap drift.Recap
	if err := json.Unmarshal(data, &recap); err != nil {
		return fmt.Errorf("failed to parse recap: %w", err)
	}

	if outPath == "" && htmlPath == "" && excelPath == "" {
		fmt.Print(string(report.NewMarkdown().RenderRecap(&recap)))
		return nil
	}
	if outPath != "" {
		doc := report.NewMarkdown().RenderRecap(&recap)
		if err := os.WriteFile(outPath, doc, 0644); err != nil {
			return fmt.Errorf("failed to write markdown: %w", err)
		}
		fmt.Printf("Markdown written to %s\n", outPath)
	}
	return writeRecapReports(&recap, "", htmlPath, excelPath)
}

// writeRecapReports renders the optional report outputs
func writeRecapReports(recap *drift.Recap, mdPath, htmlPath, excelPath string) error {
	md := report.NewMarkdown()

	if mdPath != "" {
		if err := os.WriteFile(mdPath, md.RenderRecap(recap), 0644); err != nil {
			return fmt.Errorf("failed to write markdown: %w", err)
		}
		fmt.Printf("Markdown written to %s\n", mdPath)
	}
	if htmlPath != "" {
		if err := os.WriteFile(htmlPath, md.HTML(md.RenderRecap(recap)), 0644); err != nil {
			return fmt.Errorf("failed to write HTML: %w", err)
		}
		fmt.Printf("HTML written to %s\n", htmlPath)
	}
	if excelPath != "" {
		if err := report.NewExcel().WriteRecap(excelPath, recap); err != nil {
			return err
		}
		fmt.Printf("Workbook written to %s\n", excelPath)
	}
	return nil
}

func newCompareCmd() *cobra.Command {
	var regressionsOnly bool

	cmd := &cobra.Command{
		Use:   "compare [before.json] [after.json]",
		Short: "Diff two saved result sets feature by feature",
		Long: `Compare two result sets written by check --json, largest score
movement first.

Example: driftwatch compare monday.json friday.json --regressions`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(args[0], args[1], regressionsOnly)
		},
	}

	cmd.Flags().BoolVar(&regressionsOnly, "regressions", false, "Only features that newly crossed their threshold")
	return cmd
}

func runCompare(beforePath, afterPath string, regressionsOnly bool) error {
	before, err := loadResultSet(beforePath)
	if err != nil {
		return err
	}
	after, err := loadResultSet(afterPath)
	if err != nil {
		return err
	}

	svc := app.NewCompareService()
	var deltas []drift.ScoreDelta
	if regressionsOnly {
		deltas = svc.Regressions(*before, *after)
	} else {
		deltas = svc.Compare(*before, *after)
	}

	fmt.Printf("\n=== RUN COMPARISON ===\n")
	fmt.Printf("Before: %s | After: %s | Shared features: %d\n\n", before.RunID, after.RunID, len(deltas))

	if len(deltas) == 0 {
		fmt.Println("Nothing to compare.")
		return nil
	}

	for _, d := range deltas {
		arrow := "→"
		switch d.Trend {
		case drift.TrendUp:
			arrow = "↑"
		case drift.TrendDown:
			arrow = "↓"
		}
		note := ""
		if d.BecameDrifting {
			note = "  🚨 newly drifting"
		} else if d.ClearedDrifting {
			note = "  ✅ recovered"
		}
		fmt.Printf("%s %-24s %.4f → %.4f  (%+.4f)%s\n", arrow, d.Feature, d.Before, d.After, d.Delta, note)
	}
	return nil
}

func loadResultSet(path string) (*drift.DriftResultSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result set: %w", err)
	}
	var set drift.DriftResultSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &set, nil
}

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query persisted drift runs (requires DATABASE_URL)",
	}

	runCmd := &cobra.Command{
		Use:   "run [run-id]",
		Short: "Show one stored result set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			svc, closeDB, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			set, err := svc.Run(cmd.Context(), runID)
			if err != nil {
				return err
			}
			printResultSet(set, 5)
			return nil
		},
	}

	var limit, sinceDays int
	featureCmd := &cobra.Command{
		Use:   "feature [name]",
		Short: "Show a feature's recent scores and drift rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer closeDB()
			return runFeatureHistory(cmd.Context(), svc, args[0], limit, sinceDays)
		},
	}
	featureCmd.Flags().IntVar(&limit, "limit", 20, "How many recent scores to show")
	featureCmd.Flags().IntVar(&sinceDays, "since-days", 30, "Lookback window for the drift rate")

	cmd.AddCommand(runCmd, featureCmd)
	return cmd
}

func openHistory(cfg *config.Config) (*app.HistoryService, func(), error) {
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is not configured")
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	svc, err := app.NewHistoryService(postgres.NewHistoryRepository(db))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return svc, func() { _ = db.Close() }, nil
}

func runFeatureHistory(ctx context.Context, svc *app.HistoryService, feature string, limit, sinceDays int) error {
	timeline, err := svc.Timeline(ctx, feature, limit)
	if err != nil {
		return err
	}
	since := core.NewTimestamp(time.Now().AddDate(0, 0, -sinceDays))
	standing, err := svc.Standing(ctx, feature, since)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== FEATURE HISTORY: %s ===\n", feature)
	fmt.Printf("Latest: %.4f | Trend: %s\n", timeline.Latest, timeline.Trend)
	fmt.Printf("Drift rate (last %d days): %.2f [%s]\n\n", sinceDays, standing.DriftRate, standing.Health)

	for _, r := range timeline.Scores {
		marker := "  "
		if r.Drift {
			marker = "🚨"
		}
		fmt.Printf("%s %s  %.4f  (%s)\n", marker, r.ScoredAt, r.Score, r.Band)
	}
	return nil
}

func newDemoCmd(cfg *config.Config) *cobra.Command {
	var rows int
	var seed uint64
	var shift float64
	var dir string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate synthetic payment data and run a drift check on it",
		Long: `Write a reference file and a drifted live file of synthetic payment
events, then score them through the full pipeline.

Example: driftwatch demo --rows 1000 --shift 0.8 --dir ./demo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), cfg, rows, seed, shift, dir)
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 1000, "Rows in the reference dataset")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "Random seed for deterministic generation")
	cmd.Flags().Float64Var(&shift, "shift", 0.8, "Mean shift applied to the live amounts")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write the demo files into")

	return cmd
}

func runDemo(ctx context.Context, cfg *config.Config, rows int, seed uint64, shift float64, dir string) error {
	gcfg := testkit.DefaultStreamConfig()
	gcfg.Seed = seed

	refFrame := testkit.NewFrameGenerator(gcfg).PaymentsFrame(rows)
	gcfg.Seed = seed + 1
	liveFrame := testkit.NewFrameGenerator(gcfg).ShiftedPayments(rows/2, shift)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create demo dir: %w", err)
	}

	refPath := filepath.Join(dir, "reference.csv")
	livePath := filepath.Join(dir, "live.csv")
	if err := writeFrameCSV(refPath, refFrame); err != nil {
		return err
	}
	if err := writeFrameCSV(livePath, liveFrame); err != nil {
		return err
	}
	fmt.Printf("Demo data written: %s, %s\n", refPath, livePath)

	flags := engineFlags{
		algo:        cfg.Check.Metric,
		threshold:   cfg.Check.Threshold,
		bins:        cfg.Check.Bins,
		strategy:    cfg.Check.Strategy,
		floor:       cfg.Check.Floor,
		maxParallel: cfg.Check.MaxParallel,
		timeColumn:  "event_time",
	}
	return runCheck(ctx, flags, refPath, livePath, "", 5, false, false)
}

// writeFrameCSV dumps the payments fixture in the layout the reader expects
func writeFrameCSV(path string, f *frame.MemoryFrame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"event_time", "amount", "country"}); err != nil {
		return err
	}

	amounts, _ := f.Column("amount")
	countries, _ := f.Column("country")
	times := f.Times()
	for i := 0; i < f.NumRows(); i++ {
		record := []string{
			times[i].Format(time.RFC3339),
			strconv.FormatFloat(amounts.Floats()[i], 'f', 2, 64),
			countries.Labels()[i],
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

// printResultSet renders one check outcome to the terminal
func printResultSet(set *drift.DriftResultSet, top int) {
	fmt.Printf("\n=== DRIFT CHECK RESULTS ===\n")
	fmt.Printf("Run ID: %s\n", set.RunID)
	fmt.Printf("Method: %s | Threshold: %.2f\n", set.Method, set.Threshold)

	scored := set.Scored()
	fmt.Printf("Scored: %d features | Drifting: %d\n\n", len(scored), set.DriftCount())

	for _, r := range scored {
		marker := "  "
		if r.Drift {
			marker = "🚨"
		}
		fmt.Printf("%s %-24s %.4f  (%s, n=%d)\n", marker, r.Feature, r.Score, r.Band, r.SampleSize)
	}

	if missing := set.MissingFeatures(); len(missing) > 0 {
		fmt.Printf("\n⚠️  NOT SCORED:\n")
		for _, name := range missing {
			fmt.Printf("   %s: %s\n", name, set.Results[name].Reason)
		}
	}

	if topFeatures := set.TopFeatures(top); len(topFeatures) > 0 {
		fmt.Printf("\n=== TOP FEATURES ===\n")
		for i, r := range topFeatures {
			fmt.Printf("%d. %s (%.4f)\n", i+1, r.Feature, r.Score)
		}
	}

	if set.Errored {
		fmt.Printf("\n❌ NO FEATURES COULD BE SCORED\n")
	} else if set.AnyDrift() {
		fmt.Printf("\n🚨 DRIFT DETECTED\n")
	} else {
		fmt.Printf("\n✅ NO DRIFT DETECTED\n")
	}
}

// printRun renders a full monitoring run to the terminal
func printRun(run *app.MonitorRun) {
	fmt.Printf("\n=== MONITORING RUN %s ===\n", run.RunID)
	fmt.Printf("Windows: %d | Runtime: %d ms | Success: %t\n\n", len(run.Windows), run.RuntimeMs, run.Success)

	for _, w := range run.Windows {
		marker := "✅"
		if w.Results.Errored {
			marker = "❌"
		} else if w.Results.AnyDrift() {
			marker = "🚨"
		}
		fmt.Printf("%s %s: %d drifting\n", marker, w.Window, w.Results.DriftCount())
	}

	if run.Recap == nil {
		return
	}

	fmt.Printf("\n=== RECAP ===\n")
	fmt.Printf("Health: %s | Drift events: %d | Overall rate: %.2f\n",
		run.Recap.Health, run.Recap.DriftEvents, run.Recap.OverallDriftRate)
	for _, f := range run.Recap.Features {
		fmt.Printf("  %-24s rate %.2f  avg %.4f  latest %.4f  trend %s\n",
			f.Feature, f.DriftRate, f.AvgScore, f.LatestScore, f.Trend)
	}
	if len(run.Recap.TopConcerns) > 0 {
		fmt.Printf("\nTop concerns:\n")
		for i, c := range run.Recap.TopConcerns {
			fmt.Printf("%d. %s (drifted %d/%d windows)\n", i+1, c.Feature, c.DriftPeriods, c.Periods)
		}
	}
}

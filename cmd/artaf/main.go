// Command artaf downloads historical Terminal Aerodrome Forecasts, parses
// them, and aggregates hourly forecast-revision histograms per station.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/ohaynold/artaf/internal/adapter/http"
	kafkaadapter "github.com/ohaynold/artaf/internal/adapter/kafka"
	"github.com/ohaynold/artaf/internal/archive"
	"github.com/ohaynold/artaf/internal/config"
	"github.com/ohaynold/artaf/internal/histogram"
	"github.com/ohaynold/artaf/internal/observability"
	"github.com/ohaynold/artaf/internal/pipeline"
	"github.com/ohaynold/artaf/internal/station"
	"github.com/ohaynold/artaf/internal/store"
	"github.com/ohaynold/artaf/internal/taf"
)

type cli struct {
	Stations stationsCmd `cmd:"" help:"Fetch and cache the list of TAF-issuing stations."`
	Fetch    fetchCmd    `cmd:"" help:"Download TAF archives for a year range into the local store."`
	Run      runCmd      `cmd:"" help:"Run the histogram analysis over cached TAFs."`
}

// app carries the shared dependencies every command needs.
type app struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

type stationsCmd struct {
	Force bool `help:"Refetch even if the station list file already exists."`
}

func (c *stationsCmd) Run(a *app) error {
	if !c.Force {
		if stations, err := station.LoadList(a.cfg.StationsPath); err == nil {
			a.logger.Info("station list already cached",
				"path", a.cfg.StationsPath, "stations", len(stations))
			return nil
		}
	}

	client := &http.Client{Timeout: a.cfg.DownloadTimeout}
	stations, err := station.FetchList(a.ctx, client, a.cfg.StationListURL)
	if err != nil {
		return fmt.Errorf("fetch station list: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.StationsPath), 0o755); err != nil {
		return err
	}
	if err := station.SaveList(a.cfg.StationsPath, stations); err != nil {
		return fmt.Errorf("save station list: %w", err)
	}
	a.logger.Info("station list saved", "path", a.cfg.StationsPath, "stations", len(stations))
	return nil
}

type fetchCmd struct {
	FromYear int      `arg:"" help:"First year to download, inclusive."`
	ToYear   int      `arg:"" help:"Last year to download, inclusive."`
	Stations []string `help:"Restrict to these station IDs (default: all listed stations)."`
	Force    bool     `help:"Redownload years already marked complete in the store."`
}

func (c *fetchCmd) Run(a *app) error {
	stations, err := loadStations(a.cfg, c.Stations)
	if err != nil {
		return err
	}

	st, err := openStore(a.cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	client := archive.NewClient(a.cfg.ArchiveURL, a.cfg.DownloadTimeout, a.logger, a.metrics)
	dl := archive.NewDownloader(client, st, a.logger, a.metrics, clockwork.NewRealClock())
	return dl.Download(a.ctx, stations, c.FromYear, c.ToYear, c.Force)
}

type runCmd struct {
	FromYear     int      `arg:"" help:"First year to analyze, inclusive."`
	ToYear       int      `arg:"" help:"Last year to analyze, inclusive."`
	Stations     []string `help:"Restrict to these station IDs (default: all listed stations)."`
	Workers      int      `help:"Concurrent station workers (default: ARTAF_WORKERS)."`
	DropMisfiled bool     `help:"Exclude misfiled TAFs from statistics instead of only flagging them."`
	Serve        bool     `help:"Expose health and metrics over HTTP while the run is active."`
}

func (c *runCmd) Run(a *app) error {
	stations, err := loadStations(a.cfg, c.Stations)
	if err != nil {
		return err
	}
	ids := make([]string, len(stations))
	for i, s := range stations {
		ids[i] = s.ID
	}

	st, err := openStore(a.cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	jobs := histogram.DefaultJobs()
	p := pipeline.New(taf.NewParser(), st, jobs, a.logger, a.metrics)
	p.DropMisfiled = c.DropMisfiled

	if c.Serve {
		srv := httpadapter.NewServer(a.cfg.HTTPAddr, p, a.logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	var publisher pipeline.Publisher
	if a.cfg.KafkaEnabled {
		kw := kafkaadapter.NewWriter(a.cfg, a.logger)
		defer func() {
			if err := kw.Close(); err != nil {
				a.logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = kw
		a.logger.Info("kafka publishing enabled",
			"brokers", a.cfg.KafkaBrokers, "topic", a.cfg.KafkaTopic)
	}

	for _, dir := range []string{a.cfg.OutputDir(), a.cfg.LogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	errorLog := filepath.Join(a.cfg.LogDir(), "parse_errors.csv")
	sink, err := pipeline.NewOutputSink(a.cfg.OutputDir(), errorLog, jobs, publisher, a.logger)
	if err != nil {
		return err
	}

	workers := c.Workers
	if workers == 0 {
		workers = a.cfg.Workers
	}
	if err := p.Run(a.ctx, ids, c.FromYear, c.ToYear, workers, sink); err != nil {
		sink.Abort()
		return err
	}
	return sink.Close()
}

// loadStations reads the cached station list, optionally narrowed to ids.
func loadStations(cfg *config.Config, ids []string) ([]station.Station, error) {
	stations, err := station.LoadList(cfg.StationsPath)
	if err != nil {
		return nil, fmt.Errorf("load station list (run 'artaf stations' first): %w", err)
	}
	if len(ids) == 0 {
		return stations, nil
	}
	byID := make(map[string]station.Station, len(stations))
	for _, s := range stations {
		byID[s.ID] = s
	}
	selected := make([]station.Station, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown station %q", id)
		}
		selected = append(selected, s)
	}
	return selected, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	return store.Open(cfg.StorePath())
}

func main() {
	kctx := kong.Parse(&cli{},
		kong.Name("artaf"),
		kong.Description("Statistics of historical Terminal Aerodrome Forecasts."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&app{ctx: ctx, cfg: cfg, logger: logger, metrics: metrics})
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// Package pipeline assembles the TAF analysis stages — parse, regularize,
// window, aggregate — into per-station runs and fans them out over a worker
// pool.
package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/ohaynold/artaf/internal/histogram"
	"github.com/ohaynold/artaf/internal/hourly"
	"github.com/ohaynold/artaf/internal/observability"
	"github.com/ohaynold/artaf/internal/taf"
)

// MessageSource provides one station's raw messages, ascending by time.
// The store satisfies this.
type MessageSource interface {
	Messages(stationID string, fromYear, toYear int) ([]taf.RawMessage, error)
}

// progressEvery is how many hourly groups pass between progress messages.
const progressEvery = 10000

// Pipeline runs the full analysis. A single Pipeline is shared across
// workers; all per-station state lives in RunStation.
type Pipeline struct {
	parser  *taf.Parser
	source  MessageSource
	jobs    []histogram.Job
	logger  *slog.Logger
	metrics *observability.Metrics

	// DropMisfiled excludes forecasts filed under the wrong station from
	// that station's statistics rather than just flagging them.
	DropMisfiled bool

	ready atomic.Bool
}

// New creates a Pipeline over the given source and histogram jobs.
func New(parser *taf.Parser, source MessageSource, jobs []histogram.Job, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		parser:  parser,
		source:  source,
		jobs:    jobs,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the pipeline has produced at least one
// hourly group.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return fmt.Errorf("pipeline has not processed any groups yet")
	}
	return nil
}

// RunStation processes one station end-to-end for the inclusive year range,
// sending flush, progress, and error messages to out. The pipeline within a
// station is strictly sequential; parallelism happens across stations.
func (p *Pipeline) RunStation(ctx context.Context, stationID string, fromYear, toYear int, out chan<- Message) error {
	start := time.Now()

	msgs, err := p.source.Messages(stationID, fromYear, toYear)
	if err != nil {
		return fmt.Errorf("read station %s: %w", stationID, err)
	}

	keepers := make([]*histogram.Keeper, len(p.jobs))
	for i, job := range p.jobs {
		keepers[i] = histogram.NewKeeper(job, func(key []string, records []histogram.Record, jobName string) {
			out <- FlushMessage{
				Station:      stationID,
				Job:          jobName,
				AscendingKey: key,
				Records:      records,
			}
		})
	}

	parsed := p.parser.DecodeStream(countMessages(slices.Values(msgs), p.metrics))
	regularized := hourly.RegularizeStream(parsed)
	windower := &hourly.Windower{Aerodrome: stationID, DropMisfiled: p.DropMisfiled}

	processed, errorsSeen := 0, 0
	for gr := range windower.Window(regularized) {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch {
		case gr.Err != nil:
			errorsSeen++
			p.metrics.ParseErrors.Inc()
			out <- ErrorMessage{Station: stationID, Err: gr.Err}
		case gr.Group != nil:
			processed++
			p.metrics.GroupsWindowed.Inc()
			p.ready.Store(true)
			for _, k := range keepers {
				k.Process(gr.Group)
			}
			if processed%progressEvery == 0 {
				out <- ProgressMessage{Station: stationID, Processed: processed, Errors: errorsSeen}
			}
		default:
			panic("pipeline: windower result carries neither group nor error")
		}
	}

	for _, k := range keepers {
		k.Flush()
	}
	out <- ProgressMessage{Station: stationID, Processed: processed, Errors: errorsSeen}

	p.metrics.StationsCompleted.Inc()
	p.metrics.StationDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("station complete",
		"station", stationID,
		"groups", processed,
		"errors", errorsSeen,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// countMessages passes the raw message stream through while counting it.
func countMessages(in iter.Seq[taf.RawMessage], metrics *observability.Metrics) iter.Seq[taf.RawMessage] {
	return func(yield func(taf.RawMessage) bool) {
		for msg := range in {
			metrics.TafsParsed.Inc()
			if !yield(msg) {
				return
			}
		}
	}
}

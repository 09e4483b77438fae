package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ohaynold/artaf/internal/observability"
	"github.com/ohaynold/artaf/internal/station"
	"github.com/ohaynold/artaf/internal/store"
)

// Downloader fills the local store with every station-year not yet cached.
type Downloader struct {
	client  *Client
	store   *store.Store
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewDownloader creates a Downloader. Pass clockwork.NewRealClock() outside
// of tests.
func NewDownloader(client *Client, st *store.Store, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Downloader {
	return &Downloader{client: client, store: st, logger: logger, metrics: metrics, clock: clock}
}

// Download ensures the inclusive year range is cached for every station.
// Only finished years can be downloaded: the archive back-fills for a couple
// of days, so a year is considered available from January 3 of the next
// year. With force set, cached station-years are fetched again.
func (d *Downloader) Download(ctx context.Context, stations []station.Station, fromYear, toYear int, force bool) error {
	if fromYear > toYear {
		return fmt.Errorf("invalid year range %d-%d", fromYear, toYear)
	}
	available := time.Date(toYear+1, time.January, 3, 0, 0, 0, 0, time.UTC)
	if d.clock.Now().UTC().Before(available) {
		return fmt.Errorf("year %d is not complete yet; yearly archives become available on %s",
			toYear, available.Format("2006-01-02"))
	}
	for _, s := range stations {
		if len(s.ID) != 4 {
			return fmt.Errorf("invalid station identifier %q", s.ID)
		}
	}

	downloaded := 0
	for year := fromYear; year <= toYear; year++ {
		for _, s := range stations {
			if err := ctx.Err(); err != nil {
				return err
			}
			cached, err := d.store.HasYear(s.ID, year)
			if err != nil {
				return err
			}
			if cached && !force {
				d.metrics.DownloadRequests.WithLabelValues("cached").Inc()
				continue
			}

			d.logger.Info("downloading TAFs", "station", s.ID, "year", year)
			data, err := d.client.FetchYear(ctx, s.PIL(), year)
			if err != nil {
				return err
			}
			msgs, err := parseArchive(data)
			if err != nil {
				return fmt.Errorf("station %s year %d: %w", s.ID, year, err)
			}
			if err := d.store.InsertMessages(s.ID, msgs); err != nil {
				return err
			}
			if err := d.store.MarkYear(s.ID, year); err != nil {
				return err
			}
			downloaded++
			d.logger.Debug("cached TAFs", "station", s.ID, "year", year, "messages", len(msgs))
		}
	}

	if downloaded > 0 {
		d.logger.Info("download complete", "station_years", downloaded)
	}
	return nil
}

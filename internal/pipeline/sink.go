package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ohaynold/artaf/internal/histogram"
	"github.com/ohaynold/artaf/internal/output"
)

// Publisher forwards completed histogram tables to an external system.
type Publisher interface {
	PublishFlush(ctx context.Context, m FlushMessage) error
}

// OutputSink writes flushed histogram tables to per-job archive files,
// appends parse errors to a review log, and reports progress to the logger.
// An optional Publisher additionally receives every flush.
type OutputSink struct {
	writers   map[string]*output.Writer
	errorFile *os.File
	errorCSV  *csv.Writer
	publisher Publisher
	logger    *slog.Logger
}

// NewOutputSink opens one output writer per job under dir and the parse
// error log at errorLogPath. publisher may be nil.
func NewOutputSink(dir, errorLogPath string, jobs []histogram.Job, publisher Publisher, logger *slog.Logger) (*OutputSink, error) {
	s := &OutputSink{
		writers:   make(map[string]*output.Writer, len(jobs)),
		publisher: publisher,
		logger:    logger,
	}
	for _, job := range jobs {
		ascending, other := job.FieldNames()
		w, err := output.NewWriter(dir, job.Name, ascending, other)
		if err != nil {
			s.Abort()
			return nil, err
		}
		s.writers[job.Name] = w
	}

	f, err := os.Create(errorLogPath)
	if err != nil {
		s.Abort()
		return nil, fmt.Errorf("open error log: %w", err)
	}
	s.errorFile = f
	s.errorCSV = csv.NewWriter(f)
	if err := s.errorCSV.Write([]string{"station", "error", "message"}); err != nil {
		s.Abort()
		return nil, fmt.Errorf("write error log header: %w", err)
	}
	return s, nil
}

// HandleFlush appends one completed table to its job's output file and, when
// a publisher is configured, forwards it.
func (s *OutputSink) HandleFlush(m FlushMessage) error {
	w, ok := s.writers[m.Job]
	if !ok {
		return fmt.Errorf("flush for unknown job %q", m.Job)
	}
	if err := w.WriteFlush(m.AscendingKey, m.Records); err != nil {
		return fmt.Errorf("job %s: %w", m.Job, err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishFlush(context.Background(), m); err != nil {
			return fmt.Errorf("publish job %s: %w", m.Job, err)
		}
	}
	return nil
}

// HandleError records one parse error for later review. Parse errors never
// stop the run.
func (s *OutputSink) HandleError(m ErrorMessage) error {
	return s.errorCSV.Write([]string{m.Station, m.Err.Detail, m.Err.Message})
}

// HandleProgress logs intermediate per-station counts.
func (s *OutputSink) HandleProgress(m ProgressMessage) {
	s.logger.Debug("station progress",
		"station", m.Station,
		"groups", m.Processed,
		"errors", m.Errors,
	)
}

// Close finishes every output file and the error log. Output files only
// reach their final names here.
func (s *OutputSink) Close() error {
	var errs []error
	for name, w := range s.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", name, err))
		}
	}
	if s.errorCSV != nil {
		s.errorCSV.Flush()
		if err := s.errorCSV.Error(); err != nil {
			errs = append(errs, fmt.Errorf("error log: %w", err))
		}
	}
	if s.errorFile != nil {
		if err := s.errorFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error log: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Abort discards all partial output.
func (s *OutputSink) Abort() {
	for _, w := range s.writers {
		w.Abort()
	}
	if s.errorFile != nil {
		s.errorFile.Close()
		os.Remove(s.errorFile.Name())
	}
}

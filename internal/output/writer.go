// Package output writes histogram result tables as single-file ZIP archives,
// one CSV per job.
package output

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ohaynold/artaf/internal/histogram"
)

// tmpSuffix marks in-progress files; Close renames them into place so a
// finished archive is always complete.
const tmpSuffix = "~"

// Writer streams one job's flush records into "hist <job>.csv.zip".
type Writer struct {
	path    string
	tmpPath string
	file    *os.File
	zw      *zip.Writer
	cw      *csv.Writer
	columns int
}

// NewWriter creates the output archive for a job and writes the CSV header.
// The header columns are the ascending key fields, the secondary group
// fields, then variable/previous/current/final/count.
func NewWriter(dir, jobName string, ascendingFields, otherFields []string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	name := "hist " + jobName + ".csv"
	path := filepath.Join(dir, name+".zip")

	f, err := os.Create(path + tmpSuffix)
	if err != nil {
		return nil, fmt.Errorf("create output archive: %w", err)
	}
	zw := zip.NewWriter(f)
	inner, err := zw.Create(name)
	if err != nil {
		f.Close()
		return nil, err
	}
	cw := csv.NewWriter(inner)

	header := append(append([]string{}, ascendingFields...), otherFields...)
	header = append(header, "variable", "previous", "current", "final", "count")
	if err := cw.Write(header); err != nil {
		f.Close()
		return nil, err
	}

	return &Writer{
		path:    path,
		tmpPath: path + tmpSuffix,
		file:    f,
		zw:      zw,
		cw:      cw,
		columns: len(header),
	}, nil
}

// WriteFlush appends one flushed counts table under its ascending key.
func (w *Writer) WriteFlush(ascendingKey []string, records []histogram.Record) error {
	for _, rec := range records {
		row := append(append([]string{}, ascendingKey...), rec.Group...)
		row = append(row, rec.Value, rec.Previous, rec.Current, rec.Final, strconv.Itoa(rec.Count))
		if len(row) != w.columns {
			return fmt.Errorf("record has %d columns, header has %d", len(row), w.columns)
		}
		if err := w.cw.Write(row); err != nil {
			return err
		}
	}
	w.cw.Flush()
	return w.cw.Error()
}

// Close finalizes the archive and renames it into place. The output file
// appears under its final name only if everything succeeded.
func (w *Writer) Close() error {
	w.cw.Flush()
	err := w.cw.Error()
	if e := w.zw.Close(); err == nil {
		err = e
	}
	if e := w.file.Close(); err == nil {
		err = e
	}
	if err != nil {
		os.Remove(w.tmpPath)
		return err
	}
	return os.Rename(w.tmpPath, w.path)
}

// Abort discards the in-progress archive.
func (w *Writer) Abort() {
	w.zw.Close()
	w.file.Close()
	os.Remove(w.tmpPath)
}

var _ io.Closer = (*Writer)(nil)

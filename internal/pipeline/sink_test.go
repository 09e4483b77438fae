package pipeline_test

import (
	"archive/zip"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohaynold/artaf/internal/histogram"
	"github.com/ohaynold/artaf/internal/observability"
	"github.com/ohaynold/artaf/internal/pipeline"
	"github.com/ohaynold/artaf/internal/taf"
)

func newTestSink(t *testing.T) (*pipeline.OutputSink, string, string) {
	t.Helper()
	dir := t.TempDir()
	errorLog := filepath.Join(dir, "parse_errors.csv")
	sink, err := pipeline.NewOutputSink(dir, errorLog, speedJobs(), nil,
		observability.NewLogger("error", "text"))
	require.NoError(t, err)
	return sink, dir, errorLog
}

func readZippedCSV(t *testing.T, path string) [][]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)

	f, err := zr.File[0].Open()
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestOutputSink_WritesFlushes(t *testing.T) {
	sink, dir, _ := newTestSink(t)

	require.NoError(t, sink.HandleFlush(pipeline.FlushMessage{
		Station:      "KORD",
		Job:          "speed",
		AscendingKey: []string{"KORD", "2023"},
		Records: []histogram.Record{
			{Value: "wind_speed", Previous: "10", Current: "15", Final: "20", Count: 3},
		},
	}))
	require.NoError(t, sink.Close())

	rows := readZippedCSV(t, filepath.Join(dir, "hist speed.csv.zip"))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"aerodrome", "year", "variable", "previous", "current", "final", "count"}, rows[0])
	assert.Equal(t, []string{"KORD", "2023", "wind_speed", "10", "15", "20", "3"}, rows[1])
}

func TestOutputSink_RejectsUnknownJob(t *testing.T) {
	sink, _, _ := newTestSink(t)
	defer sink.Abort()

	err := sink.HandleFlush(pipeline.FlushMessage{Station: "KORD", Job: "nonexistent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job")
}

func TestOutputSink_RecordsParseErrors(t *testing.T) {
	sink, _, errorLog := newTestSink(t)

	require.NoError(t, sink.HandleError(pipeline.ErrorMessage{
		Station: "KORD",
		Err:     &taf.ParseError{Detail: "missing '=' message terminator", Message: "KORD truncated"},
	}))
	require.NoError(t, sink.Close())

	f, err := os.Open(errorLog)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"station", "error", "message"}, rows[0])
	assert.Equal(t, []string{"KORD", "missing '=' message terminator", "KORD truncated"}, rows[1])
}

func TestOutputSink_AbortLeavesNoOutputArchives(t *testing.T) {
	sink, dir, _ := newTestSink(t)

	require.NoError(t, sink.HandleFlush(pipeline.FlushMessage{
		Station:      "KORD",
		Job:          "speed",
		AscendingKey: []string{"KORD", "2023"},
		Records: []histogram.Record{
			{Value: "wind_speed", Previous: "10", Current: "15", Final: "20", Count: 1},
		},
	}))
	sink.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/ohaynold/artaf/internal/taf"
)

// productFileRe matches archived product filenames,
// e.g. "TAFORD_202401011740.txt".
var productFileRe = regexp.MustCompile(`^TAF[A-Z]{3}_(\d{4})(\d{2})(\d{2})(\d{2})(\d{2})\.txt$`)

// parseArchive extracts the raw messages from a downloaded ZIP, ascending by
// time. The archive occasionally includes a file twice; duplicates are
// skipped. A filename that does not match the product pattern is an error,
// since it means the upstream layout changed.
func parseArchive(data []byte) ([]taf.RawMessage, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open product archive: %w", err)
	}

	names := make([]string, 0, len(r.File))
	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
		files[f.Name] = f
	}
	sort.Strings(names)

	var msgs []taf.RawMessage
	var previous time.Time
	for _, name := range names {
		m := productFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("unexpected file %q in product archive", name)
		}
		t := time.Date(
			atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]),
			atoi(m[4]), atoi(m[5]), 0, 0, time.UTC)
		if !previous.IsZero() && !t.After(previous) {
			if t.Equal(previous) {
				continue
			}
			return nil, fmt.Errorf("product archive not in ascending time order at %q", name)
		}
		previous = t

		f, err := files[name].Open()
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", name, err)
		}
		msgs = append(msgs, taf.RawMessage{Time: t, Text: buf.String()})
	}
	return msgs, nil
}

// atoi converts digits already validated by productFileRe.
func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

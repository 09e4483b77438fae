// Package station manages the list of aerodromes to process. The list is
// pinned in a CSV config file for reproducibility and can be refreshed from
// the Iowa Environmental Mesonet TAF overview API.
package station

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Station describes one aerodrome for which TAFs are issued.
type Station struct {
	ID        string // 4-letter ICAO code
	Name      string
	Latitude  float64
	Longitude float64
	Center    string // issuing center, from the product identifier
}

var csvHeader = []string{"station", "name", "latitude", "longitude", "center"}

// LoadList reads the pinned station list, sorted by station ID.
func LoadList(path string) ([]Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open station list: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read station list: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("station list %s is empty", path)
	}

	stations := make([]Station, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("station list %s: malformed row %v", path, row)
		}
		lat, errLat := strconv.ParseFloat(row[2], 64)
		lon, errLon := strconv.ParseFloat(row[3], 64)
		if errLat != nil || errLon != nil {
			return nil, fmt.Errorf("station list %s: bad coordinates in row %v", path, row)
		}
		stations = append(stations, Station{
			ID:        row[0],
			Name:      row[1],
			Latitude:  lat,
			Longitude: lon,
			Center:    row[4],
		})
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].ID < stations[j].ID })
	return stations, nil
}

// SaveList writes the station list as CSV, sorted by station ID.
func SaveList(path string, stations []Station) error {
	sorted := make([]Station, len(stations))
	copy(sorted, stations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create station list: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range sorted {
		row := []string{
			s.ID, s.Name,
			strconv.FormatFloat(s.Latitude, 'g', -1, 64),
			strconv.FormatFloat(s.Longitude, 'g', -1, 64),
			s.Center,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// productIDRe extracts the originating center from a TAF product identifier,
// e.g. "202401010000-KOKC-FTUS44-TAFOKC".
var productIDRe = regexp.MustCompile(`\d{12}-([A-Z]{4})-[A-Z]{4}\d{2}-TAF([A-Z]{3})(-[A-Z]{3})?`)

type overviewResponse struct {
	Data []struct {
		Station   string  `json:"station"`
		Name      string  `json:"name"`
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
		ProductID string  `json:"product_id"`
	} `json:"data"`
}

// FetchList retrieves the current list of TAF stations from the Mesonet
// overview API. Sanity checks guard against drastic upstream changes: the
// station count must stay in a plausible range and KORD must be present.
func FetchList(ctx context.Context, client *http.Client, url string) ([]Station, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch station list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch station list: unexpected status %s", resp.Status)
	}

	var overview overviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&overview); err != nil {
		return nil, fmt.Errorf("decode station list: %w", err)
	}

	stations := make([]Station, 0, len(overview.Data))
	for _, d := range overview.Data {
		m := productIDRe.FindStringSubmatch(d.ProductID)
		if m == nil {
			return nil, fmt.Errorf("unexpected product identifier %q", d.ProductID)
		}
		stations = append(stations, Station{
			ID:        d.Station,
			// Station names come back with inconsistent capitalization;
			// normalize to uppercase.
			Name:      strings.ToUpper(d.Name),
			Latitude:  d.Lat,
			Longitude: d.Lon,
			Center:    m[1],
		})
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].ID < stations[j].ID })

	if len(stations) <= 650 || len(stations) >= 750 {
		return nil, fmt.Errorf("implausible station count %d", len(stations))
	}
	if !slicesContainsID(stations, "KORD") {
		return nil, fmt.Errorf("station list is missing KORD")
	}
	return stations, nil
}

func slicesContainsID(stations []Station, id string) bool {
	for _, s := range stations {
		if s.ID == id {
			return true
		}
	}
	return false
}

// PIL returns the AFOS product identifier under which a station's TAFs are
// archived, e.g. "TAFORD" for KORD.
func (s Station) PIL() string {
	return "TAF" + s.ID[len(s.ID)-3:]
}

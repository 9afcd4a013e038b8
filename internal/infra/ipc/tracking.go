package ipc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/country"
	"foodsecurity-charts/internal/infra/fetcher"
	"foodsecurity-charts/internal/observability/logging"
	"foodsecurity-charts/internal/utils/latest"
)

// trackingColumnCount is the number of leading columns read from the export.
const trackingColumnCount = 39

// ErrTrackingUnavailable is returned when the tracking tool export cannot be downloaded.
var ErrTrackingUnavailable = errors.New("could not read data from IPC")

// trackingRenames maps the export headers (deduplicated with ".N" suffixes) to field names.
var trackingRenames = map[string]string{
	"#":    "area_population_current",
	"#.1":  "number_phase1_current",
	"#.2":  "number_phase2_current",
	"#.3":  "number_phase3_current",
	"#.4":  "number_phase4_current",
	"#.5":  "number_phase5_current",
	"#.6":  "number_phase3plus_current",
	"#.7":  "area_population_proj",
	"#.8":  "number_phase1_proj",
	"#.9":  "number_phase2_proj",
	"#.10": "number_phase3_proj",
	"#.11": "number_phase4_proj",
	"#.12": "number_phase5_proj",
	"#.13": "number_phase3plus_proj",
	"%":    "pct_phase1_current",
	"%.1":  "pct_phase2_current",
	"%.2":  "pct_phase3_current",
	"%.3":  "pct_phase4_current",
	"%.4":  "pct_phase5_current",
	"%.5":  "pct_phase3plus_current",
	"%.6":  "pct_phase1_proj",
	"%.7":  "pct_phase2_proj",
	"%.8":  "pct_phase3_proj",
	"%.9":  "pct_phase4_proj",
	"%.10": "pct_phase5_proj",
	"%.11": "pct_phase3plus_proj",
}

// TrackingNumberColumns lists the current-period phase counts, in output order.
var TrackingNumberColumns = []string{
	"number_phase1_current",
	"number_phase2_current",
	"number_phase3_current",
	"number_phase4_current",
	"number_phase5_current",
	"number_phase3plus_current",
}

// subNationalNames resolve to a country but describe a single area.
var subNationalNames = map[string]struct{}{
	"Kinshasa":       {},
	"Djibouti Ville": {},
	"Somali":         {},
	"Gaza":           {},
}

var trackingDateLayouts = []string{"Jan 2006", "January 2006", "2006-01-02", "02/01/2006", "1/2/2006", "2006-01"}

// TrackingReader reads the population tracking tool export.
type TrackingReader struct {
	url        string
	downloader *fetcher.Downloader
	countries  CountryResolver
}

// NewTrackingReader creates a reader for the export at url.
func NewTrackingReader(url string, downloader *fetcher.Downloader, countries CountryResolver) *TrackingReader {
	return &TrackingReader{url: url, downloader: downloader, countries: countries}
}

// LatestCountry returns the latest national analysis per country.
func (r *TrackingReader) LatestCountry(ctx context.Context) ([]entity.TrackingRow, error) {
	body, err := r.downloader.Get(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrackingUnavailable, err)
	}
	rows, err := ParseTracking(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	out := LatestNational(rows, r.countries)
	logging.FromContext(ctx).Info("ipc tracking tool loaded",
		slog.Int("rows", len(rows)),
		slog.Int("countries", len(out)))
	return out, nil
}

// ParseTracking parses the first sheet of the export. The header row is the first row
// carrying both "Country" and "Date of Analysis"; rows without a parsable date are dropped.
func ParseTracking(src io.Reader) ([]entity.TrackingRow, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidResponse)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	header := -1
	for i, row := range rows {
		if contains(row, "Country") && contains(row, "Date of Analysis") {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, fmt.Errorf("%w: tracking header not found", ErrInvalidResponse)
	}

	index := dedupeHeader(rows[header])
	var out []entity.TrackingRow
	for _, rec := range rows[header+1:] {
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		date, ok := parseTrackingDate(get("Date of Analysis"))
		if !ok {
			continue
		}
		row := entity.TrackingRow{
			Country:        get("Country"),
			Area:           get("Area"),
			AnalysisName:   get("Analysis Name"),
			Date:           date,
			AnalysisPeriod: get("Analysis Period"),
			AreaPhase:      get("Area Phase"),
			Numbers:        make(map[string]entity.NullFloat, len(trackingRenames)),
		}
		row.PctOfPopulationAnalyzed, _ = entity.ParseNullFloat(get("% of total county Pop"))
		for raw, name := range trackingRenames {
			v, err := entity.ParseNullFloat(get(raw))
			if err != nil {
				v = entity.None()
			}
			row.Numbers[name] = v
		}
		out = append(out, row)
	}
	return out, nil
}

// LatestNational keeps national rows of resolvable countries at their latest analysis
// date and drops duplicated phase counts.
func LatestNational(rows []entity.TrackingRow, countries CountryResolver) []entity.TrackingRow {
	var national []entity.TrackingRow
	for _, r := range rows {
		if strings.Contains(r.Country, "Afar/Amh/Tigray") {
			continue
		}
		r.Country = strings.TrimSpace(strings.SplitN(r.Country, ":", 2)[0])
		if r.Area != "" {
			continue
		}
		national = append(national, r)
	}

	names := make([]string, len(national))
	for i, r := range national {
		names[i] = r.Country
	}
	codes, _ := countries.Harmonize("ipc_tracking", names)

	var resolved []entity.TrackingRow
	for i, r := range national {
		if codes[i] == country.NotFound {
			continue
		}
		if _, sub := subNationalNames[r.Country]; sub {
			continue
		}
		r.ISOCode = codes[i]
		resolved = append(resolved, r)
	}

	newest := latest.SelectTime(resolved,
		func(r entity.TrackingRow) string { return r.Country },
		func(r entity.TrackingRow) time.Time { return r.Date })

	seen := make(map[string]struct{}, len(newest))
	out := make([]entity.TrackingRow, 0, len(newest))
	for _, r := range newest {
		key := dedupeKey(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func dedupeKey(r entity.TrackingRow) string {
	var b strings.Builder
	b.WriteString(r.Country)
	b.WriteByte('|')
	b.WriteString(r.Date.Format(time.DateOnly))
	for _, col := range TrackingNumberColumns {
		b.WriteByte('|')
		b.WriteString(r.Numbers[col].String())
	}
	return b.String()
}

// dedupeHeader indexes the first trackingColumnCount headers, suffixing repeats with
// ".1", ".2", ... in order of appearance.
func dedupeHeader(header []string) map[string]int {
	index := make(map[string]int, len(header))
	counts := make(map[string]int)
	for i, h := range header {
		if i >= trackingColumnCount {
			break
		}
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		name := h
		if n := counts[h]; n > 0 {
			name = h + "." + strconv.Itoa(n)
		}
		counts[h]++
		index[name] = i
	}
	return index
}

func parseTrackingDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range trackingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func contains(row []string, want string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) == want {
			return true
		}
	}
	return false
}

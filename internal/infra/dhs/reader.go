// Package dhs reads Demographic and Health Surveys indicator exports from STATcompiler.
//
// STATcompiler has no public bulk endpoint, so the export is staged manually under the
// raw data directory.
package dhs

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/country"
	"foodsecurity-charts/internal/infra/fetcher"
	"foodsecurity-charts/internal/observability/logging"
)

// StagedFileName is the export name under the raw data directory.
const StagedFileName = "dhs_statcompiler.csv"

// TotalLabel marks national totals in the Characteristic Label column.
const TotalLabel = "Total"

// ErrInvalidFormat is returned for exports missing required columns.
var ErrInvalidFormat = errors.New("invalid DHS export")

var requiredColumns = []string{"Country Name", "Survey Year", "Indicator", "Value"}

// CountryResolver converts country names to ISO3 codes.
type CountryResolver interface {
	Harmonize(source string, names []string) (codes []string, unmatched []string)
}

// Reader loads the staged export.
type Reader struct {
	path       string
	downloader *fetcher.Downloader
	countries  CountryResolver
}

// NewReader creates a reader for {rawDataDir}/dhs_statcompiler.csv.
func NewReader(rawDataDir string, downloader *fetcher.Downloader, countries CountryResolver) *Reader {
	return &Reader{
		path:       filepath.Join(rawDataDir, StagedFileName),
		downloader: downloader,
		countries:  countries,
	}
}

// Values returns national survey values of resolvable countries.
func (r *Reader) Values(ctx context.Context) ([]entity.SurveyValue, error) {
	body, err := r.downloader.GetOrRead(ctx, r.path, "")
	if err != nil {
		return nil, fmt.Errorf("could not read DHS export: %w", err)
	}
	values, err := ParseExport(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.Country
	}
	codes, _ := r.countries.Harmonize("dhs", names)

	out := make([]entity.SurveyValue, 0, len(values))
	for i, v := range values {
		if codes[i] == country.NotFound {
			continue
		}
		v.ISOCode = codes[i]
		out = append(out, v)
	}
	logging.FromContext(ctx).Info("dhs export loaded",
		slog.String("path", r.path),
		slog.Int("kept", len(out)))
	return out, nil
}

// ParseExport parses a STATcompiler CSV. When a Characteristic Label column is present
// only national totals are kept. Rows without a numeric value are skipped.
func ParseExport(src io.Reader) ([]entity.SurveyValue, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidFormat, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidFormat, col)
		}
	}
	_, hasLabel := index["Characteristic Label"]

	get := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []entity.SurveyValue
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if hasLabel && !strings.EqualFold(get(rec, "Characteristic Label"), TotalLabel) {
			continue
		}
		value, err := strconv.ParseFloat(get(rec, "Value"), 64)
		if err != nil {
			continue
		}
		year, err := SurveyYear(get(rec, "Survey Year"))
		if err != nil {
			return nil, err
		}
		out = append(out, entity.SurveyValue{
			Country:    get(rec, "Country Name"),
			SurveyName: get(rec, "Survey Name"),
			SurveyYear: year,
			Indicator:  get(rec, "Indicator"),
			Value:      value,
		})
	}
	return out, nil
}

// SurveyYear parses "2014" or a fieldwork span such as "2015-16" to its first year.
func SurveyYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "-/"); i > 0 {
		s = s[:i]
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: survey year %q", ErrInvalidFormat, s)
	}
	return year, nil
}

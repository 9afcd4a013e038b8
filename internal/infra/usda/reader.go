// Package usda reads the USDA ERS food-expenditure spreadsheet.
package usda

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/country"
	"foodsecurity-charts/internal/infra/fetcher"
	"foodsecurity-charts/internal/observability/logging"
)

// StagedFileName is the name of the manually staged spreadsheet under the raw data dir.
const StagedFileName = "usda_food_expenditure.xlsx"

// ErrInvalidWorkbook is returned when the spreadsheet does not have the expected layout.
var ErrInvalidWorkbook = errors.New("invalid USDA food expenditure workbook")

// footnote matches trailing markers such as "United States 3/".
var footnote = regexp.MustCompile(`\s*\d+/\s*$`)

// CountryResolver converts country names to ISO3 codes.
type CountryResolver interface {
	Harmonize(source string, names []string) (codes []string, unmatched []string)
}

// Reader loads food expenditure shares.
type Reader struct {
	rawDataDir string
	url        string
	downloader *fetcher.Downloader
	countries  CountryResolver
}

// NewReader creates a reader that prefers {rawDataDir}/usda_food_expenditure.xlsx and
// falls back to downloading url.
func NewReader(rawDataDir, url string, downloader *fetcher.Downloader, countries CountryResolver) *Reader {
	return &Reader{rawDataDir: rawDataDir, url: url, downloader: downloader, countries: countries}
}

// FoodExpenditure returns one row per resolvable country.
func (r *Reader) FoodExpenditure(ctx context.Context) ([]entity.FoodExpenditure, error) {
	var staged string
	if r.rawDataDir != "" {
		staged = filepath.Join(r.rawDataDir, StagedFileName)
	}
	body, err := r.downloader.GetOrRead(ctx, staged, r.url)
	if err != nil {
		return nil, fmt.Errorf("could not read USDA food expenditure data: %w", err)
	}

	rows, err := ParseWorkbook(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Country
	}
	codes, _ := r.countries.Harmonize("usda", names)

	out := make([]entity.FoodExpenditure, 0, len(rows))
	for i, row := range rows {
		if codes[i] == country.NotFound {
			continue
		}
		row.ISOCode = codes[i]
		out = append(out, row)
	}
	logging.FromContext(ctx).Info("usda food expenditure loaded",
		slog.Int("rows", len(rows)),
		slog.Int("kept", len(out)))
	return out, nil
}

// ParseWorkbook reads the first sheet. The header is the first row starting with
// "Country"; the three following columns are the food share (%), food expenditure per
// capita and total expenditure per capita. Footnote and blank rows are skipped.
func ParseWorkbook(src io.Reader) ([]entity.FoodExpenditure, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrInvalidWorkbook)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	header := -1
	for i, row := range rows {
		if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "country") {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, fmt.Errorf("%w: header row not found", ErrInvalidWorkbook)
	}

	var out []entity.FoodExpenditure
	for _, row := range rows[header+1:] {
		if len(row) < 4 {
			continue
		}
		name := footnote.ReplaceAllString(strings.TrimSpace(row[0]), "")
		if name == "" {
			continue
		}
		share, err1 := entity.ParseNullFloat(row[1])
		food, err2 := entity.ParseNullFloat(row[2])
		total, err3 := entity.ParseNullFloat(row[3])
		if err := errors.Join(err1, err2, err3); err != nil {
			// notes below the table share the country column
			continue
		}
		if !share.Valid && !food.Valid && !total.Valid {
			continue
		}
		out = append(out, entity.FoodExpenditure{
			Country:           name,
			FoodShare:         share,
			FoodExpPerCapita:  food,
			TotalExpPerCapita: total,
		})
	}
	return out, nil
}

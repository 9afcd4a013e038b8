package worldbank

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/fetcher"
	"foodsecurity-charts/internal/observability/logging"
)

// Workbook sheet names.
const (
	PricesSheet  = "Monthly Prices"
	IndicesSheet = "Monthly Indices"
)

// IndexNames are the columns of the indices sheet, in sheet order after the period.
// The sheet header spans several merged rows, so names are fixed rather than read.
var IndexNames = []string{
	"Energy",
	"Non-energy",
	"Agriculture",
	"Beverages",
	"Food",
	"Oils & Meals",
	"Grains",
	"Other Food",
	"Raw Materials",
	"Timber",
	"Other Raw Mat.",
	"Fertilizers",
	"Metals & Minerals",
	"Base Metals (ex. iron ore)",
	"Precious Metals",
}

// commodityRenames shortens commodity names used by the charts.
var commodityRenames = map[string]string{
	"Rice, Thai 5%": "Rice",
	"Wheat, US HRW": "Wheat",
}

var periodPattern = regexp.MustCompile(`^(\d{4})M(\d{2})$`)

// ErrInvalidWorkbook is returned when the commodity workbook layout is not recognized.
var ErrInvalidWorkbook = errors.New("invalid commodity workbook")

// CommodityReader downloads the monthly commodity workbook.
type CommodityReader struct {
	url        string
	downloader *fetcher.Downloader
}

// NewCommodityReader creates a reader for the workbook at url.
func NewCommodityReader(url string, downloader *fetcher.Downloader) *CommodityReader {
	return &CommodityReader{url: url, downloader: downloader}
}

// Read downloads and parses the workbook.
func (r *CommodityReader) Read(ctx context.Context) (*entity.CommodityData, error) {
	body, err := r.downloader.Get(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve commodity prices from World Bank: %w", err)
	}
	data, err := ParseCommodityWorkbook(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("commodity workbook loaded",
		slog.Int("price_columns", len(data.Prices.Columns)),
		slog.Int("months", len(data.Prices.Points)))
	return data, nil
}

// ParseCommodityWorkbook parses both sheets of a CMO monthly workbook.
func ParseCommodityWorkbook(src io.Reader) (*entity.CommodityData, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer func() {
		_ = f.Close()
	}()

	priceRows, err := f.GetRows(PricesSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrInvalidWorkbook, PricesSheet, err)
	}
	prices, err := ParsePrices(priceRows)
	if err != nil {
		return nil, err
	}

	indexRows, err := f.GetRows(IndicesSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrInvalidWorkbook, IndicesSheet, err)
	}
	indices, err := ParseIndices(indexRows)
	if err != nil {
		return nil, err
	}

	return &entity.CommodityData{Prices: prices, Indices: indices}, nil
}

// ParsePrices parses the prices sheet. The header is the first row with commodity names
// beyond the period column; data rows are those whose first cell is a YYYYMmm period.
func ParsePrices(rows [][]string) (entity.Series, error) {
	header := -1
	for i, row := range rows {
		if isDataRow(row) {
			break
		}
		if nonEmpty(row[min(1, len(row)):]) >= 2 {
			header = i
			break
		}
	}
	if header < 0 {
		return entity.Series{}, fmt.Errorf("%w: no commodity header in %q", ErrInvalidWorkbook, PricesSheet)
	}

	headerRow := rows[header]
	columns := make([]string, 0, len(headerRow))
	for _, name := range headerRow[1:] {
		name = strings.TrimSpace(name)
		if renamed, ok := commodityRenames[name]; ok {
			name = renamed
		}
		columns = append(columns, name)
	}

	return parseSeries(PricesSheet, columns, rows[header+1:])
}

// ParseIndices parses the indices sheet using the fixed IndexNames.
func ParseIndices(rows [][]string) (entity.Series, error) {
	return parseSeries(IndicesSheet, IndexNames, rows)
}

func parseSeries(sheet string, columns []string, rows [][]string) (entity.Series, error) {
	series := entity.Series{Columns: columns}
	for _, row := range rows {
		if !isDataRow(row) {
			continue
		}
		period, err := ParsePeriod(row[0])
		if err != nil {
			return entity.Series{}, err
		}
		values := make([]entity.NullFloat, len(columns))
		for j := range columns {
			if j+1 >= len(row) {
				break
			}
			v, err := entity.ParseNullFloat(row[j+1])
			if err != nil {
				return entity.Series{}, fmt.Errorf("%w: %s %s column %q: %v", ErrInvalidWorkbook, sheet, row[0], columns[j], err)
			}
			values[j] = v
		}
		series.Points = append(series.Points, entity.SeriesPoint{Period: period, Values: values})
	}
	if len(series.Points) == 0 {
		return entity.Series{}, fmt.Errorf("%w: no monthly rows in %q", ErrInvalidWorkbook, sheet)
	}
	return series, nil
}

// ParsePeriod parses a "1960M01" period into the first day of that month (UTC).
func ParsePeriod(s string) (time.Time, error) {
	m := periodPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: bad period %q", ErrInvalidWorkbook, s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: bad period %q", ErrInvalidWorkbook, s)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

func isDataRow(row []string) bool {
	return len(row) > 0 && periodPattern.MatchString(strings.TrimSpace(row[0]))
}

func nonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

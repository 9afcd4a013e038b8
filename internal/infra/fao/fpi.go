// Package fao reads the FAO Food Price Index and FAOSTAT bulk downloads.
package fao

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/fetcher"
	"foodsecurity-charts/internal/observability/logging"
)

// FPIColumns are the index columns of the Food Price Index CSV.
var FPIColumns = []string{"Food Price Index", "Meat", "Dairy", "Cereals", "Oils", "Sugar"}

var (
	// ErrLinkNotFound is returned when the FPI page carries no CSV link.
	ErrLinkNotFound = errors.New("food price index CSV link not found")

	// ErrInvalidFormat is returned for CSV payloads without the expected header.
	ErrInvalidFormat = errors.New("invalid FAO data format")
)

var fpiDateLayouts = []string{"2006-01", "2006-01-02", "01/2006", "1/2006", "Jan-06", "January 2006"}

// Reader reads FAO publications.
type Reader struct {
	pageURL    string
	bulkURL    string
	downloader *fetcher.Downloader
}

// NewReader creates a reader. pageURL is the FPI web page, bulkURL the FAOSTAT bulk
// download directory.
func NewReader(pageURL, bulkURL string, downloader *fetcher.Downloader) *Reader {
	if bulkURL != "" && !strings.HasSuffix(bulkURL, "/") {
		bulkURL += "/"
	}
	return &Reader{pageURL: pageURL, bulkURL: bulkURL, downloader: downloader}
}

// FoodPriceIndex scrapes the FPI page for the CSV link and returns the monthly series
// with the columns of FPIColumns.
func (r *Reader) FoodPriceIndex(ctx context.Context) (entity.Series, error) {
	page, err := r.downloader.Get(ctx, r.pageURL)
	if err != nil {
		return entity.Series{}, fmt.Errorf("could not read food price index page: %w", err)
	}

	base, err := url.Parse(r.pageURL)
	if err != nil {
		return entity.Series{}, fmt.Errorf("parse page url: %w", err)
	}
	link, err := FindCSVLink(page, base)
	if err != nil {
		return entity.Series{}, err
	}

	body, err := r.downloader.Get(ctx, link)
	if err != nil {
		return entity.Series{}, fmt.Errorf("could not download food price index: %w", err)
	}

	series, err := ParseFoodPriceIndex(bytes.NewReader(body))
	if err != nil {
		return entity.Series{}, err
	}
	logging.FromContext(ctx).Info("food price index loaded",
		slog.String("csv", logging.SanitizeString(link)),
		slog.Int("months", len(series.Points)))
	return series, nil
}

// FindCSVLink returns the absolute URL of the Food Price Index CSV on the page.
// Links mentioning "food_price_ind" win over any other CSV link.
func FindCSVLink(page []byte, base *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse food price index page: %w", err)
	}

	var fallback string
	var preferred string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		lower := strings.ToLower(href)
		if !strings.Contains(lower, ".csv") {
			return true
		}
		if strings.Contains(lower, "food_price_ind") {
			preferred = href
			return false
		}
		if fallback == "" {
			fallback = href
		}
		return true
	})

	link := preferred
	if link == "" {
		link = fallback
	}
	if link == "" {
		return "", ErrLinkNotFound
	}

	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: bad href %q", ErrLinkNotFound, link)
	}
	if base == nil {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}

// ParseFoodPriceIndex parses the FPI CSV. Title lines before the "Date" header are
// skipped, as are trailing notes without a parsable date.
func ParseFoodPriceIndex(src io.Reader) (entity.Series, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var index map[string]int
	series := entity.Series{Columns: FPIColumns}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return entity.Series{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if len(rec) == 0 {
			continue
		}

		if index == nil {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")), "Date") {
				index = headerIndex(rec)
				for _, col := range FPIColumns {
					if _, ok := index[col]; !ok {
						return entity.Series{}, fmt.Errorf("%w: missing column %q", ErrInvalidFormat, col)
					}
				}
			}
			continue
		}

		period, ok := parseFPIDate(rec[0])
		if !ok {
			continue
		}
		values := make([]entity.NullFloat, len(FPIColumns))
		for j, col := range FPIColumns {
			i := index[col]
			if i >= len(rec) {
				continue
			}
			v, err := entity.ParseNullFloat(rec[i])
			if err != nil {
				return entity.Series{}, fmt.Errorf("%w: %s %s: %v", ErrInvalidFormat, rec[0], col, err)
			}
			values[j] = v
		}
		series.Points = append(series.Points, entity.SeriesPoint{Period: period, Values: values})
	}

	if index == nil {
		return entity.Series{}, fmt.Errorf("%w: no Date header", ErrInvalidFormat)
	}
	if len(series.Points) == 0 {
		return entity.Series{}, fmt.Errorf("%w: no monthly rows", ErrInvalidFormat)
	}
	return series, nil
}

func parseFPIDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range fpiDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	return index
}

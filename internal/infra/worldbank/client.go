// Package worldbank reads the World Bank indicator API, its country metadata and the
// monthly commodity price workbook (CMO "Pink Sheet").
package worldbank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/fetcher"
	"foodsecurity-charts/internal/observability/logging"
)

// Indicator codes used by the charts.
const (
	IndicatorStunting     = "SH.STA.STNT.ME.ZS"
	IndicatorGDPPerCapita = "NY.GDP.PCAP.CD"
	IndicatorGDP          = "NY.GDP.MKTP.CD"
)

// DatabaseWDI is the World Development Indicators source id.
const DatabaseWDI = 2

const defaultPerPage = 20000

// ErrInvalidResponse is returned when a payload does not have the paged envelope shape.
var ErrInvalidResponse = errors.New("invalid World Bank API response")

// IndicatorError reports a failed indicator download.
type IndicatorError struct {
	Code string
	Err  error
}

func (e *IndicatorError) Error() string {
	return fmt.Sprintf("could not retrieve %s indicator from World Bank: %v", e.Code, e.Err)
}

func (e *IndicatorError) Unwrap() error {
	return e.Err
}

// Client reads the World Bank v2 API.
type Client struct {
	baseURL    string
	downloader *fetcher.Downloader
	perPage    int
}

// NewClient creates a client for the API rooted at baseURL (".../v2/").
func NewClient(baseURL string, downloader *fetcher.Downloader) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{baseURL: baseURL, downloader: downloader, perPage: defaultPerPage}
}

type pageInfo struct {
	Page  flexInt `json:"page"`
	Pages flexInt `json:"pages"`
	Total flexInt `json:"total"`
}

type idValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type indicatorRow struct {
	Country         idValue  `json:"country"`
	CountryISO3Code string   `json:"countryiso3code"`
	Date            string   `json:"date"`
	Value           *float64 `json:"value"`
}

type countryRow struct {
	ID          string  `json:"id"`
	ISO2Code    string  `json:"iso2Code"`
	Name        string  `json:"name"`
	Region      idValue `json:"region"`
	IncomeLevel idValue `json:"incomeLevel"`
}

// Indicator downloads every country and aggregate value of an indicator and returns
// long-format observations. Null values are skipped.
//
// Example: Indicator(ctx, "SH.STA.STNT.ME.ZS", DatabaseWDI)
func (c *Client) Indicator(ctx context.Context, code string, db int) ([]entity.Observation, error) {
	logger := logging.FromContext(ctx)
	query := url.Values{}
	query.Set("source", strconv.Itoa(db))

	var out []entity.Observation
	err := c.pages(ctx, "country/all/indicator/"+url.PathEscape(code), query, func(raw json.RawMessage) error {
		var rows []indicatorRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		for _, r := range rows {
			if r.Value == nil || r.CountryISO3Code == "" {
				continue
			}
			year, err := strconv.Atoi(r.Date)
			if err != nil {
				logger.Debug("skipping non-annual observation",
					slog.String("indicator", code),
					slog.String("date", r.Date))
				continue
			}
			out = append(out, entity.Observation{
				ISOCode:     r.CountryISO3Code,
				CountryName: r.Country.Value,
				Year:        year,
				Value:       *r.Value,
			})
		}
		return nil
	})
	if err != nil {
		return nil, &IndicatorError{Code: code, Err: err}
	}

	logger.Info("world bank indicator loaded",
		slog.String("indicator", code),
		slog.Int("rows", len(out)))
	return out, nil
}

// Countries downloads the country and aggregate metadata, including income levels.
func (c *Client) Countries(ctx context.Context) ([]entity.Country, error) {
	var out []entity.Country
	err := c.pages(ctx, "country", url.Values{}, func(raw json.RawMessage) error {
		var rows []countryRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		for _, r := range rows {
			out = append(out, entity.Country{
				ISO3:        r.ID,
				ISO2:        r.ISO2Code,
				Name:        r.Name,
				Region:      strings.TrimSpace(r.Region.Value),
				IncomeLevel: strings.TrimSpace(r.IncomeLevel.Value),
				Aggregate:   strings.EqualFold(strings.TrimSpace(r.Region.Value), "Aggregates"),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not retrieve country metadata from World Bank: %w", err)
	}
	return out, nil
}

// pages walks every page of a paged endpoint and hands the data part to fn.
func (c *Client) pages(ctx context.Context, path string, query url.Values, fn func(json.RawMessage) error) error {
	query.Set("format", "json")
	query.Set("per_page", strconv.Itoa(c.perPage))

	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))
		body, err := c.downloader.Get(ctx, c.baseURL+path+"?"+query.Encode())
		if err != nil {
			return err
		}

		info, data, err := splitEnvelope(body)
		if err != nil {
			return err
		}
		if data != nil {
			if err := fn(data); err != nil {
				return err
			}
		}
		if int(info.Pages) <= page {
			return nil
		}
	}
}

// splitEnvelope splits the [pageInfo, rows] array of the v2 API. Error payloads are a
// single-element array carrying a message list.
func splitEnvelope(body []byte) (pageInfo, json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return pageInfo{}, nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(parts) == 0 {
		return pageInfo{}, nil, fmt.Errorf("%w: empty envelope", ErrInvalidResponse)
	}
	if len(parts) == 1 {
		var apiErr struct {
			Message []struct {
				ID    string `json:"id"`
				Key   string `json:"key"`
				Value string `json:"value"`
			} `json:"message"`
		}
		if err := json.Unmarshal(parts[0], &apiErr); err == nil && len(apiErr.Message) > 0 {
			m := apiErr.Message[0]
			return pageInfo{}, nil, fmt.Errorf("%w: %s (%s): %s", ErrInvalidResponse, m.Key, m.ID, m.Value)
		}
		return pageInfo{}, nil, fmt.Errorf("%w: missing data part", ErrInvalidResponse)
	}

	var info pageInfo
	if err := json.Unmarshal(parts[0], &info); err != nil {
		return pageInfo{}, nil, fmt.Errorf("%w: page info: %v", ErrInvalidResponse, err)
	}
	if bytes.Equal(bytes.TrimSpace(parts[1]), []byte("null")) {
		return info, nil, nil
	}
	return info, parts[1], nil
}

// flexInt accepts both 3 and "3"; the API is inconsistent across endpoints.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

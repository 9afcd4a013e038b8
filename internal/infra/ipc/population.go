package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/observability/logging"
)

// PopulationIndicators are the fields kept from a population record, besides country.
var PopulationIndicators = []string{
	"projected_period_dates",
	"population",
	"phase1_population_projected",
	"phase2_population_projected",
	"phase3_population_projected",
	"phase4_population_projected",
	"phase5_population_projected",
}

// Population reads the classification population figures for [start, end] in long
// format. With no countries a single request covers every country; otherwise each
// country is requested separately and countries with an undecodable payload are logged
// as unavailable and skipped.
func (c *Client) Population(ctx context.Context, start, end int, countries []string) ([]entity.PopulationRecord, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	logger := logging.FromContext(ctx)

	if len(countries) == 0 {
		var raw []map[string]any
		if err := c.downloader.GetJSON(ctx, c.populationURL(start, end, ""), &raw); err != nil {
			return nil, fmt.Errorf("could not read population data from IPC: %w", err)
		}
		return longFormat(raw), nil
	}

	var out []entity.PopulationRecord
	for _, code := range countries {
		var raw []map[string]any
		err := c.downloader.GetJSON(ctx, c.populationURL(start, end, code), &raw)
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			logger.Warn("population data not available",
				slog.String("country", code))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not read population data from IPC for %s: %w", code, err)
		}
		out = append(out, longFormat(raw)...)
	}
	return out, nil
}

func (c *Client) populationURL(start, end int, country string) string {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("start", strconv.Itoa(start))
	q.Set("end", strconv.Itoa(end))
	if country != "" {
		q.Set("country", country)
	}
	q.Set("key", c.apiKey)
	return c.apiURL + "population?" + q.Encode()
}

func longFormat(raw []map[string]any) []entity.PopulationRecord {
	var out []entity.PopulationRecord
	for _, rec := range raw {
		country := stringify(rec["country"])
		for _, ind := range PopulationIndicators {
			v, ok := rec[ind]
			if !ok {
				continue
			}
			out = append(out, entity.PopulationRecord{
				Country:   country,
				Indicator: ind,
				Value:     stringify(v),
			})
		}
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

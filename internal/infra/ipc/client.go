// Package ipc reads Integrated Food Security Phase Classification (IPC) and Cadre
// Harmonisé (CH) analyses and selects the latest valid analysis per country.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/country"
	"foodsecurity-charts/internal/infra/fetcher"
	"foodsecurity-charts/internal/observability/logging"
)

// DateLayout is the month layout of analysis periods ("Jan 2006").
const DateLayout = "Jan 2006"

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("IPC API key is not set (IPC_API_KEY)")

	// ErrInvalidResponse is returned for payloads that cannot be decoded.
	ErrInvalidResponse = errors.New("invalid IPC response")
)

// CountryResolver converts provider country codes to ISO3.
type CountryResolver interface {
	Harmonize(source string, names []string) (codes []string, unmatched []string)
	Name(iso3 string) string
}

// Client reads the IPC/CH web table and population APIs.
type Client struct {
	webURL     string
	apiURL     string
	apiKey     string
	downloader *fetcher.Downloader
	countries  CountryResolver
}

// NewClient creates a client. webURL serves the country table, apiURL the population API.
func NewClient(webURL, apiURL, apiKey string, downloader *fetcher.Downloader, countries CountryResolver) *Client {
	return &Client{
		webURL:     withSlash(webURL),
		apiURL:     withSlash(apiURL),
		apiKey:     apiKey,
		downloader: downloader,
		countries:  countries,
	}
}

type webPhase struct {
	Population *float64 `json:"population"`
}

type webAnalysis struct {
	Country   string      `json:"country"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	Year      json.Number `json:"year"`
	Title     string      `json:"title"`
	Phases    []webPhase  `json:"phases"`
	Condition string      `json:"condition"`
}

// Analyses downloads every published analysis. Rows whose ISO2 code cannot be resolved
// are reported and dropped.
func (c *Client) Analyses(ctx context.Context) ([]entity.IPCAnalysis, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var raw []webAnalysis
	if err := c.downloader.GetJSON(ctx, c.webURL+"country?key="+url.QueryEscape(c.apiKey), &raw); err != nil {
		return nil, fmt.Errorf("could not read data from IPC: %w", err)
	}

	analyses, err := c.build(raw)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("ipc analyses loaded",
		slog.Int("received", len(raw)),
		slog.Int("kept", len(analyses)))
	return analyses, nil
}

func (c *Client) build(raw []webAnalysis) ([]entity.IPCAnalysis, error) {
	iso2 := make([]string, len(raw))
	for i, r := range raw {
		iso2[i] = strings.TrimSpace(r.Country)
	}
	codes, _ := c.countries.Harmonize("ipc", iso2)

	out := make([]entity.IPCAnalysis, 0, len(raw))
	for i, r := range raw {
		if codes[i] == country.NotFound {
			continue
		}
		a, err := parseAnalysis(r)
		if err != nil {
			return nil, err
		}
		a.ISOCode = codes[i]
		a.CountryName = c.countries.Name(codes[i])
		out = append(out, a)
	}
	return out, nil
}

func parseAnalysis(r webAnalysis) (entity.IPCAnalysis, error) {
	from, err := time.Parse(DateLayout, strings.TrimSpace(r.From))
	if err != nil {
		return entity.IPCAnalysis{}, fmt.Errorf("%w: %s from date %q", ErrInvalidResponse, r.Country, r.From)
	}
	to, err := time.Parse(DateLayout, strings.TrimSpace(r.To))
	if err != nil {
		return entity.IPCAnalysis{}, fmt.Errorf("%w: %s to date %q", ErrInvalidResponse, r.Country, r.To)
	}
	year, err := strconv.Atoi(r.Year.String())
	if err != nil {
		return entity.IPCAnalysis{}, fmt.Errorf("%w: %s year %q", ErrInvalidResponse, r.Country, r.Year)
	}

	a := entity.IPCAnalysis{
		ISO2:      strings.TrimSpace(r.Country),
		FromDate:  from,
		ToDate:    to,
		Year:      year,
		Source:    entity.SourceCH,
		Condition: r.Condition,
	}
	if strings.Contains(r.Title, "Acute") {
		a.Source = entity.SourceIPC
	}
	for i := 0; i < entity.PhaseCount && i < len(r.Phases); i++ {
		if p := r.Phases[i].Population; p != nil {
			a.Phases[i] = entity.Some(*p)
		}
	}
	if err := a.Validate(); err != nil {
		return entity.IPCAnalysis{}, fmt.Errorf("%s: %w", r.Country, err)
	}
	return a, nil
}

func withSlash(s string) string {
	if s != "" && !strings.HasSuffix(s, "/") {
		return s + "/"
	}
	return s
}

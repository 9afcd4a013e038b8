// Package country reconciles the country names and codes used by the different data
// providers into ISO3 codes.
//
// Unresolvable names map to the NotFound sentinel. Every distinct unresolved name is
// logged and counted so that rows dropped by callers never disappear silently.
package country

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/observability/metrics"
)

// NotFound is returned for names that cannot be resolved.
const NotFound = "not found"

//go:embed countries.csv
var countriesCSV []byte

// Resolver maps free-text names, ISO2 and ISO3 codes to countries.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	byISO3 map[string]entity.Country
	byISO2 map[string]string
	byName map[string]string
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Default returns the resolver built from the embedded reference table.
func Default() *Resolver {
	defaultOnce.Do(func() {
		r, err := New(bytes.NewReader(countriesCSV))
		if err != nil {
			panic(fmt.Sprintf("country: embedded reference table is invalid: %v", err))
		}
		defaultResolver = r
	})
	return defaultResolver
}

// New builds a resolver from a CSV with the columns iso3, iso2, name, continent and
// aliases (pipe separated).
func New(src io.Reader) (*Resolver, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = 5

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if strings.Join(header, ",") != "iso3,iso2,name,continent,aliases" {
		return nil, fmt.Errorf("%w: unexpected header %v", entity.ErrInvalidInput, header)
	}

	r := &Resolver{
		byISO3: make(map[string]entity.Country),
		byISO2: make(map[string]string),
		byName: make(map[string]string),
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		c := entity.Country{
			ISO3:      strings.TrimSpace(rec[0]),
			ISO2:      strings.TrimSpace(rec[1]),
			Name:      strings.TrimSpace(rec[2]),
			Continent: strings.TrimSpace(rec[3]),
		}
		if !isCode(c.ISO3, 3) || !isCode(c.ISO2, 2) {
			return nil, fmt.Errorf("%w: bad codes for %q", entity.ErrInvalidInput, c.Name)
		}
		if _, dup := r.byISO3[c.ISO3]; dup {
			return nil, fmt.Errorf("%w: duplicate iso3 %s", entity.ErrInvalidInput, c.ISO3)
		}

		r.byISO3[c.ISO3] = c
		r.byISO2[c.ISO2] = c.ISO3
		r.addName(c.Name, c.ISO3)
		r.addName(c.ISO3, c.ISO3)
		for _, alias := range strings.Split(rec[4], "|") {
			if alias = strings.TrimSpace(alias); alias != "" {
				r.addName(alias, c.ISO3)
			}
		}
	}

	return r, nil
}

func (r *Resolver) addName(name, iso3 string) {
	key := normalize(name)
	if key == "" {
		return
	}
	if _, taken := r.byName[key]; !taken {
		r.byName[key] = iso3
	}
}

// ToISO3 converts a name or code to an ISO3 code, or NotFound.
func (r *Resolver) ToISO3(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return NotFound
	}
	if isCode(name, 3) {
		if _, ok := r.byISO3[name]; ok {
			return name
		}
	}
	if isCode(name, 2) {
		if iso3, ok := r.byISO2[name]; ok {
			return iso3
		}
	}
	if iso3, ok := r.byName[normalize(name)]; ok {
		return iso3
	}
	return NotFound
}

// ISO2ToISO3 converts an ISO2 code, or returns NotFound.
func (r *Resolver) ISO2ToISO3(iso2 string) string {
	if iso3, ok := r.byISO2[strings.ToUpper(strings.TrimSpace(iso2))]; ok {
		return iso3
	}
	return NotFound
}

// Lookup returns the reference entry for a name or code.
func (r *Resolver) Lookup(name string) (entity.Country, bool) {
	c, ok := r.byISO3[r.ToISO3(name)]
	return c, ok
}

// Name returns the short name of an ISO3 code, or NotFound.
func (r *Resolver) Name(iso3 string) string {
	if c, ok := r.byISO3[iso3]; ok {
		return c.Name
	}
	return NotFound
}

// Continent returns the continent of an ISO3 code, or NotFound.
func (r *Resolver) Continent(iso3 string) string {
	if c, ok := r.byISO3[iso3]; ok {
		return c.Continent
	}
	return NotFound
}

// IsCountry reports whether code is a country ISO3 code. Regional aggregates
// (SSF, WLD, ...) and the NotFound sentinel are not countries.
func (r *Resolver) IsCountry(code string) bool {
	_, ok := r.byISO3[code]
	return ok
}

// Codes returns every ISO3 code in the table, sorted.
func (r *Resolver) Codes() []string {
	out := make([]string, 0, len(r.byISO3))
	for code := range r.byISO3 {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Harmonize converts a batch of names. codes is aligned with names and holds NotFound
// for unresolved entries; unmatched lists each distinct unresolved name once, in
// first-seen order. Every unmatched name is logged and counted under source.
func (r *Resolver) Harmonize(source string, names []string) (codes []string, unmatched []string) {
	codes = make([]string, len(names))
	seen := make(map[string]struct{})
	for i, n := range names {
		codes[i] = r.ToISO3(n)
		if codes[i] != NotFound {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		unmatched = append(unmatched, n)
	}

	for _, n := range unmatched {
		slog.Warn("country name not resolved, rows will be dropped",
			slog.String("source", source),
			slog.String("name", n))
		metrics.RecordUnresolvedCountry(source)
	}
	return codes, unmatched
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ChartCatalog is the optional YAML file that selects and parameterizes charts.
//
//	charts:
//	  - name: fao_fpi_main
//	    start: 2000-01-01
//	  - name: food_commodity_chart
//	    commodities: [Palm oil, Sunflower oil, Maize, Wheat]
//	  - name: index_chart
//	    enabled: false
type ChartCatalog struct {
	Charts []ChartEntry `yaml:"charts"`
}

// ChartEntry overrides the parameters of one chart. Zero values keep the builder defaults.
type ChartEntry struct {
	Name        string   `yaml:"name"`
	Enabled     *bool    `yaml:"enabled"`
	Start       string   `yaml:"start"`
	Top         int      `yaml:"top"`
	Commodities []string `yaml:"commodities"`
	Indices     []string `yaml:"indices"`
}

// LoadChartCatalog loads the chart catalogue from a YAML file.
// The path parameter is expected to come from a trusted source (command-line flag or environment).
func LoadChartCatalog(path string) (*ChartCatalog, error) {
	// #nosec G304 -- path is provided by trusted source (CLI flag or env), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart catalogue: %w", err)
	}

	var catalog ChartCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse chart catalogue: %w", err)
	}

	if err := validateChartCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("chart catalogue validation failed: %w", err)
	}

	return &catalog, nil
}

func validateChartCatalog(catalog *ChartCatalog) error {
	if len(catalog.Charts) == 0 {
		return fmt.Errorf("at least one chart is required")
	}

	seen := make(map[string]struct{}, len(catalog.Charts))
	for i, entry := range catalog.Charts {
		if entry.Name == "" {
			return fmt.Errorf("charts[%d]: name is required", i)
		}
		if _, dup := seen[entry.Name]; dup {
			return fmt.Errorf("charts[%d]: duplicate chart %q", i, entry.Name)
		}
		seen[entry.Name] = struct{}{}

		if _, _, err := entry.StartDate(); err != nil {
			return fmt.Errorf("charts[%d]: %w", i, err)
		}
		if entry.Top < 0 {
			return fmt.Errorf("charts[%d]: top must not be negative", i)
		}
	}
	return nil
}

// Selected returns the enabled chart names in file order.
func (c *ChartCatalog) Selected() []string {
	names := make([]string, 0, len(c.Charts))
	for _, entry := range c.Charts {
		if entry.IsEnabled() {
			names = append(names, entry.Name)
		}
	}
	return names
}

// Entry returns the entry for a chart name.
func (c *ChartCatalog) Entry(name string) (ChartEntry, bool) {
	for _, entry := range c.Charts {
		if entry.Name == name {
			return entry, true
		}
	}
	return ChartEntry{}, false
}

// IsEnabled reports whether the chart runs. Entries are enabled unless disabled explicitly.
func (e ChartEntry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// StartDate parses the start override. ok is false when no start is given.
func (e ChartEntry) StartDate() (t time.Time, ok bool, err error) {
	if e.Start == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(time.DateOnly, e.Start)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid start %q, expected YYYY-MM-DD", e.Start)
	}
	return t, true, nil
}

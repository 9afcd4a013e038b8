package fao

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/observability/logging"
)

// FAOSTAT bulk datasets used by the charts.
const (
	DatasetFoodSecurity        = "Food_Security_Data_E_All_Data_(Normalized).zip"
	DatasetFertilizersNutrient = "Inputs_FertilizersNutrient_E_All_Data_(Normalized).zip"
)

const normalizedSuffix = "_All_Data_(Normalized).csv"

// FAOSTAT reads one normalized bulk dataset.
func (r *Reader) FAOSTAT(ctx context.Context, dataset string) ([]entity.FAOSTATRecord, error) {
	body, err := r.downloader.Get(ctx, r.bulkURL+dataset)
	if err != nil {
		return nil, fmt.Errorf("could not download FAOSTAT dataset %s: %w", dataset, err)
	}
	records, err := ParseFAOSTATZip(body)
	if err != nil {
		return nil, fmt.Errorf("FAOSTAT dataset %s: %w", dataset, err)
	}
	logging.FromContext(ctx).Info("faostat dataset loaded",
		slog.String("dataset", dataset),
		slog.Int("rows", len(records)))
	return records, nil
}

// ParseFAOSTATZip extracts the normalized CSV from a bulk download archive.
func ParseFAOSTATZip(data []byte) ([]entity.FAOSTATRecord, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	var target *zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, normalizedSuffix) {
			target = f
			break
		}
		if target == nil && strings.HasSuffix(strings.ToLower(f.Name), ".csv") &&
			!strings.Contains(f.Name, "Flags") && !strings.Contains(f.Name, "AreaCodes") {
			target = f
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: no normalized CSV in archive", ErrInvalidFormat)
	}

	rc, err := target.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target.Name, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target.Name, err)
	}
	return ParseFAOSTATCSV(bytes.NewReader(toUTF8(raw)))
}

// toUTF8 transcodes Latin-1 payloads; older bulk files are not UTF-8.
func toUTF8(raw []byte) []byte {
	if utf8.Valid(raw) {
		return raw
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ParseFAOSTATCSV parses a normalized FAOSTAT CSV. Values that are not numbers
// ("<2.5" for example) are kept as text with a missing numeric value.
func ParseFAOSTATCSV(src io.Reader) ([]entity.FAOSTATRecord, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidFormat, err)
	}
	index := headerIndex(header)
	for _, col := range []string{"Area", "Item", "Element", "Year", "Value"} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidFormat, col)
		}
	}

	get := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []entity.FAOSTATRecord
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}

		text := get(rec, "Value")
		value, err := entity.ParseNullFloat(text)
		if err != nil {
			value = entity.None()
		}
		out = append(out, entity.FAOSTATRecord{
			AreaCode:  get(rec, "Area Code"),
			Area:      get(rec, "Area"),
			ItemCode:  get(rec, "Item Code"),
			Item:      get(rec, "Item"),
			Element:   get(rec, "Element"),
			Year:      get(rec, "Year"),
			Unit:      get(rec, "Unit"),
			Value:     value,
			ValueText: text,
			Flag:      get(rec, "Flag"),
		})
	}
	return out, nil
}

// Package geometry reads country map shapes exported from Flourish.
package geometry

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/fetcher"
)

// StagedFileName is the export name under the raw data directory.
const StagedFileName = "flourish_geometries.csv"

// ErrInvalidFormat is returned for files without geometry and iso_code columns.
var ErrInvalidFormat = errors.New("invalid geometries file")

// Reader loads staged geometries.
type Reader struct {
	path       string
	downloader *fetcher.Downloader
}

// NewReader creates a reader for {rawDataDir}/flourish_geometries.csv.
func NewReader(rawDataDir string, downloader *fetcher.Downloader) *Reader {
	return &Reader{path: filepath.Join(rawDataDir, StagedFileName), downloader: downloader}
}

// Geometries returns every shape in the staged file.
func (r *Reader) Geometries(ctx context.Context) ([]entity.Geometry, error) {
	body, err := r.downloader.GetOrRead(ctx, r.path, "")
	if err != nil {
		return nil, fmt.Errorf("could not read geometries: %w", err)
	}
	return Parse(bytes.NewReader(body))
}

// Parse reads a (geometry, iso_code) CSV. Shapes are WKT strings and may be large.
func Parse(src io.Reader) ([]entity.Geometry, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidFormat, err)
	}
	geomCol, isoCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case "geometry":
			geomCol = i
		case "iso_code":
			isoCol = i
		}
	}
	if geomCol < 0 || isoCol < 0 {
		return nil, fmt.Errorf("%w: need geometry and iso_code columns", ErrInvalidFormat)
	}

	var out []entity.Geometry
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if geomCol >= len(rec) || isoCol >= len(rec) {
			continue
		}
		iso := strings.ToUpper(strings.TrimSpace(rec[isoCol]))
		if iso == "" {
			continue
		}
		out = append(out, entity.Geometry{ISOCode: iso, Geometry: rec[geomCol]})
	}
	return out, nil
}

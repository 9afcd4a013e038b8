package geometry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/fetcher"
)

const shapes = `geometry,iso_code,name
"MULTIPOLYGON (((33.9 -0.9, 34.0 -1.0, 33.9 -0.9)))",ken,Kenya
"POLYGON ((1 1, 2 2, 1 1))",,Unknown
"POLYGON ((3 3, 4 4, 3 3))",ETH,Ethiopia
`

func TestParse(t *testing.T) {
	got, err := Parse(strings.NewReader(shapes))

	require.NoError(t, err)
	assert.Equal(t, []entity.Geometry{
		{ISOCode: "KEN", Geometry: "MULTIPOLYGON (((33.9 -0.9, 34.0 -1.0, 33.9 -0.9)))"},
		{ISOCode: "ETH", Geometry: "POLYGON ((3 3, 4 4, 3 3))"},
	}, got)
}

func TestParse_MissingColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("shape,code\nx,KEN\n"))

	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestReader_Geometries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StagedFileName), []byte(shapes), 0o600))

	got, err := NewReader(dir, fetcher.New("geometry", fetcher.DefaultConfig())).Geometries(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

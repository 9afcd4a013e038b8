package fao

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"foodsecurity-charts/internal/domain/entity"
	"foodsecurity-charts/internal/infra/fetcher"
	"foodsecurity-charts/internal/resilience/retry"
)

const fpiCSV = "FAO Food Price Index\n" +
	"2014-2016 = 100\n" +
	"\n" +
	"Date,Food Price Index,Meat,Dairy,Cereals,Oils,Sugar\n" +
	"1990-01,64.9,72.3,53.9,61.5,44.4,88.1\n" +
	"1990-02,64.0,72.9,54.4,59.8,43.4,84.0\n" +
	"2024-09,124.4,119.6,139.1,113.5,142.4,125.7\n" +
	"2024-10,127.4,,139.2,114.4,152.7,\n" +
	"Note: figures are provisional,,,,,,\n"

func testDownloader() *fetcher.Downloader {
	return fetcher.New("fao", fetcher.DefaultConfig(),
		fetcher.WithRetry(retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}))
}

func TestParseFoodPriceIndex(t *testing.T) {
	series, err := ParseFoodPriceIndex(strings.NewReader(fpiCSV))

	require.NoError(t, err)
	assert.Equal(t, FPIColumns, series.Columns)
	require.Len(t, series.Points, 4)
	assert.Equal(t, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), series.Points[0].Period)
	assert.Equal(t, entity.Some(64.9), series.Points[0].Values[0])
	last := series.Points[3]
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), last.Period)
	assert.False(t, last.Values[1].Valid)
	assert.False(t, last.Values[5].Valid)
}

func TestParseFoodPriceIndex_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{name: "no header", csv: "1990-01,64.9\n"},
		{name: "missing column", csv: "Date,Food Price Index\n1990-01,64.9\n"},
		{name: "no rows", csv: "Date,Food Price Index,Meat,Dairy,Cereals,Oils,Sugar\n"},
		{name: "bad number", csv: "Date,Food Price Index,Meat,Dairy,Cereals,Oils,Sugar\n1990-01,abc,1,1,1,1,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFoodPriceIndex(strings.NewReader(tt.csv))
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestFindCSVLink(t *testing.T) {
	base, _ := url.Parse("https://www.fao.org/worldfoodsituation/foodpricesindex/en/")

	page := []byte(`<html><body>
	  <a href="/docs/other/annex.csv">Annex</a>
	  <a href="/media/docs/worldfoodsituationlibraries/default-document-library/food_price_indices_data_oct.csv?sfvrsn=1">CSV</a>
	</body></html>`)
	link, err := FindCSVLink(page, base)
	require.NoError(t, err)
	assert.Equal(t, "https://www.fao.org/media/docs/worldfoodsituationlibraries/default-document-library/food_price_indices_data_oct.csv?sfvrsn=1", link)

	link, err = FindCSVLink([]byte(`<a href="data/export.csv">x</a>`), base)
	require.NoError(t, err)
	assert.Equal(t, "https://www.fao.org/worldfoodsituation/foodpricesindex/en/data/export.csv", link)

	_, err = FindCSVLink([]byte(`<a href="report.pdf">x</a>`), base)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestReader_FoodPriceIndex(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/foodpricesindex/en/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><a href="/files/Food_price_indices_data.csv">Download</a></html>`))
	})
	mux.HandleFunc("/files/Food_price_indices_data.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fpiCSV))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewReader(srv.URL+"/foodpricesindex/en/", srv.URL+"/bulk", testDownloader())

	series, err := r.FoodPriceIndex(context.Background())

	require.NoError(t, err)
	assert.Len(t, series.Points, 4)
}

func TestReader_FoodPriceIndex_PageUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewReader(srv.URL, "", testDownloader()).FoodPriceIndex(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, fetcher.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "could not read food price index page")
}

const faostatCSV = `"Area Code","Area Code (M49)","Area","Item Code","Item","Element Code","Element","Year Code","Year","Unit","Value","Flag","Note"
"5000","'001","World","210011","Prevalence of undernourishment (percent) (3-year average)","6121","Value","20202022","2020-2022","%","9.0","E",""
"5000","'001","World","210041","Number of people undernourished (million) (3-year average)","6132","Value","20202022","2020-2022","million No","713.7","E",""
"4","'004","Afghanistan","210011","Prevalence of undernourishment (percent) (3-year average)","6121","Value","20202022","2020-2022","%","<2.5","E",""
`

func buildZip(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	flags, err := zw.Create("Food_Security_Data_E_Flags.csv")
	require.NoError(t, err)
	_, _ = flags.Write([]byte("Flag,Description\n"))
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseFAOSTATZip(t *testing.T) {
	data := buildZip(t, "Food_Security_Data_E_All_Data_(Normalized).csv", []byte(faostatCSV))

	records, err := ParseFAOSTATZip(data)

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, entity.FAOSTATRecord{
		AreaCode:  "5000",
		Area:      "World",
		ItemCode:  "210011",
		Item:      "Prevalence of undernourishment (percent) (3-year average)",
		Element:   "Value",
		Year:      "2020-2022",
		Unit:      "%",
		Value:     entity.Some(9.0),
		ValueText: "9.0",
		Flag:      "E",
	}, records[0])
	assert.False(t, records[2].Value.Valid)
	assert.Equal(t, "<2.5", records[2].ValueText)
}

func TestParseFAOSTATZip_Latin1(t *testing.T) {
	csv := "Area Code,Area,Item Code,Item,Element,Year,Unit,Value,Flag\n" +
		"107,Côte d'Ivoire,3102,Nutrient nitrogen N (total),Import Quantity,2021,t,120000,A\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().String(csv)
	require.NoError(t, err)

	records, err := ParseFAOSTATZip(buildZip(t, "Inputs_FertilizersNutrient_E_All_Data_(Normalized).csv", []byte(latin1)))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Côte d'Ivoire", records[0].Area)
	assert.Equal(t, entity.Some(120000), records[0].Value)
}

func TestParseFAOSTATZip_Invalid(t *testing.T) {
	_, err := ParseFAOSTATZip([]byte("not a zip"))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ParseFAOSTATZip(buildZip(t, "readme.txt", []byte("hello")))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ParseFAOSTATZip(buildZip(t, "X_All_Data_(Normalized).csv", []byte("Area,Item\nWorld,Rice\n")))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestReader_FAOSTAT(t *testing.T) {
	archive := buildZip(t, "Food_Security_Data_E_All_Data_(Normalized).csv", []byte(faostatCSV))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bulk/"+DatasetFoodSecurity, r.URL.Path)
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	records, err := NewReader("", srv.URL+"/bulk", testDownloader()).FAOSTAT(context.Background(), DatasetFoodSecurity)

	require.NoError(t, err)
	assert.Len(t, records, 3)
}

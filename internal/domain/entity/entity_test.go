package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNullFloat(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    NullFloat
		wantErr bool
	}{
		{name: "integer", in: "42", want: Some(42)},
		{name: "decimal with spaces", in: " 18.3 ", want: Some(18.3)},
		{name: "thousands separator", in: "1,234.5", want: Some(1234.5)},
		{name: "world bank gap", in: "..", want: None()},
		{name: "empty", in: "", want: None()},
		{name: "not available", in: "n.a.", want: None()},
		{name: "garbage", in: "<2.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNullFloat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNullFloat_AddAndString(t *testing.T) {
	assert.Equal(t, "3.5", Some(1.5).Add(Some(2)).String())
	assert.Equal(t, "", Some(1).Add(None()).String())
	assert.Equal(t, "100", Some(100).String())
}

func TestAnalysisSource_ValidityMonths(t *testing.T) {
	assert.Equal(t, 5, SourceCH.ValidityMonths())
	assert.Equal(t, 3, SourceIPC.ValidityMonths())
}

func TestIPCAnalysis_Phase3Plus(t *testing.T) {
	a := IPCAnalysis{Phases: [PhaseCount]NullFloat{Some(10), Some(20), Some(30), Some(40), Some(5)}}

	assert.Equal(t, Some(75), a.Phase3Plus())
	assert.Equal(t, Some(20), a.Phase(2))
	assert.False(t, a.Phase(6).Valid)

	a.Phases[4] = None()
	assert.False(t, a.Phase3Plus().Valid)
}

func TestIPCAnalysis_Validate(t *testing.T) {
	jan := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	may := time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, IPCAnalysis{Source: SourceCH, FromDate: jan, ToDate: may}.Validate())

	err := IPCAnalysis{Source: "FEWS", ToDate: may}.Validate()
	assert.ErrorIs(t, err, ErrValidationFailed)

	err = IPCAnalysis{Source: SourceIPC, FromDate: may, ToDate: jan}.Validate()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "to_date", vErr.Field)
}

func TestAggregateIncomeLevel(t *testing.T) {
	assert.Equal(t, IncomeLowAggregate, AggregateIncomeLevel(IncomeLow))
	assert.Equal(t, IncomeLowAggregate, AggregateIncomeLevel(IncomeLowerMiddle))
	assert.Equal(t, IncomeHighAggregate, AggregateIncomeLevel(IncomeUpperMiddle))
	assert.Equal(t, IncomeHighAggregate, AggregateIncomeLevel(IncomeHigh))
	assert.Equal(t, "Not classified", AggregateIncomeLevel("Not classified"))
}

func TestSeries_SinceAndSelect(t *testing.T) {
	d := func(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }
	s := Series{
		Columns: []string{"Maize", "Wheat", "Palm oil"},
		Points: []SeriesPoint{
			{Period: d(2009, 12), Values: []NullFloat{Some(1), Some(2), Some(3)}},
			{Period: d(2010, 1), Values: []NullFloat{Some(4), None(), Some(6)}},
		},
	}

	since := s.Since(d(2010, 1))
	require.Len(t, since.Points, 1)
	assert.Equal(t, d(2010, 1), since.Points[0].Period)

	sel, missing := s.Select([]string{"Palm oil", "Wheat", "Soybeans"})
	assert.Equal(t, []string{"Palm oil", "Wheat"}, sel.Columns)
	assert.Equal(t, []string{"Soybeans"}, missing)
	assert.Equal(t, []NullFloat{Some(6), None()}, sel.Points[1].Values)
}

func TestFAOSTATRecord_IsAggregate(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{code: "41", want: false},
		{code: "351", want: false},
		{code: "5000", want: true},
		{code: " 5801 ", want: true},
		{code: "", want: false},
		{code: "'041", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, FAOSTATRecord{AreaCode: tt.code}.IsAggregate())
		})
	}
}

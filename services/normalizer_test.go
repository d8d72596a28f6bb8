package services

import (
	"encoding/json"
	"testing"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIPOCalendarDropsIncompleteEntries(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("output holds exactly the entries with symbol and name", prop.ForAll(
		func(symbols, names []string) bool {
			n := len(symbols)
			if len(names) < n {
				n = len(names)
			}

			raw := make([]models.FinnhubIPO, n)
			expected := 0
			for i := 0; i < n; i++ {
				raw[i] = models.FinnhubIPO{Symbol: symbols[i], Name: names[i], Date: "2099-01-01"}
				if symbols[i] != "" && names[i] != "" {
					expected++
				}
			}

			records := NormalizeIPOCalendar(raw)
			if len(records) != expected {
				return false
			}
			for _, record := range records {
				if record.Symbol == "" || record.Name == "" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("", "ABC", "XYZ", "TECH")),
		gen.SliceOf(gen.OneConstOf("", "Alpha Corp", "Beta Ltd")),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNormalizeIPOCalendarFields(t *testing.T) {
	body := `{"ipoCalendar":[
		{"symbol":" ABC ","name":"Alpha Corp","date":"2099-01-01","exchange":"NSE","priceMin":100,"priceMax":120,"shares":5000000},
		{"symbol":"DEF","name":"Delta Inc","date":"2099-02-01","exchange":"NASDAQ","price":"12.00-14.00","numberOfShares":"2,500,000","status":"expected"},
		{"symbol":"","name":"No Symbol","date":"2099-01-01"},
		{"symbol":"NN","name":"   ","date":"2099-01-01"},
		{"symbol":"GHI","name":"Gamma","date":"2099-03-01","price":null,"priceMin":"7.5"}
	]}`

	var calendar models.FinnhubIPOCalendar
	require.NoError(t, json.Unmarshal([]byte(body), &calendar))

	records := NormalizeIPOCalendar(calendar.IPOCalendar)
	require.Len(t, records, 3)

	assert.Equal(t, models.IPORecord{
		Symbol: "ABC", Name: "Alpha Corp", Date: "2099-01-01", Exchange: "NSE",
		PriceMin: 100, PriceMax: 120, Shares: 5_000_000, Status: "upcoming",
	}, records[0])

	assert.Equal(t, 12.0, records[1].PriceMin)
	assert.Equal(t, 14.0, records[1].PriceMax)
	assert.Equal(t, int64(2_500_000), records[1].Shares)
	assert.Equal(t, "expected", records[1].Status)

	assert.Equal(t, 7.5, records[2].PriceMin)
	assert.Equal(t, 0.0, records[2].PriceMax)
	assert.Equal(t, int64(0), records[2].Shares)
}

func TestNormalizeIPOCalendarEmpty(t *testing.T) {
	assert.Empty(t, NormalizeIPOCalendar(nil))
	assert.Empty(t, NormalizeIPOCalendar([]models.FinnhubIPO{}))
}

func TestNormalizeIPOCalendarIgnoresNonFiniteNumbers(t *testing.T) {
	body := `{"ipoCalendar":[
		{"symbol":"NAN","name":"Nan Corp","date":"2099-01-01","priceMin":"NaN","priceMax":"NaN","shares":"1e30"},
		{"symbol":"INF","name":"Inf Corp","date":"2099-01-01","price":"Inf-+Inf","numberOfShares":"-Inf"},
		{"symbol":"NEG","name":"Neg Corp","date":"2099-01-01","price":"NaN","shares":-5}
	]}`

	var calendar models.FinnhubIPOCalendar
	require.NoError(t, json.Unmarshal([]byte(body), &calendar))

	records := NormalizeIPOCalendar(calendar.IPOCalendar)
	require.Len(t, records, 3)

	assert.Equal(t, 0.0, records[0].PriceMin)
	assert.Equal(t, 0.0, records[0].PriceMax)
	assert.Equal(t, int64(maxShareCount), records[0].Shares)

	assert.Equal(t, 0.0, records[1].PriceMin)
	assert.Equal(t, 0.0, records[1].PriceMax)
	assert.Equal(t, int64(0), records[1].Shares)

	assert.Equal(t, 0.0, records[2].PriceMax)
	assert.Equal(t, int64(0), records[2].Shares)
}

package factory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-engine/currency"
	"github.com/warp/rent-engine/factory"
	"github.com/warp/rent-engine/rent"
	"github.com/warp/rent-engine/store/sqlite"
)

func loadSample(t *testing.T) (*sqlite.Store, *factory.Loaded) {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ds, err := factory.Parse(factory.Sample)
	require.NoError(t, err)
	loaded, err := factory.Load(context.Background(), s, ds)
	require.NoError(t, err)
	return s, loaded
}

func TestParse_Sample(t *testing.T) {
	ds, err := factory.Parse(factory.Sample)

	require.NoError(t, err)
	assert.Len(t, ds.Currencies, 2)
	assert.Len(t, ds.RentalObjects, 3)
	assert.Len(t, ds.Contracts, 3)
	assert.Equal(t, rent.NewDate(2024, time.January, 15), ds.Contracts[2].Date)
	assert.Equal(t, "31000", ds.Contracts[2].Rental.Rate.String())
}

func TestParse_RejectsBadReferences(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{
			name: "unknown currency on rate",
			json: `{"rates": [{"currency": "EUR", "company_id": 1, "date": "2024-01-01", "rate": "1"}]}`,
			want: "unknown currency",
		},
		{
			name: "parent defined after child",
			json: `{"groups": [{"key": "a", "name": "A", "parent": "b"}, {"key": "b", "name": "B"}]}`,
			want: "must be defined before",
		},
		{
			name: "duplicate object key",
			json: `{"rental_objects": [{"key": "x", "name": "X"}, {"key": "x", "name": "Y"}]}`,
			want: "duplicate rental object",
		},
		{
			name: "contract on unknown object",
			json: `{"contracts": [{"object": "nope", "number": "C", "date": "2024-01-01", "expiration_date": "2024-02-01"}]}`,
			want: "unknown rental object",
		},
		{
			name: "charge with unknown tax",
			json: `{
				"rental_objects": [{"key": "x", "name": "X"}],
				"contracts": [{"object": "x", "number": "C", "date": "2024-01-01", "expiration_date": "2024-02-01",
				               "rental": {"rate": "1", "tax": "vat"}}]
			}`,
			want: "unknown tax",
		},
		{
			name: "malformed date",
			json: `{"rates": [{"currency": "USD", "date": "01/02/2024", "rate": "1"}]}`,
			want: "invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.Parse([]byte(tt.json))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_Sample(t *testing.T) {
	s, loaded := loadSample(t)
	ctx := context.Background()

	assert.Len(t, loaded.RentalObjects, 3)
	assert.Len(t, loaded.Contracts, 3)
	assert.Equal(t, 2, loaded.Revenues)

	// Groups keep their hierarchy.
	floor, err := s.GetGroup(ctx, loaded.Groups["floor1"])
	require.NoError(t, err)
	mall, err := s.GetGroup(ctx, loaded.Groups["mall"])
	require.NoError(t, err)
	assert.True(t, floor.IsWithin(*mall))

	// Contract charges point at the loaded currency and tax.
	c, err := s.GetContract(ctx, loaded.Contracts[2])
	require.NoError(t, err)
	require.NotNil(t, c.Rental.Tax)
	assert.Equal(t, "VAT 20%", c.Rental.Tax.Name)
	assert.Equal(t, "UAH", c.Rental.Currency.Code)
	assert.Equal(t, "Office 7 lease", c.DisplayName())

	revenues, err := s.ListRevenues(ctx, loaded.CostCenters["office-7-main"])
	require.NoError(t, err)
	require.Len(t, revenues, 2)
	assert.Equal(t, rent.RevenuePlanned, revenues[0].Kind)
	assert.Equal(t, "Office 7 main 2024-01-01 5000", revenues[0].Name)
	assert.Equal(t, rent.RevenueActual, revenues[1].Kind)
	assert.Equal(t, "Office 7 main 2024-01-01 4750.25", revenues[1].Name)
}

func TestLoad_SampleCalculates(t *testing.T) {
	// GIVEN: the sample dataset in SQLite, reporting in USD
	s, loaded := loadSample(t)
	ctx := context.Background()
	calc := rent.NewCalculator(s, s, currency.NewConverter(s), loaded.Currencies["USD"], 1)

	// WHEN: the full year is calculated
	segments, err := calc.Calculate(ctx, rent.Query{Range: rent.Period{
		Start: rent.NewDate(2024, time.January, 1),
		End:   rent.NewDate(2024, time.December, 31),
	}})
	require.NoError(t, err)

	byObject := map[rent.ID][]rent.Segment{}
	for _, seg := range segments {
		byObject[seg.RentalObjectID] = append(byObject[seg.RentalObjectID], seg)
	}

	// THEN: consecutive contracts give 6*100 + 6*120
	shop := byObject[loaded.RentalObjects["shop-101"]]
	require.Len(t, shop, 12)
	assert.Equal(t, "1320", rent.GrandTotal(shop).Total.String())

	// Object without contracts: one zero segment per month
	empty := byObject[loaded.RentalObjects["shop-102"]]
	require.Len(t, empty, 12)
	for _, seg := range empty {
		assert.Equal(t, rent.NoActiveContract, seg.ContractName)
		assert.True(t, seg.Total.IsZero())
	}

	// Short contract: Jan 1-14 / Jan 15-20 / Jan 21-31, then 11 empty months
	office := byObject[loaded.RentalObjects["office-7"]]
	require.Len(t, office, 14)
	assert.Equal(t, rent.NoActiveContract, office[0].ContractName)
	covered := office[1]
	assert.Equal(t, 6, covered.DaysInPeriod)
	assert.Equal(t, 31, covered.DaysInMonth)
	// 31000 UAH * 6/31 * 1.2 = 7200 UAH at 38 -> 189.47; 600 UAH -> 15.79; 50 USD * 6/31 -> 9.68
	assert.Equal(t, "7200", covered.Rental.Original.String())
	assert.Equal(t, "189.47", covered.Rental.Converted.String())
	assert.Equal(t, "15.79", covered.Exploitation.Converted.String())
	assert.Equal(t, "9.68", covered.Marketing.Converted.String())
	assert.Equal(t, "214.94", covered.Total.String())
	assert.Equal(t, rent.NoActiveContract, office[2].ContractName)
}

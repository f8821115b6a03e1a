package rent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-engine/currency"
	"github.com/warp/rent-engine/rent"
	"github.com/warp/rent-engine/rent/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	usd = rent.Currency{ID: 1, Code: "USD", Symbol: "$", DecimalPlaces: 2}
	eur = rent.Currency{ID: 2, Code: "EUR", Symbol: "€", DecimalPlaces: 2}
)

const company rent.ID = 1

func newTestCalculator(t *testing.T) (*rent.Calculator, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	calc := rent.NewCalculator(mem, mem, currency.NewConverter(mem), usd, company)
	calc.Groups = mem
	return calc, mem
}

func day(year int, month time.Month, d int) rent.Date { return rent.NewDate(year, month, d) }

func year2024() rent.Query {
	return rent.Query{Range: rent.Period{Start: day(2024, time.January, 1), End: day(2024, time.December, 31)}}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func rentalContract(objectID rent.ID, number string, from, to rent.Date, rate string, cur *rent.Currency, tax *rent.Tax) rent.Contract {
	return rent.Contract{
		RentalObjectID: objectID,
		Number:         number,
		Date:           from,
		ExpirationDate: to,
		Type:           rent.ContractTypeContract,
		Rental:         rent.Charge{Rate: dec(rate), Currency: cur, Tax: tax},
		Active:         true,
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestCalculate_TwoConsecutiveContracts(t *testing.T) {
	// GIVEN: C1 Jan-Jun at 100/month and a newer C2 Jul-Dec at 120/month
	calc, mem := newTestCalculator(t)
	obj := mem.AddRentalObject(rent.RentalObject{Name: "Office 101", Active: true})
	c1 := mem.AddContract(rentalContract(obj.ID, "C001", day(2024, time.January, 1), day(2024, time.June, 30), "100", &usd, nil))
	c2 := mem.AddContract(rentalContract(obj.ID, "C002", day(2024, time.July, 1), day(2024, time.December, 31), "120", &usd, nil))

	// WHEN: Calculating the full year
	segments, err := calc.Calculate(context.Background(), year2024())
	require.NoError(t, err)

	// THEN: 12 monthly segments, full monthly rates, total 1320
	require.Len(t, segments, 12)
	for i, s := range segments {
		assert.Equal(t, obj.ID, s.RentalObjectID)
		assert.Equal(t, "Office 101", s.RentalObjectName)
		assert.Equal(t, s.DaysInMonth, s.DaysInPeriod, "segment %d should be a full month", i)
		assert.Equal(t, i+1, s.ReportMonth)
		require.NotNil(t, s.ContractID)
		if i < 6 {
			assert.Equal(t, c1.ID, *s.ContractID)
			assertDecimal(t, "100", s.Rental.Original)
		} else {
			assert.Equal(t, c2.ID, *s.ContractID)
			assertDecimal(t, "120", s.Rental.Original)
		}
	}
	assertDecimal(t, "1320", rent.GrandTotal(segments).Total)
}

func TestCalculate_NoContracts_ZeroSegmentPerMonth(t *testing.T) {
	calc, mem := newTestCalculator(t)
	mem.AddRentalObject(rent.RentalObject{Name: "Empty", Active: true})

	segments, err := calc.Calculate(context.Background(), rent.Query{
		Range: rent.Period{Start: day(2024, time.January, 1), End: day(2024, time.March, 31)},
	})
	require.NoError(t, err)

	require.Len(t, segments, 3)
	for _, s := range segments {
		assert.Nil(t, s.ContractID)
		assert.Equal(t, rent.NoActiveContract, s.ContractName)
		assert.True(t, s.Total.IsZero())
		for _, kind := range rent.ChargeKinds {
			a := s.Amount(kind)
			assert.True(t, a.Original.IsZero())
			assert.True(t, a.Converted.IsZero())
			assert.Equal(t, "$", a.CurrencySymbol)
			assert.Empty(t, a.TaxName)
		}
	}
}

func TestCalculate_ContractInsideMonth(t *testing.T) {
	// GIVEN: Contract covering Jan 15 - Jan 20 only
	calc, mem := newTestCalculator(t)
	obj := mem.AddRentalObject(rent.RentalObject{Name: "Kiosk", Active: true})
	mem.AddContract(rentalContract(obj.ID, "K1", day(2024, time.January, 15), day(2024, time.January, 20), "310", &usd, nil))

	segments, err := calc.Calculate(context.Background(), rent.Query{
		Range: rent.Period{Start: day(2024, time.January, 1), End: day(2024, time.January, 31)},
	})
	require.NoError(t, err)

	// THEN: Three segments, contract in the middle prorated 6/31
	require.Len(t, segments, 3)
	assert.Nil(t, segments[0].ContractID)
	assert.Equal(t, 14, segments[0].DaysInPeriod)

	mid := segments[1]
	require.NotNil(t, mid.ContractID)
	assert.Equal(t, 6, mid.DaysInPeriod)
	assert.Equal(t, 31, mid.DaysInMonth)
	assertDecimal(t, "60", mid.Rental.Original)
	assertDecimal(t, "60", mid.Total)
	assert.Equal(t, "#K1 from Jan 15, 2024", mid.ContractName)

	assert.Nil(t, segments[2].ContractID)
	assert.Equal(t, 11, segments[2].DaysInPeriod)
}

// =============================================================================
// PRECEDENCE
// =============================================================================

func TestCalculate_NewerContractOverridesThenOlderResumes(t *testing.T) {
	calc, mem := newTestCalculator(t)
	obj := mem.AddRentalObject(rent.RentalObject{Name: "Shop", Active: true})
	old := mem.AddContract(rentalContract(obj.ID, "OLD", day(2024, time.January, 1), day(2024, time.December, 31), "100", &usd, nil))
	promo := mem.AddContract(rentalContract(obj.ID, "PROMO", day(2024, time.March, 1), day(2024, time.March, 31), "50", &usd, nil))

	segments, err := calc.Calculate(context.Background(), year2024())
	require.NoError(t, err)

	require.Len(t, segments, 12)
	assert.Equal(t, old.ID, *segments[1].ContractID)
	assert.Equal(t, promo.ID, *segments[2].ContractID)
	assert.Equal(t, old.ID, *segments[3].ContractID)
	assertDecimal(t, "1150", rent.GrandTotal(segments).Total)
}

func TestCalculate_AgreementsParticipate(t *testing.T) {
	calc, mem := newTestCalculator(t)
	obj := mem.AddRentalObject(rent.RentalObject{Name: "Shop", Active: true})
	mem.AddContract(rentalContract(obj.ID, "C", day(2024, time.January, 1), day(2024, time.December, 31), "100", &usd, nil))
	agreement := rentalContract(obj.ID, "A1", day(2024, time.June, 1), day(2024, time.June, 30), "90", &usd, nil)
	agreement.Type = rent.ContractTypeAdditionalAgreement
	agreement = mem.AddContract(agreement)

	segments, err := calc.Calculate(context.Background(), year2024())
	require.NoError(t, err)

	assert.Equal(t, agreement.ID, *segments[5].ContractID)
	assertDecimal(t, "90", segments[5].Rental.Converted)
}

func TestCalculate_InactiveContractIgnored(t *testing.T) {
	calc, mem := newTestCalculator(t)
	obj := mem.AddRentalObject(rent.RentalObject{Name: "Shop", Active: true})
	c := rentalContract(obj.ID, "X", day(2024, time.January, 1), day(2024, time.December, 31), "100", &usd, nil)
	c.Active = false
	mem.AddContract(c)

	segments, err := calc.Calculate(context.Background(), year2024())
	require.NoError(t, err)

	assert.True(t, rent.GrandTotal(segments).Total.IsZero())
}

// =============================================================================
// TAX
// =============================================================================

func TestCalculate_PercentTaxApplied(t *testing.T) {
	calc, mem := newTestCalculator(t)
	vat := &rent.Tax{ID: 1, Name: "VAT 20%", Amount: dec("20"), AmountType: rent.TaxPercent}
	obj := mem.AddRentalObject(rent.RentalObject{Name: "Shop", Active: true})
	mem.AddContract(rentalContract(obj.ID, "T", day(2024, time.January, 1), day(2024, time.January, 31), "100", &usd, vat))

	segments, err := calc.Calculate(context.Background(), rent.Query{
		Range: rent.Period{Start: day(2024, time.January, 1), End: day(2024, time.January, 31)},
	})
	require.NoError(t, err)

	require.Len(t, segments, 1)
	assertDecimal(t, "120", segments[0].Rental.Original)
	assert.Equal(t, "VAT 20%", segments[0].Rental.TaxName)
}

func TestCalculate_UnsupportedTaxAbortsWholeBatch(t *testing.T) {
	// GIVEN: Two objects, only the second has a fixed tax
	calc, mem := newTestCalculator(t)
	fixed := &rent.Tax{ID: 5, Name: "Stamp duty", Amount: dec("10"), AmountType: rent.TaxFixed}
	good := mem.AddRentalObject(rent.RentalObject{Name: "Good", Active: true})
	bad := mem.AddRentalObject(rent.RentalObject{Name: "Bad", Active: true})
	mem.AddContract(rentalContract(good.ID, "G", day(2024, time.January, 1), day(2024, time.December, 31), "100", &usd, nil))
	mem.AddContract(rentalContract(bad.ID, "B", day(2024, time.January, 1), day(2024, time.December, 31), "100", &usd, fixed))

	// WHEN: Calculating
	segments, err := calc.Calculate(context.Background(), year2024())

	// THEN: No rows at all and the error identifies the tax
	require.Error(t, err)
	assert.Nil(t, segments)
	assert.ErrorIs(t, err, rent.ErrUnsupportedTaxKind)
	var taxErr *rent.UnsupportedTaxKindError
	require.ErrorAs(t, err, &taxErr)
	assert.Equal(t, rent.ID(5), taxErr.TaxID)
	assert.Equal(t, "Stamp duty", taxErr.Name)
	assert.Equal(t, rent.TaxFixed, taxErr.Kind)
}

// =============================================================================
// CURRENCY
// =============================================================================

func TestCalculate_ConvertsAsOfMonthEnd(t *testing.T) {
	// GIVEN: EUR contract; EUR rate changes mid-February
	calc, mem := newTestCalculator(t)
	mem.AddRate(currency.Rate{CompanyID: company, CurrencyID: eur.ID, Date: day(2024, time.January, 1), Rate: dec("0.5")})
	mem.AddRate(currency.Rate{CompanyID: company, CurrencyID: eur.ID, Date: day(2024, time.February, 15), Rate: dec("0.8")})
	obj := mem.AddRentalObject(rent.RentalObject{Name: "Paris", Active: true})
	mem.AddContract(rentalContract(obj.ID, "EU", day(2024, time.January, 1), day(2024, time.February, 29), "100", &eur, nil))

	segments, err := calc.Calculate(context.Background(), rent.Query{
		Range: rent.Period{Start: day(2024, time.January, 1), End: day(2024, time.February, 29)},
	})
	require.NoError(t, err)

	// THEN: January uses 0.5, February uses the rate on Feb 29 (0.8)
	require.Len(t, segments, 2)
	assertDecimal(t, "100", segments[0].Rental.Original)
	assert.Equal(t, "€", segments[0].Rental.CurrencySymbol)
	assertDecimal(t, "200", segments[0].Rental.Converted)
	assertDecimal(t, "125", segments[1].Rental.Converted)
	assert.Equal(t, usd.ID, segments[1].CurrencyID)
}

func TestCalculate_ConvertedAmountRounded(t *testing.T) {
	calc, mem := newTestCalculator(t)
	obj := mem.AddRentalObject(rent.RentalObject{Name: "Shop", Active: true})
	mem.AddContract(rentalContract(obj.ID, "R", day(2024, time.January, 17), day(2024, time.January, 31), "100", &usd, nil))

	segments, err := calc.Calculate(context.Background(), rent.Query{
		Range: rent.Period{Start: day(2024, time.January, 17), End: day(2024, time.January, 31)},
	})
	require.NoError(t, err)

	require.Len(t, segments, 1)
	assertDecimal(t, "48.39", segments[0].Rental.Converted)
	assert.True(t, segments[0].Rental.Original.GreaterThan(dec("48.387")))
}

func TestCalculate_MissingCurrency_ZeroContribution(t *testing.T) {
	calc, mem := newTestCalculator(t)
	obj := mem.AddRentalObject(rent.RentalObject{Name: "Shop", Active: true})
	c := rentalContract(obj.ID, "M", day(2024, time.January, 1), day(2024, time.January, 31), "100", nil, nil)
	c.Marketing = rent.Charge{Rate: dec("10"), Currency: &usd}
	mem.AddContract(c)

	segments, err := calc.Calculate(context.Background(), rent.Query{
		Range: rent.Period{Start: day(2024, time.January, 1), End: day(2024, time.January, 31)},
	})
	require.NoError(t, err)

	require.Len(t, segments, 1)
	assert.True(t, segments[0].Rental.Converted.IsZero())
	assert.Equal(t, "$", segments[0].Rental.CurrencySymbol)
	assertDecimal(t, "10", segments[0].Marketing.Converted)
	assertDecimal(t, "10", segments[0].Total)
}

// =============================================================================
// RANGE & COLLABORATOR FAILURES
// =============================================================================

type countingStore struct {
	*store.Memory
	objectCalls int
	failWith    error
}

func (c *countingStore) ListRentalObjects(ctx context.Context) ([]rent.RentalObject, error) {
	c.objectCalls++
	return c.Memory.ListRentalObjects(ctx)
}

func (c *countingStore) FindActiveContracts(ctx context.Context, id rent.ID, from, to rent.Date) ([]rent.Contract, error) {
	if c.failWith != nil {
		return nil, c.failWith
	}
	return c.Memory.FindActiveContracts(ctx, id, from, to)
}

func TestCalculate_InvalidRange_NoStoreAccess(t *testing.T) {
	cs := &countingStore{Memory: store.NewMemory()}
	calc := rent.NewCalculator(cs, cs, currency.NewConverter(cs), usd, company)

	segments, err := calc.Calculate(context.Background(), rent.Query{
		Range: rent.Period{Start: day(2024, time.February, 1), End: day(2024, time.January, 1)},
	})

	assert.ErrorIs(t, err, rent.ErrInvalidRange)
	assert.True(t, rent.IsClientError(err))
	assert.Nil(t, segments)
	assert.Zero(t, cs.objectCalls)
}

func TestCalculate_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("store unavailable")
	cs := &countingStore{Memory: store.NewMemory(), failWith: boom}
	cs.AddRentalObject(rent.RentalObject{Name: "Shop", Active: true})
	calc := rent.NewCalculator(cs, cs, currency.NewConverter(cs), usd, company)

	_, err := calc.Calculate(context.Background(), year2024())

	assert.ErrorIs(t, err, boom)
}

// =============================================================================
// DETERMINISM & GROUPS
// =============================================================================

func TestCalculate_Deterministic(t *testing.T) {
	calc, mem := newTestCalculator(t)
	mem.AddRate(currency.Rate{CompanyID: company, CurrencyID: eur.ID, Date: day(2024, time.January, 1), Rate: dec("0.9")})
	for i := 0; i < 3; i++ {
		obj := mem.AddRentalObject(rent.RentalObject{Name: "Unit", Active: true})
		mem.AddContract(rentalContract(obj.ID, "A", day(2024, time.February, 10), day(2024, time.September, 3), "333.33", &eur, nil))
		mem.AddContract(rentalContract(obj.ID, "B", day(2024, time.May, 1), day(2024, time.May, 20), "1000", &usd, nil))
	}

	first, err := calc.Calculate(context.Background(), year2024())
	require.NoError(t, err)
	second, err := calc.Calculate(context.Background(), year2024())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculate_GroupFilter(t *testing.T) {
	calc, mem := newTestCalculator(t)
	root, err := mem.AddGroup(rent.RentalObjectGroup{Name: "Mall", Active: true})
	require.NoError(t, err)
	wing, err := mem.AddGroup(rent.RentalObjectGroup{Name: "East wing", ParentID: &root.ID, Active: true})
	require.NoError(t, err)
	other, err := mem.AddGroup(rent.RentalObjectGroup{Name: "Office park", Active: true})
	require.NoError(t, err)

	inWing := mem.AddRentalObject(rent.RentalObject{Name: "E-1", GroupID: &wing.ID, Active: true})
	mem.AddRentalObject(rent.RentalObject{Name: "P-1", GroupID: &other.ID, Active: true})
	mem.AddRentalObject(rent.RentalObject{Name: "Loose", Active: true})

	segments, err := calc.Calculate(context.Background(), rent.Query{
		Range:   rent.Period{Start: day(2024, time.January, 1), End: day(2024, time.January, 31)},
		GroupID: &root.ID,
	})
	require.NoError(t, err)

	require.Len(t, segments, 1)
	assert.Equal(t, inWing.ID, segments[0].RentalObjectID)
}

func TestCalculate_UnknownGroup(t *testing.T) {
	calc, _ := newTestCalculator(t)
	missing := rent.ID(42)

	_, err := calc.Calculate(context.Background(), rent.Query{Range: year2024().Range, GroupID: &missing})

	assert.True(t, rent.IsNotFound(err))
}

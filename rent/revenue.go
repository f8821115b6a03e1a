package rent

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CostCenter is a sub-area of a rental object that revenue is tracked against.
type CostCenter struct {
	ID             ID
	RentalObjectID ID
	Name           string
	AreaSize       decimal.Decimal
	Active         bool
}

type RevenueKind string

const (
	RevenuePlanned RevenueKind = "planned"
	RevenueActual  RevenueKind = "actual"
)

func (k RevenueKind) Valid() bool { return k == RevenuePlanned || k == RevenueActual }

// MonthlyRevenue is a planned or actual revenue figure of a cost center.
type MonthlyRevenue struct {
	ID           ID
	Kind         RevenueKind
	CostCenterID ID
	Date         Date
	Revenue      decimal.Decimal
	Name         string
	Active       bool
}

// RevenueName derives the stored name "<cost center> <date> <revenue>".
// Call it whenever the cost center, date or revenue changes.
func RevenueName(costCenterName string, date Date, revenue decimal.Decimal) string {
	return fmt.Sprintf("%s %s %s", costCenterName, date, revenue.String())
}

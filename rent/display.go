package rent

import "fmt"

// LatestContract returns the most recent active contract of type "contract"
// (date desc, ID desc). Agreements are ignored here even though the
// calculation uses them.
func LatestContract(contracts []Contract) *Contract {
	var latest *Contract
	for i := range contracts {
		c := contracts[i]
		if !c.Active || c.Type != ContractTypeContract {
			continue
		}
		if latest == nil ||
			c.Date.After(latest.Date) ||
			(c.Date.Equal(latest.Date) && c.ID > latest.ID) {
			latest = &c
		}
	}
	return latest
}

// NumberDateLabel renders "#C001 from Jan 01, 2024".
func NumberDateLabel(c Contract) string {
	return fmt.Sprintf("#%s from %s", c.Number, c.Date.Time.Format("Jan 02, 2006"))
}

// ActualContractLabel is the label shown on a rental object, empty when it
// has no contract of type "contract".
func ActualContractLabel(contracts []Contract) string {
	latest := LatestContract(contracts)
	if latest == nil {
		return ""
	}
	return NumberDateLabel(*latest)
}

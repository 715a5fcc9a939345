package pricing

// Split is the money split between platform and organiser for one paid
// booking unit.
type Split struct {
	CustomerPaid     float64 `json:"customer_paid"`
	OrganiserEarning float64 `json:"organiser_earning"`
	AdminCommission  float64 `json:"admin_commission"`
	AdminTax         float64 `json:"admin_tax"`
}

// CommissionFor splits a settled unit between the organiser and the
// platform. The commission percentage is charged on the organiser price;
// admin tax is withheld separately and never enters the split.
//
// The identity organiserPrice == organiserEarning + adminCommission holds
// for every percentage.
func CommissionFor(organiserPrice, adminTax, percent float64) Split {
	margin := percent * organiserPrice / 100
	earning := organiserPrice - margin
	return Split{
		CustomerPaid:     round2(organiserPrice),
		OrganiserEarning: round2(earning),
		AdminCommission:  round2(organiserPrice - earning),
		AdminTax:         round2(adminTax),
	}
}

package loan

// =============================================================================
// REPAYMENT OPTION PRESETS
// =============================================================================

type preset struct {
	name          string
	memo          string
	throughEscrow bool
}

var presets = []preset{
	{"Taxes", "Tax Payment", true},
	{"Insurance", "Insurance Payment", true},
	{"PMI", "PMI Payment", true},
	{"Other Expense", "Miscellaneous Payment", false},
}

// DefaultOptions returns the usual mortgage extras, all disabled and
// without accounts. Callers enable the ones that apply and fill in amounts
// and destinations.
func DefaultOptions() []RepaymentOption {
	out := make([]RepaymentOption, len(presets))
	for i, p := range presets {
		out[i] = RepaymentOption{
			Name:          p.name,
			Memo:          p.memo,
			ThroughEscrow: p.throughEscrow,
		}
	}
	return out
}

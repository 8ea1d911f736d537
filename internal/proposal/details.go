// Package proposal extracts structured commercial terms from ArcSite
// proposal documents. Extraction is anchor-based and best-effort: every
// field degrades to its empty value when its anchor text is missing, and
// the only error condition is a document that cannot be decoded at all.
package proposal

import "github.com/shopspring/decimal"

// Details is the structured extraction result for one proposal document.
// InitialPrice and RecurringPrice are strings because an empty value
// (anchor absent) is distinct from a confirmed "0".
type Details struct {
	ServiceType                  string          `json:"service_type"`
	InitialPrice                 string          `json:"initial_price"`
	RecurringPrice               string          `json:"recurring_price"`
	RecurringFrequency           Frequency       `json:"recurring_frequency"`
	ContractLength               string          `json:"contract_length"`
	MultiUnit                    bool            `json:"multi_unit"`
	UnitQuotaPerService          string          `json:"unit_quota_per_service"`
	AdditionalServiceInformation string          `json:"additional_service_information"`
	AnnualContractValue          decimal.Decimal `json:"annual_contract_value"`
}

// Frequency is a recognized recurring-service cadence token.
// The zero value means the document carried no recognizable cadence.
type Frequency string

const (
	FreqOneTime     Frequency = "One-Time"
	FreqWeekly      Frequency = "Weekly"
	FreqEveryOther  Frequency = "Every 2 Weeks"
	FreqTwiceMonth  Frequency = "Twice a Month"
	FreqMonthly     Frequency = "Monthly"
	FreqBiMonthly   Frequency = "Bi-Monthly"
	FreqQuarterly   Frequency = "Quarterly"
	FreqSeasonally  Frequency = "Seasonally"
	FreqUnspecified Frequency = ""
)

// frequencies is the match vocabulary in scan order. Occurrences counts the
// recurring visits per year after the included initial service, so the
// annual contract value is recurring price times occurrences plus the
// initial price.
var frequencies = []struct {
	Token       Frequency
	Occurrences int64
}{
	{FreqOneTime, 0},
	{FreqWeekly, 51},
	{FreqEveryOther, 25},
	{FreqTwiceMonth, 23},
	{FreqMonthly, 11},
	{FreqBiMonthly, 5},
	{FreqQuarterly, 3},
	{FreqSeasonally, 7},
}

// Occurrences returns the annual recurring-visit count for the frequency,
// zero for one-time or unrecognized cadences.
func (f Frequency) Occurrences() int64 {
	for _, entry := range frequencies {
		if entry.Token == f {
			return entry.Occurrences
		}
	}
	return 0
}

// annualValue derives the annual contract value. One-time service equals
// the initial price regardless of any recurring figure. Empty prices count
// as zero here; the distinction between empty and zero only matters for the
// individual price fields themselves.
func annualValue(freq Frequency, initialPrice, recurringPrice string) decimal.Decimal {
	initial := parsePrice(initialPrice)

	if freq == FreqOneTime {
		return initial
	}

	recurring := parsePrice(recurringPrice)
	return recurring.Mul(decimal.NewFromInt(freq.Occurrences())).Add(initial)
}

func parsePrice(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(stripThousands(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

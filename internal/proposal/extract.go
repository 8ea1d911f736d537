package proposal

import (
	"regexp"
	"strings"
)

// Anchor phrases as they appear in the plain-text rendering of an ArcSite
// proposal. Matching is exact; if a start anchor is absent the field is
// simply empty.
const (
	anchorRecurringServices  = "Recurring Services"
	anchorTotalRecurring     = "Total Recurring Price"
	anchorInitialService     = "Initial Service"
	anchorInitialTotal       = "Total"
	anchorMultiUnit          = "Multi-Unit Property"
	anchorUnitQuota          = "units to be serviced at each scheduled appointment"
	anchorServiceDetails     = "Service Specific Details"
	anchorIndividualUnit     = "Individual Unit"
	anchorOwnerDisclaimer    = "You, the"
	anchorCancellationClause = "If at any time"
)

var (
	priceRe    = regexp.MustCompile(`\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?`)
	integerRe  = regexp.MustCompile(`\d+`)
	contractRe = regexp.MustCompile(`(\d+) (days|months)`)
	pageMarkRe = regexp.MustCompile(`Page \d+ of \d+`)
)

// Parse extracts proposal details from the plain-text rendering of a
// proposal document. It never fails: absent anchors yield empty fields.
func Parse(text string) Details {
	recurring := segment(text, anchorRecurringServices, anchorTotalRecurring)
	freq := matchFrequency(recurring)

	d := Details{
		ServiceType:                  serviceType(recurring, freq),
		InitialPrice:                 initialPrice(text),
		RecurringPrice:               firstPriceAfter(text, anchorTotalRecurring),
		RecurringFrequency:           freq,
		ContractLength:               contractLength(text),
		MultiUnit:                    isMultiUnit(text),
		UnitQuotaPerService:          unitQuota(text),
		AdditionalServiceInformation: additionalInfo(text),
	}
	d.AnnualContractValue = annualValue(d.RecurringFrequency, d.InitialPrice, d.RecurringPrice)
	return d
}

// segment returns the text strictly between the first occurrence of start
// and the next occurrence of end. Missing start yields ""; missing end
// extends the segment to the end of the document.
func segment(text, start, end string) string {
	i := strings.Index(text, start)
	if i < 0 {
		return ""
	}
	rest := text[i+len(start):]

	if j := strings.Index(rest, end); j >= 0 {
		return rest[:j]
	}
	return rest
}

// matchFrequency scans for known cadence tokens. Proposals may restate the
// cadence; the last occurrence in the text is authoritative. A token match
// that sits inside a longer token's match does not count ("Monthly" inside
// "Bi-Monthly").
func matchFrequency(text string) Frequency {
	best := FreqUnspecified
	bestPos := -1

	for _, entry := range frequencies {
		token := string(entry.Token)
		for from := 0; ; {
			pos := strings.Index(text[from:], token)
			if pos < 0 {
				break
			}
			pos += from
			from = pos + 1

			if shadowed(text, token, pos) {
				continue
			}
			if pos > bestPos {
				best = entry.Token
				bestPos = pos
			}
		}
	}

	return best
}

func shadowed(text, token string, pos int) bool {
	for _, entry := range frequencies {
		longer := string(entry.Token)
		if len(longer) <= len(token) {
			continue
		}

		start := max(pos+len(token)-len(longer), 0)
		for i := start; i <= pos; i++ {
			if strings.HasPrefix(text[i:], longer) {
				return true
			}
		}
	}
	return false
}

func serviceType(recurring string, freq Frequency) string {
	s := recurring
	if freq != FreqUnspecified {
		s = strings.ReplaceAll(s, string(freq), "")
	}
	return strings.TrimSpace(s)
}

// initialPrice finds the first numeric token following the
// "Initial Service ... Total" anchor pair. First match wins here, unlike
// frequency and contract length: the initial price appears once, up front.
func initialPrice(text string) string {
	section := segmentFrom(text, anchorInitialService)
	if section == "" {
		return ""
	}
	return firstPriceAfter(section, anchorInitialTotal)
}

func firstPriceAfter(text, anchor string) string {
	rest := segmentFrom(text, anchor)
	if rest == "" {
		return ""
	}
	return priceRe.FindString(rest)
}

func segmentFrom(text, anchor string) string {
	i := strings.Index(text, anchor)
	if i < 0 {
		return ""
	}
	return text[i+len(anchor):]
}

// isMultiUnit checks the five characters immediately following the
// multi-unit anchor for an affirmative mark.
func isMultiUnit(text string) bool {
	rest := segmentFrom(text, anchorMultiUnit)
	if rest == "" {
		return false
	}

	if len(rest) > 5 {
		rest = rest[:5]
	}
	rest = strings.ToLower(strings.Join(strings.Fields(rest), ""))
	return strings.Contains(rest, "yes")
}

func unitQuota(text string) string {
	rest := segmentFrom(text, anchorUnitQuota)
	if rest == "" {
		return ""
	}
	return integerRe.FindString(rest)
}

// contractLength takes the last "<n> days|months" match in the document:
// the figure may be restated later with more authority.
func contractLength(text string) string {
	matches := contractRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

// additionalInfo returns the free text following the service-details
// marker, with pagination artifacts removed and truncated at whichever
// known trailing clause occurs first.
func additionalInfo(text string) string {
	rest := segmentFrom(text, anchorServiceDetails)
	if rest == "" {
		return ""
	}

	rest = pageMarkRe.ReplaceAllString(rest, "")

	for _, trailer := range []string{
		anchorMultiUnit,
		anchorIndividualUnit,
		anchorOwnerDisclaimer,
		anchorCancellationClause,
	} {
		if i := strings.Index(rest, trailer); i >= 0 {
			rest = rest[:i]
		}
	}

	return strings.TrimSpace(rest)
}

func stripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

package validation

import "sort"

// DefaultContraFirm is the canonical fallback participant number suggested
// when a contra firm is not recognized.
const DefaultContraFirm = "0001"

// contraFirms maps 4-digit DTCC participant numbers to institution names.
var contraFirms = map[string]string{
	"0001": "Fidelity Investments",
	"0002": "Charles Schwab",
	"0003": "Merrill Lynch",
	"0004": "Morgan Stanley",
	"0005": "Goldman Sachs",
	"0006": "JP Morgan",
	"0007": "Bank of America",
	"0008": "Wells Fargo",
	"0009": "TD Ameritrade",
	"0010": "E*TRADE",
}

// KnownContraFirm reports whether code is in the participant reference table.
func KnownContraFirm(code string) bool {
	_, ok := contraFirms[code]
	return ok
}

// ContraFirmName returns the institution name for a participant number, or
// an empty string if the code is not known.
func ContraFirmName(code string) string {
	return contraFirms[code]
}

// ContraFirms returns a copy of the participant reference table.
func ContraFirms() map[string]string {
	out := make(map[string]string, len(contraFirms))
	for code, name := range contraFirms {
		out[code] = name
	}
	return out
}

// ContraFirmCodes returns all known participant numbers in ascending order.
func ContraFirmCodes() []string {
	codes := make([]string, 0, len(contraFirms))
	for code := range contraFirms {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

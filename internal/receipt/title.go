// Package receipt holds the title-detection heuristic applied to OCR text
// extracted from photographed receipts.
package receipt

import (
	"regexp"
	"strings"
)

// lineItem matches a priced receipt line: optional leading digits (quantity),
// the line-item label, then a price with two decimal digits. The label is the
// title candidate.
var (
	lineItem    = regexp.MustCompile(`^(?:\d+\s+)?([A-Z][^0-9]+?)\s+\d+[,.]\d{2}`)
	reservedRe  = regexp.MustCompile(`(?i)^(total|prix|montant|tva|remise)`)
	numericRe   = regexp.MustCompile(`^\d+$`)
	nonLetterRe = regexp.MustCompile(`^[^a-zA-Z]`)
)

// DetectTitle scans OCR text line by line and returns the first candidate
// that looks like a purchased book title, or "" when nothing qualifies.
//
// This is a heuristic, not a parser: a missed title or a wrongly matched
// line is expected and must never fail the surrounding submission. Callers
// treat "" as "requires manual matching".
func DetectTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		m := lineItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[1])
		if len(title) <= 3 {
			continue
		}
		if reservedRe.MatchString(title) {
			continue
		}
		if numericRe.MatchString(title) {
			continue
		}
		if nonLetterRe.MatchString(title) {
			continue
		}
		if len(strings.Fields(title)) < 1 {
			continue
		}
		return title
	}
	return ""
}

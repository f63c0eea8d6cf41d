// Package format holds pure helpers for invoice numbers and money display.
package format

import (
	"fmt"
	"regexp"
	"strings"
)

var numberRe = regexp.MustCompile(`^([A-Z0-9]+)-(\d{4})-(\d{6})$`)

// InvoiceNumber formats the canonical invoice identifier
// <PREFIX>-<YEAR>-<zero-padded sequence>.
//
// This function is PURE: no side effects, no DB access, fully deterministic.
func InvoiceNumber(prefix string, year int, seq int64) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", fmt.Errorf("invoice number prefix is empty")
	}
	if year < 2000 || year > 9999 {
		return "", fmt.Errorf("invalid invoice year: %d", year)
	}
	if seq <= 0 || seq > 999999 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq), nil
}

// YearPattern returns the SQL LIKE pattern matching every invoice number
// issued under prefix during year.
func YearPattern(prefix string, year int) string {
	return fmt.Sprintf("%s-%d-%%", strings.ToUpper(strings.TrimSpace(prefix)), year)
}

// ParseInvoiceNumber splits a canonical invoice number into its components.
func ParseInvoiceNumber(number string) (prefix string, year int, seq int64, err error) {
	match := numberRe.FindStringSubmatch(strings.TrimSpace(number))
	if match == nil {
		return "", 0, 0, fmt.Errorf("malformed invoice number: %q", number)
	}
	fmt.Sscanf(match[2], "%d", &year)
	fmt.Sscanf(match[3], "%d", &seq)
	return match[1], year, seq, nil
}

// Euros renders an amount of euro cents for documents and notifications.
func Euros(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d €", sign, cents/100, cents%100)
}

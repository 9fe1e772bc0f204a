// Package numbering generates the human-readable sequential document codes
// used on proformas and invoices: P240601-001, F240602-014, ...
//
// A counter scope is the (prefix, day) pair. Within one scope the sequence
// starts at 1 and is strictly increasing. Scopes roll over naturally with
// the calendar day; different prefixes never collide even on the same day.
//
// The package is purely computational. Repositories provide the locking:
// the highest existing code for a scope must be read under a row lock in
// the same transaction that persists the new document, so two concurrent
// writers cannot compute the same sequence number.
package numbering

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gescom-app/gescom/internal/shared"
)

const (
	// PrefixProforma marks order (proforma) codes.
	PrefixProforma = "P"
	// PrefixInvoice marks settlement (invoice) codes.
	PrefixInvoice = "F"

	dayLayout = "060102"
)

// Scope returns the code prefix shared by every document of one counter
// scope, e.g. "P240601". Repositories match on Scope(...)+"%" when looking
// up the latest allocated code.
func Scope(prefix string, day time.Time) string {
	return prefix + day.Format(dayLayout)
}

// Format renders a full document code for the given scope and sequence
// number. Sequence numbers are zero-padded to three digits and overflow
// naturally to more digits past 999.
func Format(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%03d", Scope(prefix, day), seq)
}

// Sequence extracts the numeric sequence from a document code.
func Sequence(code string) (int, error) {
	idx := strings.LastIndex(code, "-")
	if idx < 0 || idx == len(code)-1 {
		return 0, fmt.Errorf("%w: malformed document code %q", shared.ErrValidation, code)
	}
	seq, err := strconv.Atoi(code[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed document code %q", shared.ErrValidation, code)
	}
	return seq, nil
}

// Next computes the code following lastCode within the (prefix, day) scope.
// An empty lastCode starts the scope at sequence 1.
func Next(lastCode, prefix string, day time.Time) (string, error) {
	if lastCode == "" {
		return Format(prefix, day, 1), nil
	}
	seq, err := Sequence(lastCode)
	if err != nil {
		return "", err
	}
	return Format(prefix, day, seq+1), nil
}

// Package status implements the traffic-light classification of a bag's
// verification and expiry urgency. It is the single source of the rule: both
// the interactive check path and the batch recompute call Classify, so the
// two can never drift apart.
//
// Rule, in priority order:
//  1. purple — a contained item is already expired (item expiry strictly
//     before now), regardless of the control dates.
//  2. red    — the next control date is strictly in the past.
//  3. orange — the next control is due within the warning window (30 days).
//  4. green  — otherwise.
//
// Missing dates act as "no constraint": a bag with no next-control date and
// no item expiry keeps whatever status it already has.
package status

import "time"

// OrangeWindowDays is the look-ahead window for the orange warning.
const OrangeWindowDays = 30

// DefaultFrequencyDays is used when a bag's category has no usable frequency.
const DefaultFrequencyDays = 30

// Classify returns the status for the given control and expiry dates.
// nextControl and itemExpiry may be nil (no constraint). The boolean result
// is false when neither date constrains the bag, in which case the caller
// should leave the stored status unchanged.
func Classify(now time.Time, nextControl, itemExpiry *time.Time) (string, bool) {
	if itemExpiry != nil && itemExpiry.Before(now) {
		return "purple", true
	}
	if nextControl == nil {
		return "", false
	}
	left := DaysUntil(now, *nextControl)
	switch {
	case left < 0:
		return "red", true
	case left < OrangeWindowDays:
		return "orange", true
	default:
		return "green", true
	}
}

// NextControl computes the next control date from a verification instant and
// the category frequency in days. Non-positive frequencies fall back to
// DefaultFrequencyDays.
func NextControl(verifiedAt time.Time, frequencyDays int) time.Time {
	if frequencyDays <= 0 {
		frequencyDays = DefaultFrequencyDays
	}
	return verifiedAt.AddDate(0, 0, frequencyDays)
}

// DaysUntil returns the number of whole days from now until t, negative when
// t is in the past. The diff is truncated toward zero, matching a calendar
// "days left" reading: 29.9 days ahead is 29 days left (inside the orange
// window), 0.5 days past due is 0... so past-ness is decided on the raw
// instant, not the truncated diff.
func DaysUntil(now, t time.Time) int {
	d := t.Sub(now)
	days := int(d / (24 * time.Hour))
	if d < 0 && days == 0 {
		// Strictly before now must classify as overdue even within the
		// first 24 hours.
		return -1
	}
	return days
}

// ParseDate parses the wire format used for expiry dates (YYYY-MM-DD).
// Unparsable or empty input degrades to nil ("no constraint") rather than
// failing, per the malformed-date policy.
func ParseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// FormatDate renders a date as dd/MM/yyyy, the display format used across
// the inventory and mail bodies. Nil renders as the empty string.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatDateTime renders a timestamp as dd/MM/yyyy HH:mm, used for history
// entries.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

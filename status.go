package sysmon

import "time"

// Availability is the normalized stock state of a watched hardware model.
//
// The upstream API reports free-form strings such as "unavailable", "1H-low"
// or "72H". Only "unavailable" carries meaning on its own; every other value,
// including no value at all, collapses to [AvailabilityAvailable].
type Availability string

const (
	// AvailabilityAvailable indicates the hardware can be ordered.
	AvailabilityAvailable Availability = "available"

	// AvailabilityUnavailable indicates the hardware is out of stock.
	AvailabilityUnavailable Availability = "unavailable"
)

// String returns the string representation of the availability.
func (a Availability) String() string {
	return string(a)
}

// NormalizeAvailability maps a raw upstream availability string onto an
// [Availability] value.
func NormalizeAvailability(raw string) Availability {
	if raw == string(AvailabilityUnavailable) {
		return AvailabilityUnavailable
	}
	return AvailabilityAvailable
}

// Hardware is one watched server model in one datacenter, together with the
// addresses that should hear about it.
type Hardware struct {
	// Name is the hardware reference used by the availability API (e.g. "1801sk12").
	Name string

	// Datacenter is the datacenter code to match (e.g. "gra", "rbx").
	Datacenter string

	// Recipients are the email addresses notified when the hardware becomes available.
	Recipients []string

	// OfferURL is the order page linked from the notification email.
	OfferURL string
}

// CheckResult holds the outcome of checking a single hardware entry.
//
// A CheckResult is produced once per check, handed to the reporter and any
// registered callbacks, and then discarded.
type CheckResult struct {
	// CheckedAt is the timestamp when the check started.
	CheckedAt time.Time

	// Hardware is the hardware name that was checked.
	Hardware string

	// Datacenter is the datacenter code that was matched against.
	Datacenter string

	// Availability is the normalized availability.
	Availability Availability

	// Raw is the availability string reported upstream. Empty if Found is false.
	Raw string

	// Found reports whether any datacenter in the response matched.
	Found bool

	// NotificationSent reports that subscribers have been emailed about this
	// hardware, either during this check or an earlier one.
	NotificationSent bool
}

// PassSummary describes one full pass over all configured hardware.
type PassSummary struct {
	// Checked is the number of entries checked during the pass.
	Checked int

	// Available is the number of entries reported as available.
	Available int

	// Notified is the number of emails sent during the pass.
	Notified int

	// Failed is the number of checks that returned an error and were skipped.
	Failed int
}

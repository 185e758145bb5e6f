// Package status models the two order status tracks as forward-only state
// machines: the laundry track (received → completed) and the courier track
// (pickup_pending → delivered, only meaningful for pickup-delivery orders).
// The single cross-track rule lives in CanDispatch: a courier cannot be
// offered the delivery_pending step until the laundry itself is finished.
package status

import (
	"fmt"
	"strings"

	"github.com/bersih-laundry/api/internal/enum"
)

// LaundryStatus is a stage of the laundry processing track.
type LaundryStatus string

// CourierStatus is a stage of the pickup/delivery track.
type CourierStatus string

// Tone is a semantic display tone attached to a status.
type Tone string

const (
	LaundryReceived  = LaundryStatus(enum.LaundryStatusReceived)
	LaundryWashing   = LaundryStatus(enum.LaundryStatusWashing)
	LaundryDrying    = LaundryStatus(enum.LaundryStatusDrying)
	LaundryIroning   = LaundryStatus(enum.LaundryStatusIroning)
	LaundryReady     = LaundryStatus(enum.LaundryStatusReady)
	LaundryCompleted = LaundryStatus(enum.LaundryStatusCompleted)
)

const (
	CourierPickupPending    = CourierStatus(enum.CourierStatusPickupPending)
	CourierPickupOnTheWay   = CourierStatus(enum.CourierStatusPickupOnTheWay)
	CourierPickedUp         = CourierStatus(enum.CourierStatusPickedUp)
	CourierAtOutlet         = CourierStatus(enum.CourierStatusAtOutlet)
	CourierDeliveryPending  = CourierStatus(enum.CourierStatusDeliveryPending)
	CourierDeliveryOnTheWay = CourierStatus(enum.CourierStatusDeliveryOnTheWay)
	CourierDelivered        = CourierStatus(enum.CourierStatusDelivered)
)

const (
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
)

// laundryFlow and courierFlow define the strictly linear progression of each
// track. Order matters: the successor of a status is the next slice element.
var laundryFlow = []LaundryStatus{
	LaundryReceived,
	LaundryWashing,
	LaundryDrying,
	LaundryIroning,
	LaundryReady,
	LaundryCompleted,
}

var courierFlow = []CourierStatus{
	CourierPickupPending,
	CourierPickupOnTheWay,
	CourierPickedUp,
	CourierAtOutlet,
	CourierDeliveryPending,
	CourierDeliveryOnTheWay,
	CourierDelivered,
}

// AllLaundryStatuses returns every laundry stage in flow order.
// Exposed so callers (and exhaustiveness tests) can iterate the closed set.
func AllLaundryStatuses() []LaundryStatus {
	out := make([]LaundryStatus, len(laundryFlow))
	copy(out, laundryFlow)
	return out
}

// AllCourierStatuses returns every courier stage in flow order.
func AllCourierStatuses() []CourierStatus {
	out := make([]CourierStatus, len(courierFlow))
	copy(out, courierFlow)
	return out
}

// ParseLaundryStatus converts a raw string into a LaundryStatus. An
// unrecognized value is a data-integrity error, never silently accepted.
func ParseLaundryStatus(s string) (LaundryStatus, error) {
	candidate := LaundryStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, ls := range laundryFlow {
		if ls == candidate {
			return ls, nil
		}
	}
	return "", fmt.Errorf("unknown laundry status %q", s)
}

// ParseCourierStatus converts a raw string into a CourierStatus. The original
// backend stored some historical values with spaces instead of underscores;
// both spellings are accepted.
func ParseCourierStatus(s string) (CourierStatus, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	candidate := CourierStatus(normalized)
	for _, cs := range courierFlow {
		if cs == candidate {
			return cs, nil
		}
	}
	return "", fmt.Errorf("unknown courier status %q", s)
}

// NextLaundryStatus returns the single legal successor of current. The zero
// value with a nil error means the track is terminal. An unknown status is
// reported as an error rather than treated as terminal.
func NextLaundryStatus(current LaundryStatus) (LaundryStatus, error) {
	idx := laundryIndex(current)
	if idx < 0 {
		return "", fmt.Errorf("unknown laundry status %q", current)
	}
	if idx+1 >= len(laundryFlow) {
		return "", nil
	}
	return laundryFlow[idx+1], nil
}

// NextCourierStatus returns the single legal successor of current, taking the
// cross-track gate into account: when the successor is delivery_pending and
// the laundry track has not reached ready, the zero value is returned with a
// nil error — the step simply is not available yet, it is not a failure.
func NextCourierStatus(current CourierStatus, laundry LaundryStatus) (CourierStatus, error) {
	idx := courierIndex(current)
	if idx < 0 {
		return "", fmt.Errorf("unknown courier status %q", current)
	}
	if laundryIndex(laundry) < 0 {
		return "", fmt.Errorf("unknown laundry status %q", laundry)
	}
	if idx+1 >= len(courierFlow) {
		return "", nil
	}
	next := courierFlow[idx+1]
	if next == CourierDeliveryPending && !CanDispatch(laundry) {
		return "", nil
	}
	return next, nil
}

// CanDispatch reports whether the laundry track is far enough along for the
// courier to be sent out for delivery. This is the only cross-track rule:
// you cannot notify a courier about laundry that is not yet finished.
func CanDispatch(laundry LaundryStatus) bool {
	return laundry == LaundryReady || laundry == LaundryCompleted
}

// ValidateLaundryTransition checks a single forward step on the laundry track.
// Used by the status-advance endpoint to reject stale or skipping clients.
func ValidateLaundryTransition(current, next LaundryStatus) error {
	expected, err := NextLaundryStatus(current)
	if err != nil {
		return err
	}
	if expected == "" {
		return fmt.Errorf("cannot advance laundry status from terminal %q", current)
	}
	if next != expected {
		return fmt.Errorf("cannot advance laundry status from %q to %q", current, next)
	}
	return nil
}

// ValidateCourierTransition checks a single forward step on the courier track,
// including the dispatch gate.
func ValidateCourierTransition(current, next CourierStatus, laundry LaundryStatus) error {
	expected, err := NextCourierStatus(current, laundry)
	if err != nil {
		return err
	}
	if expected == "" {
		if current == CourierAtOutlet && !CanDispatch(laundry) {
			return fmt.Errorf("laundry status must be ready before setting delivery_pending")
		}
		return fmt.Errorf("cannot advance courier status from terminal %q", current)
	}
	if next != expected {
		return fmt.Errorf("cannot advance courier status from %q to %q", current, next)
	}
	return nil
}

// LaundryTone maps a laundry stage to its display tone. The mapping is total
// over the closed set; an unmapped value is reported as a defect.
func LaundryTone(s LaundryStatus) (Tone, error) {
	switch s {
	case LaundryReceived:
		return ToneWarning, nil
	case LaundryWashing, LaundryDrying, LaundryIroning:
		return ToneInfo, nil
	case LaundryReady, LaundryCompleted:
		return ToneSuccess, nil
	}
	return "", fmt.Errorf("no tone mapped for laundry status %q", s)
}

// CourierTone maps a courier stage to its display tone.
func CourierTone(s CourierStatus) (Tone, error) {
	switch s {
	case CourierPickupPending, CourierDeliveryPending:
		return ToneWarning, nil
	case CourierPickupOnTheWay, CourierPickedUp, CourierAtOutlet, CourierDeliveryOnTheWay:
		return ToneInfo, nil
	case CourierDelivered:
		return ToneSuccess, nil
	}
	return "", fmt.Errorf("no tone mapped for courier status %q", s)
}

// laundryLabels and courierLabels carry the customer-facing Indonesian labels.
var laundryLabels = map[LaundryStatus]string{
	LaundryReceived:  "Diterima",
	LaundryWashing:   "Dicuci",
	LaundryDrying:    "Dikeringkan",
	LaundryIroning:   "Disetrika",
	LaundryReady:     "Siap",
	LaundryCompleted: "Selesai",
}

var courierLabels = map[CourierStatus]string{
	CourierPickupPending:    "Menunggu Jemput",
	CourierPickupOnTheWay:   "Menuju Penjemputan",
	CourierPickedUp:         "Sudah Dijemput",
	CourierAtOutlet:         "Sampai Outlet",
	CourierDeliveryPending:  "Menunggu Antar",
	CourierDeliveryOnTheWay: "Sedang Diantar",
	CourierDelivered:        "Sudah Diantar",
}

// Label returns the display label for s.
func (s LaundryStatus) Label() string {
	if label, ok := laundryLabels[s]; ok {
		return label
	}
	return titleCaseFallback(string(s))
}

// Label returns the display label for s.
func (s CourierStatus) Label() string {
	if label, ok := courierLabels[s]; ok {
		return label
	}
	return titleCaseFallback(string(s))
}

// FormatStatusLabel resolves a raw status string from either track to its
// display label, falling back to title case for values the label tables do
// not know. An empty value renders as a dash.
func FormatStatusLabel(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "-"
	}
	if ls, err := ParseLaundryStatus(raw); err == nil {
		return ls.Label()
	}
	if cs, err := ParseCourierStatus(raw); err == nil {
		return cs.Label()
	}
	return titleCaseFallback(raw)
}

func titleCaseFallback(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func laundryIndex(s LaundryStatus) int {
	for i, ls := range laundryFlow {
		if ls == s {
			return i
		}
	}
	return -1
}

func courierIndex(s CourierStatus) int {
	for i, cs := range courierFlow {
		if cs == s {
			return i
		}
	}
	return -1
}

// Package bucket groups orders into the five operational queues shown on the
// shop dashboard. A bucket is a pure projection of the two status tracks plus
// the pickup-delivery flag; it is never stored.
package bucket

import (
	"log"
	"strings"

	"github.com/bersih-laundry/api/internal/status"
)

// Bucket is one of the dashboard queues.
type Bucket string

const (
	Antrian   Bucket = "antrian"    // waiting to be processed
	Proses    Bucket = "proses"     // being washed, dried or ironed
	SiapAmbil Bucket = "siap_ambil" // ready for walk-in pickup
	SiapAntar Bucket = "siap_antar" // ready for or out on delivery
	Selesai   Bucket = "selesai"    // done and handed over
)

// All lists every bucket in display order.
func All() []Bucket {
	return []Bucket{Antrian, Proses, SiapAmbil, SiapAntar, Selesai}
}

// Label returns the display label for b.
func (b Bucket) Label() string {
	switch b {
	case Antrian:
		return "Antrian"
	case Proses:
		return "Proses"
	case SiapAmbil:
		return "Siap Ambil"
	case SiapAntar:
		return "Siap Antar"
	case Selesai:
		return "Selesai"
	}
	return string(b)
}

// Normalize coerces a raw bucket key to a known bucket, mapping the retired
// "validasi" queue and any unrecognized value to Antrian.
func Normalize(raw string) Bucket {
	if raw == "validasi" {
		return Antrian
	}
	for _, b := range All() {
		if string(b) == raw {
			return b
		}
	}
	return Antrian
}

// Order is the minimal order shape the classifier needs.
type Order struct {
	LaundryStatus    string
	CourierStatus    string
	IsPickupDelivery bool
}

// Classify maps an order to its bucket. The rules are checked in a fixed
// order; the completion checks come first so a delivered order counts as done
// no matter what the laundry track says. Unknown status values do not error
// here: list views must keep rendering around bad rows, so anything
// unmatched lands in Proses after being logged as a defect.
func Classify(o Order) Bucket {
	laundry := strings.ToLower(strings.TrimSpace(o.LaundryStatus))
	courier := strings.ToLower(strings.TrimSpace(o.CourierStatus))

	if o.IsPickupDelivery && courier == string(status.CourierDelivered) {
		return Selesai
	}
	if !o.IsPickupDelivery && laundry == string(status.LaundryCompleted) {
		return Selesai
	}

	switch laundry {
	case string(status.LaundryReceived):
		return Antrian
	case string(status.LaundryWashing), string(status.LaundryDrying), string(status.LaundryIroning):
		return Proses
	case string(status.LaundryReady):
		if o.IsPickupDelivery {
			return SiapAntar
		}
		return SiapAmbil
	case string(status.LaundryCompleted):
		// Pickup-delivery only: the walk-in case returned Selesai above.
		if o.IsPickupDelivery {
			return SiapAntar
		}
		return Selesai
	}

	// Every known laundry status returned above, so this row carries a value
	// the state machine does not recognize. Keep it visible in Proses rather
	// than dropping it, but flag the bad data.
	log.Printf("ERROR: unknown laundry status %q while classifying order", o.LaundryStatus)

	if o.IsPickupDelivery &&
		(courier == string(status.CourierDeliveryPending) || courier == string(status.CourierDeliveryOnTheWay)) {
		return SiapAntar
	}

	return Proses
}

// CountByBucket tallies orders per bucket. Every bucket is present in the
// result even when its count is zero, so tab badges render consistently.
func CountByBucket(orders []Order) map[Bucket]int {
	counts := make(map[Bucket]int, len(All()))
	for _, b := range All() {
		counts[b] = 0
	}
	for _, o := range orders {
		counts[Classify(o)]++
	}
	return counts
}

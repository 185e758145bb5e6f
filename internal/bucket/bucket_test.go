package bucket

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  Bucket
	}{
		{"walk-in received", Order{LaundryStatus: "received"}, Antrian},
		{"walk-in washing", Order{LaundryStatus: "washing"}, Proses},
		{"walk-in drying", Order{LaundryStatus: "drying"}, Proses},
		{"walk-in ironing", Order{LaundryStatus: "ironing"}, Proses},
		{"walk-in ready", Order{LaundryStatus: "ready"}, SiapAmbil},
		{"walk-in completed", Order{LaundryStatus: "completed"}, Selesai},
		{"pickup received", Order{LaundryStatus: "received", CourierStatus: "pickup_pending", IsPickupDelivery: true}, Antrian},
		{"pickup washing", Order{LaundryStatus: "washing", CourierStatus: "at_outlet", IsPickupDelivery: true}, Proses},
		{"pickup ready", Order{LaundryStatus: "ready", CourierStatus: "at_outlet", IsPickupDelivery: true}, SiapAntar},
		{"pickup completed not delivered", Order{LaundryStatus: "completed", CourierStatus: "delivery_on_the_way", IsPickupDelivery: true}, SiapAntar},
		{"pickup delivered", Order{LaundryStatus: "completed", CourierStatus: "delivered", IsPickupDelivery: true}, Selesai},
		{"delivered wins over laundry track", Order{LaundryStatus: "washing", CourierStatus: "delivered", IsPickupDelivery: true}, Selesai},
		{"blank laundry with delivery pending", Order{CourierStatus: "delivery_pending", IsPickupDelivery: true}, SiapAntar},
		{"unknown laundry falls back to proses", Order{LaundryStatus: "quality_check"}, Proses},
		{"mixed case and whitespace", Order{LaundryStatus: " Ready "}, SiapAmbil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.order))
		})
	}
}

// An unrecognized laundry status still renders (in Proses) but must leave a
// loud trace in the log rather than passing as a normal row.
func TestClassifyUnknownStatusLogsDefect(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	assert.Equal(t, Proses, Classify(Order{LaundryStatus: "quality_check"}))
	assert.Contains(t, buf.String(), "ERROR: unknown laundry status \"quality_check\"")

	buf.Reset()
	Classify(Order{LaundryStatus: "ready"})
	assert.Empty(t, buf.String(), "known statuses must not log")
}

// A delivered pickup order is Selesai even though its laundry track may still
// read ready; a walk-in order is Selesai as soon as laundry completes.
func TestClassifyCompletionPerTrack(t *testing.T) {
	pickup := Order{LaundryStatus: "ready", CourierStatus: "delivered", IsPickupDelivery: true}
	assert.Equal(t, Selesai, Classify(pickup))

	walkIn := Order{LaundryStatus: "completed", CourierStatus: "delivered"}
	assert.Equal(t, Selesai, Classify(walkIn), "courier value is ignored for walk-in orders")
}

func TestCountByBucket(t *testing.T) {
	orders := []Order{
		{LaundryStatus: "received"},
		{LaundryStatus: "received"},
		{LaundryStatus: "washing"},
		{LaundryStatus: "ready"},
		{LaundryStatus: "ready", CourierStatus: "at_outlet", IsPickupDelivery: true},
		{LaundryStatus: "completed"},
	}
	counts := CountByBucket(orders)
	assert.Equal(t, 2, counts[Antrian])
	assert.Equal(t, 1, counts[Proses])
	assert.Equal(t, 1, counts[SiapAmbil])
	assert.Equal(t, 1, counts[SiapAntar])
	assert.Equal(t, 1, counts[Selesai])
}

func TestCountByBucketEmpty(t *testing.T) {
	counts := CountByBucket(nil)
	assert.Len(t, counts, 5, "all buckets present even with no orders")
	for _, b := range All() {
		assert.Equal(t, 0, counts[b])
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Antrian, Normalize("validasi"), "retired queue maps to antrian")
	assert.Equal(t, SiapAntar, Normalize("siap_antar"))
	assert.Equal(t, Antrian, Normalize("nonsense"))
	assert.Equal(t, Antrian, Normalize(""))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Siap Ambil", SiapAmbil.Label())
	assert.Equal(t, "Antrian", Antrian.Label())
}

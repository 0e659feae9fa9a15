// Package compute - Compute-resource model for the assignment pipeline.
//
// The pipeline's dense intermediates have an O(valid priors x truths)
// footprint, so every attempt reserves its workspace from a Device before
// allocating. The primary device has a fixed budget and signals exhaustion
// with a typed error; the host device behind it is slower but effectively
// unbounded.
package compute

import (
	"github.com/pkg/errors"
)

// Backend represents the resource class of a compute device.
type Backend string

const (
	// BackendAccelerator is a throughput-optimized device with a fixed
	// workspace budget, such as a GPU memory arena.
	BackendAccelerator Backend = "accelerator"

	// BackendHost is the host processor, lower throughput but effectively
	// unbounded capacity.
	BackendHost Backend = "host"
)

// ErrExhausted reports that a device cannot satisfy a workspace
// reservation. It is the only failure class the fallback path recovers
// from; check for it with IsExhausted rather than direct comparison, since
// devices wrap it with sizing detail.
var ErrExhausted = errors.New("compute: workspace exhausted")

// IsExhausted reports whether err is a resource-exhaustion failure,
// unwrapping any annotation layers around the sentinel.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}

// Device is a compute resource that grants workspace for dense
// intermediates.
type Device interface {
	// Backend reports the resource class of the device.
	Backend() Backend
	// Name identifies the device in logs and stats.
	Name() string
	// Reserve claims workspace of the given byte size. The reservation
	// must be released once the intermediates it covers are dead.
	Reserve(bytes int64) (*Reservation, error)
	// Flush drops any cached reservations and returns the bytes freed.
	Flush() int64
	// InUse reports the bytes held by live reservations.
	InUse() int64

	release(*Reservation)
}

// Reservation is a claim on a device's workspace.
type Reservation struct {
	dev      Device
	bytes    int64
	released bool
}

// Bytes returns the size of the reservation.
func (r *Reservation) Bytes() int64 {
	return r.bytes
}

// Release returns the reservation to its device. Releasing twice, or
// releasing a nil reservation, is a no-op.
func (r *Reservation) Release() {
	if r == nil || r.released {
		return
	}
	r.released = true
	r.dev.release(r)
}

// Package compute - Host fallback device.
package compute

import (
	"sync"

	"github.com/pkg/errors"
)

// Host models the fallback compute resource. Reservations always succeed;
// the host arena is bounded only by process memory.
type Host struct {
	name string

	mu    sync.Mutex
	inUse int64
}

// NewHost creates the host device.
func NewHost() *Host {
	return &Host{name: "host"}
}

// Backend returns the resource class of the host.
func (h *Host) Backend() Backend {
	return BackendHost
}

// Name returns the device name.
func (h *Host) Name() string {
	return h.name
}

// Reserve claims workspace. The host never exhausts.
func (h *Host) Reserve(bytes int64) (*Reservation, error) {
	if bytes <= 0 {
		return nil, errors.Errorf("%s: reservation size must be positive, got %d", h.name, bytes)
	}
	h.mu.Lock()
	h.inUse += bytes
	h.mu.Unlock()
	return &Reservation{dev: h, bytes: bytes}, nil
}

// Flush is a no-op on the host; there is no reuse cache to drop.
func (h *Host) Flush() int64 {
	return 0
}

// InUse reports the bytes held by live reservations.
func (h *Host) InUse() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inUse
}

func (h *Host) release(r *Reservation) {
	h.mu.Lock()
	h.inUse -= r.bytes
	h.mu.Unlock()
}

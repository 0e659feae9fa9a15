// Package compute - Budgeted accelerator device.
package compute

import (
	"sync"

	"github.com/pkg/errors"
)

// DefaultAcceleratorCapacity is the workspace budget of the accelerator
// built by DefaultLink: enough for tens of thousands of priors at typical
// per-image truth counts.
const DefaultAcceleratorCapacity int64 = 256 << 20

// AcceleratorOptions contains arguments for constructing an accelerator.
type AcceleratorOptions struct {
	// Name identifies the device in logs and stats.
	Name string `json:"name" yaml:"name"`
	// Capacity is the total workspace budget in bytes.
	Capacity int64 `json:"capacity" yaml:"capacity"`
}

// Accelerator models the primary compute resource: a device whose
// workspace arena has a hard byte budget.
//
// Released reservations are parked in a cache keyed by exact size and are
// reused only when a later reservation matches that size. Mixed sizes
// therefore fragment the arena over time; Flush returns every cached block
// to the free budget. This mirrors the allocator behavior that makes the
// release-cache-then-retry step of the fallback path worthwhile.
type Accelerator struct {
	name     string
	capacity int64

	mu     sync.Mutex
	inUse  int64
	cached int64
	cache  map[int64]int
}

// NewAccelerator creates an accelerator with the given options.
//
// Arguments:
// - opts: Device name (defaults to "accelerator0") and byte capacity.
//
// Returns:
// - *Accelerator: The device.
// - error: An error if the capacity is not positive.
func NewAccelerator(opts AcceleratorOptions) (*Accelerator, error) {
	if opts.Capacity <= 0 {
		return nil, errors.Errorf("accelerator capacity must be positive, got %d", opts.Capacity)
	}
	name := opts.Name
	if name == "" {
		name = "accelerator0"
	}
	return &Accelerator{
		name:     name,
		capacity: opts.Capacity,
		cache:    make(map[int64]int),
	}, nil
}

// Backend returns the resource class of the accelerator.
func (a *Accelerator) Backend() Backend {
	return BackendAccelerator
}

// Name returns the device name.
func (a *Accelerator) Name() string {
	return a.name
}

// Capacity returns the total workspace budget in bytes.
func (a *Accelerator) Capacity() int64 {
	return a.capacity
}

// Reserve claims workspace from the arena.
//
// A cached block of exactly the requested size is reused first; otherwise
// the claim must fit in the budget left over after live and cached blocks,
// or the call fails with ErrExhausted.
func (a *Accelerator) Reserve(bytes int64) (*Reservation, error) {
	if bytes <= 0 {
		return nil, errors.Errorf("%s: reservation size must be positive, got %d", a.name, bytes)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if n := a.cache[bytes]; n > 0 {
		if n == 1 {
			delete(a.cache, bytes)
		} else {
			a.cache[bytes] = n - 1
		}
		a.cached -= bytes
		a.inUse += bytes
		return &Reservation{dev: a, bytes: bytes}, nil
	}

	free := a.capacity - a.inUse - a.cached
	if bytes > free {
		return nil, errors.Wrapf(ErrExhausted,
			"%s: need %d bytes, %d free of %d", a.name, bytes, free, a.capacity)
	}
	a.inUse += bytes
	return &Reservation{dev: a, bytes: bytes}, nil
}

// Flush drops every cached block and returns the bytes freed.
func (a *Accelerator) Flush() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	freed := a.cached
	a.cached = 0
	a.cache = make(map[int64]int)
	return freed
}

// InUse reports the bytes held by live reservations.
func (a *Accelerator) InUse() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse
}

// Cached reports the bytes parked in the reuse cache.
func (a *Accelerator) Cached() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cached
}

func (a *Accelerator) release(r *Reservation) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.inUse -= r.bytes
	a.cache[r.bytes]++
	a.cached += r.bytes
}

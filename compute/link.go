// Package compute - Primary/fallback device pairing.
package compute

import "sync"

// Link pairs the primary device with its fallback. It is the only piece of
// cross-call state the pipeline touches: construct one at process start
// and pass it to every assigner that shares the device pair. There is no
// lazily-initialized global behind it.
type Link struct {
	primary  Device
	fallback Device

	mu          sync.Mutex
	fallbacks   uint64
	transferred int64
}

// Stats is a snapshot of the degraded-mode activity on a link.
type Stats struct {
	// Fallbacks counts the retries served on the fallback device.
	Fallbacks uint64 `json:"fallbacks"`
	// TransferredBytes counts the bytes copied between the two devices
	// while relocating inputs and results.
	TransferredBytes int64 `json:"transferred_bytes"`
}

// NewLink pairs a primary device with its fallback. Both devices must be
// non-nil.
func NewLink(primary, fallback Device) *Link {
	return &Link{primary: primary, fallback: fallback}
}

// DefaultLink builds the stock pairing: a budgeted accelerator backed by
// the host.
func DefaultLink() *Link {
	acc, err := NewAccelerator(AcceleratorOptions{Capacity: DefaultAcceleratorCapacity})
	if err != nil {
		// Unreachable: the default capacity is a positive constant.
		panic(err)
	}
	return NewLink(acc, NewHost())
}

// Primary returns the device every attempt starts on.
func (l *Link) Primary() Device {
	return l.primary
}

// Fallback returns the device used for the degraded-mode retry.
func (l *Link) Fallback() Device {
	return l.fallback
}

// RecordFallback notes one degraded-mode retry.
func (l *Link) RecordFallback() {
	l.mu.Lock()
	l.fallbacks++
	l.mu.Unlock()
}

// RecordTransfer notes bytes copied between the devices during input or
// result relocation.
func (l *Link) RecordTransfer(bytes int64) {
	l.mu.Lock()
	l.transferred += bytes
	l.mu.Unlock()
}

// Stats returns a snapshot of the link's degraded-mode counters.
func (l *Link) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{Fallbacks: l.fallbacks, TransferredBytes: l.transferred}
}

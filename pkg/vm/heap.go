package vm

import "sync"

// Heap is the GC-less flat byte store §1 treats as an external
// collaborator but which this core provides directly: addresses are
// plain offsets into a growable byte slice, with no notion of object
// boundaries. It backs java/nio/Bits' low-level heap tricks (the
// copyToByteArray trap) and nothing else — ordinary object state lives
// in JObject.Fields, not here.
type Heap struct {
	mu    sync.Mutex
	bytes []byte
}

// NewHeap returns an empty Heap.
func NewHeap() *Heap { return &Heap{} }

// GetByte reads one byte at addr, returning 0 for addresses beyond the
// heap's current extent rather than panicking — matching the
// collaborator interface get_byte(addr) (§6), which the core treats as
// always answering something.
func (h *Heap) GetByte(addr int64) byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if addr < 0 || int(addr) >= len(h.bytes) {
		return 0
	}
	return h.bytes[addr]
}

// PutByte writes one byte at addr, growing the backing slice as needed.
func (h *Heap) PutByte(addr int64, b byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if addr < 0 {
		return
	}
	if int(addr) >= len(h.bytes) {
		grown := make([]byte, addr+1)
		copy(grown, h.bytes)
		h.bytes = grown
	}
	h.bytes[addr] = b
}

// Package dma implements the Game Boy OAM DMA transfer engine.
package dma

// durationCycles is the total number of T-cycles an OAM DMA transfer
// occupies: 160 bytes at one byte per 4 T-cycles, plus the restart latency
// of the cycle the write to 0xFF46 itself takes effect on.
const durationCycles = 648

const transferBytes = 160

// Engine drives an in-progress OAM DMA copy from ROM/RAM/VRAM into OAM.
// It owns only the transfer's progress; the bus performs the actual byte
// reads/writes via SourceAddr and the offsets Step returns, so the engine
// stays memory-map-agnostic.
type Engine struct {
	active    bool
	source    uint16 // high byte of source address, i.e. XX00
	remaining uint16 // T-cycles remaining in the transfer
}

// New creates an idle DMA engine.
func New() *Engine {
	return &Engine{}
}

// Start begins a transfer from source (already shifted: value<<8).
func (e *Engine) Start(source uint16) {
	e.active = true
	e.source = source
	e.remaining = durationCycles
}

// Active reports whether a transfer is in progress.
func (e *Engine) Active() bool {
	return e.active
}

// SourceIsVRAM reports whether the current transfer's source region is VRAM
// (0x8000-0x9FFF). The bus uses this to apply the one documented exception
// to DMA's access-restriction rule: while copying from VRAM, VRAM and OAM
// both stay accessible to the CPU.
func (e *Engine) SourceIsVRAM() bool {
	return e.active && e.source >= 0x8000 && e.source < 0xA000
}

// Step advances the transfer by cycles T-cycles and returns the byte offsets
// (0-159) whose 4-cycle byte-copy step completed during the call, so one call
// may return several offsets; the caller (the bus) performs the actual
// read/write since it alone knows the memory map.
func (e *Engine) Step(cycles uint16) []uint16 {
	if !e.active {
		return nil
	}

	var offsets []uint16
	for cycles > 0 && e.active {
		step := cycles
		if step > e.remaining {
			step = e.remaining
		}

		before := (durationCycles - e.remaining) / 4
		e.remaining -= step
		after := (durationCycles - e.remaining) / 4

		for b := before; b < after && b < transferBytes; b++ {
			offsets = append(offsets, b)
		}

		cycles -= step

		if e.remaining == 0 {
			e.active = false
		}
	}

	return offsets
}

// SourceAddr returns the source address for a given byte offset within the
// transfer (0-159).
func (e *Engine) SourceAddr(offset uint16) uint16 {
	return e.source + offset
}

// Reset cancels any in-progress transfer.
func (e *Engine) Reset() {
	e.active = false
	e.source = 0
	e.remaining = 0
}

// Package memory implements the Game Boy memory bus and address space mapping.
package memory

import (
	"errors"
	"fmt"

	"github.com/coreboy/dmgcore/internal/cartridge"
	"github.com/coreboy/dmgcore/internal/dma"
	"github.com/coreboy/dmgcore/internal/interrupt"
	"github.com/coreboy/dmgcore/internal/timer"
)

// PPU is an interface for the Picture Processing Unit.
type PPU interface {
	ReadVRAM(addr uint16) uint8
	WriteVRAM(addr uint16, value uint8)
	ReadOAM(addr uint16) uint8
	WriteOAM(addr uint16, value uint8)
	WriteOAMRaw(addr uint16, value uint8)
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
}

// Joypad is an interface for joypad input handling.
type Joypad interface {
	Read() uint8
	Write(value uint8)
}

// APU is an interface for the Audio Processing Unit's register file.
type APU interface {
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
}

// Bus represents the Game Boy memory bus.
type Bus struct {
	// Cartridge (ROM and external RAM are handled by cartridge)
	cartridge cartridge.Cartridge

	// PPU for video memory and registers
	ppu PPU

	// Joypad for input handling
	joypad Joypad

	// APU for sound registers
	apu APU

	// Timer for DIV, TIMA, TMA, TAC registers
	timer *timer.Timer

	// Interrupts owns IE/IF and vector dispatch
	interrupts *interrupt.Controller

	// DMA engine for OAM transfers
	dma *dma.Engine

	// Work RAM (8 KiB)
	wram [0x2000]uint8 // C000-DFFF: Work RAM

	// I/O Registers (128 bytes)
	io [0x80]uint8 // FF00-FF7F: I/O Registers

	// High RAM (127 bytes)
	hram [0x7F]uint8 // FF80-FFFE: High RAM

	// Serial registers (SB/SC), passed through to the test-ROM harness.
	sb uint8
	sc uint8

	onSerialWrite func(value uint8)
}

// NewBus creates a new memory bus.
func NewBus() *Bus {
	return &Bus{
		dma: dma.New(),
	}
}

// SetCartridge sets the cartridge for the memory bus.
func (b *Bus) SetCartridge(cart cartridge.Cartridge) {
	b.cartridge = cart
}

// SetPPU sets the PPU for the memory bus.
func (b *Bus) SetPPU(ppu PPU) {
	b.ppu = ppu
}

// SetJoypad sets the joypad for the memory bus.
func (b *Bus) SetJoypad(joypad Joypad) {
	b.joypad = joypad
}

// SetAPU sets the APU for the memory bus.
func (b *Bus) SetAPU(apu APU) {
	b.apu = apu
}

// SetTimer sets the timer for the memory bus.
func (b *Bus) SetTimer(t *timer.Timer) {
	b.timer = t
}

// SetInterruptController sets the interrupt controller backing IE/IF.
func (b *Bus) SetInterruptController(ic *interrupt.Controller) {
	b.interrupts = ic
}

// SetSerialWriteHook installs a callback invoked whenever SC (0xFF02) is
// written with the transfer-start bit set, passing the current SB value.
// Used by the test-ROM harness to capture Blargg-style serial output.
func (b *Bus) SetSerialWriteHook(hook func(value uint8)) {
	b.onSerialWrite = hook
}

// DMA returns the bus's DMA engine, used by the scheduler to advance it.
func (b *Bus) DMA() *dma.Engine {
	return b.dma
}

// Read reads a byte from the memory bus.
func (b *Bus) Read(addr uint16) uint8 {
	if b.dma.Active() && b.dmaBlocks(addr) {
		return 0xFF
	}

	switch {
	// ROM Bank 00 (0000-3FFF) and ROM Bank 01-NN (4000-7FFF)
	// Handled by cartridge
	case addr < 0x8000:
		if b.cartridge != nil {
			return b.cartridge.Read(addr)
		}
		return 0xFF

	// VRAM (8000-9FFF)
	case addr < 0xA000:
		if b.ppu != nil {
			return b.ppu.ReadVRAM(addr - 0x8000)
		}
		return 0xFF

	// External RAM (A000-BFFF) - Handled by cartridge
	case addr < 0xC000:
		if b.cartridge != nil {
			return b.cartridge.Read(addr)
		}
		return 0xFF

	// Work RAM Bank 0 (C000-CFFF)
	case addr < 0xD000:
		return b.wram[addr-0xC000]

	// Work RAM Bank 1 (D000-DFFF)
	case addr < 0xE000:
		return b.wram[addr-0xC000]

	// Echo RAM (E000-FDFF) - Mirror of C000-DDFF
	case addr < 0xFE00:
		return b.wram[addr-0xE000]

	// OAM (FE00-FE9F)
	case addr < 0xFEA0:
		if b.ppu != nil {
			return b.ppu.ReadOAM(addr - 0xFE00)
		}
		return 0xFF

	// Not Usable (FEA0-FEFF)
	case addr < 0xFF00:
		return 0xFF

	// I/O Registers (FF00-FF7F)
	case addr < 0xFF80:
		return b.readIO(addr)

	// High RAM (FF80-FFFE)
	case addr < 0xFFFF:
		return b.hram[addr-0xFF80]

	// Interrupt Enable Register (FFFF)
	case addr == 0xFFFF:
		if b.interrupts != nil {
			return b.interrupts.ReadIE()
		}
		return 0xFF

	default:
		return 0xFF
	}
}

// dmaBlocks reports whether addr is inaccessible to the CPU while a DMA
// transfer is in progress. High RAM is always reachable. Every other region
// is blocked, except that while the DMA source itself is VRAM, VRAM and OAM
// both stay reachable — the one documented exception to the blanket rule.
func (b *Bus) dmaBlocks(addr uint16) bool {
	if addr >= 0xFF80 && addr != 0xFFFF {
		return false
	}

	if b.dma.SourceIsVRAM() {
		isVRAM := addr >= 0x8000 && addr < 0xA000
		isOAM := addr >= 0xFE00 && addr < 0xFEA0
		if isVRAM || isOAM {
			return false
		}
	}

	return true
}

// Write writes a byte to the memory bus.
func (b *Bus) Write(addr uint16, value uint8) {
	if b.dma.Active() && b.dmaBlocks(addr) {
		return
	}

	switch {
	// ROM Bank 00 & 01 (0000-7FFF) - MBC control
	// Handled by cartridge
	case addr < 0x8000:
		if b.cartridge != nil {
			b.cartridge.Write(addr, value)
		}

	// VRAM (8000-9FFF)
	case addr < 0xA000:
		if b.ppu != nil {
			b.ppu.WriteVRAM(addr-0x8000, value)
		}

	// External RAM (A000-BFFF) - Handled by cartridge
	case addr < 0xC000:
		if b.cartridge != nil {
			b.cartridge.Write(addr, value)
		}

	// Work RAM Bank 0 (C000-CFFF)
	case addr < 0xD000:
		b.wram[addr-0xC000] = value

	// Work RAM Bank 1 (D000-DFFF)
	case addr < 0xE000:
		b.wram[addr-0xC000] = value

	// Echo RAM (E000-FDFF) - Mirror of C000-DDFF
	case addr < 0xFE00:
		b.wram[addr-0xE000] = value

	// OAM (FE00-FE9F)
	case addr < 0xFEA0:
		if b.ppu != nil {
			b.ppu.WriteOAM(addr-0xFE00, value)
		}

	// Not Usable (FEA0-FEFF)
	case addr < 0xFF00:
		// Ignore writes to unusable memory

	// I/O Registers (FF00-FF7F)
	case addr < 0xFF80:
		b.writeIO(addr, value)

	// High RAM (FF80-FFFE)
	case addr < 0xFFFF:
		b.hram[addr-0xFF80] = value

	// Interrupt Enable Register (FFFF)
	case addr == 0xFFFF:
		if b.interrupts != nil {
			b.interrupts.WriteIE(value)
		}
	}
}

func isAPURegister(addr uint16) bool {
	return (addr >= 0xFF10 && addr <= 0xFF26) || (addr >= 0xFF30 && addr <= 0xFF3F)
}

func isPPURegister(addr uint16) bool {
	switch addr {
	case 0xFF40, 0xFF41, 0xFF42, 0xFF43, 0xFF44, 0xFF45, 0xFF47, 0xFF48, 0xFF49, 0xFF4A, 0xFF4B:
		return true
	default:
		return false
	}
}

// readIO reads from I/O registers.
func (b *Bus) readIO(addr uint16) uint8 {
	offset := addr - 0xFF00

	switch {
	case addr == 0xFF00: // Joypad (P1)
		if b.joypad != nil {
			return b.joypad.Read()
		}
		return 0xFF
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return b.sc
	case addr == 0xFF04, addr == 0xFF05, addr == 0xFF06, addr == 0xFF07:
		if b.timer != nil {
			return b.timer.Read(addr)
		}
		return b.io[offset]
	case addr == 0xFF0F: // IF - Interrupt flags
		if b.interrupts != nil {
			return b.interrupts.ReadIF()
		}
		return b.io[offset] | 0xE0
	case isPPURegister(addr):
		if b.ppu != nil {
			return b.ppu.ReadRegister(addr)
		}
		return 0xFF
	case addr == 0xFF46: // DMA - DMA transfer
		return b.io[offset]
	case isAPURegister(addr):
		if b.apu != nil {
			return b.apu.ReadRegister(addr)
		}
		return 0xFF
	default:
		return b.io[offset]
	}
}

// writeIO writes to I/O registers.
func (b *Bus) writeIO(addr uint16, value uint8) {
	offset := addr - 0xFF00

	switch {
	case addr == 0xFF00: // Joypad (P1)
		if b.joypad != nil {
			b.joypad.Write(value)
		}
	case addr == 0xFF01:
		b.sb = value
	case addr == 0xFF02:
		b.sc = value
		if value&0x80 != 0 && b.onSerialWrite != nil {
			b.onSerialWrite(b.sb)
		}
	case addr == 0xFF04, addr == 0xFF05, addr == 0xFF06, addr == 0xFF07:
		if b.timer != nil {
			b.timer.Write(addr, value)
		} else if addr == 0xFF04 {
			b.io[offset] = 0
		} else {
			b.io[offset] = value
		}
	case addr == 0xFF0F:
		if b.interrupts != nil {
			b.interrupts.WriteIF(value)
		} else {
			b.io[offset] = value
		}
	case isPPURegister(addr):
		if b.ppu != nil {
			b.ppu.WriteRegister(addr, value)
		}
	case addr == 0xFF46: // DMA - DMA transfer
		// Valid DMA source addresses are 0x00-0xF1 (0x0000-0xF100); higher
		// values would source from regions that don't make sense to copy.
		if value <= 0xF1 {
			b.dma.Start(uint16(value) << 8)
		}
		b.io[offset] = value
	case isAPURegister(addr):
		if b.apu != nil {
			b.apu.WriteRegister(addr, value)
		}
	default:
		b.io[offset] = value
	}
}

// ErrROMLoadFailed indicates ROM loading failed.
var ErrROMLoadFailed = errors.New("ROM loading failed")

// LoadROM loads ROM data by creating a cartridge and attaching it to the bus.
func (b *Bus) LoadROM(rom []byte) error {
	cart, err := cartridge.New(rom)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrROMLoadFailed, err)
	}

	b.cartridge = cart
	return nil
}

// GetCartridge returns the currently loaded cartridge.
func (b *Bus) GetCartridge() cartridge.Cartridge {
	return b.cartridge
}

// Reset clears all RAM while keeping the cartridge and PPU loaded.
// Note: Cartridge RAM is not cleared as it may be battery-backed.
func (b *Bus) Reset() {
	clear(b.wram[:])
	clear(b.io[:])
	clear(b.hram[:])
	b.sb = 0
	b.sc = 0
	b.dma.Reset()
}

// StepDMA advances the DMA engine by cycles T-cycles, performing any byte
// copies that complete during this step. Must be called with the same
// cycle count passed to every other per-step component so the fixed
// DMA-before-PPU ordering stays meaningful.
func (b *Bus) StepDMA(cycles uint16) {
	offsets := b.dma.Step(cycles)
	if len(offsets) == 0 {
		return
	}

	for _, offset := range offsets {
		value := b.dmaRead(b.dma.SourceAddr(offset))
		if b.ppu != nil {
			b.ppu.WriteOAMRaw(offset, value)
		}
	}
}

// dmaRead performs a read for DMA transfer (bypasses DMA access restriction).
func (b *Bus) dmaRead(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		if b.cartridge != nil {
			return b.cartridge.Read(addr)
		}
		return 0xFF

	case addr < 0xA000:
		if b.ppu != nil {
			return b.ppu.ReadVRAM(addr - 0x8000)
		}
		return 0xFF

	case addr < 0xC000:
		if b.cartridge != nil {
			return b.cartridge.Read(addr)
		}
		return 0xFF

	case addr < 0xD000:
		return b.wram[addr-0xC000]

	case addr < 0xE000:
		return b.wram[addr-0xC000]

	case addr < 0xFE00:
		return b.wram[addr-0xE000]

	default:
		return 0xFF
	}
}

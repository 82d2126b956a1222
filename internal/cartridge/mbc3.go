package cartridge

// MBC3 represents a cartridge with MBC3 (Memory Bank Controller 3).
// MBC3 supports up to 2 MiB of ROM and 32 KiB of RAM, plus an optional
// real-time clock. The RTC register file is not emulated (out of scope);
// selecting an RTC register (0x08-0x0C) and reading/writing it is a no-op
// that returns 0xFF, the documented deviation for this implementation.
//
// Memory Map:
// - 0x0000-0x3FFF: ROM Bank 00 (fixed)
// - 0x4000-0x7FFF: ROM Bank 01-7F (switchable, 7 bits)
// - 0xA000-0xBFFF: RAM Bank 00-03, or RTC register 0x08-0x0C when selected
//
// Control Registers (write-only):
// - 0x0000-0x1FFF: RAM/RTC Enable (write 0x0A to enable)
// - 0x2000-0x3FFF: ROM Bank Number (7 bits, all 0-7F valid — unlike MBC1,
//   writing 0x00 selects bank 0 verbatim, it is not bumped to 1)
// - 0x4000-0x5FFF: RAM Bank Number (0x00-0x03) or RTC Register Select (0x08-0x0C)
// - 0x6000-0x7FFF: Latch Clock Data (unused here, RTC isn't emulated)
type MBC3 struct {
	header *Header
	rom    []byte
	ram    []byte

	ramRTCEnabled bool
	romBank       uint8
	ramBank       uint8 // 0x00-0x03 selects RAM; 0x08-0x0C selects an RTC register

	numROMBanks int
	numRAMBanks int
}

// newMBC3 creates a new MBC3 cartridge.
func newMBC3(rom []byte, header *Header) (*MBC3, error) {
	cart := &MBC3{
		header:      header,
		rom:         rom,
		romBank:     1,
		numROMBanks: header.GetROMBanks(),
		numRAMBanks: header.GetRAMBanks(),
	}

	if CartridgeType(header.CartridgeType).HasRAM() {
		if ramSize := header.GetRAMSizeBytes(); ramSize > 0 {
			cart.ram = make([]byte, ramSize)
		}
	}

	return cart, nil
}

func (c *MBC3) ramBankSelected() bool {
	return c.ramBank <= 0x03
}

// Read reads a byte from the cartridge.
func (c *MBC3) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		if int(addr) < len(c.rom) {
			return c.rom[addr]
		}
		return 0xFF

	case addr < 0x8000:
		bank := int(c.romBank)
		if c.numROMBanks > 0 {
			bank %= c.numROMBanks
		}
		offset := bank*0x4000 + int(addr-0x4000)
		if offset < len(c.rom) {
			return c.rom[offset]
		}
		return 0xFF

	case addr >= 0xA000 && addr < 0xC000:
		if !c.ramRTCEnabled {
			return 0xFF
		}
		if !c.ramBankSelected() {
			// RTC register select: not emulated.
			return 0xFF
		}
		if c.ram == nil {
			return 0xFF
		}
		bank := int(c.ramBank)
		if c.numRAMBanks > 0 {
			bank %= c.numRAMBanks
		}
		offset := bank*0x2000 + int(addr-0xA000)
		if offset < len(c.ram) {
			return c.ram[offset]
		}
		return 0xFF

	default:
		return 0xFF
	}
}

// Write writes a byte to the cartridge (MBC control registers or RAM).
func (c *MBC3) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.ramRTCEnabled = (value & 0x0F) == 0x0A

	case addr < 0x4000:
		// Unlike MBC1, bank 0 is not bumped to 1 here — MBC3's full 7-bit
		// bank register can select bank 0 verbatim.
		c.romBank = value & 0x7F

	case addr < 0x6000:
		c.ramBank = value & 0x0F

	case addr < 0x8000:
		// Latch Clock Data: would freeze RTC readings on a 0->1 write on
		// real hardware. No RTC is implemented, so this is a no-op.

	case addr >= 0xA000 && addr < 0xC000:
		if !c.ramRTCEnabled || !c.ramBankSelected() || c.ram == nil {
			return
		}
		bank := int(c.ramBank)
		if c.numRAMBanks > 0 {
			bank %= c.numRAMBanks
		}
		offset := bank*0x2000 + int(addr-0xA000)
		if offset < len(c.ram) {
			c.ram[offset] = value
		}
	}
}

// Header returns the cartridge header.
func (c *MBC3) Header() *Header {
	return c.header
}

// HasBattery returns true if the cartridge type includes battery-backed RAM.
func (c *MBC3) HasBattery() bool {
	return CartridgeType(c.header.CartridgeType).HasBattery()
}

// GetRAM returns the cartridge RAM for saving.
func (c *MBC3) GetRAM() []byte {
	if c.ram == nil {
		return nil
	}
	ramCopy := make([]byte, len(c.ram))
	copy(ramCopy, c.ram)
	return ramCopy
}

// SetRAM loads save data into the cartridge RAM.
func (c *MBC3) SetRAM(data []byte) error {
	if c.ram == nil {
		return nil
	}
	copyLen := len(data)
	if copyLen > len(c.ram) {
		copyLen = len(c.ram)
	}
	copy(c.ram, data[:copyLen])
	return nil
}

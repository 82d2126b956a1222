package cartridge

import "testing"

func TestMBC3ROMBanking(t *testing.T) {
	rom := make([]byte, 0x10000) // 64 KiB (4 banks)
	rom[0x0000] = 0x00
	rom[0x4000] = 0x01
	rom[0x8000] = 0x02
	rom[0xC000] = 0x03

	setupMBC1Header(rom, 0x11, 0x00, 0x01) // MBC3, no RAM, 64 KiB

	header, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}
	cart, err := newMBC3(rom, header)
	if err != nil {
		t.Fatalf("newMBC3() error = %v", err)
	}

	if got := cart.Read(0x4000); got != 0x01 {
		t.Errorf("Read(0x4000) default bank 1: got 0x%02X, want 0x01", got)
	}

	cart.Write(0x2000, 0x02)
	if got := cart.Read(0x4000); got != 0x02 {
		t.Errorf("Read(0x4000) after selecting bank 2: got 0x%02X, want 0x02", got)
	}
}

func TestMBC3BankZeroSelectsVerbatim(t *testing.T) {
	rom := make([]byte, 0x10000)
	rom[0x0000] = 0xAA
	rom[0x4000] = 0x01

	setupMBC1Header(rom, 0x11, 0x00, 0x01)

	header, _ := ParseHeader(rom)
	cart, _ := newMBC3(rom, header)

	// Unlike MBC1, writing 0 selects bank 0 verbatim rather than redirecting
	// to bank 1.
	cart.Write(0x2000, 0x00)
	if got := cart.Read(0x4000); got != 0xAA {
		t.Errorf("Read(0x4000) after writing bank 0: got 0x%02X, want 0xAA (bank 0 selected verbatim)", got)
	}
}

func TestMBC3RAMEnableAndBanking(t *testing.T) {
	rom := make([]byte, 0x8000)
	setupMinimalHeader(rom, 0x13, 0x03) // MBC3+RAM+Battery, 32 KiB RAM

	header, _ := ParseHeader(rom)
	cart, _ := newMBC3(rom, header)

	if got := cart.Read(0xA000); got != 0xFF {
		t.Errorf("Read(0xA000) with RAM disabled: got 0x%02X, want 0xFF", got)
	}

	cart.Write(0x0000, 0x0A) // enable RAM/RTC
	cart.Write(0x4000, 0x01) // select RAM bank 1
	cart.Write(0xA000, 0x42)

	cart.Write(0x4000, 0x00) // back to bank 0
	if got := cart.Read(0xA000); got == 0x42 {
		t.Error("RAM bank 1's write should not be visible from bank 0")
	}

	cart.Write(0x4000, 0x01)
	if got := cart.Read(0xA000); got != 0x42 {
		t.Errorf("Read(0xA000) from RAM bank 1: got 0x%02X, want 0x42", got)
	}
}

func TestMBC3RTCRegisterSelectReadsFF(t *testing.T) {
	rom := make([]byte, 0x8000)
	setupMinimalHeader(rom, 0x10, 0x03) // MBC3+Timer+RAM+Battery

	header, _ := ParseHeader(rom)
	cart, _ := newMBC3(rom, header)

	cart.Write(0x0000, 0x0A)
	cart.Write(0x4000, 0x08) // select RTC register 0x08, not a RAM bank

	if got := cart.Read(0xA000); got != 0xFF {
		t.Errorf("Read(0xA000) with an RTC register selected: got 0x%02X, want 0xFF (RTC not emulated)", got)
	}

	cart.Write(0xA000, 0x99) // write should also be dropped
	cart.Write(0x4000, 0x00)
	if got := cart.Read(0xA000); got == 0x99 {
		t.Error("write while an RTC register is selected should be dropped, not land in RAM bank 0")
	}
}

func TestMBC3LatchClockDataIsNoop(t *testing.T) {
	rom := make([]byte, 0x8000)
	setupMinimalHeader(rom, 0x13, 0x03)

	header, _ := ParseHeader(rom)
	cart, _ := newMBC3(rom, header)

	cart.Write(0x0000, 0x0A)
	cart.Write(0xA000, 0x11)
	cart.Write(0x6000, 0x00)
	cart.Write(0x6000, 0x01) // the 0->1 latch transition real hardware needs

	if got := cart.Read(0xA000); got != 0x11 {
		t.Errorf("Read(0xA000) after latch writes: got 0x%02X, want unchanged 0x11", got)
	}
}

func TestMBC3HasBattery(t *testing.T) {
	rom := make([]byte, 0x8000)
	setupMinimalHeader(rom, 0x13, 0x00)

	header, _ := ParseHeader(rom)
	cart, _ := newMBC3(rom, header)

	if !cart.HasBattery() {
		t.Error("MBC3+RAM+Battery should report HasBattery() true")
	}
}

func TestMBC3GetSetRAM(t *testing.T) {
	rom := make([]byte, 0x8000)
	setupMinimalHeader(rom, 0x13, 0x02) // MBC3+RAM+Battery, 8 KiB

	header, _ := ParseHeader(rom)
	cart, _ := newMBC3(rom, header)

	cart.Write(0x0000, 0x0A)
	cart.Write(0xA000, 0x77)

	ramData := cart.GetRAM()
	if ramData[0] != 0x77 {
		t.Errorf("GetRAM()[0]: got 0x%02X, want 0x77", ramData[0])
	}

	newData := make([]byte, len(ramData))
	newData[0] = 0x55
	if err := cart.SetRAM(newData); err != nil {
		t.Fatalf("SetRAM() error = %v", err)
	}
	if got := cart.Read(0xA000); got != 0x55 {
		t.Errorf("Read(0xA000) after SetRAM: got 0x%02X, want 0x55", got)
	}
}

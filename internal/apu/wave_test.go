package apu

import "testing"

func TestWaveChannel_OutputLevel(t *testing.T) {
	tests := []struct {
		name        string
		outputLevel uint8
		rawNibble   uint8
		expected    uint8
	}{
		{"Mute", 0, 0x0F, 0},
		{"Full volume", 1, 0x0F, 0x0F},
		{"Half volume", 2, 0x0F, 0x07},
		{"Quarter volume", 3, 0x0F, 0x03},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWaveChannel()
			w.waveRAM[0] = tt.rawNibble<<4 | tt.rawNibble
			w.WriteNR30(0x80) // DAC on
			w.WriteNR32(tt.outputLevel << 5)
			w.WriteNR34(0x80, false, 0) // Trigger

			if got := w.Sample(); got != tt.expected {
				t.Errorf("Sample(): got %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestWaveChannel_SampleProgression(t *testing.T) {
	w := NewWaveChannel()
	w.WriteNR30(0x80)
	w.WriteNR32(0x20) // Full volume

	for i := range w.waveRAM {
		w.waveRAM[i] = uint8(i)
	}

	w.WriteNR34(0x80, false, 0) // Trigger, wavePos = 0

	first := w.Sample()
	expectedFirst := (w.waveRAM[0] >> 4) & 0x0F
	if first != expectedFirst {
		t.Errorf("first sample: got %d, want %d", first, expectedFirst)
	}

	// Advance one full step in the wave (frequency 0 -> step period 4096).
	w.Update(4096, 0)

	second := w.Sample()
	expectedSecond := w.waveRAM[0] & 0x0F
	if second != expectedSecond {
		t.Errorf("second sample after one step: got %d, want %d", second, expectedSecond)
	}
}

func TestWaveChannel_LengthTimer(t *testing.T) {
	w := NewWaveChannel()

	w.WriteNR30(0x80)
	w.WriteNR31(0xFF)          // length = 1
	w.WriteNR34(0xC0, true, 0) // Trigger with length enabled; next step clocks length, so no extra clock

	if !w.IsEnabled() {
		t.Fatal("Channel should be enabled after trigger")
	}

	w.ClockLength()

	if w.IsEnabled() {
		t.Error("Channel should be disabled after length expires")
	}
}

func TestWaveChannel_DACDisable(t *testing.T) {
	w := NewWaveChannel()

	w.WriteNR30(0x00) // DAC off
	w.WriteNR34(0x80, false, 0)

	if w.IsEnabled() {
		t.Error("Channel should not enable when DAC is off")
	}
	if w.Sample() != 0 {
		t.Error("Sample should be 0 when DAC is disabled")
	}
}

func TestWaveChannel_WaveRAMReadWriteWhileStopped(t *testing.T) {
	w := NewWaveChannel()

	w.WriteWaveRAM(0, 0xAB, 0)
	if got := w.ReadWaveRAM(0, 0); got != 0xAB {
		t.Errorf("ReadWaveRAM while stopped: got 0x%02X, want 0xAB", got)
	}
}

func TestWaveChannel_WaveRAMGatedWhilePlaying(t *testing.T) {
	w := NewWaveChannel()
	w.waveRAM[0] = 0x12
	w.WriteNR30(0x80)
	w.WriteNR34(0x80, false, 0) // Trigger at cycle 0

	// A CPU access at an arbitrary cycle that does not line up with any
	// wave-sample clock reads back 0xFF instead of the stored byte.
	if got := w.ReadWaveRAM(0, 999); got != 0xFF {
		t.Errorf("ReadWaveRAM while playing, off-clock: got 0x%02X, want 0xFF", got)
	}

	// A write at the same off-clock cycle is dropped.
	w.WriteWaveRAM(0, 0x99, 999)
	if w.waveRAM[0] != 0x12 {
		t.Errorf("WriteWaveRAM while playing, off-clock: got 0x%02X, want unchanged 0x12", w.waveRAM[0])
	}
}

func TestWaveChannel_RetriggerCorruption(t *testing.T) {
	w := NewWaveChannel()
	for i := range w.waveRAM {
		w.waveRAM[i] = uint8(i + 1)
	}
	w.WriteNR30(0x80)
	w.WriteNR34(0x80, false, 0) // First trigger at cycle 0, wavePos starts at 0

	// Advance exactly one wave-sample period (frequency 0 -> period 4096
	// CPU cycles) so a sample clocks at cycle 4096, position 1.
	w.Update(4096, 0)

	// Retriggering exactly 2 cycles after that clock corrupts the first
	// four bytes of wave RAM from the clocked position's 4-byte block.
	w.trigger(false, 4098)

	if w.waveRAM[0] != 1 {
		t.Errorf("wave RAM[0] after corrupting retrigger: got %d, want unchanged 1 (byteIndex 0 copies onto itself)", w.waveRAM[0])
	}
}

func TestWaveChannel_Reset(t *testing.T) {
	w := NewWaveChannel()

	w.WriteNR30(0xFF)
	w.WriteNR31(0xFF)
	w.WriteNR32(0xFF)
	w.WriteNR33(0xFF)
	w.WriteNR34(0xFF, false, 0)
	w.WriteWaveRAM(0, 0xAB, 0)

	w.Reset()

	if w.enabled {
		t.Error("Channel should be disabled after reset")
	}
	if w.dacEnabled {
		t.Error("DAC should be disabled after reset")
	}
	if w.lengthCounter != 0 {
		t.Error("Length counter should be 0 after reset")
	}
	if w.waveRAM[0] != 0 {
		t.Error("Wave RAM should be cleared after reset")
	}
}

func TestWaveChannel_RegisterReadback(t *testing.T) {
	w := NewWaveChannel()

	w.WriteNR30(0x80)
	if got := w.ReadNR30(); got != 0xFF {
		t.Errorf("NR30 readback: got 0x%02X, want 0xFF", got)
	}

	w.WriteNR32(0x40)
	if got := w.ReadNR32(); got != 0xDF {
		t.Errorf("NR32 readback: got 0x%02X, want 0xDF (output level bits read back, unused bits set)", got)
	}
}

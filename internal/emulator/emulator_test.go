package emulator

import "testing"

// makeTestROM builds a minimal 32 KiB ROM-only cartridge image: an all-NOP
// body with a valid header checksum, so New can load it without a real game.
func makeTestROM() []byte {
	rom := make([]byte, 32*1024)

	copy(rom[0x0134:0x0144], []byte("TESTROM"))
	rom[0x0147] = 0x00 // ROM only
	rom[0x0148] = 0x00 // 32 KiB, no banking
	rom[0x0149] = 0x00 // no RAM

	checksum := byte(0)
	for addr := 0x0134; addr <= 0x014C; addr++ {
		checksum = checksum - rom[addr] - 1
	}
	rom[0x014D] = checksum

	return rom
}

func TestNew_UsesDefaultConfig(t *testing.T) {
	e, err := New(makeTestROM())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := DefaultConfig()
	if e.Config != want {
		t.Errorf("Config: got %+v, want %+v", e.Config, want)
	}
}

func TestEmulator_Step_AdvancesCyclesAndSubsystems(t *testing.T) {
	e, err := New(makeTestROM())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	before := e.CPU.Cycles
	cycles := e.Step()

	if cycles == 0 {
		t.Fatal("Step should consume a nonzero number of cycles")
	}
	if e.CPU.Cycles != before+uint64(cycles) {
		t.Errorf("CPU.Cycles: got %d, want %d", e.CPU.Cycles, before+uint64(cycles))
	}
}

func TestEmulator_RunUntilEvent_ProducesFrame(t *testing.T) {
	e, err := New(makeTestROM())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	events := e.RunUntilEvent(1 << 20) // sound buffer threshold unreachable

	if events&EventNewFrame == 0 {
		t.Error("RunUntilEvent should report EventNewFrame within the run-ahead budget for an idle NOP loop")
	}
}

func TestEmulator_RunUntilEvent_SoundBufferFull(t *testing.T) {
	e, err := New(makeTestROM())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.Memory.Write(0xFF26, 0x80) // power the APU on so it produces samples

	events := e.RunUntilEvent(1)

	if events&EventSoundBufferFull == 0 {
		t.Error("RunUntilEvent(1) should report EventSoundBufferFull once the APU has buffered a frame")
	}
}

func TestEmulator_SerialHook_FiresOnTransferStart(t *testing.T) {
	e, err := New(makeTestROM())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.Memory.Write(0xFF01, 'A')
	e.Memory.Write(0xFF02, 0x81) // transfer-start bit set

	if got := e.GetSerialOutput(); got != "A" {
		t.Errorf("GetSerialOutput: got %q, want %q", got, "A")
	}

	// The transfer-start bit is cleared once the byte is captured.
	if e.Memory.Read(0xFF02)&0x80 != 0 {
		t.Error("SC transfer-start bit should be cleared after capture")
	}
}

func TestEmulator_SerialHook_IgnoresWriteWithoutStartBit(t *testing.T) {
	e, err := New(makeTestROM())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.Memory.Write(0xFF01, 'Z')
	e.Memory.Write(0xFF02, 0x01) // internal clock selected, but no start bit

	if got := e.GetSerialOutput(); got != "" {
		t.Errorf("GetSerialOutput: got %q, want empty (no transfer started)", got)
	}
}

func TestEmulator_JoypadPressResumesStoppedCPU(t *testing.T) {
	rom := makeTestROM()
	rom[0x0100] = 0x10 // STOP
	e, err := New(rom)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.CPU.Step() // executes the STOP at 0x0100
	if !e.CPU.Stopped() {
		t.Fatal("CPU should be stopped after executing STOP")
	}

	e.Joypad.PressButton("A")

	if e.CPU.Stopped() {
		t.Error("CPU should not be reported stopped after a joypad press resumes it")
	}
}

func TestEmulator_Reset_ClearsSerialOutputAndCycles(t *testing.T) {
	e, err := New(makeTestROM())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.RunCycles(1000)
	e.Memory.Write(0xFF01, 'X')
	e.Memory.Write(0xFF02, 0x81)

	e.Reset()

	if e.CPU.Cycles != 0 {
		t.Errorf("CPU.Cycles after Reset: got %d, want 0", e.CPU.Cycles)
	}
	if e.GetSerialOutput() != "" {
		t.Error("serial output should be cleared after Reset")
	}
}

func TestDefaultConfig_TraceDisabledByDefault(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Trace {
		t.Error("Trace should default to false")
	}
	if cfg.MaxSoundBufferFrames <= 0 {
		t.Error("MaxSoundBufferFrames should default to a positive value")
	}
}

// Package emulator ties together the CPU, memory bus, PPU, APU, timer,
// joypad, interrupt controller and DMA engine into one runnable system,
// and provides the scheduling loop a host uses to drive it frame by frame.
package emulator

import (
	"errors"
	"fmt"
	"time"

	"github.com/coreboy/dmgcore/internal/apu"
	"github.com/coreboy/dmgcore/internal/cartridge"
	"github.com/coreboy/dmgcore/internal/cpu"
	"github.com/coreboy/dmgcore/internal/input"
	"github.com/coreboy/dmgcore/internal/interrupt"
	"github.com/coreboy/dmgcore/internal/memory"
	"github.com/coreboy/dmgcore/internal/ppu"
	"github.com/coreboy/dmgcore/internal/timer"
)

// ErrTimeout indicates the operation timed out waiting for serial output.
var ErrTimeout = errors.New("timeout waiting for serial output")

// Events is a bitmask of conditions RunUntilEvent can wake a host on.
type Events uint8

const (
	// EventNewFrame reports that the PPU completed a frame.
	EventNewFrame Events = 1 << iota
	// EventSoundBufferFull reports that the APU's sample ring reached the
	// maxSamples threshold passed to RunUntilEvent.
	EventSoundBufferFull
)

// runAheadFrames bounds how many frames RunUntilEvent steps through before
// giving up and returning whatever events fired, so a ROM that never
// produces a frame (LCD held off) or never fills the sound buffer can't
// wedge the host loop.
const runAheadFrames = 4

// Emulator wires the whole DMG system together and owns the scheduling
// order components are stepped in.
type Emulator struct {
	CPU        *cpu.CPU
	Memory     *memory.Bus
	Cart       cartridge.Cartridge
	PPU        *ppu.PPU
	APU        *apu.APU
	Timer      *timer.Timer
	Joypad     *input.Joypad
	Interrupts *interrupt.Controller

	Config Config

	serialOutput []byte
}

// New creates an emulator instance with the given ROM data and the default
// Config.
func New(romData []byte) (*Emulator, error) {
	return NewWithConfig(romData, DefaultConfig())
}

// NewWithConfig creates an emulator instance with an explicit Config.
func NewWithConfig(romData []byte, cfg Config) (*Emulator, error) {
	cart, err := cartridge.New(romData)
	if err != nil {
		return nil, fmt.Errorf("failed to load cartridge: %w", err)
	}

	mem := memory.NewBus()
	if err := mem.LoadROM(romData); err != nil {
		return nil, fmt.Errorf("failed to load ROM into memory: %w", err)
	}

	interrupts := interrupt.New()

	e := &Emulator{
		Cart:         cart,
		Memory:       mem,
		Interrupts:   interrupts,
		Config:       cfg,
		serialOutput: make([]byte, 0, 1024),
	}

	e.PPU = ppu.New(func(bit uint8) { interrupts.Request(1 << bit) })
	e.Timer = timer.New(func() { interrupts.Request(interrupt.Timer) })
	e.Joypad = input.New(func(bit uint8) {
		interrupts.Request(1 << bit)
		e.CPU.Resume()
	})
	e.APU = apu.New()

	mem.SetPPU(e.PPU)
	mem.SetTimer(e.Timer)
	mem.SetJoypad(e.Joypad)
	mem.SetAPU(e.APU)
	mem.SetInterruptController(interrupts)
	mem.SetSerialWriteHook(e.captureSerialByte)

	e.CPU = cpu.New(mem)
	e.CPU.SetInterruptController(interrupts)

	return e, nil
}

// Step advances every component by one CPU instruction's worth of cycles,
// in the fixed order DMA, then PPU, then timer, then APU — all driven off
// the same cycle count the CPU instruction just consumed.
func (e *Emulator) Step() uint8 {
	if e.Config.Trace {
		fmt.Printf("PC=%04X SP=%04X cycles=%d\n", e.CPU.Registers.PC, e.CPU.Registers.SP, e.CPU.Cycles)
	}

	cycles := e.CPU.Step()

	e.Memory.StepDMA(uint16(cycles))
	e.PPU.Step(cycles)
	e.Timer.Update(uint16(cycles))
	e.APU.Update(uint16(cycles))

	return cycles
}

// RunCycles runs the emulator for at least the specified number of cycles.
func (e *Emulator) RunCycles(cycles uint64) {
	targetCycles := e.CPU.Cycles + cycles
	for e.CPU.Cycles < targetCycles {
		e.Step()
	}
}

// RunUntilEvent steps the emulator until a new frame is ready or the APU's
// sample ring reaches maxSamples buffered frames, returning whichever of
// those fired. It gives up after runAheadFrames worth of cycles even if
// neither condition is met, so a host loop always gets control back.
func (e *Emulator) RunUntilEvent(maxSamples int) Events {
	var events Events
	budget := int64(ppu.DotsPerFrame) * runAheadFrames

	for budget > 0 {
		budget -= int64(e.Step())

		if e.PPU.ConsumeNewFrame() {
			events |= EventNewFrame
		}
		if e.APU.BufferedFrames() >= maxSamples {
			events |= EventSoundBufferFull
		}
		if events != 0 {
			break
		}
	}

	return events
}

// RunUntilOutput runs the emulator until serial output stabilizes (no new
// bytes for the timeout window) or the timeout elapses with no output at
// all. Test ROMs that report results over the serial port print "Passed"
// or "Failed", which ends the run immediately once seen.
func (e *Emulator) RunUntilOutput(timeout time.Duration) (string, error) {
	startTime := time.Now()
	lastOutputLen := 0

	for {
		if time.Since(startTime) > timeout {
			if len(e.serialOutput) > 0 {
				return string(e.serialOutput), nil
			}
			return "", ErrTimeout
		}

		e.RunCycles(10000)

		if len(e.serialOutput) > lastOutputLen {
			lastOutputLen = len(e.serialOutput)
			startTime = time.Now()
		}

		if len(e.serialOutput) > 0 {
			output := string(e.serialOutput)
			if containsAny(output, []string{"Passed", "Failed"}) {
				return output, nil
			}
		}
	}
}

// captureSerialByte is installed as the memory bus's serial-write hook,
// firing whenever SC requests a transfer; it records the byte and clears
// the transfer-in-progress bit, matching Blargg-style test ROMs that print
// their result over the serial port.
func (e *Emulator) captureSerialByte(value uint8) {
	e.serialOutput = append(e.serialOutput, value)
	e.Memory.Write(0xFF02, e.Memory.Read(0xFF02)&0x7F)
}

// GetSerialOutput returns the accumulated serial output captured so far.
func (e *Emulator) GetSerialOutput() string {
	return string(e.serialOutput)
}

// Reset resets the CPU, memory, PPU, APU, timer and interrupt controller to
// power-on state while keeping the loaded cartridge attached. The joypad's
// button and select state is kept.
func (e *Emulator) Reset() {
	e.Memory.Reset()
	e.PPU.Reset()
	e.APU.Reset()
	e.Timer.Reset()
	e.Interrupts.Reset()
	e.CPU = cpu.New(e.Memory)
	e.CPU.SetInterruptController(e.Interrupts)
	e.serialOutput = make([]byte, 0, 1024)
}

// containsAny reports whether s contains any of substrs.
func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if len(s) >= len(substr) {
			for i := 0; i <= len(s)-len(substr); i++ {
				if s[i:i+len(substr)] == substr {
					return true
				}
			}
		}
	}
	return false
}

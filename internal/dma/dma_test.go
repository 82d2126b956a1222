package dma

import "testing"

func TestEngine_StartAndActive(t *testing.T) {
	e := New()

	if e.Active() {
		t.Fatal("a fresh engine should not be active")
	}

	e.Start(0xC000)
	if !e.Active() {
		t.Error("engine should be active right after Start")
	}
}

func TestEngine_StepCompletesAllBytes(t *testing.T) {
	e := New()
	e.Start(0xC000)

	var offsets []uint16
	for e.Active() {
		offsets = append(offsets, e.Step(4)...)
	}

	if len(offsets) != transferBytes {
		t.Fatalf("total offsets copied: got %d, want %d", len(offsets), transferBytes)
	}
	for i, off := range offsets {
		if int(off) != i {
			t.Errorf("offset %d: got %d, want %d (sequential)", i, off, i)
			break
		}
	}
}

func TestEngine_StepCatchUpMultipleBytesAtOnce(t *testing.T) {
	e := New()
	e.Start(0xC000)

	offsets := e.Step(40) // 10 bytes worth in one call
	if len(offsets) != 10 {
		t.Errorf("offsets from a 40-cycle step: got %d, want 10", len(offsets))
	}
}

func TestEngine_StepNoopWhenInactive(t *testing.T) {
	e := New()
	if offsets := e.Step(100); offsets != nil {
		t.Errorf("Step on an inactive engine should return nil, got %v", offsets)
	}
}

func TestEngine_SourceAddr(t *testing.T) {
	e := New()
	e.Start(0xC000)

	if got := e.SourceAddr(5); got != 0xC005 {
		t.Errorf("SourceAddr(5): got 0x%04X, want 0xC005", got)
	}
}

func TestEngine_SourceIsVRAM(t *testing.T) {
	e := New()

	e.Start(0x8000)
	if !e.SourceIsVRAM() {
		t.Error("source 0x8000 should be reported as VRAM")
	}

	e.Start(0xC000)
	if e.SourceIsVRAM() {
		t.Error("source 0xC000 should not be reported as VRAM")
	}
}

func TestEngine_TransferEndsAfterDuration(t *testing.T) {
	e := New()
	e.Start(0xD000)

	e.Step(durationCycles - 4)
	if !e.Active() {
		t.Fatal("transfer should still be active one step before completion")
	}

	e.Step(4)
	if e.Active() {
		t.Error("transfer should be inactive once all duration cycles are consumed")
	}
}

func TestEngine_Reset(t *testing.T) {
	e := New()
	e.Start(0xC000)
	e.Step(4)

	e.Reset()

	if e.Active() {
		t.Error("engine should not be active after Reset")
	}
	if offsets := e.Step(1000); offsets != nil {
		t.Error("Step after Reset should be a no-op")
	}
}

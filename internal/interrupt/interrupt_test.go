package interrupt

import "testing"

func TestController_RequestAndPending(t *testing.T) {
	c := New()

	if c.Pending() {
		t.Fatal("no interrupt should be pending on a fresh controller")
	}

	c.Request(VBlank)
	if c.Pending() {
		t.Error("requesting a source with IE unset should not be Pending")
	}

	c.WriteIE(VBlank)
	if !c.Pending() {
		t.Error("VBlank requested and enabled should be Pending")
	}
}

func TestController_NextPriorityOrder(t *testing.T) {
	c := New()
	c.WriteIE(0x1F) // all enabled

	c.Request(Joypad)
	c.Request(Timer)
	c.Request(VBlank)

	vector, ok := c.Next()
	if !ok {
		t.Fatal("Next should report a pending interrupt")
	}
	if vector != 0x0040 {
		t.Errorf("Next vector: got 0x%04X, want 0x0040 (VBlank has highest priority)", vector)
	}
}

func TestController_AcknowledgeClearsOnlyThatSource(t *testing.T) {
	c := New()
	c.WriteIE(0x1F)
	c.Request(VBlank)
	c.Request(Timer)

	c.Acknowledge(0x0040) // VBlank vector

	if c.ReadIF()&VBlank != 0 {
		t.Error("Acknowledge should clear the VBlank IF bit")
	}
	if c.ReadIF()&Timer == 0 {
		t.Error("Acknowledge should leave the unrelated Timer IF bit set")
	}

	vector, ok := c.Next()
	if !ok || vector != 0x0050 {
		t.Errorf("Next after acknowledging VBlank: got (0x%04X, %v), want (0x0050, true)", vector, ok)
	}
}

func TestController_ReadIFUnusedBitsReadAsOne(t *testing.T) {
	c := New()
	if got := c.ReadIF(); got&0xE0 != 0xE0 {
		t.Errorf("ReadIF upper bits: got 0x%02X, want upper 3 bits set", got)
	}
}

func TestController_WriteIFMasksToFiveBits(t *testing.T) {
	c := New()
	c.WriteIF(0xFF)

	if got := c.ReadIF(); got != 0xFF {
		t.Errorf("ReadIF after WriteIF(0xFF): got 0x%02X, want 0xFF (low 5 set + upper 3 forced)", got)
	}

	c.WriteIE(0x1F)
	vector, ok := c.Next()
	if !ok || vector != 0x0040 {
		t.Errorf("Next after WriteIF(0xFF): got (0x%04X, %v), want (0x0040, true)", vector, ok)
	}
}

func TestController_Reset(t *testing.T) {
	c := New()
	c.WriteIE(0x1F)
	c.Request(VBlank)

	c.Reset()

	if c.ReadIE() != 0 {
		t.Error("IE should be 0 after Reset")
	}
	if c.Pending() {
		t.Error("nothing should be pending after Reset")
	}
}

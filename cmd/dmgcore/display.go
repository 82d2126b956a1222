package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/coreboy/dmgcore/internal/emulator"
	"github.com/coreboy/dmgcore/internal/ppu"
)

// Display implements the Ebiten game interface for the Game Boy emulator.
type Display struct {
	emulator    *emulator.Emulator
	screen      *ebiten.Image
	pixels      []byte // Pre-allocated pixel buffer to avoid GC pressure
	audioPlayer *AudioPlayer
}

// NewDisplay creates a new display for the emulator.
func NewDisplay(emu *emulator.Emulator, audioOpts AudioOptions) *Display {
	// Create audio player
	audioPlayer, err := NewAudioPlayer(emu.APU, audioOpts)
	if err != nil {
		// Audio is optional - continue without it if initialization fails
		audioPlayer = nil
	} else {
		// Start audio playback
		audioPlayer.Start()
	}

	return &Display{
		emulator:    emu,
		screen:      ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight),
		pixels:      make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*4), // RGBA format
		audioPlayer: audioPlayer,
	}
}

// Update updates the game logic (runs one frame worth of cycles).
// This is called 60 times per second by Ebiten.
func (d *Display) Update() error {
	// Handle keyboard input
	d.handleInput()

	// Game Boy runs at ~59.73 Hz, which is close to 60 Hz
	// One frame = 70,224 cycles
	d.emulator.RunCycles(ppu.DotsPerFrame)

	// Update audio player with new samples
	if d.audioPlayer != nil {
		d.audioPlayer.Update()
	}

	return nil
}

// handleInput processes keyboard input and updates joypad state.
func (d *Display) handleInput() {
	// Map keyboard keys to Game Boy buttons
	keyMap := map[ebiten.Key]string{
		ebiten.KeyArrowUp:    "Up",
		ebiten.KeyArrowDown:  "Down",
		ebiten.KeyArrowLeft:  "Left",
		ebiten.KeyArrowRight: "Right",
		ebiten.KeyZ:          "A",
		ebiten.KeyX:          "B",
		ebiten.KeyEnter:      "Start",
		ebiten.KeyShift:      "Select",
	}

	// Check each key and update joypad state
	for key, button := range keyMap {
		if ebiten.IsKeyPressed(key) {
			d.emulator.Joypad.PressButton(button)
		} else {
			d.emulator.Joypad.ReleaseButton(button)
		}
	}
}

// Draw draws the game screen.
// This is called after Update.
func (d *Display) Draw(screen *ebiten.Image) {
	// The PPU emits a packed RGBA8888 framebuffer directly, so Draw only
	// needs to spread each uint32 into 4 bytes — no palette lookup here.
	framebuffer := d.emulator.PPU.Framebuffer()

	for i, rgba := range framebuffer {
		offset := i * 4
		d.pixels[offset] = byte(rgba >> 24)
		d.pixels[offset+1] = byte(rgba >> 16)
		d.pixels[offset+2] = byte(rgba >> 8)
		d.pixels[offset+3] = byte(rgba)
	}

	// Write all pixels at once (much faster than 23,040 individual Set() calls)
	d.screen.WritePixels(d.pixels)

	// Draw the screen to the window
	screen.DrawImage(d.screen, nil)
}

// Layout returns the game screen size.
func (d *Display) Layout(_, _ int) (int, int) {
	return ppu.ScreenWidth, ppu.ScreenHeight
}

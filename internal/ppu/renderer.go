package ppu

// renderScanlineAt renders one scanline to the framebuffer at the given
// line — the real LY while the display is on, or fake_LY while it's off.
// The per-call bgIndex buffer tracks the pre-palette background/window
// color index (0-3) of each pixel so sprite priority — which compares
// against color number 0, not the post-palette shade — can be evaluated
// correctly.
func (p *PPU) renderScanlineAt(line uint8) {
	var bgIndex [ScreenWidth]uint8

	if p.lcdc&LCDCBGWindowEnable != 0 {
		p.renderBackground(line, &bgIndex)
	} else {
		p.clearScanline(line)
	}

	windowDrawn := false
	if p.lcdc&LCDCWindowEnable != 0 {
		windowDrawn = p.renderWindow(line, &bgIndex)
	}
	if windowDrawn {
		p.windowLineCounter++
	}

	if p.lcdc&LCDCOBJEnable != 0 {
		p.renderSprites(line, &bgIndex)
	}
}

// clearScanline fills the given scanline with shade index 0.
func (p *PPU) clearScanline(line uint8) {
	offset := int(line) * ScreenWidth
	blank := packRGBA(0)
	for x := 0; x < ScreenWidth; x++ {
		p.framebuffer[offset+x] = blank
	}
}

// renderBackground renders the background layer for the given scanline.
func (p *PPU) renderBackground(line uint8, bgIndex *[ScreenWidth]uint8) {
	tileMapBase := uint16(0x1800) // 0x9800 - 0x8000
	if p.lcdc&LCDCBGTileMap != 0 {
		tileMapBase = 0x1C00 // 0x9C00 - 0x8000
	}

	useSigned := p.lcdc&LCDCBGTileData == 0
	tileDataBase := uint16(0x0000)
	if useSigned {
		tileDataBase = 0x0800 // 0x8800 - 0x8000
	}

	y := uint16(line) + uint16(p.scy)
	tileRow := (y / 8) % 32

	for x := uint16(0); x < ScreenWidth; x++ {
		scrolledX := x + uint16(p.scx)
		tileCol := (scrolledX / 8) % 32

		tileMapAddr := tileMapBase + (tileRow * 32) + tileCol
		tileIndex := p.vram[tileMapAddr]

		tileAddr := p.getTileDataAddr(tileIndex, useSigned, tileDataBase)

		tileY := y % 8
		tileX := scrolledX % 8

		colorIndex := p.getTilePixel(tileAddr, tileX, tileY)
		bgIndex[x] = colorIndex

		shade := p.applyPalette(colorIndex, p.bgp)
		p.framebuffer[int(line)*ScreenWidth+int(x)] = packRGBA(shade)
	}
}

// renderWindow renders the window layer for the given scanline. It reports
// whether the window was actually visible (and thus whether the internal
// window line counter should advance). WY is read from the per-frame
// latch, not the live register, so a mid-frame WY write doesn't desync
// window positioning until the next frame.
func (p *PPU) renderWindow(line uint8, bgIndex *[ScreenWidth]uint8) bool {
	if line < p.wyLatched {
		return false
	}

	windowXOffset := int16(p.wx) - 7
	if windowXOffset >= ScreenWidth {
		return false
	}

	tileMapBase := uint16(0x1800) // 0x9800 - 0x8000
	if p.lcdc&LCDCWindowTileMap != 0 {
		tileMapBase = 0x1C00 // 0x9C00 - 0x8000
	}

	useSigned := p.lcdc&LCDCBGTileData == 0
	tileDataBase := uint16(0x0000)
	if useSigned {
		tileDataBase = 0x0800
	}

	// Use the internal window line counter, which only advances on lines
	// that actually drew the window, instead of recomputing (ly - wy) —
	// the latter desyncs if WY changes mid-frame.
	windowY := uint16(p.windowLineCounter)
	tileRow := (windowY / 8) % 32

	drew := false
	for x := uint16(0); x < ScreenWidth; x++ {
		if int16(x) < windowXOffset {
			continue
		}

		windowX := uint16(int16(x) - windowXOffset) //nolint:gosec // Intentional conversion
		tileCol := (windowX / 8) % 32

		tileMapAddr := tileMapBase + (tileRow * 32) + tileCol
		tileIndex := p.vram[tileMapAddr]

		tileAddr := p.getTileDataAddr(tileIndex, useSigned, tileDataBase)

		tileY := windowY % 8
		tileX := windowX % 8

		colorIndex := p.getTilePixel(tileAddr, tileX, tileY)
		bgIndex[x] = colorIndex

		shade := p.applyPalette(colorIndex, p.bgp)
		p.framebuffer[int(line)*ScreenWidth+int(x)] = packRGBA(shade)
		drew = true
	}

	return drew
}

// renderSprites renders sprites (objects) for the given scanline.
//
//nolint:gocognit // Sprite rendering is inherently complex
func (p *PPU) renderSprites(line uint8, bgIndex *[ScreenWidth]uint8) {
	spriteHeight := uint16(8)
	if p.lcdc&LCDCOBJSize != 0 {
		spriteHeight = 16
	}

	p.spriteBuffer = p.spriteBuffer[:0]

	// Scan OAM in order and insert each matching sprite into the buffer at
	// its stable ascending-X position, so that when two sprites share an X
	// coordinate the one with the lower OAM index stays first — matching
	// real hardware's tie-break and capping at 10 entries per scanline.
	for i := 0; i < 40; i++ {
		oamAddr := i * 4

		y := int16(p.oam[oamAddr]) - 16
		x := int16(p.oam[oamAddr+1]) - 8
		tileIndex := p.oam[oamAddr+2]
		attrs := p.oam[oamAddr+3]

		scanline := int16(line)
		if scanline < y || scanline >= y+int16(spriteHeight) { //nolint:gosec // Intentional conversion
			continue
		}

		if len(p.spriteBuffer) >= 10 {
			continue
		}

		entry := sprite{x: x, y: y, tileIndex: tileIndex, attrs: attrs, oamIndex: i}

		insertAt := len(p.spriteBuffer)
		for j, existing := range p.spriteBuffer {
			if entry.x < existing.x {
				insertAt = j
				break
			}
		}
		p.spriteBuffer = append(p.spriteBuffer, sprite{})
		copy(p.spriteBuffer[insertAt+1:], p.spriteBuffer[insertAt:])
		p.spriteBuffer[insertAt] = entry
	}

	// Draw in reverse buffer order so the lowest-X (highest priority)
	// sprite is painted last and wins overlapping pixels.
	for i := len(p.spriteBuffer) - 1; i >= 0; i-- {
		spr := p.spriteBuffer[i]

		spriteLine := uint16(int16(line) - spr.y) //nolint:gosec // Intentional conversion

		if spr.attrs&SpriteAttrYFlip != 0 {
			spriteLine = spriteHeight - 1 - spriteLine
		}

		tileIndex := uint16(spr.tileIndex)
		if spriteHeight == 16 {
			tileIndex &= 0xFE
			if spriteLine >= 8 {
				tileIndex++
				spriteLine -= 8
			}
		}

		tileAddr := tileIndex * 16

		for x := uint16(0); x < 8; x++ {
			pixelX := spr.x + int16(x)

			if pixelX < 0 || pixelX >= ScreenWidth {
				continue
			}

			tileX := x
			if spr.attrs&SpriteAttrXFlip != 0 {
				tileX = 7 - x
			}

			colorIndex := p.getTilePixel(tileAddr, tileX, spriteLine)

			if colorIndex == 0 {
				continue
			}

			if spr.attrs&SpriteAttrPriority != 0 && bgIndex[pixelX] != 0 {
				continue
			}

			palette := p.obp0
			if spr.attrs&SpriteAttrPalette != 0 {
				palette = p.obp1
			}
			shade := p.applyPalette(colorIndex, palette)

			p.framebuffer[int(line)*ScreenWidth+int(pixelX)] = packRGBA(shade)
		}
	}
}

// getTileDataAddr calculates the address of tile data.
func (p *PPU) getTileDataAddr(tileIndex uint8, useSigned bool, base uint16) uint16 {
	if useSigned {
		// Signed addressing: base at 0x9000 (0x0800 in VRAM)
		signedIndex := int16(int8(tileIndex))                              //nolint:gosec // Intentional signed conversion
		return uint16(int32(base) + int32(0x0800) + int32(signedIndex)*16) //nolint:gosec // Intentional conversion
	}
	// Unsigned addressing: base at 0x8000 (0x0000 in VRAM)
	return base + uint16(tileIndex)*16
}

// getTilePixel gets a pixel from a tile.
// Tiles are 8x8 pixels, 2 bits per pixel, stored as 16 bytes.
func (p *PPU) getTilePixel(tileAddr, x, y uint16) uint8 {
	lineAddr := tileAddr + (y * 2)

	byte1 := p.vram[lineAddr]
	byte2 := p.vram[lineAddr+1]

	bitPos := 7 - x
	bit1 := (byte1 >> bitPos) & 1
	bit2 := (byte2 >> bitPos) & 1

	return (bit2 << 1) | bit1
}

// applyPalette applies a palette to convert a color index (0-3) to a shade (0-3).
func (p *PPU) applyPalette(colorIndex, palette uint8) uint8 {
	shift := colorIndex * 2
	return (palette >> shift) & 0x03
}

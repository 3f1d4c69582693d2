package video

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/averna/dotmatrix/dotmatrix/addr"
)

type irqRecorder struct {
	vblank int
	stat   int
}

func (r *irqRecorder) request(i addr.Interrupt) {
	switch i {
	case addr.VBlank:
		r.vblank++
	case addr.LCDStat:
		r.stat++
	}
}

func newTestPPU(cgb bool) (*PPU, *irqRecorder) {
	rec := &irqRecorder{}
	return New(cgb, rec.request), rec
}

func TestModeSequence(t *testing.T) {
	p, _ := newTestPPU(false)

	assert.Equal(t, ModeOAMScan, p.Mode())
	assert.Equal(t, uint8(0), p.LY())

	p.Tick(oamScanDots)
	assert.Equal(t, ModePixelTransfer, p.Mode())

	p.Tick(transferDots)
	assert.Equal(t, ModeHBlank, p.Mode())

	p.Tick(hblankDots)
	assert.Equal(t, ModeOAMScan, p.Mode())
	assert.Equal(t, uint8(1), p.LY())
}

func TestVBlankTiming(t *testing.T) {
	p, rec := newTestPPU(false)

	p.Tick(lineDots * FramebufferHeight)
	assert.Equal(t, ModeVBlank, p.Mode())
	assert.Equal(t, uint8(144), p.LY())
	assert.Equal(t, 1, rec.vblank)

	// ten more lines complete the frame
	p.Tick(lineDots * 10)
	assert.Equal(t, ModeOAMScan, p.Mode())
	assert.Equal(t, uint8(0), p.LY())
	assert.Equal(t, 1, rec.vblank)
}

func TestFrameCallback(t *testing.T) {
	p, _ := newTestPPU(false)

	frames := 0
	p.OnFrame(func(fb *Framebuffer) {
		frames++
		assert.NotNil(t, fb)
	})

	p.Tick(lineDots * totalLines * 3)
	assert.Equal(t, 3, frames)
}

func TestLYCCoincidence(t *testing.T) {
	p, rec := newTestPPU(false)
	p.WriteRegister(addr.LYC, 2)
	p.WriteRegister(addr.STAT, 0x40) // LYC source enabled

	p.Tick(lineDots)
	assert.Zero(t, p.stat&0x04, "no match on line 1")
	assert.Equal(t, 0, rec.stat)

	p.Tick(lineDots)
	assert.NotZero(t, p.stat&0x04, "match on line 2")
	assert.Equal(t, 1, rec.stat)

	// the line stays high for the whole scanline, no second request
	p.Tick(lineDots / 2)
	assert.Equal(t, 1, rec.stat)
}

func TestHBlankStatSource(t *testing.T) {
	p, rec := newTestPPU(false)
	p.WriteRegister(addr.STAT, 0x08)

	p.Tick(oamScanDots + transferDots)
	assert.Equal(t, ModeHBlank, p.Mode())
	assert.Equal(t, 1, rec.stat)
}

func TestVRAMBlockedDuringPixelTransfer(t *testing.T) {
	p, _ := newTestPPU(false)

	p.WriteVRAM(0x8000, 0x42)
	assert.Equal(t, uint8(0x42), p.ReadVRAM(0x8000))

	p.Tick(oamScanDots)
	assert.Equal(t, ModePixelTransfer, p.Mode())
	assert.Equal(t, uint8(0xFF), p.ReadVRAM(0x8000))
	p.WriteVRAM(0x8000, 0x99)

	p.Tick(transferDots)
	assert.Equal(t, uint8(0x42), p.ReadVRAM(0x8000), "write during transfer is dropped")
}

func TestOAMBlockedDuringScanAndTransfer(t *testing.T) {
	p, _ := newTestPPU(false)

	assert.Equal(t, ModeOAMScan, p.Mode())
	assert.Equal(t, uint8(0xFF), p.ReadOAM(addr.OAMStart))
	p.WriteOAM(addr.OAMStart, 0x42)

	p.Tick(oamScanDots + transferDots)
	assert.Equal(t, ModeHBlank, p.Mode())
	assert.Equal(t, uint8(0x00), p.ReadOAM(addr.OAMStart), "write during scan is dropped")
	p.WriteOAM(addr.OAMStart, 0x55)
	assert.Equal(t, uint8(0x55), p.ReadOAM(addr.OAMStart))
}

func TestDMABypassesBlocking(t *testing.T) {
	p, _ := newTestPPU(false)
	assert.Equal(t, ModeOAMScan, p.Mode())

	p.WriteOAMDMA(0, 0x77)
	p.Tick(oamScanDots + transferDots)
	assert.Equal(t, uint8(0x77), p.ReadOAM(addr.OAMStart))
}

func TestLCDDisableResetsLine(t *testing.T) {
	p, _ := newTestPPU(false)

	p.Tick(lineDots * 10)
	assert.Equal(t, uint8(10), p.LY())

	p.WriteRegister(addr.LCDC, 0x11) // bit 7 clear
	assert.Equal(t, uint8(0), p.LY())
	assert.Equal(t, ModeHBlank, p.Mode())

	// clock does not advance while the LCD is off
	p.Tick(lineDots * 10)
	assert.Equal(t, uint8(0), p.LY())

	p.WriteRegister(addr.LCDC, 0x91)
	assert.Equal(t, ModeOAMScan, p.Mode())
}

func TestSTATReadOnlyBits(t *testing.T) {
	p, _ := newTestPPU(false)

	p.WriteRegister(addr.STAT, 0xFF)
	got := p.ReadRegister(addr.STAT)
	assert.Equal(t, uint8(0x80), got&0x80, "bit 7 always reads 1")
	assert.Equal(t, uint8(ModeOAMScan), got&0x03, "mode bits unaffected by writes")
}

func TestVBKSelectsBank(t *testing.T) {
	p, _ := newTestPPU(true)

	p.WriteVRAM(0x8000, 0x11)
	p.WriteRegister(addr.VBK, 0x01)
	assert.Equal(t, uint8(0xFF), p.ReadRegister(addr.VBK), "unused bits read 1")
	p.WriteVRAM(0x8000, 0x22)

	assert.Equal(t, uint8(0x22), p.ReadVRAM(0x8000))
	p.WriteRegister(addr.VBK, 0x00)
	assert.Equal(t, uint8(0x11), p.ReadVRAM(0x8000))
}

func TestVBKIgnoredOnDMG(t *testing.T) {
	p, _ := newTestPPU(false)
	p.WriteRegister(addr.VBK, 0x01)
	assert.Equal(t, uint8(0xFF), p.ReadRegister(addr.VBK))

	p.WriteVRAM(0x8000, 0x11)
	assert.Equal(t, uint8(0x11), p.ReadVRAM(0x8000))
}

func TestColorRAMAutoIncrement(t *testing.T) {
	p, _ := newTestPPU(true)
	p.WriteRegister(addr.LCDC, 0x11) // LCD off, palette memory free

	p.WriteRegister(addr.BCPS, 0x80) // index 0, auto-increment
	for i := 0; i < 8; i++ {
		p.WriteRegister(addr.BCPD, uint8(i))
	}

	p.WriteRegister(addr.BCPS, 0x03)
	assert.Equal(t, uint8(3), p.ReadRegister(addr.BCPD))
	// reads do not advance the index
	assert.Equal(t, uint8(3), p.ReadRegister(addr.BCPD))
}

func TestColorConversion(t *testing.T) {
	var c colorRAM
	// palette 0 color 0: pure red in RGB555
	c.data[0] = 0x1F
	c.data[1] = 0x00
	assert.Equal(t, uint32(0xFF0000FF), c.color(0, 0))

	// max green
	c.data[2] = 0xE0
	c.data[3] = 0x03
	assert.Equal(t, uint32(0x00FF00FF), c.color(0, 1))

	// max blue
	c.data[4] = 0x00
	c.data[5] = 0x7C
	assert.Equal(t, uint32(0x0000FFFF), c.color(0, 2))
}

func TestPPUStateRoundTrip(t *testing.T) {
	p, _ := newTestPPU(true)
	p.WriteVRAM(0x8123, 0xAB)
	p.WriteRegister(addr.SCX, 7)
	p.WriteRegister(addr.BGP, 0xE4)
	p.Tick(lineDots*3 + 100)

	s := p.State()
	q, _ := newTestPPU(true)
	q.SetState(s)

	assert.Equal(t, p.LY(), q.LY())
	assert.Equal(t, p.Mode(), q.Mode())
	assert.Equal(t, p.ReadRegister(addr.SCX), q.ReadRegister(addr.SCX))
	assert.Equal(t, p.ReadVRAM(0x8123), q.ReadVRAM(0x8123))

	p.Tick(1000)
	q.Tick(1000)
	assert.Equal(t, p.LY(), q.LY())
	assert.Equal(t, p.Mode(), q.Mode())
}

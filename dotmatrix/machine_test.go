package dotmatrix

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testROM returns a 32 KiB no-MBC image with the program at the entry
// point.
func testROM(program ...uint8) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], program)
	return rom
}

func cgbROM(program ...uint8) []byte {
	rom := testROM(program...)
	rom[0x0143] = 0x80
	return rom
}

func TestProgramExecutesAgainstBus(t *testing.T) {
	m, err := NewFromData(testROM(
		0x3E, 0x42, // LD A,0x42
		0xE0, 0x80, // LDH (0x80),A
		0x18, 0xFE, // JR -2
	), DMG)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		m.Step()
	}
	assert.Equal(t, uint8(0x42), m.Bus().Read(0xFF80))
}

func TestRunFrameAdvancesFrames(t *testing.T) {
	m, err := NewFromData(testROM(0x18, 0xFE), DMG) // JR -2
	require.NoError(t, err)

	m.RunFrame()
	m.RunFrame()
	assert.Equal(t, uint64(2), m.Frames())
	assert.NotNil(t, m.Framebuffer())
}

func TestRunFrameTerminatesWithLCDOff(t *testing.T) {
	m, err := NewFromData(testROM(
		0x3E, 0x00, // LD A,0x00
		0xE0, 0x40, // LDH (0x40),A: LCD off
		0x18, 0xFE, // JR -2
	), DMG)
	require.NoError(t, err)

	// must return even though no frame will ever complete
	m.RunFrame()
	assert.Equal(t, uint64(0), m.Frames())
}

func TestVariantAutoDetect(t *testing.T) {
	m, err := NewFromData(testROM(0x18, 0xFE), AutoDetect)
	require.NoError(t, err)
	assert.Equal(t, DMG, m.Variant())

	m, err = NewFromData(cgbROM(0x18, 0xFE), AutoDetect)
	require.NoError(t, err)
	assert.Equal(t, CGB, m.Variant())
}

func TestVariantForcedDMGOnColorROM(t *testing.T) {
	m, err := NewFromData(cgbROM(0x18, 0xFE), DMG)
	require.NoError(t, err)
	assert.Equal(t, DMG, m.Variant())
}

// busyROM is a program that keeps mutating state: increments HRAM and
// a WRAM counter forever.
func busyROM() []byte {
	return testROM(
		0x21, 0x00, 0xC0, // LD HL,0xC000
		0x34,       // INC (HL)
		0x3C,       // INC A
		0xE0, 0x80, // LDH (0x80),A
		0x18, 0xFA, // JR -6
	)
}

func TestSnapshotRoundTrip(t *testing.T) {
	a, err := NewFromData(busyROM(), DMG)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		a.RunFrame()
	}

	var buf bytes.Buffer
	require.NoError(t, a.Snapshot(&buf))

	b, err := NewFromData(busyROM(), DMG)
	require.NoError(t, err)
	require.NoError(t, b.Restore(&buf))

	assert.Equal(t, a.cpu.State(), b.cpu.State())
	assert.Equal(t, a.timer.State(), b.timer.State())
	assert.Equal(t, a.Frames(), b.Frames())

	// both machines must evolve identically from here
	for i := 0; i < 2; i++ {
		a.RunFrame()
		b.RunFrame()
	}
	assert.Equal(t, a.cpu.State(), b.cpu.State())
	assert.Equal(t, a.ppu.State(), b.ppu.State())
	assert.Equal(t, a.bus.State(), b.bus.State())
	assert.Equal(t, a.Framebuffer().ToSlice(), b.Framebuffer().ToSlice())
}

func TestRestoreRejectsVariantMismatch(t *testing.T) {
	a, err := NewFromData(cgbROM(0x18, 0xFE), CGB)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, a.Snapshot(&buf))

	b, err := NewFromData(testROM(0x18, 0xFE), DMG)
	require.NoError(t, err)
	assert.Error(t, b.Restore(&buf))
}

func TestDoubleSpeedHalvesTimerRate(t *testing.T) {
	m, err := NewFromData(cgbROM(0x10, 0x00), CGB) // STOP
	require.NoError(t, err)

	m.Bus().Write(0xFF4D, 0x01) // arm the speed switch
	m.Step()                    // STOP performs it
	require.True(t, m.Bus().DoubleSpeed())

	m.Bus().Write(0xFF04, 0) // reset DIV
	for i := 0; i < 256; i++ {
		m.Step() // NOP, 4 CPU cycles each
	}

	// 1024 CPU cycles are only 512 machine cycles in double speed
	assert.Equal(t, uint8(0x02), m.Bus().Read(0xFF04))
}

func TestVBlankInterruptReachesProgram(t *testing.T) {
	// enable the vblank interrupt and count dispatches at 0x40
	m, err := NewFromData(testROM(
		0x3E, 0x01, // LD A,0x01
		0xE0, 0xFF, // LDH (0xFF),A: IE = vblank
		0x3E, 0x00, // LD A,0x00
		0xE0, 0x0F, // LDH (0x0F),A: clear stale IF
		0xFB,       // EI
		0x18, 0xFE, // JR -2
	), DMG)
	require.NoError(t, err)

	// run up to the end of the first frame, then step once more so
	// the CPU services the request
	m.RunFrame()
	m.Step()

	// the vector holds zero bytes, so execution sits at or just past
	// 0x40 after the dispatch
	pc := m.cpu.PC()
	assert.GreaterOrEqual(t, pc, uint16(0x0040))
	assert.Less(t, pc, uint16(0x0100), "executing below the entry point after dispatch")
}

// Package addr names the memory-mapped registers and regions of the
// Game Boy address space.
package addr

// Joypad and serial registers.
const (
	// P1 selects and reads the joypad button matrix.
	P1 uint16 = 0xFF00
	// SB holds the serial transfer data byte.
	SB uint16 = 0xFF01
	// SC controls serial transfers (bit 7 start, bit 0 clock source).
	SC uint16 = 0xFF02
)

// Timer registers.
const (
	// DIV exposes the high byte of the internal divider. Any write
	// resets the whole divider.
	DIV uint16 = 0xFF04
	// TIMA is the counting register; overflow raises the timer interrupt.
	TIMA uint16 = 0xFF05
	// TMA is the value loaded into TIMA after an overflow.
	TMA uint16 = 0xFF06
	// TAC enables the timer (bit 2) and selects its clock (bits 1-0).
	TAC uint16 = 0xFF07
)

// LCD registers.
const (
	// LCDC is the LCD control register.
	LCDC uint16 = 0xFF40
	// STAT is the LCD status register (mode, LYC flag, STAT sources).
	STAT uint16 = 0xFF41
	// SCY and SCX scroll the background.
	SCY uint16 = 0xFF42
	SCX uint16 = 0xFF43
	// LY is the current scanline, read only.
	LY uint16 = 0xFF44
	// LYC is compared against LY each line.
	LYC uint16 = 0xFF45
	// DMA starts an OAM DMA transfer from value<<8.
	DMA uint16 = 0xFF46
	// BGP, OBP0 and OBP1 are the DMG shade palettes.
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	// WY and WX position the window overlay.
	WY uint16 = 0xFF4A
	WX uint16 = 0xFF4B
)

// CGB-only registers.
const (
	// KEY1 arms (bit 0) and reports (bit 7) double speed mode.
	KEY1 uint16 = 0xFF4D
	// VBK selects the VRAM bank (bit 0).
	VBK uint16 = 0xFF4F
	// HDMA1-4 hold the VRAM DMA source/destination, HDMA5 starts it.
	HDMA1 uint16 = 0xFF51
	HDMA2 uint16 = 0xFF52
	HDMA3 uint16 = 0xFF53
	HDMA4 uint16 = 0xFF54
	HDMA5 uint16 = 0xFF55
	// BCPS/BCPD and OCPS/OCPD access the CGB color palette RAM.
	BCPS uint16 = 0xFF68
	BCPD uint16 = 0xFF69
	OCPS uint16 = 0xFF6A
	OCPD uint16 = 0xFF6B
	// OPRI selects sprite priority order (bit 0: OAM order vs X order).
	OPRI uint16 = 0xFF6C
	// SVBK selects the switchable WRAM bank (bits 2-0, 0 maps to 1).
	SVBK uint16 = 0xFF70
)

// Audio register window. The APU is a bus-mapped stub in this core.
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F
	NR52       uint16 = 0xFF26
)

// Interrupt registers.
const (
	// IF holds the requested interrupt bits. Upper three bits read as 1.
	IF uint16 = 0xFF0F
	// IE holds the enabled interrupt bits.
	IE uint16 = 0xFFFF
)

// Memory regions.
const (
	ROMEnd       uint16 = 0x7FFF
	VRAMStart    uint16 = 0x8000
	VRAMEnd      uint16 = 0x9FFF
	ExtRAMStart  uint16 = 0xA000
	ExtRAMEnd    uint16 = 0xBFFF
	WRAM0Start   uint16 = 0xC000
	WRAM0End     uint16 = 0xCFFF
	WRAM1Start   uint16 = 0xD000
	WRAM1End     uint16 = 0xDFFF
	EchoStart    uint16 = 0xE000
	EchoEnd      uint16 = 0xFDFF
	OAMStart     uint16 = 0xFE00
	OAMEnd       uint16 = 0xFE9F
	UnusedStart  uint16 = 0xFEA0
	UnusedEnd    uint16 = 0xFEFF
	IOStart      uint16 = 0xFF00
	HRAMStart    uint16 = 0xFF80
	HRAMEnd      uint16 = 0xFFFE
)

// Tile data and tile map areas in VRAM.
const (
	TileDataUnsigned uint16 = 0x8000
	TileDataSigned   uint16 = 0x9000
	TileMap0         uint16 = 0x9800
	TileMap1         uint16 = 0x9C00
)

// Interrupt identifies one of the five interrupt sources, ordered by
// dispatch priority (lower value wins).
type Interrupt uint8

const (
	// VBlank fires when the PPU completes a frame.
	VBlank Interrupt = iota
	// LCDStat fires on an enabled STAT condition.
	LCDStat
	// Timer fires when TIMA overflows.
	Timer
	// Serial fires when a serial transfer completes.
	Serial
	// Joypad fires when a selected button line goes low.
	Joypad
)

// Mask returns the IF/IE bit for the interrupt.
func (i Interrupt) Mask() uint8 {
	return 1 << i
}

// Vector returns the handler address the CPU jumps to.
func (i Interrupt) Vector() uint16 {
	return 0x40 + uint16(i)*8
}

func (i Interrupt) String() string {
	switch i {
	case VBlank:
		return "vblank"
	case LCDStat:
		return "stat"
	case Timer:
		return "timer"
	case Serial:
		return "serial"
	case Joypad:
		return "joypad"
	}
	return "unknown"
}

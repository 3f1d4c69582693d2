// Package memory implements the 16 bit bus: address decoding across
// cartridge, video, work RAM and the IO register file, plus the DMA
// engines and the peripherals that live on the bus itself.
package memory

import (
	"github.com/averna/dotmatrix/dotmatrix/addr"
	"github.com/averna/dotmatrix/dotmatrix/cart"
	"github.com/averna/dotmatrix/dotmatrix/interrupt"
	"github.com/averna/dotmatrix/dotmatrix/timer"
	"github.com/averna/dotmatrix/dotmatrix/video"
)

// Bus routes every CPU memory access. Reads and writes never fail:
// unmapped addresses read 0xFF and ignore writes, as on hardware.
type Bus struct {
	cart  *cart.Cartridge
	ppu   *video.PPU
	timer *timer.Timer
	irq   *interrupt.Controller

	cgb  bool
	wram [8][0x1000]uint8
	svbk uint8
	hram [127]uint8

	joypad Joypad
	serial serial
	apu    apu

	key1   uint8 // bit 0 armed, bit 7 current speed
	dmaReg uint8
	hdma   hdma
}

// New wires a bus. The PPU's HBlank callback is claimed for HBlank
// VRAM DMA.
func New(c *cart.Cartridge, ppu *video.PPU, tm *timer.Timer, irq *interrupt.Controller, cgb bool) *Bus {
	b := &Bus{
		cart:  c,
		ppu:   ppu,
		timer: tm,
		irq:   irq,
		cgb:   cgb,
		svbk:  1,
	}
	b.joypad = newJoypad(func() { irq.Request(addr.Joypad) })
	b.serial = serial{irq: func() { irq.Request(addr.Serial) }}
	ppu.OnHBlank(b.hdmaHBlank)
	return b
}

// Joypad returns the joypad for frontends to feed input into.
func (b *Bus) Joypad() *Joypad {
	return &b.joypad
}

// Read returns the byte at address.
func (b *Bus) Read(address uint16) uint8 {
	switch {
	case address <= addr.ROMEnd:
		return b.cart.Read(address)
	case address <= addr.VRAMEnd:
		return b.ppu.ReadVRAM(address)
	case address <= addr.ExtRAMEnd:
		return b.cart.Read(address)
	case address <= addr.WRAM0End:
		return b.wram[0][address-addr.WRAM0Start]
	case address <= addr.WRAM1End:
		return b.wram[b.svbk][address-addr.WRAM1Start]
	case address <= addr.EchoEnd:
		return b.Read(address - 0x2000)
	case address <= addr.OAMEnd:
		return b.ppu.ReadOAM(address)
	case address <= addr.UnusedEnd:
		return 0xFF
	case address < addr.HRAMStart:
		return b.readIO(address)
	case address <= addr.HRAMEnd:
		return b.hram[address-addr.HRAMStart]
	default:
		return b.irq.ReadIE()
	}
}

// Write stores a byte at address.
func (b *Bus) Write(address uint16, value uint8) {
	switch {
	case address <= addr.ROMEnd:
		b.cart.Write(address, value)
	case address <= addr.VRAMEnd:
		b.ppu.WriteVRAM(address, value)
	case address <= addr.ExtRAMEnd:
		b.cart.Write(address, value)
	case address <= addr.WRAM0End:
		b.wram[0][address-addr.WRAM0Start] = value
	case address <= addr.WRAM1End:
		b.wram[b.svbk][address-addr.WRAM1Start] = value
	case address <= addr.EchoEnd:
		b.Write(address-0x2000, value)
	case address <= addr.OAMEnd:
		b.ppu.WriteOAM(address, value)
	case address <= addr.UnusedEnd:
		// unmapped
	case address < addr.HRAMStart:
		b.writeIO(address, value)
	case address <= addr.HRAMEnd:
		b.hram[address-addr.HRAMStart] = value
	default:
		b.irq.WriteIE(value)
	}
}

func (b *Bus) readIO(address uint16) uint8 {
	switch {
	case address == addr.P1:
		return b.joypad.Read()
	case address == addr.SB:
		return b.serial.readSB()
	case address == addr.SC:
		return b.serial.readSC()
	case address == addr.DIV:
		return b.timer.ReadDIV()
	case address == addr.TIMA:
		return b.timer.ReadTIMA()
	case address == addr.TMA:
		return b.timer.ReadTMA()
	case address == addr.TAC:
		return b.timer.ReadTAC()
	case address == addr.IF:
		return b.irq.ReadIF()
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return b.apu.read(address)
	case address == addr.DMA:
		return b.dmaReg
	case address == addr.KEY1:
		if !b.cgb {
			return 0xFF
		}
		return b.key1 | 0x7E
	case address >= addr.HDMA1 && address <= addr.HDMA5:
		return b.readHDMA(address)
	case address == addr.SVBK:
		if !b.cgb {
			return 0xFF
		}
		return 0xF8 | b.svbk
	case address >= addr.LCDC && address <= addr.OPRI:
		return b.ppu.ReadRegister(address)
	}
	return 0xFF
}

func (b *Bus) writeIO(address uint16, value uint8) {
	switch {
	case address == addr.P1:
		b.joypad.Write(value)
	case address == addr.SB:
		b.serial.writeSB(value)
	case address == addr.SC:
		b.serial.writeSC(value)
	case address == addr.DIV:
		b.timer.WriteDIV()
	case address == addr.TIMA:
		b.timer.WriteTIMA(value)
	case address == addr.TMA:
		b.timer.WriteTMA(value)
	case address == addr.TAC:
		b.timer.WriteTAC(value)
	case address == addr.IF:
		b.irq.WriteIF(value)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		b.apu.write(address, value)
	case address == addr.DMA:
		b.startOAMDMA(value)
	case address == addr.KEY1:
		if b.cgb {
			b.key1 = b.key1&0x80 | value&0x01
		}
	case address >= addr.HDMA1 && address <= addr.HDMA5:
		b.writeHDMA(address, value)
	case address == addr.SVBK:
		if b.cgb {
			b.svbk = value & 0x07
			if b.svbk == 0 {
				b.svbk = 1
			}
		}
	case address >= addr.LCDC && address <= addr.OPRI:
		b.ppu.WriteRegister(address, value)
	}
}

// DoubleSpeed reports whether the CGB double speed mode is active.
func (b *Bus) DoubleSpeed() bool {
	return b.key1&0x80 != 0
}

// TrySpeedSwitch toggles the clock speed if a switch is armed through
// KEY1. The CPU calls this on STOP; the return value tells it whether
// the STOP was a speed switch.
func (b *Bus) TrySpeedSwitch() bool {
	if !b.cgb || b.key1&0x01 == 0 {
		return false
	}
	b.key1 = b.key1&0x80 ^ 0x80
	return true
}

// State is the serializable bus state, covering bus-resident
// peripherals but not the attached components.
type State struct {
	WRAM [8][0x1000]uint8
	HRAM [127]uint8
	SVBK uint8
	KEY1 uint8
	DMA  uint8

	JoypadPressed uint8
	JoypadSelect  uint8
	SerialData    uint8
	SerialControl uint8
	APU           [0x30]uint8

	HDMA hdmaState
}

// State captures bus memory and peripheral registers.
func (b *Bus) State() State {
	return State{
		WRAM:          b.wram,
		HRAM:          b.hram,
		SVBK:          b.svbk,
		KEY1:          b.key1,
		DMA:           b.dmaReg,
		JoypadPressed: b.joypad.pressed,
		JoypadSelect:  b.joypad.sel,
		SerialData:    b.serial.data,
		SerialControl: b.serial.control,
		APU:           b.apu.regs,
		HDMA:          b.hdma.state(),
	}
}

// SetState restores captured bus memory and registers.
func (b *Bus) SetState(s State) {
	b.wram = s.WRAM
	b.hram = s.HRAM
	b.svbk = s.SVBK
	b.key1 = s.KEY1
	b.dmaReg = s.DMA
	b.joypad.pressed = s.JoypadPressed
	b.joypad.sel = s.JoypadSelect
	b.serial.data = s.SerialData
	b.serial.control = s.SerialControl
	b.apu.regs = s.APU
	b.hdma.setState(s.HDMA)
}

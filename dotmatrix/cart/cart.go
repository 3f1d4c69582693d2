// Package cart implements cartridge loading and the memory bank
// controllers that map ROM and external RAM into the address space.
package cart

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Load-time failures. Anything that makes the ROM unusable is fatal;
// the bus never sees a half-loaded cartridge.
var (
	ErrROMTooSmall    = errors.New("rom image smaller than header")
	ErrUnsupportedMBC = errors.New("unsupported cartridge type")
)

// Header field offsets.
const (
	titleStart   = 0x0134
	titleEnd     = 0x0143
	cgbFlag      = 0x0143
	cartType     = 0x0147
	romSizeCode  = 0x0148
	ramSizeCode  = 0x0149
	headerLength = 0x0150

	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// Kind identifies the bank controller wired into the cartridge.
type Kind uint8

const (
	// None is a plain 32 KiB ROM with no banking hardware.
	None Kind = iota
	MBC1
	MBC2
	MBC3
	MBC5
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case MBC1:
		return "mbc1"
	case MBC2:
		return "mbc2"
	case MBC3:
		return "mbc3"
	case MBC5:
		return "mbc5"
	}
	return "unknown"
}

// Cartridge is a loaded ROM image plus its banking state. All access
// goes through Read and Write; the controller kind selects the bank
// math, there is no per-kind type.
type Cartridge struct {
	title   string
	kind    Kind
	battery bool
	rtc     bool
	cgb     bool

	rom []byte
	ram []byte

	ramEnabled bool
	romBank    uint16
	ramBank    uint8
	bankMode   uint8 // MBC1 mode flag

	rtcSelect uint8 // MBC3 selected RTC register, 0 when RAM mapped
	rtcLatch  uint8
	rtcRegs   [5]uint8

	dirty bool // RAM written since last flush
}

// New builds a cartridge from a raw ROM image. It validates the header
// and allocates external RAM per the header's RAM size code.
func New(rom []byte) (*Cartridge, error) {
	if len(rom) < headerLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrROMTooSmall, len(rom))
	}

	c := &Cartridge{
		rom:     rom,
		romBank: 1,
		title:   parseTitle(rom),
		cgb:     rom[cgbFlag] == 0x80 || rom[cgbFlag] == 0xC0,
	}

	switch rom[cartType] {
	case 0x00, 0x08:
		c.kind = None
	case 0x09:
		c.kind = None
		c.battery = true
	case 0x01, 0x02:
		c.kind = MBC1
	case 0x03:
		c.kind = MBC1
		c.battery = true
	case 0x05:
		c.kind = MBC2
	case 0x06:
		c.kind = MBC2
		c.battery = true
	case 0x11, 0x12:
		c.kind = MBC3
	case 0x13:
		c.kind = MBC3
		c.battery = true
	case 0x0F, 0x10:
		c.kind = MBC3
		c.battery = true
		c.rtc = true
	case 0x19, 0x1A, 0x1C, 0x1D:
		c.kind = MBC5
	case 0x1B, 0x1E:
		c.kind = MBC5
		c.battery = true
	default:
		return nil, fmt.Errorf("%w: %#02x", ErrUnsupportedMBC, rom[cartType])
	}

	if c.kind == MBC2 {
		// built-in 512 half-byte RAM, not reported in the header
		c.ram = make([]byte, 512)
	} else {
		c.ram = make([]byte, ramSize(rom[ramSizeCode]))
	}

	return c, nil
}

// Open reads a ROM image from disk and builds a cartridge from it.
func Open(path string) (*Cartridge, error) {
	rom, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}
	c, err := New(rom)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return c, nil
}

func parseTitle(rom []byte) string {
	raw := rom[titleStart:titleEnd]
	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	return strings.TrimSpace(string(raw[:end]))
}

func ramSize(code uint8) int {
	switch code {
	case 0x02:
		return 8 * 1024
	case 0x03:
		return 32 * 1024
	case 0x04:
		return 128 * 1024
	case 0x05:
		return 64 * 1024
	}
	return 0
}

// Title returns the title string from the header.
func (c *Cartridge) Title() string {
	return c.title
}

// Kind returns the bank controller kind.
func (c *Cartridge) Kind() Kind {
	return c.kind
}

// HasBattery reports whether RAM contents persist across sessions.
func (c *Cartridge) HasBattery() bool {
	return c.battery
}

// CGB reports whether the header requests or allows Game Boy Color
// behavior.
func (c *Cartridge) CGB() bool {
	return c.cgb
}

// State is the serializable cartridge state. ROM contents are not
// captured; a snapshot only applies to the same image it was taken of.
type State struct {
	RAM        []byte
	RAMEnabled bool
	ROMBank    uint16
	RAMBank    uint8
	BankMode   uint8
	RTCSelect  uint8
	RTCLatch   uint8
	RTCRegs    [5]uint8
}

// State captures the banking registers and RAM contents.
func (c *Cartridge) State() State {
	ram := make([]byte, len(c.ram))
	copy(ram, c.ram)
	return State{
		RAM:        ram,
		RAMEnabled: c.ramEnabled,
		ROMBank:    c.romBank,
		RAMBank:    c.ramBank,
		BankMode:   c.bankMode,
		RTCSelect:  c.rtcSelect,
		RTCLatch:   c.rtcLatch,
		RTCRegs:    c.rtcRegs,
	}
}

// SetState restores captured banking registers and RAM contents.
func (c *Cartridge) SetState(s State) {
	copy(c.ram, s.RAM)
	c.ramEnabled = s.RAMEnabled
	c.romBank = s.ROMBank
	c.ramBank = s.RAMBank
	c.bankMode = s.BankMode
	c.rtcSelect = s.RTCSelect
	c.rtcLatch = s.RTCLatch
	c.rtcRegs = s.RTCRegs
	c.dirty = true
}

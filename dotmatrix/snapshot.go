package dotmatrix

import (
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/averna/dotmatrix/dotmatrix/cart"
	"github.com/averna/dotmatrix/dotmatrix/cpu"
	"github.com/averna/dotmatrix/dotmatrix/interrupt"
	"github.com/averna/dotmatrix/dotmatrix/memory"
	"github.com/averna/dotmatrix/dotmatrix/timer"
	"github.com/averna/dotmatrix/dotmatrix/video"
)

// snapshotVersion guards against restoring states from a different
// build. The format is opaque and only round-trips within one version.
const snapshotVersion = 1

type snapshot struct {
	Version int
	Variant Variant
	Frames  uint64

	CPU       cpu.State
	Interrupt interrupt.State
	Timer     timer.State
	Bus       memory.State
	PPU       video.State
	Cart      cart.State
}

// Snapshot serializes the complete machine state. ROM contents are not
// included; a snapshot only restores onto a machine running the same
// image.
func (m *Machine) Snapshot(w io.Writer) error {
	s := snapshot{
		Version:   snapshotVersion,
		Variant:   m.variant,
		Frames:    m.frames,
		CPU:       m.cpu.State(),
		Interrupt: m.irq.State(),
		Timer:     m.timer.State(),
		Bus:       m.bus.State(),
		PPU:       m.ppu.State(),
		Cart:      m.cart.State(),
	}
	if err := gob.NewEncoder(w).Encode(&s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// Restore replaces the machine state with a previously taken snapshot.
func (m *Machine) Restore(r io.Reader) error {
	var s snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return fmt.Errorf("snapshot version %d not supported", s.Version)
	}
	if s.Variant != m.variant {
		return fmt.Errorf("snapshot is for a %s machine, this is %s", s.Variant, m.variant)
	}

	m.frames = s.Frames
	m.cpu.SetState(s.CPU)
	m.irq.SetState(s.Interrupt)
	m.timer.SetState(s.Timer)
	m.bus.SetState(s.Bus)
	m.ppu.SetState(s.PPU)
	m.cart.SetState(s.Cart)
	return nil
}

// SaveState writes a snapshot to a file.
func (m *Machine) SaveState(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating state file: %w", err)
	}
	defer f.Close()
	if err := m.Snapshot(f); err != nil {
		return err
	}
	slog.Info("saved state", "path", path, "frame", m.frames)
	return nil
}

// LoadState restores a snapshot from a file.
func (m *Machine) LoadState(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening state file: %w", err)
	}
	defer f.Close()
	if err := m.Restore(f); err != nil {
		return err
	}
	slog.Info("loaded state", "path", path, "frame", m.frames)
	return nil
}

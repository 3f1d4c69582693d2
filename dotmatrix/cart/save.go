package cart

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// Battery-backed RAM persistence. Saves are raw RAM images next to the
// ROM. Failures degrade to in-memory RAM and never abort emulation;
// callers get the error and the log gets a warning.

// SavePath returns the save file path for a ROM path.
func SavePath(romPath string) string {
	return romPath + ".sav"
}

// LoadSave fills external RAM from a save file. A missing file is not
// an error; a short or oversized file is loaded truncated.
func (c *Cartridge) LoadSave(path string) error {
	if !c.battery || len(c.ram) == 0 {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		slog.Warn("could not load save file", "path", path, "error", err)
		return fmt.Errorf("loading save: %w", err)
	}
	if len(data) != len(c.ram) {
		slog.Warn("save file size mismatch", "path", path,
			"expected", len(c.ram), "actual", len(data))
	}
	copy(c.ram, data)
	c.dirty = false
	slog.Info("loaded battery save", "path", path, "bytes", len(data))
	return nil
}

// FlushSave writes external RAM to a save file if the cartridge has a
// battery and RAM changed since the last flush.
func (c *Cartridge) FlushSave(path string) error {
	if !c.battery || len(c.ram) == 0 || !c.dirty {
		return nil
	}
	if err := os.WriteFile(path, c.ram, 0o644); err != nil {
		slog.Warn("could not write save file", "path", path, "error", err)
		return fmt.Errorf("writing save: %w", err)
	}
	c.dirty = false
	slog.Info("wrote battery save", "path", path, "bytes", len(c.ram))
	return nil
}

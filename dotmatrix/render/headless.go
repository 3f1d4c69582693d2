package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/averna/dotmatrix/dotmatrix/video"
)

// Headless runs without a display: it counts frames, optionally
// writing text snapshots, and stops after a fixed number of frames.
type Headless struct {
	maxFrames int
	frames    int

	snapshotInterval int
	snapshotDir      string
	name             string
}

// NewHeadless returns a backend that stops after maxFrames frames.
// With interval > 0 a text snapshot is written every interval frames
// into dir.
func NewHeadless(maxFrames, interval int, dir, romPath string) *Headless {
	name := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	return &Headless{
		maxFrames:        maxFrames,
		snapshotInterval: interval,
		snapshotDir:      dir,
		name:             name,
	}
}

func (h *Headless) Init(cfg Config) error {
	if h.snapshotInterval > 0 {
		if h.snapshotDir == "" {
			dir, err := os.MkdirTemp("", "dotmatrix-snapshots-*")
			if err != nil {
				return fmt.Errorf("creating snapshot directory: %w", err)
			}
			h.snapshotDir = dir
		} else if err := os.MkdirAll(h.snapshotDir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	slog.Info("running headless",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotInterval,
		"snapshot_dir", h.snapshotDir)
	return nil
}

func (h *Headless) Update(fb *video.Framebuffer) (bool, error) {
	h.frames++

	if h.snapshotInterval > 0 && h.frames%h.snapshotInterval == 0 {
		if err := h.writeSnapshot(fb); err != nil {
			slog.Warn("could not write frame snapshot", "error", err)
		}
	}
	if h.frames%60 == 0 {
		slog.Debug("frame progress", "completed", h.frames, "total", h.maxFrames)
	}

	return h.frames < h.maxFrames, nil
}

func (h *Headless) Cleanup() error {
	slog.Info("headless run complete", "frames", h.frames)
	return nil
}

// shadeRunes maps pixel luminance to four density glyphs.
var shadeRunes = [4]rune{' ', '░', '▒', '█'}

// writeSnapshot dumps the frame as text, one glyph per pixel.
func (h *Headless) writeSnapshot(fb *video.Framebuffer) error {
	var sb strings.Builder
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			sb.WriteRune(shadeRunes[shadeIndex(fb.GetPixel(x, y))])
		}
		sb.WriteByte('\n')
	}

	path := filepath.Join(h.snapshotDir, fmt.Sprintf("%s-frame-%06d.txt", h.name, h.frames))
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return err
	}
	slog.Debug("wrote frame snapshot", "path", path)
	return nil
}

// shadeIndex buckets a pixel into one of four shades by luminance,
// darkest bucket last to match the glyph ramp.
func shadeIndex(pixel uint32) int {
	r := pixel >> 24 & 0xFF
	g := pixel >> 16 & 0xFF
	b := pixel >> 8 & 0xFF
	luma := (r*299 + g*587 + b*114) / 1000
	return 3 - int(luma>>6)
}
